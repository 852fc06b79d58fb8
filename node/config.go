package node

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"gopkg.in/yaml.v3"

	"primework.dev/node/consensus"
	"primework.dev/node/crypto"
)

type ScanConfig struct {
	Start          string `yaml:"start" json:"start"`
	Step           uint64 `yaml:"step" json:"step"`
	Count          uint64 `yaml:"count" json:"count"`
	MinChainLength uint32 `yaml:"min_chain_length" json:"min_chain_length"`
}

type Config struct {
	LogLevel                string     `yaml:"log_level" json:"log_level"`
	HeaderHash              string     `yaml:"header_hash" json:"header_hash"`
	MaxChainLinks           uint32     `yaml:"max_chain_links" json:"max_chain_links"`
	FractionalSource        string     `yaml:"fractional_source" json:"fractional_source"`
	ClampFractionalOverflow bool       `yaml:"clamp_fractional_overflow" json:"clamp_fractional_overflow"`
	MinTargetLength         uint32     `yaml:"min_target_length" json:"min_target_length"`
	MaxOriginBits           int        `yaml:"max_origin_bits" json:"max_origin_bits"`
	Scan                    ScanConfig `yaml:"scan" json:"scan"`
}

const (
	FractionalSourceOrigin   = "origin"
	FractionalSourceBreaking = "breaking"

	maxConfigChainLinks = consensus.MAX_CHAIN_LINKS
)

var allowedLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

func DefaultConfig() Config {
	return Config{
		LogLevel:         "info",
		HeaderHash:       crypto.HashSHA256d,
		MaxChainLinks:    consensus.DEFAULT_MAX_CHAIN_LINKS,
		FractionalSource: FractionalSourceOrigin,
		MinTargetLength:  consensus.DEFAULT_MIN_TARGET_LENGTH,
		MaxOriginBits:    consensus.DEFAULT_MAX_ORIGIN_BITS,
		Scan: ScanConfig{
			Start:          "6",
			Step:           6,
			MinChainLength: 2,
		},
	}
}

// LoadConfig overlays the YAML file at path onto DefaultConfig. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	raw, err := readFileByPath(path, maxConfigFileBytes)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func (cfg *Config) normalize() {
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.HeaderHash = strings.ToLower(strings.TrimSpace(cfg.HeaderHash))
	cfg.FractionalSource = strings.ToLower(strings.TrimSpace(cfg.FractionalSource))
	cfg.Scan.Start = strings.TrimSpace(cfg.Scan.Start)
}

func ValidateConfig(cfg Config) error {
	logLevel := strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if _, ok := allowedLogLevels[logLevel]; !ok {
		return fmt.Errorf("invalid log_level %q", cfg.LogLevel)
	}
	if _, err := crypto.ProviderByName(cfg.HeaderHash); err != nil {
		return fmt.Errorf("invalid header_hash: %w", err)
	}
	if cfg.MaxChainLinks == 0 {
		return errors.New("max_chain_links must be > 0")
	}
	if cfg.MaxChainLinks > maxConfigChainLinks {
		return fmt.Errorf("max_chain_links must be <= %d", maxConfigChainLinks)
	}
	if _, err := parseFractionalSource(cfg.FractionalSource); err != nil {
		return err
	}
	if cfg.MinTargetLength == 0 || cfg.MinTargetLength > consensus.MAX_TARGET_LENGTH {
		return fmt.Errorf("min_target_length must be in [1, %d]", consensus.MAX_TARGET_LENGTH)
	}
	if cfg.MaxOriginBits <= 0 {
		return errors.New("max_origin_bits must be > 0")
	}
	if _, err := ParseOrigin(cfg.Scan.Start); err != nil {
		return fmt.Errorf("invalid scan.start: %w", err)
	}
	if err := validateScanStep(cfg.Scan.Step); err != nil {
		return fmt.Errorf("invalid scan.step: %w", err)
	}
	if cfg.Scan.MinChainLength > consensus.MAX_CHAIN_LENGTH {
		return fmt.Errorf("scan.min_chain_length must be <= %d", consensus.MAX_CHAIN_LENGTH)
	}
	return nil
}

func parseFractionalSource(s string) (consensus.FractionalSource, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", FractionalSourceOrigin:
		return consensus.FractionalFromOrigin, nil
	case FractionalSourceBreaking:
		return consensus.FractionalFromBreakingLink, nil
	default:
		return 0, fmt.Errorf("invalid fractional_source %q", s)
	}
}

// ParseOrigin parses a non-negative decimal (or 0x-prefixed hex) integer.
func ParseOrigin(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty origin")
	}
	v, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, fmt.Errorf("not an integer: %q", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative origin: %q", s)
	}
	return v, nil
}

// ChainParams projects the config onto consensus parameters. diag may be nil.
func (cfg Config) ChainParams(diag consensus.DiagnosticFunc) consensus.ChainParams {
	src, _ := parseFractionalSource(cfg.FractionalSource)
	return consensus.ChainParams{
		MaxChainLinks:           cfg.MaxChainLinks,
		FractionalSource:        src,
		ClampFractionalOverflow: cfg.ClampFractionalOverflow,
		Diagnostics:             diag,
	}
}

func (cfg Config) PowParams(diag consensus.DiagnosticFunc) consensus.PowParams {
	return consensus.PowParams{
		Chain:           cfg.ChainParams(diag),
		MinTargetLength: cfg.MinTargetLength,
		MaxOriginBits:   cfg.MaxOriginBits,
	}
}
