package node

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"primework.dev/node/consensus"
)

// ScanOriginStep is the origin spacing the scanner works on. Origins stay
// multiples of it so origin-1 and origin+1 are odd and never powers of two.
const ScanOriginStep = 6

var bigScanOriginStep = big.NewInt(ScanOriginStep)

// NormalizeScanStart rounds start up to the next multiple of ScanOriginStep,
// with ScanOriginStep as the smallest origin.
func NormalizeScanStart(start *big.Int) (*big.Int, error) {
	if start == nil || start.Sign() < 0 {
		return nil, errors.New("scan start must be non-negative")
	}
	if start.Cmp(bigScanOriginStep) <= 0 {
		return new(big.Int).Set(bigScanOriginStep), nil
	}
	q, r := new(big.Int).QuoRem(start, bigScanOriginStep, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q.Mul(q, bigScanOriginStep), nil
}

type ScannerConfig struct {
	// Start is rounded up to a multiple of ScanOriginStep; Step must be one.
	Start *big.Int
	Step  uint64
	// Count is the number of origins to test; 0 scans until ctx is cancelled.
	Count          uint64
	MinChainLength uint32
	Chain          consensus.ChainParams
}

// ScanHit is an origin whose preferred chain reached MinChainLength.
type ScanHit struct {
	Origin  *big.Int
	Result  consensus.ChainResult
	Results consensus.ChainResults
}

type ScanStats struct {
	Tested uint64
	Hits   uint64
	Last   *big.Int
}

type Scanner struct {
	cfg    ScannerConfig
	logger *zap.Logger
}

func DefaultScannerConfig() ScannerConfig {
	return ScannerConfig{
		Start:          big.NewInt(6),
		Step:           6,
		MinChainLength: 2,
		Chain:          consensus.DefaultChainParams(),
	}
}

// NewScannerConfig builds the scanner settings from cfg.
func NewScannerConfig(cfg Config, diag consensus.DiagnosticFunc) (ScannerConfig, error) {
	start, err := ParseOrigin(cfg.Scan.Start)
	if err != nil {
		return ScannerConfig{}, err
	}
	return ScannerConfig{
		Start:          start,
		Step:           cfg.Scan.Step,
		Count:          cfg.Scan.Count,
		MinChainLength: cfg.Scan.MinChainLength,
		Chain:          cfg.ChainParams(diag),
	}, nil
}

func NewScanner(cfg ScannerConfig, logger *zap.Logger) (*Scanner, error) {
	start, err := NormalizeScanStart(cfg.Start)
	if err != nil {
		return nil, err
	}
	if err := validateScanStep(cfg.Step); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if start.Cmp(cfg.Start) != 0 {
		logger.Info("scan start normalized",
			zap.String("requested", cfg.Start.String()),
			zap.String("start", start.String()))
	}
	cfg.Start = start
	return &Scanner{cfg: cfg, logger: logger}, nil
}

func validateScanStep(step uint64) error {
	if step == 0 || step%ScanOriginStep != 0 {
		return fmt.Errorf("scan step must be a positive multiple of %d", ScanOriginStep)
	}
	return nil
}

// Start returns the normalized first origin.
func (s *Scanner) Start() *big.Int {
	return new(big.Int).Set(s.cfg.Start)
}

// Scan walks origins Start, Start+Step, ... and calls onHit for every origin whose
// preferred chain (bi-twin, then first kind, then second kind) reaches
// MinChainLength. Candidate generation and certification run as a two-stage
// pipeline; the first error, or ctx cancellation before Count origins, stops both.
func (s *Scanner) Scan(ctx context.Context, onHit func(ScanHit) error) (ScanStats, error) {
	if s == nil {
		return ScanStats{}, errors.New("scanner is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	g, gctx := errgroup.WithContext(ctx)
	origins := make(chan *big.Int, 16)

	g.Go(func() error {
		defer close(origins)
		step := new(big.Int).SetUint64(s.cfg.Step)
		next := new(big.Int).Set(s.cfg.Start)
		for i := uint64(0); s.cfg.Count == 0 || i < s.cfg.Count; i++ {
			select {
			case origins <- new(big.Int).Set(next):
			case <-gctx.Done():
				return gctx.Err()
			}
			next.Add(next, step)
		}
		return nil
	})

	var stats ScanStats
	g.Go(func() error {
		for origin := range origins {
			if err := gctx.Err(); err != nil {
				return err
			}
			results, err := consensus.CertifyAll(gctx, origin, s.cfg.Chain)
			if err != nil {
				return err
			}
			stats.Tested++
			stats.Last = origin

			hit, ok := s.preferred(results)
			if !ok {
				continue
			}
			stats.Hits++
			s.logger.Debug("chain found",
				zap.String("origin", origin.String()),
				zap.Stringer("type", hit.Type),
				zap.Uint32("length", hit.Difficulty.ChainLength()),
				zap.Stringer("difficulty", hit.Difficulty))
			if onHit != nil {
				if err := onHit(ScanHit{Origin: origin, Result: hit, Results: results}); err != nil {
					return err
				}
			}
		}
		return nil
	})

	err := g.Wait()
	s.logger.Info("scan finished",
		zap.Uint64("tested", stats.Tested),
		zap.Uint64("hits", stats.Hits),
		zap.Error(err))
	return stats, err
}

func (s *Scanner) preferred(results consensus.ChainResults) (consensus.ChainResult, bool) {
	for _, r := range results {
		if r.Difficulty.ChainLength() >= s.cfg.MinChainLength {
			return r, true
		}
	}
	return consensus.ChainResult{}, false
}
