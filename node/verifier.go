package node

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"primework.dev/node/consensus"
	"primework.dev/node/crypto"
)

type HeaderReport struct {
	Header consensus.BlockHeader
	Hash   [32]byte
	// Origin is set when the header carries a non-zero multiplier; Best when
	// certification ran.
	Origin *big.Int
	Best   *consensus.ChainResult
	// PowErr is the proof-of-work verdict; nil means the header meets its target.
	PowErr error
}

func (r HeaderReport) HashHex() string {
	return hex.EncodeToString(r.Hash[:])
}

func (r HeaderReport) HasProof() bool {
	return r.Header.Multiplier().Sign() != 0
}

type Verifier struct {
	hasher crypto.HashProvider
	params consensus.PowParams
	logger *zap.Logger
}

func NewVerifier(hasher crypto.HashProvider, params consensus.PowParams, logger *zap.Logger) (*Verifier, error) {
	if hasher == nil {
		return nil, errors.New("nil hash provider")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{hasher: hasher, params: params, logger: logger}, nil
}

// NewVerifierFromConfig resolves the configured header hash and proof-of-work parameters.
func NewVerifierFromConfig(cfg Config, logger *zap.Logger) (*Verifier, error) {
	hasher, err := crypto.ProviderByName(cfg.HeaderHash)
	if err != nil {
		return nil, err
	}
	return NewVerifier(hasher, cfg.PowParams(ZapDiagnostics(logger)), logger)
}

// VerifyHeaderFile reads an 80- or 128-byte header from path and verifies it.
func (v *Verifier) VerifyHeaderFile(ctx context.Context, path string) (HeaderReport, error) {
	raw, err := readFileByPath(path, maxHeaderFileBytes)
	if err != nil {
		return HeaderReport{}, fmt.Errorf("read header: %w", err)
	}
	return v.VerifyHeaderBytes(ctx, raw)
}

// VerifyHeaderBytes parses and hashes raw, then checks the proof of work and
// stores the verdict in PowErr. The returned error is reserved for parse, hash
// and cancellation failures.
func (v *Verifier) VerifyHeaderBytes(ctx context.Context, raw []byte) (HeaderReport, error) {
	header, err := consensus.ParseBlockHeaderBytes(raw)
	if err != nil {
		return HeaderReport{}, err
	}
	hash, err := consensus.HeaderHash(v.hasher, header)
	if err != nil {
		return HeaderReport{}, err
	}
	report := HeaderReport{Header: header, Hash: hash}
	if report.HasProof() {
		report.Origin = consensus.ProofOrigin(hash, header.Multiplier())
	}
	best, err := consensus.CheckProofOfWorkDigest(ctx, hash, header, v.params)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return report, err
	}
	if best.Type.Valid() {
		report.Best = &best
	}
	report.PowErr = err
	v.logger.Info("header verified",
		zap.String("hash", report.HashHex()),
		zap.Stringer("bits", header.Bits),
		zap.Bool("valid", err == nil),
		zap.Error(err))
	return report, nil
}
