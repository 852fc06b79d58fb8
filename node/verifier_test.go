package node

import (
	"context"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"primework.dev/node/consensus"
	"primework.dev/node/crypto"
)

func verifierTestConfig() Config {
	cfg := DefaultConfig()
	cfg.MinTargetLength = 1
	return cfg
}

// minedHeader returns a header with a hash >= 2^255 and a multiplier whose
// origin carries a chain of at least one link.
func minedHeader(t *testing.T, cfg Config) consensus.BlockHeader {
	t.Helper()
	h := consensus.BlockHeader{
		Version: consensus.CURRENT_HEADER_VERSION,
		Time:    1700000000,
		Bits:    consensus.Difficulty(1 << consensus.FRACTIONAL_BITS),
	}
	p := crypto.DoubleSHA256Provider{}
	for ; h.Nonce < 1024; h.Nonce++ {
		sum, err := consensus.HeaderHash(p, h)
		require.NoError(t, err)
		if sum[31]&0x80 != 0 {
			break
		}
	}
	params := cfg.PowParams(nil)
	for k := int64(1); k <= 5000; k++ {
		require.NoError(t, h.SetMultiplier(big.NewInt(6*k)))
		if _, err := consensus.CheckProofOfWork(context.Background(), p, h, params); err == nil {
			return h
		}
	}
	t.Fatalf("no multiplier found")
	return h
}

func TestVerifyHeaderBytesValid(t *testing.T) {
	cfg := verifierTestConfig()
	core, logs := observer.New(zap.InfoLevel)
	v, err := NewVerifierFromConfig(cfg, zap.New(core))
	require.NoError(t, err)

	h := minedHeader(t, cfg)
	report, err := v.VerifyHeaderBytes(context.Background(), consensus.MarshalBlockHeader(h))
	require.NoError(t, err)
	require.NoError(t, report.PowErr)
	assert.Equal(t, h, report.Header)
	assert.True(t, report.HasProof())
	require.NotNil(t, report.Best)
	assert.True(t, report.Best.Difficulty.MeetsTarget(h.Bits))

	wantHash, err := consensus.HeaderHash(crypto.DoubleSHA256Provider{}, h)
	require.NoError(t, err)
	assert.Equal(t, wantHash, report.Hash)
	assert.Len(t, report.HashHex(), 64)
	assert.Zero(t, report.Origin.Cmp(consensus.ProofOrigin(wantHash, h.Multiplier())))

	entries := logs.FilterMessage("header verified").All()
	require.Len(t, entries, 1)
	assert.Equal(t, true, entries[0].ContextMap()["valid"])
}

type countingHasher struct {
	crypto.HashProvider
	calls int
}

func (c *countingHasher) HeaderHash(input []byte) ([32]byte, error) {
	c.calls++
	return c.HashProvider.HeaderHash(input)
}

func TestVerifyHeaderBytesHashesOnce(t *testing.T) {
	cfg := verifierTestConfig()
	h := minedHeader(t, cfg)
	hasher := &countingHasher{HashProvider: crypto.DoubleSHA256Provider{}}
	v, err := NewVerifier(hasher, cfg.PowParams(nil), nil)
	require.NoError(t, err)

	report, err := v.VerifyHeaderBytes(context.Background(), consensus.MarshalBlockHeader(h))
	require.NoError(t, err)
	require.NoError(t, report.PowErr)
	assert.Equal(t, 1, hasher.calls)
}

func TestVerifyHeaderBytesVerdicts(t *testing.T) {
	cfg := verifierTestConfig()
	v, err := NewVerifierFromConfig(cfg, nil)
	require.NoError(t, err)

	h := minedHeader(t, cfg)
	bare := consensus.BlockHeaderBytes(h)
	report, err := v.VerifyHeaderBytes(context.Background(), bare)
	require.NoError(t, err)
	assert.False(t, report.HasProof())
	assert.Nil(t, report.Origin)
	assert.Nil(t, report.Best)
	assert.Equal(t, consensus.BLOCK_ERR_MULTIPLIER_INVALID, consensus.CodeOf(report.PowErr))

	hard := h
	hard.Bits = consensus.Difficulty(40 << consensus.FRACTIONAL_BITS)
	report, err = v.VerifyHeaderBytes(context.Background(), consensus.MarshalBlockHeader(hard))
	require.NoError(t, err)
	assert.Equal(t, consensus.BLOCK_ERR_POW_INVALID, consensus.CodeOf(report.PowErr))

	_, err = v.VerifyHeaderBytes(context.Background(), bare[:40])
	assert.Equal(t, consensus.BLOCK_ERR_PARSE, consensus.CodeOf(err))
}

func TestVerifyHeaderBytesCancelled(t *testing.T) {
	cfg := verifierTestConfig()
	v, err := NewVerifierFromConfig(cfg, nil)
	require.NoError(t, err)
	h := minedHeader(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = v.VerifyHeaderBytes(ctx, consensus.MarshalBlockHeader(h))
	assert.True(t, errors.Is(err, context.Canceled), "err=%v", err)
}

func TestVerifyHeaderFile(t *testing.T) {
	cfg := verifierTestConfig()
	v, err := NewVerifierFromConfig(cfg, nil)
	require.NoError(t, err)

	h := minedHeader(t, cfg)
	path := filepath.Join(t.TempDir(), "header.bin")
	require.NoError(t, os.WriteFile(path, consensus.MarshalBlockHeader(h), 0o600))
	report, err := v.VerifyHeaderFile(context.Background(), path)
	require.NoError(t, err)
	assert.NoError(t, report.PowErr)

	_, err = v.VerifyHeaderFile(context.Background(), filepath.Join(t.TempDir(), "missing.bin"))
	assert.Error(t, err)
}

func TestNewVerifierRejects(t *testing.T) {
	_, err := NewVerifier(nil, consensus.DefaultPowParams(), nil)
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.HeaderHash = "md5"
	_, err = NewVerifierFromConfig(cfg, nil)
	assert.Error(t, err)
}
