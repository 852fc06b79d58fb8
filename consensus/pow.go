package consensus

import (
	"context"
	"math/big"

	"primework.dev/node/crypto"
)

const (
	MAX_TARGET_LENGTH         = 99
	DEFAULT_MIN_TARGET_LENGTH = 2
	DEFAULT_MAX_ORIGIN_BITS   = 2000
)

var minHeaderHash = new(big.Int).Lsh(big.NewInt(1), 255)

type PowParams struct {
	Chain           ChainParams
	MinTargetLength uint32
	MaxOriginBits   int
}

func DefaultPowParams() PowParams {
	return PowParams{
		Chain:           DefaultChainParams(),
		MinTargetLength: DEFAULT_MIN_TARGET_LENGTH,
		MaxOriginBits:   DEFAULT_MAX_ORIGIN_BITS,
	}
}

// ValidateTarget checks that a header target lies in [minLength, MAX_TARGET_LENGTH].
func ValidateTarget(target Difficulty, minLength uint32) error {
	length := target.ChainLength()
	if length < minLength {
		return chainerrf(BLOCK_ERR_TARGET_INVALID, "target length %d below minimum %d", length, minLength)
	}
	if length > MAX_TARGET_LENGTH {
		return chainerrf(BLOCK_ERR_TARGET_INVALID, "target length %d above maximum %d", length, MAX_TARGET_LENGTH)
	}
	return nil
}

// CheckProofOfWork certifies the chain rooted at hash(header) * multiplier and
// checks the best chain type against header.Bits. The best result is returned
// whenever certification ran, including when it misses the target.
func CheckProofOfWork(ctx context.Context, p crypto.HashProvider, header BlockHeader, params PowParams) (ChainResult, error) {
	if err := ValidateTarget(header.Bits, params.MinTargetLength); err != nil {
		return ChainResult{}, err
	}
	hash, err := HeaderHash(p, header)
	if err != nil {
		return ChainResult{}, err
	}
	return checkProofDigest(ctx, hash, header, params)
}

// CheckProofOfWorkDigest is CheckProofOfWork for a caller that already holds
// the header digest.
func CheckProofOfWorkDigest(ctx context.Context, hash [32]byte, header BlockHeader, params PowParams) (ChainResult, error) {
	if err := ValidateTarget(header.Bits, params.MinTargetLength); err != nil {
		return ChainResult{}, err
	}
	return checkProofDigest(ctx, hash, header, params)
}

func checkProofDigest(ctx context.Context, hash [32]byte, header BlockHeader, params PowParams) (ChainResult, error) {
	if HashToInt(hash).Cmp(minHeaderHash) < 0 {
		return ChainResult{}, chainerr(BLOCK_ERR_POW_INVALID, "header hash below 2^255")
	}
	multiplier := header.Multiplier()
	if multiplier.Sign() == 0 {
		return ChainResult{}, chainerr(BLOCK_ERR_MULTIPLIER_INVALID, "zero multiplier")
	}
	origin := ProofOrigin(hash, multiplier)
	if params.MaxOriginBits > 0 && origin.BitLen() > params.MaxOriginBits {
		return ChainResult{}, chainerrf(BLOCK_ERR_POW_INVALID, "origin has %d bits, max %d", origin.BitLen(), params.MaxOriginBits)
	}

	results, err := CertifyAll(ctx, origin, params.Chain)
	if err != nil {
		return ChainResult{}, err
	}
	best, _ := results.Best()
	if !best.Difficulty.MeetsTarget(header.Bits) {
		return best, chainerrf(BLOCK_ERR_POW_INVALID, "chain %s %s below target %s", best.Type, best.Difficulty, header.Bits)
	}
	return best, nil
}
