package consensus

import (
	"math/big"

	"primework.dev/node/crypto"
)

const (
	HASH_BYTES             = 32
	PRIME_MULTIPLIER_BYTES = 48

	// BLOCK_HEADER_BYTES is the hashed part of the header: version, prev hash,
	// merkle root, time, bits and nonce.
	BLOCK_HEADER_BYTES = 4 + HASH_BYTES + HASH_BYTES + 4 + 4 + 4
	// FULL_HEADER_BYTES appends the prime multiplier, which is not hashed.
	FULL_HEADER_BYTES = BLOCK_HEADER_BYTES + PRIME_MULTIPLIER_BYTES

	CURRENT_HEADER_VERSION = 2
)

type BlockHeader struct {
	Version       int32
	PrevBlockHash [32]byte
	MerkleRoot    [32]byte
	Time          uint32
	// Bits is the target Difficulty the certified chain must meet.
	Bits  Difficulty
	Nonce uint32
	// PrimeMultiplier is a little-endian unsigned integer; origin = hash * multiplier.
	PrimeMultiplier [PRIME_MULTIPLIER_BYTES]byte
}

// BlockHeaderBytes returns the 80-byte hash preimage (multiplier excluded).
func BlockHeaderBytes(header BlockHeader) []byte {
	out := make([]byte, 0, FULL_HEADER_BYTES)
	out = appendU32le(out, uint32(header.Version))
	out = append(out, header.PrevBlockHash[:]...)
	out = append(out, header.MerkleRoot[:]...)
	out = appendU32le(out, header.Time)
	out = appendU32le(out, uint32(header.Bits))
	out = appendU32le(out, header.Nonce)
	return out
}

// MarshalBlockHeader returns the full 128-byte encoding.
func MarshalBlockHeader(header BlockHeader) []byte {
	out := BlockHeaderBytes(header)
	return append(out, header.PrimeMultiplier[:]...)
}

// ParseBlockHeaderBytes parses an 80-byte header (zero multiplier) or a 128-byte
// header with multiplier and rejects any other length.
func ParseBlockHeaderBytes(b []byte) (BlockHeader, error) {
	var h BlockHeader
	if len(b) != BLOCK_HEADER_BYTES && len(b) != FULL_HEADER_BYTES {
		return h, chainerrf(BLOCK_ERR_PARSE, "header length %d", len(b))
	}
	off := 0

	version, err := readU32le(b, &off)
	if err != nil {
		return h, err
	}
	prev, err := readBytes(b, &off, HASH_BYTES)
	if err != nil {
		return h, err
	}
	merkle, err := readBytes(b, &off, HASH_BYTES)
	if err != nil {
		return h, err
	}
	ts, err := readU32le(b, &off)
	if err != nil {
		return h, err
	}
	bits, err := readU32le(b, &off)
	if err != nil {
		return h, err
	}
	nonce, err := readU32le(b, &off)
	if err != nil {
		return h, err
	}
	if off < len(b) {
		mul, err := readBytes(b, &off, PRIME_MULTIPLIER_BYTES)
		if err != nil {
			return h, err
		}
		copy(h.PrimeMultiplier[:], mul)
	}

	h.Version = int32(version)
	copy(h.PrevBlockHash[:], prev)
	copy(h.MerkleRoot[:], merkle)
	h.Time = ts
	h.Bits = Difficulty(bits)
	h.Nonce = nonce
	return h, nil
}

// HeaderHash hashes the 80-byte preimage with p.
func HeaderHash(p crypto.HashProvider, header BlockHeader) ([32]byte, error) {
	if p == nil {
		return [32]byte{}, chainerr(CHAIN_ERR_PRECONDITION, "nil hash provider")
	}
	return p.HeaderHash(BlockHeaderBytes(header))
}

// LittleEndianToInt reads b as an unsigned little-endian integer.
func LittleEndianToInt(b []byte) *big.Int {
	be := make([]byte, len(b))
	for i := range b {
		be[len(b)-1-i] = b[i]
	}
	return new(big.Int).SetBytes(be)
}

// HashToInt reads a header digest as a little-endian integer.
func HashToInt(hash [32]byte) *big.Int {
	return LittleEndianToInt(hash[:])
}

func (h BlockHeader) Multiplier() *big.Int {
	return LittleEndianToInt(h.PrimeMultiplier[:])
}

// SetMultiplier stores m little-endian; m must be non-negative and fit 48 bytes.
func (h *BlockHeader) SetMultiplier(m *big.Int) error {
	if m == nil || m.Sign() < 0 {
		return chainerr(BLOCK_ERR_MULTIPLIER_INVALID, "negative multiplier")
	}
	if m.BitLen() > 8*PRIME_MULTIPLIER_BYTES {
		return chainerrf(BLOCK_ERR_MULTIPLIER_INVALID, "multiplier exceeds %d bytes", PRIME_MULTIPLIER_BYTES)
	}
	var be [PRIME_MULTIPLIER_BYTES]byte
	m.FillBytes(be[:])
	for i := range be {
		h.PrimeMultiplier[PRIME_MULTIPLIER_BYTES-1-i] = be[i]
	}
	return nil
}

// ProofOrigin returns hash * multiplier, the origin the chain is rooted at.
func ProofOrigin(hash [32]byte, multiplier *big.Int) *big.Int {
	return new(big.Int).Mul(HashToInt(hash), multiplier)
}
