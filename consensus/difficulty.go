package consensus

import "fmt"

const (
	// FRACTIONAL_BITS is the width of the fractional chain length held in the low bits of a Difficulty.
	FRACTIONAL_BITS = 24

	FRACTIONAL_MASK uint32 = (1 << FRACTIONAL_BITS) - 1
	LENGTH_MASK     uint32 = ^FRACTIONAL_MASK

	// MAX_CHAIN_LENGTH is the largest integer chain length representable in the high bits.
	MAX_CHAIN_LENGTH = LENGTH_MASK >> FRACTIONAL_BITS
)

// Difficulty is a fixed-point chain length: the integer number of links in the
// high 8 bits and the fractional length in the low FRACTIONAL_BITS bits.
// It uses the same encoding as the block header bits field, so a certified
// Difficulty compares directly against a target.
type Difficulty uint32

// NewDifficulty packs a chain length and fractional length.
func NewDifficulty(chainLength uint32, fractional uint32) (Difficulty, error) {
	if chainLength > MAX_CHAIN_LENGTH {
		return 0, chainerrf(CHAIN_ERR_LENGTH_OVERFLOW, "chain length %d exceeds %d", chainLength, MAX_CHAIN_LENGTH)
	}
	if fractional > FRACTIONAL_MASK {
		return 0, chainerrf(CHAIN_ERR_FRACTIONAL_OVERFLOW, "fractional length %d exceeds %d", fractional, FRACTIONAL_MASK)
	}
	return Difficulty(chainLength<<FRACTIONAL_BITS | fractional), nil
}

func (d Difficulty) ChainLength() uint32 {
	return uint32(d) >> FRACTIONAL_BITS
}

func (d Difficulty) FractionalLength() uint32 {
	return uint32(d) & FRACTIONAL_MASK
}

// AddChainLinks adds n whole links, leaving the fractional length untouched.
func (d Difficulty) AddChainLinks(n uint32) (Difficulty, error) {
	cur := d.ChainLength()
	if n > MAX_CHAIN_LENGTH-cur {
		return d, chainerrf(CHAIN_ERR_LENGTH_OVERFLOW, "chain length %d + %d exceeds %d", cur, n, MAX_CHAIN_LENGTH)
	}
	return d + Difficulty(n<<FRACTIONAL_BITS), nil
}

// WithFractionalLength overwrites the fractional length while keeping the chain length.
func (d Difficulty) WithFractionalLength(fractional uint32) (Difficulty, error) {
	if fractional > FRACTIONAL_MASK {
		return d, chainerrf(CHAIN_ERR_FRACTIONAL_OVERFLOW, "fractional length %d exceeds %d", fractional, FRACTIONAL_MASK)
	}
	return Difficulty(uint32(d)&LENGTH_MASK | fractional), nil
}

// Combine adds the chain lengths of d and other. The result keeps the
// fractional length of d; the fractional length of other is dropped.
func (d Difficulty) Combine(other Difficulty) (Difficulty, error) {
	return d.AddChainLinks(other.ChainLength())
}

// MeetsTarget reports whether d is at least as long as target.
func (d Difficulty) MeetsTarget(target Difficulty) bool {
	return d >= target
}

func (d Difficulty) Float64() float64 {
	return float64(d.ChainLength()) + float64(d.FractionalLength())/float64(uint32(1)<<FRACTIONAL_BITS)
}

// String renders the length and fraction in hex, e.g. "04.cccccc".
func (d Difficulty) String() string {
	return fmt.Sprintf("%02x.%06x", d.ChainLength(), d.FractionalLength())
}
