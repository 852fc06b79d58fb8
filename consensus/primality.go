package consensus

import "math/big"

var (
	bigOne = big.NewInt(1)
	bigTwo = big.NewInt(2)
)

func checkTestOperand(n *big.Int) error {
	if n == nil {
		return chainerr(CHAIN_ERR_PRECONDITION, "nil operand")
	}
	if n.Cmp(bigTwo) < 0 {
		return chainerrf(CHAIN_ERR_PRECONDITION, "operand %s < 2", n.String())
	}
	return nil
}

// fermatResidue returns 2^(n-1) mod n. The caller checks n >= 2.
func fermatResidue(n *big.Int) *big.Int {
	e := new(big.Int).Sub(n, bigOne)
	return e.Exp(bigTwo, e, n)
}

// FermatTest reports whether 2^(n-1) mod n == 1. Base-2 pseudoprimes (341, 561, ...)
// pass; n = 2 does not.
func FermatTest(n *big.Int) (bool, error) {
	if err := checkTestOperand(n); err != nil {
		return false, err
	}
	return fermatResidue(n).Cmp(bigOne) == 0, nil
}

// EulerLagrangeLifchitzTest tests n = 2p+1 (sophieGermain) or n = 2p-1 for
// probable primality given that p = (n-1)/2 is the previous chain link.
//
//	first kind,  n%8 == 7: 2^p mod n == 1
//	first kind,  n%8 == 3: 2^p mod n == n-1
//	second kind, n%8 == 1: 2^p mod n == 1
//	second kind, n%8 == 5: 2^p mod n == n-1
//
// Any other residue class returns false with CHAIN_ERR_INVALID_RESIDUE_CLASS.
func EulerLagrangeLifchitzTest(n *big.Int, sophieGermain bool) (bool, error) {
	if err := checkTestOperand(n); err != nil {
		return false, err
	}
	nMod8 := n.Bits()[0] & 7

	var wantOne bool
	switch {
	case sophieGermain && nMod8 == 7:
		wantOne = true
	case sophieGermain && nMod8 == 3:
		wantOne = false
	case !sophieGermain && nMod8 == 1:
		wantOne = true
	case !sophieGermain && nMod8 == 5:
		wantOne = false
	default:
		return false, chainerrf(CHAIN_ERR_INVALID_RESIDUE_CLASS, "n %% 8 = %d, %s", nMod8, chainKindName(sophieGermain))
	}

	p := new(big.Int).Rsh(n, 1)
	r := p.Exp(bigTwo, p, n)
	if wantOne {
		return r.Cmp(bigOne) == 0, nil
	}
	return r.Add(r, bigOne).Cmp(n) == 0, nil
}

// FractionalLength returns ((p - r) << FRACTIONAL_BITS) / p, where r is the
// Fermat residue 2^(p-1) mod p. Values outside [0, 2^FRACTIONAL_BITS) fail with
// CHAIN_ERR_FRACTIONAL_OVERFLOW.
func FractionalLength(p *big.Int, residue *big.Int) (uint32, error) {
	if p == nil || p.Sign() <= 0 {
		return 0, chainerr(CHAIN_ERR_PRECONDITION, "fractional length of non-positive p")
	}
	if residue == nil || residue.Sign() < 0 {
		return 0, chainerr(CHAIN_ERR_PRECONDITION, "negative fermat residue")
	}
	v := new(big.Int).Sub(p, residue)
	if v.Sign() < 0 {
		return 0, chainerr(CHAIN_ERR_FRACTIONAL_OVERFLOW, "residue exceeds p")
	}
	v.Lsh(v, FRACTIONAL_BITS)
	v.Quo(v, p)
	if !v.IsUint64() || v.Uint64() > uint64(FRACTIONAL_MASK) {
		return 0, chainerrf(CHAIN_ERR_FRACTIONAL_OVERFLOW, "fractional length %s >= 2^%d", v.String(), FRACTIONAL_BITS)
	}
	return uint32(v.Uint64()), nil
}

func chainKindName(sophieGermain bool) string {
	if sophieGermain {
		return "first kind"
	}
	return "second kind"
}
