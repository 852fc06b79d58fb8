package consensus

import (
	"context"
	"fmt"
	"math/big"
	"strings"
)

type ChainType uint8

const (
	CHAIN_CUNNINGHAM1 ChainType = 1
	CHAIN_CUNNINGHAM2 ChainType = 2
	CHAIN_BI_TWIN     ChainType = 3
)

// AllChainTypes lists chain types in the order a driver reports them on equal length.
var AllChainTypes = []ChainType{CHAIN_BI_TWIN, CHAIN_CUNNINGHAM1, CHAIN_CUNNINGHAM2}

func (t ChainType) String() string {
	switch t {
	case CHAIN_CUNNINGHAM1:
		return "1CC"
	case CHAIN_CUNNINGHAM2:
		return "2CC"
	case CHAIN_BI_TWIN:
		return "TWN"
	default:
		return fmt.Sprintf("ChainType(%d)", uint8(t))
	}
}

func (t ChainType) Valid() bool {
	return t >= CHAIN_CUNNINGHAM1 && t <= CHAIN_BI_TWIN
}

// ParseChainType accepts "1cc", "2cc", "twn" and the long names
// "cunningham1", "cunningham2", "bitwin" (case-insensitive).
func ParseChainType(s string) (ChainType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1cc", "cunningham1", "first":
		return CHAIN_CUNNINGHAM1, nil
	case "2cc", "cunningham2", "second":
		return CHAIN_CUNNINGHAM2, nil
	case "twn", "bitwin", "bi-twin":
		return CHAIN_BI_TWIN, nil
	default:
		return 0, chainerrf(CHAIN_ERR_TYPE_INVALID, "unknown chain type %q", s)
	}
}

type FractionalSource uint8

const (
	// FractionalFromOrigin derives the fractional length from the chain's starting link.
	FractionalFromOrigin FractionalSource = iota
	// FractionalFromBreakingLink derives it from the first link that failed its test
	// (or the next untested link when MaxChainLinks stopped the walk).
	FractionalFromBreakingLink
)

const (
	DEFAULT_MAX_CHAIN_LINKS = 64
	// MAX_CHAIN_LINKS keeps a bi-twin of two capped walks (2*n+1) inside the 8-bit length.
	MAX_CHAIN_LINKS = (MAX_CHAIN_LENGTH - 1) / 2
)

type ChainParams struct {
	// MaxChainLinks bounds the walk; a chain reaching it stops with this length.
	// 0 selects DEFAULT_MAX_CHAIN_LINKS and values above MAX_CHAIN_LINKS are clamped.
	MaxChainLinks    uint32
	FractionalSource FractionalSource
	// ClampFractionalOverflow clamps an out-of-range fractional length to
	// FRACTIONAL_MASK and reports it through Diagnostics instead of failing.
	ClampFractionalOverflow bool
	Diagnostics             DiagnosticFunc
}

func DefaultChainParams() ChainParams {
	return ChainParams{MaxChainLinks: DEFAULT_MAX_CHAIN_LINKS}
}

func (cp ChainParams) maxLinks() uint32 {
	switch {
	case cp.MaxChainLinks == 0:
		return DEFAULT_MAX_CHAIN_LINKS
	case cp.MaxChainLinks > MAX_CHAIN_LINKS:
		return MAX_CHAIN_LINKS
	default:
		return cp.MaxChainLinks
	}
}

// WalkChain is WalkChainContext with a background context.
func WalkChain(p *big.Int, sophieGermain bool, params ChainParams) (Difficulty, error) {
	return WalkChainContext(context.Background(), p, sophieGermain, params)
}

// WalkChainContext certifies the Cunningham chain starting at p: p, 2p+1, 4p+3, ...
// (sophieGermain) or p, 2p-1, 4p-3, ... The first link uses the Fermat test and
// every following link the Euler-Lagrange-Lifchitz test. ctx is checked before each link.
func WalkChainContext(ctx context.Context, p *big.Int, sophieGermain bool, params ChainParams) (Difficulty, error) {
	if err := checkTestOperand(p); err != nil {
		return 0, err
	}
	residue := fermatResidue(p)
	if residue.Cmp(bigOne) != 0 {
		return params.withFractional(0, p, residue)
	}

	maxLinks := params.maxLinks()
	var d Difficulty
	n := new(big.Int).Set(p)
	for {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			default:
			}
		}
		var err error
		if d, err = d.AddChainLinks(1); err != nil {
			return 0, err
		}

		n.Lsh(n, 1)
		if sophieGermain {
			n.Add(n, bigOne)
		} else {
			n.Sub(n, bigOne)
		}
		if d.ChainLength() >= maxLinks {
			break
		}

		ok, err := EulerLagrangeLifchitzTest(n, sophieGermain)
		if err != nil {
			if CodeOf(err) != CHAIN_ERR_INVALID_RESIDUE_CLASS {
				return 0, err
			}
			params.Diagnostics.report(err)
		}
		if !ok {
			break
		}
	}

	if params.FractionalSource == FractionalFromBreakingLink {
		return params.withFractional(d, n, fermatResidue(n))
	}
	return params.withFractional(d, p, residue)
}

func (cp ChainParams) withFractional(d Difficulty, p *big.Int, residue *big.Int) (Difficulty, error) {
	frac, err := FractionalLength(p, residue)
	if err != nil {
		if CodeOf(err) != CHAIN_ERR_FRACTIONAL_OVERFLOW || !cp.ClampFractionalOverflow {
			return 0, err
		}
		cp.Diagnostics.report(err)
		frac = FRACTIONAL_MASK
	}
	return d.WithFractionalLength(frac)
}

// Certify is CertifyContext with a background context.
func Certify(origin *big.Int, chainType ChainType, params ChainParams) (Difficulty, error) {
	return CertifyContext(context.Background(), origin, chainType, params)
}

// CertifyContext certifies the chain of the given type rooted at origin:
// first kind at origin-1, second kind at origin+1, and bi-twin as both,
// combined by CombineBiTwin. The second-kind walk of a bi-twin is skipped
// unless the first-kind chain has at least two links.
func CertifyContext(ctx context.Context, origin *big.Int, chainType ChainType, params ChainParams) (Difficulty, error) {
	if origin == nil || origin.Sign() < 0 {
		return 0, chainerr(CHAIN_ERR_PRECONDITION, "origin must be non-negative")
	}
	switch chainType {
	case CHAIN_CUNNINGHAM1:
		return WalkChainContext(ctx, new(big.Int).Sub(origin, bigOne), true, params)
	case CHAIN_CUNNINGHAM2:
		return WalkChainContext(ctx, new(big.Int).Add(origin, bigOne), false, params)
	case CHAIN_BI_TWIN:
		cc1, err := WalkChainContext(ctx, new(big.Int).Sub(origin, bigOne), true, params)
		if err != nil {
			return 0, err
		}
		if cc1.ChainLength() < 2 {
			return 0, nil
		}
		cc2, err := WalkChainContext(ctx, new(big.Int).Add(origin, bigOne), false, params)
		if err != nil {
			return 0, err
		}
		return CombineBiTwin(cc1, cc2)
	default:
		return 0, chainerrf(CHAIN_ERR_TYPE_INVALID, "unknown chain type %d", uint8(chainType))
	}
}

// CombineBiTwin merges a first-kind and second-kind result into a bi-twin length.
// When cc1 is longer the bi-twin ends on a single trailing first-kind prime:
// length 2*len(cc2)+1 carrying cc2's fractional length. Otherwise the length is
// 2*len(cc1) carrying cc1's fractional length.
func CombineBiTwin(cc1, cc2 Difficulty) (Difficulty, error) {
	len1, len2 := cc1.ChainLength(), cc2.ChainLength()
	if len1 > len2 {
		return cc2.Combine(Difficulty((len2 + 1) << FRACTIONAL_BITS))
	}
	return cc1.Combine(Difficulty(len1 << FRACTIONAL_BITS))
}

type ChainResult struct {
	Type       ChainType
	Difficulty Difficulty
}

type ChainResults []ChainResult

// Best returns the result with the highest Difficulty; exact ties keep the earlier
// entry, so results ordered as AllChainTypes prefer bi-twin, then first kind.
func (rs ChainResults) Best() (ChainResult, bool) {
	if len(rs) == 0 {
		return ChainResult{}, false
	}
	best := rs[0]
	for _, r := range rs[1:] {
		if r.Difficulty > best.Difficulty {
			best = r
		}
	}
	return best, true
}

// CertifyAll certifies every chain type for origin in AllChainTypes order.
func CertifyAll(ctx context.Context, origin *big.Int, params ChainParams) (ChainResults, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	out := make(ChainResults, 0, len(AllChainTypes))
	for _, t := range AllChainTypes {
		d, err := CertifyContext(ctx, origin, t, params)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t, err)
		}
		out = append(out, ChainResult{Type: t, Difficulty: d})
	}
	return out, nil
}
