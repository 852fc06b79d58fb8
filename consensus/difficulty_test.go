package consensus

import "testing"

func TestNewDifficultyRoundTrip(t *testing.T) {
	for _, length := range []uint32{0, 1, 2, 7, 99, MAX_CHAIN_LENGTH} {
		for _, frac := range []uint32{0, 1, 0x800000, FRACTIONAL_MASK} {
			d, err := NewDifficulty(length, frac)
			if err != nil {
				t.Fatalf("NewDifficulty(%d,%d): %v", length, frac, err)
			}
			if d.ChainLength() != length {
				t.Fatalf("ChainLength=%d want %d", d.ChainLength(), length)
			}
			if d.FractionalLength() != frac {
				t.Fatalf("FractionalLength=%d want %d", d.FractionalLength(), frac)
			}
		}
	}
}

func TestNewDifficultyRejectsOverflow(t *testing.T) {
	if _, err := NewDifficulty(MAX_CHAIN_LENGTH+1, 0); CodeOf(err) != CHAIN_ERR_LENGTH_OVERFLOW {
		t.Fatalf("expected length overflow, got %v", err)
	}
	if _, err := NewDifficulty(1, FRACTIONAL_MASK+1); CodeOf(err) != CHAIN_ERR_FRACTIONAL_OVERFLOW {
		t.Fatalf("expected fractional overflow, got %v", err)
	}
}

func TestDifficultyAddChainLinksKeepsFraction(t *testing.T) {
	d, err := NewDifficulty(3, 0x123456)
	if err != nil {
		t.Fatalf("NewDifficulty: %v", err)
	}
	for _, n := range []uint32{0, 1, 5, 200} {
		got, err := d.AddChainLinks(n)
		if err != nil {
			t.Fatalf("AddChainLinks(%d): %v", n, err)
		}
		if got.ChainLength() != 3+n {
			t.Fatalf("AddChainLinks(%d) length=%d", n, got.ChainLength())
		}
		if got.FractionalLength() != 0x123456 {
			t.Fatalf("AddChainLinks(%d) fraction=%x", n, got.FractionalLength())
		}
	}
}

func TestDifficultyAddChainLinksOverflow(t *testing.T) {
	d, _ := NewDifficulty(MAX_CHAIN_LENGTH, 7)
	got, err := d.AddChainLinks(1)
	if CodeOf(err) != CHAIN_ERR_LENGTH_OVERFLOW {
		t.Fatalf("expected length overflow, got %v", err)
	}
	if got != d {
		t.Fatalf("difficulty mutated on overflow: %v", got)
	}
}

func TestDifficultyWithFractionalLength(t *testing.T) {
	d, _ := NewDifficulty(4, 0xffffff)
	got, err := d.WithFractionalLength(0x000001)
	if err != nil {
		t.Fatalf("WithFractionalLength: %v", err)
	}
	if got.ChainLength() != 4 || got.FractionalLength() != 1 {
		t.Fatalf("got %s", got)
	}
	if _, err := d.WithFractionalLength(1 << FRACTIONAL_BITS); CodeOf(err) != CHAIN_ERR_FRACTIONAL_OVERFLOW {
		t.Fatalf("expected fractional overflow, got %v", err)
	}
}

func TestDifficultyCombineKeepsReceiverFraction(t *testing.T) {
	a, _ := NewDifficulty(2, 0xaaaaaa)
	b, _ := NewDifficulty(3, 0xbbbbbb)
	got, err := a.Combine(b)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if got.ChainLength() != 5 || got.FractionalLength() != 0xaaaaaa {
		t.Fatalf("a+b=%s", got)
	}
	got, err = b.Combine(a)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if got.ChainLength() != 5 || got.FractionalLength() != 0xbbbbbb {
		t.Fatalf("b+a=%s", got)
	}
}

func TestDifficultyMeetsTarget(t *testing.T) {
	target, _ := NewDifficulty(4, 0x800000)
	cases := []struct {
		length uint32
		frac   uint32
		want   bool
	}{
		{4, 0x800000, true},
		{4, 0x7fffff, false},
		{5, 0, true},
		{3, FRACTIONAL_MASK, false},
	}
	for _, tc := range cases {
		d, _ := NewDifficulty(tc.length, tc.frac)
		if got := d.MeetsTarget(target); got != tc.want {
			t.Fatalf("%s.MeetsTarget(%s)=%v want %v", d, target, got, tc.want)
		}
	}
}

func TestDifficultyFormatting(t *testing.T) {
	d, _ := NewDifficulty(4, 0xcccccc)
	if got := d.String(); got != "04.cccccc" {
		t.Fatalf("String=%q", got)
	}
	half, _ := NewDifficulty(2, 0x800000)
	if got := half.Float64(); got != 2.5 {
		t.Fatalf("Float64=%v", got)
	}
}
