package node

import (
	"math/big"
	"testing"

	"btcspv.dev/bridge/btcspv"
)

func TestCompactFromTarget(t *testing.T) {
	cases := []struct {
		target *big.Int
		want   uint32
	}{
		{btcspv.DiffOneTarget(), 0x1d00ffff},
		{maxTarget, 0x1d00ffff},
		{big.NewInt(0x80), 0x02008000},
		{big.NewInt(0x12), 0x01120000},
		{big.NewInt(0x1234), 0x02123400},
		{new(big.Int).Lsh(big.NewInt(0x0404cb), 8*(0x1b-3)), 0x1b0404cb},
		{big.NewInt(0), 0},
		{nil, 0},
	}
	for _, c := range cases {
		if got := compactFromTarget(c.target); got != c.want {
			t.Fatalf("target=%x got=%08x want=%08x", c.target, got, c.want)
		}
	}
}

func TestNextWorkRequired(t *testing.T) {
	diffOne := btcspv.DiffOneTarget()
	if got := nextWorkRequired(diffOne, 0, btcspv.RetargetPeriod); got != 0x1d00ffff {
		t.Fatalf("steady state got=%08x", got)
	}
	// Slow blocks cannot push the target above the proof-of-work limit.
	if got := nextWorkRequired(diffOne, 0, btcspv.RetargetPeriod*3); got != 0x1d00ffff {
		t.Fatalf("capped got=%08x", got)
	}
	// Fast blocks clamp to a quarter of the previous target.
	if got := nextWorkRequired(diffOne, 0, 60); got != 0x1c3fffc0 {
		t.Fatalf("clamped got=%08x", got)
	}
}
