package btcspv

import (
	"math/big"
	"testing"
)

func TestRetargetAlgorithm(t *testing.T) {
	prev := new(big.Int).Lsh(big.NewInt(0x00ffff), 8*24)
	four := big.NewInt(4)

	cases := []struct {
		name          string
		first, second uint32
		want          *big.Int
	}{
		{"exact period", 1000, 1000 + RetargetPeriod, new(big.Int).Set(prev)},
		{"five periods clamps up", 0, 5 * RetargetPeriod, new(big.Int).Mul(prev, four)},
		{"tiny elapsed clamps down", 5000, 5060, new(big.Int).Quo(prev, four)},
		{"half period", 0, RetargetPeriod / 2, new(big.Int).Rsh(prev, 1)},
		{"out of order clamps down", 9000, 100, new(big.Int).Quo(prev, four)},
	}
	for _, c := range cases {
		got := RetargetAlgorithm(prev, c.first, c.second)
		if got.Cmp(c.want) != 0 {
			t.Fatalf("%s: got=%x want=%x", c.name, got, c.want)
		}
	}
	if prev.Cmp(new(big.Int).Lsh(big.NewInt(0x00ffff), 8*24)) != 0 {
		t.Fatalf("previous target was mutated")
	}
}

func TestRetargetAlgorithm_MultipliesBeforeDividing(t *testing.T) {
	prev := big.NewInt(3)
	got := RetargetAlgorithm(prev, 0, RetargetPeriod*2)
	if got.Cmp(big.NewInt(6)) != 0 {
		t.Fatalf("got=%s want 6", got)
	}
	got = RetargetAlgorithm(big.NewInt(10), 0, RetargetPeriod+RetargetPeriod/2)
	if got.Cmp(big.NewInt(15)) != 0 {
		t.Fatalf("got=%s want 15", got)
	}
}
