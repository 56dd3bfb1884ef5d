package btcspv

import (
	"bytes"
	"math/big"
	"testing"
)

func TestParseRawHeader_Length(t *testing.T) {
	for _, n := range []int{0, 79, 81, 160} {
		_, err := ParseRawHeader(make([]byte, n))
		if err == nil {
			t.Fatalf("len %d: expected error", n)
		}
		if got := mustSPVErrCode(t, err); got != SPV_ERR_WRONG_LENGTH_HEADER {
			t.Fatalf("len %d: code=%s", n, got)
		}
	}
}

func TestHeaderFields_Block1(t *testing.T) {
	h := mustHeader(t, block1HeaderHex)

	if v := ExtractVersion(h); v != 1 {
		t.Fatalf("version=%d", v)
	}
	prev := ExtractPrevBlockHashLE(h)
	if got := ReverseEndianness(prev[:]); !bytes.Equal(got, mustHex(t, genesisHashHex)) {
		t.Fatalf("prev=%x", got)
	}
	root := ExtractMerkleRootLE(h)
	if got := ReverseEndianness(root[:]); !bytes.Equal(got, mustHex(t, "0e3e2357e806b6cdb1f70b54c3a3a17b6714ee1f0e68bebb44a74b1efd512098")) {
		t.Fatalf("merkle root=%x", got)
	}
	if ts := ExtractTimestamp(h); ts != 1231469665 {
		t.Fatalf("timestamp=%d", ts)
	}
	if le := ExtractTimestampLE(h); le != [4]byte{0x61, 0xbc, 0x66, 0x49} {
		t.Fatalf("timestamp le=%x", le)
	}
	if bits := ExtractBitsLE(h); bits != [4]byte{0xff, 0xff, 0x00, 0x1d} {
		t.Fatalf("bits=%x", bits)
	}
	if n := ExtractNonce(h); n != 2573394689 {
		t.Fatalf("nonce=%d", n)
	}
}

func TestExtractTarget_DiffOne(t *testing.T) {
	h := mustHeader(t, genesisHeaderHex)
	want, _ := new(big.Int).SetString("00000000ffff0000000000000000000000000000000000000000000000000000", 16)
	if got := ExtractTarget(h); got.Cmp(want) != 0 {
		t.Fatalf("target=%x want %x", got, want)
	}
	if got := DiffOneTarget(); got.Cmp(want) != 0 {
		t.Fatalf("diff one target=%x", got)
	}
	if d := ExtractDifficulty(h); d.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("difficulty=%s want 1", d)
	}
}

func TestExtractTarget_Exponents(t *testing.T) {
	cases := []struct {
		bits [4]byte
		want *big.Int
	}{
		{[4]byte{0x56, 0x34, 0x12, 0x03}, big.NewInt(0x123456)},
		{[4]byte{0x56, 0x34, 0x12, 0x04}, big.NewInt(0x12345600)},
		{[4]byte{0x56, 0x34, 0x12, 0x02}, big.NewInt(0x1234)},
		{[4]byte{0x56, 0x34, 0x12, 0x01}, big.NewInt(0x12)},
		{[4]byte{0x56, 0x34, 0x12, 0x00}, big.NewInt(0)},
	}
	for _, c := range cases {
		var h RawHeader
		copy(h[72:76], c.bits[:])
		if got := ExtractTarget(h); got.Cmp(c.want) != 0 {
			t.Fatalf("bits=%x target=%x want %x", c.bits, got, c.want)
		}
	}

	// Exponent 0xff must not overflow a fixed-width type.
	var h RawHeader
	copy(h[72:76], []byte{0x01, 0x00, 0x00, 0xff})
	want := new(big.Int).Lsh(big.NewInt(1), 8*(0xff-3))
	if got := ExtractTarget(h); got.Cmp(want) != 0 {
		t.Fatalf("large exponent target mismatch")
	}
}

func TestCalculateDifficulty(t *testing.T) {
	half := new(big.Int).Rsh(DiffOneTarget(), 1)
	if d := CalculateDifficulty(half); d.Cmp(big.NewInt(2)) != 0 {
		t.Fatalf("difficulty=%s want 2", d)
	}
	if d := CalculateDifficulty(new(big.Int).Lsh(DiffOneTarget(), 1)); d.Sign() != 0 {
		t.Fatalf("difficulty=%s want 0 (floor)", d)
	}
	if d := CalculateDifficulty(new(big.Int)); d.Sign() != 0 {
		t.Fatalf("zero target difficulty=%s", d)
	}
	if d := CalculateDifficulty(nil); d.Sign() != 0 {
		t.Fatalf("nil target difficulty=%s", d)
	}
}
