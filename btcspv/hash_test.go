package btcspv

import (
	"bytes"
	"testing"
)

func TestHash256_KnownVectors(t *testing.T) {
	empty := Hash256(nil)
	if want := mustHex(t, "5df6e0e2761359d30a8275058e299fcc0381534545f55cf43e41983f5d4c9456"); !bytes.Equal(empty[:], want) {
		t.Fatalf("hash256(empty)=%x want %x", empty, want)
	}

	genesis := mustHex(t, genesisHeaderHex)
	h := Hash256(genesis)
	if got, want := ReverseEndianness(h[:]), mustHex(t, genesisHashHex); !bytes.Equal(got, want) {
		t.Fatalf("genesis hash=%x want %x", got, want)
	}
}

func TestHash160_KnownVector(t *testing.T) {
	pubkey := mustHex(t, "0250863ad64a87ae8a2fe83c1af1a8403cb53f53e486d8511dad8a04887e5b2352")
	got := Hash160(pubkey)
	if want := mustHex(t, "f54a5851e9372b87810a8e60cdd2e7cfd80b6e31"); !bytes.Equal(got[:], want) {
		t.Fatalf("hash160=%x want %x", got, want)
	}
}

func TestHash256MerkleStep_Concatenates(t *testing.T) {
	a := filled(32, 0x01)
	b := filled(32, 0x02)
	got := Hash256MerkleStep(a, b)
	want := Hash256(append(append([]byte{}, a...), b...))
	if got != want {
		t.Fatalf("merkle step mismatch")
	}
	if Hash256MerkleStep(b, a) == got {
		t.Fatalf("merkle step must be order sensitive")
	}
}

func TestDetermineVarIntDataLength(t *testing.T) {
	cases := []struct {
		flag byte
		want uint8
	}{
		{0x00, 0},
		{0x05, 0},
		{0xfc, 0},
		{0xfd, 2},
		{0xfe, 4},
		{0xff, 8},
	}
	for _, c := range cases {
		if got := DetermineVarIntDataLength(c.flag); got != c.want {
			t.Fatalf("flag=%#x got=%d want=%d", c.flag, got, c.want)
		}
	}
}
