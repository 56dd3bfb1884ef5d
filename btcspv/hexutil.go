package btcspv

import (
	"encoding/hex"
	"strings"
)

// ReverseEndianness returns a reversed copy of b.
func ReverseEndianness(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}

func Strip0xPrefix(s string) string {
	return strings.TrimPrefix(s, "0x")
}

// DeserializeHex decodes hex with an optional 0x prefix.
func DeserializeHex(s string) ([]byte, error) {
	return hex.DecodeString(Strip0xPrefix(s))
}

// SerializeHex encodes b as 0x-prefixed lowercase hex.
func SerializeHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}
