package btcspv

// maxSingleByteCount is the largest element count encodable in a one-byte VarInt.
const maxSingleByteCount = 0xfc

// ValidateVin reports whether vin is a well-formed count-prefixed input
// vector: the count is in [1, 252] and the inputs consume the buffer exactly.
func ValidateVin(vin []byte) bool {
	return walkVector(vin, DetermineInputLength)
}

// ValidateVout reports whether vout is a well-formed count-prefixed output
// vector. Any output with a multi-byte script length makes it invalid.
func ValidateVout(vout []byte) bool {
	return walkVector(vout, DetermineOutputLength)
}

func walkVector(v []byte, elemLen func([]byte) (uint64, error)) bool {
	if len(v) == 0 {
		return false
	}
	n := int(v[0])
	if n == 0 || n > maxSingleByteCount {
		return false
	}
	offset := 1
	for i := 0; i < n; i++ {
		if offset >= len(v) {
			return false
		}
		raw, err := elemLen(v[offset:])
		if err != nil {
			return false
		}
		length, err := toLen(raw, len(v)-offset)
		if err != nil {
			return false
		}
		offset += length
	}
	return offset == len(v)
}
