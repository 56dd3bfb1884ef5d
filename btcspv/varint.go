package btcspv

// DetermineVarIntDataLength reports how many bytes follow a VarInt flag byte.
// Flags below 0xfd encode the value themselves.
func DetermineVarIntDataLength(flag byte) uint8 {
	switch flag {
	case 0xfd:
		return 2
	case 0xfe:
		return 4
	case 0xff:
		return 8
	default:
		return 0
	}
}
