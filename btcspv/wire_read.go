package btcspv

import "encoding/binary"

func readU8(b []byte, off *int) (uint8, error) {
	if *off < 0 || *off+1 > len(b) {
		return 0, spverr(SPV_ERR_READ_OVERRUN, "unexpected EOF (u8)")
	}
	v := b[*off]
	*off++
	return v, nil
}

func readU32le(b []byte, off *int) (uint32, error) {
	if *off < 0 || *off+4 > len(b) {
		return 0, spverr(SPV_ERR_READ_OVERRUN, "unexpected EOF (u32le)")
	}
	v := binary.LittleEndian.Uint32(b[*off : *off+4])
	*off += 4
	return v, nil
}

func readU64le(b []byte, off *int) (uint64, error) {
	if *off < 0 || *off+8 > len(b) {
		return 0, spverr(SPV_ERR_READ_OVERRUN, "unexpected EOF (u64le)")
	}
	v := binary.LittleEndian.Uint64(b[*off : *off+8])
	*off += 8
	return v, nil
}

// readUintLE decodes an n-byte (n <= 8) little-endian unsigned integer.
func readUintLE(b []byte, off *int, n int) (uint64, error) {
	raw, err := readBytes(b, off, n)
	if err != nil {
		return 0, err
	}
	if n > 8 {
		return 0, spverr(SPV_ERR_READ_OVERRUN, "integer wider than 8 bytes")
	}
	var v uint64
	for i := n - 1; i >= 0; i-- {
		v = v<<8 | uint64(raw[i])
	}
	return v, nil
}

// readBytes returns a sub-slice of b; callers that hand the result out must copy.
func readBytes(b []byte, off *int, n int) ([]byte, error) {
	if n < 0 {
		return nil, spverr(SPV_ERR_READ_OVERRUN, "negative length")
	}
	if *off < 0 || *off > len(b) || n > len(b)-*off {
		return nil, spverr(SPV_ERR_READ_OVERRUN, "unexpected EOF (bytes)")
	}
	v := b[*off : *off+n]
	*off += n
	return v, nil
}

// byteAt reads the single byte at a fixed offset.
func byteAt(b []byte, at int) (byte, error) {
	return readU8(b, &at)
}

// copyAt returns a fresh copy of b[at:at+n].
func copyAt(b []byte, at int, n int) ([]byte, error) {
	v, err := readBytes(b, &at, n)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), v...), nil
}
