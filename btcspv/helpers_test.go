package btcspv

import (
	"encoding/binary"
	"encoding/hex"
	"strings"
	"testing"
)

// Mainnet blocks 0, 1 and 2.
const (
	genesisHeaderHex = "01000000" +
		"0000000000000000000000000000000000000000000000000000000000000000" +
		"3ba3edfd7a7b12b27ac72c3e67768f617fc81bc3888a51323a9fb8aa4b1e5e4a" +
		"29ab5f49" + "ffff001d" + "1dac2b7c"
	block1HeaderHex = "01000000" +
		"6fe28c0ab6f1b372c1a6a246ae63f74f931e8365e15a089c68d6190000000000" +
		"982051fd1e4ba744bbbe680e1fee14677ba1a3c3540bf7b1cdb606e857233e0e" +
		"61bc6649" + "ffff001d" + "01e36299"
	block2HeaderHex = "01000000" +
		"4860eb18bf1b1620e37e9490fc8a427514416fd75159ab86688e9a8300000000" +
		"d5fdcc541e25de1c7a5addedf24858b8bb665c9f36ef744ee42c316022c90f9b" +
		"b0bc6649" + "ffff001d" + "08d2bd61"

	genesisHashHex = "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f"
	block1HashHex  = "00000000839a8e6886ab5951d76f411475428afc90947ee320161bbf18eb6048"
)

func mustSPVErrCode(t *testing.T, err error) ErrorCode {
	t.Helper()
	se, ok := err.(*SPVError)
	if !ok {
		t.Fatalf("expected *SPVError, got %T: %v", err, err)
	}
	return se.Code
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

func mustHeader(t *testing.T, s string) RawHeader {
	t.Helper()
	h, err := ParseRawHeader(mustHex(t, s))
	if err != nil {
		t.Fatalf("ParseRawHeader: %v", err)
	}
	return h
}

func filled(n int, v byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = v
	}
	return b
}

func appendVarInt(b []byte, n int) []byte {
	if n < 0xfd {
		return append(b, byte(n))
	}
	var u16 [2]byte
	binary.LittleEndian.PutUint16(u16[:], uint16(n))
	return append(append(b, 0xfd), u16[:]...)
}

// legacyInput builds outpoint(txid byte pattern, vout) || varint || scriptSig || sequence.
func legacyInput(txidByte byte, vout uint32, scriptSig []byte, sequence uint32) []byte {
	b := filled(32, txidByte)
	b = binary.LittleEndian.AppendUint32(b, vout)
	b = appendVarInt(b, len(scriptSig))
	b = append(b, scriptSig...)
	return binary.LittleEndian.AppendUint32(b, sequence)
}

func witnessInput(txidByte byte, vout uint32, sequence uint32) []byte {
	return legacyInput(txidByte, vout, nil, sequence)
}

func txOutput(value uint64, script []byte) []byte {
	b := binary.LittleEndian.AppendUint64(nil, value)
	b = append(b, byte(len(script)))
	return append(b, script...)
}

func p2pkhScript(h []byte) []byte {
	s := []byte{0x76, 0xa9, 0x14}
	s = append(s, h...)
	return append(s, 0x88, 0xac)
}

func p2shScript(h []byte) []byte {
	s := []byte{0xa9, 0x14}
	s = append(s, h...)
	return append(s, 0x87)
}

func witnessScript(program []byte) []byte {
	return append([]byte{0x00, byte(len(program))}, program...)
}

func opReturnScript(data []byte) []byte {
	return append([]byte{0x6a, byte(len(data))}, data...)
}

func vector(elems ...[]byte) []byte {
	out := []byte{byte(len(elems))}
	for _, e := range elems {
		out = append(out, e...)
	}
	return out
}
