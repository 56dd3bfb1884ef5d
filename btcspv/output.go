package btcspv

import "bytes"

// Fixed output layout: value(8) || scriptLen(1) || script.
const (
	valueBytes          = 8
	outputScriptLenAt   = 8
	outputScriptTagAt   = 9
	outputPayloadLenAt  = 10
	outputPayloadAt     = 11
	minClassifiedOutput = 11

	opReturn = 0x6a
)

var (
	p2pkhPrefix = []byte{0x19, 0x76, 0xa9}
	p2pkhSuffix = []byte{0x88, 0xac}
	p2shPrefix  = []byte{0x17, 0xa9, 0x14}
)

// OutputType is the recognized shape of an output script.
type OutputType uint8

const (
	OutputUnrecognized OutputType = iota
	OutputWitness
	OutputP2PKH
	OutputP2SH
	OutputOpReturn
)

func (t OutputType) String() string {
	switch t {
	case OutputWitness:
		return "witness"
	case OutputP2PKH:
		return "p2pkh"
	case OutputP2SH:
		return "p2sh"
	case OutputOpReturn:
		return "op_return"
	default:
		return "unrecognized"
	}
}

func (t OutputType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// ClassifyOutput inspects the tag bytes of an output and reports its shape.
// Classification only looks at prefixes; the per-shape self-consistency
// checks happen in ExtractHash and ExtractOpReturnData.
func ClassifyOutput(out []byte) (OutputType, error) {
	if len(out) < minClassifiedOutput {
		return OutputUnrecognized, spverr(SPV_ERR_READ_OVERRUN, "output shorter than script tag")
	}
	tag := out[outputScriptLenAt:minClassifiedOutput]
	switch {
	case out[outputScriptTagAt] == 0x00:
		return OutputWitness, nil
	case bytes.Equal(tag, p2pkhPrefix):
		return OutputP2PKH, nil
	case bytes.Equal(tag, p2shPrefix):
		return OutputP2SH, nil
	case out[outputScriptTagAt] == opReturn:
		return OutputOpReturn, nil
	default:
		return OutputUnrecognized, nil
	}
}

// DetermineOutputLength returns the serialized byte length of an output.
// Scripts whose length needs a multi-byte VarInt are not supported.
func DetermineOutputLength(out []byte) (uint64, error) {
	scriptLen, err := byteAt(out, outputScriptLenAt)
	if err != nil {
		return 0, err
	}
	switch scriptLen {
	case 0xfd, 0xfe, 0xff:
		return 0, spverr(SPV_ERR_LARGE_VARINT, "multi-byte VarInts not supported")
	}
	return uint64(scriptLen) + valueBytes + 1, nil
}

// ExtractOutputAtIndex returns a copy of the index-th (0-based) output of a
// count-prefixed vout.
func ExtractOutputAtIndex(vout []byte, index int) ([]byte, error) {
	if index < 0 {
		return nil, spverr(SPV_ERR_READ_OVERRUN, "negative output index")
	}
	offset := 1
	for i := 0; ; i++ {
		if offset > len(vout) {
			return nil, spverr(SPV_ERR_READ_OVERRUN, "vout ends before output")
		}
		raw, err := DetermineOutputLength(vout[offset:])
		if err != nil {
			return nil, err
		}
		length, err := toLen(raw, len(vout)-offset)
		if err != nil {
			return nil, err
		}
		if i == index {
			return copyAt(vout, offset, length)
		}
		offset += length
	}
}

// ExtractOutputScriptLen returns the raw script length byte.
func ExtractOutputScriptLen(out []byte) (uint8, error) {
	return byteAt(out, outputScriptLenAt)
}

// ExtractValueLE returns the 8 LE value bytes of an output.
func ExtractValueLE(out []byte) ([8]byte, error) {
	var v [8]byte
	off := 0
	b, err := readBytes(out, &off, valueBytes)
	if err != nil {
		return v, err
	}
	copy(v[:], b)
	return v, nil
}

// ExtractValue returns the output value in satoshis.
func ExtractValue(out []byte) (uint64, error) {
	off := 0
	return readU64le(out, &off)
}

// ExtractOpReturnData returns the payload pushed by an OP_RETURN output.
func ExtractOpReturnData(out []byte) ([]byte, error) {
	tag, err := byteAt(out, outputScriptTagAt)
	if err != nil {
		return nil, err
	}
	if tag != opReturn {
		return nil, spverr(SPV_ERR_MALFORMATTED_OP_RETURN, "must be an op return")
	}
	dataLen, err := byteAt(out, outputPayloadLenAt)
	if err != nil {
		return nil, err
	}
	if int(dataLen)+outputPayloadAt > len(out) {
		return nil, spverr(SPV_ERR_READ_OVERRUN, "op return data overruns output")
	}
	return copyAt(out, outputPayloadAt, int(dataLen))
}

// ExtractHash returns the hash committed to by a witness, P2PKH or P2SH
// output. For witness outputs this is the whole witness program.
func ExtractHash(out []byte) ([]byte, error) {
	kind, err := ClassifyOutput(out)
	if err != nil {
		return nil, err
	}
	switch kind {
	case OutputWitness:
		return extractWitnessProgram(out)
	case OutputP2PKH:
		push, err := byteAt(out, 11)
		if err != nil {
			return nil, err
		}
		if push != 0x14 || !bytes.HasSuffix(out, p2pkhSuffix) {
			return nil, spverr(SPV_ERR_MALFORMATTED_P2PKH_OUTPUT, "maliciously formatted p2pkh output")
		}
		return copyAt(out, 12, 20)
	case OutputP2SH:
		if out[len(out)-1] != 0x87 {
			return nil, spverr(SPV_ERR_MALFORMATTED_P2SH_OUTPUT, "maliciously formatted p2sh output")
		}
		return copyAt(out, 11, 20)
	default:
		return nil, spverr(SPV_ERR_MALFORMATTED_OUTPUT, "nonstandard, op_return, or malformatted output")
	}
}

func extractWitnessProgram(out []byte) ([]byte, error) {
	scriptLen := out[outputScriptLenAt]
	if scriptLen < 2 {
		return nil, spverr(SPV_ERR_MALFORMATTED_WITNESS_OUTPUT, "witness script too short")
	}
	length := scriptLen - 2
	if out[outputPayloadLenAt] != length {
		return nil, spverr(SPV_ERR_MALFORMATTED_WITNESS_OUTPUT, "witness length tag mismatch")
	}
	return copyAt(out, outputPayloadAt, int(length))
}
