package btcspv

import (
	"encoding/binary"
	"math"
)

// Fixed input layout: outpoint(36) || scriptSigLen(VarInt) || scriptSig || sequence(4).
const (
	outpointBytes       = 36
	inputTxIDBytes      = 32
	scriptSigTagOffset  = 36
	witnessSequenceFrom = 37
	sequenceBytes       = 4
	minInputOverhead    = outpointBytes + 1 + sequenceBytes
)

// toLen converts a decoded length into an int no larger than limit.
func toLen(n uint64, limit int) (int, error) {
	if limit < 0 || n > uint64(limit) {
		return 0, spverr(SPV_ERR_READ_OVERRUN, "declared length exceeds buffer")
	}
	return int(n), nil
}

// ExtractScriptSigLen decodes the VarInt at offset 36 of an input. It returns
// the number of continuation bytes and the scriptSig length. Witness inputs
// yield (0, 0).
func ExtractScriptSigLen(in []byte) (dataLen uint64, scriptSigLen uint64, err error) {
	tag, err := byteAt(in, scriptSigTagOffset)
	if err != nil {
		return 0, 0, err
	}
	dataLen = uint64(DetermineVarIntDataLength(tag))
	if dataLen == 0 {
		return 0, uint64(tag), nil
	}
	off := scriptSigTagOffset + 1
	scriptSigLen, err = readUintLE(in, &off, int(dataLen))
	if err != nil {
		return 0, 0, err
	}
	return dataLen, scriptSigLen, nil
}

// DetermineInputLength returns the serialized byte length of an input.
func DetermineInputLength(in []byte) (uint64, error) {
	dataLen, scriptSigLen, err := ExtractScriptSigLen(in)
	if err != nil {
		return 0, err
	}
	if scriptSigLen > math.MaxUint64-minInputOverhead-dataLen {
		return 0, spverr(SPV_ERR_READ_OVERRUN, "scriptSig length overflows")
	}
	return minInputOverhead + dataLen + scriptSigLen, nil
}

// IsLegacyInput reports whether the input carries a scriptSig. Witness inputs
// have a zero scriptSig length tag.
func IsLegacyInput(in []byte) (bool, error) {
	tag, err := byteAt(in, scriptSigTagOffset)
	if err != nil {
		return false, err
	}
	return tag != 0, nil
}

// ExtractInputAtIndex returns a copy of the index-th (0-based) input of a
// count-prefixed vin. It walks every preceding input; callers extracting many
// inputs should walk the vin themselves.
func ExtractInputAtIndex(vin []byte, index int) ([]byte, error) {
	if index < 0 {
		return nil, spverr(SPV_ERR_READ_OVERRUN, "negative input index")
	}
	offset := 1
	for i := 0; ; i++ {
		if offset > len(vin) {
			return nil, spverr(SPV_ERR_READ_OVERRUN, "vin ends before input")
		}
		raw, err := DetermineInputLength(vin[offset:])
		if err != nil {
			return nil, err
		}
		length, err := toLen(raw, len(vin)-offset)
		if err != nil {
			return nil, err
		}
		if i == index {
			return copyAt(vin, offset, length)
		}
		offset += length
	}
}

// ExtractOutpoint returns the 36-byte outpoint (txid || index).
func ExtractOutpoint(in []byte) ([]byte, error) {
	return copyAt(in, 0, outpointBytes)
}

// ExtractInputTxIDLE returns the LE txid of the output being spent.
func ExtractInputTxIDLE(in []byte) (Hash256Digest, error) {
	var out Hash256Digest
	off := 0
	b, err := readBytes(in, &off, inputTxIDBytes)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

// ExtractTxIndexLE returns the LE output index of the outpoint.
func ExtractTxIndexLE(in []byte) ([4]byte, error) {
	var out [4]byte
	off := inputTxIDBytes
	b, err := readBytes(in, &off, 4)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

// ExtractTxIndex returns the output index of the outpoint.
func ExtractTxIndex(in []byte) (uint32, error) {
	off := inputTxIDBytes
	return readU32le(in, &off)
}

// ExtractScriptSig returns the VarInt-prefixed scriptSig. For a witness input
// this is the single byte 0x00.
func ExtractScriptSig(in []byte) ([]byte, error) {
	dataLen, scriptSigLen, err := ExtractScriptSigLen(in)
	if err != nil {
		return nil, err
	}
	room := len(in) - scriptSigTagOffset - 1 - int(dataLen)
	n, err := toLen(scriptSigLen, room)
	if err != nil {
		return nil, err
	}
	return copyAt(in, scriptSigTagOffset, 1+int(dataLen)+n)
}

// ExtractSequenceLELegacy returns the LE sequence bytes of a legacy input,
// located after the variable-length scriptSig.
func ExtractSequenceLELegacy(in []byte) ([4]byte, error) {
	var out [4]byte
	dataLen, scriptSigLen, err := ExtractScriptSigLen(in)
	if err != nil {
		return out, err
	}
	room := len(in) - scriptSigTagOffset - 1 - int(dataLen)
	n, err := toLen(scriptSigLen, room)
	if err != nil {
		return out, err
	}
	off := scriptSigTagOffset + 1 + int(dataLen) + n
	b, err := readBytes(in, &off, sequenceBytes)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

// ExtractSequenceLegacy returns the sequence number of a legacy input.
func ExtractSequenceLegacy(in []byte) (uint32, error) {
	le, err := ExtractSequenceLELegacy(in)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(le[:]), nil
}

// ExtractSequenceLEWitness returns the LE sequence bytes of a witness input,
// which always sit at offset 37.
func ExtractSequenceLEWitness(in []byte) ([4]byte, error) {
	var out [4]byte
	off := witnessSequenceFrom
	b, err := readBytes(in, &off, sequenceBytes)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

// ExtractSequenceWitness returns the sequence number of a witness input.
func ExtractSequenceWitness(in []byte) (uint32, error) {
	le, err := ExtractSequenceLEWitness(in)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(le[:]), nil
}
