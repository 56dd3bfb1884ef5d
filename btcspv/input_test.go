package btcspv

import (
	"bytes"
	"testing"
)

func TestLegacyInput_EmptyScriptSig(t *testing.T) {
	in := legacyInput(0xaa, 0, nil, 0xfffffffe)
	vin := vector(in)
	if !ValidateVin(vin) {
		t.Fatalf("expected valid vin")
	}
	n, err := DetermineInputLength(in)
	if err != nil {
		t.Fatalf("DetermineInputLength: %v", err)
	}
	if n != 41 {
		t.Fatalf("length=%d want 41", n)
	}
	seq, err := ExtractSequenceLegacy(in)
	if err != nil {
		t.Fatalf("ExtractSequenceLegacy: %v", err)
	}
	if seq != 0xfffffffe {
		t.Fatalf("sequence=%#x", seq)
	}
	// An empty scriptSig has the same zero tag byte as a witness input.
	legacy, err := IsLegacyInput(in)
	if err != nil || legacy {
		t.Fatalf("IsLegacyInput=%v err=%v", legacy, err)
	}
	witnessSeq, err := ExtractSequenceWitness(in)
	if err != nil || witnessSeq != seq {
		t.Fatalf("witness sequence=%#x err=%v", witnessSeq, err)
	}
}

func TestLegacyInput_Fields(t *testing.T) {
	scriptSig := filled(0x6b, 0x51)
	in := legacyInput(0x11, 7, scriptSig, 0x01020304)

	legacy, err := IsLegacyInput(in)
	if err != nil || !legacy {
		t.Fatalf("IsLegacyInput=%v err=%v", legacy, err)
	}
	dataLen, ssLen, err := ExtractScriptSigLen(in)
	if err != nil {
		t.Fatalf("ExtractScriptSigLen: %v", err)
	}
	if dataLen != 0 || ssLen != 0x6b {
		t.Fatalf("dataLen=%d scriptSigLen=%d", dataLen, ssLen)
	}
	n, err := DetermineInputLength(in)
	if err != nil || n != uint64(len(in)) {
		t.Fatalf("length=%d err=%v want %d", n, err, len(in))
	}
	ss, err := ExtractScriptSig(in)
	if err != nil {
		t.Fatalf("ExtractScriptSig: %v", err)
	}
	if !bytes.Equal(ss, append([]byte{0x6b}, scriptSig...)) {
		t.Fatalf("scriptSig mismatch")
	}
	seqLE, err := ExtractSequenceLELegacy(in)
	if err != nil || seqLE != [4]byte{0x04, 0x03, 0x02, 0x01} {
		t.Fatalf("sequence le=%x err=%v", seqLE, err)
	}
	outpoint, err := ExtractOutpoint(in)
	if err != nil || !bytes.Equal(outpoint, in[:36]) {
		t.Fatalf("outpoint mismatch err=%v", err)
	}
	txid, err := ExtractInputTxIDLE(in)
	if err != nil || !bytes.Equal(txid[:], filled(32, 0x11)) {
		t.Fatalf("txid=%x err=%v", txid, err)
	}
	idx, err := ExtractTxIndex(in)
	if err != nil || idx != 7 {
		t.Fatalf("index=%d err=%v", idx, err)
	}
	idxLE, err := ExtractTxIndexLE(in)
	if err != nil || idxLE != [4]byte{7, 0, 0, 0} {
		t.Fatalf("index le=%x err=%v", idxLE, err)
	}
}

func TestLegacyInput_MultiByteScriptSigLen(t *testing.T) {
	scriptSig := filled(300, 0x52)
	in := legacyInput(0x22, 1, scriptSig, 0xffffffff)
	if in[36] != 0xfd {
		t.Fatalf("expected 0xfd tag, got %#x", in[36])
	}
	dataLen, ssLen, err := ExtractScriptSigLen(in)
	if err != nil {
		t.Fatalf("ExtractScriptSigLen: %v", err)
	}
	if dataLen != 2 || ssLen != 300 {
		t.Fatalf("dataLen=%d scriptSigLen=%d", dataLen, ssLen)
	}
	n, err := DetermineInputLength(in)
	if err != nil || n != 41+2+300 || n != uint64(len(in)) {
		t.Fatalf("length=%d err=%v", n, err)
	}
	ss, err := ExtractScriptSig(in)
	if err != nil || len(ss) != 1+2+300 {
		t.Fatalf("scriptSig len=%d err=%v", len(ss), err)
	}
	seq, err := ExtractSequenceLegacy(in)
	if err != nil || seq != 0xffffffff {
		t.Fatalf("sequence=%#x err=%v", seq, err)
	}
}

func TestWitnessInput_Fields(t *testing.T) {
	in := witnessInput(0x33, 2, 0xfffffffd)
	legacy, err := IsLegacyInput(in)
	if err != nil || legacy {
		t.Fatalf("IsLegacyInput=%v err=%v", legacy, err)
	}
	ss, err := ExtractScriptSig(in)
	if err != nil || !bytes.Equal(ss, []byte{0x00}) {
		t.Fatalf("scriptSig=%x err=%v", ss, err)
	}
	seq, err := ExtractSequenceWitness(in)
	if err != nil || seq != 0xfffffffd {
		t.Fatalf("sequence=%#x err=%v", seq, err)
	}
	seqLE, err := ExtractSequenceLEWitness(in)
	if err != nil || seqLE != [4]byte{0xfd, 0xff, 0xff, 0xff} {
		t.Fatalf("sequence le=%x err=%v", seqLE, err)
	}
}

func TestInput_ShortBuffersOverrun(t *testing.T) {
	cases := map[string]func([]byte) error{
		"IsLegacyInput":           func(b []byte) error { _, err := IsLegacyInput(b); return err },
		"DetermineInputLength":    func(b []byte) error { _, err := DetermineInputLength(b); return err },
		"ExtractScriptSig":        func(b []byte) error { _, err := ExtractScriptSig(b); return err },
		"ExtractSequenceLegacy":   func(b []byte) error { _, err := ExtractSequenceLegacy(b); return err },
		"ExtractSequenceWitness":  func(b []byte) error { _, err := ExtractSequenceWitness(b); return err },
		"ExtractOutpoint":         func(b []byte) error { _, err := ExtractOutpoint(b); return err },
		"ExtractTxIndex":          func(b []byte) error { _, err := ExtractTxIndex(b); return err },
		"ExtractInputTxIDLE":      func(b []byte) error { _, err := ExtractInputTxIDLE(b); return err },
		"ExtractScriptSigLen/fd":  func(b []byte) error { _, _, err := ExtractScriptSigLen(append(b, 0xfd)); return err },
		"ExtractSequenceLELegacy": func(b []byte) error { _, err := ExtractSequenceLELegacy(b); return err },
	}
	short := filled(20, 0x01)
	for name, fn := range cases {
		err := fn(short)
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		if got := mustSPVErrCode(t, err); got != SPV_ERR_READ_OVERRUN {
			t.Fatalf("%s: code=%s", name, got)
		}
	}
}

func TestExtractScriptSig_DeclaredLengthOverrun(t *testing.T) {
	in := legacyInput(0x01, 0, filled(10, 0x00), 0)
	in = in[:40] // truncate inside the scriptSig
	if _, err := ExtractScriptSig(in); err == nil || mustSPVErrCode(t, err) != SPV_ERR_READ_OVERRUN {
		t.Fatalf("expected overrun, got %v", err)
	}
	if _, err := ExtractSequenceLegacy(in); err == nil || mustSPVErrCode(t, err) != SPV_ERR_READ_OVERRUN {
		t.Fatalf("expected overrun, got %v", err)
	}
}

func TestExtractInputAtIndex(t *testing.T) {
	ins := [][]byte{
		legacyInput(0x01, 0, filled(0x47, 0x30), 0xffffffff),
		witnessInput(0x02, 1, 0xfffffffe),
		legacyInput(0x03, 2, filled(300, 0x31), 0),
	}
	vin := vector(ins...)
	for i, want := range ins {
		got, err := ExtractInputAtIndex(vin, i)
		if err != nil {
			t.Fatalf("index %d: %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("index %d: input mismatch", i)
		}
	}
	if _, err := ExtractInputAtIndex(vin, 3); err == nil || mustSPVErrCode(t, err) != SPV_ERR_READ_OVERRUN {
		t.Fatalf("expected overrun past last input, got %v", err)
	}
	if _, err := ExtractInputAtIndex(vin, -1); err == nil {
		t.Fatalf("expected error for negative index")
	}
	if _, err := ExtractInputAtIndex(vin[:len(vin)-1], 2); err == nil || mustSPVErrCode(t, err) != SPV_ERR_READ_OVERRUN {
		t.Fatalf("expected overrun on truncated vin, got %v", err)
	}
}

func TestExtractInputAtIndex_ReturnsCopy(t *testing.T) {
	vin := vector(witnessInput(0x05, 0, 0))
	got, err := ExtractInputAtIndex(vin, 0)
	if err != nil {
		t.Fatalf("ExtractInputAtIndex: %v", err)
	}
	got[0] ^= 0xff
	if vin[1] != 0x05 {
		t.Fatalf("caller buffer was mutated")
	}
}
