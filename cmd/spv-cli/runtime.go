package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"btcspv.dev/bridge/btcspv"
)

type Request struct {
	Op  string `json:"op"`
	Hex string `json:"hex,omitempty"`

	Flag  uint8 `json:"flag,omitempty"`
	Index int   `json:"index,omitempty"`

	Target          string `json:"target,omitempty"`
	TimestampFirst  uint32 `json:"timestamp_first,omitempty"`
	TimestampSecond uint32 `json:"timestamp_second,omitempty"`

	TxIDLE       string `json:"tx_id_le,omitempty"`
	MerkleRootLE string `json:"merkle_root_le,omitempty"`
	Nodes        string `json:"intermediate_nodes,omitempty"`
	TxIndex      uint64 `json:"tx_index,omitempty"`

	Version  string `json:"version,omitempty"`
	Vin      string `json:"vin,omitempty"`
	Vout     string `json:"vout,omitempty"`
	Locktime string `json:"locktime,omitempty"`

	Proof *btcspv.SPVProof `json:"proof,omitempty"`
}

type InputJSON struct {
	Legacy    bool   `json:"legacy"`
	Length    uint64 `json:"length"`
	Outpoint  string `json:"outpoint"`
	TxIDLE    string `json:"tx_id_le"`
	TxIndex   uint32 `json:"tx_index"`
	ScriptSig string `json:"script_sig"`
	Sequence  uint32 `json:"sequence"`
}

type OutputJSON struct {
	Type      string `json:"type"`
	Length    uint64 `json:"length"`
	Value     uint64 `json:"value"`
	ScriptLen uint8  `json:"script_len"`
	Hash      string `json:"hash,omitempty"`
	Data      string `json:"data,omitempty"`
}

type HeaderJSON struct {
	HashLE       string `json:"hash_le"`
	Version      uint32 `json:"version"`
	PrevHashLE   string `json:"prevhash_le"`
	MerkleRootLE string `json:"merkle_root_le"`
	Timestamp    uint32 `json:"timestamp"`
	Bits         string `json:"bits_le"`
	Nonce        uint32 `json:"nonce"`
	Target       string `json:"target"`
	Difficulty   string `json:"difficulty"`
}

type Response struct {
	Ok  bool   `json:"ok"`
	Err string `json:"err,omitempty"`

	Digest     string      `json:"digest,omitempty"`
	Length     *uint64     `json:"length,omitempty"`
	Data       string      `json:"data,omitempty"`
	Valid      *bool       `json:"valid,omitempty"`
	Input      *InputJSON  `json:"input,omitempty"`
	Output     *OutputJSON `json:"output,omitempty"`
	Header     *HeaderJSON `json:"header,omitempty"`
	Target     string      `json:"target,omitempty"`
	Difficulty string      `json:"difficulty,omitempty"`
}

func writeResp(w io.Writer, resp Response) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(resp)
}

func boolResp(v bool) Response {
	return Response{Ok: true, Valid: &v}
}

func lengthResp(n uint64) Response {
	return Response{Ok: true, Length: &n}
}

func parseHex(s string) ([]byte, error) {
	return btcspv.DeserializeHex(strings.TrimSpace(s))
}

func parseDigest(s string) (btcspv.Hash256Digest, error) {
	var d btcspv.Hash256Digest
	err := d.UnmarshalText([]byte(strings.TrimSpace(s)))
	return d, err
}

func parseTarget(s string) (*big.Int, error) {
	stripped := btcspv.Strip0xPrefix(strings.TrimSpace(strings.ToLower(s)))
	if stripped == "" {
		return nil, fmt.Errorf("empty target")
	}
	t, ok := new(big.Int).SetString(stripped, 16)
	if !ok || t.Sign() < 0 {
		return nil, fmt.Errorf("bad target")
	}
	return t, nil
}

func bigHex(v *big.Int) string {
	return "0x" + v.Text(16)
}

func runFromStdin() {
	runIO(os.Stdin, os.Stdout)
}

func runIO(r io.Reader, w io.Writer) {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		writeResp(w, Response{Ok: false, Err: fmt.Sprintf("bad request: %v", err)})
		return
	}
	writeResp(w, handle(req))
}

func handle(req Request) Response {
	switch req.Op {
	case "hash160", "hash256":
		b, err := parseHex(req.Hex)
		if err != nil {
			return Response{Ok: false, Err: "bad hex"}
		}
		if req.Op == "hash160" {
			d := btcspv.Hash160(b)
			return Response{Ok: true, Digest: btcspv.SerializeHex(d[:])}
		}
		d := btcspv.Hash256(b)
		return Response{Ok: true, Digest: btcspv.SerializeHex(d[:])}

	case "var_int_len":
		return lengthResp(uint64(btcspv.DetermineVarIntDataLength(req.Flag)))

	case "input_at_index", "output_at_index":
		b, err := parseHex(req.Hex)
		if err != nil {
			return Response{Ok: false, Err: "bad hex"}
		}
		var elem []byte
		if req.Op == "input_at_index" {
			elem, err = btcspv.ExtractInputAtIndex(b, req.Index)
		} else {
			elem, err = btcspv.ExtractOutputAtIndex(b, req.Index)
		}
		if err != nil {
			return errResp(err)
		}
		return Response{Ok: true, Data: btcspv.SerializeHex(elem)}

	case "parse_input":
		b, err := parseHex(req.Hex)
		if err != nil {
			return Response{Ok: false, Err: "bad hex"}
		}
		in, err := parseInput(b)
		if err != nil {
			return errResp(err)
		}
		return Response{Ok: true, Input: in}

	case "parse_output":
		b, err := parseHex(req.Hex)
		if err != nil {
			return Response{Ok: false, Err: "bad hex"}
		}
		out, err := parseOutput(b)
		if err != nil {
			return errResp(err)
		}
		return Response{Ok: true, Output: out}

	case "validate_vin", "validate_vout":
		b, err := parseHex(req.Hex)
		if err != nil {
			return Response{Ok: false, Err: "bad hex"}
		}
		if req.Op == "validate_vin" {
			return boolResp(btcspv.ValidateVin(b))
		}
		return boolResp(btcspv.ValidateVout(b))

	case "parse_header":
		b, err := parseHex(req.Hex)
		if err != nil {
			return Response{Ok: false, Err: "bad hex"}
		}
		h, err := btcspv.ParseRawHeader(b)
		if err != nil {
			return errResp(err)
		}
		return Response{Ok: true, Header: headerJSON(h)}

	case "retarget":
		prev, err := parseTarget(req.Target)
		if err != nil {
			return Response{Ok: false, Err: err.Error()}
		}
		next := btcspv.RetargetAlgorithm(prev, req.TimestampFirst, req.TimestampSecond)
		return Response{Ok: true, Target: bigHex(next)}

	case "verify_merkle":
		b, err := parseHex(req.Hex)
		if err != nil {
			return Response{Ok: false, Err: "bad hex"}
		}
		return boolResp(btcspv.VerifyHash256Merkle(b, req.TxIndex))

	case "prove":
		txid, err := parseDigest(req.TxIDLE)
		if err != nil {
			return Response{Ok: false, Err: fmt.Sprintf("bad tx_id_le: %v", err)}
		}
		root, err := parseDigest(req.MerkleRootLE)
		if err != nil {
			return Response{Ok: false, Err: fmt.Sprintf("bad merkle_root_le: %v", err)}
		}
		nodes, err := parseHex(req.Nodes)
		if err != nil {
			return Response{Ok: false, Err: "bad hex"}
		}
		return boolResp(btcspv.Prove(txid, root, nodes, req.TxIndex))

	case "calculate_txid":
		parts := make([][]byte, 0, 4)
		for _, s := range []string{req.Version, req.Vin, req.Vout, req.Locktime} {
			b, err := parseHex(s)
			if err != nil {
				return Response{Ok: false, Err: "bad hex"}
			}
			parts = append(parts, b)
		}
		d := btcspv.CalculateTxID(parts[0], parts[1], parts[2], parts[3])
		return Response{Ok: true, Digest: btcspv.SerializeHex(d[:])}

	case "validate_header_chain":
		b, err := parseHex(req.Hex)
		if err != nil {
			return Response{Ok: false, Err: "bad hex"}
		}
		total, err := btcspv.ValidateHeaderChain(b)
		if err != nil {
			return errResp(err)
		}
		return Response{Ok: true, Difficulty: total.String()}

	case "validate_proof":
		if req.Proof == nil {
			return Response{Ok: false, Err: "proof required"}
		}
		if err := req.Proof.Validate(); err != nil {
			return errResp(err)
		}
		return boolResp(true)

	default:
		return Response{Ok: false, Err: "unknown op"}
	}
}

// errResp reports library failures by error code so callers can match them
// across implementations.
func errResp(err error) Response {
	if code, ok := btcspv.ErrorCodeOf(err); ok {
		return Response{Ok: false, Err: string(code)}
	}
	return Response{Ok: false, Err: err.Error()}
}

func parseInput(in []byte) (*InputJSON, error) {
	length, err := btcspv.DetermineInputLength(in)
	if err != nil {
		return nil, err
	}
	legacy, err := btcspv.IsLegacyInput(in)
	if err != nil {
		return nil, err
	}
	outpoint, err := btcspv.ExtractOutpoint(in)
	if err != nil {
		return nil, err
	}
	txid, err := btcspv.ExtractInputTxIDLE(in)
	if err != nil {
		return nil, err
	}
	idx, err := btcspv.ExtractTxIndex(in)
	if err != nil {
		return nil, err
	}
	scriptSig, err := btcspv.ExtractScriptSig(in)
	if err != nil {
		return nil, err
	}
	var seq uint32
	if legacy {
		seq, err = btcspv.ExtractSequenceLegacy(in)
	} else {
		seq, err = btcspv.ExtractSequenceWitness(in)
	}
	if err != nil {
		return nil, err
	}
	return &InputJSON{
		Legacy:    legacy,
		Length:    length,
		Outpoint:  btcspv.SerializeHex(outpoint),
		TxIDLE:    btcspv.SerializeHex(txid[:]),
		TxIndex:   idx,
		ScriptSig: btcspv.SerializeHex(scriptSig),
		Sequence:  seq,
	}, nil
}

func parseOutput(out []byte) (*OutputJSON, error) {
	length, err := btcspv.DetermineOutputLength(out)
	if err != nil {
		return nil, err
	}
	value, err := btcspv.ExtractValue(out)
	if err != nil {
		return nil, err
	}
	scriptLen, err := btcspv.ExtractOutputScriptLen(out)
	if err != nil {
		return nil, err
	}
	typ, err := btcspv.ClassifyOutput(out)
	if err != nil {
		return nil, err
	}
	res := &OutputJSON{Type: typ.String(), Length: length, Value: value, ScriptLen: scriptLen}
	switch typ {
	case btcspv.OutputOpReturn:
		data, err := btcspv.ExtractOpReturnData(out)
		if err != nil {
			return nil, err
		}
		res.Data = btcspv.SerializeHex(data)
	case btcspv.OutputWitness, btcspv.OutputP2PKH, btcspv.OutputP2SH:
		h, err := btcspv.ExtractHash(out)
		if err != nil {
			return nil, err
		}
		res.Hash = btcspv.SerializeHex(h)
	}
	return res, nil
}

func headerJSON(h btcspv.RawHeader) *HeaderJSON {
	digest := btcspv.Hash256(h[:])
	prev := btcspv.ExtractPrevBlockHashLE(h)
	root := btcspv.ExtractMerkleRootLE(h)
	bits := btcspv.ExtractBitsLE(h)
	return &HeaderJSON{
		HashLE:       btcspv.SerializeHex(digest[:]),
		Version:      btcspv.ExtractVersion(h),
		PrevHashLE:   btcspv.SerializeHex(prev[:]),
		MerkleRootLE: btcspv.SerializeHex(root[:]),
		Timestamp:    btcspv.ExtractTimestamp(h),
		Bits:         btcspv.SerializeHex(bits[:]),
		Nonce:        btcspv.ExtractNonce(h),
		Target:       bigHex(btcspv.ExtractTarget(h)),
		Difficulty:   btcspv.ExtractDifficulty(h).String(),
	}
}
