package btcspv

import (
	"bytes"
	"fmt"
)

// HexBytes is a byte slice that travels through JSON as 0x-prefixed hex.
type HexBytes []byte

func (b HexBytes) MarshalText() ([]byte, error) {
	return []byte(SerializeHex(b)), nil
}

func (b *HexBytes) UnmarshalText(text []byte) error {
	v, err := DeserializeHex(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

func (d Hash256Digest) MarshalText() ([]byte, error) {
	return []byte(SerializeHex(d[:])), nil
}

func (d *Hash256Digest) UnmarshalText(text []byte) error {
	return unmarshalFixedHex(text, d[:])
}

func (h RawHeader) MarshalText() ([]byte, error) {
	return []byte(SerializeHex(h[:])), nil
}

func (h *RawHeader) UnmarshalText(text []byte) error {
	return unmarshalFixedHex(text, h[:])
}

func unmarshalFixedHex(text []byte, dst []byte) error {
	v, err := DeserializeHex(string(text))
	if err != nil {
		return err
	}
	if len(v) != len(dst) {
		return fmt.Errorf("Expected %d bytes, got %d bytes", len(dst), len(v))
	}
	copy(dst, v)
	return nil
}

// BitcoinHeader is a raw header together with its derived fields, each in
// both byte orders, plus the height it was observed at.
type BitcoinHeader struct {
	Hash         Hash256Digest `json:"hash"`
	Raw          RawHeader     `json:"raw"`
	HashLE       Hash256Digest `json:"hash_le"`
	Height       uint32        `json:"height"`
	Prevhash     Hash256Digest `json:"prevhash"`
	PrevhashLE   Hash256Digest `json:"prevhash_le"`
	MerkleRoot   Hash256Digest `json:"merkle_root"`
	MerkleRootLE Hash256Digest `json:"merkle_root_le"`
}

// NewBitcoinHeader derives every field of a BitcoinHeader from the raw bytes.
func NewBitcoinHeader(raw RawHeader, height uint32) BitcoinHeader {
	h := BitcoinHeader{
		Raw:          raw,
		HashLE:       Hash256(raw[:]),
		Height:       height,
		PrevhashLE:   ExtractPrevBlockHashLE(raw),
		MerkleRootLE: ExtractMerkleRootLE(raw),
	}
	h.Hash = reversed(h.HashLE)
	h.Prevhash = reversed(h.PrevhashLE)
	h.MerkleRoot = reversed(h.MerkleRootLE)
	return h
}

// Validate checks every derived field against the raw header.
func (h BitcoinHeader) Validate() error {
	if h.HashLE != Hash256(h.Raw[:]) {
		return spverr(SPV_ERR_WRONG_DIGEST, "hash_le is not the hash of the header")
	}
	if h.HashLE != reversed(h.Hash) {
		return spverr(SPV_ERR_NON_MATCHING_DIGESTS, "hash_le is not the LE version of hash")
	}
	if h.MerkleRootLE != ExtractMerkleRootLE(h.Raw) {
		return spverr(SPV_ERR_WRONG_MERKLE_ROOT, "merkle_root_le is not the merkle root of the header")
	}
	if h.MerkleRootLE != reversed(h.MerkleRoot) {
		return spverr(SPV_ERR_NON_MATCHING_MERKLE_ROOTS, "merkle_root_le is not the LE version of merkle_root")
	}
	if h.PrevhashLE != ExtractPrevBlockHashLE(h.Raw) {
		return spverr(SPV_ERR_WRONG_PREV_HASH, "prevhash_le is not the parent hash of the header")
	}
	if h.PrevhashLE != reversed(h.Prevhash) {
		return spverr(SPV_ERR_NON_MATCHING_PREVHASHES, "prevhash_le is not the LE version of prevhash")
	}
	return nil
}

func (h BitcoinHeader) String() string {
	return fmt.Sprintf("Header (height %d:\t%s)", h.Height, SerializeHex(h.Raw[:]))
}

// SPVProof is an inclusion proof for a confirmed transaction. The
// transaction is carried in its legacy encoding split into its four parts.
type SPVProof struct {
	Version           HexBytes      `json:"version"`
	Vin               HexBytes      `json:"vin"`
	Vout              HexBytes      `json:"vout"`
	Locktime          HexBytes      `json:"locktime"`
	TxID              Hash256Digest `json:"tx_id"`
	TxIDLE            Hash256Digest `json:"tx_id_le"`
	Index             uint32        `json:"index"`
	ConfirmingHeader  BitcoinHeader `json:"confirming_header"`
	IntermediateNodes HexBytes      `json:"intermediate_nodes"`
}

// Validate checks the transaction structure, the txid, the confirming
// header, and the Merkle proof linking them.
func (p SPVProof) Validate() error {
	if !ValidateVin(p.Vin) {
		return spverr(SPV_ERR_INVALID_VIN, "vin is not valid")
	}
	if !ValidateVout(p.Vout) {
		return spverr(SPV_ERR_INVALID_VOUT, "vout is not valid")
	}
	txid := CalculateTxID(p.Version, p.Vin, p.Vout, p.Locktime)
	if txid != p.TxIDLE {
		return spverr(SPV_ERR_WRONG_TX_ID, "version, vin, vout and locktime did not yield tx_id_le")
	}
	if err := p.ConfirmingHeader.Validate(); err != nil {
		return err
	}
	if !Prove(txid, p.ConfirmingHeader.MerkleRootLE, p.IntermediateNodes, uint64(p.Index)) {
		return spverr(SPV_ERR_BAD_MERKLE_PROOF, "merkle proof is not valid")
	}
	return nil
}

func (p SPVProof) String() string {
	return fmt.Sprintf("SPVProof (tx_id: %s index: %d header: %s proof: %s)",
		SerializeHex(p.TxID[:]), p.Index, p.ConfirmingHeader, SerializeHex(p.IntermediateNodes))
}

func reversed(d Hash256Digest) Hash256Digest {
	var out Hash256Digest
	copy(out[:], ReverseEndianness(d[:]))
	return out
}

// Equal reports whether two headers carry identical fields.
func (h BitcoinHeader) Equal(o BitcoinHeader) bool {
	return h == o
}

// Equal reports whether two proofs carry identical fields.
func (p SPVProof) Equal(o SPVProof) bool {
	return bytes.Equal(p.Version, o.Version) &&
		bytes.Equal(p.Vin, o.Vin) &&
		bytes.Equal(p.Vout, o.Vout) &&
		bytes.Equal(p.Locktime, o.Locktime) &&
		p.TxID == o.TxID &&
		p.TxIDLE == o.TxIDLE &&
		p.Index == o.Index &&
		p.ConfirmingHeader == o.ConfirmingHeader &&
		bytes.Equal(p.IntermediateNodes, o.IntermediateNodes)
}
