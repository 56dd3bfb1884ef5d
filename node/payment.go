package node

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"btcspv.dev/bridge/btcspv"
	"btcspv.dev/bridge/node/store"
)

var (
	ErrUnknownHeader             = errors.New("payment: confirming header not stored")
	ErrNotMainChain              = errors.New("payment: confirming header not on the stored chain")
	ErrInsufficientConfirmations = errors.New("payment: insufficient confirmations")
)

// PaymentOutput is one decoded output of a proven transaction. Hash is set
// for witness, P2PKH and P2SH outputs; Data for OP_RETURN outputs.
type PaymentOutput struct {
	Index int               `json:"index"`
	Value uint64            `json:"value"`
	Type  btcspv.OutputType `json:"type"`
	Hash  btcspv.HexBytes   `json:"hash,omitempty"`
	Data  btcspv.HexBytes   `json:"data,omitempty"`
}

// Payment is a transaction proven to sit in the stored chain at depth
// Confirmations.
type Payment struct {
	TxIDLE        btcspv.Hash256Digest `json:"tx_id_le"`
	Height        uint32               `json:"height"`
	Confirmations uint32               `json:"confirmations"`
	Outputs       []PaymentOutput      `json:"outputs"`
}

type PaymentVerifier struct {
	db            *store.DB
	confirmations uint32
	log           *slog.Logger
}

func NewPaymentVerifier(cfg Config, db *store.DB, log *slog.Logger) (*PaymentVerifier, error) {
	if db == nil {
		return nil, errors.New("payment: nil store")
	}
	if cfg.Confirmations <= 0 || cfg.Confirmations > maxConfirmations {
		return nil, fmt.Errorf("payment: invalid confirmations %d", cfg.Confirmations)
	}
	if log == nil {
		log = slog.Default()
	}
	return &PaymentVerifier{db: db, confirmations: uint32(cfg.Confirmations), log: log}, nil // #nosec G115 -- bounded above.
}

// VerifyPayment validates proof, checks that its confirming header is on
// the stored chain with enough headers on top, and decodes the outputs.
func (v *PaymentVerifier) VerifyPayment(ctx context.Context, proof btcspv.SPVProof) (*Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := proof.Validate(); err != nil {
		v.log.Debug("proof rejected", "tx_id", btcspv.SerializeHex(proof.TxID[:]), "err", err)
		return nil, err
	}

	hash := proof.ConfirmingHeader.HashLE
	entry, ok, err := v.db.GetHeader(hash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHeader, displayHash(hash))
	}
	onChain, ok, err := v.db.HashAtHeight(entry.Height)
	if err != nil {
		return nil, err
	}
	if !ok || onChain != hash {
		return nil, fmt.Errorf("%w: %s", ErrNotMainChain, displayHash(hash))
	}

	tip, ok, err := v.db.Tip()
	if err != nil {
		return nil, err
	}
	if !ok || tip.Height < entry.Height {
		return nil, fmt.Errorf("%w: tip below header", ErrNotMainChain)
	}
	depth := tip.Height - entry.Height + 1
	if depth < v.confirmations {
		return nil, fmt.Errorf("%w: %d of %d", ErrInsufficientConfirmations, depth, v.confirmations)
	}

	outputs, err := v.decodeOutputs(proof.Vout)
	if err != nil {
		return nil, err
	}
	txid := btcspv.CalculateTxID(proof.Version, proof.Vin, proof.Vout, proof.Locktime)
	p := &Payment{
		TxIDLE:        txid,
		Height:        entry.Height,
		Confirmations: depth,
		Outputs:       outputs,
	}
	v.log.Info("payment verified", "tx_id", displayHash(txid), "height", entry.Height, "confirmations", depth)
	return p, nil
}

// decodeOutputs walks a vout already accepted by ValidateVout. Outputs whose
// shape is recognized but malformed keep their type with an empty Hash.
func (v *PaymentVerifier) decodeOutputs(vout []byte) ([]PaymentOutput, error) {
	if len(vout) == 0 {
		return nil, nil
	}
	n := int(vout[0])
	out := make([]PaymentOutput, 0, n)
	for i := 0; i < n; i++ {
		raw, err := btcspv.ExtractOutputAtIndex(vout, i)
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		value, err := btcspv.ExtractValue(raw)
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		po := PaymentOutput{Index: i, Value: value}
		if typ, err := btcspv.ClassifyOutput(raw); err == nil {
			po.Type = typ
		}
		switch po.Type {
		case btcspv.OutputOpReturn:
			data, err := btcspv.ExtractOpReturnData(raw)
			if err != nil {
				v.log.Debug("output data not extracted", "index", i, "type", po.Type.String(), "err", err)
				break
			}
			po.Data = data
		case btcspv.OutputWitness, btcspv.OutputP2PKH, btcspv.OutputP2SH:
			h, err := btcspv.ExtractHash(raw)
			if err != nil {
				v.log.Debug("output hash not extracted", "index", i, "type", po.Type.String(), "err", err)
				break
			}
			po.Hash = h
		}
		out = append(out, po)
	}
	return out, nil
}

// FindPaymentTo returns the first output paying to the given script hash
// (20-byte P2PKH/P2SH/P2WPKH or 32-byte P2WSH).
func FindPaymentTo(p *Payment, hash []byte) (PaymentOutput, bool) {
	if p == nil || len(hash) == 0 {
		return PaymentOutput{}, false
	}
	for _, o := range p.Outputs {
		if o.Hash != nil && bytes.Equal(o.Hash, hash) {
			return o, true
		}
	}
	return PaymentOutput{}, false
}

// FindOpReturn returns the first OP_RETURN output carrying exactly data.
func FindOpReturn(p *Payment, data []byte) (PaymentOutput, bool) {
	if p == nil {
		return PaymentOutput{}, false
	}
	for _, o := range p.Outputs {
		if o.Type == btcspv.OutputOpReturn && bytes.Equal(o.Data, data) {
			return o, true
		}
	}
	return PaymentOutput{}, false
}
