package node

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"btcspv.dev/bridge/btcspv"
	"btcspv.dev/bridge/node/store"
)

var (
	ErrNotInitialized        = errors.New("relay: not initialized")
	ErrAlreadyInitialized    = errors.New("relay: already initialized")
	ErrCheckpointNotAtPeriod = errors.New("relay: mainnet checkpoint must start a retarget period")
	ErrNotExtendingTip       = errors.New("relay: header does not extend the tip")
	ErrDuplicateHeader       = errors.New("relay: duplicate header")
	ErrInsufficientWork      = errors.New("relay: header hash does not meet its target")
	ErrUnexpectedTarget      = errors.New("relay: unexpected target")
	ErrMissingPeriodStart    = errors.New("relay: retarget period start not stored")
)

// Relay maintains a single header chain from a trusted checkpoint. Every
// submitted header must extend the stored tip; forks are not tracked.
type Relay struct {
	network string
	db      *store.DB
	log     *slog.Logger

	mu sync.Mutex
}

// NewRelay binds a relay to an open store. A nil logger uses slog.Default.
func NewRelay(network string, db *store.DB, log *slog.Logger) (*Relay, error) {
	if db == nil {
		return nil, errors.New("relay: nil store")
	}
	if _, ok := allowedNetworks[network]; !ok {
		return nil, fmt.Errorf("relay: invalid network %q", network)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Relay{network: network, db: db, log: log}, nil
}

// Initialize stores raw as the trusted checkpoint at height. Its work is not checked.
func (r *Relay) Initialize(ctx context.Context, raw []byte, height uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	header, err := btcspv.ParseRawHeader(raw)
	if err != nil {
		return err
	}
	if r.network == NetworkMainnet && height%btcspv.RetargetInterval != 0 {
		return fmt.Errorf("%w: height %d", ErrCheckpointNotAtPeriod, height)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok, err := r.db.Tip(); err != nil {
		return err
	} else if ok {
		return ErrAlreadyInitialized
	}

	hash := btcspv.Hash256(header[:])
	if err := r.db.PutHeader(hash, store.HeaderEntry{
		Height:               height,
		CumulativeDifficulty: btcspv.ExtractDifficulty(header),
		Raw:                  header,
	}); err != nil {
		return err
	}
	r.log.Info("relay initialized", "network", r.network, "height", height, "hash", displayHash(hash))
	return nil
}

// SubmitHeader validates raw against the tip and stores it. It returns the
// height the header was stored at.
func (r *Relay) SubmitHeader(ctx context.Context, raw []byte) (uint32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	header, err := btcspv.ParseRawHeader(raw)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tip, ok, err := r.db.Tip()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrNotInitialized
	}

	hash := btcspv.Hash256(header[:])
	if _, dup, err := r.db.GetHeader(hash); err != nil {
		return 0, err
	} else if dup {
		return 0, fmt.Errorf("%w: %s", ErrDuplicateHeader, displayHash(hash))
	}
	if !btcspv.ValidateHeaderPrevHash(header, tip.HashLE) {
		prev := btcspv.ExtractPrevBlockHashLE(header)
		r.log.Debug("header rejected", "reason", "not extending tip", "hash", displayHash(hash), "prev", displayHash(prev))
		return 0, fmt.Errorf("%w: parent %s, tip %s", ErrNotExtendingTip, displayHash(prev), displayHash(tip.HashLE))
	}

	parent, ok, err := r.db.GetHeader(tip.HashLE)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("relay: tip %s not stored", displayHash(tip.HashLE))
	}

	target := btcspv.ExtractTarget(header)
	if !btcspv.ValidateHeaderWork(hash, target) {
		r.log.Debug("header rejected", "reason", "insufficient work", "hash", displayHash(hash))
		return 0, fmt.Errorf("%w: %s", ErrInsufficientWork, displayHash(hash))
	}

	height := parent.Height + 1
	if err := r.checkTarget(header, parent, height); err != nil {
		r.log.Debug("header rejected", "reason", "target", "height", height, "err", err)
		return 0, err
	}

	cumulative := new(big.Int).Add(parent.CumulativeDifficulty, btcspv.CalculateDifficulty(target))
	if err := r.db.PutHeader(hash, store.HeaderEntry{
		Height:               height,
		CumulativeDifficulty: cumulative,
		Raw:                  header,
	}); err != nil {
		return 0, err
	}
	r.log.Debug("header accepted", "height", height, "hash", displayHash(hash))
	return height, nil
}

// SubmitHeaders submits a packed run of 80-byte headers in order and returns
// the height of the last one stored. It stops at the first failure.
func (r *Relay) SubmitHeaders(ctx context.Context, raw []byte) (uint32, error) {
	if len(raw)%btcspv.HeaderBytes != 0 {
		return 0, fmt.Errorf("relay: %d header bytes not a multiple of %d", len(raw), btcspv.HeaderBytes)
	}
	var last uint32
	for off := 0; off < len(raw); off += btcspv.HeaderBytes {
		h, err := r.SubmitHeader(ctx, raw[off:off+btcspv.HeaderBytes])
		if err != nil {
			return last, fmt.Errorf("header %d: %w", off/btcspv.HeaderBytes, err)
		}
		last = h
	}
	if len(raw) > 0 {
		r.log.Info("headers accepted", "count", len(raw)/btcspv.HeaderBytes, "tip_height", last)
	}
	return last, nil
}

func (r *Relay) Tip(ctx context.Context) (*store.Tip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tip, ok, err := r.db.Tip()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotInitialized
	}
	return tip, nil
}

// checkTarget enforces mainnet difficulty rules. Testnet and regtest accept
// any target the header itself meets.
func (r *Relay) checkTarget(header btcspv.RawHeader, parent *store.HeaderEntry, height uint32) error {
	if r.network != NetworkMainnet {
		return nil
	}
	got := bitsOf(header)
	if height%btcspv.RetargetInterval != 0 {
		if want := bitsOf(parent.Raw); got != want {
			return fmt.Errorf("%w: bits %08x, parent %08x", ErrUnexpectedTarget, got, want)
		}
		return nil
	}

	first, ok, err := r.db.HeaderAtHeight(height - btcspv.RetargetInterval)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: height %d", ErrMissingPeriodStart, height-btcspv.RetargetInterval)
	}
	want := nextWorkRequired(
		btcspv.ExtractTarget(parent.Raw),
		btcspv.ExtractTimestamp(first.Raw),
		btcspv.ExtractTimestamp(parent.Raw),
	)
	if got != want {
		return fmt.Errorf("%w: bits %08x, retarget %08x", ErrUnexpectedTarget, got, want)
	}
	return nil
}

func bitsOf(header btcspv.RawHeader) uint32 {
	b := btcspv.ExtractBitsLE(header)
	return binary.LittleEndian.Uint32(b[:])
}

// displayHash renders an internal-order digest the way block explorers show it.
func displayHash(le btcspv.Hash256Digest) string {
	return btcspv.SerializeHex(btcspv.ReverseEndianness(le[:]))
}
