package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"btcspv.dev/bridge/btcspv"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketHeaders = []byte("headers_by_hash")
	bucketHeights = []byte("hash_by_height")
	bucketMeta    = []byte("meta")

	metaTipKey = []byte("tip")
)

// ErrHeightTaken is returned when a different header is already stored at a height.
var ErrHeightTaken = errors.New("store: height already has a header")

// HeaderEntry is a stored header with its height and the summed difficulty
// of the stored chain up to and including it.
type HeaderEntry struct {
	Height               uint32
	CumulativeDifficulty *big.Int // non-negative
	Raw                  btcspv.RawHeader
}

// Tip is the highest stored header.
type Tip struct {
	HashLE               btcspv.Hash256Digest
	Height               uint32
	CumulativeDifficulty *big.Int
}

type DB struct {
	dir      string
	db       *bolt.DB
	manifest *Manifest
}

// Open opens or creates the header store for network under datadir. An
// existing store created for another network is refused.
func Open(datadir string, network string) (*DB, error) {
	if datadir == "" {
		return nil, fmt.Errorf("datadir required")
	}
	if network == "" {
		return nil, fmt.Errorf("network required")
	}

	dir := NetworkDir(datadir, network)
	if err := ensureDir(dir); err != nil {
		return nil, err
	}

	path := filepath.Join(dir, "headers.db")
	bdb, err := bolt.Open(path, 0o600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("open bbolt: %w", err)
	}

	d := &DB{dir: dir, db: bdb}

	if err := d.db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketHeaders, bucketHeights, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", string(b), err)
			}
		}
		return nil
	}); err != nil {
		_ = bdb.Close()
		return nil, err
	}

	m, err := readManifest(dir)
	switch {
	case os.IsNotExist(err):
		m = &Manifest{SchemaVersion: SchemaVersionV1, Network: network}
		if err := writeManifestAtomic(dir, m); err != nil {
			_ = bdb.Close()
			return nil, err
		}
	case err != nil:
		_ = bdb.Close()
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	if m.SchemaVersion > SchemaVersionV1 {
		_ = bdb.Close()
		return nil, fmt.Errorf("manifest schema_version %d > supported %d", m.SchemaVersion, SchemaVersionV1)
	}
	if m.Network != network {
		_ = bdb.Close()
		return nil, fmt.Errorf("manifest network %q, opened as %q", m.Network, network)
	}
	d.manifest = m
	return d, nil
}

func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

func (d *DB) Dir() string { return d.dir }

func (d *DB) Manifest() *Manifest {
	if d == nil {
		return nil
	}
	return d.manifest
}

// PutHeader stores e under hashLE, indexes it by height and, when it is
// higher than the current tip, makes it the tip. All three writes commit in
// one transaction.
func (d *DB) PutHeader(hashLE btcspv.Hash256Digest, e HeaderEntry) error {
	val, err := encodeHeaderEntry(e)
	if err != nil {
		return err
	}
	return d.db.Update(func(tx *bolt.Tx) error {
		heights := tx.Bucket(bucketHeights)
		hk := heightKey(e.Height)
		if cur := heights.Get(hk); cur != nil && string(cur) != string(hashLE[:]) {
			return fmt.Errorf("%w: %d", ErrHeightTaken, e.Height)
		}
		if err := tx.Bucket(bucketHeaders).Put(hashLE[:], val); err != nil {
			return err
		}
		if err := heights.Put(hk, hashLE[:]); err != nil {
			return err
		}

		meta := tx.Bucket(bucketMeta)
		if cur := meta.Get(metaTipKey); cur != nil {
			tip, err := decodeTip(cur)
			if err != nil {
				return err
			}
			if tip.Height >= e.Height {
				return nil
			}
		}
		return meta.Put(metaTipKey, encodeTip(hashLE, e.Height))
	})
}

func (d *DB) GetHeader(hashLE btcspv.Hash256Digest) (*HeaderEntry, bool, error) {
	var out *HeaderEntry
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketHeaders).Get(hashLE[:])
		if v == nil {
			return nil
		}
		e, err := decodeHeaderEntry(v)
		if err != nil {
			return err
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if out == nil {
		return nil, false, nil
	}
	return out, true, nil
}

func (d *DB) HashAtHeight(height uint32) (btcspv.Hash256Digest, bool, error) {
	var out btcspv.Hash256Digest
	var ok bool
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketHeights).Get(heightKey(height))
		if v == nil {
			return nil
		}
		if len(v) != len(out) {
			return fmt.Errorf("height index: bad hash len %d", len(v))
		}
		copy(out[:], v)
		ok = true
		return nil
	})
	return out, ok, err
}

// HeaderAtHeight resolves the height index and loads the header it points to.
func (d *DB) HeaderAtHeight(height uint32) (*HeaderEntry, bool, error) {
	hash, ok, err := d.HashAtHeight(height)
	if err != nil || !ok {
		return nil, false, err
	}
	e, ok, err := d.GetHeader(hash)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, fmt.Errorf("height index: %x not in headers", hash)
	}
	return e, true, nil
}

func (d *DB) Tip() (*Tip, bool, error) {
	var out *Tip
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketMeta).Get(metaTipKey)
		if v == nil {
			return nil
		}
		tip, err := decodeTip(v)
		if err != nil {
			return err
		}
		raw := tx.Bucket(bucketHeaders).Get(tip.HashLE[:])
		if raw == nil {
			return fmt.Errorf("tip %x not in headers", tip.HashLE)
		}
		e, err := decodeHeaderEntry(raw)
		if err != nil {
			return err
		}
		tip.CumulativeDifficulty = e.CumulativeDifficulty
		out = tip
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if out == nil {
		return nil, false, nil
	}
	return out, true, nil
}

func heightKey(h uint32) []byte {
	return binary.BigEndian.AppendUint32(nil, h)
}

func encodeTip(hashLE btcspv.Hash256Digest, height uint32) []byte {
	out := make([]byte, 0, 36)
	out = append(out, hashLE[:]...)
	return binary.LittleEndian.AppendUint32(out, height)
}

func decodeTip(b []byte) (*Tip, error) {
	if len(b) != 36 {
		return nil, fmt.Errorf("tip: bad len %d", len(b))
	}
	t := &Tip{Height: binary.LittleEndian.Uint32(b[32:36])}
	copy(t.HashLE[:], b[:32])
	return t, nil
}

func encodeHeaderEntry(e HeaderEntry) ([]byte, error) {
	if e.CumulativeDifficulty == nil || e.CumulativeDifficulty.Sign() < 0 {
		return nil, fmt.Errorf("header entry: cumulative_difficulty required")
	}
	diff := e.CumulativeDifficulty.Bytes()
	if len(diff) > 0xffff {
		return nil, fmt.Errorf("header entry: cumulative_difficulty too large")
	}
	// Layout:
	// height u32le | diff_len u16le | diff_bytes | raw header 80
	out := make([]byte, 4+2+len(diff)+btcspv.HeaderBytes)
	binary.LittleEndian.PutUint32(out[0:4], e.Height)
	binary.LittleEndian.PutUint16(out[4:6], uint16(len(diff))) // #nosec G115 -- len(diff) checked against 0xffff above.
	copy(out[6:], diff)
	copy(out[6+len(diff):], e.Raw[:])
	return out, nil
}

func decodeHeaderEntry(b []byte) (*HeaderEntry, error) {
	if len(b) < 4+2+btcspv.HeaderBytes {
		return nil, fmt.Errorf("header entry: truncated")
	}
	diffLen := int(binary.LittleEndian.Uint16(b[4:6]))
	if 6+diffLen+btcspv.HeaderBytes != len(b) {
		return nil, fmt.Errorf("header entry: bad difficulty len")
	}
	e := &HeaderEntry{
		Height:               binary.LittleEndian.Uint32(b[0:4]),
		CumulativeDifficulty: new(big.Int).SetBytes(b[6 : 6+diffLen]),
	}
	copy(e.Raw[:], b[6+diffLen:])
	return e, nil
}
