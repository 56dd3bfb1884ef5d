package btcspv

import (
	"encoding/binary"
	"math/big"
)

// Header layout: version(4) || prev(32) || merkleRoot(32) || time(4) || bits(4) || nonce(4).
const (
	HeaderBytes = 80

	headerPrevHashAt   = 4
	headerMerkleRootAt = 36
	headerTimestampAt  = 68
	headerBitsAt       = 72
	headerNonceAt      = 76
)

// RawHeader is a serialized Bitcoin block header.
type RawHeader [HeaderBytes]byte

// diffOneTarget is the difficulty-1 target (bits 0x1d00ffff): 0xffff * 256^26.
var diffOneTarget = new(big.Int).Lsh(big.NewInt(0xffff), 8*26)

// DiffOneTarget returns a copy of the difficulty-1 target.
func DiffOneTarget() *big.Int {
	return new(big.Int).Set(diffOneTarget)
}

// ParseRawHeader copies an untrusted 80-byte slice into a RawHeader.
func ParseRawHeader(b []byte) (RawHeader, error) {
	var h RawHeader
	if len(b) != HeaderBytes {
		return h, spverr(SPV_ERR_WRONG_LENGTH_HEADER, "header must be 80 bytes")
	}
	copy(h[:], b)
	return h, nil
}

func ExtractVersion(header RawHeader) uint32 {
	return binary.LittleEndian.Uint32(header[0:headerPrevHashAt])
}

// ExtractPrevBlockHashLE returns the parent block hash in internal byte order.
func ExtractPrevBlockHashLE(header RawHeader) Hash256Digest {
	var out Hash256Digest
	copy(out[:], header[headerPrevHashAt:headerMerkleRootAt])
	return out
}

// ExtractMerkleRootLE returns the transaction Merkle root in internal byte order.
func ExtractMerkleRootLE(header RawHeader) Hash256Digest {
	var out Hash256Digest
	copy(out[:], header[headerMerkleRootAt:headerTimestampAt])
	return out
}

func ExtractTimestampLE(header RawHeader) [4]byte {
	var out [4]byte
	copy(out[:], header[headerTimestampAt:headerBitsAt])
	return out
}

// ExtractTimestamp returns the header time. Miners control it; it is only
// loosely tied to wall-clock time.
func ExtractTimestamp(header RawHeader) uint32 {
	return binary.LittleEndian.Uint32(header[headerTimestampAt:headerBitsAt])
}

// ExtractBitsLE returns the compact target bytes as stored in the header.
func ExtractBitsLE(header RawHeader) [4]byte {
	var out [4]byte
	copy(out[:], header[headerBitsAt:headerNonceAt])
	return out
}

func ExtractNonce(header RawHeader) uint32 {
	return binary.LittleEndian.Uint32(header[headerNonceAt:HeaderBytes])
}

// ExtractTarget decodes the compact target: mantissa * 256^(exponent-3),
// where the mantissa is the 3 LE bytes at offset 72 and the exponent is byte 75.
func ExtractTarget(header RawHeader) *big.Int {
	bits := ExtractBitsLE(header)
	mantissa := new(big.Int).SetUint64(uint64(bits[0]) | uint64(bits[1])<<8 | uint64(bits[2])<<16)
	exponent := int(bits[3])
	if exponent >= 3 {
		return mantissa.Lsh(mantissa, uint(8*(exponent-3)))
	}
	return mantissa.Rsh(mantissa, uint(8*(3-exponent)))
}

// CalculateDifficulty returns floor(diffOneTarget / target). A zero target
// has no meaningful difficulty and yields zero.
func CalculateDifficulty(target *big.Int) *big.Int {
	if target == nil || target.Sign() <= 0 {
		return new(big.Int)
	}
	return new(big.Int).Quo(diffOneTarget, target)
}

// ExtractDifficulty returns the difficulty implied by the header's target.
// It does not check that the header hash meets that target.
func ExtractDifficulty(header RawHeader) *big.Int {
	return CalculateDifficulty(ExtractTarget(header))
}
