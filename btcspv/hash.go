package btcspv

import (
	"crypto/sha256"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // Bitcoin hash160 is defined over RIPEMD-160.
)

// Hash160Digest is the output of Hash160.
type Hash160Digest [20]byte

// Hash256Digest is a double-SHA256 digest in Bitcoin's internal (LE) byte order.
type Hash256Digest [32]byte

// Hash160 implements Bitcoin's hash160: RIPEMD160(SHA256(preimage)).
func Hash160(preimage []byte) Hash160Digest {
	sha := sha256.Sum256(preimage)
	rmd := ripemd160.New()
	_, _ = rmd.Write(sha[:])
	var out Hash160Digest
	copy(out[:], rmd.Sum(nil))
	return out
}

// Hash256 implements Bitcoin's hash256: SHA256(SHA256(preimage)).
func Hash256(preimage []byte) Hash256Digest {
	first := sha256.Sum256(preimage)
	return Hash256Digest(sha256.Sum256(first[:]))
}

// Hash256MerkleStep hashes the concatenation a || b.
func Hash256MerkleStep(a, b []byte) Hash256Digest {
	buf := make([]byte, 0, len(a)+len(b))
	buf = append(buf, a...)
	buf = append(buf, b...)
	return Hash256(buf)
}
