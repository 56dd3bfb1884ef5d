package btcspv

import (
	"math/big"
)

// Prove evaluates a Merkle inclusion proof for txid under merkleRoot.
// intermediateNodes are the sibling digests from the leaf upward. A block
// whose only transaction is the coinbase has txid == merkleRoot and no nodes.
func Prove(txid, merkleRoot Hash256Digest, intermediateNodes []byte, index uint64) bool {
	if txid == merkleRoot && index == 0 && len(intermediateNodes) == 0 {
		return true
	}
	proof := make([]byte, 0, 64+len(intermediateNodes))
	proof = append(proof, txid[:]...)
	proof = append(proof, intermediateNodes...)
	proof = append(proof, merkleRoot[:]...)
	return VerifyHash256Merkle(proof, index)
}

// CalculateTxID hashes the legacy (witness-stripped) transaction encoding.
func CalculateTxID(version, vin, vout, locktime []byte) Hash256Digest {
	tx := make([]byte, 0, len(version)+len(vin)+len(vout)+len(locktime))
	tx = append(tx, version...)
	tx = append(tx, vin...)
	tx = append(tx, vout...)
	tx = append(tx, locktime...)
	return Hash256(tx)
}

// ValidateHeaderWork reports whether digest, read as a LE integer, is below target.
func ValidateHeaderWork(digest Hash256Digest, target *big.Int) bool {
	if digest == (Hash256Digest{}) || target == nil {
		return false
	}
	return leToInt(digest[:]).Cmp(target) < 0
}

// ValidateHeaderPrevHash reports whether header commits to prevHash as its parent.
func ValidateHeaderPrevHash(header RawHeader, prevHash Hash256Digest) bool {
	return ExtractPrevBlockHashLE(header) == prevHash
}

// ValidateHeaderChain checks a packed run of headers: each must link to the
// one before it and meet its own target. It returns the summed difficulty.
func ValidateHeaderChain(headers []byte) (*big.Int, error) {
	if len(headers)%HeaderBytes != 0 {
		return nil, spverr(SPV_ERR_WRONG_LENGTH_HEADER, "header bytes not multiple of 80")
	}

	total := new(big.Int)
	var digest Hash256Digest
	for i := 0; i < len(headers)/HeaderBytes; i++ {
		var header RawHeader
		copy(header[:], headers[i*HeaderBytes:(i+1)*HeaderBytes])

		if i != 0 && !ValidateHeaderPrevHash(header, digest) {
			return nil, spverr(SPV_ERR_INVALID_CHAIN, "header bytes not a valid chain")
		}

		target := ExtractTarget(header)
		digest = Hash256(header[:])
		if !ValidateHeaderWork(digest, target) {
			return nil, spverr(SPV_ERR_INSUFFICIENT_WORK, "header does not meet its own difficulty target")
		}
		total.Add(total, CalculateDifficulty(target))
	}
	return total, nil
}

func leToInt(le []byte) *big.Int {
	return new(big.Int).SetBytes(ReverseEndianness(le))
}
