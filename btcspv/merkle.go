package btcspv

// VerifyHash256Merkle checks a packed proof of the form
// leaf || sibling_1 || ... || sibling_n || root against a 0-based leaf index.
//
// A 32-byte proof (leaf == root) is accepted. A 64-byte proof is always
// rejected: a leaf and a root with no sibling cannot be told apart from a
// truncated proof, and proof producers never emit that shape.
func VerifyHash256Merkle(proof []byte, index uint64) bool {
	n := len(proof)
	if n == 0 || n%32 != 0 {
		return false
	}
	if n == 32 {
		return true
	}
	if n == 64 {
		return false
	}

	var root, current Hash256Digest
	copy(root[:], proof[n-32:])
	copy(current[:], proof[:32])

	idx := index
	numSteps := n/32 - 1
	for i := 1; i < numSteps; i++ {
		next := proof[i*32 : i*32+32]
		if idx&1 == 1 {
			current = Hash256MerkleStep(next, current[:])
		} else {
			current = Hash256MerkleStep(current[:], next)
		}
		idx >>= 1
	}
	return current == root
}
