// Package btcspv parses Bitcoin transaction and block-header byte layouts and
// verifies SPV inclusion proofs and difficulty retargets.
//
// Every function is pure and safe for concurrent use. Inputs are borrowed for
// the duration of the call only; returned slices are fresh copies. Reads are
// bounds-checked: malformed or truncated input yields an *SPVError, never a panic.
package btcspv
