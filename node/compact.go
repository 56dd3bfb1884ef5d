package node

import (
	"math/big"

	"btcspv.dev/bridge/btcspv"
)

// maxTarget is the unrounded mainnet proof-of-work limit, 2^224 - 1.
var maxTarget = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 224), big.NewInt(1))

// compactFromTarget encodes target in the 4-byte compact ("bits") form,
// truncating to three significant bytes. The mantissa never has its sign bit set.
func compactFromTarget(target *big.Int) uint32 {
	if target == nil || target.Sign() <= 0 {
		return 0
	}
	size := uint32((target.BitLen() + 7) / 8)
	var mantissa uint64
	if size <= 3 {
		mantissa = target.Uint64() << (8 * (3 - size))
	} else {
		mantissa = new(big.Int).Rsh(target, uint(8*(size-3))).Uint64()
	}
	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		size++
	}
	return uint32(mantissa) | size<<24 // #nosec G115 -- mantissa fits 24 bits after the shift above.
}

// nextWorkRequired returns the compact target a mainnet header at a
// retarget height must carry, given the previous target and the timestamps
// of the first and last headers of the closing period.
func nextWorkRequired(prevTarget *big.Int, firstTimestamp, lastTimestamp uint32) uint32 {
	next := btcspv.RetargetAlgorithm(prevTarget, firstTimestamp, lastTimestamp)
	if next.Cmp(maxTarget) > 0 {
		next = maxTarget
	}
	return compactFromTarget(next)
}
