package btcspv

import "math/big"

const (
	// RetargetPeriod is the expected duration of 2016 blocks, in seconds.
	RetargetPeriod = 2016 * 10 * 60
	// RetargetInterval is the number of blocks between difficulty adjustments.
	RetargetInterval = 2016
)

var retargetPeriodBig = big.NewInt(RetargetPeriod)

// RetargetAlgorithm reproduces Bitcoin's difficulty adjustment: the previous
// target is scaled by the observed period duration, clamped so that the target
// moves by at most a factor of 4 either way.
//
// Timestamps that go backwards count as zero elapsed time and so clamp to the
// lower bound.
func RetargetAlgorithm(previousTarget *big.Int, firstTimestamp, secondTimestamp uint32) *big.Int {
	const (
		lowerBound = RetargetPeriod / 4
		upperBound = RetargetPeriod * 4
	)

	var elapsed int64
	if secondTimestamp > firstTimestamp {
		elapsed = int64(secondTimestamp - firstTimestamp)
	}
	if elapsed > upperBound {
		elapsed = upperBound
	} else if elapsed < lowerBound {
		elapsed = lowerBound
	}

	out := new(big.Int)
	if previousTarget == nil {
		return out
	}
	out.Mul(previousTarget, big.NewInt(elapsed))
	return out.Quo(out, retargetPeriodBig)
}
