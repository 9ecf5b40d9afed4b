package fsrs

import (
	"math"
	"math/rand"
	"time"
)

// Interval jitter keeps cards reviewed together from staying due together
// forever. The jitter half-width grows with the interval in three pieces:
// 15% of the portion between 2.5 and 7 days, 10% between 7 and 20, 5%
// beyond that, plus a fixed day. Intervals under 2.5 days are left alone
// so jitter can never pull a review into the past or the same day.
var fuzzBands = []struct {
	start, end float64
	factor     float64
}{
	{2.5, 7.0, 0.15},
	{7.0, 20.0, 0.10},
	{20.0, math.Inf(1), 0.05},
}

func fuzzDelta(interval float64) float64 {
	delta := 1.0
	for _, b := range fuzzBands {
		if interval <= b.start {
			break
		}
		delta += b.factor * (math.Min(interval, b.end) - b.start)
	}
	return delta
}

// applyFuzz picks a jittered interval uniformly from the band around the
// scheduled one, bounded below by 2 days and above by maxIvl.
func applyFuzz(interval, maxIvl int, rng *rand.Rand) int {
	ivl := float64(interval)
	if ivl < 2.5 {
		return interval
	}

	delta := fuzzDelta(ivl)
	lo := max(2, int(math.Round(ivl-delta)))
	hi := min(int(math.Round(ivl+delta)), maxIvl)
	if lo > hi {
		lo = hi
	}

	fuzzed := lo + int(rng.Float64()*float64(hi-lo+1))
	return min(fuzzed, maxIvl)
}

// fuzzSeed folds the review instant, rep count, and stability into an RNG
// seed. Schedule stays a pure function of its inputs this way: the same
// review replayed gets the same jitter.
func fuzzSeed(now time.Time, reps int, stability float64) int64 {
	return now.UnixNano() ^ int64(reps)<<32 ^ int64(math.Float64bits(stability))
}
