// Package fsrs implements the FSRS-5 spaced repetition scheduling engine:
// the memory-state transition model (stability, difficulty), the state
// machine over New/Learning/Review/Relearning, and interval computation.
//
// The engine is pure: Schedule performs no I/O and identical inputs yield
// identical outputs, including the fuzz jitter, which is seeded from the
// review instant and the card's state rather than a global RNG.
package fsrs

import (
	"math"

	"github.com/cardwheel/cardwheel/internal/domain"
)

// minStability is the floor for stability values.
const minStability = 0.1

// FSRS-5 forgetting-curve constants: R(t, S) = (1 + factor*t/S)^decay.
// With these values R(S, S) = 0.9, i.e. stability is the elapsed time at
// which recall probability has decayed to 90%.
const (
	decay  = -0.5
	factor = 19.0 / 81.0
)

// retrievability computes the probability of recall after elapsedDays with
// the given stability.
func retrievability(elapsedDays int, stability float64) float64 {
	if stability <= 0 {
		return 0
	}
	return math.Pow(1+factor*float64(elapsedDays)/stability, decay)
}

// nextInterval converts stability and the target retention into a review
// interval in days: I(S, r) = (S / factor) * (r^(1/decay) - 1).
func nextInterval(stability, requestRetention float64) int {
	ivl := stability / factor * (math.Pow(requestRetention, 1/decay) - 1)
	return int(math.Round(ivl))
}

// initialStability returns S0(G) = w[G-1], floored at minStability.
func initialStability(w [WeightCountV5]float64, rating domain.Rating) float64 {
	return math.Max(minStability, w[rating-1])
}

// initialDifficulty returns D0(G) = w4 - e^(w5*(G-1)) + 1, clamped to [1, 10].
func initialDifficulty(w [WeightCountV5]float64, rating domain.Rating) float64 {
	d := w[4] - math.Exp(w[5]*float64(rating-1)) + 1
	return clampDifficulty(d)
}

// nextDifficulty applies the rating delta and mean reversion toward D0(Easy):
//
//	D' = w7*D0(Easy) + (1-w7) * (D - w6*(G-3))
//
// Easier ratings move difficulty down, Again moves it up; the clamp keeps
// the result inside [1, 10] regardless of input extremity.
func nextDifficulty(w [WeightCountV5]float64, d float64, rating domain.Rating) float64 {
	d0Easy := initialDifficulty(w, domain.Easy)
	next := w[7]*d0Easy + (1-w[7])*(d-w[6]*(float64(rating)-3))
	return clampDifficulty(next)
}

// stabilityAfterRecall computes post-recall stability for Hard/Good/Easy:
//
//	S' = S * (e^w8 * (11-D) * S^(-w9) * (e^(w10*(1-R)) - 1) * hard * easy + 1)
//
// Lower retrievability (longer elapsed interval) gives a larger increase,
// the spacing effect; already-stable or easy cards grow less.
func stabilityAfterRecall(w [WeightCountV5]float64, s, d, r float64, rating domain.Rating) float64 {
	hardPenalty := 1.0
	if rating == domain.Hard {
		hardPenalty = w[15]
	}
	easyBonus := 1.0
	if rating == domain.Easy {
		easyBonus = w[16]
	}
	next := s * (math.Exp(w[8])*
		(11-d)*
		math.Pow(s, -w[9])*
		(math.Exp(w[10]*(1-r))-1)*
		hardPenalty*easyBonus + 1)
	return math.Max(minStability, next)
}

// stabilityAfterForgetting computes post-lapse stability for Again,
// capped so a lapse can never leave stability above S / e^(w17*w18):
//
//	S'f = w11 * D^(-w12) * ((S+1)^w13 - 1) * e^(w14*(1-R))
func stabilityAfterForgetting(w [WeightCountV5]float64, s, d, r float64) float64 {
	sf := w[11] *
		math.Pow(d, -w[12]) *
		(math.Pow(s+1, w[13]) - 1) *
		math.Exp(w[14]*(1-r))
	cap := s / math.Exp(w[17]*w[18])
	return math.Max(minStability, math.Min(sf, cap))
}

// shortTermStability adjusts stability for a same-day (learning-step)
// review: S' = S * e^(w17 * (G - 3 + w18)).
func shortTermStability(w [WeightCountV5]float64, s float64, rating domain.Rating) float64 {
	next := s * math.Exp(w[17]*(float64(rating)-3+w[18]))
	return math.Max(minStability, next)
}

// clampDifficulty constrains difficulty to [1, 10].
func clampDifficulty(d float64) float64 {
	return math.Max(1, math.Min(10, d))
}

// clampInterval constrains an interval to [1, maxDays].
func clampInterval(ivl, maxDays int) int {
	if ivl < 1 {
		return 1
	}
	if ivl > maxDays {
		return maxDays
	}
	return ivl
}
