package fsrs

import (
	"fmt"
	"math"
	"time"
)

// Weight counts for the supported algorithm versions. FSRS-5 carries two
// extra short-term weights (w17, w18) over FSRS-4.5; a 17-weight set is
// accepted and padded with the defaults for those two.
const (
	WeightCountV5  = 19
	WeightCountV45 = 17
)

// DefaultWeights are the FSRS-5 default model weights w[0]..w[18].
var DefaultWeights = [WeightCountV5]float64{
	0.4072,  // w0  initial stability, Again
	1.1829,  // w1  initial stability, Hard
	3.1262,  // w2  initial stability, Good
	15.4722, // w3  initial stability, Easy
	7.2102,  // w4  initial difficulty baseline
	0.5316,  // w5  initial difficulty slope
	1.0651,  // w6  difficulty delta per rating step
	0.0234,  // w7  difficulty mean-reversion weight
	1.616,   // w8  recall stability: exp(w8)
	0.1544,  // w9  recall stability: S^(-w9)
	1.0824,  // w10 recall stability: exp(w10*(1-R)) - 1
	1.9813,  // w11 forget stability multiplier
	0.0953,  // w12 forget stability: D^(-w12)
	0.2975,  // w13 forget stability: (S+1)^w13 - 1
	2.2042,  // w14 forget stability: exp(w14*(1-R))
	0.2407,  // w15 hard penalty
	2.9466,  // w16 easy bonus
	0.5034,  // w17 short-term stability
	0.6567,  // w18 short-term stability
}

// Parameters is one user's validated scheduling configuration.
// Construct with DefaultParameters or validate an edited bundle with
// Validate before handing it to the engine.
type Parameters struct {
	Weights             []float64
	RequestRetention    float64
	MaximumIntervalDays int
	EnableFuzz          bool
	EnableShortTerm     bool
	LearningSteps       []time.Duration
	RelearningSteps     []time.Duration
}

// DefaultParameters returns the stock FSRS-5 configuration.
func DefaultParameters() Parameters {
	return Parameters{
		Weights:             DefaultWeights[:],
		RequestRetention:    0.9,
		MaximumIntervalDays: 36500,
		EnableFuzz:          true,
		EnableShortTerm:     true,
		LearningSteps:       []time.Duration{time.Minute, 10 * time.Minute},
		RelearningSteps:     []time.Duration{10 * time.Minute},
	}
}

// Validate checks the bundle against the supported algorithm versions.
func (p Parameters) Validate() error {
	switch len(p.Weights) {
	case WeightCountV5, WeightCountV45:
	default:
		return fmt.Errorf("%w: got %d weights, want %d (FSRS-5) or %d (FSRS-4.5)",
			ErrInvalidParameters, len(p.Weights), WeightCountV5, WeightCountV45)
	}
	for i, v := range p.Weights {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: w[%d] = %v", ErrInvalidParameters, i, v)
		}
	}
	for i := 0; i < 4; i++ {
		if p.Weights[i] <= 0 {
			return fmt.Errorf("%w: initial stability w[%d] = %v must be positive",
				ErrInvalidParameters, i, p.Weights[i])
		}
	}
	if p.RequestRetention <= 0 || p.RequestRetention >= 1 {
		return fmt.Errorf("%w: request retention %v outside (0, 1)",
			ErrInvalidParameters, p.RequestRetention)
	}
	if p.MaximumIntervalDays < 1 {
		return fmt.Errorf("%w: maximum interval %d days must be at least 1",
			ErrInvalidParameters, p.MaximumIntervalDays)
	}
	for _, d := range p.LearningSteps {
		if d <= 0 {
			return fmt.Errorf("%w: non-positive learning step %v", ErrInvalidParameters, d)
		}
	}
	for _, d := range p.RelearningSteps {
		if d <= 0 {
			return fmt.Errorf("%w: non-positive relearning step %v", ErrInvalidParameters, d)
		}
	}
	return nil
}

// weights returns the full 19-weight vector, padding a 17-weight FSRS-4.5
// set with the default short-term weights.
func (p Parameters) weights() [WeightCountV5]float64 {
	var w [WeightCountV5]float64
	copy(w[:], p.Weights)
	if len(p.Weights) == WeightCountV45 {
		w[17] = DefaultWeights[17]
		w[18] = DefaultWeights[18]
	}
	return w
}
