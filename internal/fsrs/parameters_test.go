package fsrs

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParametersValidate(t *testing.T) {
	mutations := []struct {
		name    string
		mutate  func(*Parameters)
		wantErr bool
	}{
		{"defaults", func(p *Parameters) {}, false},
		{"fsrs-4.5 weight count", func(p *Parameters) { p.Weights = p.Weights[:WeightCountV45] }, false},
		{"empty steps", func(p *Parameters) { p.LearningSteps = nil; p.RelearningSteps = nil }, false},
		{"too few weights", func(p *Parameters) { p.Weights = p.Weights[:10] }, true},
		{"too many weights", func(p *Parameters) { p.Weights = append(p.Weights, 0.5) }, true},
		{"nan weight", func(p *Parameters) { p.Weights[8] = math.NaN() }, true},
		{"zero initial stability", func(p *Parameters) { p.Weights[2] = 0 }, true},
		{"retention at one", func(p *Parameters) { p.RequestRetention = 1 }, true},
		{"retention at zero", func(p *Parameters) { p.RequestRetention = 0 }, true},
		{"zero maximum interval", func(p *Parameters) { p.MaximumIntervalDays = 0 }, true},
		{"negative learning step", func(p *Parameters) { p.LearningSteps = []time.Duration{-time.Minute} }, true},
		{"zero relearning step", func(p *Parameters) { p.RelearningSteps = []time.Duration{0} }, true},
	}
	for _, tc := range mutations {
		t.Run(tc.name, func(t *testing.T) {
			p := DefaultParameters()
			p.Weights = append([]float64(nil), p.Weights...)
			tc.mutate(&p)
			err := p.Validate()
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidParameters)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWeightsPadding(t *testing.T) {
	p := DefaultParameters()
	p.Weights = append([]float64(nil), p.Weights[:WeightCountV45]...)
	p.Weights[0] = 0.5

	w := p.weights()
	require.Equal(t, 0.5, w[0])
	assert.Equal(t, DefaultWeights[17], w[17])
	assert.Equal(t, DefaultWeights[18], w[18])
}
