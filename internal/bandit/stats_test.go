package bandit

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestArmStatistics_MeanMatchesArithmeticMean(t *testing.T) {
	tests := []struct {
		name    string
		rewards []float64
	}{
		{"single reward", []float64{1}},
		{"bernoulli sequence", []float64{1, 0, 0, 1, 1, 1, 0, 1}},
		{"all zeros", []float64{0, 0, 0, 0}},
		{"fractional rewards", []float64{0.25, 0.5, 0.75, 0.1, 0.9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewArmStatistics(2)
			for _, r := range tt.rewards {
				s.Incorporate(1, r)
			}

			assert.Equal(t, len(tt.rewards), s.Count(1))
			assert.InDelta(t, stat.Mean(tt.rewards, nil), s.Mean(1), 1e-9)
			assert.Equal(t, 0, s.Count(0), "other arms must be untouched")
		})
	}
}

func TestArmStatistics_LongRandomSequence(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	s := NewArmStatistics(1)

	rewards := make([]float64, 10000)
	for i := range rewards {
		if rng.Float64() < 0.3 {
			rewards[i] = 1
		}
		s.Incorporate(0, rewards[i])
	}

	assert.InDelta(t, stat.Mean(rewards, nil), s.Mean(0), 1e-9)
}

func TestArgmax_LowestIndexWinsTies(t *testing.T) {
	tests := []struct {
		values []float64
		want   int
	}{
		{[]float64{0, 0, 0}, 0},
		{[]float64{0.2, 0.5, 0.5}, 1},
		{[]float64{0.9, 0.1, 0.9}, 0},
		{[]float64{0.1, 0.2, 0.3}, 2},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, argmax(tt.values), "argmax(%v)", tt.values)
	}
}

func TestRoundRobin(t *testing.T) {
	r := newRoundRobin(3)

	for want := 0; want < 3; want++ {
		arm, ok := r.initArm()
		require.True(t, ok)
		assert.Equal(t, want, arm)
	}

	_, ok := r.initArm()
	assert.False(t, ok, "init phase must end after every arm was handed out")
	assert.Equal(t, 3, r.tick())
	assert.Equal(t, 4, r.plays)
}
