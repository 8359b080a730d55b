/*
Package env simulates Bernoulli bandit instances.

A BernoulliBandit returns reward 1 for arm i with probability probs[i] and 0
otherwise, and keeps the bookkeeping needed to report regret against an oracle
that always pulls the best arm.
*/
package env

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrInvalidProbs is returned for empty instances or probabilities outside [0, 1].
	ErrInvalidProbs = errors.New("invalid arm probabilities")

	// ErrArmOutOfRange is returned by Pull for an unknown arm.
	ErrArmOutOfRange = errors.New("arm index out of range")
)

// BernoulliBandit is a stationary Bernoulli arm simulator.
// It is not safe for concurrent use.
type BernoulliBandit struct {
	probs []float64
	best  float64
	rng   *rand.Rand

	pulls       int
	totalReward float64
	armPulls    []int
}

// NewBernoulli creates a simulator over a copy of probs.
func NewBernoulli(probs []float64, rng *rand.Rand) (*BernoulliBandit, error) {
	if err := ValidateProbs(probs); err != nil {
		return nil, err
	}
	cp := make([]float64, len(probs))
	copy(cp, probs)

	return &BernoulliBandit{
		probs:    cp,
		best:     floats.Max(cp),
		rng:      rng,
		armPulls: make([]int, len(cp)),
	}, nil
}

// ValidateProbs checks that probs is non-empty and every entry lies in [0, 1].
func ValidateProbs(probs []float64) error {
	if len(probs) == 0 {
		return fmt.Errorf("%w: no arms", ErrInvalidProbs)
	}
	for i, p := range probs {
		if p < 0 || p > 1 {
			return fmt.Errorf("%w: arm %d has probability %v", ErrInvalidProbs, i, p)
		}
	}
	return nil
}

// Shuffle returns a permuted copy of probs.
func Shuffle(probs []float64, rng *rand.Rand) []float64 {
	out := make([]float64, len(probs))
	copy(out, probs)
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// NumArms returns the number of arms.
func (b *BernoulliBandit) NumArms() int {
	return len(b.probs)
}

// Probs returns a copy of the arm probabilities.
func (b *BernoulliBandit) Probs() []float64 {
	out := make([]float64, len(b.probs))
	copy(out, b.probs)
	return out
}

// BestProb returns the highest arm probability.
func (b *BernoulliBandit) BestProb() float64 {
	return b.best
}

// Pull draws a reward for arm and records it.
func (b *BernoulliBandit) Pull(arm int) (float64, error) {
	reward, err := b.draw(arm)
	if err != nil {
		return 0, err
	}
	b.pulls++
	b.totalReward += reward
	return reward, nil
}

// PullSet draws one reward per arm of set without counting toward Regret.
// Callers decide how a set round contributes to the score.
func (b *BernoulliBandit) PullSet(set []int) (map[int]float64, error) {
	out := make(map[int]float64, len(set))
	for _, arm := range set {
		reward, err := b.draw(arm)
		if err != nil {
			return nil, err
		}
		out[arm] = reward
	}
	return out, nil
}

func (b *BernoulliBandit) draw(arm int) (float64, error) {
	if arm < 0 || arm >= len(b.probs) {
		return 0, fmt.Errorf("%w: %d not in [0, %d)", ErrArmOutOfRange, arm, len(b.probs))
	}
	b.armPulls[arm]++
	if b.rng.Float64() < b.probs[arm] {
		return 1, nil
	}
	return 0, nil
}

// Pulls returns the number of Pull calls.
func (b *BernoulliBandit) Pulls() int {
	return b.pulls
}

// ArmPulls returns how many rewards were drawn per arm, including set pulls.
func (b *BernoulliBandit) ArmPulls() []int {
	out := make([]int, len(b.armPulls))
	copy(out, b.armPulls)
	return out
}

// TotalReward returns the sum of rewards returned by Pull.
func (b *BernoulliBandit) TotalReward() float64 {
	return b.totalReward
}

// Regret returns best*pulls - totalReward.
func (b *BernoulliBandit) Regret() float64 {
	return b.best*float64(b.pulls) - b.totalReward
}
