package bandit

import (
	"math/rand/v2"
	"sort"
)

const (
	// DefaultExploitThreshold includes arms whose Beta sample reaches it.
	DefaultExploitThreshold = 0.5

	// DefaultVarianceThreshold includes arms whose posterior is still this uncertain.
	DefaultVarianceThreshold = 1e-2
)

// SetQuery selects a set of arms per round from Beta posterior samples.
//
// The set is the union of arms whose sample is at least the exploit threshold
// and arms whose posterior variance exceeds the variance threshold. When both
// are empty it falls back to the floor(numArms/2) best samples, and never
// fewer than one arm.
type SetQuery struct {
	numArms           int
	horizon           int
	exploitThreshold  float64
	varianceThreshold float64
	arms              betaArms
	rng               *rand.Rand
}

// NewSetQuery creates a set-query policy with Beta(1,1) priors.
func NewSetQuery(numArms, horizon int, exploitThreshold, varianceThreshold float64, rng *rand.Rand) *SetQuery {
	return &SetQuery{
		numArms:           numArms,
		horizon:           horizon,
		exploitThreshold:  exploitThreshold,
		varianceThreshold: varianceThreshold,
		arms:              newBetaArms(numArms),
		rng:               rng,
	}
}

// Name implements SetPolicy.
func (s *SetQuery) Name() string {
	return NameSetQuery
}

// SelectQuerySet implements SetPolicy.
func (s *SetQuery) SelectQuerySet() []int {
	samples := s.arms.sampleAll(s.rng)

	set := make([]int, 0, s.numArms)
	for i, sample := range samples {
		if sample >= s.exploitThreshold || s.arms.posteriors[i].Variance() > s.varianceThreshold {
			set = append(set, i)
		}
	}
	if len(set) > 0 {
		return set
	}

	return topBySample(samples, max(s.numArms/2, 1))
}

// Update implements SetPolicy. reward must lie in [0, 1].
func (s *SetQuery) Update(arm int, reward float64) error {
	return s.arms.update(arm, reward)
}

// Snapshot implements SetPolicy.
func (s *SetQuery) Snapshot() []ArmSnapshot {
	return s.arms.snapshot()
}

// Posterior returns the current posterior of arm.
func (s *SetQuery) Posterior(arm int) BetaPosterior {
	return s.arms.posteriors[arm]
}

// topBySample returns the k arms with the highest samples in ascending index
// order. Equal samples prefer the lower index.
func topBySample(samples []float64, k int) []int {
	order := make([]int, len(samples))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return samples[order[a]] > samples[order[b]]
	})

	top := order[:k]
	sort.Ints(top)
	return top
}
