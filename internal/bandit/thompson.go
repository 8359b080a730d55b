package bandit

import (
	"math/rand/v2"
)

// ThompsonSampling implements Thompson Sampling for Bernoulli arms.
// Each round it draws one sample per arm from its Beta posterior and pulls
// the arm with the highest sample. The uniform prior needs no init phase.
type ThompsonSampling struct {
	numArms int
	horizon int
	arms    betaArms
	rng     *rand.Rand
}

// NewThompsonSampling creates a Thompson Sampling policy with Beta(1,1) priors.
func NewThompsonSampling(numArms, horizon int, rng *rand.Rand) *ThompsonSampling {
	return &ThompsonSampling{
		numArms: numArms,
		horizon: horizon,
		arms:    newBetaArms(numArms),
		rng:     rng,
	}
}

// Name implements Policy.
func (t *ThompsonSampling) Name() string {
	return NameThompson
}

// SelectArm implements Policy.
func (t *ThompsonSampling) SelectArm() int {
	return argmax(t.arms.sampleAll(t.rng))
}

// Update implements Policy. reward must lie in [0, 1].
func (t *ThompsonSampling) Update(arm int, reward float64) error {
	return t.arms.update(arm, reward)
}

// Snapshot implements Policy.
func (t *ThompsonSampling) Snapshot() []ArmSnapshot {
	return t.arms.snapshot()
}

// Posterior returns the current posterior of arm.
func (t *ThompsonSampling) Posterior(arm int) BetaPosterior {
	return t.arms.posteriors[arm]
}
