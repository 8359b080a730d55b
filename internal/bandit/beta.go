package bandit

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// BetaPosterior is a Beta(Alpha, Beta) belief over an arm's success probability.
// Prior: Alpha=1, Beta=1 (uniform)
// Posterior: Alpha += reward, Beta += 1 - reward
type BetaPosterior struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
}

// NewUniformPrior returns Beta(1, 1).
func NewUniformPrior() BetaPosterior {
	return BetaPosterior{Alpha: 1, Beta: 1}
}

// Mean returns α/(α+β).
func (p BetaPosterior) Mean() float64 {
	return p.Alpha / (p.Alpha + p.Beta)
}

// Variance returns αβ/((α+β+1)(α+β)²).
func (p BetaPosterior) Variance() float64 {
	ab := p.Alpha + p.Beta
	return (p.Alpha * p.Beta) / ((ab + 1) * ab * ab)
}

// Observations returns the number of rewards folded into the posterior.
func (p BetaPosterior) Observations() int {
	return int(p.Alpha + p.Beta - 2 + 0.5)
}

// Sample draws one value from the distribution using src.
func (p BetaPosterior) Sample(src rand.Source) float64 {
	return distuv.Beta{Alpha: p.Alpha, Beta: p.Beta, Src: src}.Rand()
}

// betaArms is the per-arm posterior table shared by Thompson Sampling and set-query.
type betaArms struct {
	posteriors []BetaPosterior
	samples    []float64
}

func newBetaArms(numArms int) betaArms {
	posteriors := make([]BetaPosterior, numArms)
	for i := range posteriors {
		posteriors[i] = NewUniformPrior()
	}
	return betaArms{
		posteriors: posteriors,
		samples:    make([]float64, numArms),
	}
}

// sampleAll refreshes samples with one draw per arm and returns them.
func (b *betaArms) sampleAll(rng *rand.Rand) []float64 {
	for i, p := range b.posteriors {
		b.samples[i] = p.Sample(rng)
	}
	return b.samples
}

func (b *betaArms) update(arm int, reward float64) error {
	if err := checkArm(arm, len(b.posteriors)); err != nil {
		return err
	}
	if reward < 0 || reward > 1 {
		return fmt.Errorf("%w: %v not in [0, 1]", ErrRewardOutOfRange, reward)
	}
	b.posteriors[arm].Alpha += reward
	b.posteriors[arm].Beta += 1 - reward
	return nil
}

func (b *betaArms) snapshot() []ArmSnapshot {
	out := make([]ArmSnapshot, len(b.posteriors))
	for i, p := range b.posteriors {
		out[i] = ArmSnapshot{
			Arm:   i,
			Pulls: p.Observations(),
			Mean:  p.Mean(),
			Alpha: p.Alpha,
			Beta:  p.Beta,
		}
	}
	return out
}
