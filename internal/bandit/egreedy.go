package bandit

import (
	"math/rand/v2"
)

const (
	// DefaultEpsilon is the exploration rate (0.1 = 10% explore, 90% exploit).
	DefaultEpsilon = 0.1
)

// EpsilonGreedy implements the ε-greedy policy.
// With probability ε it explores a uniformly random arm, otherwise it exploits
// the arm with the highest empirical mean.
type EpsilonGreedy struct {
	name    string
	numArms int
	horizon int
	epsilon float64
	stats   *ArmStatistics
	rng     *rand.Rand

	// roundRobin is only consulted when initRR is set.
	initRR bool
	cursor roundRobin
}

// NewEpsilonGreedy creates an ε-greedy policy. When roundRobinInit is true
// every arm is pulled once, in index order, before the ε rule applies.
func NewEpsilonGreedy(numArms, horizon int, epsilon float64, roundRobinInit bool, rng *rand.Rand) *EpsilonGreedy {
	return &EpsilonGreedy{
		name:    NameEpsilonGreedy,
		numArms: numArms,
		horizon: horizon,
		epsilon: epsilon,
		stats:   NewArmStatistics(numArms),
		rng:     rng,
		initRR:  roundRobinInit,
		cursor:  newRoundRobin(numArms),
	}
}

// Name implements Policy.
func (e *EpsilonGreedy) Name() string {
	return e.name
}

// SelectArm explores with probability ε and otherwise returns the first arm
// with the maximum mean.
func (e *EpsilonGreedy) SelectArm() int {
	if e.initRR {
		if arm, ok := e.cursor.initArm(); ok {
			return arm
		}
	}

	// Explore: random selection
	if e.rng.Float64() < e.epsilon {
		return e.rng.IntN(e.numArms)
	}

	// Exploit: highest mean, lowest index on ties
	return argmax(e.stats.means)
}

// Update records reward for arm.
func (e *EpsilonGreedy) Update(arm int, reward float64) error {
	if err := checkArm(arm, e.numArms); err != nil {
		return err
	}
	e.stats.Incorporate(arm, reward)
	return nil
}

// Snapshot implements Policy.
func (e *EpsilonGreedy) Snapshot() []ArmSnapshot {
	return e.stats.snapshot()
}
