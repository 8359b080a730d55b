/*
Package bandit implements arm-selection policies for the stochastic
multi-armed bandit problem.

Every single-pull policy follows the same two-call protocol: the caller asks
SelectArm for an arm, pulls it, and reports the observed reward with Update
before asking again. Set-query policies return a set of arms per round and
receive one Update per queried arm.

Policies are not safe for concurrent use. Each run owns its policy and the
random source passed to it.
*/
package bandit

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
)

// Policy names accepted by New and NewSet.
const (
	NameEpsilonGreedy   = "epsilon-greedy"
	NameEpsilonGreedyRR = "epsilon-greedy-rr"
	NameUCB             = "ucb"
	NameKLUCB           = "kl-ucb"
	NameThompson        = "thompson"
	NameSetQuery        = "set-query"
)

var (
	// ErrArmOutOfRange is returned when an arm index is outside [0, numArms).
	ErrArmOutOfRange = errors.New("arm index out of range")

	// ErrRewardOutOfRange is returned by Beta-posterior policies for rewards outside [0, 1].
	ErrRewardOutOfRange = errors.New("reward out of range")

	// ErrInvalidArms is returned when a policy is constructed with no arms.
	ErrInvalidArms = errors.New("number of arms must be positive")

	// ErrInvalidHorizon is returned when a policy is constructed with a non-positive horizon.
	ErrInvalidHorizon = errors.New("horizon must be positive")

	// ErrUnknownPolicy is returned by New and NewSet for unrecognized names.
	ErrUnknownPolicy = errors.New("unknown policy")
)

// Policy selects one arm per round.
type Policy interface {
	// Name returns the registered policy name.
	Name() string

	// SelectArm returns the arm to pull next, in [0, numArms).
	SelectArm() int

	// Update incorporates the reward observed for arm.
	Update(arm int, reward float64) error

	// Snapshot returns the per-arm state, indexed by arm.
	Snapshot() []ArmSnapshot
}

// SetPolicy selects a non-empty set of arms per round.
type SetPolicy interface {
	Name() string

	// SelectQuerySet returns distinct arm indices in ascending order.
	SelectQuerySet() []int

	// Update incorporates the reward observed for one queried arm.
	Update(arm int, reward float64) error

	Snapshot() []ArmSnapshot
}

// ArmSnapshot is a read-only view of one arm's state.
// Alpha and Beta are zero for value-based policies.
type ArmSnapshot struct {
	Arm   int     `json:"arm"`
	Pulls int     `json:"pulls"`
	Mean  float64 `json:"mean"`
	Alpha float64 `json:"alpha,omitempty"`
	Beta  float64 `json:"beta,omitempty"`
}

// Params holds the tunable hyperparameters of every policy.
type Params struct {
	// Epsilon is the exploration probability of epsilon-greedy.
	Epsilon float64

	// RoundRobinInit makes epsilon-greedy pull each arm once before exploring.
	RoundRobinInit bool

	// KLC is the c constant of the KL-UCB exploration budget ln t + c ln ln t.
	KLC float64

	// KLIterations is the number of bisection steps in the KL-UCB index search.
	// Changing it changes the precision guarantee, not just a constant.
	KLIterations int

	// ExploitThreshold is the Beta sample at or above which set-query includes an arm.
	ExploitThreshold float64

	// VarianceThreshold is the posterior variance above which set-query includes an arm.
	VarianceThreshold float64
}

// DefaultParams returns the reference hyperparameters.
func DefaultParams() Params {
	return Params{
		Epsilon:           DefaultEpsilon,
		KLC:               DefaultKLC,
		KLIterations:      DefaultKLIterations,
		ExploitThreshold:  DefaultExploitThreshold,
		VarianceThreshold: DefaultVarianceThreshold,
	}
}

var singleConstructors = map[string]func(numArms, horizon int, p Params, rng *rand.Rand) Policy{
	NameEpsilonGreedy: func(numArms, horizon int, p Params, rng *rand.Rand) Policy {
		return NewEpsilonGreedy(numArms, horizon, p.Epsilon, p.RoundRobinInit, rng)
	},
	NameEpsilonGreedyRR: func(numArms, horizon int, p Params, rng *rand.Rand) Policy {
		e := NewEpsilonGreedy(numArms, horizon, p.Epsilon, true, rng)
		e.name = NameEpsilonGreedyRR
		return e
	},
	NameUCB: func(numArms, horizon int, _ Params, _ *rand.Rand) Policy {
		return NewUCB(numArms, horizon)
	},
	NameKLUCB: func(numArms, horizon int, p Params, _ *rand.Rand) Policy {
		return NewKLUCB(numArms, horizon, p.KLC, p.KLIterations)
	},
	NameThompson: func(numArms, horizon int, _ Params, rng *rand.Rand) Policy {
		return NewThompsonSampling(numArms, horizon, rng)
	},
}

// New constructs the single-pull policy registered under name.
func New(name string, numArms, horizon int, p Params, rng *rand.Rand) (Policy, error) {
	if err := validateShape(numArms, horizon); err != nil {
		return nil, err
	}
	ctor, ok := singleConstructors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
	return ctor(numArms, horizon, p, rng), nil
}

// NewSet constructs the set-query policy registered under name.
func NewSet(name string, numArms, horizon int, p Params, rng *rand.Rand) (SetPolicy, error) {
	if err := validateShape(numArms, horizon); err != nil {
		return nil, err
	}
	if name != NameSetQuery {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
	return NewSetQuery(numArms, horizon, p.ExploitThreshold, p.VarianceThreshold, rng), nil
}

// Names returns the single-pull policy names in sorted order.
func Names() []string {
	names := make([]string, 0, len(singleConstructors))
	for name := range singleConstructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsSetPolicy reports whether name refers to a set-query policy.
func IsSetPolicy(name string) bool {
	return name == NameSetQuery
}

func validateShape(numArms, horizon int) error {
	if numArms <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidArms, numArms)
	}
	if horizon <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidHorizon, horizon)
	}
	return nil
}

func checkArm(arm, numArms int) error {
	if arm < 0 || arm >= numArms {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrArmOutOfRange, arm, numArms)
	}
	return nil
}
