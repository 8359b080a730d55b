/*
Package storage provides data models for run history.

These models represent finished simulation runs, their per-arm outcome and
the optional pull-by-pull trace recorded while a run executes.
*/
package storage

import "time"

// Run represents one finished simulation.
type Run struct {
	// ID is a unique identifier for the run (UUID).
	ID string `json:"id"`

	// Policy is the registered name of the policy that played.
	Policy string `json:"policy"`

	// NumArms is the number of arms in the instance.
	NumArms int `json:"num_arms"`

	// Horizon is the number of rounds played.
	Horizon int `json:"horizon"`

	// Seed is the seed of the random sources.
	Seed uint64 `json:"seed"`

	// Probs are the arm success probabilities, in arm order.
	Probs []float64 `json:"probs"`

	// Regret is the cumulative regret at the end of the run.
	Regret float64 `json:"regret"`

	// TotalReward is the reward collected over the run.
	TotalReward float64 `json:"total_reward"`

	// Queries counts arms queried; equal to Horizon for single-pull policies.
	Queries int `json:"queries"`

	// DurationMS is the wall-clock duration in milliseconds.
	DurationMS int64 `json:"duration_ms"`

	// CreatedAt is when the run finished.
	CreatedAt time.Time `json:"created_at"`

	// Arms holds per-arm results; only populated by GetRun.
	Arms []ArmResult `json:"arms,omitempty"`
}

// ArmResult is the final state of one arm in a run.
type ArmResult struct {
	Arm   int     `json:"arm"`
	Pulls int     `json:"pulls"`
	Mean  float64 `json:"mean"`
	Alpha float64 `json:"alpha,omitempty"`
	Beta  float64 `json:"beta,omitempty"`
}

// Pull is one observed reward in a run's trace.
type Pull struct {
	RunID  string  `json:"run_id"`
	Round  int     `json:"round"`
	Arm    int     `json:"arm"`
	Reward float64 `json:"reward"`
}

// timeLayout is a fixed-width RFC 3339 layout so stored timestamps sort
// lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
