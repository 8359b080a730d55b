package bandit

import (
	"gonum.org/v1/gonum/floats"
)

// ArmStatistics keeps a pull count and running mean reward per arm.
// A mean is only meaningful once its arm has at least one pull.
type ArmStatistics struct {
	counts []int
	means  []float64
}

// NewArmStatistics returns zeroed statistics for numArms arms.
func NewArmStatistics(numArms int) *ArmStatistics {
	return &ArmStatistics{
		counts: make([]int, numArms),
		means:  make([]float64, numArms),
	}
}

// Incorporate adds one observed reward to arm using the incremental mean.
func (s *ArmStatistics) Incorporate(arm int, reward float64) {
	s.counts[arm]++
	n := float64(s.counts[arm])
	s.means[arm] = ((n-1)/n)*s.means[arm] + (1/n)*reward
}

// Count returns the number of rewards incorporated for arm.
func (s *ArmStatistics) Count(arm int) int {
	return s.counts[arm]
}

// Mean returns the empirical mean reward of arm.
func (s *ArmStatistics) Mean(arm int) float64 {
	return s.means[arm]
}

func (s *ArmStatistics) snapshot() []ArmSnapshot {
	out := make([]ArmSnapshot, len(s.counts))
	for i := range s.counts {
		out[i] = ArmSnapshot{Arm: i, Pulls: s.counts[i], Mean: s.means[i]}
	}
	return out
}

// argmax returns the index of the largest value, lowest index on ties.
// floats.MaxIdx keeps the first maximum it sees, which is the tie rule we need.
func argmax(values []float64) int {
	return floats.MaxIdx(values)
}

// roundRobin hands out arms 0..numArms-1 once each and counts every play.
type roundRobin struct {
	numArms     int
	plays       int
	lastInitArm int
}

func newRoundRobin(numArms int) roundRobin {
	return roundRobin{numArms: numArms, lastInitArm: -1}
}

// initArm returns the next initialization arm while the init phase is active.
// It counts the play when it returns true.
func (r *roundRobin) initArm() (int, bool) {
	if r.plays >= r.numArms {
		return 0, false
	}
	r.plays++
	r.lastInitArm++
	return r.lastInitArm, true
}

// tick counts one adaptive play and returns the play count before it.
func (r *roundRobin) tick() int {
	t := r.plays
	r.plays++
	return t
}
