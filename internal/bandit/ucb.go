package bandit

import "math"

// UCB implements the UCB1 policy of Auer, Cesa-Bianchi and Fischer (2002).
//
// The first numArms selections return arms 0..numArms-1 in order so that every
// arm has a pull count before the bonus term divides by it. After that it
// returns argmax mean_i + sqrt(2 ln t / n_i), where t counts every selection.
type UCB struct {
	numArms int
	horizon int
	stats   *ArmStatistics
	cursor  roundRobin

	scores []float64
}

// NewUCB creates a UCB1 policy.
func NewUCB(numArms, horizon int) *UCB {
	return &UCB{
		numArms: numArms,
		horizon: horizon,
		stats:   NewArmStatistics(numArms),
		cursor:  newRoundRobin(numArms),
		scores:  make([]float64, numArms),
	}
}

// Name implements Policy.
func (u *UCB) Name() string {
	return NameUCB
}

// SelectArm implements Policy.
func (u *UCB) SelectArm() int {
	if arm, ok := u.cursor.initArm(); ok {
		return arm
	}

	t := u.cursor.tick()
	logT := math.Log(float64(t))
	for i := range u.scores {
		u.scores[i] = u.stats.Mean(i) + math.Sqrt(2*logT/float64(u.stats.Count(i)))
	}
	return argmax(u.scores)
}

// Update implements Policy.
func (u *UCB) Update(arm int, reward float64) error {
	if err := checkArm(arm, u.numArms); err != nil {
		return err
	}
	u.stats.Incorporate(arm, reward)
	return nil
}

// Snapshot implements Policy.
func (u *UCB) Snapshot() []ArmSnapshot {
	return u.stats.snapshot()
}
