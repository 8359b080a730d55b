package bandit

// KLUCB implements the KL-UCB policy of Garivier and Cappé (2011).
// It shares the round-robin start of UCB and then picks the arm with the
// highest KL upper confidence index.
type KLUCB struct {
	numArms    int
	horizon    int
	c          float64
	iterations int
	stats      *ArmStatistics
	cursor     roundRobin

	indices []float64
}

// NewKLUCB creates a KL-UCB policy. Non-positive iterations fall back to
// DefaultKLIterations.
func NewKLUCB(numArms, horizon int, c float64, iterations int) *KLUCB {
	if iterations <= 0 {
		iterations = DefaultKLIterations
	}
	return &KLUCB{
		numArms:    numArms,
		horizon:    horizon,
		c:          c,
		iterations: iterations,
		stats:      NewArmStatistics(numArms),
		cursor:     newRoundRobin(numArms),
		indices:    make([]float64, numArms),
	}
}

// Name implements Policy.
func (k *KLUCB) Name() string {
	return NameKLUCB
}

// SelectArm implements Policy.
func (k *KLUCB) SelectArm() int {
	if arm, ok := k.cursor.initArm(); ok {
		return arm
	}

	t := k.cursor.tick()
	for i := range k.indices {
		k.indices[i] = KLUCBIndex(k.stats.Mean(i), k.stats.Count(i), t, k.c, k.iterations)
	}
	return argmax(k.indices)
}

// Update implements Policy.
func (k *KLUCB) Update(arm int, reward float64) error {
	if err := checkArm(arm, k.numArms); err != nil {
		return err
	}
	k.stats.Incorporate(arm, reward)
	return nil
}

// Snapshot implements Policy.
func (k *KLUCB) Snapshot() []ArmSnapshot {
	return k.stats.snapshot()
}
