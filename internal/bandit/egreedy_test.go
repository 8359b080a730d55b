package bandit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEpsilonGreedy(t *testing.T) {
	e := NewEpsilonGreedy(4, 100, DefaultEpsilon, false, newTestRand())

	require.NotNil(t, e)
	assert.Equal(t, DefaultEpsilon, e.epsilon)
	assert.Equal(t, NameEpsilonGreedy, e.Name())
	assert.Len(t, e.Snapshot(), 4)
}

func TestEpsilonGreedy_ExploitationWithoutObservations(t *testing.T) {
	// All means start at zero, so pure exploitation takes the first arm.
	e := NewEpsilonGreedy(5, 100, 0, false, newTestRand())

	for i := 0; i < 10; i++ {
		assert.Equal(t, 0, e.SelectArm())
	}
}

func TestEpsilonGreedy_Exploitation(t *testing.T) {
	e := NewEpsilonGreedy(3, 100, 0, false, newTestRand())

	require.NoError(t, e.Update(0, 0.2))
	require.NoError(t, e.Update(1, 0.9))
	require.NoError(t, e.Update(2, 0.5))

	for i := 0; i < 10; i++ {
		assert.Equal(t, 1, e.SelectArm())
	}
}

func TestEpsilonGreedy_ExploitationTieBreak(t *testing.T) {
	e := NewEpsilonGreedy(3, 100, 0, false, newTestRand())

	require.NoError(t, e.Update(1, 1))
	require.NoError(t, e.Update(2, 1))

	assert.Equal(t, 1, e.SelectArm())
}

func TestEpsilonGreedy_Exploration(t *testing.T) {
	e := NewEpsilonGreedy(4, 1000, 1, false, newTestRand())
	require.NoError(t, e.Update(0, 1))

	counts := make([]int, 4)
	for i := 0; i < 4000; i++ {
		counts[e.SelectArm()]++
	}

	// Uniform exploration: every arm lands near 1000.
	for arm, c := range counts {
		assert.InDelta(t, 1000, c, 150, "arm %d selected %d times", arm, c)
	}
}

func TestEpsilonGreedy_RoundRobinInit(t *testing.T) {
	e := NewEpsilonGreedy(3, 100, 1, true, newTestRand())

	for want := 0; want < 3; want++ {
		assert.Equal(t, want, e.SelectArm())
	}
}
