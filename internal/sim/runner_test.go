package sim

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VaibhavSingh29/cs-747-multi-armed-bandits/internal/bandit"
	"github.com/VaibhavSingh29/cs-747-multi-armed-bandits/internal/env"
	"github.com/VaibhavSingh29/cs-747-multi-armed-bandits/internal/storage"
)

var testProbs = []float64{0.2, 0.8, 0.4}

type countingRecorder struct {
	mu     sync.Mutex
	rounds map[int]int
	total  int
}

func (c *countingRecorder) Record(round, arm int, reward float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rounds == nil {
		c.rounds = make(map[int]int)
	}
	c.rounds[round]++
	c.total++
}

func TestRun_SinglePullPolicies(t *testing.T) {
	const horizon = 2000
	uniformRegret := (0.8 - (0.2+0.8+0.4)/3) * horizon

	for _, name := range bandit.Names() {
		t.Run(name, func(t *testing.T) {
			rec := &countingRecorder{}
			res, err := Run(context.Background(), Options{
				Policy:   name,
				Probs:    testProbs,
				Horizon:  horizon,
				Seed:     7,
				Params:   bandit.DefaultParams(),
				Recorder: rec,
			})
			require.NoError(t, err)

			assert.Equal(t, horizon, res.Queries)
			assert.Equal(t, horizon, rec.total)
			assert.InDelta(t, 0.8*horizon-res.TotalReward, res.Regret, 1e-9)
			assert.Less(t, res.Regret, uniformRegret/2, "policy should beat uniform play")

			pulls := 0
			for _, arm := range res.Arms {
				pulls += arm.Pulls
			}
			assert.Equal(t, horizon, pulls)
			assert.Equal(t, res.ArmPulls[1], res.Arms[1].Pulls)
		})
	}
}

func TestRun_Deterministic(t *testing.T) {
	opts := Options{
		Policy:  bandit.NameThompson,
		Probs:   testProbs,
		Horizon: 500,
		Seed:    99,
		Shuffle: true,
		Params:  bandit.DefaultParams(),
	}

	first, err := Run(context.Background(), opts)
	require.NoError(t, err)
	second, err := Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, first.Probs, second.Probs)
	assert.Equal(t, first.Regret, second.Regret)
	assert.Equal(t, first.Arms, second.Arms)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.ElementsMatch(t, testProbs, first.Probs)
}

func TestRun_SetQuery(t *testing.T) {
	const horizon = 1000
	rec := &countingRecorder{}

	res, err := Run(context.Background(), Options{
		Policy:   bandit.NameSetQuery,
		Probs:    testProbs,
		Horizon:  horizon,
		Seed:     3,
		Params:   bandit.DefaultParams(),
		Recorder: rec,
	})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, res.Queries, horizon, "every round queries at least one arm")
	assert.LessOrEqual(t, res.Queries, horizon*len(testProbs))
	assert.Equal(t, res.Queries, rec.total)
	assert.Len(t, rec.rounds, horizon)
	assert.LessOrEqual(t, res.TotalReward, float64(horizon))
	assert.InDelta(t, 0.8*horizon-res.TotalReward, res.Regret, 1e-9)

	observations := 0
	for _, arm := range res.Arms {
		observations += arm.Pulls
	}
	assert.Equal(t, res.Queries, observations)
}

func TestRun_InvalidOptions(t *testing.T) {
	ctx := context.Background()

	_, err := Run(ctx, Options{Policy: "greedy", Probs: testProbs, Horizon: 10})
	assert.ErrorIs(t, err, bandit.ErrUnknownPolicy)

	_, err = Run(ctx, Options{Policy: bandit.NameUCB, Probs: []float64{0.5, 2}, Horizon: 10})
	assert.ErrorIs(t, err, env.ErrInvalidProbs)

	_, err = Run(ctx, Options{Policy: bandit.NameUCB, Probs: testProbs, Horizon: 0})
	assert.ErrorIs(t, err, bandit.ErrInvalidHorizon)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Run(ctx, Options{
		Policy:  bandit.NameKLUCB,
		Probs:   testProbs,
		Horizon: 100,
		Params:  bandit.DefaultParams(),
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
}

func TestRun_PersistsToStorage(t *testing.T) {
	store := storage.NewStorageAt(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, store.Init())
	defer store.Close()

	const runID = "0b9a3c52-6f0e-4d3c-9a51-6e1f2b8d7c10"
	rec := NewPullRecorder(store, runID)

	res, err := Run(context.Background(), Options{
		RunID:    runID,
		Policy:   bandit.NameUCB,
		Probs:    testProbs,
		Horizon:  300,
		Seed:     5,
		Params:   bandit.DefaultParams(),
		Recorder: rec,
	})
	require.NoError(t, err)
	rec.Stop()

	assert.Equal(t, runID, res.RunID)
	require.NoError(t, store.RecordRun(res.ToStorage()))

	run, err := store.GetRun(runID)
	require.NoError(t, err)
	assert.Equal(t, bandit.NameUCB, run.Policy)
	assert.Equal(t, 300, run.Queries)
	assert.Len(t, run.Arms, 3)
	assert.InDelta(t, res.Regret, run.Regret, 1e-9)

	pulls, err := store.GetPulls(runID)
	require.NoError(t, err)
	assert.Len(t, pulls, 300)
	assert.Equal(t, 0, pulls[0].Round)
}

func TestRun_RecordsFullTraceAtDefaultHorizon(t *testing.T) {
	store := storage.NewStorageAt(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, store.Init())
	defer store.Close()

	const (
		runID   = "5d2e8f14-3c7a-4b9e-8f60-2a1d9c4e7b35"
		horizon = 30000
	)
	rec := NewPullRecorder(store, runID)

	_, err := Run(context.Background(), Options{
		RunID:    runID,
		Policy:   bandit.NameUCB,
		Probs:    []float64{0.7, 0.6, 0.5, 0.4, 0.3},
		Horizon:  horizon,
		Seed:     1,
		Params:   bandit.DefaultParams(),
		Recorder: rec,
	})
	require.NoError(t, err)
	rec.Stop()

	assert.Equal(t, int64(horizon), rec.Written())
	assert.Zero(t, rec.Failed())

	pulls, err := store.GetPulls(runID)
	require.NoError(t, err)
	require.Len(t, pulls, horizon)
	for i, p := range pulls {
		if p.Round != i {
			t.Fatalf("pull %d has round %d", i, p.Round)
		}
	}
}
