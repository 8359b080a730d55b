/*
Package storage provides tests for the storage layer.
*/
package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	storage := NewStorageAt(filepath.Join(t.TempDir(), "test.db"))
	if err := storage.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { storage.Close() })
	return storage
}

func sampleRun(policy string, createdAt time.Time) Run {
	return Run{
		ID:          uuid.NewString(),
		Policy:      policy,
		NumArms:     2,
		Horizon:     100,
		Seed:        42,
		Probs:       []float64{0.3, 0.7},
		Regret:      4.5,
		TotalReward: 65.5,
		Queries:     100,
		DurationMS:  3,
		CreatedAt:   createdAt,
		Arms: []ArmResult{
			{Arm: 0, Pulls: 10, Mean: 0.3, Alpha: 4, Beta: 8},
			{Arm: 1, Pulls: 90, Mean: 0.7, Alpha: 64, Beta: 28},
		},
	}
}

// TestNewStorage verifies storage construction.
func TestNewStorage(t *testing.T) {
	storage := NewStorage()
	if storage == nil {
		t.Fatal("NewStorage returned nil")
	}
	if storage.Path() != "" && filepath.Base(storage.Path()) != "history.db" {
		t.Errorf("Unexpected default path %q", storage.Path())
	}
}

// TestInit verifies database initialization and schema creation.
func TestInit(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")
	storage := NewStorageAt(dbPath)

	if err := storage.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer storage.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file not created")
	}
	if !storage.Enabled() {
		t.Error("Storage should be enabled after Init")
	}

	version, err := storage.getCurrentMigrationVersion()
	if err != nil {
		t.Fatalf("getCurrentMigrationVersion failed: %v", err)
	}
	if version != 3 {
		t.Errorf("Expected migration version 3, got %d", version)
	}
}

// TestInitTwice verifies migrations are not re-applied on reopen.
func TestInitTwice(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	first := NewStorageAt(dbPath)
	if err := first.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	first.Close()

	second := NewStorageAt(dbPath)
	if err := second.Init(); err != nil {
		t.Fatalf("Second Init failed: %v", err)
	}
	defer second.Close()
}

// TestRecordAndGetRun verifies a run round-trips with its arm results.
func TestRecordAndGetRun(t *testing.T) {
	storage := newTestStorage(t)

	run := sampleRun("thompson", time.Now())
	if err := storage.RecordRun(run); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	got, err := storage.GetRun(run.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}

	if got.Policy != "thompson" {
		t.Errorf("Expected policy 'thompson', got '%s'", got.Policy)
	}
	if got.Seed != 42 || got.Horizon != 100 || got.Queries != 100 {
		t.Errorf("Unexpected run fields: %+v", got)
	}
	if len(got.Probs) != 2 || got.Probs[1] != 0.7 {
		t.Errorf("Expected probs [0.3 0.7], got %v", got.Probs)
	}
	if len(got.Arms) != 2 {
		t.Fatalf("Expected 2 arms, got %d", len(got.Arms))
	}
	if got.Arms[1].Pulls != 90 || got.Arms[1].Alpha != 64 {
		t.Errorf("Unexpected arm result: %+v", got.Arms[1])
	}
	if !got.CreatedAt.Equal(run.CreatedAt.UTC()) {
		t.Errorf("CreatedAt mismatch: %v vs %v", got.CreatedAt, run.CreatedAt)
	}
}

// TestGetRunNotFound verifies the sentinel error for unknown IDs.
func TestGetRunNotFound(t *testing.T) {
	storage := newTestStorage(t)

	_, err := storage.GetRun("missing")
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound, got %v", err)
	}
}

// TestRecordRunDuplicateID verifies a failed insert leaves no partial run.
func TestRecordRunDuplicateID(t *testing.T) {
	storage := newTestStorage(t)

	run := sampleRun("ucb", time.Now())
	if err := storage.RecordRun(run); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}
	if err := storage.RecordRun(run); err == nil {
		t.Error("Expected error on duplicate run ID")
	}

	runs, err := storage.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("Expected 1 run, got %d", len(runs))
	}
}

// TestListRuns verifies ordering and limit.
func TestListRuns(t *testing.T) {
	storage := newTestStorage(t)

	base := time.Now().Add(-time.Hour)
	for i, policy := range []string{"ucb", "kl-ucb", "thompson"} {
		if err := storage.RecordRun(sampleRun(policy, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("RecordRun failed: %v", err)
		}
	}

	runs, err := storage.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if runs[0].Policy != "thompson" || runs[1].Policy != "kl-ucb" {
		t.Errorf("Expected newest first, got %s then %s", runs[0].Policy, runs[1].Policy)
	}
	if runs[0].Arms != nil {
		t.Error("ListRuns should not load arm results")
	}

	all, err := storage.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 runs, got %d", len(all))
	}
}

// TestRecordPulls verifies trace batches are stored in round order.
func TestRecordPulls(t *testing.T) {
	storage := newTestStorage(t)

	run := sampleRun("epsilon-greedy", time.Now())
	if err := storage.RecordRun(run); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	batch := []Pull{
		{RunID: run.ID, Round: 1, Arm: 1, Reward: 1},
		{RunID: run.ID, Round: 0, Arm: 0, Reward: 0},
	}
	if err := storage.RecordPulls(batch); err != nil {
		t.Fatalf("RecordPulls failed: %v", err)
	}
	if err := storage.RecordPulls(nil); err != nil {
		t.Fatalf("RecordPulls on empty batch failed: %v", err)
	}

	pulls, err := storage.GetPulls(run.ID)
	if err != nil {
		t.Fatalf("GetPulls failed: %v", err)
	}
	if len(pulls) != 2 {
		t.Fatalf("Expected 2 pulls, got %d", len(pulls))
	}
	if pulls[0].Round != 0 || pulls[1].Arm != 1 {
		t.Errorf("Pulls not in round order: %+v", pulls)
	}
}

// TestCleanup verifies old runs and their dependents are removed.
func TestCleanup(t *testing.T) {
	storage := newTestStorage(t)

	old := sampleRun("ucb", time.Now().Add(-48*time.Hour))
	fresh := sampleRun("ucb", time.Now())
	for _, run := range []Run{old, fresh} {
		if err := storage.RecordRun(run); err != nil {
			t.Fatalf("RecordRun failed: %v", err)
		}
		if err := storage.RecordPulls([]Pull{{RunID: run.ID, Round: 0, Arm: 0, Reward: 1}}); err != nil {
			t.Fatalf("RecordPulls failed: %v", err)
		}
	}

	if err := storage.Cleanup(24 * time.Hour); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}

	if _, err := storage.GetRun(old.ID); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected old run removed, got %v", err)
	}
	if _, err := storage.GetRun(fresh.ID); err != nil {
		t.Errorf("Fresh run should survive: %v", err)
	}

	pulls, _ := storage.GetPulls(old.ID)
	if len(pulls) != 0 {
		t.Errorf("Expected old pulls removed, got %d", len(pulls))
	}

	var arms int
	if err := storage.db.QueryRow("SELECT COUNT(*) FROM run_arms WHERE run_id = ?", old.ID).Scan(&arms); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if arms != 0 {
		t.Errorf("Expected cascaded arm delete, got %d rows", arms)
	}
}

// TestCleanupRemovesOrphanedPulls verifies traces of runs that never finished
// age out while a trace still being written survives.
func TestCleanupRemovesOrphanedPulls(t *testing.T) {
	storage := newTestStorage(t)

	stamp := time.Now().Add(-48 * time.Hour).UTC().Format(timeLayout)
	if _, err := storage.db.Exec(
		"INSERT INTO pulls (run_id, round, arm, reward, recorded_at) VALUES (?, 0, 0, 1, ?)",
		"abandoned", stamp); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if _, err := storage.db.Exec(
		"INSERT INTO pulls (run_id, round, arm, reward) VALUES (?, 0, 0, 1)", "legacy"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := storage.RecordPulls([]Pull{{RunID: "in-progress", Round: 0, Arm: 1, Reward: 0}}); err != nil {
		t.Fatalf("RecordPulls failed: %v", err)
	}

	if err := storage.Cleanup(24 * time.Hour); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}

	tests := []struct {
		runID string
		want  int
	}{
		{"abandoned", 0},
		{"legacy", 0},
		{"in-progress", 1},
	}
	for _, tt := range tests {
		pulls, err := storage.GetPulls(tt.runID)
		if err != nil {
			t.Fatalf("GetPulls failed: %v", err)
		}
		if len(pulls) != tt.want {
			t.Errorf("%s: expected %d pulls, got %d", tt.runID, tt.want, len(pulls))
		}
	}
}

// TestDeletePulls verifies a run's trace can be discarded.
func TestDeletePulls(t *testing.T) {
	storage := newTestStorage(t)

	batch := []Pull{{RunID: "a", Round: 0}, {RunID: "a", Round: 1}, {RunID: "b", Round: 0}}
	if err := storage.RecordPulls(batch); err != nil {
		t.Fatalf("RecordPulls failed: %v", err)
	}
	if err := storage.DeletePulls("a"); err != nil {
		t.Fatalf("DeletePulls failed: %v", err)
	}

	if pulls, _ := storage.GetPulls("a"); len(pulls) != 0 {
		t.Errorf("Expected trace of a removed, got %d pulls", len(pulls))
	}
	if pulls, _ := storage.GetPulls("b"); len(pulls) != 1 {
		t.Errorf("Expected trace of b kept, got %d pulls", len(pulls))
	}
}

// TestRecordPullsReportsFailure verifies a failed batch is reported, not
// silently counted as stored.
func TestRecordPullsReportsFailure(t *testing.T) {
	storage := newTestStorage(t)
	storage.db.Close()

	if err := storage.RecordPulls([]Pull{{RunID: "x", Round: 0}}); err == nil {
		t.Error("Expected error from closed database")
	}
}

// TestGracefulDegradation verifies behavior when DB is unavailable.
func TestGracefulDegradation(t *testing.T) {
	// A regular file where the parent directory should be makes MkdirAll fail
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	storage := NewStorageAt(filepath.Join(blocker, "test.db"))
	if err := storage.Init(); err == nil {
		t.Error("Expected Init to fail")
	}
	if storage.Enabled() {
		t.Error("Storage should be disabled after failed Init")
	}

	if err := storage.RecordRun(sampleRun("ucb", time.Now())); err != nil {
		t.Errorf("RecordRun should return nil on disabled storage, got: %v", err)
	}
	if err := storage.RecordPulls([]Pull{{RunID: "x"}}); err != nil {
		t.Errorf("RecordPulls should return nil on disabled storage, got: %v", err)
	}

	runs, err := storage.ListRuns(10)
	if err != nil {
		t.Errorf("ListRuns should not error on disabled storage, got: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("Expected empty history on disabled storage, got %d runs", len(runs))
	}

	if err := storage.Cleanup(time.Hour); err != nil {
		t.Errorf("Cleanup should return nil on disabled storage, got: %v", err)
	}
	if err := storage.Close(); err != nil {
		t.Errorf("Close should return nil on disabled storage, got: %v", err)
	}
}
