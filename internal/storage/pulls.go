package storage

import (
	"fmt"
	"log"
	"time"
)

// RecordPulls appends a batch of pull events in a single transaction.
// The batch is stored completely or not at all.
func (s *SQLiteStorage) RecordPulls(pulls []Pull) error {
	if !s.enabled || s.db == nil || len(pulls) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin pull batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT INTO pulls (run_id, round, arm, reward, recorded_at) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare pull insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(timeLayout)
	for _, p := range pulls {
		if _, err := stmt.Exec(p.RunID, p.Round, p.Arm, p.Reward, now); err != nil {
			return fmt.Errorf("failed to record pull %d of run %s: %w", p.Round, p.RunID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit pull batch: %w", err)
	}
	return nil
}

// DeletePulls removes the recorded trace of a run.
func (s *SQLiteStorage) DeletePulls(runID string) error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM pulls WHERE run_id = ?", runID); err != nil {
		return fmt.Errorf("failed to delete pulls: %w", err)
	}
	return nil
}

// GetPulls returns the recorded trace of a run ordered by round.
func (s *SQLiteStorage) GetPulls(runID string) ([]Pull, error) {
	if !s.enabled || s.db == nil {
		return []Pull{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT run_id, round, arm, reward
		FROM pulls
		WHERE run_id = ?
		ORDER BY round, arm
	`, runID)
	if err != nil {
		log.Printf("Warning: failed to query pulls: %v", err)
		return []Pull{}, nil
	}
	defer rows.Close()

	pulls := []Pull{}
	for rows.Next() {
		var p Pull
		if err := rows.Scan(&p.RunID, &p.Round, &p.Arm, &p.Reward); err != nil {
			log.Printf("Warning: failed to scan pull row: %v", err)
			continue
		}
		pulls = append(pulls, p)
	}

	return pulls, nil
}

// Cleanup removes runs, arm results and traces older than retention, along
// with traces of unfinished runs, then reclaims file space.
func (s *SQLiteStorage) Cleanup(retention time.Duration) error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-retention).UTC().Format(timeLayout)

	if _, err := s.db.Exec(`
		DELETE FROM pulls
		WHERE run_id IN (SELECT id FROM runs WHERE created_at < ?)
	`, cutoff); err != nil {
		return fmt.Errorf("failed to delete old pulls: %w", err)
	}

	// Traces of runs that never finished have no run row; they age out by
	// their own timestamp. Rows from before migration 3 have none.
	if _, err := s.db.Exec(`
		DELETE FROM pulls
		WHERE run_id NOT IN (SELECT id FROM runs)
		AND (recorded_at IS NULL OR recorded_at < ?)
	`, cutoff); err != nil {
		return fmt.Errorf("failed to delete orphaned pulls: %w", err)
	}

	// run_arms rows go with their run through ON DELETE CASCADE
	res, err := s.db.Exec("DELETE FROM runs WHERE created_at < ?", cutoff)
	if err != nil {
		return fmt.Errorf("failed to delete old runs: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n > 0 {
		log.Printf("Removed %d runs older than %s", n, retention)
	}

	if _, err := s.db.Exec("VACUUM"); err != nil {
		log.Printf("Warning: failed to vacuum database: %v", err)
	}

	return nil
}
