package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"
)

// RecordRun stores a finished run and its per-arm results in one transaction.
func (s *SQLiteStorage) RecordRun(run Run) error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (id, policy, num_arms, horizon, seed, probs, regret, total_reward, queries, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Policy,
		run.NumArms,
		run.Horizon,
		int64(run.Seed),
		probsToJSON(run.Probs),
		run.Regret,
		run.TotalReward,
		run.Queries,
		run.DurationMS,
		run.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO run_arms (run_id, arm, pulls, mean, alpha, beta)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare arm insert: %w", err)
	}
	defer stmt.Close()

	for _, arm := range run.Arms {
		if _, err := stmt.Exec(run.ID, arm.Arm, arm.Pulls, arm.Mean, arm.Alpha, arm.Beta); err != nil {
			return fmt.Errorf("failed to insert arm %d of run %s: %w", arm.Arm, run.ID, err)
		}
	}

	return tx.Commit()
}

// ListRuns returns up to limit runs ordered newest first.
// A non-positive limit returns every run.
func (s *SQLiteStorage) ListRuns(limit int) ([]Run, error) {
	if !s.enabled || s.db == nil {
		return []Run{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.Query(`
		SELECT id, policy, num_arms, horizon, seed, probs, regret, total_reward, queries, duration_ms, created_at
		FROM runs
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			log.Printf("Warning: failed to scan run row: %v", err)
			continue
		}
		runs = append(runs, *run)
	}

	return runs, rows.Err()
}

// GetRun returns a run with its per-arm results.
func (s *SQLiteStorage) GetRun(id string) (*Run, error) {
	if !s.enabled || s.db == nil {
		return nil, ErrRunNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`
		SELECT id, policy, num_arms, horizon, seed, probs, regret, total_reward, queries, duration_ms, created_at
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}

	rows, err := s.db.Query(`
		SELECT arm, pulls, mean, alpha, beta
		FROM run_arms
		WHERE run_id = ?
		ORDER BY arm
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query arms of run %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var arm ArmResult
		if err := rows.Scan(&arm.Arm, &arm.Pulls, &arm.Mean, &arm.Alpha, &arm.Beta); err != nil {
			return nil, fmt.Errorf("failed to scan arm row: %w", err)
		}
		run.Arms = append(run.Arms, arm)
	}

	return run, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run       Run
		seed      int64
		probsJSON string
		createdAt string
	)

	if err := row.Scan(
		&run.ID,
		&run.Policy,
		&run.NumArms,
		&run.Horizon,
		&seed,
		&probsJSON,
		&run.Regret,
		&run.TotalReward,
		&run.Queries,
		&run.DurationMS,
		&createdAt,
	); err != nil {
		return nil, err
	}

	run.Seed = uint64(seed)

	probs, err := jsonToProbs(probsJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to parse probs: %w", err)
	}
	run.Probs = probs

	run.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}

	return &run, nil
}
