/*
Package storage provides SQLite database migrations and helper functions.

This file contains schema definitions, migration logic, and probability
serialization helpers for the storage layer.
*/
package storage

import (
	"encoding/json"
	"fmt"
	"log"
)

// runMigrations executes database schema migrations.
func (s *SQLiteStorage) runMigrations() error {
	if !s.enabled || s.db == nil {
		return nil
	}

	if err := s.createMigrationsTable(); err != nil {
		return err
	}

	version, err := s.getCurrentMigrationVersion()
	if err != nil {
		return err
	}

	// Run migrations in order
	migrations := []migration{
		{version: 1, name: "initial_schema", up: s.migration001InitialSchema},
		{version: 2, name: "pull_traces", up: s.migration002PullTraces},
		{version: 3, name: "pull_timestamps", up: s.migration003PullTimestamps},
	}

	for _, m := range migrations {
		if version < m.version {
			log.Printf("Running migration %d: %s", m.version, m.name)
			if err := m.up(); err != nil {
				return fmt.Errorf("migration %d failed: %w", m.version, err)
			}
			if err := s.setMigrationVersion(m.version, m.name); err != nil {
				return err
			}
		}
	}

	return nil
}

// migration represents a single database migration.
type migration struct {
	version int
	name    string
	up      func() error
}

// createMigrationsTable creates the schema_migrations table.
func (s *SQLiteStorage) createMigrationsTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`
	_, err := s.db.Exec(query)
	return err
}

// getCurrentMigrationVersion returns the highest applied migration version.
func (s *SQLiteStorage) getCurrentMigrationVersion() (int, error) {
	query := "SELECT COALESCE(MAX(version), 0) FROM schema_migrations"
	row := s.db.QueryRow(query)

	var version int
	if err := row.Scan(&version); err != nil {
		return 0, err
	}

	return version, nil
}

// setMigrationVersion records a migration as applied.
func (s *SQLiteStorage) setMigrationVersion(version int, name string) error {
	query := "INSERT INTO schema_migrations (version, name) VALUES (?, ?)"
	_, err := s.db.Exec(query, version, name)
	return err
}

// migration001InitialSchema creates the runs and run_arms tables.
func (s *SQLiteStorage) migration001InitialSchema() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			policy TEXT NOT NULL,
			num_arms INTEGER NOT NULL,
			horizon INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			probs TEXT NOT NULL,
			regret REAL NOT NULL,
			total_reward REAL NOT NULL,
			queries INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_runs_created_at
		ON runs(created_at DESC)
	`); err != nil {
		return fmt.Errorf("failed to create runs created_at index: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_runs_policy
		ON runs(policy)
	`); err != nil {
		return fmt.Errorf("failed to create runs policy index: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS run_arms (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			arm INTEGER NOT NULL,
			pulls INTEGER NOT NULL,
			mean REAL NOT NULL,
			alpha REAL NOT NULL DEFAULT 0,
			beta REAL NOT NULL DEFAULT 0,
			PRIMARY KEY (run_id, arm)
		)
	`); err != nil {
		return fmt.Errorf("failed to create run_arms table: %w", err)
	}

	return nil
}

// migration002PullTraces creates the pulls table for recorded traces.
func (s *SQLiteStorage) migration002PullTraces() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS pulls (
			run_id TEXT NOT NULL,
			round INTEGER NOT NULL,
			arm INTEGER NOT NULL,
			reward REAL NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("failed to create pulls table: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_pulls_run
		ON pulls(run_id, round)
	`); err != nil {
		return fmt.Errorf("failed to create pulls run index: %w", err)
	}

	return nil
}

// migration003PullTimestamps stamps trace rows so traces of runs that never
// finished can be aged out.
func (s *SQLiteStorage) migration003PullTimestamps() error {
	if _, err := s.db.Exec("ALTER TABLE pulls ADD COLUMN recorded_at TEXT"); err != nil {
		return fmt.Errorf("failed to add pulls.recorded_at: %w", err)
	}
	return nil
}

// probsToJSON converts arm probabilities to JSON for storage.
func probsToJSON(probs []float64) string {
	data, err := json.Marshal(probs)
	if err != nil {
		log.Printf("Warning: failed to marshal probs: %v", err)
		return "[]"
	}
	return string(data)
}

// jsonToProbs parses stored JSON back to arm probabilities.
func jsonToProbs(jsonStr string) ([]float64, error) {
	var probs []float64
	if err := json.Unmarshal([]byte(jsonStr), &probs); err != nil {
		return nil, err
	}
	return probs, nil
}
