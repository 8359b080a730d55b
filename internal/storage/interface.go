/*
Package storage implements a persistent store for simulation run history.

This package provides SQLite-based storage for finished runs, their per-arm
results and optional pull-by-pull traces, with graceful degradation if the
database is unavailable.

The database is stored at ~/.bandits/history.db by default and uses
modernc.org/sqlite (a pure Go, CGo-free implementation).
*/
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ErrRunNotFound is returned by GetRun for unknown run IDs.
var ErrRunNotFound = errors.New("run not found")

// Storage defines the interface for persistent storage operations.
type Storage interface {
	// Init initializes the database and runs migrations.
	Init() error

	// RecordRun stores a finished run with its per-arm results.
	RecordRun(run Run) error

	// ListRuns returns the most recent runs, newest first, without arm results.
	ListRuns(limit int) ([]Run, error)

	// GetRun returns one run with its per-arm results.
	GetRun(id string) (*Run, error)

	// RecordPulls appends pull events to a run's trace.
	RecordPulls(pulls []Pull) error

	// GetPulls returns the trace of a run ordered by round.
	GetPulls(runID string) ([]Pull, error)

	// DeletePulls removes the trace of a run.
	DeletePulls(runID string) error

	// Cleanup removes runs older than retention.
	Cleanup(retention time.Duration) error

	// Close closes the database connection.
	Close() error
}

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	db       *sql.DB
	dbPath   string
	enabled  bool
	mu       sync.Mutex
	initOnce sync.Once
}

// DefaultPath returns ~/.bandits/history.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".bandits", "history.db"), nil
}

// NewStorage creates a new SQLite storage instance at the default path.
//
// If the home directory cannot be resolved, the storage will be disabled but
// operations will not fail.
func NewStorage() *SQLiteStorage {
	dbPath, err := DefaultPath()
	if err != nil {
		log.Printf("Warning: %v", err)
		return &SQLiteStorage{enabled: false}
	}
	return NewStorageAt(dbPath)
}

// NewStorageAt creates a new SQLite storage instance backed by dbPath.
// The parent directory is created on Init.
func NewStorageAt(dbPath string) *SQLiteStorage {
	return &SQLiteStorage{
		dbPath:  dbPath,
		enabled: true,
	}
}

// Path returns the database file path.
func (s *SQLiteStorage) Path() string {
	return s.dbPath
}

// Enabled reports whether the store is usable.
func (s *SQLiteStorage) Enabled() bool {
	return s.enabled && s.db != nil
}

// Init initializes the database and runs migrations.
//
// If initialization fails, storage is disabled and subsequent operations
// become no-ops (graceful degradation).
func (s *SQLiteStorage) Init() error {
	if !s.enabled {
		return nil
	}

	var initErr error
	s.initOnce.Do(func() {
		dbDir := filepath.Dir(s.dbPath)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			initErr = fmt.Errorf("failed to create db directory: %w", err)
			s.enabled = false
			return
		}

		// Foreign keys are off by default in SQLite; the pragma applies per connection
		db, err := sql.Open("sqlite", s.dbPath+"?_pragma=foreign_keys(1)")
		if err != nil {
			initErr = fmt.Errorf("failed to open database: %w", err)
			s.enabled = false
			log.Printf("Warning: %v", initErr)
			return
		}
		s.db = db

		if err := db.Ping(); err != nil {
			initErr = fmt.Errorf("failed to ping database: %w", err)
			s.enabled = false
			log.Printf("Warning: %v", initErr)
			return
		}

		if err := s.runMigrations(); err != nil {
			initErr = fmt.Errorf("failed to run migrations: %w", err)
			s.enabled = false
			log.Printf("Warning: %v", initErr)
			return
		}
	})

	return initErr
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	s.db = nil
	return nil
}
