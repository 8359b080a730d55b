/*
Package config handles loading, validating, and saving bandits configuration.

Configuration is stored in ~/.bandits/config.yaml. Every field is optional;
values missing from the file keep their built-in defaults.

Schema:

	defaults:
	  probs: [0.7, 0.6, 0.5, 0.4, 0.3]
	  horizon: 30000
	  seed: 0
	policies:
	  epsilonGreedy:
	    epsilon: 0.1
	    roundRobinInit: false
	  klucb:
	    c: 3
	    iterations: 10
	  setQuery:
	    exploitThreshold: 0.5
	    varianceThreshold: 0.01
	storage:
	  enabled: true
	  path: ~/.bandits/history.db
	  recordPulls: false
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/VaibhavSingh29/cs-747-multi-armed-bandits/internal/bandit"
)

// Config represents the root configuration structure.
type Config struct {
	// Defaults describes the instance and run length used when flags are absent.
	Defaults Defaults `yaml:"defaults"`

	// Policies holds policy hyperparameters.
	Policies Policies `yaml:"policies"`

	// Storage controls the run history database.
	Storage StorageSettings `yaml:"storage"`
}

// Defaults are the instance and run settings.
type Defaults struct {
	// Probs are the arm success probabilities.
	Probs []float64 `yaml:"probs" validate:"required,min=1,dive,unit"`

	// Horizon is the number of rounds per run.
	Horizon int `yaml:"horizon" validate:"gte=1"`

	// Seed seeds both the instance shuffle and the policy randomness.
	Seed uint64 `yaml:"seed"`
}

// Policies groups per-policy hyperparameters.
type Policies struct {
	EpsilonGreedy EpsilonGreedySettings `yaml:"epsilonGreedy"`
	KLUCB         KLUCBSettings         `yaml:"klucb"`
	SetQuery      SetQuerySettings      `yaml:"setQuery"`
}

type EpsilonGreedySettings struct {
	Epsilon        float64 `yaml:"epsilon" validate:"unit"`
	RoundRobinInit bool    `yaml:"roundRobinInit"`
}

type KLUCBSettings struct {
	C          float64 `yaml:"c" validate:"gte=0"`
	Iterations int     `yaml:"iterations" validate:"gte=1,lte=64"`
}

type SetQuerySettings struct {
	ExploitThreshold  float64 `yaml:"exploitThreshold" validate:"unit"`
	VarianceThreshold float64 `yaml:"varianceThreshold" validate:"gte=0,lte=0.25"`
}

// StorageSettings controls the SQLite history.
type StorageSettings struct {
	// Enabled turns run history on or off.
	Enabled bool `yaml:"enabled"`

	// Path overrides the database location. A leading ~ expands to the home directory.
	Path string `yaml:"path,omitempty"`

	// RecordPulls stores every pull of a run, not just its summary.
	RecordPulls bool `yaml:"recordPulls"`
}

// NewConfig creates a configuration holding the built-in defaults.
func NewConfig() *Config {
	p := bandit.DefaultParams()
	return &Config{
		Defaults: Defaults{
			Probs:   []float64{0.7, 0.6, 0.5, 0.4, 0.3},
			Horizon: 30000,
		},
		Policies: Policies{
			EpsilonGreedy: EpsilonGreedySettings{Epsilon: p.Epsilon},
			KLUCB:         KLUCBSettings{C: p.KLC, Iterations: p.KLIterations},
			SetQuery: SetQuerySettings{
				ExploitThreshold:  p.ExploitThreshold,
				VarianceThreshold: p.VarianceThreshold,
			},
		},
		Storage: StorageSettings{Enabled: true},
	}
}

// PolicyParams converts the policy section into bandit hyperparameters.
func (c *Config) PolicyParams() bandit.Params {
	return bandit.Params{
		Epsilon:           c.Policies.EpsilonGreedy.Epsilon,
		RoundRobinInit:    c.Policies.EpsilonGreedy.RoundRobinInit,
		KLC:               c.Policies.KLUCB.C,
		KLIterations:      c.Policies.KLUCB.Iterations,
		ExploitThreshold:  c.Policies.SetQuery.ExploitThreshold,
		VarianceThreshold: c.Policies.SetQuery.VarianceThreshold,
	}
}

// StoragePath returns the configured history path with ~ expanded, or ""
// when the default location should be used.
func (c *Config) StoragePath() (string, error) {
	path := c.Storage.Path
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path, nil
}

// GetDefaultConfigPath returns the path to ~/.bandits/config.yaml
func GetDefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".bandits", "config.yaml"), nil
}

// LoadOrDefault reads path, falling back to NewConfig when the file does
// not exist. Any other failure is returned.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := LoadFrom(path)
	if err == nil {
		return cfg, nil
	}
	var notFound *ConfigNotFoundError
	if errors.As(err, &notFound) {
		return NewConfig(), nil
	}
	return nil, err
}
