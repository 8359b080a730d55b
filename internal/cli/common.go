/*
Package cli implements the bandits commands.

Each command lives in its own file. Commands read ~/.bandits/config.yaml (or
the file named by --config) and let flags override individual values.
*/
package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/VaibhavSingh29/cs-747-multi-armed-bandits/internal/config"
	"github.com/VaibhavSingh29/cs-747-multi-armed-bandits/internal/storage"
)

// ConfigFlag is the persistent flag naming an alternate config file.
const ConfigFlag = "config"

// AddGlobalFlags registers flags shared by every subcommand on root.
func AddGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().String(ConfigFlag, "", "Config file (default ~/.bandits/config.yaml)")
	root.PersistentFlags().BoolP("verbose", "v", false, "Log run progress to stderr")
}

// configPath resolves the config file for cmd.
func configPath(cmd *cobra.Command) (string, error) {
	if f := cmd.Flag(ConfigFlag); f != nil && f.Value.String() != "" {
		return f.Value.String(), nil
	}
	return config.GetDefaultConfigPath()
}

// loadConfig returns the effective configuration, falling back to built-in
// defaults when no config file exists.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := configPath(cmd)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// openStorage opens the history database named by cfg.
// The returned storage is never nil but may be disabled, in which case its
// writes are no-ops.
func openStorage(cfg *config.Config) (*storage.SQLiteStorage, error) {
	path, err := cfg.StoragePath()
	if err != nil {
		return storage.NewStorage(), err
	}

	var store *storage.SQLiteStorage
	if path == "" {
		store = storage.NewStorage()
	} else {
		store = storage.NewStorageAt(path)
	}

	if err := store.Init(); err != nil {
		return store, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}

// newLogger returns a text logger on stderr at Debug with --verbose, Warn otherwise.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if f := cmd.Flag("verbose"); f != nil && f.Value.String() == "true" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// The override helpers copy a flag value into dst only when the user set it.
func overrideFloat64s(cmd *cobra.Command, name string, dst *[]float64, v []float64) {
	if cmd.Flags().Changed(name) {
		*dst = v
	}
}

func overrideInt(cmd *cobra.Command, name string, dst *int, v int) {
	if cmd.Flags().Changed(name) {
		*dst = v
	}
}

func overrideUint64(cmd *cobra.Command, name string, dst *uint64, v uint64) {
	if cmd.Flags().Changed(name) {
		*dst = v
	}
}

func overrideFloat64(cmd *cobra.Command, name string, dst *float64, v float64) {
	if cmd.Flags().Changed(name) {
		*dst = v
	}
}

func formatProbs(w io.Writer, probs []float64) {
	fmt.Fprint(w, "[")
	for i, p := range probs {
		if i > 0 {
			fmt.Fprint(w, " ")
		}
		fmt.Fprintf(w, "%.2f", p)
	}
	fmt.Fprint(w, "]")
}
