package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/VaibhavSingh29/cs-747-multi-armed-bandits/internal/storage"
)

// NewHistoryCmd creates the 'history' command group for stored runs.
func NewHistoryCmd() *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored runs",
		Long: `Display runs stored in the history database (~/.bandits/history.db by
default, or storage.path from the config file), newest first.

Subcommands:
  show   Show one run with its per-arm results
  clean  Delete runs older than a retention window`,
		Example: `  bandits history
  bandits history --limit 5 --json
  bandits history show 3f6c1e0a-...
  bandits history clean --older-than 720h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, runs)
			}

			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded.")
				fmt.Fprintln(out, "Run 'bandits run' to play a policy.")
				return nil
			}

			fmt.Fprintf(out, "Recorded Runs (%d):\n\n", len(runs))
			fmt.Fprintf(out, "  %-36s  %-18s %5s %9s %10s  %s\n", "ID", "POLICY", "ARMS", "HORIZON", "REGRET", "WHEN")
			for _, run := range runs {
				fmt.Fprintf(out, "  %-36s  %-18s %5d %9d %10.2f  %s\n",
					run.ID, run.Policy, run.NumArms, run.Horizon, run.Regret,
					run.CreatedAt.Local().Format(time.DateTime))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs (0 for all)")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	cmd.AddCommand(newHistoryShowCmd())
	cmd.AddCommand(newHistoryCleanCmd())

	return cmd
}

// newHistoryShowCmd prints one run in detail.
func newHistoryShowCmd() *cobra.Command {
	var (
		jsonOutput bool
		withPulls  bool
	)

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run with its per-arm results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.GetRun(args[0])
			if errors.Is(err, storage.ErrRunNotFound) {
				return fmt.Errorf("no run with id %q (see 'bandits history')", args[0])
			}
			if err != nil {
				return err
			}

			var pulls []storage.Pull
			if withPulls {
				if pulls, err = store.GetPulls(run.ID); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, struct {
					*storage.Run
					Pulls []storage.Pull `json:"pulls,omitempty"`
				}{run, pulls})
			}

			printStoredRun(out, run)
			if withPulls {
				fmt.Fprintf(out, "\n  Recorded pulls: %d\n", len(pulls))
				for _, p := range pulls {
					fmt.Fprintf(out, "    round %-7d arm %-3d reward %.0f\n", p.Round, p.Arm, p.Reward)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	cmd.Flags().BoolVar(&withPulls, "pulls", false, "Include the recorded pull trace")

	return cmd
}

// newHistoryCleanCmd deletes old runs.
func newHistoryCleanCmd() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete runs older than a retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan < 0 {
				return fmt.Errorf("--older-than must not be negative")
			}

			store, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Cleanup(olderThan); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed runs older than %s\n", olderThan)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Retention window")

	return cmd
}

// openHistory opens the configured history database, failing when it is
// unavailable since history commands have nothing else to show.
func openHistory(cmd *cobra.Command) (*storage.SQLiteStorage, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	store, err := openStorage(cfg)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func printStoredRun(w io.Writer, run *storage.Run) {
	fmt.Fprintf(w, "Run %s\n", run.ID)
	fmt.Fprintf(w, "  Policy:  %s\n", run.Policy)
	fmt.Fprint(w, "  Arms:    ")
	formatProbs(w, run.Probs)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Horizon: %d (seed %d)\n", run.Horizon, run.Seed)
	fmt.Fprintf(w, "  Regret:  %.2f\n", run.Regret)
	fmt.Fprintf(w, "  Reward:  %.0f over %d queries\n", run.TotalReward, run.Queries)
	fmt.Fprintf(w, "  Time:    %dms\n", run.DurationMS)
	fmt.Fprintf(w, "  When:    %s\n\n", run.CreatedAt.Local().Format(time.DateTime))

	fmt.Fprintf(w, "  %-4s %6s %9s %9s %10s %10s\n", "ARM", "PROB", "PULLS", "MEAN", "ALPHA", "BETA")
	for _, arm := range run.Arms {
		prob := 0.0
		if arm.Arm < len(run.Probs) {
			prob = run.Probs[arm.Arm]
		}
		fmt.Fprintf(w, "  %-4d %6.2f %9d %9.4f %10.1f %10.1f\n", arm.Arm, prob, arm.Pulls, arm.Mean, arm.Alpha, arm.Beta)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
