package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/VaibhavSingh29/cs-747-multi-armed-bandits/internal/benchmark"
	"github.com/VaibhavSingh29/cs-747-multi-armed-bandits/internal/sim"
)

// NewBenchmarkCmd creates the 'benchmark' command comparing every policy.
func NewBenchmarkCmd() *cobra.Command {
	var (
		probs      []float64
		horizon    int
		seed       uint64
		policies   []string
		shuffle    bool
		jsonOutput bool
		save       bool
	)

	cmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Compare regret of every policy on the same instance",
		Long: `Run a regret benchmark comparing the bandit policies.

Every policy plays the same arm probabilities for the same horizon with the
same seed, so the comparison isolates the selection rule. Set-query rows are
shown for reference but not ranked: a set-query round may pull several arms.`,
		Example: `  # Benchmark on the configured instance
  bandits benchmark

  # Compare two policies on a hard instance
  bandits benchmark --probs 0.5,0.55 --policies ucb,kl-ucb --horizon 20000

  # Output as JSON
  bandits benchmark --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			overrideFloat64s(cmd, "probs", &cfg.Defaults.Probs, probs)
			overrideInt(cmd, "horizon", &cfg.Defaults.Horizon, horizon)
			overrideUint64(cmd, "seed", &cfg.Defaults.Seed, seed)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid options: %w", err)
			}

			opts := benchmark.Options{
				Probs:    cfg.Defaults.Probs,
				Horizon:  cfg.Defaults.Horizon,
				Seed:     cfg.Defaults.Seed,
				Shuffle:  shuffle,
				Params:   cfg.PolicyParams(),
				Policies: policies,
				Logger:   newLogger(cmd),
			}

			if save && cfg.Storage.Enabled {
				store, err := openStorage(cfg)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
				}
				defer store.Close()

				opts.OnResult = func(res *sim.Result) {
					if err := store.RecordRun(res.ToStorage()); err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to save %s run: %v\n", res.Policy, err)
					}
				}
			}

			result, err := benchmark.RunBenchmark(cmd.Context(), opts)
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), result)
			}

			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprint(cmd.OutOrStdout(), benchmark.FormatResult(result))
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().Float64SliceVar(&probs, "probs", nil, "Arm success probabilities, comma separated")
	cmd.Flags().IntVarP(&horizon, "horizon", "t", 0, "Number of rounds per policy")
	cmd.Flags().Uint64VarP(&seed, "seed", "s", 0, "Random seed shared by every policy")
	cmd.Flags().StringSliceVar(&policies, "policies", nil, "Policies to compare (default all)")
	cmd.Flags().BoolVar(&shuffle, "shuffle", false, "Shuffle arm order using the seed")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	cmd.Flags().BoolVar(&save, "save", false, "Store every benchmark run in history")

	return cmd
}
