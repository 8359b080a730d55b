package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/VaibhavSingh29/cs-747-multi-armed-bandits/internal/bandit"
	"github.com/VaibhavSingh29/cs-747-multi-armed-bandits/internal/sim"
	"github.com/VaibhavSingh29/cs-747-multi-armed-bandits/internal/storage"
)

// NewRunCmd creates the 'run' command that plays one policy on one instance.
func NewRunCmd() *cobra.Command {
	var (
		policy      string
		probs       []float64
		horizon     int
		seed        uint64
		epsilon     float64
		shuffle     bool
		jsonOutput  bool
		noSave      bool
		recordPulls bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Play one bandit policy against a Bernoulli instance",
		Long: `Run a single policy for a fixed horizon and report its regret.

Policies:
  epsilon-greedy     explore uniformly with probability epsilon
  epsilon-greedy-rr  epsilon-greedy after pulling each arm once
  ucb                UCB1 index, mean + sqrt(2 ln t / n)
  kl-ucb             KL-UCB index via bisection
  thompson           Thompson Sampling with Beta(1,1) priors
  set-query          query a set of arms per round

Values missing from flags come from ~/.bandits/config.yaml, then from
built-in defaults. Finished runs are stored in the run history unless
--no-save is given.`,
		Example: `  # Thompson Sampling on the default instance
  bandits run -p thompson

  # KL-UCB on a custom instance
  bandits run -p kl-ucb --probs 0.2,0.8,0.4 --horizon 5000 --seed 7

  # Record every pull for later inspection
  bandits run -p ucb --record-pulls`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			overrideFloat64s(cmd, "probs", &cfg.Defaults.Probs, probs)
			overrideInt(cmd, "horizon", &cfg.Defaults.Horizon, horizon)
			overrideUint64(cmd, "seed", &cfg.Defaults.Seed, seed)
			overrideFloat64(cmd, "epsilon", &cfg.Policies.EpsilonGreedy.Epsilon, epsilon)
			if cmd.Flags().Changed("record-pulls") {
				cfg.Storage.RecordPulls = recordPulls
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid options: %w", err)
			}

			opts := sim.Options{
				RunID:   uuid.NewString(),
				Policy:  policy,
				Probs:   cfg.Defaults.Probs,
				Horizon: cfg.Defaults.Horizon,
				Seed:    cfg.Defaults.Seed,
				Shuffle: shuffle,
				Params:  cfg.PolicyParams(),
				Logger:  newLogger(cmd),
			}

			var (
				store *storage.SQLiteStorage
				rec   *sim.PullRecorder
			)
			if cfg.Storage.Enabled && !noSave {
				store, err = openStorage(cfg)
				if err != nil {
					// History is best effort; the run itself still proceeds
					fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
				}
				defer store.Close()

				if cfg.Storage.RecordPulls && store.Enabled() {
					rec = sim.NewPullRecorder(store, opts.RunID)
					opts.Recorder = rec
				}
			}

			res, err := sim.Run(cmd.Context(), opts)
			if rec != nil {
				rec.Stop()
			}
			if err != nil {
				if rec != nil {
					// A trace without its run row is unreachable from history
					if derr := store.DeletePulls(opts.RunID); derr != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", derr)
					}
				}
				return err
			}

			if store != nil {
				if err := store.RecordRun(res.ToStorage()); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to save run: %v\n", err)
				}
			}
			return printRunResult(cmd.OutOrStdout(), res, jsonOutput)
		},
	}

	cmd.Flags().StringVarP(&policy, "policy", "p", bandit.NameThompson, "Policy to run (see 'bandits policies')")
	cmd.Flags().Float64SliceVar(&probs, "probs", nil, "Arm success probabilities, comma separated")
	cmd.Flags().IntVarP(&horizon, "horizon", "t", 0, "Number of rounds")
	cmd.Flags().Uint64VarP(&seed, "seed", "s", 0, "Random seed")
	cmd.Flags().Float64Var(&epsilon, "epsilon", 0, "Exploration rate for epsilon-greedy policies")
	cmd.Flags().BoolVar(&shuffle, "shuffle", false, "Shuffle arm order using the seed")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Do not store the run in history")
	cmd.Flags().BoolVar(&recordPulls, "record-pulls", false, "Store every pull of the run")

	return cmd
}

// runOutput is the JSON shape of a finished run.
type runOutput struct {
	RunID       string               `json:"runId"`
	Policy      string               `json:"policy"`
	Probs       []float64            `json:"probs"`
	Horizon     int                  `json:"horizon"`
	Seed        uint64               `json:"seed"`
	Regret      float64              `json:"regret"`
	TotalReward float64              `json:"totalReward"`
	Queries     int                  `json:"queries"`
	DurationMS  int64                `json:"durationMs"`
	Arms        []bandit.ArmSnapshot `json:"arms"`
}

func printRunResult(w io.Writer, res *sim.Result, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(w, runOutput{
			RunID:       res.RunID,
			Policy:      res.Policy,
			Probs:       res.Probs,
			Horizon:     res.Horizon,
			Seed:        res.Seed,
			Regret:      res.Regret,
			TotalReward: res.TotalReward,
			Queries:     res.Queries,
			DurationMS:  res.Duration.Milliseconds(),
			Arms:        res.Arms,
		})
	}

	fmt.Fprintf(w, "Run %s\n", res.RunID)
	fmt.Fprintf(w, "  Policy:  %s\n", res.Policy)
	fmt.Fprint(w, "  Arms:    ")
	formatProbs(w, res.Probs)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Horizon: %d (seed %d)\n", res.Horizon, res.Seed)
	fmt.Fprintf(w, "  Regret:  %.2f\n", res.Regret)
	fmt.Fprintf(w, "  Reward:  %.0f over %d queries\n", res.TotalReward, res.Queries)
	fmt.Fprintf(w, "  Time:    %v\n\n", res.Duration.Round(time.Microsecond))

	fmt.Fprintf(w, "  %-4s %6s %9s %9s\n", "ARM", "PROB", "PULLS", "MEAN")
	for _, arm := range res.Arms {
		fmt.Fprintf(w, "  %-4d %6.2f %9d %9.4f\n", arm.Arm, res.Probs[arm.Arm], arm.Pulls, arm.Mean)
	}
	return nil
}
