/*
Package main is the entry point for the bandits CLI.

bandits simulates stochastic multi-armed bandit policies on Bernoulli
instances and keeps a local history of finished runs.

Usage:
  bandits [command]

Available Commands:
  run         Play one bandit policy against a Bernoulli instance
  benchmark   Compare regret of every policy on the same instance
  history     List stored runs
  policies    List available bandit policies
  config      Manage the bandits configuration file
  version     Show version information
  help        Help about any command

Examples:
  # Thompson Sampling on the configured instance
  bandits run -p thompson

  # Compare every policy on a custom instance
  bandits benchmark --probs 0.2,0.8,0.4 --horizon 5000
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/VaibhavSingh29/cs-747-multi-armed-bandits/internal/cli"
	"github.com/VaibhavSingh29/cs-747-multi-armed-bandits/internal/version"
)

// Version information (set via ldflags during build)
var (
	buildVersion = ""
	commit       = ""
	date         = ""
)

func main() {
	if buildVersion != "" {
		version.Version = buildVersion
	}
	if commit != "" {
		version.Commit = commit
	}
	if date != "" {
		version.Date = date
	}

	rootCmd := &cobra.Command{
		Use:   "bandits",
		Short: "Stochastic multi-armed bandit simulator",
		Long: `bandits plays arm-selection policies against simulated Bernoulli arms
and reports their regret.

Policies: epsilon-greedy (with an optional round-robin start), UCB1,
KL-UCB, Thompson Sampling, and a set-query policy that pulls several arms
per round. Finished runs are stored in ~/.bandits/history.db.`,
		Version:       version.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cli.AddGlobalFlags(rootCmd)

	rootCmd.AddCommand(cli.NewRunCmd())
	rootCmd.AddCommand(cli.NewBenchmarkCmd())
	rootCmd.AddCommand(cli.NewHistoryCmd())
	rootCmd.AddCommand(cli.NewPoliciesCmd())
	rootCmd.AddCommand(cli.NewConfigCmd())
	rootCmd.AddCommand(cli.NewVersionCmd())

	// Ctrl-C stops a long run between rounds
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
