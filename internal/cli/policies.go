package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/VaibhavSingh29/cs-747-multi-armed-bandits/internal/bandit"
)

var policyDescriptions = map[string]string{
	bandit.NameEpsilonGreedy:   "Greedy on empirical means, uniform exploration with probability epsilon",
	bandit.NameEpsilonGreedyRR: "Epsilon-greedy after one round-robin pull of every arm",
	bandit.NameUCB:             "UCB1: mean + sqrt(2 ln t / n) after one pull per arm",
	bandit.NameKLUCB:           "KL-UCB: largest q with n*KL(mean, q) <= ln t + c ln ln t",
	bandit.NameThompson:        "Thompson Sampling: argmax of Beta posterior samples",
	bandit.NameSetQuery:        "Queries every arm that looks good or is still uncertain",
}

// NewPoliciesCmd creates the 'policies' command listing available policies.
func NewPoliciesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policies",
		Short: "List available bandit policies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			names := append(bandit.Names(), bandit.NameSetQuery)

			fmt.Fprintf(out, "Available Policies (%d):\n\n", len(names))
			for _, name := range names {
				kind := "single-pull"
				if bandit.IsSetPolicy(name) {
					kind = "set-query"
				}
				fmt.Fprintf(out, "  %-18s [%s]\n", name, kind)
				fmt.Fprintf(out, "    %s\n", policyDescriptions[name])
			}
			return nil
		},
	}

	return cmd
}
