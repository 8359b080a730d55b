/*
Package benchmark compares bandit policies on a shared instance.

Every policy plays the same arm probabilities for the same horizon with the
same seed, so differences in regret come from the selection rule alone.
Rows are reported in a fixed policy order: epsilon-greedy, its round-robin
variant, UCB, KL-UCB, Thompson Sampling, then set-query.
*/
package benchmark

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/VaibhavSingh29/cs-747-multi-armed-bandits/internal/bandit"
	"github.com/VaibhavSingh29/cs-747-multi-armed-bandits/internal/sim"
)

// PolicyOrder is the default set of benchmarked policies, in display order.
var PolicyOrder = []string{
	bandit.NameEpsilonGreedy,
	bandit.NameEpsilonGreedyRR,
	bandit.NameUCB,
	bandit.NameKLUCB,
	bandit.NameThompson,
	bandit.NameSetQuery,
}

// Options configures a benchmark.
type Options struct {
	Probs   []float64
	Horizon int
	Seed    uint64
	Shuffle bool
	Params  bandit.Params

	// Policies defaults to PolicyOrder.
	Policies []string

	// OnResult is called after each policy finishes. Optional.
	OnResult func(*sim.Result)

	Logger *slog.Logger
}

// Row is one policy's outcome.
type Row struct {
	Policy      string        `json:"policy"`
	Regret      float64       `json:"regret"`
	RegretRate  float64       `json:"regretRate"` // regret / horizon
	TotalReward float64       `json:"totalReward"`
	Queries     int           `json:"queries"`
	BestShare   float64       `json:"bestShare"` // fraction of queries spent on the best arm
	Duration    time.Duration `json:"duration"`
}

// BenchmarkResult contains comparison results.
type BenchmarkResult struct {
	Probs      []float64 `json:"probs"`
	Horizon    int       `json:"horizon"`
	Seed       uint64    `json:"seed"`
	Rows       []Row     `json:"rows"`
	Best       string    `json:"best"` // lowest regret among single-pull policies
	MeanRegret float64   `json:"meanRegret"`
	StdRegret  float64   `json:"stdRegret"`
}

// RunBenchmark plays every requested policy once.
func RunBenchmark(ctx context.Context, opts Options) (*BenchmarkResult, error) {
	policies := opts.Policies
	if len(policies) == 0 {
		policies = PolicyOrder
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	result := &BenchmarkResult{
		Horizon: opts.Horizon,
		Seed:    opts.Seed,
		Rows:    make([]Row, 0, len(policies)),
	}

	for _, name := range policies {
		res, err := sim.Run(ctx, sim.Options{
			Policy:  name,
			Probs:   opts.Probs,
			Horizon: opts.Horizon,
			Seed:    opts.Seed,
			Shuffle: opts.Shuffle,
			Params:  opts.Params,
			Logger:  logger,
		})
		if err != nil {
			return nil, fmt.Errorf("benchmark %s: %w", name, err)
		}
		if opts.OnResult != nil {
			opts.OnResult(res)
		}

		// The shuffle depends only on the seed, so every run sees the same order
		result.Probs = res.Probs
		result.Rows = append(result.Rows, newRow(res))
	}

	summarize(result)
	return result, nil
}

func newRow(res *sim.Result) Row {
	best := floats.MaxIdx(res.Probs)
	share := 0.0
	if res.Queries > 0 {
		share = float64(res.ArmPulls[best]) / float64(res.Queries)
	}
	return Row{
		Policy:      res.Policy,
		Regret:      res.Regret,
		RegretRate:  res.Regret / float64(res.Horizon),
		TotalReward: res.TotalReward,
		Queries:     res.Queries,
		BestShare:   share,
		Duration:    res.Duration,
	}
}

// summarize fills Best and the regret spread over single-pull rows.
func summarize(result *BenchmarkResult) {
	regrets := make([]float64, 0, len(result.Rows))
	bestRegret := 0.0
	for _, row := range result.Rows {
		if bandit.IsSetPolicy(row.Policy) {
			continue
		}
		if len(regrets) == 0 || row.Regret < bestRegret {
			bestRegret = row.Regret
			result.Best = row.Policy
		}
		regrets = append(regrets, row.Regret)
	}

	if len(regrets) == 0 {
		return
	}
	result.MeanRegret = stat.Mean(regrets, nil)
	if len(regrets) > 1 {
		result.StdRegret = stat.StdDev(regrets, nil)
	}
}

// FormatResult formats the benchmark result for display.
func FormatResult(result *BenchmarkResult) string {
	var sb strings.Builder

	line := strings.Repeat("═", boxWidth)

	sb.WriteString("╔" + line + "╗\n")
	sb.WriteString(boxRow(center("BANDIT POLICY BENCHMARK", boxWidth)))
	sb.WriteString("╠" + line + "╣\n")
	sb.WriteString(boxRow(fmt.Sprintf("  Arms:    %s", formatProbs(result.Probs))))
	sb.WriteString(boxRow(fmt.Sprintf("  Horizon: %-10d Seed: %d", result.Horizon, result.Seed)))
	sb.WriteString("╠" + line + "╣\n")
	sb.WriteString(boxRow(fmt.Sprintf("  %-18s %10s %10s %9s %9s", "POLICY", "REGRET", "REGRET/T", "QUERIES", "BEST ARM")))
	for _, row := range result.Rows {
		marker := " "
		if row.Policy == result.Best {
			marker = "*"
		}
		sb.WriteString(boxRow(fmt.Sprintf("%s %-18s %10.2f %10.5f %9d %8.1f%%",
			marker, row.Policy, row.Regret, row.RegretRate, row.Queries, row.BestShare*100)))
	}
	sb.WriteString("╠" + line + "╣\n")
	sb.WriteString(boxRow(fmt.Sprintf("  Lowest regret: %s", result.Best)))
	sb.WriteString(boxRow(fmt.Sprintf("  Mean regret:   %.2f (std %.2f)", result.MeanRegret, result.StdRegret)))
	sb.WriteString("╚" + line + "╝\n")

	return sb.String()
}

// boxWidth is the inner width of the result table.
const boxWidth = 70

func boxRow(content string) string {
	if n := len([]rune(content)); n < boxWidth {
		content += strings.Repeat(" ", boxWidth-n)
	}
	return "║" + content + "║\n"
}

func center(s string, width int) string {
	pad := (width - len(s)) / 2
	if pad < 0 {
		return s
	}
	return strings.Repeat(" ", pad) + s
}

func formatProbs(probs []float64) string {
	parts := make([]string, len(probs))
	for i, p := range probs {
		parts[i] = fmt.Sprintf("%.2f", p)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
