/*
Package sim drives a bandit policy against a simulated Bernoulli instance.

Run plays one policy for a fixed horizon through the select/update protocol,
wrapping the policy in a protocol guard so an out-of-order call surfaces as an
error rather than a silently corrupted estimate.
*/
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/VaibhavSingh29/cs-747-multi-armed-bandits/internal/bandit"
	"github.com/VaibhavSingh29/cs-747-multi-armed-bandits/internal/env"
	"github.com/VaibhavSingh29/cs-747-multi-armed-bandits/internal/storage"
)

// Independent PCG streams derived from one seed.
const (
	streamShuffle uint64 = iota + 1
	streamEnv
	streamPolicy
)

// Options configures a single run.
type Options struct {
	// RunID identifies the run; a UUID is generated when empty.
	RunID string

	// Policy is a name accepted by bandit.New or bandit.NewSet.
	Policy string

	// Probs are the arm success probabilities.
	Probs []float64

	// Horizon is the number of rounds.
	Horizon int

	// Seed drives the instance shuffle, the rewards and the policy.
	Seed uint64

	// Shuffle permutes Probs before playing so arm order carries no hint.
	Shuffle bool

	// Params are the policy hyperparameters.
	Params bandit.Params

	// Recorder receives every observed reward. Optional.
	Recorder Recorder

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Result summarizes a finished run.
type Result struct {
	RunID       string
	Policy      string
	Probs       []float64 // as played, after any shuffle
	Horizon     int
	Seed        uint64
	Regret      float64
	TotalReward float64
	Queries     int
	Arms        []bandit.ArmSnapshot
	ArmPulls    []int
	Duration    time.Duration
}

// ToStorage converts the result into a history record.
func (r *Result) ToStorage() storage.Run {
	arms := make([]storage.ArmResult, len(r.Arms))
	for i, a := range r.Arms {
		arms[i] = storage.ArmResult{
			Arm:   a.Arm,
			Pulls: a.Pulls,
			Mean:  a.Mean,
			Alpha: a.Alpha,
			Beta:  a.Beta,
		}
	}
	return storage.Run{
		ID:          r.RunID,
		Policy:      r.Policy,
		NumArms:     len(r.Probs),
		Horizon:     r.Horizon,
		Seed:        r.Seed,
		Probs:       r.Probs,
		Regret:      r.Regret,
		TotalReward: r.TotalReward,
		Queries:     r.Queries,
		DurationMS:  r.Duration.Milliseconds(),
		Arms:        arms,
	}
}

// Run plays opts.Policy for opts.Horizon rounds.
//
// Cancellation is checked between rounds; a cancelled run returns ctx.Err()
// and no result.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Horizon <= 0 {
		return nil, fmt.Errorf("%w: got %d", bandit.ErrInvalidHorizon, opts.Horizon)
	}
	if err := env.ValidateProbs(opts.Probs); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	probs := opts.Probs
	if opts.Shuffle {
		probs = env.Shuffle(probs, rand.New(rand.NewPCG(opts.Seed, streamShuffle)))
	}

	instance, err := env.NewBernoulli(probs, rand.New(rand.NewPCG(opts.Seed, streamEnv)))
	if err != nil {
		return nil, err
	}
	policyRand := rand.New(rand.NewPCG(opts.Seed, streamPolicy))

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	res := &Result{
		RunID:   runID,
		Policy:  opts.Policy,
		Probs:   instance.Probs(),
		Horizon: opts.Horizon,
		Seed:    opts.Seed,
	}

	logger.Debug("run started",
		slog.String("run_id", res.RunID),
		slog.String("policy", opts.Policy),
		slog.Int("arms", instance.NumArms()),
		slog.Int("horizon", opts.Horizon),
		slog.Uint64("seed", opts.Seed),
	)

	start := time.Now()
	if bandit.IsSetPolicy(opts.Policy) {
		p, err := bandit.NewSet(opts.Policy, instance.NumArms(), opts.Horizon, opts.Params, policyRand)
		if err != nil {
			return nil, err
		}
		if err := playSet(ctx, bandit.GuardSet(p), instance, opts, res); err != nil {
			return nil, err
		}
		res.Arms = p.Snapshot()
	} else {
		p, err := bandit.New(opts.Policy, instance.NumArms(), opts.Horizon, opts.Params, policyRand)
		if err != nil {
			return nil, err
		}
		if err := playSingle(ctx, bandit.Guard(p), instance, opts, res); err != nil {
			return nil, err
		}
		res.Arms = p.Snapshot()
	}
	res.Duration = time.Since(start)
	res.ArmPulls = instance.ArmPulls()

	logger.Info("run completed",
		slog.String("run_id", res.RunID),
		slog.String("policy", res.Policy),
		slog.Float64("regret", res.Regret),
		slog.Int("queries", res.Queries),
		slog.Duration("duration", res.Duration),
	)

	return res, nil
}

func playSingle(ctx context.Context, p *bandit.Guarded, instance *env.BernoulliBandit, opts Options, res *Result) error {
	for round := 0; round < opts.Horizon; round++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		arm := p.SelectArm()
		reward, err := instance.Pull(arm)
		if err != nil {
			return fmt.Errorf("round %d: %w", round, err)
		}
		if err := p.Update(arm, reward); err != nil {
			return fmt.Errorf("round %d: %w", round, err)
		}
		if opts.Recorder != nil {
			opts.Recorder.Record(round, arm, reward)
		}
	}

	res.Queries = instance.Pulls()
	res.TotalReward = instance.TotalReward()
	res.Regret = instance.Regret()
	return nil
}

// playSet scores each round by the best reward observed in the queried set.
func playSet(ctx context.Context, p *bandit.GuardedSet, instance *env.BernoulliBandit, opts Options, res *Result) error {
	for round := 0; round < opts.Horizon; round++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		set := p.SelectQuerySet()
		if len(set) == 0 {
			return fmt.Errorf("round %d: %w", round, errEmptyQuerySet)
		}
		rewards, err := instance.PullSet(set)
		if err != nil {
			return fmt.Errorf("round %d: %w", round, err)
		}

		best := 0.0
		for _, arm := range set {
			reward := rewards[arm]
			if err := p.Update(arm, reward); err != nil {
				return fmt.Errorf("round %d: %w", round, err)
			}
			if opts.Recorder != nil {
				opts.Recorder.Record(round, arm, reward)
			}
			best = max(best, reward)
		}

		res.Queries += len(set)
		res.TotalReward += best
	}

	res.Regret = instance.BestProb()*float64(opts.Horizon) - res.TotalReward
	return nil
}

var errEmptyQuerySet = errors.New("policy returned an empty query set")
