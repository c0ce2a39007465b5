// Package eval drives agent evaluation campaigns: baseline vs demonstration
// conditions across models and seeds, each run in its own exclusive
// environment session, executed by a bounded pool of parallel workers.
package eval

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hmwatts/tracebench/api/schemas"
	"github.com/hmwatts/tracebench/internal/config"
	"github.com/hmwatts/tracebench/internal/gym"
	"github.com/hmwatts/tracebench/internal/observability"
)

// closeGrace bounds session teardown after a run's context is already spent.
const closeGrace = 15 * time.Second

// SessionOpener acquires exclusive environment sessions. *gym.Client
// implements it; tests substitute fakes.
type SessionOpener interface {
	OpenSession(ctx context.Context, taskID string) (gym.Env, error)
}

// ClientFactory builds an LLM client for a model name. Each worker gets its
// own client so no state crosses worker boundaries.
type ClientFactory func(model string) (schemas.LLMClient, error)

// Runner executes one evaluation campaign.
type Runner struct {
	cfg       config.EvalConfig
	llmCfg    config.LLMConfig
	sessions  SessionOpener
	newClient ClientFactory
	iclPrompt string
	logger    *zap.Logger
}

// NewRunner wires a campaign runner. iclPrompt is the demonstration text for
// the ICL condition; empty disables that condition.
func NewRunner(cfg config.EvalConfig, llmCfg config.LLMConfig, sessions SessionOpener, newClient ClientFactory, iclPrompt string) *Runner {
	return &Runner{
		cfg:       cfg,
		llmCfg:    llmCfg,
		sessions:  sessions,
		newClient: newClient,
		iclPrompt: iclPrompt,
		logger:    observability.GetLogger().Named("eval"),
	}
}

type runSpec struct {
	condition    string
	model        string
	seed         int
	systemPrompt string
}

// Run executes every (condition, model, seed) combination with bounded
// parallelism and returns the merged results artifact. Individual run
// failures are recorded in their RunResult, not returned as errors; only a
// cancelled context aborts the campaign.
func (r *Runner) Run(ctx context.Context) (*schemas.EvalResults, error) {
	conditions := []string{schemas.ConditionBaseline}
	if r.iclPrompt != "" {
		conditions = append(conditions, schemas.ConditionICL)
	}

	var specs []runSpec
	for _, condition := range conditions {
		systemPrompt := BaselineSystemPrompt
		if condition == schemas.ConditionICL {
			systemPrompt = ICLSystemPrompt(r.iclPrompt)
		}
		for _, model := range r.cfg.Models {
			for _, seed := range r.cfg.Seeds {
				specs = append(specs, runSpec{condition: condition, model: model, seed: seed, systemPrompt: systemPrompt})
			}
		}
	}

	r.logger.Info("starting evaluation campaign",
		zap.String("task_id", r.cfg.TaskID),
		zap.Strings("conditions", conditions),
		zap.Strings("models", r.cfg.Models),
		zap.Ints("seeds", r.cfg.Seeds),
		zap.Int("total_runs", len(specs)),
		zap.Int("workers", r.cfg.ParallelWorkers))

	results := &schemas.EvalResults{
		TaskID:          r.cfg.TaskID,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		Seeds:           r.cfg.Seeds,
		Models:          r.cfg.Models,
		Conditions:      conditions,
		ParallelWorkers: r.cfg.ParallelWorkers,
		Evaluations:     make(map[string][]schemas.RunResult, len(conditions)),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.cfg.ParallelWorkers, 1))

	for _, spec := range specs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := r.runSingle(gctx, spec)
			mu.Lock()
			results.Evaluations[spec.condition] = append(results.Evaluations[spec.condition], res)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("evaluation campaign aborted: %w", err)
	}

	results.Summary = Summarize(results.Evaluations)
	return results, nil
}

// runSingle executes one evaluation run. The environment session is closed
// on every exit path; failures are folded into the returned RunResult.
func (r *Runner) runSingle(ctx context.Context, spec runSpec) schemas.RunResult {
	result := schemas.RunResult{
		RunID:     uuid.NewString()[:8],
		Model:     spec.model,
		Seed:      spec.seed,
		Condition: spec.condition,
		Actions:   []string{},
	}
	log := r.logger.With(
		zap.String("run_id", result.RunID),
		zap.String("model", spec.model),
		zap.String("condition", spec.condition),
		zap.Int("seed", spec.seed))

	llm, err := r.newClient(spec.model)
	if err != nil {
		result.Error = fmt.Sprintf("llm_client: %v", err)
		return result
	}
	ag := &agent{
		llm:          llm,
		systemPrompt: spec.systemPrompt,
		temperature:  r.llmCfg.Temperature,
		maxTokens:    r.llmCfg.MaxTokens,
		axTreeLimit:  r.cfg.AxTreeLimit,
		logger:       log,
	}

	env, err := r.sessions.OpenSession(ctx, r.cfg.TaskID)
	if err != nil {
		result.Error = fmt.Sprintf("session: %v", err)
		return result
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeGrace)
		defer cancel()
		if cerr := env.Close(closeCtx); cerr != nil {
			log.Warn("failed to close environment session", zap.Error(cerr))
		}
	}()

	obs, err := env.Reset(ctx, spec.seed)
	if err != nil {
		result.Error = fmt.Sprintf("reset: %v", err)
		return result
	}

	start := time.Now()
	defer func() {
		result.TimeSeconds = time.Since(start).Seconds()
	}()

	for step := 0; step < r.cfg.MaxSteps; step++ {
		if time.Since(start) > r.cfg.RunTimeout {
			result.Error = "timeout"
			log.Info("run timed out", zap.Int("steps", result.Steps))
			return result
		}
		if err := ctx.Err(); err != nil {
			result.Error = "cancelled"
			return result
		}

		action := ag.nextAction(ctx, obs)
		result.Actions = append(result.Actions, action)

		if r.repeatedTooOften(result.Actions) {
			result.Error = fmt.Sprintf("repeated %dx", r.cfg.MaxRepeated)
			log.Info("run stuck on repeated action", zap.String("action", action))
			return result
		}

		stepRes, err := env.Step(ctx, action)
		if err != nil {
			// Substitute a neutral action; a broken session fails on
			// that too and ends the run.
			stepRes, err = env.Step(ctx, "noop()")
			if err != nil {
				result.Error = "env_error"
				log.Warn("environment step failed", zap.Error(err))
				return result
			}
		}

		result.Steps = step + 1
		result.Reward = stepRes.Reward
		obs = stepRes.Observation

		if stepRes.Done || stepRes.Truncated {
			result.Success = stepRes.Reward > 0
			log.Info("run finished",
				zap.Bool("success", result.Success),
				zap.Float64("reward", result.Reward),
				zap.Int("steps", result.Steps))
			return result
		}
	}

	log.Info("run exhausted step budget", zap.Int("steps", result.Steps))
	return result
}

// repeatedTooOften reports whether the last MaxRepeated actions are
// identical. This is a cooperative exit, not a hard interrupt.
func (r *Runner) repeatedTooOften(actions []string) bool {
	n := r.cfg.MaxRepeated
	if n <= 0 || len(actions) < n {
		return false
	}
	last := actions[len(actions)-n:]
	for _, a := range last[1:] {
		if a != last[0] {
			return false
		}
	}
	return true
}

// Summarize computes per-condition and per-model aggregates.
func Summarize(evaluations map[string][]schemas.RunResult) map[string]schemas.ConditionSummary {
	summary := make(map[string]schemas.ConditionSummary, len(evaluations))
	for condition, runs := range evaluations {
		if len(runs) == 0 {
			summary[condition] = schemas.ConditionSummary{}
			continue
		}
		cs := schemas.ConditionSummary{
			TotalRuns: len(runs),
			ByModel:   map[string]schemas.ModelSummary{},
		}
		var steps, secs float64
		byModel := map[string][]schemas.RunResult{}
		for _, run := range runs {
			if run.Success {
				cs.Successes++
			}
			steps += float64(run.Steps)
			secs += run.TimeSeconds
			byModel[run.Model] = append(byModel[run.Model], run)
		}
		cs.SuccessRate = float64(cs.Successes) / float64(len(runs))
		cs.AvgSteps = steps / float64(len(runs))
		cs.AvgTime = secs / float64(len(runs))

		for model, modelRuns := range byModel {
			ms := schemas.ModelSummary{}
			var mSteps float64
			successes := 0
			for _, run := range modelRuns {
				if run.Success {
					successes++
				}
				mSteps += float64(run.Steps)
			}
			ms.SuccessRate = float64(successes) / float64(len(modelRuns))
			ms.AvgSteps = mSteps / float64(len(modelRuns))
			cs.ByModel[model] = ms
		}
		summary[condition] = cs
	}
	return summary
}
