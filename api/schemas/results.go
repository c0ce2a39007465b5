package schemas

import "context"

// Condition names the two evaluation arms.
const (
	ConditionBaseline = "baseline"
	ConditionICL      = "icl"
)

// RunResult is the outcome of one agent evaluation run (one model, one seed,
// one condition). Actions holds the raw textual actions the agent emitted,
// in order, for milestone scoring.
type RunResult struct {
	RunID       string   `json:"run_id"`
	Model       string   `json:"model"`
	Seed        int      `json:"seed"`
	Condition   string   `json:"condition"`
	Success     bool     `json:"success"`
	Reward      float64  `json:"reward"`
	Steps       int      `json:"steps"`
	TimeSeconds float64  `json:"time_seconds"`
	Error       string   `json:"error,omitempty"`
	Actions     []string `json:"actions"`
}

// ModelSummary aggregates runs of one model within a condition.
type ModelSummary struct {
	SuccessRate float64 `json:"success_rate"`
	AvgSteps    float64 `json:"avg_steps"`
}

// ConditionSummary aggregates all runs of one condition.
type ConditionSummary struct {
	TotalRuns   int                     `json:"total_runs"`
	Successes   int                     `json:"successes"`
	SuccessRate float64                 `json:"success_rate"`
	AvgSteps    float64                 `json:"avg_steps"`
	AvgTime     float64                 `json:"avg_time"`
	ByModel     map[string]ModelSummary `json:"by_model"`
}

// EvalResults is the results artifact produced by an evaluation campaign and
// consumed by the results verifier and the milestone scorer.
type EvalResults struct {
	TaskID          string                      `json:"task_id"`
	Timestamp       string                      `json:"timestamp"`
	Seeds           []int                       `json:"seeds"`
	Models          []string                    `json:"models"`
	Conditions      []string                    `json:"conditions"`
	ParallelWorkers int                         `json:"parallel_workers"`
	Evaluations     map[string][]RunResult      `json:"evaluations"`
	Summary         map[string]ConditionSummary `json:"summary"`
}

// GenerationOptions tune a single LLM request.
type GenerationOptions struct {
	Temperature float32
	MaxTokens   int
}

// GenerationRequest is the narrow request surface the evaluation loop needs
// from any language-model provider.
type GenerationRequest struct {
	SystemPrompt string
	UserPrompt   string
	Options      GenerationOptions
}

// LLMClient is the language-model collaborator interface. Implementations
// live in internal/llmclient; the evaluation loop only ever sees this.
type LLMClient interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}
