// Package gym exposes the browser-automation benchmark environment through a
// narrow interface. The environment itself runs out-of-process behind an HTTP
// gateway; evaluation code only ever sees Env.
package gym

import "context"

// Observation is the page state handed to the agent: the task goal and a
// flattened accessibility tree.
type Observation struct {
	Goal            string `json:"goal"`
	AxTree          string `json:"axtree_txt"`
	URL             string `json:"url,omitempty"`
	LastActionError string `json:"last_action_error,omitempty"`
}

// StepResult is the outcome of executing one action in the environment.
type StepResult struct {
	Observation Observation `json:"observation"`
	Reward      float64     `json:"reward"`
	Done        bool        `json:"done"`
	Truncated   bool        `json:"truncated"`
}

// Env is one exclusive benchmark session. Close must be called on every exit
// path; the backing session owns a real browser process.
type Env interface {
	Reset(ctx context.Context, seed int) (Observation, error)
	Step(ctx context.Context, actionText string) (StepResult, error)
	Close(ctx context.Context) error
}
