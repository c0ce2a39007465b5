// Package verify implements the artifact verification suite: independent
// validators for traces, reduced actions, paired trajectories, demonstration
// prompts, evaluation results and the runtime environment. Each validator
// runs a fixed battery of checks and reports every outcome; thresholds are
// tolerance-based because the upstream instrumentation is inherently lossy.
package verify

import (
	"fmt"
	"math"
)

// Check is one named verification outcome.
type Check struct {
	Name    string         `json:"name"`
	Passed  bool           `json:"passed"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Summary aggregates a report's checks.
type Summary struct {
	TotalChecks    int     `json:"total_checks"`
	PassedChecks   int     `json:"passed_checks"`
	FailedChecks   int     `json:"failed_checks"`
	SuccessRatePct float64 `json:"success_rate_pct"`
	AllPassed      bool    `json:"all_passed"`
}

// Report is the result of verifying one artifact. A failed check never hides
// behind the summary; every check is listed with its message and details.
type Report struct {
	Artifact string   `json:"artifact"`
	Checks   []Check  `json:"checks"`
	Warnings []string `json:"warnings,omitempty"`
	Summary  Summary  `json:"summary"`
}

// battery accumulates checks for one verification run.
type battery struct {
	artifact string
	checks   []Check
	warnings []string
}

func newBattery(artifact string) *battery {
	return &battery{artifact: artifact}
}

func (b *battery) add(name string, passed bool, message string, details map[string]any) bool {
	b.checks = append(b.checks, Check{Name: name, Passed: passed, Message: message, Details: details})
	return passed
}

func (b *battery) warnf(format string, args ...any) {
	b.warnings = append(b.warnings, fmt.Sprintf(format, args...))
}

func (b *battery) report() Report {
	passed := 0
	for _, c := range b.checks {
		if c.Passed {
			passed++
		}
	}
	rate := 0.0
	if len(b.checks) > 0 {
		rate = math.Round(float64(passed)/float64(len(b.checks))*1000) / 10
	}
	return Report{
		Artifact: b.artifact,
		Checks:   b.checks,
		Warnings: b.warnings,
		Summary: Summary{
			TotalChecks:    len(b.checks),
			PassedChecks:   passed,
			FailedChecks:   len(b.checks) - passed,
			SuccessRatePct: rate,
			AllPassed:      passed == len(b.checks),
		},
	}
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*1000) / 10
}
