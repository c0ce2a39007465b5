// Package milestone scores an agent's action sequence against hand-authored
// semantic checkpoints, awarding partial credit for trajectories that make
// real progress without reaching the environment's binary success signal.
package milestone

import (
	"fmt"
	"os"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/hmwatts/tracebench/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Match-confidence thresholds. Below matchThreshold an action is not
// assigned; at or above completedThreshold the milestone counts as fully
// completed rather than partially credited.
const (
	matchThreshold     = 0.3
	completedThreshold = 0.7
)

// Milestone is one semantic checkpoint. Value may list alternative accepted
// patterns joined by "|"; matching is case-insensitive substring.
type Milestone struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	ActionKind   string  `json:"action"`
	TargetType   string  `json:"target_type"`
	Value        string  `json:"value,omitempty"`
	ValuePattern string  `json:"value_pattern,omitempty"`
	Weight       float64 `json:"weight"`
}

// Result records the outcome for one milestone.
type Result struct {
	MilestoneID   int     `json:"milestone_id"`
	MilestoneName string  `json:"milestone_name"`
	Completed     bool    `json:"completed"`
	PartialScore  float64 `json:"partial_score"`
	MatchedAction string  `json:"matched_action,omitempty"`
	ActionIndex   int     `json:"action_index"`
}

// Evaluation is the scored outcome of one trajectory.
type Evaluation struct {
	TotalMilestones     int      `json:"total_milestones"`
	CompletedMilestones int      `json:"completed_milestones"`
	PartialScore        float64  `json:"partial_score"`
	MaxScore            float64  `json:"max_score"`
	ScorePercentage     float64  `json:"score_percentage"`
	ActionCoverage      float64  `json:"action_coverage"`
	Details             []Result `json:"milestone_details"`
}

// Load reads a milestone set from a JSON file.
func Load(path string) ([]Milestone, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read milestones file: %w", err)
	}
	var ms []Milestone
	if err := json.Unmarshal(data, &ms); err != nil {
		return nil, fmt.Errorf("failed to parse milestones %s: %w", path, err)
	}
	return ms, nil
}

// Evaluate greedily assigns each action to the single best-scoring
// still-unmatched milestone. A milestone is consumed at most once and an
// action satisfies at most one milestone; the assignment order follows the
// action sequence, so an early generic click cannot steal a later, more
// specific milestone's match once that milestone is taken.
func Evaluate(actions []string, milestones []Milestone) Evaluation {
	eval := Evaluation{TotalMilestones: len(milestones)}
	for _, m := range milestones {
		eval.MaxScore += m.Weight
	}

	taken := make([]bool, len(milestones))
	matchedActions := 0

	for idx, raw := range actions {
		parsed := schemas.ParseActionText(raw)
		if !parsed.Known() {
			continue
		}

		best, bestScore := -1, 0.0
		for mi, m := range milestones {
			if taken[mi] {
				continue
			}
			if score, ok := confidence(parsed, m); ok && score > bestScore {
				best, bestScore = mi, score
			}
		}
		if best < 0 || bestScore <= matchThreshold {
			continue
		}

		taken[best] = true
		matchedActions++
		m := milestones[best]
		weighted := bestScore * m.Weight
		eval.PartialScore += weighted
		completed := bestScore >= completedThreshold
		if completed {
			eval.CompletedMilestones++
		}
		eval.Details = append(eval.Details, Result{
			MilestoneID:   m.ID,
			MilestoneName: m.Name,
			Completed:     completed,
			PartialScore:  weighted,
			MatchedAction: raw,
			ActionIndex:   idx,
		})
	}

	for mi, m := range milestones {
		if !taken[mi] {
			eval.Details = append(eval.Details, Result{
				MilestoneID:   m.ID,
				MilestoneName: m.Name,
				ActionIndex:   -1,
			})
		}
	}
	sort.Slice(eval.Details, func(i, j int) bool {
		return eval.Details[i].MilestoneID < eval.Details[j].MilestoneID
	})

	if len(actions) > 0 {
		eval.ActionCoverage = float64(matchedActions) / float64(len(actions))
	}
	if eval.MaxScore > 0 {
		eval.ScorePercentage = eval.PartialScore / eval.MaxScore * 100
	}
	return eval
}

// confidence scores how well a parsed action satisfies a milestone.
func confidence(a schemas.ParsedAction, m Milestone) (float64, bool) {
	kind := string(a.Kind)

	switch m.ActionKind {
	case "fill":
		if kind != "fill" && kind != "select_option" {
			return 0, false
		}
		if a.Value == "" {
			return 0, false
		}
		if m.ValuePattern != "" {
			if containsFold(a.Value, m.ValuePattern) {
				return 1.0, true
			}
			return 0.5, true
		}
		return 0.7, true

	case "click":
		if kind != "click" && kind != "select_option" {
			return 0, false
		}
		if m.Value != "" {
			for _, pattern := range strings.Split(m.Value, "|") {
				if a.Value != "" && containsFold(a.Value, pattern) {
					return 1.0, true
				}
			}
			return 0, false
		}
		if kind == "click" {
			return 0.3, true
		}
	}
	return 0, false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
