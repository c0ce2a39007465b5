package verify

import (
	"fmt"
	"sort"

	"github.com/hmwatts/tracebench/api/schemas"
)

// maxMissingElementInfoRatio bounds how many actions may lack all element
// metadata before the artifact is considered degraded.
const maxMissingElementInfoRatio = 0.10

// Actions verifies a reduced-actions artifact.
func Actions(af *schemas.ActionsFile) Report {
	b := newBattery("actions")

	b.add("Actions Present", len(af.Actions) > 0,
		checkMsg(len(af.Actions) > 0, fmt.Sprintf("found %d actions", len(af.Actions)), "no actions found"),
		map[string]any{"action_count": len(af.Actions), "total_actions_field": af.TotalActions})
	if len(af.Actions) == 0 {
		return b.report()
	}

	verifyActionKinds(b, af.Actions)
	verifyActionBIDs(b, af.Actions)
	verifyFillValues(b, af.Actions)
	verifySelectOptions(b, af.Actions)
	verifyActionElementInfo(b, af.Actions)
	verifyStepSequence(b, actionSteps(af.Actions))
	verifyActionEncoding(b, af.Actions)
	verifyActionDiversity(b, af.Actions)
	return b.report()
}

func actionSteps(actions []schemas.Action) []int {
	steps := make([]int, len(actions))
	for i, a := range actions {
		steps[i] = a.Step
	}
	return steps
}

func verifyActionKinds(b *battery, actions []schemas.Action) {
	var invalid []int
	for _, a := range actions {
		if !schemas.ValidActionKinds[a.Kind] {
			invalid = append(invalid, a.Step)
		}
	}
	b.add("Action Types", len(invalid) == 0,
		checkMsg(len(invalid) == 0, "all action types valid", fmt.Sprintf("%d invalid action types", len(invalid))),
		map[string]any{"invalid_steps": clip(invalid)})
}

func verifyActionBIDs(b *battery, actions []schemas.Action) {
	var missing []int
	for _, a := range actions {
		if a.BID == "" {
			missing = append(missing, a.Step)
		}
	}
	b.add("Element IDs Present", len(missing) == 0,
		checkMsg(len(missing) == 0, "all actions reference an element", fmt.Sprintf("%d actions missing element ids", len(missing))),
		map[string]any{"missing_steps": clip(missing)})
}

func verifyFillValues(b *battery, actions []schemas.Action) {
	fills, missing := 0, []int{}
	for _, a := range actions {
		if a.Kind != schemas.ActionFill {
			continue
		}
		fills++
		if a.Value == "" {
			missing = append(missing, a.Step)
		}
	}
	b.add("Fill Values", len(missing) == 0,
		checkMsg(len(missing) == 0, fmt.Sprintf("all %d fill actions carry values", fills), fmt.Sprintf("%d fill actions missing values", len(missing))),
		map[string]any{"fill_actions": fills, "missing_steps": clip(missing)})
}

func verifySelectOptions(b *battery, actions []schemas.Action) {
	selects, missing := 0, []int{}
	for _, a := range actions {
		if a.Kind != schemas.ActionSelectOption {
			continue
		}
		selects++
		if a.Option == "" {
			missing = append(missing, a.Step)
		}
	}
	b.add("Select Options", len(missing) == 0,
		checkMsg(len(missing) == 0, fmt.Sprintf("all %d select actions carry options", selects), fmt.Sprintf("%d select actions missing options", len(missing))),
		map[string]any{"select_actions": selects, "missing_steps": clip(missing)})
}

func verifyActionElementInfo(b *battery, actions []schemas.Action) {
	missing := 0
	for _, a := range actions {
		if a.ElementInfo.Role == "" && a.ElementInfo.Name == "" && a.ElementInfo.TagName == "" {
			missing++
		}
	}
	passed := float64(missing) < float64(len(actions))*maxMissingElementInfoRatio
	b.add("Element Info", passed,
		checkMsg(passed, "element metadata mostly complete", "too many actions missing element metadata"),
		map[string]any{
			"total_actions": len(actions),
			"missing_info":  missing,
			"complete_pct":  pct(len(actions)-missing, len(actions)),
		})
}

// verifyStepSequence checks the contiguity invariant exactly: step values
// must be the set {1..N} with no gaps or duplicates.
func verifyStepSequence(b *battery, steps []int) {
	seen := map[int]bool{}
	var duplicates, gaps []int
	for _, s := range steps {
		if seen[s] {
			duplicates = append(duplicates, s)
		}
		seen[s] = true
	}
	for want := 1; want <= len(steps); want++ {
		if !seen[want] {
			gaps = append(gaps, want)
		}
	}
	sort.Ints(gaps)
	passed := len(gaps) == 0 && len(duplicates) == 0
	b.add("Step Sequence", passed,
		checkMsg(passed, fmt.Sprintf("steps 1-%d are sequential", len(steps)), fmt.Sprintf("%d gaps, %d duplicates", len(gaps), len(duplicates))),
		map[string]any{"gaps": clip(gaps), "duplicates": clip(duplicates)})
}

// verifyActionEncoding checks that every action round-trips through the
// textual grammar the benchmark environment consumes.
func verifyActionEncoding(b *battery, actions []schemas.Action) {
	var invalid []int
	for _, a := range actions {
		parsed := schemas.ParseActionText(a.Text())
		if !parsed.Known() || parsed.BID != a.BID {
			invalid = append(invalid, a.Step)
		}
	}
	b.add("Action Encoding", len(invalid) == 0,
		checkMsg(len(invalid) == 0, "all actions encode to valid action text", fmt.Sprintf("%d actions fail to round-trip", len(invalid))),
		map[string]any{"invalid_steps": clip(invalid)})
}

func verifyActionDiversity(b *battery, actions []schemas.Action) {
	kinds := map[schemas.ActionKind]int{}
	for _, a := range actions {
		kinds[a.Kind]++
	}
	b.add("Action Diversity", len(kinds) >= 1,
		fmt.Sprintf("found %d distinct action types", len(kinds)),
		map[string]any{"kind_counts": kinds})
}

// clip bounds detail lists so reports stay readable.
func clip(xs []int) []int {
	if len(xs) > 5 {
		return xs[:5]
	}
	return xs
}
