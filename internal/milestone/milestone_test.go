package milestone

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmwatts/tracebench/internal/trace"
)

func formMilestones() []Milestone {
	return []Milestone{
		{ID: 1, Name: "Fill Asset Tag", ActionKind: "fill", TargetType: "textbox", ValuePattern: "SN-", Weight: 1.0},
		{ID: 2, Name: "Fill Quantity", ActionKind: "fill", TargetType: "textbox", Weight: 1.0},
		{ID: 3, Name: "Select Model", ActionKind: "click", TargetType: "option", Value: "MacBook|Apple", Weight: 1.0},
		{ID: 4, Name: "Click Submit", ActionKind: "click", TargetType: "button", Value: "Submit|Insert|Save", Weight: 1.0},
	}
}

func TestEvaluatePerfectTrajectory(t *testing.T) {
	actions := []string{
		`fill("a1", "SN-001234")`,
		`fill("a2", "3")`,
		`select_option("s1", "MacBook Pro 16")`,
		`select_option("s2", "Submit form")`,
	}

	eval := Evaluate(actions, formMilestones())
	assert.Equal(t, 4, eval.TotalMilestones)
	assert.Equal(t, 4, eval.CompletedMilestones)
	assert.InDelta(t, 4.0, eval.MaxScore, 0.001)
	assert.InDelta(t, (1.0+0.7+1.0+1.0)/4.0*100, eval.ScorePercentage, 0.001)
}

func TestEvaluatePatternFillFullCredit(t *testing.T) {
	eval := Evaluate([]string{`fill("a1", "SN-9876")`}, formMilestones()[:1])
	require.Len(t, eval.Details, 1)
	assert.True(t, eval.Details[0].Completed)
	assert.InDelta(t, 1.0, eval.Details[0].PartialScore, 0.001)
}

func TestEvaluatePatternFillPartialCredit(t *testing.T) {
	eval := Evaluate([]string{`fill("a1", "wrong-format")`}, formMilestones()[:1])
	require.Len(t, eval.Details, 1)
	assert.False(t, eval.Details[0].Completed)
	assert.InDelta(t, 0.5, eval.Details[0].PartialScore, 0.001)
}

func TestEvaluateAlternativePatterns(t *testing.T) {
	for _, value := range []string{"Apple MacBook Air", "apple silicon", "MACBOOK"} {
		eval := Evaluate([]string{`select_option("s1", "` + value + `")`}, formMilestones()[2:3])
		require.Len(t, eval.Details, 1)
		assert.True(t, eval.Details[0].Completed, "value %q should match", value)
	}
}

func TestEvaluateMilestoneMatchedAtMostOnce(t *testing.T) {
	actions := []string{
		`fill("a1", "SN-1")`,
		`fill("a1", "SN-2")`,
		`fill("a1", "SN-3")`,
	}

	eval := Evaluate(actions, formMilestones()[:2])
	matched := map[int]int{}
	usedActions := map[int]int{}
	for _, d := range eval.Details {
		if d.ActionIndex >= 0 {
			matched[d.MilestoneID]++
			usedActions[d.ActionIndex]++
		}
	}
	for id, n := range matched {
		assert.Equal(t, 1, n, "milestone %d matched more than once", id)
	}
	for idx, n := range usedActions {
		assert.Equal(t, 1, n, "action %d satisfied more than one milestone", idx)
	}
}

func TestEvaluateGenericClickBelowThreshold(t *testing.T) {
	// A bare click scores 0.3 against a value-less click milestone, which
	// does not clear the assignment threshold.
	ms := []Milestone{{ID: 1, Name: "Click Field", ActionKind: "click", TargetType: "lookup_field", Weight: 1.0}}
	eval := Evaluate([]string{`click("a1")`}, ms)
	assert.Zero(t, eval.PartialScore)
	assert.Zero(t, eval.CompletedMilestones)
}

func TestEvaluateUnknownActionsSkipped(t *testing.T) {
	eval := Evaluate([]string{"press the big red button", "noop()"}, formMilestones())
	assert.Zero(t, eval.PartialScore)
	assert.Zero(t, eval.ActionCoverage)
}

func TestEvaluateEmptyTrajectory(t *testing.T) {
	eval := Evaluate(nil, formMilestones())
	assert.Zero(t, eval.ScorePercentage)
	assert.Len(t, eval.Details, 4)
	for _, d := range eval.Details {
		assert.False(t, d.Completed)
		assert.Equal(t, -1, d.ActionIndex)
	}
}

func TestEvaluateScorePercentage(t *testing.T) {
	actions := []string{
		`fill("a1", "SN-001")`, // 1.0
		`fill("a2", "3")`,      // 0.7 generic
	}

	eval := Evaluate(actions, formMilestones())
	assert.InDelta(t, (1.0+0.7)/4.0*100, eval.ScorePercentage, 0.001)
	assert.InDelta(t, 1.0, eval.ActionCoverage, 0.001)
}

func TestEvaluateDetailsSortedByID(t *testing.T) {
	eval := Evaluate([]string{`fill("a2", "3")`}, formMilestones())
	require.Len(t, eval.Details, 4)
	for i := 1; i < len(eval.Details); i++ {
		assert.Greater(t, eval.Details[i].MilestoneID, eval.Details[i-1].MilestoneID)
	}
}

func TestLoadMilestones(t *testing.T) {
	path := filepath.Join(t.TempDir(), "milestones.json")
	require.NoError(t, trace.WriteJSON(path, formMilestones()))

	ms, err := Load(path)
	require.NoError(t, err)
	require.Len(t, ms, 4)
	assert.Equal(t, "Fill Asset Tag", ms[0].Name)
	assert.Equal(t, "SN-", ms[0].ValuePattern)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
