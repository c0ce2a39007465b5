package trace

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmwatts/tracebench/api/schemas"
)

func TestNormalizeKinds(t *testing.T) {
	reduced := []ReducedEvent{
		{Event: interaction(schemas.EventInput, 10, "a1", "input", "Jo"), FinalValue: "Jo"},
		{Event: interaction(schemas.EventClick, 20, "s1", "select", "blue")},
		{Event: interaction(schemas.EventClick, 30, "b1", "button", "")},
	}

	actions := Normalize(reduced)
	require.Len(t, actions, 3)

	assert.Equal(t, schemas.ActionFill, actions[0].Kind)
	assert.Equal(t, "Jo", actions[0].Value)
	assert.Equal(t, schemas.ActionSelectOption, actions[1].Kind)
	assert.Equal(t, "blue", actions[1].Option)
	assert.Equal(t, schemas.ActionClick, actions[2].Kind)
	assert.Empty(t, actions[2].Value)
}

func TestNormalizeStepContiguity(t *testing.T) {
	var reduced []ReducedEvent
	for i := 0; i < 25; i++ {
		ev := interaction(schemas.EventClick, float64(i), "b", "button", "")
		// Poison the input: steps must come from output position only.
		reduced = append(reduced, ReducedEvent{Event: ev})
	}

	actions := Normalize(reduced)
	seen := map[int]bool{}
	for i, act := range actions {
		assert.Equal(t, i+1, act.Step)
		assert.False(t, seen[act.Step])
		seen[act.Step] = true
	}
}

func TestNormalizeMissingA11yDefaultsToEmpty(t *testing.T) {
	ev := interaction(schemas.EventClick, 1, "b1", "button", "")
	actions := Normalize([]ReducedEvent{{Event: ev}})
	require.Len(t, actions, 1)

	want := schemas.ElementInfo{Role: "", Name: "", TagName: "BUTTON"}
	if diff := cmp.Diff(want, actions[0].ElementInfo); diff != "" {
		t.Errorf("element info mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeScenario(t *testing.T) {
	events := []schemas.RawEvent{
		inputEvent(1, "a1", "J"),
		inputEvent(2, "a1", "Jo"),
		interaction(schemas.EventClick, 3, "b2", "button", ""),
	}

	actions := Normalize(Reduce(events))
	require.Len(t, actions, 2)
	assert.Equal(t, 1, actions[0].Step)
	assert.Equal(t, schemas.ActionFill, actions[0].Kind)
	assert.Equal(t, "a1", actions[0].BID)
	assert.Equal(t, "Jo", actions[0].Value)
	assert.Equal(t, 2, actions[1].Step)
	assert.Equal(t, schemas.ActionClick, actions[1].Kind)
	assert.Equal(t, "b2", actions[1].BID)
}

func TestNormalizeEmpty(t *testing.T) {
	assert.Empty(t, Normalize(nil))
}
