package trace

import (
	"strings"

	"github.com/hmwatts/tracebench/api/schemas"
)

// Normalize maps each reduced event to a canonical action record. Step
// numbers are assigned as the 1-based output index, never carried from input,
// so len(actions) == N implies step values are exactly 1..N.
func Normalize(reduced []ReducedEvent) []schemas.Action {
	actions := make([]schemas.Action, 0, len(reduced))
	for _, rev := range reduced {
		ev := rev.Event
		act := schemas.Action{
			Step:        len(actions) + 1,
			BID:         ev.Target.BID,
			EventType:   ev.Type,
			Timestamp:   ev.Timestamp,
			URL:         ev.URL,
			ElementInfo: elementInfo(ev.Target),
		}

		switch strings.ToUpper(ev.Target.Tag) {
		case "SELECT":
			act.Kind = schemas.ActionSelectOption
			act.Option = ev.Target.Value
		case "INPUT", "TEXTAREA":
			act.Kind = schemas.ActionFill
			act.Value = rev.FinalValue
		default:
			act.Kind = schemas.ActionClick
		}
		actions = append(actions, act)
	}
	return actions
}

// elementInfo copies accessibility metadata with empty-string defaults. A
// missing accessibility subtree is routine, never an error.
func elementInfo(t *schemas.Target) schemas.ElementInfo {
	info := schemas.ElementInfo{}
	if t == nil {
		return info
	}
	info.TagName = strings.ToUpper(t.Tag)
	info.Role = t.A11y.Role
	info.Name = t.A11y.Name
	return info
}
