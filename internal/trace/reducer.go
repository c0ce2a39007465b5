package trace

import (
	"strings"

	"go.uber.org/zap"

	"github.com/hmwatts/tracebench/api/schemas"
	"github.com/hmwatts/tracebench/internal/observability"
)

// ReducedEvent is one interaction event chosen as the canonical
// representative of everything the user did to a single element, annotated
// with the resolved final value for text inputs.
type ReducedEvent struct {
	Event      schemas.RawEvent
	FinalValue string
}

// reducer accumulates per-element event runs for one reduction pass. All
// state is local to a single Reduce call; nothing is shared.
type reducer struct {
	byBID map[string][]schemas.RawEvent
	order []string
	log   *zap.Logger
}

// Reduce collapses a chronological interaction stream into at most one event
// per element. Elements are emitted in the order they were first touched,
// which preserves the narrative of the demonstration even when the user
// revisits an earlier field.
//
// Per-tag rules:
//
//   - input/textarea: the last non-empty value observed on any input event
//     wins. A field the user focused but never filled produces nothing.
//   - select: the last click wins (that click is the option choice).
//   - anything else: the last decisive event wins, where decisive means
//     click, submit or pointerdown. Mouse up/down chatter around it is noise.
func Reduce(interactions []schemas.RawEvent) []ReducedEvent {
	r := &reducer{
		byBID: make(map[string][]schemas.RawEvent),
		log:   observability.GetLogger().Named("reducer"),
	}

	for _, ev := range interactions {
		if ev.Target == nil || ev.Target.BID == "" {
			continue
		}
		bid := ev.Target.BID
		if _, seen := r.byBID[bid]; !seen {
			r.order = append(r.order, bid)
		}
		r.byBID[bid] = append(r.byBID[bid], ev)
	}

	var reduced []ReducedEvent
	for _, bid := range r.order {
		if rev, ok := r.reduceBID(bid); ok {
			reduced = append(reduced, rev)
		}
	}

	r.log.Debug("reduced interaction stream",
		zap.Int("interactions", len(interactions)),
		zap.Int("elements", len(r.order)),
		zap.Int("actions", len(reduced)))
	return reduced
}

func (r *reducer) reduceBID(bid string) (ReducedEvent, bool) {
	events := r.byBID[bid]
	if len(events) == 0 {
		return ReducedEvent{}, false
	}

	switch tag := strings.ToLower(events[0].Target.Tag); tag {
	case "input", "textarea":
		return reduceTextInput(events)
	case "select":
		return lastOfTypes(events, schemas.EventClick)
	default:
		return lastOfTypes(events, schemas.EventClick, schemas.EventSubmit, schemas.EventPointerDown)
	}
}

// reduceTextInput resolves the element's final value: the most recent
// non-empty value carried by an input event. Keystroke events each carry the
// field's value at that instant, so the last one is the field's real state.
func reduceTextInput(events []schemas.RawEvent) (ReducedEvent, bool) {
	final := ""
	var chosen *schemas.RawEvent
	for i := range events {
		ev := &events[i]
		if ev.Type != schemas.EventInput {
			continue
		}
		if v := inputValue(ev); v != "" {
			final = v
			chosen = ev
		}
	}
	if chosen == nil {
		return ReducedEvent{}, false
	}
	return ReducedEvent{Event: *chosen, FinalValue: final}, true
}

// inputValue extracts the typed content of one input event, preferring the
// target's snapshotted value over the per-keystroke data delta.
func inputValue(ev *schemas.RawEvent) string {
	if ev.Target != nil && ev.Target.Value != "" {
		return ev.Target.Value
	}
	return ev.Data
}

// lastOfTypes scans backwards for the most recent event matching one of the
// wanted types. No match means the element saw only ambient noise and emits
// nothing.
func lastOfTypes(events []schemas.RawEvent, wanted ...schemas.EventType) (ReducedEvent, bool) {
	for i := len(events) - 1; i >= 0; i-- {
		for _, t := range wanted {
			if events[i].Type == t {
				return ReducedEvent{Event: events[i]}, true
			}
		}
	}
	return ReducedEvent{}, false
}
