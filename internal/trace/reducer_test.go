package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmwatts/tracebench/api/schemas"
)

func interaction(t schemas.EventType, ts float64, bid, tag, value string) schemas.RawEvent {
	return schemas.RawEvent{
		Type:      t,
		Timestamp: ts,
		Target:    &schemas.Target{BID: bid, Tag: tag, Value: value},
	}
}

func inputEvent(ts float64, bid, value string) schemas.RawEvent {
	ev := interaction(schemas.EventInput, ts, bid, "input", value)
	ev.Data = value
	return ev
}

func TestReduceLastValueWins(t *testing.T) {
	events := []schemas.RawEvent{
		inputEvent(10, "a1", "a"),
		inputEvent(20, "a1", "ab"),
		inputEvent(30, "a1", "abc"),
	}

	reduced := Reduce(events)
	require.Len(t, reduced, 1)
	assert.Equal(t, "abc", reduced[0].FinalValue)
	assert.Equal(t, "a1", reduced[0].Event.Target.BID)
}

func TestReduceSkipsNeverFilledInput(t *testing.T) {
	events := []schemas.RawEvent{
		interaction(schemas.EventFocus, 10, "a1", "input", ""),
		interaction(schemas.EventBlur, 20, "a1", "input", ""),
	}

	assert.Empty(t, Reduce(events))
}

func TestReduceSelectLastClickWins(t *testing.T) {
	events := []schemas.RawEvent{
		interaction(schemas.EventPointerDown, 10, "s1", "select", ""),
		interaction(schemas.EventClick, 20, "s1", "select", "red"),
		interaction(schemas.EventChange, 30, "s1", "select", "blue"),
		interaction(schemas.EventClick, 40, "s1", "select", "blue"),
		interaction(schemas.EventBlur, 50, "s1", "select", "blue"),
	}

	reduced := Reduce(events)
	require.Len(t, reduced, 1)
	assert.Equal(t, schemas.EventClick, reduced[0].Event.Type)
	assert.Equal(t, float64(40), reduced[0].Event.Timestamp)
	assert.Equal(t, "blue", reduced[0].Event.Target.Value)
}

func TestReduceButtonLastDecisiveEvent(t *testing.T) {
	events := []schemas.RawEvent{
		interaction(schemas.EventMouseDown, 10, "b1", "button", ""),
		interaction(schemas.EventPointerDown, 11, "b1", "button", ""),
		interaction(schemas.EventClick, 12, "b1", "button", ""),
		interaction(schemas.EventMouseUp, 13, "b1", "button", ""),
	}

	reduced := Reduce(events)
	require.Len(t, reduced, 1)
	assert.Equal(t, schemas.EventClick, reduced[0].Event.Type)
}

func TestReduceNoDecisiveEventEmitsNothing(t *testing.T) {
	events := []schemas.RawEvent{
		interaction(schemas.EventMouseUp, 10, "d1", "div", ""),
		interaction(schemas.EventFocus, 20, "d1", "div", ""),
	}

	assert.Empty(t, Reduce(events))
}

func TestReduceAtMostOnePerElement(t *testing.T) {
	var events []schemas.RawEvent
	for i := 0; i < 50; i++ {
		events = append(events,
			interaction(schemas.EventClick, float64(i*3), "b1", "button", ""),
			inputEvent(float64(i*3+1), "a1", "text"),
			interaction(schemas.EventClick, float64(i*3+2), "s1", "select", "x"),
		)
	}

	reduced := Reduce(events)
	seen := map[string]int{}
	for _, rev := range reduced {
		seen[rev.Event.Target.BID]++
	}
	for bid, n := range seen {
		assert.Equal(t, 1, n, "element %s reduced more than once", bid)
	}
	assert.Len(t, seen, 3)
}

func TestReduceFirstSeenOrderPreserved(t *testing.T) {
	events := []schemas.RawEvent{
		inputEvent(10, "a1", "J"),
		interaction(schemas.EventClick, 20, "b2", "button", ""),
		inputEvent(30, "a1", "Jo"),
	}

	reduced := Reduce(events)
	require.Len(t, reduced, 2)
	assert.Equal(t, "a1", reduced[0].Event.Target.BID)
	assert.Equal(t, "Jo", reduced[0].FinalValue)
	assert.Equal(t, "b2", reduced[1].Event.Target.BID)
}

func TestReduceSingleClickEmittedAsIs(t *testing.T) {
	events := []schemas.RawEvent{
		interaction(schemas.EventClick, 5, "b1", "a", ""),
	}

	reduced := Reduce(events)
	require.Len(t, reduced, 1)
	assert.Equal(t, "b1", reduced[0].Event.Target.BID)
}
