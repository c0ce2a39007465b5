package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmwatts/tracebench/api/schemas"
)

func capture(ts float64, html string) schemas.RawEvent {
	return schemas.RawEvent{Type: schemas.EventHTMLCapture, Timestamp: ts, HTML: html}
}

func TestSplitPartitionsAndSorts(t *testing.T) {
	events := []schemas.RawEvent{
		interaction(schemas.EventClick, 30, "b1", "button", ""),
		capture(5, "<html></html>"),
		interaction(schemas.EventInput, 10, "a1", "input", "x"),
		capture(25, "<html></html>"),
		{Type: schemas.EventLoad, Timestamp: 1}, // no target, dropped
	}

	obs, inter := Split(events)

	require.Len(t, obs, 2)
	require.Len(t, inter, 2)
	assert.Equal(t, float64(5), obs[0].Timestamp)
	assert.Equal(t, float64(25), obs[1].Timestamp)
	assert.Equal(t, float64(10), inter[0].Timestamp)
	assert.Equal(t, float64(30), inter[1].Timestamp)
}

func TestSplitEmptyInput(t *testing.T) {
	obs, inter := Split(nil)
	assert.Empty(t, obs)
	assert.Empty(t, inter)
}

func TestSplitStableOnEqualTimestamps(t *testing.T) {
	events := []schemas.RawEvent{
		interaction(schemas.EventClick, 10, "first", "button", ""),
		interaction(schemas.EventClick, 10, "second", "button", ""),
	}

	_, inter := Split(events)
	require.Len(t, inter, 2)
	assert.Equal(t, "first", inter[0].Target.BID)
	assert.Equal(t, "second", inter[1].Target.BID)
}
