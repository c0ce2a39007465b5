package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hmwatts/tracebench/api/schemas"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "recordings.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func sampleUpload() *schemas.RecordingUpload {
	return &schemas.RecordingUpload{
		Task:           "create-hardware-asset",
		Duration:       42.5,
		EventsRecorded: 3,
		StartURL:       "https://example.com/form",
		EndURL:         "https://example.com/done",
		Data: []schemas.RawEvent{
			{Type: schemas.EventHTMLCapture, Timestamp: 100, HTML: "<html><body></body></html>", URL: "https://example.com/form"},
			{Type: schemas.EventClick, Timestamp: 110, Target: &schemas.Target{BID: "a23", Tag: "BUTTON"}, URL: "https://example.com/form"},
			{Type: schemas.EventInput, Timestamp: 120, Target: &schemas.Target{BID: "b7", Tag: "INPUT", Value: "laptop"}},
		},
	}
}

func TestSaveAndGetRecording(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	id, err := st.SaveRecording(ctx, sampleUpload())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := st.GetRecording(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "create-hardware-asset", got.Task)
	require.Len(t, got.Data, 3)
	assert.Equal(t, "a23", got.Data[1].Target.BID)
	assert.InDelta(t, 42.5, got.Duration, 0.001)
}

func TestGetRecordingNotFound(t *testing.T) {
	st := openTestStore(t)

	_, err := st.GetRecording(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveRejectsInvalidUpload(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	_, err := st.SaveRecording(ctx, &schemas.RecordingUpload{Task: ""})
	assert.Error(t, err)

	_, err = st.SaveRecording(ctx, &schemas.RecordingUpload{Task: "t", Duration: -1})
	assert.Error(t, err)

	_, err = st.SaveRecording(ctx, &schemas.RecordingUpload{Task: "t", EventsRecorded: -1})
	assert.Error(t, err)
}

func TestListRecordingsNewestFirst(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	first := sampleUpload()
	first.Task = "task-one"
	_, err := st.SaveRecording(ctx, first)
	require.NoError(t, err)

	second := sampleUpload()
	second.Task = "task-two"
	_, err = st.SaveRecording(ctx, second)
	require.NoError(t, err)

	list, err := st.ListRecordings(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "task-two", list[0].Task)
	assert.Equal(t, "task-one", list[1].Task)
	assert.False(t, list[0].ReceivedAt.IsZero())
}

func TestCountEventsByType(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	id, err := st.SaveRecording(ctx, sampleUpload())
	require.NoError(t, err)

	counts, err := st.CountEventsByType(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[string(schemas.EventHTMLCapture)])
	assert.Equal(t, 1, counts[string(schemas.EventClick)])
	assert.Equal(t, 1, counts[string(schemas.EventInput)])
}
