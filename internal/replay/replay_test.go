package replay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hmwatts/tracebench/api/schemas"
	"github.com/hmwatts/tracebench/internal/config"
)

func testReplayer() *Replayer {
	return New(config.ReplayConfig{
		Headless:      true,
		ActionTimeout: 10 * time.Second,
		StepDelay:     0,
	}, zap.NewNop())
}

func TestBidSelector(t *testing.T) {
	assert.Equal(t, `[data-bid="a23"]`, bidSelector("a23"))
	assert.Equal(t, `[data-bid="a\"b"]`, bidSelector(`a"b`))
}

func TestBuildTaskPerKind(t *testing.T) {
	for _, kind := range []schemas.ActionKind{schemas.ActionClick, schemas.ActionFill, schemas.ActionSelectOption} {
		task, err := buildTask(schemas.Action{Kind: kind, BID: "a1", Value: "v", Option: "o"})
		require.NoError(t, err, string(kind))
		assert.NotEmpty(t, task, string(kind))
	}
}

func TestBuildTaskRejectsUnknownKind(t *testing.T) {
	_, err := buildTask(schemas.Action{Kind: "scroll", BID: "a1"})
	assert.Error(t, err)
}

func TestBuildTaskRejectsMissingBID(t *testing.T) {
	_, err := buildTask(schemas.Action{Kind: schemas.ActionClick})
	assert.Error(t, err)
}

func TestRunRejectsEmptyInput(t *testing.T) {
	r := testReplayer()

	err := r.Run(context.Background(), nil, "https://example.com")
	assert.Error(t, err)

	err = r.Run(context.Background(), &schemas.ActionsFile{}, "https://example.com")
	assert.Error(t, err)

	err = r.Run(context.Background(), &schemas.ActionsFile{
		Actions: []schemas.Action{{Step: 1, Kind: schemas.ActionClick, BID: "a1"}},
	}, "")
	assert.Error(t, err)
}

func TestActionKindLogsAsPlainString(t *testing.T) {
	for _, kind := range []schemas.ActionKind{schemas.ActionClick, schemas.ActionFill, schemas.ActionSelectOption} {
		field := zap.String("kind", string(kind))
		assert.Equal(t, string(kind), field.String)
	}
}

func TestExecOptionsHonorHeadless(t *testing.T) {
	headful := New(config.ReplayConfig{Headless: false}, zap.NewNop())
	headless := testReplayer()
	assert.Greater(t, len(headless.execOptions()), len(headful.execOptions()))
}
