// Package trace implements the event-to-action reduction pipeline: splitting
// a raw demonstration recording into observations and interactions, reducing
// interaction bursts to discrete actions, and pairing each action with the
// page snapshot that preceded it.
package trace

import (
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/hmwatts/tracebench/api/schemas"
	"github.com/hmwatts/tracebench/internal/observability"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Result bundles the two artifacts produced from one trace.
type Result struct {
	Actions    schemas.ActionsFile
	Trajectory schemas.PairedTrajectory
}

// Load reads and decodes a raw trace file.
func Load(path string) (*schemas.Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read trace file: %w", err)
	}
	var tr schemas.Trace
	if err := json.Unmarshal(data, &tr); err != nil {
		return nil, fmt.Errorf("failed to parse trace %s: %w", path, err)
	}
	return &tr, nil
}

// Process runs the full split/reduce/normalize/pair pipeline over one trace.
// When includeHTML is false, trajectory observations carry only the snapshot
// length, keeping the artifact reviewable by hand.
func Process(tr *schemas.Trace, includeHTML bool) Result {
	log := observability.GetLogger().Named("pipeline")

	observations, interactions := Split(tr.Events)
	reduced := Reduce(interactions)
	actions := Normalize(reduced)
	steps := Pair(actions, observations)
	stats := ComputeStats(len(tr.Events), observations, actions, steps)

	if !includeHTML {
		for i := range steps {
			steps[i].Observation.HTMLLength = len(steps[i].Observation.HTML)
			steps[i].Observation.HTML = ""
		}
	}

	log.Info("processed trace",
		zap.String("task_id", tr.ID),
		zap.Int("raw_events", len(tr.Events)),
		zap.Int("observations", len(observations)),
		zap.Int("actions", len(actions)),
		zap.Float64("valid_pair_pct", stats.ValidPairRatioPct))

	return Result{
		Actions: schemas.ActionsFile{
			TaskID:          tr.ID,
			TaskTitle:       tr.Title,
			StartURL:        tr.StartURL,
			EndURL:          tr.EndURL,
			DurationSeconds: tr.DurationSeconds,
			TotalActions:    len(actions),
			Actions:         actions,
		},
		Trajectory: schemas.PairedTrajectory{
			TaskID:          tr.ID,
			TaskTitle:       tr.Title,
			StartURL:        tr.StartURL,
			EndURL:          tr.EndURL,
			DurationSeconds: tr.DurationSeconds,
			Stats:           stats,
			Trajectory:      steps,
		},
	}
}

// WriteJSON writes v as indented JSON, creating parent directories as needed.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ExtractSnapshots dumps every HTML capture in the trace to numbered files
// under dir, for eyeballing what the recorder actually saw. Returns the
// paths written.
func ExtractSnapshots(tr *schemas.Trace, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	observations, _ := Split(tr.Events)
	paths := make([]string, 0, len(observations))
	for i, obs := range observations {
		path := filepath.Join(dir, fmt.Sprintf("snapshot_%03d_%d.html", i+1, int64(obs.Timestamp)))
		if err := os.WriteFile(path, []byte(obs.HTML), 0o644); err != nil {
			return paths, fmt.Errorf("failed to write snapshot %d: %w", i+1, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
