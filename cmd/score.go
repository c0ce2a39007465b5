package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hmwatts/tracebench/api/schemas"
	"github.com/hmwatts/tracebench/internal/milestone"
	"github.com/hmwatts/tracebench/internal/observability"
	"github.com/hmwatts/tracebench/internal/trace"
)

// runScore is one run's milestone evaluation inside the scored output.
type runScore struct {
	RunID      string               `json:"run_id"`
	Model      string               `json:"model"`
	Seed       int                  `json:"seed"`
	Success    bool                 `json:"success"`
	Evaluation milestone.Evaluation `json:"evaluation"`
}

// scoredResults is the milestone-scored view of a results file.
type scoredResults struct {
	TaskID     string                `json:"task_id"`
	Milestones int                   `json:"milestones"`
	Runs       map[string][]runScore `json:"runs"`
	AvgScore   map[string]float64    `json:"avg_score_pct"`
}

// newScoreCmd creates the `score` command: milestone partial credit over
// every run in an evaluation results file.
func newScoreCmd() *cobra.Command {
	var outputPath string

	scoreCmd := &cobra.Command{
		Use:   "score <results.json> <milestones.json>",
		Short: "Score evaluation runs against hand-authored task milestones",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScoring(args[0], args[1], outputPath)
		},
	}

	scoreCmd.Flags().StringVarP(&outputPath, "output", "o", "", "scored output path (prints to stdout if unset)")
	return scoreCmd
}

func runScoring(resultsPath, milestonesPath, outputPath string) error {
	logger := observability.GetLogger()

	var er schemas.EvalResults
	if err := readJSONFile(resultsPath, &er); err != nil {
		return err
	}
	milestones, err := milestone.Load(milestonesPath)
	if err != nil {
		return err
	}
	if len(milestones) == 0 {
		return fmt.Errorf("milestones file %s is empty", milestonesPath)
	}

	scored := scoredResults{
		TaskID:     er.TaskID,
		Milestones: len(milestones),
		Runs:       make(map[string][]runScore),
		AvgScore:   make(map[string]float64),
	}

	for condition, runs := range er.Evaluations {
		total := 0.0
		for _, run := range runs {
			evaluation := milestone.Evaluate(run.Actions, milestones)
			scored.Runs[condition] = append(scored.Runs[condition], runScore{
				RunID:      run.RunID,
				Model:      run.Model,
				Seed:       run.Seed,
				Success:    run.Success,
				Evaluation: evaluation,
			})
			total += evaluation.ScorePercentage
		}
		if len(runs) > 0 {
			scored.AvgScore[condition] = total / float64(len(runs))
		}
		logger.Info("condition scored",
			zap.String("condition", condition),
			zap.Int("runs", len(runs)),
			zap.Float64("avg_score_pct", scored.AvgScore[condition]))
	}

	if outputPath == "" {
		data, err := json.MarshalIndent(scored, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to serialize scores: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}
	if err := trace.WriteJSON(outputPath, scored); err != nil {
		return err
	}
	logger.Info("scores written", zap.String("path", outputPath))
	return nil
}
