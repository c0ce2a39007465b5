package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hmwatts/tracebench/internal/config"
	"github.com/hmwatts/tracebench/internal/observability"
	"github.com/hmwatts/tracebench/internal/trace"
)

// newProcessCmd creates the `process` command: raw trace in, actions file
// and paired trajectory out.
func newProcessCmd() *cobra.Command {
	processCmd := &cobra.Command{
		Use:   "process <trace.json>",
		Short: "Reduce a raw demonstration trace into actions and a paired trajectory",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.BindPFlag("pipeline.output_dir", cmd.Flags().Lookup("output-dir")); err != nil {
				return err
			}
			if err := viper.BindPFlag("pipeline.include_html", cmd.Flags().Lookup("include-html")); err != nil {
				return err
			}
			return viper.BindPFlag("pipeline.extract_html", cmd.Flags().Lookup("extract-html"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var pipelineCfg config.PipelineConfig
			if err := viper.UnmarshalKey("pipeline", &pipelineCfg); err != nil {
				return fmt.Errorf("failed to resolve pipeline config: %w", err)
			}
			return runProcess(args[0], pipelineCfg)
		},
	}

	processCmd.Flags().StringP("output-dir", "o", "", "directory to write artifacts into")
	processCmd.Flags().Bool("include-html", false, "embed full HTML snapshots in the trajectory artifact")
	processCmd.Flags().Bool("extract-html", false, "also dump every HTML snapshot as a standalone file")
	return processCmd
}

func runProcess(tracePath string, cfg config.PipelineConfig) error {
	logger := observability.GetLogger()

	tr, err := trace.Load(tracePath)
	if err != nil {
		return err
	}

	result := trace.Process(tr, cfg.IncludeHTML)

	base := tr.ID
	if base == "" {
		base = "trace"
	}
	actionsPath := filepath.Join(cfg.OutputDir, base+"_actions.json")
	trajectoryPath := filepath.Join(cfg.OutputDir, base+"_trajectory.json")

	if err := trace.WriteJSON(actionsPath, result.Actions); err != nil {
		return err
	}
	if err := trace.WriteJSON(trajectoryPath, result.Trajectory); err != nil {
		return err
	}

	logger.Info("artifacts written",
		zap.String("actions", actionsPath),
		zap.String("trajectory", trajectoryPath),
		zap.Int("total_actions", result.Actions.TotalActions))

	if cfg.ExtractHTML {
		snapshotDir := filepath.Join(cfg.OutputDir, base+"_snapshots")
		paths, err := trace.ExtractSnapshots(tr, snapshotDir)
		if err != nil {
			return err
		}
		logger.Info("snapshots extracted",
			zap.String("dir", snapshotDir),
			zap.Int("count", len(paths)))
	}
	return nil
}
