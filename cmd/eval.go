package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hmwatts/tracebench/api/schemas"
	"github.com/hmwatts/tracebench/internal/config"
	"github.com/hmwatts/tracebench/internal/eval"
	"github.com/hmwatts/tracebench/internal/gym"
	"github.com/hmwatts/tracebench/internal/llmclient"
	"github.com/hmwatts/tracebench/internal/observability"
	"github.com/hmwatts/tracebench/internal/trace"
)

// newEvalCmd creates the `eval` command: run the baseline-vs-ICL evaluation
// campaign against the benchmark gateway.
func newEvalCmd() *cobra.Command {
	var outputPath string

	evalCmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate LLM agents on a recorded task, with and without the demonstration prompt",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			bindings := map[string]string{
				"eval.task_id":          "task",
				"eval.gateway_url":      "gateway",
				"eval.models":           "models",
				"eval.seeds":            "seeds",
				"eval.parallel_workers": "workers",
				"eval.icl_prompt_file":  "icl-prompt",
			}
			for key, flag := range bindings {
				if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
					return err
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.UnmarshalKey("eval", &appCfg.Eval); err != nil {
				return fmt.Errorf("failed to resolve eval config: %w", err)
			}
			if appCfg.Eval.TaskID == "" {
				return fmt.Errorf("a task id is required (--task or TRACEBENCH_EVAL_TASK_ID)")
			}
			return runEval(cmd, appCfg, outputPath)
		},
	}

	evalCmd.Flags().String("task", "", "benchmark task id to evaluate")
	evalCmd.Flags().String("gateway", "", "benchmark gateway base URL")
	evalCmd.Flags().StringSlice("models", nil, "models to evaluate")
	evalCmd.Flags().IntSlice("seeds", nil, "environment seeds")
	evalCmd.Flags().Int("workers", 0, "parallel evaluation workers")
	evalCmd.Flags().String("icl-prompt", "", "demonstration prompt file enabling the ICL condition")
	evalCmd.Flags().StringVarP(&outputPath, "output", "o", "", "results file path (default <task>_results.json)")
	return evalCmd
}

func runEval(cmd *cobra.Command, cfg *config.Config, outputPath string) error {
	logger := observability.GetLogger()

	iclPrompt := ""
	if cfg.Eval.ICLPromptFile != "" {
		content, err := os.ReadFile(cfg.Eval.ICLPromptFile)
		if err != nil {
			return fmt.Errorf("failed to read ICL prompt: %w", err)
		}
		iclPrompt = string(content)
	}

	sessions := gym.NewClient(cfg.Eval.GatewayURL, logger)
	newClient := func(model string) (schemas.LLMClient, error) {
		llmCfg := cfg.LLM
		llmCfg.Model = model
		return llmclient.NewClient(llmCfg, logger)
	}

	logger.Info("starting evaluation campaign",
		zap.String("task_id", cfg.Eval.TaskID),
		zap.Strings("models", cfg.Eval.Models),
		zap.Ints("seeds", cfg.Eval.Seeds),
		zap.Bool("icl_enabled", iclPrompt != ""))

	runner := eval.NewRunner(cfg.Eval, cfg.LLM, sessions, newClient, iclPrompt)
	results, err := runner.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("evaluation campaign failed: %w", err)
	}

	if outputPath == "" {
		outputPath = cfg.Eval.TaskID + "_results.json"
	}
	if err := trace.WriteJSON(outputPath, results); err != nil {
		return err
	}

	for _, condition := range results.Conditions {
		summary := results.Summary[condition]
		logger.Info("condition summary",
			zap.String("condition", condition),
			zap.Int("runs", summary.TotalRuns),
			zap.Float64("success_rate", summary.SuccessRate),
			zap.Float64("avg_steps", summary.AvgSteps))
	}
	logger.Info("results written", zap.String("path", outputPath))
	return nil
}
