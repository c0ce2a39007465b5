package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hmwatts/tracebench/api/schemas"
	"github.com/hmwatts/tracebench/internal/icl"
	"github.com/hmwatts/tracebench/internal/observability"
	"github.com/hmwatts/tracebench/internal/verify"
)

// newPromptCmd creates the `prompt` command: turn an actions file into the
// in-context demonstration prompt used by the ICL evaluation arm.
func newPromptCmd() *cobra.Command {
	var goal string
	var outputPath string
	var skipVerify bool

	promptCmd := &cobra.Command{
		Use:   "prompt <actions.json>",
		Short: "Generate an in-context demonstration prompt from a reduced actions file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()

			var af schemas.ActionsFile
			if err := readJSONFile(args[0], &af); err != nil {
				return err
			}

			content := icl.BuildPrompt(&af, goal)

			if !skipVerify {
				report := verify.Prompt(content)
				if !report.Summary.AllPassed {
					printReport(report)
					return fmt.Errorf("generated prompt failed verification")
				}
			}

			if outputPath == "" {
				fmt.Println(content)
				return nil
			}
			if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
				return fmt.Errorf("failed to write prompt: %w", err)
			}
			logger.Info("prompt written",
				zap.String("path", outputPath),
				zap.Int("chars", len(content)),
				zap.Int("actions", len(af.Actions)))
			return nil
		},
	}

	promptCmd.Flags().StringVarP(&goal, "goal", "g", "", "task goal text (defaults to the recorded task title)")
	promptCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file path (prints to stdout if unset)")
	promptCmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "do not verify the generated prompt")
	return promptCmd
}
