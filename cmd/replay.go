package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hmwatts/tracebench/api/schemas"
	"github.com/hmwatts/tracebench/internal/config"
	"github.com/hmwatts/tracebench/internal/observability"
	"github.com/hmwatts/tracebench/internal/replay"
)

// newReplayCmd creates the `replay` command: execute a reduced actions file
// against a live instance of the recorded page.
func newReplayCmd() *cobra.Command {
	var startURL string

	replayCmd := &cobra.Command{
		Use:   "replay <actions.json>",
		Short: "Replay a reduced actions file in a browser",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.BindPFlag("replay.headless", cmd.Flags().Lookup("headless")); err != nil {
				return err
			}
			if err := viper.BindPFlag("replay.action_timeout", cmd.Flags().Lookup("action-timeout")); err != nil {
				return err
			}
			return viper.BindPFlag("replay.step_delay", cmd.Flags().Lookup("step-delay"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var replayCfg config.ReplayConfig
			if err := viper.UnmarshalKey("replay", &replayCfg); err != nil {
				return fmt.Errorf("failed to resolve replay config: %w", err)
			}

			var af schemas.ActionsFile
			if err := readJSONFile(args[0], &af); err != nil {
				return err
			}
			if startURL == "" {
				startURL = af.StartURL
			}

			replayer := replay.New(replayCfg, observability.GetLogger())
			return replayer.Run(cmd.Context(), &af, startURL)
		},
	}

	replayCmd.Flags().StringVar(&startURL, "start-url", "", "page to replay against (defaults to the recorded start URL)")
	replayCmd.Flags().Bool("headless", true, "run the browser headless")
	replayCmd.Flags().Duration("action-timeout", 0, "per-action timeout")
	replayCmd.Flags().Duration("step-delay", 0, "pause between actions")
	return replayCmd
}
