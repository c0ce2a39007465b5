// Package cmd wires the tracebench CLI: trace processing, artifact
// verification, prompt generation, agent evaluation, milestone scoring,
// browser replay and the ingestion server.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hmwatts/tracebench/internal/config"
	"github.com/hmwatts/tracebench/internal/observability"
)

var (
	cfgFile string
	// appCfg is populated once by the root PersistentPreRunE and read by
	// every subcommand.
	appCfg *config.Config
)

// NewRootCommand builds the full command tree. A fresh tree per invocation
// keeps flag state from leaking between executions in tests.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "tracebench",
		Short:   "Turn recorded web-form demonstrations into agent benchmarks",
		Version: Version,
		Long: `tracebench processes raw browser event recordings of human web-form
demonstrations into normalized action sequences, pairs them with page
snapshots, verifies every artifact, and evaluates LLM agents against the
recorded tasks with and without in-context demonstrations.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				observability.InitializeLogger(config.LoggerConfig{
					Level: "info", Format: "console", ServiceName: "tracebench",
				})
				return err
			}
			appCfg = cfg
			observability.InitializeLogger(cfg.Logger)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(
		newProcessCmd(),
		newVerifyCmd(),
		newPromptCmd(),
		newEvalCmd(),
		newScoreCmd(),
		newReplayCmd(),
		newServeCmd(),
	)
	return rootCmd
}

// Execute runs the CLI with the given signal-aware context.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if logger := observability.GetLogger(); logger != nil {
			logger.Error("command failed", zap.Error(err))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		return err
	}
	return nil
}
