package cmd

import (
	"fmt"
	"os"
	"sort"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/hmwatts/tracebench/api/schemas"
	"github.com/hmwatts/tracebench/internal/verify"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// newVerifyCmd creates the `verify` command family, one subcommand per
// artifact kind.
func newVerifyCmd() *cobra.Command {
	var asJSON bool

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Run the verification battery against pipeline artifacts",
	}
	verifyCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "emit the full report as JSON")

	verifyCmd.AddCommand(
		&cobra.Command{
			Use:   "trace <trace.json>",
			Short: "Verify a raw demonstration trace",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return emitReport(verify.TraceFile(args[0]), asJSON)
			},
		},
		&cobra.Command{
			Use:   "actions <actions.json>",
			Short: "Verify a reduced actions file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var af schemas.ActionsFile
				if err := readJSONFile(args[0], &af); err != nil {
					return err
				}
				return emitReport(verify.Actions(&af), asJSON)
			},
		},
		&cobra.Command{
			Use:   "pairing <trajectory.json>",
			Short: "Verify a paired trajectory",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var pt schemas.PairedTrajectory
				if err := readJSONFile(args[0], &pt); err != nil {
					return err
				}
				return emitReport(verify.Pairing(&pt), asJSON)
			},
		},
		&cobra.Command{
			Use:   "prompt <prompt.md>",
			Short: "Verify a generated demonstration prompt",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				content, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("failed to read prompt file: %w", err)
				}
				return emitReport(verify.Prompt(string(content)), asJSON)
			},
		},
		&cobra.Command{
			Use:   "results <results.json>",
			Short: "Verify an evaluation results file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var er schemas.EvalResults
				if err := readJSONFile(args[0], &er); err != nil {
					return err
				}
				return emitReport(verify.Results(&er), asJSON)
			},
		},
		newVerifyEnvCmd(&asJSON),
	)
	return verifyCmd
}

func newVerifyEnvCmd(asJSON *bool) *cobra.Command {
	var quick bool
	envCmd := &cobra.Command{
		Use:   "env",
		Short: "Verify the runtime environment is ready for an evaluation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return emitReport(verify.Environment(cmd.Context(), appCfg, quick), *asJSON)
		},
	}
	envCmd.Flags().BoolVar(&quick, "quick", false, "skip network reachability probes")
	return envCmd
}

// emitReport prints the report and fails the command when any check failed,
// so the exit code is usable in pipelines.
func emitReport(report verify.Report, asJSON bool) error {
	if asJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to serialize report: %w", err)
		}
		fmt.Println(string(data))
	} else {
		printReport(report)
	}

	if !report.Summary.AllPassed {
		return fmt.Errorf("%s verification failed: %d/%d checks passed",
			report.Artifact, report.Summary.PassedChecks, report.Summary.TotalChecks)
	}
	return nil
}

func printReport(report verify.Report) {
	fmt.Printf("=== %s verification ===\n", report.Artifact)
	for _, check := range report.Checks {
		mark := "PASS"
		if !check.Passed {
			mark = "FAIL"
		}
		fmt.Printf("  [%s] %-28s %s\n", mark, check.Name, check.Message)
		if !check.Passed && len(check.Details) > 0 {
			keys := make([]string, 0, len(check.Details))
			for k := range check.Details {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("         %s: %v\n", k, check.Details[k])
			}
		}
	}
	for _, warning := range report.Warnings {
		fmt.Printf("  warning: %s\n", warning)
	}
	fmt.Printf("  %d/%d checks passed (%.1f%%)\n",
		report.Summary.PassedChecks, report.Summary.TotalChecks, report.Summary.SuccessRatePct)
}

// readJSONFile decodes one JSON artifact, failing with the path in the error.
func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
