package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ludo-technologies/sdlcguard/domain"
	"github.com/ludo-technologies/sdlcguard/internal/constants"
	"github.com/ludo-technologies/sdlcguard/internal/repo"
	"github.com/ludo-technologies/sdlcguard/service"
	"github.com/spf13/cobra"
)

func gateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gate [path]",
		Short: "Show the inferred phase and its artifact gate",
		Long: `Infer the SDLC phase of a repository and check that the artifacts
the phase requires exist. No checks are run.

Exit codes:
  0 - Gate passed
  1 - Required artifacts are missing
  2 - Hard error`,
		Args:          cobra.MaximumNArgs(1),
		RunE:          runGate,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().Bool("json", false, "Output the gate as JSON")
	return cmd
}

func runGate(cmd *cobra.Command, args []string) error {
	root := targetPath(args)
	cfg, err := loadConfig(cmd, root, service.ConfigOverrides{})
	if err != nil {
		return err
	}

	rc, err := repo.NewLoader(cfg).Load(commandContext(cmd), root)
	if err != nil {
		return hardError("%v", err)
	}
	gate := service.NewGateEnforcerFromConfig(cfg).Evaluate(rc)

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(gate); err != nil {
			return hardError("failed to encode JSON: %v", err)
		}
	} else {
		writeGate(cmd.OutOrStdout(), gate)
	}

	if !gate.Passed {
		return &CheckExitError{Code: constants.ExitFailure}
	}
	return nil
}

func writeGate(out io.Writer, gate domain.Gate) {
	verdict := "PASSED"
	if !gate.Passed {
		verdict = "FAILED"
	}
	fmt.Fprintf(out, "Phase: %s\n", gate.Phase)
	fmt.Fprintf(out, "Gate:  %s\n", verdict)

	if len(gate.RequiredArtifacts) > 0 {
		fmt.Fprintln(out, "\nRequired artifacts:")
		for _, artifact := range gate.RequiredArtifacts {
			fmt.Fprintf(out, "  %s\n", artifact)
		}
	}
	if len(gate.Issues) > 0 {
		fmt.Fprintln(out, "\nIssues:")
		for _, issue := range gate.Issues {
			fmt.Fprintf(out, "  - %s\n", issue)
		}
	}
}
