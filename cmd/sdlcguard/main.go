package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ludo-technologies/sdlcguard/internal/constants"
	"github.com/ludo-technologies/sdlcguard/internal/version"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version = version.Version
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sdlcguard",
		Short: "sdlcguard - SDLC compliance validation",
		Long: `sdlcguard validates a repository against a maturity-level policy.
It checks branch naming, proposals, architecture documents, retrospectives,
technical debt and delegates security, tests and linting to external tools.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("no-progress", false, "Disable progress bars")

	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(checksCmd())
	rootCmd.AddCommand(gateCmd())
	rootCmd.AddCommand(levelCmd())
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())
	return rootCmd
}

// exitCode prints err and maps it to the process exit code
func exitCode(err error) int {
	var exitErr *CheckExitError
	if errors.As(err, &exitErr) {
		if exitErr.Message != "" {
			fmt.Fprintf(os.Stderr, "Error: %s\n", exitErr.Message)
		}
		// Silently exit with the specified code (output already printed)
		return exitErr.Code
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return constants.ExitError
}

func versionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			full, _ := cmd.Flags().GetBool("full")
			if full {
				fmt.Fprintln(cmd.OutOrStdout(), version.GetFullVersion())
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "sdlcguard version %s\n", version.GetVersion())
			}
		},
	}

	cmd.Flags().Bool("full", false, "Show detailed version information")
	return cmd
}
