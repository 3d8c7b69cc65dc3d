package main

import (
	"fmt"

	"github.com/ludo-technologies/sdlcguard/internal/config"
	"github.com/ludo-technologies/sdlcguard/service"
	"github.com/spf13/cobra"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config [path]",
		Short: "Print the effective configuration",
		Long: `Print the configuration validate would use for a repository, after
config file discovery, environment overrides and defaults are applied.

Examples:
  sdlcguard config
  sdlcguard config ../service --write resolved.yaml`,
		Args:          cobra.MaximumNArgs(1),
		RunE:          runConfig,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().String("write", "", "Write the effective config to this file instead of stdout")
	return cmd
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, targetPath(args), service.ConfigOverrides{})
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("write"); path != "" {
		if err := config.SaveConfig(cfg, path); err != nil {
			return hardError("%v", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", displayPath(path))
		return nil
	}

	data, err := config.Marshal(cfg)
	if err != nil {
		return hardError("%v", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
