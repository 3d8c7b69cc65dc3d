package main

import (
	"fmt"
	"os"

	"github.com/ludo-technologies/sdlcguard/domain"
	"github.com/ludo-technologies/sdlcguard/internal/config"
	"github.com/ludo-technologies/sdlcguard/internal/repo"
	"github.com/ludo-technologies/sdlcguard/service"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

func levelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "level [path]",
		Short: "Show the maturity level a repository validates at",
		Long: `Show the maturity level detected for a repository and where it came
from. Use 'level set' to persist an override in .sdlc/level.json.`,
		Args:          cobra.MaximumNArgs(1),
		RunE:          runLevelShow,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(levelSetCmd())
	return cmd
}

func runLevelShow(cmd *cobra.Command, args []string) error {
	root := targetPath(args)
	cfg, err := loadConfig(cmd, root, service.ConfigOverrides{})
	if err != nil {
		return err
	}

	rc, err := repo.NewLoader(cfg).Load(commandContext(cmd), root)
	if err != nil {
		return hardError("%v", err)
	}

	store := service.NewFileConfigStore(rc.RootPath)
	level, notices := service.NewLevelPolicy(cfg.Level).Detect(rc, store)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Level:  %s\n", level)
	fmt.Fprintf(out, "Source: %s\n", levelSource(store, cfg))
	for _, notice := range notices {
		fmt.Fprintf(out, "Notice: %s\n", notice)
	}
	return nil
}

func levelSource(store *service.FileConfigStore, cfg *config.Config) string {
	if _, found, err := store.ReadLevel(); err == nil && found {
		return store.Location()
	}
	if cfg.Level != "" {
		return "config file"
	}
	return "default"
}

func levelSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set [level]",
		Short: "Persist the maturity level in .sdlc/level.json",
		Long: `Write the level override used by 'validate' when --level is not given.
Without an argument an interactive selector is shown.

Examples:
  sdlcguard level set enterprise
  sdlcguard level set --path ../service prototype`,
		Args:          cobra.MaximumNArgs(1),
		RunE:          runLevelSet,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringP("path", "p", ".", "Repository root")
	return cmd
}

func runLevelSet(cmd *cobra.Command, args []string) error {
	root, _ := cmd.Flags().GetString("path")

	var level domain.Level
	if len(args) == 1 {
		parsed, err := domain.ParseLevel(args[0])
		if err != nil {
			return hardError("%v", err)
		}
		level = parsed
	} else {
		if !isTerminal(os.Stdin) {
			return hardError("no level given and stdin is not a terminal")
		}
		selected, err := selectLevel()
		if err != nil {
			return hardError("%v", err)
		}
		level = selected
	}

	rc, err := repo.NewLoader(config.DefaultConfig()).Load(commandContext(cmd), root)
	if err != nil {
		return hardError("%v", err)
	}

	store := service.NewFileConfigStore(rc.RootPath)
	if err := store.WriteLevel(level); err != nil {
		return hardError("%v", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Level set to %s in %s\n", level, store.Location())
	return nil
}

type levelChoice struct {
	Label       string
	Description string
	Value       domain.Level
}

func levelChoices() []levelChoice {
	presets := config.GetLevelPresets()
	choices := make([]levelChoice, 0, 3)
	for _, level := range domain.AllLevels() {
		choices = append(choices, levelChoice{
			Label:       string(level),
			Description: presets[string(level)].Description,
			Value:       level,
		})
	}
	return choices
}

func selectLevel() (domain.Level, error) {
	choices := levelChoices()
	prompt := promptui.Select{
		Label: "Which maturity level should this project validate at?",
		Items: choices,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   "\U0001F449 {{ .Label | cyan }} - {{ .Description | faint }}",
			Inactive: "   {{ .Label | white }} - {{ .Description | faint }}",
			Selected: "\U00002705 {{ .Label | green }}",
		},
		CursorPos: 1,
	}

	idx, _, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("level selection cancelled: %w", err)
	}
	return choices[idx].Value, nil
}
