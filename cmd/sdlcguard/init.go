package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ludo-technologies/sdlcguard/domain"
	"github.com/ludo-technologies/sdlcguard/internal/config"
	"github.com/ludo-technologies/sdlcguard/internal/constants"
	"github.com/ludo-technologies/sdlcguard/service"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a sdlcguard configuration file",
		Long: `Generate a documented sdlcguard configuration file with sensible defaults.

By default, creates .sdlcguard.yaml in the current directory with full
documentation. Use --interactive for a guided setup wizard.

Examples:
  # Create .sdlcguard.yaml in current directory
  sdlcguard init

  # Go project validated at enterprise level
  sdlcguard init --type go --level enterprise

  # Also pin the level in .sdlc/level.json
  sdlcguard init --write-level

  # Overwrite existing file
  sdlcguard init --force

  # Generate smaller config with essential options only
  sdlcguard init --minimal

  # Interactive setup wizard
  sdlcguard init --interactive
  sdlcguard init -i`,
		RunE: runInit,
	}

	cmd.Flags().StringP("output", "o", constants.ConfigFileName,
		"Output path for the config file")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing config file")
	cmd.Flags().Bool("minimal", false,
		"Generate minimal config with essential options only")
	cmd.Flags().BoolP("interactive", "i", false,
		"Interactive setup wizard")
	cmd.Flags().StringP("level", "l", string(domain.DefaultLevel),
		"Fallback maturity level: prototype, production, enterprise")
	cmd.Flags().StringP("type", "t", string(config.ProjectTypeGeneric),
		"Project type: generic, go, node, python")
	cmd.Flags().Bool("write-level", false,
		"Also write the level to .sdlc/level.json next to the config file")

	return cmd
}

// initChoices are the answers that shape the generated config
type initChoices struct {
	projectType config.ProjectType
	level       domain.Level
	configPath  string
	writeLevel  bool
}

func runInit(cmd *cobra.Command, args []string) error {
	// Get flag values from command
	configPath, _ := cmd.Flags().GetString("output")
	force, _ := cmd.Flags().GetBool("force")
	minimal, _ := cmd.Flags().GetBool("minimal")
	interactive, _ := cmd.Flags().GetBool("interactive")
	levelName, _ := cmd.Flags().GetString("level")
	typeName, _ := cmd.Flags().GetString("type")
	writeLevel, _ := cmd.Flags().GetBool("write-level")

	level, err := domain.ParseLevel(levelName)
	if err != nil {
		return err
	}
	projectType := config.ProjectType(typeName)
	if _, ok := config.GetProjectPresets()[projectType]; !ok {
		return fmt.Errorf("unknown project type %q (generic, go, node, python)", typeName)
	}

	choices := initChoices{projectType: projectType, level: level, configPath: configPath, writeLevel: writeLevel}

	// Run interactive setup if requested
	if interactive {
		choices, err = runInteractiveSetup(choices)
		if err != nil {
			return err
		}
	}

	// Check if file exists
	if !force {
		if _, err := os.Stat(choices.configPath); err == nil {
			return fmt.Errorf("%s already exists. Use --force to overwrite", choices.configPath)
		}
	}

	// Check if parent directory exists
	dir := filepath.Dir(choices.configPath)
	if dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", dir)
		}
	}

	// Generate config content
	var content string
	if minimal {
		content = config.GetMinimalConfigTemplate(string(choices.level))
	} else {
		content = config.GetFullConfigTemplate(choices.projectType, string(choices.level))
	}

	if err := os.WriteFile(choices.configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created %s\n", displayPath(choices.configPath))

	if choices.writeLevel {
		store := service.NewFileConfigStore(dir)
		if err := store.WriteLevel(choices.level); err != nil {
			return err
		}
		fmt.Fprintf(out, "Created %s\n", displayPath(store.Location()))
	}

	fmt.Fprintln(out, "\nRun 'sdlcguard validate' to validate your project.")
	return nil
}

// displayPath prefers the absolute path, otherwise the path as given
func displayPath(path string) string {
	if absPath, err := filepath.Abs(path); err == nil {
		return absPath
	}
	return path
}

func runInteractiveSetup(defaults initChoices) (initChoices, error) {
	fmt.Println()
	fmt.Println("sdlcguard Configuration Setup")
	fmt.Println("=============================")
	fmt.Println()

	// Project type selection
	projectTypes := []struct {
		Label string
		Value config.ProjectType
	}{
		{"Generic (any language)", config.ProjectTypeGeneric},
		{"Go", config.ProjectTypeGo},
		{"Node.js / TypeScript", config.ProjectTypeNode},
		{"Python", config.ProjectTypePython},
	}

	projectTemplates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "\U0001F449 {{ .Label | cyan }}",
		Inactive: "   {{ .Label | white }}",
		Selected: "\U00002705 {{ .Label | green }}",
	}

	projectPrompt := promptui.Select{
		Label:     "What type of project is this?",
		Items:     projectTypes,
		Templates: projectTemplates,
	}

	projectIdx, _, err := projectPrompt.Run()
	if err != nil {
		return defaults, fmt.Errorf("project selection cancelled: %w", err)
	}
	choices := defaults
	choices.projectType = projectTypes[projectIdx].Value

	fmt.Println()

	level, err := selectLevel()
	if err != nil {
		return defaults, err
	}
	choices.level = level

	fmt.Println()

	// Output path prompt
	outputPrompt := promptui.Prompt{
		Label:   "Output file path",
		Default: defaults.configPath,
	}

	outputPath, err := outputPrompt.Run()
	if err != nil {
		return defaults, fmt.Errorf("output path input cancelled: %w", err)
	}

	// Use default if empty
	if outputPath != "" {
		choices.configPath = outputPath
	}

	levelPrompt := promptui.Prompt{
		Label:     "Pin the level in " + constants.LevelFile,
		IsConfirm: true,
	}
	if _, err := levelPrompt.Run(); err == nil {
		choices.writeLevel = true
	} else if err != promptui.ErrAbort {
		return defaults, fmt.Errorf("level file confirmation cancelled: %w", err)
	}

	fmt.Println()
	fmt.Printf("Creating %s... ", choices.configPath)

	return choices, nil
}
