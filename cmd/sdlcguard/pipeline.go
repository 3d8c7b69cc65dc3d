package main

import (
	"fmt"
	"time"

	"github.com/ludo-technologies/sdlcguard/app"
	"github.com/ludo-technologies/sdlcguard/domain"
	"github.com/ludo-technologies/sdlcguard/internal/config"
	"github.com/ludo-technologies/sdlcguard/internal/constants"
	"github.com/ludo-technologies/sdlcguard/internal/logging"
	"github.com/ludo-technologies/sdlcguard/internal/repo"
	"github.com/ludo-technologies/sdlcguard/internal/tool"
	"github.com/ludo-technologies/sdlcguard/service"
	"github.com/spf13/cobra"
)

// CheckExitError is a custom error type for command exit codes
type CheckExitError struct {
	Code    int
	Message string
}

func (e *CheckExitError) Error() string {
	return e.Message
}

func hardError(format string, args ...interface{}) *CheckExitError {
	return &CheckExitError{Code: constants.ExitError, Message: fmt.Sprintf(format, args...)}
}

// globalOptions are the persistent root flags
type globalOptions struct {
	configPath string
	verbose    bool
	noProgress bool
}

// readGlobalOptions tolerates commands run without the root command, as in
// tests
func readGlobalOptions(cmd *cobra.Command) globalOptions {
	var opts globalOptions
	if f := cmd.Flags().Lookup("config"); f != nil {
		opts.configPath = f.Value.String()
	}
	if f := cmd.Flags().Lookup("verbose"); f != nil {
		opts.verbose = f.Value.String() == "true"
	}
	if f := cmd.Flags().Lookup("no-progress"); f != nil {
		opts.noProgress = f.Value.String() == "true"
	}
	return opts
}

// loadConfig reads the config for target and applies command line
// overrides
func loadConfig(cmd *cobra.Command, target string, overrides service.ConfigOverrides) (*config.Config, error) {
	global := readGlobalOptions(cmd)
	overrides.Verbose = overrides.Verbose || global.verbose

	loader := service.NewConfigurationLoader()
	cfg, err := loader.LoadConfig(global.configPath, target)
	if err != nil {
		return nil, hardError("%v", err)
	}
	cfg, err = loader.MergeConfig(cfg, overrides)
	if err != nil {
		return nil, hardError("%v", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		return nil, hardError("failed to create logger: %v", err)
	}
	return logger.Named(constants.ToolName), nil
}

// newValidateUseCase wires the full pipeline for cfg
func newValidateUseCase(cfg *config.Config, logger *logging.Logger, pm domain.ProgressManager) (*app.ValidateUseCase, error) {
	catalog := service.NewCatalog(service.CheckDeps{
		Config:      cfg.Checks,
		Tools:       tool.NewExecRunner(),
		ToolTimeout: time.Duration(cfg.Execution.ToolTimeoutSeconds) * time.Second,
		Logger:      logger.Named("checks"),
	})

	uc, err := app.NewValidateUseCaseBuilder().
		WithLoader(repo.NewLoader(cfg)).
		WithCatalog(catalog).
		WithPolicy(service.NewLevelPolicy(cfg.Level)).
		WithGateEnforcer(service.NewGateEnforcerFromConfig(cfg)).
		WithExecutor(service.NewParallelExecutorWithProgress(&cfg.Execution, pm)).
		WithConfigStore(func(root string) domain.ConfigStore { return service.NewFileConfigStore(root) }).
		WithLogger(logger).
		Build()
	if err != nil {
		return nil, hardError("failed to build validation pipeline: %v", err)
	}
	return uc, nil
}

func targetPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}
