package service

import (
	"github.com/ludo-technologies/sdlcguard/domain"
	"github.com/ludo-technologies/sdlcguard/internal/config"
)

// ConfigOverrides are command line values that take precedence over the
// config file. Zero values leave the file's settings alone.
type ConfigOverrides struct {
	Level          string
	Format         string
	NoColor        bool
	ShowDetails    bool
	Verbose        bool
	MaxConcurrency int
}

// ConfigurationLoaderImpl resolves the configuration for a run
type ConfigurationLoaderImpl struct{}

// NewConfigurationLoader creates a new configuration loader service
func NewConfigurationLoader() *ConfigurationLoaderImpl {
	return &ConfigurationLoaderImpl{}
}

// LoadConfig loads path, or discovers a config file near target when path
// is empty
func (c *ConfigurationLoaderImpl) LoadConfig(path, target string) (*config.Config, error) {
	cfg, err := config.LoadConfigWithTarget(path, target)
	if err != nil {
		return nil, domain.NewConfigError("failed to load configuration", err)
	}
	return cfg, nil
}

// FindDefaultConfigFile reports which file LoadConfig would read for target
func (c *ConfigurationLoaderImpl) FindDefaultConfigFile(target string) string {
	return config.FindConfigFile(target)
}

// MergeConfig returns a copy of base with overrides applied and validated
func (c *ConfigurationLoaderImpl) MergeConfig(base *config.Config, override ConfigOverrides) (*config.Config, error) {
	merged := *base

	if override.Level != "" {
		level, err := domain.ParseLevel(override.Level)
		if err != nil {
			return nil, err
		}
		merged.Level = string(level)
	}
	if override.Format != "" {
		format, err := domain.ParseOutputFormat(override.Format)
		if err != nil {
			return nil, err
		}
		merged.Output.Format = string(format)
	}
	if override.NoColor {
		merged.Output.Color = false
	}
	if override.ShowDetails {
		merged.Output.ShowDetails = true
	}
	if override.Verbose {
		merged.Logging.Level = "debug"
	}
	if override.MaxConcurrency > 0 {
		merged.Execution.MaxConcurrency = override.MaxConcurrency
	}

	if err := merged.Validate(); err != nil {
		return nil, domain.NewConfigError("invalid configuration", err)
	}
	return &merged, nil
}
