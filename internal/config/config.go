package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/ludo-technologies/sdlcguard/internal/constants"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Default execution settings
const (
	// DefaultToolTimeoutSeconds bounds every external tool invocation
	DefaultToolTimeoutSeconds = 120

	// DefaultRunTimeoutSeconds bounds the whole check phase
	DefaultRunTimeoutSeconds = 900

	// DefaultMaxDetailBytes truncates tool output copied into results
	DefaultMaxDetailBytes = 4000
)

// Default check thresholds
const (
	// DefaultComplexityThreshold is the number of distinct complexity
	// keywords a proposal needs before a plan is required
	DefaultComplexityThreshold = 3

	// DefaultRetrospectiveStaleHours is how far a retrospective may lag
	// behind the branch's last commit before it is reported as stale
	DefaultRetrospectiveStaleHours = 72

	// DefaultCommitHistoryDepth is how many recent commits are inspected
	DefaultCommitHistoryDepth = 5

	// DefaultRecentActivityMinutes is the window for design-phase detection
	DefaultRecentActivityMinutes = 60
)

// Config represents the main configuration structure
type Config struct {
	// Level is the fallback level when no override file exists.
	// Empty means production.
	Level string `json:"level" mapstructure:"level" yaml:"level"`

	// Execution controls concurrency and timeouts
	Execution ExecutionConfig `json:"execution" mapstructure:"execution" yaml:"execution"`

	// Checks holds the parameters of the compiled-in checks
	Checks ChecksConfig `json:"checks" mapstructure:"checks" yaml:"checks"`

	// Gate holds phase detection settings and artifact rules
	Gate GateConfig `json:"gate" mapstructure:"gate" yaml:"gate"`

	// Output holds output formatting configuration
	Output OutputConfig `json:"output" mapstructure:"output" yaml:"output"`

	// Logging holds logger configuration
	Logging LoggingConfig `json:"logging" mapstructure:"logging" yaml:"logging"`
}

// ExecutionConfig holds concurrency and timeout settings
type ExecutionConfig struct {
	// MaxConcurrency caps parallel checks. 0 means number of CPUs.
	MaxConcurrency int `json:"max_concurrency" mapstructure:"max_concurrency" yaml:"max_concurrency"`

	// ToolTimeoutSeconds bounds each external tool run
	ToolTimeoutSeconds int `json:"tool_timeout_seconds" mapstructure:"tool_timeout_seconds" yaml:"tool_timeout_seconds"`

	// RunTimeoutSeconds bounds the whole check phase
	RunTimeoutSeconds int `json:"run_timeout_seconds" mapstructure:"run_timeout_seconds" yaml:"run_timeout_seconds"`
}

// ChecksConfig holds the parameters used by individual checks
type ChecksConfig struct {
	ProposalDirs        []string `json:"proposal_dirs" mapstructure:"proposal_dirs" yaml:"proposal_dirs"`
	PlanDirs            []string `json:"plan_dirs" mapstructure:"plan_dirs" yaml:"plan_dirs"`
	RetrospectiveDirs   []string `json:"retrospective_dirs" mapstructure:"retrospective_dirs" yaml:"retrospective_dirs"`
	ArchitectureDocs    []string `json:"architecture_docs" mapstructure:"architecture_docs" yaml:"architecture_docs"`
	PrototypeDesignDocs []string `json:"prototype_design_docs" mapstructure:"prototype_design_docs" yaml:"prototype_design_docs"`
	TemplateMarkers     []string `json:"template_markers" mapstructure:"template_markers" yaml:"template_markers"`

	// Branch naming
	AllowedBranchPrefixes []string `json:"allowed_branch_prefixes" mapstructure:"allowed_branch_prefixes" yaml:"allowed_branch_prefixes"`
	ProtectedBranches     []string `json:"protected_branches" mapstructure:"protected_branches" yaml:"protected_branches"`

	// Source scanning
	DebtMarkers      []string `json:"debt_markers" mapstructure:"debt_markers" yaml:"debt_markers"`
	SkipDirs         []string `json:"skip_dirs" mapstructure:"skip_dirs" yaml:"skip_dirs"`
	SourceExtensions []string `json:"source_extensions" mapstructure:"source_extensions" yaml:"source_extensions"`

	// Documents and keywords
	AIDocFiles         []string `json:"ai_doc_files" mapstructure:"ai_doc_files" yaml:"ai_doc_files"`
	SensitiveKeywords  []string `json:"sensitive_keywords" mapstructure:"sensitive_keywords" yaml:"sensitive_keywords"`
	ComplexityKeywords []string `json:"complexity_keywords" mapstructure:"complexity_keywords" yaml:"complexity_keywords"`
	CommitPrefixes     []string `json:"commit_prefixes" mapstructure:"commit_prefixes" yaml:"commit_prefixes"`

	// Thresholds
	ComplexityThreshold     int `json:"complexity_threshold" mapstructure:"complexity_threshold" yaml:"complexity_threshold"`
	RetrospectiveStaleHours int `json:"retrospective_stale_hours" mapstructure:"retrospective_stale_hours" yaml:"retrospective_stale_hours"`
	CommitHistoryDepth      int `json:"commit_history_depth" mapstructure:"commit_history_depth" yaml:"commit_history_depth"`
	MaxDetailBytes          int `json:"max_detail_bytes" mapstructure:"max_detail_bytes" yaml:"max_detail_bytes"`
}

// GateConfig holds phase detection settings and artifact rules
type GateConfig struct {
	// RecentActivityMinutes is the window used to detect the design phase
	RecentActivityMinutes int `json:"recent_activity_minutes" mapstructure:"recent_activity_minutes" yaml:"recent_activity_minutes"`

	// SourceDirs signal the implementation phase when present
	SourceDirs []string `json:"source_dirs" mapstructure:"source_dirs" yaml:"source_dirs"`

	// Rules override the artifacts required per phase
	Rules map[string][]string `json:"rules" mapstructure:"rules" yaml:"rules,omitempty"`
}

// OutputConfig holds configuration for output formatting
type OutputConfig struct {
	// Format specifies the console format: console, json, markdown
	Format string `json:"format" mapstructure:"format" yaml:"format"`

	// Color enables styled console output on terminals
	Color bool `json:"color" mapstructure:"color" yaml:"color"`

	// ShowDetails prints details for non-failing results too
	ShowDetails bool `json:"show_details" mapstructure:"show_details" yaml:"show_details"`
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `json:"level" mapstructure:"level" yaml:"level"`

	// Format is console or json
	Format string `json:"format" mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Level: "",
		Execution: ExecutionConfig{
			MaxConcurrency:     0,
			ToolTimeoutSeconds: DefaultToolTimeoutSeconds,
			RunTimeoutSeconds:  DefaultRunTimeoutSeconds,
		},
		Checks: ChecksConfig{
			ProposalDirs:      []string{"docs/feature-proposals", "feature-proposals", "proposals", "docs/proposals"},
			PlanDirs:          []string{"plan", "plans", "docs/plans"},
			RetrospectiveDirs: []string{"retrospectives", "docs/retrospectives", "retros"},
			ArchitectureDocs: []string{
				"requirements-traceability-matrix.md",
				"what-if-analysis.md",
				"architecture-decision-record.md",
				"system-invariants.md",
				"integration-design.md",
				"failure-mode-analysis.md",
			},
			PrototypeDesignDocs:   []string{"docs/basic-design.md", "docs/feature-intent.md"},
			TemplateMarkers:       []string{"[Feature Name]", "[YYYY-MM-DD]", "[Team/Roles responsible]"},
			AllowedBranchPrefixes: []string{"feature/", "fix/", "enhancement/"},
			ProtectedBranches:     []string{"main", "master"},
			DebtMarkers:           []string{"TODO", "FIXME", "HACK"},
			SkipDirs: []string{
				"node_modules", ".git", "__pycache__", "venv", "env", ".venv",
				"dist", "build", "coverage", ".pytest_cache", ".mypy_cache",
				"target", ".idea", ".vscode", "vendor",
			},
			SourceExtensions: []string{
				".py", ".js", ".ts", ".jsx", ".tsx", ".java", ".go", ".rs",
				".cpp", ".c", ".h", ".rb", ".php", ".cs", ".swift", ".kt",
				".scala", ".r", ".m", ".mm",
			},
			AIDocFiles:        []string{"CLAUDE.md", "GEMINI.md", "GPT.md"},
			SensitiveKeywords: []string{"password", "passwd", "secret", "token", "api_key", "apikey", "private_key", "credential"},
			ComplexityKeywords: []string{
				"multi-phase", "architecture change", "database migration",
				"multiple components", "breaking change", "new service",
				"schema change", "api change", "refactor", "integration",
			},
			CommitPrefixes: []string{
				"feat:", "fix:", "docs:", "style:", "refactor:",
				"test:", "chore:", "perf:", "ci:", "build:",
			},
			ComplexityThreshold:     DefaultComplexityThreshold,
			RetrospectiveStaleHours: DefaultRetrospectiveStaleHours,
			CommitHistoryDepth:      DefaultCommitHistoryDepth,
			MaxDetailBytes:          DefaultMaxDetailBytes,
		},
		Gate: GateConfig{
			RecentActivityMinutes: DefaultRecentActivityMinutes,
			SourceDirs:            []string{"src", "lib", "app", "cmd", "pkg"},
		},
		Output: OutputConfig{
			Format:      constants.OutputFormatConsole,
			Color:       true,
			ShowDetails: false,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from file or returns default config
func LoadConfig(configPath string) (*Config, error) {
	return LoadConfigWithTarget(configPath, "")
}

// LoadConfigWithTarget discovers a config file near targetPath when
// configPath is empty, then loads it with environment overrides applied.
func LoadConfigWithTarget(configPath string, targetPath string) (*Config, error) {
	if configPath == "" {
		configPath = findDefaultConfig(targetPath)
	}
	return loadConfigFromFile(configPath)
}

// loadConfigFromFile reads and parses a configuration file.
// An empty path yields defaults plus environment overrides.
func loadConfigFromFile(configPath string) (*Config, error) {
	// Create a new viper instance to avoid race conditions
	v := viper.New()
	v.SetEnvPrefix(constants.EnvVarPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envBoundKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	config := DefaultConfig()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	// Lists from the file replace the defaults instead of merging by index
	replaceLists := viper.DecoderConfigOption(func(dc *mapstructure.DecoderConfig) {
		dc.ZeroFields = true
	})
	if err := v.Unmarshal(config, replaceLists); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// envBoundKeys can be set through SDLCGUARD_* variables without a file
var envBoundKeys = []string{
	"level",
	"execution.max_concurrency",
	"execution.tool_timeout_seconds",
	"execution.run_timeout_seconds",
	"output.format",
	"output.color",
	"logging.level",
	"logging.format",
}

// searchConfigInDirectory searches for configuration files in a specific directory
func searchConfigInDirectory(dir string, candidates []string) string {
	for _, candidate := range candidates {
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigCandidates lists the recognised config file names in priority order
func ConfigCandidates() []string {
	return []string{
		constants.ConfigFileName,
		".sdlcguard.yml",
		"sdlcguard.yaml",
		".sdlcguard.toml",
		".sdlcguard.json",
	}
}

// FindConfigFile returns the config file LoadConfigWithTarget would use for
// targetPath, or "" when only defaults apply
func FindConfigFile(targetPath string) string {
	return findDefaultConfig(targetPath)
}

// findDefaultConfig looks for a config file from targetPath upward, then in
// the user config directory
func findDefaultConfig(targetPath string) string {
	candidates := ConfigCandidates()

	if targetPath != "" {
		absPath, err := filepath.Abs(targetPath)
		if err == nil {
			if info, err := os.Stat(absPath); err == nil && !info.IsDir() {
				absPath = filepath.Dir(absPath)
			}

			volume := filepath.VolumeName(absPath)
			for dir := absPath; ; dir = filepath.Dir(dir) {
				if config := searchConfigInDirectory(dir, candidates); config != "" {
					return config
				}

				parent := filepath.Dir(dir)
				if parent == dir ||
					dir == volume ||
					(volume != "" && dir == volume+string(filepath.Separator)) {
					break
				}
			}
		}
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		if config := searchConfigInDirectory(filepath.Join(xdgConfig, constants.ToolName), candidates); config != "" {
			return config
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		configDir := filepath.Join(home, ".config", constants.ToolName)
		if config := searchConfigInDirectory(configDir, candidates); config != "" {
			return config
		}
	}

	return ""
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if c.Level != "" {
		switch strings.ToLower(c.Level) {
		case "prototype", "production", "enterprise":
		default:
			return fmt.Errorf("invalid level '%s', must be one of: prototype, production, enterprise", c.Level)
		}
	}

	if c.Execution.MaxConcurrency < 0 {
		return fmt.Errorf("execution.max_concurrency must be >= 0, got %d", c.Execution.MaxConcurrency)
	}
	if c.Execution.ToolTimeoutSeconds <= 0 {
		return fmt.Errorf("execution.tool_timeout_seconds must be > 0, got %d", c.Execution.ToolTimeoutSeconds)
	}
	if c.Execution.RunTimeoutSeconds < c.Execution.ToolTimeoutSeconds {
		return fmt.Errorf("execution.run_timeout_seconds (%d) must be >= tool_timeout_seconds (%d)",
			c.Execution.RunTimeoutSeconds, c.Execution.ToolTimeoutSeconds)
	}

	if c.Checks.ComplexityThreshold < 1 {
		return fmt.Errorf("checks.complexity_threshold must be >= 1, got %d", c.Checks.ComplexityThreshold)
	}
	if c.Checks.RetrospectiveStaleHours < 0 {
		return fmt.Errorf("checks.retrospective_stale_hours must be >= 0, got %d", c.Checks.RetrospectiveStaleHours)
	}
	if c.Checks.CommitHistoryDepth < 1 {
		return fmt.Errorf("checks.commit_history_depth must be >= 1, got %d", c.Checks.CommitHistoryDepth)
	}
	if len(c.Checks.ProposalDirs) == 0 {
		return fmt.Errorf("checks.proposal_dirs cannot be empty")
	}
	if len(c.Checks.ArchitectureDocs) == 0 {
		return fmt.Errorf("checks.architecture_docs cannot be empty")
	}

	if c.Gate.RecentActivityMinutes < 0 {
		return fmt.Errorf("gate.recent_activity_minutes must be >= 0, got %d", c.Gate.RecentActivityMinutes)
	}
	for phase, artifacts := range c.Gate.Rules {
		switch phase {
		case "requirements", "design", "implementation", "review":
		default:
			return fmt.Errorf("invalid gate.rules phase '%s', must be one of: requirements, design, implementation, review", phase)
		}
		for _, artifact := range artifacts {
			if _, err := filepath.Match(artifact, ""); err != nil {
				return fmt.Errorf("invalid gate.rules.%s pattern '%s': %w", phase, artifact, err)
			}
		}
	}

	validFormats := map[string]bool{
		constants.OutputFormatConsole:  true,
		constants.OutputFormatJSON:     true,
		constants.OutputFormatMarkdown: true,
	}
	if !validFormats[c.Output.Format] {
		return fmt.Errorf("invalid output.format '%s', must be one of: console, json, markdown", c.Output.Format)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level '%s', must be one of: debug, info, warn, error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid logging.format '%s', must be one of: console, json", c.Logging.Format)
	}

	return nil
}

// Marshal renders the configuration as YAML
func Marshal(config *Config) ([]byte, error) {
	data, err := yaml.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// SaveConfig writes the configuration as YAML
func SaveConfig(config *Config, path string) error {
	data, err := Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
