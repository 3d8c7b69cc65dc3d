package config

import (
	"strconv"
	"strings"
)

// ProjectType represents the primary language stack of a project
type ProjectType string

const (
	ProjectTypeGeneric ProjectType = "generic"
	ProjectTypeGo      ProjectType = "go"
	ProjectTypeNode    ProjectType = "node"
	ProjectTypePython  ProjectType = "python"
)

// ProjectPreset holds scanning presets for a project type
type ProjectPreset struct {
	SourceExtensions []string
	SkipDirs         []string
}

// LevelPreset holds execution presets for a maturity level
type LevelPreset struct {
	Description        string
	ToolTimeoutSeconds int
	ShowDetails        bool
}

// GetProjectPresets returns presets for different project types
func GetProjectPresets() map[ProjectType]ProjectPreset {
	defaults := DefaultConfig().Checks
	return map[ProjectType]ProjectPreset{
		ProjectTypeGeneric: {
			SourceExtensions: defaults.SourceExtensions,
			SkipDirs:         defaults.SkipDirs,
		},
		ProjectTypeGo: {
			SourceExtensions: []string{".go"},
			SkipDirs:         []string{".git", "vendor", "bin", "dist", "testdata"},
		},
		ProjectTypeNode: {
			SourceExtensions: []string{".js", ".ts", ".jsx", ".tsx", ".mjs", ".cjs"},
			SkipDirs:         []string{".git", "node_modules", "dist", "build", "coverage", ".next", ".nuxt"},
		},
		ProjectTypePython: {
			SourceExtensions: []string{".py"},
			SkipDirs:         []string{".git", "__pycache__", "venv", ".venv", "env", "build", "dist", ".pytest_cache", ".mypy_cache"},
		},
	}
}

// GetLevelPresets returns presets for each maturity level
func GetLevelPresets() map[string]LevelPreset {
	return map[string]LevelPreset{
		"prototype": {
			Description:        "Fast iteration, only branch, retrospective and security are required",
			ToolTimeoutSeconds: 60,
			ShowDetails:        false,
		},
		"production": {
			Description:        "Proposals, architecture docs, tests and debt scanning are required",
			ToolTimeoutSeconds: DefaultToolTimeoutSeconds,
			ShowDetails:        false,
		},
		"enterprise": {
			Description:        "Every check is required",
			ToolTimeoutSeconds: 300,
			ShowDetails:        true,
		},
	}
}

// GetFullConfigTemplate returns the documented YAML config template
func GetFullConfigTemplate(projectType ProjectType, level string) string {
	project, ok := GetProjectPresets()[projectType]
	if !ok {
		project = GetProjectPresets()[ProjectTypeGeneric]
	}
	preset, ok := GetLevelPresets()[level]
	if !ok {
		level = "production"
		preset = GetLevelPresets()[level]
	}
	defaults := DefaultConfig()

	return `# sdlcguard configuration
# Documentation: https://github.com/ludo-technologies/sdlcguard

# Fallback maturity level when .sdlc/level.json is absent.
# ` + preset.Description + `
level: ` + level + `

execution:
  # Parallel checks (0 = number of CPUs)
  max_concurrency: 0
  # Per external tool timeout; a timeout marks the check as skipped
  tool_timeout_seconds: ` + strconv.Itoa(preset.ToolTimeoutSeconds) + `
  run_timeout_seconds: ` + strconv.Itoa(DefaultRunTimeoutSeconds) + `

checks:
  proposal_dirs:` + formatYAMLList(defaults.Checks.ProposalDirs) + `
  retrospective_dirs:` + formatYAMLList(defaults.Checks.RetrospectiveDirs) + `
  plan_dirs:` + formatYAMLList(defaults.Checks.PlanDirs) + `
  # Proposals hitting this many complexity keywords need an implementation plan
  complexity_threshold: ` + strconv.Itoa(defaults.Checks.ComplexityThreshold) + `
  # Retrospectives older than the last commit by this much are stale
  retrospective_stale_hours: ` + strconv.Itoa(defaults.Checks.RetrospectiveStaleHours) + `
  commit_history_depth: ` + strconv.Itoa(defaults.Checks.CommitHistoryDepth) + `
  source_extensions:` + formatYAMLList(project.SourceExtensions) + `
  skip_dirs:` + formatYAMLList(project.SkipDirs) + `

gate:
  # Architecture docs touched within this window put the repo in the design phase
  recent_activity_minutes: ` + strconv.Itoa(defaults.Gate.RecentActivityMinutes) + `
  source_dirs:` + formatYAMLList(defaults.Gate.SourceDirs) + `
  # Override the artifacts a phase requires (paths or globs)
  # rules:
  #   requirements:
  #     - docs/feature-proposals/*.md

output:
  format: console
  color: true
  show_details: ` + strconv.FormatBool(preset.ShowDetails) + `

logging:
  level: warn
  format: console
`
}

// GetMinimalConfigTemplate returns a minimal config template
func GetMinimalConfigTemplate(level string) string {
	if _, ok := GetLevelPresets()[level]; !ok {
		level = "production"
	}
	return `# sdlcguard configuration (minimal)
# See full options: https://github.com/ludo-technologies/sdlcguard

level: ` + level + `

execution:
  tool_timeout_seconds: ` + strconv.Itoa(DefaultToolTimeoutSeconds) + `
`
}

// formatYAMLList renders items as an indented YAML block sequence
func formatYAMLList(items []string) string {
	if len(items) == 0 {
		return " []"
	}

	var sb strings.Builder
	for _, item := range items {
		sb.WriteString("\n    - ")
		sb.WriteString(strconv.Quote(item))
	}
	return sb.String()
}
