package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ludo-technologies/sdlcguard/domain"
	"github.com/ludo-technologies/sdlcguard/internal/redact"
	"go.uber.org/zap"
)

// toolCandidate runs when its marker file exists. An empty marker always
// matches.
type toolCandidate struct {
	Marker string
	Name   string
	Args   []string
}

func (t toolCandidate) commandLine() string {
	return strings.TrimSpace(t.Name + " " + strings.Join(t.Args, " "))
}

// externalCheck delegates to the first applicable external tool
type externalCheck struct {
	deps       CheckDeps
	check      domain.Check
	candidates []toolCandidate
	// failStatus maps a non-zero exit to a status for the level
	failStatus func(level domain.Level) domain.Status
	fixHint    string
}

func alwaysFail(domain.Level) domain.Status { return domain.StatusFail }

func failAtEnterprise(level domain.Level) domain.Status {
	return severity(level, domain.LevelEnterprise, domain.StatusWarn)
}

func newSecurityScanCheck(deps CheckDeps) *externalCheck {
	return &externalCheck{
		deps: deps,
		check: domain.Check{
			ID:          domain.CheckSecurityScan,
			Category:    domain.CategorySecurity,
			Description: "No secrets are committed (gitleaks)",
		},
		candidates: []toolCandidate{
			{Name: "gitleaks", Args: []string{"detect", "--no-banner", "--redact", "--source", ".", "--exit-code", "1"}},
		},
		failStatus: alwaysFail,
		fixHint:    "Remove the leaked secrets, rotate them, and add false positives to .gitleaksignore",
	}
}

func newTestCoverageCheck(deps CheckDeps) *externalCheck {
	return &externalCheck{
		deps: deps,
		check: domain.Check{
			ID:          domain.CheckTestCoverage,
			Category:    domain.CategoryQuality,
			Description: "The project test suite passes",
		},
		candidates: []toolCandidate{
			{Marker: "go.mod", Name: "go", Args: []string{"test", "-cover", "./..."}},
			{Marker: "package.json", Name: "npm", Args: []string{"test", "--silent"}},
			{Marker: "pyproject.toml", Name: "pytest", Args: []string{"--cov", "-q"}},
			{Marker: "setup.py", Name: "pytest", Args: []string{"--cov", "-q"}},
			{Marker: "requirements.txt", Name: "pytest", Args: []string{"--cov", "-q"}},
		},
		failStatus: alwaysFail,
		fixHint:    "Fix the failing tests shown in the details",
	}
}

func newDependencyCheck(deps CheckDeps) *externalCheck {
	return &externalCheck{
		deps: deps,
		check: domain.Check{
			ID:               domain.CheckDependencies,
			Category:         domain.CategorySecurity,
			LevelOverridable: true,
			Description:      "Dependencies are consistent and free of known advisories",
		},
		candidates: []toolCandidate{
			{Marker: "go.mod", Name: "go", Args: []string{"mod", "verify"}},
			{Marker: "package.json", Name: "npm", Args: []string{"audit", "--audit-level=high"}},
			{Marker: "requirements.txt", Name: "pip", Args: []string{"check"}},
			{Marker: "pyproject.toml", Name: "pip", Args: []string{"check"}},
			{Marker: "Gemfile", Name: "bundle", Args: []string{"check"}},
		},
		failStatus: failAtEnterprise,
		fixHint:    "Update or replace the dependencies reported in the details",
	}
}

func newTypeSafetyCheck(deps CheckDeps) *externalCheck {
	return &externalCheck{
		deps: deps,
		check: domain.Check{
			ID:          domain.CheckTypeSafety,
			Category:    domain.CategoryQuality,
			Description: "The static type checker reports no errors",
		},
		candidates: []toolCandidate{
			{Marker: "go.mod", Name: "go", Args: []string{"vet", "./..."}},
			{Marker: "tsconfig.json", Name: "npx", Args: []string{"--no-install", "tsc", "--noEmit"}},
			{Marker: "mypy.ini", Name: "mypy", Args: []string{"."}},
			{Marker: "pyproject.toml", Name: "mypy", Args: []string{"."}},
		},
		failStatus: alwaysFail,
		fixHint:    "Fix the type errors shown in the details",
	}
}

func newCodeQualityCheck(deps CheckDeps) *externalCheck {
	return &externalCheck{
		deps: deps,
		check: domain.Check{
			ID:               domain.CheckCodeQuality,
			Category:         domain.CategoryQuality,
			LevelOverridable: true,
			Description:      "The project linter reports no issues",
		},
		candidates: []toolCandidate{
			{Marker: "go.mod", Name: "golangci-lint", Args: []string{"run"}},
			{Marker: "package.json", Name: "npx", Args: []string{"--no-install", "eslint", "."}},
			{Marker: "pyproject.toml", Name: "flake8", Args: []string{"."}},
			{Marker: "setup.py", Name: "flake8", Args: []string{"."}},
			{Marker: "requirements.txt", Name: "flake8", Args: []string{"."}},
		},
		failStatus: failAtEnterprise,
		fixHint:    "Address the lint findings shown in the details",
	}
}

func (c *externalCheck) Check() domain.Check {
	return c.check
}

func (c *externalCheck) Run(ctx context.Context, env domain.CheckEnv) (domain.CheckResult, error) {
	root := env.Repo.RootPath
	candidate, ok := c.selectTool(root)
	if !ok {
		return newResult(domain.StatusSkip,
			"No supported project type detected",
			"Looked for "+c.markers(),
			"",
		), nil
	}

	inv := domain.ToolInvocation{
		Name:    candidate.Name,
		Args:    candidate.Args,
		Dir:     root,
		Timeout: c.deps.ToolTimeout,
	}
	c.deps.Logger.Debug(ctx, "running external tool",
		zap.String("check", string(c.check.ID)),
		zap.String("command", candidate.commandLine()),
	)

	result, err := c.deps.Tools.Run(ctx, inv)
	switch {
	case errors.Is(err, domain.ErrToolMissing):
		c.deps.Logger.Warn(ctx, "external tool not installed",
			zap.String("check", string(c.check.ID)), zap.String("tool", candidate.Name))
		return newResult(domain.StatusSkip,
			fmt.Sprintf("%s is not installed", candidate.Name),
			err.Error(),
			fmt.Sprintf("Install %s to enable %s", candidate.Name, c.check.ID),
		), nil
	case errors.Is(err, domain.ErrToolTimeout):
		c.deps.Logger.Warn(ctx, "external tool timed out",
			zap.String("check", string(c.check.ID)), zap.Duration("timeout", c.deps.ToolTimeout))
		return newResult(domain.StatusSkip,
			fmt.Sprintf("%s timed out after %s", candidate.Name, c.deps.ToolTimeout),
			c.clean(resultOutput(result)),
			"Raise execution.tool_timeout_seconds or run the tool manually",
		), nil
	case err != nil:
		return domain.CheckResult{}, fmt.Errorf("%s: %w", candidate.commandLine(), err)
	}

	details := c.clean(result.Output())
	if result.Succeeded() {
		return newResult(domain.StatusPass,
			fmt.Sprintf("%s passed", candidate.commandLine()), details, ""), nil
	}
	return newResult(c.failStatus(env.Level),
		fmt.Sprintf("%s reported problems (exit %d)", candidate.commandLine(), result.ExitCode),
		details,
		c.fixHint,
	), nil
}

func (c *externalCheck) selectTool(root string) (toolCandidate, bool) {
	for _, t := range c.candidates {
		if t.Marker == "" || fileExists(root, t.Marker) {
			return t, true
		}
	}
	return toolCandidate{}, false
}

func (c *externalCheck) markers() string {
	seen := make(map[string]bool)
	var markers []string
	for _, t := range c.candidates {
		if t.Marker != "" && !seen[t.Marker] {
			seen[t.Marker] = true
			markers = append(markers, t.Marker)
		}
	}
	return strings.Join(markers, ", ")
}

// clean truncates tool output then scrubs secrets from what remains
func (c *externalCheck) clean(output string) string {
	output = strings.TrimSpace(output)
	return c.deps.Redactor.Scrub(redact.Truncate(output, c.deps.Config.MaxDetailBytes))
}

func resultOutput(result *domain.ToolResult) string {
	if result == nil {
		return ""
	}
	return result.Output()
}
