package domain

import (
	"context"
	"fmt"
	"strings"
)

// CheckID identifies a compiled-in compliance check
type CheckID string

// Check identifiers in catalog registration order
const (
	CheckBranchCompliance   CheckID = "branch-compliance"
	CheckFeatureProposal    CheckID = "feature-proposal"
	CheckImplementationPlan CheckID = "implementation-plan"
	CheckRetrospective      CheckID = "retrospective"
	CheckArchitectureDocs   CheckID = "architecture-documentation"
	CheckTechnicalDebt      CheckID = "technical-debt"
	CheckAIDocumentation    CheckID = "ai-documentation"
	CheckTypeSafety         CheckID = "type-safety"
	CheckSecurityScan       CheckID = "security-scan"
	CheckTestCoverage       CheckID = "test-coverage"
	CheckCodeQuality        CheckID = "code-quality"
	CheckDependencies       CheckID = "dependency-check"
	CheckCommitHistory      CheckID = "commit-history"
	CheckLoggingCompliance  CheckID = "logging-compliance"
)

// AllCheckIDs returns every known check id in registration order
func AllCheckIDs() []CheckID {
	return []CheckID{
		CheckBranchCompliance,
		CheckFeatureProposal,
		CheckImplementationPlan,
		CheckRetrospective,
		CheckArchitectureDocs,
		CheckTechnicalDebt,
		CheckAIDocumentation,
		CheckTypeSafety,
		CheckSecurityScan,
		CheckTestCoverage,
		CheckCodeQuality,
		CheckDependencies,
		CheckCommitHistory,
		CheckLoggingCompliance,
	}
}

// checkAliases maps legacy short names to canonical ids
var checkAliases = map[string]CheckID{
	"branch":       CheckBranchCompliance,
	"proposal":     CheckFeatureProposal,
	"plan":         CheckImplementationPlan,
	"retro":        CheckRetrospective,
	"architecture": CheckArchitectureDocs,
	"debt":         CheckTechnicalDebt,
	"ai-docs":      CheckAIDocumentation,
	"types":        CheckTypeSafety,
	"security":     CheckSecurityScan,
	"tests":        CheckTestCoverage,
	"lint":         CheckCodeQuality,
	"dependencies": CheckDependencies,
	"commits":      CheckCommitHistory,
	"logging":      CheckLoggingCompliance,
}

// ParseCheckID converts a user supplied name into a CheckID.
// Unknown names are rejected rather than ignored.
func ParseCheckID(name string) (CheckID, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for _, id := range AllCheckIDs() {
		if string(id) == normalized {
			return id, nil
		}
	}
	if id, ok := checkAliases[normalized]; ok {
		return id, nil
	}
	return "", NewInvalidInputError(fmt.Sprintf("unknown check id %q", name), nil)
}

// ParseCheckIDs parses a list of names, dropping duplicates
func ParseCheckIDs(names []string) ([]CheckID, error) {
	seen := make(map[CheckID]bool, len(names))
	ids := make([]CheckID, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		id, err := ParseCheckID(name)
		if err != nil {
			return nil, err
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Category groups checks for display
type Category string

const (
	CategoryProcess       Category = "process"
	CategoryDocumentation Category = "documentation"
	CategoryQuality       Category = "quality"
	CategorySecurity      Category = "security"
)

// Check describes a registered check
type Check struct {
	ID               CheckID  `json:"id"`
	Category         Category `json:"category"`
	LevelOverridable bool     `json:"level_overridable"`
	Description      string   `json:"description"`
}

// Status is the outcome of a single check
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
	StatusWarn Status = "warn"
	StatusSkip Status = "skip"
	StatusInfo Status = "info"
)

// CheckResult is the outcome of running one check
type CheckResult struct {
	CheckID CheckID `json:"check"`
	Status  Status  `json:"status"`
	Message string  `json:"message"`
	Details string  `json:"details"`
	FixHint string  `json:"fix_hint"`
}

// IsFailure reports whether the result blocks success when required
func (r CheckResult) IsFailure() bool {
	return r.Status == StatusFail
}

// CheckEnv is everything a check may read. Checks must not mutate it.
type CheckEnv struct {
	Repo  *RepositoryContext
	Level Level
}

// CheckRunner is implemented by every compiled-in check
type CheckRunner interface {
	Check() Check
	Run(ctx context.Context, env CheckEnv) (CheckResult, error)
}

// CheckCatalog is the closed registry of checks
type CheckCatalog interface {
	// List returns checks in registration order
	List() []Check

	// Run executes one check and always returns a result
	Run(ctx context.Context, id CheckID, env CheckEnv) CheckResult
}
