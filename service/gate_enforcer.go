package service

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ludo-technologies/sdlcguard/domain"
	"github.com/ludo-technologies/sdlcguard/internal/config"
	"github.com/ludo-technologies/sdlcguard/internal/constants"
)

// DefaultGateRules returns the artifacts each phase requires
func DefaultGateRules(architectureDocs []string) domain.GateRules {
	design := make([]string, 0, len(architectureDocs))
	for _, doc := range architectureDocs {
		design = append(design, path.Join(constants.ArchitectureDir, doc))
	}
	return domain.GateRules{
		domain.PhaseRequirements:   {"docs/feature-proposals/*.md"},
		domain.PhaseDesign:         design,
		domain.PhaseImplementation: {"docs/feature-proposals/*.md", constants.ArchitectureDir + "/*.md"},
		domain.PhaseReview:         {"docs/feature-proposals/*.md", "retrospectives/*.md"},
	}
}

// GateEnforcerImpl implements domain.GateEnforcer. Rules are fixed at
// construction so evaluation depends only on the repository snapshot.
type GateEnforcerImpl struct {
	rules domain.GateRules
}

// NewGateEnforcer creates an enforcer with explicit rules
func NewGateEnforcer(rules domain.GateRules) *GateEnforcerImpl {
	copied := make(domain.GateRules, len(rules))
	for phase, artifacts := range rules {
		copied[phase] = append([]string(nil), artifacts...)
	}
	return &GateEnforcerImpl{rules: copied}
}

// NewGateEnforcerFromConfig starts from the default rules and replaces the
// phases the config overrides
func NewGateEnforcerFromConfig(cfg *config.Config) *GateEnforcerImpl {
	rules := DefaultGateRules(cfg.Checks.ArchitectureDocs)
	for name, artifacts := range cfg.Gate.Rules {
		phase, err := domain.ParsePhase(name)
		if err != nil {
			// Validate rejects these; ignore rather than guess
			continue
		}
		rules[phase] = artifacts
	}
	return NewGateEnforcer(rules)
}

// Rules returns the artifacts required by phase
func (g *GateEnforcerImpl) Rules(phase domain.Phase) []string {
	return append([]string(nil), g.rules[phase]...)
}

// DeterminePhase infers the phase. Heuristics are checked in order and the
// first match wins.
func (g *GateEnforcerImpl) DeterminePhase(repo *domain.RepositoryContext) domain.Phase {
	for _, file := range repo.RecentFileActivity {
		if strings.HasPrefix(file, constants.ArchitectureDir+"/") {
			return domain.PhaseDesign
		}
	}
	if len(repo.SourceDirs) > 0 {
		return domain.PhaseImplementation
	}
	if repo.CI.IsPullRequest() {
		return domain.PhaseReview
	}
	return domain.PhaseRequirements
}

// Evaluate checks every artifact the current phase requires
func (g *GateEnforcerImpl) Evaluate(repo *domain.RepositoryContext) domain.Gate {
	phase := g.DeterminePhase(repo)
	artifacts := g.Rules(phase)

	var issues []string
	for _, artifact := range artifacts {
		if issue := checkArtifact(repo.RootPath, artifact); issue != "" {
			issues = append(issues, issue)
		}
	}

	return domain.Gate{
		Phase:             phase,
		RequiredArtifacts: artifacts,
		Passed:            len(issues) == 0,
		Issues:            issues,
	}
}

// checkArtifact returns an issue for a missing artifact, or "".
// Glob patterns need at least one match.
func checkArtifact(root, artifact string) string {
	full := filepath.Join(root, filepath.FromSlash(artifact))
	if !isGlob(artifact) {
		if _, err := os.Stat(full); err != nil {
			return fmt.Sprintf("Missing required artifact: %s", artifact)
		}
		return ""
	}

	matches, err := filepath.Glob(full)
	if err != nil {
		return fmt.Sprintf("Invalid artifact pattern %s: %v", artifact, err)
	}
	sort.Strings(matches)
	if len(matches) == 0 {
		return fmt.Sprintf("No files match required artifact pattern: %s", artifact)
	}
	return ""
}

func isGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[")
}
