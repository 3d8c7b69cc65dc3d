package domain

import "fmt"

// Phase is the inferred SDLC phase of a repository
type Phase string

const (
	PhaseRequirements   Phase = "requirements"
	PhaseDesign         Phase = "design"
	PhaseImplementation Phase = "implementation"
	PhaseReview         Phase = "review"
)

// AllPhases returns phases in lifecycle order
func AllPhases() []Phase {
	return []Phase{PhaseRequirements, PhaseDesign, PhaseImplementation, PhaseReview}
}

// ParsePhase converts a string into a Phase
func ParsePhase(s string) (Phase, error) {
	for _, p := range AllPhases() {
		if string(p) == s {
			return p, nil
		}
	}
	return "", NewInvalidInputError(fmt.Sprintf("unknown phase %q", s), nil)
}

// Gate is the phase-based verdict computed once per run
type Gate struct {
	Phase             Phase    `json:"phase"`
	RequiredArtifacts []string `json:"required_artifacts"`
	Passed            bool     `json:"passed"`
	Issues            []string `json:"issues"`
}

// GateRules maps each phase to the artifacts it requires.
// Entries are repository-relative paths or glob patterns.
type GateRules map[Phase][]string

// GateEnforcer infers the phase and evaluates its artifact rules
type GateEnforcer interface {
	DeterminePhase(repo *RepositoryContext) Phase
	Evaluate(repo *RepositoryContext) Gate
}
