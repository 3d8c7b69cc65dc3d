package service

import (
	"fmt"

	"github.com/ludo-technologies/sdlcguard/domain"
)

// levelTable is the policy data. Check implementations apply their own
// per-level severity; nothing else branches on level.
var levelTable = map[domain.Level]domain.CheckSet{
	domain.LevelPrototype: {
		Required: []domain.CheckID{
			domain.CheckBranchCompliance,
			domain.CheckRetrospective,
			domain.CheckSecurityScan,
		},
		Optional: []domain.CheckID{
			domain.CheckFeatureProposal,
			domain.CheckArchitectureDocs,
			domain.CheckTechnicalDebt,
			domain.CheckTestCoverage,
			domain.CheckCodeQuality,
			domain.CheckAIDocumentation,
		},
		Skip: []domain.CheckID{
			domain.CheckImplementationPlan,
			domain.CheckTypeSafety,
			domain.CheckDependencies,
			domain.CheckCommitHistory,
			domain.CheckLoggingCompliance,
		},
	},
	domain.LevelProduction: {
		Required: []domain.CheckID{
			domain.CheckBranchCompliance,
			domain.CheckFeatureProposal,
			domain.CheckRetrospective,
			domain.CheckArchitectureDocs,
			domain.CheckTechnicalDebt,
			domain.CheckTypeSafety,
			domain.CheckSecurityScan,
			domain.CheckTestCoverage,
		},
		Optional: []domain.CheckID{
			domain.CheckImplementationPlan,
			domain.CheckAIDocumentation,
			domain.CheckCodeQuality,
			domain.CheckDependencies,
			domain.CheckCommitHistory,
		},
		Skip: []domain.CheckID{
			domain.CheckLoggingCompliance,
		},
	},
	domain.LevelEnterprise: {
		Required: domain.AllCheckIDs(),
	},
}

// LevelPolicyImpl implements domain.LevelPolicy over the static table
type LevelPolicyImpl struct {
	fallback domain.Level
}

// NewLevelPolicy creates a policy. fallback is used when no override file
// exists; an empty or invalid fallback means production.
func NewLevelPolicy(fallback string) *LevelPolicyImpl {
	level, err := domain.ParseLevel(fallback)
	if err != nil {
		level = domain.DefaultLevel
	}
	return &LevelPolicyImpl{fallback: level}
}

// Resolve returns copies of the sets for level
func (p *LevelPolicyImpl) Resolve(level domain.Level) domain.CheckSet {
	set, ok := levelTable[level]
	if !ok {
		set = levelTable[domain.DefaultLevel]
	}
	return domain.CheckSet{
		Required: append([]domain.CheckID(nil), set.Required...),
		Optional: append([]domain.CheckID(nil), set.Optional...),
		Skip:     append([]domain.CheckID(nil), set.Skip...),
	}
}

// Detect reads the override through store. Read problems never abort the
// run; they downgrade to production with a notice.
func (p *LevelPolicyImpl) Detect(repo *domain.RepositoryContext, store domain.ConfigStore) (domain.Level, []string) {
	if store == nil {
		store = NewFileConfigStore(repo.RootPath)
	}

	level, found, err := store.ReadLevel()
	if err != nil {
		return domain.DefaultLevel, []string{
			fmt.Sprintf("Ignoring level override %s (%v); using %s", store.Location(), err, domain.DefaultLevel),
		}
	}
	if !found {
		return p.fallback, nil
	}
	return level, nil
}

// EffectiveChecks computes the checks to run, in catalog order
func (p *LevelPolicyImpl) EffectiveChecks(level domain.Level, requested []domain.CheckID, strict bool) []domain.CheckID {
	set := p.Resolve(level)

	wanted := make(map[domain.CheckID]bool)
	for _, id := range set.Required {
		wanted[id] = true
	}
	if !strict {
		base := requested
		if len(base) == 0 {
			base = set.Optional
		}
		for _, id := range base {
			wanted[id] = true
		}
	}

	effective := make([]domain.CheckID, 0, len(wanted))
	for _, id := range domain.AllCheckIDs() {
		if wanted[id] && !set.IsSkipped(id) {
			effective = append(effective, id)
		}
	}
	return effective
}
