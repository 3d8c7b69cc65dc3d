package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ludo-technologies/sdlcguard/domain"
	"github.com/ludo-technologies/sdlcguard/internal/config"
	"github.com/ludo-technologies/sdlcguard/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelTable_PartitionsCatalog(t *testing.T) {
	policy := NewLevelPolicy("")
	for _, level := range domain.AllLevels() {
		set := policy.Resolve(level)
		seen := make(map[domain.CheckID]int)
		for _, ids := range [][]domain.CheckID{set.Required, set.Optional, set.Skip} {
			for _, id := range ids {
				seen[id]++
			}
		}
		assert.Len(t, seen, len(domain.AllCheckIDs()), "level %s must classify every check", level)
		for id, n := range seen {
			assert.Equal(t, 1, n, "level %s lists %s more than once", level, id)
		}
	}
}

func TestLevelPolicy_Resolve(t *testing.T) {
	policy := NewLevelPolicy("")

	proto := policy.Resolve(domain.LevelPrototype)
	assert.Equal(t, []domain.CheckID{domain.CheckBranchCompliance, domain.CheckRetrospective, domain.CheckSecurityScan}, proto.Required)
	assert.True(t, proto.IsSkipped(domain.CheckImplementationPlan))

	prod := policy.Resolve(domain.LevelProduction)
	assert.True(t, prod.IsRequired(domain.CheckArchitectureDocs))
	assert.True(t, prod.IsSkipped(domain.CheckLoggingCompliance))

	ent := policy.Resolve(domain.LevelEnterprise)
	assert.Len(t, ent.Required, 14)
	assert.Empty(t, ent.Skip)

	// Callers cannot corrupt the table
	prod.Required[0] = "mutated"
	assert.Equal(t, domain.CheckBranchCompliance, policy.Resolve(domain.LevelProduction).Required[0])
}

func TestLevelPolicy_EffectiveChecks(t *testing.T) {
	policy := NewLevelPolicy("")

	tests := []struct {
		name      string
		level     domain.Level
		requested []domain.CheckID
		strict    bool
		want      []domain.CheckID
	}{
		{
			name:  "prototype defaults to required plus optional",
			level: domain.LevelPrototype,
			want: []domain.CheckID{
				domain.CheckBranchCompliance, domain.CheckFeatureProposal, domain.CheckRetrospective,
				domain.CheckArchitectureDocs, domain.CheckTechnicalDebt, domain.CheckAIDocumentation,
				domain.CheckSecurityScan, domain.CheckTestCoverage, domain.CheckCodeQuality,
			},
		},
		{
			name:   "strict keeps only required",
			level:  domain.LevelPrototype,
			strict: true,
			want:   []domain.CheckID{domain.CheckBranchCompliance, domain.CheckRetrospective, domain.CheckSecurityScan},
		},
		{
			name:      "requested subset is unioned with required in catalog order",
			level:     domain.LevelPrototype,
			requested: []domain.CheckID{domain.CheckTestCoverage, domain.CheckFeatureProposal},
			want: []domain.CheckID{
				domain.CheckBranchCompliance, domain.CheckFeatureProposal, domain.CheckRetrospective,
				domain.CheckSecurityScan, domain.CheckTestCoverage,
			},
		},
		{
			name:      "skipped checks are dropped even when requested",
			level:     domain.LevelProduction,
			requested: []domain.CheckID{domain.CheckLoggingCompliance},
			want: []domain.CheckID{
				domain.CheckBranchCompliance, domain.CheckFeatureProposal, domain.CheckRetrospective,
				domain.CheckArchitectureDocs, domain.CheckTechnicalDebt, domain.CheckTypeSafety,
				domain.CheckSecurityScan, domain.CheckTestCoverage,
			},
		},
		{
			name:   "enterprise strict runs everything",
			level:  domain.LevelEnterprise,
			strict: true,
			want:   domain.AllCheckIDs(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.EffectiveChecks(tt.level, tt.requested, tt.strict))
		})
	}
}

func TestLevelPolicy_SkipNeverEffective(t *testing.T) {
	policy := NewLevelPolicy("")
	for _, level := range domain.AllLevels() {
		set := policy.Resolve(level)
		for _, strict := range []bool{false, true} {
			effective := policy.EffectiveChecks(level, domain.AllCheckIDs(), strict)
			for _, id := range set.Skip {
				assert.NotContains(t, effective, id)
			}
		}
	}
}

func TestLevelPolicy_Detect(t *testing.T) {
	t.Run("no override uses fallback", func(t *testing.T) {
		rc := &domain.RepositoryContext{RootPath: t.TempDir()}
		level, notices := NewLevelPolicy("").Detect(rc, nil)
		assert.Equal(t, domain.LevelProduction, level)
		assert.Empty(t, notices)

		level, _ = NewLevelPolicy("enterprise").Detect(rc, nil)
		assert.Equal(t, domain.LevelEnterprise, level)
	})

	t.Run("override file", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, NewFileConfigStore(root).WriteLevel(domain.LevelPrototype))
		level, notices := NewLevelPolicy("enterprise").Detect(&domain.RepositoryContext{RootPath: root}, nil)
		assert.Equal(t, domain.LevelPrototype, level)
		assert.Empty(t, notices)
	})

	for name, content := range map[string]string{
		"malformed json": "{level: prototype",
		"unknown level":  `{"level": "galactic"}`,
	} {
		t.Run(name+" falls back to production", func(t *testing.T) {
			root := t.TempDir()
			path := filepath.Join(root, ".sdlc", "level.json")
			require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			level, notices := NewLevelPolicy("enterprise").Detect(&domain.RepositoryContext{RootPath: root}, nil)
			assert.Equal(t, domain.LevelProduction, level)
			require.Len(t, notices, 1)
			assert.Contains(t, notices[0], "level.json")
		})
	}
}

func TestFileConfigStore_PreservesOtherKeys(t *testing.T) {
	root := t.TempDir()
	store := NewFileConfigStore(root)
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".sdlc"), 0o755))
	require.NoError(t, os.WriteFile(store.Location(), []byte(`{"level":"production","owner":"platform"}`), 0o644))

	require.NoError(t, store.WriteLevel(domain.LevelEnterprise))

	data, err := os.ReadFile(store.Location())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"owner": "platform"`)
	level, found, err := store.ReadLevel()
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, domain.LevelEnterprise, level)

	assert.Error(t, store.WriteLevel("galactic"))
}

func TestGateEnforcer_DeterminePhase(t *testing.T) {
	g := NewGateEnforcerFromConfig(config.DefaultConfig())

	tests := []struct {
		name string
		repo domain.RepositoryContext
		want domain.Phase
	}{
		{"nothing", domain.RepositoryContext{}, domain.PhaseRequirements},
		{"pull request", domain.RepositoryContext{CI: domain.CISignals{EventName: "pull_request"}}, domain.PhaseReview},
		{"source dirs", domain.RepositoryContext{SourceDirs: []string{"src"}, CI: domain.CISignals{EventName: "pull_request"}}, domain.PhaseImplementation},
		{"recent architecture work wins", domain.RepositoryContext{
			SourceDirs:         []string{"src"},
			RecentFileActivity: []string{"docs/readme.md", "docs/architecture/system-invariants.md"},
		}, domain.PhaseDesign},
		{"recent non-architecture docs", domain.RepositoryContext{RecentFileActivity: []string{"docs/guide.md"}}, domain.PhaseRequirements},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.DeterminePhase(&tt.repo))
		})
	}
}

func TestGateEnforcer_Evaluate(t *testing.T) {
	r := testutil.NewRepo(t, "main")
	g := NewGateEnforcerFromConfig(config.DefaultConfig())
	rc := &domain.RepositoryContext{RootPath: r.Root}

	gate := g.Evaluate(rc)
	assert.Equal(t, domain.PhaseRequirements, gate.Phase)
	assert.False(t, gate.Passed)
	require.Len(t, gate.Issues, 1)
	assert.Contains(t, gate.Issues[0], "docs/feature-proposals/*.md")

	r.WriteFile("docs/feature-proposals/login.md", "# Login\n")
	gate = g.Evaluate(rc)
	assert.True(t, gate.Passed)
	assert.Empty(t, gate.Issues)

	// Deterministic on the same snapshot
	assert.Equal(t, gate, g.Evaluate(rc))
}

func TestGateEnforcer_DesignNeedsEveryDocument(t *testing.T) {
	r := testutil.NewRepo(t, "main")
	r.WriteArchitectureDocs("what-if-analysis.md")
	rc := &domain.RepositoryContext{
		RootPath:           r.Root,
		RecentFileActivity: []string{"docs/architecture/system-invariants.md"},
	}

	gate := NewGateEnforcerFromConfig(config.DefaultConfig()).Evaluate(rc)
	assert.Equal(t, domain.PhaseDesign, gate.Phase)
	assert.False(t, gate.Passed)
	assert.Equal(t, []string{"Missing required artifact: docs/architecture/what-if-analysis.md"}, gate.Issues)
}

func TestGateEnforcer_ConfigRules(t *testing.T) {
	r := testutil.NewRepo(t, "main")
	r.WriteFile("rfcs/001.md", "rfc")
	cfg := config.DefaultConfig()
	cfg.Gate.Rules = map[string][]string{"requirements": {"rfcs/*.md"}}

	gate := NewGateEnforcerFromConfig(cfg).Evaluate(&domain.RepositoryContext{RootPath: r.Root})
	assert.True(t, gate.Passed)
	assert.Equal(t, []string{"rfcs/*.md"}, gate.RequiredArtifacts)
}

type stubRunner struct {
	id  domain.CheckID
	run func() (domain.CheckResult, error)
}

func (s stubRunner) Check() domain.Check { return domain.Check{ID: s.id} }

func (s stubRunner) Run(context.Context, domain.CheckEnv) (domain.CheckResult, error) {
	return s.run()
}

func TestCatalog_IsolatesFailures(t *testing.T) {
	catalog := NewCatalogWithRunners(nil,
		stubRunner{id: "panics", run: func() (domain.CheckResult, error) { panic("nil map") }},
		stubRunner{id: "errors", run: func() (domain.CheckResult, error) {
			return domain.CheckResult{}, errors.New("disk on fire")
		}},
		stubRunner{id: "passes", run: func() (domain.CheckResult, error) {
			return domain.CheckResult{Status: domain.StatusPass, Message: "ok"}, nil
		}},
	)
	env := domain.CheckEnv{Repo: &domain.RepositoryContext{}, Level: domain.LevelProduction}

	panicked := catalog.Run(context.Background(), "panics", env)
	assert.Equal(t, domain.StatusFail, panicked.Status)
	assert.Contains(t, panicked.Details, "nil map")
	assert.NotEmpty(t, panicked.FixHint)

	errored := catalog.Run(context.Background(), "errors", env)
	assert.Equal(t, domain.StatusFail, errored.Status)
	assert.Equal(t, "disk on fire", errored.Details)

	passed := catalog.Run(context.Background(), "passes", env)
	assert.Equal(t, domain.CheckID("passes"), passed.CheckID)
	assert.Equal(t, domain.StatusPass, passed.Status)

	unknown := catalog.Run(context.Background(), "nope", env)
	assert.Equal(t, domain.StatusFail, unknown.Status)
}

func TestNewCatalog_RegistrationOrder(t *testing.T) {
	catalog := NewCatalog(CheckDeps{Config: config.DefaultConfig().Checks})
	checks := catalog.List()
	require.Len(t, checks, len(domain.AllCheckIDs()))
	for i, id := range domain.AllCheckIDs() {
		assert.Equal(t, id, checks[i].ID)
		assert.Equal(t, i, catalog.Order(id))
		assert.NotEmpty(t, checks[i].Description)
	}
}
