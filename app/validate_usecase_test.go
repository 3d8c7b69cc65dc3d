package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ludo-technologies/sdlcguard/domain"
	"github.com/ludo-technologies/sdlcguard/internal/config"
	"github.com/ludo-technologies/sdlcguard/internal/logging"
	"github.com/ludo-technologies/sdlcguard/internal/repo"
	"github.com/ludo-technologies/sdlcguard/internal/testutil"
	"github.com/ludo-technologies/sdlcguard/internal/tool"
	"github.com/ludo-technologies/sdlcguard/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

type pipelineOptions struct {
	tools   *tool.Fake
	catalog domain.CheckCatalog
	logger  *logging.Logger
}

func newPipeline(t *testing.T, opts pipelineOptions) *ValidateUseCase {
	t.Helper()
	cfg := config.DefaultConfig()
	if opts.tools == nil {
		opts.tools = tool.NewFake()
	}
	if opts.catalog == nil {
		opts.catalog = service.NewCatalog(service.CheckDeps{
			Config:      cfg.Checks,
			Tools:       opts.tools,
			ToolTimeout: time.Second,
		})
	}

	runs := 0
	uc, err := NewValidateUseCaseBuilder().
		WithLoader(repo.NewLoader(cfg, repo.WithGetenv(testutil.Env(nil)))).
		WithCatalog(opts.catalog).
		WithPolicy(service.NewLevelPolicy(cfg.Level)).
		WithGateEnforcer(service.NewGateEnforcerFromConfig(cfg)).
		WithExecutor(service.NewParallelExecutorFromConfig(&cfg.Execution)).
		WithConfigStore(func(root string) domain.ConfigStore { return service.NewFileConfigStore(root) }).
		WithLogger(opts.logger).
		WithClock(func() time.Time { return testutil.FixedTime }).
		WithRunIDs(func() string { runs++; return fmt.Sprintf("run-%d", runs) }).
		Build()
	require.NoError(t, err)
	return uc
}

func resultIDs(run *domain.ValidationRun) []domain.CheckID {
	ids := make([]domain.CheckID, len(run.Results))
	for i, res := range run.Results {
		ids[i] = res.CheckID
	}
	return ids
}

func TestValidate_RequiredFailureFailsRun(t *testing.T) {
	for _, level := range domain.AllLevels() {
		t.Run(string(level), func(t *testing.T) {
			r := testutil.NewRepo(t, "main")
			r.WriteFile("src/app.py", "print('hi')\n")

			run, err := newPipeline(t, pipelineOptions{}).Execute(context.Background(), domain.ValidateRequest{
				Root:  r.Root,
				Level: level,
			})
			require.NoError(t, err)

			res, ok := run.Result(domain.CheckBranchCompliance)
			require.True(t, ok)
			assert.Equal(t, domain.StatusFail, res.Status)
			assert.Contains(t, run.Required, domain.CheckBranchCompliance)
			assert.False(t, run.OverallSuccess)
		})
	}
}

func TestValidate_SkippedChecksNeverRun(t *testing.T) {
	r := testutil.NewRepo(t, "feature/login-flow")
	r.WriteFile("src/app.py", "print('hi')\n")

	for _, level := range domain.AllLevels() {
		set := service.NewLevelPolicy("").Resolve(level)
		run, err := newPipeline(t, pipelineOptions{}).Execute(context.Background(), domain.ValidateRequest{
			Root:   r.Root,
			Level:  level,
			Checks: domain.AllCheckIDs(),
		})
		require.NoError(t, err)

		for _, id := range set.Skip {
			_, ran := run.Result(id)
			assert.False(t, ran, "%s ran at %s level", id, level)
			assert.Contains(t, run.Notices, fmt.Sprintf("Requested check %s is skipped at %s level", id, level))
		}
		assert.Len(t, run.Results, len(domain.AllCheckIDs())-len(set.Skip))
	}
}

func TestValidate_ResultsFollowCatalogOrder(t *testing.T) {
	r := testutil.NewRepo(t, "feature/login-flow")
	r.WriteFile("src/app.py", "print('hi')\n")

	run, err := newPipeline(t, pipelineOptions{}).Execute(context.Background(), domain.ValidateRequest{
		Root:   r.Root,
		Level:  domain.LevelPrototype,
		Checks: []domain.CheckID{domain.CheckAIDocumentation, domain.CheckFeatureProposal},
	})
	require.NoError(t, err)

	assert.Equal(t, []domain.CheckID{
		domain.CheckBranchCompliance,
		domain.CheckFeatureProposal,
		domain.CheckRetrospective,
		domain.CheckAIDocumentation,
		domain.CheckSecurityScan,
	}, resultIDs(run))
}

func TestValidate_Strict(t *testing.T) {
	r := testutil.NewRepo(t, "feature/login-flow")
	r.WriteFile("src/app.py", "print('hi')\n")

	run, err := newPipeline(t, pipelineOptions{}).Execute(context.Background(), domain.ValidateRequest{
		Root:   r.Root,
		Level:  domain.LevelProduction,
		Checks: []domain.CheckID{domain.CheckAIDocumentation},
		Strict: true,
	})
	require.NoError(t, err)

	assert.Equal(t, service.NewLevelPolicy("").Resolve(domain.LevelProduction).Required, resultIDs(run))
	assert.Contains(t, run.Notices,
		"Requested check ai-documentation is not required at production level and --strict is set")
}

func TestValidate_Idempotent(t *testing.T) {
	r := testutil.NewRepo(t, "feature/login-flow")
	r.WriteFile("src/app.py", "# TODO: fix\nprint('hi')\n")
	r.WriteFile("docs/feature-proposals/login-flow.md", "# Login flow\n\n## Problem\n\nUsers cannot log in.\n")
	r.Commit("feat: login flow", testutil.FixedTime.Add(-time.Hour))

	uc := newPipeline(t, pipelineOptions{tools: tool.NewFake().Exit("gitleaks", 0, "")})
	req := domain.ValidateRequest{Root: r.Root, Level: domain.LevelEnterprise}

	first, err := uc.Execute(context.Background(), req)
	require.NoError(t, err)
	second, err := uc.Execute(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Results, second.Results)
	assert.Equal(t, first.Gate, second.Gate)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestValidate_PrototypeDebtIsInformational(t *testing.T) {
	r := testutil.NewRepo(t, "feature/login-flow")
	r.WriteFile("src/app.py", "# TODO: fix\nprint('hi')\n")

	run, err := newPipeline(t, pipelineOptions{}).Execute(context.Background(), domain.ValidateRequest{
		Root:   r.Root,
		Level:  domain.LevelPrototype,
		Checks: []domain.CheckID{domain.CheckTechnicalDebt},
	})
	require.NoError(t, err)

	res, ok := run.Result(domain.CheckTechnicalDebt)
	require.True(t, ok)
	assert.Equal(t, domain.StatusInfo, res.Status)
	assert.NotContains(t, run.Required, domain.CheckTechnicalDebt)
}

func TestValidate_MissingArchitectureDocFailsProduction(t *testing.T) {
	r := testutil.NewRepo(t, "feature/login-flow")
	r.WriteFile("src/app.py", "print('hi')\n")
	r.WriteArchitectureDocs("failure-mode-analysis.md")

	run, err := newPipeline(t, pipelineOptions{}).Execute(context.Background(), domain.ValidateRequest{
		Root:  r.Root,
		Level: domain.LevelProduction,
	})
	require.NoError(t, err)

	res, ok := run.Result(domain.CheckArchitectureDocs)
	require.True(t, ok)
	assert.Equal(t, domain.StatusFail, res.Status)
	assert.Contains(t, res.FixHint, "failure-mode-analysis.md")
	assert.False(t, run.OverallSuccess)
}

func TestValidate_MissingScannerSkipsOptionalCheck(t *testing.T) {
	r := testutil.NewRepo(t, "feature/login-flow")
	r.WriteFile("src/app.py", "print('hi')\n")

	run, err := newPipeline(t, pipelineOptions{}).Execute(context.Background(), domain.ValidateRequest{
		Root:   r.Root,
		Level:  domain.LevelPrototype,
		Checks: []domain.CheckID{domain.CheckSecurityScan},
	})
	require.NoError(t, err)

	res, ok := run.Result(domain.CheckSecurityScan)
	require.True(t, ok)
	assert.Equal(t, domain.StatusSkip, res.Status)
	assert.NotEmpty(t, res.FixHint)

	// A skipped check never decides the outcome on its own
	assert.Equal(t, domain.ComputeOverallSuccess(run.Gate, run.Results, run.Required),
		domain.ComputeOverallSuccess(run.Gate, withoutCheck(run.Results, domain.CheckSecurityScan), run.Required))
}

func withoutCheck(results []domain.CheckResult, id domain.CheckID) []domain.CheckResult {
	var out []domain.CheckResult
	for _, res := range results {
		if res.CheckID != id {
			out = append(out, res)
		}
	}
	return out
}

func TestValidate_DetectsLevelFromStore(t *testing.T) {
	r := testutil.NewRepo(t, "feature/login-flow")
	r.WriteFile(".sdlc/level.json", `{"level": "enterprise"}`)

	run, err := newPipeline(t, pipelineOptions{}).Execute(context.Background(), domain.ValidateRequest{Root: r.Root})
	require.NoError(t, err)
	assert.Equal(t, domain.LevelEnterprise, run.Level)
	assert.Len(t, run.Results, len(domain.AllCheckIDs()))
}

func TestValidate_CorruptLevelFileFallsBack(t *testing.T) {
	r := testutil.NewRepo(t, "feature/login-flow")
	r.WriteFile(".sdlc/level.json", `{"level": `)

	run, err := newPipeline(t, pipelineOptions{}).Execute(context.Background(), domain.ValidateRequest{Root: r.Root})
	require.NoError(t, err)
	assert.Equal(t, domain.LevelProduction, run.Level)
	require.NotEmpty(t, run.Notices)
	assert.Contains(t, run.Notices[0], "using production")
}

func TestValidate_HardErrors(t *testing.T) {
	uc := newPipeline(t, pipelineOptions{})

	_, err := uc.Execute(context.Background(), domain.ValidateRequest{Root: t.TempDir()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotARepository))
	assert.True(t, domain.IsHardError(err))

	r := testutil.NewRepo(t, "feature/x")
	_, err = uc.Execute(context.Background(), domain.ValidateRequest{Root: r.Root, Level: "galactic"})
	assert.Equal(t, domain.ErrCodeInvalidInput, domain.ErrorCode(err))

	_, err = uc.Execute(context.Background(), domain.ValidateRequest{Root: r.Root, Checks: []domain.CheckID{"bogus"}})
	assert.Equal(t, domain.ErrCodeInvalidInput, domain.ErrorCode(err))
}

type panickingRunner struct {
	id domain.CheckID
}

func (p panickingRunner) Check() domain.Check {
	return domain.Check{ID: p.id, Category: domain.CategoryProcess}
}

func (p panickingRunner) Run(context.Context, domain.CheckEnv) (domain.CheckResult, error) {
	panic("boom")
}

type passingRunner struct {
	id domain.CheckID
}

func (p passingRunner) Check() domain.Check {
	return domain.Check{ID: p.id, Category: domain.CategoryProcess}
}

func (p passingRunner) Run(context.Context, domain.CheckEnv) (domain.CheckResult, error) {
	return domain.CheckResult{Status: domain.StatusPass, Message: "ok"}, nil
}

func TestValidate_CrashedCheckIsIsolated(t *testing.T) {
	r := testutil.NewRepo(t, "feature/x")
	r.WriteFile("docs/feature-proposals/x.md", "# X\n")

	var runners []domain.CheckRunner
	for _, id := range domain.AllCheckIDs() {
		if id == domain.CheckRetrospective {
			runners = append(runners, panickingRunner{id: id})
		} else {
			runners = append(runners, passingRunner{id: id})
		}
	}
	catalog := service.NewCatalogWithRunners(logging.Nop(), runners...)

	run, err := newPipeline(t, pipelineOptions{catalog: catalog}).Execute(context.Background(), domain.ValidateRequest{
		Root:  r.Root,
		Level: domain.LevelEnterprise,
	})
	require.NoError(t, err)
	require.Len(t, run.Results, len(domain.AllCheckIDs()))

	for _, res := range run.Results {
		if res.CheckID == domain.CheckRetrospective {
			assert.Equal(t, domain.StatusFail, res.Status)
			assert.Contains(t, res.Details, "boom")
		} else {
			assert.Equal(t, domain.StatusPass, res.Status, res.CheckID)
		}
	}
	assert.False(t, run.OverallSuccess)
}

func TestValidate_LogsRunID(t *testing.T) {
	r := testutil.NewRepo(t, "feature/x")
	logger := logging.NewTestLogger()

	_, err := newPipeline(t, pipelineOptions{logger: logger.Logger}).Execute(context.Background(), domain.ValidateRequest{
		Root:  r.Root,
		Level: domain.LevelPrototype,
	})
	require.NoError(t, err)

	logger.AssertLogged(t, zapcore.InfoLevel, "validation finished")
	logger.AssertField(t, "validation finished", "run_id", "run-1")
}

func TestValidateUseCaseBuilder_RequiresCollaborators(t *testing.T) {
	_, err := NewValidateUseCaseBuilder().Build()
	assert.Error(t, err)

	_, err = NewValidateUseCaseBuilder().
		WithLoader(repo.NewLoader(nil)).
		WithCatalog(service.NewCatalog(service.CheckDeps{})).
		WithPolicy(service.NewLevelPolicy("")).
		WithGateEnforcer(service.NewGateEnforcerFromConfig(config.DefaultConfig())).
		Build()
	assert.ErrorContains(t, err, "executor")
}
