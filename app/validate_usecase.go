package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ludo-technologies/sdlcguard/domain"
	"github.com/ludo-technologies/sdlcguard/internal/logging"
	"go.uber.org/zap"
)

// ValidateUseCase runs the full validation pipeline: load the repository,
// resolve the level, evaluate the gate, then run the effective checks.
type ValidateUseCase struct {
	loader   domain.RepositoryLoader
	catalog  domain.CheckCatalog
	policy   domain.LevelPolicy
	gate     domain.GateEnforcer
	executor domain.ParallelExecutor
	store    func(root string) domain.ConfigStore
	logger   *logging.Logger
	now      func() time.Time
	newRunID func() string
}

// Execute implements domain.ValidationPipeline. Only a missing or non-git
// root, or an invalid request, produce an error; every check outcome is
// reported in the returned run.
func (uc *ValidateUseCase) Execute(ctx context.Context, req domain.ValidateRequest) (*domain.ValidationRun, error) {
	if err := uc.validateRequest(req); err != nil {
		return nil, err
	}

	runID := uc.newRunID()
	ctx = logging.WithRunID(ctx, runID)
	start := time.Now()

	root := req.Root
	if root == "" {
		root = "."
	}
	repo, err := uc.loader.Load(ctx, root)
	if err != nil {
		uc.logger.Error(ctx, "cannot load repository", zap.String("root", root), zap.Error(err))
		return nil, err
	}

	level, notices := uc.resolveLevel(repo, req.Level)
	gate := uc.gate.Evaluate(repo)
	uc.logger.Info(ctx, "gate evaluated",
		zap.String("phase", string(gate.Phase)),
		zap.Bool("passed", gate.Passed),
		zap.Int("issues", len(gate.Issues)),
	)

	set := uc.policy.Resolve(level)
	effective := uc.policy.EffectiveChecks(level, req.Checks, req.Strict)
	notices = append(notices, selectionNotices(set, level, req)...)

	results := uc.runChecks(ctx, effective, domain.CheckEnv{Repo: repo, Level: level})

	run := &domain.ValidationRun{
		RunID:          runID,
		ProjectRoot:    repo.RootPath,
		Level:          level,
		Gate:           gate,
		Results:        results,
		Required:       set.Required,
		OverallSuccess: domain.ComputeOverallSuccess(gate, results, set.Required),
		Timestamp:      uc.now(),
		Notices:        notices,
	}

	counts := run.CountByStatus()
	uc.logger.Info(ctx, "validation finished",
		zap.String("level", string(level)),
		zap.Int("checks", len(results)),
		zap.Int("failed", counts[domain.StatusFail]),
		zap.Bool("success", run.OverallSuccess),
		zap.Duration("elapsed", time.Since(start)),
	)
	return run, nil
}

func (uc *ValidateUseCase) validateRequest(req domain.ValidateRequest) error {
	if req.Level != "" && !req.Level.Valid() {
		return domain.NewInvalidInputError(fmt.Sprintf("unknown level %q", req.Level), nil)
	}
	for _, id := range req.Checks {
		if _, err := domain.ParseCheckID(string(id)); err != nil {
			return err
		}
	}
	return nil
}

func (uc *ValidateUseCase) resolveLevel(repo *domain.RepositoryContext, explicit domain.Level) (domain.Level, []string) {
	if explicit != "" {
		return explicit, nil
	}
	var store domain.ConfigStore
	if uc.store != nil {
		store = uc.store(repo.RootPath)
	}
	return uc.policy.Detect(repo, store)
}

// runChecks executes ids concurrently and returns results in the order of
// ids, which is catalog order
func (uc *ValidateUseCase) runChecks(ctx context.Context, ids []domain.CheckID, env domain.CheckEnv) []domain.CheckResult {
	results := make([]domain.CheckResult, len(ids))
	tasks := make([]domain.ExecutableTask, len(ids))
	for i, id := range ids {
		tasks[i] = &checkTask{id: id, catalog: uc.catalog, env: env, slot: &results[i]}
	}

	if err := uc.executor.Execute(ctx, tasks); err != nil {
		uc.logger.Warn(ctx, "check execution interrupted", zap.Error(err))
	}

	// Slots left empty were cancelled before they ran
	for i, id := range ids {
		if results[i].CheckID == "" {
			results[i] = domain.CheckResult{
				CheckID: id,
				Status:  domain.StatusFail,
				Message: "Check did not complete",
				Details: "the run was cancelled or exceeded execution.run_timeout_seconds",
				FixHint: "Raise execution.run_timeout_seconds or run the check on its own with --checks " + string(id),
			}
		}
	}
	return results
}

// selectionNotices explains requested checks that will not run
func selectionNotices(set domain.CheckSet, level domain.Level, req domain.ValidateRequest) []string {
	var notices []string
	for _, id := range req.Checks {
		switch {
		case set.IsSkipped(id):
			notices = append(notices, fmt.Sprintf("Requested check %s is skipped at %s level", id, level))
		case req.Strict && !set.IsRequired(id):
			notices = append(notices, fmt.Sprintf("Requested check %s is not required at %s level and --strict is set", id, level))
		}
	}
	return notices
}

// checkTask adapts one catalog check to the parallel executor. Each task
// owns exactly one result slot.
type checkTask struct {
	id      domain.CheckID
	catalog domain.CheckCatalog
	env     domain.CheckEnv
	slot    *domain.CheckResult
}

func (t *checkTask) Name() string { return string(t.id) }

func (t *checkTask) IsEnabled() bool { return true }

func (t *checkTask) Execute(ctx context.Context) (interface{}, error) {
	*t.slot = t.catalog.Run(ctx, t.id, t.env)
	return *t.slot, nil
}

// ValidateUseCaseBuilder assembles a ValidateUseCase
type ValidateUseCaseBuilder struct {
	uc ValidateUseCase
}

// NewValidateUseCaseBuilder creates a builder with a nop logger, the
// system clock and random run ids
func NewValidateUseCaseBuilder() *ValidateUseCaseBuilder {
	return &ValidateUseCaseBuilder{uc: ValidateUseCase{
		logger:   logging.Nop(),
		now:      time.Now,
		newRunID: func() string { return uuid.NewString() },
	}}
}

func (b *ValidateUseCaseBuilder) WithLoader(loader domain.RepositoryLoader) *ValidateUseCaseBuilder {
	b.uc.loader = loader
	return b
}

func (b *ValidateUseCaseBuilder) WithCatalog(catalog domain.CheckCatalog) *ValidateUseCaseBuilder {
	b.uc.catalog = catalog
	return b
}

func (b *ValidateUseCaseBuilder) WithPolicy(policy domain.LevelPolicy) *ValidateUseCaseBuilder {
	b.uc.policy = policy
	return b
}

func (b *ValidateUseCaseBuilder) WithGateEnforcer(gate domain.GateEnforcer) *ValidateUseCaseBuilder {
	b.uc.gate = gate
	return b
}

func (b *ValidateUseCaseBuilder) WithExecutor(executor domain.ParallelExecutor) *ValidateUseCaseBuilder {
	b.uc.executor = executor
	return b
}

// WithConfigStore sets how the level override store is opened for a
// repository root. Without it the policy uses its default store.
func (b *ValidateUseCaseBuilder) WithConfigStore(open func(root string) domain.ConfigStore) *ValidateUseCaseBuilder {
	b.uc.store = open
	return b
}

func (b *ValidateUseCaseBuilder) WithLogger(logger *logging.Logger) *ValidateUseCaseBuilder {
	if logger != nil {
		b.uc.logger = logger
	}
	return b
}

func (b *ValidateUseCaseBuilder) WithClock(now func() time.Time) *ValidateUseCaseBuilder {
	b.uc.now = now
	return b
}

func (b *ValidateUseCaseBuilder) WithRunIDs(next func() string) *ValidateUseCaseBuilder {
	b.uc.newRunID = next
	return b
}

// Build checks that every collaborator is set
func (b *ValidateUseCaseBuilder) Build() (*ValidateUseCase, error) {
	switch {
	case b.uc.loader == nil:
		return nil, fmt.Errorf("repository loader is required")
	case b.uc.catalog == nil:
		return nil, fmt.Errorf("check catalog is required")
	case b.uc.policy == nil:
		return nil, fmt.Errorf("level policy is required")
	case b.uc.gate == nil:
		return nil, fmt.Errorf("gate enforcer is required")
	case b.uc.executor == nil:
		return nil, fmt.Errorf("parallel executor is required")
	}
	uc := b.uc
	return &uc, nil
}
