package service

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/ludo-technologies/sdlcguard/domain"
	"github.com/ludo-technologies/sdlcguard/internal/config"
	"github.com/ludo-technologies/sdlcguard/internal/logging"
	"github.com/ludo-technologies/sdlcguard/internal/redact"
	"go.uber.org/zap"
)

// CheckDeps are the collaborators shared by compiled-in checks
type CheckDeps struct {
	Config      config.ChecksConfig
	Tools       domain.ExternalTool
	ToolTimeout time.Duration
	Redactor    *redact.Redactor
	Logger      *logging.Logger
}

func (d CheckDeps) withDefaults() CheckDeps {
	if d.ToolTimeout <= 0 {
		d.ToolTimeout = time.Duration(config.DefaultToolTimeoutSeconds) * time.Second
	}
	if d.Redactor == nil {
		d.Redactor = redact.New()
	}
	if d.Logger == nil {
		d.Logger = logging.Nop()
	}
	if d.Config.MaxDetailBytes <= 0 {
		d.Config.MaxDetailBytes = config.DefaultMaxDetailBytes
	}
	return d
}

// CatalogImpl implements domain.CheckCatalog as a closed registry
type CatalogImpl struct {
	runners []domain.CheckRunner
	index   map[domain.CheckID]int
	logger  *logging.Logger
}

// NewCatalog registers every compiled-in check in canonical order
func NewCatalog(deps CheckDeps) *CatalogImpl {
	deps = deps.withDefaults()
	return NewCatalogWithRunners(deps.Logger,
		newBranchCheck(deps),
		newProposalCheck(deps),
		newPlanCheck(deps),
		newRetrospectiveCheck(deps),
		newArchitectureCheck(deps),
		newDebtCheck(deps),
		newAIDocsCheck(deps),
		newTypeSafetyCheck(deps),
		newSecurityScanCheck(deps),
		newTestCoverageCheck(deps),
		newCodeQualityCheck(deps),
		newDependencyCheck(deps),
		newCommitHistoryCheck(deps),
		newLoggingComplianceCheck(deps),
	)
}

// NewCatalogWithRunners builds a catalog from explicit runners, kept in
// the order given
func NewCatalogWithRunners(logger *logging.Logger, runners ...domain.CheckRunner) *CatalogImpl {
	if logger == nil {
		logger = logging.Nop()
	}
	c := &CatalogImpl{
		runners: runners,
		index:   make(map[domain.CheckID]int, len(runners)),
		logger:  logger,
	}
	for i, r := range runners {
		c.index[r.Check().ID] = i
	}
	return c
}

// List returns the registered checks in registration order
func (c *CatalogImpl) List() []domain.Check {
	checks := make([]domain.Check, len(c.runners))
	for i, r := range c.runners {
		checks[i] = r.Check()
	}
	return checks
}

// Order returns the registration index of id, or -1
func (c *CatalogImpl) Order(id domain.CheckID) int {
	if i, ok := c.index[id]; ok {
		return i
	}
	return -1
}

// Run executes one check. Errors and panics become a fail result for that
// check only.
func (c *CatalogImpl) Run(ctx context.Context, id domain.CheckID, env domain.CheckEnv) (result domain.CheckResult) {
	// Runs after the panic handler below so every path is covered
	defer func() { result = validUTF8(result) }()

	i, ok := c.index[id]
	if !ok {
		return domain.CheckResult{
			CheckID: id,
			Status:  domain.StatusFail,
			Message: "Check is not registered",
			Details: fmt.Sprintf("unknown check id %q", id),
			FixHint: "Run 'sdlcguard checks' to list available checks",
		}
	}

	defer func() {
		if r := recover(); r != nil {
			err := domain.NewCheckExecutionError(id, fmt.Errorf("panic: %v", r))
			c.logger.Error(ctx, "check panicked",
				zap.String("check", string(id)),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			result = crashResult(id, err)
		}
	}()

	start := time.Now()
	res, err := c.runners[i].Run(ctx, env)
	if err != nil {
		err = domain.NewCheckExecutionError(id, err)
		c.logger.Error(ctx, "check failed to execute", zap.String("check", string(id)), zap.Error(err))
		return crashResult(id, err)
	}

	// Runners may leave the id blank
	res.CheckID = id
	c.logger.Debug(ctx, "check finished",
		zap.String("check", string(id)),
		zap.String("status", string(res.Status)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res
}

// validUTF8 replaces invalid byte sequences so exports survive a JSON
// round trip unchanged
func validUTF8(r domain.CheckResult) domain.CheckResult {
	r.Message = strings.ToValidUTF8(r.Message, "\uFFFD")
	r.Details = strings.ToValidUTF8(r.Details, "\uFFFD")
	r.FixHint = strings.ToValidUTF8(r.FixHint, "\uFFFD")
	return r
}

func crashResult(id domain.CheckID, err error) domain.CheckResult {
	var de *domain.DomainError
	details := err.Error()
	if errors.As(err, &de) && de.Cause != nil {
		details = de.Cause.Error()
	}
	return domain.CheckResult{
		CheckID: id,
		Status:  domain.StatusFail,
		Message: "Check could not complete",
		Details: details,
		FixHint: "Re-run with --verbose for the full error and report it if it persists",
	}
}
