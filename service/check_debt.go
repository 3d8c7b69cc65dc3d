package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ludo-technologies/sdlcguard/domain"
	"github.com/ludo-technologies/sdlcguard/internal/scanner"
	"go.uber.org/zap"
)

// maxScannedFileSize skips generated or vendored blobs
const maxScannedFileSize = 1 << 20

type debtCheck struct {
	deps CheckDeps
}

func newDebtCheck(deps CheckDeps) *debtCheck {
	return &debtCheck{deps: deps}
}

func (c *debtCheck) Check() domain.Check {
	return domain.Check{
		ID:               domain.CheckTechnicalDebt,
		Category:         domain.CategoryQuality,
		LevelOverridable: true,
		Description:      "Source comments carry no TODO, FIXME or HACK markers",
	}
}

func (c *debtCheck) Run(ctx context.Context, env domain.CheckEnv) (domain.CheckResult, error) {
	cfg := c.deps.Config
	r := env.Repo
	if r.IsEmptyRepo {
		return skipResult("No project source to scan"), nil
	}

	walker := scanner.NewWalker(r.RootPath, cfg.SkipDirs, cfg.SourceExtensions)
	files, err := walker.SourceFiles(ctx)
	if err != nil {
		return domain.CheckResult{}, fmt.Errorf("failed to list source files: %w", err)
	}

	markerScanner := scanner.NewMarkerScanner(cfg.DebtMarkers)
	var found []string
	for _, rel := range files {
		src, ok := c.readSource(ctx, r.RootPath, rel)
		if !ok {
			continue
		}
		markers, err := markerScanner.Scan(ctx, rel, src)
		if err != nil {
			return domain.CheckResult{}, err
		}
		for _, m := range markers {
			found = append(found, m.String())
		}
	}

	if len(found) == 0 {
		return newResult(domain.StatusPass,
			fmt.Sprintf("No debt markers in %d source files", len(files)), "", ""), nil
	}

	if env.Level == domain.LevelPrototype {
		return newResult(domain.StatusInfo,
			fmt.Sprintf("Found %d debt markers (informational at prototype level)", len(found)),
			formatList(found), ""), nil
	}
	return newResult(domain.StatusFail,
		fmt.Sprintf("Found %d debt markers", len(found)),
		formatList(found),
		"Resolve the markers or move them into tracked issues before merging",
	), nil
}

func (c *debtCheck) readSource(ctx context.Context, root, rel string) ([]byte, bool) {
	full := filepath.Join(root, filepath.FromSlash(rel))
	info, err := os.Stat(full)
	if err != nil || info.Size() > maxScannedFileSize {
		return nil, false
	}
	src, err := os.ReadFile(full)
	if err != nil {
		c.deps.Logger.Debug(ctx, "skipping unreadable source file", zap.String("file", rel), zap.Error(err))
		return nil, false
	}
	return src, true
}
