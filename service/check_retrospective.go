package service

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/ludo-technologies/sdlcguard/domain"
)

type retrospectiveCheck struct {
	deps CheckDeps
}

func newRetrospectiveCheck(deps CheckDeps) *retrospectiveCheck {
	return &retrospectiveCheck{deps: deps}
}

func (c *retrospectiveCheck) Check() domain.Check {
	return domain.Check{
		ID:               domain.CheckRetrospective,
		Category:         domain.CategoryProcess,
		LevelOverridable: true,
		Description:      "Feature branches carry an up-to-date retrospective",
	}
}

func (c *retrospectiveCheck) Run(_ context.Context, env domain.CheckEnv) (domain.CheckResult, error) {
	cfg := c.deps.Config
	r := env.Repo
	if !isWorkBranch(r.CurrentBranch, cfg.AllowedBranchPrefixes) {
		return skipResult("Not a feature branch; no retrospective required"), nil
	}

	slug := r.BranchSlug()
	doc, err := findBranchDocument(r.RootPath, cfg.RetrospectiveDirs, slug, r.CurrentBranch, true)
	if err != nil {
		return domain.CheckResult{}, err
	}
	if doc == nil {
		return newResult(severity(env.Level, domain.LevelProduction, domain.StatusWarn),
			fmt.Sprintf("No retrospective found for %s", r.CurrentBranch),
			"Searched "+joinDirs(cfg.RetrospectiveDirs),
			fmt.Sprintf("Create %s covering what went well, what could improve and lessons learned",
				path.Join(firstOr(cfg.RetrospectiveDirs, "retrospectives"), slug+".md")),
		), nil
	}

	stale := time.Duration(cfg.RetrospectiveStaleHours) * time.Hour
	if r.HasCommits && stale > 0 {
		if lag := r.LastCommitTime.Sub(doc.ModTime); lag > stale {
			return newResult(domain.StatusWarn,
				fmt.Sprintf("Retrospective %s is stale", doc.Path),
				fmt.Sprintf("Last updated %s, %s before the latest commit",
					doc.ModTime.UTC().Format(time.RFC3339), lag.Round(time.Hour)),
				"Update the retrospective with the work done since",
			), nil
		}
	}

	return newResult(domain.StatusPass, "Retrospective found: "+doc.Path, "", ""), nil
}
