package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/ludo-technologies/sdlcguard/domain"
	"github.com/ludo-technologies/sdlcguard/internal/repo"
)

type branchCheck struct {
	deps CheckDeps
}

func newBranchCheck(deps CheckDeps) *branchCheck {
	return &branchCheck{deps: deps}
}

func (c *branchCheck) Check() domain.Check {
	return domain.Check{
		ID:          domain.CheckBranchCompliance,
		Category:    domain.CategoryProcess,
		Description: "Work happens on a named feature branch, not directly on main",
	}
}

func (c *branchCheck) Run(_ context.Context, env domain.CheckEnv) (domain.CheckResult, error) {
	cfg := c.deps.Config
	branch := env.Repo.CurrentBranch

	if branch == "" {
		return newResult(domain.StatusWarn,
			"HEAD is detached; branch naming cannot be verified",
			"",
			"Check out a branch: git switch -c feature/<description>",
		), nil
	}

	if repo.IsProtectedBranch(branch, cfg.ProtectedBranches) {
		if env.Repo.CI.IsPullRequest() {
			return newResult(domain.StatusPass,
				fmt.Sprintf("On %s in a pull request context", branch), "", ""), nil
		}
		return newResult(domain.StatusFail,
			fmt.Sprintf("Working directly on protected branch %s", branch),
			"Changes should land on "+branch+" through a pull request",
			"Create a feature branch: git switch -c feature/<description>",
		), nil
	}

	if isWorkBranch(branch, cfg.AllowedBranchPrefixes) {
		return newResult(domain.StatusPass,
			fmt.Sprintf("Branch %s follows the naming convention", branch), "", ""), nil
	}

	return newResult(domain.StatusWarn,
		fmt.Sprintf("Branch %s does not use an allowed prefix", branch),
		"Allowed prefixes: "+strings.Join(cfg.AllowedBranchPrefixes, ", "),
		fmt.Sprintf("Rename the branch: git branch -m %s%s", firstOr(cfg.AllowedBranchPrefixes, "feature/"), branchTail(branch)),
	), nil
}

func firstOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return items[0]
}

func branchTail(branch string) string {
	if i := strings.LastIndex(branch, "/"); i >= 0 {
		return branch[i+1:]
	}
	return branch
}
