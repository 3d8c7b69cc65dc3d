package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ludo-technologies/sdlcguard/domain"
)

type commitHistoryCheck struct {
	deps    CheckDeps
	pattern *regexp.Regexp
}

func newCommitHistoryCheck(deps CheckDeps) *commitHistoryCheck {
	return &commitHistoryCheck{deps: deps, pattern: conventionalPattern(deps.Config.CommitPrefixes)}
}

// conventionalPattern accepts "type: subject", "type(scope): subject" and
// "type!: subject" for each configured prefix
func conventionalPattern(prefixes []string) *regexp.Regexp {
	types := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		p = strings.TrimSuffix(strings.TrimSpace(p), ":")
		if p != "" {
			types = append(types, regexp.QuoteMeta(p))
		}
	}
	if len(types) == 0 {
		return regexp.MustCompile(`^\w+(\([^)]+\))?!?: \S`)
	}
	return regexp.MustCompile(`^(` + strings.Join(types, "|") + `)(\([^)]+\))?!?: \S`)
}

func (c *commitHistoryCheck) Check() domain.Check {
	return domain.Check{
		ID:               domain.CheckCommitHistory,
		Category:         domain.CategoryProcess,
		LevelOverridable: true,
		Description:      "Recent commits follow the conventional commit format",
	}
}

func (c *commitHistoryCheck) Run(_ context.Context, env domain.CheckEnv) (domain.CheckResult, error) {
	r := env.Repo
	if !r.HasCommits || len(r.RecentCommits) == 0 {
		return skipResult("No commits yet"), nil
	}

	commits := r.RecentCommits
	if depth := c.deps.Config.CommitHistoryDepth; depth > 0 && len(commits) > depth {
		commits = commits[:depth]
	}

	var violations []string
	for _, commit := range commits {
		subject := commit.Subject()
		if strings.HasPrefix(subject, "Merge ") || c.pattern.MatchString(subject) {
			continue
		}
		violations = append(violations, fmt.Sprintf("%s %s", shortHash(commit.Hash), subject))
	}

	if len(violations) == 0 {
		return newResult(domain.StatusPass,
			fmt.Sprintf("Last %d commits use conventional messages", len(commits)), "", ""), nil
	}
	return newResult(severity(env.Level, domain.LevelEnterprise, domain.StatusWarn),
		fmt.Sprintf("%d of the last %d commits do not use conventional messages", len(violations), len(commits)),
		formatList(violations),
		"Use messages such as 'feat: add login form' or 'fix(api): handle empty body'",
	), nil
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
