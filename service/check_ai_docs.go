package service

import (
	"context"
	"strings"

	"github.com/ludo-technologies/sdlcguard/domain"
)

type aiDocsCheck struct {
	deps CheckDeps
}

func newAIDocsCheck(deps CheckDeps) *aiDocsCheck {
	return &aiDocsCheck{deps: deps}
}

func (c *aiDocsCheck) Check() domain.Check {
	return domain.Check{
		ID:               domain.CheckAIDocumentation,
		Category:         domain.CategoryDocumentation,
		LevelOverridable: true,
		Description:      "The repository documents its conventions for AI assistants",
	}
}

func (c *aiDocsCheck) Run(_ context.Context, env domain.CheckEnv) (domain.CheckResult, error) {
	files := c.deps.Config.AIDocFiles
	for _, name := range files {
		if fileExists(env.Repo.RootPath, name) {
			return newResult(domain.StatusPass, "AI assistant instructions found: "+name, "", ""), nil
		}
	}
	return newResult(severity(env.Level, domain.LevelEnterprise, domain.StatusWarn),
		"No AI assistant instructions file",
		"Looked for "+strings.Join(files, ", "),
		"Create "+firstOr(files, "CLAUDE.md")+" describing project conventions, commands and constraints",
	), nil
}
