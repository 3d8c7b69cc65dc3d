package service

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ludo-technologies/sdlcguard/domain"
	"github.com/ludo-technologies/sdlcguard/internal/constants"
)

type architectureCheck struct {
	deps CheckDeps
}

func newArchitectureCheck(deps CheckDeps) *architectureCheck {
	return &architectureCheck{deps: deps}
}

func (c *architectureCheck) Check() domain.Check {
	return domain.Check{
		ID:               domain.CheckArchitectureDocs,
		Category:         domain.CategoryDocumentation,
		LevelOverridable: true,
		Description:      "Canonical architecture documents exist and are filled in",
	}
}

func (c *architectureCheck) Run(_ context.Context, env domain.CheckEnv) (domain.CheckResult, error) {
	cfg := c.deps.Config
	r := env.Repo

	switch {
	case r.IsFrameworkRepo:
		return skipResult("Framework repository; architecture documents are templates here"), nil
	case r.IsEmptyRepo:
		return skipResult("No project source yet; nothing to document"), nil
	}

	if env.Level == domain.LevelPrototype {
		return c.runPrototype(r.RootPath), nil
	}

	var present, missing []string
	for _, doc := range cfg.ArchitectureDocs {
		rel := path.Join(constants.ArchitectureDir, doc)
		if fileExists(r.RootPath, rel) {
			present = append(present, rel)
		} else {
			missing = append(missing, rel)
		}
	}

	if len(missing) > 0 {
		return newResult(domain.StatusFail,
			fmt.Sprintf("%d of %d architecture documents present", len(present), len(cfg.ArchitectureDocs)),
			"Missing:\n"+formatList(missing),
			"Create "+strings.Join(missing, ", "),
		), nil
	}

	var templated []string
	for _, rel := range present {
		content, err := os.ReadFile(filepath.Join(r.RootPath, filepath.FromSlash(rel)))
		if err != nil {
			return domain.CheckResult{}, fmt.Errorf("failed to read %s: %w", rel, err)
		}
		if marker := firstMarker(string(content), cfg.TemplateMarkers); marker != "" {
			templated = append(templated, fmt.Sprintf("%s contains %s", rel, marker))
		}
	}
	if len(templated) > 0 {
		return newResult(domain.StatusWarn,
			"Architecture documents still contain template placeholders",
			formatList(templated),
			"Replace the placeholders with project-specific content",
		), nil
	}

	return newResult(domain.StatusPass,
		fmt.Sprintf("All %d architecture documents present", len(cfg.ArchitectureDocs)), "", ""), nil
}

func (c *architectureCheck) runPrototype(root string) domain.CheckResult {
	docs := c.deps.Config.PrototypeDesignDocs
	for _, rel := range docs {
		if fileExists(root, rel) {
			return newResult(domain.StatusPass, "Design document found: "+rel, "", "")
		}
	}
	return newResult(domain.StatusFail,
		"No lightweight design document found",
		"Looked for "+strings.Join(docs, ", "),
		"Create "+firstOr(docs, "docs/basic-design.md")+" describing the intended design",
	)
}

func firstMarker(content string, markers []string) string {
	for _, m := range markers {
		if m != "" && strings.Contains(content, m) {
			return m
		}
	}
	return ""
}
