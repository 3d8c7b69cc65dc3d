package service

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ludo-technologies/sdlcguard/domain"
	"github.com/ludo-technologies/sdlcguard/internal/scanner"
)

// logCallPattern matches common logging calls across languages
var logCallPattern = regexp.MustCompile(
	`(?i)\b(log|logger|logging|console|slog|zap|sugar)\.(debug|info|infof|warn|warnf|warning|error|errorf|fatal|fatalf|print|printf|println|log|critical|exception|trace)\w*\s*\(`)

type loggingComplianceCheck struct {
	deps      CheckDeps
	sensitive *regexp.Regexp
}

func newLoggingComplianceCheck(deps CheckDeps) *loggingComplianceCheck {
	return &loggingComplianceCheck{deps: deps, sensitive: keywordPattern(deps.Config.SensitiveKeywords)}
}

func keywordPattern(keywords []string) *regexp.Regexp {
	quoted := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			quoted = append(quoted, regexp.QuoteMeta(k))
		}
	}
	if len(quoted) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)(` + strings.Join(quoted, "|") + `)`)
}

func (c *loggingComplianceCheck) Check() domain.Check {
	return domain.Check{
		ID:          domain.CheckLoggingCompliance,
		Category:    domain.CategorySecurity,
		Description: "Log statements do not reference credentials or secrets",
	}
}

func (c *loggingComplianceCheck) Run(ctx context.Context, env domain.CheckEnv) (domain.CheckResult, error) {
	cfg := c.deps.Config
	r := env.Repo
	if r.IsEmptyRepo {
		return skipResult("No project source to scan"), nil
	}
	if c.sensitive == nil {
		return skipResult("No sensitive keywords configured"), nil
	}

	files, err := scanner.NewWalker(r.RootPath, cfg.SkipDirs, cfg.SourceExtensions).SourceFiles(ctx)
	if err != nil {
		return domain.CheckResult{}, fmt.Errorf("failed to list source files: %w", err)
	}

	var violations []string
	for _, rel := range files {
		full := filepath.Join(r.RootPath, filepath.FromSlash(rel))
		info, err := os.Stat(full)
		if err != nil || info.Size() > maxScannedFileSize {
			continue
		}
		src, err := os.ReadFile(full)
		if err != nil {
			continue
		}
		violations = append(violations, c.scan(rel, src)...)
	}

	if len(violations) == 0 {
		return newResult(domain.StatusPass,
			fmt.Sprintf("No sensitive data in log statements across %d files", len(files)), "", ""), nil
	}
	return newResult(domain.StatusFail,
		fmt.Sprintf("Found %d log statements that reference sensitive data", len(violations)),
		formatList(violations),
		"Remove secrets from log calls or log a redacted placeholder instead",
	), nil
}

func (c *loggingComplianceCheck) scan(rel string, src []byte) []string {
	var out []string
	s := bufio.NewScanner(bytes.NewReader(src))
	s.Buffer(make([]byte, 0, 64*1024), maxScannedFileSize)
	line := 0
	for s.Scan() {
		line++
		text := s.Text()
		if !logCallPattern.MatchString(text) {
			continue
		}
		if keyword := c.sensitive.FindString(text); keyword != "" {
			out = append(out, fmt.Sprintf("%s:%d references %q", rel, line, strings.ToLower(keyword)))
		}
	}
	return out
}
