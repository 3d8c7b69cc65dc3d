package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/ludo-technologies/sdlcguard/domain"
	"github.com/ludo-technologies/sdlcguard/internal/config"
	"github.com/ludo-technologies/sdlcguard/internal/testutil"
	"github.com/ludo-technologies/sdlcguard/internal/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRun() *domain.ValidationRun {
	return &domain.ValidationRun{
		RunID:       "run-1",
		ProjectRoot: "/work/app",
		Level:       domain.LevelProduction,
		Gate: domain.Gate{
			Phase:  domain.PhaseImplementation,
			Passed: false,
			Issues: []string{"No files match required artifact pattern: docs/architecture/*.md"},
		},
		Results: []domain.CheckResult{
			{CheckID: domain.CheckBranchCompliance, Status: domain.StatusPass, Message: "Branch feature/x follows the naming convention"},
			{CheckID: domain.CheckArchitectureDocs, Status: domain.StatusFail, Message: "5 of 6 architecture documents present",
				Details: "Missing:\ndocs/architecture/what-if-analysis.md", FixHint: "Create docs/architecture/what-if-analysis.md"},
			{CheckID: domain.CheckTechnicalDebt, Status: domain.StatusInfo, Message: "Found 1 debt markers", Details: "a.py:2 TODO fix"},
			{CheckID: domain.CheckSecurityScan, Status: domain.StatusSkip, Message: "gitleaks is not installed", FixHint: "Install gitleaks"},
			{CheckID: domain.CheckCodeQuality, Status: domain.StatusWarn, Message: "lint | issues", Details: "x.go:1 <unused>"},
		},
		Required:       []domain.CheckID{domain.CheckBranchCompliance, domain.CheckArchitectureDocs},
		OverallSuccess: false,
		Timestamp:      time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC),
		Notices:        []string{"Requested check logging-compliance is skipped at production level"},
	}
}

func plainReporter() *ReporterImpl {
	return NewReporter(config.OutputConfig{Color: false})
}

func TestReporter_ConsoleGroupsByStatus(t *testing.T) {
	out, err := plainReporter().Render(sampleRun(), domain.OutputFormatConsole)
	require.NoError(t, err)

	gate := strings.Index(out, "Gate: FAILED")
	fail := strings.Index(out, "FAIL (1)")
	warn := strings.Index(out, "WARN (1)")
	pass := strings.Index(out, "PASS (1)")
	info := strings.Index(out, "INFO (1)")
	skip := strings.Index(out, "SKIP (1)")
	for _, i := range []int{gate, fail, warn, pass, info, skip} {
		require.GreaterOrEqual(t, i, 0, out)
	}
	assert.True(t, gate < fail && fail < warn && warn < pass && pass < info && info < skip, out)

	assert.Contains(t, out, "architecture-documentation (required): 5 of 6")
	assert.Contains(t, out, "Fix: Create docs/architecture/what-if-analysis.md")
	assert.Contains(t, out, "Notice: Requested check logging-compliance")
	assert.Contains(t, out, "Result:  FAILURE")
	assert.NotContains(t, out, "\x1b[", "plain output must not carry escape codes")
	// Info details are hidden unless requested
	assert.NotContains(t, out, "a.py:2")
}

func TestReporter_ConsoleShowDetails(t *testing.T) {
	r := NewReporter(config.OutputConfig{ShowDetails: true})
	out, err := r.Render(sampleRun(), domain.OutputFormatConsole)
	require.NoError(t, err)
	assert.Contains(t, out, "a.py:2 TODO fix")
}

func TestReporter_JSONSchema(t *testing.T) {
	out, err := plainReporter().Render(sampleRun(), domain.OutputFormatJSON)
	require.NoError(t, err)

	var entries []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 6)

	gate, ok := entries[0]["gate"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "implementation", gate["phase"])
	assert.Equal(t, false, gate["passed"])

	for _, e := range entries[1:] {
		for _, key := range []string{"check", "status", "message", "details", "fix_hint"} {
			assert.Contains(t, e, key)
		}
	}
	assert.Equal(t, "architecture-documentation", entries[2]["check"])
	assert.True(t, strings.HasPrefix(out, "[\n  {\n    \"gate\""), out)
}

// catalogRun executes one check through a catalog and wraps the result in
// a run
func catalogRun(t *testing.T, runner domain.CheckRunner, rc *domain.RepositoryContext, level domain.Level) *domain.ValidationRun {
	t.Helper()
	catalog := NewCatalogWithRunners(nil, runner)
	id := runner.Check().ID
	res := catalog.Run(context.Background(), id, domain.CheckEnv{Repo: rc, Level: level})
	require.True(t, utf8.ValidString(res.Details), "details %q", res.Details)
	return &domain.ValidationRun{
		Gate:    domain.Gate{Phase: domain.PhaseImplementation, Passed: true},
		Results: []domain.CheckResult{res},
	}
}

func TestJSONExport_RoundTrip(t *testing.T) {
	runs := map[string]*domain.ValidationRun{
		"sample": sampleRun(),
		"empty":  {Gate: domain.Gate{Phase: domain.PhaseRequirements, Passed: true}},
		"invalid bytes in result": {
			Gate: domain.Gate{Phase: domain.PhaseReview, Issues: []string{"bad \xff issue"}},
			Results: []domain.CheckResult{
				{CheckID: domain.CheckTechnicalDebt, Status: domain.StatusFail, Message: "m\xc3", Details: "caf\xe9"},
			},
		},
	}

	// Tool output whose tail would start inside a multi-byte rune
	goRepo := testutil.NewRepo(t, "main")
	goRepo.WriteFile("go.mod", "module example.com/x\n")
	deps := testDeps(tool.NewFake().Exit("go", 1, "FAIL ✗"+strings.Repeat("x", 8)))
	deps.Config.MaxDetailBytes = 10
	runs["truncated tool output"] = catalogRun(t, newTypeSafetyCheck(deps), repoContext(goRepo.Root, "main"), domain.LevelProduction)

	// Debt marker in a Latin-1 source file
	latin1 := testutil.NewRepo(t, "main")
	latin1.WriteFile("app/notes.py", "# TODO: caf\xe9 fix\n")
	runs["non UTF-8 source"] = catalogRun(t, newDebtCheck(testDeps(nil)), repoContext(latin1.Root, "main"), domain.LevelProduction)

	for name, run := range runs {
		t.Run(name, func(t *testing.T) {
			first, err := EncodeJSONExport(NewJSONExport(run))
			require.NoError(t, err)

			decoded, err := DecodeJSONExport(first)
			require.NoError(t, err)

			second, err := EncodeJSONExport(decoded)
			require.NoError(t, err)
			assert.True(t, bytes.Equal(first, second), "re-encoded export differs:\n%s\n%s", first, second)
		})
	}
}

func TestDecodeJSONExport_Rejects(t *testing.T) {
	for name, input := range map[string]string{
		"not an array":  `{"gate":{}}`,
		"empty array":   `[]`,
		"gate not first": `[{"check":"x","status":"pass","message":"","details":"","fix_hint":""}]`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeJSONExport([]byte(input))
			require.Error(t, err)
			assert.Equal(t, domain.ErrCodeOutputError, domain.ErrorCode(err))
		})
	}
}

func TestReporter_Markdown(t *testing.T) {
	out, err := plainReporter().Render(sampleRun(), domain.OutputFormatMarkdown)
	require.NoError(t, err)

	assert.Contains(t, out, "| Check | Status | Message | Details | Fix |")
	assert.Contains(t, out, "| code-quality | warn | lint \\| issues | x.go:1 <unused> |  |")
	assert.Contains(t, out, "Missing:<br>docs/architecture/what-if-analysis.md")
	assert.Contains(t, out, "- Gate: **failed**")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "| security-scan | skip | gitleaks is not installed |  | Install gitleaks |", lines[len(lines)-2])
}

func TestReporter_Deterministic(t *testing.T) {
	r := plainReporter()
	for _, format := range []domain.OutputFormat{domain.OutputFormatConsole, domain.OutputFormatJSON, domain.OutputFormatMarkdown} {
		a, err := r.Render(sampleRun(), format)
		require.NoError(t, err)
		b, err := r.Render(sampleRun(), format)
		require.NoError(t, err)
		assert.Equal(t, a, b, "format %s", format)
	}
}

func TestReporter_Write(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, plainReporter().Write(sampleRun(), domain.OutputFormatJSON, &buf))
	assert.True(t, json.Valid(buf.Bytes()))

	_, err := plainReporter().Render(sampleRun(), "html")
	assert.Equal(t, domain.ErrCodeUnsupportedFormat, domain.ErrorCode(err))
}
