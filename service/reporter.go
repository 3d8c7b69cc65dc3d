package service

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/ludo-technologies/sdlcguard/domain"
	"github.com/ludo-technologies/sdlcguard/internal/config"
)

// statusOrder is the console grouping order
var statusOrder = []domain.Status{
	domain.StatusFail,
	domain.StatusWarn,
	domain.StatusPass,
	domain.StatusInfo,
	domain.StatusSkip,
}

var statusLabels = map[domain.Status]string{
	domain.StatusFail: "FAIL",
	domain.StatusWarn: "WARN",
	domain.StatusPass: "PASS",
	domain.StatusInfo: "INFO",
	domain.StatusSkip: "SKIP",
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("45"))

	statusStyles = map[domain.Status]lipgloss.Style{
		domain.StatusFail: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		domain.StatusWarn: lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		domain.StatusPass: lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true),
		domain.StatusInfo: lipgloss.NewStyle().Foreground(lipgloss.Color("51")),
		domain.StatusSkip: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
)

// ReporterImpl implements domain.ResultReporter
type ReporterImpl struct {
	color       bool
	showDetails bool
}

// NewReporter creates a reporter. Color should already account for the
// terminal; the reporter never probes it.
func NewReporter(cfg config.OutputConfig) *ReporterImpl {
	return &ReporterImpl{color: cfg.Color, showDetails: cfg.ShowDetails}
}

// Render returns the run in format
func (r *ReporterImpl) Render(run *domain.ValidationRun, format domain.OutputFormat) (string, error) {
	switch format {
	case domain.OutputFormatConsole:
		return r.renderConsole(run), nil
	case domain.OutputFormatJSON:
		data, err := EncodeJSONExport(NewJSONExport(run))
		if err != nil {
			return "", err
		}
		return string(data), nil
	case domain.OutputFormatMarkdown:
		return renderMarkdown(run), nil
	default:
		return "", domain.NewUnsupportedFormatError(string(format))
	}
}

// Write renders the run and writes it to writer
func (r *ReporterImpl) Write(run *domain.ValidationRun, format domain.OutputFormat, writer io.Writer) error {
	out, err := r.Render(run, format)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(writer, out); err != nil {
		return domain.NewOutputError("failed to write report", err)
	}
	return nil
}

func (r *ReporterImpl) style(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}

func (r *ReporterImpl) renderConsole(run *domain.ValidationRun) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", r.style(titleStyle, "SDLC Validation"))
	fmt.Fprintf(&b, "Project: %s\n", run.ProjectRoot)
	fmt.Fprintf(&b, "Level:   %s\n", run.Level)
	fmt.Fprintf(&b, "Phase:   %s\n\n", run.Gate.Phase)

	if run.Gate.Passed {
		fmt.Fprintf(&b, "Gate: %s\n", r.style(statusStyles[domain.StatusPass], "PASSED"))
	} else {
		fmt.Fprintf(&b, "Gate: %s\n", r.style(statusStyles[domain.StatusFail], "FAILED"))
		for _, issue := range run.Gate.Issues {
			fmt.Fprintf(&b, "  - %s\n", issue)
		}
	}
	b.WriteString("\n")

	for _, notice := range run.Notices {
		fmt.Fprintf(&b, "%s %s\n", r.style(statusStyles[domain.StatusWarn], "Notice:"), notice)
	}
	if len(run.Notices) > 0 {
		b.WriteString("\n")
	}

	grouped := groupByStatus(run.Results)
	for _, status := range statusOrder {
		results := grouped[status]
		if len(results) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s (%d)\n", r.style(statusStyles[status], statusLabels[status]), len(results))
		for _, res := range results {
			r.writeConsoleResult(&b, res, requiredMark(run.Required, res.CheckID))
		}
		b.WriteString("\n")
	}

	counts := run.CountByStatus()
	fmt.Fprintf(&b, "Summary: %d passed, %d failed, %d warnings, %d info, %d skipped\n",
		counts[domain.StatusPass], counts[domain.StatusFail], counts[domain.StatusWarn],
		counts[domain.StatusInfo], counts[domain.StatusSkip])
	if run.OverallSuccess {
		fmt.Fprintf(&b, "Result:  %s\n", r.style(statusStyles[domain.StatusPass], "SUCCESS"))
	} else {
		fmt.Fprintf(&b, "Result:  %s\n", r.style(statusStyles[domain.StatusFail], "FAILURE"))
	}
	return b.String()
}

func (r *ReporterImpl) writeConsoleResult(b *strings.Builder, res domain.CheckResult, mark string) {
	fmt.Fprintf(b, "  %s%s: %s\n", res.CheckID, mark, res.Message)

	showDetails := r.showDetails || res.Status == domain.StatusFail || res.Status == domain.StatusWarn
	if showDetails && res.Details != "" {
		for _, line := range strings.Split(res.Details, "\n") {
			fmt.Fprintf(b, "      %s\n", r.style(dimStyle, line))
		}
	}
	if res.FixHint != "" && res.Status != domain.StatusPass {
		fmt.Fprintf(b, "      %s %s\n", r.style(hintStyle, "Fix:"), res.FixHint)
	}
}

func requiredMark(required []domain.CheckID, id domain.CheckID) string {
	for _, r := range required {
		if r == id {
			return " (required)"
		}
	}
	return ""
}

func groupByStatus(results []domain.CheckResult) map[domain.Status][]domain.CheckResult {
	grouped := make(map[domain.Status][]domain.CheckResult, len(statusOrder))
	for _, res := range results {
		grouped[res.Status] = append(grouped[res.Status], res)
	}
	return grouped
}

func renderMarkdown(run *domain.ValidationRun) string {
	var b bytes.Buffer

	b.WriteString("## SDLC Validation Report\n\n")
	gate := "passed"
	if !run.Gate.Passed {
		gate = "**failed**"
	}
	overall := "success"
	if !run.OverallSuccess {
		overall = "**failure**"
	}
	fmt.Fprintf(&b, "- Level: `%s`\n", run.Level)
	fmt.Fprintf(&b, "- Phase: `%s`\n", run.Gate.Phase)
	fmt.Fprintf(&b, "- Gate: %s\n", gate)
	fmt.Fprintf(&b, "- Overall: %s\n\n", overall)

	if len(run.Gate.Issues) > 0 {
		b.WriteString("### Gate issues\n\n")
		for _, issue := range run.Gate.Issues {
			fmt.Fprintf(&b, "- %s\n", escapeMarkdownCell(issue))
		}
		b.WriteString("\n")
	}

	b.WriteString("| Check | Status | Message | Details | Fix |\n")
	b.WriteString("|-------|--------|---------|---------|-----|\n")
	for _, res := range run.Results {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			res.CheckID,
			res.Status,
			escapeMarkdownCell(res.Message),
			escapeMarkdownCell(res.Details),
			escapeMarkdownCell(res.FixHint),
		)
	}
	return b.String()
}

var markdownCellReplacer = strings.NewReplacer(
	"|", `\|`,
	"\r\n", "<br>",
	"\n", "<br>",
)

func escapeMarkdownCell(s string) string {
	return markdownCellReplacer.Replace(strings.TrimSpace(s))
}
