package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ludo-technologies/sdlcguard/domain"
)

// GateExport is the gate verdict as exported
type GateExport struct {
	Phase  domain.Phase `json:"phase"`
	Passed bool         `json:"passed"`
	Issues []string     `json:"issues"`
}

type gateEntry struct {
	Gate GateExport `json:"gate"`
}

// JSONExport is the decoded form of the JSON export: the gate entry
// followed by one entry per result
type JSONExport struct {
	Gate    GateExport
	Results []domain.CheckResult
}

// NewJSONExport builds the export of a run
func NewJSONExport(run *domain.ValidationRun) *JSONExport {
	issues := make([]string, len(run.Gate.Issues))
	for i, issue := range run.Gate.Issues {
		issues[i] = strings.ToValidUTF8(issue, "\uFFFD")
	}
	results := make([]domain.CheckResult, len(run.Results))
	for i, r := range run.Results {
		results[i] = validUTF8(r)
	}
	return &JSONExport{
		Gate: GateExport{
			Phase:  run.Gate.Phase,
			Passed: run.Gate.Passed,
			Issues: issues,
		},
		Results: results,
	}
}

// EncodeJSONExport renders the export as an indented JSON array. Output
// depends only on the export value.
func EncodeJSONExport(export *JSONExport) ([]byte, error) {
	issues := export.Gate.Issues
	if issues == nil {
		issues = []string{}
	}
	entries := make([]interface{}, 0, len(export.Results)+1)
	entries = append(entries, gateEntry{Gate: GateExport{
		Phase:  export.Gate.Phase,
		Passed: export.Gate.Passed,
		Issues: issues,
	}})
	for _, r := range export.Results {
		entries = append(entries, r)
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(entries); err != nil {
		return nil, domain.NewOutputError("failed to encode JSON export", err)
	}
	return buf.Bytes(), nil
}

// DecodeJSONExport parses an export produced by EncodeJSONExport
func DecodeJSONExport(data []byte) (*JSONExport, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, domain.NewOutputError("export is not a JSON array", err)
	}
	if len(raw) == 0 {
		return nil, domain.NewOutputError("export is empty", nil)
	}

	var head map[string]json.RawMessage
	if err := json.Unmarshal(raw[0], &head); err != nil {
		return nil, domain.NewOutputError("malformed gate entry", err)
	}
	gateRaw, ok := head["gate"]
	if !ok {
		return nil, domain.NewOutputError("first export entry must be the gate verdict", nil)
	}

	export := &JSONExport{Results: make([]domain.CheckResult, 0, len(raw)-1)}
	if err := json.Unmarshal(gateRaw, &export.Gate); err != nil {
		return nil, domain.NewOutputError("malformed gate entry", err)
	}
	for i, entry := range raw[1:] {
		var r domain.CheckResult
		if err := json.Unmarshal(entry, &r); err != nil {
			return nil, domain.NewOutputError(fmt.Sprintf("malformed result entry %d", i+1), err)
		}
		export.Results = append(export.Results, r)
	}
	return export, nil
}
