package domain

import (
	"context"
	"time"
)

// ValidateRequest is the input to one pipeline run
type ValidateRequest struct {
	// Root is the repository path to validate
	Root string

	// Level forces a level. Empty means detect.
	Level Level

	// Checks is the requested subset. Empty means the level's optional set.
	Checks []CheckID

	// Strict restricts the run to the required set
	Strict bool
}

// ValidationRun is the aggregate outcome of a pipeline run
type ValidationRun struct {
	RunID          string        `json:"run_id"`
	ProjectRoot    string        `json:"project_root"`
	Level          Level         `json:"level"`
	Gate           Gate          `json:"gate"`
	Results        []CheckResult `json:"results"`
	Required       []CheckID     `json:"required"`
	OverallSuccess bool          `json:"overall_success"`
	Timestamp      time.Time     `json:"timestamp"`
	Notices        []string      `json:"notices,omitempty"`
}

// Result returns the result for id, if it ran
func (r *ValidationRun) Result(id CheckID) (CheckResult, bool) {
	for _, res := range r.Results {
		if res.CheckID == id {
			return res, true
		}
	}
	return CheckResult{}, false
}

// CountByStatus tallies results per status
func (r *ValidationRun) CountByStatus() map[Status]int {
	counts := make(map[Status]int, 5)
	for _, res := range r.Results {
		counts[res.Status]++
	}
	return counts
}

// ComputeOverallSuccess applies the success rule: the gate passed and
// no required check failed.
func ComputeOverallSuccess(gate Gate, results []CheckResult, required []CheckID) bool {
	if !gate.Passed {
		return false
	}
	for _, res := range results {
		if res.Status == StatusFail && containsCheck(required, res.CheckID) {
			return false
		}
	}
	return true
}

// ValidationPipeline orchestrates a full run
type ValidationPipeline interface {
	Execute(ctx context.Context, req ValidateRequest) (*ValidationRun, error)
}
