package domain

import (
	"context"
	"strings"
	"time"
)

// Commit is a minimal view of a git commit
type Commit struct {
	Hash    string    `json:"hash"`
	Message string    `json:"message"`
	Author  string    `json:"author"`
	When    time.Time `json:"when"`
}

// Subject returns the first line of the commit message
func (c Commit) Subject() string {
	subject, _, _ := strings.Cut(c.Message, "\n")
	return strings.TrimSpace(subject)
}

// CISignals are the CI environment facts captured at load time
type CISignals struct {
	IsCI      bool   `json:"is_ci"`
	EventName string `json:"event_name"`
	HeadRef   string `json:"head_ref"`
}

// IsPullRequest reports whether the run is attached to a pull request
func (c CISignals) IsPullRequest() bool {
	return c.EventName == "pull_request" || c.EventName == "pull_request_target"
}

// RepositoryContext is the read-only snapshot of a repository shared by
// every check and the gate. Nothing may modify it after Load returns.
type RepositoryContext struct {
	RootPath           string    `json:"root_path"`
	IsFrameworkRepo    bool      `json:"is_framework_repo"`
	IsEmptyRepo        bool      `json:"is_empty_repo"`
	CurrentBranch      string    `json:"current_branch"`
	RecentFileActivity []string  `json:"recent_file_activity"`
	HasCommits         bool      `json:"has_commits"`
	LastCommitTime     time.Time `json:"last_commit_time"`
	RecentCommits      []Commit  `json:"recent_commits"`
	SourceDirs         []string  `json:"source_dirs"`
	CI                 CISignals `json:"ci"`
	LoadedAt           time.Time `json:"loaded_at"`
}

// BranchSlug strips a known prefix from the current branch.
// feature/login-flow yields login-flow.
func (r *RepositoryContext) BranchSlug() string {
	branch := r.CurrentBranch
	if i := strings.LastIndex(branch, "/"); i >= 0 {
		return branch[i+1:]
	}
	return branch
}

// RepositoryLoader builds a RepositoryContext
type RepositoryLoader interface {
	Load(ctx context.Context, root string) (*RepositoryContext, error)
}
