// Package testutil provides git repository fixtures for sdlcguard tests
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// FixedTime is the reference clock used by fixtures
var FixedTime = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

// Repo is a throwaway git repository in a temp dir
type Repo struct {
	t    testing.TB
	Root string
	Git  *git.Repository
}

// NewRepo initialises a repository whose HEAD points at branch
func NewRepo(t testing.TB, branch string) *Repo {
	t.Helper()
	root := t.TempDir()
	// Resolve symlinks so paths compare equal to the loader's output
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	repository, err := git.PlainInit(root, false)
	require.NoError(t, err)

	head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(branch))
	require.NoError(t, repository.Storer.SetReference(head))

	return &Repo{t: t, Root: root, Git: repository}
}

// WriteFile writes content at a slash-separated relative path
func (r *Repo) WriteFile(rel, content string) string {
	r.t.Helper()
	path := filepath.Join(r.Root, filepath.FromSlash(rel))
	require.NoError(r.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(r.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// Mkdir creates a directory at a relative path
func (r *Repo) Mkdir(rel string) {
	r.t.Helper()
	require.NoError(r.t, os.MkdirAll(filepath.Join(r.Root, filepath.FromSlash(rel)), 0o755))
}

// Touch sets the modification time of a relative path
func (r *Repo) Touch(rel string, when time.Time) {
	r.t.Helper()
	require.NoError(r.t, os.Chtimes(filepath.Join(r.Root, filepath.FromSlash(rel)), when, when))
}

// Commit stages everything and commits it at when
func (r *Repo) Commit(message string, when time.Time) plumbing.Hash {
	r.t.Helper()
	worktree, err := r.Git.Worktree()
	require.NoError(r.t, err)
	require.NoError(r.t, worktree.AddWithOptions(&git.AddOptions{All: true}))

	sig := &object.Signature{Name: "Fixture", Email: "fixture@example.com", When: when}
	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author:            sig,
		Committer:         sig,
		AllowEmptyCommits: true,
	})
	require.NoError(r.t, err)
	return hash
}

// Env builds a Getenv replacement from a map
func Env(values map[string]string) func(string) string {
	return func(key string) string {
		return values[key]
	}
}

// ArchitectureDocs are the six canonical architecture document names
var ArchitectureDocs = []string{
	"requirements-traceability-matrix.md",
	"what-if-analysis.md",
	"architecture-decision-record.md",
	"system-invariants.md",
	"integration-design.md",
	"failure-mode-analysis.md",
}

// WriteArchitectureDocs writes every canonical doc except the ones listed
func (r *Repo) WriteArchitectureDocs(except ...string) {
	r.t.Helper()
	skip := make(map[string]bool, len(except))
	for _, e := range except {
		skip[e] = true
	}
	for _, doc := range ArchitectureDocs {
		if !skip[doc] {
			r.WriteFile("docs/architecture/"+doc, "# "+doc+"\n\nCompleted content.\n")
		}
	}
}
