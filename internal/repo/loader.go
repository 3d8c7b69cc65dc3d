// Package repo builds the read-only RepositoryContext from git metadata and
// the working tree.
package repo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/ludo-technologies/sdlcguard/domain"
	"github.com/ludo-technologies/sdlcguard/internal/config"
	"github.com/ludo-technologies/sdlcguard/internal/scanner"
)

// Marker files that identify framework scaffolding
var (
	// emptyRepoMarkers are the only files an empty repository may carry
	emptyRepoMarkers = []string{"README.md", "CLAUDE.md"}

	// frameworkMarkers must all exist for the framework repository itself
	frameworkMarkers = []string{"setup-smart.py", "templates/architecture"}
)

// Loader implements domain.RepositoryLoader
type Loader struct {
	cfg    *config.Config
	getenv func(string) string
	now    func() time.Time
}

// Option customises a Loader
type Option func(*Loader)

// WithGetenv replaces environment lookups, mainly for tests
func WithGetenv(getenv func(string) string) Option {
	return func(l *Loader) { l.getenv = getenv }
}

// WithClock replaces the wall clock
func WithClock(now func() time.Time) Option {
	return func(l *Loader) { l.now = now }
}

// NewLoader creates a Loader
func NewLoader(cfg *config.Config, opts ...Option) *Loader {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	l := &Loader{cfg: cfg, getenv: os.Getenv, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load probes root. It never writes and fails only when root is missing or
// is not inside a git work tree.
func (l *Loader) Load(ctx context.Context, root string) (*domain.RepositoryContext, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, domain.NewInvalidInputError("cannot resolve path "+root, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, domain.NewFileNotFoundError(absRoot, err)
	}
	if !info.IsDir() {
		return nil, domain.NewInvalidInputError(absRoot+" is not a directory", nil)
	}

	repository, err := git.PlainOpenWithOptions(absRoot, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, domain.NewNotARepositoryError(absRoot, err)
	}
	worktree, err := repository.Worktree()
	if err != nil {
		return nil, domain.NewNotARepositoryError(absRoot, err)
	}
	workRoot := worktree.Filesystem.Root()

	rc := &domain.RepositoryContext{
		RootPath:           workRoot,
		LoadedAt:           l.now(),
		RecentFileActivity: []string{},
		RecentCommits:      []domain.Commit{},
		SourceDirs:         []string{},
	}

	branch, headHash, err := currentBranch(repository)
	if err != nil {
		return nil, domain.NewNotARepositoryError(absRoot, err)
	}
	rc.CurrentBranch = branch

	if !headHash.IsZero() {
		commits, err := recentCommits(repository, headHash, l.cfg.Checks.CommitHistoryDepth)
		if err != nil {
			return nil, err
		}
		rc.RecentCommits = commits
		rc.HasCommits = len(commits) > 0
		if rc.HasCommits {
			rc.LastCommitTime = commits[0].When
		}
	}

	rc.CI = l.ciSignals()
	if rc.CI.IsPullRequest() && rc.CI.HeadRef != "" {
		rc.CurrentBranch = rc.CI.HeadRef
	}

	rc.IsFrameworkRepo = allExist(workRoot, frameworkMarkers)
	rc.IsEmptyRepo, err = l.isEmptyRepo(ctx, workRoot)
	if err != nil {
		return nil, err
	}

	for _, dir := range l.cfg.Gate.SourceDirs {
		if isDir(filepath.Join(workRoot, dir)) {
			rc.SourceDirs = append(rc.SourceDirs, dir)
		}
	}

	window := time.Duration(l.cfg.Gate.RecentActivityMinutes) * time.Minute
	rc.RecentFileActivity = recentActivity(workRoot, "docs", rc.LoadedAt.Add(-window))

	return rc, nil
}

// currentBranch returns the short branch name and HEAD hash. An unborn
// branch yields its symbolic name and a zero hash. Detached HEAD yields an
// empty name.
func currentBranch(repository *git.Repository) (string, plumbing.Hash, error) {
	head, err := repository.Head()
	if err == nil {
		if head.Name().IsBranch() {
			return head.Name().Short(), head.Hash(), nil
		}
		return "", head.Hash(), nil
	}
	if !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return "", plumbing.ZeroHash, err
	}

	symbolic, err := repository.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return "", plumbing.ZeroHash, err
	}
	if symbolic.Type() == plumbing.SymbolicReference && symbolic.Target().IsBranch() {
		return symbolic.Target().Short(), plumbing.ZeroHash, nil
	}
	return "", plumbing.ZeroHash, nil
}

func recentCommits(repository *git.Repository, from plumbing.Hash, depth int) ([]domain.Commit, error) {
	iter, err := repository.Log(&git.LogOptions{From: from, Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	defer iter.Close()

	commits := make([]domain.Commit, 0, depth)
	err = iter.ForEach(func(c *object.Commit) error {
		if len(commits) >= depth {
			return storer.ErrStop
		}
		commits = append(commits, domain.Commit{
			Hash:    c.Hash.String(),
			Message: c.Message,
			Author:  c.Author.Name,
			When:    c.Committer.When,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk history: %w", err)
	}
	return commits, nil
}

func (l *Loader) ciSignals() domain.CISignals {
	ci, _ := strconv.ParseBool(l.getenv("CI"))
	return domain.CISignals{
		IsCI:      ci || l.getenv("GITHUB_ACTIONS") == "true",
		EventName: l.getenv("GITHUB_EVENT_NAME"),
		HeadRef:   l.getenv("GITHUB_HEAD_REF"),
	}
}

// isEmptyRepo is a heuristic: the repository carries at least one
// scaffolding marker (README.md, CLAUDE.md) and no file with a source
// extension outside the skip dirs. A repository with no files at all is
// not considered empty because nothing marks it as scaffolded.
func (l *Loader) isEmptyRepo(ctx context.Context, root string) (bool, error) {
	hasMarker := false
	for _, marker := range emptyRepoMarkers {
		if fileExists(filepath.Join(root, marker)) {
			hasMarker = true
			break
		}
	}
	if !hasMarker {
		return false, nil
	}

	walker := scanner.NewWalker(root, l.cfg.Checks.SkipDirs, l.cfg.Checks.SourceExtensions)
	hasSource, err := walker.HasSourceFiles(ctx)
	if err != nil {
		return false, err
	}
	return !hasSource, nil
}

// recentActivity lists files under dir modified at or after since
func recentActivity(root, dir string, since time.Time) []string {
	recent := []string{}
	base := filepath.Join(root, dir)
	_ = filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if !info.ModTime().Before(since) {
			if rel, err := filepath.Rel(root, path); err == nil {
				recent = append(recent, filepath.ToSlash(rel))
			}
		}
		return nil
	})
	sort.Strings(recent)
	return recent
}

func allExist(root string, rels []string) bool {
	for _, rel := range rels {
		if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel))); err != nil {
			return false
		}
	}
	return true
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// IsProtectedBranch reports whether branch is one of the protected names
func IsProtectedBranch(branch string, protected []string) bool {
	for _, p := range protected {
		if strings.EqualFold(branch, p) {
			return true
		}
	}
	return false
}
