package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ludo-technologies/sdlcguard/domain"
	"github.com/ludo-technologies/sdlcguard/internal/config"
	"github.com/ludo-technologies/sdlcguard/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoader(env map[string]string, now time.Time) *Loader {
	return NewLoader(config.DefaultConfig(),
		WithGetenv(testutil.Env(env)),
		WithClock(func() time.Time { return now }),
	)
}

func TestLoad_NotARepository(t *testing.T) {
	dir := t.TempDir()
	_, err := newTestLoader(nil, testutil.FixedTime).Load(context.Background(), dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotARepository))
	assert.Equal(t, domain.ErrCodeNotARepository, domain.ErrorCode(err))
}

func TestLoad_MissingRoot(t *testing.T) {
	_, err := newTestLoader(nil, testutil.FixedTime).Load(context.Background(), "/definitely/not/here")
	require.Error(t, err)
	assert.Equal(t, domain.ErrCodeFileNotFound, domain.ErrorCode(err))
}

func TestLoad_UnbornBranch(t *testing.T) {
	r := testutil.NewRepo(t, "feature/login-flow")

	rc, err := newTestLoader(nil, testutil.FixedTime).Load(context.Background(), r.Root)
	require.NoError(t, err)
	assert.Equal(t, r.Root, rc.RootPath)
	assert.Equal(t, "feature/login-flow", rc.CurrentBranch)
	assert.False(t, rc.HasCommits)
	assert.Empty(t, rc.RecentCommits)
}

func TestLoad_CommitsAndBranch(t *testing.T) {
	r := testutil.NewRepo(t, "fix/crash")
	r.WriteFile("main.go", "package main\n")
	r.Commit("feat: first", testutil.FixedTime.Add(-2*time.Hour))
	r.WriteFile("lib/util.go", "package lib\n")
	r.Commit("fix: second", testutil.FixedTime.Add(-time.Hour))

	rc, err := newTestLoader(nil, testutil.FixedTime).Load(context.Background(), r.Root)
	require.NoError(t, err)

	assert.Equal(t, "fix/crash", rc.CurrentBranch)
	assert.True(t, rc.HasCommits)
	require.Len(t, rc.RecentCommits, 2)
	assert.Equal(t, "fix: second", rc.RecentCommits[0].Subject())
	assert.True(t, rc.LastCommitTime.Equal(testutil.FixedTime.Add(-time.Hour)))
	assert.Equal(t, []string{"lib"}, rc.SourceDirs)
	assert.False(t, rc.IsEmptyRepo)
}

func TestLoad_EmptyRepoHeuristic(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  bool
	}{
		{"readme and instructions", []string{"README.md", "CLAUDE.md"}, true},
		{"readme only", []string{"README.md"}, true},
		{"with python source", []string{"README.md", "CLAUDE.md", "main.py"}, false},
		{"with javascript source", []string{"CLAUDE.md", "index.js"}, false},
		{"nothing at all", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := testutil.NewRepo(t, "main")
			for _, f := range tt.files {
				r.WriteFile(f, "content\n")
			}

			rc, err := newTestLoader(nil, testutil.FixedTime).Load(context.Background(), r.Root)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rc.IsEmptyRepo)
		})
	}
}

func TestLoad_FrameworkRepo(t *testing.T) {
	r := testutil.NewRepo(t, "main")
	r.WriteFile("setup-smart.py", "print()\n")
	r.Mkdir("templates/architecture")

	rc, err := newTestLoader(nil, testutil.FixedTime).Load(context.Background(), r.Root)
	require.NoError(t, err)
	assert.True(t, rc.IsFrameworkRepo)
}

func TestLoad_RecentActivity(t *testing.T) {
	now := time.Now()
	r := testutil.NewRepo(t, "main")
	r.WriteFile("docs/architecture/system-invariants.md", "x")
	r.WriteFile("docs/old.md", "x")
	r.Touch("docs/architecture/system-invariants.md", now.Add(-10*time.Minute))
	r.Touch("docs/old.md", now.Add(-48*time.Hour))

	rc, err := newTestLoader(nil, now).Load(context.Background(), r.Root)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/architecture/system-invariants.md"}, rc.RecentFileActivity)
}

func TestLoad_PullRequestHeadRef(t *testing.T) {
	r := testutil.NewRepo(t, "main")
	env := map[string]string{
		"CI":                "true",
		"GITHUB_EVENT_NAME": "pull_request",
		"GITHUB_HEAD_REF":   "feature/from-pr",
	}

	rc, err := newTestLoader(env, testutil.FixedTime).Load(context.Background(), r.Root)
	require.NoError(t, err)
	assert.True(t, rc.CI.IsCI)
	assert.True(t, rc.CI.IsPullRequest())
	assert.Equal(t, "feature/from-pr", rc.CurrentBranch)
}

func TestLoad_Subdirectory(t *testing.T) {
	r := testutil.NewRepo(t, "main")
	r.Mkdir("nested/deeper")

	rc, err := newTestLoader(nil, testutil.FixedTime).Load(context.Background(), r.Root+"/nested/deeper")
	require.NoError(t, err)
	assert.Equal(t, r.Root, rc.RootPath)
}

func TestIsProtectedBranch(t *testing.T) {
	protected := []string{"main", "master"}
	assert.True(t, IsProtectedBranch("main", protected))
	assert.True(t, IsProtectedBranch("Master", protected))
	assert.False(t, IsProtectedBranch("feature/main", protected))
}
