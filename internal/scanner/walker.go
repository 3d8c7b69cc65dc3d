// Package scanner walks repository source files and extracts comment
// markers from them.
package scanner

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

var errStopWalk = errors.New("stop walk")

// Walker enumerates source files under a root, honouring skip dirs and the
// root .gitignore
type Walker struct {
	root       string
	skipDirs   map[string]bool
	extensions map[string]bool
	gitignore  *ignore.GitIgnore
}

// NewWalker creates a walker. A missing .gitignore is not an error.
func NewWalker(root string, skipDirs, extensions []string) *Walker {
	w := &Walker{
		root:       root,
		skipDirs:   make(map[string]bool, len(skipDirs)),
		extensions: make(map[string]bool, len(extensions)),
	}
	for _, d := range skipDirs {
		w.skipDirs[d] = true
	}
	w.skipDirs[".git"] = true
	for _, ext := range extensions {
		w.extensions[strings.ToLower(ext)] = true
	}
	if gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
		w.gitignore = gi
	}
	return w
}

// IsSource reports whether a path has a source extension
func (w *Walker) IsSource(path string) bool {
	return w.extensions[strings.ToLower(filepath.Ext(path))]
}

// SourceFiles returns repository-relative slash paths of all source files,
// sorted
func (w *Walker) SourceFiles(ctx context.Context) ([]string, error) {
	var files []string
	err := w.walk(ctx, func(rel string) error {
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// HasSourceFiles stops at the first source file found
func (w *Walker) HasSourceFiles(ctx context.Context) (bool, error) {
	found := false
	err := w.walk(ctx, func(string) error {
		found = true
		return errStopWalk
	})
	if err != nil && !errors.Is(err, errStopWalk) {
		return false, err
	}
	return found, nil
}

func (w *Walker) walk(ctx context.Context, visit func(rel string) error) error {
	return filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return nil
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel, relErr := filepath.Rel(w.root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if w.skipDirs[d.Name()] || w.ignored(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&os.ModeSymlink != 0 || !w.IsSource(path) || w.ignored(rel) {
			return nil
		}
		return visit(rel)
	})
}

func (w *Walker) ignored(rel string) bool {
	return w.gitignore != nil && w.gitignore.MatchesPath(rel)
}
