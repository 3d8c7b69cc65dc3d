package service

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/ludo-technologies/sdlcguard/domain"
)

// maxListedItems caps per-item lines in result details
const maxListedItems = 20

func newResult(status domain.Status, message, details, fixHint string) domain.CheckResult {
	return domain.CheckResult{
		Status:  status,
		Message: message,
		Details: details,
		FixHint: fixHint,
	}
}

func skipResult(message string) domain.CheckResult {
	return newResult(domain.StatusSkip, message, "", "")
}

// severity picks between a lenient and a strict status by level
func severity(level domain.Level, strictFrom domain.Level, lenient domain.Status) domain.Status {
	if level.AtLeast(strictFrom) {
		return domain.StatusFail
	}
	return lenient
}

// isWorkBranch reports whether branch carries one of the work prefixes
func isWorkBranch(branch string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(branch, prefix) && len(branch) > len(prefix) {
			return true
		}
	}
	return false
}

func fileExists(root, rel string) bool {
	info, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	return err == nil && !info.IsDir()
}

// document is a markdown file found for the current branch
type document struct {
	Path    string
	Content []byte
	ModTime time.Time
}

// findBranchDocument looks in dirs for a markdown file whose name contains
// slug as a whole word. Failing that it returns the first file whose content
// mentions the full branch name, or the slug too when slugInContent is set.
// Directories and files are visited in sorted order.
func findBranchDocument(root string, dirs []string, slug, branch string, slugInContent bool) (*document, error) {
	if slug == "" {
		return nil, nil
	}

	var candidates []string
	for _, dir := range dirs {
		entries, err := os.ReadDir(filepath.Join(root, filepath.FromSlash(dir)))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to list %s: %w", dir, err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".md") {
				continue
			}
			rel := path.Join(dir, e.Name())
			if containsWord(e.Name(), slug) {
				return loadDocument(root, rel)
			}
			candidates = append(candidates, rel)
		}
	}

	sort.Strings(candidates)
	for _, rel := range candidates {
		doc, err := loadDocument(root, rel)
		if err != nil {
			return nil, err
		}
		content := string(doc.Content)
		if strings.Contains(content, branch) || (slugInContent && containsWord(content, slug)) {
			return doc, nil
		}
	}
	return nil, nil
}

// containsWord reports whether text contains word, ignoring case, with no
// letter or digit directly before or after it. "ui" matches "ui-notes.md"
// but not "build-guide.md".
func containsWord(text, word string) bool {
	if word == "" {
		return false
	}
	text, word = strings.ToLower(text), strings.ToLower(word)
	for offset := 0; offset <= len(text)-len(word); {
		i := strings.Index(text[offset:], word)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(word)
		before, _ := utf8.DecodeLastRuneInString(text[:start])
		after, _ := utf8.DecodeRuneInString(text[end:])
		if !isWordRune(before) && !isWordRune(after) {
			return true
		}
		offset = start + 1
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func loadDocument(root, rel string) (*document, error) {
	full := filepath.Join(root, filepath.FromSlash(rel))
	info, err := os.Stat(full)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", rel, err)
	}
	content, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rel, err)
	}
	return &document{Path: rel, Content: content, ModTime: info.ModTime()}, nil
}

// formatList renders one item per line, capped at maxListedItems
func formatList(items []string) string {
	if len(items) <= maxListedItems {
		return strings.Join(items, "\n")
	}
	shown := append([]string(nil), items[:maxListedItems]...)
	shown = append(shown, fmt.Sprintf("... and %d more", len(items)-maxListedItems))
	return strings.Join(shown, "\n")
}

// joinDirs renders search locations for messages
func joinDirs(dirs []string) string {
	quoted := make([]string, len(dirs))
	for i, d := range dirs {
		quoted[i] = d + "/"
	}
	return strings.Join(quoted, ", ")
}
