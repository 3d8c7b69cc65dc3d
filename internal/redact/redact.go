// Package redact scrubs secrets from external tool output before it is
// copied into check results and exports.
package redact

import (
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/zricethezav/gitleaks/v8/detect"
)

// Placeholder replaces every detected secret
const Placeholder = "[REDACTED]"

// Redactor detects secrets with the default gitleaks rule set
type Redactor struct {
	once     sync.Once
	detector *detect.Detector
	initErr  error
	mu       sync.Mutex
}

// New creates a Redactor. The rule set is compiled on first use.
func New() *Redactor {
	return &Redactor{}
}

func (r *Redactor) load() error {
	r.once.Do(func() {
		r.detector, r.initErr = detect.NewDetectorDefaultConfig()
	})
	return r.initErr
}

// Scrub replaces detected secrets in content. If the detector cannot be
// built the content is withheld entirely.
func (r *Redactor) Scrub(content string) string {
	if content == "" {
		return content
	}
	if err := r.load(); err != nil {
		return Placeholder
	}

	// The detector keeps per-scan state
	r.mu.Lock()
	findings := r.detector.DetectString(content)
	r.mu.Unlock()

	secrets := make([]string, 0, len(findings))
	for _, f := range findings {
		if f.Secret != "" {
			secrets = append(secrets, f.Secret)
		}
	}
	// Longest first so overlapping secrets are fully replaced
	sort.Slice(secrets, func(i, j int) bool { return len(secrets[i]) > len(secrets[j]) })
	for _, s := range secrets {
		content = strings.ReplaceAll(content, s, Placeholder)
	}
	return content
}

// Truncate caps content at max bytes, keeping the tail where tools usually
// print their summary. The cut moves forward to a rune boundary.
func Truncate(content string, max int) string {
	if max <= 0 || len(content) <= max {
		return content
	}
	const marker = "...(truncated)\n"
	cut := len(content) - max
	for cut < len(content) && !utf8.RuneStart(content[cut]) {
		cut++
	}
	return marker + content[cut:]
}
