package proposal

import (
	"sort"
	"strings"
)

// Complexity is the classifier verdict for a proposal
type Complexity struct {
	Complex bool     `json:"complex"`
	Matched []string `json:"matched"`
}

// ClassifyComplexity counts distinct keywords appearing in text, ignoring
// case. The proposal is complex when at least threshold keywords appear.
func ClassifyComplexity(text string, keywords []string, threshold int) Complexity {
	lower := strings.ToLower(text)
	seen := make(map[string]bool, len(keywords))
	matched := []string{}
	for _, kw := range keywords {
		k := strings.ToLower(strings.TrimSpace(kw))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		if strings.Contains(lower, k) {
			matched = append(matched, k)
		}
	}
	sort.Strings(matched)
	return Complexity{
		Complex: threshold > 0 && len(matched) >= threshold,
		Matched: matched,
	}
}
