package scanner

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Marker is a debt marker found in a source file
type Marker struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Tag  string `json:"tag"`
	Text string `json:"text"`
}

// String formats the marker as file:line tag text
func (m Marker) String() string {
	return fmt.Sprintf("%s:%d %s %s", m.File, m.Line, m.Tag, m.Text)
}

// MarkerScanner finds TODO-style markers. Files in a language with a
// grammar are parsed and only their comments are inspected; other files
// are scanned line by line.
type MarkerScanner struct {
	pattern *regexp.Regexp
}

// NewMarkerScanner builds a scanner for whole-word tags
func NewMarkerScanner(tags []string) *MarkerScanner {
	quoted := make([]string, len(tags))
	for i, tag := range tags {
		quoted[i] = regexp.QuoteMeta(tag)
	}
	return &MarkerScanner{
		pattern: regexp.MustCompile(`\b(` + strings.Join(quoted, "|") + `)\b`),
	}
}

// languageFor selects a grammar from the file extension
func languageFor(filename string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".go":
		return golang.GetLanguage()
	case ".py":
		return python.GetLanguage()
	case ".js", ".jsx", ".mjs", ".cjs":
		return javascript.GetLanguage()
	case ".ts", ".mts", ".cts":
		return typescript.GetLanguage()
	case ".tsx":
		return tsx.GetLanguage()
	}
	return nil
}

// Scan returns markers in source, reported against name
func (s *MarkerScanner) Scan(ctx context.Context, name string, source []byte) ([]Marker, error) {
	lang := languageFor(name)
	if lang == nil {
		return s.scanLines(name, source, 1), nil
	}

	// Parsers are not safe for concurrent use, so one per file
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, source)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse file %s: %v", name, err)
	}
	defer tree.Close()

	var markers []Marker
	for _, comment := range collectComments(tree.RootNode()) {
		text := comment.Content(source)
		startLine := int(comment.StartPoint().Row) + 1
		markers = append(markers, s.scanLines(name, []byte(text), startLine)...)
	}
	return markers, nil
}

// scanLines matches every line, numbering from firstLine
func (s *MarkerScanner) scanLines(name string, text []byte, firstLine int) []Marker {
	var markers []Marker
	sc := bufio.NewScanner(bytes.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := firstLine
	for sc.Scan() {
		content := sc.Text()
		if m := s.pattern.FindStringSubmatch(content); m != nil {
			markers = append(markers, Marker{
				File: name,
				Line: line,
				Tag:  m[1],
				Text: strings.TrimSpace(content),
			})
		}
		line++
	}
	return markers
}

// collectComments gathers comment nodes in document order
func collectComments(root *sitter.Node) []*sitter.Node {
	if root == nil {
		return nil
	}
	var comments []*sitter.Node
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n.Type() == "comment" {
			comments = append(comments, n)
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			visit(n.Child(i))
		}
	}
	visit(root)
	return comments
}
