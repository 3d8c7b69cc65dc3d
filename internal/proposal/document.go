// Package proposal parses feature proposal documents and classifies their
// complexity.
package proposal

import (
	"bytes"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"
)

// Section is a required part of a proposal
type Section struct {
	// Name is shown in fix hints
	Name string
	// Heading matches a markdown heading containing this text
	Heading string
	// Field matches a "Label:" line, with or without emphasis
	Field string
}

// RequiredSections are the sections every proposal must carry
var RequiredSections = []Section{
	{Name: "Motivation", Heading: "motivation"},
	{Name: "Target Branch", Heading: "target branch", Field: "target branch"},
	{Name: "Success Criteria", Heading: "success criteria"},
}

// Document is a parsed proposal
type Document struct {
	Path     string
	Headings []string
	Text     string
}

// Parse extracts headings from markdown source
func Parse(path string, source []byte) *Document {
	// The parser may rewrite its input
	input := bytes.Clone(source)
	p := parser.NewWithExtensions(parser.CommonExtensions)
	root := markdown.Parse(input, p)

	doc := &Document{Path: path, Text: string(source)}
	ast.WalkFunc(root, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		if heading, ok := node.(*ast.Heading); ok {
			doc.Headings = append(doc.Headings, strings.TrimSpace(plainText(heading)))
			return ast.SkipChildren
		}
		return ast.GoToNext
	})
	return doc
}

// plainText concatenates the literal text below node
func plainText(node ast.Node) string {
	var sb strings.Builder
	ast.WalkFunc(node, func(n ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		switch leaf := n.(type) {
		case *ast.Text:
			sb.Write(leaf.Literal)
		case *ast.Code:
			sb.Write(leaf.Literal)
		}
		return ast.GoToNext
	})
	return sb.String()
}

// HasHeading reports a heading containing name, case-insensitively
func (d *Document) HasHeading(name string) bool {
	name = strings.ToLower(name)
	for _, h := range d.Headings {
		if strings.Contains(strings.ToLower(h), name) {
			return true
		}
	}
	return false
}

// HasField reports a "Label: value" line such as "**Target Branch**: x"
func (d *Document) HasField(label string) bool {
	label = strings.ToLower(label)
	for _, line := range strings.Split(d.Text, "\n") {
		clean := strings.ToLower(strings.Trim(strings.TrimSpace(line), "-*_> "))
		clean = strings.NewReplacer("*", "", "_", "").Replace(clean)
		if strings.HasPrefix(clean, label) && strings.Contains(clean, ":") {
			return true
		}
	}
	return false
}

// MissingSections returns the names of required sections not present
func (d *Document) MissingSections(required []Section) []string {
	var missing []string
	for _, s := range required {
		if s.Heading != "" && d.HasHeading(s.Heading) {
			continue
		}
		if s.Field != "" && d.HasField(s.Field) {
			continue
		}
		missing = append(missing, s.Name)
	}
	return missing
}
