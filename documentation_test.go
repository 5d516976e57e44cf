package folio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// TestDocumentation lints every markdown document shipped with the module:
// it must parse, carry at least one heading, and contain no dangling link
// or untagged code fence.
func TestDocumentation(t *testing.T) {
	files, err := filepath.Glob("docs/*.md")
	if err != nil {
		t.Fatal(err)
	}
	files = append(files, "README.md")

	for _, file := range files {
		t.Run(file, func(t *testing.T) {
			lintMarkdown(t, file)
		})
	}
}

func lintMarkdown(t *testing.T, file string) {
	t.Helper()
	source, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("failed to read %s: %v", file, err)
	}

	root := goldmark.DefaultParser().Parse(text.NewReader(source))

	headings := 0
	err = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			headings++
		case *ast.Link:
			if len(node.Destination) == 0 {
				t.Errorf("%s: link %q has no destination", file, node.Text(source))
			}
		case *ast.FencedCodeBlock:
			if node.Info == nil || len(node.Info.Segment.Value(source)) == 0 {
				t.Errorf("%s: code fence without a language tag", file)
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if headings == 0 {
		t.Errorf("%s: no headings", file)
	}
}
