package testsupport

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/goliatone/go-portfolio/pkg/model"
)

// SamplePortfolio returns a filled-in snapshot used across renderer and
// exporter tests.
func SamplePortfolio() model.Portfolio {
	return model.Portfolio{
		Profile: model.Profile{
			Name:     "Alice Example",
			Role:     "Systems Engineer",
			About:    "I build <fast> & reliable things.",
			Skills:   "Go, Rust,  , Python",
			Email:    "alice@example.com",
			GitHub:   "github.com/alice",
			LinkedIn: "https://linkedin.com/in/alice",
			Image:    "data:image/png;base64,iVBORw0KGgo=",
		},
		Projects: []model.Project{
			{ID: "1700000000000", Title: "Compiler", Description: "A toy compiler."},
			{ID: "1700000000001", Title: "<b>Cache</b>", Description: "Read-through cache."},
		},
		Year: 2026,
	}
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// CaptureTemplateOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}

	return out, buf.String()
}

// MustParseFragment parses markup as the children of a <div>, the context the
// preview pane renders into.
func MustParseFragment(t *testing.T, markup string) []*html.Node {
	t.Helper()

	nodes, err := html.ParseFragment(strings.NewReader(markup), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		t.Fatalf("parse fragment: %v", err)
	}
	return nodes
}

// MustParseDocument parses a complete HTML document.
func MustParseDocument(t *testing.T, markup []byte) *html.Node {
	t.Helper()

	doc, err := html.Parse(bytes.NewReader(markup))
	if err != nil {
		t.Fatalf("parse document: %v", err)
	}
	return doc
}

// RenderNodes serializes nodes back to markup so two trees can be compared
// structurally.
func RenderNodes(t *testing.T, nodes ...*html.Node) string {
	t.Helper()

	var buf bytes.Buffer
	for _, node := range nodes {
		if err := html.Render(&buf, node); err != nil {
			t.Fatalf("render nodes: %v", err)
		}
	}
	return buf.String()
}

// FindByID returns the first element carrying id, or nil.
func FindByID(root *html.Node, id string) *html.Node {
	if root == nil {
		return nil
	}
	if root.Type == html.ElementNode {
		for _, attr := range root.Attr {
			if attr.Key == "id" && attr.Val == id {
				return root
			}
		}
	}
	for child := root.FirstChild; child != nil; child = child.NextSibling {
		if found := FindByID(child, id); found != nil {
			return found
		}
	}
	return nil
}

// FindAllByClass returns every element whose class list contains class.
func FindAllByClass(root *html.Node, class string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode {
			for _, attr := range node.Attr {
				if attr.Key != "class" {
					continue
				}
				for _, name := range strings.Fields(attr.Val) {
					if name == class {
						out = append(out, node)
						break
					}
				}
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}

// TextContent concatenates the text nodes below node.
func TextContent(node *html.Node) string {
	if node == nil {
		return ""
	}
	if node.Type == html.TextNode {
		return node.Data
	}
	var b strings.Builder
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		b.WriteString(TextContent(child))
	}
	return b.String()
}

// Attr returns the value of key on node.
func Attr(node *html.Node, key string) string {
	if node == nil {
		return ""
	}
	for _, attr := range node.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
