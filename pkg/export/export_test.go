package export_test

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"

	"github.com/goliatone/go-portfolio/pkg/export"
	"github.com/goliatone/go-portfolio/pkg/model"
	"github.com/goliatone/go-portfolio/pkg/render"
	"github.com/goliatone/go-portfolio/pkg/renderers/vanilla"
	"github.com/goliatone/go-portfolio/pkg/testsupport"
	"github.com/goliatone/go-portfolio/pkg/themes"
)

func buildDocument(t *testing.T, portfolio model.Portfolio, opts ...export.Option) ([]byte, []byte) {
	t.Helper()

	renderer, err := vanilla.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	preview, err := renderer.Render(testsupport.Context(), portfolio, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render preview: %v", err)
	}
	exporter, err := export.New(opts...)
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}
	doc, err := exporter.Document(testsupport.Context(), portfolio, preview)
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	return preview, doc
}

func TestDocument_ContainsPreviewNodeForNode(t *testing.T) {
	preview, doc := buildDocument(t, testsupport.SamplePortfolio())

	body, err := export.ExtractPreview(doc)
	if err != nil {
		t.Fatalf("extract preview: %v", err)
	}
	var exported []*html.Node
	for child := body.FirstChild; child != nil; child = child.NextSibling {
		exported = append(exported, child)
	}

	want := testsupport.RenderNodes(t, testsupport.MustParseFragment(t, string(preview))...)
	got := testsupport.RenderNodes(t, exported...)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("exported preview differs (-preview +export):\n%s", diff)
	}
}

func TestDocument_Head(t *testing.T) {
	portfolio := testsupport.SamplePortfolio()
	portfolio.Profile.Name = "Alice <Admin>"
	_, doc := buildDocument(t, portfolio)
	out := string(doc)

	if !strings.HasPrefix(out, "<!DOCTYPE html>") {
		t.Fatalf("missing doctype: %.40s", out)
	}
	if !strings.Contains(out, "<title>Alice &lt;Admin&gt; - Portfolio</title>") {
		t.Fatalf("title not escaped:\n%s", out)
	}
	title, err := export.Title(doc)
	if err != nil {
		t.Fatalf("title: %v", err)
	}
	if title != "Alice <Admin> - Portfolio" {
		t.Fatalf("unexpected title %q", title)
	}
	for _, want := range []string{
		`<meta charset="UTF-8">`,
		`name="viewport"`,
		`<html lang="en">`,
		`<meta name="author" content="Alice &lt;Admin&gt;">`,
		`<meta name="apple-mobile-web-app-title" content="A&lt;">`,
		`<link rel="preconnect" href="https://fonts.googleapis.com">`,
		`<link rel="preconnect" href="https://fonts.gstatic.com" crossorigin>`,
		`<link rel="preconnect" href="https://cdnjs.cloudflare.com">`,
		`href="https://cdnjs.cloudflare.com/ajax/libs/font-awesome/6.4.0/css/all.min.css"`,
		".hero-section",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("document missing %q", want)
		}
	}
}

func TestDocument_PlaceholderTitle(t *testing.T) {
	_, doc := buildDocument(t, model.Portfolio{})
	title, err := export.Title(doc)
	if err != nil {
		t.Fatalf("title: %v", err)
	}
	if title != "Your Name - Portfolio" {
		t.Fatalf("unexpected title %q", title)
	}
	if strings.Contains(string(doc), `name="author"`) {
		t.Fatalf("blank name produced an author meta")
	}
}

func TestDocument_AuthorMeta(t *testing.T) {
	portfolio := testsupport.SamplePortfolio()
	portfolio.Profile.Name = "  ada   king lovelace "
	_, doc := buildDocument(t, portfolio, export.WithLang("fr"))
	out := string(doc)

	for _, want := range []string{
		`<html lang="fr">`,
		`<meta name="author" content="ada   king lovelace">`,
		`<meta name="apple-mobile-web-app-title" content="AKL">`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("document missing %q:\n%.600s", want, out)
		}
	}
}

func TestDocument_ThemeVariables(t *testing.T) {
	catalog, err := themes.NewCatalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	cfg, err := catalog.Resolve("", themes.VariantDark)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	_, doc := buildDocument(t, testsupport.SamplePortfolio(), export.WithTheme(cfg))
	out := string(doc)
	if !strings.Contains(out, ":root {") || !strings.Contains(out, "--pf-bg: #0f172a;") {
		t.Fatalf("theme variables not inlined:\n%s", out)
	}
	if !strings.Contains(out, `data-theme="dark"`) {
		t.Fatalf("variant marker missing")
	}
}

func TestWriteTo_AttachmentHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	doc := []byte("<!DOCTYPE html><html></html>")

	if err := export.WriteTo(rec, doc); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="portfolio.html"` {
		t.Fatalf("unexpected disposition %q", got)
	}
	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/html") {
		t.Fatalf("unexpected content type %q", got)
	}
	if rec.Body.String() != string(doc) {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestWriteFile_Atomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", export.Filename)

	if err := export.WriteFile(path, []byte("first")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := export.WriteFile(path, []byte("second")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "second" {
		t.Fatalf("unexpected content %q", data)
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temporary files left behind: %v", entries)
	}
}

func TestWriteFile_CleansUpOnFailure(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "taken")
	if err := os.Mkdir(target, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if err := export.WriteFile(target, []byte("doc")); err == nil {
		t.Fatalf("expected rename onto a directory to fail")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "taken" {
		t.Fatalf("temporary file not removed: %v", entries)
	}
}
