// Package export wraps rendered preview markup into a standalone HTML
// document and delivers it as a download or a file.
package export

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	theme "github.com/goliatone/go-theme"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/goliatone/go-portfolio/pkg/model"
	"github.com/goliatone/go-portfolio/pkg/render"
	rendertemplate "github.com/goliatone/go-portfolio/pkg/render/template"
	gotemplate "github.com/goliatone/go-portfolio/pkg/render/template/gotemplate"
	"github.com/goliatone/go-portfolio/pkg/renderers/vanilla"
	"github.com/goliatone/go-portfolio/pkg/themes"
)

// Filename is the name offered for downloaded documents.
const Filename = "portfolio.html"

// ContentType of exported documents.
const ContentType = "text/html; charset=utf-8"

const (
	// FontStylesheet is the web font used by the exported page.
	FontStylesheet = "https://fonts.googleapis.com/css2?family=Plus+Jakarta+Sans:wght@400;500;600;700&display=swap"
	// IconStylesheet provides the hero link icons.
	IconStylesheet = "https://cdnjs.cloudflare.com/ajax/libs/font-awesome/6.4.0/css/all.min.css"
)

// ErrNoPreview is returned by ExtractPreview when the document has no body.
var ErrNoPreview = errors.New("export: document has no preview body")

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

type Option func(*Exporter)

// WithTheme applies a resolved theme. Its CSS variables are inlined ahead of
// the base style sheet.
func WithTheme(cfg *theme.RendererConfig) Option {
	return func(e *Exporter) {
		e.theme = cfg
	}
}

// WithStylesheet replaces the embedded base style sheet.
func WithStylesheet(css string) Option {
	return func(e *Exporter) {
		e.stylesheet = css
	}
}

// WithExternalStylesheets replaces the font and icon links.
func WithExternalStylesheets(hrefs ...string) Option {
	return func(e *Exporter) {
		e.stylesheets = append([]string(nil), hrefs...)
	}
}

// WithLang sets the document language attribute.
func WithLang(lang string) Option {
	return func(e *Exporter) {
		if strings.TrimSpace(lang) != "" {
			e.lang = strings.TrimSpace(lang)
		}
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(e *Exporter) {
		if renderer != nil {
			e.templates = renderer
		}
	}
}

// Exporter builds standalone portfolio documents. It is safe for concurrent
// use.
type Exporter struct {
	templates   rendertemplate.TemplateRenderer
	theme       *theme.RendererConfig
	stylesheet  string
	stylesheets []string
	lang        string
}

func New(options ...Option) (*Exporter, error) {
	e := &Exporter{
		stylesheet:  vanilla.Stylesheet(),
		stylesheets: []string{FontStylesheet, IconStylesheet},
		lang:        "en",
	}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	if e.templates == nil {
		engine, err := gotemplate.New(
			gotemplate.WithFS(embeddedTemplates),
			gotemplate.WithExtension(".tmpl"),
			gotemplate.WithGlobalData(map[string]any{"lang": e.lang}),
		)
		if err != nil {
			return nil, fmt.Errorf("export: configure template renderer: %w", err)
		}
		e.templates = engine
	}
	return e, nil
}

// Document wraps preview markup verbatim in a complete HTML document titled
// after the portfolio owner.
func (e *Exporter) Document(ctx context.Context, portfolio model.Portfolio, preview []byte) ([]byte, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	data := map[string]any{
		"title":       portfolio.Title(),
		"author":      portfolio.Profile.Name,
		"preconnect":  preconnectHosts(e.stylesheets),
		"stylesheets": e.stylesheets,
		"stylesheet":  e.stylesheet,
		"body":        string(preview),
	}
	if e.theme != nil {
		data["theme_style"] = themes.RootStyle(e.theme.CSSVars)
		data["variant"] = e.theme.Variant
	}

	out, err := e.templates.RenderTemplate("templates/document.tmpl", data)
	if err != nil {
		return nil, fmt.Errorf("export: render document: %w", err)
	}
	return []byte(out), nil
}

// Build renders portfolio with renderer and wraps the result.
func (e *Exporter) Build(ctx context.Context, renderer render.Renderer, portfolio model.Portfolio, options render.RenderOptions) ([]byte, error) {
	preview, err := renderer.Render(ctx, portfolio, options)
	if err != nil {
		return nil, fmt.Errorf("export: render preview: %w", err)
	}
	return e.Document(ctx, portfolio, preview)
}

// WriteTo sends doc as a file download.
func WriteTo(w http.ResponseWriter, doc []byte) error {
	header := w.Header()
	header.Set("Content-Type", ContentType)
	header.Set("Content-Disposition", `attachment; filename="`+Filename+`"`)
	header.Set("Content-Length", strconv.Itoa(len(doc)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc); err != nil {
		return fmt.Errorf("export: write response: %w", err)
	}
	return nil
}

// WriteFile stores doc at path. The document is written to a temporary file
// in the same directory and renamed into place; the temporary file is
// removed on any failure.
func WriteFile(path string, doc []byte) (err error) {
	if strings.TrimSpace(path) == "" {
		path = Filename
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("export: create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".portfolio-*.html")
	if err != nil {
		return fmt.Errorf("export: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = io.Copy(tmp, bytes.NewReader(doc)); err != nil {
		return fmt.Errorf("export: write temp file: %w", err)
	}
	if err = tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("export: chmod temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("export: close temp file: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("export: rename into place: %w", err)
	}
	return nil
}

// ExtractPreview parses doc and returns its body, the container the preview
// markup was placed into.
func ExtractPreview(doc []byte) (*html.Node, error) {
	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("export: parse document: %w", err)
	}
	body := findElement(root, atom.Body)
	if body == nil {
		return nil, ErrNoPreview
	}
	return body, nil
}

// Title returns the text of the document's <title> element.
func Title(doc []byte) (string, error) {
	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		return "", fmt.Errorf("export: parse document: %w", err)
	}
	title := findElement(root, atom.Title)
	if title == nil || title.FirstChild == nil {
		return "", nil
	}
	return title.FirstChild.Data, nil
}

func findElement(node *html.Node, a atom.Atom) *html.Node {
	if node.Type == html.ElementNode && node.DataAtom == a {
		return node
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if found := findElement(child, a); found != nil {
			return found
		}
	}
	return nil
}

// fontOrigins maps a stylesheet host to the host serving the font files it
// references. Font fetches are CORS requests, so their preconnect needs
// crossorigin.
var fontOrigins = map[string]string{
	"fonts.googleapis.com": "https://fonts.gstatic.com",
}

type preconnect struct {
	Href        string `json:"href"`
	CrossOrigin bool   `json:"crossorigin"`
}

func preconnectHosts(hrefs []string) []preconnect {
	seen := make(map[string]bool)
	var out []preconnect
	add := func(origin string, crossOrigin bool) {
		if seen[origin] {
			return
		}
		seen[origin] = true
		out = append(out, preconnect{Href: origin, CrossOrigin: crossOrigin})
	}
	for _, href := range hrefs {
		rest, ok := strings.CutPrefix(href, "https://")
		if !ok {
			continue
		}
		host, _, _ := strings.Cut(rest, "/")
		if host == "" {
			continue
		}
		add("https://"+host, false)
		if fonts, ok := fontOrigins[host]; ok {
			add(fonts, true)
		}
	}
	return out
}
