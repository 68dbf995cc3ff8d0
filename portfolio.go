// Package portfolio builds single-page developer portfolios: a live browser
// editor, headless builds from a YAML file and a standalone HTML export.
package portfolio

import (
	"context"

	"github.com/goliatone/go-portfolio/pkg/orchestrator"
	"github.com/goliatone/go-portfolio/pkg/render"
	"github.com/goliatone/go-portfolio/pkg/themes"
	theme "github.com/goliatone/go-theme"
)

// Request aliases orchestrator.Request for callers of the top-level package.
type Request = orchestrator.Request

// RenderOptions describes per-call renderer switches.
type RenderOptions = render.RenderOptions

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// GenerateHTML loads the portfolio file at path and returns the exported,
// self-contained HTML document. It is the simplest entry point for callers
// that just want the page.
func GenerateHTML(ctx context.Context, path string, options ...orchestrator.Option) ([]byte, error) {
	gen := orchestrator.New(options...)
	return gen.Generate(ctx, orchestrator.Request{
		Source: path,
		Export: true,
	})
}

// Render loads the portfolio file at path and renders it with the named
// renderer without wrapping it into a document.
func Render(ctx context.Context, path, rendererName string, options ...orchestrator.Option) ([]byte, error) {
	gen := orchestrator.New(options...)
	return gen.Generate(ctx, orchestrator.Request{
		Source:   path,
		Renderer: rendererName,
	})
}

// WithTheme selects the default theme and variant for exports.
func WithTheme(name, variant string) orchestrator.Option {
	return orchestrator.WithTheme(name, variant)
}

// ThemeProvider returns the built-in go-theme registry so callers can list
// or inspect the shipped palettes.
func ThemeProvider() (theme.ThemeProvider, error) {
	catalog, err := themes.NewCatalog()
	if err != nil {
		return nil, err
	}
	return catalog.Provider(), nil
}
