package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/goliatone/go-portfolio/pkg/document"
	"github.com/goliatone/go-portfolio/pkg/export"
	"github.com/goliatone/go-portfolio/pkg/imageload"
	"github.com/goliatone/go-portfolio/pkg/render"
	"github.com/goliatone/go-portfolio/pkg/renderers/text"
	"github.com/goliatone/go-portfolio/pkg/renderers/vanilla"
	"github.com/goliatone/go-portfolio/pkg/state"
	"github.com/goliatone/go-portfolio/pkg/themes"
)

const defaultRendererName = "vanilla"

// ErrExportRequiresHTML is returned when Export is requested with a renderer
// that does not produce HTML.
var ErrExportRequiresHTML = errors.New("orchestrator: export requires an html renderer")

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer overrides the renderer used when a request omits an
// explicit Renderer field.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithCatalog supplies the theme catalog used for exports.
func WithCatalog(catalog *themes.Catalog) Option {
	return func(o *Orchestrator) {
		o.catalog = catalog
	}
}

// WithTheme sets the theme and variant used when neither the request nor
// the portfolio file names one.
func WithTheme(name, variant string) Option {
	return func(o *Orchestrator) {
		o.themeName = name
		o.variant = variant
	}
}

// WithLoader injects the image loader used for portfolio images.
func WithLoader(loader *imageload.Loader) Option {
	return func(o *Orchestrator) {
		o.loader = loader
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithClock drives the footer year and project ids of built sessions.
func WithClock(clock state.Clock) Option {
	return func(o *Orchestrator) {
		o.clock = clock
	}
}

// Orchestrator coordinates the full pipeline from a portfolio file to
// rendered output. It applies sensible defaults (vanilla and text renderers,
// the built-in theme catalog) while remaining open to dependency injection.
type Orchestrator struct {
	registry        *render.Registry
	defaultRenderer string
	catalog         *themes.Catalog
	themeName       string
	variant         string
	loader          *imageload.Loader
	logger          *slog.Logger
	clock           state.Clock
	initialiseErr   error
	defaultsApplied bool
}

// New constructs an Orchestrator applying any provided options.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		defaultRenderer: defaultRendererName,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Request describes a single build.
type Request struct {
	// Source is the path of a portfolio YAML file. Optional when Document is
	// supplied.
	Source string

	// Document allows callers to bypass the file read.
	Document *document.File

	// Renderer names the renderer to use. Empty selects the default.
	Renderer string

	// Export wraps the rendered preview into a standalone HTML document.
	Export bool

	// Theme and Variant override the portfolio file's theme selection.
	Theme   string
	Variant string

	RenderOptions render.RenderOptions
}

// Registry exposes the renderer registry.
func (o *Orchestrator) Registry() *render.Registry {
	return o.registry
}

// Session loads the request's portfolio into a fresh session. The image, if
// any, is decoded before Session returns.
func (o *Orchestrator) Session(ctx context.Context, req Request) (*state.Session, *document.File, error) {
	if err := o.ready(ctx); err != nil {
		return nil, nil, err
	}
	file, err := o.resolveDocument(req)
	if err != nil {
		return nil, nil, err
	}
	session := state.New(state.WithClock(o.clock))
	if err := file.Apply(ctx, session, o.loader); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, nil, err
		}
		o.logger.Warn("portfolio image skipped", "path", file.ImagePath(), "error", err)
	}
	return session, file, nil
}

// Generate executes the load → apply → render (→ export) sequence and
// returns the resulting bytes.
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]byte, error) {
	session, file, err := o.Session(ctx, req)
	if err != nil {
		return nil, err
	}
	snapshot := session.Snapshot()

	renderer, err := o.rendererFor(req.Renderer)
	if err != nil {
		return nil, err
	}
	if req.Export && !strings.HasPrefix(renderer.ContentType(), "text/html") {
		return nil, fmt.Errorf("%w: %q", ErrExportRequiresHTML, renderer.Name())
	}

	output, err := renderer.Render(ctx, snapshot, req.RenderOptions)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render output: %w", err)
	}
	if !req.Export {
		return output, nil
	}

	themeCfg, err := o.catalog.Resolve(o.themeFor(req, file))
	if err != nil {
		return nil, fmt.Errorf("orchestrator: theme: %w", err)
	}
	exporter, err := export.New(export.WithTheme(themeCfg))
	if err != nil {
		return nil, fmt.Errorf("orchestrator: exporter: %w", err)
	}
	doc, err := exporter.Document(ctx, snapshot, output)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: export: %w", err)
	}
	o.logger.Debug("portfolio exported", "title", snapshot.Title(), "projects", len(snapshot.Projects), "bytes", len(doc))
	return doc, nil
}

func (o *Orchestrator) ready(ctx context.Context) error {
	if ctx == nil {
		return errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if !o.defaultsApplied {
		o.applyDefaults()
	}
	return o.initialiseErr
}

func (o *Orchestrator) resolveDocument(req Request) (*document.File, error) {
	if req.Document != nil {
		return req.Document, nil
	}
	if strings.TrimSpace(req.Source) == "" {
		return nil, errors.New("orchestrator: source or document is required")
	}
	file, err := document.Load(req.Source)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: load document: %w", err)
	}
	return file, nil
}

// themeFor picks the first non-empty theme and variant from the request, the
// file and the orchestrator defaults.
func (o *Orchestrator) themeFor(req Request, file *document.File) (string, string) {
	name := firstNonEmpty(req.Theme, file.Theme, o.themeName, themes.DefaultTheme)
	variant := firstNonEmpty(req.Variant, file.Variant, o.variant)
	return name, variant
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func (o *Orchestrator) rendererFor(name string) (render.Renderer, error) {
	if o.registry == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}

	target := name
	if target == "" {
		target = o.defaultRenderer
	}
	renderer, err := o.registry.Resolve(target)
	if err == nil {
		return renderer, nil
	}
	if name != "" {
		return nil, fmt.Errorf("orchestrator: renderer %q: %w", name, err)
	}
	// the configured default is missing; fall back to the registry's own
	renderer, err = o.registry.Resolve("")
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	return renderer, nil
}

func (o *Orchestrator) applyDefaults() {
	if o.defaultsApplied {
		return
	}
	o.defaultsApplied = true

	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.loader == nil {
		o.loader = imageload.New(imageload.WithLogger(o.logger))
	}
	if o.registry == nil {
		html, err := vanilla.New()
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default renderer: %w", err)
			return
		}
		plain, err := text.New()
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: text renderer: %w", err)
			return
		}
		if o.registry, err = render.NewRegistry(html, plain); err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: registry: %w", err)
			return
		}
	}
	if o.catalog == nil {
		catalog, err := themes.NewCatalog()
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: themes: %w", err)
			return
		}
		o.catalog = catalog
	}
	if o.defaultRenderer == "" {
		o.defaultRenderer = defaultRendererName
	}
}
