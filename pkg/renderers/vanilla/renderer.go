package vanilla

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/goliatone/go-portfolio/pkg/model"
	"github.com/goliatone/go-portfolio/pkg/render"
	rendertemplate "github.com/goliatone/go-portfolio/pkg/render/template"
	gotemplate "github.com/goliatone/go-portfolio/pkg/render/template/gotemplate"
)

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	overrides        map[string]FragmentFunc
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithFragment replaces the renderer for one preview target.
func WithFragment(target string, fn FragmentFunc) Option {
	return func(cfg *config) {
		if strings.TrimSpace(target) == "" || fn == nil {
			return
		}
		if cfg.overrides == nil {
			cfg.overrides = make(map[string]FragmentFunc)
		}
		cfg.overrides[target] = fn
	}
}

// Renderer produces the preview pane markup. The full render is assembled
// from the same fragments used for targeted patches, so patching an element
// and re-rendering the whole pane always agree.
type Renderer struct {
	templates rendertemplate.TemplateRenderer
	fragments *fragments
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the vanilla renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithExtension(".tmpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	frags := newFragments()
	for target, fn := range cfg.overrides {
		frags.set(target, fn)
	}

	return &Renderer{templates: renderer, fragments: frags}, nil
}

func (r *Renderer) Name() string {
	return "vanilla"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render returns the inner markup of the preview pane.
func (r *Renderer) Render(ctx context.Context, portfolio model.Portfolio, options render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("vanilla renderer: template renderer is nil")
	}

	data := make(map[string]any, 9)
	for key, target := range map[string]string{
		"image_src":   TargetImage,
		"name":        TargetName,
		"role":        TargetRole,
		"links":       TargetLinks,
		"about":       TargetAbout,
		"skills":      TargetSkills,
		"projects":    TargetProjects,
		"year":        TargetYear,
		"footer_name": TargetFooterName,
	} {
		out, err := r.Fragment(ctx, portfolio, target, options)
		if err != nil {
			return nil, err
		}
		data[key] = out
	}

	result, err := r.templates.RenderTemplate("templates/preview.tmpl", data)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render template: %w", err)
	}
	return []byte(result), nil
}

// Fragment renders the content of a single preview element. Card ids
// (project-<id>) resolve to the matching card's outer markup.
func (r *Renderer) Fragment(ctx context.Context, portfolio model.Portfolio, target string, options render.RenderOptions) (string, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return "", err
		}
	}
	if fn, ok := r.fragments.get(target); ok {
		return fn(ctx, r, portfolio, options)
	}
	if id, ok := strings.CutPrefix(target, "project-"); ok && !strings.HasPrefix(id, "row-") {
		project, found := portfolio.Project(id)
		if !found {
			return "", unknownTarget(target)
		}
		return r.Card(ctx, project)
	}
	return "", unknownTarget(target)
}

// Targets lists the element ids with registered fragment renderers.
func (r *Renderer) Targets() []string {
	return r.fragments.targets()
}

// Card renders the preview card of one project.
func (r *Renderer) Card(_ context.Context, project model.Project) (string, error) {
	return r.component("project_card", map[string]any{"project": project})
}

// EditorRow renders the form controls for one project.
func (r *Renderer) EditorRow(_ context.Context, project model.Project) (string, error) {
	return r.component("editor_row", map[string]any{"project": project})
}

func (r *Renderer) component(name string, data map[string]any) (string, error) {
	out, err := r.templates.RenderTemplate("templates/components/"+name+".tmpl", data)
	if err != nil {
		return "", fmt.Errorf("vanilla renderer: render %s: %w", name, err)
	}
	return strings.TrimSpace(out), nil
}

func (r *Renderer) escape(value string) (string, error) {
	out, err := r.templates.RenderString("{{ value }}", map[string]any{"value": value})
	if err != nil {
		return "", fmt.Errorf("vanilla renderer: escape text: %w", err)
	}
	return out, nil
}
