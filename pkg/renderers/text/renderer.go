package text

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/muesli/reflow/wordwrap"

	"github.com/goliatone/go-portfolio/pkg/model"
	"github.com/goliatone/go-portfolio/pkg/render"
	rendertemplate "github.com/goliatone/go-portfolio/pkg/render/template"
	gotemplate "github.com/goliatone/go-portfolio/pkg/render/template/gotemplate"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

// TemplatesFS exposes the embedded plain text template.
func TemplatesFS() fs.FS {
	return embeddedTemplates
}

// DefaultWidth is the column prose is wrapped at.
const DefaultWidth = 72

type Option func(*Renderer)

// WithWidth sets the wrap column. Zero or less disables wrapping.
func WithWidth(width int) Option {
	return func(r *Renderer) {
		r.width = width
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(r *Renderer) {
		if renderer != nil {
			r.templates = renderer
		}
	}
}

// Renderer prints a portfolio as plain text for terminals.
type Renderer struct {
	templates rendertemplate.TemplateRenderer
	width     int
}

var _ render.Renderer = (*Renderer)(nil)

func New(options ...Option) (*Renderer, error) {
	r := &Renderer{width: DefaultWidth}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	if r.templates == nil {
		engine, err := gotemplate.New(
			gotemplate.WithFS(TemplatesFS()),
			gotemplate.WithExtension(".tmpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("text renderer: configure template renderer: %w", err)
		}
		r.templates = engine
	}
	return r, nil
}

func (r *Renderer) Name() string {
	return "text"
}

func (r *Renderer) ContentType() string {
	return "text/plain; charset=utf-8"
}

func (r *Renderer) Render(ctx context.Context, portfolio model.Portfolio, options render.RenderOptions) ([]byte, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	profile := portfolio.Profile
	title := portfolio.Title()
	projects := make([]map[string]any, 0, len(portfolio.Projects))
	for _, project := range portfolio.Projects {
		projects = append(projects, map[string]any{
			"title":       options.Text(project.Title, model.PlaceholderProjectTitle),
			"description": r.wrap(options.Text(project.Description, model.PlaceholderProjectDescription), descriptionIndent),
		})
	}

	data := map[string]any{
		"title":        title,
		"rule":         strings.Repeat("=", len([]rune(title))),
		"name":         options.Text(profile.Name, model.PlaceholderName),
		"role":         options.Text(profile.Role, model.PlaceholderRole),
		"about":        r.wrap(options.Text(profile.About, model.PlaceholderAbout), aboutIndent),
		"skills":       profile.SkillTags(),
		"links":        profile.Links(),
		"projects":     projects,
		"empty_notice": model.EmptyProjectsNotice,
		"year":         portfolio.Year,
	}

	out, err := r.templates.RenderTemplate("templates/portfolio.tmpl", data)
	if err != nil {
		return nil, fmt.Errorf("text renderer: render template: %w", err)
	}
	return []byte(out), nil
}

// Indents used by templates/portfolio.tmpl.
const (
	aboutIndent       = "  "
	descriptionIndent = "     "
)

// wrap folds value at the renderer width, accounting for indent, and indents
// continuation lines so they line up with the first.
func (r *Renderer) wrap(value, indent string) string {
	if r.width <= 0 {
		return value
	}
	limit := r.width - len(indent)
	if limit < 20 {
		limit = 20
	}
	wrapped := wordwrap.String(value, limit)
	return strings.ReplaceAll(wrapped, "\n", "\n"+indent)
}
