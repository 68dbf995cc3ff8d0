package vanilla

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/goliatone/go-portfolio/pkg/model"
	"github.com/goliatone/go-portfolio/pkg/render"
)

// Element ids of the preview pane. Patches address these targets.
const (
	TargetImage      = "previewImage"
	TargetName       = "previewName"
	TargetRole       = "previewRole"
	TargetLinks      = "heroLinks"
	TargetAbout      = "previewAbout"
	TargetSkills     = "previewSkills"
	TargetProjects   = "previewProjects"
	TargetYear       = "currentYear"
	TargetFooterName = "footerName"
	// TargetEditorList is the editor-side container of project rows.
	TargetEditorList = "projectsEditorList"
)

// ErrUnknownTarget is returned when no fragment renderer is registered for a
// target id.
var ErrUnknownTarget = errors.New("vanilla: unknown fragment target")

// CardID is the element id of a project card in the preview pane.
func CardID(projectID string) string {
	return "project-" + projectID
}

// RowID is the element id of a project editor row.
func RowID(projectID string) string {
	return "project-row-" + projectID
}

// InputID is the element id of a project editor row input.
func InputID(projectID, field string) string {
	return "project-" + projectID + "-" + field
}

// FragmentFunc renders the inner markup of one preview element.
type FragmentFunc func(ctx context.Context, r *Renderer, portfolio model.Portfolio, options render.RenderOptions) (string, error)

// fragments tracks fragment renderers keyed by target id. Callers can swap
// individual entries through WithFragment.
type fragments struct {
	mu  sync.RWMutex
	fns map[string]FragmentFunc
}

func newFragments() *fragments {
	f := &fragments{fns: make(map[string]FragmentFunc)}
	f.set(TargetName, textFragment(func(p model.Profile) string { return p.Name }, model.PlaceholderName))
	f.set(TargetFooterName, textFragment(func(p model.Profile) string { return p.Name }, model.PlaceholderName))
	f.set(TargetRole, textFragment(func(p model.Profile) string { return p.Role }, model.PlaceholderRole))
	f.set(TargetAbout, textFragment(func(p model.Profile) string { return p.About }, model.PlaceholderAbout))
	f.set(TargetYear, yearFragment)
	f.set(TargetSkills, skillsFragment)
	f.set(TargetLinks, linksFragment)
	f.set(TargetProjects, projectsFragment)
	f.set(TargetImage, imageFragment)
	return f
}

func (f *fragments) set(target string, fn FragmentFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fns[target] = fn
}

func (f *fragments) get(target string) (FragmentFunc, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	fn, ok := f.fns[target]
	return fn, ok
}

func (f *fragments) targets() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, 0, len(f.fns))
	for target := range f.fns {
		out = append(out, target)
	}
	sort.Strings(out)
	return out
}

func textFragment(value func(model.Profile) string, placeholder string) FragmentFunc {
	return func(_ context.Context, r *Renderer, p model.Portfolio, opts render.RenderOptions) (string, error) {
		return r.escape(opts.Text(value(p.Profile), placeholder))
	}
}

func yearFragment(_ context.Context, r *Renderer, p model.Portfolio, _ render.RenderOptions) (string, error) {
	if p.Year <= 0 {
		return "", nil
	}
	return r.escape(strconv.Itoa(p.Year))
}

func skillsFragment(_ context.Context, r *Renderer, p model.Portfolio, _ render.RenderOptions) (string, error) {
	skills := p.Profile.SkillTags()
	if len(skills) == 0 {
		return "", nil
	}
	return r.component("skills", map[string]any{"skills": skills})
}

func linksFragment(_ context.Context, r *Renderer, p model.Portfolio, _ render.RenderOptions) (string, error) {
	links := p.Profile.Links()
	if len(links) == 0 {
		return "", nil
	}
	out, err := r.component("links", map[string]any{"links": links})
	if err != nil {
		return "", err
	}
	return sanitizeLinks(out), nil
}

func projectsFragment(ctx context.Context, r *Renderer, p model.Portfolio, _ render.RenderOptions) (string, error) {
	if len(p.Projects) == 0 {
		return r.component("projects_empty", map[string]any{"notice": model.EmptyProjectsNotice})
	}
	var b strings.Builder
	for _, project := range p.Projects {
		card, err := r.Card(ctx, project)
		if err != nil {
			return "", err
		}
		b.WriteString(card)
	}
	return b.String(), nil
}

// imageFragment yields the src attribute value rather than markup.
func imageFragment(_ context.Context, _ *Renderer, p model.Portfolio, _ render.RenderOptions) (string, error) {
	return imageSource(p.Profile.Image), nil
}

func unknownTarget(target string) error {
	return fmt.Errorf("%w: %q", ErrUnknownTarget, target)
}
