package preview

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-portfolio/pkg/model"
	"github.com/goliatone/go-portfolio/pkg/render"
	"github.com/goliatone/go-portfolio/pkg/renderers/vanilla"
	"github.com/goliatone/go-portfolio/pkg/state"
)

// ErrUnknownChange is returned for change kinds the synchronizer cannot map
// to preview targets.
var ErrUnknownChange = errors.New("preview: unknown change kind")

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithRenderOptions sets the options used for every fragment.
func WithRenderOptions(options render.RenderOptions) Option {
	return func(s *Synchronizer) {
		s.options = options
	}
}

// Synchronizer maps session changes to preview patches.
type Synchronizer struct {
	renderer *vanilla.Renderer
	options  render.RenderOptions
}

// NewSynchronizer wraps renderer. A nil renderer falls back to the embedded
// vanilla templates.
func NewSynchronizer(renderer *vanilla.Renderer, options ...Option) (*Synchronizer, error) {
	if renderer == nil {
		var err error
		renderer, err = vanilla.New()
		if err != nil {
			return nil, fmt.Errorf("preview: default renderer: %w", err)
		}
	}
	s := &Synchronizer{renderer: renderer}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Renderer exposes the wrapped renderer.
func (s *Synchronizer) Renderer() *vanilla.Renderer {
	return s.renderer
}

// FieldTargets lists the preview elements fed by field.
func FieldTargets(field model.Field) []string {
	switch field {
	case model.FieldName:
		return []string{vanilla.TargetName, vanilla.TargetFooterName}
	case model.FieldRole:
		return []string{vanilla.TargetRole}
	case model.FieldAbout:
		return []string{vanilla.TargetAbout}
	case model.FieldSkills:
		return []string{vanilla.TargetSkills}
	case model.FieldEmail, model.FieldGitHub, model.FieldLinkedIn:
		return []string{vanilla.TargetLinks}
	default:
		return nil
	}
}

// Patches computes the updates that bring a pane rendered before change in
// line with portfolio, the snapshot taken after it.
func (s *Synchronizer) Patches(ctx context.Context, portfolio model.Portfolio, change state.Change) ([]Patch, error) {
	switch change.Kind {
	case state.ChangeField:
		return s.fieldPatches(ctx, portfolio, change.Field)
	case state.ChangeImage:
		src, err := s.renderer.Fragment(ctx, portfolio, vanilla.TargetImage, s.options)
		if err != nil {
			return nil, err
		}
		return []Patch{setAttr(vanilla.TargetImage, "src", src)}, nil
	case state.ChangeProjectAdded:
		return s.addedPatches(ctx, portfolio, change.ProjectID)
	case state.ChangeProjectUpdated:
		project, ok := portfolio.Project(change.ProjectID)
		if !ok {
			// removed before the snapshot was taken; the removal carries the patch
			return nil, nil
		}
		card, err := s.renderer.Card(ctx, project)
		if err != nil {
			return nil, err
		}
		patches := []Patch{replace(vanilla.CardID(project.ID), card)}
		if value, ok := projectValue(project, change.ProjectField); ok {
			// the editor row input follows the stored value
			patches = append(patches, setValuePatch(vanilla.InputID(project.ID, string(change.ProjectField)), value))
		}
		return patches, nil
	case state.ChangeProjectRemoved:
		patches := []Patch{
			remove(vanilla.RowID(change.ProjectID)),
			remove(vanilla.CardID(change.ProjectID)),
		}
		if len(portfolio.Projects) == 0 {
			notice, err := s.renderer.Fragment(ctx, portfolio, vanilla.TargetProjects, s.options)
			if err != nil {
				return nil, err
			}
			patches = append(patches, setHTML(vanilla.TargetProjects, notice))
		}
		return patches, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownChange, change.Kind)
	}
}

func projectValue(project model.Project, field model.ProjectField) (string, bool) {
	switch field {
	case model.ProjectTitle:
		return project.Title, true
	case model.ProjectDescription:
		return project.Description, true
	default:
		return "", false
	}
}

func (s *Synchronizer) fieldPatches(ctx context.Context, portfolio model.Portfolio, field model.Field) ([]Patch, error) {
	targets := FieldTargets(field)
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: %q", state.ErrUnknownField, field)
	}
	patches := make([]Patch, 0, len(targets))
	for _, target := range targets {
		markup, err := s.renderer.Fragment(ctx, portfolio, target, s.options)
		if err != nil {
			return nil, err
		}
		patches = append(patches, setHTML(target, markup))
	}
	return patches, nil
}

func (s *Synchronizer) addedPatches(ctx context.Context, portfolio model.Portfolio, id string) ([]Patch, error) {
	var patches []Patch
	if project, ok := portfolio.Project(id); ok {
		row, err := s.renderer.EditorRow(ctx, project)
		if err != nil {
			return nil, err
		}
		patches = append(patches, appendHTML(vanilla.TargetEditorList, row))
	}
	cards, err := s.renderer.Fragment(ctx, portfolio, vanilla.TargetProjects, s.options)
	if err != nil {
		return nil, err
	}
	return append(patches, setHTML(vanilla.TargetProjects, cards)), nil
}
