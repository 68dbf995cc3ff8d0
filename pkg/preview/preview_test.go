package preview_test

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/goliatone/go-portfolio/pkg/model"
	"github.com/goliatone/go-portfolio/pkg/preview"
	"github.com/goliatone/go-portfolio/pkg/render"
	"github.com/goliatone/go-portfolio/pkg/renderers/vanilla"
	"github.com/goliatone/go-portfolio/pkg/state"
	"github.com/goliatone/go-portfolio/pkg/testsupport"
)

func fixedClock() time.Time {
	return time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)
}

func newSynchronizer(t *testing.T) *preview.Synchronizer {
	t.Helper()
	synchronizer, err := preview.NewSynchronizer(nil)
	if err != nil {
		t.Fatalf("new synchronizer: %v", err)
	}
	return synchronizer
}

// renderPane builds the editor project list and the preview pane for the
// current snapshot, the two DOM regions patches address.
func renderPane(t *testing.T, renderer *vanilla.Renderer, portfolio model.Portfolio) *html.Node {
	t.Helper()

	var b strings.Builder
	b.WriteString(`<div id="projectsEditorList">`)
	for _, project := range portfolio.Projects {
		row, err := renderer.EditorRow(testsupport.Context(), project)
		if err != nil {
			t.Fatalf("editor row: %v", err)
		}
		b.WriteString(row)
	}
	b.WriteString(`</div><div id="preview">`)
	out, err := renderer.Render(testsupport.Context(), portfolio, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	b.Write(out)
	b.WriteString(`</div>`)

	root := &html.Node{Type: html.ElementNode, Data: "main", DataAtom: atom.Main}
	for _, node := range testsupport.MustParseFragment(t, b.String()) {
		root.AppendChild(node)
	}
	return root
}

func assertSameTree(t *testing.T, want, got *html.Node) {
	t.Helper()
	if diff := cmp.Diff(testsupport.RenderNodes(t, want), testsupport.RenderNodes(t, got)); diff != "" {
		t.Fatalf("patched pane differs from full render (-full +patched):\n%s", diff)
	}
}

func TestMirror_PatchedPaneMatchesFullRender(t *testing.T) {
	session := state.New(state.WithClock(fixedClock))
	synchronizer := newSynchronizer(t)
	renderer := synchronizer.Renderer()
	mirror := preview.NewMirror(testsupport.Context(), session, synchronizer, nil)
	defer mirror.Close()

	pane := renderPane(t, renderer, session.Snapshot())

	steps := []struct {
		name   string
		mutate func(t *testing.T)
	}{
		{"name", func(t *testing.T) { mustSet(t, session, model.FieldName, "Alice <Example>") }},
		{"role", func(t *testing.T) { mustSet(t, session, model.FieldRole, "Engineer & Writer") }},
		{"about", func(t *testing.T) { mustSet(t, session, model.FieldAbout, `<script>alert("x")</script>`) }},
		{"skills", func(t *testing.T) { mustSet(t, session, model.FieldSkills, "Go, Rust,  , Python") }},
		{"github", func(t *testing.T) { mustSet(t, session, model.FieldGitHub, "github.com/alice") }},
		{"email", func(t *testing.T) { mustSet(t, session, model.FieldEmail, "alice@example.com") }},
		{"clear name", func(t *testing.T) { mustSet(t, session, model.FieldName, "") }},
		{"image", func(t *testing.T) { session.SetImage("data:image/png;base64,AAAA") }},
		{"add first", func(t *testing.T) { session.AddProject() }},
		{"add second", func(t *testing.T) { session.AppendProject("Cache", "Read-through") }},
		{"update", func(t *testing.T) {
			first := session.Snapshot().Projects[0]
			if _, err := session.UpdateProject(first.ID, model.ProjectTitle, "<i>Compiler</i>"); err != nil {
				t.Fatalf("update: %v", err)
			}
		}},
		{"update description", func(t *testing.T) {
			last := session.Snapshot().Projects[1]
			if _, err := session.UpdateProject(last.ID, model.ProjectDescription, "Fast & <small>"); err != nil {
				t.Fatalf("update: %v", err)
			}
		}},
		{"remove first", func(t *testing.T) {
			first := session.Snapshot().Projects[0]
			if _, err := session.RemoveProject(first.ID); err != nil {
				t.Fatalf("remove: %v", err)
			}
		}},
		{"remove last", func(t *testing.T) {
			last := session.Snapshot().Projects[0]
			if _, err := session.RemoveProject(last.ID); err != nil {
				t.Fatalf("remove: %v", err)
			}
		}},
	}

	for _, step := range steps {
		step.mutate(t)
		if err := preview.ApplyPatches(pane, mirror.Drain()); err != nil {
			t.Fatalf("%s: apply patches: %v", step.name, err)
		}
		assertSameTree(t, renderPane(t, renderer, session.Snapshot()), pane)
	}
}

func TestMirror_AddThenRemoveByID(t *testing.T) {
	session := state.New(state.WithClock(fixedClock))
	synchronizer := newSynchronizer(t)
	mirror := preview.NewMirror(testsupport.Context(), session, synchronizer, nil)
	defer mirror.Close()

	pane := renderPane(t, synchronizer.Renderer(), session.Snapshot())

	var ids []string
	for i := 0; i < 4; i++ {
		project, _ := session.AddProject()
		ids = append(ids, project.ID)
	}
	victim := ids[2]
	if _, err := session.RemoveProject(victim); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := preview.ApplyPatches(pane, mirror.Drain()); err != nil {
		t.Fatalf("apply patches: %v", err)
	}

	if session.Len() != 3 {
		t.Fatalf("expected 3 projects, got %d", session.Len())
	}
	if _, ok := session.Project(victim); ok {
		t.Fatalf("removed project still present in data")
	}
	if testsupport.FindByID(pane, vanilla.CardID(victim)) != nil {
		t.Fatalf("removed card still present in preview")
	}
	if testsupport.FindByID(pane, vanilla.RowID(victim)) != nil {
		t.Fatalf("removed row still present in editor list")
	}
	if got := len(testsupport.FindAllByClass(pane, "project-card")); got != 3 {
		t.Fatalf("expected 3 cards, got %d", got)
	}
	if got := len(testsupport.FindAllByClass(pane, "project-item")); got != 3 {
		t.Fatalf("expected 3 editor rows, got %d", got)
	}
}

func TestMirror_ConcurrentEditsLeaveLatestValue(t *testing.T) {
	for round := 0; round < 50; round++ {
		session := state.New(state.WithClock(fixedClock))
		synchronizer := newSynchronizer(t)
		mirror := preview.NewMirror(testsupport.Context(), session, synchronizer, nil)
		pane := renderPane(t, synchronizer.Renderer(), session.Snapshot())

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if _, err := session.SetField(model.FieldRole, fmt.Sprintf("role-%d", i)); err != nil {
					t.Errorf("set role: %v", err)
				}
			}(i)
		}
		wg.Wait()
		mirror.Close()

		if err := preview.ApplyPatches(pane, mirror.Drain()); err != nil {
			t.Fatalf("apply patches: %v", err)
		}
		got := testsupport.TextContent(testsupport.FindByID(pane, vanilla.TargetRole))
		if want := session.Snapshot().Profile.Role; got != want {
			t.Fatalf("round %d: pane role %q, state role %q", round, got, want)
		}
	}
}

func TestSynchronizer_ProjectUpdateFollowsEditorInput(t *testing.T) {
	synchronizer := newSynchronizer(t)
	portfolio := model.Portfolio{Projects: []model.Project{{ID: "42", Title: "Compiler", Description: "Toy"}}}

	patches, err := synchronizer.Patches(testsupport.Context(), portfolio, state.Change{
		Kind:         state.ChangeProjectUpdated,
		ProjectID:    "42",
		ProjectField: model.ProjectDescription,
	})
	if err != nil {
		t.Fatalf("patches: %v", err)
	}
	if len(patches) != 2 {
		t.Fatalf("expected card and input patches, got %+v", patches)
	}
	want := preview.Patch{Target: vanilla.InputID("42", "description"), Op: preview.OpValue, Value: "Toy"}
	if diff := cmp.Diff(want, patches[1]); diff != "" {
		t.Fatalf("input patch mismatch (-want +got):\n%s", diff)
	}
}

func TestMirror_CloseStopsQueueing(t *testing.T) {
	session := state.New(state.WithClock(fixedClock))
	mirror := preview.NewMirror(testsupport.Context(), session, newSynchronizer(t), nil)

	mustSet(t, session, model.FieldRole, "Engineer")
	if mirror.Pending() != 1 {
		t.Fatalf("expected one queued patch, got %d", mirror.Pending())
	}
	mirror.Close()
	mustSet(t, session, model.FieldRole, "Architect")

	patches := mirror.Drain()
	if len(patches) != 1 || !strings.Contains(patches[0].HTML, "Engineer") {
		t.Fatalf("unexpected patches after close: %+v", patches)
	}
	if mirror.Pending() != 0 {
		t.Fatalf("drain should clear the queue")
	}
}

func TestSynchronizer_FieldPatches(t *testing.T) {
	synchronizer := newSynchronizer(t)
	portfolio := model.Portfolio{Profile: model.Profile{Name: "Ada", Skills: "Go, Rust,  , Python"}}

	patches, err := synchronizer.Patches(testsupport.Context(), portfolio, state.Change{Kind: state.ChangeField, Field: model.FieldName})
	if err != nil {
		t.Fatalf("patches: %v", err)
	}
	want := []preview.Patch{
		{Target: vanilla.TargetName, Op: preview.OpHTML, HTML: "Ada"},
		{Target: vanilla.TargetFooterName, Op: preview.OpHTML, HTML: "Ada"},
	}
	if diff := cmp.Diff(want, patches); diff != "" {
		t.Fatalf("patches mismatch (-want +got):\n%s", diff)
	}

	skills := state.Change{Kind: state.ChangeField, Field: model.FieldSkills}
	first, err := synchronizer.Patches(testsupport.Context(), portfolio, skills)
	if err != nil {
		t.Fatalf("skills patches: %v", err)
	}
	second, err := synchronizer.Patches(testsupport.Context(), portfolio, skills)
	if err != nil {
		t.Fatalf("skills patches: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("skills patch not idempotent:\n%s", diff)
	}
	wantSkills := `<span class="skill-tag">Go</span><span class="skill-tag">Rust</span><span class="skill-tag">Python</span>`
	if first[0].HTML != wantSkills {
		t.Fatalf("unexpected skills markup %q", first[0].HTML)
	}
}

func TestSynchronizer_SocialFieldsTargetHeroLinks(t *testing.T) {
	for _, field := range []model.Field{model.FieldEmail, model.FieldGitHub, model.FieldLinkedIn} {
		if diff := cmp.Diff([]string{vanilla.TargetLinks}, preview.FieldTargets(field)); diff != "" {
			t.Fatalf("%s targets mismatch:\n%s", field, diff)
		}
	}
}

func TestSynchronizer_Errors(t *testing.T) {
	synchronizer := newSynchronizer(t)

	_, err := synchronizer.Patches(testsupport.Context(), model.Portfolio{}, state.Change{Kind: "bogus"})
	if !errors.Is(err, preview.ErrUnknownChange) {
		t.Fatalf("expected ErrUnknownChange, got %v", err)
	}
	_, err = synchronizer.Patches(testsupport.Context(), model.Portfolio{}, state.Change{Kind: state.ChangeField, Field: "image"})
	if !errors.Is(err, state.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestApplyPatches_MissingTarget(t *testing.T) {
	root := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}

	if err := preview.ApplyPatches(root, []preview.Patch{{Target: "gone", Op: preview.OpRemove}}); err != nil {
		t.Fatalf("removing a missing node should be a no-op: %v", err)
	}
	err := preview.ApplyPatches(root, []preview.Patch{{Target: "gone", Op: preview.OpHTML}})
	if !errors.Is(err, preview.ErrTargetNotFound) {
		t.Fatalf("expected ErrTargetNotFound, got %v", err)
	}
}

func mustSet(t *testing.T, session *state.Session, field model.Field, value string) {
	t.Helper()
	if _, err := session.SetField(field, value); err != nil {
		t.Fatalf("set %s: %v", field, err)
	}
}
