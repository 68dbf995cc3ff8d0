package state_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-portfolio/pkg/model"
	"github.com/goliatone/go-portfolio/pkg/state"
)

func fixedClock() state.Clock {
	at := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func TestIDSource_UniqueUnderSameMillisecond(t *testing.T) {
	ids := state.NewIDSource(fixedClock())

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := ids.Next()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q after %d calls", id, i)
		}
		seen[id] = struct{}{}
	}
}

func TestIDSource_ConcurrentCallers(t *testing.T) {
	ids := state.NewIDSource(nil)

	var (
		mu   sync.Mutex
		seen = make(map[string]struct{})
		wg   sync.WaitGroup
	)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				id := ids.Next()
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != 400 {
		t.Fatalf("expected 400 unique ids, got %d", len(seen))
	}
}

func TestSession_AddProjectUsesPlaceholders(t *testing.T) {
	session := state.New(state.WithClock(fixedClock()))

	project, change := session.AddProject()
	if project.Title != model.PlaceholderProjectTitle {
		t.Fatalf("title: want %q, got %q", model.PlaceholderProjectTitle, project.Title)
	}
	if project.Description != model.PlaceholderProjectDescription {
		t.Fatalf("description: want %q, got %q", model.PlaceholderProjectDescription, project.Description)
	}
	if change.Kind != state.ChangeProjectAdded || change.ProjectID != project.ID {
		t.Fatalf("unexpected change: %+v", change)
	}
}

func TestSession_RemoveByIDLeavesOthersInOrder(t *testing.T) {
	session := state.New(state.WithClock(fixedClock()))

	var ids []string
	for i := 0; i < 5; i++ {
		project, _ := session.AddProject()
		ids = append(ids, project.ID)
	}

	if _, err := session.RemoveProject(ids[2]); err != nil {
		t.Fatalf("remove: %v", err)
	}

	snapshot := session.Snapshot()
	var got []string
	for _, project := range snapshot.Projects {
		got = append(got, project.ID)
	}
	want := []string{ids[0], ids[1], ids[3], ids[4]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("remaining ids mismatch (-want +got):\n%s", diff)
	}
	if _, ok := session.Project(ids[2]); ok {
		t.Fatalf("removed project still reachable")
	}
}

func TestSession_RemoveUnknownProject(t *testing.T) {
	session := state.New()
	if _, err := session.RemoveProject("missing"); !errors.Is(err, state.ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestSession_UpdateProject(t *testing.T) {
	session := state.New(state.WithClock(fixedClock()))
	project, _ := session.AddProject()

	change, err := session.UpdateProject(project.ID, model.ProjectTitle, "Compiler")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if change.Kind != state.ChangeProjectUpdated || change.ProjectField != model.ProjectTitle {
		t.Fatalf("unexpected change: %+v", change)
	}

	got, _ := session.Project(project.ID)
	if got.Title != "Compiler" {
		t.Fatalf("title not updated: %q", got.Title)
	}

	if _, err := session.UpdateProject(project.ID, model.ProjectField("owner"), "x"); !errors.Is(err, state.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if _, err := session.UpdateProject("nope", model.ProjectTitle, "x"); !errors.Is(err, state.ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestSession_SetFieldNotifiesSubscribers(t *testing.T) {
	session := state.New()

	var changes []state.Change
	unsubscribe := session.Subscribe(func(change state.Change) {
		// handlers may read the session while being notified
		_ = session.Snapshot()
		changes = append(changes, change)
	})

	if _, err := session.SetField(model.FieldName, "Alice"); err != nil {
		t.Fatalf("set field: %v", err)
	}
	if _, err := session.SetField(model.Field("nickname"), "Al"); !errors.Is(err, state.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	unsubscribe()
	if _, err := session.SetField(model.FieldRole, "Engineer"); err != nil {
		t.Fatalf("set field: %v", err)
	}

	want := []state.Change{{Kind: state.ChangeField, Field: model.FieldName}}
	if diff := cmp.Diff(want, changes); diff != "" {
		t.Fatalf("changes mismatch (-want +got):\n%s", diff)
	}
	if got := session.Snapshot().Profile.Role; got != "Engineer" {
		t.Fatalf("role not stored: %q", got)
	}
}

func TestSession_SnapshotIsDetached(t *testing.T) {
	session := state.New(state.WithClock(fixedClock()))
	session.AddProject()

	snapshot := session.Snapshot()
	snapshot.Projects[0].Title = "mutated"

	if got := session.Snapshot().Projects[0].Title; got != model.PlaceholderProjectTitle {
		t.Fatalf("snapshot mutation leaked into session: %q", got)
	}
	if snapshot.Year != 2026 {
		t.Fatalf("year: want 2026, got %d", snapshot.Year)
	}
}

func TestSession_SetImageOverwrites(t *testing.T) {
	session := state.New()
	session.SetImage("data:image/png;base64,AAAA")
	session.SetImage("data:image/png;base64,BBBB")

	if got := session.Snapshot().Profile.Image; got != "data:image/png;base64,BBBB" {
		t.Fatalf("unexpected image: %q", got)
	}
}

func TestSession_HandlersSeeMutationsInOrder(t *testing.T) {
	session := state.New()

	var (
		mu   sync.Mutex
		seen []string
	)
	session.Subscribe(func(change state.Change) {
		role := session.Snapshot().Profile.Role
		mu.Lock()
		seen = append(seen, role)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := session.SetField(model.FieldRole, fmt.Sprintf("role-%d", i)); err != nil {
				t.Errorf("set field: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if len(seen) != 16 {
		t.Fatalf("expected 16 notifications, got %d", len(seen))
	}
	// each handler runs before the next mutation, so it sees its own value
	distinct := make(map[string]struct{}, len(seen))
	for _, role := range seen {
		distinct[role] = struct{}{}
	}
	if len(distinct) != len(seen) {
		t.Fatalf("handlers observed interleaved mutations: %v", seen)
	}
	if last, final := seen[len(seen)-1], session.Snapshot().Profile.Role; last != final {
		t.Fatalf("last notification saw %q, state holds %q", last, final)
	}
}
