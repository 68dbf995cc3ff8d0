package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-portfolio/pkg/model"
)

// ChangeKind describes what a mutation touched.
type ChangeKind string

const (
	ChangeField          ChangeKind = "field"
	ChangeImage          ChangeKind = "image"
	ChangeProjectAdded   ChangeKind = "project_added"
	ChangeProjectUpdated ChangeKind = "project_updated"
	ChangeProjectRemoved ChangeKind = "project_removed"
)

// Change is delivered to subscribers after every successful mutation.
type Change struct {
	Kind         ChangeKind
	Field        model.Field
	ProjectID    string
	ProjectField model.ProjectField
}

// Handler reacts to a change. Handlers run after the state lock is released,
// so they may read the session again, but they run one at a time in mutation
// order and must not mutate the session.
type Handler func(Change)

// Option configures a Session.
type Option func(*Session)

// WithIDSource overrides the project identifier source.
func WithIDSource(ids *IDSource) Option {
	return func(s *Session) {
		if ids != nil {
			s.ids = ids
		}
	}
}

// WithClock overrides the clock used for the footer year.
func WithClock(clock Clock) Option {
	return func(s *Session) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithProfile seeds the session with an initial profile.
func WithProfile(profile model.Profile) Option {
	return func(s *Session) {
		s.profile = profile
	}
}

// Session owns the profile and the ordered project list of one editor. All
// methods are safe for concurrent use.
type Session struct {
	// dispatch is held from a mutation until its handlers return.
	dispatch sync.Mutex

	mu       sync.RWMutex
	profile  model.Profile
	projects []model.Project
	ids      *IDSource
	clock    Clock

	subMu    sync.RWMutex
	handlers map[int]Handler
	nextSub  int
}

// New constructs an empty Session.
func New(options ...Option) *Session {
	s := &Session{
		clock:    time.Now,
		handlers: make(map[int]Handler),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	if s.ids == nil {
		s.ids = NewIDSource(s.clock)
	}
	return s
}

// Subscribe registers fn for change notifications and returns a function that
// removes it again.
func (s *Session) Subscribe(fn Handler) func() {
	if fn == nil {
		return func() {}
	}
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.handlers[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.handlers, id)
		s.subMu.Unlock()
	}
}

// Observe subscribes fn and returns the state the first delivered change
// applies to. No mutation can land between the snapshot and the subscription.
func (s *Session) Observe(fn Handler) (model.Portfolio, func()) {
	s.dispatch.Lock()
	defer s.dispatch.Unlock()
	return s.Snapshot(), s.Subscribe(fn)
}

// SetField stores a scalar profile value.
func (s *Session) SetField(field model.Field, value string) (Change, error) {
	s.dispatch.Lock()
	defer s.dispatch.Unlock()

	s.mu.Lock()
	ok := s.profile.Set(field, value)
	s.mu.Unlock()
	if !ok {
		return Change{}, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	change := Change{Kind: ChangeField, Field: field}
	s.emit(change)
	return change, nil
}

// SetImage replaces the profile image. A later call always wins.
func (s *Session) SetImage(dataURI string) Change {
	s.dispatch.Lock()
	defer s.dispatch.Unlock()

	s.mu.Lock()
	s.profile.Image = dataURI
	s.mu.Unlock()

	change := Change{Kind: ChangeImage}
	s.emit(change)
	return change
}

// AddProject appends a project carrying the placeholder title and description.
func (s *Session) AddProject() (model.Project, Change) {
	return s.AppendProject(model.PlaceholderProjectTitle, model.PlaceholderProjectDescription)
}

// AppendProject appends a project with the given content.
func (s *Session) AppendProject(title, description string) (model.Project, Change) {
	project := model.Project{
		ID:          s.ids.Next(),
		Title:       title,
		Description: description,
	}

	s.dispatch.Lock()
	defer s.dispatch.Unlock()

	s.mu.Lock()
	s.projects = append(s.projects, project)
	s.mu.Unlock()

	change := Change{Kind: ChangeProjectAdded, ProjectID: project.ID}
	s.emit(change)
	return project, change
}

// UpdateProject sets one attribute of the project identified by id.
func (s *Session) UpdateProject(id string, field model.ProjectField, value string) (Change, error) {
	s.dispatch.Lock()
	defer s.dispatch.Unlock()

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return Change{}, fmt.Errorf("%w: %q", ErrProjectNotFound, id)
	}
	if !s.projects[idx].Set(field, value) {
		s.mu.Unlock()
		return Change{}, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	s.mu.Unlock()

	change := Change{Kind: ChangeProjectUpdated, ProjectID: id, ProjectField: field}
	s.emit(change)
	return change, nil
}

// RemoveProject deletes the project identified by id.
func (s *Session) RemoveProject(id string) (Change, error) {
	s.dispatch.Lock()
	defer s.dispatch.Unlock()

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return Change{}, fmt.Errorf("%w: %q", ErrProjectNotFound, id)
	}
	s.projects = append(s.projects[:idx], s.projects[idx+1:]...)
	s.mu.Unlock()

	change := Change{Kind: ChangeProjectRemoved, ProjectID: id}
	s.emit(change)
	return change, nil
}

// Project returns a copy of the project identified by id.
func (s *Session) Project(id string) (model.Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return model.Project{}, false
	}
	return s.projects[idx], true
}

// Len reports the number of projects.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.projects)
}

// Snapshot returns a detached copy of the current state.
func (s *Session) Snapshot() model.Portfolio {
	s.mu.RLock()
	defer s.mu.RUnlock()

	projects := make([]model.Project, len(s.projects))
	copy(projects, s.projects)

	return model.Portfolio{
		Profile:  s.profile,
		Projects: projects,
		Year:     s.clock().Year(),
	}
}

func (s *Session) indexOf(id string) int {
	for i, project := range s.projects {
		if project.ID == id {
			return i
		}
	}
	return -1
}

func (s *Session) emit(change Change) {
	s.subMu.RLock()
	handlers := make([]Handler, 0, len(s.handlers))
	for id := 0; id < s.nextSub; id++ {
		if fn, ok := s.handlers[id]; ok {
			handlers = append(handlers, fn)
		}
	}
	s.subMu.RUnlock()

	for _, fn := range handlers {
		fn(change)
	}
}
