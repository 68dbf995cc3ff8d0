package preview

import (
	"context"
	"log/slog"
	"sync"

	"github.com/goliatone/go-portfolio/pkg/model"
	"github.com/goliatone/go-portfolio/pkg/state"
)

// Mirror subscribes to a session and queues the patches each change
// produces until a client drains them.
type Mirror struct {
	session *state.Session
	sync    *Synchronizer
	logger  *slog.Logger
	ctx     context.Context

	base model.Portfolio

	mu          sync.Mutex
	pending     []Patch
	unsubscribe func()
}

// NewMirror starts mirroring session. ctx bounds fragment rendering for the
// lifetime of the mirror.
func NewMirror(ctx context.Context, session *state.Session, synchronizer *Synchronizer, logger *slog.Logger) *Mirror {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = slog.Default()
	}
	m := &Mirror{
		session: session,
		sync:    synchronizer,
		logger:  logger,
		ctx:     ctx,
	}
	m.base, m.unsubscribe = session.Observe(m.handle)
	return m
}

// Base is the session state the first queued patch applies to. A page
// rendered from it stays in sync by applying every drained patch.
func (m *Mirror) Base() model.Portfolio {
	return m.base
}

func (m *Mirror) handle(change state.Change) {
	patches, err := m.sync.Patches(m.ctx, m.session.Snapshot(), change)
	if err != nil {
		m.logger.Error("preview patches failed",
			"kind", change.Kind,
			"field", change.Field,
			"project_id", change.ProjectID,
			"error", err,
		)
		return
	}
	if len(patches) == 0 {
		return
	}

	m.mu.Lock()
	m.pending = append(m.pending, patches...)
	m.mu.Unlock()
}

// Drain returns the queued patches in emission order and clears the queue.
func (m *Mirror) Drain() []Patch {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := m.pending
	m.pending = nil
	return out
}

// Pending reports the number of queued patches.
func (m *Mirror) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Close stops mirroring. Queued patches stay available to Drain.
func (m *Mirror) Close() {
	m.mu.Lock()
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}
