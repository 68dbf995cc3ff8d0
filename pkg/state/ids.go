package state

import (
	"strconv"
	"sync"
	"time"
)

// Clock returns the current time. Tests swap it for a fixed source.
type Clock func() time.Time

// IDSource hands out project identifiers derived from the wall clock in
// milliseconds. Identifiers never repeat within a source: when two calls land
// on the same millisecond (or the clock moves backwards) the previous value is
// bumped by one.
type IDSource struct {
	mu    sync.Mutex
	clock Clock
	last  int64
}

// NewIDSource builds an IDSource. A nil clock defaults to time.Now.
func NewIDSource(clock Clock) *IDSource {
	if clock == nil {
		clock = time.Now
	}
	return &IDSource{clock: clock}
}

// Next returns the next identifier.
func (s *IDSource) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidate := s.clock().UnixMilli()
	if candidate <= s.last {
		candidate = s.last + 1
	}
	s.last = candidate
	return strconv.FormatInt(candidate, 10)
}
