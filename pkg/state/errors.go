package state

import "errors"

var (
	// ErrUnknownField is returned when a mutation names a field the profile or
	// project does not carry.
	ErrUnknownField = errors.New("state: unknown field")
	// ErrProjectNotFound is returned when no project matches the identifier.
	ErrProjectNotFound = errors.New("state: project not found")
)
