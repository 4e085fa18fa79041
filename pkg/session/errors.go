package session

import "errors"

var (
	// ErrInvalidState is returned when an operation is not allowed in the
	// manager's current state.
	ErrInvalidState = errors.New("session: invalid state for operation")

	// ErrNoActiveSession is returned when a repetition arrives while no
	// session is running.
	ErrNoActiveSession = errors.New("session: no active session")

	// ErrNotFound is returned when a session ID is unknown.
	ErrNotFound = errors.New("session: not found")
)
