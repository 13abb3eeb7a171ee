package domain

import "errors"

var (
	// ErrDraftNotFound is returned when an approval or rejection names an
	// identifier no stored draft carries.
	ErrDraftNotFound = errors.New("draft not found")

	// ErrTerminalState is returned when a transition is requested out of
	// POSTED or REJECTED.
	ErrTerminalState = errors.New("draft is in a terminal state")
)
