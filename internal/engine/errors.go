package engine

import "errors"

var (
	// ErrSessionApplied indicates the leveling session was already applied.
	ErrSessionApplied = errors.New("leveling session already applied")
	// ErrSessionNotApplied indicates a revert of a session that was never
	// applied.
	ErrSessionNotApplied = errors.New("leveling session not applied")
)
