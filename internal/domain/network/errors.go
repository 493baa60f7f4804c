package network

import "errors"

var (
	// ErrCycle indicates an edge would make the dependency graph cyclic.
	ErrCycle = errors.New("dependency would create a cycle")
	// ErrSelfDependency indicates predecessor and successor are the same.
	ErrSelfDependency = errors.New("activity cannot depend on itself")
	// ErrDuplicateDependency indicates an edge for the ordered pair exists.
	ErrDuplicateDependency = errors.New("dependency already exists")
	// ErrActivityNotFound indicates an unknown activity identifier.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrDuplicateActivity indicates the activity identifier is taken.
	ErrDuplicateActivity = errors.New("activity already exists")
	// ErrInvalidInput indicates invalid activity or dependency input.
	ErrInvalidInput = errors.New("invalid network input")
)
