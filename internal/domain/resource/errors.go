package resource

import "errors"

var (
	// ErrInvalidInput indicates invalid resource or assignment input.
	ErrInvalidInput = errors.New("invalid resource input")
	// ErrResourceNotFound indicates an assignment references an unknown
	// resource.
	ErrResourceNotFound = errors.New("resource not found")
)
