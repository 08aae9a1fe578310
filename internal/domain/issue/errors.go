package issue

import "errors"

var (
	ErrNotFound          = errors.New("issue not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrStatusChanged means a compare-and-swap lost a race with another writer.
	ErrStatusChanged = errors.New("issue status changed concurrently")
	ErrNoBeforeImage = errors.New("issue has no before image")
	// ErrNotMergeable means the merge target left pending before the report landed.
	ErrNotMergeable = errors.New("issue no longer accepts merged reports")
)
