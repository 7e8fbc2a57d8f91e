package service

import (
	"errors"
)

// Sentinel error kinds surfaced to the transport as conversational replies.
var (
	// ErrItemExists reports that the (user, name, type) identity is taken.
	ErrItemExists = errors.New("item already rated")

	// ErrNoSession reports an answer for an interview that is not live,
	// usually because it expired or already converged.
	ErrNoSession = errors.New("no active session")
)
