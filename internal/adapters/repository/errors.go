package repository

import "errors"

// ErrNotFound is the store's missing-row kind, wrapped with the lookup
// detail at every return site.
var ErrNotFound = errors.New("item not found")
