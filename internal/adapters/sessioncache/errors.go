package sessioncache

import "errors"

// Sentinel kinds for session cache errors.
var (
	ErrEncode  = errors.New("encode session failed")
	ErrBackend = errors.New("session cache backend failure")
)
