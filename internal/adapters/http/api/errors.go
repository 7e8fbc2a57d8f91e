package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest     = errors.New("bad request")
	ErrUnauthorized   = errors.New("invalid request signature")
	ErrMalformedToken = errors.New("malformed continuation token")
)
