package admin

import "errors"

var (
	// ErrNotFound is returned when a credential index is outside the pool.
	ErrNotFound = errors.New("credential not found")
	// ErrUpstream is returned when the provider rejected or failed a
	// balance query; the caller did nothing wrong.
	ErrUpstream = errors.New("upstream provider error")
)
