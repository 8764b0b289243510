package types

import "errors"

var (
	// ErrSessionNotFound is returned when a session id resolves to nothing.
	ErrSessionNotFound = errors.New("session not found")

	// ErrDuplicateID is returned on an Insert with an existing id. Session
	// ids are uuid-generated, so hitting this means a broken invariant.
	ErrDuplicateID = errors.New("duplicate session id")

	// ErrUnknownCall is returned when a webhook event cannot be correlated
	// to any stored session.
	ErrUnknownCall = errors.New("unknown provider call id")
)
