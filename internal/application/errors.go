package application

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTransport signals that the external quote source could not be
	// reached or returned an unparsable body. Non-fatal for callers.
	ErrTransport = errors.New("quote source transport failure")

	// ErrEmptySample signals a reachable quote source that produced no
	// usable prices. Non-fatal for callers.
	ErrEmptySample = errors.New("empty quote sample")
)
