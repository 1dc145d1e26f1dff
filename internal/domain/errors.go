// Package domain holds sentinel errors and shared contracts between layers.
package domain

import "errors"

var (
	// ErrNotFound is returned when an identifier resolves to zero records
	// or the identifier does not match the configured pattern.
	ErrNotFound = errors.New("record not found")

	// ErrPermissionDenied is returned when a view, mutate or delete
	// permission predicate rejects the request.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidConfig is returned for invalid static configuration.
	// It is only ever produced at construction time, never per request.
	ErrInvalidConfig = errors.New("invalid configuration")
)
