package domain

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrBrandExists is returned when creating a brand whose name is taken.
	ErrBrandExists = errors.New("brand already exists")
	// ErrInvalidName is returned for empty or whitespace-only names.
	ErrInvalidName = errors.New("name must not be empty")
)
