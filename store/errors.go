package store

import "errors"

var (
	// ErrNotFound is returned when no Item exists for the given id or serialNumber.
	ErrNotFound = errors.New("itemstore: item not found")

	// ErrAlreadyExists is returned when a create-if-absent put hits an existing id.
	ErrAlreadyExists = errors.New("itemstore: item already exists")
)
