package store

import "errors"

var (
	// ErrNotFound means the referenced row does not exist. Nothing is written.
	ErrNotFound = errors.New("not found")

	// ErrConflict means a uniqueness rule was violated (e.g. duplicate task
	// name on create). Nothing is written.
	ErrConflict = errors.New("already exists")

	// ErrValidation means the input was rejected before any write.
	ErrValidation = errors.New("validation failed")
)
