package dao

import "errors"

var (
	// ErrNotFound is returned when no record is stored under the requested key
	ErrNotFound = errors.New("dao: not found")

	// ErrNilEntity is returned when the caller attempts to save a nil record
	ErrNilEntity = errors.New("dao: nil entity")
)
