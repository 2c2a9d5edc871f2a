// Package dao defines storage of records keyed by a comparable id, the kernel keeps the
// accounting of reaped processes in it.
package dao

import (
	"context"
)

// Service represents a keyed record store
type Service[K comparable, T any] interface {
	// Save stores t, replacing a record with the same key
	Save(ctx context.Context, t *T) error

	Load(ctx context.Context, id K) (*T, error)

	Delete(ctx context.Context, id K) error

	// List returns records in the order they were first saved
	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}
