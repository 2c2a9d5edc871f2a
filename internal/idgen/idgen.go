package idgen

import "github.com/google/uuid"

// NewFunc returns a new identifier, tests can stub it.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new globally unique identifier, used for kernel boot and event message IDs.
func New() string { return NewFunc() }
