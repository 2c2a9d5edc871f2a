// Package idgen generates the opaque identifiers that tag kernel boots and queued messages.
// NewFunc can be stubbed in tests.
package idgen
