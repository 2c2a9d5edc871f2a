// Package policy defines the CPU allocation policies and their selection rules. The
// table scanning rules are pure functions over a snapshot of runnable candidates; the
// feedback policy keeps queue state and lives with the kernel.
package policy

import (
	"fmt"
	"strings"
)

// Kind represents a scheduling policy
type Kind int

const (
	RoundRobin Kind = iota
	FCFS
	Priority
	MLFQ
)

var kindNames = [...]string{
	RoundRobin: "rr",
	FCFS:       "fcfs",
	Priority:   "pbs",
	MLFQ:       "mlfq",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("policy(%d)", int(k))
	}
	return kindNames[k]
}

// Valid returns true for known kinds
func (k Kind) Valid() bool {
	return k >= RoundRobin && k <= MLFQ
}

// Preemptive returns true if the timer forces the running process to yield
func (k Kind) Preemptive() bool {
	return k != FCFS
}

// MarshalText encodes kind name
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes kind name
func (k *Kind) UnmarshalText(data []byte) error {
	kind, err := Parse(string(data))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// Parse parses policy name, empty name returns the build default
func Parse(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return Default, nil
	case "rr", "roundrobin", "round-robin", "default":
		return RoundRobin, nil
	case "fcfs":
		return FCFS, nil
	case "pbs", "priority":
		return Priority, nil
	case "mlfq", "feedback":
		return MLFQ, nil
	}
	return Default, fmt.Errorf("unsupported scheduling policy: %q", name)
}
