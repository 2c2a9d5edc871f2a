package proc

import "fmt"

// State represents a process record state
type State int

const (
	Unused State = iota
	Embryo
	Sleeping
	Runnable
	Running
	Zombie
)

var stateNames = [...]string{
	Unused:   "unused",
	Embryo:   "embryo",
	Sleeping: "sleeping",
	Runnable: "waiting",
	Running:  "running",
	Zombie:   "zombie",
}

// String returns the name ps prints for the state; runnable records are reported as "waiting".
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText encodes state name
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseState parses ps state name
func ParseState(name string) (State, error) {
	for i, candidate := range stateNames {
		if candidate == name {
			return State(i), nil
		}
	}
	return Unused, fmt.Errorf("unknown process state: %q", name)
}
