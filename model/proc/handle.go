package proc

import "fmt"

// Handle is a weak reference to a process table slot. The generation is bumped every time
// the slot is allocated, so a handle kept past the reclaim of its record no longer resolves.
// Generations start at 1, the zero Handle never refers to a record.
type Handle struct {
	Slot int
	Gen  uint32
}

// IsZero returns true if handle does not refer to any record
func (h Handle) IsZero() bool {
	return h.Gen == 0
}

func (h Handle) String() string {
	if h.IsZero() {
		return "nil"
	}
	return fmt.Sprintf("%d#%d", h.Slot, h.Gen)
}
