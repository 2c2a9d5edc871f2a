package proc

const (
	// NQueue is the number of feedback levels
	NQueue = 5
	// LevelNone marks a record not assigned to any feedback level
	LevelNone = -1
	// DefaultNProc is the default process table capacity
	DefaultNProc = 64
	// DefaultPriority is assigned to every new record
	DefaultPriority = 60
	MinPriority     = 0
	MaxPriority     = 100
	// AgingThreshold is the number of ticks a queued record can wait before promotion
	AgingThreshold = 30
	// InitPid is the pid of the permanent first record
	InitPid = 1
)

// DefaultQuanta returns per level time slices, in ticks
func DefaultQuanta() [NQueue]int {
	return [NQueue]int{1, 2, 4, 8, 16}
}

// ValidPriority returns true if priority is within the accepted range
func ValidPriority(priority int) bool {
	return priority >= MinPriority && priority <= MaxPriority
}
