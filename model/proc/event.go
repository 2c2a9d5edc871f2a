package proc

// Transition names a kernel event
type Transition string

const (
	TransitionForked     Transition = "forked"
	TransitionDispatched Transition = "dispatched"
	TransitionPromoted   Transition = "promoted"
	TransitionDemoted    Transition = "demoted"
	TransitionWoken      Transition = "woken"
	TransitionKilled     Transition = "killed"
	TransitionExited     Transition = "exited"
	TransitionReaped     Transition = "reaped"
	TransitionPriority   Transition = "priority"
)

// Event represents a process record transition observed by the kernel
type Event struct {
	Transition Transition `json:"transition" yaml:"transition"`
	Tick       int        `json:"tick" yaml:"tick"`
	CPU        int        `json:"cpu" yaml:"cpu"`
	Pid        int        `json:"pid" yaml:"pid"`
	Name       string     `json:"name,omitempty" yaml:"name,omitempty"`
	Level      int        `json:"level" yaml:"level"`
	Priority   int        `json:"priority" yaml:"priority"`
}
