package kernel

import (
	"fmt"
	"time"

	"github.com/viant/kproc/model/proc"
	"github.com/viant/kproc/runtime/policy"
)

// Config represents kernel settings
type Config struct {
	Policy         policy.Kind
	CPUs           int
	NProc          int
	AgingThreshold int
	// DefaultPriority is assigned to every new process
	DefaultPriority int
	Quanta          [proc.NQueue]int
	// Tick is the timer interval, zero leaves ticking to the caller of Kernel.Tick
	Tick time.Duration
	// IdlePoll bounds how long an idle CPU waits before rescanning the table
	IdlePoll time.Duration
}

// DefaultConfig returns default kernel config
func DefaultConfig() Config {
	return Config{
		Policy:          policy.Default,
		CPUs:            1,
		NProc:           proc.DefaultNProc,
		AgingThreshold:  proc.AgingThreshold,
		DefaultPriority: proc.DefaultPriority,
		Quanta:          proc.DefaultQuanta(),
		IdlePoll:        10 * time.Millisecond,
	}
}

// Validate checks config
func (c *Config) Validate() error {
	if !c.Policy.Valid() {
		return fmt.Errorf("invalid scheduling policy: %v", c.Policy)
	}
	if c.CPUs <= 0 {
		return fmt.Errorf("cpus must be > 0")
	}
	if c.NProc < 2 {
		return fmt.Errorf("nproc must be >= 2")
	}
	if c.AgingThreshold <= 0 {
		return fmt.Errorf("aging threshold must be > 0")
	}
	if !proc.ValidPriority(c.DefaultPriority) {
		return fmt.Errorf("default priority %d out of range", c.DefaultPriority)
	}
	for level, quantum := range c.Quanta {
		if quantum <= 0 {
			return fmt.Errorf("quantum for level %d must be > 0", level)
		}
	}
	if c.Tick < 0 {
		return fmt.Errorf("tick must be >= 0")
	}
	if c.IdlePoll <= 0 {
		return fmt.Errorf("idle poll must be > 0")
	}
	return nil
}
