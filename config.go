package kproc

import (
	"fmt"
	"time"

	"github.com/viant/kproc/model/proc"
	"github.com/viant/kproc/runtime/kernel"
	"github.com/viant/kproc/runtime/policy"
)

// Config is a serialisable representation of the kernel configuration. It can be loaded from
// YAML or HCL with LoadConfig. Zero fields inherit their package defaults on Init.
type Config struct {
	Kernel *KernelConfig `json:"kernel" yaml:"kernel" hcl:"kernel,block"`
	Events *EventConfig  `json:"events" yaml:"events" hcl:"events,block"`
}

// KernelConfig represents process table and scheduler settings
type KernelConfig struct {
	Policy          string `json:"policy" yaml:"policy" hcl:"policy,optional"`
	CPUs            int    `json:"cpus" yaml:"cpus" hcl:"cpus,optional"`
	NProc           int    `json:"nproc" yaml:"nproc" hcl:"nproc,optional"`
	AgingThreshold  int    `json:"agingThreshold" yaml:"agingThreshold" hcl:"aging_threshold,optional"`
	DefaultPriority *int   `json:"defaultPriority" yaml:"defaultPriority" hcl:"default_priority,optional"`
	Quanta          []int  `json:"quanta" yaml:"quanta" hcl:"quanta,optional"`
	// Tick is the timer interval, "0" leaves ticking to the host
	Tick     string `json:"tick" yaml:"tick" hcl:"tick,optional"`
	IdlePoll string `json:"idlePoll" yaml:"idlePoll" hcl:"idle_poll,optional"`
}

// EventConfig represents kernel event stream settings
type EventConfig struct {
	// Buffer is the number of undelivered events kept before new ones are dropped
	Buffer int `json:"buffer" yaml:"buffer" hcl:"buffer,optional"`
}

// DefaultConfig returns a Config populated with default values
func DefaultConfig() *Config {
	priority := proc.DefaultPriority
	quanta := proc.DefaultQuanta()
	return &Config{
		Kernel: &KernelConfig{
			Policy:          policy.Default.String(),
			CPUs:            1,
			NProc:           proc.DefaultNProc,
			AgingThreshold:  proc.AgingThreshold,
			DefaultPriority: &priority,
			Quanta:          quanta[:],
			Tick:            "10ms",
			IdlePoll:        "10ms",
		},
		Events: &EventConfig{Buffer: 1024},
	}
}

// Init fills unset fields with defaults
func (c *Config) Init() {
	defaults := DefaultConfig()
	if c.Kernel == nil {
		c.Kernel = defaults.Kernel
	}
	if c.Events == nil {
		c.Events = defaults.Events
	}
	k := c.Kernel
	if k.Policy == "" {
		k.Policy = defaults.Kernel.Policy
	}
	if k.CPUs == 0 {
		k.CPUs = defaults.Kernel.CPUs
	}
	if k.NProc == 0 {
		k.NProc = defaults.Kernel.NProc
	}
	if k.AgingThreshold == 0 {
		k.AgingThreshold = defaults.Kernel.AgingThreshold
	}
	if k.DefaultPriority == nil {
		k.DefaultPriority = defaults.Kernel.DefaultPriority
	}
	if len(k.Quanta) == 0 {
		k.Quanta = defaults.Kernel.Quanta
	}
	if k.Tick == "" {
		k.Tick = defaults.Kernel.Tick
	}
	if k.IdlePoll == "" {
		k.IdlePoll = defaults.Kernel.IdlePoll
	}
	if c.Events.Buffer == 0 {
		c.Events.Buffer = defaults.Events.Buffer
	}
}

// Validate returns an error describing the first invalid setting or nil
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if _, err := c.KernelConfig(); err != nil {
		return err
	}
	if c.Events != nil && c.Events.Buffer < 0 {
		return fmt.Errorf("events.buffer must be >= 0")
	}
	return nil
}

// KernelConfig converts the kernel section, unset fields use defaults
func (c *Config) KernelConfig() (kernel.Config, error) {
	ret := kernel.DefaultConfig()
	k := c.Kernel
	if k == nil {
		return ret, nil
	}
	var err error
	if k.Policy != "" {
		if ret.Policy, err = policy.Parse(k.Policy); err != nil {
			return ret, fmt.Errorf("kernel.policy: %w", err)
		}
	}
	if k.CPUs != 0 {
		ret.CPUs = k.CPUs
	}
	if k.NProc != 0 {
		ret.NProc = k.NProc
	}
	if k.AgingThreshold != 0 {
		ret.AgingThreshold = k.AgingThreshold
	}
	if k.DefaultPriority != nil {
		ret.DefaultPriority = *k.DefaultPriority
	}
	if len(k.Quanta) > 0 {
		if len(k.Quanta) != proc.NQueue {
			return ret, fmt.Errorf("kernel.quanta: expected %d levels, but had %d", proc.NQueue, len(k.Quanta))
		}
		copy(ret.Quanta[:], k.Quanta)
	}
	if k.Tick != "" {
		if ret.Tick, err = time.ParseDuration(k.Tick); err != nil {
			return ret, fmt.Errorf("kernel.tick: %w", err)
		}
	}
	if k.IdlePoll != "" {
		if ret.IdlePoll, err = time.ParseDuration(k.IdlePoll); err != nil {
			return ret, fmt.Errorf("kernel.idlePoll: %w", err)
		}
	}
	return ret, ret.Validate()
}
