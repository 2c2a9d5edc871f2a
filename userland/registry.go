package userland

import (
	"fmt"
	"sort"
	"sync"

	"github.com/viant/kproc/model/proc"
	"github.com/viant/kproc/runtime/kernel"
)

// Programs represents a program registry
type Programs struct {
	programs map[string]kernel.Program
	mux      sync.RWMutex
}

// Lookup returns a program by name
func (s *Programs) Lookup(name string) kernel.Program {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.programs[name]
}

// Load resolves a program for exec
func (s *Programs) Load(name string) (kernel.Program, error) {
	if program := s.Lookup(name); program != nil {
		return program, nil
	}
	return nil, fmt.Errorf("%w: %v", proc.ErrNoProgram, name)
}

// Register registers a program, it replaces a program registered under the same name
func (s *Programs) Register(name string, program kernel.Program) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.programs[name] = program
}

// Names returns sorted program names
func (s *Programs) Names() []string {
	s.mux.RLock()
	defer s.mux.RUnlock()
	ret := make([]string, 0, len(s.programs))
	for name := range s.programs {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}

// NewPrograms creates a registry with the builtin programs
func NewPrograms() *Programs {
	ret := &Programs{programs: make(map[string]kernel.Program)}
	ret.Register("ps", Ps)
	ret.Register("setpriority", SetPriority)
	ret.Register("time", Time)
	ret.Register("schedulertest", SchedulerTest)
	ret.Register("longwait", LongWait)
	return ret
}
