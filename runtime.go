package kproc

import (
	"context"
	"fmt"
	"sync"

	"github.com/viant/kproc/internal/ctxlog"
	"github.com/viant/kproc/runtime/kernel"
)

// Runtime boots kernels configured by the service
type Runtime struct {
	service *Service
	mux     sync.Mutex
	last    *kernel.Kernel
}

// Boot creates a kernel that has not started yet
func (r *Runtime) Boot(ctx context.Context) (*kernel.Kernel, error) {
	s := r.service
	config, err := s.config.KernelConfig()
	if err != nil {
		return nil, err
	}
	options := []kernel.Option{
		kernel.WithConfig(config),
		kernel.WithContext(ctxlog.WithLogger(ctx, s.logger)),
		kernel.WithLogger(s.logger),
		kernel.WithLoader(s.programs),
		kernel.WithLedger(s.ledger),
		kernel.WithPublisher(s.publisher, s.eventService.NewContext("kernel", "proc")),
	}
	if s.console != nil {
		options = append(options, kernel.WithConsole(s.console))
	}
	options = append(options, s.kernelOptions...)
	ret, err := kernel.New(options...)
	if err != nil {
		return nil, err
	}
	r.mux.Lock()
	r.last = ret
	r.mux.Unlock()
	return ret, nil
}

// Run boots a kernel and runs the named program with args as the first user process. It
// returns once the program and every process it left behind have exited.
func (r *Runtime) Run(ctx context.Context, name string, args ...string) error {
	program, err := r.service.programs.Load(name)
	if err != nil {
		return err
	}
	k, err := r.Boot(ctx)
	if err != nil {
		return err
	}
	argv := append([]string{name}, args...)
	if err = k.Run(ctx, program, argv...); err != nil {
		return fmt.Errorf("failed to run %v: %w", name, err)
	}
	return nil
}

// Kernel returns the most recently booted kernel
func (r *Runtime) Kernel() *kernel.Kernel {
	r.mux.Lock()
	defer r.mux.Unlock()
	return r.last
}
