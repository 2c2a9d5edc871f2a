package kproc

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/viant/kproc/internal/ctxlog"
	"github.com/viant/kproc/model/proc"
	"github.com/viant/kproc/progress"
	"github.com/viant/kproc/runtime/kernel"
	"github.com/viant/kproc/service/dao"
	"github.com/viant/kproc/service/dao/store"
	"github.com/viant/kproc/service/event"
	"github.com/viant/kproc/service/messaging"
	"github.com/viant/kproc/service/messaging/memory"
	"github.com/viant/kproc/userland"
)

// Service wires kernels with their user programs, event stream and accounting ledger
type Service struct {
	config        *Config
	runtime       *Runtime
	programs      *userland.Programs
	extraPrograms map[string]kernel.Program
	eventService  *event.Service
	publisher     *event.Publisher[proc.Event]
	listener      func(*event.Event[proc.Event])
	progress      *progress.Progress
	ledger        dao.Service[int, proc.Accounting]
	console       io.Writer
	logger        *slog.Logger
	kernelOptions []kernel.Option
	initErr       error
}

func (s *Service) init(options []Option) error {
	for _, option := range options {
		option(s)
	}
	if s.initErr != nil {
		return s.initErr
	}
	if err := s.ensureBaseSetup(); err != nil {
		return err
	}
	for name, program := range s.extraPrograms {
		s.programs.Register(name, program)
	}
	publisher, err := event.PublisherOf[proc.Event](s.eventService)
	if err != nil {
		return err
	}
	s.publisher = publisher
	s.progress = progress.New(s.eventService.BootID(), s.config.Kernel.Policy, nil)
	if err = event.SetListenerOf[proc.Event](s.eventService, s.onEvent); err != nil {
		return err
	}
	s.runtime = &Runtime{service: s}
	return nil
}

func (s *Service) ensureBaseSetup() error {
	if s.config == nil {
		s.config = DefaultConfig()
	}
	s.config.Init()
	if err := s.config.Validate(); err != nil {
		return err
	}
	if s.logger == nil {
		s.logger = ctxlog.FromContext(context.Background())
	}
	if s.programs == nil {
		s.programs = userland.NewPrograms()
	}
	if s.ledger == nil {
		s.ledger = store.NewMemoryStore[int, proc.Accounting](func(a *proc.Accounting) int { return a.Pid })
	}
	if s.eventService == nil {
		buffer := s.config.Events.Buffer
		eventService, err := event.New(messaging.VendorMemory, event.WithNewMemoryQueueConfig(func(string) memory.Config {
			config := memory.DefaultConfig()
			config.QueueBuffer = buffer
			config.DropOnFull = true
			return config
		}))
		if err != nil {
			return fmt.Errorf("failed to create event service: %w", err)
		}
		s.eventService = eventService
	}
	return nil
}

func (s *Service) onEvent(e *event.Event[proc.Event]) {
	s.progress.Update(progress.DeltaOf(e.Data.Transition))
	if s.listener != nil {
		s.listener(e)
	}
}

// Progress returns counters aggregated from the events of every kernel run so far
func (s *Service) Progress() progress.Progress {
	return s.progress.Snapshot()
}

// Config returns service config
func (s *Service) Config() *Config {
	return s.config
}

// Runtime returns service runtime
func (s *Service) Runtime() *Runtime {
	return s.runtime
}

// Programs returns the program registry
func (s *Service) Programs() *userland.Programs {
	return s.programs
}

// Events returns the event service kernels publish to
func (s *Service) Events() *event.Service {
	return s.eventService
}

// Ledger returns accounting of every reaped process
func (s *Service) Ledger() dao.Service[int, proc.Accounting] {
	return s.ledger
}

// Close stops event listeners
func (s *Service) Close() {
	s.eventService.Close()
}

// New creates a service
func New(options ...Option) (*Service, error) {
	ret := &Service{extraPrograms: map[string]kernel.Program{}}
	if err := ret.init(options); err != nil {
		return nil, err
	}
	return ret, nil
}
