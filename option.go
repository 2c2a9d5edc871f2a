package kproc

import (
	"io"
	"log/slog"

	"github.com/viant/kproc/model/proc"
	"github.com/viant/kproc/runtime/kernel"
	"github.com/viant/kproc/service/dao"
	"github.com/viant/kproc/service/event"
	"github.com/viant/kproc/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option represents a service option
type Option func(s *Service)

// WithConfig sets the service config, unset fields use defaults
func WithConfig(config *Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithLogger sets the logger used by the service and every kernel it boots
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithConsole sets the writer receiving user program output
func WithConsole(w io.Writer) Option {
	return func(s *Service) {
		s.console = w
	}
}

// WithEventListener registers a handler for kernel events
func WithEventListener(handler func(*event.Event[proc.Event])) Option {
	return func(s *Service) {
		s.listener = handler
	}
}

// WithEventService sets the event service
func WithEventService(service *event.Service) Option {
	return func(s *Service) {
		s.eventService = service
	}
}

// WithLedger sets the store receiving accounting of reaped processes
func WithLedger(ledger dao.Service[int, proc.Accounting]) Option {
	return func(s *Service) {
		s.ledger = ledger
	}
}

// WithProgram registers an additional user program
func WithProgram(name string, program kernel.Program) Option {
	return func(s *Service) {
		s.extraPrograms[name] = program
	}
}

// WithKernelOptions lets the caller supply additional options passed to kernel.New
// (e.g. bounded resource collaborators).
func WithKernelOptions(options ...kernel.Option) Option {
	return func(s *Service) {
		s.kernelOptions = append(s.kernelOptions, options...)
	}
}

// WithTracing configures OpenTelemetry tracing for the service. If outputFile is empty the
// stdout exporter is used; otherwise traces are written to the supplied file path.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		if err := tracing.Init(serviceName, serviceVersion, outputFile); err != nil {
			s.initErr = err
		}
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		if err := tracing.InitWithExporter(serviceName, serviceVersion, exporter); err != nil {
			s.initErr = err
		}
	}
}
