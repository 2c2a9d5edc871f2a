package kernel

import (
	"context"
	"io"
	"log/slog"

	"github.com/viant/kproc/model/proc"
	"github.com/viant/kproc/runtime/policy"
	"github.com/viant/kproc/service/dao"
	"github.com/viant/kproc/service/event"
	"github.com/viant/kproc/service/resource"
)

// Option represents kernel option
type Option func(k *Kernel)

// WithConfig sets kernel config
func WithConfig(config Config) Option {
	return func(k *Kernel) {
		k.config = config
	}
}

// WithPolicy sets scheduling policy
func WithPolicy(kind policy.Kind) Option {
	return func(k *Kernel) {
		k.config.Policy = kind
	}
}

// WithCPUs sets number of scheduling loops
func WithCPUs(count int) Option {
	return func(k *Kernel) {
		k.config.CPUs = count
	}
}

// WithNProc sets process table capacity
func WithNProc(count int) Option {
	return func(k *Kernel) {
		k.config.NProc = count
	}
}

// WithStacks sets kernel stack allocator
func WithStacks(stacks resource.Stacks) Option {
	return func(k *Kernel) {
		k.stacks = stacks
	}
}

// WithAddressSpaces sets address space manager
func WithAddressSpaces(spaces resource.AddressSpaces) Option {
	return func(k *Kernel) {
		k.spaces = spaces
	}
}

// WithFiles sets file table
func WithFiles(files resource.Files) Option {
	return func(k *Kernel) {
		k.files = files
	}
}

// WithConsole sets console writer
func WithConsole(w io.Writer) Option {
	return func(k *Kernel) {
		k.console.w = w
	}
}

// WithContext sets base context used for events and the default logger
func WithContext(ctx context.Context) Option {
	return func(k *Kernel) {
		k.ctx = ctx
	}
}

// WithLogger sets kernel logger
func WithLogger(logger *slog.Logger) Option {
	return func(k *Kernel) {
		k.logger = logger
	}
}

// WithPublisher sets kernel event publisher
func WithPublisher(publisher *event.Publisher[proc.Event], eventContext *event.Context) Option {
	return func(k *Kernel) {
		k.publisher = publisher
		k.eventContext = eventContext
	}
}

// WithLedger sets the store receiving accounting of reaped processes
func WithLedger(ledger dao.Service[int, proc.Accounting]) Option {
	return func(k *Kernel) {
		k.ledger = ledger
	}
}

// WithLoader sets program loader used by exec
func WithLoader(loader Loader) Option {
	return func(k *Kernel) {
		k.loader = loader
	}
}
