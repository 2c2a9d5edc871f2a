package kernel

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/viant/kproc/internal/ctxlog"
	"github.com/viant/kproc/model/proc"
	"github.com/viant/kproc/runtime/policy"
	"github.com/viant/kproc/service/dao"
	"github.com/viant/kproc/service/dao/store"
	"github.com/viant/kproc/service/event"
	"github.com/viant/kproc/service/resource"
	"github.com/viant/kproc/service/resource/memory"
	"github.com/viant/kproc/tracing"
	"golang.org/x/sync/errgroup"
)

// channelKey is a wait channel private to the kernel
type channelKey struct{ name string }

type console struct {
	mu sync.Mutex
	w  io.Writer
}

func (c *console) printf(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.w == nil {
		return
	}
	_, _ = fmt.Fprintf(c.w, format, args...)
}

// Kernel represents a process table with its CPUs
type Kernel struct {
	config   Config
	ptable   *spinlock
	tickLock *spinlock
	procs    []*record
	cpus     []*cpu
	strategy strategy
	nextPid  int
	initProc *record
	ticks    atomic.Int64
	tickChan *channelKey
	hostSeq  atomic.Int32

	halted   chan struct{}
	haltOnce sync.Once
	running  atomic.Bool
	procWG   sync.WaitGroup

	stacks  resource.Stacks
	spaces  resource.AddressSpaces
	files   resource.Files
	loader  Loader
	console console

	ctx          context.Context
	logger       *slog.Logger
	publisher    *event.Publisher[proc.Event]
	eventContext *event.Context
	ledger       dao.Service[int, proc.Accounting]
}

// Config returns kernel config
func (k *Kernel) Config() Config {
	return k.config
}

// Policy returns active scheduling policy
func (k *Kernel) Policy() policy.Kind {
	return k.config.Policy
}

// Ledger returns accounting of reaped processes
func (k *Kernel) Ledger() dao.Service[int, proc.Accounting] {
	return k.ledger
}

// Ticks returns number of timer ticks since boot
func (k *Kernel) Ticks() int {
	return int(k.ticks.Load())
}

// Run boots init, runs program as its child and returns once every process has been reaped
// or ctx is done. argv[0] names the program. A kernel runs once.
func (k *Kernel) Run(ctx context.Context, program Program, argv ...string) (err error) {
	if program == nil {
		return fmt.Errorf("program was nil")
	}
	if !k.running.CompareAndSwap(false, true) {
		return fmt.Errorf("kernel already started")
	}
	ctx, span := tracing.StartSpan(ctx, "kernel.run", "INTERNAL")
	span.WithAttributes(map[string]string{"kernel.policy": k.config.Policy.String()})
	defer func() { tracing.EndSpan(span, err) }()
	if len(argv) == 0 {
		argv = []string{"main"}
	}
	done := make(chan struct{})
	if err = k.userinit(k.initProgram(program, argv, done)); err != nil {
		return err
	}
	k.logger.Info("kernel booted", "policy", k.config.Policy.String(), "cpus", len(k.cpus), "nproc", len(k.procs))

	group, groupCtx := errgroup.WithContext(ctx)
	for _, c := range k.cpus {
		c := c
		group.Go(func() error {
			k.scheduler(groupCtx, c)
			return nil
		})
	}
	timerCtx, stopTimer := context.WithCancel(ctx)
	timerDone := make(chan struct{})
	go func() {
		defer close(timerDone)
		k.timer(timerCtx)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	stopTimer()
	<-timerDone
	k.halt()
	if groupErr := group.Wait(); groupErr != nil && err == nil {
		err = groupErr
	}
	k.procWG.Wait()
	k.ptable.reclaim()
	k.tickLock.reclaim()
	k.logger.Info("kernel halted", "ticks", k.Ticks())
	return err
}

func (k *Kernel) timer(ctx context.Context) {
	if k.config.Tick <= 0 {
		return
	}
	ticker := time.NewTicker(k.config.Tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			k.Tick()
		case <-ctx.Done():
			return
		}
	}
}

func (k *Kernel) halt() {
	k.haltOnce.Do(func() { close(k.halted) })
}

func (k *Kernel) isHalted() bool {
	select {
	case <-k.halted:
		return true
	default:
		return false
	}
}

// panicf stops the kernel on a broken invariant
func (k *Kernel) panicf(format string, args ...interface{}) {
	halt := proc.Halted(format, args...)
	k.logger.Error("kernel panic", "reason", halt.Reason)
	panic(halt)
}

// New creates a kernel
func New(options ...Option) (*Kernel, error) {
	ret := &Kernel{
		config:   DefaultConfig(),
		nextPid:  proc.InitPid,
		tickChan: &channelKey{name: "ticks"},
		halted:   make(chan struct{}),
		ctx:      context.Background(),
	}
	ret.hostSeq.Store(noHolder)
	for _, option := range options {
		option(ret)
	}
	if err := ret.config.Validate(); err != nil {
		return nil, err
	}
	if ret.logger == nil {
		ret.logger = ctxlog.FromContext(ret.ctx)
	}
	if ret.stacks == nil {
		ret.stacks = memory.NewStacks(0)
	}
	if ret.spaces == nil {
		ret.spaces = memory.NewAddressSpaces(0)
	}
	if ret.files == nil {
		ret.files = memory.NewFiles()
	}
	if ret.ledger == nil {
		ret.ledger = store.NewMemoryStore[int, proc.Accounting](func(a *proc.Accounting) int { return a.Pid })
	}
	if ret.publisher != nil && ret.eventContext == nil {
		ret.eventContext = &event.Context{Source: "kernel"}
	}
	ret.ptable = newSpinlock(ret, "ptable")
	ret.tickLock = newSpinlock(ret, "time")
	ret.procs = make([]*record, ret.config.NProc)
	for i := range ret.procs {
		ret.procs[i] = &record{slot: i, level: proc.LevelNone}
	}
	ret.cpus = make([]*cpu, ret.config.CPUs)
	for i := range ret.cpus {
		ret.cpus[i] = newCPU(i, ret.config.NProc)
	}
	ret.strategy = newStrategy(ret)
	return ret, nil
}
