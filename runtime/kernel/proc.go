package kernel

import (
	"context"
	"fmt"
	"runtime"

	"github.com/viant/kproc/model/proc"
	"github.com/viant/kproc/service/resource"
	"github.com/viant/kproc/tracing"
)

// Program is the user code of a process. Returning from it exits the process.
// Deferred calls in a program must not make system calls: they run after exit.
type Program func(p *Proc)

// Loader resolves programs by name for exec
type Loader interface {
	Load(name string) (Program, error)
}

// execTrap unwinds a program whose image was replaced by exec
type execTrap struct{}

// Proc is the system call interface of one process. It must only be used from the goroutine
// running that process's program.
type Proc struct {
	k   *Kernel
	r   *record
	ctx context.Context
}

func (p *Proc) invoke(entry Program) (replaced bool) {
	defer func() {
		if recovered := recover(); recovered != nil {
			if _, ok := recovered.(execTrap); ok {
				replaced = true
				return
			}
			panic(recovered)
		}
	}()
	entry(p)
	return false
}

// Pid returns process id
func (p *Proc) Pid() int {
	return p.r.pid
}

// Name returns process name
func (p *Proc) Name() string {
	return p.r.name
}

// Args returns arguments the program was started with
func (p *Proc) Args() []string {
	return p.r.frame.Args
}

// Ret returns the value returned by the last fork as seen by this process, 0 in a fork child
func (p *Proc) Ret() int {
	return p.r.frame.Ret
}

// Policy returns the kernel scheduling policy name
func (p *Proc) Policy() string {
	return p.k.config.Policy.String()
}

// Killed returns true if the process was killed
func (p *Proc) Killed() bool {
	return p.r.killed.Load()
}

// Uptime returns ticks since boot
func (p *Proc) Uptime() int {
	return p.k.Ticks()
}

// Fork creates a child process running entry, or the current program when entry is nil
func (p *Proc) Fork(entry Program) (pid int, err error) {
	_, span := tracing.StartSyscall(p.ctx, "fork", p.r.pid)
	defer func() { tracing.EndSpan(span.WithInt("proc.child", pid), err) }()
	return p.k.fork(p.r, entry)
}

// Exit terminates the process, it does not return
func (p *Proc) Exit() {
	p.k.exit(p.r)
}

// Wait reaps a terminated child and returns its pid
func (p *Proc) Wait() (int, error) {
	accounting, err := p.wait("wait")
	if err != nil {
		return -1, err
	}
	return accounting.Pid, nil
}

// WaitX reaps a terminated child and returns its pid, wait time and run time in ticks
func (p *Proc) WaitX() (pid, waitTime, runTime int, err error) {
	accounting, err := p.wait("waitx")
	if err != nil {
		return -1, 0, 0, err
	}
	return accounting.Pid, accounting.WaitTime, accounting.RunTime, nil
}

func (p *Proc) wait(name string) (ret *proc.Accounting, err error) {
	ctx, span := tracing.StartSyscall(p.ctx, name, p.r.pid)
	defer func() {
		if ret != nil {
			span.WithInt("proc.child", ret.Pid)
		}
		tracing.EndSpan(span, err)
	}()
	return p.k.wait(ctx, p.r)
}

// Kill marks pid as killed
func (p *Proc) Kill(pid int) (err error) {
	_, span := tracing.StartSyscall(p.ctx, "kill", p.r.pid)
	defer func() { tracing.EndSpan(span.WithInt("proc.target", pid), err) }()
	return p.k.kill(p.k.mycpu(p.r), pid)
}

// SetPriority sets pid priority and returns the previous one. The caller yields when the
// target's priority was lowered.
func (p *Proc) SetPriority(pid, priority int) (old int, err error) {
	_, span := tracing.StartSyscall(p.ctx, "setpriority", p.r.pid)
	defer func() { tracing.EndSpan(span.WithInt("proc.target", pid).WithInt("proc.priority", priority), err) }()
	if old, err = p.k.setPriority(p.k.mycpu(p.r), pid, priority); err != nil {
		return old, err
	}
	if old > priority {
		p.k.yield(p.r)
	}
	return old, nil
}

// Yield gives up the CPU
func (p *Proc) Yield() {
	p.k.yield(p.r)
}

// Sleep suspends the process on channel until Wakeup(channel). A wakeup issued before the
// process sleeps is lost.
func (p *Proc) Sleep(channel any) {
	c := p.k.mycpu(p.r)
	p.k.ptable.acquire(c)
	p.k.sleep(p.r, channel, p.k.ptable)
	p.k.ptable.release(p.k.mycpu(p.r))
}

// Wakeup wakes every process sleeping on channel
func (p *Proc) Wakeup(channel any) {
	p.k.wakeup(p.k.mycpu(p.r), channel)
}

// SleepTicks sleeps for n ticks, it returns proc.ErrKilled if killed meanwhile
func (p *Proc) SleepTicks(n int) error {
	return p.k.sleepTicks(p.r, n)
}

// Trap is the return-to-user point: a killed process exits, a preempted one yields.
// Compute bound programs call it in their loops.
func (p *Proc) Trap() {
	if p.k.isHalted() {
		runtime.Goexit()
	}
	if p.r.killed.Load() {
		p.Exit()
	}
	if p.r.preempt.Swap(false) {
		p.Yield()
	}
	if p.r.killed.Load() {
		p.Exit()
	}
}

// Exec replaces the process image with a registered program, it only returns on error
func (p *Proc) Exec(name string, argv ...string) error {
	if p.k.loader == nil {
		return fmt.Errorf("exec %v: %w", name, proc.ErrNoProgram)
	}
	program, err := p.k.loader.Load(name)
	if err != nil {
		return fmt.Errorf("exec %v: %w", name, err)
	}
	return p.replace(name, program, argv)
}

func (p *Proc) replace(name string, program Program, argv []string) error {
	if err := p.k.exec(p.r, name, program, argv); err != nil {
		return err
	}
	panic(execTrap{})
}

// Open opens path on the lowest free descriptor
func (p *Proc) Open(path string) (int, error) {
	file, err := p.k.files.Open(path)
	if err != nil {
		return -1, err
	}
	for fd, candidate := range p.r.files {
		if candidate == nil {
			p.r.files[fd] = file
			return fd, nil
		}
	}
	p.k.files.Close(file)
	return -1, fmt.Errorf("open %v: too many open files", path)
}

// Dup duplicates fd on the lowest free descriptor
func (p *Proc) Dup(fd int) (int, error) {
	file, err := p.file(fd)
	if err != nil {
		return -1, err
	}
	for newFd, candidate := range p.r.files {
		if candidate == nil {
			p.r.files[newFd] = p.k.files.Dup(file)
			return newFd, nil
		}
	}
	return -1, fmt.Errorf("dup %d: too many open files", fd)
}

// Close closes fd
func (p *Proc) Close(fd int) error {
	file, err := p.file(fd)
	if err != nil {
		return err
	}
	p.r.files[fd] = nil
	p.k.files.Close(file)
	return nil
}

func (p *Proc) file(fd int) (*resource.File, error) {
	if fd < 0 || fd >= NOFILE || p.r.files[fd] == nil {
		return nil, fmt.Errorf("bad file descriptor: %d", fd)
	}
	return p.r.files[fd], nil
}

// Printf writes to the console
func (p *Proc) Printf(format string, args ...interface{}) {
	p.k.console.printf(format, args...)
}

// Stats returns a snapshot of the process table
func (p *Proc) Stats() []proc.Stat {
	return p.k.stats(p.k.mycpu(p.r))
}
