package kernel

import (
	"context"
	"fmt"

	"github.com/viant/kproc/model/proc"
)

// fork creates a child of parent running entry with a copy of parent's address space, open
// files and saved context. The child sees 0 as the fork return value.
func (k *Kernel) fork(parent *record, entry Program) (int, error) {
	c := k.mycpu(parent)
	child, err := k.allocate(c)
	if err != nil {
		return -1, err
	}
	space, err := k.spaces.Copy(parent.space)
	if err != nil {
		k.unwind(c, child)
		return -1, fmt.Errorf("fork: %w", err)
	}
	child.space = space
	child.frame = parent.frame.clone()
	child.frame.Ret = 0
	if entry != nil {
		child.frame.Entry = entry
	}
	for fd, file := range parent.files {
		if file != nil {
			child.files[fd] = k.files.Dup(file)
		}
	}
	child.cwd = k.files.Idup(parent.cwd)
	child.name = parent.name
	pid := child.pid
	k.start(child)

	k.ptable.acquire(c)
	child.parent = parent.handle()
	child.state = proc.Runnable
	k.strategy.requeue(child)
	k.emit(proc.TransitionForked, child, c)
	k.ptable.release(c)
	k.kickIdle()
	parent.frame.Ret = pid
	return pid, nil
}

// exit terminates r; the record stays a zombie until its parent waits for it. It never returns.
func (k *Kernel) exit(r *record) {
	if r == k.initProc {
		k.panicf("init exiting")
	}
	for fd, file := range r.files {
		if file != nil {
			k.files.Close(file)
			r.files[fd] = nil
		}
	}
	if r.cwd != nil {
		k.files.Iput(r.cwd)
		r.cwd = nil
	}
	c := k.mycpu(r)
	k.ptable.acquire(c)
	r.endTime = k.Ticks()
	if parent := k.resolve(r.parent); parent != nil {
		k.wakeup1(c, parent.handle())
	}
	me := r.handle()
	initHandle := k.initProc.handle()
	for _, child := range k.procs {
		if child.parent != me {
			continue
		}
		child.parent = initHandle
		if child.state == proc.Zombie {
			k.wakeup1(c, initHandle)
		}
	}
	r.state = proc.Zombie
	k.emit(proc.TransitionExited, r, c)
	k.logger.Debug("exit", "pid", r.pid, "tick", r.endTime, "rtime", r.runTime)
	k.sched(r)
	k.panicf("zombie exit")
}

// wait reaps a zombie child of r, sleeping until one exits.
func (k *Kernel) wait(ctx context.Context, r *record) (*proc.Accounting, error) {
	k.ptable.acquire(k.mycpu(r))
	me := r.handle()
	for {
		haveKids := false
		for _, child := range k.procs {
			if child.parent != me {
				continue
			}
			haveKids = true
			if child.state != proc.Zombie {
				continue
			}
			c := k.mycpu(r)
			ret := k.reap(c, child)
			k.ptable.release(c)
			if err := k.ledger.Save(ctx, ret); err != nil {
				k.logger.Warn("failed to record accounting", "pid", ret.Pid, "error", err)
			}
			return ret, nil
		}
		if !haveKids || r.killed.Load() {
			k.ptable.release(k.mycpu(r))
			return nil, proc.ErrNoChildren
		}
		k.sleep(r, me, k.ptable)
	}
}

// kill marks pid killed; a sleeping target is made runnable so it can notice.
func (k *Kernel) kill(c *cpu, pid int) error {
	k.ptable.acquire(c)
	defer k.ptable.release(c)
	r := k.lookup(pid)
	if r == nil {
		return fmt.Errorf("kill %d: %w", pid, proc.ErrNoSuchProcess)
	}
	r.killed.Store(true)
	if r.state == proc.Sleeping {
		k.makeRunnable(r)
	}
	k.emit(proc.TransitionKilled, r, c)
	return nil
}

// setPriority swaps pid priority, returning the previous one
func (k *Kernel) setPriority(c *cpu, pid, priority int) (int, error) {
	if !proc.ValidPriority(priority) {
		return -1, fmt.Errorf("setpriority %d: %w: %d", pid, proc.ErrInvalidPriority, priority)
	}
	k.ptable.acquire(c)
	defer k.ptable.release(c)
	r := k.lookup(pid)
	if r == nil {
		return -1, fmt.Errorf("setpriority %d: %w", pid, proc.ErrNoSuchProcess)
	}
	old := r.priority
	r.priority = priority
	k.emit(proc.TransitionPriority, r, c)
	return old, nil
}

// yield gives up the CPU for one scheduling round
func (k *Kernel) yield(r *record) {
	k.ptable.acquire(k.mycpu(r))
	r.state = proc.Runnable
	k.sched(r)
	k.ptable.release(k.mycpu(r))
}

// exec replaces r's image with program. The current address space is released once the new one
// is set up.
func (k *Kernel) exec(r *record, name string, program Program, argv []string) error {
	space, err := k.spaces.Setup(name)
	if err != nil {
		return fmt.Errorf("exec %v: %w", name, err)
	}
	old := r.space
	r.space = space
	k.spaces.Free(old)
	if len(argv) == 0 {
		argv = []string{name}
	}
	r.frame = &trapFrame{Entry: program, Args: append([]string(nil), argv...)}
	c := k.mycpu(r)
	k.ptable.acquire(c)
	r.name = name
	k.ptable.release(c)
	return nil
}
