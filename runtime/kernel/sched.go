package kernel

import (
	"context"
	"runtime"

	"github.com/viant/kproc/model/proc"
)

// scheduler is the per CPU loop: pick a runnable record, hand control to it, wait for it to
// hand control back, repeat.
func (k *Kernel) scheduler(ctx context.Context, c *cpu) {
	c.proc = nil
	for {
		if k.isHalted() || ctx.Err() != nil {
			return
		}
		c.sti()
		if !k.ptable.lock(c) {
			return
		}
		r, retry := k.strategy.pick(c)
		if r == nil {
			k.ptable.release(c)
			if retry {
				continue
			}
			if !c.idle(ctx, k.halted, k.config.IdlePoll) {
				return
			}
			continue
		}
		if !k.dispatch(c, r) {
			return
		}
		k.ptable.release(c)
	}
}

// dispatch runs r on c until r hands control back. Table lock is held on entry and on return.
// It returns false when the kernel halted first; lock ownership is then left to Run.
func (k *Kernel) dispatch(c *cpu, r *record) bool {
	if r.state != proc.Runnable {
		k.panicf("dispatch pid %d in state %v", r.pid, r.state)
	}
	c.proc = r
	r.cpu = c
	r.state = proc.Running
	r.timesScheduled++
	r.lastScheduledTick = k.Ticks()
	r.preempt.Store(false)
	k.emit(proc.TransitionDispatched, r, c)
	k.logger.Debug("dispatch", "cpu", c.id, "pid", r.pid, "tick", r.lastScheduledTick, "level", r.level)

	select {
	case r.resume <- struct{}{}:
	case <-k.halted:
		return false
	}
	select {
	case <-c.yield:
	case <-k.halted:
		return false
	}
	c.proc = nil
	k.strategy.reconcile(r)
	return true
}

// sched hands control from the running record back to its CPU scheduler. The caller holds the
// table lock only and has already changed r.state. It returns once r is dispatched again,
// possibly on another CPU, still holding the table lock.
func (k *Kernel) sched(r *record) {
	c := k.mycpu(r)
	if !k.ptable.holding(c) {
		k.panicf("sched ptable.lock")
	}
	if c.ncli != 1 {
		k.panicf("sched locks: ncli=%d", c.ncli)
	}
	if r.state == proc.Running {
		k.panicf("sched running")
	}
	if c.intr {
		k.panicf("sched interruptible")
	}
	intena := c.intena
	k.swtch(c, r)
	k.mycpu(r).intena = intena
}

// swtch hands control to c's scheduler and waits to be resumed. A zombie never resumes: its
// goroutine ends once the scheduler took over, the record belongs to the parent from then on.
func (k *Kernel) swtch(c *cpu, r *record) {
	zombie := r.state == proc.Zombie
	select {
	case c.yield <- struct{}{}:
	case <-k.halted:
		runtime.Goexit()
	}
	if zombie {
		runtime.Goexit()
	}
	select {
	case <-r.resume:
	case <-k.halted:
		runtime.Goexit()
	}
}
