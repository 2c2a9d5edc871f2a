package kernel

import (
	"fmt"

	"github.com/viant/kproc/model/proc"
)

// allocate claims an unused slot and sets up its kernel stack. The slot is marked embryo and its
// accounting reset under the table lock; the rest of the setup happens outside of it.
func (k *Kernel) allocate(c *cpu) (*record, error) {
	k.ptable.acquire(c)
	var r *record
	for _, candidate := range k.procs {
		if candidate.state == proc.Unused {
			r = candidate
			break
		}
	}
	if r == nil {
		k.ptable.release(c)
		return nil, proc.ErrTableFull
	}
	r.state = proc.Embryo
	r.pid = k.nextPid
	k.nextPid++
	r.gen++
	r.parent = proc.Handle{}
	r.resetAccounting(k.Ticks(), k.config.DefaultPriority)
	k.ptable.release(c)

	stack, err := k.stacks.Alloc()
	if err != nil {
		k.unwind(c, r)
		return nil, fmt.Errorf("allocproc: %w", err)
	}
	r.stack = stack
	r.resume = make(chan struct{})
	return r, nil
}

// unwind returns a partially set up embryo to the free pool
func (k *Kernel) unwind(c *cpu, r *record) {
	if r.space != nil {
		k.spaces.Free(r.space)
		r.space = nil
	}
	if r.stack != nil {
		k.stacks.Free(r.stack)
		r.stack = nil
	}
	r.frame = nil
	r.resume = nil
	k.ptable.acquire(c)
	r.pid = 0
	r.name = ""
	r.killed.Store(false)
	r.state = proc.Unused
	k.ptable.release(c)
}

// start launches the goroutine backing r; it waits for its first dispatch
func (k *Kernel) start(r *record) {
	p := &Proc{k: k, r: r, ctx: k.ctx}
	resume := r.resume
	k.procWG.Add(1)
	go func() {
		defer k.procWG.Done()
		select {
		case <-resume:
		case <-k.halted:
			return
		}
		k.ptable.release(k.mycpu(r))
		k.run(p)
	}()
}

func (k *Kernel) run(p *Proc) {
	for {
		entry := p.r.frame.Entry
		if entry == nil || !p.invoke(entry) {
			break
		}
	}
	k.exit(p.r)
}

// reap releases a zombie's resources and returns its slot to the free pool. Table lock must be held.
func (k *Kernel) reap(c *cpu, r *record) *proc.Accounting {
	if r.state != proc.Zombie {
		k.panicf("reap pid %d in state %v", r.pid, r.state)
	}
	ret := r.accounting()
	k.emit(proc.TransitionReaped, r, c)
	k.stacks.Free(r.stack)
	r.stack = nil
	k.spaces.Free(r.space)
	r.space = nil
	k.strategy.reclaim(r)
	r.pid = 0
	r.parent = proc.Handle{}
	r.name = ""
	r.killed.Store(false)
	r.channel = nil
	r.frame = nil
	r.resume = nil
	r.cpu = nil
	r.state = proc.Unused
	return ret
}
