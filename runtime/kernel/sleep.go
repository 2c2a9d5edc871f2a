package kernel

import "github.com/viant/kproc/model/proc"

// sleep atomically releases lk and suspends r on channel; lk is reacquired on wakeup.
// Any lock other than the table lock is ordered before it.
func (k *Kernel) sleep(r *record, channel any, lk *spinlock) {
	if r == nil {
		k.panicf("sleep")
	}
	if lk == nil {
		k.panicf("sleep without lk")
	}
	if lk != k.ptable {
		c := k.mycpu(r)
		k.ptable.acquire(c)
		lk.release(c)
	}
	r.channel = channel
	r.state = proc.Sleeping
	k.sched(r)
	r.channel = nil
	if lk != k.ptable {
		c := k.mycpu(r)
		k.ptable.release(c)
		lk.acquire(c)
	}
}

// wakeup1 makes every record sleeping on channel runnable. Table lock must be held.
func (k *Kernel) wakeup1(c *cpu, channel any) {
	for _, r := range k.procs {
		if r.state == proc.Sleeping && r.channel == channel {
			k.makeRunnable(r)
			k.emit(proc.TransitionWoken, r, c)
		}
	}
}

func (k *Kernel) wakeup(c *cpu, channel any) {
	k.ptable.acquire(c)
	k.wakeup1(c, channel)
	k.ptable.release(c)
}

// makeRunnable is the single path from sleeping to runnable used by wakeup and kill
func (k *Kernel) makeRunnable(r *record) {
	r.state = proc.Runnable
	k.strategy.requeue(r)
	k.kickIdle()
}
