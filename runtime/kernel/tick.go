package kernel

import "github.com/viant/kproc/model/proc"

// Tick advances the clock by one tick: sleepers on the clock are woken and every running record
// is charged the tick. Running records whose policy asks for preemption yield at their next trap.
func (k *Kernel) Tick() {
	c := k.hostCPU()
	k.tickLock.acquire(c)
	k.ticks.Add(1)
	k.wakeup(c, k.tickChan)
	k.tickLock.release(c)

	k.ptable.acquire(c)
	for _, r := range k.procs {
		if r.state != proc.Running {
			continue
		}
		r.runTime++
		if r.level >= 0 && r.level < proc.NQueue {
			r.levelTicks[r.level]++
		}
		r.timeSlice++
		if k.strategy.onTick(r) {
			r.preempt.Store(true)
		}
	}
	k.ptable.release(c)
}

// sleepTicks suspends r for n ticks
func (k *Kernel) sleepTicks(r *record, n int) error {
	k.tickLock.acquire(k.mycpu(r))
	start := k.Ticks()
	for k.Ticks()-start < n {
		if r.killed.Load() {
			k.tickLock.release(k.mycpu(r))
			return proc.ErrKilled
		}
		k.sleep(r, k.tickChan, k.tickLock)
	}
	k.tickLock.release(k.mycpu(r))
	return nil
}
