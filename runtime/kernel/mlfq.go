package kernel

import (
	"github.com/viant/kproc/model/proc"
	"github.com/viant/kproc/runtime/queue"
)

// feedback implements the multi level feedback policy. A record is linked in queues iff it is
// runnable; dispatch unlinks it and reconcile links it back when it returns runnable.
type feedback struct {
	k        *Kernel
	queues   *queue.Set
	quanta   [proc.NQueue]int
	aging    int
	promoted []*record
}

func newFeedback(k *Kernel) *feedback {
	return &feedback{
		k:        k,
		queues:   queue.New(len(k.procs)),
		quanta:   k.config.Quanta,
		aging:    k.config.AgingThreshold,
		promoted: make([]*record, 0, len(k.procs)),
	}
}

// pick takes the head of the first non empty level. A head that is no longer runnable is
// dropped and the next level is tried; retry asks for another pass when that left nothing.
func (f *feedback) pick(c *cpu) (*record, bool) {
	f.admit()
	f.age(c)
	dropped := false
	for level := 0; level < proc.NQueue; level++ {
		slot := f.queues.Front(level)
		if slot == -1 {
			continue
		}
		r := f.k.procs[slot]
		f.queues.Remove(slot)
		if r.state != proc.Runnable {
			f.k.logger.Debug("dropping stale queue entry", "pid", r.pid, "state", r.state.String(), "level", level)
			dropped = true
			continue
		}
		return r, false
	}
	return nil, dropped
}

// admit links runnable records that were never assigned a level
func (f *feedback) admit() {
	for _, r := range f.k.procs {
		if r.state == proc.Runnable && !f.queues.Contains(r.slot) {
			f.requeue(r)
		}
	}
}

// age promotes records that have waited at least the aging threshold since their last dispatch
func (f *feedback) age(c *cpu) {
	now := f.k.Ticks()
	for level := 1; level < proc.NQueue; level++ {
		f.promoted = f.promoted[:0]
		for slot := f.queues.Front(level); slot != -1; slot = f.queues.Next(slot) {
			r := f.k.procs[slot]
			if r.state == proc.Runnable && now-r.lastScheduledTick >= f.aging {
				f.promoted = append(f.promoted, r)
			}
		}
		for _, r := range f.promoted {
			f.queues.Remove(r.slot)
			r.level = level - 1
			r.timeSlice = 0
			r.lastScheduledTick = now
			f.link(r)
			f.k.emit(proc.TransitionPromoted, r, c)
			f.k.logger.Debug("promote", "pid", r.pid, "tick", now, "level", r.level)
		}
	}
}

func (f *feedback) requeue(r *record) {
	f.queues.Remove(r.slot)
	if r.level == proc.LevelNone {
		r.level = 0
	}
	if r.pending == proc.PendingDemote {
		if r.level < proc.NQueue-1 {
			r.level++
			f.k.emit(proc.TransitionDemoted, r, nil)
			f.k.logger.Debug("demote", "pid", r.pid, "tick", f.k.Ticks(), "level", r.level)
		}
	}
	r.pending = proc.PendingNone
	r.timeSlice = 0
	r.lastScheduledTick = f.k.Ticks()
	f.link(r)
}

func (f *feedback) link(r *record) {
	if err := f.queues.PushBack(r.level, r.slot); err != nil {
		f.k.panicf("feedback queue: pid %d: %v", r.pid, err)
	}
}

func (f *feedback) reconcile(r *record) {
	if r.state == proc.Runnable {
		f.requeue(r)
	}
}

func (f *feedback) onTick(r *record) bool {
	if r.level == proc.LevelNone {
		return false
	}
	if r.timeSlice >= f.quanta[r.level] {
		r.pending = proc.PendingDemote
		return true
	}
	return false
}

func (f *feedback) reclaim(r *record) {
	f.queues.Remove(r.slot)
	r.level = proc.LevelNone
}
