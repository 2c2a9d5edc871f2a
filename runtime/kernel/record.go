package kernel

import (
	"sync/atomic"

	"github.com/viant/kproc/model/proc"
	"github.com/viant/kproc/service/resource"
)

// NOFILE is the number of file descriptors of a process
const NOFILE = 16

// trapFrame is the saved user context: the program to run, its arguments and the value the last
// system call returns to it.
type trapFrame struct {
	Entry Program
	Args  []string
	Ret   int
}

func (f *trapFrame) clone() *trapFrame {
	if f == nil {
		return &trapFrame{}
	}
	return &trapFrame{Entry: f.Entry, Args: append([]string(nil), f.Args...), Ret: f.Ret}
}

// record is a process table slot. Scheduling fields are guarded by the table lock.
type record struct {
	slot              int
	gen               uint32
	pid               int
	state             proc.State
	name              string
	priority          int
	level             int
	timesScheduled    int
	creationTick      int
	runTime           int
	endTime           int
	levelTicks        [proc.NQueue]int
	timeSlice         int
	lastScheduledTick int
	pending           proc.PendingAction
	channel           any
	parent            proc.Handle
	killed            atomic.Bool
	preempt           atomic.Bool

	stack *resource.Stack
	space *resource.AddressSpace
	files [NOFILE]*resource.File
	cwd   *resource.Inode
	frame *trapFrame

	resume chan struct{}
	cpu    *cpu
}

func (r *record) handle() proc.Handle {
	return proc.Handle{Slot: r.slot, Gen: r.gen}
}

func (r *record) live() bool {
	return r.state != proc.Unused
}

// resetAccounting initialises a freshly allocated record. Table lock must be held.
func (r *record) resetAccounting(tick, priority int) {
	r.priority = priority
	r.level = proc.LevelNone
	r.timesScheduled = 0
	r.creationTick = tick
	r.runTime = 0
	r.endTime = 0
	r.levelTicks = [proc.NQueue]int{}
	r.timeSlice = 0
	r.lastScheduledTick = tick
	r.pending = proc.PendingNone
	r.channel = nil
	r.preempt.Store(false)
}

func (r *record) accounting() *proc.Accounting {
	return &proc.Accounting{
		Pid:          r.pid,
		Name:         r.name,
		CreationTick: r.creationTick,
		EndTick:      r.endTime,
		RunTime:      r.runTime,
		WaitTime:     (r.endTime - r.creationTick) - r.runTime,
		NRun:         r.timesScheduled,
		Ticks:        r.levelTicks,
	}
}

// resolve returns the live record h refers to, or nil. Table lock must be held.
func (k *Kernel) resolve(h proc.Handle) *record {
	if h.IsZero() || h.Slot < 0 || h.Slot >= len(k.procs) {
		return nil
	}
	r := k.procs[h.Slot]
	if r.gen != h.Gen || !r.live() {
		return nil
	}
	return r
}

// lookup returns the live record with pid. Table lock must be held.
func (k *Kernel) lookup(pid int) *record {
	if pid <= 0 {
		return nil
	}
	for _, r := range k.procs {
		if r.pid == pid && r.live() {
			return r
		}
	}
	return nil
}
