package kernel

import (
	"context"
	"time"

	"github.com/viant/kproc/runtime/policy"
)

// cpu represents scheduler state of one CPU. Host callers (timer, tests, ps from outside) get a
// transient cpu with a unique negative id so that lock ownership stays unambiguous.
type cpu struct {
	id     int32
	host   bool
	ncli   int
	intena bool
	intr   bool
	proc   *record
	yield  chan struct{}
	kick   chan struct{}
	cursor int
	buffer []policy.Candidate
}

func newCPU(id int, nproc int) *cpu {
	return &cpu{
		id:     int32(id),
		yield:  make(chan struct{}),
		kick:   make(chan struct{}, 1),
		buffer: make([]policy.Candidate, 0, nproc),
	}
}

func (c *cpu) sti() {
	c.intr = true
}

func (c *cpu) pushcli() {
	enabled := c.intr
	c.intr = false
	if c.ncli == 0 {
		c.intena = enabled
	}
	c.ncli++
}

func (c *cpu) popcli() {
	if c.intr {
		panic("popcli - interruptible")
	}
	c.ncli--
	if c.ncli < 0 {
		panic("popcli")
	}
	if c.ncli == 0 && c.intena {
		c.intr = true
	}
}

// idle waits for a kick, returns false when the CPU should stop
func (c *cpu) idle(ctx context.Context, halted <-chan struct{}, poll time.Duration) bool {
	timer := time.NewTimer(poll)
	defer timer.Stop()
	select {
	case <-c.kick:
	case <-timer.C:
	case <-halted:
		return false
	case <-ctx.Done():
		return false
	}
	return true
}

func (k *Kernel) hostCPU() *cpu {
	return &cpu{id: k.hostSeq.Add(-1), host: true, intr: true}
}

// mycpu returns the CPU r runs on
func (k *Kernel) mycpu(r *record) *cpu {
	c := r.cpu
	if c == nil || c.id < 0 || int(c.id) >= len(k.cpus) || k.cpus[c.id] != c {
		k.panicf("unknown apicid for pid %d", r.pid)
	}
	return c
}

func (k *Kernel) kickIdle() {
	for _, c := range k.cpus {
		select {
		case c.kick <- struct{}{}:
		default:
		}
	}
}
