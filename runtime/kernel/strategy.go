package kernel

import (
	"github.com/viant/kproc/model/proc"
	"github.com/viant/kproc/runtime/policy"
)

// strategy adapts a policy to the table. All methods run with the table lock held.
type strategy interface {
	// pick selects the next record to dispatch on c; retry asks the CPU to start a new pass
	// without idling
	pick(c *cpu) (r *record, retry bool)
	// requeue places a record that became runnable (fork, wakeup, kill, preemption)
	requeue(r *record)
	// reconcile runs after a dispatched record handed control back
	reconcile(r *record)
	// onTick is called for every running record on a timer tick, true requests preemption
	onTick(r *record) bool
	// reclaim forgets a reaped record
	reclaim(r *record)
}

func newStrategy(k *Kernel) strategy {
	switch k.config.Policy {
	case policy.FCFS:
		return &scanStrategy{k: k, selectFn: func(_ *cpu, candidates []policy.Candidate) (int, bool) {
			return policy.SelectFCFS(candidates), false
		}}
	case policy.Priority:
		return &scanStrategy{k: k, preemptive: true, selectFn: func(_ *cpu, candidates []policy.Candidate) (int, bool) {
			return policy.SelectPriority(candidates), false
		}}
	case policy.MLFQ:
		return newFeedback(k)
	}
	return &scanStrategy{k: k, preemptive: true, selectFn: selectRoundRobin}
}

func selectRoundRobin(c *cpu, candidates []policy.Candidate) (int, bool) {
	slot := policy.SelectRoundRobin(candidates, c.cursor)
	if slot == -1 {
		retry := c.cursor > 0
		c.cursor = 0
		return -1, retry
	}
	c.cursor = slot + 1
	return slot, false
}

// scanStrategy selects from a snapshot of runnable records taken in slot order
type scanStrategy struct {
	k          *Kernel
	preemptive bool
	selectFn   func(c *cpu, candidates []policy.Candidate) (int, bool)
}

func (s *scanStrategy) pick(c *cpu) (*record, bool) {
	candidates := c.buffer[:0]
	for _, r := range s.k.procs {
		if r.state != proc.Runnable {
			continue
		}
		candidates = append(candidates, policy.Candidate{
			Slot:           r.slot,
			Priority:       r.priority,
			TimesScheduled: r.timesScheduled,
			CreationTick:   r.creationTick,
		})
	}
	c.buffer = candidates
	slot, retry := s.selectFn(c, candidates)
	if slot == -1 {
		return nil, retry
	}
	return s.k.procs[slot], false
}

func (s *scanStrategy) requeue(*record) {}

func (s *scanStrategy) reconcile(*record) {}

func (s *scanStrategy) onTick(*record) bool {
	return s.preemptive
}

func (s *scanStrategy) reclaim(*record) {}
