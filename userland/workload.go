package userland

import (
	"strconv"

	"github.com/viant/kproc/runtime/kernel"
	"github.com/viant/kproc/runtime/policy"
)

const (
	workers       = 4
	defaultRounds = 20
	roundWork     = 1 << 18
	trapEvery     = 1 << 10
)

// burn keeps the CPU busy for rounds, returning to user mode regularly so that a pending
// preemption or kill is honoured
func burn(p *kernel.Proc, id, rounds int) int {
	for i := 0; i < rounds; i++ {
		for j := 0; j < roundWork; j++ {
			id++
			id--
			if j%trapEvery == 0 {
				p.Trap()
			}
		}
	}
	return id
}

func rounds(p *kernel.Proc) (int, bool) {
	args := p.Args()
	if len(args) < 2 {
		return defaultRounds, true
	}
	ret, err := strconv.Atoi(args[1])
	if err != nil || ret < 0 {
		p.Printf("%v: invalid rounds %q\n", args[0], args[1])
		return 0, false
	}
	return ret, true
}

func priorityBased(p *kernel.Proc) bool {
	return p.Policy() == policy.Priority.String()
}

// SchedulerTest forks CPU bound workers and waits for all of them: schedulertest [rounds]
// Under the priority policy each worker runs at 70 + pid%3.
func SchedulerTest(p *kernel.Proc) {
	n, ok := rounds(p)
	if !ok {
		return
	}
	for i := 0; i < workers; i++ {
		_, err := p.Fork(func(child *kernel.Proc) {
			id := child.Pid()
			if priorityBased(child) {
				if _, err := child.SetPriority(id, 70+id%3); err != nil {
					child.Printf("setpriority() failed: %v\n", err)
				}
			}
			child.Printf("process %d started\n", id)
			id = burn(child, id, n)
			child.Printf("process %d completed\n", id)
		})
		if err != nil {
			p.Printf("fork() failed\n")
			return
		}
	}
	for i := 0; i < workers; i++ {
		if _, err := p.Wait(); err != nil {
			return
		}
	}
}

// LongWait runs one CPU bound process: longwait [rounds]
// Under the priority policy it runs at 100 - pid.
func LongWait(p *kernel.Proc) {
	n, ok := rounds(p)
	if !ok {
		return
	}
	id := p.Pid()
	if priorityBased(p) {
		if _, err := p.SetPriority(id, 100-id); err != nil {
			p.Printf("setpriority() failed: %v\n", err)
		}
	}
	p.Printf("process %d started\n", id)
	id = burn(p, id, n)
	p.Printf("process %d completed\n", id)
}
