package kernel

import (
	"fmt"

	"github.com/viant/kproc/model/proc"
)

const initName = "init"

// userinit sets up the first process
func (k *Kernel) userinit(entry Program) error {
	c := k.hostCPU()
	r, err := k.allocate(c)
	if err != nil {
		return fmt.Errorf("userinit: %w", err)
	}
	if r.space, err = k.spaces.Setup("initcode"); err != nil {
		k.unwind(c, r)
		return fmt.Errorf("userinit: %w", err)
	}
	r.frame = &trapFrame{Entry: entry, Args: []string{initName}}
	r.cwd = k.files.Root()
	k.initProc = r
	k.start(r)

	k.ptable.acquire(c)
	r.name = initName
	r.state = proc.Runnable
	k.strategy.requeue(r)
	k.ptable.release(c)
	k.kickIdle()
	return nil
}

// initProgram opens the console, starts program as its child and reaps children until none is
// left, orphans included. done is closed when the table is empty but init.
func (k *Kernel) initProgram(program Program, argv []string, done chan struct{}) Program {
	return func(p *Proc) {
		if _, err := p.Open("console"); err == nil {
			_, _ = p.Dup(0)
			_, _ = p.Dup(0)
		}
		_, err := p.Fork(func(child *Proc) {
			if err := child.replace(argv[0], program, argv); err != nil {
				child.Printf("init: exec %v failed: %v\n", argv[0], err)
			}
		})
		if err != nil {
			p.Printf("init: fork failed: %v\n", err)
		}
		for {
			if _, err := p.Wait(); err != nil {
				break
			}
		}
		close(done)
		idle := &channelKey{name: "init"}
		for {
			p.Sleep(idle)
		}
	}
}
