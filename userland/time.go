package userland

import "github.com/viant/kproc/runtime/kernel"

// idleTicks is how long the time child sleeps when no program is given
const idleTicks = 10

// Time runs a program in a child and reports its wait and run ticks: time [program args...]
func Time(p *kernel.Proc) {
	_, err := p.Fork(func(child *kernel.Proc) {
		args := child.Args()
		if len(args) == 1 {
			_ = child.SleepTicks(idleTicks)
			return
		}
		if err := child.Exec(args[1], args[1:]...); err != nil {
			child.Printf("exec(): failed\n")
		}
	})
	if err != nil {
		p.Printf("fork(): failed\n")
		return
	}
	_, wait, run, err := p.WaitX()
	if err != nil {
		p.Printf("waitx(): %v\n", err)
		return
	}
	p.Printf("\nwaiting:%d\nrunning:%d\n", wait, run)
}
