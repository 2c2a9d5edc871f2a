package userland

import (
	"strconv"

	"github.com/viant/kproc/model/proc"
	"github.com/viant/kproc/runtime/kernel"
)

// SetPriority changes priority of a process: setpriority <pid> <priority>
func SetPriority(p *kernel.Proc) {
	args := p.Args()
	if len(args) != 3 {
		p.Printf("setpriority: Invalid arguments\n")
		return
	}
	pid, err := strconv.Atoi(args[1])
	if err != nil || pid <= 0 {
		p.Printf("setpriority: Invalid arguments. Specify the pid of the process\n")
		return
	}
	priority, err := strconv.Atoi(args[2])
	if err != nil || !proc.ValidPriority(priority) {
		p.Printf("setpriority: Invalid arguments. Specify the priority of the process\n")
		return
	}
	old, err := p.SetPriority(pid, priority)
	if err != nil {
		p.Printf("setpriority: %v\n", err)
		return
	}
	p.Printf("setpriority: pid %d priority %d -> %d\n", pid, old, priority)
}
