package userland

import (
	"fmt"
	"io"
	"strings"

	"github.com/viant/kproc/model/proc"
	"github.com/viant/kproc/runtime/kernel"
	"github.com/viant/kproc/runtime/policy"
)

// Ps prints the process table
func Ps(p *kernel.Proc) {
	if len(p.Args()) > 1 {
		p.Printf("ps: Invalid arguments\n")
		return
	}
	builder := &strings.Builder{}
	WriteStats(builder, p.Stats(), p.Policy() == policy.MLFQ.String())
	p.Printf("%s", builder.String())
}

// WriteStats renders stats the way ps prints them, feedback adds the queue level columns
func WriteStats(w io.Writer, stats []proc.Stat, feedback bool) {
	header := []string{"pid", "prty", "state   ", "rtime", "wtime", "nrun"}
	if feedback {
		header = append(header, "currq")
		for level := 0; level < proc.NQueue; level++ {
			header = append(header, fmt.Sprintf("q%d", level))
		}
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, stat := range stats {
		if stat.Pid <= 0 || stat.State == proc.Unused {
			continue
		}
		fmt.Fprintf(w, "%d\t%d\t%-8s\t%d\t%d\t%d", stat.Pid, stat.Priority, stat.State.String(), stat.RunTime, stat.WaitTime, stat.NRun)
		if feedback {
			fmt.Fprintf(w, "\t%d", stat.Level)
			for _, ticks := range stat.Ticks {
				fmt.Fprintf(w, "\t%d", ticks)
			}
		}
		fmt.Fprintln(w)
	}
}
