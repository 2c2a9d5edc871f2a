package kernel

import (
	"fmt"
	"io"

	"github.com/viant/kproc/model/proc"
)

func (k *Kernel) stats(c *cpu) []proc.Stat {
	k.ptable.acquire(c)
	defer k.ptable.release(c)
	now := k.Ticks()
	var ret []proc.Stat
	for _, r := range k.procs {
		switch r.state {
		case proc.Unused:
			continue
		case proc.Embryo:
			ret = append(ret, proc.Stat{Pid: r.pid, State: r.state, Level: proc.LevelNone})
			continue
		}
		stat := proc.Stat{
			Pid:      r.pid,
			Name:     r.name,
			Priority: r.priority,
			State:    r.state,
			RunTime:  r.runTime,
			NRun:     r.timesScheduled,
			Level:    r.level,
			Ticks:    r.levelTicks,
		}
		end := now
		if r.state == proc.Zombie {
			end = r.endTime
		}
		stat.WaitTime = end - r.creationTick - r.runTime
		if parent := k.resolve(r.parent); parent != nil {
			stat.PPid = parent.pid
		}
		ret = append(ret, stat)
	}
	return ret
}

// Stats returns a snapshot of the process table
func (k *Kernel) Stats() []proc.Stat {
	return k.stats(k.hostCPU())
}

// Kill marks pid killed on behalf of the host
func (k *Kernel) Kill(pid int) error {
	return k.kill(k.hostCPU(), pid)
}

// SetPriority sets pid priority on behalf of the host and returns the previous one
func (k *Kernel) SetPriority(pid, priority int) (int, error) {
	return k.setPriority(k.hostCPU(), pid, priority)
}

// Dump writes a process listing and, under the feedback policy, the level queues
func (k *Kernel) Dump(w io.Writer) error {
	c := k.hostCPU()
	k.ptable.acquire(c)
	defer k.ptable.release(c)
	for _, r := range k.procs {
		if !r.live() {
			continue
		}
		if r.state == proc.Embryo {
			if _, err := fmt.Fprintf(w, "%d %s\n", r.pid, r.state); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "%d %s %s prio=%d level=%d nrun=%d\n", r.pid, r.state, r.name, r.priority, r.level, r.timesScheduled); err != nil {
			return err
		}
	}
	feedback, ok := k.strategy.(*feedback)
	if !ok {
		return nil
	}
	for level := 0; level < proc.NQueue; level++ {
		if _, err := fmt.Fprintf(w, "q%d:", level); err != nil {
			return err
		}
		for _, slot := range feedback.queues.Members(level) {
			if _, err := fmt.Fprintf(w, " %d", k.procs[slot].pid); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
