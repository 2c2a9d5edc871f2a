package kernel

import (
	"github.com/viant/kproc/model/proc"
	"github.com/viant/kproc/service/event"
)

// emit publishes a transition of r. It runs under the table lock and never blocks: the
// publisher queue drops events it has no room for.
func (k *Kernel) emit(transition proc.Transition, r *record, c *cpu) {
	if k.publisher == nil {
		return
	}
	cpuID := -1
	if c != nil && !c.host {
		cpuID = int(c.id)
	}
	data := proc.Event{
		Transition: transition,
		Tick:       k.Ticks(),
		CPU:        cpuID,
		Pid:        r.pid,
		Name:       r.name,
		Level:      r.level,
		Priority:   r.priority,
	}
	if err := k.publisher.Publish(k.ctx, event.NewEvent(k.eventContext, data)); err != nil {
		k.logger.Debug("event dropped", "transition", string(transition), "pid", r.pid, "error", err)
	}
}
