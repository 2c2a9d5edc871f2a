package progress

import (
	"context"
	"sync"
	"time"

	"github.com/viant/kproc/model/proc"
)

// Delta represents an incremental counter change. The fields are signed, Live goes down when a
// process is reaped.
type Delta struct {
	Forked     int
	Exited     int
	Reaped     int
	Killed     int
	Dispatched int
	Promoted   int
	Demoted    int
	Woken      int
	Priority   int
	Live       int
}

// DeltaOf returns the counter change a kernel transition stands for
func DeltaOf(transition proc.Transition) Delta {
	switch transition {
	case proc.TransitionForked:
		return Delta{Forked: 1, Live: 1}
	case proc.TransitionExited:
		return Delta{Exited: 1}
	case proc.TransitionReaped:
		return Delta{Reaped: 1, Live: -1}
	case proc.TransitionKilled:
		return Delta{Killed: 1}
	case proc.TransitionDispatched:
		return Delta{Dispatched: 1}
	case proc.TransitionPromoted:
		return Delta{Promoted: 1}
	case proc.TransitionDemoted:
		return Delta{Demoted: 1}
	case proc.TransitionWoken:
		return Delta{Woken: 1}
	case proc.TransitionPriority:
		return Delta{Priority: 1}
	}
	return Delta{}
}

// Progress keeps aggregated kernel counters. It is safe for concurrent use.
type Progress struct {
	BootID    string
	Policy    string
	StartedAt time.Time

	Forked     int
	Exited     int
	Reaped     int
	Killed     int
	Dispatched int
	Promoted   int
	Demoted    int
	Woken      int
	Priority   int
	// Live counts forked processes not reaped yet
	Live int

	sync.Mutex
	onChange func(Progress)
}

// New creates a tracker
func New(bootID, policy string, onChange func(Progress)) *Progress {
	return &Progress{
		BootID:    bootID,
		Policy:    policy,
		StartedAt: time.Now(),
		onChange:  onChange,
	}
}

// Update applies the supplied delta to the tracker. If an onChange callback has been
// registered it is invoked with a copy of the updated tracker outside the critical section.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}
	p.Lock()
	p.Forked += d.Forked
	p.Exited += d.Exited
	p.Reaped += d.Reaped
	p.Killed += d.Killed
	p.Dispatched += d.Dispatched
	p.Promoted += d.Promoted
	p.Demoted += d.Demoted
	p.Woken += d.Woken
	p.Priority += d.Priority
	p.Live += d.Live
	snapshot := p.copy()
	cb := p.onChange
	p.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

func (p *Progress) copy() Progress {
	return Progress{
		BootID:     p.BootID,
		Policy:     p.Policy,
		StartedAt:  p.StartedAt,
		Forked:     p.Forked,
		Exited:     p.Exited,
		Reaped:     p.Reaped,
		Killed:     p.Killed,
		Dispatched: p.Dispatched,
		Promoted:   p.Promoted,
		Demoted:    p.Demoted,
		Woken:      p.Woken,
		Priority:   p.Priority,
		Live:       p.Live,
	}
}

// Snapshot returns a copy of the tracker suitable for read-only inspection.
func (p *Progress) Snapshot() Progress {
	if p == nil {
		return Progress{}
	}
	p.Lock()
	defer p.Unlock()
	return p.copy()
}

// OnChange registers a callback that is invoked after every Update. Passing nil disables it.
func (p *Progress) OnChange(cb func(Progress)) {
	if p == nil {
		return
	}
	p.Lock()
	p.onChange = cb
	p.Unlock()
}

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithTracker embeds tracker in a derived context
func WithTracker(ctx context.Context, tracker *Progress) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, trackerKey, tracker)
}

// FromContext extracts the tracker from ctx. The second return value is false when the context
// carries no tracker.
func FromContext(ctx context.Context) (*Progress, bool) {
	if ctx == nil {
		return nil, false
	}
	tr, ok := ctx.Value(trackerKey).(*Progress)
	return tr, ok
}

// UpdateCtx looks up the tracker in ctx (if any) and applies the supplied delta.
func UpdateCtx(ctx context.Context, d Delta) {
	if tr, ok := FromContext(ctx); ok {
		tr.Update(d)
	}
}
