package kernel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

const noHolder = -1

// spinlock is a mutual exclusion lock that records the CPU holding it. Ownership belongs to a
// CPU rather than a goroutine: a process handing control to its scheduler hands the lock too.
type spinlock struct {
	name   string
	k      *Kernel
	mu     sync.Mutex
	holder atomic.Int32
}

func newSpinlock(k *Kernel, name string) *spinlock {
	ret := &spinlock{name: name, k: k}
	ret.holder.Store(noHolder)
	return ret
}

// acquire takes the lock for a process goroutine, which ends if the kernel halts meanwhile
func (l *spinlock) acquire(c *cpu) {
	if !l.lock(c) {
		runtime.Goexit()
	}
}

// lock takes the lock, it returns false without holding it once the kernel halted.
// Scheduler loops use it directly and return instead of ending their goroutine.
func (l *spinlock) lock(c *cpu) bool {
	c.pushcli()
	if l.holding(c) {
		l.k.panicf("acquire %v: already held by cpu %d", l.name, c.id)
	}
	if c.host {
		l.mu.Lock()
	} else {
		for !l.mu.TryLock() {
			if l.k.isHalted() {
				c.popcli()
				return false
			}
			runtime.Gosched()
		}
	}
	l.holder.Store(c.id)
	return true
}

func (l *spinlock) release(c *cpu) {
	if !l.holding(c) {
		l.k.panicf("release %v: not held by cpu %d", l.name, c.id)
	}
	l.holder.Store(noHolder)
	l.mu.Unlock()
	c.popcli()
}

func (l *spinlock) holding(c *cpu) bool {
	return l.holder.Load() == c.id
}

// reclaim releases the lock left behind by a CPU whose goroutines are gone
func (l *spinlock) reclaim() {
	if l.holder.Load() >= 0 {
		l.holder.Store(noHolder)
		l.mu.Unlock()
	}
}
