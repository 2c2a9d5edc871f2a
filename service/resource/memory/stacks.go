package memory

import (
	"fmt"
	"sync"

	"github.com/viant/kproc/model/proc"
	"github.com/viant/kproc/service/resource"
)

// DefaultStackSize is the size reported for allocated kernel stacks
const DefaultStackSize = 4096

// Stacks is an in-memory kernel stack allocator with an optional limit
type Stacks struct {
	mu    sync.Mutex
	limit int
	seq   int
	inUse map[int]bool
}

// Alloc allocates a kernel stack
func (s *Stacks) Alloc() (*resource.Stack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.limit > 0 && len(s.inUse) >= s.limit {
		return nil, fmt.Errorf("kernel stack: %w", proc.ErrNoMemory)
	}
	s.seq++
	s.inUse[s.seq] = true
	return &resource.Stack{ID: s.seq, Size: DefaultStackSize}, nil
}

// Free releases a kernel stack
func (s *Stacks) Free(stack *resource.Stack) {
	if stack == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inUse[stack.ID] {
		panic(fmt.Sprintf("kfree: stack %d not allocated", stack.ID))
	}
	delete(s.inUse, stack.ID)
}

// InUse returns number of allocated stacks
func (s *Stacks) InUse() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inUse)
}

// NewStacks creates stack allocator, limit 0 means unlimited
func NewStacks(limit int) *Stacks {
	return &Stacks{limit: limit, inUse: make(map[int]bool)}
}

var _ resource.Stacks = (*Stacks)(nil)
