// Package queue implements the feedback level queues: one intrusive doubly linked list per
// level threaded through process table slot indices.
package queue

import (
	"errors"
	"fmt"

	"github.com/viant/kproc/model/proc"
)

const nilSlot = -1

var (
	// ErrDuplicate is returned when a slot is already linked in some level
	ErrDuplicate = errors.New("queue: slot already queued")
	// ErrOverflow is returned when a level can not accept more slots
	ErrOverflow = errors.New("queue: level overflow")
)

// Set represents proc.NQueue FIFO levels over slots [0, capacity).
// A slot belongs to at most one level. Set is not concurrent safe, the caller holds the
// process table lock.
type Set struct {
	head  [proc.NQueue]int
	tail  [proc.NQueue]int
	size  [proc.NQueue]int
	next  []int
	prev  []int
	where []int
}

// New creates an empty queue set for capacity slots
func New(capacity int) *Set {
	ret := &Set{
		next:  make([]int, capacity),
		prev:  make([]int, capacity),
		where: make([]int, capacity),
	}
	for i := 0; i < proc.NQueue; i++ {
		ret.head[i] = nilSlot
		ret.tail[i] = nilSlot
	}
	for i := 0; i < capacity; i++ {
		ret.next[i] = nilSlot
		ret.prev[i] = nilSlot
		ret.where[i] = proc.LevelNone
	}
	return ret
}

// Capacity returns number of addressable slots
func (s *Set) Capacity() int {
	return len(s.where)
}

func (s *Set) check(level, slot int) error {
	if level < 0 || level >= proc.NQueue {
		return fmt.Errorf("queue: invalid level %d", level)
	}
	if slot < 0 || slot >= len(s.where) {
		return fmt.Errorf("queue: invalid slot %d", slot)
	}
	return nil
}

// PushBack appends slot at the tail of level
func (s *Set) PushBack(level, slot int) error {
	if err := s.check(level, slot); err != nil {
		return err
	}
	if s.where[slot] != proc.LevelNone {
		return fmt.Errorf("%w: slot %d at level %d", ErrDuplicate, slot, s.where[slot])
	}
	if s.size[level] >= len(s.where) {
		return fmt.Errorf("%w: level %d", ErrOverflow, level)
	}
	last := s.tail[level]
	s.prev[slot] = last
	s.next[slot] = nilSlot
	if last == nilSlot {
		if s.head[level] != nilSlot {
			panic("invariant of empty level is broken (PushBack)")
		}
		s.head[level] = slot
	} else {
		if s.next[last] != nilSlot {
			panic("invariant of last slot is broken (PushBack)")
		}
		s.next[last] = slot
	}
	s.tail[level] = slot
	s.where[slot] = level
	s.size[level]++
	return nil
}

// Remove unlinks slot from its level, it returns false if slot was not queued
func (s *Set) Remove(slot int) bool {
	if slot < 0 || slot >= len(s.where) {
		return false
	}
	level := s.where[slot]
	if level == proc.LevelNone {
		return false
	}
	prev, next := s.prev[slot], s.next[slot]
	if prev == nilSlot {
		s.head[level] = next
	} else {
		s.next[prev] = next
	}
	if next == nilSlot {
		s.tail[level] = prev
	} else {
		s.prev[next] = prev
	}
	s.prev[slot] = nilSlot
	s.next[slot] = nilSlot
	s.where[slot] = proc.LevelNone
	s.size[level]--
	return true
}

// Front returns the head slot of level or -1
func (s *Set) Front(level int) int {
	if level < 0 || level >= proc.NQueue {
		return nilSlot
	}
	return s.head[level]
}

// Next returns the slot following slot in its level or -1
func (s *Set) Next(slot int) int {
	if slot < 0 || slot >= len(s.where) {
		return nilSlot
	}
	return s.next[slot]
}

// Level returns level of slot or proc.LevelNone
func (s *Set) Level(slot int) int {
	if slot < 0 || slot >= len(s.where) {
		return proc.LevelNone
	}
	return s.where[slot]
}

// Contains returns true if slot is linked in any level
func (s *Set) Contains(slot int) bool {
	return s.Level(slot) != proc.LevelNone
}

// Len returns level size
func (s *Set) Len(level int) int {
	if level < 0 || level >= proc.NQueue {
		return 0
	}
	return s.size[level]
}

// Members returns level slots in queue order
func (s *Set) Members(level int) []int {
	var ret = make([]int, 0, s.Len(level))
	for slot := s.Front(level); slot != nilSlot; slot = s.next[slot] {
		ret = append(ret, slot)
	}
	return ret
}
