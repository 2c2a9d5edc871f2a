package proc

import (
	"errors"
	"fmt"
)

var (
	// ErrTableFull is returned when no free process slot is left
	ErrTableFull = errors.New("proc: process table full")

	// ErrNoMemory is returned when a kernel stack can not be allocated
	ErrNoMemory = errors.New("proc: out of memory")

	// ErrAddressSpace is returned when an address space can not be set up or copied
	ErrAddressSpace = errors.New("proc: address space failure")

	// ErrNoChildren is returned by wait when the caller has no children or was killed
	ErrNoChildren = errors.New("proc: no children")

	// ErrNoSuchProcess is returned when a pid does not match a live record
	ErrNoSuchProcess = errors.New("proc: no such process")

	// ErrInvalidPriority is returned when a priority is outside of [0,100]
	ErrInvalidPriority = errors.New("proc: invalid priority")

	// ErrKilled is returned by blocking calls interrupted by kill
	ErrKilled = errors.New("proc: killed")

	// ErrNoProgram is returned by exec when the program is not registered
	ErrNoProgram = errors.New("proc: no such program")
)

// Errno codes
const (
	EPERM  = 1
	ENOENT = 2
	ESRCH  = 3
	EINTR  = 4
	ENOMEM = 12
	EFAULT = 14
	EINVAL = 22
	ECHILD = 10
	EAGAIN = 11
)

// Errno maps an error to the negative code returned across the user program boundary, 0 for nil
func Errno(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrTableFull):
		return -EAGAIN
	case errors.Is(err, ErrNoMemory):
		return -ENOMEM
	case errors.Is(err, ErrAddressSpace):
		return -EFAULT
	case errors.Is(err, ErrNoChildren):
		return -ECHILD
	case errors.Is(err, ErrNoSuchProcess):
		return -ESRCH
	case errors.Is(err, ErrInvalidPriority):
		return -EINVAL
	case errors.Is(err, ErrKilled):
		return -EINTR
	case errors.Is(err, ErrNoProgram):
		return -ENOENT
	}
	return -EPERM
}

// Halt is the panic value used when a kernel invariant is violated
type Halt struct {
	Reason string
}

func (h *Halt) Error() string {
	return "kernel halt: " + h.Reason
}

// Halted wraps reason into Halt
func Halted(format string, args ...interface{}) *Halt {
	return &Halt{Reason: fmt.Sprintf(format, args...)}
}
