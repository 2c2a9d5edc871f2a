// Package kernel implements the process table and its scheduler: per CPU scheduling loops, the
// process lifecycle (fork, exit, wait, kill, setpriority, yield), sleep/wakeup and the timer tick.
//
// Every process record runs its program on its own goroutine. A process only executes while the
// scheduler of some CPU has handed control to it; handing control back (yield, sleep, exit)
// transfers ownership of the held table lock to that scheduler, the same way a context switch
// does in a uniprocessor-per-CPU kernel.
package kernel
