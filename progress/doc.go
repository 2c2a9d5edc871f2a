// Package progress aggregates counters of kernel runs: processes forked, exited and reaped and
// the scheduling decisions taken on the way. Counters are fed from the kernel event stream so
// that the scheduler itself never waits on them.
package progress
