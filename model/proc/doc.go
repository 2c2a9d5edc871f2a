// Package proc defines the process table vocabulary shared by the kernel,
// the user programs and the host: states, handles, statistics, events and
// the error values returned by lifecycle calls.
package proc
