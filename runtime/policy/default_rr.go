//go:build !fcfs && !pbs && !mlfq

package policy

// Default is the policy selected at build time
const Default = RoundRobin
