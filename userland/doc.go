// Package userland provides the user programs shipped with the kernel: ps, setpriority, time
// and the CPU bound workloads used to compare scheduling policies.
//
// Programs are registered by name in Programs, which the kernel uses to resolve exec calls.
package userland
