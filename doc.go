// Package kproc provides a process table and CPU scheduler modelled after a teaching operating
// system kernel: processes fork, exit, wait, sleep and are killed while one of four policies
// (round robin, first come first served, priority based, multi level feedback) decides which
// runnable process each CPU dispatches next.
//
// Service wires the kernel with user programs, an event stream of scheduler transitions and a
// ledger with accounting of every reaped process:
//
//	srv, err := kproc.New(kproc.WithConfig(config), kproc.WithConsole(os.Stdout))
//	if err != nil {
//		return err
//	}
//	defer srv.Close()
//	err = srv.Runtime().Run(ctx, "schedulertest")
package kproc
