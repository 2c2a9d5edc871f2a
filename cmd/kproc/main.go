package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/viant/kproc"
	"github.com/viant/kproc/internal/cli"
	"github.com/viant/kproc/internal/ctxlog"
	"github.com/viant/kproc/model/proc"
	"github.com/viant/kproc/service/event"
	"github.com/viant/kproc/userland"
)

const version = "0.1.0"

// main is the entrypoint for the kproc command.
func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	if err := run(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run boots a kernel and runs the requested program, console output goes to outW and logs to errW.
func run(outW, errW io.Writer, args []string) error {
	options, shouldExit, err := cli.Parse(args, outW, userland.NewPrograms().Names())
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}
	logger := options.Logger(errW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	config, err := options.Config(ctx)
	if err != nil {
		return &cli.ExitError{Code: 2, Message: err.Error()}
	}

	srvOptions := []kproc.Option{
		kproc.WithConfig(config),
		kproc.WithConsole(outW),
		kproc.WithLogger(logger),
	}
	if options.Events {
		srvOptions = append(srvOptions, kproc.WithEventListener(func(e *event.Event[proc.Event]) {
			logger.Info("kernel event",
				"transition", string(e.Data.Transition),
				"tick", e.Data.Tick,
				"cpu", e.Data.CPU,
				"pid", e.Data.Pid,
				"name", e.Data.Name,
				"level", e.Data.Level,
				"priority", e.Data.Priority)
		}))
	}
	if options.TraceFile != "" {
		srvOptions = append(srvOptions, kproc.WithTracing("kproc", version, options.TraceFile))
	}
	srv, err := kproc.New(srvOptions...)
	if err != nil {
		return err
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}
	runtime := srv.Runtime()
	err = runtime.Run(ctx, options.Program, options.Args...)
	if options.Events {
		summary := srv.Progress()
		logger.Info("kernel summary",
			"boot", summary.BootID,
			"policy", summary.Policy,
			"forked", summary.Forked,
			"reaped", summary.Reaped,
			"dispatched", summary.Dispatched,
			"promoted", summary.Promoted,
			"demoted", summary.Demoted)
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, proc.ErrNoProgram):
		return &cli.ExitError{Code: 127, Message: err.Error()}
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		if k := runtime.Kernel(); k != nil {
			fmt.Fprintln(errW, "kproc: stopped, process table:")
			_ = k.Dump(errW)
		}
		return &cli.ExitError{Code: 3, Message: err.Error()}
	}
	return err
}
