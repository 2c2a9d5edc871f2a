package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/viant/kproc"
	"github.com/viant/kproc/runtime/policy"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Options represents parsed command line
type Options struct {
	Program   string
	Args      []string
	ConfigURL string
	Policy    string
	CPUs      int
	NProc     int
	Tick      string
	Timeout   time.Duration
	LogFormat string
	LogLevel  string
	Events    bool
	TraceFile string
}

// Parse processes command-line arguments. It returns populated Options,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer, programs []string) (*Options, bool, error) {
	flagSet := flag.NewFlagSet("kproc", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprintf(output, `
kproc - runs a user program on a simulated process scheduler.

Usage:
  kproc [options] PROGRAM [ARGS...]

Programs:
  %v

Options:
`, strings.Join(programs, ", "))
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Config URL (.yaml or .hcl), any afs supported scheme.")
	policyFlag := flagSet.String("policy", "", "Scheduling policy: 'rr', 'fcfs', 'pbs' or 'mlfq'. Overrides config.")
	cpusFlag := flagSet.Int("cpus", 0, "Number of CPUs. Overrides config.")
	nprocFlag := flagSet.Int("nproc", 0, "Process table size. Overrides config.")
	tickFlag := flagSet.String("tick", "", "Timer tick interval, '0' disables the timer. Overrides config.")
	timeoutFlag := flagSet.Duration("timeout", 0, "Stops the kernel and dumps the process table after the duration. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "warn", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	eventsFlag := flagSet.Bool("events", false, "Log kernel scheduling events.")
	traceFlag := flagSet.String("trace", "", "Write OpenTelemetry spans to the file.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if flagSet.NArg() == 0 {
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	if *policyFlag != "" {
		if _, err := policy.Parse(*policyFlag); err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
	}
	if *cpusFlag < 0 || *nprocFlag < 0 || *timeoutFlag < 0 {
		return nil, false, &ExitError{Code: 2, Message: "cpus, nproc and timeout must not be negative"}
	}

	return &Options{
		Program:   flagSet.Arg(0),
		Args:      flagSet.Args()[1:],
		ConfigURL: *configFlag,
		Policy:    *policyFlag,
		CPUs:      *cpusFlag,
		NProc:     *nprocFlag,
		Tick:      *tickFlag,
		Timeout:   *timeoutFlag,
		LogFormat: logFormat,
		LogLevel:  logLevel,
		Events:    *eventsFlag,
		TraceFile: *traceFlag,
	}, false, nil
}

// Logger creates a logger writing to w as the options ask
func (o *Options) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch o.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}
	handlerOptions := &slog.HandlerOptions{Level: level}
	if o.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOptions))
	}
	return slog.New(slog.NewTextHandler(w, handlerOptions))
}

// Config loads the config file if any and applies flag overrides
func (o *Options) Config(ctx context.Context) (*kproc.Config, error) {
	ret := kproc.DefaultConfig()
	if o.ConfigURL != "" {
		var err error
		if ret, err = kproc.LoadConfig(ctx, o.ConfigURL); err != nil {
			return nil, err
		}
	}
	if o.Policy != "" {
		ret.Kernel.Policy = o.Policy
	}
	if o.CPUs > 0 {
		ret.Kernel.CPUs = o.CPUs
	}
	if o.NProc > 0 {
		ret.Kernel.NProc = o.NProc
	}
	if o.Tick != "" {
		ret.Kernel.Tick = o.Tick
	}
	if err := ret.Validate(); err != nil {
		return nil, err
	}
	return ret, nil
}
