package userland

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/kproc/internal/ctxlog"
	"github.com/viant/kproc/model/proc"
	"github.com/viant/kproc/runtime/kernel"
	"github.com/viant/kproc/runtime/policy"
)

func boot(t *testing.T, kind policy.Kind, tick time.Duration) (*kernel.Kernel, *bytes.Buffer) {
	config := kernel.DefaultConfig()
	config.Policy = kind
	config.NProc = 16
	config.Tick = tick
	console := &bytes.Buffer{}
	k, err := kernel.New(
		kernel.WithConfig(config),
		kernel.WithConsole(console),
		kernel.WithLoader(NewPrograms()),
		kernel.WithLogger(ctxlog.Discard()),
	)
	require.NoError(t, err)
	return k, console
}

func run(t *testing.T, k *kernel.Kernel, program kernel.Program, argv ...string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, k.Run(ctx, program, argv...))
}

func TestPrograms(t *testing.T) {
	programs := NewPrograms()
	assert.Equal(t, []string{"longwait", "ps", "schedulertest", "setpriority", "time"}, programs.Names())

	_, err := programs.Load("sh")
	assert.ErrorIs(t, err, proc.ErrNoProgram)

	programs.Register("sh", func(*kernel.Proc) {})
	program, err := programs.Load("sh")
	assert.NoError(t, err)
	assert.NotNil(t, program)
}

func TestWriteStats(t *testing.T) {
	stats := []proc.Stat{
		{Pid: 1, Priority: 60, State: proc.Sleeping, RunTime: 1, WaitTime: 10, NRun: 2, Level: 0, Ticks: [proc.NQueue]int{1}},
		{},
		{Pid: 2, Priority: 45, State: proc.Runnable, RunTime: 7, WaitTime: 3, NRun: 5, Level: 2, Ticks: [proc.NQueue]int{1, 2, 4}},
		{Pid: 3, State: proc.Embryo, Level: proc.LevelNone},
	}
	var testCases = []struct {
		description string
		feedback    bool
		expect      string
	}{
		{
			description: "base columns",
			expect: "pid\tprty\tstate   \trtime\twtime\tnrun\n" +
				"1\t60\tsleeping\t1\t10\t2\n" +
				"2\t45\twaiting \t7\t3\t5\n" +
				"3\t0\tembryo  \t0\t0\t0\n",
		},
		{
			description: "feedback columns",
			feedback:    true,
			expect: "pid\tprty\tstate   \trtime\twtime\tnrun\tcurrq\tq0\tq1\tq2\tq3\tq4\n" +
				"1\t60\tsleeping\t1\t10\t2\t0\t1\t0\t0\t0\t0\n" +
				"2\t45\twaiting \t7\t3\t5\t2\t1\t2\t4\t0\t0\n" +
				"3\t0\tembryo  \t0\t0\t0\t-1\t0\t0\t0\t0\t0\n",
		},
	}

	for _, testCase := range testCases {
		actual := &bytes.Buffer{}
		WriteStats(actual, stats, testCase.feedback)
		if diff := cmp.Diff(testCase.expect, actual.String()); diff != "" {
			t.Errorf("%v: mismatch (-want +got):\n%s", testCase.description, diff)
		}
	}
}

func TestPs(t *testing.T) {
	var testCases = []struct {
		description string
		kind        policy.Kind
		argv        []string
		expect      string
	}{
		{
			description: "round robin",
			kind:        policy.RoundRobin,
			argv:        []string{"ps"},
			expect: "pid\tprty\tstate   \trtime\twtime\tnrun\n" +
				"1\t60\tsleeping\t0\t0\t1\n" +
				"2\t60\trunning \t0\t0\t1\n",
		},
		{
			description: "feedback",
			kind:        policy.MLFQ,
			argv:        []string{"ps"},
			expect: "pid\tprty\tstate   \trtime\twtime\tnrun\tcurrq\tq0\tq1\tq2\tq3\tq4\n" +
				"1\t60\tsleeping\t0\t0\t1\t0\t0\t0\t0\t0\t0\n" +
				"2\t60\trunning \t0\t0\t1\t0\t0\t0\t0\t0\t0\n",
		},
		{
			description: "invalid arguments",
			kind:        policy.RoundRobin,
			argv:        []string{"ps", "-a"},
			expect:      "ps: Invalid arguments\n",
		},
	}

	for _, testCase := range testCases {
		k, console := boot(t, testCase.kind, 0)
		run(t, k, Ps, testCase.argv...)
		if diff := cmp.Diff(testCase.expect, console.String()); diff != "" {
			t.Errorf("%v: mismatch (-want +got):\n%s", testCase.description, diff)
		}
	}
}

func TestSetPriority_Arguments(t *testing.T) {
	var testCases = []struct {
		description string
		argv        []string
		expect      string
	}{
		{description: "missing", argv: []string{"setpriority", "2"}, expect: "setpriority: Invalid arguments\n"},
		{description: "pid", argv: []string{"setpriority", "x", "5"}, expect: "setpriority: Invalid arguments. Specify the pid of the process\n"},
		{description: "zero pid", argv: []string{"setpriority", "0", "5"}, expect: "setpriority: Invalid arguments. Specify the pid of the process\n"},
		{description: "range", argv: []string{"setpriority", "2", "101"}, expect: "setpriority: Invalid arguments. Specify the priority of the process\n"},
		{description: "unknown pid", argv: []string{"setpriority", "42", "5"}, expect: "setpriority: setpriority 42: proc: no such process\n"},
		{description: "self", argv: []string{"setpriority", "2", "70"}, expect: "setpriority: pid 2 priority 60 -> 70\n"},
	}
	for _, testCase := range testCases {
		k, console := boot(t, policy.Priority, 0)
		run(t, k, SetPriority, testCase.argv...)
		assert.Equal(t, testCase.expect, console.String(), testCase.description)
	}
}

func TestSetPriority_Exec(t *testing.T) {
	k, console := boot(t, policy.Priority, 0)
	run(t, k, func(p *kernel.Proc) {
		sleeper, err := p.Fork(func(child *kernel.Proc) {
			_ = child.SleepTicks(1000)
		})
		if !assert.NoError(t, err) {
			return
		}
		_, err = p.Fork(func(child *kernel.Proc) {
			assert.NoError(t, child.Exec("setpriority", "setpriority", fmt.Sprint(sleeper), "30"))
		})
		if !assert.NoError(t, err) {
			return
		}
		_, err = p.Wait()
		assert.NoError(t, err)
		for _, stat := range p.Stats() {
			if stat.Pid == sleeper {
				assert.Equal(t, 30, stat.Priority)
			}
		}
		assert.NoError(t, p.Kill(sleeper))
		_, err = p.Wait()
		assert.NoError(t, err)
	}, "main")
	assert.Equal(t, "setpriority: pid 3 priority 60 -> 30\n", console.String())
}

var timeOutput = regexp.MustCompile(`^\nwaiting:(\d+)\nrunning:(\d+)\n$`)

func TestTime(t *testing.T) {
	t.Run("program", func(t *testing.T) {
		k, console := boot(t, policy.RoundRobin, 0)
		run(t, k, Time, "time", "longwait", "1")
		expect := "process 3 started\nprocess 3 completed\n\nwaiting:0\nrunning:0\n"
		if diff := cmp.Diff(expect, console.String()); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})
	t.Run("missing program", func(t *testing.T) {
		k, console := boot(t, policy.RoundRobin, 0)
		run(t, k, Time, "time", "missing")
		assert.Equal(t, "exec(): failed\n\nwaiting:0\nrunning:0\n", console.String())
	})
	t.Run("idle", func(t *testing.T) {
		k, console := boot(t, policy.RoundRobin, time.Millisecond)
		run(t, k, Time, "time")
		matched := timeOutput.FindStringSubmatch(console.String())
		require.Len(t, matched, 3)
		wait, err := strconv.Atoi(matched[1])
		require.NoError(t, err)
		running, err := strconv.Atoi(matched[2])
		require.NoError(t, err)
		assert.GreaterOrEqual(t, wait+running, idleTicks)
	})
}

func TestSchedulerTest(t *testing.T) {
	var testCases = []struct {
		description string
		kind        policy.Kind
	}{
		{description: "round robin", kind: policy.RoundRobin},
		{description: "priority", kind: policy.Priority},
		{description: "fcfs", kind: policy.FCFS},
	}
	for _, testCase := range testCases {
		k, console := boot(t, testCase.kind, 0)
		run(t, k, SchedulerTest, "schedulertest", "1")
		expect := ""
		for pid := 3; pid <= 6; pid++ {
			expect += fmt.Sprintf("process %d started\nprocess %d completed\n", pid, pid)
		}
		if diff := cmp.Diff(expect, console.String()); diff != "" {
			t.Errorf("%v: mismatch (-want +got):\n%s", testCase.description, diff)
		}
		for pid := 3; pid <= 6; pid++ {
			accounting, err := k.Ledger().Load(context.Background(), pid)
			if assert.NoError(t, err, testCase.description) {
				assert.Equal(t, 1, accounting.NRun, "%v: pid %d", testCase.description, pid)
			}
		}
	}
}

func TestSchedulerTest_Preemptive(t *testing.T) {
	k, console := boot(t, policy.MLFQ, time.Millisecond)
	run(t, k, SchedulerTest, "schedulertest", "2")
	for pid := 3; pid <= 6; pid++ {
		assert.Contains(t, console.String(), fmt.Sprintf("process %d completed\n", pid))
		_, err := k.Ledger().Load(context.Background(), pid)
		assert.NoError(t, err)
	}
}

func TestLongWait(t *testing.T) {
	k, console := boot(t, policy.Priority, 0)
	run(t, k, func(p *kernel.Proc) {
		assert.NoError(t, p.Exec("longwait", "longwait", "1"))
	}, "main")
	assert.Equal(t, "process 2 started\nprocess 2 completed\n", console.String())

	k, console = boot(t, policy.RoundRobin, 0)
	run(t, k, LongWait, "longwait", "x")
	assert.Equal(t, "longwait: invalid rounds \"x\"\n", console.String())
}
