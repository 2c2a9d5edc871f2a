package kernel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/kproc/internal/ctxlog"
	"github.com/viant/kproc/model/proc"
	"github.com/viant/kproc/runtime/policy"
	"github.com/viant/kproc/service/dao"
	"github.com/viant/kproc/service/event"
	"github.com/viant/kproc/service/messaging"
	"github.com/viant/kproc/service/messaging/memory"
	rmemory "github.com/viant/kproc/service/resource/memory"
)

func newTestKernel(t *testing.T, kind policy.Kind, options ...Option) *Kernel {
	options = append([]Option{WithPolicy(kind), WithCPUs(1), WithNProc(16), WithLogger(ctxlog.Discard())}, options...)
	k, err := New(options...)
	require.NoError(t, err)
	return k
}

func runKernel(t *testing.T, k *Kernel, program Program) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	require.NoError(t, k.Run(ctx, program, "main"))
}

func statOf(stats []proc.Stat, pid int) (proc.Stat, bool) {
	for _, stat := range stats {
		if stat.Pid == pid {
			return stat, true
		}
	}
	return proc.Stat{}, false
}

// yieldUntil yields until the predicate holds for the table snapshot
func yieldUntil(p *Proc, predicate func(stats []proc.Stat) bool) {
	for !predicate(p.Stats()) {
		p.Yield()
	}
}

func TestKernel_ForkWait(t *testing.T) {
	stacks := rmemory.NewStacks(0)
	spaces := rmemory.NewAddressSpaces(0)
	k := newTestKernel(t, policy.RoundRobin, WithStacks(stacks), WithAddressSpaces(spaces))
	var childRet = -1
	runKernel(t, k, func(p *Proc) {
		assert.Equal(t, "main", p.Name())
		assert.Equal(t, 2, p.Pid())
		pid, err := p.Fork(func(child *Proc) {
			childRet = child.Ret()
			assert.Equal(t, "main", child.Name())
		})
		if !assert.NoError(t, err) {
			return
		}
		assert.Equal(t, 3, pid)
		assert.Equal(t, pid, p.Ret())

		reaped, err := p.Wait()
		assert.NoError(t, err)
		assert.Equal(t, pid, reaped)
		_, err = p.Wait()
		assert.ErrorIs(t, err, proc.ErrNoChildren)

		second, err := p.Fork(func(*Proc) {})
		assert.NoError(t, err)
		assert.Equal(t, 4, second)
		reaped, err = p.Wait()
		assert.NoError(t, err)
		assert.Equal(t, second, reaped)
	})
	assert.Equal(t, 0, childRet)
	assert.Equal(t, 1, stacks.InUse())
	assert.Equal(t, 1, spaces.InUse())

	stats := k.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, proc.InitPid, stats[0].Pid)
	assert.Equal(t, "init", stats[0].Name)

	ledger, err := k.Ledger().List(context.Background())
	require.NoError(t, err)
	var pids []int
	for _, item := range ledger {
		pids = append(pids, item.Pid)
	}
	assert.Equal(t, []int{3, 4, 2}, pids)
}

func TestKernel_ForkFailure(t *testing.T) {
	var testCases = []struct {
		description string
		options     []Option
		forks       int
		expectErr   error
	}{
		{description: "table full", options: []Option{WithNProc(3)}, forks: 2, expectErr: proc.ErrTableFull},
		{description: "kernel stack", options: []Option{WithStacks(rmemory.NewStacks(3))}, forks: 2, expectErr: proc.ErrNoMemory},
		{description: "address space", options: []Option{WithAddressSpaces(rmemory.NewAddressSpaces(3))}, forks: 2, expectErr: proc.ErrAddressSpace},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			k := newTestKernel(t, policy.RoundRobin, testCase.options...)
			runKernel(t, k, func(p *Proc) {
				var err error
				created := 0
				for i := 0; i < testCase.forks; i++ {
					if _, err = p.Fork(func(*Proc) {}); err != nil {
						break
					}
					created++
				}
				assert.Equal(t, testCase.forks-1, created)
				assert.ErrorIs(t, err, testCase.expectErr)
				for _, stat := range p.Stats() {
					assert.NotEqual(t, proc.Embryo, stat.State)
				}
				for i := 0; i < created; i++ {
					_, err = p.Wait()
					assert.NoError(t, err)
				}
			})
		})
	}
}

func TestKernel_KillSleeping(t *testing.T) {
	k := newTestKernel(t, policy.RoundRobin)
	runKernel(t, k, func(p *Proc) {
		pid, err := p.Fork(func(child *Proc) {
			err := child.SleepTicks(1000)
			assert.ErrorIs(t, err, proc.ErrKilled)
			assert.True(t, child.Killed())
		})
		if !assert.NoError(t, err) {
			return
		}
		yieldUntil(p, func(stats []proc.Stat) bool {
			stat, _ := statOf(stats, pid)
			return stat.State == proc.Sleeping
		})
		assert.NoError(t, p.Kill(pid))
		reaped, err := p.Wait()
		assert.NoError(t, err)
		assert.Equal(t, pid, reaped)
		assert.ErrorIs(t, p.Kill(pid), proc.ErrNoSuchProcess)
	})
}

func TestKernel_KilledExitsAtTrap(t *testing.T) {
	k := newTestKernel(t, policy.RoundRobin)
	runKernel(t, k, func(p *Proc) {
		pid, err := p.Fork(func(child *Proc) {
			for {
				child.Trap()
				child.Yield()
			}
		})
		if !assert.NoError(t, err) {
			return
		}
		p.Yield()
		assert.NoError(t, p.Kill(pid))
		reaped, err := p.Wait()
		assert.NoError(t, err)
		assert.Equal(t, pid, reaped)
	})
}

func TestKernel_PriorityOrder(t *testing.T) {
	k := newTestKernel(t, policy.Priority)
	var mux sync.Mutex
	var order []int
	record := func(child *Proc) {
		mux.Lock()
		defer mux.Unlock()
		order = append(order, child.Pid())
	}
	var low, high int
	runKernel(t, k, func(p *Proc) {
		var err error
		low, err = p.Fork(record)
		if !assert.NoError(t, err) {
			return
		}
		old, err := p.SetPriority(low, 90)
		if !assert.NoError(t, err) {
			return
		}
		assert.Equal(t, proc.DefaultPriority, old)

		high, err = p.Fork(record)
		if !assert.NoError(t, err) {
			return
		}
		_, err = p.SetPriority(high, 10)
		if !assert.NoError(t, err) {
			return
		}
		for i := 0; i < 2; i++ {
			_, err = p.Wait()
			assert.NoError(t, err)
		}
	})
	assert.Equal(t, []int{high, low}, order)
}

func TestKernel_SetPriorityYield(t *testing.T) {
	k := newTestKernel(t, policy.Priority)
	runKernel(t, k, func(p *Proc) {
		other, err := p.Fork(func(*Proc) {})
		if !assert.NoError(t, err) {
			return
		}
		_, err = p.SetPriority(p.Pid(), 5)
		if !assert.NoError(t, err) {
			return
		}
		_, err = p.SetPriority(other, 50)
		if !assert.NoError(t, err) {
			return
		}
		_, err = p.SetPriority(p.Pid(), 80)
		if !assert.NoError(t, err) {
			return
		}

		before, _ := statOf(p.Stats(), p.Pid())
		old, err := p.SetPriority(p.Pid(), 10)
		if !assert.NoError(t, err) {
			return
		}
		assert.Equal(t, 80, old)

		stats := p.Stats()
		after, _ := statOf(stats, p.Pid())
		assert.Equal(t, before.NRun+1, after.NRun)
		otherStat, ok := statOf(stats, other)
		if !assert.True(t, ok) {
			return
		}
		assert.Equal(t, 0, otherStat.NRun)
		assert.Equal(t, 50, otherStat.Priority)

		_, err = p.SetPriority(other, 101)
		assert.ErrorIs(t, err, proc.ErrInvalidPriority)
		_, err = p.SetPriority(999, 10)
		assert.ErrorIs(t, err, proc.ErrNoSuchProcess)
		_, err = p.Wait()
		assert.NoError(t, err)
	})
}

func TestKernel_FCFSOrder(t *testing.T) {
	k := newTestKernel(t, policy.FCFS)
	var mux sync.Mutex
	var order []int
	var pids []int
	runKernel(t, k, func(p *Proc) {
		for i := 0; i < 3; i++ {
			pid, err := p.Fork(func(child *Proc) {
				mux.Lock()
				order = append(order, child.Pid())
				mux.Unlock()
			})
			if !assert.NoError(t, err) {
				return
			}
			pids = append(pids, pid)
			k.Tick()
			p.Trap()
		}
		for range pids {
			_, err := p.Wait()
			assert.NoError(t, err)
		}
	})
	assert.Equal(t, pids, order)
}

func TestKernel_Reparent(t *testing.T) {
	k := newTestKernel(t, policy.RoundRobin)
	runKernel(t, k, func(p *Proc) {
		grandchildren := make(chan [2]int, 1)
		middle, err := p.Fork(func(c *Proc) {
			quick, err := c.Fork(func(*Proc) {})
			if !assert.NoError(t, err) {
				return
			}
			sleeper, err := c.Fork(func(g *Proc) {
				assert.ErrorIs(t, g.SleepTicks(1000), proc.ErrKilled)
			})
			if !assert.NoError(t, err) {
				return
			}
			yieldUntil(c, func(stats []proc.Stat) bool {
				q, _ := statOf(stats, quick)
				s, _ := statOf(stats, sleeper)
				return q.State == proc.Zombie && s.State == proc.Sleeping
			})
			grandchildren <- [2]int{quick, sleeper}
		})
		if !assert.NoError(t, err) {
			return
		}
		reaped, err := p.Wait()
		if !assert.NoError(t, err) {
			return
		}
		assert.Equal(t, middle, reaped)

		pids := <-grandchildren
		stats := p.Stats()
		sleeper, ok := statOf(stats, pids[1])
		if !assert.True(t, ok) {
			return
		}
		assert.Equal(t, proc.InitPid, sleeper.PPid)

		yieldUntil(p, func(stats []proc.Stat) bool {
			_, found := statOf(stats, pids[0])
			return !found
		})
		assert.NoError(t, p.Kill(pids[1]))
		_, err = p.Wait()
		assert.ErrorIs(t, err, proc.ErrNoChildren)
	})
	assert.Len(t, k.Stats(), 1)
}

func TestKernel_FeedbackDemotion(t *testing.T) {
	k := newTestKernel(t, policy.MLFQ)
	runKernel(t, k, func(p *Proc) {
		self := func() proc.Stat {
			stat, _ := statOf(p.Stats(), p.Pid())
			return stat
		}
		assert.Equal(t, 0, self().Level)
		k.Tick()
		p.Trap()
		assert.Equal(t, 1, self().Level)

		k.Tick()
		p.Trap()
		assert.Equal(t, 1, self().Level)
		k.Tick()
		p.Trap()
		stat := self()
		assert.Equal(t, 2, stat.Level)
		assert.Equal(t, [proc.NQueue]int{1, 2, 0, 0, 0}, stat.Ticks)
		assert.Equal(t, 3, stat.RunTime)
	})
}

func TestKernel_AccountingConservation(t *testing.T) {
	config := DefaultConfig()
	config.Policy = policy.RoundRobin
	config.NProc = 16
	config.Tick = time.Millisecond
	k := newTestKernel(t, policy.RoundRobin, WithConfig(config))
	type result struct{ pid, wait, run int }
	var results []result
	runKernel(t, k, func(p *Proc) {
		for i := 0; i < 3; i++ {
			_, err := p.Fork(func(child *Proc) {
				start := child.Uptime()
				for child.Uptime()-start < 5 {
					child.Trap()
				}
			})
			if !assert.NoError(t, err) {
				return
			}
		}
		for i := 0; i < 3; i++ {
			pid, wait, run, err := p.WaitX()
			if !assert.NoError(t, err) {
				return
			}
			results = append(results, result{pid: pid, wait: wait, run: run})
		}
	})
	for _, item := range results {
		accounting, err := k.Ledger().Load(context.Background(), item.pid)
		require.NoError(t, err)
		assert.Equal(t, accounting.Lifetime(), accounting.RunTime+accounting.WaitTime)
		assert.Equal(t, item.wait, accounting.WaitTime)
		assert.Equal(t, item.run, accounting.RunTime)
		assert.GreaterOrEqual(t, accounting.Lifetime(), 5)
	}
}

func TestKernel_MultiCPU(t *testing.T) {
	stacks := rmemory.NewStacks(0)
	config := DefaultConfig()
	config.CPUs = 4
	config.NProc = 16
	config.Tick = time.Millisecond
	config.Policy = policy.MLFQ
	k := newTestKernel(t, policy.MLFQ, WithConfig(config), WithStacks(stacks))
	runKernel(t, k, func(p *Proc) {
		for i := 0; i < 8; i++ {
			_, err := p.Fork(func(child *Proc) {
				start := child.Uptime()
				for child.Uptime()-start < 3 {
					child.Trap()
				}
			})
			if !assert.NoError(t, err) {
				return
			}
		}
		for i := 0; i < 8; i++ {
			_, err := p.Wait()
			assert.NoError(t, err)
		}
	})
	assert.Equal(t, 1, stacks.InUse())
	items, err := k.Ledger().List(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 9)
}

type loader map[string]Program

func (l loader) Load(name string) (Program, error) {
	if program, ok := l[name]; ok {
		return program, nil
	}
	return nil, proc.ErrNoProgram
}

func TestKernel_Exec(t *testing.T) {
	console := &bytes.Buffer{}
	programs := loader{
		"echo": func(p *Proc) {
			p.Printf("%v %v\n", p.Name(), p.Args())
		},
	}
	k := newTestKernel(t, policy.RoundRobin, WithLoader(programs), WithConsole(console))
	runKernel(t, k, func(p *Proc) {
		err := p.Exec("missing")
		assert.ErrorIs(t, err, proc.ErrNoProgram)
		_ = p.Exec("echo", "echo", "hello")
		t.Error("exec returned")
	})
	assert.Equal(t, "echo [echo hello]\n", console.String())
}

func TestKernel_Files(t *testing.T) {
	files := rmemory.NewFiles()
	k := newTestKernel(t, policy.RoundRobin, WithFiles(files))
	runKernel(t, k, func(p *Proc) {
		fd, err := p.Open("data")
		if !assert.NoError(t, err) {
			return
		}
		assert.Equal(t, 3, fd)
		_, err = p.Fork(func(child *Proc) {
			assert.NoError(t, child.Close(fd))
			assert.Error(t, child.Close(fd))
		})
		if !assert.NoError(t, err) {
			return
		}
		_, err = p.Wait()
		if !assert.NoError(t, err) {
			return
		}
		dup, err := p.Dup(fd)
		if !assert.NoError(t, err) {
			return
		}
		assert.Equal(t, 4, dup)
	})
	assert.Equal(t, 1, files.OpenFiles())
	assert.Equal(t, 2, files.RootRefs())
}

func TestKernel_Events(t *testing.T) {
	srv, err := event.New(messaging.VendorMemory, event.WithNewMemoryQueueConfig(func(string) memory.Config {
		config := memory.DefaultConfig()
		config.QueueBuffer = 4096
		config.DropOnFull = true
		return config
	}))
	require.NoError(t, err)
	publisher, err := event.PublisherOf[proc.Event](srv)
	require.NoError(t, err)
	k := newTestKernel(t, policy.MLFQ, WithPublisher(publisher, srv.NewContext("kernel", "transition")))
	var child int
	runKernel(t, k, func(p *Proc) {
		var err error
		child, err = p.Fork(func(*Proc) {})
		if !assert.NoError(t, err) {
			return
		}
		_, err = p.Wait()
		assert.NoError(t, err)
	})

	seen := map[proc.Transition]bool{}
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		e, err := publisher.Consume(ctx)
		cancel()
		if err != nil {
			break
		}
		assert.Equal(t, srv.BootID(), e.Context.BootID)
		if e.Data.Pid == child {
			seen[e.Data.Transition] = true
		}
	}
	for _, transition := range []proc.Transition{proc.TransitionForked, proc.TransitionDispatched, proc.TransitionExited, proc.TransitionReaped} {
		assert.True(t, seen[transition], transition)
	}
}

func TestKernel_HostCalls(t *testing.T) {
	k := newTestKernel(t, policy.RoundRobin)
	assert.Empty(t, k.Stats())
	assert.ErrorIs(t, k.Kill(7), proc.ErrNoSuchProcess)
	_, err := k.SetPriority(1, -1)
	assert.ErrorIs(t, err, proc.ErrInvalidPriority)
	k.Tick()
	assert.Equal(t, 1, k.Ticks())

	require.NoError(t, k.Run(context.Background(), func(*Proc) {}))
	assert.Error(t, k.Run(context.Background(), func(*Proc) {}))
	_, err = k.Ledger().Load(context.Background(), 99)
	assert.True(t, errors.Is(err, dao.ErrNotFound))
}

func TestKernel_RunCancelled(t *testing.T) {
	k := newTestKernel(t, policy.RoundRobin)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := k.Run(ctx, func(p *Proc) {
		for {
			p.Trap()
			p.Yield()
		}
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	stats := k.Stats()
	assert.Len(t, stats, 2)
}

func TestKernel_RunReturnsAfterHalt(t *testing.T) {
	var testCases = []struct {
		description string
		cpus        int
		tick        time.Duration
	}{
		{description: "single cpu", cpus: 1},
		{description: "two cpus", cpus: 2},
		{description: "preemptive", cpus: 2, tick: time.Millisecond},
	}

	for _, testCase := range testCases {
		for i := 0; i < 20; i++ {
			config := DefaultConfig()
			config.CPUs = testCase.cpus
			config.NProc = 16
			config.Tick = testCase.tick
			k := newTestKernel(t, policy.RoundRobin, WithConfig(config))
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
			result := make(chan error, 1)
			go func() {
				result <- k.Run(ctx, func(p *Proc) {
					for {
						p.Trap()
						p.Yield()
					}
				})
			}()
			select {
			case err := <-result:
				assert.ErrorIs(t, err, context.DeadlineExceeded, testCase.description)
			case <-time.After(5 * time.Second):
				t.Fatalf("%v: run %d did not return", testCase.description, i)
			}
			cancel()
		}
	}
}

// tableViolations checks pid uniqueness and that a record is queued iff it is runnable
func tableViolations(k *Kernel, c *cpu) []string {
	k.ptable.acquire(c)
	defer k.ptable.release(c)
	f := k.strategy.(*feedback)
	var ret []string
	seen := map[int]bool{}
	for _, r := range k.procs {
		if !r.live() {
			continue
		}
		if seen[r.pid] {
			ret = append(ret, fmt.Sprintf("duplicate pid %d", r.pid))
		}
		seen[r.pid] = true
		if queued := f.queues.Contains(r.slot); queued != (r.state == proc.Runnable) {
			ret = append(ret, fmt.Sprintf("pid %d %v queued=%v", r.pid, r.state, queued))
		}
	}
	return ret
}

func TestKernel_FeedbackTableInvariants(t *testing.T) {
	config := DefaultConfig()
	config.CPUs = 4
	config.NProc = 16
	config.Tick = time.Millisecond
	config.Policy = policy.MLFQ
	k := newTestKernel(t, policy.MLFQ, WithConfig(config))
	runKernel(t, k, func(p *Proc) {
		for i := 0; i < 8; i++ {
			_, err := p.Fork(func(child *Proc) {
				start := child.Uptime()
				for child.Uptime()-start < 5 {
					child.Trap()
					if child.Pid()%2 == 0 {
						_ = child.SleepTicks(1)
					}
				}
			})
			if !assert.NoError(t, err) {
				return
			}
		}
		for i := 0; i < 50; i++ {
			assert.Empty(t, tableViolations(k, k.mycpu(p.r)))
			p.Yield()
		}
		for i := 0; i < 8; i++ {
			_, err := p.Wait()
			assert.NoError(t, err)
		}
	})
}

func TestKernel_Dump(t *testing.T) {
	k := newTestKernel(t, policy.MLFQ)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := k.Run(ctx, func(p *Proc) {
		for {
			p.Trap()
			p.Yield()
		}
	}, "spin")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	actual := &bytes.Buffer{}
	require.NoError(t, k.Dump(actual))
	assert.Contains(t, actual.String(), "1 sleeping init prio=60 level=0 nrun=1\n")
	assert.Contains(t, actual.String(), " spin prio=60 level=0 ")
	for level := 0; level < proc.NQueue; level++ {
		assert.Contains(t, actual.String(), fmt.Sprintf("q%d:", level))
	}
}

func TestNew_Validation(t *testing.T) {
	var testCases = []struct {
		description string
		options     []Option
	}{
		{description: "cpus", options: []Option{WithCPUs(0)}},
		{description: "nproc", options: []Option{WithNProc(1)}},
		{description: "policy", options: []Option{WithPolicy(policy.Kind(9))}},
		{description: "default priority", options: []Option{WithConfig(func() Config {
			config := DefaultConfig()
			config.DefaultPriority = 101
			return config
		}())}},
	}
	for _, testCase := range testCases {
		_, err := New(testCase.options...)
		assert.Error(t, err, testCase.description)
	}
}
