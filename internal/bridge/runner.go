package bridge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Runner executes invocations. Bridges only talk to processes through it.
type Runner interface {
	// Run executes inv to completion.
	Run(ctx context.Context, inv Invocation) (Result, error)
	// Start launches inv and returns without waiting for it to exit.
	Start(ctx context.Context, inv Invocation) (Process, error)
}

// Process is a handle on a long-lived child process.
type Process interface {
	// Stdout streams the child's standard output until it exits.
	Stdout() io.Reader
	// Stop interrupts the child, kills it after a grace period and waits.
	// It also releases the stdout stream and is safe to call more than once.
	// A child that died of a signal counts as stopped.
	Stop() error
	// Wait blocks until the child exits.
	Wait() error
}

const (
	defaultStopGrace = 5 * time.Second
	stderrTailLimit  = 64 << 10
)

// ExecRunner runs invocations as local processes.
type ExecRunner struct {
	// StopGrace is how long a started process gets to exit after an
	// interrupt before it is killed.
	StopGrace time.Duration
}

func (r ExecRunner) grace() time.Duration {
	if r.StopGrace <= 0 {
		return defaultStopGrace
	}
	return r.StopGrace
}

func (r ExecRunner) command(ctx context.Context, inv Invocation) *exec.Cmd {
	cmd := exec.CommandContext(ctx, inv.Path, inv.Args...)
	if len(inv.Env) > 0 {
		cmd.Env = mergeEnv(os.Environ(), inv.Env)
	}
	return cmd
}

func (r ExecRunner) Run(ctx context.Context, inv Invocation) (Result, error) {
	cmd := r.command(ctx, inv)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return Result{}, &SpawnError{Path: inv.Path, Err: err}
	}
	err := cmd.Wait()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		return res, waitError(ctx, inv, err, stderr.String(), false)
	}
	return res, nil
}

func (r ExecRunner) Start(ctx context.Context, inv Invocation) (Process, error) {
	cmd := r.command(ctx, inv)
	// Interrupt first so recorders get a chance to finalize their output.
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = r.grace()

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, &SpawnError{Path: inv.Path, Err: err}
	}
	p := &execProcess{
		inv:    inv,
		cmd:    cmd,
		stdout: pr,
		stderr: &tailBuffer{limit: stderrTailLimit},
		grace:  r.grace(),
		done:   make(chan struct{}),
	}
	cmd.Stdout = pw
	cmd.Stderr = p.stderr
	if err := cmd.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		return nil, &SpawnError{Path: inv.Path, Err: err}
	}
	// The child holds its own copy of the write end.
	_ = pw.Close()
	go p.wait(ctx)
	return p, nil
}

type execProcess struct {
	inv     Invocation
	cmd     *exec.Cmd
	stdout  *os.File
	stderr  *tailBuffer
	grace   time.Duration
	done    chan struct{}
	err     error
	stopped atomic.Bool
	once    sync.Once

	// signaled is set when the child was terminated by a signal.
	signaled bool
}

func (p *execProcess) wait(ctx context.Context) {
	err := p.cmd.Wait()
	if err != nil {
		var ee *exec.ExitError
		p.signaled = errors.As(err, &ee) && ee.ExitCode() == -1
		err = waitError(ctx, p.inv, err, p.stderr.String(), p.stopped.Load())
	}
	p.err = err
	close(p.done)
}

func (p *execProcess) Stdout() io.Reader { return p.stdout }

func (p *execProcess) Wait() error {
	<-p.done
	return p.err
}

func (p *execProcess) Stop() error {
	p.once.Do(func() {
		select {
		case <-p.done:
		default:
			p.stopped.Store(true)
			_ = p.cmd.Process.Signal(os.Interrupt)
			timer := time.NewTimer(p.grace)
			defer timer.Stop()
			select {
			case <-p.done:
			case <-timer.C:
				_ = p.cmd.Process.Kill()
				<-p.done
			}
		}
		_ = p.stdout.Close()
	})
	err := p.Wait()
	// Ctrl+C reaches the whole process group, so the child may die of the
	// interrupt just before Stop signals it.
	if p.signaled {
		return nil
	}
	return err
}

// waitError maps an exec wait failure onto the bridge error taxonomy.
// Signal exits caused by Stop are not failures.
func waitError(ctx context.Context, inv Invocation, err error, stderr string, stopped bool) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", inv.Path, ctxErr)
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		if stopped && ee.ExitCode() == -1 {
			return nil
		}
		return &ExitError{Path: inv.Path, Args: inv.Args, Code: ee.ExitCode(), Stderr: stderr}
	}
	return fmt.Errorf("%s: %w", inv.Path, err)
}

func mergeEnv(base []string, overrides map[string]string) []string {
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	env := make([]string, 0, len(base)+len(keys))
	env = append(env, base...)
	// exec keeps the last value for duplicate keys.
	for _, k := range keys {
		env = append(env, k+"="+overrides[k])
	}
	return env
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	buf   []byte
	limit int
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = append(b.buf[:0], b.buf[over:]...)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
