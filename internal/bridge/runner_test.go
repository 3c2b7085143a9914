package bridge

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func requireSh(t *testing.T) string {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	return sh
}

func TestExecRunner_RunCapturesOutputAndEnv(t *testing.T) {
	sh := requireSh(t)
	res, err := ExecRunner{}.Run(context.Background(), Invocation{
		Path: sh,
		Args: []string{"-c", `printf '%s' "$PYTHONUNBUFFERED"`},
		Env:  map[string]string{"PYTHONUNBUFFERED": "1"},
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if string(res.Stdout) != "1" {
		t.Fatalf("expected env override in child, got %q", res.Stdout)
	}
}

func TestExecRunner_RunNonZeroExit(t *testing.T) {
	sh := requireSh(t)
	_, err := ExecRunner{}.Run(context.Background(), Invocation{
		Path: sh,
		Args: []string{"-c", "echo 'Invalid device: U1' >&2; exit 3"},
	})
	var ee *ExitError
	if !errors.As(err, &ee) {
		t.Fatalf("expected ExitError, got %v", err)
	}
	if ee.Code != 3 {
		t.Fatalf("expected exit code 3, got %d", ee.Code)
	}
	if !strings.Contains(ee.Stderr, "Invalid device") {
		t.Fatalf("expected stderr to be captured, got %q", ee.Stderr)
	}
	if !errors.Is(err, ErrProcessExitedNonZero) {
		t.Fatalf("expected ErrProcessExitedNonZero")
	}
}

func TestExecRunner_SpawnFailure(t *testing.T) {
	_, err := ExecRunner{}.Run(context.Background(), Invocation{Path: "/nonexistent/devbridge-tool"})
	if !errors.Is(err, ErrProcessSpawnFailed) {
		t.Fatalf("expected ErrProcessSpawnFailed, got %v", err)
	}
	_, err = ExecRunner{}.Start(context.Background(), Invocation{Path: "/nonexistent/devbridge-tool"})
	var se *SpawnError
	if !errors.As(err, &se) {
		t.Fatalf("expected SpawnError, got %v", err)
	}
}

func TestExecRunner_StartStreamsStdout(t *testing.T) {
	defer goleak.VerifyNone(t)
	sh := requireSh(t)
	p, err := ExecRunner{}.Start(context.Background(), Invocation{
		Path: sh,
		Args: []string{"-c", "echo one; echo two"},
	})
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	out, err := io.ReadAll(p.Stdout())
	if err != nil {
		t.Fatalf("read stdout: %v", err)
	}
	if string(out) != "one\ntwo\n" {
		t.Fatalf("unexpected stdout %q", out)
	}
	if err := p.Wait(); err != nil {
		t.Fatalf("Wait error: %v", err)
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop after exit should be a no-op, got %v", err)
	}
}

func TestExecRunner_StopInterruptsLongRunningChild(t *testing.T) {
	defer goleak.VerifyNone(t)
	sh := requireSh(t)
	p, err := ExecRunner{StopGrace: 2 * time.Second}.Start(context.Background(), Invocation{
		Path: sh,
		Args: []string{"-c", "exec sleep 30"},
	})
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	start := time.Now()
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("Stop took too long")
	}
}

func TestExecRunner_ContextCancelTerminatesChild(t *testing.T) {
	defer goleak.VerifyNone(t)
	sh := requireSh(t)
	ctx, cancel := context.WithCancel(context.Background())
	p, err := ExecRunner{StopGrace: time.Second}.Start(ctx, Invocation{
		Path: sh,
		Args: []string{"-c", "exec sleep 30"},
	})
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	cancel()
	if err := p.Wait(); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	_ = p.Stop()
}

func TestExecRunner_StopAfterChildAlreadyInterrupted(t *testing.T) {
	defer goleak.VerifyNone(t)
	sh := requireSh(t)
	p, err := ExecRunner{StopGrace: time.Second}.Start(context.Background(), Invocation{
		Path: sh,
		Args: []string{"-c", "exec sleep 30"},
	})
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	// Ctrl+C in a terminal interrupts the child before Stop gets to it.
	if err := p.(*execProcess).cmd.Process.Signal(os.Interrupt); err != nil {
		t.Fatalf("signal: %v", err)
	}
	if err := p.Wait(); !errors.Is(err, ErrProcessExitedNonZero) {
		t.Fatalf("an unrequested signal exit should fail Wait, got %v", err)
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop should treat the interrupted child as stopped, got %v", err)
	}
}

func TestExecRunner_WaitReportsNonZeroExit(t *testing.T) {
	defer goleak.VerifyNone(t)
	sh := requireSh(t)
	p, err := ExecRunner{}.Start(context.Background(), Invocation{
		Path: sh,
		Args: []string{"-c", "echo partial; echo 'device offline' >&2; exit 4"},
	})
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	out, err := io.ReadAll(p.Stdout())
	if err != nil || string(out) != "partial\n" {
		t.Fatalf("unexpected stdout %q (%v)", out, err)
	}
	err = p.Wait()
	var ee *ExitError
	if !errors.As(err, &ee) {
		t.Fatalf("expected ExitError from Wait, got %v", err)
	}
	if ee.Code != 4 || !strings.Contains(ee.Stderr, "device offline") {
		t.Fatalf("expected code 4 with stderr, got code=%d stderr=%q", ee.Code, ee.Stderr)
	}
	if err := p.Stop(); !errors.Is(err, ErrProcessExitedNonZero) {
		t.Fatalf("Stop after a failed exit should report it, got %v", err)
	}
}

func TestTailBufferKeepsTail(t *testing.T) {
	b := &tailBuffer{limit: 4}
	_, _ = b.Write([]byte("abc"))
	_, _ = b.Write([]byte("defg"))
	if got := b.String(); got != "defg" {
		t.Fatalf("expected tail %q, got %q", "defg", got)
	}
}
