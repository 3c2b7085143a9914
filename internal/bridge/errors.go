package bridge

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrToolNotFound         = errors.New("device tool not found")
	ErrNoToolchainAvailable = fmt.Errorf("no toolchain available: %w", ErrToolNotFound)
	ErrProcessSpawnFailed   = errors.New("process spawn failed")
	ErrProcessExitedNonZero = errors.New("process exited non-zero")
	ErrInvalidArgument      = errors.New("invalid argument")
)

// SpawnError reports that the external binary could not be started.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("start %s: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() []error { return []error{ErrProcessSpawnFailed, e.Err} }

// ExitError reports a command that ran but exited with a failure status.
type ExitError struct {
	Path   string
	Args   []string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s %s: exit status %d", e.Path, strings.Join(e.Args, " "), e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + firstLine(s)
	}
	return msg
}

func (e *ExitError) Unwrap() error { return ErrProcessExitedNonZero }

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
