package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// CheckTool attempts to detect tool version via PATH binaries, then falls back to pip.
func CheckTool(ctx context.Context, t ToolInfo) CheckResult {
	// Try binaries in PATH
	for _, bin := range t.Binaries {
		if path, err := exec.LookPath(bin); err == nil {
			return CheckPath(ctx, t, path)
		}
	}

	// Fallback: python package metadata
	if t.PipPackage != "" {
		ctxP, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		ver, err := PipVersion(ctxP, t.PipPackage)
		if err == nil && ver != "" {
			// Package present but its entry point is not on PATH.
			return CheckResult{Installed: false, Version: ver, Source: "pip", Err: fmt.Sprintf("%s is installed but %s is not on PATH", t.PipPackage, strings.Join(t.Binaries, "/"))}
		}
		if err != nil && !errors.Is(err, exec.ErrNotFound) && !errors.Is(err, errPackageNotFound) {
			return CheckResult{Installed: false, Err: err.Error()}
		}
	}

	return CheckResult{Installed: false, Err: "executable not found in PATH"}
}

// CheckPath probes the version of the binary at path.
func CheckPath(ctx context.Context, t ToolInfo, path string) CheckResult {
	if !IsExecutable(ctx, path) {
		return CheckResult{Installed: false, Path: path, Err: "not an executable file"}
	}
	for _, args := range t.VersionArgs {
		ctxV, cancel := context.WithTimeout(ctx, 3*time.Second)
		out, err := runCmd(ctxV, path, args...)
		cancel()
		if err == nil && strings.TrimSpace(out) != "" {
			ver := ParseVersion(out)
			if ver == "" {
				ver = strings.Split(strings.TrimSpace(out), "\n")[0]
			}
			return CheckResult{Installed: true, Path: path, Version: ver, Source: fmt.Sprintf("%s %s", path, strings.Join(args, " "))}
		}
	}
	// Found binary but no version output; still consider installed
	return CheckResult{Installed: true, Path: path, Source: path}
}

// IsExecutable reports whether path is a regular file with an execute bit.
// It is the default detector for the preferred tool.
func IsExecutable(_ context.Context, path string) bool {
	st, err := os.Stat(path)
	if err != nil || !st.Mode().IsRegular() {
		return false
	}
	return st.Mode().Perm()&0o111 != 0
}
