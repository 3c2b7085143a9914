package tools

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
)

var errPackageNotFound = errors.New("python package not found")

// PipVersion queries pip for an installed package version.
func PipVersion(ctx context.Context, pkg string) (string, error) {
	out, err := runCmd(ctx, "python3", "-m", "pip", "show", pkg)
	if err != nil && out == "" {
		return "", err
	}
	if ver := parsePipShow(out); ver != "" {
		return ver, nil
	}
	return "", fmt.Errorf("%w: %s", errPackageNotFound, pkg)
}

// parsePipShow extracts the Version field of `pip show` output.
func parsePipShow(out string) string {
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		k, v, ok := strings.Cut(sc.Text(), ":")
		if ok && strings.EqualFold(strings.TrimSpace(k), "version") {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
