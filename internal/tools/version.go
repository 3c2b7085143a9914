package tools

import (
	"regexp"
	"strconv"
	"strings"
)

var verRe = regexp.MustCompile(`(?i)\bv?(\d+(?:\.\d+)*(?:-[\w\.]+)?)`)

// ParseVersion extracts the first dotted version from tool output,
// e.g. "xcrun version 70." or "1.1.8".
func ParseVersion(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	// Take first line
	line := strings.Split(s, "\n")[0]
	if m := verRe.FindStringSubmatch(line); len(m) > 1 {
		return m[1]
	}
	if m := verRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return ""
}

// VersionLess compares two dotted versions (best-effort).
// Returns true if a < b. A pre-release sorts before its release.
func VersionLess(a, b string) bool {
	a = NormalizeVersion(a)
	b = NormalizeVersion(b)
	if a == "" || b == "" {
		return false
	}
	ap := strings.Split(strings.SplitN(a, "-", 2)[0], ".")
	bp := strings.Split(strings.SplitN(b, "-", 2)[0], ".")
	n := max(len(ap), len(bp))
	for i := 0; i < n; i++ {
		av, bv := component(ap, i), component(bp, i)
		if av != bv {
			return av < bv
		}
	}
	return strings.Contains(a, "-") && !strings.Contains(b, "-")
}

func NormalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "v")
	return v
}

func component(parts []string, i int) int {
	if i >= len(parts) {
		return 0
	}
	digits := parts[i]
	for j, r := range digits {
		if r < '0' || r > '9' {
			digits = digits[:j]
			break
		}
	}
	n, _ := strconv.Atoi(digits)
	return n
}
