package bridge

import (
	"context"
	"fmt"
	"strings"
)

// DeviceKind classifies a connected device.
type DeviceKind string

const (
	KindEmulator DeviceKind = "emulator"
	KindPhysical DeviceKind = "physical"
)

// ParseDeviceKind accepts "emulator"/"simulator" and "physical"/"device".
func ParseDeviceKind(s string) (DeviceKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "emulator", "simulator", "sim":
		return KindEmulator, nil
	case "physical", "device":
		return KindPhysical, nil
	default:
		return "", fmt.Errorf("%w: unknown device kind %q", ErrInvalidArgument, s)
	}
}

// Device identifies the target of an operation. It is supplied per call.
type Device struct {
	ID   string     `json:"id"`
	Kind DeviceKind `json:"kind"`
}

// Family is the tool family a bridge is bound to.
type Family int

const (
	FamilyPreferred Family = iota + 1
	FamilyFallback
)

func (f Family) String() string {
	switch f {
	case FamilyPreferred:
		return "idb"
	case FamilyFallback:
		return "xcrun"
	default:
		return "unknown"
	}
}

func (f Family) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// Detector reports whether the preferred tool at path is usable.
type Detector func(ctx context.Context, path string) bool

// Availability is the tool situation a bridge is constructed from.
type Availability struct {
	PreferredToolPath    string
	HasFallbackToolchain bool
	Detect               Detector
}

// Invocation is a fully templated external process call.
// Env only holds overrides applied on top of the parent environment.
type Invocation struct {
	Path string
	Args []string
	Env  map[string]string
}

func (inv Invocation) String() string {
	parts := make([]string, 0, len(inv.Args)+1)
	parts = append(parts, inv.Path)
	for _, a := range inv.Args {
		if a == "" || strings.ContainsAny(a, " \t\"'") {
			a = fmt.Sprintf("%q", a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// Result is the captured output of a bounded invocation.
type Result struct {
	Stdout []byte
	Stderr []byte
}
