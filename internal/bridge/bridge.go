// Package bridge drives iOS devices through the best available external
// tool: the idb client when it is installed and usable, otherwise the Xcode
// toolchain through xcrun simctl.
//
// The tool family is resolved once by New. A Bridge is immutable and safe
// for concurrent use; every operation spawns its own child process.
package bridge

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// Bridge exposes device operations bound to a single tool family.
type Bridge struct {
	tc        toolchain
	runner    Runner
	logger    *log.Logger
	predicate string
}

type options struct {
	runner       Runner
	logger       *log.Logger
	fallbackPath string
	predicate    string
}

// Option configures New.
type Option func(*options)

// WithRunner replaces the process runner, mostly for tests.
func WithRunner(r Runner) Option { return func(o *options) { o.runner = r } }

func WithLogger(l *log.Logger) Option { return func(o *options) { o.logger = l } }

// WithFallbackPath sets the xcrun binary used by the fallback family.
func WithFallbackPath(p string) Option { return func(o *options) { o.fallbackPath = p } }

// WithLogPredicate overrides the log predicate passed to filtered streams.
func WithLogPredicate(p string) Option { return func(o *options) { o.predicate = p } }

// New resolves the tool family for avail and returns a bridge bound to it.
// The detector, when set, is consulted here and never again.
func New(ctx context.Context, avail Availability, opts ...Option) (*Bridge, error) {
	o := options{
		runner:       ExecRunner{},
		fallbackPath: "xcrun",
		predicate:    DefaultLogPredicate,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard)
	}
	if strings.TrimSpace(o.predicate) == "" {
		o.predicate = DefaultLogPredicate
	}

	tc, err := resolve(ctx, avail, o.fallbackPath)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("bridge ready", "family", tc.family(), "tool", tc.path())
	return &Bridge{tc: tc, runner: o.runner, logger: o.logger, predicate: o.predicate}, nil
}

func resolve(ctx context.Context, avail Availability, fallbackPath string) (toolchain, error) {
	if p := strings.TrimSpace(avail.PreferredToolPath); p != "" {
		if avail.Detect == nil || avail.Detect(ctx, p) {
			return idbToolchain{bin: p}, nil
		}
	}
	if avail.HasFallbackToolchain {
		return xcrunToolchain{bin: fallbackPath}, nil
	}
	return nil, ErrNoToolchainAvailable
}

// Family reports the tool family chosen at construction.
func (b *Bridge) Family() Family { return b.tc.family() }

// ToolPath is the binary every operation of b invokes.
func (b *Bridge) ToolPath() string { return b.tc.path() }

// LogListener is a running log stream.
type LogListener struct {
	Process
	Device Device
	// Structured is false when the stream carries raw text because the
	// tool could not apply the style and predicate flags for this device.
	Structured bool
}

// StartLogListener spawns a log stream for the device. Cancel ctx or call
// Stop to terminate it.
func (b *Bridge) StartLogListener(ctx context.Context, deviceID string, kind DeviceKind) (*LogListener, error) {
	if err := requireArg("device id", deviceID); err != nil {
		return nil, err
	}
	inv, structured := b.tc.logStream(deviceID, kind, b.predicate)
	if !structured {
		b.logger.Debug("log filtering unsupported on device, streaming unfiltered", "udid", deviceID, "kind", kind, "family", b.tc.family())
	}
	b.logger.Debug("starting log listener", "cmd", inv)
	proc, err := b.runner.Start(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("log listener for %s: %w", deviceID, err)
	}
	return &LogListener{Process: proc, Device: Device{ID: deviceID, Kind: kind}, Structured: structured}, nil
}

// Screenshot captures the device screen into outputPath.
func (b *Bridge) Screenshot(ctx context.Context, deviceID, outputPath string) error {
	if err := requireArg("device id", deviceID); err != nil {
		return err
	}
	if err := requireArg("output path", outputPath); err != nil {
		return err
	}
	return b.run(ctx, "screenshot", b.tc.screenshot(deviceID, outputPath))
}

// Navigate opens url on the device. The url is passed through verbatim.
func (b *Bridge) Navigate(ctx context.Context, deviceID, url string) error {
	if err := requireArg("device id", deviceID); err != nil {
		return err
	}
	if err := requireArg("url", url); err != nil {
		return err
	}
	return b.run(ctx, "navigate", b.tc.navigate(deviceID, url))
}

// Recording is a running video capture.
type Recording struct {
	Process
	Device     Device
	OutputPath string
}

// RecordVideo starts recording the device screen into outputPath and
// returns once the recorder is running. Stop finalizes the file.
func (b *Bridge) RecordVideo(ctx context.Context, deviceID, outputPath string) (*Recording, error) {
	if err := requireArg("device id", deviceID); err != nil {
		return nil, err
	}
	if err := requireArg("output path", outputPath); err != nil {
		return nil, err
	}
	inv := b.tc.recordVideo(deviceID, outputPath)
	b.logger.Debug("starting recording", "cmd", inv)
	proc, err := b.runner.Start(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("record video on %s: %w", deviceID, err)
	}
	return &Recording{Process: proc, Device: Device{ID: deviceID}, OutputPath: outputPath}, nil
}

func (b *Bridge) run(ctx context.Context, op string, inv Invocation) error {
	b.logger.Debug("running", "op", op, "cmd", inv)
	if _, err := b.runner.Run(ctx, inv); err != nil {
		b.logger.Debug("operation failed", "op", op, "err", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func requireArg(name, v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidArgument, name)
	}
	return nil
}
