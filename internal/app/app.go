// Package app wires configuration, tool detection and the bridge into the
// operations the CLI and HTTP server expose.
package app

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"devbridge/internal/bridge"
	"devbridge/internal/logstream"
	"devbridge/internal/ui"
)

// StartLogViewer decodes l into the full-screen log viewer and stops the
// listener when the viewer exits.
func StartLogViewer(ctx context.Context, l *bridge.LogListener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	entries := make(chan logstream.Entry, 512)
	errs := make(chan error, 1)
	go func() {
		err := logstream.Decode(ctx, l.Stdout(), l.Structured, func(e logstream.Entry) error {
			select {
			case entries <- e:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		close(entries)
		if err == nil {
			err = l.Wait()
		}
		errs <- err
		close(errs)
	}()

	p := tea.NewProgram(ui.NewLogViewer(l.Device.ID, entries, errs), tea.WithAltScreen(), tea.WithContext(ctx))
	_, runErr := p.Run()
	cancel()
	stopErr := l.Stop()
	if errors.Is(runErr, tea.ErrProgramKilled) && ctx.Err() != nil {
		runErr = nil
	}
	if runErr != nil {
		return runErr
	}
	return stopErr
}
