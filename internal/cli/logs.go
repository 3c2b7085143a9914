package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"devbridge/internal/app"
	"devbridge/internal/bridge"
	"devbridge/internal/logstream"
	"devbridge/internal/system"
)

var (
	logsKind     string
	logsJSON     bool
	logsTUI      bool
	logsMinLevel string
)

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.Flags().StringVarP(&logsKind, "kind", "k", "emulator", "device kind: emulator or physical")
	logsCmd.Flags().BoolVar(&logsJSON, "json", false, "print one JSON object per entry")
	logsCmd.Flags().BoolVar(&logsTUI, "tui", false, "open the interactive log viewer")
	logsCmd.Flags().StringVar(&logsMinLevel, "level", "", "only print entries at or above this level")
}

var logsCmd = &cobra.Command{
	Use:   "logs <udid>",
	Short: "Stream logs from a simulator or device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := bridge.ParseDeviceKind(logsKind)
		if err != nil {
			return err
		}
		var minLevel logstream.Level
		if logsMinLevel != "" {
			if minLevel, err = logstream.ParseLevel(logsMinLevel); err != nil {
				return err
			}
		}
		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		b, err := newBridge(ctx)
		if err != nil {
			return err
		}
		l, err := b.StartLogListener(ctx, args[0], kind)
		if err != nil {
			return err
		}
		if logsTUI {
			return app.StartLogViewer(ctx, l)
		}
		defer func() { _ = l.Stop() }()
		system.Logger.Debug("streaming logs", "udid", args[0], "kind", kind, "structured", l.Structured)

		out := cmd.OutOrStdout()
		enc := json.NewEncoder(out)
		err = logstream.Decode(ctx, l.Stdout(), l.Structured, func(e logstream.Entry) error {
			if minLevel != "" && !e.Level.AtLeast(minLevel) {
				return nil
			}
			if logsJSON {
				return enc.Encode(e)
			}
			_, err := fmt.Fprintln(out, e.Format())
			return err
		})
		if err == nil {
			err = l.Wait()
		}
		if ctx.Err() != nil {
			// interrupted by the user
			return nil
		}
		return err
	},
}
