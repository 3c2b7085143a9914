package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"devbridge/internal/system"
)

var recordDuration time.Duration

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.Flags().DurationVarP(&recordDuration, "duration", "d", 0, "stop after this long (default: until Ctrl+C)")
}

var recordCmd = &cobra.Command{
	Use:   "record <udid> [output]",
	Short: "Record the device screen until interrupted",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(cmd.Context())
		defer cancel()
		if recordDuration > 0 {
			var tcancel context.CancelFunc
			ctx, tcancel = context.WithTimeout(ctx, recordDuration)
			defer tcancel()
		}
		b, err := newBridge(ctx)
		if err != nil {
			return err
		}
		out := defaultOutput(args[0], time.Now(), ".mp4")
		if len(args) == 2 {
			out = args[1]
		}

		// Stop interrupts the recorder itself so it can finalize the file.
		rec, err := b.RecordVideo(context.WithoutCancel(ctx), args[0], out)
		if err != nil {
			return err
		}
		system.Logger.Info("recording, press Ctrl+C to stop", "udid", args[0], "out", out)

		done := make(chan error, 1)
		go func() { done <- rec.Wait() }()
		select {
		case <-ctx.Done():
		case err := <-done:
			// the interrupt may reach the recorder before ctx is done
			if err != nil && ctx.Err() == nil {
				return err
			}
		}
		if ctx.Err() != nil {
			system.Logger.Info("stopping recording")
			if err := rec.Stop(); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ saved %s\n", out)
		return nil
	},
}
