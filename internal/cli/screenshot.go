package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var screenshotOut string

func init() {
	rootCmd.AddCommand(screenshotCmd)
	screenshotCmd.Flags().StringVarP(&screenshotOut, "output", "o", "", "output file (default <udid>-<time>.png)")
}

var screenshotCmd = &cobra.Command{
	Use:   "screenshot <udid>",
	Short: "Capture the device screen to a PNG file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(cmd.Context())
		defer cancel()
		b, err := newBridge(ctx)
		if err != nil {
			return err
		}
		out := screenshotOut
		if out == "" {
			out = defaultOutput(args[0], time.Now(), ".png")
		}
		if err := b.Screenshot(ctx, args[0], out); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ saved %s\n", out)
		return nil
	},
}

func defaultOutput(udid string, t time.Time, ext string) string {
	return fmt.Sprintf("%s-%s%s", udid, t.Format("20060102-150405"), ext)
}
