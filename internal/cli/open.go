package cli

import (
	"github.com/spf13/cobra"

	"devbridge/internal/system"
)

func init() {
	rootCmd.AddCommand(openCmd)
}

var openCmd = &cobra.Command{
	Use:   "open <udid> <url>",
	Short: "Open a URL or deep link on the device",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(cmd.Context())
		defer cancel()
		b, err := newBridge(ctx)
		if err != nil {
			return err
		}
		if err := b.Navigate(ctx, args[0], args[1]); err != nil {
			return err
		}
		system.Logger.Info("opened", "udid", args[0], "url", args[1])
		return nil
	},
}
