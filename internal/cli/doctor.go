package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"devbridge/internal/app"
	"devbridge/internal/ui"
)

var doctorJSON bool

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "output JSON report")
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check idb, Xcode and which tool devbridge will use",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}
		rep := app.Diagnose(cmd.Context(), cfg, path)
		out := cmd.OutOrStdout()
		if doctorJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(rep); err != nil {
				return err
			}
		} else {
			md, err := ui.RenderMarkdown(rep.Markdown(), 100)
			if err != nil {
				// fall back to raw markdown
				md = rep.Markdown()
			}
			fmt.Fprint(out, md)
		}
		if !rep.OK {
			return errors.New("doctor found problems")
		}
		return nil
	},
}
