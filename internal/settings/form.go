// Package settings provides the interactive config editor.
package settings

import (
	"fmt"
	"net"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"devbridge/internal/config"
)

// Run reads the config file at path, lets the user edit it in a form and
// saves the result on submit. Environment overrides are not applied, so
// they never end up in the file.
func Run(path string) error {
	cfg, err := config.Read(path)
	if err != nil {
		return err
	}
	form := newForm(&cfg)
	if err := form.Run(); err != nil {
		return err // form canceled or failed
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Printf("\n✓ saved %s\n\n", path)
	return nil
}

func newForm(cfg *config.Config) *huh.Form {
	// Light theme tweaks inspired by freeze/interactive.go
	green := lipgloss.Color("#03BF87")
	theme := huh.ThemeCharm()
	theme.FieldSeparator = lipgloss.NewStyle()
	theme.Blurred.Title = theme.Blurred.Title.Width(18).Foreground(lipgloss.Color("7"))
	theme.Focused.Title = theme.Focused.Title.Width(18).Foreground(green).Bold(true)
	theme.Blurred.SelectedOption = theme.Blurred.SelectedOption.Foreground(lipgloss.Color("243"))
	theme.Focused.SelectedOption = lipgloss.NewStyle().Foreground(green)
	theme.Focused.Base.BorderForeground(green)

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().Title("idb").Description("Preferred tool for simulators and devices"),
			huh.NewInput().
				Title("Path").
				Placeholder("look up idb on PATH").
				Value(&cfg.Idb.Path),
			huh.NewConfirm().
				Title("Disable idb").
				Value(&cfg.Idb.Disabled),
		),
		huh.NewGroup(
			huh.NewNote().Title("Xcode").Description("Fallback toolchain, simulators only"),
			huh.NewSelect[config.XcodeMode]().
				Title("Mode").
				Options(
					huh.NewOption("auto (probe for simctl)", config.XcodeAuto),
					huh.NewOption("always", config.XcodeAlways),
					huh.NewOption("never", config.XcodeNever),
				).
				Value(&cfg.Xcode.Mode),
			huh.NewInput().
				Title("xcrun").
				Value(&cfg.Xcode.Xcrun),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Log level").
				Options(huh.NewOptions("debug", "info", "warn", "error")...).
				Value(&cfg.Log.Level),
			huh.NewInput().
				Title("Log predicate").
				Value(&cfg.Log.Predicate),
			huh.NewInput().
				Title("Server addr").
				Value(&cfg.Server.Addr).
				Validate(validateAddr),
		),
	).WithTheme(theme).WithWidth(72)
}

func validateAddr(s string) error {
	if _, _, err := net.SplitHostPort(s); err != nil {
		return fmt.Errorf("want host:port")
	}
	return nil
}
