package ui

import "os"

// nfEnabled returns true when Nerd Font icons should be rendered.
// Default to enabled; allow disabling via NERDFONT=0
func nfEnabled() bool {
	return os.Getenv("NERDFONT") != "0"
}

func nf(icon, fallback string) string {
	if nfEnabled() {
		return icon
	}
	return fallback
}

// Status bar icons
func IconTerminal() string { return nf("", ">") } // fa-terminal
func IconFilter() string   { return nf("", "/") } // fa-filter
func IconFollow() string   { return nf("", "v") } // fa-arrow-down
func IconPause() string    { return nf("", "=") } // fa-pause
func IconWarn() string     { return nf("", "!") } // fa-warning
