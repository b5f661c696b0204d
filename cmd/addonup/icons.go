package addonup

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/mistweaverco/addonup/internal/addon"
	"github.com/mistweaverco/addonup/internal/config"
)

// getColorConfigFunc provides access to the flags parsed in root.go
var getColorConfigFunc func() config.ConfigFlags

func SetColorConfigFunc(fn func() config.ConfigFlags) {
	getColorConfigFunc = fn
}

func getColorConfig() config.ConfigFlags {
	if getColorConfigFunc != nil {
		return getColorConfigFunc()
	}
	return config.ConfigFlags{Color: config.ColorModeAuto}
}

// isTerminalFn is an indirection for tests.
var isTerminalFn = func() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// shouldUseColors determines if colors/icons should be used based on color mode and TTY status
func shouldUseColors() bool {
	switch getColorConfig().Color {
	case config.ColorModeAlways:
		return true
	case config.ColorModeNever:
		return false
	default:
		return isTerminalFn()
	}
}

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

type icon struct {
	glyph, text, color string
}

func (i icon) String() string {
	if !shouldUseColors() {
		return i.text
	}
	return i.color + i.glyph + colorReset
}

var (
	iconCheck   = icon{"✓", "[✓]", colorGreen}
	iconClose   = icon{"✗", "[✗]", colorRed}
	iconAlert   = icon{"⚠", "[!]", colorYellow}
	iconRefresh = icon{"⟳", "[~]", colorCyan}
	iconDown    = icon{"⤓", "[v]", colorGreen}
)

func IconCheck() string   { return iconCheck.String() }
func IconClose() string   { return iconClose.String() }
func IconAlert() string   { return iconAlert.String() }
func IconRefresh() string { return iconRefresh.String() }

// PanelIcon renders a preference panel icon for the terminal.
func PanelIcon(i addon.Icon) string {
	switch i {
	case addon.IconFileRefresh:
		return iconRefresh.String()
	case addon.IconTriaDownBar:
		return iconDown.String()
	case addon.IconCancel:
		return iconClose.String()
	case addon.IconError:
		return iconAlert.String()
	}
	return ""
}
