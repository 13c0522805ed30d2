// Package term resolves whether stderr gets ANSI colors and holds the few
// escape sequences the banner uses. Log colors are tint's business.
package term

import (
	"os"
	"strings"

	xterm "golang.org/x/term"

	"github.com/backmassage/calcanim/internal/config"
)

// Escape sequences; empty strings when colors are off.
var (
	Magenta = ""
	Green   = ""
	NC      = ""
)

// Configure resolves mode against stderr, where logs and the banner go, and
// sets the escape variables accordingly.
func Configure(mode config.ColorMode) bool {
	on := Resolve(mode, os.Stderr)
	if on {
		Magenta, Green, NC = "\033[1;95m", "\033[1;92m", "\033[0m"
	} else {
		Magenta, Green, NC = "", "", ""
	}
	return on
}

// Resolve reports whether f should get colors under mode. auto requires a
// TTY, an unset NO_COLOR (https://no-color.org) and TERM other than dumb.
func Resolve(mode config.ColorMode, f *os.File) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default:
		return IsTerminal(f) &&
			os.Getenv("NO_COLOR") == "" &&
			!strings.EqualFold(os.Getenv("TERM"), "dumb")
	}
}

// IsTerminal reports whether f is attached to a TTY.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return xterm.IsTerminal(int(f.Fd()))
}
