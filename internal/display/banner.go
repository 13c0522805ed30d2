package display

import (
	"fmt"
	"io"

	"github.com/backmassage/calcanim/internal/term"
)

// PrintBanner writes the banner and version line to w.
func PrintBanner(w io.Writer, version string) {
	fmt.Fprint(w, term.Magenta)
	fmt.Fprint(w, `           _                  _
  ___ __ _| | ___ __ _ _ __  (_)_ __ ___
 / __/ _`+"`"+` | |/ __/ _`+"`"+` | '_ \ | | '_ `+"`"+` _ \
| (_| (_| | | (_| (_| | | | || | | | | | |
 \___\__,_|_|\___\__,_|_| |_||_|_| |_| |_|
`)
	fmt.Fprint(w, term.NC)
	fmt.Fprintf(w, "  %sv%s%s  video to TI-84 Plus CE projects\n\n", term.Green, version, term.NC)
}
