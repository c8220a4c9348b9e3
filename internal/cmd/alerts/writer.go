package alerts

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Writer prints alerts as text, coloured when the destination is a terminal.
type Writer struct {
	w     io.Writer
	color bool
}

// NewWriter creates a Writer for w. noColor, or a set NO_COLOR variable,
// disables colour even on a terminal.
func NewWriter(w io.Writer, noColor bool) *Writer {
	noColor = noColor || os.Getenv("NO_COLOR") != ""
	return &Writer{w: w, color: !noColor && isTerminal(w)}
}

// Write prints each alert and its indented details.
func (aw *Writer) Write(alerts ...*Alert) error {
	for _, a := range alerts {
		line := a.String()
		if aw.color {
			line = a.Level.Color() + line + resetColor
		}
		if _, err := fmt.Fprintln(aw.w, line); err != nil {
			return err
		}
		for _, d := range a.Details {
			if _, err := fmt.Fprintf(aw.w, "   %s\n", d); err != nil {
				return err
			}
		}
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
