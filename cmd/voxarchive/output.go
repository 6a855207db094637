package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// writeHeading prints a section title, bold cyan when w is a terminal.
func writeHeading(w io.Writer, title string) {
	if isTerminal(w) {
		title = text.Colors{text.Bold, text.FgCyan}.Sprint(title)
	}
	fmt.Fprintf(w, "\n%s\n", title)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func formatPercent(value float64) string {
	return fmt.Sprintf("%.1f%%", value)
}
