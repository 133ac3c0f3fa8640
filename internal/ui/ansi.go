package ui

import (
	"fmt"
	"io"
	"os"
)

const (
	reset = "\033[0m"
	bold  = "\033[1m"
	faint = "\033[2m"

	gray    = "\033[90m"
	green   = "\033[32m"
	yellow  = "\033[33m"
	blue    = "\033[34m"
	red     = "\033[31m"
	magenta = "\033[95m"
	cyan    = "\033[96m"
	amber   = "\033[93m"
)

// colorMode is "auto", "always" or "never".
var colorMode = "auto"

// SetColorMode picks when C emits escape codes. Unknown modes mean auto.
func SetColorMode(mode string) {
	switch mode {
	case "always", "never":
		colorMode = mode
	default:
		colorMode = "auto"
	}
}

func stdoutIsTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// C wraps s in color when the mode and the current theme allow it.
func C(color, s string) string {
	if color == "" || current.Plain || colorMode == "never" {
		return s
	}
	if colorMode == "always" || stdoutIsTerminal() {
		return color + s + reset
	}
	return s
}

// Dim is used for row numbers and hints.
func Dim(s string) string { return C(faint, s) }

// OK confirms a change to the list, e.g. "✔ added".
func OK(w io.Writer, msg string) {
	fmt.Fprintln(w, C(current.Bought, current.MarkOK+" "+msg))
}

// Fail reports a rejected command or a store error.
func Fail(w io.Writer, msg string) {
	fmt.Fprintln(w, C(current.Problem, current.MarkFail+" "+msg))
}
