package ui

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// ShouldUseColor reports whether ANSI colors should be written to f.
// NO_COLOR wins over CLICOLOR_FORCE, which wins over CLICOLOR=0; otherwise
// color is used only when f is a terminal.
func ShouldUseColor(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if strings.TrimSpace(os.Getenv("CLICOLOR_FORCE")) == "1" {
		return true
	}
	if strings.TrimSpace(os.Getenv("CLICOLOR")) == "0" {
		return false
	}
	return f != nil && term.IsTerminal(int(f.Fd()))
}
