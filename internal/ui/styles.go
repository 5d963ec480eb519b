// Package ui renders CLI output with optional ANSI 256 colors.
package ui

import "fmt"

const (
	colorAccent = 74  // blue
	colorOpen   = 71  // green
	colorCook   = 179 // amber
	colorClosed = 167 // red
	colorMuted  = 245 // gray
)

var noColor bool

func paint(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return paint(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return paint(colorMuted, s) }

// RenderOpen returns s in green.
func RenderOpen(s string) string { return paint(colorOpen, s) }

// RenderCooking returns s in amber.
func RenderCooking(s string) string { return paint(colorCook, s) }

// RenderClosed returns s in red.
func RenderClosed(s string) string { return paint(colorClosed, s) }

// RenderState colors a status line by the shop state it describes.
func RenderState(open, cooking bool, s string) string {
	switch {
	case open:
		return RenderOpen(s)
	case cooking:
		return RenderCooking(s)
	default:
		return RenderClosed(s)
	}
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
