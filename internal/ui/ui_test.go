package ui

import (
	"os"
	"testing"
)

func TestShouldUseColor(t *testing.T) {
	tests := []struct {
		name    string
		noColor string
		force   string
		cli     string
		want    bool
	}{
		{"NO_COLOR wins", "1", "1", "", false},
		{"forced", "", "1", "0", true},
		{"disabled", "", "", "0", false},
		{"not a terminal", "", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", tt.noColor)
			t.Setenv("CLICOLOR_FORCE", tt.force)
			t.Setenv("CLICOLOR", tt.cli)

			f, err := os.CreateTemp(t.TempDir(), "out")
			if err != nil {
				t.Fatal(err)
			}
			defer f.Close()

			if got := ShouldUseColor(f); got != tt.want {
				t.Errorf("ShouldUseColor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRenderState(t *testing.T) {
	saved := noColor
	t.Cleanup(func() { noColor = saved })
	noColor = false

	if got := RenderState(true, false, "Shop is open"); got != "\x1b[38;5;71mShop is open\x1b[0m" {
		t.Errorf("open = %q", got)
	}
	if got := RenderState(false, true, "x"); got != "\x1b[38;5;179mx\x1b[0m" {
		t.Errorf("cooking = %q", got)
	}
	if got := RenderState(false, false, "x"); got != "\x1b[38;5;167mx\x1b[0m" {
		t.Errorf("closed = %q", got)
	}

	ForceNoColor()
	if got := RenderState(true, false, "plain"); got != "plain" {
		t.Errorf("no color = %q", got)
	}
}
