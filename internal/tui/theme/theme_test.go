package theme

import (
	"fmt"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/crewmanifest/crewmanifest/internal/host"
	"github.com/muesli/termenv"
)

func TestHighlightStylesAreDistinct(t *testing.T) {
	t.Parallel()

	colors := []host.HighlightColor{host.HighlightSelection, host.HighlightSource, host.HighlightTarget}
	seen := make(map[string]host.HighlightColor, len(colors))
	for _, color := range colors {
		fg := HighlightStyle(color).GetForeground()
		if fg == nil {
			t.Fatalf("highlight %q has nil foreground", color)
		}
		key := fmt.Sprint(fg)
		if previous, ok := seen[key]; ok {
			t.Fatalf("highlight %q renders like %q", color, previous)
		}
		seen[key] = color
	}

	if HighlightStyle(host.HighlightNone).GetBold() {
		t.Fatal("unhighlighted rows should not be bold")
	}
}

func TestStatusStyleCoversEveryStatus(t *testing.T) {
	t.Parallel()

	for _, status := range []host.RosterStatus{host.StatusAvailable, host.StatusAssigned, host.StatusDead, host.StatusMissing} {
		if StatusStyle(status).GetForeground() == nil {
			t.Fatalf("status %s has nil foreground", status)
		}
	}
}

func TestPanelBorders(t *testing.T) {
	t.Parallel()

	if border, _, _, _, _ := PanelBorder.GetBorder(); border.Top != lipgloss.RoundedBorder().Top {
		t.Fatalf("panel border top = %q, want rounded top %q", border.Top, lipgloss.RoundedBorder().Top)
	}
	if border, _, _, _, _ := DialogBorder.GetBorder(); border.Top != lipgloss.DoubleBorder().Top {
		t.Fatalf("dialog border top = %q, want double top %q", border.Top, lipgloss.DoubleBorder().Top)
	}
	if !PanelBorderFocused.GetBold() {
		t.Fatal("focused panel border should be bold")
	}
}

func TestPaletteColorRespectsProfile(t *testing.T) {
	original := colorProfileFn
	t.Cleanup(func() {
		colorProfileFn = original
	})

	colorProfileFn = func() termenv.Profile { return termenv.TrueColor }
	if _, ok := paletteColor(Amber, "209", "11").(lipgloss.AdaptiveColor); !ok {
		t.Fatal("truecolor profile should yield lipgloss.AdaptiveColor")
	}

	colorProfileFn = func() termenv.Profile { return termenv.ANSI256 }
	complete, ok := paletteColor(Amber, "209", "11").(lipgloss.CompleteAdaptiveColor)
	if !ok {
		t.Fatal("ansi256 profile should yield lipgloss.CompleteAdaptiveColor")
	}
	if complete.Dark.ANSI256 != "209" || complete.Light.ANSI != "11" {
		t.Fatalf("complete adaptive color = %#v", complete)
	}
}
