// Package theme holds the terminal palette and shared lipgloss styles for the
// crew manifest panels.
package theme

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/crewmanifest/crewmanifest/internal/host"
	"github.com/muesli/termenv"
)

const (
	// Amber is the primary accent.
	Amber = "#FF9966"
	// Blue is informational text.
	Blue = "#9999CC"
	// Yellow marks the selected part.
	Yellow = "#FFCC00"
	// Green marks the transfer source.
	Green = "#33FF33"
	// Red marks the transfer target and errors.
	Red = "#FF3333"
	// Gray is the muted neutral.
	Gray = "#52526A"
	// White is the primary text color.
	White = "#F5F6FA"
	// LightGray is the secondary text color.
	LightGray = "#CCCCCC"
	// Violet is the focus ring color.
	Violet = "#9966FF"
	// Black is the background used for inverted badges.
	Black = "#000000"
)

// Profile-aware terminal colours for the palette above.
var (
	AmberColor     = paletteColor(Amber, "209", "11")
	BlueColor      = paletteColor(Blue, "146", "12")
	YellowColor    = paletteColor(Yellow, "220", "11")
	GreenColor     = paletteColor(Green, "46", "10")
	RedColor       = paletteColor(Red, "203", "9")
	GrayColor      = paletteColor(Gray, "60", "8")
	WhiteColor     = paletteColor(White, "255", "15")
	LightGrayColor = paletteColor(LightGray, "252", "7")
	VioletColor    = paletteColor(Violet, "99", "5")
	BlackColor     = paletteColor(Black, "16", "0")
)

var (
	// TitleStyle renders panel titles.
	TitleStyle = lipgloss.NewStyle().Foreground(AmberColor).Bold(true)
	// FocusedTitleStyle renders the focused panel title.
	FocusedTitleStyle = lipgloss.NewStyle().Foreground(VioletColor).Bold(true)
	// MutedStyle renders secondary text.
	MutedStyle = lipgloss.NewStyle().Foreground(GrayColor)
	// TextStyle renders primary text.
	TextStyle = lipgloss.NewStyle().Foreground(WhiteColor)
	// InfoStyle renders informational text.
	InfoStyle = lipgloss.NewStyle().Foreground(BlueColor)
	// WarningStyle renders warnings.
	WarningStyle = lipgloss.NewStyle().Foreground(YellowColor).Bold(true)
	// ErrorStyle renders errors.
	ErrorStyle = lipgloss.NewStyle().Foreground(RedColor).Bold(true)
	// CursorStyle renders the row under the cursor.
	CursorStyle = lipgloss.NewStyle().Background(VioletColor).Foreground(WhiteColor).Bold(true)

	// PanelBorder frames an unfocused panel.
	PanelBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(GrayColor).
			Padding(0, 1)

	// PanelBorderFocused frames the focused panel.
	PanelBorderFocused = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(VioletColor).
				Padding(0, 1).
				Bold(true)

	// DialogBorder frames modal forms.
	DialogBorder = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(AmberColor).
			Padding(0, 1)
)

// HighlightStyle maps a part highlight colour to the style used to draw the
// part's row. Unhighlighted parts use TextStyle.
func HighlightStyle(color host.HighlightColor) lipgloss.Style {
	switch color {
	case host.HighlightSelection:
		return lipgloss.NewStyle().Foreground(YellowColor).Bold(true)
	case host.HighlightSource:
		return lipgloss.NewStyle().Foreground(GreenColor).Bold(true)
	case host.HighlightTarget:
		return lipgloss.NewStyle().Foreground(RedColor).Bold(true)
	default:
		return TextStyle
	}
}

// StatusStyle colours a roster status.
func StatusStyle(status host.RosterStatus) lipgloss.Style {
	switch status {
	case host.StatusAvailable:
		return lipgloss.NewStyle().Foreground(GreenColor)
	case host.StatusAssigned:
		return InfoStyle
	case host.StatusDead:
		return ErrorStyle
	case host.StatusMissing:
		return WarningStyle
	default:
		return TextStyle
	}
}

var colorProfileFn = lipgloss.ColorProfile

func paletteColor(hex string, ansi256 string, ansi string) lipgloss.TerminalColor {
	switch colorProfileFn() {
	case termenv.ANSI256, termenv.ANSI:
		c := lipgloss.CompleteColor{TrueColor: hex, ANSI256: ansi256, ANSI: ansi}
		return lipgloss.CompleteAdaptiveColor{Light: c, Dark: c}
	default:
		return lipgloss.AdaptiveColor{Light: hex, Dark: hex}
	}
}
