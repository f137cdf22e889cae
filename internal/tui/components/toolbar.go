package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/crewmanifest/crewmanifest/internal/tui/theme"
)

const toolbarSeparator = "  "

// ToolbarButton is one key-bound action shown along the bottom of a panel.
// A disabled button still renders, greyed out, so the layout stays stable
// when an action becomes unavailable (for example Fill outside pre-launch).
type ToolbarButton struct {
	Binding key.Binding
	Enabled bool
	Action  func() error
}

// RenderToolbar renders `[key] Label` buttons separated by two spaces.
func RenderToolbar(buttons []ToolbarButton) string {
	parts := make([]string, 0, len(buttons))
	for _, button := range buttons {
		if rendered := renderToolbarButton(button); rendered != "" {
			parts = append(parts, rendered)
		}
	}
	return strings.Join(parts, toolbarSeparator)
}

// MatchToolbar returns the first enabled button whose binding matches msg.
// Callers run the button's Action themselves.
func MatchToolbar(buttons []ToolbarButton, msg tea.KeyMsg) (ToolbarButton, bool) {
	for _, button := range buttons {
		if button.Enabled && key.Matches(msg, button.Binding) {
			return button, true
		}
	}
	return ToolbarButton{}, false
}

func renderToolbarButton(button ToolbarButton) string {
	help := button.Binding.Help()
	if help.Key == "" {
		return ""
	}

	keyStyle := lipgloss.NewStyle().Foreground(theme.AmberColor)
	labelStyle := lipgloss.NewStyle().Foreground(theme.WhiteColor)
	if !button.Enabled {
		keyStyle = lipgloss.NewStyle().Foreground(theme.GrayColor)
		labelStyle = keyStyle
	}
	return keyStyle.Render("["+help.Key+"]") + " " + labelStyle.Render(help.Desc)
}
