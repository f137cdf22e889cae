package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

func testButtons() []ToolbarButton {
	return []ToolbarButton{
		{Binding: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "Fill")), Enabled: true},
		{Binding: key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "Empty")), Enabled: false},
		{Binding: key.NewBinding(key.WithKeys("x")), Enabled: true},
	}
}

func TestRenderToolbar(t *testing.T) {
	t.Parallel()

	output := RenderToolbar(testButtons())
	for _, want := range []string{"[f]", "Fill", "[e]", "Empty"} {
		if !strings.Contains(output, want) {
			t.Fatalf("toolbar output %q missing %q", output, want)
		}
	}
	if strings.Contains(output, "[x]") {
		t.Fatalf("toolbar output %q should skip bindings without help", output)
	}
	if RenderToolbar(nil) != "" {
		t.Fatal("empty toolbar should render nothing")
	}
}

func TestMatchToolbarSkipsDisabledButtons(t *testing.T) {
	t.Parallel()

	buttons := testButtons()

	button, ok := MatchToolbar(buttons, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
	if !ok || button.Binding.Help().Desc != "Fill" {
		t.Fatalf("match f = %+v, %v; want Fill", button, ok)
	}
	if _, ok := MatchToolbar(buttons, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e")}); ok {
		t.Fatal("disabled button should not match")
	}
	if _, ok := MatchToolbar(buttons, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("z")}); ok {
		t.Fatal("unbound key should not match")
	}
}
