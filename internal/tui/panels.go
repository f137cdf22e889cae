package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/crewmanifest/crewmanifest/internal/host"
	"github.com/crewmanifest/crewmanifest/internal/roster"
	"github.com/crewmanifest/crewmanifest/internal/tui/components"
	"github.com/crewmanifest/crewmanifest/internal/tui/theme"
)

const (
	columnSourceParts = iota
	columnSourceCrew
	columnTargetParts
)

const (
	debugEventLines = 4
	cursorMarker    = "▸ "
	noCursorMarker  = "  "
)

// Manifest panel.

func (m *Model) manifestPart() host.Part {
	if selected := m.ctrl.SelectedPart(); selected != nil {
		return selected
	}
	part, _ := cursorAt(m.ctrl.CrewableParts(), m.cursor[PanelManifest])
	return part
}

func (m *Model) manifestButtons() []components.ToolbarButton {
	preLaunch := m.ctrl.IsPreLaunch()
	part := m.manifestPart()
	return []components.ToolbarButton{
		{
			Binding: m.keys.Fill,
			Enabled: preLaunch,
			Action:  func() error { return m.ctrl.FillVessel(m.ctx) },
		},
		{
			Binding: m.keys.Empty,
			Enabled: preLaunch,
			Action:  func() error { return m.ctrl.EmptyVessel(m.ctx) },
		},
		{
			Binding: m.keys.AddCrew,
			Enabled: preLaunch && part != nil && !host.PartIsFull(part),
			Action: func() error {
				_, err := m.ctrl.AddCrew(m.ctx, part, 1)
				return err
			},
		},
		{
			Binding: m.keys.RemoveCrew,
			Enabled: preLaunch && part != nil && len(part.Crew()) > 0,
			Action: func() error {
				crew := part.Crew()
				return m.ctrl.RemoveCrew(m.ctx, part, crew[len(crew)-1])
			},
		},
	}
}

func (m *Model) handleManifestKey(msg tea.KeyMsg) {
	parts := m.ctrl.CrewableParts()
	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(PanelManifest, -1, len(parts))
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(PanelManifest, 1, len(parts))
	case key.Matches(msg, m.keys.Choose):
		if part, ok := cursorAt(parts, m.cursor[PanelManifest]); ok {
			m.setStatus(m.ctrl.ToggleSelectedPart(part))
		}
	default:
		m.runToolbar(m.manifestButtons(), msg)
	}
}

func (m *Model) renderManifest() string {
	parts := m.ctrl.CrewableParts()
	lines := make([]string, 0, len(parts)+3)
	if len(parts) == 0 {
		lines = append(lines, theme.MutedStyle.Render("No crewable parts."))
	}
	for i, part := range parts {
		row := fmt.Sprintf("%s %d/%d", part.Title(), len(part.Crew()), part.CrewCapacity())
		lines = append(lines, m.row(PanelManifest, i, theme.HighlightStyle(m.ctrl.Highlight(part)).Render(row)))
		if part == m.ctrl.SelectedPart() {
			for _, member := range part.Crew() {
				lines = append(lines, "    "+theme.MutedStyle.Render(member.Name))
			}
		}
	}
	if !m.ctrl.IsPreLaunch() {
		lines = append(lines, "", theme.MutedStyle.Render("Crew changes need a launch site."))
	}
	lines = append(lines, "", components.RenderToolbar(m.manifestButtons()))
	return m.frame(PanelManifest, "Manifest", lines...)
}

// Transfer panel.

func (m *Model) transferColumns() (sources []host.Part, crew []*host.Kerbal, targets []host.Part) {
	sources = m.ctrl.SourceParts()
	if source := m.ctrl.SourcePart(); source != nil {
		crew = source.Crew()
	}
	targets = m.ctrl.TargetParts()
	return sources, crew, targets
}

func (m *Model) handleTransferKey(msg tea.KeyMsg) {
	sources, crew, targets := m.transferColumns()
	lengths := [3]int{len(sources), len(crew), len(targets)}
	switch {
	case key.Matches(msg, m.keys.Left):
		m.column = next(m.column, -1, len(lengths))
	case key.Matches(msg, m.keys.Right):
		m.column = next(m.column, 1, len(lengths))
	case key.Matches(msg, m.keys.Up):
		m.columnCursor[m.column] = max(m.columnCursor[m.column]-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.columnCursor[m.column] = max(min(m.columnCursor[m.column]+1, lengths[m.column]-1), 0)
	case key.Matches(msg, m.keys.Choose):
		m.chooseTransfer(sources, crew, targets)
	}
}

func (m *Model) chooseTransfer(sources []host.Part, crew []*host.Kerbal, targets []host.Part) {
	switch m.column {
	case columnSourceParts:
		if part, ok := cursorAt(sources, m.columnCursor[columnSourceParts]); ok {
			m.setStatus(m.ctrl.SetSourcePart(part))
			m.columnCursor[columnSourceCrew] = 0
		}
	case columnTargetParts:
		if part, ok := cursorAt(targets, m.columnCursor[columnTargetParts]); ok {
			m.setStatus(m.ctrl.SetTargetPart(part))
		}
	case columnSourceCrew:
		member, ok := cursorAt(crew, m.columnCursor[columnSourceCrew])
		if !ok {
			return
		}
		source, target := m.ctrl.SourcePart(), m.ctrl.TargetPart()
		if target == nil {
			m.status, m.statusErr = "Choose a target part first.", true
			return
		}
		if err := m.ctrl.MoveCrew(m.ctx, source, target, member); err != nil {
			m.setStatus(err)
			return
		}
		m.status, m.statusErr = fmt.Sprintf("Moving %s to %s.", member.Name, target.Title()), false
	}
}

func (m *Model) renderTransfer() string {
	sources, crew, targets := m.transferColumns()

	sourceLines := []string{m.columnTitle(columnSourceParts, "Source")}
	for i, part := range sources {
		sourceLines = append(sourceLines, m.columnRow(columnSourceParts, i, m.partLabel(part)))
	}
	crewLines := []string{m.columnTitle(columnSourceCrew, "Crew")}
	for i, member := range crew {
		crewLines = append(crewLines, m.columnRow(columnSourceCrew, i, theme.TextStyle.Render(member.Name)))
	}
	if m.ctrl.SourcePart() == nil {
		crewLines = append(crewLines, theme.MutedStyle.Render("pick a source"))
	}
	targetLines := []string{m.columnTitle(columnTargetParts, "Target")}
	for i, part := range targets {
		targetLines = append(targetLines, m.columnRow(columnTargetParts, i, m.partLabel(part)))
	}

	body := lipgloss.JoinHorizontal(
		lipgloss.Top,
		lipgloss.NewStyle().PaddingRight(2).Render(strings.Join(sourceLines, "\n")),
		lipgloss.NewStyle().PaddingRight(2).Render(strings.Join(crewLines, "\n")),
		strings.Join(targetLines, "\n"),
	)

	state := theme.MutedStyle.Render("idle")
	if pending, ok := m.ctrl.PendingTransfer(); ok {
		state = theme.WarningStyle.Render("moving " + pending.Member.Name)
	}
	return m.frame(PanelTransfer, "Transfer Crew", body, "", state)
}

func (m *Model) partLabel(part host.Part) string {
	label := fmt.Sprintf("%s %d/%d", part.Title(), len(part.Crew()), part.CrewCapacity())
	return theme.HighlightStyle(m.ctrl.Highlight(part)).Render(label)
}

func (m *Model) columnTitle(column int, title string) string {
	if m.focus == PanelTransfer && m.column == column {
		return theme.FocusedTitleStyle.Render(title)
	}
	return theme.MutedStyle.Render(title)
}

func (m *Model) columnRow(column, index int, label string) string {
	marker := noCursorMarker
	if m.focus == PanelTransfer && m.column == column && m.columnCursor[column] == index {
		marker = cursorMarker
	}
	return marker + label
}

// Roster panel.

func (m *Model) rosterMember() (*host.Kerbal, bool) {
	return cursorAt(m.ctrl.Roster().Crew(), m.cursor[PanelRoster])
}

func (m *Model) rosterButtons() []components.ToolbarButton {
	member, ok := m.rosterMember()
	selected := m.ctrl.SelectedPart()
	return []components.ToolbarButton{
		{
			Binding: m.keys.Edit,
			Enabled: ok,
			Action: func() error {
				m.form = newEditorForm(roster.Edit(member, roster.WithLogger(m.logger)))
				return nil
			},
		},
		{
			Binding: m.keys.Create,
			Enabled: true,
			Action: func() error {
				m.form = newEditorForm(roster.Create(m.ctrl.Roster().Prototype(), roster.WithLogger(m.logger)))
				return nil
			},
		},
		{
			Binding: m.keys.Respawn,
			Enabled: ok && member.Unavailable(),
			Action:  func() error { return roster.Respawn(member) },
		},
		{
			Binding: m.keys.Assign,
			Enabled: ok && selected != nil && member.Status == host.StatusAvailable && m.ctrl.IsPreLaunch(),
			Action:  func() error { return m.ctrl.AddKerbal(m.ctx, selected, member) },
		},
	}
}

func (m *Model) handleRosterKey(msg tea.KeyMsg) tea.Cmd {
	crew := m.ctrl.Roster().Crew()
	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(PanelRoster, -1, len(crew))
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(PanelRoster, 1, len(crew))
	default:
		m.runToolbar(m.rosterButtons(), msg)
	}
	return nil
}

func (m *Model) renderRoster() string {
	crew := m.ctrl.Roster().Crew()
	lines := make([]string, 0, len(crew)+2)
	if len(crew) == 0 {
		lines = append(lines, theme.MutedStyle.Render("Roster is empty."))
	}
	for i, member := range crew {
		flags := ""
		if member.Badass {
			flags = " ★"
		}
		row := fmt.Sprintf("%-22s %s  C%.2f S%.2f%s",
			member.Name,
			theme.StatusStyle(member.Status).Render(fmt.Sprintf("%-9s", member.Status)),
			member.Courage,
			member.Stupidity,
			flags,
		)
		lines = append(lines, m.row(PanelRoster, i, row))
	}
	lines = append(lines, "", components.RenderToolbar(m.rosterButtons()))
	return m.frame(PanelRoster, "Roster", lines...)
}

// Debug panel.

func (m *Model) renderDebug() string {
	rect := rectOf(ptr(m.session.Settings()), PanelDebug)
	logLines := max(rect.Height-debugEventLines-3, 1)

	body := []string{components.RenderEventLog(components.EventLogConfig{
		Width:  rect.Width - 2,
		Height: debugEventLines,
		Events: m.events,
	})}
	if m.debug != nil {
		body = append(body, "")
		for _, line := range m.debug.Tail(logLines) {
			body = append(body, theme.MutedStyle.Render(truncate(line, rect.Width-2)))
		}
	}
	return m.frame(PanelDebug, "Debug", body...)
}

// Launcher.

func (m *Model) renderLauncher() string {
	windows := m.ctrl.Windows()
	return components.RenderToolbar([]components.ToolbarButton{
		{Binding: m.keys.ToggleManifest, Enabled: true},
		{Binding: m.keys.ToggleTransfer, Enabled: windows.Manifest},
		{Binding: m.keys.ToggleRoster, Enabled: windows.Manifest},
		{Binding: m.keys.ToggleDebug, Enabled: true},
	})
}

func (m *Model) runToolbar(buttons []components.ToolbarButton, msg tea.KeyMsg) {
	button, ok := components.MatchToolbar(buttons, msg)
	if !ok || button.Action == nil {
		return
	}
	if err := button.Action(); err != nil {
		m.setStatus(err)
		return
	}
	m.status, m.statusErr = "", false
}

func (m *Model) row(panel Panel, index int, label string) string {
	if m.focus == panel && m.cursor[panel] == index {
		return cursorMarker + label
	}
	return noCursorMarker + label
}

func truncate(line string, width int) string {
	if width <= 0 {
		return line
	}
	runes := []rune(line)
	if len(runes) <= width {
		return line
	}
	return string(runes[:width])
}
