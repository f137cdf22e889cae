package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/crewmanifest/crewmanifest/internal/events"
	"github.com/crewmanifest/crewmanifest/internal/tui/theme"
)

const (
	eventLogMinWidth          = 24
	eventLogMinLines          = 2
	eventLogDefaultLines      = 6
	eventLogDefaultMaxEntries = 50
)

// EventLogConfig contains render-time settings for the event log.
type EventLogConfig struct {
	Width      int
	Height     int
	Events     []events.Event
	MaxEntries int
	// MinSeverity hides events below the given level. Empty shows everything.
	MinSeverity string
}

// BuildEventLogViewport constructs a viewport scrolled to the newest event.
func BuildEventLogViewport(config EventLogConfig) viewport.Model {
	width := max(config.Width, eventLogMinWidth)
	height := config.Height
	if height <= 0 {
		height = eventLogDefaultLines
	}
	height = max(height, eventLogMinLines)

	lines := formatEventLines(config.Events, config.MinSeverity, config.MaxEntries)
	if len(lines) == 0 {
		lines = []string{theme.MutedStyle.Faint(true).Render("No recent events")}
	}

	model := viewport.New(width, height)
	model.SetContent(strings.Join(lines, "\n"))
	model.GotoBottom()
	return model
}

// RenderEventLog renders the event viewport.
func RenderEventLog(config EventLogConfig) string {
	return BuildEventLogViewport(config).View()
}

func formatEventLines(list []events.Event, minSeverity string, maxEntries int) []string {
	threshold := severityRank(minSeverity)
	rows := make([]string, 0, len(list))
	for _, event := range list {
		if severityRank(event.Severity) < threshold {
			continue
		}
		rows = append(rows, renderEventRow(event))
	}

	limit := maxEntries
	if limit <= 0 {
		limit = eventLogDefaultMaxEntries
	}
	if len(rows) > limit {
		rows = append([]string(nil), rows[len(rows)-limit:]...)
	}
	return rows
}

func renderEventRow(event events.Event) string {
	severity := normalizeSeverity(event.Severity)
	timestamp := "--:--:--"
	if !event.Timestamp.IsZero() {
		timestamp = event.Timestamp.Format("15:04:05")
	}
	message := strings.TrimSpace(event.Message)
	if message == "" {
		message = "(no message)"
	}

	severityStyle := theme.InfoStyle.Bold(true)
	switch severity {
	case events.SeverityWarn:
		severityStyle = theme.WarningStyle
	case events.SeverityError:
		severityStyle = theme.ErrorStyle
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Left,
		severityStyle.Render(fmt.Sprintf("[%s]", severity)),
		" ",
		lipgloss.NewStyle().Foreground(theme.LightGrayColor).Render(timestamp),
		" ",
		theme.TextStyle.Render(event.Type),
		" ",
		theme.TextStyle.Render(message),
	)
}

func normalizeSeverity(severity string) string {
	switch strings.ToUpper(strings.TrimSpace(severity)) {
	case events.SeverityWarn, "WARNING":
		return events.SeverityWarn
	case events.SeverityError:
		return events.SeverityError
	default:
		return events.SeverityInfo
	}
}

func severityRank(severity string) int {
	if strings.TrimSpace(severity) == "" {
		return 0
	}
	switch normalizeSeverity(severity) {
	case events.SeverityWarn:
		return 1
	case events.SeverityError:
		return 2
	default:
		return 0
	}
}
