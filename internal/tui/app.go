// Package tui is the terminal front end of the crew manifest. One Model owns
// the active vessel, drives the session tick and renders the manifest,
// transfer, roster and debug panels.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/crewmanifest/crewmanifest/internal/events"
	"github.com/crewmanifest/crewmanifest/internal/host"
	"github.com/crewmanifest/crewmanifest/internal/logging"
	"github.com/crewmanifest/crewmanifest/internal/manifest"
	"github.com/crewmanifest/crewmanifest/internal/session"
	"github.com/crewmanifest/crewmanifest/internal/settings"
	"github.com/crewmanifest/crewmanifest/internal/tui/theme"
)

const (
	// DefaultTickInterval is the period between session ticks.
	DefaultTickInterval = 50 * time.Millisecond
	// MinPanelWidth and MaxPanelWidth bound panel resizing.
	MinPanelWidth = 24
	MaxPanelWidth = 120

	maxEventHistory = 100
	resizeStep      = 4
)

// Panel identifies one of the manifest windows.
type Panel string

const (
	// PanelManifest lists the vessel's crewable parts.
	PanelManifest Panel = "manifest"
	// PanelTransfer moves crew between parts.
	PanelTransfer Panel = "transfer"
	// PanelRoster lists and edits the crew roster.
	PanelRoster Panel = "roster"
	// PanelDebug shows recent log lines and bus events.
	PanelDebug Panel = "debug"
)

var panelOrder = []Panel{PanelManifest, PanelTransfer, PanelRoster, PanelDebug}

type tickMsg time.Time

type eventMsg events.Event

// Option configures a Model.
type Option func(*Model)

// WithTickInterval overrides DefaultTickInterval.
func WithTickInterval(interval time.Duration) Option {
	return func(m *Model) {
		if interval > 0 {
			m.interval = interval
		}
	}
}

// WithDebugBuffer shows buffer's tail in the debug panel.
func WithDebugBuffer(buffer *logging.DebugBuffer) Option {
	return func(m *Model) {
		m.debug = buffer
	}
}

// WithEvents feeds bus events into the model. See Forward.
func WithEvents(incoming <-chan events.Event) Option {
	return func(m *Model) {
		m.incoming = incoming
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// Model is the root Bubble Tea model.
type Model struct {
	ctx      context.Context
	session  *session.Session
	vessel   host.Vessel
	ctrl     *manifest.Controller
	logger   *log.Logger
	debug    *logging.DebugBuffer
	incoming <-chan events.Event
	interval time.Duration

	keys   keyMap
	help   help.Model
	focus  Panel
	cursor map[Panel]int
	// column is the focused transfer column: source parts, source crew,
	// target parts.
	column       int
	columnCursor [3]int
	form         *editorForm
	events       []events.Event
	status       string
	statusErr    bool
	width        int
	height       int
	quitting     bool
}

// New builds a model for vessel and runs the first session tick so the
// vessel's controller exists before the first render.
func New(ctx context.Context, sess *session.Session, vessel host.Vessel, options ...Option) (*Model, error) {
	if sess == nil {
		return nil, errors.New("session is required")
	}
	if vessel == nil {
		return nil, errors.New("vessel is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	m := &Model{
		ctx:      ctx,
		session:  sess,
		vessel:   vessel,
		logger:   logging.Discard(),
		interval: DefaultTickInterval,
		keys:     defaultKeyMap(),
		help:     help.New(),
		focus:    PanelManifest,
		cursor:   make(map[Panel]int, len(panelOrder)),
	}
	for _, option := range options {
		if option != nil {
			option(m)
		}
	}
	m.logger = m.logger.With("component", "tui")

	ctrl, err := sess.Tick(ctx, vessel)
	if err != nil {
		return nil, fmt.Errorf("initial tick: %w", err)
	}
	m.ctrl = ctrl
	return m, nil
}

// Forward subscribes to every event on bus and returns a channel the model
// can drain through WithEvents. Events are dropped while the channel is full
// so a stalled UI never blocks the bus.
func Forward(bus events.Bus, size int) <-chan events.Event {
	if size <= 0 {
		size = events.DefaultBufferSize
	}
	out := make(chan events.Event, size)
	bus.SubscribeAll(func(event events.Event) {
		select {
		case out <- event:
		default:
		}
	})
	return out
}

// Init satisfies tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.waitForEvent())
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) waitForEvent() tea.Cmd {
	if m.incoming == nil {
		return nil
	}
	incoming := m.incoming
	return func() tea.Msg {
		event, ok := <-incoming
		if !ok {
			return nil
		}
		return eventMsg(event)
	}
}

// Update satisfies tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		m.help.Width = typed.Width
		return m, nil
	case tickMsg:
		ctrl, err := m.session.Tick(m.ctx, m.vessel)
		if err != nil {
			m.setStatus(err)
			return m, nil
		}
		m.ctrl = ctrl
		m.ensureFocus()
		return m, m.tick()
	case eventMsg:
		m.record(events.Event(typed))
		return m, m.waitForEvent()
	case tea.KeyMsg:
		if m.form != nil {
			return m, m.handleForm(typed)
		}
		return m.handleKey(typed)
	default:
		if m.form != nil {
			return m, m.handleForm(msg)
		}
		return m, nil
	}
}

func (m *Model) record(event events.Event) {
	m.events = append(m.events, event)
	if len(m.events) > maxEventHistory {
		m.events = append([]events.Event(nil), m.events[len(m.events)-maxEventHistory:]...)
	}
	switch event.Type {
	case events.EventTypeScreenMessage:
		m.status, m.statusErr = event.Message, false
	case events.EventTypeTransferDropped:
		m.status, m.statusErr = event.Message, true
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		if err := m.session.Close(); err != nil {
			m.logger.Error("final settings save failed", "err", err)
		}
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.ToggleManifest):
		visible, err := m.session.ToggleWindow(m.vessel)
		if err != nil {
			m.setStatus(err)
			break
		}
		if visible {
			m.focus = PanelManifest
		}
	case key.Matches(msg, m.keys.ToggleTransfer):
		if m.requireManifest() {
			m.ctrl.ToggleTransferWindow()
			m.focusIfOpen(PanelTransfer, m.ctrl.Windows().Transfer)
		}
	case key.Matches(msg, m.keys.ToggleRoster):
		if m.requireManifest() {
			m.ctrl.ToggleRosterWindow()
			m.focusIfOpen(PanelRoster, m.ctrl.Windows().Roster)
		}
	case key.Matches(msg, m.keys.ToggleDebug):
		m.session.UpdateSettings(func(s *settings.Settings) { s.ShowDebugger = !s.ShowDebugger })
		m.focusIfOpen(PanelDebug, m.session.Settings().ShowDebugger)
	case key.Matches(msg, m.keys.NextPanel):
		m.cycleFocus(1)
	case key.Matches(msg, m.keys.PrevPanel):
		m.cycleFocus(-1)
	case key.Matches(msg, m.keys.Grow):
		m.resizeFocused(resizeStep)
	case key.Matches(msg, m.keys.Shrink):
		m.resizeFocused(-resizeStep)
	default:
		return m, m.handlePanelKey(msg)
	}
	m.ensureFocus()
	return m, nil
}

func (m *Model) handlePanelKey(msg tea.KeyMsg) tea.Cmd {
	if !m.isVisible(m.focus) {
		return nil
	}
	switch m.focus {
	case PanelManifest:
		m.handleManifestKey(msg)
	case PanelTransfer:
		m.handleTransferKey(msg)
	case PanelRoster:
		return m.handleRosterKey(msg)
	}
	return nil
}

// handleForm routes keys and huh's internal messages to the open form.
func (m *Model) handleForm(msg tea.Msg) tea.Cmd {
	result, cmd := m.form.update(msg)
	switch result {
	case formCancelled:
		m.form = nil
		return nil
	case formSubmitted:
		if err := m.form.editor.Submit(m.ctx, m.ctrl.Roster()); err != nil {
			m.form.reject(err)
			return nil
		}
		m.status, m.statusErr = fmt.Sprintf("Saved %s.", m.form.editor.Buffer().Name), false
		m.form = nil
		return nil
	}
	return cmd
}

func (m *Model) requireManifest() bool {
	if m.ctrl.Windows().Manifest {
		return true
	}
	m.status, m.statusErr = "Open the manifest first.", true
	return false
}

func (m *Model) focusIfOpen(panel Panel, open bool) {
	if open {
		m.focus = panel
	}
}

// VisiblePanels returns the open panels in display order.
func (m *Model) VisiblePanels() []Panel {
	out := make([]Panel, 0, len(panelOrder))
	for _, panel := range panelOrder {
		if m.isVisible(panel) {
			out = append(out, panel)
		}
	}
	return out
}

func (m *Model) isVisible(panel Panel) bool {
	windows := m.ctrl.Windows()
	switch panel {
	case PanelManifest:
		return windows.Manifest
	case PanelTransfer:
		return windows.Transfer
	case PanelRoster:
		return windows.Roster
	case PanelDebug:
		return m.session.Settings().ShowDebugger
	default:
		return false
	}
}

func (m *Model) ensureFocus() {
	if m.isVisible(m.focus) {
		return
	}
	if visible := m.VisiblePanels(); len(visible) > 0 {
		m.focus = visible[0]
	}
}

func (m *Model) cycleFocus(step int) {
	visible := m.VisiblePanels()
	if len(visible) == 0 {
		return
	}
	index := 0
	for i, panel := range visible {
		if panel == m.focus {
			index = i
			break
		}
	}
	m.focus = visible[next(index, step, len(visible))]
}

func (m *Model) resizeFocused(delta int) {
	if !m.isVisible(m.focus) {
		return
	}
	m.session.UpdateSettings(func(s *settings.Settings) {
		rect := rectOf(s, m.focus)
		rect.Width = min(max(rect.Width+delta, MinPanelWidth), MaxPanelWidth)
	})
}

func (m *Model) setStatus(err error) {
	if err == nil {
		return
	}
	m.status, m.statusErr = err.Error(), true
	m.logger.Debug("action rejected", "err", err)
}

func (m *Model) moveCursor(panel Panel, step, length int) {
	if length == 0 {
		m.cursor[panel] = 0
		return
	}
	m.cursor[panel] = min(max(m.cursor[panel]+step, 0), length-1)
}

func cursorAt[T any](items []T, cursor int) (T, bool) {
	var zero T
	if cursor < 0 || cursor >= len(items) {
		return zero, false
	}
	return items[cursor], true
}

// Focus reports the focused panel.
func (m *Model) Focus() Panel {
	return m.focus
}

// Status returns the last status line and whether it reports a failure.
func (m *Model) Status() (string, bool) {
	return m.status, m.statusErr
}

// Controller returns the active vessel's controller.
func (m *Model) Controller() *manifest.Controller {
	return m.ctrl
}

// Quitting reports whether the user asked to quit.
func (m *Model) Quitting() bool {
	return m.quitting
}

// View satisfies tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{m.renderHeader()}
	if m.form != nil {
		sections = append(sections, m.form.view())
	} else {
		sections = append(sections, m.renderPanels())
	}
	if m.status != "" {
		style := theme.InfoStyle
		if m.statusErr {
			style = theme.ErrorStyle
		}
		sections = append(sections, style.Render(m.status))
	}
	sections = append(sections, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderHeader() string {
	location := m.vessel.LandedAt()
	if location == "" {
		location = "in flight"
	}
	header := theme.TitleStyle.Render("CREW MANIFEST") + "  " +
		theme.TextStyle.Render(m.vessel.Name()) + "  " +
		theme.MutedStyle.Render(location)
	if state := m.ctrl.TransferState(); state == manifest.TransferArmed {
		header += "  " + theme.WarningStyle.Render("transfer in progress")
	}
	if m.session.Settings().AppLauncher {
		header = lipgloss.JoinVertical(lipgloss.Left, header, m.renderLauncher())
	}
	return header
}

func (m *Model) renderPanels() string {
	if !m.isVisible(PanelManifest) && !m.isVisible(PanelDebug) {
		return theme.MutedStyle.Render("Press m to open the manifest.")
	}

	top := make([]string, 0, 2)
	bottom := make([]string, 0, 2)
	if m.isVisible(PanelManifest) {
		top = append(top, m.renderManifest())
	}
	if m.isVisible(PanelTransfer) {
		top = append(top, m.renderTransfer())
	}
	if m.isVisible(PanelRoster) {
		bottom = append(bottom, m.renderRoster())
	}
	if m.isVisible(PanelDebug) {
		bottom = append(bottom, m.renderDebug())
	}

	rows := make([]string, 0, 2)
	for _, row := range [][]string{top, bottom} {
		if len(row) > 0 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *Model) frame(panel Panel, title string, body ...string) string {
	rect := *rectOf(ptr(m.session.Settings()), panel)
	border := theme.PanelBorder
	titleStyle := theme.TitleStyle
	if panel == m.focus {
		border = theme.PanelBorderFocused
		titleStyle = theme.FocusedTitleStyle
	}
	content := lipgloss.JoinVertical(lipgloss.Left, append([]string{titleStyle.Render(title)}, body...)...)
	return border.Width(rect.Width).Height(rect.Height).Render(content)
}

func rectOf(s *settings.Settings, panel Panel) *settings.Rect {
	switch panel {
	case PanelTransfer:
		return &s.Transfer
	case PanelRoster:
		return &s.Roster
	case PanelDebug:
		return &s.Debugger
	default:
		return &s.Manifest
	}
}

func ptr[T any](value T) *T {
	return &value
}

func next(index, step, length int) int {
	return (index + step + length) % length
}
