package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/crewmanifest/crewmanifest/internal/events"
	"github.com/crewmanifest/crewmanifest/internal/host"
	"github.com/crewmanifest/crewmanifest/internal/logging"
	"github.com/crewmanifest/crewmanifest/internal/manifest"
	"github.com/crewmanifest/crewmanifest/internal/session"
	"github.com/crewmanifest/crewmanifest/internal/settings"
	"github.com/crewmanifest/crewmanifest/internal/sim"
)

type harness struct {
	model    *Model
	clock    *sim.ManualClock
	recorder *events.Recorder
	roster   *sim.Roster
	vessel   *sim.Vessel
	pod      *sim.Part
	lab      *sim.Part
	path     string
}

func newHarness(t *testing.T, landedAt string) *harness {
	t.Helper()

	h := &harness{
		clock:    sim.NewManualClock(0),
		recorder: &events.Recorder{},
		roster:   sim.NewRoster(sim.WithSeed(9)),
		vessel:   sim.NewVessel("Kerbal X", landedAt),
		path:     filepath.Join(t.TempDir(), settings.FileName),
	}
	h.pod = h.vessel.AddPart("pod", 2)
	h.vessel.AddPart("tank", 0)
	h.lab = h.vessel.AddPart("lab", 2)

	registry := manifest.NewRegistry(h.roster, manifest.WithControllerOptions(
		manifest.WithClock(h.clock),
		manifest.WithPublisher(h.recorder),
	))
	sess, err := session.New(registry, session.WithSettingsPath(h.path), session.WithPublisher(h.recorder))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	model, err := New(context.Background(), sess, h.vessel, WithDebugBuffer(logging.NewDebugBuffer(10)))
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	h.model = model
	return h
}

func keyMsg(value string) tea.KeyMsg {
	switch value {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(value)}
	}
}

func (h *harness) press(t *testing.T, keys ...string) tea.Cmd {
	t.Helper()
	var cmd tea.Cmd
	for _, value := range keys {
		next, c := h.model.Update(keyMsg(value))
		if next != h.model {
			t.Fatalf("update returned %T, want the same *Model", next)
		}
		cmd = c
	}
	return cmd
}

// completeForm marks the open form as finished by huh and lets the model
// react on the next message.
func (h *harness) completeForm(t *testing.T) {
	t.Helper()
	if h.model.form == nil {
		t.Fatal("no form open")
	}
	h.model.form.form.State = huh.StateCompleted
	h.press(t, "enter")
}

func occupancy(v *sim.Vessel) []int {
	parts := v.SimParts()
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		out = append(out, len(p.Crew()))
	}
	return out
}

func TestNewRequiresSessionAndVessel(t *testing.T) {
	t.Parallel()

	if _, err := New(context.Background(), nil, sim.NewVessel("x", "")); err == nil {
		t.Fatal("expected error for nil session")
	}
}

func TestManifestToggleOpensPanelAndRendersParts(t *testing.T) {
	t.Parallel()

	h := newHarness(t, sim.LocationLaunchPad)
	if view := h.model.View(); !strings.Contains(view, "Press m to open the manifest.") {
		t.Fatalf("closed manifest view missing hint:\n%s", view)
	}

	h.press(t, "m")
	if !h.model.Controller().Windows().Manifest {
		t.Fatal("manifest should be visible after m")
	}
	if h.model.Focus() != PanelManifest {
		t.Fatalf("focus = %q, want manifest", h.model.Focus())
	}

	view := h.model.View()
	for _, want := range []string{"CREW MANIFEST", "Kerbal X", "pod 0/2", "lab 0/2", "[f]"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, "tank") {
		t.Fatalf("view should list only crewable parts:\n%s", view)
	}
}

func TestFillAndEmptyKeys(t *testing.T) {
	t.Parallel()

	h := newHarness(t, sim.LocationLaunchPad)
	h.press(t, "m", "f")
	if got := occupancy(h.vessel); got[0] != 2 || got[1] != 0 || got[2] != 2 {
		t.Fatalf("occupancy after fill = %v, want [2 0 2]", got)
	}
	if got := h.recorder.Count(events.EventTypeVesselChanged); got != 1 {
		t.Fatalf("vessel changed count = %d, want 1", got)
	}

	h.press(t, "e")
	if got := occupancy(h.vessel); got[0] != 0 || got[2] != 0 {
		t.Fatalf("occupancy after empty = %v, want all zero", got)
	}
}

func TestFillIsDisabledInFlight(t *testing.T) {
	t.Parallel()

	h := newHarness(t, sim.LocationFlight)
	h.press(t, "m", "f")
	if got := occupancy(h.vessel); got[0] != 0 || got[2] != 0 {
		t.Fatalf("occupancy = %v, want untouched vessel in flight", got)
	}
	if !strings.Contains(h.model.View(), "Crew changes need a launch site.") {
		t.Fatal("expected in-flight notice")
	}
}

func TestSelectAddAndRemoveOnePart(t *testing.T) {
	t.Parallel()

	h := newHarness(t, sim.LocationLaunchPad)
	h.press(t, "m", "down", "enter")
	if h.model.Controller().SelectedPart() != h.lab {
		t.Fatal("expected lab selected")
	}
	if h.lab.Highlight() != host.HighlightSelection {
		t.Fatalf("lab highlight = %q, want selection", h.lab.Highlight())
	}

	h.press(t, "a", "a", "a")
	if got := len(h.lab.Crew()); got != 2 {
		t.Fatalf("lab crew = %d, want capacity 2", got)
	}
	h.press(t, "x")
	if got := len(h.lab.Crew()); got != 1 {
		t.Fatalf("lab crew after remove = %d, want 1", got)
	}
}

func TestTransferFlowMovesCrewAndCompletesOnTick(t *testing.T) {
	t.Parallel()

	h := newHarness(t, sim.LocationFlight)
	jeb := h.roster.Hire("Jebediah Kerman")
	h.pod.AddCrewmember(jeb)

	h.press(t, "m", "t")
	if h.model.Focus() != PanelTransfer {
		t.Fatalf("focus = %q, want transfer", h.model.Focus())
	}

	h.press(t, "enter")
	if h.model.Controller().SourcePart() != h.pod {
		t.Fatal("expected pod as source")
	}
	h.press(t, "right", "right", "enter")
	if h.model.Controller().TargetPart() != h.lab {
		t.Fatal("expected lab as target")
	}

	h.press(t, "left", "enter")
	if !host.Aboard(h.lab, jeb) {
		t.Fatal("member should move immediately")
	}
	if status, failed := h.model.Status(); failed || !strings.Contains(status, "Moving Jebediah Kerman") {
		t.Fatalf("status = %q (failed=%v)", status, failed)
	}
	if !strings.Contains(h.model.View(), "transfer in progress") {
		t.Fatal("header should show the armed transfer")
	}

	h.clock.Advance(manifest.DefaultTransferDelay)
	if _, cmd := h.model.Update(tickMsg(time.Now())); cmd == nil {
		t.Fatal("tick should schedule the next tick")
	}
	if got := h.recorder.Count(events.EventTypeTransferComplete); got != 1 {
		t.Fatalf("transfer complete count = %d, want 1", got)
	}
}

func TestTransferRequiresManifest(t *testing.T) {
	t.Parallel()

	h := newHarness(t, sim.LocationLaunchPad)
	h.press(t, "t")
	if h.model.Controller().Windows().Transfer {
		t.Fatal("transfer should stay closed without the manifest")
	}
	if _, failed := h.model.Status(); !failed {
		t.Fatal("expected a failure status")
	}
}

func TestRosterCreateThroughForm(t *testing.T) {
	t.Parallel()

	h := newHarness(t, sim.LocationLaunchPad)
	h.press(t, "m", "r", "n")
	if h.model.form == nil {
		t.Fatal("expected editor form")
	}
	view := h.model.View()
	if !strings.Contains(view, "New crew member") || !strings.Contains(view, "Stupidity") {
		t.Fatalf("form missing from view: %s", view)
	}

	h.model.form.values.Name = "Test Kerman"
	h.completeForm(t)
	if h.model.form != nil {
		t.Fatalf("form still open: %s", h.model.form.err)
	}
	if _, ok := h.roster.Lookup("Test Kerman"); !ok {
		t.Fatal("created member missing from roster")
	}
	if status, failed := h.model.Status(); failed || status != "Saved Test Kerman." {
		t.Fatalf("status = %q (failed=%v)", status, failed)
	}
}

func TestRosterEditNameConflictKeepsForm(t *testing.T) {
	t.Parallel()

	h := newHarness(t, sim.LocationLaunchPad)
	h.roster.Hire("Bill Kerman")
	h.roster.Hire("Bob Kerman")

	h.press(t, "m", "r", "E")
	h.model.form.values.Name = "Bob Kerman"
	h.completeForm(t)

	if h.model.form == nil || h.model.form.err == "" {
		t.Fatal("expected form to stay open with an error")
	}
	if h.model.form.form.State != huh.StateNormal {
		t.Fatalf("form state = %v, want reopened", h.model.form.form.State)
	}
	if h.model.form.values.Name != "Bob Kerman" {
		t.Fatalf("rejected values should be kept, name = %q", h.model.form.values.Name)
	}
	if _, ok := h.roster.Lookup("Bill Kerman"); !ok {
		t.Fatal("original record should be unmodified")
	}

	h.press(t, "esc")
	if h.model.form != nil {
		t.Fatal("esc should close the form")
	}
}

func TestFormSubmitCopiesEveryField(t *testing.T) {
	t.Parallel()

	h := newHarness(t, sim.LocationLaunchPad)
	member := h.roster.Hire("Bill Kerman")
	member.Badass = false

	h.press(t, "m", "r", "E")
	values := h.model.form.values
	values.Courage = "0.30"
	values.Stupidity = " 0.9 "
	values.Badass = true
	values.Gender = host.GenderFemale
	values.Type = host.TypeTourist
	h.completeForm(t)

	if h.model.form != nil {
		t.Fatalf("form still open: %s", h.model.form.err)
	}
	if member.Courage != 0.3 || member.Stupidity != 0.9 || !member.Badass {
		t.Fatalf("traits = %.2f/%.2f/%v", member.Courage, member.Stupidity, member.Badass)
	}
	if member.Gender != host.GenderFemale || member.Type != host.TypeTourist {
		t.Fatalf("tags = %s/%s", member.Gender, member.Type)
	}
}

func TestFormRejectsNonNumericTraits(t *testing.T) {
	t.Parallel()

	h := newHarness(t, sim.LocationLaunchPad)
	member := h.roster.Hire("Bill Kerman")
	member.Badass = false

	h.press(t, "m", "r", "E")
	h.model.form.values.Badass = true
	h.model.form.values.Courage = "brave"
	h.completeForm(t)

	if h.model.form == nil || h.model.form.err != "courage must be a number" {
		t.Fatalf("form should stay open with a courage error")
	}
	if member.Badass {
		t.Fatal("member must not change before a successful submit")
	}
}

func TestFormValidators(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		check   func(string) error
		value   string
		wantErr string
	}{
		{name: "blank name", check: validateName, value: "  ", wantErr: "name is required"},
		{name: "name", check: validateName, value: "Val Kerman"},
		{name: "trait text", check: validateTrait("courage"), value: "brave", wantErr: "courage must be a number"},
		{name: "trait range", check: validateTrait("stupidity"), value: "1.5", wantErr: "stupidity must be between 0 and 1"},
		{name: "trait", check: validateTrait("courage"), value: " 0.25 "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.check(tt.value)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Fatalf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestRespawnKey(t *testing.T) {
	t.Parallel()

	h := newHarness(t, sim.LocationLaunchPad)
	member := h.roster.Hire("Bill Kerman")
	member.Status = host.StatusMissing

	h.press(t, "m", "r", "R")
	if member.Status != host.StatusAvailable {
		t.Fatalf("status = %s, want available", member.Status)
	}
}

func TestTabCyclesVisiblePanels(t *testing.T) {
	t.Parallel()

	h := newHarness(t, sim.LocationLaunchPad)
	h.press(t, "m", "r", "D")

	want := []Panel{PanelManifest, PanelRoster, PanelDebug}
	if got := h.model.VisiblePanels(); len(got) != len(want) {
		t.Fatalf("visible = %v, want %v", got, want)
	}
	if h.model.Focus() != PanelDebug {
		t.Fatalf("focus = %q, want debug", h.model.Focus())
	}
	h.press(t, "tab")
	if h.model.Focus() != PanelManifest {
		t.Fatalf("focus after tab = %q, want manifest", h.model.Focus())
	}

	h.press(t, "m")
	if got := h.model.VisiblePanels(); len(got) != 1 || got[0] != PanelDebug {
		t.Fatalf("visible after hiding manifest = %v, want [debug]", got)
	}
	if h.model.Focus() != PanelDebug {
		t.Fatalf("focus = %q, want debug", h.model.Focus())
	}
}

func TestResizeFocusedPanel(t *testing.T) {
	t.Parallel()

	h := newHarness(t, sim.LocationLaunchPad)
	before := h.model.session.Settings().Manifest.Width

	h.press(t, "m", ">")
	if got := h.model.session.Settings().Manifest.Width; got != before+resizeStep {
		t.Fatalf("width = %d, want %d", got, before+resizeStep)
	}
	for i := 0; i < 50; i++ {
		h.press(t, "<")
	}
	if got := h.model.session.Settings().Manifest.Width; got != MinPanelWidth {
		t.Fatalf("width = %d, want floor %d", got, MinPanelWidth)
	}
}

func TestEventsUpdateStatusAndDebugPanel(t *testing.T) {
	t.Parallel()

	h := newHarness(t, sim.LocationLaunchPad)
	h.press(t, "D")
	h.model.Update(eventMsg(events.Event{
		Type:     events.EventTypeScreenMessage,
		Severity: events.SeverityInfo,
		Message:  "Jebediah Kerman's transfer complete.",
	}))

	if status, failed := h.model.Status(); failed || status != "Jebediah Kerman's transfer complete." {
		t.Fatalf("status = %q (failed=%v)", status, failed)
	}
	if !strings.Contains(h.model.View(), events.EventTypeScreenMessage) {
		t.Fatal("debug panel should list the event")
	}
}

func TestDroppedTransferShowsErrorStatus(t *testing.T) {
	t.Parallel()

	h := newHarness(t, sim.LocationLaunchPad)
	h.model.Update(eventMsg(events.Event{
		Type:     events.EventTypeTransferDropped,
		Severity: events.SeverityWarn,
		Kerbal:   "Bill Kerman",
		Message:  "Bill Kerman's transfer was cancelled.",
	}))

	if status, failed := h.model.Status(); !failed || status != "Bill Kerman's transfer was cancelled." {
		t.Fatalf("status = %q (failed=%v)", status, failed)
	}
}

func TestQuitClosesSession(t *testing.T) {
	t.Parallel()

	h := newHarness(t, sim.LocationLaunchPad)
	cmd := h.press(t, "q")
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if !h.model.Quitting() {
		t.Fatal("model should be quitting")
	}
	if h.model.View() != "" {
		t.Fatal("quitting model should render nothing")
	}
	if got := h.recorder.Count(events.EventTypeSettingsSaved); got != 1 {
		t.Fatalf("settings saved count = %d, want 1", got)
	}
}

func TestForwardDeliversBusEvents(t *testing.T) {
	t.Parallel()

	bus := events.New()
	defer bus.Close()
	incoming := Forward(bus, 4)

	bus.Publish(events.Event{Type: events.EventTypeVesselChanged, Message: "fill_vessel"})
	select {
	case event := <-incoming:
		if event.Message != "fill_vessel" {
			t.Fatalf("message = %q", event.Message)
		}
	case <-time.After(time.Second):
		t.Fatal("event not forwarded")
	}
}
