// Package session drives the crew manifest once per simulation tick: it
// resolves the active vessel's controller, refreshes stale selections, polls
// every deferred transfer and saves panel settings on a wall-clock interval.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/crewmanifest/crewmanifest/internal/events"
	"github.com/crewmanifest/crewmanifest/internal/host"
	"github.com/crewmanifest/crewmanifest/internal/logging"
	"github.com/crewmanifest/crewmanifest/internal/manifest"
	"github.com/crewmanifest/crewmanifest/internal/settings"
)

// DefaultSaveInterval is the wall-clock period between settings saves.
const DefaultSaveInterval = 30 * time.Second

// Option configures a Session.
type Option func(*Session)

// WithSettingsPath enables settings persistence at path.
func WithSettingsPath(path string) Option {
	return func(s *Session) {
		s.settingsPath = path
	}
}

// WithSaveInterval overrides DefaultSaveInterval.
func WithSaveInterval(interval time.Duration) Option {
	return func(s *Session) {
		if interval > 0 {
			s.saveInterval = interval
		}
	}
}

// WithScreen sets the screen bounds used to clamp panels.
func WithScreen(width, height int) Option {
	return func(s *Session) {
		s.screenWidth = width
		s.screenHeight = height
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPublisher sets the sink for settings-saved events.
func WithPublisher(publisher events.Publisher) Option {
	return func(s *Session) {
		if publisher != nil {
			s.publisher = publisher
		}
	}
}

// WithWallClock overrides time.Now for save scheduling.
func WithWallClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// Session owns the registry and the persisted panel settings.
type Session struct {
	registry     *manifest.Registry
	settings     settings.Settings
	settingsPath string
	saveInterval time.Duration
	screenWidth  int
	screenHeight int
	logger       *log.Logger
	publisher    events.Publisher
	now          func() time.Time
	lastSave     time.Time
	closed       bool
}

// New builds a session over registry and loads settings when a path is set.
// A settings file that cannot be read leaves the defaults in place.
func New(registry *manifest.Registry, options ...Option) (*Session, error) {
	if registry == nil {
		return nil, errors.New("registry is required")
	}
	s := &Session{
		registry:     registry,
		settings:     settings.Defaults(),
		saveInterval: DefaultSaveInterval,
		logger:       logging.Discard(),
		publisher:    events.Fanout(nil),
		now:          time.Now,
	}
	for _, option := range options {
		if option != nil {
			option(s)
		}
	}
	s.logger = s.logger.With("component", "session")

	if s.settingsPath != "" {
		loaded, err := settings.Load(s.settingsPath, s.logger)
		if err != nil {
			s.logger.Warn("continuing with default settings", "err", err)
		}
		s.settings = loaded
	}
	s.lastSave = s.now()
	return s, nil
}

// Registry returns the vessel registry.
func (s *Session) Registry() *manifest.Registry {
	return s.registry
}

// Settings returns the current panel settings.
func (s *Session) Settings() settings.Settings {
	return s.settings
}

// UpdateSettings applies fn to the in-memory settings. They are persisted on
// the next scheduled save.
func (s *Session) UpdateSettings(fn func(*settings.Settings)) {
	if fn != nil {
		fn(&s.settings)
	}
}

// Tick runs one update for the active vessel, polls the pending transfer of
// every other registered vessel and returns the active controller.
func (s *Session) Tick(ctx context.Context, vessel host.Vessel) (*manifest.Controller, error) {
	if s.closed {
		return nil, errors.New("session is closed")
	}
	ctrl, err := s.registry.GetOrCreate(vessel)
	if err != nil {
		return nil, fmt.Errorf("resolve controller: %w", err)
	}
	ctrl.MarkDrawable()
	ctrl.Refresh(ctx)
	ctrl.Update(ctx)

	// Transfers armed on vessels the host is not showing still settle.
	for _, other := range s.registry.Controllers() {
		if other != ctrl {
			other.Update(ctx)
		}
	}

	if now := s.now(); now.Sub(s.lastSave) >= s.saveInterval {
		s.lastSave = now
		_ = s.save()
	}
	return ctrl, nil
}

// ToggleWindow shows or hides the manifest for vessel. Hiding clamps every
// panel to the screen and clears the controller's selections.
func (s *Session) ToggleWindow(vessel host.Vessel) (bool, error) {
	ctrl, err := s.registry.GetOrCreate(vessel)
	if err != nil {
		return false, fmt.Errorf("resolve controller: %w", err)
	}
	visible := !ctrl.Windows().Manifest
	ctrl.SetManifestVisible(visible)
	if !visible {
		s.clamp()
	}
	s.logger.Debug("manifest toggled", "vessel_id", vessel.ID(), "visible", visible)
	return visible, nil
}

// VesselDestroyed releases the controller for a vessel the host destroyed.
func (s *Session) VesselDestroyed(id string) {
	s.registry.Unregister(id)
}

// Save persists settings immediately.
func (s *Session) Save() error {
	s.lastSave = s.now()
	return s.save()
}

// Close performs the final settings save.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.clamp()
	return s.save()
}

func (s *Session) clamp() {
	if s.screenWidth > 0 && s.screenHeight > 0 {
		s.settings.ClampToScreen(s.screenWidth, s.screenHeight)
	}
}

func (s *Session) save() error {
	if s.settingsPath == "" {
		return nil
	}
	err := s.settings.Save(s.settingsPath, s.logger)
	event := events.Event{
		Type:    events.EventTypeSettingsSaved,
		Message: s.settingsPath,
	}
	if err != nil {
		event.Severity = events.SeverityError
		event.Message = err.Error()
	}
	s.publisher.Publish(event)
	return err
}
