// Package manifest tracks, per vessel, which crewed part is selected, which
// parts are the transfer source and target, and the one deferred crew
// transfer that may be settling.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/crewmanifest/crewmanifest/internal/events"
	"github.com/crewmanifest/crewmanifest/internal/host"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "crewmanifest/manifest"

// DefaultLaunchSites are the landed-at tags that count as pre-launch.
var DefaultLaunchSites = []string{"LaunchPad", "Runway"}

// Option configures Controller construction.
type Option func(*Controller)

// WithClock sets the simulation clock used to time deferred transfers.
func WithClock(clock host.Clock) Option {
	return func(c *Controller) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithPublisher sets the sink for vessel-changed and screen-message events.
func WithPublisher(publisher events.Publisher) Option {
	return func(c *Controller) {
		if publisher != nil {
			c.publisher = publisher
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTracer configures the tracer used for crew operation spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Controller) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// WithTransferDelay overrides DefaultTransferDelay.
func WithTransferDelay(delay time.Duration) Option {
	return func(c *Controller) {
		if delay > 0 {
			c.delay = delay
		}
	}
}

// WithLaunchSites overrides DefaultLaunchSites.
func WithLaunchSites(sites []string) Option {
	return func(c *Controller) {
		normalized := normalizeSites(sites)
		if len(normalized) > 0 {
			c.launchSites = normalized
		}
	}
}

// Windows is the per-vessel panel visibility.
type Windows struct {
	Manifest bool
	Transfer bool
	Roster   bool
}

// Controller owns the selection and transfer state for one vessel. It is not
// safe for concurrent use: every call must come from the tick path.
type Controller struct {
	vessel      host.Vessel
	roster      host.Roster
	clock       host.Clock
	publisher   events.Publisher
	logger      *log.Logger
	tracer      trace.Tracer
	delay       time.Duration
	launchSites map[string]struct{}

	selected host.Part
	source   host.Part
	target   host.Part

	transfer transferMachine
	windows  Windows
	canDraw  bool
}

// NewController builds a controller bound to one vessel.
func NewController(vessel host.Vessel, roster host.Roster, options ...Option) (*Controller, error) {
	if vessel == nil {
		return nil, errors.New("vessel is required")
	}
	if roster == nil {
		return nil, errors.New("roster is required")
	}

	c := &Controller{
		vessel:      vessel,
		roster:      roster,
		clock:       zeroClock{},
		publisher:   events.Fanout(nil),
		logger:      log.NewWithOptions(io.Discard, log.Options{}),
		tracer:      otel.Tracer(tracerName),
		delay:       DefaultTransferDelay,
		launchSites: normalizeSites(DefaultLaunchSites),
		transfer:    newTransferMachine(),
	}
	for _, option := range options {
		if option == nil {
			continue
		}
		option(c)
	}
	c.logger = c.logger.With("vessel_id", vessel.ID())
	return c, nil
}

// Vessel returns the vessel this controller manages.
func (c *Controller) Vessel() host.Vessel {
	return c.vessel
}

// Roster returns the roster crew is drawn from.
func (c *Controller) Roster() host.Roster {
	return c.roster
}

// TransferDelay reports the configured settle delay.
func (c *Controller) TransferDelay() time.Duration {
	return c.delay
}

// IsPreLaunch reports whether the vessel sits at a launch site, the only
// place crew may be added, removed, filled or emptied.
func (c *Controller) IsPreLaunch() bool {
	_, ok := c.launchSites[strings.TrimSpace(c.vessel.LandedAt())]
	return ok
}

// CanDraw reports whether the session has ticked this controller at least once.
func (c *Controller) CanDraw() bool {
	return c.canDraw
}

// MarkDrawable records that the controller is live for the active vessel.
func (c *Controller) MarkDrawable() {
	c.canDraw = true
}

// Windows returns the panel visibility.
func (c *Controller) Windows() Windows {
	return c.windows
}

// SetManifestVisible shows or hides the manifest. Hiding closes the transfer
// and roster panels and clears every selection.
func (c *Controller) SetManifestVisible(visible bool) {
	c.windows.Manifest = visible
	if !visible {
		c.windows.Transfer = false
		c.windows.Roster = false
		c.ClearSelections()
	}
}

// ToggleTransferWindow opens or closes the transfer panel. Closing clears
// the source and target.
func (c *Controller) ToggleTransferWindow() {
	c.windows.Transfer = !c.windows.Transfer
	if !c.windows.Transfer {
		c.CloseTransfer()
	}
}

// ToggleRosterWindow opens or closes the roster panel.
func (c *Controller) ToggleRosterWindow() {
	c.windows.Roster = !c.windows.Roster
}

func (c *Controller) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := c.tracer.Start(ctx, name)
	span.SetAttributes(attribute.String("vessel_id", c.vessel.ID()))
	span.SetAttributes(attrs...)
	return ctx, span
}

func failSpan(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (c *Controller) fireVesselChanged(operation string) {
	c.publisher.Publish(events.Event{
		Type:     events.EventTypeVesselChanged,
		VesselID: c.vessel.ID(),
		Message:  operation,
	})
}

func (c *Controller) requirePreLaunch(operation string) error {
	if c.IsPreLaunch() {
		return nil
	}
	return fmt.Errorf("%w: %s at %q", ErrNotPreLaunch, operation, c.vessel.LandedAt())
}

func normalizeSites(sites []string) map[string]struct{} {
	out := make(map[string]struct{}, len(sites))
	for _, site := range sites {
		site = strings.TrimSpace(site)
		if site == "" {
			continue
		}
		out[site] = struct{}{}
	}
	return out
}

type zeroClock struct{}

func (zeroClock) Now() time.Duration { return 0 }
