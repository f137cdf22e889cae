package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/crewmanifest/crewmanifest/internal/config"
	"github.com/crewmanifest/crewmanifest/internal/events"
	"github.com/crewmanifest/crewmanifest/internal/host"
	"github.com/crewmanifest/crewmanifest/internal/logging"
	"github.com/crewmanifest/crewmanifest/internal/manifest"
	"github.com/crewmanifest/crewmanifest/internal/roster"
	"github.com/crewmanifest/crewmanifest/internal/sim"
	"github.com/crewmanifest/crewmanifest/internal/simstore"
)

// app carries the dependencies shared by every subcommand.
type app struct {
	cfg    *config.Config
	logger *log.Logger
	debug  *logging.DebugBuffer
}

// withWorld loads the stored world, runs fn and, when save is set and fn
// succeeds, writes the world back.
func (a *app) withWorld(ctx context.Context, save bool, fn func(*simstore.World) error) error {
	store, err := simstore.Open(a.cfg.StorePath(), a.logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			a.logger.Warn("failed to close sim store", "err", closeErr)
		}
	}()

	world, err := store.Load(ctx)
	if err != nil {
		return err
	}
	if err := fn(world); err != nil {
		return err
	}
	if !save {
		return nil
	}
	return store.Save(context.WithoutCancel(ctx), world.Roster, world.Vessels)
}

func (a *app) newRegistry(crew host.Roster, clock host.Clock, publisher events.Publisher) *manifest.Registry {
	return manifest.NewRegistry(crew,
		manifest.WithRegistryLogger(a.logger),
		manifest.WithRegisterHook(func(c *manifest.Controller) {
			publisher.Publish(events.Event{
				Type:     events.EventTypeVesselRegistered,
				VesselID: c.Vessel().ID(),
				Message:  c.Vessel().Name(),
				Severity: events.SeverityInfo,
			})
		}),
		manifest.WithEvictHook(func(c *manifest.Controller) {
			publisher.Publish(events.Event{
				Type:     events.EventTypeVesselReleased,
				VesselID: c.Vessel().ID(),
				Message:  c.Vessel().Name(),
				Severity: events.SeverityInfo,
			})
		}),
		manifest.WithControllerOptions(
			manifest.WithClock(clock),
			manifest.WithPublisher(publisher),
			manifest.WithLogger(a.logger),
			manifest.WithTransferDelay(a.cfg.TransferDelay),
			manifest.WithLaunchSites(a.cfg.LaunchSites),
		),
	)
}

func findVessel(world *simstore.World, ref string) (*sim.Vessel, error) {
	if vessel, ok := world.Vessel(ref); ok {
		return vessel, nil
	}
	names := make([]string, 0, len(world.Vessels))
	for _, vessel := range world.Vessels {
		names = append(names, vessel.Name())
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no vessel %q: the store is empty, run `crewmanifest demo` first", ref)
	}
	return nil, fmt.Errorf("no vessel %q (known: %s)", ref, strings.Join(names, ", "))
}

func findPart(vessel *sim.Vessel, ref string) (*sim.Part, error) {
	for _, part := range vessel.SimParts() {
		if part.ID() == ref || part.Title() == ref {
			return part, nil
		}
	}
	return nil, fmt.Errorf("vessel %s has no part %q", vessel.Name(), ref)
}

func findMember(crew host.Roster, name string) (*host.Kerbal, error) {
	if member, ok := crew.Lookup(name); ok {
		return member, nil
	}
	if suggestions := roster.Suggest(crew, name, roster.DefaultSuggestLimit); len(suggestions) > 0 {
		return nil, fmt.Errorf("no crew member named %q (did you mean %s?)", name, strings.Join(suggestions, ", "))
	}
	return nil, fmt.Errorf("no crew member named %q", name)
}

func printEvents(out io.Writer, list []events.Event) {
	for _, event := range list {
		severity := event.Severity
		if severity == "" {
			severity = events.SeverityInfo
		}
		fmt.Fprintf(out, "[%s] %s %s\n", severity, event.Type, event.Message)
	}
}
