package manifest

import (
	"context"
	"errors"
	"fmt"

	"github.com/crewmanifest/crewmanifest/internal/events"
	"github.com/crewmanifest/crewmanifest/internal/host"
	"github.com/crewmanifest/crewmanifest/internal/telemetry/invariants"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// PendingTransfer returns the armed transfer, if any.
func (c *Controller) PendingTransfer() (Transfer, bool) {
	return c.transfer.armed()
}

// TransferState reports the deferred-transfer lifecycle state.
func (c *Controller) TransferState() TransferState {
	return c.transfer.state
}

// MoveCrew moves member from source to destination immediately and arms the
// deferred transfer that resynchronises crew visuals once the settle delay
// has passed. A second move while one is armed is rejected.
func (c *Controller) MoveCrew(ctx context.Context, source, destination host.Part, member *host.Kerbal) error {
	_, span := c.startSpan(ctx, "manifest.move_crew")
	defer span.End()

	if source == nil || destination == nil || member == nil {
		return failSpan(span, errors.New("source, destination and member are required"))
	}
	span.SetAttributes(
		attribute.String("source_part_id", source.ID()),
		attribute.String("destination_part_id", destination.ID()),
		attribute.String("kerbal", member.Name),
	)

	if pending, armed := c.transfer.armed(); armed {
		return failSpan(span, fmt.Errorf("%w: %s is still settling", ErrTransferPending, pending.Member.Name))
	}
	if source == destination {
		return failSpan(span, fmt.Errorf("%w: %s", ErrSamePart, source.Title()))
	}
	if !host.Aboard(source, member) {
		return failSpan(span, fmt.Errorf("%w: %s not in %s", ErrNotAboard, member.Name, source.Title()))
	}
	if host.PartIsFull(destination) {
		return failSpan(span, fmt.Errorf("%w: %s", ErrPartFull, destination.Title()))
	}

	removeCrew(source, member)
	addCrew(destination, member)

	armedAt := c.clock.Now()
	if err := c.transfer.arm(Transfer{
		Source:      source,
		Destination: destination,
		Member:      member,
		ArmedAt:     armedAt,
	}); err != nil {
		return failSpan(span, err)
	}

	c.logger.Info(
		"crew transfer armed",
		"kerbal", member.Name,
		"source_part_id", source.ID(),
		"destination_part_id", destination.ID(),
		"armed_at", armedAt,
	)
	span.SetStatus(codes.Ok, "crew transfer armed")
	return nil
}

// Update polls the armed transfer. Once the settle delay has elapsed it
// either completes the transfer (screen message, crew respawn on the
// affected vessels, one vessel-changed notification) or silently drops it
// when an endpoint went away. Either way the controller returns to idle.
func (c *Controller) Update(ctx context.Context) {
	pending, armed := c.transfer.armed()
	if !armed {
		return
	}
	now := c.clock.Now()
	if !pending.Due(now, c.delay) {
		return
	}
	c.transfer.disarm()

	ctx, span := c.startSpan(ctx, "manifest.transfer_complete")
	defer span.End()
	invariants.CheckTransferSettled(ctx, "manifest.controller.update", now-pending.ArmedAt, c.delay)

	if !pending.Valid() {
		name := ""
		if pending.Member != nil {
			name = pending.Member.Name
		}
		c.logger.Debug("dropping crew transfer with stale endpoints", "kerbal", name)
		c.publisher.Publish(events.Event{
			Type:     events.EventTypeTransferDropped,
			VesselID: c.vessel.ID(),
			Kerbal:   name,
			Message:  droppedMessage(name),
			Severity: events.SeverityWarn,
		})
		span.SetStatus(codes.Error, "transfer endpoints no longer valid")
		return
	}

	member := pending.Member.Name
	c.publisher.Publish(events.Event{
		Type:     events.EventTypeScreenMessage,
		VesselID: c.vessel.ID(),
		Kerbal:   member,
		Message:  fmt.Sprintf("%s's transfer complete.", member),
	})

	if pending.CrossVessel() {
		pending.Source.Vessel().SpawnCrew()
	}
	pending.Destination.Vessel().SpawnCrew()
	c.fireVesselChanged("transfer_crew")

	c.publisher.Publish(events.Event{
		Type:     events.EventTypeTransferComplete,
		VesselID: c.vessel.ID(),
		PartID:   pending.Destination.ID(),
		Kerbal:   member,
	})
	c.logger.Info("crew transfer complete", "kerbal", member, "elapsed", now-pending.ArmedAt)
	span.SetAttributes(attribute.Bool("cross_vessel", pending.CrossVessel()))
	span.SetStatus(codes.Ok, "crew transfer complete")
}

func droppedMessage(name string) string {
	if name == "" {
		return "Crew transfer was cancelled."
	}
	return fmt.Sprintf("%s's transfer was cancelled.", name)
}

// FillVessel seats new or recycled roster members until every crewable part
// is full, then fires one vessel-changed notification.
func (c *Controller) FillVessel(ctx context.Context) error {
	ctx, span := c.startSpan(ctx, "manifest.fill_vessel")
	defer span.End()

	if err := c.requirePreLaunch("fill vessel"); err != nil {
		return failSpan(span, err)
	}

	seated := 0
	for _, part := range c.CrewableParts() {
		seated += c.seatFromRoster(part, part.CrewCapacity()-len(part.Crew()))
	}
	c.fireVesselChanged("fill_vessel")
	invariants.CheckSingleVesselNotification(ctx, "manifest.controller.fill_vessel", "fill_vessel", 1)

	c.logger.Info("vessel filled", "seated", seated)
	span.SetAttributes(attribute.Int("seated", seated))
	span.SetStatus(codes.Ok, "vessel filled")
	return nil
}

// EmptyVessel unseats every occupant of every crewable part, walking each
// part's crew from the last seat backward, then fires one vessel-changed
// notification.
func (c *Controller) EmptyVessel(ctx context.Context) error {
	ctx, span := c.startSpan(ctx, "manifest.empty_vessel")
	defer span.End()

	if err := c.requirePreLaunch("empty vessel"); err != nil {
		return failSpan(span, err)
	}

	removed := 0
	for _, part := range c.CrewableParts() {
		crew := part.Crew()
		for i := len(crew) - 1; i >= 0; i-- {
			removeCrew(part, crew[i])
			removed++
		}
	}
	c.fireVesselChanged("empty_vessel")
	invariants.CheckSingleVesselNotification(ctx, "manifest.controller.empty_vessel", "empty_vessel", 1)

	c.logger.Info("vessel emptied", "removed", removed)
	span.SetAttributes(attribute.Int("removed", removed))
	span.SetStatus(codes.Ok, "vessel emptied")
	return nil
}

// AddCrew seats up to count new or recycled roster members in part.
func (c *Controller) AddCrew(ctx context.Context, part host.Part, count int) (int, error) {
	_, span := c.startSpan(ctx, "manifest.add_crew")
	defer span.End()

	if part == nil {
		return 0, failSpan(span, errors.New("part is required"))
	}
	if err := c.requirePreLaunch("add crew"); err != nil {
		return 0, failSpan(span, err)
	}
	if host.PartIsFull(part) {
		return 0, failSpan(span, fmt.Errorf("%w: %s", ErrPartFull, part.Title()))
	}

	seated := c.seatFromRoster(part, count)
	c.fireVesselChanged("add_crew")
	span.SetAttributes(attribute.Int("seated", seated))
	return seated, nil
}

// AddKerbal seats one specific Available roster member in part.
func (c *Controller) AddKerbal(ctx context.Context, part host.Part, member *host.Kerbal) error {
	_, span := c.startSpan(ctx, "manifest.add_kerbal")
	defer span.End()

	if part == nil || member == nil {
		return failSpan(span, errors.New("part and member are required"))
	}
	if err := c.requirePreLaunch("add kerbal"); err != nil {
		return failSpan(span, err)
	}
	if member.Status != host.StatusAvailable || member.Seated {
		return failSpan(span, fmt.Errorf("%w: %s is %s", ErrNotAvailable, member.Name, member.Status))
	}
	if host.PartIsFull(part) {
		return failSpan(span, fmt.Errorf("%w: %s", ErrPartFull, part.Title()))
	}

	addCrew(part, member)
	c.fireVesselChanged("add_kerbal")
	c.logger.Info("kerbal seated", "kerbal", member.Name, "part_id", part.ID())
	return nil
}

// RemoveCrew unseats member from part.
func (c *Controller) RemoveCrew(ctx context.Context, part host.Part, member *host.Kerbal) error {
	_, span := c.startSpan(ctx, "manifest.remove_crew")
	defer span.End()

	if part == nil || member == nil {
		return failSpan(span, errors.New("part and member are required"))
	}
	if err := c.requirePreLaunch("remove crew"); err != nil {
		return failSpan(span, err)
	}
	if !host.Aboard(part, member) {
		return failSpan(span, fmt.Errorf("%w: %s not in %s", ErrNotAboard, member.Name, part.Title()))
	}

	removeCrew(part, member)
	c.fireVesselChanged("remove_crew")
	c.logger.Info("kerbal unseated", "kerbal", member.Name, "part_id", part.ID())
	return nil
}

func (c *Controller) seatFromRoster(part host.Part, count int) int {
	seated := 0
	for seated < count && !host.PartIsFull(part) {
		addCrew(part, c.roster.NextOrNew())
		seated++
	}
	return seated
}

func addCrew(part host.Part, member *host.Kerbal) {
	part.AddCrewmember(member)
	member.Status = host.StatusAssigned
	member.Seated = true
}

func removeCrew(part host.Part, member *host.Kerbal) {
	part.RemoveCrewmember(member)
	member.Seated = false
	member.Status = host.StatusAvailable
}
