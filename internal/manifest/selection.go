package manifest

import (
	"context"
	"fmt"

	"github.com/crewmanifest/crewmanifest/internal/host"
	"github.com/crewmanifest/crewmanifest/internal/telemetry/invariants"
)

// SelectedPart returns the part chosen in the manifest panel, or nil.
func (c *Controller) SelectedPart() host.Part { return c.selected }

// SourcePart returns the transfer source, or nil.
func (c *Controller) SourcePart() host.Part { return c.source }

// TargetPart returns the transfer target, or nil.
func (c *Controller) TargetPart() host.Part { return c.target }

// SetSelectedPart selects p in the manifest panel. A nil part clears the slot.
func (c *Controller) SetSelectedPart(p host.Part) error {
	if err := c.checkSelectable(p); err != nil {
		return err
	}
	c.assign(&c.selected, p)
	return nil
}

// ToggleSelectedPart selects p, or clears the selection when p is already selected.
func (c *Controller) ToggleSelectedPart(p host.Part) error {
	if p != nil && p == c.selected {
		return c.SetSelectedPart(nil)
	}
	return c.SetSelectedPart(p)
}

// SetSourcePart makes p the transfer source. Choosing the current target
// clears the target first so the two never reference the same part.
func (c *Controller) SetSourcePart(p host.Part) error {
	if err := c.checkSelectable(p); err != nil {
		return err
	}
	if p != nil && p == c.target {
		c.assign(&c.target, nil)
	}
	c.assign(&c.source, p)
	c.checkDistinct(context.Background(), "manifest.controller.set_source")
	return nil
}

// SetTargetPart makes p the transfer target. Choosing the current source
// clears the source and its highlight first.
func (c *Controller) SetTargetPart(p host.Part) error {
	if err := c.checkSelectable(p); err != nil {
		return err
	}
	if p != nil && p == c.source {
		c.assign(&c.source, nil)
	}
	c.assign(&c.target, p)
	c.checkDistinct(context.Background(), "manifest.controller.set_target")
	return nil
}

// CloseTransfer clears the source and target slots.
func (c *Controller) CloseTransfer() {
	c.assign(&c.source, nil)
	c.assign(&c.target, nil)
}

// ClearSelections clears every slot and its highlight.
func (c *Controller) ClearSelections() {
	c.assign(&c.selected, nil)
	c.CloseTransfer()
}

// Refresh drops any slot whose part was destroyed, decoupled or is no longer
// crewable, then re-applies the surviving highlights. Call it once per tick
// before reading selection state.
func (c *Controller) Refresh(ctx context.Context) {
	if !c.vessel.Alive() {
		c.selected, c.source, c.target = nil, nil, nil
		return
	}

	for _, slot := range []*host.Part{&c.selected, &c.source, &c.target} {
		if *slot != nil && !c.stillEligible(*slot) {
			c.logger.Debug("clearing stale selection", "part_id", (*slot).ID())
			if (*slot).Alive() {
				(*slot).ClearHighlight()
			}
			*slot = nil
		}
	}

	for _, p := range []host.Part{c.selected, c.source, c.target} {
		if p != nil {
			p.SetHighlight(c.slotColor(p))
		}
	}
	c.checkDistinct(ctx, "manifest.controller.refresh")
}

// CrewableParts lists the vessel's parts with crew capacity.
func (c *Controller) CrewableParts() []host.Part {
	parts := c.vessel.Parts()
	out := make([]host.Part, 0, len(parts))
	for _, p := range parts {
		if p.CrewCapacity() > 0 {
			out = append(out, p)
		}
	}
	return out
}

// SourceParts lists the parts eligible as a transfer source.
func (c *Controller) SourceParts() []host.Part {
	return c.CrewableParts()
}

// TargetParts lists the parts eligible as a transfer target: every crewable
// part except the current source.
func (c *Controller) TargetParts() []host.Part {
	crewable := c.CrewableParts()
	out := make([]host.Part, 0, len(crewable))
	for _, p := range crewable {
		if p == c.source {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (c *Controller) assign(slot *host.Part, p host.Part) {
	previous := *slot
	*slot = p
	if previous != nil && previous != p && previous.Alive() {
		if owner := c.slotColor(previous); owner != host.HighlightNone {
			previous.SetHighlight(owner)
		} else {
			previous.ClearHighlight()
		}
	}
	if p != nil {
		p.SetHighlight(c.slotColor(p))
	}
}

// Highlight returns the colour p currently shows in the manifest.
func (c *Controller) Highlight(p host.Part) host.HighlightColor {
	return c.slotColor(p)
}

// slotColor resolves the highlight a part should show when several slots
// reference it: target wins over source, source over selection.
func (c *Controller) slotColor(p host.Part) host.HighlightColor {
	switch {
	case p == nil:
		return host.HighlightNone
	case p == c.target:
		return host.HighlightTarget
	case p == c.source:
		return host.HighlightSource
	case p == c.selected:
		return host.HighlightSelection
	default:
		return host.HighlightNone
	}
}

func (c *Controller) checkSelectable(p host.Part) error {
	if p == nil {
		return nil
	}
	if p.CrewCapacity() <= 0 {
		return fmt.Errorf("%w: %s", ErrNotCrewable, p.Title())
	}
	if !p.Alive() || !host.Contains(c.vessel, p) {
		return fmt.Errorf("%w: %s", ErrForeignPart, p.Title())
	}
	return nil
}

func (c *Controller) stillEligible(p host.Part) bool {
	return p.Alive() && p.CrewCapacity() > 0 && host.Contains(c.vessel, p)
}

func (c *Controller) checkDistinct(ctx context.Context, where string) {
	sourceID, targetID := "", ""
	if c.source != nil {
		sourceID = c.source.ID()
	}
	if c.target != nil {
		targetID = c.target.ID()
	}
	invariants.CheckSourceTargetDistinct(ctx, where, sourceID, targetID)
}
