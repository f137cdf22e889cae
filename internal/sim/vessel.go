// Package sim is an in-memory host simulation: just enough vessel, part and
// roster behaviour to drive the crew manifest outside the game.
package sim

import (
	"sync"

	"github.com/crewmanifest/crewmanifest/internal/host"
	"github.com/google/uuid"
)

const (
	// LocationLaunchPad is the landed-at tag for the launch pad.
	LocationLaunchPad = "LaunchPad"
	// LocationRunway is the landed-at tag for the runway.
	LocationRunway = "Runway"
	// LocationFlight is used for vessels that are not landed.
	LocationFlight = ""
)

// Vessel is a simulated vessel.
type Vessel struct {
	mu       sync.Mutex
	id       string
	name     string
	landedAt string
	parts    []*Part
	alive    bool
	spawns   int
}

// NewVessel builds a live vessel with a fresh identifier.
func NewVessel(name, landedAt string) *Vessel {
	return &Vessel{
		id:       uuid.NewString(),
		name:     name,
		landedAt: landedAt,
		alive:    true,
	}
}

// RestoreVessel rebuilds a vessel with a known identifier.
func RestoreVessel(id, name, landedAt string) *Vessel {
	v := NewVessel(name, landedAt)
	if id != "" {
		v.id = id
	}
	return v
}

// AddPart attaches a new part with the given title and capacity.
func (v *Vessel) AddPart(title string, capacity int) *Part {
	return v.attach(uuid.NewString(), title, capacity)
}

// RestorePart attaches a part with a known identifier.
func (v *Vessel) RestorePart(id, title string, capacity int) *Part {
	if id == "" {
		id = uuid.NewString()
	}
	return v.attach(id, title, capacity)
}

func (v *Vessel) attach(id, title string, capacity int) *Part {
	if capacity < 0 {
		capacity = 0
	}
	p := &Part{id: id, title: title, capacity: capacity, vessel: v, alive: true}
	v.mu.Lock()
	v.parts = append(v.parts, p)
	v.mu.Unlock()
	return p
}

// Decouple destroys a part: it leaves the vessel and its crew is lost.
func (v *Vessel) Decouple(p *Part) {
	v.mu.Lock()
	for i, candidate := range v.parts {
		if candidate == p {
			v.parts = append(v.parts[:i], v.parts[i+1:]...)
			break
		}
	}
	v.mu.Unlock()
	p.destroy()
}

// Destroy marks the vessel and all its parts as gone.
func (v *Vessel) Destroy() {
	v.mu.Lock()
	parts := append([]*Part(nil), v.parts...)
	v.alive = false
	v.mu.Unlock()
	for _, p := range parts {
		p.destroy()
	}
}

// SetLandedAt moves the vessel to another location tag.
func (v *Vessel) SetLandedAt(location string) {
	v.mu.Lock()
	v.landedAt = location
	v.mu.Unlock()
}

// SimParts returns the concrete parts in attachment order.
func (v *Vessel) SimParts() []*Part {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]*Part(nil), v.parts...)
}

// SpawnCount reports how many times SpawnCrew was requested.
func (v *Vessel) SpawnCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.spawns
}

func (v *Vessel) ID() string   { return v.id }
func (v *Vessel) Name() string { return v.name }

func (v *Vessel) Parts() []host.Part {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]host.Part, 0, len(v.parts))
	for _, p := range v.parts {
		out = append(out, p)
	}
	return out
}

func (v *Vessel) LandedAt() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.landedAt
}

func (v *Vessel) SpawnCrew() {
	v.mu.Lock()
	v.spawns++
	v.mu.Unlock()
}

func (v *Vessel) Alive() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.alive
}

// Part is a simulated crewed part.
type Part struct {
	mu        sync.Mutex
	id        string
	title     string
	capacity  int
	crew      []*host.Kerbal
	vessel    *Vessel
	alive     bool
	highlight host.HighlightColor
}

func (p *Part) ID() string        { return p.id }
func (p *Part) Title() string     { return p.title }
func (p *Part) CrewCapacity() int { return p.capacity }

func (p *Part) Crew() []*host.Kerbal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*host.Kerbal(nil), p.crew...)
}

func (p *Part) AddCrewmember(k *host.Kerbal) {
	if k == nil {
		return
	}
	p.mu.Lock()
	p.crew = append(p.crew, k)
	p.mu.Unlock()
	k.Status = host.StatusAssigned
	k.Seated = true
}

func (p *Part) RemoveCrewmember(k *host.Kerbal) {
	if k == nil {
		return
	}
	p.mu.Lock()
	for i, occupant := range p.crew {
		if occupant == k {
			p.crew = append(p.crew[:i], p.crew[i+1:]...)
			break
		}
	}
	p.mu.Unlock()
	k.Seated = false
	k.Status = host.StatusAvailable
}

func (p *Part) Vessel() host.Vessel { return p.vessel }

func (p *Part) Alive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.alive
}

func (p *Part) SetHighlight(color host.HighlightColor) {
	p.mu.Lock()
	p.highlight = color
	p.mu.Unlock()
}

func (p *Part) ClearHighlight() {
	p.mu.Lock()
	p.highlight = host.HighlightNone
	p.mu.Unlock()
}

// Highlight reports the currently applied highlight colour.
func (p *Part) Highlight() host.HighlightColor {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.highlight
}

func (p *Part) destroy() {
	p.mu.Lock()
	crew := p.crew
	p.crew = nil
	p.alive = false
	p.highlight = host.HighlightNone
	p.mu.Unlock()
	for _, k := range crew {
		k.Seated = false
		k.Status = host.StatusMissing
	}
}
