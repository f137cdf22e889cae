// Package host declares the contracts the crew manifest needs from the
// simulation that owns vessels, parts and the crew roster.
package host

import (
	"strings"
	"time"
)

// RosterStatus is the roster-level availability of one crew member.
type RosterStatus int

const (
	// StatusAvailable marks a member that is not seated anywhere.
	StatusAvailable RosterStatus = iota
	// StatusAssigned marks a member occupying a seat in some part.
	StatusAssigned
	// StatusDead marks a member killed in flight.
	StatusDead
	// StatusMissing marks a member lost in flight.
	StatusMissing
)

func (s RosterStatus) String() string {
	switch s {
	case StatusAvailable:
		return "available"
	case StatusAssigned:
		return "assigned"
	case StatusDead:
		return "dead"
	case StatusMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// ParseRosterStatus maps a persisted status label back to its value.
func ParseRosterStatus(value string) (RosterStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "available":
		return StatusAvailable, true
	case "assigned":
		return StatusAssigned, true
	case "dead":
		return StatusDead, true
	case "missing":
		return StatusMissing, true
	default:
		return StatusAvailable, false
	}
}

// Gender is the crew member's gender tag.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// KerbalType is the crew member's roster category.
type KerbalType string

const (
	TypeCrew      KerbalType = "crew"
	TypeApplicant KerbalType = "applicant"
	TypeTourist   KerbalType = "tourist"
	TypeUnowned   KerbalType = "unowned"
)

// HighlightColor is the part highlight applied for one selection slot.
type HighlightColor string

const (
	HighlightNone      HighlightColor = ""
	HighlightSelection HighlightColor = "yellow"
	HighlightSource    HighlightColor = "green"
	HighlightTarget    HighlightColor = "red"
)

// Kerbal is one roster entry. The roster owns every Kerbal value; callers
// hold pointers and mutate through the roster or part operations.
type Kerbal struct {
	ID        string
	Name      string
	Status    RosterStatus
	Courage   float64
	Stupidity float64
	Badass    bool
	Gender    Gender
	Type      KerbalType
	Seated    bool
}

// Unavailable reports whether the member is dead or missing.
func (k *Kerbal) Unavailable() bool {
	return k != nil && (k.Status == StatusDead || k.Status == StatusMissing)
}

// Part is a crew-capacity-bearing unit of a vessel.
type Part interface {
	ID() string
	Title() string
	CrewCapacity() int
	// Crew returns the occupants in seat order. Callers must not retain the
	// slice across mutations.
	Crew() []*Kerbal
	// AddCrewmember seats k, marks it Assigned and spawns its seat.
	AddCrewmember(k *Kerbal)
	// RemoveCrewmember unseats k and marks it Available.
	RemoveCrewmember(k *Kerbal)
	Vessel() Vessel
	Alive() bool
	SetHighlight(color HighlightColor)
	ClearHighlight()
}

// Vessel is a host-owned aggregate of parts.
type Vessel interface {
	ID() string
	Name() string
	Parts() []Part
	// LandedAt is the location tag used to detect the pre-launch state.
	LandedAt() string
	// SpawnCrew resynchronises crew visuals after occupancy changes.
	SpawnCrew()
	Alive() bool
}

// Roster is the global collection of crew members.
type Roster interface {
	Crew() []*Kerbal
	Lookup(name string) (*Kerbal, bool)
	// NextOrNew returns an Available member or allocates a new one.
	NextOrNew() *Kerbal
	// New allocates a fresh roster slot.
	New() *Kerbal
	// Prototype returns a randomly generated member that is not yet in the
	// roster.
	Prototype() Kerbal
}

// Clock is the monotonic simulation clock.
type Clock interface {
	Now() time.Duration
}

// PartIsFull reports whether p has no free seat.
func PartIsFull(p Part) bool {
	return len(p.Crew()) >= p.CrewCapacity()
}

// Contains reports whether part p is one of the vessel's current parts.
func Contains(v Vessel, p Part) bool {
	if v == nil || p == nil {
		return false
	}
	for _, candidate := range v.Parts() {
		if candidate == p {
			return true
		}
	}
	return false
}

// Aboard reports whether k occupies a seat in p.
func Aboard(p Part, k *Kerbal) bool {
	if p == nil || k == nil {
		return false
	}
	for _, occupant := range p.Crew() {
		if occupant == k {
			return true
		}
	}
	return false
}
