package sim

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/crewmanifest/crewmanifest/internal/host"
	"github.com/google/uuid"
)

var (
	firstNames = []string{
		"Jebediah", "Bill", "Bob", "Valentina", "Gus", "Wernher", "Gene",
		"Linus", "Mortimer", "Walt", "Dilsby", "Ludo", "Tedrin", "Sigrid",
		"Agaden", "Lodan", "Burdous", "Meremy", "Sidmal", "Anlan",
	}
	firstNamesFemale = map[string]struct{}{
		"Valentina": {}, "Sigrid": {}, "Meremy": {}, "Anlan": {},
	}
)

// Roster is a simulated global crew roster.
type Roster struct {
	mu   sync.Mutex
	crew []*host.Kerbal
	rng  *rand.Rand
}

// RosterOption customises roster construction.
type RosterOption func(*Roster)

// WithSeed makes generated names and traits deterministic.
func WithSeed(seed int64) RosterOption {
	return func(r *Roster) {
		r.rng = rand.New(rand.NewSource(seed)) // #nosec G404 -- cosmetic randomness
	}
}

// NewRoster builds an empty roster.
func NewRoster(options ...RosterOption) *Roster {
	r := &Roster{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())), // #nosec G404 -- cosmetic randomness
	}
	for _, option := range options {
		if option != nil {
			option(r)
		}
	}
	return r
}

// Restore inserts a previously persisted member as-is.
func (r *Roster) Restore(k host.Kerbal) *host.Kerbal {
	if k.ID == "" {
		k.ID = uuid.NewString()
	}
	member := k
	r.mu.Lock()
	r.crew = append(r.crew, &member)
	r.mu.Unlock()
	return &member
}

// Hire adds a named Available crew member.
func (r *Roster) Hire(name string) *host.Kerbal {
	k := r.New()
	k.Name = name
	k.Gender = genderOf(name)
	return k
}

func (r *Roster) Crew() []*host.Kerbal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*host.Kerbal(nil), r.crew...)
}

func (r *Roster) Lookup(name string) (*host.Kerbal, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range r.crew {
		if k.Name == name {
			return k, true
		}
	}
	return nil, false
}

func (r *Roster) NextOrNew() *host.Kerbal {
	r.mu.Lock()
	for _, k := range r.crew {
		if k.Status == host.StatusAvailable && !k.Seated && k.Type == host.TypeCrew {
			r.mu.Unlock()
			return k
		}
	}
	r.mu.Unlock()
	return r.New()
}

func (r *Roster) New() *host.Kerbal {
	proto := r.Prototype()
	proto.ID = uuid.NewString()
	proto.Status = host.StatusAvailable
	member := proto

	r.mu.Lock()
	r.crew = append(r.crew, &member)
	r.mu.Unlock()
	return &member
}

func (r *Roster) Prototype() host.Kerbal {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := r.uniqueNameLocked()
	return host.Kerbal{
		Name:      name,
		Status:    host.StatusAvailable,
		Courage:   roundTrait(r.rng.Float64()),
		Stupidity: roundTrait(r.rng.Float64()),
		Badass:    r.rng.Intn(10) == 0,
		Gender:    genderOf(name),
		Type:      host.TypeCrew,
	}
}

func (r *Roster) uniqueNameLocked() string {
	taken := make(map[string]struct{}, len(r.crew))
	for _, k := range r.crew {
		taken[k.Name] = struct{}{}
	}
	for attempt := 0; ; attempt++ {
		name := firstNames[r.rng.Intn(len(firstNames))] + " Kerman"
		if attempt >= len(firstNames) {
			name = fmt.Sprintf("%s %d", name, attempt)
		}
		if _, exists := taken[name]; !exists {
			return name
		}
	}
}

func genderOf(name string) host.Gender {
	first, _, _ := strings.Cut(name, " ")
	if _, female := firstNamesFemale[first]; female {
		return host.GenderFemale
	}
	return host.GenderMale
}

func roundTrait(value float64) float64 {
	return float64(int(value*100)) / 100
}
