package manifest

import (
	"errors"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/crewmanifest/crewmanifest/internal/host"
)

// Hook is invoked when a controller enters or leaves the registry.
type Hook func(*Controller)

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithControllerOptions sets the options every new controller is built with.
func WithControllerOptions(options ...Option) RegistryOption {
	return func(r *Registry) {
		r.options = append(r.options, options...)
	}
}

// WithRegisterHook runs hook after a controller is created and stored.
func WithRegisterHook(hook Hook) RegistryOption {
	return func(r *Registry) {
		r.onRegister = hook
	}
}

// WithEvictHook runs hook after a controller is removed by the sweep or by Unregister.
func WithEvictHook(hook Hook) RegistryOption {
	return func(r *Registry) {
		r.onEvict = hook
	}
}

// WithRegistryLogger sets the registry logger.
func WithRegistryLogger(logger *log.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Registry maps vessel IDs to their controllers.
type Registry struct {
	mu         sync.Mutex
	entries    map[string]*Controller
	roster     host.Roster
	options    []Option
	onRegister Hook
	onEvict    Hook
	logger     *log.Logger
}

// NewRegistry creates an empty registry drawing crew from roster.
func NewRegistry(roster host.Roster, options ...RegistryOption) *Registry {
	r := &Registry{
		entries: make(map[string]*Controller),
		roster:  roster,
		logger:  log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, option := range options {
		if option != nil {
			option(r)
		}
	}
	return r
}

// GetOrCreate returns the controller for vessel, creating one if needed.
// Entries for vessels that are no longer alive are swept first, and an
// entry whose ID now belongs to a different vessel instance is replaced.
func (r *Registry) GetOrCreate(vessel host.Vessel) (*Controller, error) {
	if vessel == nil {
		return nil, errors.New("vessel is required")
	}
	r.mu.Lock()
	evicted := r.sweepLocked()

	if existing, ok := r.entries[vessel.ID()]; ok {
		if existing.Vessel() == vessel {
			r.mu.Unlock()
			r.evict(evicted)
			return existing, nil
		}
		delete(r.entries, vessel.ID())
		evicted = append(evicted, existing)
	}

	controller, err := NewController(vessel, r.roster, r.options...)
	if err != nil {
		r.mu.Unlock()
		r.evict(evicted)
		return nil, err
	}
	r.entries[vessel.ID()] = controller
	r.mu.Unlock()

	r.evict(evicted)
	r.logger.Debug("controller registered", "vessel_id", vessel.ID(), "vessel", vessel.Name())
	if r.onRegister != nil {
		r.onRegister(controller)
	}
	return controller, nil
}

// Lookup returns the stored controller for id without creating one.
func (r *Registry) Lookup(id string) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.entries[id]
	return c, ok
}

// Unregister removes the controller for id. Unknown ids are ignored.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	c, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	r.mu.Unlock()
	if ok {
		r.evict([]*Controller{c})
	}
}

// Len reports the number of registered controllers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Controllers returns a snapshot of every registered controller.
func (r *Registry) Controllers() []*Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Controller, 0, len(r.entries))
	for _, c := range r.entries {
		out = append(out, c)
	}
	return out
}

func (r *Registry) sweepLocked() []*Controller {
	var evicted []*Controller
	for id, c := range r.entries {
		if c.Vessel().Alive() {
			continue
		}
		delete(r.entries, id)
		evicted = append(evicted, c)
	}
	return evicted
}

func (r *Registry) evict(controllers []*Controller) {
	for _, c := range controllers {
		c.ClearSelections()
		r.logger.Debug("controller evicted", "vessel_id", c.Vessel().ID())
		if r.onEvict != nil {
			r.onEvict(c)
		}
	}
}
