package events

import (
	"log"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultBufferSize is the default per-subscriber channel capacity.
	DefaultBufferSize = 64

	// EventTypeVesselChanged is the global "crew changed" notification. It is
	// fired once per completed operation, never per seat.
	EventTypeVesselChanged = "VesselChanged"
	// EventTypeScreenMessage carries a short user-visible notice.
	EventTypeScreenMessage = "ScreenMessage"
	// EventTypeTransferComplete reports a deferred transfer that settled.
	EventTypeTransferComplete = "TransferComplete"
	// EventTypeTransferDropped reports a deferred transfer whose endpoints
	// went away before it settled.
	EventTypeTransferDropped = "TransferDropped"
	// EventTypeSettingsSaved reports a settings persistence attempt.
	EventTypeSettingsSaved = "SettingsSaved"
	// EventTypeVesselRegistered reports a controller created for a vessel.
	EventTypeVesselRegistered = "VesselRegistered"
	// EventTypeVesselReleased reports a controller dropped for a vessel that
	// was destroyed or replaced.
	EventTypeVesselReleased = "VesselReleased"
)

const (
	// SeverityInfo indicates informational event severity.
	SeverityInfo = "INFO"
	// SeverityWarn indicates warning event severity.
	SeverityWarn = "WARN"
	// SeverityError indicates error event severity.
	SeverityError = "ERROR"
)

// Event is the message delivered through the in-process bus.
type Event struct {
	Type      string
	Timestamp time.Time
	VesselID  string
	PartID    string
	Kerbal    string
	Message   string
	Severity  string
}

// Handler consumes a published event.
type Handler func(Event)

// Logger captures warning logs for dropped events.
type Logger interface {
	Printf(format string, args ...any)
}

// Publisher is the narrow side of the bus used by crew operations.
type Publisher interface {
	Publish(event Event)
}

// Bus defines event subscription and publish behavior.
type Bus interface {
	Publisher
	Subscribe(eventType string, handler Handler)
	SubscribeAll(handler Handler)
}

// Option customizes bus construction.
type Option func(*InMemoryBus)

// WithBufferSize configures per-subscriber channel capacity.
func WithBufferSize(size int) Option {
	return func(bus *InMemoryBus) {
		if size > 0 {
			bus.bufferSize = size
		}
	}
}

// WithLogger configures the sink used for dropped-event warnings.
func WithLogger(logger Logger) Option {
	return func(bus *InMemoryBus) {
		if logger != nil {
			bus.logger = logger
		}
	}
}

// InMemoryBus is an in-process pub/sub bus backed by buffered channels.
// Handlers run on their own goroutine per subscriber and must not call back
// into manifest controllers.
type InMemoryBus struct {
	mu           sync.RWMutex
	bufferSize   int
	logger       Logger
	typedSubs    map[string][]*subscriber
	wildcardSubs []*subscriber
	nextID       uint64
	closed       bool
}

type subscriber struct {
	id uint64
	ch chan Event
}

// New creates an in-memory event bus.
func New(options ...Option) *InMemoryBus {
	bus := &InMemoryBus{
		bufferSize: DefaultBufferSize,
		logger:     log.Default(),
		typedSubs:  make(map[string][]*subscriber),
	}
	for _, option := range options {
		option(bus)
	}
	return bus
}

// Subscribe registers a handler for one event type.
func (b *InMemoryBus) Subscribe(eventType string, handler Handler) {
	normalizedType := strings.TrimSpace(eventType)
	if normalizedType == "" || handler == nil {
		return
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	sub := b.newSubscriberLocked()
	b.typedSubs[normalizedType] = append(b.typedSubs[normalizedType], sub)
	b.mu.Unlock()

	go consume(sub, handler)
}

// SubscribeAll registers a handler that receives every published event.
func (b *InMemoryBus) SubscribeAll(handler Handler) {
	if handler == nil {
		return
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	sub := b.newSubscriberLocked()
	b.wildcardSubs = append(b.wildcardSubs, sub)
	b.mu.Unlock()

	go consume(sub, handler)
}

// Publish delivers an event to typed and wildcard subscribers without
// blocking; a full subscriber buffer drops the event with a warning.
func (b *InMemoryBus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Severity == "" {
		event.Severity = SeverityInfo
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, sub := range b.typedSubs[strings.TrimSpace(event.Type)] {
		b.deliver(sub, event)
	}
	for _, sub := range b.wildcardSubs {
		b.deliver(sub, event)
	}
}

// Close stops every subscriber goroutine. Later publishes are ignored.
func (b *InMemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, subs := range b.typedSubs {
		for _, sub := range subs {
			close(sub.ch)
		}
	}
	for _, sub := range b.wildcardSubs {
		close(sub.ch)
	}
}

func (b *InMemoryBus) deliver(sub *subscriber, event Event) {
	select {
	case sub.ch <- event:
	default:
		b.logger.Printf(
			"events: dropping event for subscriber=%d type=%s vessel_id=%s kerbal=%s",
			sub.id,
			event.Type,
			event.VesselID,
			event.Kerbal,
		)
	}
}

func (b *InMemoryBus) newSubscriberLocked() *subscriber {
	b.nextID++
	return &subscriber{
		id: b.nextID,
		ch: make(chan Event, b.bufferSize),
	}
}

func consume(sub *subscriber, handler Handler) {
	for event := range sub.ch {
		handler(event)
	}
}

// Recorder is a synchronous Publisher that keeps every event in order.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish records the event.
func (r *Recorder) Publish(event Event) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Count returns how many recorded events have the given type.
func (r *Recorder) Count(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, event := range r.events {
		if event.Type == eventType {
			n++
		}
	}
	return n
}

// Fanout publishes to every non-nil publisher in order.
type Fanout []Publisher

// Publish forwards the event.
func (f Fanout) Publish(event Event) {
	for _, p := range f {
		if p != nil {
			p.Publish(event)
		}
	}
}
