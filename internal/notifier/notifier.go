// Package notifier publishes registry state changes to subscribers.
//
// Emit never blocks: events go onto a bounded queue and a single dispatch
// loop (Run) hands them to every subscribed Publisher in emission order. When
// the queue is full the event is dropped and counted. Delivery failures stay
// inside the notifier.
package notifier

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/nodereg/internal/ctxlog"
)

// Kind is the topic an event is published on.
type Kind string

// Event topics.
const (
	KindNodeAdded      Kind = "node/added"
	KindNodeRemoved    Kind = "node/removed"
	KindModuleRemoved  Kind = "module/removed"
	KindNodeEnabled    Kind = "node/enabled"
	KindNodeDisabled   Kind = "node/disabled"
	KindNodeError      Kind = "node/error"
	KindRegistryLoaded Kind = "registry/loaded"
)

// Event is a single state-change record.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Kind      Kind      `json:"kind"`
	SubjectID string    `json:"subject"`
	Payload   any       `json:"payload"`
	Time      time.Time `json:"time"`
	// Retain asks the bus to keep the event as the topic's last value.
	Retain bool `json:"-"`
}

// NewEvent creates an event with a fresh ID.
func NewEvent(kind Kind, subjectID string, payload any) Event {
	return Event{
		ID:        uuid.New(),
		Kind:      kind,
		SubjectID: subjectID,
		Payload:   payload,
		Time:      time.Now().UTC(),
	}
}

// Emitter accepts events for publication.
type Emitter interface {
	Emit(ctx context.Context, ev Event)
}

// Publisher is a pub/sub bus that receives events.
type Publisher interface {
	Publish(topic string, payload any, retain bool)
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(topic string, payload any, retain bool)

// Publish calls f.
func (f PublisherFunc) Publish(topic string, payload any, retain bool) { f(topic, payload, retain) }

// Option configures a Notifier.
type Option func(*Notifier)

// WithDropHook sets a function called for every event dropped because the
// queue was full.
func WithDropHook(fn func(Kind)) Option {
	return func(n *Notifier) { n.onDrop = fn }
}

// DefaultBuffer is the queue size used when New is given a non-positive one.
const DefaultBuffer = 256

// Notifier fans events out to subscribers.
type Notifier struct {
	queue  chan Event
	onDrop func(Kind)

	mu     sync.RWMutex
	subs   map[int]Publisher
	nextID int
}

// New creates a Notifier with a queue of the given size.
func New(buffer int, opts ...Option) *Notifier {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	n := &Notifier{
		queue: make(chan Event, buffer),
		subs:  make(map[int]Publisher),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Subscribe registers p and returns a function that removes it again.
func (n *Notifier) Subscribe(p Publisher) (unsubscribe func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextID
	n.nextID++
	n.subs[id] = p
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

// Emit queues ev for delivery. It returns immediately; if the queue is full
// the event is dropped.
func (n *Notifier) Emit(ctx context.Context, ev Event) {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}

	select {
	case n.queue <- ev:
	default:
		ctxlog.FromContext(ctx).Warn("Notification queue full, dropping event.", "kind", ev.Kind, "subject", ev.SubjectID)
		if n.onDrop != nil {
			n.onDrop(ev.Kind)
		}
	}
}

// Run delivers queued events until ctx is cancelled. Events still queued at
// that point are delivered before Run returns.
func (n *Notifier) Run(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Notifier started.")
	defer logger.Debug("Notifier stopped.")

	for {
		select {
		case ev := <-n.queue:
			n.dispatch(ctx, ev)
		case <-ctx.Done():
			for {
				select {
				case ev := <-n.queue:
					n.dispatch(ctx, ev)
				default:
					return
				}
			}
		}
	}
}

func (n *Notifier) dispatch(ctx context.Context, ev Event) {
	n.mu.RLock()
	subs := make([]Publisher, 0, len(n.subs))
	for _, p := range n.subs {
		subs = append(subs, p)
	}
	n.mu.RUnlock()

	for _, p := range subs {
		deliver(ctx, p, ev)
	}
}

// deliver hands ev to p, containing any panic from the subscriber.
func deliver(ctx context.Context, p Publisher, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			ctxlog.FromContext(ctx).Error("Subscriber panicked while publishing.", "kind", ev.Kind, "panic", r)
		}
	}()
	p.Publish(string(ev.Kind), ev, ev.Retain)
}
