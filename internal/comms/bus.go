// Package comms is the socket.io pub/sub bus that carries registry
// notifications to connected editors and watchers.
//
// Every message is sent on the single socket.io event "comms" as a
// {topic, data} envelope. Messages published with retain set are kept as
// the topic's last value and replayed to each client when it connects.
// Publishing a topic without retain clears its retained value.
package comms

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"sync"

	"github.com/specialistvlad/nodereg/internal/ctxlog"
	"github.com/zishang520/socket.io/v2/socket"
)

// EventName is the socket.io event every message is emitted on.
const EventName = "comms"

// Message is the envelope sent to clients.
type Message struct {
	Topic string `json:"topic"`
	Data  any    `json:"data"`
}

// Bus publishes messages to all connected socket.io clients.
type Bus struct {
	logger *slog.Logger
	io     *socket.Server
	emit   func(Message)

	mu       sync.Mutex
	retained map[string]Message
}

// NewBus creates a Bus backed by a socket.io server.
func NewBus(ctx context.Context) *Bus {
	io := socket.NewServer(nil, nil)
	b := newBus(ctx, func(m Message) {
		io.Emit(EventName, m)
	})
	b.io = io

	io.On("connection", func(clients ...any) {
		client, ok := clients[0].(*socket.Socket)
		if !ok {
			return
		}
		b.logger.Debug("Comms client connected.", "sid", client.Id())
		for _, m := range b.Retained() {
			client.Emit(EventName, m)
		}
		client.On("disconnect", func(...any) {
			b.logger.Debug("Comms client disconnected.", "sid", client.Id())
		})
	})
	return b
}

func newBus(ctx context.Context, emit func(Message)) *Bus {
	return &Bus{
		logger:   ctxlog.FromContext(ctx).With("component", "comms"),
		emit:     emit,
		retained: make(map[string]Message),
	}
}

// Publish sends payload on topic to every connected client.
func (b *Bus) Publish(topic string, payload any, retain bool) {
	m := Message{Topic: topic, Data: payload}

	b.mu.Lock()
	if retain {
		b.retained[topic] = m
	} else {
		delete(b.retained, topic)
	}
	b.mu.Unlock()

	b.logger.Debug("Publishing message.", "topic", topic, "retain", retain)
	b.emit(m)
}

// Retained returns the retained messages sorted by topic.
func (b *Bus) Retained() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Message, 0, len(b.retained))
	for _, m := range b.retained {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Topic < out[j].Topic })
	return out
}

// Handler returns the HTTP handler serving the socket.io endpoint.
func (b *Bus) Handler() http.Handler {
	return b.io.ServeHandler(nil)
}

// Close disconnects all clients.
func (b *Bus) Close() {
	if b.io != nil {
		b.io.Close(nil)
	}
}
