package comms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusRetention(t *testing.T) {
	var sent []Message
	b := newBus(context.Background(), func(m Message) { sent = append(sent, m) })

	b.Publish("registry/loaded", map[string]int{"modules": 2}, true)
	b.Publish("node/enabled", "m/a", false)
	b.Publish("a/first", "x", true)

	assert.Len(t, sent, 3)
	assert.Equal(t, Message{Topic: "node/enabled", Data: "m/a"}, sent[1])
	assert.Equal(t, []Message{
		{Topic: "a/first", Data: "x"},
		{Topic: "registry/loaded", Data: map[string]int{"modules": 2}},
	}, b.Retained())

	// A non-retained publish on a retained topic clears it.
	b.Publish("a/first", "y", false)
	assert.Equal(t, []Message{{Topic: "registry/loaded", Data: map[string]int{"modules": 2}}}, b.Retained())
}
