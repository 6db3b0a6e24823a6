package events

import (
	"context"

	aptevents "github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/realtime/pkg/event"
)

// MockBroadcaster is a test mock for Broadcaster. It records every broadcast
// so tests can assert on the target rooms and payloads.
type MockBroadcaster struct {
	Calls                 []BroadcastCall
	BroadcastEnvelopeFunc func(roomNames []string, env event.Envelope) int
}

type BroadcastCall struct {
	Rooms    []string
	Envelope event.Envelope
}

func NewMockBroadcaster() *MockBroadcaster {
	return &MockBroadcaster{}
}

func (m *MockBroadcaster) BroadcastEnvelope(roomNames []string, env event.Envelope) int {
	m.Calls = append(m.Calls, BroadcastCall{Rooms: roomNames, Envelope: env})
	if m.BroadcastEnvelopeFunc != nil {
		return m.BroadcastEnvelopeFunc(roomNames, env)
	}
	return len(roomNames)
}

// MockSubscriber is a test mock for the broker subscriber. It captures the
// registered handler so tests can feed deliveries directly.
type MockSubscriber struct {
	Topics        []string
	Handler       aptevents.HandlerFunc
	SubscribeFunc func(ctx context.Context, topic string, handler aptevents.HandlerFunc) error
}

func NewMockSubscriber() *MockSubscriber {
	return &MockSubscriber{}
}

func (m *MockSubscriber) Subscribe(ctx context.Context, topic string, handler aptevents.HandlerFunc) error {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(ctx, topic, handler)
	}
	m.Topics = append(m.Topics, topic)
	m.Handler = handler
	return nil
}
