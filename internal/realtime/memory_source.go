package realtime

import (
	"context"
	"sync"
)

// MemorySource is an in-process hub. It backs realtime notifications when the row
// store is SQLite, and in tests.
type MemorySource struct {
	mu     sync.Mutex
	subs   map[string]map[*memorySubscription]struct{}
	closed bool
}

func NewMemorySource() *MemorySource {
	return &MemorySource{subs: make(map[string]map[*memorySubscription]struct{})}
}

func (m *MemorySource) Subscribe(_ context.Context, channel string) (Subscription, error) {
	sub := &memorySubscription{source: m, channel: channel, out: make(chan Notification, 64)}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		close(sub.out)
		return sub, nil
	}
	if m.subs[channel] == nil {
		m.subs[channel] = make(map[*memorySubscription]struct{})
	}
	m.subs[channel][sub] = struct{}{}
	return sub, nil
}

// Publish delivers payload to every open subscription on channel and reports how
// many received it. Subscribers with a full buffer miss the message.
func (m *MemorySource) Publish(channel string, payload []byte) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	delivered := 0
	for sub := range m.subs[channel] {
		select {
		case sub.out <- Notification{Channel: channel, Payload: payload}:
			delivered++
		default:
		}
	}
	return delivered
}

// Subscribers returns the number of open subscriptions on channel.
func (m *MemorySource) Subscribers(channel string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs[channel])
}

func (m *MemorySource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	for _, subs := range m.subs {
		for sub := range subs {
			close(sub.out)
		}
	}
	m.subs = nil
	return nil
}

type memorySubscription struct {
	source  *MemorySource
	channel string
	out     chan Notification
}

func (s *memorySubscription) C() <-chan Notification { return s.out }

func (s *memorySubscription) Close() error {
	m := s.source
	m.mu.Lock()
	defer m.mu.Unlock()
	if subs, ok := m.subs[s.channel]; ok {
		if _, open := subs[s]; open {
			delete(subs, s)
			close(s.out)
		}
	}
	return nil
}
