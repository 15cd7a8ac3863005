package core

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/matchup-server/internal/store"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func nextEvent(t *testing.T, ch <-chan *Event) *Event {
	t.Helper()

	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatalf("events channel closed")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("no event received")
		return nil
	}
}

func mustClosed(t *testing.T, ch <-chan *Event) {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("events channel not closed")
		}
	}
}

func startHub(t *testing.T, st store.MessageStore, events Subscriber, opts ...Option) *Hub {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(st, events, nil, opts...)
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.Done()
	})
	return hub
}

func joinedClient(t *testing.T, hub *Hub, id, room string) *Client {
	t.Helper()

	c := NewClient(id, id)
	if err := hub.RegisterClient(c); err != nil {
		t.Fatalf("register %s: %v", id, err)
	}
	c.Commands <- &Command{Kind: CommandJoinRoom, Room: room}
	mustEvent(t, c.Events, EventHistory)
	return c
}

// memStore is an in-memory store.MessageStore.
type memStore struct {
	mu       sync.Mutex
	messages []*store.ChatMessage
	failText string
}

func (m *memStore) SaveMessage(_ context.Context, msg *store.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failText != "" && msg.Text == m.failText {
		return errors.New("disk full")
	}
	cp := *msg
	m.messages = append(m.messages, &cp)
	return nil
}

func (m *memStore) RecentMessages(_ context.Context, room string, limit int) ([]*store.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*store.ChatMessage
	for _, msg := range m.messages {
		if msg.Room == room {
			cp := *msg
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// failOn makes SaveMessage fail for messages with the given text.
func (m *memStore) failOn(text string) {
	m.mu.Lock()
	m.failText = text
	m.mu.Unlock()
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}
