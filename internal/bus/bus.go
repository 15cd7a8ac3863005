// Package bus carries domain events from request handlers to the real-time relay.
//
// Delivery is best effort: Publish never blocks, and an event is dropped for a
// subscriber whose buffer is full. Callers must not depend on delivery for
// correctness.
package bus

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/matchup-server/internal/store"
)

// Event is a domain event published on the bus.
type Event interface {
	Name() string
}

// GameUpdated is published after a game's player count changed.
type GameUpdated struct {
	Game store.Game
}

// Name implements Event.
func (GameUpdated) Name() string { return "game_updated" }

// Publisher is the write side of the bus.
type Publisher interface {
	Publish(event Event)
}

// Bus fans events out to every subscriber. It is safe for concurrent use.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	closed bool
	log    *zerolog.Logger
}

// New creates an empty bus.
func New(logger *zerolog.Logger) *Bus {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Bus{
		subs: make(map[int]chan Event),
		log:  logger,
	}
}

// Subscribe registers a subscriber with the given buffer size. The returned
// cancel func unsubscribes and closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
}

// Publish delivers event to every subscriber without blocking.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.log.Warn().Str("event", event.Name()).Int("subscriber", id).Msg("bus subscriber full, event dropped")
		}
	}
}

// Close unsubscribes everyone. Further publishes are no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
