package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/matchup-server/internal/bus"
	"github.com/vovakirdan/matchup-server/internal/store"
	"github.com/vovakirdan/matchup-server/internal/utils"
)

const (
	// DefaultHistoryLimit is how many recent messages a joining client receives.
	DefaultHistoryLimit = 50
	// DefaultStoreTimeout bounds each store call made by the hub.
	DefaultStoreTimeout = 5 * time.Second
)

// Subscriber is the read side of the domain event bus.
type Subscriber interface {
	Subscribe(buffer int) (<-chan bus.Event, func())
}

// Option customizes a Hub.
type Option func(*Hub)

// WithHistoryLimit sets how many messages are replayed on join.
func WithHistoryLimit(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.historyLimit = n
		}
	}
}

// WithStoreTimeout bounds each store call made by the hub.
func WithStoreTimeout(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.storeTimeout = d
		}
	}
}

type clientCommand struct {
	client *Client
	cmd    *Command
}

// Hub owns room membership and message fan-out.
//
// All state is owned by the goroutine running Run. Commands from every client
// are handled one at a time, which gives every room a single total order:
// a message is persisted and broadcast before the next command is looked at,
// and a join takes its history snapshot and membership in one step.
//
// Store calls (history on join, persist on send) run on that same goroutine.
// A slow store therefore delays every room and the game_updated fan-out, each
// call bounded by the store timeout (WithStoreTimeout).
type Hub struct {
	store        store.MessageStore
	events       Subscriber
	log          *zerolog.Logger
	historyLimit int
	storeTimeout time.Duration
	now          func() time.Time

	clients   map[*Client]struct{}
	rooms     map[string]*Room
	lastStamp time.Time

	register   chan *Client
	unregister chan *Client
	inbox      chan clientCommand
	done       chan struct{}
}

// NewHub creates a new chat hub instance. A nil message store disables
// persistence and history; a nil subscriber disables game updates.
func NewHub(st store.MessageStore, events Subscriber, logger *zerolog.Logger, opts ...Option) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	h := &Hub{
		store:        st,
		events:       events,
		log:          logger,
		historyLimit: DefaultHistoryLimit,
		storeTimeout: DefaultStoreTimeout,
		now:          time.Now,
		clients:      make(map[*Client]struct{}),
		rooms:        make(map[string]*Room),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		inbox:        make(chan clientCommand, 256),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterClient attaches a client to the hub. Commands sent on
// client.Commands are processed from then on.
func (h *Hub) RegisterClient(c *Client) error {
	select {
	case h.register <- c:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

// UnregisterClient detaches a client, removes it from every room and closes
// its Events channel. Unregistering twice is harmless.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Run processes registrations, commands and domain events until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	var updates <-chan bus.Event
	if h.events != nil {
		ch, cancel := h.events.Subscribe(64)
		defer cancel()
		updates = ch
	}

	h.log.Info().Int("history_limit", h.historyLimit).Msg("hub started")

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case c := <-h.register:
			h.addClient(ctx, c)
		case c := <-h.unregister:
			h.removeClient(c)
		case in := <-h.inbox:
			h.handleCommand(ctx, in.client, in.cmd)
		case ev, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			h.handleDomainEvent(ev)
		}
	}
}

func (h *Hub) addClient(ctx context.Context, c *Client) {
	if c == nil {
		return
	}
	if _, exists := h.clients[c]; exists {
		return
	}
	h.clients[c] = struct{}{}
	h.log.Debug().Str("client_id", c.ID).Int("clients", len(h.clients)).Msg("client registered")

	go h.forward(ctx, c)
}

// forward moves a client's commands into the hub inbox, preserving their order.
func (h *Hub) forward(ctx context.Context, c *Client) {
	for {
		select {
		case cmd, ok := <-c.Commands:
			if !ok {
				return
			}
			if cmd == nil {
				continue
			}
			select {
			case h.inbox <- clientCommand{client: c, cmd: cmd}:
			case <-c.done:
				return
			case <-ctx.Done():
				return
			}
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) removeClient(c *Client) {
	if _, exists := h.clients[c]; !exists {
		return
	}
	for name := range c.rooms {
		h.leave(c, name)
	}
	delete(h.clients, c)
	close(c.done)
	close(c.Events)
	h.log.Debug().Str("client_id", c.ID).Int("clients", len(h.clients)).Msg("client unregistered")
}

func (h *Hub) handleCommand(ctx context.Context, c *Client, cmd *Command) {
	// The client may have been removed while this command was queued.
	if _, exists := h.clients[c]; !exists {
		return
	}

	switch cmd.Kind {
	case CommandJoinRoom:
		h.joinRoom(ctx, c, cmd.Room)
	case CommandLeaveRoom:
		h.leaveRoom(c, cmd.Room)
	case CommandSendRoomMessage:
		h.sendMessage(ctx, c, cmd)
	default:
		h.log.Debug().Str("client_id", c.ID).Stringer("kind", cmd.Kind).Msg("unknown command ignored")
	}
}

func (h *Hub) joinRoom(ctx context.Context, c *Client, name string) {
	if name == "" {
		h.log.Debug().Str("client_id", c.ID).Msg("join without room ignored")
		return
	}
	if _, joined := c.rooms[name]; joined {
		h.deliver(c, errorEvent(name, ErrCodeAlreadyJoined, "already joined"))
		return
	}

	history, err := h.history(ctx, name)
	if err != nil {
		h.log.Error().Err(err).Str("client_id", c.ID).Str("room", name).Msg("load history failed, join dropped")
		h.deliver(c, errorEvent(name, ErrCodeStoreUnavailable, "history unavailable"))
		return
	}

	room, ok := h.rooms[name]
	if !ok {
		room = NewRoom(name)
		h.rooms[name] = room
	}
	room.AddClient(c)
	c.rooms[name] = struct{}{}

	h.log.Debug().Str("client_id", c.ID).Str("room", name).Int("history", len(history)).Msg("client joined room")
	h.deliver(c, &Event{Kind: EventHistory, Room: name, Messages: history})
}

func (h *Hub) history(ctx context.Context, room string) ([]Message, error) {
	if h.store == nil {
		return []Message{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, h.storeTimeout)
	defer cancel()

	records, err := h.store.RecentMessages(ctx, room, h.historyLimit)
	if err != nil {
		return nil, err
	}
	messages := make([]Message, 0, len(records))
	for _, rec := range records {
		messages = append(messages, messageFromRecord(rec))
	}
	return messages, nil
}

func (h *Hub) leaveRoom(c *Client, name string) {
	if _, joined := c.rooms[name]; !joined {
		return
	}
	h.leave(c, name)
	h.log.Debug().Str("client_id", c.ID).Str("room", name).Msg("client left room")
}

func (h *Hub) leave(c *Client, name string) {
	delete(c.rooms, name)
	room, ok := h.rooms[name]
	if !ok {
		return
	}
	room.RemoveClient(c)
	if room.Empty() {
		delete(h.rooms, name)
	}
}

func (h *Hub) sendMessage(ctx context.Context, c *Client, cmd *Command) {
	if cmd.Room == "" {
		h.log.Debug().Str("client_id", c.ID).Msg("message without room ignored")
		return
	}

	msg := cmd.Message
	msg.ID = utils.NewID()
	msg.Room = cmd.Room
	msg.CreatedAt = h.stamp()
	if msg.From.ID == "" {
		msg.From.ID = c.ID
	}
	if msg.From.Name == "" {
		msg.From.Name = c.Name
	}

	if h.store != nil {
		saveCtx, cancel := context.WithTimeout(ctx, h.storeTimeout)
		err := h.store.SaveMessage(saveCtx, msg.toRecord())
		cancel()
		if err != nil {
			h.log.Error().Err(err).Str("client_id", c.ID).Str("room", msg.Room).Msg("persist message failed, broadcast dropped")
			return
		}
	}

	room, ok := h.rooms[msg.Room]
	if !ok {
		return
	}
	event := &Event{Kind: EventRoomMessage, Room: msg.Room, Message: msg}
	for _, member := range room.Members() {
		h.deliver(member, event)
	}
}

// stamp returns a creation time strictly after the previous one, so the
// stored order of messages always matches the order they were broadcast in.
func (h *Hub) stamp() time.Time {
	now := h.now().UTC()
	if !now.After(h.lastStamp) {
		now = h.lastStamp.Add(time.Nanosecond)
	}
	h.lastStamp = now
	return now
}

func (h *Hub) handleDomainEvent(ev bus.Event) {
	switch e := ev.(type) {
	case bus.GameUpdated:
		game := e.Game
		event := &Event{Kind: EventGameUpdated, Game: &game}
		for c := range h.clients {
			h.deliver(c, event)
		}
	default:
		h.log.Debug().Str("event", ev.Name()).Msg("domain event ignored")
	}
}

// deliver queues an event for a client. A client whose buffer is full is
// disconnected instead of silently missing the event.
func (h *Hub) deliver(c *Client, ev *Event) {
	if _, exists := h.clients[c]; !exists {
		return
	}
	select {
	case c.Events <- ev:
	default:
		h.log.Warn().Str("client_id", c.ID).Msg("client too slow, disconnecting")
		h.removeClient(c)
	}
}

func (h *Hub) shutdown() {
	for c := range h.clients {
		for name := range c.rooms {
			delete(c.rooms, name)
		}
		delete(h.clients, c)
		close(c.done)
		close(c.Events)
	}
	h.rooms = make(map[string]*Room)
	h.log.Info().Msg("hub stopped")
}
