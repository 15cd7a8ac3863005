package core

// Client is a chat participant as seen by the core layer.
//
// Commands is written by the transport and read by the hub. Events is
// written only by the hub and closed by it when the client is unregistered,
// evicted, or the hub stops.
type Client struct {
	ID       string
	Name     string
	Commands chan *Command
	Events   chan *Event

	// owned by the hub goroutine
	rooms map[string]struct{}
	done  chan struct{}
}

// DefaultClientBuffer is the event buffer size used when none is given.
const DefaultClientBuffer = 64

// NewClient constructs a client with initialized channels.
func NewClient(id, name string) *Client {
	return NewClientWithBuffer(id, name, DefaultClientBuffer)
}

// NewClientWithBuffer constructs a client whose event channel holds buffer events.
func NewClientWithBuffer(id, name string, buffer int) *Client {
	if name == "" {
		name = id
	}
	if buffer <= 0 {
		buffer = DefaultClientBuffer
	}
	return &Client{
		ID:       id,
		Name:     name,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, buffer),
		rooms:    make(map[string]struct{}),
		done:     make(chan struct{}),
	}
}
