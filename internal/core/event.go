package core

import "github.com/vovakirdan/matchup-server/internal/store"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventRoomMessage notifies clients about a chat message in a room.
	EventRoomMessage EventKind = iota
	// EventHistory delivers message history to a client upon joining a room.
	EventHistory
	// EventGameUpdated notifies every connected client about a changed game.
	EventGameUpdated
	// EventError notifies clients about a domain error.
	EventError
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind     EventKind
	Room     string
	Message  Message
	Messages []Message // For EventHistory
	Game     *store.Game
	Error    *CoreError
}
