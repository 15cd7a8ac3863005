package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeHello = "hello"
	InboundTypeJoin  = "join"
	InboundTypeLeave = "leave"
	InboundTypeMsg   = "msg"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventNameHello       = "hello"
	EventNameMessage     = "message"
	EventNameHistory     = "history"
	EventNameGameUpdated = "game_updated"
)

// HelloData is sent by the client to introduce itself. It sets the default
// author of messages sent on this connection.
type HelloData struct {
	User     string `json:"user"`
	UserID   string `json:"user_id,omitempty"`
	Protocol int    `json:"protocol,omitempty"`
}

// JoinData requests to join or leave a specific room.
type JoinData struct {
	Room string `json:"room"`
}

// Author identifies who wrote a message.
type Author struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MsgData is a chat message from the client.
type MsgData struct {
	Room   string  `json:"room"`
	Text   string  `json:"text"`
	Author *Author `json:"author,omitempty"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// EventHello acknowledges a hello.
type EventHello struct {
	ClientID string `json:"client_id"`
	User     string `json:"user"`
	Protocol int    `json:"protocol"`
}

// EventMessage is a persisted chat message delivered to room members.
type EventMessage struct {
	ID     string `json:"id"`
	Room   string `json:"room"`
	Author Author `json:"author"`
	Text   string `json:"text"`
	TS     int64  `json:"ts"` // unix milliseconds
}

// EventHistory carries recent messages of a room, oldest first.
type EventHistory struct {
	Room     string         `json:"room"`
	Messages []EventMessage `json:"messages"`
}

// EventGameUpdated carries the new state of a game.
type EventGameUpdated struct {
	Game Game `json:"game"`
}

// Game is the wire form of a game.
type Game struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Sport      string `json:"sport"`
	Time       string `json:"time"`
	Location   string `json:"location"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"max_players"`
	CreatedAt  string `json:"created_at"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
