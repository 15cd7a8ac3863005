package core

import (
	"time"

	"github.com/vovakirdan/matchup-server/internal/store"
)

// Author identifies the sender of a chat message.
type Author struct {
	ID   string
	Name string
}

// Message is the domain model for a chat message.
type Message struct {
	ID        string
	Room      string
	From      Author
	Text      string
	CreatedAt time.Time
}

func (m Message) toRecord() *store.ChatMessage {
	return &store.ChatMessage{
		ID:        m.ID,
		Room:      m.Room,
		Author:    store.Author{ID: m.From.ID, Name: m.From.Name},
		Text:      m.Text,
		CreatedAt: m.CreatedAt,
	}
}

func messageFromRecord(rec *store.ChatMessage) Message {
	return Message{
		ID:        rec.ID,
		Room:      rec.Room,
		From:      Author{ID: rec.Author.ID, Name: rec.Author.Name},
		Text:      rec.Text,
		CreatedAt: rec.CreatedAt,
	}
}
