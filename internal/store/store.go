//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a point lookup or guarded update matches no record.
var ErrNotFound = errors.New("record not found")

// Author identifies who wrote a post or chat message.
type Author struct {
	ID   string
	Name string
}

// Game represents a pickup sports session.
type Game struct {
	ID          string
	Title       string
	Sport       string
	ScheduledAt time.Time
	Location    string
	Players     int
	MaxPlayers  int
	CreatedAt   time.Time
}

// Full reports whether the game has no free slots left.
func (g *Game) Full() bool {
	return g.Players >= g.MaxPlayers
}

// Post represents a social feed item.
type Post struct {
	ID        string
	Title     string
	Caption   string
	Image     string
	Author    Author
	CreatedAt time.Time
}

// ChatMessage represents a persisted chat message.
type ChatMessage struct {
	ID        string
	Room      string
	Author    Author
	Text      string
	CreatedAt time.Time
}

// GameStore handles game persistence.
type GameStore interface {
	// CreateGame inserts a new game. ID and CreatedAt are assigned by the caller.
	CreateGame(ctx context.Context, game *Game) error

	// GetGame retrieves a game by ID. Returns ErrNotFound if it does not exist.
	GetGame(ctx context.Context, id string) (*Game, error)

	// ListGames lists all games, newest first.
	ListGames(ctx context.Context) ([]*Game, error)

	// IncrementPlayers atomically adds one player if the game is not full
	// and returns the updated record. Returns ErrNotFound when no row matched,
	// either because the game does not exist or because it is full.
	IncrementPlayers(ctx context.Context, id string) (*Game, error)
}

// PostStore handles post persistence.
type PostStore interface {
	// CreatePost inserts a new post. ID and CreatedAt are assigned by the caller.
	CreatePost(ctx context.Context, post *Post) error

	// ListPosts lists all posts, newest first.
	ListPosts(ctx context.Context) ([]*Post, error)
}

// MessageStore handles chat message persistence.
type MessageStore interface {
	// SaveMessage persists a message to storage.
	SaveMessage(ctx context.Context, msg *ChatMessage) error

	// RecentMessages returns up to limit most recent messages of a room,
	// ordered oldest to newest.
	RecentMessages(ctx context.Context, room string, limit int) ([]*ChatMessage, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	GameStore
	PostStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
