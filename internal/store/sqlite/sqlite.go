package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/matchup-server/internal/store"
)

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ store.Store = (*SQLiteStore)(nil)

// New creates a new SQLite store and applies pending migrations.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, Migrate)
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply schema against an in-memory database.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; it also keeps an
	// in-memory database alive for the lifetime of the store.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== GameStore implementation ====

const gameColumns = `id, title, sport, scheduled_at, location, players, max_players, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*store.Game, error) {
	var game store.Game
	if err := row.Scan(
		&game.ID,
		&game.Title,
		&game.Sport,
		&game.ScheduledAt,
		&game.Location,
		&game.Players,
		&game.MaxPlayers,
		&game.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &game, nil
}

// CreateGame inserts a new game.
func (s *SQLiteStore) CreateGame(ctx context.Context, game *store.Game) error {
	query := `
		INSERT INTO games (` + gameColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		game.ID,
		game.Title,
		game.Sport,
		game.ScheduledAt.UTC(),
		game.Location,
		game.Players,
		game.MaxPlayers,
		game.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	return nil
}

// GetGame retrieves a game by ID.
func (s *SQLiteStore) GetGame(ctx context.Context, id string) (*store.Game, error) {
	return getGame(ctx, s.db, id)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getGame(ctx context.Context, q queryer, id string) (*store.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = ?`
	game, err := scanGame(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("game %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query game: %w", err)
	}
	return game, nil
}

// ListGames lists all games, newest first.
func (s *SQLiteStore) ListGames(ctx context.Context) ([]*store.Game, error) {
	query := `
		SELECT ` + gameColumns + `
		FROM games
		ORDER BY created_at DESC, rowid DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	games := make([]*store.Game, 0)
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, game)
	}

	return games, rows.Err()
}

// IncrementPlayers adds one player to a game that still has a free slot.
// The guard and the increment are a single UPDATE, so concurrent callers
// cannot both take the last slot.
func (s *SQLiteStore) IncrementPlayers(ctx context.Context, id string) (*store.Game, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	query := `
		UPDATE games
		SET players = players + 1
		WHERE id = ? AND players < max_players
	`
	result, err := tx.ExecContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("increment players: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("open game %s: %w", id, store.ErrNotFound)
	}

	game, err := getGame(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return game, nil
}

// ==== PostStore implementation ====

// CreatePost inserts a new post.
func (s *SQLiteStore) CreatePost(ctx context.Context, post *store.Post) error {
	query := `
		INSERT INTO posts (id, title, caption, image, author_id, author_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		post.ID,
		post.Title,
		post.Caption,
		post.Image,
		post.Author.ID,
		post.Author.Name,
		post.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

// ListPosts lists all posts, newest first.
func (s *SQLiteStore) ListPosts(ctx context.Context) ([]*store.Post, error) {
	query := `
		SELECT id, title, caption, image, author_id, author_name, created_at
		FROM posts
		ORDER BY created_at DESC, rowid DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*store.Post, 0)
	for rows.Next() {
		var post store.Post
		if err := rows.Scan(
			&post.ID,
			&post.Title,
			&post.Caption,
			&post.Image,
			&post.Author.ID,
			&post.Author.Name,
			&post.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, &post)
	}

	return posts, rows.Err()
}

// ==== MessageStore implementation ====

// SaveMessage persists a message to storage.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *store.ChatMessage) error {
	if msg.Room == "" {
		return errors.New("insert message: empty room")
	}
	query := `
		INSERT INTO chat_messages (id, room, author_id, author_name, text, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		msg.ID,
		msg.Room,
		msg.Author.ID,
		msg.Author.Name,
		msg.Text,
		msg.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// RecentMessages retrieves the newest messages of a room in chronological order.
func (s *SQLiteStore) RecentMessages(ctx context.Context, room string, limit int) ([]*store.ChatMessage, error) {
	query := `
		SELECT id, room, author_id, author_name, text, created_at
		FROM chat_messages
		WHERE room = ?
		ORDER BY created_at DESC, seq DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, room, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []*store.ChatMessage
	for rows.Next() {
		var msg store.ChatMessage
		var createdAt int64
		if err := rows.Scan(&msg.ID, &msg.Room, &msg.Author.ID, &msg.Author.Name, &msg.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.CreatedAt = time.Unix(0, createdAt).UTC()
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to get chronological order
	for i := range len(messages) / 2 {
		messages[i], messages[len(messages)-1-i] = messages[len(messages)-1-i], messages[i]
	}

	return messages, nil
}
