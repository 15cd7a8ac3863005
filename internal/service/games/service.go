package games

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/matchup-server/internal/bus"
	"github.com/vovakirdan/matchup-server/internal/store"
	"github.com/vovakirdan/matchup-server/internal/utils"
)

// Common errors for game operations.
var (
	ErrNotFound         = errors.New("game not found")
	ErrCapacityExceeded = errors.New("game is full")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidGame      = errors.New("invalid game")
)

// DefaultMaxPlayers is the capacity used when neither the request nor the
// configuration gives a positive one.
const DefaultMaxPlayers = 6

var validate = validator.New(validator.WithRequiredStructEnabled())

// CreateInput holds the caller-supplied fields of a new game.
type CreateInput struct {
	Title       string    `validate:"required,max=128"`
	Sport       string    `validate:"required,max=64"`
	ScheduledAt time.Time `validate:"required"`
	Location    string    `validate:"max=256"`
	Players     int       `validate:"gte=0"`
	// MaxPlayers falls back to the service default when nil.
	MaxPlayers *int `validate:"omitempty,gt=0"`
}

// Service provides game creation, listing and the capacity-gated join.
type Service struct {
	store             store.GameStore
	events            bus.Publisher
	defaultMaxPlayers int
	now               func() time.Time
	log               *zerolog.Logger
}

// New creates a game service. events may be nil when nobody listens for updates.
// A non-positive defaultMaxPlayers falls back to DefaultMaxPlayers.
func New(st store.GameStore, events bus.Publisher, defaultMaxPlayers int, logger *zerolog.Logger) *Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if defaultMaxPlayers <= 0 {
		logger.Warn().Int("default_max_players", defaultMaxPlayers).Int("fallback", DefaultMaxPlayers).Msg("invalid default max players, using fallback")
		defaultMaxPlayers = DefaultMaxPlayers
	}
	return &Service{
		store:             st,
		events:            events,
		defaultMaxPlayers: defaultMaxPlayers,
		now:               time.Now,
		log:               logger,
	}
}

// Create validates input, applies defaults and persists a new game.
func (s *Service) Create(ctx context.Context, in CreateInput) (*store.Game, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Sport = strings.TrimSpace(in.Sport)
	in.Location = strings.TrimSpace(in.Location)

	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidGame, err)
	}

	maxPlayers := s.defaultMaxPlayers
	if in.MaxPlayers != nil {
		maxPlayers = *in.MaxPlayers
	}
	if in.Players > maxPlayers {
		return nil, fmt.Errorf("%w: players %d exceed max players %d", ErrInvalidGame, in.Players, maxPlayers)
	}

	game := &store.Game{
		ID:          utils.NewID(),
		Title:       in.Title,
		Sport:       in.Sport,
		ScheduledAt: in.ScheduledAt.UTC(),
		Location:    in.Location,
		Players:     in.Players,
		MaxPlayers:  maxPlayers,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.CreateGame(ctx, game); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	s.log.Info().Str("game_id", game.ID).Str("sport", game.Sport).Int("max_players", game.MaxPlayers).Msg("game created")
	return game, nil
}

// Get returns a single game.
func (s *Service) Get(ctx context.Context, id string) (*store.Game, error) {
	game, err := s.store.GetGame(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return game, nil
}

// List returns all games, newest first.
func (s *Service) List(ctx context.Context) ([]*store.Game, error) {
	games, err := s.store.ListGames(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return games, nil
}

// Join takes one free slot of a game and announces the new state.
//
// The increment is a single guarded update in the store. When it matches
// nothing, a lookup tells a missing game apart from a full one.
func (s *Service) Join(ctx context.Context, id string) (*store.Game, error) {
	game, err := s.store.IncrementPlayers(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}

		if _, lookupErr := s.store.GetGame(ctx, id); lookupErr != nil {
			if errors.Is(lookupErr, store.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, lookupErr)
		}
		return nil, ErrCapacityExceeded
	}

	s.log.Debug().Str("game_id", game.ID).Int("players", game.Players).Int("max_players", game.MaxPlayers).Msg("player joined game")

	if s.events != nil {
		s.events.Publish(bus.GameUpdated{Game: *game})
	}
	return game, nil
}
