package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/matchup-server/internal/proto"
	"github.com/vovakirdan/matchup-server/internal/service/games"
	"github.com/vovakirdan/matchup-server/internal/store"
)

// GameHandlers provides HTTP handlers for game endpoints.
type GameHandlers struct {
	games *games.Service
	log   *zerolog.Logger
}

// NewGameHandlers creates a new game handlers instance.
func NewGameHandlers(gameService *games.Service, logger *zerolog.Logger) *GameHandlers {
	return &GameHandlers{
		games: gameService,
		log:   logger,
	}
}

// CreateGameRequest represents the create game request body.
type CreateGameRequest struct {
	Title      string    `json:"title" binding:"required"`
	Sport      string    `json:"sport" binding:"required"`
	Time       time.Time `json:"time" binding:"required"`
	Location   string    `json:"location"`
	Players    *int      `json:"players"`
	MaxPlayers *int      `json:"max_players"`
}

// GameResponse is a game in API responses. It has the same shape as the
// game carried by game_updated events.
type GameResponse = proto.Game

// CreateGame handles game creation.
// POST /api/games
func (h *GameHandlers) CreateGame(c *gin.Context) {
	var req CreateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create game request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	game, err := h.games.Create(c.Request.Context(), games.CreateInput{
		Title:       req.Title,
		Sport:       req.Sport,
		ScheduledAt: req.Time,
		Location:    req.Location,
		Players:     lo.FromPtr(req.Players),
		MaxPlayers:  req.MaxPlayers,
	})
	if err != nil {
		if errors.Is(err, games.ErrInvalidGame) {
			h.log.Debug().Err(err).Msg("rejected game")
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		h.log.Error().Err(err).Str("title", req.Title).Msg("failed to create game")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, gameToProto(game))
}

// ListGames handles listing games, newest first.
// GET /api/games
func (h *GameHandlers) ListGames(c *gin.Context) {
	list, err := h.games.List(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list games")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Debug().Int("game_count", len(list)).Msg("games listed successfully")
	c.JSON(http.StatusOK, lo.Map(list, func(g *store.Game, _ int) GameResponse { return gameToProto(g) }))
}

// GetGame returns a single game.
// GET /api/games/:id
func (h *GameHandlers) GetGame(c *gin.Context) {
	id := c.Param("id")

	game, err := h.games.Get(c.Request.Context(), id)
	if err != nil {
		h.writeGameError(c, id, err, "failed to get game")
		return
	}

	c.JSON(http.StatusOK, gameToProto(game))
}

// JoinGame takes one free slot in a game.
// POST /api/games/:id/join
func (h *GameHandlers) JoinGame(c *gin.Context) {
	id := c.Param("id")

	game, err := h.games.Join(c.Request.Context(), id)
	if err != nil {
		h.writeGameError(c, id, err, "failed to join game")
		return
	}

	h.log.Info().Str("game_id", game.ID).Int("players", game.Players).Int("max_players", game.MaxPlayers).Msg("game joined")
	c.JSON(http.StatusOK, gameToProto(game))
}

func (h *GameHandlers) writeGameError(c *gin.Context, id string, err error, msg string) {
	switch {
	case errors.Is(err, games.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "game not found"})
	case errors.Is(err, games.ErrCapacityExceeded):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "game is full"})
	default:
		h.log.Error().Err(err).Str("game_id", id).Msg(msg)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}
