package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/matchup-server/internal/config"
	"github.com/vovakirdan/matchup-server/internal/core"
	"github.com/vovakirdan/matchup-server/internal/service/games"
	"github.com/vovakirdan/matchup-server/internal/store"
)

// NewServer builds an HTTP server with REST and WebSocket routes.
func NewServer(hub *core.Hub, gameService *games.Service, posts store.PostStore, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	origins := newOriginPolicy(cfg.AllowedOrigins, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))
	router.Use(OriginMiddleware(origins, logger))

	router.GET("/health", healthHandler)

	gameHandlers := NewGameHandlers(gameService, logger)
	postHandlers := NewPostHandlers(posts, logger)

	api := router.Group("/api")
	{
		api.GET("/games", gameHandlers.ListGames)
		api.POST("/games", gameHandlers.CreateGame)
		api.GET("/games/:id", gameHandlers.GetGame)
		api.POST("/games/:id/join", gameHandlers.JoinGame)

		api.GET("/posts", postHandlers.ListPosts)
		api.POST("/posts", postHandlers.CreatePost)
	}

	wsHandler := NewWSHandler(hub, origins, WSConfig{
		MaxMessageBytes: cfg.MaxMessageBytes,
		RateLimitPerMin: cfg.RateLimitPerMin,
		ClientBuffer:    cfg.ClientBuffer,
	}, logger)

	// The websocket upgrade needs to hijack the connection, which gin's
	// response writer refuses, so /ws is served beside the router.
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", originGuard(origins, logger, wsHandler))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
