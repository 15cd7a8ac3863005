package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/matchup-server/internal/bus"
	"github.com/vovakirdan/matchup-server/internal/config"
	"github.com/vovakirdan/matchup-server/internal/core"
	"github.com/vovakirdan/matchup-server/internal/service/games"
	"github.com/vovakirdan/matchup-server/internal/store"
	"github.com/vovakirdan/matchup-server/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/matchup-server/internal/transport/http"
)

// App wires together store, services, hub and transport.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	events          *bus.Bus
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	// Initialize database store
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	return NewWithStore(cfg, st, logger), nil
}

// NewWithStore wires the application around an already opened store.
// The App takes ownership of st and closes it on shutdown.
func NewWithStore(cfg *config.Config, st store.Store, logger *zerolog.Logger) *App {
	events := bus.New(logger)
	gameService := games.New(st, events, cfg.DefaultMaxPlayers, logger)

	hub := core.NewHub(st, events, logger,
		core.WithHistoryLimit(cfg.HistoryLimit),
		core.WithStoreTimeout(cfg.StoreTimeout),
	)
	server := transporthttp.NewServer(hub, gameService, st, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		events:          events,
		store:           st,
		log:             logger,
	}
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() stdhttp.Handler {
	return a.server.Handler
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	return a.serve(ctx, a.server.ListenAndServe)
}

func (a *App) serve(ctx context.Context, listen func() error) error {
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go a.hub.Run(hubCtx)

	serverErr := make(chan error, 1)
	go func() {
		if err := listen(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	a.log.Info().Str("addr", a.server.Addr).Msg("server started")

	select {
	case err := <-serverErr:
		a.cleanup(stopHub)
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		err := a.server.Shutdown(shutdownCtx)
		a.cleanup(stopHub)
		if err != nil {
			return err
		}
		return <-serverErr
	}
}

// cleanup stops the hub, closes the bus and then the database. Websocket
// connections end when the hub closes their event channels.
func (a *App) cleanup(stopHub context.CancelFunc) {
	stopHub()
	select {
	case <-a.hub.Done():
	case <-time.After(a.shutdownTimeout):
		a.log.Warn().Msg("hub did not stop in time")
	}

	a.events.Close()

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
