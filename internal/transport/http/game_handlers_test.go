package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/matchup-server/internal/config"
	"github.com/vovakirdan/matchup-server/internal/proto"
)

const pickupGame = `{"title":"Sunday run","sport":"basketball","time":"2026-06-01T18:00:00Z","location":"Court 3"}`

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	status, _, body := doRequest(t, env, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "ok", string(body))
}

func TestCreateGameDefaults(t *testing.T) {
	env := newTestEnv(t, nil)

	game := createGame(t, env, pickupGame)
	require.NotEmpty(t, game.ID)
	require.Equal(t, "Sunday run", game.Title)
	require.Equal(t, "basketball", game.Sport)
	require.Equal(t, "2026-06-01T18:00:00Z", game.Time)
	require.Equal(t, 0, game.Players)
	require.Equal(t, 6, game.MaxPlayers)
	require.NotEmpty(t, game.CreatedAt)
}

func TestCreateGameUsesConfiguredDefault(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) { cfg.DefaultMaxPlayers = 10 })

	game := createGame(t, env, pickupGame)
	require.Equal(t, 10, game.MaxPlayers)
}

func TestCreateGameRejectsInvalidInput(t *testing.T) {
	env := newTestEnv(t, nil)

	cases := map[string]string{
		"not json":        `{"title":`,
		"missing title":   `{"sport":"soccer","time":"2026-06-01T18:00:00Z"}`,
		"missing time":    `{"title":"x","sport":"soccer"}`,
		"zero max":        `{"title":"x","sport":"soccer","time":"2026-06-01T18:00:00Z","max_players":0}`,
		"players above":   `{"title":"x","sport":"soccer","time":"2026-06-01T18:00:00Z","players":7,"max_players":6}`,
		"negative player": `{"title":"x","sport":"soccer","time":"2026-06-01T18:00:00Z","players":-1}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			status, _, data := doRequest(t, env, http.MethodPost, "/api/games", body, nil)
			require.Equal(t, http.StatusBadRequest, status, string(data))

			var errResp ErrorResponse
			require.NoError(t, json.Unmarshal(data, &errResp))
			require.NotEmpty(t, errResp.Error)
		})
	}

	status, _, data := doRequest(t, env, http.MethodGet, "/api/games", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `[]`, string(data))
}

func TestListGamesNewestFirst(t *testing.T) {
	env := newTestEnv(t, nil)

	first := createGame(t, env, pickupGame)
	time.Sleep(5 * time.Millisecond)
	second := createGame(t, env, `{"title":"Evening five-a-side","sport":"soccer","time":"2026-06-02T19:00:00Z"}`)

	status, _, data := doRequest(t, env, http.MethodGet, "/api/games", "", nil)
	require.Equal(t, http.StatusOK, status)

	var list []GameResponse
	require.NoError(t, json.Unmarshal(data, &list))
	require.Len(t, list, 2)
	require.Equal(t, second.ID, list[0].ID)
	require.Equal(t, first.ID, list[1].ID)
}

func TestGetGame(t *testing.T) {
	env := newTestEnv(t, nil)
	created := createGame(t, env, pickupGame)

	status, _, data := doRequest(t, env, http.MethodGet, "/api/games/"+created.ID, "", nil)
	require.Equal(t, http.StatusOK, status)
	var got GameResponse
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, created, got)

	status, _, _ = doRequest(t, env, http.MethodGet, "/api/games/missing", "", nil)
	require.Equal(t, http.StatusNotFound, status)
}

func TestJoinGameUntilFull(t *testing.T) {
	env := newTestEnv(t, nil)
	created := createGame(t, env, `{"title":"Doubles","sport":"tennis","time":"2026-06-01T18:00:00Z","players":2,"max_players":4}`)
	path := "/api/games/" + created.ID + "/join"

	for want := 3; want <= 4; want++ {
		status, _, data := doRequest(t, env, http.MethodPost, path, "", nil)
		require.Equal(t, http.StatusOK, status, string(data))

		var game GameResponse
		require.NoError(t, json.Unmarshal(data, &game))
		require.Equal(t, want, game.Players)
	}

	status, _, data := doRequest(t, env, http.MethodPost, path, "", nil)
	require.Equal(t, http.StatusConflict, status)
	require.JSONEq(t, `{"error":"game is full"}`, string(data))

	game, err := env.store.GetGame(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, 4, game.Players)
}

func TestJoinGameNotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	status, _, data := doRequest(t, env, http.MethodPost, "/api/games/nope/join", "", nil)
	require.Equal(t, http.StatusNotFound, status)
	require.JSONEq(t, `{"error":"game not found"}`, string(data))
}

func TestJoinGameBroadcastsUpdate(t *testing.T) {
	env := newTestEnv(t, nil)
	created := createGame(t, env, pickupGame)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	watcher := dialWS(t, ctx, env)
	sendFrame(t, ctx, watcher, proto.InboundTypeHello, proto.HelloData{User: "watcher"})
	readEvent[proto.EventHello](t, ctx, watcher, proto.EventNameHello)

	status, _, _ := doRequest(t, env, http.MethodPost, "/api/games/"+created.ID+"/join", "", nil)
	require.Equal(t, http.StatusOK, status)

	update := readEvent[proto.EventGameUpdated](t, ctx, watcher, proto.EventNameGameUpdated)
	require.Equal(t, created.ID, update.Game.ID)
	require.Equal(t, 1, update.Game.Players)
	require.Equal(t, 6, update.Game.MaxPlayers)
}
