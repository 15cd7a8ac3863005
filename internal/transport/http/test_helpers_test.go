package http

import (
	"context"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/matchup-server/internal/bus"
	"github.com/vovakirdan/matchup-server/internal/config"
	"github.com/vovakirdan/matchup-server/internal/core"
	"github.com/vovakirdan/matchup-server/internal/proto"
	"github.com/vovakirdan/matchup-server/internal/service/games"
	"github.com/vovakirdan/matchup-server/internal/store"
	"github.com/vovakirdan/matchup-server/internal/store/sqlite"
)

const testOrigin = "https://app.example"

// createTestStore creates an in-memory SQLite store with schema applied.
func createTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", sqlite.Migrate)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

type testEnv struct {
	server *httptest.Server
	store  store.Store
	hub    *core.Hub
}

func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.AllowedOrigins = []string{testOrigin}
	if mutate != nil {
		mutate(&cfg)
	}

	logger := zerolog.Nop()
	st := createTestStore(t)
	events := bus.New(&logger)
	gameService := games.New(st, events, cfg.DefaultMaxPlayers, &logger)
	hub := core.NewHub(st, events, &logger, core.WithHistoryLimit(cfg.HistoryLimit))

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := NewServer(hub, gameService, st, &cfg, &logger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(func() {
		cancel()
		<-hub.Done()
		ts.Close()
		events.Close()
	})

	return &testEnv{server: ts, store: st, hub: hub}
}

func (e *testEnv) wsURL() string {
	return strings.Replace(e.server.URL, "http", "ws", 1) + "/ws"
}

func dialWS(t *testing.T, ctx context.Context, env *testEnv) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.Dial(ctx, env.wsURL(), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func sendFrame(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		t.Fatalf("send %s: %v", typ, err)
	}
}

// outboundFrame mirrors proto.Outbound with raw data for decoding in tests.
type outboundFrame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func readFrame(t *testing.T, ctx context.Context, conn *websocket.Conn) outboundFrame {
	t.Helper()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var frame outboundFrame
	if err := wsjson.Read(ctx, conn, &frame); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return frame
}

func readEvent[T any](t *testing.T, ctx context.Context, conn *websocket.Conn, event string) T {
	t.Helper()

	frame := readFrame(t, ctx, conn)
	if frame.Type != proto.OutboundTypeEvent || frame.Event != event {
		t.Fatalf("expected %s event, got %+v", event, frame)
	}
	var data T
	if err := json.Unmarshal(frame.Data, &data); err != nil {
		t.Fatalf("decode %s: %v", event, err)
	}
	return data
}

func doRequest(t *testing.T, env *testEnv, method, path, body string, header map[string]string) (int, stdhttp.Header, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := stdhttp.NewRequest(method, env.server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}

	resp, err := env.server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, resp.Header, data
}

func createGame(t *testing.T, env *testEnv, body string) GameResponse {
	t.Helper()

	status, _, data := doRequest(t, env, stdhttp.MethodPost, "/api/games", body, nil)
	if status != stdhttp.StatusCreated {
		t.Fatalf("create game: status %d: %s", status, data)
	}
	var game GameResponse
	if err := json.Unmarshal(data, &game); err != nil {
		t.Fatalf("decode game: %v", err)
	}
	return game
}
