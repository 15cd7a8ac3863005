package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestDisallowedOriginRejectedBeforeHandlers(t *testing.T) {
	env := newTestEnv(t, nil)

	status, _, data := doRequest(t, env, http.MethodPost, "/api/games", pickupGame,
		map[string]string{"Origin": "https://evil.example"})
	require.Equal(t, http.StatusForbidden, status)
	require.JSONEq(t, `{"error":"origin not allowed"}`, string(data))

	games, err := env.store.ListGames(context.Background())
	require.NoError(t, err)
	require.Empty(t, games, "rejected request must not reach the service")

	status, _, _ = doRequest(t, env, http.MethodPost, "/api/games/whatever/join", "",
		map[string]string{"Origin": "http://app.example"})
	require.Equal(t, http.StatusForbidden, status, "scheme is part of the origin")
}

func TestAllowedOriginGetsCORSHeaders(t *testing.T) {
	env := newTestEnv(t, nil)

	status, header, _ := doRequest(t, env, http.MethodGet, "/api/games", "",
		map[string]string{"Origin": "HTTPS://App.Example"})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "HTTPS://App.Example", header.Get("Access-Control-Allow-Origin"))
}

func TestPreflight(t *testing.T) {
	env := newTestEnv(t, nil)

	status, header, _ := doRequest(t, env, http.MethodOptions, "/api/games", "", map[string]string{
		"Origin":                        testOrigin,
		"Access-Control-Request-Method": "POST",
	})
	require.Equal(t, http.StatusNoContent, status)
	require.Equal(t, testOrigin, header.Get("Access-Control-Allow-Origin"))
	require.Contains(t, header.Get("Access-Control-Allow-Methods"), "POST")

	status, _, _ = doRequest(t, env, http.MethodOptions, "/api/games", "", map[string]string{
		"Origin": "https://evil.example",
	})
	require.Equal(t, http.StatusForbidden, status)
}

func TestRequestWithoutOriginPasses(t *testing.T) {
	env := newTestEnv(t, nil)

	status, header, _ := doRequest(t, env, http.MethodGet, "/api/posts", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.Empty(t, header.Get("Access-Control-Allow-Origin"))
}

func TestWildcardOriginAllowsAll(t *testing.T) {
	logger := zerolog.Nop()
	policy := newOriginPolicy([]string{"*"}, &logger)
	require.True(t, policy.allows("https://anything.example"))
	require.Equal(t, []string{"*"}, policy.acceptPatterns())
}

func TestOriginPolicyIgnoresInvalidEntries(t *testing.T) {
	logger := zerolog.Nop()
	policy := newOriginPolicy([]string{" https://a.example/ ", "not-an-origin", "", "https://A.example"}, &logger)

	require.True(t, policy.allows("https://a.example"))
	require.False(t, policy.allows("not-an-origin"))
	require.False(t, policy.allows("https://b.example"))
	require.Equal(t, []string{"a.example"}, policy.acceptPatterns())
}

func TestWebSocketDisallowedOrigin(t *testing.T) {
	env := newTestEnv(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, resp, err := websocket.Dial(ctx, env.wsURL(), &websocket.DialOptions{
		HTTPHeader: http.Header{"Origin": []string{"https://evil.example"}},
	})
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestWebSocketAllowedOrigin(t *testing.T) {
	env := newTestEnv(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, env.wsURL(), &websocket.DialOptions{
		HTTPHeader: http.Header{"Origin": []string{testOrigin}},
	})
	require.NoError(t, err)
	conn.Close(websocket.StatusNormalClosure, "done")
}

func TestOriginGuardOutsideRouter(t *testing.T) {
	logger := zerolog.Nop()
	policy := newOriginPolicy([]string{testOrigin}, &logger)

	var reached int
	guarded := originGuard(policy, &logger, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		reached++
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		origin string
		want   int
	}{
		{origin: "", want: http.StatusNoContent},
		{origin: testOrigin, want: http.StatusNoContent},
		{origin: "https://evil.example", want: http.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if tc.origin != "" {
			req.Header.Set("Origin", tc.origin)
		}
		rec := httptest.NewRecorder()
		guarded.ServeHTTP(rec, req)
		require.Equal(t, tc.want, rec.Code, "origin %q", tc.origin)
	}
	require.Equal(t, 2, reached)
}
