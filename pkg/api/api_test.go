package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/iziplay/rodb/pkg/live"
	"github.com/iziplay/rodb/pkg/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router *chi.Mux
	store  *live.Store
}

func newTestServer(t *testing.T, dataDir string) *testServer {
	t.Helper()
	store, err := live.OpenSQLite(":memory:")
	require.NoError(t, err)

	router := chi.NewRouter()
	api := humachi.New(router, huma.DefaultConfig("rodb test", "1.0.0"))
	Setup(api, store)
	ServeData(router, dataDir)

	return &testServer{router: router, store: store}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func signedToken(t *testing.T, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "game-server"}).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, t.TempDir())

	rec := s.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestStatusRoundTrip(t *testing.T) {
	t.Setenv(JWTSecretEnv, "")
	s := newTestServer(t, t.TempDir())

	rec := s.do(t, http.MethodGet, "/v1/status", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/status", map[string]any{
		"vpn": "Online", "server": "Online", "players": 12, "event-name": "Poring Day",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/v1/status", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var status live.StatusSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "Online", status.Server)
	assert.Equal(t, "Poring Day", status.EventName)
	assert.Equal(t, 12, status.Players)
}

func TestPushRequiresToken(t *testing.T) {
	t.Setenv(JWTSecretEnv, "secret")
	s := newTestServer(t, t.TempDir())
	body := map[string]any{"vpn": "Online", "server": "Offline", "players": 0}

	rec := s.do(t, http.MethodPost, "/v1/status", body, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/status", body, signedToken(t, "wrong"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/status", body, signedToken(t, "secret"))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/status", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRankingsAndBoards(t *testing.T) {
	t.Setenv(JWTSecretEnv, "")
	s := newTestServer(t, t.TempDir())

	rec := s.do(t, http.MethodGet, "/v1/rankings", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/rankings/boards", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rankings := live.Rankings{
		Accounts: []live.Account{
			{AccountID: 1, UserID: "alice", TotalZeny: 10, TotalDiamonds: 2, LoginCount: 4},
			{AccountID: 2, UserID: "bob", TotalZeny: 99, LoginCount: 8},
		},
		ByClass: map[string][]live.Character{"7": {{Name: "Crusader", UserID: "bob", Fame: 3}}},
		Overall: []live.Character{{Name: "Crusader", UserID: "bob", BaseExp: 77}},
	}
	rec = s.do(t, http.MethodPost, "/v1/rankings", rankings, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/v1/rankings", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got RankingsBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, rankings, got.Data)

	require.Eventually(t, func() bool {
		return s.do(t, http.MethodGet, "/v1/rankings/boards", nil, "").Code == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	rec = s.do(t, http.MethodGet, "/v1/rankings/boards", nil, "")
	var boards live.Boards
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &boards))
	require.Len(t, boards.Zeny, 2)
	assert.Equal(t, "alice", boards.Zeny[0].UserID)
	assert.Equal(t, int64(1000000010), boards.Zeny[0].Value)
	assert.Equal(t, "bob", boards.Logins[0].UserID)
	assert.Equal(t, "Crusader", boards.Fame["7"][0].Name)
}

func TestServerStatistics(t *testing.T) {
	t.Setenv(JWTSecretEnv, "")
	s := newTestServer(t, t.TempDir())

	rec := s.do(t, http.MethodGet, "/v1/statistics/server", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rankings := live.Rankings{
		Accounts: []live.Account{{AccountID: 1, UserID: "alice", TotalZeny: 40}},
		ByClass:  map[string][]live.Character{},
		Overall: []live.Character{
			{Name: "Wizard", UserID: "alice", BaseLevel: 80},
			{Name: "Archer", UserID: "alice", BaseLevel: 20},
		},
	}
	rec = s.do(t, http.MethodPost, "/v1/rankings", rankings, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/v1/statistics/server", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats live.ServerStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Accounts)
	assert.Equal(t, 2, stats.Characters)
	assert.Equal(t, int64(20), stats.AvgZeny)
	assert.Equal(t, 50, stats.AvgLevel)
	assert.Equal(t, live.MaxLevel{Level: 80, Character: "Wizard"}, stats.MaxLevel)
}

func TestBuildStatistics(t *testing.T) {
	s := newTestServer(t, t.TempDir())

	rec := s.do(t, http.MethodGet, "/v1/statistics/build", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, s.store.RecordBuild(context.Background(), &live.Build{Output: "public/data", Items: 3, Complete: true}))

	rec = s.do(t, http.MethodGet, "/v1/statistics/build", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var build live.Build
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &build))
	assert.Equal(t, 3, build.Items)
	assert.True(t, build.Complete)

	require.NoError(t, s.store.RecordBuild(context.Background(), &live.Build{Output: "public/data", Items: 4, Failed: 1}))

	rec = s.do(t, http.MethodGet, "/v1/statistics/build", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &build))
	assert.Equal(t, 4, build.Items)
	assert.False(t, build.Complete)

	rec = s.do(t, http.MethodGet, "/v1/statistics/build?complete=true", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	build = live.Build{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &build))
	assert.Equal(t, 3, build.Items)
	assert.True(t, build.Complete)

	rec = s.do(t, http.MethodGet, "/v1/statistics/pipeline", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats pipeline.StatsSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.False(t, stats.IsRunning)
}

func TestServeData(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "items.json"), []byte(`{"501":{}}`), 0o644))
	s := newTestServer(t, dir)

	rec := s.do(t, http.MethodGet, "/data/items.json", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"501":{}}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/data/missing.json", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
