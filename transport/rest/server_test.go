package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/lifebattle-backend/internal/apperror"
	"github.com/rocketscienceinc/lifebattle-backend/internal/entity"
)

var errStorageDown = errors.New("storage down")

type mockGameUseCase struct {
	mock.Mock
}

func (that *mockGameUseCase) Start(ctx context.Context) (entity.Snapshot, error) {
	args := that.Called(ctx)
	return args.Get(0).(entity.Snapshot), args.Error(1)
}

func (that *mockGameUseCase) Reset(ctx context.Context) (entity.Snapshot, error) {
	args := that.Called(ctx)
	return args.Get(0).(entity.Snapshot), args.Error(1)
}

func (that *mockGameUseCase) State(ctx context.Context) entity.Snapshot {
	return that.Called(ctx).Get(0).(entity.Snapshot)
}

func (that *mockGameUseCase) Lookup(ctx context.Context, sessionID string) (entity.Snapshot, error) {
	args := that.Called(ctx, sessionID)
	return args.Get(0).(entity.Snapshot), args.Error(1)
}

func (that *mockGameUseCase) Results(ctx context.Context, limit int) ([]entity.MatchResult, error) {
	args := that.Called(ctx, limit)
	results, _ := args.Get(0).([]entity.MatchResult)
	return results, args.Error(1)
}

func newTestServer(t *testing.T, useCase gameUseCase, opts Options) *httptest.Server {
	t.Helper()

	if opts.AllowedOrigins == nil {
		opts.AllowedOrigins = []string{"*"}
	}

	server := httptest.NewServer(New(slog.New(slog.NewTextHandler(io.Discard, nil)), useCase, opts))
	t.Cleanup(server.Close)

	return server
}

func decode[T any](t *testing.T, res *http.Response) T {
	t.Helper()
	defer res.Body.Close()

	var body T
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))

	return body
}

func TestServer_Ping(t *testing.T) {
	server := newTestServer(t, &mockGameUseCase{}, Options{})

	res, err := http.Get(server.URL + "/ping")
	require.NoError(t, err)
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "pong", string(body))
}

func TestServer_Game(t *testing.T) {
	t.Run("GET /api/game returns the current snapshot", func(t *testing.T) {
		// Given: a use case holding a running game
		useCase := &mockGameUseCase{}
		useCase.On("State", mock.Anything).Return(entity.Snapshot{
			SessionID: "abc",
			Phase:     entity.PhaseSimulating,
			Grid:      entity.NewGrid(2, 1).With(1, 0, entity.OwnedBy(entity.Player2)),
		}).Once()
		server := newTestServer(t, useCase, Options{})

		// When: the game is requested
		res, err := http.Get(server.URL + "/api/game")
		require.NoError(t, err)

		// Then: the snapshot is encoded with the grid as owner rows
		assert.Equal(t, http.StatusOK, res.StatusCode)
		body := decode[map[string]any](t, res)
		assert.Equal(t, "abc", body["session_id"])
		assert.Equal(t, "simulating", body["phase"])
		assert.Equal(t, []any{[]any{float64(0), float64(2)}}, body["grid"])
	})

	t.Run("POST /api/game/start starts a match", func(t *testing.T) {
		useCase := &mockGameUseCase{}
		useCase.On("Start", mock.Anything).Return(entity.Snapshot{SessionID: "new", Phase: entity.PhasePlayer1Thinking}, nil).Once()
		server := newTestServer(t, useCase, Options{})

		res, err := http.Post(server.URL+"/api/game/start", "application/json", nil)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, "player1_thinking", decode[map[string]any](t, res)["phase"])
		useCase.AssertExpectations(t)
	})

	t.Run("GET on the start route is not allowed", func(t *testing.T) {
		server := newTestServer(t, &mockGameUseCase{}, Options{})

		res, err := http.Get(server.URL + "/api/game/start")
		require.NoError(t, err)
		defer res.Body.Close()

		assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
	})

	t.Run("POST /api/game/reset resets the match", func(t *testing.T) {
		useCase := &mockGameUseCase{}
		useCase.On("Reset", mock.Anything).Return(entity.Snapshot{Phase: entity.PhaseIdle}, nil).Once()
		server := newTestServer(t, useCase, Options{})

		res, err := http.Post(server.URL+"/api/game/reset", "application/json", nil)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, "idle", decode[map[string]any](t, res)["phase"])
	})

	t.Run("GET /api/games/{id} maps missing sessions to 404", func(t *testing.T) {
		useCase := &mockGameUseCase{}
		useCase.On("Lookup", mock.Anything, "missing").Return(entity.Snapshot{}, apperror.ErrNotFound).Once()
		server := newTestServer(t, useCase, Options{})

		res, err := http.Get(server.URL + "/api/games/missing")
		require.NoError(t, err)

		assert.Equal(t, http.StatusNotFound, res.StatusCode)
		assert.Equal(t, "game not found", decode[errorResponse](t, res).Error)
	})
}

func TestServer_Results(t *testing.T) {
	t.Run("Limit is passed to the use case", func(t *testing.T) {
		useCase := &mockGameUseCase{}
		useCase.On("Results", mock.Anything, 5).Return([]entity.MatchResult{{SessionID: "a", Winner: entity.OutcomeDraw}}, nil).Once()
		server := newTestServer(t, useCase, Options{})

		res, err := http.Get(server.URL + "/api/results?limit=5")
		require.NoError(t, err)

		results := decode[[]entity.MatchResult](t, res)
		require.Len(t, results, 1)
		assert.Equal(t, entity.OutcomeDraw, results[0].Winner)
	})

	t.Run("Empty history is an empty list", func(t *testing.T) {
		useCase := &mockGameUseCase{}
		useCase.On("Results", mock.Anything, defaultResultsLimit).Return(nil, nil).Once()
		server := newTestServer(t, useCase, Options{})

		res, err := http.Get(server.URL + "/api/results")
		require.NoError(t, err)
		defer res.Body.Close()

		body, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `[]`, string(body))
	})

	t.Run("Invalid limit is rejected", func(t *testing.T) {
		server := newTestServer(t, &mockGameUseCase{}, Options{})

		res, err := http.Get(server.URL + "/api/results?limit=abc")
		require.NoError(t, err)
		defer res.Body.Close()

		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("Storage failure is a server error", func(t *testing.T) {
		useCase := &mockGameUseCase{}
		useCase.On("Results", mock.Anything, defaultResultsLimit).Return(nil, errStorageDown).Once()
		server := newTestServer(t, useCase, Options{})

		res, err := http.Get(server.URL + "/api/results")
		require.NoError(t, err)
		defer res.Body.Close()

		assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	})
}

func TestServer_Middleware(t *testing.T) {
	t.Run("Requests over the limit are throttled", func(t *testing.T) {
		// Given: a server allowing a burst of two requests
		server := newTestServer(t, &mockGameUseCase{}, Options{RequestsPerSecond: 0.001, Burst: 2})

		// When: three requests arrive at once
		statuses := make([]int, 0, 3)
		for range 3 {
			res, err := http.Get(server.URL + "/ping")
			require.NoError(t, err)
			res.Body.Close()
			statuses = append(statuses, res.StatusCode)
		}

		// Then: the third one is rejected
		assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)
	})

	t.Run("Allowed origins receive CORS headers", func(t *testing.T) {
		server := newTestServer(t, &mockGameUseCase{}, Options{AllowedOrigins: []string{"http://localhost:3000"}})

		req, err := http.NewRequest(http.MethodGet, server.URL+"/ping", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "http://localhost:3000")

		res, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer res.Body.Close()

		assert.Equal(t, "http://localhost:3000", res.Header.Get("Access-Control-Allow-Origin"))
	})
}
