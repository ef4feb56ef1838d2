package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/lifebattle-backend/internal/entity"
)

type fakeGameUseCase struct {
	mu      sync.Mutex
	state   entity.Snapshot
	updates chan entity.Snapshot
}

func newFakeGameUseCase() *fakeGameUseCase {
	return &fakeGameUseCase{
		state:   entity.Snapshot{Version: 1, Phase: entity.PhaseIdle},
		updates: make(chan entity.Snapshot, 8),
	}
}

func (that *fakeGameUseCase) transition(phase entity.Phase) entity.Snapshot {
	that.mu.Lock()
	that.state.Version++
	that.state.Phase = phase
	snapshot := that.state
	that.mu.Unlock()

	that.updates <- snapshot

	return snapshot
}

func (that *fakeGameUseCase) Start(context.Context) (entity.Snapshot, error) {
	return that.transition(entity.PhasePlayer1Thinking), nil
}

func (that *fakeGameUseCase) Reset(context.Context) (entity.Snapshot, error) {
	return that.transition(entity.PhaseIdle), nil
}

func (that *fakeGameUseCase) State(context.Context) entity.Snapshot {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.state
}

func (that *fakeGameUseCase) Subscribe() (<-chan entity.Snapshot, func()) {
	return that.updates, func() {}
}

func dial(t *testing.T, useCase gameUseCase) *websocket.Conn {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	server := httptest.NewServer(New(ctx, slog.New(slog.NewTextHandler(io.Discard, nil)), useCase, []string{"*"}))
	t.Cleanup(server.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) (Message, Payload) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var message Message
	require.NoError(t, conn.ReadJSON(&message))

	var payload Payload
	require.NoError(t, json.Unmarshal(message.Payload, &payload))

	return message, payload
}

func TestServer_Stream(t *testing.T) {
	t.Run("Sends the current state on connect", func(t *testing.T) {
		// Given: a connected client
		conn := dial(t, newFakeGameUseCase())

		// When: the first message is read
		message, payload := readMessage(t, conn)

		// Then: it carries the current snapshot
		assert.Equal(t, ActionState, message.Action)
		require.NotNil(t, payload.Game)
		assert.Equal(t, entity.PhaseIdle, payload.Game.Phase)
	})

	t.Run("Start action answers and streams the new snapshot", func(t *testing.T) {
		// Given: a connected client that read the initial state
		conn := dial(t, newFakeGameUseCase())
		readMessage(t, conn)

		// When: the client starts a game
		require.NoError(t, conn.WriteJSON(Message{Action: ActionStart}))

		// Then: both the action answer and the state update arrive
		actions := map[string]entity.Phase{}
		for range 2 {
			message, payload := readMessage(t, conn)
			require.NotNil(t, payload.Game)
			actions[message.Action] = payload.Game.Phase
		}

		assert.Equal(t, map[string]entity.Phase{
			ActionStart: entity.PhasePlayer1Thinking,
			ActionState: entity.PhasePlayer1Thinking,
		}, actions)
	})

	t.Run("Unknown actions are answered with an error", func(t *testing.T) {
		conn := dial(t, newFakeGameUseCase())
		readMessage(t, conn)

		require.NoError(t, conn.WriteJSON(Message{Action: "game:turn"}))

		message, payload := readMessage(t, conn)
		assert.Equal(t, "game:turn", message.Action)
		assert.Equal(t, "unknown action", payload.Error)
	})
}
