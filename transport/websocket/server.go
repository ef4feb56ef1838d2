package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/lifebattle-backend/internal/entity"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

type gameUseCase interface {
	Start(ctx context.Context) (entity.Snapshot, error)
	Reset(ctx context.Context) (entity.Snapshot, error)
	State(ctx context.Context) entity.Snapshot
	Subscribe() (<-chan entity.Snapshot, func())
}

// Server streams game snapshots to websocket clients and accepts game
// control actions from them.
type Server struct {
	ctx     context.Context
	logger  *slog.Logger
	useCase gameUseCase

	upgrader websocket.Upgrader
	handlers map[string]func(ctx context.Context) (entity.Snapshot, error)
}

// New builds the stream handler. Connections are closed when ctx is done.
func New(ctx context.Context, logger *slog.Logger, useCase gameUseCase, allowedOrigins []string) *Server {
	server := &Server{
		ctx:     ctx,
		logger:  logger,
		useCase: useCase,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
		handlers: make(map[string]func(context.Context) (entity.Snapshot, error)),
	}

	server.handlers[ActionStart] = useCase.Start
	server.handlers[ActionReset] = useCase.Reset

	return server
}

func checkOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
	}
}

func (that *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "ServeHTTP", "remote", r.RemoteAddr)

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	log.Info("websocket connection established")

	ctx, cancel := context.WithCancel(that.ctx)
	defer cancel()

	updates, unsubscribe := that.useCase.Subscribe()
	defer unsubscribe()

	send := make(chan Message, sendBuffer)

	done := make(chan struct{})
	go func() {
		defer close(done)
		that.writeLoop(ctx, conn, updates, send)
	}()

	state := that.useCase.State(ctx)
	that.enqueue(send, ActionState, Payload{Game: &state})

	that.readLoop(ctx, conn, send)
	cancel()
	<-done

	_ = conn.Close()
	log.Info("websocket connection closed")
}

func (that *Server) readLoop(ctx context.Context, conn *websocket.Conn, send chan<- Message) {
	log := that.logger.With("method", "readLoop")

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var message Message
		if err := conn.ReadJSON(&message); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("error reading message", "error", err)
			}

			return
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)
			that.enqueue(send, message.Action, Payload{Error: "unknown action"})

			continue
		}

		snapshot, err := handler(ctx)
		if err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
			that.enqueue(send, message.Action, Payload{Error: err.Error()})

			continue
		}

		that.enqueue(send, message.Action, Payload{Game: &snapshot})
	}
}

// writeLoop is the only writer of conn.
func (that *Server) writeLoop(ctx context.Context, conn *websocket.Conn, updates <-chan entity.Snapshot, send <-chan Message) {
	log := that.logger.With("method", "writeLoop")

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	var lastVersion uint64

	for {
		var message Message

		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			_ = conn.Close()

			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Debug("failed to ping", "error", err)
				_ = conn.Close()

				return
			}

			continue
		case snapshot, ok := <-updates:
			if !ok {
				return
			}

			// snapshots published from different goroutines may arrive out of order
			if snapshot.Version <= lastVersion {
				continue
			}

			lastVersion = snapshot.Version

			var err error
			if message, err = newMessage(ActionState, Payload{Game: &snapshot}); err != nil {
				log.Error("failed to encode snapshot", "error", err)
				continue
			}
		case message = <-send:
		}

		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(message); err != nil {
			log.Debug("failed to write message", "error", err)
			_ = conn.Close()

			return
		}
	}
}

func (that *Server) enqueue(send chan<- Message, action string, payload Payload) {
	message, err := newMessage(action, payload)
	if err != nil {
		that.logger.Error("failed to encode message", "action", action, "error", err)
		return
	}

	select {
	case send <- message:
	default:
		that.logger.Warn("dropping message for slow client", "action", action)
	}
}
