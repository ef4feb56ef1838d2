package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const shutdownTimeout = 5 * time.Second

type Options struct {
	AllowedOrigins    []string
	RequestsPerSecond float64
	Burst             int
}

// Server exposes the game over HTTP. Extra handlers, such as the websocket
// stream, can be mounted on the same mux.
type Server struct {
	logger  *slog.Logger
	mux     *http.ServeMux
	handler http.Handler
}

func New(logger *slog.Logger, useCase gameUseCase, opts Options) *Server {
	h := &handlers{logger: logger, useCase: useCase}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", pingHandler)
	mux.HandleFunc("GET /api/game", h.getGame)
	mux.HandleFunc("POST /api/game/start", h.startGame)
	mux.HandleFunc("POST /api/game/reset", h.resetGame)
	mux.HandleFunc("GET /api/games/{id}", h.lookupGame)
	mux.HandleFunc("GET /api/results", h.listResults)

	limiter := NewRateLimiter(logger, opts.RequestsPerSecond, opts.Burst)

	return &Server{
		logger:  logger,
		mux:     mux,
		handler: NewCORS(opts.AllowedOrigins).Handler(limiter.Middleware(mux)),
	}
}

func (that *Server) Handle(pattern string, handler http.Handler) {
	that.mux.Handle(pattern, handler)
}

func (that *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	that.handler.ServeHTTP(w, r)
}

// Start serves until ctx is done, then shuts down gracefully.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server stopped: %w", err)
	}

	return nil
}
