package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rocketscienceinc/lifebattle-backend/internal/apperror"
	"github.com/rocketscienceinc/lifebattle-backend/internal/entity"
)

const defaultResultsLimit = 20

type gameUseCase interface {
	Start(ctx context.Context) (entity.Snapshot, error)
	Reset(ctx context.Context) (entity.Snapshot, error)
	State(ctx context.Context) entity.Snapshot
	Lookup(ctx context.Context, sessionID string) (entity.Snapshot, error)
	Results(ctx context.Context, limit int) ([]entity.MatchResult, error)
}

type errorResponse struct {
	Error string `json:"error"`
}

type handlers struct {
	logger  *slog.Logger
	useCase gameUseCase
}

func (that *handlers) getGame(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, that.useCase.State(r.Context()))
}

func (that *handlers) startGame(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "startGame")

	snapshot, err := that.useCase.Start(r.Context())
	if err != nil {
		log.Error("failed to start game", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to start game")

		return
	}

	log.Info("game started", "session_id", snapshot.SessionID)
	writeJSON(w, http.StatusOK, snapshot)
}

func (that *handlers) resetGame(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "resetGame")

	snapshot, err := that.useCase.Reset(r.Context())
	if err != nil {
		log.Error("failed to reset game", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reset game")

		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

func (that *handlers) lookupGame(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "lookupGame")

	snapshot, err := that.useCase.Lookup(r.Context(), r.PathValue("id"))
	if errors.Is(err, apperror.ErrNotFound) {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}

	if err != nil {
		log.Error("failed to get game", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get game")

		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

func (that *handlers) listResults(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "listResults")

	limit := defaultResultsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}

		limit = parsed
	}

	results, err := that.useCase.Results(r.Context(), limit)
	if err != nil {
		log.Error("failed to list results", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list results")

		return
	}

	if results == nil {
		results = []entity.MatchResult{}
	}

	writeJSON(w, http.StatusOK, results)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
