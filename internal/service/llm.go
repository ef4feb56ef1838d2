package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"github.com/rocketscienceinc/lifebattle-backend/internal/entity"
)

const (
	tracerName = "github.com/rocketscienceinc/lifebattle-backend/internal/service"

	maxErrorBody    = 4096
	maxResponseBody = 1 << 20
)

var ErrLLMResponse = errors.New("unusable llm response")

// LLMConfig configures the responses endpoint the oracle talks to.
type LLMConfig struct {
	URL           string
	Model         string
	APIKey        string
	Temperature   float64
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	HTTPClient    *http.Client
}

// LLMOracle asks a language model for a move. Requests are throttled and
// bounded by a timeout; the answer must carry pattern, position and reasoning.
type LLMOracle struct {
	logger  *slog.Logger
	cfg     LLMConfig
	limiter *rate.Limiter
}

func NewLLMOracle(logger *slog.Logger, cfg LLMConfig) *LLMOracle {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}

	return &LLMOracle{
		logger:  logger,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, max(1, cfg.Burst)),
	}
}

type llmRequest struct {
	Model       string  `json:"model"`
	Input       string  `json:"input"`
	Temperature float64 `json:"temperature,omitempty"`
}

type llmMove struct {
	Pattern   [][]int         `json:"pattern"`
	Position  entity.Position `json:"position"`
	Reasoning string          `json:"reasoning"`
}

func (that *LLMOracle) RequestMove(ctx context.Context, grid entity.Grid, player entity.Player) (entity.Move, error) {
	log := that.logger.With("method", "RequestMove", "player", player)

	ctx, span := otel.Tracer(tracerName).Start(ctx, "LLMOracle.RequestMove")
	defer span.End()

	span.SetAttributes(attribute.String("llm.model", that.cfg.Model))

	move, err := that.requestMove(ctx, grid, player)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "llm move failed")
		log.Error("failed to get move from llm", "error", err)

		return entity.Move{}, err
	}

	log.Debug("llm move received", "x", move.Position.X, "y", move.Position.Y)

	return move, nil
}

func (that *LLMOracle) requestMove(ctx context.Context, grid entity.Grid, player entity.Player) (entity.Move, error) {
	if err := that.limiter.Wait(ctx); err != nil {
		return entity.Move{}, fmt.Errorf("rate limiter: %w", err)
	}

	if that.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, that.cfg.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(llmRequest{
		Model:       that.cfg.Model,
		Input:       BuildPrompt(grid, player),
		Temperature: that.cfg.Temperature,
	})
	if err != nil {
		return entity.Move{}, fmt.Errorf("failed to marshal llm request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, that.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return entity.Move{}, fmt.Errorf("failed to build llm request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+that.cfg.APIKey)

	res, err := that.cfg.HTTPClient.Do(req)
	if err != nil {
		return entity.Move{}, fmt.Errorf("llm request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		errBody, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))

		return entity.Move{}, fmt.Errorf("%w: status %d: %s", ErrLLMResponse, res.StatusCode, strings.TrimSpace(string(errBody)))
	}

	payload, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBody))
	if err != nil {
		return entity.Move{}, fmt.Errorf("failed to read llm response: %w", err)
	}

	return ParseMove(outputText(payload))
}

// outputText extracts the model text from a responses payload: either the
// output_text shortcut or the first non-empty output content text.
func outputText(payload []byte) string {
	if text := strings.TrimSpace(gjson.GetBytes(payload, "output_text").String()); text != "" {
		return text
	}

	for _, text := range gjson.GetBytes(payload, "output.#.content.#.text|@flatten").Array() {
		if trimmed := strings.TrimSpace(text.String()); trimmed != "" {
			return trimmed
		}
	}

	return ""
}

// ParseMove decodes a move answer. Markdown code fences around the JSON are
// tolerated; pattern, position and reasoning must all be present.
func ParseMove(text string) (entity.Move, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if !gjson.Valid(text) {
		return entity.Move{}, fmt.Errorf("%w: answer is not json", ErrLLMResponse)
	}

	for _, field := range []string{"pattern", "position", "reasoning"} {
		if !gjson.Get(text, field).Exists() {
			return entity.Move{}, fmt.Errorf("%w: missing %s", ErrLLMResponse, field)
		}
	}

	var answer llmMove
	if err := json.Unmarshal([]byte(text), &answer); err != nil {
		return entity.Move{}, fmt.Errorf("%w: %w", ErrLLMResponse, err)
	}

	return entity.Move{
		Pattern:   entity.ParsePattern(answer.Pattern),
		Position:  answer.Position,
		Rationale: answer.Reasoning,
	}, nil
}
