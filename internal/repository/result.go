package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/lifebattle-backend/internal/entity"
)

const (
	resultsKey = "results"

	// MaxResults bounds the stored match history.
	MaxResults = 100
)

type ResultRepository interface {
	Add(ctx context.Context, result entity.MatchResult) error
	List(ctx context.Context, limit int) ([]entity.MatchResult, error)
}

type dbResult struct {
	client *redis.Client
}

func NewResultRepository(client *redis.Client) ResultRepository {
	return &dbResult{
		client: client,
	}
}

// Add pushes the result to the head of the history and trims the tail.
func (that *dbResult) Add(ctx context.Context, result entity.MatchResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	pipe := that.client.TxPipeline()
	pipe.LPush(ctx, resultsKey, resultJSON)
	pipe.LTrim(ctx, resultsKey, 0, MaxResults-1)

	if _, err = pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to push result: %w", err)
	}

	return nil
}

// List returns up to limit results, newest first.
func (that *dbResult) List(ctx context.Context, limit int) ([]entity.MatchResult, error) {
	limit = clampLimit(limit)

	items, err := that.client.LRange(ctx, resultsKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	results := make([]entity.MatchResult, 0, len(items))
	for _, item := range items {
		var result entity.MatchResult
		if err = json.Unmarshal([]byte(item), &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result: %w", err)
		}

		results = append(results, result)
	}

	return results, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > MaxResults {
		return MaxResults
	}

	return limit
}
