package repository

import (
	"context"
	"sync"

	"github.com/rocketscienceinc/lifebattle-backend/internal/entity"
)

// MemoryStore keeps snapshots and results in process memory. It is used when
// Redis is disabled.
type MemoryStore struct {
	mu      sync.RWMutex
	games   map[string]entity.Snapshot
	results []entity.MatchResult
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games: make(map[string]entity.Snapshot),
	}
}

func (that *MemoryStore) Save(_ context.Context, snapshot entity.Snapshot) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if stored, ok := that.games[snapshot.SessionID]; ok && stored.Version >= snapshot.Version {
		return nil
	}

	that.games[snapshot.SessionID] = snapshot

	return nil
}

func (that *MemoryStore) GetByID(_ context.Context, id string) (entity.Snapshot, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	snapshot, ok := that.games[id]
	if !ok {
		return entity.Snapshot{}, ErrGameNotFound
	}

	return snapshot, nil
}

func (that *MemoryStore) Add(_ context.Context, result entity.MatchResult) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.results = append([]entity.MatchResult{result}, that.results...)
	if len(that.results) > MaxResults {
		that.results = that.results[:MaxResults]
	}

	return nil
}

func (that *MemoryStore) List(_ context.Context, limit int) ([]entity.MatchResult, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	limit = min(clampLimit(limit), len(that.results))

	return append([]entity.MatchResult(nil), that.results[:limit]...), nil
}
