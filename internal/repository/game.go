package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/lifebattle-backend/internal/apperror"
	"github.com/rocketscienceinc/lifebattle-backend/internal/entity"
)

var ErrGameNotFound = fmt.Errorf("game %w", apperror.ErrNotFound)

// saveIfNewer writes ARGV[1] unless the stored snapshot already has a version
// of at least ARGV[2]. ARGV[3] is the ttl in milliseconds, 0 for none.
var saveIfNewer = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if current then
	local stored = cjson.decode(current)
	if stored["version"] and tonumber(stored["version"]) >= tonumber(ARGV[2]) then
		return 0
	end
end
if tonumber(ARGV[3]) > 0 then
	redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
else
	redis.call("SET", KEYS[1], ARGV[1])
end
return 1
`)

// GameRepository keeps the newest snapshot per session. Saving a snapshot
// whose version is not newer than the stored one is a no-op.
type GameRepository interface {
	Save(ctx context.Context, snapshot entity.Snapshot) error
	GetByID(ctx context.Context, id string) (entity.Snapshot, error)
}

type dbGame struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGameRepository stores the latest snapshot of every session. A zero ttl
// keeps snapshots forever.
func NewGameRepository(client *redis.Client, ttl time.Duration) GameRepository {
	return &dbGame{
		client: client,
		ttl:    ttl,
	}
}

func gameKey(id string) string {
	return "game:" + id
}

func (that *dbGame) Save(ctx context.Context, snapshot entity.Snapshot) error {
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("could not marshal snapshot: %w", err)
	}

	err = saveIfNewer.Run(ctx, that.client, []string{gameKey(snapshot.SessionID)},
		snapshotJSON, strconv.FormatUint(snapshot.Version, 10), that.ttl.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("failed to set game: %w", err)
	}

	return nil
}

func (that *dbGame) GetByID(ctx context.Context, id string) (entity.Snapshot, error) {
	response, err := that.client.Get(ctx, gameKey(id)).Result()

	if errors.Is(err, redis.Nil) {
		return entity.Snapshot{}, ErrGameNotFound
	}

	if err != nil {
		return entity.Snapshot{}, fmt.Errorf("failed to get game by id: %w", err)
	}

	var snapshot entity.Snapshot
	if err = json.Unmarshal([]byte(response), &snapshot); err != nil {
		return entity.Snapshot{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return snapshot, nil
}
