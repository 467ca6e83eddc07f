// README: Conversation log backed by Redis lists (RPUSH + LTRIM in one MULTI/EXEC).
package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"voyage/internal/types"
)

var _ Log = (*RedisStore)(nil)

type RedisStore struct {
	rdb    *redis.Client
	limit  int
	logger *slog.Logger
}

func NewRedisStore(rdb *redis.Client, limit int, logger *slog.Logger) *RedisStore {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{rdb: rdb, limit: limit, logger: logger}
}

func key(ownerID types.ID) string {
	return "conversation:" + string(ownerID)
}

func (s *RedisStore) Append(ctx context.Context, ownerID types.ID, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(turns))
	for _, t := range turns {
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("encode turn: %w", err)
		}
		values = append(values, b)
	}

	k := key(ownerID)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, k, values...)
		pipe.LTrim(ctx, k, int64(-s.limit), -1)
		return nil
	})
	return err
}

func (s *RedisStore) GetAll(ctx context.Context, ownerID types.ID) ([]Turn, error) {
	raw, err := s.rdb.LRange(ctx, key(ownerID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	turns := make([]Turn, 0, len(raw))
	for _, r := range raw {
		var t Turn
		if err := json.Unmarshal([]byte(r), &t); err != nil {
			s.logger.Warn("skipping undecodable conversation turn", "owner_id", ownerID, "error", err)
			continue
		}
		turns = append(turns, t)
	}
	return turns, nil
}

func (s *RedisStore) Clear(ctx context.Context, ownerID types.ID) error {
	return s.rdb.Del(ctx, key(ownerID)).Err()
}
