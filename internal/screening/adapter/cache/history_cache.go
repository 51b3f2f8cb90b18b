// Package cache is the Redis-backed read cache for per-patient scan
// histories. Entries are invalidated whenever a record is appended, so a
// cached history is at most one append behind and usually exact.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lungscreen/internal/screening/domain/model"
	"lungscreen/internal/shared/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultTTL = 10 * time.Minute

// RedisHistoryCache implements HistoryCache using Redis string values.
type RedisHistoryCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

// NewRedisHistoryCache creates a new Redis-based history cache
func NewRedisHistoryCache(client *redis.Client, log logger.Logger) *RedisHistoryCache {
	return &RedisHistoryCache{
		client: client,
		ttl:    defaultTTL,
		logger: log.WithComponent("screening.cache"),
	}
}

func historyKey(userID, patientID string) string {
	return fmt.Sprintf("lungscreen:history:%s:%s", userID, patientID)
}

// GetHistory returns the cached history for a patient. A missing key is a
// miss, not an error.
func (c *RedisHistoryCache) GetHistory(ctx context.Context, userID, patientID string) ([]model.ScanRecord, bool, error) {
	raw, err := c.client.Get(ctx, historyKey(userID, patientID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var records []model.ScanRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		// A corrupt entry is dropped and treated as a miss.
		c.logger.Warn("Dropping corrupt history cache entry",
			zap.String("patientID", patientID),
			zap.Error(err))
		c.client.Del(ctx, historyKey(userID, patientID))
		return nil, false, nil
	}
	return records, true, nil
}

// SetHistory stores a patient's history with the configured TTL
func (c *RedisHistoryCache) SetHistory(ctx context.Context, userID, patientID string, records []model.ScanRecord) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, historyKey(userID, patientID), raw, c.ttl).Err()
}

// InvalidateHistory drops the cached history for a patient
func (c *RedisHistoryCache) InvalidateHistory(ctx context.Context, userID, patientID string) error {
	return c.client.Del(ctx, historyKey(userID, patientID)).Err()
}
