package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrCacheMiss = errors.New("cache: key not found")

// Service defines cache operations used by the analysis and universe layers.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, keys ...string) (bool, error)
	Increment(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, expiration time.Duration) (bool, error)
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
	Close() error
}

// GetTyped retrieves a key and unmarshals it into T.
func GetTyped[T any](ctx context.Context, c Service, key string) (T, error) {
	var obj T
	var raw string
	if err := c.Get(ctx, key, &raw); err != nil {
		return obj, err
	}
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return obj, err
	}
	return obj, nil
}

// AnalysisKey is the cache key for a ticker's full analysis result.
func AnalysisKey(ticker string) string {
	return fmt.Sprintf("analysis:%s", ticker)
}

// PriceKey is the cache key for a ticker's last trade price.
func PriceKey(ticker string) string {
	return fmt.Sprintf("price:%s", ticker)
}

// ScanLockKey guards a universe scan run against concurrent refreshes.
func ScanLockKey(runDate string) string {
	return fmt.Sprintf("scanlock:%s", runDate)
}
