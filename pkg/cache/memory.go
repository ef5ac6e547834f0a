package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

const defaultMemoryTTL = 24 * time.Hour

type memoryItem struct {
	data     []byte
	counter  int64
	expireAt time.Time
}

func (m *memoryItem) expired() bool {
	return time.Now().After(m.expireAt)
}

// MemoryCache implements Service with an in-process map and LRU eviction.
// Values are stored JSON-encoded so Get behaves the same as the Redis cache.
type MemoryCache struct {
	data    map[string]*memoryItem
	access  map[string]time.Time
	mu      sync.Mutex
	maxSize int
	sweeper *time.Ticker
	done    chan struct{}
}

// NewMemoryCache creates an in-memory cache.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxSize:         1000,
		CleanupInterval: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	mc := &MemoryCache{
		data:    make(map[string]*memoryItem),
		access:  make(map[string]time.Time),
		maxSize: cfg.MaxSize,
		sweeper: time.NewTicker(cfg.CleanupInterval),
		done:    make(chan struct{}),
	}

	go mc.sweepExpired()
	return mc
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	if _, ok := mc.data[key]; !ok && len(mc.data) >= mc.maxSize {
		mc.evictLRU()
	}

	if expiration <= 0 {
		expiration = defaultMemoryTTL
	}
	mc.data[key] = &memoryItem{data: data, expireAt: time.Now().Add(expiration)}
	mc.access[key] = time.Now()
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	item, ok := mc.data[key]
	if !ok || item.expired() {
		if ok {
			delete(mc.data, key)
			delete(mc.access, key)
		}
		return ErrCacheMiss
	}
	mc.access[key] = time.Now()

	return decode(item.data, dest)
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	for _, key := range keys {
		delete(mc.data, key)
		delete(mc.access, key)
	}
	return nil
}

func (mc *MemoryCache) Exists(_ context.Context, keys ...string) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	for _, key := range keys {
		if item, ok := mc.data[key]; ok && !item.expired() {
			return true, nil
		}
	}
	return false, nil
}

func (mc *MemoryCache) Increment(_ context.Context, key string) (int64, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	item, ok := mc.data[key]
	if !ok || item.expired() {
		mc.data[key] = &memoryItem{counter: 1, expireAt: time.Now().Add(defaultMemoryTTL)}
		mc.access[key] = time.Now()
		return 1, nil
	}
	item.counter++
	return item.counter, nil
}

func (mc *MemoryCache) Expire(_ context.Context, key string, expiration time.Duration) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if item, ok := mc.data[key]; ok && !item.expired() {
		item.expireAt = time.Now().Add(expiration)
		return true, nil
	}
	return false, nil
}

func (mc *MemoryCache) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if item, ok := mc.data[key]; ok && !item.expired() {
		return false, nil
	}
	mc.data[key] = &memoryItem{data: []byte(`"locked"`), expireAt: time.Now().Add(ttl)}
	return true, nil
}

func (mc *MemoryCache) Unlock(ctx context.Context, key string) error {
	return mc.Delete(ctx, key)
}

// Close stops the expired-entry sweeper.
func (mc *MemoryCache) Close() error {
	mc.sweeper.Stop()
	close(mc.done)
	return nil
}

func (mc *MemoryCache) evictLRU() {
	var oldestKey string
	oldestTime := time.Now()

	for key, accessTime := range mc.access {
		if accessTime.Before(oldestTime) {
			oldestTime = accessTime
			oldestKey = key
		}
	}
	if oldestKey != "" {
		delete(mc.data, oldestKey)
		delete(mc.access, oldestKey)
	}
}

func (mc *MemoryCache) sweepExpired() {
	for {
		select {
		case <-mc.done:
			return
		case <-mc.sweeper.C:
		}

		mc.mu.Lock()
		now := time.Now()
		for key, item := range mc.data {
			if now.After(item.expireAt) {
				delete(mc.data, key)
				delete(mc.access, key)
			}
		}
		mc.mu.Unlock()
	}
}

func encode(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return json.Marshal(value)
	}
}

func decode(data []byte, dest interface{}) error {
	if strPtr, ok := dest.(*string); ok {
		*strPtr = string(data)
		return nil
	}
	return json.Unmarshal(data, dest)
}

var _ Service = (*MemoryCache)(nil)
