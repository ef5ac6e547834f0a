package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCacheSetGet(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(10))
	defer mc.Close()

	ctx := context.Background()

	type payload struct {
		Ticker string  `json:"ticker"`
		Score  float64 `json:"score"`
	}

	if err := mc.Set(ctx, AnalysisKey("CRWD"), payload{Ticker: "CRWD", Score: 82.5}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got payload
	if err := mc.Get(ctx, AnalysisKey("CRWD"), &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Ticker != "CRWD" || got.Score != 82.5 {
		t.Errorf("got %+v", got)
	}
}

func TestMemoryCacheMiss(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()

	var dest string
	if err := mc.Get(context.Background(), "absent", &dest); err != ErrCacheMiss {
		t.Errorf("expected ErrCacheMiss, got %v", err)
	}
}

func TestMemoryCacheExpiration(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()

	ctx := context.Background()
	if err := mc.Set(ctx, "k", "v", 10*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	var dest string
	if err := mc.Get(ctx, "k", &dest); err != ErrCacheMiss {
		t.Errorf("expected ErrCacheMiss after expiry, got %v", err)
	}
}

func TestMemoryCacheLRUEviction(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()

	ctx := context.Background()
	_ = mc.Set(ctx, "a", "1", time.Minute)
	time.Sleep(time.Millisecond)
	_ = mc.Set(ctx, "b", "2", time.Minute)
	time.Sleep(time.Millisecond)

	// Touch "a" so "b" becomes least recently used.
	var dest string
	_ = mc.Get(ctx, "a", &dest)
	time.Sleep(time.Millisecond)

	_ = mc.Set(ctx, "c", "3", time.Minute)

	if err := mc.Get(ctx, "b", &dest); err != ErrCacheMiss {
		t.Errorf("expected b evicted, got %v", err)
	}
	if err := mc.Get(ctx, "a", &dest); err != nil {
		t.Errorf("expected a retained, got %v", err)
	}
}

func TestMemoryCacheTryLock(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()

	ctx := context.Background()
	key := ScanLockKey("20250102")

	ok, err := mc.TryLock(ctx, key, time.Minute)
	if err != nil || !ok {
		t.Fatalf("first lock: ok=%v err=%v", ok, err)
	}

	ok, err = mc.TryLock(ctx, key, time.Minute)
	if err != nil || ok {
		t.Fatalf("second lock should fail: ok=%v err=%v", ok, err)
	}

	if err := mc.Unlock(ctx, key); err != nil {
		t.Fatalf("unlock: %v", err)
	}

	ok, _ = mc.TryLock(ctx, key, time.Minute)
	if !ok {
		t.Error("lock should succeed after unlock")
	}
}
