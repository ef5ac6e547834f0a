package cache

import "time"

// BytesCache stores raw provider payloads with a TTL. It keeps repeated
// fundamentals and candle lookups from burning Finnhub rate budget.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}
