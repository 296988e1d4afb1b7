package repository

import (
	"context"
	"time"
)

// CacheRepository stores short-lived string values. A zero ttl means no expiry.
// Get reports a miss as ok=false with a nil error; err is for backend failures.
type CacheRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}
