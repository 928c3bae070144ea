package redis

import (
	"context"
	"time"
)

// LockStoreInterface defines the interface for the driver accept guard.
type LockStoreInterface interface {
	AcquireDriverLock(ctx context.Context, driverID string, ttl time.Duration) (string, bool, error)
	ReleaseDriverLock(ctx context.Context, driverID, token string) error
}

// CandidateCacheInterface defines the interface for the candidate pool cache.
type CandidateCacheInterface interface {
	GetCandidates(ctx context.Context, key string) ([]CachedCandidate, bool, error)
	SetCandidates(ctx context.Context, key string, candidates []CachedCandidate, ttl time.Duration) error
}

// Ensure concrete types implement interfaces.
var (
	_ LockStoreInterface      = (*LockStore)(nil)
	_ CandidateCacheInterface = (*CacheStore)(nil)
)
