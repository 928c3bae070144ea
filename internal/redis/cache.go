package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCandidateTTL bounds how stale a cached candidate pool may get.
const DefaultCandidateTTL = 15 * time.Second

const candidateCachePrefix = "cache:candidates:"

// CacheStore caches candidate pools for the matching read path.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// CachedCandidate is one driver, and optionally the vehicle they drive, in a
// cached candidate pool. Ranking is not cached.
type CachedCandidate struct {
	DriverID         string   `json:"driver_id"`
	UserID           string   `json:"user_id"`
	Name             string   `json:"name"`
	Gender           string   `json:"gender"`
	Rating           float64  `json:"rating"`
	RatingCount      int      `json:"rating_count"`
	IsAvailable      bool     `json:"is_available"`
	Verified         bool     `json:"verified"`
	DayFixedCharge   int64    `json:"day_fixed_charge"`
	NightFixedCharge int64    `json:"night_fixed_charge"`
	Lat              *float64 `json:"lat,omitempty"`
	Lng              *float64 `json:"lng,omitempty"`
	LocationLabel    string   `json:"location_label,omitempty"`

	VehicleID          string `json:"vehicle_id,omitempty"`
	RegistrationNumber string `json:"registration_number,omitempty"`
	Make               string `json:"make,omitempty"`
	Model              string `json:"model,omitempty"`
	VehicleType        string `json:"vehicle_type,omitempty"`
	Transmission       string `json:"transmission,omitempty"`
	FuelType           string `json:"fuel_type,omitempty"`
	PerKmRate          int64  `json:"per_km_rate,omitempty"`
	PerMinRate         int64  `json:"per_min_rate,omitempty"`
	VehicleVerified    bool   `json:"vehicle_verified,omitempty"`
}

// GetCandidates retrieves a cached pool. The bool is false on a cache miss.
func (s *CacheStore) GetCandidates(ctx context.Context, key string) ([]CachedCandidate, bool, error) {
	data, err := s.client.Get(ctx, candidateCachePrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var candidates []CachedCandidate
	if err := json.Unmarshal(data, &candidates); err != nil {
		return nil, false, err
	}
	return candidates, true, nil
}

// SetCandidates stores a pool under key. A non-positive ttl uses DefaultCandidateTTL.
func (s *CacheStore) SetCandidates(ctx context.Context, key string, candidates []CachedCandidate, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultCandidateTTL
	}
	if candidates == nil {
		candidates = []CachedCandidate{}
	}
	data, err := json.Marshal(candidates)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, candidateCachePrefix+key, data, ttl).Err()
}
