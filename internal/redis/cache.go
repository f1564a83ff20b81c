package redis

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"rideintake/internal/distance"
)

// CacheStore handles lookup caching in Redis.
type CacheStore struct {
	client      *redis.Client
	distanceTTL time.Duration
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client, distanceTTL time.Duration) *CacheStore {
	if distanceTTL <= 0 {
		distanceTTL = DistanceCacheTTL
	}
	return &CacheStore{client: client, distanceTTL: distanceTTL}
}

// DistanceCacheTTL is the default lifetime of a cached distance.
const DistanceCacheTTL = 24 * time.Hour

const distanceCachePrefix = "cache:distance:"

// distanceKey hashes the normalized address pair so arbitrary user input
// never ends up in a key.
func distanceKey(origin, destination string) string {
	normalized := strings.ToLower(strings.TrimSpace(origin)) + "|" + strings.ToLower(strings.TrimSpace(destination))
	sum := sha1.Sum([]byte(normalized))
	return distanceCachePrefix + hex.EncodeToString(sum[:])
}

// GetDistance retrieves a distance from cache. A miss returns (nil, nil).
func (s *CacheStore) GetDistance(ctx context.Context, origin, destination string) (*distance.Result, error) {
	data, err := s.client.Get(ctx, distanceKey(origin, destination)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var result distance.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SetDistance stores a distance in cache.
func (s *CacheStore) SetDistance(ctx context.Context, origin, destination string, result *distance.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, distanceKey(origin, destination), data, s.distanceTTL).Err()
}
