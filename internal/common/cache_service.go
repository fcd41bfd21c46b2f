package common

import (
	"encoding/json"
	"time"

	"github.com/patrickmn/go-cache"

	"synq/backend/internal/logging"
)

// CacheService is the in-process cache, used when no Redis is configured
type CacheService struct {
	cache *cache.Cache
}

// Ensure CacheService implements CacheInterface
var _ CacheInterface = (*CacheService)(nil)

func NewCacheService(defaultExpiration, cleanUpInterval time.Duration) *CacheService {
	return &CacheService{cache: cache.New(defaultExpiration, cleanUpInterval)}
}

func (cs *CacheService) Set(key string, value interface{}, duration time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		logging.Warn("cache: failed to marshal value", "key", key, "error", err)
		return
	}
	cs.cache.Set(key, data, duration)
}

func (cs *CacheService) GetInto(key string, dest interface{}) bool {
	val, found := cs.cache.Get(key)
	if !found {
		return false
	}
	data, ok := val.([]byte)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		logging.Warn("cache: failed to unmarshal value", "key", key, "error", err)
		return false
	}
	return true
}

func (cs *CacheService) Delete(key string) {
	cs.cache.Delete(key)
}

// Close closes the cache (no-op for in-memory cache)
func (cs *CacheService) Close() error {
	return nil
}

// ItemCount reports how many entries are held, expired ones included.
func (cs *CacheService) ItemCount() int {
	return cs.cache.ItemCount()
}
