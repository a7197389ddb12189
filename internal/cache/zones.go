// Package cache keeps zone listings in Redis so booking screens do not hit
// MySQL on every refresh.  All methods are no-ops on a nil client, and
// Redis failures are reported as a miss.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/festival-reservation/internal/config"
	"github.com/iliyamo/festival-reservation/internal/model"
)

// ZoneCache stores each festival's zone listing under a key and a
// generation counter next to it.  Invalidate bumps the counter, and a
// listing read before the bump is never written back.
type ZoneCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// setIfCurrent writes the listing only when the generation read before the
// database query is still the current one.
//
// KEYS[1] generation key, KEYS[2] listing key
// ARGV[1] generation, ARGV[2] listing, ARGV[3] ttl in milliseconds
var setIfCurrent = redis.NewScript(`
local gen = redis.call("GET", KEYS[1])
if not gen then gen = "0" end
if gen ~= ARGV[1] then
  return 0
end
redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
return 1
`)

// NewZoneCache returns a cache that stores listings for cfg.TTL.  A disabled
// config yields a cache with no client.
func NewZoneCache(rdb *redis.Client, cfg config.CacheConfig) *ZoneCache {
	if !cfg.Enabled {
		rdb = nil
	}
	return &ZoneCache{rdb: rdb, ttl: cfg.TTL, prefix: cfg.Prefix}
}

// Key returns the Redis key of a festival's zone listing.
func (c *ZoneCache) Key(festivalID uint64) string {
	return c.prefix + ":zones:festival:" + strconv.FormatUint(festivalID, 10)
}

// GenKey returns the key of the festival's generation counter.
func (c *ZoneCache) GenKey(festivalID uint64) string {
	return c.Key(festivalID) + ":gen"
}

// Get returns the cached listing and whether it was found.
func (c *ZoneCache) Get(ctx context.Context, festivalID uint64) ([]model.Zone, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, c.Key(festivalID)).Bytes()
	if err != nil {
		// redis.Nil is a plain miss; anything else is treated the same way.
		return nil, false
	}
	var zones []model.Zone
	if err := json.Unmarshal(raw, &zones); err != nil {
		return nil, false
	}
	return zones, true
}

// Generation returns the festival's current generation.  It must be read
// before loading the listing that is later passed to Set.
func (c *ZoneCache) Generation(ctx context.Context, festivalID uint64) (string, error) {
	if c == nil || c.rdb == nil {
		return "", nil
	}
	gen, err := c.rdb.Get(ctx, c.GenKey(festivalID)).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return gen, err
}

// Set stores the listing if gen is still the festival's generation.  It
// reports whether the listing was written.
func (c *ZoneCache) Set(ctx context.Context, festivalID uint64, gen string, zones []model.Zone) (bool, error) {
	if c == nil || c.rdb == nil {
		return false, nil
	}
	raw, err := json.Marshal(zones)
	if err != nil {
		return false, err
	}
	keys := []string{c.GenKey(festivalID), c.Key(festivalID)}
	n, err := setIfCurrent.Run(ctx, c.rdb, keys, gen, string(raw), strconv.FormatInt(c.ttl.Milliseconds(), 10)).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Invalidate drops the listings of the given festivals and bumps their
// generations in one MULTI block.
func (c *ZoneCache) Invalidate(ctx context.Context, festivalIDs ...uint64) error {
	if c == nil || c.rdb == nil || len(festivalIDs) == 0 {
		return nil
	}
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range festivalIDs {
			pipe.Incr(ctx, c.GenKey(id))
			pipe.Del(ctx, c.Key(id))
		}
		return nil
	})
	return err
}
