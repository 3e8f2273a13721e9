package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedGeocoder is a Redis read-through cache in front of another
// geocoder. Keys are the exact address fields — no normalization, so two
// addresses hit the same entry only when field-for-field equal, matching
// the engine's address-equality rule. Cache trouble degrades to a direct
// geocode; it never fails a resolution.
type CachedGeocoder struct {
	inner Geocoder
	rdb   *redis.Client
	ttl   time.Duration
}

// NewCachedGeocoder wraps inner with a Redis cache. A zero ttl defaults
// to 30 days; geocodes for a fixed address rarely change faster than
// boundary data does.
func NewCachedGeocoder(inner Geocoder, rdb *redis.Client, ttl time.Duration) *CachedGeocoder {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &CachedGeocoder{inner: inner, rdb: rdb, ttl: ttl}
}

func cacheKey(addr Address) string {
	return fmt.Sprintf("geocode:%s|%s|%s|%s|%s",
		addr.Line1, addr.Line2, addr.City, addr.Region, addr.PostalCode)
}

func (c *CachedGeocoder) Geocode(ctx context.Context, addr Address) (Coordinate, error) {
	key := cacheKey(addr)

	cached, err := c.rdb.Get(ctx, key).Result()
	if err == nil {
		var coord Coordinate
		if json.Unmarshal([]byte(cached), &coord) == nil {
			return coord, nil
		}
		// Undecodable entry: fall through and overwrite it below.
	} else if !errors.Is(err, redis.Nil) {
		log.Printf("[geocoding] cache read failed for %q: %v", addr.Query(), err)
	}

	coord, err := c.inner.Geocode(ctx, addr)
	if err != nil {
		return Coordinate{}, err
	}

	if payload, err := json.Marshal(coord); err == nil {
		if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			log.Printf("[geocoding] cache write failed for %q: %v", addr.Query(), err)
		}
	}
	return coord, nil
}
