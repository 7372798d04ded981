// Package cache stores serialized Overpass query responses so that
// repeated runs against the same region, tags and snapshot date do
// not hit the API again.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the storage interface shared by the memory, disk and
// layered implementations. Values are opaque byte slices.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a cache key from a rendered Overpass QL query. The QL
// text already encodes region, tags and temporal mode, so hashing it
// keeps historical and current responses apart.
func Key(query string) string {
	sum := sha256.Sum256([]byte(query))
	return "infrascan:v1:" + hex.EncodeToString(sum[:])
}
