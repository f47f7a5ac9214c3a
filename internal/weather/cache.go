package weather

import (
	"fmt"
	"sync"
)

// locationKeyCache memoizes vendor location keys per coordinate. Coordinates
// are rounded to two decimals (~1km) so nearby lookups share an entry. The
// cache is unbounded; the dashboard's working set is a handful of saved
// locations per user.
type locationKeyCache struct {
	mu   sync.RWMutex
	keys map[string]string
}

func coordCacheKey(lat, lon float64) string {
	return fmt.Sprintf("%.2f,%.2f", lat, lon)
}

func (c *locationKeyCache) get(lat, lon float64) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key, ok := c.keys[coordCacheKey(lat, lon)]
	return key, ok
}

func (c *locationKeyCache) put(lat, lon float64, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.keys == nil {
		c.keys = make(map[string]string)
	}
	c.keys[coordCacheKey(lat, lon)] = key
}
