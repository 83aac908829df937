package hexmap

import "sync"

type cacheKey struct {
	seed   int64
	radius int
}

// Cache memoizes generated maps by (seed, radius). Safe for concurrent use.
type Cache struct {
	mu   sync.Mutex
	maps map[cacheKey]*Map
}

func NewCache() *Cache {
	return &Cache{
		maps: make(map[cacheKey]*Map),
	}
}

// Get returns the map for the given radius and seed, generating it on first use.
func (c *Cache) Get(radius int, seed int64) *Map {
	key := cacheKey{seed: seed, radius: radius}

	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := c.maps[key]; ok {
		return m
	}
	m := Generate(radius, seed)
	c.maps[key] = m
	return m
}
