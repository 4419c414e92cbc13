package scenario

import (
	"encoding/json"
	"log"
	"math/rand"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultKey is returned by ResolveKey when the catalog has nothing better to
// offer (empty catalog, or a Get miss falls back to generic behavior).
const DefaultKey = "General"

// Scenario is one role-play context parameterizing the dialogue provider.
type Scenario struct {
	Title   string `json:"title"`
	Setting string `json:"setting"`
	Stakes  string `json:"stakes"`
	Role    string `json:"role"`
}

// Catalog maps scenario keys to scenario metadata. It is loaded once at
// startup and read-only afterwards; the mutex only guards the rng.
type Catalog struct {
	scenarios map[string]Scenario
	keys      []string // sorted, for deterministic iteration under a seeded rng
	forced    string

	mu  sync.Mutex
	rng *rand.Rand
}

// New builds a catalog from an in-memory map.
func New(scenarios map[string]Scenario) *Catalog {
	keys := make([]string, 0, len(scenarios))
	for k := range scenarios {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &Catalog{
		scenarios: scenarios,
		keys:      keys,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Load reads the scenario catalog from a JSON file. A missing or unreadable
// file degrades to an empty catalog rather than failing startup.
func Load(path string) *Catalog {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("scenario catalog: %v - starting with empty catalog", err)
		return New(map[string]Scenario{})
	}
	var m map[string]Scenario
	if err := json.Unmarshal(data, &m); err != nil {
		log.Printf("scenario catalog: parse %s: %v - starting with empty catalog", path, err)
		return New(map[string]Scenario{})
	}
	log.Printf("scenario catalog: loaded %d scenarios from %s", len(m), path)
	return New(m)
}

// SetSeed reseeds the pseudo-random fallback pick (RANDOM_SEED).
func (c *Catalog) SetSeed(seed int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rng = rand.New(rand.NewSource(seed))
}

// SetForced pins scenario resolution to one key (FORCE_SCENARIO). Ignored if
// the key is not in the catalog.
func (c *Catalog) SetForced(key string) {
	if _, ok := c.scenarios[key]; ok {
		c.forced = key
	} else if key != "" {
		log.Printf("scenario catalog: FORCE_SCENARIO %q not in catalog, ignoring", key)
	}
}

// Len reports how many scenarios are loaded.
func (c *Catalog) Len() int { return len(c.keys) }

// Get returns the scenario stored under key.
func (c *Catalog) Get(key string) (Scenario, bool) {
	s, ok := c.scenarios[key]
	return s, ok
}

// ResolveKey maps a client-supplied scenario name to a catalog key. The name
// may be the key itself or a scenario title (case-insensitive). Resolution
// never fails: an unknown name falls back to a pseudo-random catalog pick,
// and an empty catalog falls back to DefaultKey.
func (c *Catalog) ResolveKey(requested string) string {
	if c.forced != "" {
		return c.forced
	}
	if requested != "" {
		if _, ok := c.scenarios[requested]; ok {
			return requested
		}
		for _, key := range c.keys {
			if strings.EqualFold(c.scenarios[key].Title, requested) {
				return key
			}
		}
	}
	return c.randomKey()
}

func (c *Catalog) randomKey() string {
	if len(c.keys) == 0 {
		return DefaultKey
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.keys[c.rng.Intn(len(c.keys))]
}
