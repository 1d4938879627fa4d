package criticalpath

import (
	"hash/fnv"
	"sort"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/flowforge/jobshop/pkg/constraint"
	"github.com/flowforge/jobshop/pkg/solver"
)

// Cache memoizes Analyze results keyed by a content hash of the solution
// being analyzed, so repeated analysis of an unchanged schedule (e.g. a
// UI re-rendering float columns) skips the forward/backward pass
// entirely. Bounded by capacity with naive FIFO eviction; critical-path
// reports are cheap enough that LRU precision isn't worth the extra
// bookkeeping here.
type Cache struct {
	mu       sync.Mutex
	capacity int
	order    []uint64
	entries  map[uint64]Report
}

// NewCache constructs a Cache. capacity <= 0 defaults to 256 entries.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 256
	}
	return &Cache{capacity: capacity, entries: make(map[uint64]Report)}
}

// Analyze returns the cached Report for sol if present, else computes and
// stores one.
func (c *Cache) Analyze(model *constraint.Model, sol *solver.Solution) Report {
	key := fingerprint(sol)

	c.mu.Lock()
	if report, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return report
	}
	c.mu.Unlock()

	report := Analyze(model, sol)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		if len(c.order) >= c.capacity {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = report
	return report
}

// fingerprint hashes a solution's placements (task, machine, start, setup,
// processing) in a canonical task-id order so the same assignment always
// yields the same key regardless of map iteration order.
func fingerprint(sol *solver.Solution) uint64 {
	ids := make([]uuid.UUID, 0, len(sol.Placements))
	for id := range sol.Placements {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	h := fnv.New64a()
	for _, id := range ids {
		p := sol.Placements[id]
		h.Write(id[:])
		h.Write(p.MachineID[:])
		h.Write([]byte(strconv.FormatInt(p.StartMinute, 10)))
		h.Write([]byte(strconv.FormatInt(p.SetupMinutes, 10)))
		h.Write([]byte(strconv.FormatInt(p.ProcessingMinutes, 10)))
	}
	return h.Sum64()
}
