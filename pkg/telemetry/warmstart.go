package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/flowforge/jobshop/pkg/constraint"
	"github.com/flowforge/jobshop/pkg/solver"
)

// VariableKey identifies one model variable for warm-start fingerprinting
// (spec §4.8): (job_number, task_sequence, operation_id, due_date).
type VariableKey struct {
	JobNumber     string
	TaskSequence  int
	OperationID   string
	DueMinutes    int64
}

// Fingerprint is a problem's warm-start identity: the set of variable
// keys present in its model, independent of order.
type Fingerprint []VariableKey

// FingerprintOf builds model's fingerprint from its task nodes and due
// dates.
func FingerprintOf(model *constraint.Model) Fingerprint {
	fp := make(Fingerprint, 0, len(model.Tasks))
	for _, task := range model.Tasks {
		due, _ := model.DueDateFor(task.JobNumber)
		fp = append(fp, VariableKey{
			JobNumber:    task.JobNumber,
			TaskSequence: task.SequenceInJob,
			OperationID:  task.OperationID.String(),
			DueMinutes:   due,
		})
	}
	sort.Slice(fp, func(i, j int) bool {
		if fp[i].JobNumber != fp[j].JobNumber {
			return fp[i].JobNumber < fp[j].JobNumber
		}
		return fp[i].TaskSequence < fp[j].TaskSequence
	})
	return fp
}

// hash renders the fingerprint to a stable cache key string.
func (fp Fingerprint) hash() string {
	h := make([]string, len(fp))
	for i, k := range fp {
		h[i] = fmt.Sprintf("%s/%d/%s/%d", k.JobNumber, k.TaskSequence, k.OperationID, k.DueMinutes)
	}
	return fmt.Sprint(h)
}

type warmStartEntry struct {
	Fingerprint Fingerprint
	Solution    *solver.Solution
}

// WarmStartCache retains recent solutions keyed by problem fingerprint
// (spec §4.8), with FIFO eviction once capacity is reached (matching
// pkg/criticalpath's cache policy). An optional redis mirror lets a
// restarted process recover a warm start instead of cold-starting.
type WarmStartCache struct {
	mu       sync.Mutex
	capacity int
	order    []string
	entries  map[string]warmStartEntry

	redis  *redis.Client
	logger *slog.Logger
}

// NewWarmStartCache constructs a cache holding up to capacity entries
// (<=0 defaults to 256). A nil redis client disables the mirror.
func NewWarmStartCache(capacity int, rdb *redis.Client, logger *slog.Logger) *WarmStartCache {
	if capacity <= 0 {
		capacity = 256
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WarmStartCache{capacity: capacity, entries: map[string]warmStartEntry{}, redis: rdb, logger: logger}
}

// Put records sol as the latest known solution for model's fingerprint.
func (c *WarmStartCache) Put(ctx context.Context, model *constraint.Model, sol *solver.Solution) {
	fp := FingerprintOf(model)
	key := fp.hash()
	entry := warmStartEntry{Fingerprint: fp, Solution: sol}

	c.mu.Lock()
	if _, exists := c.entries[key]; !exists {
		if len(c.order) >= c.capacity {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = entry
	c.mu.Unlock()

	if c.redis != nil {
		c.mirror(ctx, key, entry)
	}
}

// Hint returns an adapted warm-start solution for model if its exact
// fingerprint has a cached solution, in process or in the redis mirror.
// A fingerprint that shares only some variables with a cached one is not
// matched. The cached solution is passed through adapt.
func (c *WarmStartCache) Hint(ctx context.Context, model *constraint.Model) (*solver.Solution, bool) {
	fp := FingerprintOf(model)
	key := fp.hash()

	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()
	if ok {
		return adapt(model, entry.Solution), true
	}

	if c.redis == nil {
		return nil, false
	}
	raw, err := c.redis.Get(ctx, c.redisKey(key)).Bytes()
	if err != nil {
		return nil, false
	}
	var mirrored warmStartEntry
	if err := json.Unmarshal(raw, &mirrored); err != nil {
		c.logger.Warn("warm-start cache: discarding corrupt mirrored entry", "key", key, "error", err)
		return nil, false
	}

	c.mu.Lock()
	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.order = append(c.order, key)
	c.entries[key] = mirrored
	c.mu.Unlock()

	return adapt(model, mirrored.Solution), true
}

// adapt keeps verbatim any placement whose task id still exists in model;
// placements for tasks the model no longer has are dropped. Placements are
// matched by task id only, and the builder gives every task of a freshly
// built model a new id, so a hint for such a model carries no placements.
// The solver's construction phase places any task missing from the hint
// at its own earliest feasible start.
func adapt(model *constraint.Model, cached *solver.Solution) *solver.Solution {
	out := &solver.Solution{Placements: make(map[uuid.UUID]solver.TaskPlacement, len(cached.Placements)), Objective: cached.Objective}
	for id, placement := range cached.Placements {
		if model.TaskByID(id) != nil {
			out.Placements[id] = placement
		}
	}
	return out
}

func (c *WarmStartCache) redisKey(key string) string {
	return fmt.Sprintf("jobshop:telemetry:warmstart:%s", key)
}

func (c *WarmStartCache) mirror(ctx context.Context, key string, entry warmStartEntry) {
	encoded, err := json.Marshal(entry)
	if err != nil {
		c.logger.Warn("warm-start cache: failed to encode entry for redis mirror", "error", err)
		return
	}
	if err := c.redis.Set(ctx, c.redisKey(key), encoded, 24*time.Hour).Err(); err != nil {
		c.logger.Warn("warm-start cache: failed to write entry to redis mirror", "error", err)
	}
}
