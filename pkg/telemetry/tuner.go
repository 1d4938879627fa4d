package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flowforge/jobshop/pkg/solver"
)

// Score implements the tuner's scoring formula (spec §4.8):
// (1-gap)*100 + (1-time_ratio)*50 + min(solutions,10)*5 - memory_ratio*20,
// with infeasible/error solves floored at -1000.
func Score(p *SolverPerformanceProfile) float64 {
	if p.Infeasible() {
		return -1000
	}
	solutionsCapped := p.Solutions
	if solutionsCapped > 10 {
		solutionsCapped = 10
	}
	return (1-p.Gap)*100 + (1-p.TimeRatio())*50 + float64(solutionsCapped)*5 - p.MemoryRatio()*20
}

type patternEntry struct {
	Config solver.Config
	Score  float64
}

// Tuner maintains the process-wide problem_pattern -> best_known_config
// table (spec §4.8), updated whenever a new profile's score beats the
// incumbent for its pattern key. Reads are frequent, writes are rare (one
// per completed solve), matching spec §5's shared-resource model, so it
// is guarded by a RWMutex rather than a plain Mutex. An optional redis
// mirror lets a second (or restarted) process still benefit from a
// previously-learned config, mirroring the teacher's
// *sqlx.DB+*redis.Client repository pairing.
type Tuner struct {
	mu      sync.RWMutex
	entries map[patternKeyString]patternEntry

	redis  *redis.Client
	logger *slog.Logger
}

type patternKeyString string

// NewTuner constructs an empty Tuner. A nil redis client disables the
// cross-process mirror; a nil logger defaults to slog.Default().
func NewTuner(rdb *redis.Client, logger *slog.Logger) *Tuner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tuner{entries: map[patternKeyString]patternEntry{}, redis: rdb, logger: logger}
}

func keyOf(pattern solver.PatternKey) patternKeyString {
	return patternKeyString(fmt.Sprintf("%s|%t|%t|%t", pattern.Bucket, pattern.HasPrecedence, pattern.HasResources, pattern.HasTimeWindows))
}

// Consider scores profile and, if it beats the current best_known_config
// for its pattern key (or none exists yet), replaces it.
func (t *Tuner) Consider(ctx context.Context, profile *SolverPerformanceProfile) {
	score := Score(profile)
	key := keyOf(profile.Pattern)

	t.mu.Lock()
	existing, ok := t.entries[key]
	if ok && existing.Score >= score {
		t.mu.Unlock()
		return
	}
	entry := patternEntry{Config: profile.Config, Score: score}
	t.entries[key] = entry
	t.mu.Unlock()

	if t.redis != nil {
		t.mirror(ctx, key, entry)
	}
}

// BestConfigFor returns the best known config for pattern, preferring the
// in-process table and falling back to the redis mirror on a local miss.
func (t *Tuner) BestConfigFor(ctx context.Context, pattern solver.PatternKey) (solver.Config, bool) {
	key := keyOf(pattern)

	t.mu.RLock()
	entry, ok := t.entries[key]
	t.mu.RUnlock()
	if ok {
		return entry.Config, true
	}
	if t.redis == nil {
		return solver.Config{}, false
	}

	raw, err := t.redis.Get(ctx, t.redisKey(key)).Bytes()
	if err != nil {
		return solver.Config{}, false
	}
	var mirrored patternEntry
	if err := json.Unmarshal(raw, &mirrored); err != nil {
		t.logger.Warn("tuner: discarding corrupt mirrored pattern entry", "key", key, "error", err)
		return solver.Config{}, false
	}

	t.mu.Lock()
	t.entries[key] = mirrored
	t.mu.Unlock()
	return mirrored.Config, true
}

func (t *Tuner) redisKey(key patternKeyString) string {
	return fmt.Sprintf("jobshop:telemetry:pattern:%s", key)
}

func (t *Tuner) mirror(ctx context.Context, key patternKeyString, entry patternEntry) {
	encoded, err := json.Marshal(entry)
	if err != nil {
		t.logger.Warn("tuner: failed to encode pattern entry for redis mirror", "error", err)
		return
	}
	if err := t.redis.Set(ctx, t.redisKey(key), encoded, 24*time.Hour).Err(); err != nil {
		t.logger.Warn("tuner: failed to write pattern entry to redis mirror", "error", err)
	}
}
