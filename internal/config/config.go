// Package config holds application configuration for jobshopd, loaded
// from environment variables with sane defaults (matching the ambient
// config pattern of the rest of the stack: explicit struct, an
// env-or-default constructor, no external config library).
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/flowforge/jobshop/pkg/solver"
)

// Config is jobshopd's complete runtime configuration.
type Config struct {
	API        APIConfig
	Storage    StorageConfig
	Telemetry  TelemetryConfig
	DefaultSolver SolverDefaults
}

// APIConfig configures the ops HTTP surface (health and recent-events
// introspection; spec's Non-goals exclude a full HTTP CRUD/RBAC surface,
// so this stays deliberately small).
type APIConfig struct {
	Listen     string
	Cors       CorsConfig
	RateLimit  RateLimitConfig
}

// CorsConfig mirrors gin-contrib/cors's Config fields the ops surface
// actually uses.
type CorsConfig struct {
	Enabled        bool
	AllowedOrigins []string
}

// RateLimitConfig bounds the ops surface's request rate per client IP.
type RateLimitConfig struct {
	Enabled     bool
	RequestsPer int
	Duration    time.Duration
	BurstSize   int
}

// StorageConfig carries the repository backends' connection strings.
// Either may be empty, in which case the in-memory repository
// implementations are used instead.
type StorageConfig struct {
	PostgresDSN string
	RedisAddr   string
}

// TelemetryConfig bounds the in-process caches pkg/telemetry maintains.
type TelemetryConfig struct {
	WarmStartCacheCapacity int
	EventBufferCapacity    int
}

// SolverDefaults seeds OptimizationParameters when a SolveRequest leaves
// them at their zero value (spec §4.3's named defaults).
type SolverDefaults struct {
	PrimaryWeight             float64
	MakespanWeight            float64
	CostOptimizationTolerance float64
	Config                    solver.Config
}

// DefaultConfig returns jobshopd's configuration with every field at its
// documented default, overridable by environment variable.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Listen: getEnvOrDefault("JOBSHOP_API_LISTEN", "0.0.0.0:8080"),
			Cors: CorsConfig{
				Enabled:        getEnvBoolOrDefault("JOBSHOP_CORS_ENABLED", true),
				AllowedOrigins: []string{"*"},
			},
			RateLimit: RateLimitConfig{
				Enabled:     getEnvBoolOrDefault("JOBSHOP_RATE_LIMIT_ENABLED", true),
				RequestsPer: getEnvIntOrDefault("JOBSHOP_RATE_LIMIT_REQUESTS", 60),
				Duration:    time.Minute,
				BurstSize:   getEnvIntOrDefault("JOBSHOP_RATE_LIMIT_BURST", 10),
			},
		},
		Storage: StorageConfig{
			PostgresDSN: getEnvOrDefault("JOBSHOP_POSTGRES_DSN", ""),
			RedisAddr:   getEnvOrDefault("JOBSHOP_REDIS_ADDR", ""),
		},
		Telemetry: TelemetryConfig{
			WarmStartCacheCapacity: getEnvIntOrDefault("JOBSHOP_WARM_START_CACHE_CAPACITY", 256),
			EventBufferCapacity:    getEnvIntOrDefault("JOBSHOP_EVENT_BUFFER_CAPACITY", 10000),
		},
		DefaultSolver: SolverDefaults{
			PrimaryWeight:             2,
			MakespanWeight:            1,
			CostOptimizationTolerance: 0.10,
			Config: solver.Config{
				MaxTimeSeconds:     getEnvIntOrDefault("JOBSHOP_SOLVER_MAX_TIME_SECONDS", 60),
				NumSearchWorkers:   getEnvIntOrDefault("JOBSHOP_SOLVER_WORKERS", 4),
				SearchBranching:    solver.BranchingAutomatic,
				UseLNS:             true,
				LNSFocus:           solver.LNSImprovement,
				LinearizationLevel: 1,
				ProbingLevel:       1,
				SymmetryLevel:      1,
				UseWarmStart:       true,
			},
		},
	}
}

// LoadConfig loads jobshopd's configuration from the environment.
func LoadConfig() *Config {
	return DefaultConfig()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
