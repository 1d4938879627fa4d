package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/flowforge/jobshop/internal/config"
	"github.com/flowforge/jobshop/pkg/engine"
	"github.com/flowforge/jobshop/pkg/events"
	"github.com/flowforge/jobshop/pkg/telemetry"
)

func solveCmd() *cobra.Command {
	var problemPath string
	var outputPath string

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve a job-shop scheduling problem from a problem file",
		Long: `Solve reads a problem definition (machines, operations, operators,
jobs, business constraints, and optional solver overrides) from a JSON
file and runs it through the full pipeline: constraint model build,
hierarchical optimization, resource allocation, and critical-path
marking. The resulting SolveResponse is printed as JSON.`,
		Example: `  jobshopd solve --problem problem.json
  jobshopd solve --problem problem.json --output response.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(problemPath, outputPath)
		},
	}

	cmd.Flags().StringVarP(&problemPath, "problem", "p", "", "path to the problem JSON file (required)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "path to write the SolveResponse JSON (default: stdout)")
	cmd.MarkFlagRequired("problem")

	return cmd
}

func runSolve(problemPath, outputPath string) error {
	req, err := loadProblem(problemPath)
	if err != nil {
		return err
	}

	cfg := config.LoadConfig()
	logger := slog.Default()

	var rdb *redis.Client
	if cfg.Storage.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Storage.RedisAddr})
	}

	bus := events.New(cfg.Telemetry.EventBufferCapacity, logger)
	tuner := telemetry.NewTuner(rdb, logger)
	warmCache := telemetry.NewWarmStartCache(cfg.Telemetry.WarmStartCacheCapacity, rdb, logger)

	if req.OptimizationParameters.PrimaryWeight == 0 {
		req.OptimizationParameters.PrimaryWeight = cfg.DefaultSolver.PrimaryWeight
	}
	if req.OptimizationParameters.MakespanWeight == 0 {
		req.OptimizationParameters.MakespanWeight = cfg.DefaultSolver.MakespanWeight
	}
	if req.OptimizationParameters.CostOptimizationTolerance == 0 {
		req.OptimizationParameters.CostOptimizationTolerance = cfg.DefaultSolver.CostOptimizationTolerance
	}
	if req.SolverConfig.MaxTimeSeconds == 0 {
		req.SolverConfig = cfg.DefaultSolver.Config
	}

	eng := engine.New(tuner, warmCache, bus, logger)
	resp, err := eng.Solve(context.Background(), req)
	if err != nil {
		return fmt.Errorf("solve: %w", err)
	}

	encoded, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding response: %w", err)
	}

	if outputPath == "" {
		fmt.Println(string(encoded))
		return nil
	}
	return os.WriteFile(outputPath, encoded, 0o644)
}
