// Command jobshopd runs the job-shop scheduling engine: "solve" drives a
// single problem file through the constraint/optimizer/allocator
// pipeline, and "serve-events" exposes a minimal ops surface over the
// domain event bus.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "jobshopd",
		Short:   "Job-shop production scheduling engine",
		Version: version,
		Long: `jobshopd builds a constraint-programming-style model of a job-shop
scheduling problem, runs it through a three-phase hierarchical
optimizer (feasibility, then weighted tardiness/makespan, then operator
labor cost), and decodes the winning solution into concrete task
assignments with critical-path marking.`,
		Example: `  # Solve a problem file and print the response to stdout
  jobshopd solve --problem problem.json

  # Run the ops HTTP surface
  jobshopd serve-events --listen 0.0.0.0:8080`,
	}

	rootCmd.AddCommand(solveCmd())
	rootCmd.AddCommand(serveEventsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
