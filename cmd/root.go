package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/cloud-sim/cloud-sim/sim"
)

var (
	scenarioPath string // Path to the YAML scenario file
	horizon      int64  // Simulation end time (in ticks), 0 = run until drained
	maxEvents    int    // Safety valve: abort after this many events, 0 = unlimited
	logLevel     string // Log verbosity level
	allocator    string // Placement policy name, overrides the scenario when set
	admission    string // Admission policy name, overrides the scenario when set
	seed         int64  // Overrides the scenario seed when >= 0
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "cloud-sim",
	Short: "Discrete-event simulator for cloud data centers",
}

// runCmd loads a scenario, runs it to completion, and prints the report.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation scenario",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		if scenarioPath == "" {
			logrus.Fatalf("No scenario file provided. Exiting simulation.")
		}
		scenario, err := sim.LoadScenario(scenarioPath)
		if err != nil {
			logrus.Fatalf("Unable to load scenario: %v", err)
		}
		if allocator != "" {
			scenario.Allocator = allocator
		}
		if admission != "" {
			scenario.Admission = admission
		}
		if seed >= 0 {
			scenario.Seed = seed
		}
		if horizon > 0 {
			scenario.Horizon = horizon
		}

		s, err := scenario.Build()
		if err != nil {
			logrus.Fatalf("Unable to build simulation: %v", err)
		}
		if err := s.Run(sim.RunLimits{EndTime: scenario.Horizon, MaxEvents: maxEvents}); err != nil {
			logrus.Errorf("Run ended abnormally: %v", err)
		}
		s.Report()
	},
}

// version is set at build time via -ldflags.
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the cloud-sim version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("cloud-sim", version)
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Path to the YAML scenario file")
	runCmd.Flags().Int64Var(&horizon, "horizon", 0, "Simulation end time in ticks (0 = run until drained)")
	runCmd.Flags().IntVar(&maxEvents, "max-events", 0, "Abort after this many events (0 = unlimited)")
	runCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&allocator, "allocator", "", "Placement policy (first-fit, best-fit, worst-fit)")
	runCmd.Flags().StringVar(&admission, "admission", "", "Admission policy (capacity, always-reject)")
	runCmd.Flags().Int64Var(&seed, "seed", -1, "Seed for synthetic arrival generation (-1 = use scenario seed)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}
