package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	sim "github.com/rb-sim/rb-sim/sim"
	"github.com/rb-sim/rb-sim/sim/trace"
)

var (
	// CLI flags for the scheduling run
	scenarioPath    string // YAML scenario file (optional)
	schedulerName   string // Scheduling policy
	totalRBs        int    // RB budget per TTI
	maxRBsPerUE     int    // Per-UE cap per TTI
	numTTIs         int    // Number of TTIs to simulate
	resetUnassigned bool   // Zero every UE's grant before each allocation
	traceLevel      string // Decision trace verbosity
	logLevel        string // Log verbosity level

	// CLI flags for generated UE populations
	numUEs         int     // Generate this many UEs instead of using the scenario list
	cqiMin         int     // Lowest generated CQI
	cqiMax         int     // Highest generated CQI
	initialTputMax float64 // Upper bound for generated starting avg_throughput
	seed           int64   // Seed for UE generation
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "rb-sim",
	Short: "TTI-level resource-block scheduling simulator",
}

// runCmd executes the simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduling simulation",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level: %s", traceLevel)
		}

		sc, err := buildScenario(cmd.Flags())
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := sc.Validate(); err != nil {
			logrus.Fatalf("Invalid scenario: %v", err)
		}

		runScenario(sc, trace.TraceLevel(traceLevel), cmd.OutOrStdout())
	},
}

// buildScenario resolves the scenario file, generated population and flag
// overrides. Flags only override the file when explicitly set.
func buildScenario(fs *pflag.FlagSet) (*sim.Scenario, error) {
	sc := sim.DefaultScenario()
	if scenarioPath != "" {
		loaded, err := sim.LoadScenario(scenarioPath)
		if err != nil {
			return nil, err
		}
		sc = loaded
		logrus.Infof("Loaded scenario from %s (%d UEs)", scenarioPath, len(sc.UEs))
	}

	if fs.Changed("scheduler") {
		sc.Scheduler = schedulerName
	}
	if fs.Changed("total-rbs") {
		sc.TotalRBs = totalRBs
	}
	if fs.Changed("max-rbs-per-ue") {
		sc.MaxRBsPerUE = maxRBsPerUE
	}
	if fs.Changed("ttis") {
		sc.NumTTIs = numTTIs
	}
	if fs.Changed("reset-unassigned") {
		sc.ResetUnassigned = resetUnassigned
	}

	if fs.Changed("num-ues") {
		pop := sim.PopulationConfig{
			NumUEs:               numUEs,
			CQIMin:               cqiMin,
			CQIMax:               cqiMax,
			MaxInitialThroughput: initialTputMax,
		}
		rng := sim.NewPartitionedRNG(sim.NewSimulationKey(seed))
		ues, err := sim.GenerateUEs(pop, rng)
		if err != nil {
			return nil, fmt.Errorf("generating UEs: %w", err)
		}
		sc.UEs = ues
		logrus.Infof("Generated %d UEs with CQI in [%d, %d], initial throughput < %.2f (seed=%d)",
			numUEs, cqiMin, cqiMax, initialTputMax, seed)
	}
	return sc, nil
}

// runScenario runs a validated scenario, printing the UE table after every TTI
// followed by the run summary.
func runScenario(sc *sim.Scenario, level trace.TraceLevel, out io.Writer) *sim.Simulator {
	cfg := sc.Config()
	opts := cfg.SchedulerOptions()
	opts.Logger = logrus.StandardLogger()
	sched := sim.NewScheduler(cfg.Scheduler, opts)
	ues := sc.BuildUEs()

	fmt.Fprintln(out, "Initial UE Metrics:")
	sim.PrintUETable(out, ues)

	s := sim.NewSimulator(cfg, ues, sched,
		sim.WithTrace(trace.NewSimulationTrace(trace.TraceConfig{Level: level})),
		sim.WithObserver(func(tti int, ues []*sim.UE) {
			fmt.Fprintf(out, "\n[TTI %d]\n", tti)
			sim.PrintUETable(out, ues)
		}),
	)
	s.Run()

	fmt.Fprintln(out)
	s.Metrics.Print(out)
	if s.Trace.Enabled() {
		printTraceSummary(out, trace.Summarize(s.Trace))
	}
	if err := s.Metrics.SaveResults(out); err != nil {
		logrus.Errorf("Failed to write results: %v", err)
	}
	return s
}

func printTraceSummary(out io.Writer, ts *trace.TraceSummary) {
	fmt.Fprintln(out, "=== Decision Trace ===")
	fmt.Fprintf(out, "Decisions            : %d\n", ts.TotalDecisions)
	fmt.Fprintf(out, "Mean Granted Score   : %.2f\n", ts.MeanScore)
	fmt.Fprintf(out, "UEs Ever Granted     : %d\n", len(ts.GrantsPerUE))
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// addRunFlags registers the run command's flags on fs.
func addRunFlags(fs *pflag.FlagSet) {
	def := sim.DefaultSimConfig()

	fs.StringVar(&scenarioPath, "config", "", "Path to a YAML scenario file")
	fs.StringVar(&schedulerName, "scheduler", def.Scheduler, fmt.Sprintf("Scheduling policy %v", sim.ValidSchedulerNames()))
	fs.IntVar(&totalRBs, "total-rbs", def.TotalRBs, "Resource blocks available per TTI")
	fs.IntVar(&maxRBsPerUE, "max-rbs-per-ue", def.MaxRBsPerUE, "Maximum RBs granted to one UE per TTI")
	fs.IntVar(&numTTIs, "ttis", def.NumTTIs, "Number of TTIs to simulate")
	fs.BoolVar(&resetUnassigned, "reset-unassigned", false, "Zero the grant of UEs not served in a TTI before smoothing")
	fs.StringVar(&traceLevel, "trace-level", string(trace.TraceLevelNone), "Decision trace level (none, decisions)")
	fs.StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")

	// Generated UE population
	fs.IntVar(&numUEs, "num-ues", 0, "Generate this many UEs instead of the scenario's list")
	fs.IntVar(&cqiMin, "cqi-min", 1, "Lowest CQI for generated UEs")
	fs.IntVar(&cqiMax, "cqi-max", sim.MaxCQI, "Highest CQI for generated UEs")
	fs.Float64Var(&initialTputMax, "initial-throughput-max", 0, "Draw generated UEs' starting avg_throughput from [0, max); 0 starts at zero")
	fs.Int64Var(&seed, "seed", 42, "Seed for UE generation")
}

// init sets up CLI flags and subcommands
func init() {
	addRunFlags(runCmd.Flags())

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
