// Package sim provides the TTI-driven resource-block scheduling simulator.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - ue.go: UE state (CQI, smoothed throughput) and the assign → smooth lifecycle
//   - scheduler.go: the Scheduler interface and the PF / round-robin / max-CQI policies
//   - simulator.go: the per-TTI loop (schedule, update every UE, report)
//
// # Architecture
//
// Scenario files (scenario.go) and generated populations (population.go, rng.go)
// produce the initial UEs. Metrics (metrics.go) and the decision trace
// (sim/trace/) observe the loop without influencing it.
//
// # Key Interfaces
//
//   - Scheduler: distribute one TTI's RB budget among UEs
//   - Observer: per-TTI display hook supplied by the CLI
package sim
