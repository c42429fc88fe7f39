package sim

import "fmt"

// SimConfig groups the per-run parameters of the TTI loop.
type SimConfig struct {
	TotalRBs        int    // RB budget per TTI (>= 0)
	MaxRBsPerUE     int    // per-UE cap per TTI (0 = DefaultMaxRBsPerUE)
	NumTTIs         int    // number of TTIs to simulate (>= 0)
	Scheduler       string // "pf" (default), "rr", "max-cqi"
	ResetUnassigned bool   // zero every UE's grant before each allocation walk
}

// DefaultSimConfig matches the reference driver: 20 RBs, cap 5, 10 TTIs, PF.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		TotalRBs:    20,
		MaxRBsPerUE: DefaultMaxRBsPerUE,
		NumTTIs:     10,
		Scheduler:   "pf",
	}
}

// Validate checks parameter ranges and the scheduler name.
// The scheduling core itself accepts any input; this guards user-supplied config.
func (c SimConfig) Validate() error {
	if c.TotalRBs < 0 {
		return fmt.Errorf("total_rbs must be non-negative, got %d", c.TotalRBs)
	}
	if c.MaxRBsPerUE < 0 {
		return fmt.Errorf("max_rbs_per_ue must be non-negative, got %d", c.MaxRBsPerUE)
	}
	if c.NumTTIs < 0 {
		return fmt.Errorf("num_ttis must be non-negative, got %d", c.NumTTIs)
	}
	if !IsValidScheduler(c.Scheduler) {
		return fmt.Errorf("unknown scheduler %q; valid: %v", c.Scheduler, ValidSchedulerNames())
	}
	return nil
}

// SchedulerOptions derives the policy options from the config.
func (c SimConfig) SchedulerOptions() SchedulerOptions {
	return SchedulerOptions{
		MaxRBsPerUE:     c.MaxRBsPerUE,
		ResetUnassigned: c.ResetUnassigned,
	}
}
