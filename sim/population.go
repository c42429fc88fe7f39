package sim

import (
	"fmt"
	"math"
)

const (
	// MinCQI and MaxCQI bound the 4-bit CQI index reported by a UE.
	MinCQI = 0
	MaxCQI = 15
)

// PopulationConfig describes a generated set of UEs.
type PopulationConfig struct {
	NumUEs int
	CQIMin int
	CQIMax int
	// MaxInitialThroughput > 0 draws each UE's starting avg_throughput
	// uniformly from [0, MaxInitialThroughput); 0 starts every UE at 0.
	MaxInitialThroughput float64
}

// Validate checks the count, CQI range and throughput bound.
func (c PopulationConfig) Validate() error {
	if c.NumUEs < 0 {
		return fmt.Errorf("UE count must be non-negative, got %d", c.NumUEs)
	}
	if c.CQIMin < MinCQI || c.CQIMax > MaxCQI || c.CQIMin > c.CQIMax {
		return fmt.Errorf("CQI range [%d, %d] must lie within [%d, %d] with min <= max",
			c.CQIMin, c.CQIMax, MinCQI, MaxCQI)
	}
	if c.MaxInitialThroughput < 0 || math.IsNaN(c.MaxInitialThroughput) || math.IsInf(c.MaxInitialThroughput, 0) {
		return fmt.Errorf("max initial throughput must be finite and non-negative, got %f", c.MaxInitialThroughput)
	}
	return nil
}

// GenerateUEs builds cfg.NumUEs UEs with ids 1..n. CQI and starting
// throughput come from separate streams of rng, so turning on throughput
// seeding leaves the CQI sequence unchanged. CQI stays fixed for the run.
func GenerateUEs(cfg PopulationConfig, rng *PartitionedRNG) ([]UESpec, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cqis := rng.ForSubsystem(SubsystemCQI)
	specs := make([]UESpec, cfg.NumUEs)
	for i := range specs {
		specs[i] = UESpec{
			ID:  i + 1,
			CQI: cfg.CQIMin + cqis.Intn(cfg.CQIMax-cfg.CQIMin+1),
		}
	}
	if cfg.MaxInitialThroughput > 0 {
		tput := rng.ForSubsystem(SubsystemThroughput)
		for i := range specs {
			specs[i].AvgThroughput = tput.Float64() * cfg.MaxInitialThroughput
		}
	}
	return specs, nil
}
