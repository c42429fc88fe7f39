package sim

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// UESpec describes one UE in a scenario file.
type UESpec struct {
	ID            int     `yaml:"id"`
	CQI           int     `yaml:"cqi"`
	AvgThroughput float64 `yaml:"avg_throughput"`
}

// Scenario is the on-disk description of a simulation run.
// All fields must be listed to satisfy KnownFields(true) strict parsing.
type Scenario struct {
	TotalRBs        int      `yaml:"total_rbs"`
	MaxRBsPerUE     int      `yaml:"max_rbs_per_ue"`
	NumTTIs         int      `yaml:"num_ttis"`
	Scheduler       string   `yaml:"scheduler"`
	ResetUnassigned bool     `yaml:"reset_unassigned"`
	UEs             []UESpec `yaml:"ues"`
}

// DefaultScenario reproduces the reference driver: five UEs starting at zero
// throughput, 20 RBs per TTI, 10 TTIs.
func DefaultScenario() *Scenario {
	cfg := DefaultSimConfig()
	return &Scenario{
		TotalRBs:    cfg.TotalRBs,
		MaxRBsPerUE: cfg.MaxRBsPerUE,
		NumTTIs:     cfg.NumTTIs,
		Scheduler:   cfg.Scheduler,
		UEs: []UESpec{
			{ID: 1, CQI: 12},
			{ID: 2, CQI: 8},
			{ID: 3, CQI: 5},
			{ID: 4, CQI: 10},
			{ID: 5, CQI: 6},
		},
	}
}

// LoadScenario reads and strictly parses a YAML scenario file.
// Fields absent from the file keep the DefaultScenario values, except ues,
// which replaces the default list when present. An empty file yields the
// DefaultScenario.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	sc := DefaultScenario()
	sc.UEs = nil
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(sc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if sc.UEs == nil {
		sc.UEs = DefaultScenario().UEs
	}
	return sc, nil
}

// Config extracts the loop parameters.
func (s *Scenario) Config() SimConfig {
	return SimConfig{
		TotalRBs:        s.TotalRBs,
		MaxRBsPerUE:     s.MaxRBsPerUE,
		NumTTIs:         s.NumTTIs,
		Scheduler:       s.Scheduler,
		ResetUnassigned: s.ResetUnassigned,
	}
}

// Validate checks the loop parameters and the UE list.
func (s *Scenario) Validate() error {
	if err := s.Config().Validate(); err != nil {
		return err
	}
	seen := make(map[int]bool, len(s.UEs))
	for i, u := range s.UEs {
		if seen[u.ID] {
			return fmt.Errorf("ues[%d]: duplicate id %d", i, u.ID)
		}
		seen[u.ID] = true
		if u.CQI < 0 {
			return fmt.Errorf("ues[%d]: cqi must be non-negative, got %d", i, u.CQI)
		}
		if u.AvgThroughput < 0 {
			return fmt.Errorf("ues[%d]: avg_throughput must be non-negative, got %f", i, u.AvgThroughput)
		}
	}
	return nil
}

// BuildUEs creates fresh UEs in file order.
func (s *Scenario) BuildUEs() []*UE {
	ues := make([]*UE, len(s.UEs))
	for i, u := range s.UEs {
		ues[i] = NewUE(u.ID, u.CQI, u.AvgThroughput)
	}
	return ues
}
