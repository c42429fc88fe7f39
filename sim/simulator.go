package sim

import (
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/rb-sim/rb-sim/sim/trace"
)

// Observer receives the UE list after each TTI's throughput update.
// It must not retain the slice or mutate the UEs.
type Observer func(tti int, ues []*UE)

// Option customizes a Simulator.
type Option func(*Simulator)

// WithObserver registers the per-TTI display/reporting hook.
func WithObserver(o Observer) Option {
	return func(s *Simulator) { s.observer = o }
}

// WithTrace enables decision recording into st.
func WithTrace(st *trace.SimulationTrace) Option {
	return func(s *Simulator) { s.Trace = st }
}

// WithLogger overrides the logger used for run-level messages.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Simulator) { s.log = l }
}

// Simulator drives the per-TTI loop: Schedule, then UpdateAverageThroughput
// on every UE, then reporting. It owns the UE slice for the duration of the run.
//
// Single-threaded. Concurrent sweeps must give each Simulator its own UEs and
// its own Scheduler.
type Simulator struct {
	Config  SimConfig
	UEs     []*UE
	Sched   Scheduler
	Metrics *Metrics
	Trace   *trace.SimulationTrace
	RunID   string
	TTI     int // last completed TTI (0 before the first Step)

	observer Observer
	log      logrus.FieldLogger
}

// NewSimulator wires a run. The Simulator mutates ues in place; neither ues
// nor sched may be shared with another Simulator. Metrics follow each UE by
// its position in ues, so IDs are only labels and need not be unique here.
func NewSimulator(cfg SimConfig, ues []*UE, sched Scheduler, opts ...Option) *Simulator {
	runID := xid.New().String()
	s := &Simulator{
		Config: cfg,
		UEs:    ues,
		Sched:  sched,
		RunID:  runID,
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("run", runID)
	s.Metrics = NewMetrics(runID, ues)
	return s
}

// Step simulates one TTI and returns the grants made in it.
func (s *Simulator) Step() []Allocation {
	s.TTI++
	s.log.Debugf("TTI %d: scheduling %d RBs across %d UEs", s.TTI, s.Config.TotalRBs, len(s.UEs))

	allocs := s.Sched.Schedule(s.UEs, s.Config.TotalRBs)
	for _, ue := range s.UEs {
		ue.UpdateAverageThroughput()
	}

	s.Metrics.RecordTTI(s.UEs, allocs)
	if s.Trace.Enabled() {
		for _, a := range allocs {
			s.Trace.RecordAllocation(trace.AllocationRecord{
				TTI:   s.TTI,
				UEID:  a.UEID,
				Rank:  a.Rank,
				RBs:   a.RBs,
				Score: a.Score,
			})
		}
	}
	if s.observer != nil {
		s.observer(s.TTI, s.UEs)
	}
	return allocs
}

// Run executes Config.NumTTIs steps.
func (s *Simulator) Run() {
	s.log.Infof("Starting simulation: %d UEs, %d RBs/TTI, %d TTIs",
		len(s.UEs), s.Config.TotalRBs, s.Config.NumTTIs)
	for i := 0; i < s.Config.NumTTIs; i++ {
		s.Step()
	}
	s.log.Infof("Simulation complete after %d TTIs", s.TTI)
}
