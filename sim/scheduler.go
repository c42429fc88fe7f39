package sim

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

const (
	// Epsilon keeps the proportional-fair score finite when a UE's average throughput is 0.
	Epsilon = 1e-5

	// DefaultMaxRBsPerUE caps a single UE's grant within one TTI.
	DefaultMaxRBsPerUE = 5
)

// Allocation is one grant made by a Scheduler during a single TTI.
type Allocation struct {
	UEID  int
	Index int     // position of the UE in the slice passed to Schedule
	Rank  int     // 0-based position in the policy's ordering
	RBs   int
	Score float64 // policy score that produced the ranking (0 for round-robin)
}

// Scheduler distributes a TTI's RB budget among UEs.
// Implementations call AssignRBs on the UEs they grant and return the grants
// in assignment order. UEs that receive nothing keep their previous
// LastAssignedRBs unless the scheduler was built with ResetUnassigned.
type Scheduler interface {
	Schedule(ues []*UE, totalRBs int) []Allocation
}

// SchedulerOptions holds parameters shared by all scheduling policies.
// Zero values use defaults.
type SchedulerOptions struct {
	MaxRBsPerUE     int
	ResetUnassigned bool
	Logger          logrus.FieldLogger
}

func (o SchedulerOptions) maxRBsPerUE() int {
	if o.MaxRBsPerUE <= 0 {
		return DefaultMaxRBsPerUE
	}
	return o.MaxRBsPerUE
}

func (o SchedulerOptions) logger() logrus.FieldLogger {
	if o.Logger == nil {
		return logrus.StandardLogger()
	}
	return o.Logger
}

// rankedUE pairs a UE's original index with its policy score.
type rankedUE struct {
	index int
	score float64
}

// greedyAllocate walks ranked in order, granting min(cap, remaining) to each UE
// until the budget is exhausted.
func greedyAllocate(ues []*UE, ranked []rankedUE, totalRBs int, opts SchedulerOptions) []Allocation {
	if opts.ResetUnassigned {
		for _, ue := range ues {
			ue.AssignRBs(0)
		}
	}
	maxRBs := opts.maxRBsPerUE()
	log := opts.logger()

	var allocs []Allocation
	remaining := totalRBs
	for rank, r := range ranked {
		if remaining <= 0 {
			break
		}
		assigned := min(maxRBs, remaining)
		ue := ues[r.index]
		ue.AssignRBs(assigned)
		remaining -= assigned

		log.WithFields(logrus.Fields{
			"ue":    ue.ID(),
			"rbs":   assigned,
			"score": r.score,
		}).Infof("UE%d assigned %d RBs (Score: %g)", ue.ID(), assigned, r.score)

		allocs = append(allocs, Allocation{
			UEID:  ue.ID(),
			Index: r.index,
			Rank:  rank,
			RBs:   assigned,
			Score: r.score,
		})
	}
	return allocs
}

// sortByScore orders descending by score, then ascending by original index.
func sortByScore(ranked []rankedUE) {
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].index < ranked[j].index
	})
}

// ProportionalFairScheduler ranks UEs by CQI relative to their own recent
// throughput, so a UE that has been starved climbs the ranking.
// Formula: cqi / (avgThroughput + Epsilon)
//
// Stateless between calls.
type ProportionalFairScheduler struct {
	Options SchedulerOptions
}

// PFScore computes the proportional-fair priority of a UE.
func PFScore(ue *UE) float64 {
	return float64(ue.CQI()) / (ue.AvgThroughput() + Epsilon)
}

func (p *ProportionalFairScheduler) Schedule(ues []*UE, totalRBs int) []Allocation {
	ranked := make([]rankedUE, len(ues))
	for i, ue := range ues {
		ranked[i] = rankedUE{index: i, score: PFScore(ue)}
	}
	sortByScore(ranked)
	return greedyAllocate(ues, ranked, totalRBs, p.Options)
}

// MaxCQIScheduler always serves the best channels first, ignoring fairness.
// Ties are broken by original index.
type MaxCQIScheduler struct {
	Options SchedulerOptions
}

func (m *MaxCQIScheduler) Schedule(ues []*UE, totalRBs int) []Allocation {
	ranked := make([]rankedUE, len(ues))
	for i, ue := range ues {
		ranked[i] = rankedUE{index: i, score: float64(ue.CQI())}
	}
	sortByScore(ranked)
	return greedyAllocate(ues, ranked, totalRBs, m.Options)
}

// RoundRobinScheduler serves UEs in cyclic order, resuming after the last UE
// it granted in the previous TTI. Each UE is visited at most once per TTI.
//
// Unlike the other policies it carries state across calls (the cursor), so one
// instance must not be shared between simulations.
type RoundRobinScheduler struct {
	Options SchedulerOptions
	next    int
}

func (r *RoundRobinScheduler) Schedule(ues []*UE, totalRBs int) []Allocation {
	n := len(ues)
	if n == 0 {
		return nil
	}
	start := r.next % n
	ranked := make([]rankedUE, n)
	for i := range ranked {
		ranked[i] = rankedUE{index: (start + i) % n}
	}
	allocs := greedyAllocate(ues, ranked, totalRBs, r.Options)
	if len(allocs) > 0 {
		r.next = (allocs[len(allocs)-1].Index + 1) % n
	}
	return allocs
}

// validSchedulers maps accepted scheduler names.
var validSchedulers = map[string]bool{
	"":        true, // empty defaults to pf
	"pf":      true,
	"rr":      true,
	"max-cqi": true,
}

// IsValidScheduler returns true if name is a recognized scheduler.
func IsValidScheduler(name string) bool {
	return validSchedulers[name]
}

// ValidSchedulerNames lists the selectable scheduler names for help text.
func ValidSchedulerNames() []string {
	return []string{"pf", "rr", "max-cqi"}
}

// NewScheduler creates a Scheduler by name.
// Valid names: "pf" (default), "rr", "max-cqi".
// Panics on unrecognized names; callers validate user input with IsValidScheduler.
func NewScheduler(name string, opts SchedulerOptions) Scheduler {
	if !IsValidScheduler(name) {
		panic(fmt.Sprintf("unknown scheduler %q", name))
	}
	switch name {
	case "", "pf":
		return &ProportionalFairScheduler{Options: opts}
	case "rr":
		return &RoundRobinScheduler{Options: opts}
	case "max-cqi":
		return &MaxCQIScheduler{Options: opts}
	default:
		panic(fmt.Sprintf("unhandled scheduler %q", name))
	}
}
