package sim

import (
	"io"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quietOptions returns SchedulerOptions with a discarding logger.
func quietOptions() SchedulerOptions {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return SchedulerOptions{Logger: l}
}

func makeUEs(specs ...[2]int) []*UE {
	ues := make([]*UE, len(specs))
	for i, s := range specs {
		ues[i] = NewUE(s[0], s[1], 0)
	}
	return ues
}

func grants(ues []*UE) map[int]int {
	out := make(map[int]int, len(ues))
	for _, ue := range ues {
		out[ue.ID()] = ue.LastAssignedRBs()
	}
	return out
}

func allocatedIDs(allocs []Allocation) []int {
	ids := make([]int, len(allocs))
	for i, a := range allocs {
		ids[i] = a.UEID
	}
	return ids
}

func sumRBs(allocs []Allocation) int {
	total := 0
	for _, a := range allocs {
		total += a.RBs
	}
	return total
}

func TestPFScore_EpsilonAvoidsDivisionByZero(t *testing.T) {
	ue := NewUE(1, 12, 0)
	assert.InDelta(t, 1_200_000.0, PFScore(ue), 1e-3)
}

func TestPFScore_MonotonicInCQI(t *testing.T) {
	// GIVEN a fixed average throughput
	for _, avg := range []float64{0, 0.5, 3.0} {
		prev := PFScore(NewUE(1, 0, avg))
		for cqi := 1; cqi <= MaxCQI; cqi++ {
			// THEN raising CQI strictly raises the score
			score := PFScore(NewUE(1, cqi, avg))
			assert.Greater(t, score, prev, "avg=%v cqi=%d", avg, cqi)
			prev = score
		}
	}
}

func TestProportionalFair_ConcreteScenario(t *testing.T) {
	// GIVEN three UEs with zero history and 10 RBs
	ues := makeUEs([2]int{1, 12}, [2]int{2, 8}, [2]int{3, 5})
	sched := &ProportionalFairScheduler{Options: quietOptions()}

	// WHEN one TTI is scheduled and smoothed
	allocs := sched.Schedule(ues, 10)
	for _, ue := range ues {
		ue.UpdateAverageThroughput()
	}

	// THEN the two best channels take 5 RBs each and the third gets nothing
	assert.Equal(t, []int{1, 2}, allocatedIDs(allocs))
	if diff := cmp.Diff(map[int]int{1: 5, 2: 5, 3: 0}, grants(ues)); diff != "" {
		t.Errorf("grants mismatch (-want +got):\n%s", diff)
	}
	assert.InDelta(t, 1_200_000.0, allocs[0].Score, 1e-3)
	assert.InDelta(t, 800_000.0, allocs[1].Score, 1e-3)

	assert.InDelta(t, 1.0, ues[0].AvgThroughput(), 1e-12)
	assert.InDelta(t, 1.0, ues[1].AvgThroughput(), 1e-12)
	assert.Equal(t, 0.0, ues[2].AvgThroughput())
}

func TestProportionalFair_StarvedUEClimbsRanking(t *testing.T) {
	// GIVEN a UE that was skipped last TTI (zero average) and served UEs with history
	ues := []*UE{NewUE(1, 12, 1.0), NewUE(2, 5, 0), NewUE(3, 8, 1.0)}
	sched := &ProportionalFairScheduler{Options: quietOptions()}

	// WHEN scheduled with room for one UE
	allocs := sched.Schedule(ues, 5)

	// THEN the starved UE wins despite the worst CQI
	require.Len(t, allocs, 1)
	assert.Equal(t, 2, allocs[0].UEID)
}

func TestProportionalFair_TieBreakByOriginalIndex(t *testing.T) {
	// GIVEN identical scores; ids deliberately not in index order
	ues := makeUEs([2]int{9, 10}, [2]int{2, 10}, [2]int{5, 10})
	sched := &ProportionalFairScheduler{Options: quietOptions()}

	allocs := sched.Schedule(ues, 10)

	// THEN ties resolve by position in the slice, not by id
	assert.Equal(t, []int{9, 2}, allocatedIDs(allocs))
	assert.Equal(t, []int{0, 1}, []int{allocs[0].Rank, allocs[1].Rank})
}

func TestProportionalFair_BudgetConservationAndCap(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	sched := &ProportionalFairScheduler{Options: quietOptions()}

	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.Intn(10)
		ues := make([]*UE, n)
		for i := range ues {
			ues[i] = NewUE(i+1, rng.Intn(MaxCQI+1), rng.Float64()*5)
		}
		total := rng.Intn(80)

		allocs := sched.Schedule(ues, total)

		// THEN the budget is consumed up to the per-UE capacity and never exceeded
		assert.Equal(t, min(total, DefaultMaxRBsPerUE*n), sumRBs(allocs), "trial %d", trial)
		seen := make(map[int]bool)
		for _, a := range allocs {
			assert.LessOrEqual(t, a.RBs, DefaultMaxRBsPerUE)
			assert.Greater(t, a.RBs, 0)
			assert.False(t, seen[a.UEID], "UE %d granted twice", a.UEID)
			seen[a.UEID] = true
		}
	}
}

func TestProportionalFair_Deterministic(t *testing.T) {
	build := func() []*UE {
		return []*UE{NewUE(1, 12, 2.2), NewUE(2, 8, 0.4), NewUE(3, 5, 0), NewUE(4, 10, 2.2), NewUE(5, 6, 1.1)}
	}
	sched := &ProportionalFairScheduler{Options: quietOptions()}

	a1 := sched.Schedule(build(), 17)
	a2 := sched.Schedule(build(), 17)

	if diff := cmp.Diff(a1, a2); diff != "" {
		t.Errorf("repeated schedule differs (-first +second):\n%s", diff)
	}
}

func TestProportionalFair_ZeroBudget_NoAssignment(t *testing.T) {
	ues := makeUEs([2]int{1, 12}, [2]int{2, 8})
	sched := &ProportionalFairScheduler{Options: quietOptions()}

	allocs := sched.Schedule(ues, 0)

	assert.Empty(t, allocs)
	assert.Equal(t, map[int]int{1: 0, 2: 0}, grants(ues))
}

func TestProportionalFair_EmptyList(t *testing.T) {
	sched := &ProportionalFairScheduler{Options: quietOptions()}
	assert.Empty(t, sched.Schedule(nil, 20))
}

func TestProportionalFair_CarryOverLeavesSkippedUEUntouched(t *testing.T) {
	// GIVEN a UE holding a stale grant from a previous TTI
	ues := makeUEs([2]int{1, 12}, [2]int{2, 3})
	ues[1].AssignRBs(4)
	sched := &ProportionalFairScheduler{Options: quietOptions()}

	// WHEN it is not reached this TTI
	sched.Schedule(ues, 5)

	// THEN its stale grant is kept
	assert.Equal(t, 4, ues[1].LastAssignedRBs())
}

func TestProportionalFair_ResetUnassignedZeroesSkippedUE(t *testing.T) {
	ues := makeUEs([2]int{1, 12}, [2]int{2, 3})
	ues[1].AssignRBs(4)
	opts := quietOptions()
	opts.ResetUnassigned = true
	sched := &ProportionalFairScheduler{Options: opts}

	sched.Schedule(ues, 5)

	assert.Equal(t, map[int]int{1: 5, 2: 0}, grants(ues))
}

func TestProportionalFair_CustomCap(t *testing.T) {
	ues := makeUEs([2]int{1, 12}, [2]int{2, 8}, [2]int{3, 5})
	opts := quietOptions()
	opts.MaxRBsPerUE = 3
	sched := &ProportionalFairScheduler{Options: opts}

	allocs := sched.Schedule(ues, 7)

	assert.Equal(t, map[int]int{1: 3, 2: 3, 3: 1}, grants(ues))
	assert.Equal(t, 7, sumRBs(allocs))
}

func TestProportionalFair_LogsEachGrant(t *testing.T) {
	// GIVEN a scheduler wired to a capturing logger
	logger, hook := logtest.NewNullLogger()
	sched := &ProportionalFairScheduler{Options: SchedulerOptions{Logger: logger}}
	ues := makeUEs([2]int{1, 12}, [2]int{2, 8}, [2]int{3, 5})

	sched.Schedule(ues, 10)

	// THEN one entry per grant carries the UE id, RB count and score
	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Data["ue"])
	assert.Equal(t, 5, entries[0].Data["rbs"])
	assert.InDelta(t, 1_200_000.0, entries[0].Data["score"].(float64), 1e-3)
	assert.Equal(t, 2, entries[1].Data["ue"])
}

func TestMaxCQIScheduler_IgnoresHistory(t *testing.T) {
	// GIVEN the best channel already has a high average
	ues := []*UE{NewUE(1, 5, 0), NewUE(2, 12, 10.0), NewUE(3, 8, 0)}
	sched := &MaxCQIScheduler{Options: quietOptions()}

	allocs := sched.Schedule(ues, 10)

	// THEN CQI alone decides
	assert.Equal(t, []int{2, 3}, allocatedIDs(allocs))
	assert.Equal(t, 12.0, allocs[0].Score)
}

func TestRoundRobinScheduler_RotatesAcrossTTIs(t *testing.T) {
	ues := makeUEs([2]int{1, 12}, [2]int{2, 8}, [2]int{3, 5})
	sched := &RoundRobinScheduler{Options: quietOptions()}

	first := sched.Schedule(ues, 10)
	second := sched.Schedule(ues, 10)
	third := sched.Schedule(ues, 10)

	assert.Equal(t, []int{1, 2}, allocatedIDs(first))
	assert.Equal(t, []int{3, 1}, allocatedIDs(second))
	assert.Equal(t, []int{2, 3}, allocatedIDs(third))
}

func TestRoundRobinScheduler_VisitsEachUEOncePerTTI(t *testing.T) {
	ues := makeUEs([2]int{1, 12}, [2]int{2, 8})
	sched := &RoundRobinScheduler{Options: quietOptions()}

	allocs := sched.Schedule(ues, 100)

	assert.Equal(t, 10, sumRBs(allocs))
	assert.Equal(t, map[int]int{1: 5, 2: 5}, grants(ues))
}

func TestRoundRobinScheduler_EmptyList(t *testing.T) {
	sched := &RoundRobinScheduler{Options: quietOptions()}
	assert.Nil(t, sched.Schedule(nil, 10))
}

func TestScheduler_AnyPolicy_RespectsBudgetAndCap(t *testing.T) {
	for _, name := range ValidSchedulerNames() {
		t.Run(name, func(t *testing.T) {
			sched := NewScheduler(name, quietOptions())
			ues := makeUEs([2]int{1, 12}, [2]int{2, 8}, [2]int{3, 5}, [2]int{4, 10}, [2]int{5, 6})
			for _, total := range []int{0, 3, 10, 20, 25, 40} {
				allocs := sched.Schedule(ues, total)
				assert.Equal(t, min(total, DefaultMaxRBsPerUE*len(ues)), sumRBs(allocs), "total=%d", total)
				for _, a := range allocs {
					assert.LessOrEqual(t, a.RBs, DefaultMaxRBsPerUE)
				}
			}
		})
	}
}

func TestNewScheduler_ValidNames(t *testing.T) {
	tests := []struct {
		name string
		want Scheduler
	}{
		{"", &ProportionalFairScheduler{}},
		{"pf", &ProportionalFairScheduler{}},
		{"rr", &RoundRobinScheduler{}},
		{"max-cqi", &MaxCQIScheduler{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.IsType(t, tt.want, NewScheduler(tt.name, SchedulerOptions{}))
		})
	}
}

func TestNewScheduler_UnknownName_Panics(t *testing.T) {
	assert.False(t, IsValidScheduler("fifo"))
	assert.Panics(t, func() { NewScheduler("fifo", SchedulerOptions{}) })
}
