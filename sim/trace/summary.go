package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalDecisions int
	TotalRBs       int
	MeanScore      float64
	RBsPerUE       map[int]int // UE ID → RBs granted across the run
	GrantsPerUE    map[int]int // UE ID → number of TTIs with a grant
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		RBsPerUE:    make(map[int]int),
		GrantsPerUE: make(map[int]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalDecisions = len(st.Allocations)
	totalScore := 0.0
	for _, a := range st.Allocations {
		summary.TotalRBs += a.RBs
		summary.RBsPerUE[a.UEID] += a.RBs
		summary.GrantsPerUE[a.UEID]++
		totalScore += a.Score
	}
	if summary.TotalDecisions > 0 {
		summary.MeanScore = totalScore / float64(summary.TotalDecisions)
	}
	return summary
}
