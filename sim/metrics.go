// Tracks per-UE throughput history and run-wide fairness statistics.

package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Metrics aggregates per-TTI observations for final reporting.
// Every slice is indexed by the UE's position in the driver's list, so UEs
// that share an ID are still tracked separately.
type Metrics struct {
	RunID         string
	TTIs          int         // TTIs recorded so far
	IDs           []int       // UE IDs in driver order
	CQIs          []int       // CQI per UE
	History       [][]float64 // avg throughput per UE; index 0 is the initial value
	CumulativeRBs []int       // RBs granted to each UE across the run
	RBsPerTTI     []int       // RBs granted in each TTI
}

// NewMetrics snapshots the initial UE state.
func NewMetrics(runID string, ues []*UE) *Metrics {
	m := &Metrics{
		RunID:         runID,
		IDs:           make([]int, len(ues)),
		CQIs:          make([]int, len(ues)),
		History:       make([][]float64, len(ues)),
		CumulativeRBs: make([]int, len(ues)),
	}
	for i, ue := range ues {
		m.IDs[i] = ue.ID()
		m.CQIs[i] = ue.CQI()
		m.History[i] = []float64{ue.AvgThroughput()}
	}
	return m
}

// RecordTTI appends post-update throughputs and the TTI's grants.
// Must be called after every UE's UpdateAverageThroughput, with the same
// slice the Metrics was created from.
func (m *Metrics) RecordTTI(ues []*UE, allocs []Allocation) {
	m.TTIs++
	for i, ue := range ues {
		m.History[i] = append(m.History[i], ue.AvgThroughput())
	}
	granted := 0
	for _, a := range allocs {
		m.CumulativeRBs[a.Index] += a.RBs
		granted += a.RBs
	}
	m.RBsPerTTI = append(m.RBsPerTTI, granted)
}

// UEResult is the per-UE section of a Summary.
type UEResult struct {
	ID            int       `json:"id"`
	CQI           int       `json:"cqi"`
	AvgThroughput float64   `json:"avg_throughput"`
	TotalRBs      int       `json:"total_rbs"`
	History       []float64 `json:"history"`
}

// Summary is the end-of-run report.
type Summary struct {
	RunID               string     `json:"run_id"`
	TTIs                int        `json:"ttis"`
	TotalRBsGranted     int        `json:"total_rbs_granted"`
	MeanRBsPerTTI       float64    `json:"mean_rbs_per_tti"`
	RBsPerTTI           []int      `json:"rbs_per_tti"`
	MeanAvgThroughput   float64    `json:"mean_avg_throughput"`
	StdDevAvgThroughput float64    `json:"stddev_avg_throughput"`
	JainFairnessIndex   float64    `json:"jain_fairness_index"`
	StarvedUEs          int        `json:"starved_ues"`
	UEs                 []UEResult `json:"ues"`
}

// Summarize computes the end-of-run statistics.
func (m *Metrics) Summarize() Summary {
	s := Summary{
		RunID:     m.RunID,
		TTIs:      m.TTIs,
		RBsPerTTI: append([]int{}, m.RBsPerTTI...),
		UEs:       make([]UEResult, 0, len(m.IDs)),
	}

	finalAvg := make([]float64, 0, len(m.IDs))
	totals := make([]float64, 0, len(m.IDs))
	for i, id := range m.IDs {
		hist := m.History[i]
		avg := hist[len(hist)-1]
		rbs := m.CumulativeRBs[i]
		finalAvg = append(finalAvg, avg)
		totals = append(totals, float64(rbs))
		if rbs == 0 {
			s.StarvedUEs++
		}
		s.UEs = append(s.UEs, UEResult{
			ID:            id,
			CQI:           m.CQIs[i],
			AvgThroughput: avg,
			TotalRBs:      rbs,
			History:       append([]float64{}, hist...),
		})
	}

	for _, g := range m.RBsPerTTI {
		s.TotalRBsGranted += g
	}
	if m.TTIs > 0 {
		s.MeanRBsPerTTI = float64(s.TotalRBsGranted) / float64(m.TTIs)
	}
	if len(finalAvg) > 0 {
		s.MeanAvgThroughput = stat.Mean(finalAvg, nil)
	}
	if len(finalAvg) > 1 {
		s.StdDevAvgThroughput = stat.StdDev(finalAvg, nil)
	}
	s.JainFairnessIndex = JainFairnessIndex(totals)
	return s
}

// JainFairnessIndex returns (Σx)² / (n·Σx²), which is 1 when every share is
// equal and 1/n when one UE takes everything. All-zero input counts as equal.
// Empty input returns 0.
func JainFairnessIndex(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	sumSq := floats.Dot(x, x)
	if sumSq == 0 {
		return 1
	}
	sum := floats.Sum(x)
	return sum * sum / (float64(len(x)) * sumSq)
}

// PrintUETable renders the current state of every UE.
func PrintUETable(w io.Writer, ues []*UE) {
	fmt.Fprintln(w, "\nUE Metrics:")
	fmt.Fprintf(w, "%5s%8s%15s%10s\n", "UE ID", "CQI", "Avg Throughput", "Last RBs")
	fmt.Fprintln(w, strings.Repeat("-", 38))
	for _, ue := range ues {
		fmt.Fprintf(w, "%5d%8d%15.2f%10d\n", ue.ID(), ue.CQI(), ue.AvgThroughput(), ue.LastAssignedRBs())
	}
}

// Print displays the aggregated run statistics.
func (m *Metrics) Print(w io.Writer) {
	s := m.Summarize()
	fmt.Fprintln(w, "=== Simulation Metrics ===")
	fmt.Fprintf(w, "Run ID               : %s\n", s.RunID)
	fmt.Fprintf(w, "TTIs                 : %d\n", s.TTIs)
	fmt.Fprintf(w, "RBs Granted          : %d\n", s.TotalRBsGranted)
	if s.TTIs > 0 {
		fmt.Fprintf(w, "Mean RBs per TTI     : %.2f\n", s.MeanRBsPerTTI)
		fmt.Fprintf(w, "Mean Avg Throughput  : %.2f\n", s.MeanAvgThroughput)
		fmt.Fprintf(w, "StdDev Avg Throughput: %.2f\n", s.StdDevAvgThroughput)
		fmt.Fprintf(w, "Jain Fairness Index  : %.3f\n", s.JainFairnessIndex)
		fmt.Fprintf(w, "Starved UEs          : %d\n", s.StarvedUEs)
		fmt.Fprintf(w, "RBs per TTI          : %s\n", joinInts(s.RBsPerTTI))
		fmt.Fprintln(w, "Avg Throughput History:")
		for _, u := range s.UEs {
			fmt.Fprintf(w, "  UE %-4d: %s\n", u.ID, joinFloats(u.History))
		}
	}
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, " ")
}

func joinFloats(xs []float64) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.FormatFloat(x, 'f', 2, 64)
	}
	return strings.Join(parts, " ")
}

// SaveResults writes the summary as indented JSON.
func (m *Metrics) SaveResults(w io.Writer) error {
	data, err := json.MarshalIndent(m.Summarize(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling metrics: %w", err)
	}
	if _, err := fmt.Fprintln(w, string(data)); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}
