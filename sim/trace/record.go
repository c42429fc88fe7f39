// Package trace provides per-TTI allocation decision recording.
// This package has no dependencies on sim/ — it stores pure data types.
package trace

// AllocationRecord captures a single RB grant made by a scheduler.
type AllocationRecord struct {
	TTI   int
	UEID  int
	Rank  int     // 0-based position in the policy's ordering
	RBs   int
	Score float64 // policy score at decision time
}
