package sim

// ThroughputSmoothingFactor is the weight given to the latest TTI's grant when
// updating a UE's average throughput.
const ThroughputSmoothingFactor = 0.2

// UE is one active downlink connection competing for resource blocks.
//
// Lifecycle: created once, then mutated every TTI by exactly two calls in order:
// AssignRBs (by a Scheduler) and UpdateAverageThroughput (by the driver loop).
// lastAssignedRBs is scratch state between those two calls.
type UE struct {
	id              int
	cqi             int
	avgThroughput   float64
	lastAssignedRBs int
}

// NewUE creates a UE with no RBs assigned yet. Values are accepted as-is.
func NewUE(id, cqi int, avgThroughput float64) *UE {
	return &UE{
		id:            id,
		cqi:           cqi,
		avgThroughput: avgThroughput,
	}
}

func (u *UE) ID() int { return u.id }

func (u *UE) CQI() int { return u.cqi }

// AvgThroughput returns the smoothed RBs-per-TTI estimate.
func (u *UE) AvgThroughput() float64 { return u.avgThroughput }

// LastAssignedRBs returns the grant from the most recent allocation that reached this UE.
func (u *UE) LastAssignedRBs() int { return u.lastAssignedRBs }

// AssignRBs overwrites the pending grant. Budget checks are the scheduler's job.
func (u *UE) AssignRBs(n int) {
	u.lastAssignedRBs = n
}

// UpdateAverageThroughput folds the pending grant into the running average:
// avg = 0.8*avg + 0.2*lastAssignedRBs.
func (u *UE) UpdateAverageThroughput() {
	u.avgThroughput = (1-ThroughputSmoothingFactor)*u.avgThroughput +
		ThroughputSmoothingFactor*float64(u.lastAssignedRBs)
}
