package sim

import (
	"hash/fnv"
	"math/rand"
)

// SimulationKey is the master seed of a reproducible run. Two runs with the
// same key and configuration MUST generate identical UE populations.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

const (
	// SubsystemCQI draws the CQI of generated UEs.
	// Uses the master seed directly so --seed maps 1:1 onto the CQI sequence.
	SubsystemCQI = "cqi"

	// SubsystemThroughput draws the starting avg_throughput of generated UEs.
	SubsystemThroughput = "throughput"
)

// PartitionedRNG hands out one independent stream per population attribute,
// so enabling one attribute's randomness never shifts another's draws.
//
// Derivation formula:
//   - SubsystemCQI: masterSeed
//   - any other subsystem: masterSeed XOR fnv1a64(name)
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type PartitionedRNG struct {
	key     SimulationKey
	streams map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:     key,
		streams: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns the cached stream for name, creating it on first use.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.streams[name]; ok {
		return rng
	}
	seed := int64(p.key)
	if name != SubsystemCQI {
		seed ^= fnv1a64(name)
	}
	rng := rand.New(rand.NewSource(seed))
	p.streams[name] = rng
	return rng
}

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
