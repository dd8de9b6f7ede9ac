package scheduler

import (
	"math/rand"
	"sync"
)

// Region policies
const (
	RegionPolicyFixed  = "fixed"
	RegionPolicyRandom = "random"
)

// DefaultRegions are the charts the original scripts rotated through.
var DefaultRegions = []string{"US", "IN", "GB", "CA", "FR", "DE", "AU", "JP", "KR"}

// RegionPicker chooses the trending chart region for a cycle.
type RegionPicker interface {
	Pick() string
}

// FixedRegion always returns the same region.
type FixedRegion string

// Pick returns the region.
func (r FixedRegion) Pick() string { return string(r) }

// RandomRegion picks uniformly from a list each cycle.
type RandomRegion struct {
	mu      sync.Mutex
	regions []string
	rng     *rand.Rand
}

// NewRandomRegion creates a picker. Tests pass a fixed seed.
func NewRandomRegion(regions []string, seed int64) *RandomRegion {
	if len(regions) == 0 {
		regions = DefaultRegions
	}
	return &RandomRegion{
		regions: append([]string(nil), regions...),
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Pick returns a random region.
func (r *RandomRegion) Pick() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.regions[r.rng.Intn(len(r.regions))]
}
