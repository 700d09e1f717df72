package maintenance

import (
	"math/rand"
	"sync"
	"time"
)

// Gate decides probabilistically whether maintenance piggybacks on a batch
// run. Maintenance passes are too expensive to run on every batch and there
// is no scheduler in front of the service, so a sampling rate amortises them
// across ordinary traffic.
type Gate struct {
	rate float64

	mu  sync.Mutex
	rng *rand.Rand
}

func NewGate(rate float64) *Gate {
	return &Gate{
		rate: rate,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewGateWithSeed pins the random source, for deterministic tests.
func NewGateWithSeed(rate float64, seed int64) *Gate {
	return &Gate{
		rate: rate,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

func (g *Gate) Allow() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64() < g.rate
}
