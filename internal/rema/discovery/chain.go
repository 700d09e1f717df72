package discovery

import (
	"context"

	"madpriser_api/pkg/logger"
)

// Chain tries strategies in order and returns the first non-empty result.
type Chain struct {
	strategies []Strategy
	log        logger.Logger
}

func NewChain(log logger.Logger, strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies, log: log.WithPrefix("[DiscoveryChain]")}
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) Discover(ctx context.Context) ([]Candidate, error) {
	for _, strategy := range c.strategies {
		candidates, err := strategy.Discover(ctx)
		if err != nil {
			c.log.Errorf("strategy %s: %v", strategy.Name(), err)
			continue
		}
		if len(candidates) > 0 {
			c.log.Log("strategy %s discovered %d products", strategy.Name(), len(candidates))
			return candidates, nil
		}
	}
	return nil, nil
}
