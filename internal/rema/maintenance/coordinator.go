package maintenance

import (
	"context"

	"madpriser_api/pkg/logger"
)

// Summary reports what a piggybacked maintenance pass did, if anything.
type Summary struct {
	Ran                bool  `json:"ran"`
	DiscontinuedMarked int64 `json:"discontinuedMarked,omitempty"`
	RepairedAnomalies  int   `json:"repairedAnomalies,omitempty"`
	PurgedHistoryRows  int64 `json:"purgedHistoryRows,omitempty"`
}

// Coordinator piggybacks the maintenance passes on productive batches. The
// discontinued sweep and the repair pass roll the sampling gate
// independently, so either can run without the other. The retention sweep
// rides with the repair pass.
type Coordinator struct {
	gate         *Gate
	discontinued *DiscontinuedSweep
	repair       *SaleRepair
	retention    *RetentionSweep
	log          logger.Logger
}

func NewCoordinator(gate *Gate, discontinued *DiscontinuedSweep, repair *SaleRepair, retention *RetentionSweep, log logger.Logger) *Coordinator {
	return &Coordinator{
		gate:         gate,
		discontinued: discontinued,
		repair:       repair,
		retention:    retention,
		log:          log.WithPrefix("[Maintenance]"),
	}
}

// MaybeRun executes the sampled passes. Failures are logged and swallowed;
// maintenance must never fail the batch it rides on.
func (c *Coordinator) MaybeRun(ctx context.Context) Summary {
	var summary Summary

	if c.gate.Allow() {
		summary.Ran = true
		marked, err := c.discontinued.Run(ctx)
		if err != nil {
			c.log.Errorf("discontinued sweep: %v", err)
		}
		summary.DiscontinuedMarked = marked
	}

	if c.gate.Allow() {
		summary.Ran = true
		repaired, err := c.repair.Run(ctx)
		if err != nil {
			c.log.Errorf("sale repair: %v", err)
		}
		summary.RepairedAnomalies = repaired

		purged, err := c.retention.Run(ctx)
		if err != nil {
			c.log.Errorf("retention sweep: %v", err)
		}
		summary.PurgedHistoryRows = purged
	}

	return summary
}
