package maintenance

import (
	"context"
	"time"

	"madpriser_api/pkg/logger"
)

// HistoryPurger is the repository slice the retention sweep needs.
type HistoryPurger interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionSweep trims the price history ledger to its retention window.
type RetentionSweep struct {
	history   HistoryPurger
	retention time.Duration
	log       logger.Logger
	now       func() time.Time
}

func NewRetentionSweep(history HistoryPurger, retention time.Duration, log logger.Logger) *RetentionSweep {
	return &RetentionSweep{
		history:   history,
		retention: retention,
		log:       log.WithPrefix("[RetentionSweep]"),
		now:       time.Now,
	}
}

func (s *RetentionSweep) Run(ctx context.Context) (int64, error) {
	if s.retention <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.retention)
	purged, err := s.history.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if purged > 0 {
		s.log.Log("purged %d history rows older than %s", purged, cutoff.Format(time.RFC3339))
	}
	return purged, nil
}
