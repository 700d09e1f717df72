package delta

import (
	"context"
	"errors"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"madpriser_api/internal/rema/client"
	"madpriser_api/pkg/logger"
)

const probeWindow = time.Hour

// Prober is the client slice capability detection needs.
type Prober interface {
	FetchChanges(ctx context.Context, since time.Time) ([]client.RawProduct, error)
	FetchProductIfModified(ctx context.Context, productID int, since time.Time) (*client.RawProduct, bool, error)
}

// Selector picks the cheapest delta strategy the upstream actually supports
// and delegates to it. The capability probe runs once per process; the
// upstream does not grow endpoints mid-flight, and probing is not free.
type Selector struct {
	prober     Prober
	strategies map[string]Strategy
	override   string
	knownIDs   []int
	log        logger.Logger
	now        func() time.Time

	mu     stdsync.Mutex
	chosen Strategy
}

func NewSelector(prober Prober, override string, knownIDs []int, log logger.Logger, strategies ...Strategy) *Selector {
	byName := make(map[string]Strategy, len(strategies))
	for _, s := range strategies {
		byName[s.Name()] = s
	}
	return &Selector{
		prober:     prober,
		strategies: byName,
		override:   override,
		knownIDs:   knownIDs,
		log:        log.WithPrefix("[DeltaSelector]"),
		now:        time.Now,
	}
}

func (s *Selector) Name() string { return "selector" }

func (s *Selector) Sync(ctx context.Context) (Result, error) {
	strategy, err := s.pick(ctx)
	if err != nil {
		return Result{}, err
	}
	return strategy.Sync(ctx)
}

func (s *Selector) pick(ctx context.Context) (Strategy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chosen != nil {
		return s.chosen, nil
	}

	name, err := s.detect(ctx)
	if err != nil {
		return nil, fmt.Errorf("probing delta capabilities: %w", err)
	}
	strategy, ok := s.strategies[name]
	if !ok {
		return nil, fmt.Errorf("no strategy registered under %q", name)
	}
	s.log.Log("selected delta strategy: %s", name)
	s.chosen = strategy
	return strategy, nil
}

func (s *Selector) detect(ctx context.Context) (string, error) {
	if s.override != "" {
		return s.override, nil
	}

	// Transient upstream failures must not lock in the wrong strategy for
	// the life of the process, so the probe itself is retried.
	operation := func() (string, error) {
		_, err := s.prober.FetchChanges(ctx, s.now().Add(-probeWindow))
		if err == nil {
			return "change-feed", nil
		}
		if !errors.Is(err, client.ErrUnsupported) {
			return "", err
		}

		for _, id := range s.knownIDs {
			_, notModified, err := s.prober.FetchProductIfModified(ctx, id, s.now())
			if errors.Is(err, client.ErrNotFound) {
				continue
			}
			if err != nil {
				return "", err
			}
			if notModified {
				return "conditional-refresh", nil
			}
			// A full body despite the header means the upstream ignores
			// conditional requests entirely.
			return "tiered-refresh", nil
		}
		return "tiered-refresh", nil
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(3))
}
