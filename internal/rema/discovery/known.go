package discovery

import (
	"context"

	"madpriser_api/pkg/logger"
)

// KnownIDs is the last-resort seed list. As long as the upstream answers at
// all, discovery never comes back completely empty.
type KnownIDs struct {
	fetcher ProductFetcher
	ids     []int
	log     logger.Logger
}

func NewKnownIDs(fetcher ProductFetcher, ids []int, log logger.Logger) *KnownIDs {
	return &KnownIDs{fetcher: fetcher, ids: ids, log: log.WithPrefix("[KnownIDs]")}
}

func (s *KnownIDs) Name() string { return "known-ids" }

func (s *KnownIDs) Discover(ctx context.Context) ([]Candidate, error) {
	var candidates []Candidate
	for _, id := range s.ids {
		if err := ctx.Err(); err != nil {
			return dedupe(candidates), err
		}
		raw, err := s.fetcher.FetchProduct(ctx, id)
		if err != nil {
			s.log.Errorf("seed id %d: %v", id, err)
			continue
		}
		candidates = append(candidates, Candidate{Raw: *raw, DepartmentID: departmentOf(raw)})
	}
	return dedupe(candidates), nil
}
