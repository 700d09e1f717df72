package maintenance

import (
	"context"
	"time"

	"github.com/spf13/cast"

	"madpriser_api/internal/rema/client"
	"madpriser_api/internal/rema/models"
	"madpriser_api/pkg/logger"
)

// PageLister is the client slice the discontinued sweep walks pages with.
type PageLister interface {
	FetchPage(ctx context.Context, departmentID, page, limit int) (*client.RawPage, error)
}

// DiscontinuedStore is the repository slice the sweep needs.
type DiscontinuedStore interface {
	ListExternalIDs(ctx context.Context, source string) ([]string, error)
	MarkUnavailable(ctx context.Context, externalIDs []string) (int64, error)
}

// DiscontinuedSweep flags stored products the upstream no longer lists.
// Rows are only ever marked unavailable, never deleted, so price history
// stays intact for products that come back.
type DiscontinuedSweep struct {
	lister        PageLister
	store         DiscontinuedStore
	departmentIDs []int
	source        string
	limit         int
	budget        time.Duration
	log           logger.Logger
	now           func() time.Time
}

func NewDiscontinuedSweep(lister PageLister, store DiscontinuedStore, departmentIDs []int, source string, limit int, budget time.Duration, log logger.Logger) *DiscontinuedSweep {
	if limit <= 0 {
		limit = 100
	}
	return &DiscontinuedSweep{
		lister:        lister,
		store:         store,
		departmentIDs: departmentIDs,
		source:        source,
		limit:         limit,
		budget:        budget,
		log:           log.WithPrefix("[DiscontinuedSweep]"),
		now:           time.Now,
	}
}

// Run returns how many products were newly marked unavailable.
func (s *DiscontinuedSweep) Run(ctx context.Context) (int64, error) {
	deadline := s.now().Add(s.budget)

	live, complete, err := s.collectLiveIDs(ctx, deadline)
	if err != nil {
		return 0, err
	}
	// An incomplete walk cannot distinguish "discontinued" from "not seen
	// yet", so bail rather than mark half the catalog unavailable.
	if !complete {
		s.log.Log("budget exceeded before the full catalog was walked, skipping sweep")
		return 0, nil
	}

	stored, err := s.store.ListExternalIDs(ctx, s.source)
	if err != nil {
		return 0, err
	}

	var missing []string
	for _, id := range stored {
		if !live[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return 0, nil
	}

	marked, err := s.store.MarkUnavailable(ctx, missing)
	if err != nil {
		return 0, err
	}
	s.log.Log("marked %d products unavailable", marked)
	return marked, nil
}

func (s *DiscontinuedSweep) collectLiveIDs(ctx context.Context, deadline time.Time) (map[string]bool, bool, error) {
	live := make(map[string]bool)
	for _, departmentID := range s.departmentIDs {
		for page := 1; ; page++ {
			if err := ctx.Err(); err != nil {
				return live, false, err
			}
			if s.now().After(deadline) {
				return live, false, nil
			}

			rawPage, err := s.lister.FetchPage(ctx, departmentID, page, s.limit)
			if err != nil {
				return live, false, err
			}
			if len(rawPage.Data) == 0 {
				break
			}
			for _, raw := range rawPage.Data {
				if id := cast.ToInt(raw.ID); id > 0 {
					live[models.ExternalID(id)] = true
				}
			}
			lastPage := rawPage.Meta.Pagination.LastPage
			if lastPage > 0 && page >= lastPage {
				break
			}
		}
	}
	return live, true, nil
}
