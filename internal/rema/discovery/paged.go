package discovery

import (
	"context"
	"fmt"

	"madpriser_api/pkg/logger"
)

// PagedDepartment walks known department codes page by page. It is the
// primary tactic whenever the upstream's listing endpoint behaves.
type PagedDepartment struct {
	lister        PageLister
	departmentIDs []int
	limit         int
	log           logger.Logger
}

func NewPagedDepartment(lister PageLister, departmentIDs []int, limit int, log logger.Logger) *PagedDepartment {
	if limit <= 0 {
		limit = 100
	}
	return &PagedDepartment{
		lister:        lister,
		departmentIDs: departmentIDs,
		limit:         limit,
		log:           log.WithPrefix("[PagedDiscovery]"),
	}
}

func (s *PagedDepartment) Name() string { return "paged-department" }

func (s *PagedDepartment) Discover(ctx context.Context) ([]Candidate, error) {
	var candidates []Candidate
	for _, departmentID := range s.departmentIDs {
		found, err := s.discoverDepartment(ctx, departmentID)
		if err != nil {
			// One broken department should not abort the rest.
			s.log.Errorf("department %d: %v", departmentID, err)
			continue
		}
		candidates = append(candidates, found...)
	}
	return dedupe(candidates), nil
}

func (s *PagedDepartment) discoverDepartment(ctx context.Context, departmentID int) ([]Candidate, error) {
	var candidates []Candidate
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return candidates, err
		}

		rawPage, err := s.lister.FetchPage(ctx, departmentID, page, s.limit)
		if err != nil {
			return candidates, fmt.Errorf("page %d: %w", page, err)
		}
		if len(rawPage.Data) == 0 {
			break
		}
		for _, raw := range rawPage.Data {
			candidates = append(candidates, Candidate{Raw: raw, DepartmentID: departmentID})
		}

		lastPage := rawPage.Meta.Pagination.LastPage
		if lastPage > 0 && page >= lastPage {
			break
		}
	}
	return candidates, nil
}
