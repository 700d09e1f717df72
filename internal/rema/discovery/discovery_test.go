package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"madpriser_api/config"
	"madpriser_api/internal/rema/client"
	"madpriser_api/pkg/logger"
)

type fakeLister struct {
	pages map[int]map[int]*client.RawPage // departmentID -> page -> payload
	calls int
}

func (f *fakeLister) FetchPage(_ context.Context, departmentID, page, _ int) (*client.RawPage, error) {
	f.calls++
	if byPage, ok := f.pages[departmentID]; ok {
		if p, ok := byPage[page]; ok {
			return p, nil
		}
	}
	return &client.RawPage{}, nil
}

type fakeProductFetcher struct {
	known map[int]string
	calls []int
}

func (f *fakeProductFetcher) FetchProduct(_ context.Context, productID int) (*client.RawProduct, error) {
	f.calls = append(f.calls, productID)
	name, ok := f.known[productID]
	if !ok {
		return nil, client.ErrNotFound
	}
	return &client.RawProduct{ID: productID, Name: name}, nil
}

func page(lastPage int, ids ...int) *client.RawPage {
	p := &client.RawPage{}
	p.Meta.Pagination.LastPage = lastPage
	for _, id := range ids {
		p.Data = append(p.Data, client.RawProduct{ID: id, Name: "x"})
	}
	return p
}

func TestPagedDepartment_Discover(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{pages: map[int]map[int]*client.RawPage{
		20: {1: page(2, 1, 2), 2: page(2, 3)},
		70: {1: page(1, 4)},
	}}
	s := NewPagedDepartment(lister, []int{20, 70}, 100, logger.NewNopLogger())

	candidates, err := s.Discover(context.Background())
	require.NoError(t, err)
	assert.Len(t, candidates, 4)
	assert.Equal(t, 20, candidates[0].DepartmentID)
	assert.Equal(t, 70, candidates[3].DepartmentID)
}

func TestPagedDepartment_DiscoverStopsOnEmptyPage(t *testing.T) {
	t.Parallel()

	// last_page missing from the payload: termination falls back to the
	// first empty page.
	lister := &fakeLister{pages: map[int]map[int]*client.RawPage{
		20: {1: page(0, 1)},
	}}
	s := NewPagedDepartment(lister, []int{20}, 100, logger.NewNopLogger())

	candidates, err := s.Discover(context.Background())
	require.NoError(t, err)
	assert.Len(t, candidates, 1)
	assert.Equal(t, 2, lister.calls, "page 2 comes back empty and ends the walk")
}

func TestIDRangeScan_Discover(t *testing.T) {
	t.Parallel()

	fetcher := &fakeProductFetcher{known: map[int]string{100: "a", 110: "b"}}
	ranges := []config.ScanRange{{Start: 100, End: 120, Stride: 5}}
	s := NewIDRangeScan(fetcher, ranges, 0, logger.NewNopLogger())

	candidates, err := s.Discover(context.Background())
	require.NoError(t, err)
	assert.Len(t, candidates, 2, "404s are skipped, not treated as failures")
	assert.Equal(t, []int{100, 105, 110, 115, 120}, fetcher.calls)
}

func TestIDRangeScan_DiscoverHonorsCeiling(t *testing.T) {
	t.Parallel()

	known := map[int]string{}
	for id := 100; id <= 200; id++ {
		known[id] = "x"
	}
	fetcher := &fakeProductFetcher{known: known}
	s := NewIDRangeScan(fetcher, []config.ScanRange{{Start: 100, End: 200, Stride: 1}}, 10, logger.NewNopLogger())

	candidates, err := s.Discover(context.Background())
	require.NoError(t, err)
	assert.Len(t, candidates, 10)
	assert.Len(t, fetcher.calls, 10, "scanning stops once the ceiling is hit")
}

func TestKnownIDs_Discover(t *testing.T) {
	t.Parallel()

	fetcher := &fakeProductFetcher{known: map[int]string{304020: "Mælk", 440065: "Brød"}}
	s := NewKnownIDs(fetcher, []int{304020, 440065, 999999}, logger.NewNopLogger())

	candidates, err := s.Discover(context.Background())
	require.NoError(t, err)
	assert.Len(t, candidates, 2, "a missing seed id is skipped")
}

type stubStrategy struct {
	name       string
	candidates []Candidate
	err        error
	calls      int
}

func (s *stubStrategy) Name() string { return s.name }
func (s *stubStrategy) Discover(context.Context) ([]Candidate, error) {
	s.calls++
	return s.candidates, s.err
}

func TestChain_DiscoverFirstNonEmptyWins(t *testing.T) {
	t.Parallel()

	empty := &stubStrategy{name: "empty"}
	failing := &stubStrategy{name: "failing", err: errors.New("boom")}
	winning := &stubStrategy{name: "winning", candidates: []Candidate{{Raw: client.RawProduct{ID: 1}}}}
	unreached := &stubStrategy{name: "unreached", candidates: []Candidate{{Raw: client.RawProduct{ID: 2}}}}

	chain := NewChain(logger.NewNopLogger(), empty, failing, winning, unreached)
	candidates, err := chain.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, 1, winning.calls)
	assert.Equal(t, 0, unreached.calls, "the chain stops at the first strategy that yields products")
}

func TestDedupe(t *testing.T) {
	t.Parallel()

	candidates := []Candidate{
		{Raw: client.RawProduct{ID: 1}, DepartmentID: 20},
		{Raw: client.RawProduct{ID: "1"}, DepartmentID: 70},
		{Raw: client.RawProduct{ID: 2}},
	}
	out := dedupe(candidates)
	require.Len(t, out, 2)
	assert.Equal(t, 20, out[0].DepartmentID, "the first occurrence wins")
}
