package delta

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"madpriser_api/internal/rema/client"
	"madpriser_api/internal/rema/models"
	"madpriser_api/internal/rema/sync"
	"madpriser_api/pkg/logger"
)

type stubTransformer struct{}

func (stubTransformer) Transform(raw *client.RawProduct, _ int) (*models.Product, bool) {
	id, ok := raw.ID.(int)
	if !ok || id <= 0 {
		return nil, false
	}
	return &models.Product{ExternalID: models.ExternalID(id), Name: raw.Name}, true
}

type stubApplier struct {
	outcomes map[string]sync.Outcome
	applied  []string
}

func (s *stubApplier) Apply(_ context.Context, p *models.Product) (sync.Outcome, error) {
	s.applied = append(s.applied, p.ExternalID)
	return s.outcomes[p.ExternalID], nil
}

type stubLister struct {
	products []models.Product
}

func (s *stubLister) ListForRefresh(context.Context, string, int) ([]models.Product, error) {
	return s.products, nil
}

func storedProduct(id int, category string) models.Product {
	return models.Product{
		ExternalID:  models.ExternalID(id),
		Category:    category,
		LastUpdated: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestChangeFeed_Sync(t *testing.T) {
	t.Parallel()

	fetcher := &stubChangesFetcher{changes: []client.RawProduct{
		{ID: 1, Name: "a"},
		{ID: 2, Name: "b"},
		{ID: 0}, // malformed, dropped by the transformer
	}}
	applier := &stubApplier{outcomes: map[string]sync.Outcome{
		"rema-1": {Added: true},
		"rema-2": {Updated: true},
	}}
	s := NewChangeFeed(fetcher, stubTransformer{}, applier, time.Now().Add(-time.Hour), logger.NewNopLogger())

	result, err := s.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "change-feed", result.Strategy)
	assert.Equal(t, 1, result.New)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 2, result.TotalChanges, "totalChanges counts changed rows only")
}

type stubChangesFetcher struct {
	changes []client.RawProduct
	err     error
	since   []time.Time
}

func (s *stubChangesFetcher) FetchChanges(_ context.Context, since time.Time) ([]client.RawProduct, error) {
	s.since = append(s.since, since)
	return s.changes, s.err
}

func TestChangeFeed_SyncAdvancesWatermarkOnlyOnSuccess(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	fetcher := &stubChangesFetcher{err: errors.New("upstream down")}
	s := NewChangeFeed(fetcher, stubTransformer{}, &stubApplier{}, start, logger.NewNopLogger())

	_, err := s.Sync(context.Background())
	require.Error(t, err)

	fetcher.err = nil
	_, err = s.Sync(context.Background())
	require.NoError(t, err)
	require.Len(t, fetcher.since, 2)
	assert.Equal(t, start, fetcher.since[1], "a failed run must be retried from the same watermark")
}

type stubConditionalFetcher struct {
	modified map[int]*client.RawProduct
}

func (s *stubConditionalFetcher) FetchProductIfModified(_ context.Context, productID int, _ time.Time) (*client.RawProduct, bool, error) {
	if raw, ok := s.modified[productID]; ok {
		return raw, false, nil
	}
	return nil, true, nil
}

func TestConditionalRefresh_Sync(t *testing.T) {
	t.Parallel()

	lister := &stubLister{products: []models.Product{
		storedProduct(1, "Mejeri"),
		storedProduct(2, "Mejeri"),
		storedProduct(3, "Mejeri"),
	}}
	fetcher := &stubConditionalFetcher{modified: map[int]*client.RawProduct{
		2: {ID: 2, Name: "ny pris"},
	}}
	applier := &stubApplier{outcomes: map[string]sync.Outcome{"rema-2": {Updated: true}}}
	s := NewConditionalRefresh(lister, fetcher, stubTransformer{}, applier, "rema1000", 100, logger.NewNopLogger())

	result, err := s.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "conditional-refresh", result.Strategy)
	assert.Equal(t, 2, result.Unchanged, "304 answers count as unchanged")
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.TotalChanges)
	assert.Equal(t, []string{"rema-2"}, applier.applied, "unmodified products are never re-applied")
}

type stubSingleFetcher struct {
	calls []int
}

func (s *stubSingleFetcher) FetchProduct(_ context.Context, productID int) (*client.RawProduct, error) {
	s.calls = append(s.calls, productID)
	return &client.RawProduct{ID: productID, Name: "x"}, nil
}

func TestTieredRefresh_Sync(t *testing.T) {
	t.Parallel()

	lister := &stubLister{products: []models.Product{
		storedProduct(1, "Frugt & grønt"),
		storedProduct(2, "Kolonial"),
	}}
	fetcher := &stubSingleFetcher{}
	applier := &stubApplier{outcomes: map[string]sync.Outcome{
		"rema-1": {Updated: true},
		"rema-2": {Added: true},
	}}
	s := NewTieredRefresh(lister, fetcher, stubTransformer{}, applier, "rema1000", 100,
		[]string{"Frugt & grønt"}, 2, logger.NewNopLogger())

	// Run 1: priority tier only.
	result, err := s.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalChanges)
	assert.Equal(t, []int{1}, fetcher.calls)

	// Run 2: every second run includes the stable tier.
	fetcher.calls = nil
	result, err = s.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalChanges)
	assert.Equal(t, []int{1, 2}, fetcher.calls)

	// Run 3: back to the priority tier.
	fetcher.calls = nil
	result, err = s.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1}, fetcher.calls)
}

type stubProber struct {
	changesErr   error
	notModified  bool
	changesCalls int
}

func (s *stubProber) FetchChanges(context.Context, time.Time) ([]client.RawProduct, error) {
	s.changesCalls++
	return nil, s.changesErr
}

func (s *stubProber) FetchProductIfModified(context.Context, int, time.Time) (*client.RawProduct, bool, error) {
	if s.notModified {
		return nil, true, nil
	}
	return &client.RawProduct{ID: 304020, Name: "x"}, false, nil
}

type namedStrategy struct {
	name  string
	calls int
}

func (s *namedStrategy) Name() string { return s.name }
func (s *namedStrategy) Sync(context.Context) (Result, error) {
	s.calls++
	return Result{Strategy: s.name}, nil
}

func newSelectorWith(prober Prober, override string) (*Selector, map[string]*namedStrategy) {
	strategies := map[string]*namedStrategy{
		"change-feed":         {name: "change-feed"},
		"conditional-refresh": {name: "conditional-refresh"},
		"tiered-refresh":      {name: "tiered-refresh"},
	}
	s := NewSelector(prober, override, []int{304020}, logger.NewNopLogger(),
		strategies["change-feed"], strategies["conditional-refresh"], strategies["tiered-refresh"])
	return s, strategies
}

func TestSelector_PicksChangeFeedWhenSupported(t *testing.T) {
	t.Parallel()

	s, strategies := newSelectorWith(&stubProber{}, "")
	result, err := s.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "change-feed", result.Strategy)
	assert.Equal(t, 1, strategies["change-feed"].calls)
}

func TestSelector_FallsBackToConditional(t *testing.T) {
	t.Parallel()

	prober := &stubProber{changesErr: client.ErrUnsupported, notModified: true}
	s, strategies := newSelectorWith(prober, "")
	result, err := s.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "conditional-refresh", result.Strategy)
	assert.Equal(t, 1, strategies["conditional-refresh"].calls)
}

func TestSelector_FallsBackToTiered(t *testing.T) {
	t.Parallel()

	// The upstream answers conditional requests with a full body, so the
	// header is useless and only tiered refreshing remains.
	prober := &stubProber{changesErr: client.ErrUnsupported, notModified: false}
	s, _ := newSelectorWith(prober, "")
	result, err := s.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tiered-refresh", result.Strategy)
}

func TestSelector_OverrideSkipsProbing(t *testing.T) {
	t.Parallel()

	prober := &stubProber{}
	s, strategies := newSelectorWith(prober, "tiered-refresh")
	result, err := s.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tiered-refresh", result.Strategy)
	assert.Equal(t, 1, strategies["tiered-refresh"].calls)
}

func TestSelector_ProbesOnlyOnce(t *testing.T) {
	t.Parallel()

	prober := &stubProber{}
	s, strategies := newSelectorWith(prober, "")
	for i := 0; i < 3; i++ {
		_, err := s.Sync(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 3, strategies["change-feed"].calls)
	assert.Equal(t, 1, prober.changesCalls, "the capability probe runs once per process")
}
