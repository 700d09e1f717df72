package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"madpriser_api/internal/rema/client"
	"madpriser_api/internal/rema/models"
	"madpriser_api/internal/rema/sync"
	"madpriser_api/pkg/logger"
)

func TestGate_Allow(t *testing.T) {
	t.Parallel()

	always := NewGate(1.0)
	for i := 0; i < 100; i++ {
		assert.True(t, always.Allow())
	}

	never := NewGate(0)
	for i := 0; i < 100; i++ {
		assert.False(t, never.Allow())
	}
}

func TestGate_SeededSequenceIsDeterministic(t *testing.T) {
	t.Parallel()

	a := NewGateWithSeed(0.5, 42)
	b := NewGateWithSeed(0.5, 42)
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Allow(), b.Allow())
	}
}

type stubHistoryPurger struct {
	cutoff time.Time
	purged int64
}

func (s *stubHistoryPurger) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.cutoff = cutoff
	return s.purged, nil
}

func TestRetentionSweep_Run(t *testing.T) {
	t.Parallel()

	purger := &stubHistoryPurger{purged: 7}
	sweep := NewRetentionSweep(purger, 30*24*time.Hour, logger.NewNopLogger())
	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	sweep.now = func() time.Time { return now }

	purged, err := sweep.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), purged)
	assert.Equal(t, now.Add(-30*24*time.Hour), purger.cutoff)
}

func TestRetentionSweep_DisabledWithoutWindow(t *testing.T) {
	t.Parallel()

	purger := &stubHistoryPurger{purged: 7}
	sweep := NewRetentionSweep(purger, 0, logger.NewNopLogger())

	purged, err := sweep.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, purged)
	assert.True(t, purger.cutoff.IsZero(), "no purge may run without a retention window")
}

type sweepLister struct {
	pages map[int]map[int]*client.RawPage
}

func (s *sweepLister) FetchPage(_ context.Context, departmentID, page, _ int) (*client.RawPage, error) {
	if byPage, ok := s.pages[departmentID]; ok {
		if p, ok := byPage[page]; ok {
			return p, nil
		}
	}
	return &client.RawPage{}, nil
}

type sweepStore struct {
	stored []string
	marked []string
}

func (s *sweepStore) ListExternalIDs(context.Context, string) ([]string, error) {
	return s.stored, nil
}

func (s *sweepStore) MarkUnavailable(_ context.Context, externalIDs []string) (int64, error) {
	s.marked = externalIDs
	return int64(len(externalIDs)), nil
}

func livePage(ids ...int) *client.RawPage {
	p := &client.RawPage{}
	p.Meta.Pagination.LastPage = 1
	for _, id := range ids {
		p.Data = append(p.Data, client.RawProduct{ID: id})
	}
	return p
}

func TestDiscontinuedSweep_Run(t *testing.T) {
	t.Parallel()

	lister := &sweepLister{pages: map[int]map[int]*client.RawPage{
		20: {1: livePage(1, 2)},
	}}
	store := &sweepStore{stored: []string{"rema-1", "rema-2", "rema-3"}}
	sweep := NewDiscontinuedSweep(lister, store, []int{20}, "rema1000", 100, time.Minute, logger.NewNopLogger())

	marked, err := sweep.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), marked)
	assert.Equal(t, []string{"rema-3"}, store.marked)
}

func TestDiscontinuedSweep_SkipsWhenWalkIncomplete(t *testing.T) {
	t.Parallel()

	lister := &sweepLister{pages: map[int]map[int]*client.RawPage{
		20: {1: livePage(1)},
	}}
	store := &sweepStore{stored: []string{"rema-1", "rema-2"}}
	// A negative budget guarantees the walk never completes.
	sweep := NewDiscontinuedSweep(lister, store, []int{20}, "rema1000", 100, -time.Second, logger.NewNopLogger())

	marked, err := sweep.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, marked)
	assert.Nil(t, store.marked, "a partial walk must never flag products")
}

type repairStore struct {
	anomalies []models.Product
}

func (s *repairStore) ListSaleAnomalies(context.Context, string, int) ([]models.Product, error) {
	return s.anomalies, nil
}

type repairFetcher struct {
	byID map[int]*client.RawProduct
}

func (f *repairFetcher) FetchProduct(_ context.Context, productID int) (*client.RawProduct, error) {
	if raw, ok := f.byID[productID]; ok {
		return raw, nil
	}
	return nil, client.ErrNotFound
}

type repairTransformer struct{}

func (repairTransformer) Transform(raw *client.RawProduct, _ int) (*models.Product, bool) {
	id, ok := raw.ID.(int)
	if !ok {
		return nil, false
	}
	return &models.Product{ExternalID: models.ExternalID(id)}, true
}

type repairApplier struct {
	applied []string
}

func (a *repairApplier) Apply(_ context.Context, p *models.Product) (sync.Outcome, error) {
	a.applied = append(a.applied, p.ExternalID)
	return sync.Outcome{Updated: true}, nil
}

func TestSaleRepair_Run(t *testing.T) {
	t.Parallel()

	store := &repairStore{anomalies: []models.Product{
		{ExternalID: "rema-1"},
		{ExternalID: "rema-2"}, // vanished upstream
		{ExternalID: "not-numeric"},
	}}
	fetcher := &repairFetcher{byID: map[int]*client.RawProduct{
		1: {ID: 1, Name: "x"},
	}}
	applier := &repairApplier{}
	repair := NewSaleRepair(store, fetcher, repairTransformer{}, applier, "rema1000", 50, logger.NewNopLogger())

	repaired, err := repair.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)
	assert.Equal(t, []string{"rema-1"}, applier.applied)
}

func newTestCoordinator(gate *Gate, purger *stubHistoryPurger, store *sweepStore) *Coordinator {
	lister := &sweepLister{pages: map[int]map[int]*client.RawPage{
		20: {1: livePage(1)},
	}}
	sweep := NewDiscontinuedSweep(lister, store, []int{20}, "rema1000", 100, time.Minute, logger.NewNopLogger())
	retention := NewRetentionSweep(purger, time.Hour, logger.NewNopLogger())
	repair := NewSaleRepair(&repairStore{}, &repairFetcher{}, repairTransformer{}, &repairApplier{}, "rema1000", 50, logger.NewNopLogger())
	return NewCoordinator(gate, sweep, repair, retention, logger.NewNopLogger())
}

func TestCoordinator_MaybeRun(t *testing.T) {
	t.Parallel()

	purger := &stubHistoryPurger{purged: 3}
	store := &sweepStore{stored: []string{"rema-1", "rema-2"}}
	summary := newTestCoordinator(NewGate(0), purger, store).MaybeRun(context.Background())
	assert.False(t, summary.Ran)
	assert.True(t, purger.cutoff.IsZero())
	assert.Nil(t, store.marked, "a closed gate must not sweep")

	purger = &stubHistoryPurger{purged: 3}
	store = &sweepStore{stored: []string{"rema-1", "rema-2"}}
	summary = newTestCoordinator(NewGate(1.0), purger, store).MaybeRun(context.Background())
	assert.True(t, summary.Ran)
	assert.Equal(t, int64(1), summary.DiscontinuedMarked)
	assert.Equal(t, []string{"rema-2"}, store.marked)
	assert.Equal(t, int64(3), summary.PurgedHistoryRows)
}
