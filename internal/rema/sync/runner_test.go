package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"madpriser_api/internal/rema/client"
	"madpriser_api/internal/rema/models"
	"madpriser_api/pkg/logger"
)

type fakeFetcher struct {
	page *client.RawPage
	err  error
}

func (f *fakeFetcher) FetchPage(context.Context, int, int, int) (*client.RawPage, error) {
	return f.page, f.err
}

type fakeTransformer struct{}

func (fakeTransformer) Transform(raw *client.RawProduct, _ int) (*models.Product, bool) {
	id, ok := raw.ID.(int)
	if !ok || id <= 0 {
		return nil, false
	}
	return &models.Product{ExternalID: models.ExternalID(id), Name: raw.Name}, true
}

type fakeApplier struct {
	applied []string
	outcome Outcome
}

func (f *fakeApplier) Apply(_ context.Context, p *models.Product) (Outcome, error) {
	f.applied = append(f.applied, p.ExternalID)
	return f.outcome, nil
}

func rawPage(lastPage int, ids ...int) *client.RawPage {
	page := &client.RawPage{}
	page.Meta.Pagination.LastPage = lastPage
	for _, id := range ids {
		page.Data = append(page.Data, client.RawProduct{ID: id, Name: "x"})
	}
	return page
}

func newTestRunner(fetcher PageFetcher, applier Applier, budget time.Duration) *Runner {
	return NewRunner(fetcher, fakeTransformer{}, applier, budget, "REMA 1000", logger.NewNopLogger())
}

func TestRunner_RunBatchAdvancesPage(t *testing.T) {
	t.Parallel()

	applier := &fakeApplier{outcome: Outcome{Added: true}}
	runner := newTestRunner(&fakeFetcher{page: rawPage(3, 1, 2, 3)}, applier, time.Minute)

	result, err := runner.RunBatch(context.Background(), BatchRequest{Page: 1})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.ProductsFound)
	assert.Equal(t, 3, result.ProductsAdded)
	assert.True(t, result.HasMore)
	require.NotNil(t, result.NextPage)
	assert.Equal(t, 2, *result.NextPage)
	assert.NotEmpty(t, result.RunID)
}

func TestRunner_RunBatchStopsAtLastPage(t *testing.T) {
	t.Parallel()

	runner := newTestRunner(&fakeFetcher{page: rawPage(3, 7)}, &fakeApplier{}, time.Minute)

	result, err := runner.RunBatch(context.Background(), BatchRequest{Page: 3})
	require.NoError(t, err)
	assert.False(t, result.HasMore)
	assert.Nil(t, result.NextPage)
}

func TestRunner_RunBatchBudgetExceededResumesSamePage(t *testing.T) {
	t.Parallel()

	applier := &fakeApplier{}
	// A negative budget puts the deadline in the past, so the first product
	// already trips it.
	runner := newTestRunner(&fakeFetcher{page: rawPage(3, 1, 2)}, applier, -time.Second)

	result, err := runner.RunBatch(context.Background(), BatchRequest{Page: 2})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, applier.applied, "no product may start after the deadline")
	assert.True(t, result.HasMore)
	require.NotNil(t, result.NextPage)
	assert.Equal(t, 2, *result.NextPage, "an interrupted page is retried, not skipped")
}

func TestRunner_RunBatchEmptyPage(t *testing.T) {
	t.Parallel()

	runner := newTestRunner(&fakeFetcher{page: rawPage(0)}, &fakeApplier{}, time.Minute)

	result, err := runner.RunBatch(context.Background(), BatchRequest{})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "no more products found", result.Message)
	assert.False(t, result.HasMore)
}

func TestRunner_RunBatchFetchError(t *testing.T) {
	t.Parallel()

	runner := newTestRunner(&fakeFetcher{err: errors.New("upstream down")}, &fakeApplier{}, time.Minute)

	result, err := runner.RunBatch(context.Background(), BatchRequest{})
	require.Error(t, err)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.RunID)
}

func TestRunner_RunBatchDeduplicates(t *testing.T) {
	t.Parallel()

	applier := &fakeApplier{}
	runner := newTestRunner(&fakeFetcher{page: rawPage(1, 5, 5, 6, 0)}, applier, time.Minute)

	result, err := runner.RunBatch(context.Background(), BatchRequest{})
	require.NoError(t, err)
	// ID 5 appears twice and ID 0 is malformed.
	assert.Equal(t, 2, result.ProductsFound)
	assert.Equal(t, []string{"rema-5", "rema-6"}, applier.applied)
}
