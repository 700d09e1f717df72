package stores

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"madpriser_api/internal/rema/delta"
	"madpriser_api/internal/rema/sync"
)

type fakeScraper struct {
	source string
}

func (f *fakeScraper) Source() string { return f.source }
func (f *fakeScraper) RunBatch(context.Context, sync.BatchRequest) (sync.BatchResult, error) {
	return sync.BatchResult{}, nil
}
func (f *fakeScraper) DeltaSync(context.Context) (delta.Result, error) {
	return delta.Result{}, nil
}

func TestRegistry_Resolve(t *testing.T) {
	t.Parallel()

	rema := &fakeScraper{source: "rema1000"}
	registry, err := NewRegistry(rema)
	require.NoError(t, err)

	s, err := registry.Resolve("rema1000")
	require.NoError(t, err)
	assert.Same(t, rema, s)

	// The sole scraper is also the default.
	s, err = registry.Resolve("")
	require.NoError(t, err)
	assert.Same(t, rema, s)

	_, err = registry.Resolve("netto")
	assert.Error(t, err)
}

func TestRegistry_EmptyDefaultIsAmbiguous(t *testing.T) {
	t.Parallel()

	registry, err := NewRegistry(&fakeScraper{source: "rema1000"}, &fakeScraper{source: "netto"})
	require.NoError(t, err)

	_, err = registry.Resolve("")
	assert.Error(t, err, "with several scrapers the caller must name one")

	assert.Equal(t, []string{"netto", "rema1000"}, registry.Sources())
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	t.Parallel()

	_, err := NewRegistry(&fakeScraper{source: "rema1000"}, &fakeScraper{source: "rema1000"})
	assert.Error(t, err)
}

func TestRegistry_RejectsUnnamedScraper(t *testing.T) {
	t.Parallel()

	_, err := NewRegistry(&fakeScraper{})
	assert.Error(t, err)
}
