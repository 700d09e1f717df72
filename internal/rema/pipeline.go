package rema

import (
	"context"

	"madpriser_api/internal/rema/delta"
	"madpriser_api/internal/rema/sync"
)

// Pipeline bundles the REMA 1000 integration behind the store registry's
// scraper contract.
type Pipeline struct {
	source string
	runner *sync.Runner
	delta  *delta.Selector
}

func NewPipeline(source string, runner *sync.Runner, deltaSelector *delta.Selector) *Pipeline {
	return &Pipeline{source: source, runner: runner, delta: deltaSelector}
}

func (p *Pipeline) Source() string { return p.source }

func (p *Pipeline) RunBatch(ctx context.Context, req sync.BatchRequest) (sync.BatchResult, error) {
	return p.runner.RunBatch(ctx, req)
}

func (p *Pipeline) DeltaSync(ctx context.Context) (delta.Result, error) {
	return p.delta.Sync(ctx)
}
