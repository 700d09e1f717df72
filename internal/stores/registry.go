package stores

import (
	"context"
	"fmt"
	"sort"
	stdsync "sync"

	"madpriser_api/internal/rema/delta"
	"madpriser_api/internal/rema/sync"
)

// Scraper is one retailer integration. New retailers register here; the
// sync loop and the HTTP surface never change for them.
type Scraper interface {
	Source() string
	RunBatch(ctx context.Context, req sync.BatchRequest) (sync.BatchResult, error)
	DeltaSync(ctx context.Context) (delta.Result, error)
}

// Registry maps source names onto scrapers. It is built once at wiring time;
// Register exists so integrations can be added by the composition root, not
// by a package-level singleton.
type Registry struct {
	mu       stdsync.RWMutex
	bySource map[string]Scraper
}

func NewRegistry(scrapers ...Scraper) (*Registry, error) {
	r := &Registry{bySource: make(map[string]Scraper)}
	for _, s := range scrapers {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(s Scraper) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	source := s.Source()
	if source == "" {
		return fmt.Errorf("scraper has no source name")
	}
	if _, exists := r.bySource[source]; exists {
		return fmt.Errorf("scraper for source %q already registered", source)
	}
	r.bySource[source] = s
	return nil
}

// Resolve returns the scraper for a source name. The empty name resolves to
// the sole registered scraper, and errors when that choice is ambiguous.
func (r *Registry) Resolve(source string) (Scraper, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if source == "" {
		if len(r.bySource) == 1 {
			for _, s := range r.bySource {
				return s, nil
			}
		}
		return nil, fmt.Errorf("no source given and %d scrapers registered", len(r.bySource))
	}
	s, ok := r.bySource[source]
	if !ok {
		return nil, fmt.Errorf("no scraper registered for source %q", source)
	}
	return s, nil
}

func (r *Registry) Sources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sources := make([]string, 0, len(r.bySource))
	for source := range r.bySource {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	return sources
}
