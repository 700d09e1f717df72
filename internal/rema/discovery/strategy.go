package discovery

import (
	"context"

	"github.com/spf13/cast"

	"madpriser_api/internal/rema/client"
)

// Candidate pairs a raw payload with the department the discovery loop was
// walking when it found it. The transformer needs the department from the
// caller because payloads do not reliably carry their own.
type Candidate struct {
	Raw          client.RawProduct
	DepartmentID int
}

// Strategy produces the stream of candidate products for one run. The
// upstream offers no authoritative "list all" endpoint, so several tactics
// coexist behind this interface; a future reliable listing endpoint slots in
// without touching the transformer or the upsert engine.
type Strategy interface {
	Name() string
	Discover(ctx context.Context) ([]Candidate, error)
}

// PageLister is the slice of the source client paged discovery uses.
type PageLister interface {
	FetchPage(ctx context.Context, departmentID, page, limit int) (*client.RawPage, error)
}

// ProductFetcher is the slice of the source client ID probing uses.
type ProductFetcher interface {
	FetchProduct(ctx context.Context, productID int) (*client.RawProduct, error)
}

// dedupe keeps the first candidate per external ID.
func dedupe(candidates []Candidate) []Candidate {
	seen := make(map[int]bool, len(candidates))
	out := candidates[:0]
	for _, c := range candidates {
		id := cast.ToInt(c.Raw.ID)
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, c)
	}
	return out
}
