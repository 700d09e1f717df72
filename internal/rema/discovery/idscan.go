package discovery

import (
	"context"
	"errors"

	"madpriser_api/config"
	"madpriser_api/internal/rema/client"
	"madpriser_api/pkg/logger"
)

// IDRangeScan probes contiguous slices of the upstream ID space. It exists
// because the listing endpoint has gone missing before; a 404 simply means
// no product lives at that ID. The ranges and strides are tuned to this
// upstream's ID allocation and therefore live in configuration.
type IDRangeScan struct {
	fetcher ProductFetcher
	ranges  []config.ScanRange
	ceiling int
	log     logger.Logger
}

func NewIDRangeScan(fetcher ProductFetcher, ranges []config.ScanRange, ceiling int, log logger.Logger) *IDRangeScan {
	return &IDRangeScan{
		fetcher: fetcher,
		ranges:  ranges,
		ceiling: ceiling,
		log:     log.WithPrefix("[IDScan]"),
	}
}

func (s *IDRangeScan) Name() string { return "id-range-scan" }

func (s *IDRangeScan) Discover(ctx context.Context) ([]Candidate, error) {
	var candidates []Candidate
	for _, r := range s.ranges {
		stride := r.Stride
		if stride <= 0 {
			stride = 1
		}
		for id := r.Start; id <= r.End; id += stride {
			if err := ctx.Err(); err != nil {
				return dedupe(candidates), err
			}
			// The ID space is effectively unbounded; the ceiling caps
			// worst-case work per scan.
			if s.ceiling > 0 && len(candidates) >= s.ceiling {
				s.log.Log("product ceiling %d reached, stopping scan", s.ceiling)
				return dedupe(candidates), nil
			}

			raw, err := s.fetcher.FetchProduct(ctx, id)
			if errors.Is(err, client.ErrNotFound) {
				continue
			}
			if err != nil {
				s.log.Errorf("probing id %d: %v", id, err)
				continue
			}
			candidates = append(candidates, Candidate{Raw: *raw, DepartmentID: departmentOf(raw)})
		}
	}
	return dedupe(candidates), nil
}

func departmentOf(raw *client.RawProduct) int {
	if raw.Department != nil {
		return raw.Department.ID
	}
	return 0
}
