package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product is the canonical record kept for one upstream catalog item.
// ExternalID is the upsert key; rows are never deleted by the sync pipeline.
type Product struct {
	ExternalID    string
	Name          string
	Description   *string
	Category      string
	Price         decimal.Decimal
	OriginalPrice decimal.Decimal
	IsOnSale      bool
	ImageURL      *string
	Available     bool
	LastUpdated   time.Time
	Source        string
	Store         string
}

// PriceHistoryEntry is one row of the append-only ledger. It carries the
// values a product had immediately before a detected change.
type PriceHistoryEntry struct {
	ProductExternalID string
	Price             decimal.Decimal
	OriginalPrice     decimal.Decimal
	IsOnSale          bool
	RecordedAt        time.Time
}

// ExternalID builds the stable local key for an upstream numeric product ID.
func ExternalID(upstreamID int) string {
	return fmt.Sprintf("rema-%d", upstreamID)
}

// UpstreamID recovers the numeric upstream ID from an external ID. Legacy
// rows may carry other prefixes, so anything before the digits is accepted.
func UpstreamID(externalID string) (int, bool) {
	idx := strings.LastIndexByte(externalID, '-')
	digits := externalID
	if idx >= 0 {
		digits = externalID[idx+1:]
	}
	id, err := strconv.Atoi(digits)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
