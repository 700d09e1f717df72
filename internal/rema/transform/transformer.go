package transform

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"madpriser_api/config"
	"madpriser_api/internal/rema/client"
	"madpriser_api/internal/rema/models"
)

// Transformer maps raw upstream payloads onto canonical Product records.
type Transformer struct {
	departments map[int]string
	source      string
	store       string
	now         func() time.Time
}

func NewTransformer(cfg config.RemaConfig) *Transformer {
	return &Transformer{
		departments: cfg.Departments,
		source:      cfg.Source,
		store:       cfg.Store,
		now:         time.Now,
	}
}

// ReplaceDepartments swaps the category lookup table for one loaded from the
// persisted departments table, so imported rows affect resolution too. Empty
// lookups are ignored.
func (t *Transformer) ReplaceDepartments(departments map[int]string) {
	if len(departments) == 0 {
		return
	}
	t.departments = departments
}

// Category resolves a department code through the lookup table. Codes the
// table does not know fall back to the shared catch-all category.
func (t *Transformer) Category(departmentID int) string {
	if category, ok := t.departments[departmentID]; ok {
		return category
	}
	return config.CategoryFallback
}

// Transform builds a Product from one raw payload. The department is taken
// from the caller, not the payload: upstream items do not reliably carry
// their own department. Items lacking both an ID and a name are dropped
// (ok=false) rather than treated as errors.
func (t *Transformer) Transform(raw *client.RawProduct, departmentID int) (*models.Product, bool) {
	if raw == nil {
		return nil, false
	}

	upstreamID := cast.ToInt(raw.ID)
	if upstreamID <= 0 && raw.Name == "" {
		return nil, false
	}

	price, originalPrice, isOnSale := resolvePrices(raw.Prices)

	product := &models.Product{
		ExternalID:    models.ExternalID(upstreamID),
		Name:          raw.Name,
		Description:   description(raw),
		Category:      t.Category(departmentID),
		Price:         price,
		OriginalPrice: originalPrice,
		IsOnSale:      isOnSale,
		ImageURL:      imageURL(raw.Images),
		Available:     available(raw.IsAvailableInAllStores),
		LastUpdated:   t.now(),
		Source:        t.source,
		Store:         t.store,
	}
	return product, true
}

// resolvePrices interprets the upstream price list. The feed's convention is
// positional: with two or more entries, index 0 is the campaign price and
// index 1 the regular price — but index 0 counts only when its campaign flag
// is set. Entries beyond index 1 are ignored.
func resolvePrices(prices []client.RawPrice) (price, originalPrice decimal.Decimal, isOnSale bool) {
	switch len(prices) {
	case 0:
		return decimal.Zero, decimal.Zero, false
	case 1:
		p := toDecimal(prices[0].Price)
		return p, p, cast.ToBool(prices[0].IsCampaign)
	default:
		campaign := prices[0]
		regular := prices[1]
		if cast.ToBool(campaign.IsCampaign) {
			return toDecimal(campaign.Price), toDecimal(regular.Price), true
		}
		p := toDecimal(regular.Price)
		return p, p, false
	}
}

func toDecimal(v interface{}) decimal.Decimal {
	return decimal.NewFromFloat(cast.ToFloat64(v))
}

func description(raw *client.RawProduct) *string {
	if raw.Declaration != "" {
		d := raw.Declaration
		return &d
	}
	if raw.Description != "" {
		d := raw.Description
		return &d
	}
	return nil
}

func imageURL(images []client.RawImage) *string {
	if len(images) == 0 {
		return nil
	}
	if images[0].Large != "" {
		u := images[0].Large
		return &u
	}
	if images[0].Medium != "" {
		u := images[0].Medium
		return &u
	}
	return nil
}

// available defaults to true when the upstream omits the flag entirely.
func available(v interface{}) bool {
	if v == nil {
		return true
	}
	return cast.ToBool(v)
}
