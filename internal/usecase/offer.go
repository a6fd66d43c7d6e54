package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/polkiloo/servicemart/internal/domain/model"
	"github.com/polkiloo/servicemart/internal/domain/pricing"
)

// OfferSource lists catalog items that carry an active offer flag.
type OfferSource interface {
	ActiveOffers(ctx context.Context, kind model.TargetKind) ([]model.PricedItem, error)
}

// OfferCatalog prices active offers.
type OfferCatalog struct {
	source OfferSource
	now    func() time.Time
}

// NewOfferCatalog constructs OfferCatalog.
func NewOfferCatalog(source OfferSource) *OfferCatalog {
	return &OfferCatalog{source: source, now: time.Now}
}

// Quotes returns currently valid offers of a kind, largest savings first.
func (c *OfferCatalog) Quotes(ctx context.Context, kind model.TargetKind) ([]model.Quote, error) {
	items, err := c.source.ActiveOffers(ctx, kind)
	if err != nil {
		return nil, err
	}

	now := c.now()
	quotes := make([]model.Quote, 0, len(items))
	for _, item := range items {
		quote := pricing.Quote(item, now)
		if quote.Valid {
			quotes = append(quotes, quote)
		}
	}
	sort.SliceStable(quotes, func(i, j int) bool {
		if quotes[i].Savings != quotes[j].Savings {
			return quotes[i].Savings > quotes[j].Savings
		}
		return quotes[i].Name < quotes[j].Name
	})
	return quotes, nil
}
