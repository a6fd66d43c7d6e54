package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/polkiloo/servicemart/internal/domain/model"
)

var collectionByKind = map[model.TargetKind]string{
	model.TargetProduct: "products",
	model.TargetService: "services",
}

// ActiveOffers fetches GET products|services?offerActive=true.
func (c *HTTPClient) ActiveOffers(ctx context.Context, kind model.TargetKind) ([]model.PricedItem, error) {
	collection, ok := collectionByKind[kind]
	if !ok {
		return nil, fmt.Errorf("unknown catalog kind %q", kind)
	}
	query := url.Values{"offerActive": []string{"true"}}
	var items []model.PricedItem
	if _, err := c.do(ctx, http.MethodGet, c.endpoint(query, collection), nil, &items); err != nil {
		return nil, fmt.Errorf("list %s offers: %w", collection, err)
	}
	for i := range items {
		items[i].Kind = kind
	}
	return items, nil
}
