// Package pricing computes offer prices and validity windows. Every function
// is pure: the caller supplies the current time.
package pricing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/servicemart/internal/domain/model"
)

const (
	MinDiscount = 0
	MaxDiscount = 90

	labelNoExpiry     = "No expiry"
	labelExpiringSoon = "Expiring soon"
)

var hundred = decimal.NewFromInt(100)

// IsValid reports whether offer applies at now.
func IsValid(offer model.OfferDescriptor, now time.Time) bool {
	if !offer.Active {
		return false
	}
	return offer.EndDate == nil || offer.EndDate.After(now)
}

// Price returns round(base * (1 - discount/100)), never negative.
func Price(base int64, discount int) int64 {
	d := ClampDiscount(discount)
	factor := hundred.Sub(decimal.NewFromInt(int64(d))).Div(hundred)
	price := decimal.NewFromInt(base).Mul(factor).Round(0).IntPart()
	if price < 0 {
		return 0
	}
	return price
}

// Savings returns how much the discount takes off base.
func Savings(base int64, discount int) int64 {
	return base - Price(base, discount)
}

// ClampDiscount bounds discount to the accepted percentage range.
func ClampDiscount(discount int) int {
	switch {
	case discount < MinDiscount:
		return MinDiscount
	case discount > MaxDiscount:
		return MaxDiscount
	default:
		return discount
	}
}

// TimeRemaining describes the validity left until end. Durations are rounded
// up so a deal never silently expires before the label says it would.
func TimeRemaining(end *time.Time, now time.Time) model.Remaining {
	if end == nil {
		return model.Remaining{NoExpiry: true, Label: labelNoExpiry}
	}
	left := end.Sub(now)
	if left <= 0 {
		return model.Remaining{Expiring: true, Label: labelExpiringSoon}
	}

	hours := int(ceilDiv(left, time.Hour))
	if hours < 24 {
		if hours < 1 {
			return model.Remaining{Expiring: true, Label: labelExpiringSoon}
		}
		return model.Remaining{Hours: hours, Label: plural(hours, "hour")}
	}

	days := int(ceilDiv(left, 24*time.Hour))
	return model.Remaining{Hours: hours, Days: days, Label: plural(days, "day")}
}

// Quote computes the effective pricing of item at now.
func Quote(item model.PricedItem, now time.Time) model.Quote {
	q := model.Quote{
		ItemID:     item.ID,
		Name:       item.Name,
		Kind:       item.Kind,
		BasePrice:  item.Price,
		FinalPrice: item.Price,
		Remaining:  TimeRemaining(item.EndDate, now),
	}
	if !IsValid(item.OfferDescriptor, now) {
		return q
	}
	q.Valid = true
	q.Discount = ClampDiscount(item.Discount)
	q.FinalPrice = Price(item.Price, q.Discount)
	q.Savings = item.Price - q.FinalPrice
	return q
}

func ceilDiv(d, unit time.Duration) time.Duration {
	return (d + unit - 1) / unit
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s left", unit)
	}
	return fmt.Sprintf("%d %ss left", n, unit)
}
