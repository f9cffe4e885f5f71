// Package tax derives the cart summary's tax value and composition flags
// from a line-item list. It is the single source of truth for those fields
// and must run after every structural change to the list.
package tax

import (
	"math"

	"github.com/simplur/cart-events-service/internal/domain"
)

// Rate is the fixed sales tax rate applied to the taxable sum.
const Rate = 0.0775

// ComputeDerivedFields recomputes tax and the three composition flags.
// Pure: no state, identical inputs always yield identical output.
func ComputeDerivedFields(totalDiscount float64, items []domain.CartLineItem) domain.DerivedFields {
	fields := domain.DerivedFields{}

	taxable := 0.0
	for _, item := range items {
		if item.Type == domain.ItemTypeEventTicket {
			if item.Price == 0 {
				fields.HasFreeClass = true
			}
			if item.Price > 0 {
				fields.HasPricedClass = true
			}
			continue
		}
		fields.HasProducts = true
		taxable += float64(item.Quantity) * taxablePrice(item)
	}

	// A fully untaxable cart reports exactly 0, discount or not.
	if taxable == 0 {
		return fields
	}

	fields.TaxValue = roundCents((taxable - totalDiscount) * Rate)
	return fields
}

// taxablePrice is the per-unit taxable value of one line. Zero-rate lines
// contribute 0; bundles additionally include each sub-item's taxable price.
func taxablePrice(item domain.CartLineItem) float64 {
	price := item.Price
	if item.TaxClass == domain.TaxClassZeroRate {
		price = 0
	}

	if item.Type == domain.ItemTypeBundle {
		for _, sub := range item.BundledItems {
			if sub.TaxClass == domain.TaxClassZeroRate {
				continue
			}
			price += sub.Price
		}
	}

	return price
}

// roundCents rounds half-up at the cent.
func roundCents(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
