// Package pricing turns line items plus policy inputs into a totals
// breakdown. Everything here is pure: identical inputs yield identical
// output.
package pricing

import (
	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

// Item is one priced line. FreeShipping marks products that make the whole
// shipment free under the rule below.
type Item struct {
	UnitPrice    decimal.Decimal
	Quantity     int
	FreeShipping bool
}

// ShippingRule is a policy input: a flat rate waived when the subtotal
// reaches FreeOverSubtotal (zero disables the threshold) or any item is
// marked free-shipping.
type ShippingRule struct {
	FlatRate         decimal.Decimal
	FreeOverSubtotal decimal.Decimal
}

func (r ShippingRule) FreeShippingEligible(subtotal decimal.Decimal, items []Item) bool {
	if r.FreeOverSubtotal.IsPositive() && subtotal.GreaterThanOrEqual(r.FreeOverSubtotal) {
		return true
	}
	for _, it := range items {
		if it.FreeShipping {
			return true
		}
	}
	return false
}

// Discount is either a fixed amount or a percentage of subtotal+shipping.
// Amount takes precedence when both are set.
type Discount struct {
	Amount  decimal.Decimal
	Percent decimal.Decimal
}

func (d Discount) resolve(base decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch {
	case d.Amount.IsPositive():
		amount = d.Amount.Round(2)
	case d.Percent.IsPositive():
		amount = base.Mul(d.Percent).Div(decimal.NewFromInt(100)).Round(2)
	default:
		return decimal.Zero.Round(2)
	}
	if amount.GreaterThan(base) {
		return base
	}
	return amount
}

// Compute sums unit price times quantity in full precision and rounds the
// subtotal once at the end, so per-line rounding error cannot accumulate.
// The total is clamped at zero.
func Compute(items []Item, taxRate decimal.Decimal, rule ShippingRule, discount Discount, currency string) (domain.Pricing, error) {
	if currency == "" {
		return domain.Pricing{}, &domain.ValidationError{Field: "currency", Reason: "required"}
	}
	if taxRate.IsNegative() {
		return domain.Pricing{}, &domain.ValidationError{Field: "taxRate", Reason: "must not be negative"}
	}

	subtotal := decimal.Zero
	for _, it := range items {
		if it.Quantity < 1 {
			return domain.Pricing{}, &domain.ValidationError{Field: "items.quantity", Reason: "must be at least 1"}
		}
		if it.UnitPrice.IsNegative() {
			return domain.Pricing{}, &domain.ValidationError{Field: "items.unitPrice", Reason: "must not be negative"}
		}
		subtotal = subtotal.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	subtotal = subtotal.Round(2)

	shipping := decimal.Zero.Round(2)
	if len(items) > 0 && !rule.FreeShippingEligible(subtotal, items) {
		shipping = rule.FlatRate.Round(2)
	}

	tax := subtotal.Mul(taxRate).Round(2)
	disc := discount.resolve(subtotal.Add(shipping))

	total := subtotal.Add(tax).Add(shipping).Sub(disc)
	if total.IsNegative() {
		total = decimal.Zero.Round(2)
	}

	return domain.Pricing{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Discount: disc,
		Total:    total,
		Currency: currency,
	}, nil
}
