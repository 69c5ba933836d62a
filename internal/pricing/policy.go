package pricing

import "github.com/shopspring/decimal"

// Policy bundles the configurable pricing inputs: nothing in the engine is
// hard-coded to a tax jurisdiction or shipping promotion.
type Policy struct {
	TaxRate  decimal.Decimal
	Shipping ShippingRule
}
