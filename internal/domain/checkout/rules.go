package checkout

import (
	"github.com/shopspring/decimal"
)

// Rules is the one place shipping and tax parameters live. Both the free-shipping
// threshold and tax apply to the subtotal after the coupon discount.
type Rules struct {
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
	TaxRate               decimal.Decimal
}

func DefaultRules() Rules {
	return Rules{
		FreeShippingThreshold: decimal.NewFromInt(100),
		ShippingFee:           decimal.RequireFromString("9.99"),
		TaxRate:               decimal.RequireFromString("0.08"),
	}
}

// Summary is the checkout view of a cart, rounded to cents.
type Summary struct {
	Subtotal              decimal.Decimal `json:"subtotal"`
	Discount              decimal.Decimal `json:"discount"`
	DiscountedSubtotal    decimal.Decimal `json:"discounted_subtotal"`
	Shipping              decimal.Decimal `json:"shipping"`
	Tax                   decimal.Decimal `json:"tax"`
	Total                 decimal.Decimal `json:"total"`
	CouponCode            string          `json:"coupon_code,omitempty"`
	FreeShipping          bool            `json:"free_shipping"`
	FreeShippingRemaining decimal.Decimal `json:"free_shipping_remaining"`
}

// Shipping returns the fee for a discounted subtotal. Empty carts ship for free.
func (r Rules) Shipping(discountedSubtotal decimal.Decimal) decimal.Decimal {
	if !discountedSubtotal.IsPositive() || discountedSubtotal.GreaterThanOrEqual(r.FreeShippingThreshold) {
		return decimal.Zero
	}
	return r.ShippingFee
}

// Summarize applies coupon, shipping and tax to subtotal. coupon may be nil.
func (r Rules) Summarize(subtotal decimal.Decimal, coupon *Coupon) Summary {
	discount := decimal.Zero
	code := ""
	if coupon != nil {
		discount = coupon.Discount(subtotal).Round(2)
		code = coupon.Code
	}
	discounted := subtotal.Sub(discount)
	if discounted.IsNegative() {
		discounted = decimal.Zero
	}

	shipping := r.Shipping(discounted)
	tax := discounted.Mul(r.TaxRate).Round(2)

	remaining := r.FreeShippingThreshold.Sub(discounted)
	if remaining.IsNegative() || !discounted.IsPositive() {
		remaining = decimal.Zero
	}

	return Summary{
		Subtotal:              subtotal.Round(2),
		Discount:              discount,
		DiscountedSubtotal:    discounted.Round(2),
		Shipping:              shipping,
		Tax:                   tax,
		Total:                 discounted.Add(shipping).Add(tax).Round(2),
		CouponCode:            code,
		FreeShipping:          discounted.IsPositive() && shipping.IsZero(),
		FreeShippingRemaining: remaining.Round(2),
	}
}
