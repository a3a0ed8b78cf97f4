package checkout

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

// ============================================
// Coupon Tests
// ============================================

func TestRegistry_LookupIsCaseInsensitive(t *testing.T) {
	r := DefaultRegistry()

	for _, code := range []string{"WELCOME10", "welcome10", " Welcome10 "} {
		c, ok := r.Lookup(code)
		require.True(t, ok, code)
		assert.Equal(t, "WELCOME10", c.Code)
		assertDecimal(t, "10", c.DiscountPercentage)
	}

	_, ok := r.Lookup("FREESTUFF")
	assert.False(t, ok)
}

func TestNewRegistry_Validation(t *testing.T) {
	_, err := NewRegistry(Coupon{Code: "TOO_MUCH", DiscountPercentage: dec("101")})
	assert.ErrorIs(t, err, ErrInvalidCouponValue)

	_, err = NewRegistry(Coupon{Code: "NEG", DiscountPercentage: dec("-5")})
	assert.ErrorIs(t, err, ErrInvalidCouponValue)

	_, err = NewRegistry(Coupon{Code: "  ", DiscountPercentage: dec("5")})
	assert.ErrorIs(t, err, ErrInvalidCoupon)
}

func TestSession_ApplyAndRemoveCoupon(t *testing.T) {
	rules := DefaultRules()
	s := NewSession(DefaultRegistry())
	subtotal := dec("100")

	c, err := s.ApplyCoupon("WELCOME10")
	require.NoError(t, err)
	assertDecimal(t, "10", c.Discount(subtotal))

	active, ok := s.Active()
	require.True(t, ok)
	summary := rules.Summarize(subtotal, &active)
	assertDecimal(t, "10", summary.Discount)
	assertDecimal(t, "100", summary.Subtotal)

	s.RemoveCoupon()
	_, ok = s.Active()
	assert.False(t, ok)
	summary = rules.Summarize(subtotal, nil)
	assertDecimal(t, "0", summary.Discount)
	assertDecimal(t, "100", summary.Subtotal)
}

func TestSession_InvalidCouponKeepsActive(t *testing.T) {
	s := NewSession(DefaultRegistry())
	_, err := s.ApplyCoupon("save20")
	require.NoError(t, err)

	_, err = s.ApplyCoupon("BOGUS")

	assert.ErrorIs(t, err, ErrInvalidCoupon)
	assert.Equal(t, "SAVE20", s.Code())
}

func TestSession_InvalidCouponOnEmptySession(t *testing.T) {
	s := NewSession(DefaultRegistry())
	_, err := s.ApplyCoupon("")
	assert.ErrorIs(t, err, ErrInvalidCoupon)
	assert.Equal(t, "", s.Code())
}

func TestSession_SecondCouponReplacesFirst(t *testing.T) {
	s := NewSession(DefaultRegistry())
	_, _ = s.ApplyCoupon("WELCOME10")
	_, err := s.ApplyCoupon("SAVE20")
	require.NoError(t, err)

	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, "SAVE20", active.Code)
}

func TestSession_Restore(t *testing.T) {
	s := NewSession(DefaultRegistry())

	s.Restore("welcome10")
	assert.Equal(t, "WELCOME10", s.Code())

	s.Restore("RETIRED")
	assert.Equal(t, "", s.Code())

	s.Restore("")
	assert.Equal(t, "", s.Code())
}

// ============================================
// Rules Tests
// ============================================

func TestRules_Summarize(t *testing.T) {
	rules := DefaultRules()
	welcome, _ := DefaultRegistry().Lookup("WELCOME10")

	tests := []struct {
		name         string
		subtotal     string
		coupon       *Coupon
		discount     string
		shipping     string
		tax          string
		total        string
		freeShipping bool
		remaining    string
	}{
		{"below threshold", "40", nil, "0", "9.99", "3.2", "53.19", false, "60"},
		{"at threshold", "100", nil, "0", "0", "8", "108", true, "0"},
		{"above threshold", "250", nil, "0", "0", "20", "270", true, "0"},
		{"discount drops below threshold", "100", &welcome, "10", "9.99", "7.2", "107.19", false, "10"},
		{"discount stays above threshold", "200", &welcome, "20", "0", "14.4", "194.4", true, "0"},
		{"empty cart", "0", nil, "0", "0", "0", "0", false, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := rules.Summarize(dec(tt.subtotal), tt.coupon)

			assertDecimal(t, tt.subtotal, s.Subtotal)
			assertDecimal(t, tt.discount, s.Discount)
			assertDecimal(t, tt.shipping, s.Shipping)
			assertDecimal(t, tt.tax, s.Tax)
			assertDecimal(t, tt.total, s.Total)
			assertDecimal(t, tt.remaining, s.FreeShippingRemaining)
			assert.Equal(t, tt.freeShipping, s.FreeShipping)
		})
	}
}

func TestRules_SummarizeRoundsToCents(t *testing.T) {
	save20, _ := DefaultRegistry().Lookup("SAVE20")
	s := DefaultRules().Summarize(dec("1.6875"), &save20)

	assertDecimal(t, "1.69", s.Subtotal)
	assertDecimal(t, "0.34", s.Discount)
	assertDecimal(t, "1.35", s.DiscountedSubtotal)
	assertDecimal(t, "0.11", s.Tax)
	assertDecimal(t, "11.45", s.Total)
	assert.Equal(t, "SAVE20", s.CouponCode)
}

func TestRules_CustomThreshold(t *testing.T) {
	rules := Rules{FreeShippingThreshold: dec("75"), ShippingFee: dec("5"), TaxRate: dec("0.1")}

	assertDecimal(t, "5", rules.Shipping(dec("74.99")))
	assertDecimal(t, "0", rules.Shipping(dec("75")))
}
