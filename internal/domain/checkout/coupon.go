package checkout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidCoupon      = errors.New("invalid coupon code")
	ErrInvalidCouponValue = errors.New("coupon discount must be between 0 and 100 percent")
)

// Coupon is a flat percentage discount identified by a case-insensitive code.
type Coupon struct {
	Code               string          `json:"code"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
}

// Discount returns the amount taken off subtotal.
func (c Coupon) Discount(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(c.DiscountPercentage).Div(decimal.NewFromInt(100))
}

// Registry validates coupon codes.
type Registry struct {
	coupons map[string]Coupon
}

func NewRegistry(coupons ...Coupon) (*Registry, error) {
	r := &Registry{coupons: make(map[string]Coupon, len(coupons))}
	for _, c := range coupons {
		if c.DiscountPercentage.IsNegative() || c.DiscountPercentage.GreaterThan(decimal.NewFromInt(100)) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCouponValue, c.Code)
		}
		key := normalizeCode(c.Code)
		if key == "" {
			return nil, fmt.Errorf("%w: empty code", ErrInvalidCoupon)
		}
		c.Code = key
		r.coupons[key] = c
	}
	return r, nil
}

// DefaultRegistry holds the demonstration codes offered on the storefront.
func DefaultRegistry() *Registry {
	r, _ := NewRegistry(
		Coupon{Code: "WELCOME10", DiscountPercentage: decimal.NewFromInt(10)},
		Coupon{Code: "SAVE20", DiscountPercentage: decimal.NewFromInt(20)},
	)
	return r
}

// Lookup finds a coupon regardless of case and surrounding whitespace.
func (r *Registry) Lookup(code string) (Coupon, bool) {
	c, ok := r.coupons[normalizeCode(code)]
	return c, ok
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Session holds the single coupon applied to a checkout.
type Session struct {
	registry *Registry
	active   *Coupon
}

func NewSession(registry *Registry) *Session {
	return &Session{registry: registry}
}

// Restore re-applies a persisted code. Codes that are no longer valid are dropped.
func (s *Session) Restore(code string) {
	s.active = nil
	if code == "" {
		return
	}
	if c, ok := s.registry.Lookup(code); ok {
		s.active = &c
	}
}

// ApplyCoupon replaces the active coupon. An unknown code leaves the current one in place.
func (s *Session) ApplyCoupon(code string) (Coupon, error) {
	c, ok := s.registry.Lookup(code)
	if !ok {
		return Coupon{}, fmt.Errorf("%w: %q", ErrInvalidCoupon, strings.TrimSpace(code))
	}
	s.active = &c
	return c, nil
}

func (s *Session) RemoveCoupon() {
	s.active = nil
}

// Active returns the applied coupon, if any.
func (s *Session) Active() (Coupon, bool) {
	if s.active == nil {
		return Coupon{}, false
	}
	return *s.active, true
}

// Code returns the applied coupon code or an empty string.
func (s *Session) Code() string {
	if s.active == nil {
		return ""
	}
	return s.active.Code
}
