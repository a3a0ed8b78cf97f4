package checkout

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventCouponApplied = "CouponApplied"
	EventCouponRemoved = "CouponRemoved"
)

type CouponApplied struct {
	SessionID          string          `json:"session_id"`
	Code               string          `json:"code"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	AppliedAt          time.Time       `json:"applied_at"`
}

type CouponRemoved struct {
	SessionID string    `json:"session_id"`
	Code      string    `json:"code"`
	RemovedAt time.Time `json:"removed_at"`
}
