package query

import (
	"time"

	"github.com/example/printshop/internal/catalog"
	"github.com/example/printshop/internal/domain/cart"
	"github.com/example/printshop/internal/domain/checkout"
	"github.com/example/printshop/internal/domain/material"
	"github.com/example/printshop/internal/domain/quote"
	"github.com/shopspring/decimal"
)

// ItemView is a line item with its current price. Unavailable is set when the item's
// material is gone from the catalog; such items are priced at zero.
type ItemView struct {
	ID               string           `json:"id"`
	Kind             cart.SourceKind  `json:"kind"`
	Name             string           `json:"name"`
	Product          *cart.ProductRef `json:"product,omitempty"`
	Model            *cart.ModelRef   `json:"model,omitempty"`
	MaterialID       string           `json:"material_id"`
	MaterialName     string           `json:"material_name,omitempty"`
	Color            string           `json:"color"`
	ColorHex         string           `json:"color_hex,omitempty"`
	InfillPercentage float64          `json:"infill_percentage"`
	LayerHeight      float64          `json:"layer_height"`
	Quantity         int              `json:"quantity"`
	UnitPrice        decimal.Decimal  `json:"unit_price"`
	Price            decimal.Decimal  `json:"price"`
	Unavailable      bool             `json:"unavailable,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

type CartView struct {
	SessionID  string          `json:"session_id"`
	Items      []ItemView      `json:"items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	ItemCount  int             `json:"item_count"`
	CouponCode string          `json:"coupon_code,omitempty"`
}

type SummaryView struct {
	checkout.Summary
	ItemCount int `json:"item_count"`
}

// QuoteRequest mirrors what the configurator sends before anything is added to the cart.
type QuoteRequest struct {
	MaterialID       string  `json:"material_id"`
	VolumeCm3        float64 `json:"volume_cm3"`
	InfillPercentage float64 `json:"infill_percentage"`
	LayerHeight      float64 `json:"layer_height"`
	ScalePercentage  float64 `json:"scale_percentage"`
	Quantity         int     `json:"quantity"`
	Priority         string  `json:"priority"`
}

type QuoteView struct {
	MaterialID      string         `json:"material_id"`
	Priority        quote.Priority `json:"priority"`
	Quantity        int            `json:"quantity"`
	ScalePercentage float64        `json:"scale_percentage"`
	quote.Result
}

// MaterialView is a catalog material as offered to customers
type MaterialView = material.Material

type ProductView = catalog.Product
