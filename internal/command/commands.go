package command

import "github.com/example/printshop/internal/domain/cart"

// Cart Commands
type AddProduct struct {
	SessionID        string  `json:"-"`
	ProductID        string  `json:"product_id"`
	MaterialID       string  `json:"material_id"`
	Color            string  `json:"color"`
	InfillPercentage float64 `json:"infill_percentage"`
	LayerHeight      float64 `json:"layer_height"`
	Quantity         int     `json:"quantity"`
}

// AddModel commits an analyzed upload. VolumeCm3 is the unscaled volume reported by the
// analyzer; ScalePercentage is applied once before the item is stored.
type AddModel struct {
	SessionID        string          `json:"-"`
	ModelID          string          `json:"model_id"`
	FileName         string          `json:"file_name"`
	VolumeCm3        float64         `json:"volume_cm3"`
	Dimensions       cart.Dimensions `json:"dimensions"`
	ScalePercentage  float64         `json:"scale_percentage"`
	MaterialID       string          `json:"material_id"`
	Color            string          `json:"color"`
	InfillPercentage float64         `json:"infill_percentage"`
	LayerHeight      float64         `json:"layer_height"`
	Quantity         int             `json:"quantity"`
}

type UpdateQuantity struct {
	SessionID string `json:"-"`
	ItemID    string `json:"item_id"`
	Quantity  int    `json:"quantity"`
}

type RemoveItem struct {
	SessionID string `json:"-"`
	ItemID    string `json:"item_id"`
}

type ChangeConfiguration struct {
	SessionID  string `json:"-"`
	ItemID     string `json:"item_id"`
	MaterialID string `json:"material_id"`
	Color      string `json:"color"`
}

type ClearCart struct {
	SessionID string `json:"-"`
}

// Checkout Commands
type ApplyCoupon struct {
	SessionID string `json:"-"`
	Code      string `json:"code"`
}

type RemoveCoupon struct {
	SessionID string `json:"-"`
}
