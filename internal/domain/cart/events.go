package cart

import "time"

const (
	EventItemAdded        = "CartItemAdded"
	EventQuantityChanged  = "CartItemQuantityChanged"
	EventItemReconfigured = "CartItemReconfigured"
	EventItemRemoved      = "CartItemRemoved"
	EventCartCleared      = "CartCleared"
)

// Event is a change recorded by the aggregate and published after the cart is saved.
type Event struct {
	Type string
	Data any
}

type ItemAdded struct {
	SessionID        string     `json:"session_id"`
	ItemID           string     `json:"item_id"`
	SourceKind       SourceKind `json:"source_kind"`
	SourceID         string     `json:"source_id"`
	MaterialID       string     `json:"material_id"`
	Color            string     `json:"color"`
	InfillPercentage float64    `json:"infill_percentage"`
	LayerHeight      float64    `json:"layer_height"`
	Quantity         int        `json:"quantity"`
	NewQuantity      int        `json:"new_quantity"`
	Merged           bool       `json:"merged"`
	AddedAt          time.Time  `json:"added_at"`
}

type ItemQuantityChanged struct {
	SessionID string    `json:"session_id"`
	ItemID    string    `json:"item_id"`
	Quantity  int       `json:"quantity"`
	ChangedAt time.Time `json:"changed_at"`
}

type ItemReconfigured struct {
	SessionID  string    `json:"session_id"`
	ItemID     string    `json:"item_id"`
	MaterialID string    `json:"material_id"`
	Color      string    `json:"color"`
	MergedInto string    `json:"merged_into,omitempty"`
	ChangedAt  time.Time `json:"changed_at"`
}

type ItemRemoved struct {
	SessionID string    `json:"session_id"`
	ItemID    string    `json:"item_id"`
	RemovedAt time.Time `json:"removed_at"`
}

type CartCleared struct {
	SessionID string    `json:"session_id"`
	Items     int       `json:"items"`
	ClearedAt time.Time `json:"cleared_at"`
}
