package cart

import (
	"errors"
	"fmt"
	"time"

	"github.com/example/printshop/internal/domain/material"
	"github.com/example/printshop/internal/domain/quote"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const AggregateType = "Cart"

var (
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrMissingSource      = errors.New("product or model id is required")
	ErrMissingMaterial    = errors.New("material_id is required")
	ErrMissingColor       = errors.New("color is required")
	ErrInvalidInfill      = errors.New("infill_percentage must be between 0 and 100")
	ErrInvalidLayerHeight = errors.New("layer_height must be positive")
)

// AddItemInput is a configuration the customer committed to the cart.
type AddItemInput struct {
	Source           Source
	MaterialID       string
	Color            string
	InfillPercentage float64
	LayerHeight      float64
	Quantity         int
}

func (in AddItemInput) validate() error {
	if in.Source == nil {
		return ErrInvalidSource
	}
	if in.Source.SourceID() == "" {
		return ErrMissingSource
	}
	if in.MaterialID == "" {
		return ErrMissingMaterial
	}
	if in.Color == "" {
		return ErrMissingColor
	}
	if in.InfillPercentage < 0 || in.InfillPercentage > 100 {
		return ErrInvalidInfill
	}
	if in.LayerHeight <= 0 {
		return ErrInvalidLayerHeight
	}
	if in.Quantity < 1 {
		return ErrInvalidQuantity
	}
	return nil
}

// Cart is the line-item aggregate of one session. Items are unique by ID and by Key;
// all mutation goes through its methods.
type Cart struct {
	sessionID string
	items     []LineItem
	open      bool
	events    []Event

	now   func() time.Time
	newID func() string
}

// Option customizes a Cart, mainly for tests.
type Option func(*Cart)

func WithClock(now func() time.Time) Option {
	return func(c *Cart) { c.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(c *Cart) { c.newID = newID }
}

func New(sessionID string, opts ...Option) *Cart {
	c := &Cart{
		sessionID: sessionID,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Restore rebuilds a cart from persisted items. Items with a non-positive quantity are
// dropped and colliding configurations are merged. No events are recorded.
func Restore(sessionID string, items []LineItem, opts ...Option) *Cart {
	c := New(sessionID, opts...)
	for _, item := range items {
		if item.Quantity < 1 || item.Source == nil {
			continue
		}
		if idx := c.indexOfKey(item.Key()); idx >= 0 {
			c.items[idx].Quantity += item.Quantity
			continue
		}
		if c.indexOf(item.ID) >= 0 {
			item.ID = c.newID()
		}
		c.items = append(c.items, item)
	}
	return c
}

func (c *Cart) SessionID() string { return c.sessionID }

// Items returns a copy of the line items in insertion order.
func (c *Cart) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

// Item returns the line item with the given id.
func (c *Cart) Item(id string) (LineItem, bool) {
	if idx := c.indexOf(id); idx >= 0 {
		return c.items[idx], true
	}
	return LineItem{}, false
}

func (c *Cart) Len() int { return len(c.items) }

// IsOpen reports the cart panel visibility. It is never persisted.
func (c *Cart) IsOpen() bool { return c.open }
func (c *Cart) Open()        { c.open = true }
func (c *Cart) Close()       { c.open = false }

// AddItem merges in into an existing line item with the same configuration or appends
// a new one. The returned bool reports whether a merge happened.
func (c *Cart) AddItem(in AddItemInput) (LineItem, bool, error) {
	if err := in.validate(); err != nil {
		return LineItem{}, false, err
	}

	now := c.now()
	candidate := LineItem{
		Source:           in.Source,
		MaterialID:       in.MaterialID,
		Color:            in.Color,
		InfillPercentage: in.InfillPercentage,
		LayerHeight:      in.LayerHeight,
		Quantity:         in.Quantity,
		SessionID:        c.sessionID,
		CreatedAt:        now,
	}

	merged := false
	var result LineItem
	if idx := c.indexOfKey(candidate.Key()); idx >= 0 {
		c.items[idx].Quantity += in.Quantity
		result = c.items[idx]
		merged = true
	} else {
		candidate.ID = c.newID()
		c.items = append(c.items, candidate)
		result = candidate
	}
	c.open = true

	c.record(EventItemAdded, ItemAdded{
		SessionID:        c.sessionID,
		ItemID:           result.ID,
		SourceKind:       in.Source.Kind(),
		SourceID:         in.Source.SourceID(),
		MaterialID:       in.MaterialID,
		Color:            in.Color,
		InfillPercentage: in.InfillPercentage,
		LayerHeight:      in.LayerHeight,
		Quantity:         in.Quantity,
		NewQuantity:      result.Quantity,
		Merged:           merged,
		AddedAt:          now,
	})
	return result, merged, nil
}

// UpdateQuantity sets the quantity in place. A quantity below 1 removes the item.
// Unknown ids are ignored; the result reports whether the item existed.
func (c *Cart) UpdateQuantity(id string, quantity int) bool {
	if quantity < 1 {
		return c.RemoveItem(id)
	}
	idx := c.indexOf(id)
	if idx < 0 {
		return false
	}
	if c.items[idx].Quantity == quantity {
		return true
	}
	c.items[idx].Quantity = quantity
	c.record(EventQuantityChanged, ItemQuantityChanged{
		SessionID: c.sessionID,
		ItemID:    id,
		Quantity:  quantity,
		ChangedAt: c.now(),
	})
	return true
}

// RemoveItem deletes the line item if present.
func (c *Cart) RemoveItem(id string) bool {
	idx := c.indexOf(id)
	if idx < 0 {
		return false
	}
	c.items = append(c.items[:idx], c.items[idx+1:]...)
	c.record(EventItemRemoved, ItemRemoved{
		SessionID: c.sessionID,
		ItemID:    id,
		RemovedAt: c.now(),
	})
	return true
}

// ChangeConfiguration switches material and color of a line item. If another item
// already has the resulting configuration the two are merged and the surviving item is
// returned.
func (c *Cart) ChangeConfiguration(id, materialID, color string) (LineItem, bool, error) {
	if materialID == "" {
		return LineItem{}, false, ErrMissingMaterial
	}
	if color == "" {
		return LineItem{}, false, ErrMissingColor
	}
	idx := c.indexOf(id)
	if idx < 0 {
		return LineItem{}, false, nil
	}

	updated := c.items[idx]
	updated.MaterialID = materialID
	updated.Color = color
	if updated.Key() == c.items[idx].Key() {
		return updated, true, nil
	}

	event := ItemReconfigured{
		SessionID:  c.sessionID,
		ItemID:     id,
		MaterialID: materialID,
		Color:      color,
		ChangedAt:  c.now(),
	}

	if other := c.indexOfKey(updated.Key()); other >= 0 {
		c.items[other].Quantity += updated.Quantity
		survivor := c.items[other]
		c.items = append(c.items[:idx], c.items[idx+1:]...)
		event.MergedInto = survivor.ID
		c.record(EventItemReconfigured, event)
		return survivor, true, nil
	}

	c.items[idx] = updated
	c.record(EventItemReconfigured, event)
	return updated, true, nil
}

// Clear removes every line item.
func (c *Cart) Clear() {
	n := len(c.items)
	c.items = nil
	if n == 0 {
		return
	}
	c.record(EventCartCleared, CartCleared{
		SessionID: c.sessionID,
		Items:     n,
		ClearedAt: c.now(),
	})
}

// ItemCount is the total quantity across line items.
func (c *Cart) ItemCount() int {
	total := 0
	for _, item := range c.items {
		total += item.Quantity
	}
	return total
}

// ItemPrice prices one line item. Products pay their catalog price plus the color
// modifier; models are priced from their stored volume, which already includes scale.
func ItemPrice(item LineItem, materials material.Lookup) (decimal.Decimal, error) {
	qty := decimal.NewFromInt(int64(item.Quantity))
	mat, found := materials.Material(item.MaterialID)

	switch src := item.Source.(type) {
	case ProductRef:
		modifier := decimal.Zero
		if found {
			modifier = mat.ColorModifier(item.Color)
		}
		return src.Price.Add(modifier).Mul(qty), nil
	case ModelRef:
		if !found {
			return decimal.Zero, fmt.Errorf("%w: %s", material.ErrMaterialNotFound, item.MaterialID)
		}
		return quote.ComputePrice(src.VolumeCm3, mat.PricePerCm3, item.InfillPercentage, item.Quantity), nil
	}
	return decimal.Zero, ErrInvalidSource
}

// ItemPrice prices the line item with the given id.
func (c *Cart) ItemPrice(id string, materials material.Lookup) (decimal.Decimal, error) {
	item, ok := c.Item(id)
	if !ok {
		return decimal.Zero, nil
	}
	return ItemPrice(item, materials)
}

// Subtotal sums ItemPrice over all line items. Items that cannot be priced, such as a
// model whose material left the catalog, are unavailable and count as zero.
func (c *Cart) Subtotal(materials material.Lookup) decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.items {
		if price, err := ItemPrice(item, materials); err == nil {
			total = total.Add(price)
		}
	}
	return total
}

// PendingEvents returns events recorded since the last ClearEvents.
func (c *Cart) PendingEvents() []Event {
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

func (c *Cart) ClearEvents() { c.events = nil }

func (c *Cart) record(eventType string, data any) {
	c.events = append(c.events, Event{Type: eventType, Data: data})
}

func (c *Cart) indexOf(id string) int {
	for i, item := range c.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func (c *Cart) indexOfKey(key Key) int {
	for i, item := range c.items {
		if item.Key() == key {
			return i
		}
	}
	return -1
}
