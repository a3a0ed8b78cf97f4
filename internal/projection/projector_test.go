package projection

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/example/printshop/internal/domain/cart"
	"github.com/example/printshop/internal/domain/checkout"
	"github.com/example/printshop/internal/infrastructure/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestProjector() *Projector {
	return NewProjector(zap.NewNop())
}

func makeEvent(t *testing.T, sessionID, eventType string, data any, minute int) []byte {
	t.Helper()
	event, err := store.NewEvent(sessionID, cart.AggregateType, eventType, data, 1, baseTime.Add(time.Duration(minute)*time.Minute))
	require.NoError(t, err)
	value, err := json.Marshal(event)
	require.NoError(t, err)
	return value
}

func handle(t *testing.T, p *Projector, sessionID, eventType string, data any, minute int) {
	t.Helper()
	require.NoError(t, p.HandleEvent(context.Background(), []byte(sessionID), makeEvent(t, sessionID, eventType, data, minute)))
}

// ============================================
// Cart Event Tests
// ============================================

func TestProjector_ItemLifecycle(t *testing.T) {
	p := newTestProjector()

	handle(t, p, "s1", cart.EventItemAdded, cart.ItemAdded{ItemID: "a", MaterialID: "pla", Quantity: 2, NewQuantity: 2}, 0)
	handle(t, p, "s1", cart.EventItemAdded, cart.ItemAdded{ItemID: "a", MaterialID: "pla", Quantity: 1, NewQuantity: 3, Merged: true}, 1)
	handle(t, p, "s1", cart.EventItemAdded, cart.ItemAdded{ItemID: "b", MaterialID: "petg", Quantity: 1, NewQuantity: 1}, 2)
	handle(t, p, "s1", cart.EventQuantityChanged, cart.ItemQuantityChanged{ItemID: "b", Quantity: 4}, 3)

	s, ok := p.Session("s1")
	require.True(t, ok)
	assert.Equal(t, map[string]int{"a": 3, "b": 4}, s.Items)
	assert.Equal(t, 7, s.Units())
	assert.Equal(t, 4, s.Events)
	assert.True(t, baseTime.Add(3*time.Minute).Equal(s.LastEventAt))

	handle(t, p, "s1", cart.EventItemRemoved, cart.ItemRemoved{ItemID: "a"}, 4)
	s, _ = p.Session("s1")
	assert.Equal(t, map[string]int{"b": 4}, s.Items)

	stats := p.Stats()
	assert.Equal(t, 1, stats.Sessions)
	assert.Equal(t, 1, stats.OpenCarts)
	assert.Equal(t, 4, stats.Units)
	assert.Equal(t, map[string]int{"pla": 3, "petg": 1}, stats.MaterialUnits)
	assert.Equal(t, 3, stats.EventCounts[cart.EventItemAdded])
}

func TestProjector_ReconfigureMerge(t *testing.T) {
	p := newTestProjector()
	handle(t, p, "s1", cart.EventItemAdded, cart.ItemAdded{ItemID: "a", MaterialID: "pla", Quantity: 2, NewQuantity: 2}, 0)
	handle(t, p, "s1", cart.EventItemAdded, cart.ItemAdded{ItemID: "b", MaterialID: "petg", Quantity: 3, NewQuantity: 3}, 1)

	handle(t, p, "s1", cart.EventItemReconfigured, cart.ItemReconfigured{ItemID: "b", MaterialID: "pla", Color: "Black", MergedInto: "a"}, 2)

	s, _ := p.Session("s1")
	assert.Equal(t, map[string]int{"a": 5}, s.Items)
}

func TestProjector_ReconfigureInPlace(t *testing.T) {
	p := newTestProjector()
	handle(t, p, "s1", cart.EventItemAdded, cart.ItemAdded{ItemID: "a", MaterialID: "pla", Quantity: 2, NewQuantity: 2}, 0)

	handle(t, p, "s1", cart.EventItemReconfigured, cart.ItemReconfigured{ItemID: "a", MaterialID: "petg", Color: "Clear"}, 1)

	s, _ := p.Session("s1")
	assert.Equal(t, map[string]int{"a": 2}, s.Items)
}

func TestProjector_CartCleared(t *testing.T) {
	p := newTestProjector()
	handle(t, p, "s1", cart.EventItemAdded, cart.ItemAdded{ItemID: "a", MaterialID: "pla", Quantity: 2, NewQuantity: 2}, 0)

	handle(t, p, "s1", cart.EventCartCleared, cart.CartCleared{Items: 1}, 1)

	s, _ := p.Session("s1")
	assert.Empty(t, s.Items)
	assert.Equal(t, 0, p.Stats().OpenCarts)
}

// ============================================
// Coupon Event Tests
// ============================================

func TestProjector_Coupons(t *testing.T) {
	p := newTestProjector()

	handle(t, p, "s1", checkout.EventCouponApplied, checkout.CouponApplied{Code: "SAVE20", DiscountPercentage: decimal.NewFromInt(20)}, 0)
	s, _ := p.Session("s1")
	assert.Equal(t, "SAVE20", s.CouponCode)

	handle(t, p, "s1", checkout.EventCouponRemoved, checkout.CouponRemoved{Code: "SAVE20"}, 1)
	s, _ = p.Session("s1")
	assert.Empty(t, s.CouponCode)
	assert.Equal(t, map[string]int{"SAVE20": 1}, p.Stats().CouponUses)
}

// ============================================
// Stream Handling Tests
// ============================================

func TestProjector_IgnoresOtherAggregates(t *testing.T) {
	p := newTestProjector()
	event, err := store.NewEvent("order-1", "Order", "OrderPlaced", map[string]string{}, 1, baseTime)
	require.NoError(t, err)
	value, _ := json.Marshal(event)

	require.NoError(t, p.HandleEvent(context.Background(), nil, value))

	assert.Equal(t, 0, p.Stats().Sessions)
}

func TestProjector_Errors(t *testing.T) {
	p := newTestProjector()

	err := p.HandleEvent(context.Background(), nil, []byte("not json"))
	assert.Error(t, err)

	bad, _ := json.Marshal(store.Event{
		AggregateID:   "s1",
		AggregateType: cart.AggregateType,
		EventType:     cart.EventItemAdded,
		Data:          json.RawMessage(`"wrong shape"`),
	})
	err = p.HandleEvent(context.Background(), nil, bad)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), cart.EventItemAdded)
}

func TestProjector_SessionsOrderedByActivity(t *testing.T) {
	p := newTestProjector()
	handle(t, p, "old", cart.EventItemAdded, cart.ItemAdded{ItemID: "a", Quantity: 1, NewQuantity: 1}, 0)
	handle(t, p, "new", cart.EventItemAdded, cart.ItemAdded{ItemID: "b", Quantity: 1, NewQuantity: 1}, 5)

	sessions := p.Sessions()

	require.Len(t, sessions, 2)
	assert.Equal(t, "new", sessions[0].SessionID)
	assert.Equal(t, "old", sessions[1].SessionID)
}

func TestProjector_SessionIsACopy(t *testing.T) {
	p := newTestProjector()
	handle(t, p, "s1", cart.EventItemAdded, cart.ItemAdded{ItemID: "a", Quantity: 1, NewQuantity: 1}, 0)

	s, _ := p.Session("s1")
	s.Items["a"] = 99

	again, _ := p.Session("s1")
	assert.Equal(t, 1, again.Items["a"])
}
