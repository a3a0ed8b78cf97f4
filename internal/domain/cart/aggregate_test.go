package cart

import (
	"fmt"
	"testing"
	"time"

	"github.com/example/printshop/internal/domain/material"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestCart() *Cart {
	seq := 0
	return New("session-1",
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("item-%d", seq)
		}),
	)
}

func testMaterials() *material.Set {
	return material.NewSet(
		material.Material{
			ID:          "pla",
			Name:        "PLA",
			PricePerCm3: decimal.RequireFromString("0.05"),
			Colors: []material.Color{
				{Name: "Black", Hex: "#000000"},
				{Name: "Gold", Hex: "#d4af37", Premium: true, PriceModifier: decimal.RequireFromString("2.50")},
			},
		},
		material.Material{
			ID:          "petg",
			Name:        "PETG",
			PricePerCm3: decimal.RequireFromString("0.08"),
			Colors:      []material.Color{{Name: "Clear", Hex: "#ffffff"}},
		},
	)
}

func productX() ProductRef {
	return ProductRef{ID: "prod-x", Name: "Desk Organizer", Price: decimal.RequireFromString("20")}
}

func vase() ModelRef {
	return ModelRef{ID: "model-1", FileName: "vase.stl", VolumeCm3: 50, Dimensions: Dimensions{X: 5, Y: 5, Z: 12}}
}

func productInput(qty int) AddItemInput {
	return AddItemInput{
		Source:           productX(),
		MaterialID:       "pla",
		Color:            "Black",
		InfillPercentage: 20,
		LayerHeight:      0.2,
		Quantity:         qty,
	}
}

func modelInput(qty int) AddItemInput {
	return AddItemInput{
		Source:           vase(),
		MaterialID:       "pla",
		Color:            "Black",
		InfillPercentage: 20,
		LayerHeight:      0.2,
		Quantity:         qty,
	}
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	want := decimal.RequireFromString(expected)
	assert.True(t, want.Equal(actual), "expected %s, got %s", want, actual)
}

// ============================================
// Add Item Tests
// ============================================

func TestCart_AddItem_New(t *testing.T) {
	c := newTestCart()

	item, merged, err := c.AddItem(productInput(2))

	require.NoError(t, err)
	assert.False(t, merged)
	assert.Equal(t, "item-1", item.ID)
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, "session-1", item.SessionID)
	assert.Equal(t, fixedNow, item.CreatedAt)
	assert.Equal(t, 1, c.Len())
	assert.True(t, c.IsOpen())
}

func TestCart_AddItem_MergesSameConfiguration(t *testing.T) {
	c := newTestCart()

	first, _, err := c.AddItem(productInput(2))
	require.NoError(t, err)
	second, merged, err := c.AddItem(productInput(3))
	require.NoError(t, err)

	assert.True(t, merged)
	assert.Equal(t, first.ID, second.ID)
	require.Equal(t, 1, c.Len())
	assert.Equal(t, 5, c.Items()[0].Quantity)

	assertDecimal(t, "100", c.Subtotal(testMaterials()))
}

func TestCart_AddItem_DifferentConfigurationsStaySeparate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *AddItemInput)
	}{
		{"color", func(in *AddItemInput) { in.Color = "Gold" }},
		{"material", func(in *AddItemInput) { in.MaterialID = "petg"; in.Color = "Clear" }},
		{"infill", func(in *AddItemInput) { in.InfillPercentage = 40 }},
		{"layer height", func(in *AddItemInput) { in.LayerHeight = 0.1 }},
		{"source", func(in *AddItemInput) { in.Source = vase() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCart()
			_, _, err := c.AddItem(productInput(1))
			require.NoError(t, err)

			in := productInput(1)
			tt.mutate(&in)
			_, merged, err := c.AddItem(in)

			require.NoError(t, err)
			assert.False(t, merged)
			assert.Equal(t, 2, c.Len())
		})
	}
}

func TestCart_AddItem_ProductAndModelWithSameIDDoNotMerge(t *testing.T) {
	c := newTestCart()
	_, _, err := c.AddItem(productInput(1))
	require.NoError(t, err)

	in := modelInput(1)
	in.Source = ModelRef{ID: "prod-x", FileName: "clash.stl", VolumeCm3: 10}
	_, merged, err := c.AddItem(in)

	require.NoError(t, err)
	assert.False(t, merged)
	assert.Equal(t, 2, c.Len())
}

func TestCart_AddItem_Validation(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(in *AddItemInput)
		expectedErr error
	}{
		{"nil source", func(in *AddItemInput) { in.Source = nil }, ErrInvalidSource},
		{"empty product id", func(in *AddItemInput) { in.Source = ProductRef{} }, ErrMissingSource},
		{"missing material", func(in *AddItemInput) { in.MaterialID = "" }, ErrMissingMaterial},
		{"missing color", func(in *AddItemInput) { in.Color = "" }, ErrMissingColor},
		{"infill below range", func(in *AddItemInput) { in.InfillPercentage = -1 }, ErrInvalidInfill},
		{"infill above range", func(in *AddItemInput) { in.InfillPercentage = 101 }, ErrInvalidInfill},
		{"zero layer height", func(in *AddItemInput) { in.LayerHeight = 0 }, ErrInvalidLayerHeight},
		{"zero quantity", func(in *AddItemInput) { in.Quantity = 0 }, ErrInvalidQuantity},
		{"negative quantity", func(in *AddItemInput) { in.Quantity = -2 }, ErrInvalidQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCart()
			in := productInput(1)
			tt.mutate(&in)

			_, _, err := c.AddItem(in)

			assert.ErrorIs(t, err, tt.expectedErr)
			assert.Equal(t, 0, c.Len())
			assert.Empty(t, c.PendingEvents())
			assert.False(t, c.IsOpen())
		})
	}
}

func TestCart_AddItem_BoundaryInfillAccepted(t *testing.T) {
	c := newTestCart()
	for _, infill := range []float64{0, 100} {
		in := productInput(1)
		in.InfillPercentage = infill
		_, _, err := c.AddItem(in)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Len())
}

// ============================================
// Quantity / Removal Tests
// ============================================

func TestCart_UpdateQuantity(t *testing.T) {
	c := newTestCart()
	a, _, _ := c.AddItem(productInput(1))
	b, _, _ := c.AddItem(modelInput(1))

	assert.True(t, c.UpdateQuantity(a.ID, 7))

	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, a.ID, items[0].ID)
	assert.Equal(t, 7, items[0].Quantity)
	assert.Equal(t, b.ID, items[1].ID)
}

func TestCart_UpdateQuantity_UnknownIDIsNoop(t *testing.T) {
	c := newTestCart()
	_, _, _ = c.AddItem(productInput(1))
	c.ClearEvents()

	assert.False(t, c.UpdateQuantity("missing", 3))
	assert.False(t, c.UpdateQuantity("missing", 0))
	assert.Equal(t, 1, c.ItemCount())
	assert.Empty(t, c.PendingEvents())
}

func TestCart_DecrementToZeroMatchesRemoval(t *testing.T) {
	for _, qty := range []int{0, -1} {
		t.Run(fmt.Sprintf("quantity %d", qty), func(t *testing.T) {
			viaUpdate := newTestCart()
			viaRemove := newTestCart()
			for _, c := range []*Cart{viaUpdate, viaRemove} {
				_, _, _ = c.AddItem(productInput(2))
				_, _, _ = c.AddItem(modelInput(1))
			}

			assert.True(t, viaUpdate.UpdateQuantity("item-1", qty))
			assert.True(t, viaRemove.RemoveItem("item-1"))

			assert.Equal(t, viaRemove.Items(), viaUpdate.Items())
			assert.Equal(t, viaRemove.PendingEvents(), viaUpdate.PendingEvents())
			_, found := viaUpdate.Item("item-1")
			assert.False(t, found)
		})
	}
}

func TestCart_RemoveItem(t *testing.T) {
	c := newTestCart()
	a, _, _ := c.AddItem(productInput(1))

	assert.True(t, c.RemoveItem(a.ID))
	assert.False(t, c.RemoveItem(a.ID))
	assert.Equal(t, 0, c.Len())
}

func TestCart_Clear(t *testing.T) {
	c := newTestCart()
	_, _, _ = c.AddItem(productInput(1))
	_, _, _ = c.AddItem(modelInput(2))
	c.ClearEvents()

	c.Clear()

	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 0, c.ItemCount())
	events := c.PendingEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventCartCleared, events[0].Type)
	assert.Equal(t, 2, events[0].Data.(CartCleared).Items)
}

func TestCart_ClearEmptyRecordsNothing(t *testing.T) {
	c := newTestCart()
	c.Clear()
	assert.Empty(t, c.PendingEvents())
}

// ============================================
// Reconfiguration Tests
// ============================================

func TestCart_ChangeConfiguration(t *testing.T) {
	c := newTestCart()
	a, _, _ := c.AddItem(productInput(2))

	updated, found, err := c.ChangeConfiguration(a.ID, "pla", "Gold")

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, a.ID, updated.ID)
	assert.Equal(t, "Gold", updated.Color)
	assert.Equal(t, 2, updated.Quantity)
}

func TestCart_ChangeConfiguration_MergesIntoExisting(t *testing.T) {
	c := newTestCart()
	black, _, _ := c.AddItem(productInput(2))
	gold := productInput(3)
	gold.Color = "Gold"
	goldItem, _, _ := c.AddItem(gold)

	survivor, found, err := c.ChangeConfiguration(goldItem.ID, "pla", "Black")

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, black.ID, survivor.ID)
	assert.Equal(t, 5, survivor.Quantity)
	require.Equal(t, 1, c.Len())

	events := c.PendingEvents()
	last := events[len(events)-1]
	assert.Equal(t, EventItemReconfigured, last.Type)
	assert.Equal(t, black.ID, last.Data.(ItemReconfigured).MergedInto)
}

func TestCart_ChangeConfiguration_UnknownID(t *testing.T) {
	c := newTestCart()
	_, found, err := c.ChangeConfiguration("missing", "pla", "Gold")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCart_ChangeConfiguration_Validation(t *testing.T) {
	c := newTestCart()
	a, _, _ := c.AddItem(productInput(1))

	_, _, err := c.ChangeConfiguration(a.ID, "", "Gold")
	assert.ErrorIs(t, err, ErrMissingMaterial)
	_, _, err = c.ChangeConfiguration(a.ID, "pla", "")
	assert.ErrorIs(t, err, ErrMissingColor)
}

// ============================================
// Pricing Tests
// ============================================

func TestItemPrice_Product(t *testing.T) {
	materials := testMaterials()
	tests := []struct {
		name     string
		material string
		color    string
		qty      int
		expected string
	}{
		{"standard color", "pla", "Black", 2, "40"},
		{"premium color", "pla", "Gold", 2, "45"},
		{"renamed color", "pla", "Midnight", 1, "20"},
		{"unknown material", "resin", "Black", 3, "60"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := LineItem{Source: productX(), MaterialID: tt.material, Color: tt.color, Quantity: tt.qty}
			price, err := ItemPrice(item, materials)
			require.NoError(t, err)
			assertDecimal(t, tt.expected, price)
		})
	}
}

func TestItemPrice_ModelIgnoresScale(t *testing.T) {
	// volume already includes scale; 50cm3 * 20% * 0.05 * 3
	item := LineItem{Source: vase(), MaterialID: "pla", Color: "Black", InfillPercentage: 20, LayerHeight: 0.2, Quantity: 3}
	price, err := ItemPrice(item, testMaterials())
	require.NoError(t, err)
	assertDecimal(t, "1.5", price)
}

func TestItemPrice_ModelUnknownMaterial(t *testing.T) {
	item := LineItem{Source: vase(), MaterialID: "resin", Quantity: 1}
	_, err := ItemPrice(item, testMaterials())
	assert.ErrorIs(t, err, material.ErrMaterialNotFound)
}

func TestCart_ItemPriceUnknownID(t *testing.T) {
	c := newTestCart()
	price, err := c.ItemPrice("missing", testMaterials())
	require.NoError(t, err)
	assert.True(t, price.IsZero())
}

func TestCart_SubtotalIsSumOfItemPrices(t *testing.T) {
	materials := testMaterials()
	c := newTestCart()
	_, _, _ = c.AddItem(productInput(2))
	_, _, _ = c.AddItem(modelInput(4))
	gold := productInput(1)
	gold.Color = "Gold"
	_, _, _ = c.AddItem(gold)

	sum := decimal.Zero
	for _, item := range c.Items() {
		price, err := c.ItemPrice(item.ID, materials)
		require.NoError(t, err)
		sum = sum.Add(price)
	}

	subtotal := c.Subtotal(materials)
	assert.True(t, sum.Equal(subtotal))
	assertDecimal(t, "64.5", subtotal)
}

func TestCart_SubtotalOrderIndependent(t *testing.T) {
	materials := testMaterials()
	inputs := []AddItemInput{productInput(2), modelInput(4), productInput(1)}
	inputs[2].Color = "Gold"

	orders := [][]int{{0, 1, 2}, {2, 1, 0}, {1, 0, 2}}
	var subtotals []decimal.Decimal
	for _, order := range orders {
		c := newTestCart()
		for _, i := range order {
			_, _, err := c.AddItem(inputs[i])
			require.NoError(t, err)
		}
		subtotals = append(subtotals, c.Subtotal(materials))
	}

	for _, s := range subtotals[1:] {
		assert.True(t, subtotals[0].Equal(s))
	}
}

func TestCart_SubtotalSkipsStaleModelMaterial(t *testing.T) {
	materials := testMaterials()
	c := newTestCart()
	_, _, _ = c.AddItem(productInput(2))
	stale := modelInput(1)
	stale.MaterialID = "discontinued"
	item, _, err := c.AddItem(stale)
	require.NoError(t, err)

	_, err = c.ItemPrice(item.ID, materials)
	assert.ErrorIs(t, err, material.ErrMaterialNotFound)

	withoutStale := newTestCart()
	_, _, _ = withoutStale.AddItem(productInput(2))
	assert.True(t, withoutStale.Subtotal(materials).Equal(c.Subtotal(materials)))
	assert.True(t, c.Subtotal(materials).IsPositive())
}

func TestCart_ItemCountSumsQuantities(t *testing.T) {
	c := newTestCart()
	_, _, _ = c.AddItem(productInput(2))
	_, _, _ = c.AddItem(modelInput(4))
	_, _, _ = c.AddItem(productInput(1))

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 7, c.ItemCount())
}

// ============================================
// Events / Restore Tests
// ============================================

func TestCart_EventsSequence(t *testing.T) {
	c := newTestCart()
	a, _, _ := c.AddItem(productInput(2))
	_, _, _ = c.AddItem(productInput(1))
	c.UpdateQuantity(a.ID, 9)
	c.RemoveItem(a.ID)

	events := c.PendingEvents()
	require.Len(t, events, 4)
	assert.Equal(t, EventItemAdded, events[0].Type)
	assert.False(t, events[0].Data.(ItemAdded).Merged)
	assert.Equal(t, EventItemAdded, events[1].Type)
	assert.True(t, events[1].Data.(ItemAdded).Merged)
	assert.Equal(t, 3, events[1].Data.(ItemAdded).NewQuantity)
	assert.Equal(t, EventQuantityChanged, events[2].Type)
	assert.Equal(t, EventItemRemoved, events[3].Type)

	c.ClearEvents()
	assert.Empty(t, c.PendingEvents())
}

func TestCart_ItemsReturnsCopy(t *testing.T) {
	c := newTestCart()
	_, _, _ = c.AddItem(productInput(2))

	items := c.Items()
	items[0].Quantity = 99

	assert.Equal(t, 2, c.ItemCount())
}

func TestRestore_MergesDuplicatesAndDropsEmpty(t *testing.T) {
	items := []LineItem{
		{ID: "a", Source: productX(), MaterialID: "pla", Color: "Black", InfillPercentage: 20, LayerHeight: 0.2, Quantity: 2},
		{ID: "b", Source: productX(), MaterialID: "pla", Color: "Black", InfillPercentage: 20, LayerHeight: 0.2, Quantity: 3},
		{ID: "c", Source: vase(), MaterialID: "pla", Color: "Black", InfillPercentage: 20, LayerHeight: 0.2, Quantity: 0},
		{ID: "a", Source: vase(), MaterialID: "pla", Color: "Black", InfillPercentage: 20, LayerHeight: 0.2, Quantity: 1},
	}

	c := Restore("session-1", items, WithIDGenerator(func() string { return "fresh" }))

	restored := c.Items()
	require.Len(t, restored, 2)
	assert.Equal(t, "a", restored[0].ID)
	assert.Equal(t, 5, restored[0].Quantity)
	assert.Equal(t, "fresh", restored[1].ID)
	assert.Empty(t, c.PendingEvents())
	assert.False(t, c.IsOpen())
}

func TestCart_Visibility(t *testing.T) {
	c := newTestCart()
	assert.False(t, c.IsOpen())
	c.Open()
	assert.True(t, c.IsOpen())
	c.Close()
	assert.False(t, c.IsOpen())
}
