package command

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/example/printshop/internal/catalog"
	"github.com/example/printshop/internal/domain/cart"
	"github.com/example/printshop/internal/domain/checkout"
	"github.com/example/printshop/internal/domain/material"
	"github.com/example/printshop/internal/domain/quote"
	"github.com/example/printshop/internal/infrastructure/store"
	"github.com/example/printshop/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrItemNotFound           = errors.New("cart item not found")
	ErrUnknownColor           = errors.New("color is not offered for this material")
	ErrUnsupportedLayerHeight = errors.New("layer height is outside the material's range")
	ErrInvalidVolume          = errors.New("invalid model volume")
)

const lockStripes = 64

type Handler struct {
	carts     *repository.CartRepository
	materials material.Lookup
	products  catalog.ProductLookup
	coupons   *checkout.Registry
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time

	// One request at a time per session keeps load-mutate-save atomic.
	locks [lockStripes]sync.Mutex
}

func NewHandler(
	carts *repository.CartRepository,
	materials material.Lookup,
	products catalog.ProductLookup,
	coupons *checkout.Registry,
	publisher EventPublisher,
	logger *zap.Logger,
) *Handler {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &Handler{
		carts:     carts,
		materials: materials,
		products:  products,
		coupons:   coupons,
		publisher: publisher,
		logger:    logger.Named("command"),
		now:       time.Now,
	}
}

// AddProduct configures a catalog product and adds it to the session's cart
func (h *Handler) AddProduct(ctx context.Context, cmd AddProduct) (cart.LineItem, error) {
	p, ok := h.products.Product(cmd.ProductID)
	if !ok {
		return cart.LineItem{}, fmt.Errorf("%w: %s", catalog.ErrProductNotFound, cmd.ProductID)
	}
	if err := h.checkConfiguration(cmd.MaterialID, cmd.Color, cmd.LayerHeight); err != nil {
		return cart.LineItem{}, err
	}

	in := cart.AddItemInput{
		Source:           cart.ProductRef{ID: p.ID, Name: p.Name, Price: p.Price, Images: p.Images},
		MaterialID:       cmd.MaterialID,
		Color:            cmd.Color,
		InfillPercentage: cmd.InfillPercentage,
		LayerHeight:      cmd.LayerHeight,
		Quantity:         cmd.Quantity,
	}
	return h.addItem(ctx, cmd.SessionID, in)
}

// AddModel adds an analyzed upload. The scale is baked into the stored volume and
// dimensions so pricing never applies it a second time.
func (h *Handler) AddModel(ctx context.Context, cmd AddModel) (cart.LineItem, error) {
	if err := quote.ValidateVolume(cmd.VolumeCm3, cmd.ScalePercentage); err != nil {
		return cart.LineItem{}, fmt.Errorf("%w: %w", ErrInvalidVolume, err)
	}
	if err := h.checkConfiguration(cmd.MaterialID, cmd.Color, cmd.LayerHeight); err != nil {
		return cart.LineItem{}, err
	}

	modelID := cmd.ModelID
	if modelID == "" {
		modelID = uuid.New().String()
	}
	linear := 1.0
	if cmd.ScalePercentage > 0 {
		linear = cmd.ScalePercentage / 100
	}

	in := cart.AddItemInput{
		Source: cart.ModelRef{
			ID:        modelID,
			FileName:  cmd.FileName,
			VolumeCm3: quote.ScaleVolume(cmd.VolumeCm3, cmd.ScalePercentage),
			Dimensions: cart.Dimensions{
				X: cmd.Dimensions.X * linear,
				Y: cmd.Dimensions.Y * linear,
				Z: cmd.Dimensions.Z * linear,
			},
		},
		MaterialID:       cmd.MaterialID,
		Color:            cmd.Color,
		InfillPercentage: cmd.InfillPercentage,
		LayerHeight:      cmd.LayerHeight,
		Quantity:         cmd.Quantity,
	}
	return h.addItem(ctx, cmd.SessionID, in)
}

func (h *Handler) addItem(ctx context.Context, sessionID string, in cart.AddItemInput) (cart.LineItem, error) {
	var item cart.LineItem
	err := h.mutate(ctx, sessionID, func(st *sessionState) error {
		var err error
		item, _, err = st.cart.AddItem(in)
		return err
	})
	return item, err
}

// UpdateQuantity sets an item's quantity. A quantity below 1 removes the item.
func (h *Handler) UpdateQuantity(ctx context.Context, cmd UpdateQuantity) error {
	return h.mutate(ctx, cmd.SessionID, func(st *sessionState) error {
		if !st.cart.UpdateQuantity(cmd.ItemID, cmd.Quantity) {
			return fmt.Errorf("%w: %s", ErrItemNotFound, cmd.ItemID)
		}
		return nil
	})
}

// RemoveItem removes an item from the cart
func (h *Handler) RemoveItem(ctx context.Context, cmd RemoveItem) error {
	return h.mutate(ctx, cmd.SessionID, func(st *sessionState) error {
		if !st.cart.RemoveItem(cmd.ItemID) {
			return fmt.Errorf("%w: %s", ErrItemNotFound, cmd.ItemID)
		}
		return nil
	})
}

// ChangeConfiguration switches an item's material and color, merging it into an
// existing item with the same configuration.
func (h *Handler) ChangeConfiguration(ctx context.Context, cmd ChangeConfiguration) (cart.LineItem, error) {
	var result cart.LineItem
	err := h.mutate(ctx, cmd.SessionID, func(st *sessionState) error {
		current, ok := st.cart.Item(cmd.ItemID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrItemNotFound, cmd.ItemID)
		}
		if err := h.checkConfiguration(cmd.MaterialID, cmd.Color, current.LayerHeight); err != nil {
			return err
		}
		item, _, err := st.cart.ChangeConfiguration(cmd.ItemID, cmd.MaterialID, cmd.Color)
		result = item
		return err
	})
	return result, err
}

// ClearCart removes every item. The applied coupon stays.
func (h *Handler) ClearCart(ctx context.Context, cmd ClearCart) error {
	return h.mutate(ctx, cmd.SessionID, func(st *sessionState) error {
		st.cart.Clear()
		return nil
	})
}

// ApplyCoupon replaces the session's coupon. Invalid codes leave the current one in place.
func (h *Handler) ApplyCoupon(ctx context.Context, cmd ApplyCoupon) (checkout.Coupon, error) {
	var applied checkout.Coupon
	err := h.mutate(ctx, cmd.SessionID, func(st *sessionState) error {
		c, err := st.coupons.ApplyCoupon(cmd.Code)
		if err != nil {
			return err
		}
		applied = c
		st.record(checkout.EventCouponApplied, checkout.CouponApplied{
			SessionID:          cmd.SessionID,
			Code:               c.Code,
			DiscountPercentage: c.DiscountPercentage,
			AppliedAt:          h.now(),
		})
		return nil
	})
	return applied, err
}

// RemoveCoupon drops the session's coupon, if any
func (h *Handler) RemoveCoupon(ctx context.Context, cmd RemoveCoupon) error {
	return h.mutate(ctx, cmd.SessionID, func(st *sessionState) error {
		code := st.coupons.Code()
		if code == "" {
			return nil
		}
		st.coupons.RemoveCoupon()
		st.record(checkout.EventCouponRemoved, checkout.CouponRemoved{
			SessionID: cmd.SessionID,
			Code:      code,
			RemovedAt: h.now(),
		})
		return nil
	})
}

// checkConfiguration refuses materials, colors and layer heights the catalog does not offer.
func (h *Handler) checkConfiguration(materialID, color string, layerHeight float64) error {
	if materialID == "" {
		return cart.ErrMissingMaterial
	}
	m, ok := h.materials.Material(materialID)
	if !ok {
		return fmt.Errorf("%w: %s", material.ErrMaterialNotFound, materialID)
	}
	if strings.TrimSpace(color) == "" {
		return cart.ErrMissingColor
	}
	if !m.HasColor(color) {
		return fmt.Errorf("%w: %s/%s", ErrUnknownColor, materialID, color)
	}
	if layerHeight > 0 && !m.SupportsLayerHeight(layerHeight) {
		return fmt.Errorf("%w: %gmm for %s", ErrUnsupportedLayerHeight, layerHeight, materialID)
	}
	return nil
}

// sessionState is one request's view of a session
type sessionState struct {
	cart    *cart.Cart
	coupons *checkout.Session
	events  []cart.Event
}

func (s *sessionState) record(eventType string, data any) {
	s.events = append(s.events, cart.Event{Type: eventType, Data: data})
}

// mutate loads the session, applies fn, saves, then publishes what fn recorded.
// Nothing is saved or published when fn fails.
func (h *Handler) mutate(ctx context.Context, sessionID string, fn func(*sessionState) error) error {
	if sessionID == "" {
		return store.ErrEmptySessionID
	}
	unlock := h.lock(sessionID)
	defer unlock()

	loaded, err := h.carts.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	st := &sessionState{
		cart:    loaded.Cart,
		coupons: checkout.NewSession(h.coupons),
	}
	st.coupons.Restore(loaded.CouponCode)

	if err := fn(st); err != nil {
		return err
	}

	if err := h.carts.Save(ctx, repository.CartState{Cart: st.cart, CouponCode: st.coupons.Code()}); err != nil {
		return err
	}

	events := append(st.cart.PendingEvents(), st.events...)
	st.cart.ClearEvents()
	h.publish(ctx, sessionID, events)
	return nil
}

// publish never fails the command: the cart is already saved. Sequence is the
// 1-based position of each event within this command, not a per-session counter;
// consumers order a session's events by partition offset.
func (h *Handler) publish(ctx context.Context, sessionID string, events []cart.Event) {
	now := h.now()
	for i, e := range events {
		envelope, err := store.NewEvent(sessionID, cart.AggregateType, e.Type, e.Data, i+1, now)
		if err != nil {
			h.logger.Error("failed to encode event", zap.String("event_type", e.Type), zap.Error(err))
			continue
		}
		if err := h.publisher.Publish(ctx, sessionID, envelope); err != nil {
			h.logger.Warn("failed to publish event",
				zap.String("session_id", sessionID),
				zap.String("event_type", e.Type),
				zap.Error(err))
		}
	}
}

func (h *Handler) lock(sessionID string) func() {
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(sessionID))
	m := &h.locks[hash.Sum32()%lockStripes]
	m.Lock()
	return m.Unlock
}
