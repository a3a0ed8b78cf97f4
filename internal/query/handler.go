package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/printshop/internal/catalog"
	"github.com/example/printshop/internal/domain/cart"
	"github.com/example/printshop/internal/domain/checkout"
	"github.com/example/printshop/internal/domain/material"
	"github.com/example/printshop/internal/domain/quote"
	"github.com/example/printshop/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Catalog lists and resolves reference data
type Catalog interface {
	material.Lookup
	Materials() []material.Material
	Products() []catalog.Product
}

type Handler struct {
	carts     *repository.CartRepository
	materials Catalog
	coupons   *checkout.Registry
	rules     checkout.Rules
	logger    *zap.Logger
}

func NewHandler(
	carts *repository.CartRepository,
	materials Catalog,
	coupons *checkout.Registry,
	rules checkout.Rules,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		carts:     carts,
		materials: materials,
		coupons:   coupons,
		rules:     rules,
		logger:    logger.Named("query"),
	}
}

// Catalog
func (h *Handler) ListMaterials() []MaterialView {
	return h.materials.Materials()
}

func (h *Handler) ListProducts() []ProductView {
	return h.materials.Products()
}

// Cart
func (h *Handler) GetCart(ctx context.Context, sessionID string) (*CartView, error) {
	state, err := h.carts.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return h.cartView(state), nil
}

// GetSummary prices the cart and applies the session's coupon, shipping and tax
func (h *Handler) GetSummary(ctx context.Context, sessionID string) (*SummaryView, error) {
	state, err := h.carts.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	view := h.cartView(state)

	var coupon *checkout.Coupon
	if c, ok := h.coupons.Lookup(state.CouponCode); ok && state.CouponCode != "" {
		coupon = &c
	}
	return &SummaryView{
		Summary:   h.rules.Summarize(view.Subtotal, coupon),
		ItemCount: view.ItemCount,
	}, nil
}

// Quote prices a configuration without touching any cart
func (h *Handler) Quote(req QuoteRequest) (*QuoteView, error) {
	m, ok := h.materials.Material(req.MaterialID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", material.ErrMaterialNotFound, req.MaterialID)
	}
	priority, err := quote.ParsePriority(req.Priority)
	if err != nil {
		return nil, err
	}

	in := quote.Input{
		VolumeCm3:        req.VolumeCm3,
		Material:         m,
		InfillPercentage: req.InfillPercentage,
		LayerHeight:      req.LayerHeight,
		ScalePercentage:  req.ScalePercentage,
		Quantity:         req.Quantity,
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	in = in.Normalize()

	return &QuoteView{
		MaterialID:      m.ID,
		Priority:        priority,
		Quantity:        in.Quantity,
		ScalePercentage: in.ScalePercentage,
		Result:          quote.Calculate(in, priority),
	}, nil
}

func (h *Handler) cartView(state repository.CartState) *CartView {
	c := state.Cart
	view := &CartView{
		SessionID:  c.SessionID(),
		Items:      make([]ItemView, 0, c.Len()),
		Subtotal:   c.Subtotal(h.materials),
		ItemCount:  c.ItemCount(),
		CouponCode: state.CouponCode,
	}
	for _, item := range c.Items() {
		view.Items = append(view.Items, h.itemView(item))
	}
	return view
}

func (h *Handler) itemView(item cart.LineItem) ItemView {
	iv := ItemView{
		ID:               item.ID,
		Kind:             item.Source.Kind(),
		MaterialID:       item.MaterialID,
		Color:            item.Color,
		InfillPercentage: item.InfillPercentage,
		LayerHeight:      item.LayerHeight,
		Quantity:         item.Quantity,
		CreatedAt:        item.CreatedAt,
	}
	if p, ok := item.Product(); ok {
		iv.Product = &p
		iv.Name = p.Name
	}
	if m, ok := item.Model(); ok {
		iv.Model = &m
		iv.Name = m.FileName
	}
	if m, ok := h.materials.Material(item.MaterialID); ok {
		iv.MaterialName = m.Name
		if color, ok := m.Color(item.Color); ok {
			iv.ColorHex = color.Hex
		}
	}

	price, err := cart.ItemPrice(item, h.materials)
	if err != nil {
		if !errors.Is(err, material.ErrMaterialNotFound) {
			h.logger.Error("failed to price item", zap.String("item_id", item.ID), zap.Error(err))
		}
		iv.Unavailable = true
		iv.UnitPrice = decimal.Zero
		iv.Price = decimal.Zero
		return iv
	}
	iv.Price = price
	iv.UnitPrice = price.Div(decimal.NewFromInt(int64(item.Quantity)))
	return iv
}
