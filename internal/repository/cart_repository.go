package repository

import (
	"context"
	"fmt"

	"github.com/example/printshop/internal/domain/cart"
	"github.com/example/printshop/internal/infrastructure/store"
	"go.uber.org/zap"
)

// CartState is what a session keeps between requests: its items and the applied
// coupon code.
type CartState struct {
	Cart       *cart.Cart
	CouponCode string
}

// CartRepository turns opaque store payloads into carts and back.
type CartRepository struct {
	store  store.CartStore
	logger *zap.Logger
	opts   []cart.Option
}

func NewCartRepository(s store.CartStore, logger *zap.Logger, opts ...cart.Option) *CartRepository {
	return &CartRepository{
		store:  s,
		logger: logger.Named("cart-repository"),
		opts:   opts,
	}
}

// Load rehydrates the session's cart. A missing or unreadable payload yields an empty
// cart; only store failures are returned.
func (r *CartRepository) Load(ctx context.Context, sessionID string) (CartState, error) {
	payload, found, err := r.store.Load(ctx, sessionID)
	if err != nil {
		return CartState{}, fmt.Errorf("load cart: %w", err)
	}
	if !found {
		return CartState{Cart: cart.New(sessionID, r.opts...)}, nil
	}

	snapshot, err := cart.DecodeSnapshot(payload)
	if err != nil {
		r.logger.Warn("discarding unreadable cart payload",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return CartState{Cart: cart.New(sessionID, r.opts...)}, nil
	}

	return CartState{
		Cart:       cart.Restore(sessionID, snapshot.Items, r.opts...),
		CouponCode: snapshot.CouponCode,
	}, nil
}

// Save persists state. An empty cart without a coupon removes the stored payload.
func (r *CartRepository) Save(ctx context.Context, state CartState) error {
	c := state.Cart
	if c.Len() == 0 && state.CouponCode == "" {
		if err := r.store.Delete(ctx, c.SessionID()); err != nil {
			return fmt.Errorf("delete cart: %w", err)
		}
		return nil
	}

	snapshot := c.Snapshot()
	snapshot.CouponCode = state.CouponCode
	payload, err := cart.EncodeSnapshot(snapshot)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := r.store.Save(ctx, c.SessionID(), payload); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}
