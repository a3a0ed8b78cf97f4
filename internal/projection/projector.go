package projection

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/example/printshop/internal/domain/cart"
	"github.com/example/printshop/internal/domain/checkout"
	"github.com/example/printshop/internal/infrastructure/store"
	"go.uber.org/zap"
)

// SessionActivity is what the event stream says about one session's cart.
type SessionActivity struct {
	SessionID   string         `json:"session_id"`
	Items       map[string]int `json:"items"`
	CouponCode  string         `json:"coupon_code,omitempty"`
	Events      int            `json:"events"`
	LastEventAt time.Time      `json:"last_event_at"`
}

// Units is the total quantity across the session's items.
func (s SessionActivity) Units() int {
	n := 0
	for _, q := range s.Items {
		n += q
	}
	return n
}

// Stats summarizes all projected sessions.
type Stats struct {
	Sessions      int            `json:"sessions"`
	OpenCarts     int            `json:"open_carts"`
	Units         int            `json:"units"`
	EventCounts   map[string]int `json:"event_counts"`
	MaterialUnits map[string]int `json:"material_units"`
	CouponUses    map[string]int `json:"coupon_uses"`
}

// Projector folds published cart events into per-session activity. It never reads
// the cart store, so it reflects only what reached the event stream.
type Projector struct {
	mu            sync.RWMutex
	sessions      map[string]*SessionActivity
	eventCounts   map[string]int
	materialUnits map[string]int
	couponUses    map[string]int
	logger        *zap.Logger
}

func NewProjector(logger *zap.Logger) *Projector {
	return &Projector{
		sessions:      make(map[string]*SessionActivity),
		eventCounts:   make(map[string]int),
		materialUnits: make(map[string]int),
		couponUses:    make(map[string]int),
		logger:        logger.Named("projector"),
	}
}

// HandleEvent applies one published event envelope. Events of other aggregates are
// ignored.
func (p *Projector) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	if event.AggregateType != cart.AggregateType {
		return nil
	}

	p.logger.Debug("received event",
		zap.String("event_type", event.EventType),
		zap.String("session_id", event.AggregateID))

	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.session(event.AggregateID)
	if err := p.apply(s, event); err != nil {
		return fmt.Errorf("%s: %w", event.EventType, err)
	}
	s.Events++
	if event.Timestamp.After(s.LastEventAt) {
		s.LastEventAt = event.Timestamp
	}
	p.eventCounts[event.EventType]++
	return nil
}

func (p *Projector) apply(s *SessionActivity, event store.Event) error {
	switch event.EventType {
	case cart.EventItemAdded:
		var e cart.ItemAdded
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		s.Items[e.ItemID] = e.NewQuantity
		p.materialUnits[e.MaterialID] += e.Quantity

	case cart.EventQuantityChanged:
		var e cart.ItemQuantityChanged
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		if e.Quantity < 1 {
			delete(s.Items, e.ItemID)
		} else {
			s.Items[e.ItemID] = e.Quantity
		}

	case cart.EventItemReconfigured:
		var e cart.ItemReconfigured
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		if e.MergedInto != "" && e.MergedInto != e.ItemID {
			s.Items[e.MergedInto] += s.Items[e.ItemID]
			delete(s.Items, e.ItemID)
		}

	case cart.EventItemRemoved:
		var e cart.ItemRemoved
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		delete(s.Items, e.ItemID)

	case cart.EventCartCleared:
		s.Items = make(map[string]int)

	case checkout.EventCouponApplied:
		var e checkout.CouponApplied
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		s.CouponCode = e.Code
		p.couponUses[e.Code]++

	case checkout.EventCouponRemoved:
		s.CouponCode = ""

	default:
		p.logger.Warn("unknown cart event", zap.String("event_type", event.EventType))
	}
	return nil
}

func (p *Projector) session(id string) *SessionActivity {
	s, ok := p.sessions[id]
	if !ok {
		s = &SessionActivity{SessionID: id, Items: make(map[string]int)}
		p.sessions[id] = s
	}
	return s
}

// Session returns a copy of the session's activity.
func (p *Projector) Session(id string) (SessionActivity, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, ok := p.sessions[id]
	if !ok {
		return SessionActivity{}, false
	}
	return copyActivity(s), true
}

// Sessions returns all sessions, most recently active first.
func (p *Projector) Sessions() []SessionActivity {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]SessionActivity, 0, len(p.sessions))
	for _, s := range p.sessions {
		result = append(result, copyActivity(s))
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].LastEventAt.Equal(result[j].LastEventAt) {
			return result[i].LastEventAt.After(result[j].LastEventAt)
		}
		return result[i].SessionID < result[j].SessionID
	})
	return result
}

func (p *Projector) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	stats := Stats{
		Sessions:      len(p.sessions),
		EventCounts:   copyCounts(p.eventCounts),
		MaterialUnits: copyCounts(p.materialUnits),
		CouponUses:    copyCounts(p.couponUses),
	}
	for _, s := range p.sessions {
		units := s.Units()
		if units > 0 {
			stats.OpenCarts++
		}
		stats.Units += units
	}
	return stats
}

func copyActivity(s *SessionActivity) SessionActivity {
	c := *s
	c.Items = copyCounts(s.Items)
	return c
}

func copyCounts(m map[string]int) map[string]int {
	c := make(map[string]int, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
