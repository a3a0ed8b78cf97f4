package cart

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SchemaVersion is written into every persisted snapshot.
const SchemaVersion = 1

var ErrUnsupportedSnapshot = errors.New("unsupported cart snapshot version")

// Snapshot is the persisted form of a cart. Visibility is not part of it.
type Snapshot struct {
	SchemaVersion int        `json:"schema_version"`
	SessionID     string     `json:"session_id"`
	Items         []LineItem `json:"items"`
	CouponCode    string     `json:"coupon_code,omitempty"`
	SavedAt       time.Time  `json:"saved_at"`
}

// Snapshot captures the current items for persistence.
func (c *Cart) Snapshot() Snapshot {
	return Snapshot{
		SchemaVersion: SchemaVersion,
		SessionID:     c.sessionID,
		Items:         c.Items(),
		SavedAt:       c.now(),
	}
}

func EncodeSnapshot(s Snapshot) ([]byte, error) {
	s.SchemaVersion = SchemaVersion
	if s.Items == nil {
		s.Items = []LineItem{}
	}
	return json.Marshal(s)
}

// DecodeSnapshot reads current and legacy payloads. Legacy payloads are either a bare
// array of items or an object without schema_version; both carry items with nullable
// product and uploaded_model fields instead of a tagged source.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Snapshot{SchemaVersion: SchemaVersion}, nil
	}

	if data[0] == '[' {
		items, err := decodeLegacyItems(data)
		if err != nil {
			return Snapshot{}, err
		}
		return Snapshot{SchemaVersion: SchemaVersion, Items: items}, nil
	}

	var envelope struct {
		SchemaVersion int             `json:"schema_version"`
		SessionID     string          `json:"session_id"`
		Items         json.RawMessage `json:"items"`
		CouponCode    string          `json:"coupon_code"`
		SavedAt       time.Time       `json:"saved_at"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Snapshot{}, fmt.Errorf("failed to unmarshal cart snapshot: %w", err)
	}

	s := Snapshot{
		SchemaVersion: SchemaVersion,
		SessionID:     envelope.SessionID,
		CouponCode:    envelope.CouponCode,
		SavedAt:       envelope.SavedAt,
	}
	if len(envelope.Items) == 0 || string(envelope.Items) == "null" {
		return s, nil
	}

	switch envelope.SchemaVersion {
	case 0:
		items, err := decodeLegacyItems(envelope.Items)
		if err != nil {
			return Snapshot{}, err
		}
		s.Items = items
	case SchemaVersion:
		if err := json.Unmarshal(envelope.Items, &s.Items); err != nil {
			return Snapshot{}, fmt.Errorf("failed to unmarshal cart items: %w", err)
		}
	default:
		return Snapshot{}, fmt.Errorf("%w: %d", ErrUnsupportedSnapshot, envelope.SchemaVersion)
	}
	return s, nil
}

type legacyItem struct {
	ID               string      `json:"id"`
	Product          *ProductRef `json:"product"`
	UploadedModel    *ModelRef   `json:"uploaded_model"`
	MaterialID       string      `json:"material_id"`
	Color            string      `json:"color"`
	InfillPercentage float64     `json:"infill_percentage"`
	LayerHeight      float64     `json:"layer_height"`
	Quantity         int         `json:"quantity"`
	SessionID        string      `json:"session_id"`
	CreatedAt        time.Time   `json:"created_at"`
}

func decodeLegacyItems(data []byte) ([]LineItem, error) {
	var raw []legacyItem
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal legacy cart items: %w", err)
	}

	items := make([]LineItem, 0, len(raw))
	for i, r := range raw {
		var src Source
		switch {
		case r.Product != nil && r.UploadedModel == nil:
			src = *r.Product
		case r.UploadedModel != nil && r.Product == nil:
			src = *r.UploadedModel
		default:
			return nil, fmt.Errorf("legacy item %d: %w", i, ErrInvalidSource)
		}
		items = append(items, LineItem{
			ID:               r.ID,
			Source:           src,
			MaterialID:       r.MaterialID,
			Color:            r.Color,
			InfillPercentage: r.InfillPercentage,
			LayerHeight:      r.LayerHeight,
			Quantity:         r.Quantity,
			SessionID:        r.SessionID,
			CreatedAt:        r.CreatedAt,
		})
	}
	return items, nil
}
