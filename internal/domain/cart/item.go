package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SourceKind tags what a line item was configured from.
type SourceKind string

const (
	SourceProduct SourceKind = "product"
	SourceModel   SourceKind = "model"
)

var ErrInvalidSource = errors.New("line item source must be exactly one of product or model")

// Source is either a ProductRef or a ModelRef. The unexported method closes the set.
type Source interface {
	Kind() SourceKind
	SourceID() string
	isSource()
}

// ProductRef snapshots the catalog product at the time it was added.
type ProductRef struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
	Images []string        `json:"images,omitempty"`
}

func (ProductRef) Kind() SourceKind   { return SourceProduct }
func (p ProductRef) SourceID() string { return p.ID }
func (ProductRef) isSource()          {}

// Dimensions of an analyzed model in centimeters.
type Dimensions struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// ModelRef is an uploaded model as reported by the analyzer. VolumeCm3 already has
// the customer's scale applied.
type ModelRef struct {
	ID         string     `json:"id"`
	FileName   string     `json:"file_name"`
	VolumeCm3  float64    `json:"volume_cm3"`
	Dimensions Dimensions `json:"dimensions"`
}

func (ModelRef) Kind() SourceKind   { return SourceModel }
func (m ModelRef) SourceID() string { return m.ID }
func (ModelRef) isSource()          {}

// LineItem is one configured entry in the cart.
type LineItem struct {
	ID               string
	Source           Source
	MaterialID       string
	Color            string
	InfillPercentage float64
	LayerHeight      float64
	Quantity         int
	SessionID        string
	CreatedAt        time.Time
}

// Key identifies line items that must be merged rather than duplicated.
type Key struct {
	Kind             SourceKind
	SourceID         string
	MaterialID       string
	Color            string
	InfillPercentage float64
	LayerHeight      float64
}

func (li LineItem) Key() Key {
	return Key{
		Kind:             li.Source.Kind(),
		SourceID:         li.Source.SourceID(),
		MaterialID:       li.MaterialID,
		Color:            li.Color,
		InfillPercentage: li.InfillPercentage,
		LayerHeight:      li.LayerHeight,
	}
}

// Product returns the product reference when the item was configured from the catalog.
func (li LineItem) Product() (ProductRef, bool) {
	p, ok := li.Source.(ProductRef)
	return p, ok
}

// Model returns the model reference when the item was configured from an upload.
func (li LineItem) Model() (ModelRef, bool) {
	m, ok := li.Source.(ModelRef)
	return m, ok
}

type sourceJSON struct {
	Kind    SourceKind  `json:"kind"`
	Product *ProductRef `json:"product,omitempty"`
	Model   *ModelRef   `json:"model,omitempty"`
}

type lineItemJSON struct {
	ID               string     `json:"id"`
	Source           sourceJSON `json:"source"`
	MaterialID       string     `json:"material_id"`
	Color            string     `json:"color"`
	InfillPercentage float64    `json:"infill_percentage"`
	LayerHeight      float64    `json:"layer_height"`
	Quantity         int        `json:"quantity"`
	SessionID        string     `json:"session_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

func encodeSource(s Source) (sourceJSON, error) {
	switch v := s.(type) {
	case ProductRef:
		return sourceJSON{Kind: SourceProduct, Product: &v}, nil
	case ModelRef:
		return sourceJSON{Kind: SourceModel, Model: &v}, nil
	}
	return sourceJSON{}, ErrInvalidSource
}

func (s sourceJSON) decode() (Source, error) {
	switch {
	case s.Kind == SourceProduct && s.Product != nil && s.Model == nil:
		return *s.Product, nil
	case s.Kind == SourceModel && s.Model != nil && s.Product == nil:
		return *s.Model, nil
	}
	return nil, fmt.Errorf("%w: kind %q", ErrInvalidSource, s.Kind)
}

func (li LineItem) MarshalJSON() ([]byte, error) {
	src, err := encodeSource(li.Source)
	if err != nil {
		return nil, err
	}
	return json.Marshal(lineItemJSON{
		ID:               li.ID,
		Source:           src,
		MaterialID:       li.MaterialID,
		Color:            li.Color,
		InfillPercentage: li.InfillPercentage,
		LayerHeight:      li.LayerHeight,
		Quantity:         li.Quantity,
		SessionID:        li.SessionID,
		CreatedAt:        li.CreatedAt,
	})
}

func (li *LineItem) UnmarshalJSON(data []byte) error {
	var raw lineItemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	src, err := raw.Source.decode()
	if err != nil {
		return err
	}
	*li = LineItem{
		ID:               raw.ID,
		Source:           src,
		MaterialID:       raw.MaterialID,
		Color:            raw.Color,
		InfillPercentage: raw.InfillPercentage,
		LayerHeight:      raw.LayerHeight,
		Quantity:         raw.Quantity,
		SessionID:        raw.SessionID,
		CreatedAt:        raw.CreatedAt,
	}
	return nil
}
