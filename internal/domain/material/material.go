package material

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrMaterialNotFound = errors.New("material not found")

// Color is a selectable color of a material. Name is unique within its material.
type Color struct {
	Name          string          `json:"name" yaml:"name"`
	Hex           string          `json:"hex" yaml:"hex"`
	Premium       bool            `json:"premium" yaml:"premium"`
	PriceModifier decimal.Decimal `json:"price_modifier" yaml:"price_modifier"`
}

// Material is read-only reference data looked up by ID.
type Material struct {
	ID             string          `json:"id" yaml:"id"`
	Name           string          `json:"name" yaml:"name"`
	PricePerCm3    decimal.Decimal `json:"price_per_cm3" yaml:"price_per_cm3"`
	Colors         []Color         `json:"colors" yaml:"colors"`
	MinLayerHeight float64         `json:"min_layer_height" yaml:"min_layer_height"`
	MaxLayerHeight float64         `json:"max_layer_height" yaml:"max_layer_height"`
}

// Lookup resolves materials by id.
type Lookup interface {
	Material(id string) (Material, bool)
}

// Color returns the color with the given name.
func (m Material) Color(name string) (Color, bool) {
	for _, c := range m.Colors {
		if c.Name == name {
			return c, true
		}
	}
	return Color{}, false
}

// HasColor reports whether name is one of the material's colors.
func (m Material) HasColor(name string) bool {
	_, ok := m.Color(name)
	return ok
}

// ColorModifier returns the price modifier of the named color, or zero when the
// color no longer exists on the material.
func (m Material) ColorModifier(name string) decimal.Decimal {
	if c, ok := m.Color(name); ok {
		return c.PriceModifier
	}
	return decimal.Zero
}

// SupportsLayerHeight checks h against the material's bounds. A zero bound is open.
func (m Material) SupportsLayerHeight(h float64) bool {
	if m.MinLayerHeight > 0 && h < m.MinLayerHeight {
		return false
	}
	if m.MaxLayerHeight > 0 && h > m.MaxLayerHeight {
		return false
	}
	return true
}

// Set is an in-memory Lookup keeping materials in insertion order.
type Set struct {
	order []string
	byID  map[string]Material
}

func NewSet(materials ...Material) *Set {
	s := &Set{byID: make(map[string]Material, len(materials))}
	for _, m := range materials {
		s.Put(m)
	}
	return s
}

// Put adds or replaces a material.
func (s *Set) Put(m Material) {
	if _, exists := s.byID[m.ID]; !exists {
		s.order = append(s.order, m.ID)
	}
	s.byID[m.ID] = m
}

func (s *Set) Material(id string) (Material, bool) {
	m, ok := s.byID[id]
	return m, ok
}

// All returns the materials in insertion order.
func (s *Set) All() []Material {
	out := make([]Material, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}
