package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/example/printshop/internal/domain/material"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

var ErrProductNotFound = errors.New("product not found")

// Product is a printable catalog item with a fixed base price.
type Product struct {
	ID          string          `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description,omitempty" yaml:"description"`
	Price       decimal.Decimal `json:"price" yaml:"price"`
	Images      []string        `json:"images,omitempty" yaml:"images"`
}

// ProductLookup resolves catalog products by id.
type ProductLookup interface {
	Product(id string) (Product, bool)
}

type file struct {
	Materials []material.Material `yaml:"materials"`
	Products  []Product           `yaml:"products"`
}

// Catalog is immutable reference data for materials and products.
type Catalog struct {
	materials *material.Set
	products  map[string]Product
	order     []string
}

// Load reads the catalog at path, or the embedded default when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(defaultCatalog)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c := &Catalog{
		materials: material.NewSet(),
		products:  make(map[string]Product, len(f.Products)),
	}
	for _, m := range f.Materials {
		if err := validateMaterial(m); err != nil {
			return nil, err
		}
		if _, dup := c.materials.Material(m.ID); dup {
			return nil, fmt.Errorf("duplicate material %q", m.ID)
		}
		c.materials.Put(m)
	}
	for _, p := range f.Products {
		if p.ID == "" {
			return nil, errors.New("product id is required")
		}
		if p.Price.IsNegative() {
			return nil, fmt.Errorf("product %q: price must not be negative", p.ID)
		}
		if _, dup := c.products[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product %q", p.ID)
		}
		c.products[p.ID] = p
		c.order = append(c.order, p.ID)
	}
	return c, nil
}

func validateMaterial(m material.Material) error {
	if m.ID == "" {
		return errors.New("material id is required")
	}
	if !m.PricePerCm3.IsPositive() {
		return fmt.Errorf("material %q: price_per_cm3 must be positive", m.ID)
	}
	seen := make(map[string]bool, len(m.Colors))
	for _, color := range m.Colors {
		if seen[color.Name] {
			return fmt.Errorf("material %q: duplicate color %q", m.ID, color.Name)
		}
		if color.PriceModifier.IsNegative() {
			return fmt.Errorf("material %q: color %q has a negative price modifier", m.ID, color.Name)
		}
		seen[color.Name] = true
	}
	return nil
}

func (c *Catalog) Material(id string) (material.Material, bool) {
	return c.materials.Material(id)
}

func (c *Catalog) Materials() []material.Material {
	return c.materials.All()
}

func (c *Catalog) Product(id string) (Product, bool) {
	p, ok := c.products[id]
	return p, ok
}

func (c *Catalog) Products() []Product {
	out := make([]Product, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.products[id])
	}
	return out
}
