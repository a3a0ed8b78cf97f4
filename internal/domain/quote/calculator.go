package quote

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/example/printshop/internal/domain/material"
	"github.com/shopspring/decimal"
)

// Priority selects the production queue used for lead time estimation.
type Priority string

const (
	PriorityStandard Priority = "standard"
	PriorityExpress  Priority = "express"
)

const (
	// cm3 printed per hour of machine time
	cm3PerHour = 10
	// days added on top of production for the standard queue
	standardHandlingDays = 2
	defaultScale         = 100
	maxLeadTimeDays      = 3650
)

const (
	// MaxVolumeCm3 is the largest printable volume after scaling: one cubic metre.
	MaxVolumeCm3 = 1_000_000
	MaxQuantity  = 10_000
)

var (
	ErrUnknownPriority = errors.New("unknown priority")
	ErrInvalidInput    = errors.New("invalid quote input")
)

// ParsePriority accepts "standard" and "express" (any case). Empty means standard.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(PriorityStandard):
		return PriorityStandard, nil
	case string(PriorityExpress):
		return PriorityExpress, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPriority, s)
}

// ComputePrice is the linear material model: infill scales consumed volume and the
// result scales with quantity. Volume discounts are not applied here.
// Non-finite volume or infill prices at zero; Validate rejects them before they get here.
func ComputePrice(volumeCm3 float64, pricePerCm3 decimal.Decimal, infillPercentage float64, quantity int) decimal.Decimal {
	if !isFinite(volumeCm3) || !isFinite(infillPercentage) {
		return decimal.Zero
	}
	effective := decimal.NewFromFloat(volumeCm3).
		Mul(decimal.NewFromFloat(infillPercentage)).
		Div(decimal.NewFromInt(100))
	return effective.Mul(pricePerCm3).Mul(decimal.NewFromInt(int64(quantity)))
}

// ScaleVolume applies a uniform linear scale given in percent. Volume grows with the
// cube of the linear factor. Non-positive scales are treated as 100%.
func ScaleVolume(volumeCm3, scalePercentage float64) float64 {
	if scalePercentage <= 0 {
		scalePercentage = defaultScale
	}
	f := scalePercentage / 100
	return volumeCm3 * f * f * f
}

// ComputeLeadTimeDays estimates days until shipment. Standard adds handling days to
// the production days; express halves the standard lead time and never goes below one day.
// The arithmetic saturates at maxLeadTimeDays instead of overflowing.
func ComputeLeadTimeDays(volumeCm3 float64, quantity int, priority Priority) int {
	hours := math.Ceil(volumeCm3/cm3PerHour) * float64(quantity)
	if math.IsNaN(hours) || hours < 0 {
		hours = 0
	}
	days := math.Min(math.Ceil(hours/24)+standardHandlingDays, maxLeadTimeDays)
	if priority == PriorityExpress {
		return int(math.Max(1, math.Ceil(days/2)))
	}
	return int(days)
}

// Input is one configuration to be priced.
type Input struct {
	VolumeCm3        float64
	Material         material.Material
	InfillPercentage float64
	LayerHeight      float64
	ScalePercentage  float64
	Quantity         int
}

// Normalize fills the defaults for scale (100%) and quantity (1).
func (in Input) Normalize() Input {
	if in.ScalePercentage <= 0 {
		in.ScalePercentage = defaultScale
	}
	if in.Quantity < 1 {
		in.Quantity = 1
	}
	return in
}

// Validate rejects inputs the pricing model is not defined for. Call it at the
// boundary; the calculator itself stays total.
func (in Input) Validate() error {
	if err := ValidateVolume(in.VolumeCm3, in.ScalePercentage); err != nil {
		return err
	}
	switch {
	case !(in.InfillPercentage >= 0 && in.InfillPercentage <= 100):
		return fmt.Errorf("%w: infill_percentage must be between 0 and 100", ErrInvalidInput)
	case !(in.LayerHeight > 0) || math.IsInf(in.LayerHeight, 0):
		return fmt.Errorf("%w: layer_height must be positive", ErrInvalidInput)
	case !in.Material.SupportsLayerHeight(in.LayerHeight):
		return fmt.Errorf("%w: layer_height %gmm is not supported by %s", ErrInvalidInput, in.LayerHeight, in.Material.ID)
	case in.Quantity < 0 || in.Quantity > MaxQuantity:
		return fmt.Errorf("%w: quantity must be between 0 and %d", ErrInvalidInput, MaxQuantity)
	}
	return nil
}

// ValidateVolume checks a model volume and the scale it will be printed at. The scaled
// volume must be finite and at most MaxVolumeCm3.
func ValidateVolume(volumeCm3, scalePercentage float64) error {
	switch {
	case !(volumeCm3 > 0) || math.IsInf(volumeCm3, 0):
		return fmt.Errorf("%w: volume_cm3 must be a positive number", ErrInvalidInput)
	case !(scalePercentage >= 0) || math.IsInf(scalePercentage, 0):
		return fmt.Errorf("%w: scale_percentage must not be negative", ErrInvalidInput)
	}
	if scaled := ScaleVolume(volumeCm3, scalePercentage); !isFinite(scaled) || scaled > MaxVolumeCm3 {
		return fmt.Errorf("%w: scaled volume exceeds %d cm3", ErrInvalidInput, MaxVolumeCm3)
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Result is derived from an Input on every call.
type Result struct {
	ScaledVolumeCm3 float64         `json:"scaled_volume_cm3"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Price           decimal.Decimal `json:"price"`
	LeadTimeDays    int             `json:"lead_time_days"`
}

// Calculate prices in with the scale applied exactly once.
func Calculate(in Input, priority Priority) Result {
	in = in.Normalize()
	scaled := ScaleVolume(in.VolumeCm3, in.ScalePercentage)
	return Result{
		ScaledVolumeCm3: scaled,
		UnitPrice:       ComputePrice(scaled, in.Material.PricePerCm3, in.InfillPercentage, 1),
		Price:           ComputePrice(scaled, in.Material.PricePerCm3, in.InfillPercentage, in.Quantity),
		LeadTimeDays:    ComputeLeadTimeDays(scaled, in.Quantity, priority),
	}
}
