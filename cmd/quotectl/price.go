package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/example/printshop/internal/domain/material"
	"github.com/example/printshop/internal/domain/quote"
	"github.com/spf13/cobra"
)

// =============================================================================
// MATERIALS
// =============================================================================

func newMaterialsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "materials",
		Short: "List materials, prices and colors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPRICE/CM3\tLAYER (MM)\tCOLORS")
			for _, m := range cat.Materials() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%g-%g\t%d\n",
					m.ID, m.Name, m.PricePerCm3.StringFixed(2), m.MinLayerHeight, m.MaxLayerHeight, len(m.Colors))
			}
			return w.Flush()
		},
	}
}

// =============================================================================
// PRICE
// =============================================================================

type priceOptions struct {
	materialID  string
	volume      float64
	infill      float64
	layerHeight float64
	scale       float64
	quantity    int
	priority    string
}

func newPriceCmd() *cobra.Command {
	opts := priceOptions{}
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Quote a model configuration",
		Example: "  quotectl price --material pla --volume 100 --infill 20\n" +
			"  quotectl price --material petg --volume 42.5 --scale 150 --quantity 3 --priority express",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrice(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.materialID, "material", "m", "", "material id")
	cmd.Flags().Float64VarP(&opts.volume, "volume", "v", 0, "model volume in cm3 at 100% scale")
	cmd.Flags().Float64Var(&opts.infill, "infill", 20, "infill percentage (0-100)")
	cmd.Flags().Float64Var(&opts.layerHeight, "layer-height", 0.2, "layer height in mm")
	cmd.Flags().Float64Var(&opts.scale, "scale", 100, "uniform scale in percent")
	cmd.Flags().IntVarP(&opts.quantity, "quantity", "q", 1, "number of copies")
	cmd.Flags().StringVarP(&opts.priority, "priority", "p", string(quote.PriorityStandard), "standard or express")
	_ = cmd.MarkFlagRequired("material")
	_ = cmd.MarkFlagRequired("volume")
	return cmd
}

func runPrice(cmd *cobra.Command, opts priceOptions) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	m, ok := cat.Material(opts.materialID)
	if !ok {
		return fmt.Errorf("%w: %s", material.ErrMaterialNotFound, opts.materialID)
	}
	priority, err := quote.ParsePriority(opts.priority)
	if err != nil {
		return err
	}

	in := quote.Input{
		VolumeCm3:        opts.volume,
		Material:         m,
		InfillPercentage: opts.infill,
		LayerHeight:      opts.layerHeight,
		ScalePercentage:  opts.scale,
		Quantity:         opts.quantity,
	}
	if err := in.Validate(); err != nil {
		return err
	}
	in = in.Normalize()
	res := quote.Calculate(in, priority)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Material:\t%s (%s/cm3)\n", m.Name, m.PricePerCm3.StringFixed(2))
	fmt.Fprintf(w, "Volume:\t%.2f cm3 at %g%%\n", res.ScaledVolumeCm3, in.ScalePercentage)
	fmt.Fprintf(w, "Unit price:\t%s\n", res.UnitPrice.StringFixed(2))
	fmt.Fprintf(w, "Price (x%d):\t%s\n", in.Quantity, res.Price.StringFixed(2))
	fmt.Fprintf(w, "Lead time:\t%d days (%s)\n", res.LeadTimeDays, priority)
	return w.Flush()
}

// =============================================================================
// LEAD TIME
// =============================================================================

func newLeadTimeCmd() *cobra.Command {
	var (
		volume   float64
		quantity int
	)
	cmd := &cobra.Command{
		Use:   "leadtime",
		Short: "Compare standard and express lead times",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if volume <= 0 {
				return fmt.Errorf("%w: volume must be positive", quote.ErrInvalidInput)
			}
			if quantity < 1 {
				quantity = 1
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "standard: %d days\n", quote.ComputeLeadTimeDays(volume, quantity, quote.PriorityStandard))
			fmt.Fprintf(out, "express:  %d days\n", quote.ComputeLeadTimeDays(volume, quantity, quote.PriorityExpress))
			return nil
		},
	}
	cmd.Flags().Float64VarP(&volume, "volume", "v", 0, "volume in cm3 after scaling")
	cmd.Flags().IntVarP(&quantity, "quantity", "q", 1, "number of copies")
	return cmd
}
