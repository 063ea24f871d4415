package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"takeoff/internal/takeoff/geometry"
	"takeoff/internal/takeoff/measure"
	"takeoff/internal/takeoff/models"
	"takeoff/internal/takeoff/scale"
)

// ============================================================
// calibrate
// ============================================================

func newCalibrateCmd() *cobra.Command {
	var x1, y1, x2, y2 float64
	var distance, unit string

	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Derive units per pixel from two points and a known distance",
		Long: `Derive the drawing scale the way the calibrate tool does: the pixel distance
between (x1,y1) and (x2,y2) is matched to the known real distance.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sys := models.UnitSystem(unit)
			if !sys.Valid() {
				return fmt.Errorf("%w: %q", scale.ErrUnknownUnitSystem, unit)
			}
			a, b := geometry.Point{X: x1, Y: y1}, geometry.Point{X: x2, Y: y2}
			u, err := scale.Calibrate(a, b, distance)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Pixel distance: %.4f px\n", a.Distance(b))
			fmt.Fprintf(w, "Units per pixel: %.6g %s/px\n", u, sys.LengthLabel())
			if sys == models.Imperial {
				fmt.Fprintf(w, "100 px = %s\n", measure.FeetInches(100*u))
			} else {
				fmt.Fprintf(w, "100 px = %s\n", measure.MetricShort(100*u))
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&x1, "x1", 0, "X of the first point (world px)")
	cmd.Flags().Float64Var(&y1, "y1", 0, "Y of the first point (world px)")
	cmd.Flags().Float64Var(&x2, "x2", 0, "X of the second point (world px)")
	cmd.Flags().Float64Var(&y2, "y2", 0, "Y of the second point (world px)")
	cmd.Flags().StringVar(&distance, "distance", "", "known real distance between the points")
	cmd.Flags().StringVar(&unit, "unit-system", string(models.Imperial), "imperial (ft) or metric (m)")
	cmd.MarkFlagsRequiredTogether("x1", "y1", "x2", "y2")
	_ = cmd.MarkFlagRequired("distance")
	return cmd
}

// ============================================================
// presets
// ============================================================

func newPresetsCmd() *cobra.Command {
	var unit string
	var renderScale float64

	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List standard drawing scales with their units per pixel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sys := models.UnitSystem(unit)
			if !sys.Valid() {
				return fmt.Errorf("%w: %q", scale.ErrUnknownUnitSystem, unit)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "KEY\tLABEL\tFAMILY\t%s/PX\n", strings.ToUpper(sys.LengthLabel()))
			for _, p := range scale.Presets() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%.6g\n", p.Key, p.Label, p.Family,
					scale.UnitsPerPxFromRatio(p.Ratio, sys, renderScale))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&unit, "unit-system", string(models.Imperial), "imperial (ft) or metric (m)")
	cmd.Flags().Float64Var(&renderScale, "render-scale", 1, "render pixels per PDF point")
	return cmd
}
