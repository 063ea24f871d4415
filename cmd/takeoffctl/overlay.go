package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"takeoff/internal/takeoff/overlay"
)

func newOverlayCmd() *cobra.Command {
	var page int
	var width, height float64
	var selected, out string

	cmd := &cobra.Command{
		Use:   "overlay <doc.json>",
		Short: "Render a page's markup as SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			svg, err := overlay.NewRenderer(overlay.DefaultStyle()).Render(overlay.Page{
				Width:    width,
				Height:   height,
				Strokes:  doc.Strokes(page),
				Selected: selected,
			})
			if err != nil {
				return err
			}

			if out == "" || out == "-" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), svg)
				return err
			}
			return os.WriteFile(out, []byte(svg), 0o644)
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().Float64Var(&width, "width", 0, "page width in world pixels")
	cmd.Flags().Float64Var(&height, "height", 0, "page height in world pixels")
	cmd.Flags().StringVar(&selected, "selected", "", "stroke id to highlight")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (stdout when empty)")
	_ = cmd.MarkFlagRequired("width")
	_ = cmd.MarkFlagRequired("height")
	return cmd
}
