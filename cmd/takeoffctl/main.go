package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "takeoffctl",
		Short: "Offline tools for drawing takeoffs",
		Long: `takeoffctl works with saved takeoff documents without the editor:
it computes per-item totals, exports CSV, renders page overlays as SVG,
derives drawing scales and syncs documents with a takeoff service.`,
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newTotalsCmd(),
		newExportCmd(),
		newCalibrateCmd(),
		newPresetsCmd(),
		newOverlayCmd(),
		newPushCmd(),
		newPullCmd(),
		newItemsCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
