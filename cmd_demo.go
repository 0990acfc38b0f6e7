package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/facet/pkg/mesh"
	"github.com/chazu/facet/pkg/ops"
	"github.com/chazu/facet/pkg/primitive"
)

var (
	demoAmount   float64
	demoSegments int
	demoFillet   bool
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Bevel two edges of a cube",
	Args:  cobra.NoArgs,
	RunE:  runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)

	demoCmd.Flags().Float64VarP(&demoAmount, "amount", "a", 0.1, "Bevel offset into each face")
	demoCmd.Flags().IntVarP(&demoSegments, "segments", "s", 1, "Strips across each bevel")
	demoCmd.Flags().BoolVarP(&demoFillet, "fillet", "f", false, "Round the bevel")
}

// demoEdges are two opposite top edges of primitive.Cube. They share no
// vertex, so one batch bevels both.
var demoEdges = []mesh.Edge{{V0: 4, V1: 5}, {V0: 6, V1: 7}}

func runDemo(cmd *cobra.Command, args []string) error {
	app, log, err := newApp()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cube, err := primitive.Cube(1, 0)
	if err != nil {
		return err
	}
	app.Load(cube)

	res, err := app.Bevel(demoEdges, ops.BevelParams{
		Amount:   demoAmount,
		Segments: demoSegments,
		Fillet:   demoFillet,
	})
	if err != nil {
		return err
	}

	_, stats, err := app.Preview()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "bevel: %s\n", res)
	fmt.Fprintf(out, "%s, %d triangles, %d undo steps\n", app.Mesh(), stats.Triangles, len(app.HistoryLabels()))
	return nil
}
