// Package primitive builds starter meshes: cubes, grids, lines and welded
// imports of kernel solids.
package primitive

import (
	"errors"
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/facet/pkg/mesh"
)

// ErrInvalidSize reports a non-positive or non-finite dimension.
var ErrInvalidSize = errors.New("primitive: invalid size")

func checkSize(name string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s %g", ErrInvalidSize, name, v)
	}
	return nil
}

// cubeFaces lists the corners of each face, wound counter-clockwise when
// seen from outside.
var cubeFaces = [6][4]int{
	{0, 3, 2, 1}, // -Z
	{4, 5, 6, 7}, // +Z
	{0, 1, 5, 4}, // -Y
	{2, 3, 7, 6}, // +Y
	{0, 4, 7, 3}, // -X
	{1, 2, 6, 5}, // +X
}

// Cube returns a closed cube of edge length size centred on the origin.
func Cube(size float64, material int) (*mesh.Mesh, error) {
	if err := checkSize("cube size", size); err != nil {
		return nil, err
	}
	h := size / 2
	m := mesh.New()
	for _, z := range []float64{-h, h} {
		m.AddPoint(v3.Vec{X: -h, Y: -h, Z: z})
		m.AddPoint(v3.Vec{X: h, Y: -h, Z: z})
		m.AddPoint(v3.Vec{X: h, Y: h, Z: z})
		m.AddPoint(v3.Vec{X: -h, Y: h, Z: z})
	}
	for _, f := range cubeFaces {
		m.AddFace(mesh.NewFace(material, f[:]...))
	}
	return m, nil
}

// Grid returns an nx by ny grid of quads of the given cell size in the XY
// plane, facing +Z, with its minimum corner at the origin.
func Grid(nx, ny int, cell float64, material int) (*mesh.Mesh, error) {
	if nx < 1 || ny < 1 {
		return nil, fmt.Errorf("%w: grid %dx%d", ErrInvalidSize, nx, ny)
	}
	if err := checkSize("grid cell", cell); err != nil {
		return nil, err
	}
	m := mesh.New()
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			m.AddPoint(v3.Vec{X: float64(i) * cell, Y: float64(j) * cell})
		}
	}
	at := func(i, j int) int { return j*(nx+1) + i }
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			m.AddFace(mesh.NewFace(material, at(i, j), at(i+1, j), at(i+1, j+1), at(i, j+1)))
		}
	}
	return m, nil
}

// Line returns a mesh holding a single auxiliary line from a to b.
func Line(a, b v3.Vec) (*mesh.Mesh, error) {
	if b.Sub(a).Length() == 0 {
		return nil, fmt.Errorf("%w: line endpoints coincide", ErrInvalidSize)
	}
	m := mesh.New()
	m.AddFace(mesh.NewFace(0, m.AddPoint(a), m.AddPoint(b)))
	return m, nil
}
