package primitive

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/facet/pkg/kernel"
	"github.com/chazu/facet/pkg/mesh"
	"github.com/chazu/facet/pkg/ops"
)

// ImportOptions controls FromSolid.
type ImportOptions struct {
	Material int
	// Weld merges vertices closer than this after exact duplicates are
	// shared. Zero skips the merge pass.
	Weld float64
	// Editor runs the merge pass; nil uses the ops defaults.
	Editor *ops.Editor
}

// FromSolid meshes a kernel solid and turns the resulting triangle soup
// into a connected editable mesh. Vertices at identical positions are
// shared, triangles that collapse are dropped, and a Weld radius, when
// set, merges the near-duplicates marching cubes leaves behind.
func FromSolid(k kernel.Kernel, s kernel.Solid, opts ImportOptions) (*mesh.Mesh, error) {
	soup, err := k.ToMesh(s)
	if err != nil {
		return nil, fmt.Errorf("primitive: mesh solid: %w", err)
	}
	m := FromTriangles(soup, opts.Material)
	if m.FaceCount() == 0 {
		return nil, fmt.Errorf("primitive: solid produced no usable triangles")
	}
	if opts.Weld > 0 {
		ed := opts.Editor
		if ed == nil {
			ed = ops.NewEditor(ops.DefaultConfig())
		}
		if _, err := ed.Merge(m, ops.MergeParams{All: true, Threshold: opts.Weld}); err != nil {
			return nil, fmt.Errorf("primitive: weld: %w", err)
		}
	}
	return m, nil
}

// FromTriangles converts a render buffer into a mesh, sharing vertices
// with bit-identical positions and dropping triangles that reference the
// same position twice.
func FromTriangles(km *kernel.Mesh, material int) *mesh.Mesh {
	m := mesh.New()
	shared := make(map[[3]float32]int, km.VertexCount())
	vertex := func(i uint32) int {
		p := km.Position(int(i))
		if v, ok := shared[p]; ok {
			return v
		}
		v := m.AddPoint(v3.Vec{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2])})
		shared[p] = v
		return v
	}
	for t := 0; t < km.TriangleCount(); t++ {
		tri := km.Triangle(t)
		a, b, c := vertex(tri[0]), vertex(tri[1]), vertex(tri[2])
		if a == b || b == c || a == c {
			continue
		}
		m.AddFace(mesh.NewFace(material, a, b, c))
	}
	return m
}
