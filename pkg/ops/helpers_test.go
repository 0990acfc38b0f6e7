package ops

import (
	"math"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/facet/pkg/mesh"
)

// Cube face indices as built by unitCube.
const (
	cubeBottom = iota
	cubeTop
	cubeFront
	cubeBack
	cubeLeft
	cubeRight
)

// unitCube returns the closed unit cube with outward winding.
//
//	0 (0,0,0)  1 (1,0,0)  2 (1,1,0)  3 (0,1,0)
//	4 (0,0,1)  5 (1,0,1)  6 (1,1,1)  7 (0,1,1)
func unitCube() *mesh.Mesh {
	m := mesh.New()
	for _, p := range []v3.Vec{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 1},
	} {
		m.AddPoint(p)
	}
	m.AddFace(mesh.NewFace(0, 0, 3, 2, 1)) // bottom
	m.AddFace(mesh.NewFace(0, 4, 5, 6, 7)) // top
	m.AddFace(mesh.NewFace(0, 0, 1, 5, 4)) // front
	m.AddFace(mesh.NewFace(0, 2, 3, 7, 6)) // back
	m.AddFace(mesh.NewFace(0, 0, 4, 7, 3)) // left
	m.AddFace(mesh.NewFace(0, 1, 2, 6, 5)) // right
	return m
}

// twoQuads returns two coplanar quads sharing the edge 1-2.
//
//	3---2---5
//	|   |   |
//	0---1---4
func twoQuads() *mesh.Mesh {
	m := mesh.New()
	for _, p := range []v3.Vec{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: 2, Y: 0}, {X: 2, Y: 1},
	} {
		m.AddPoint(p)
	}
	m.AddFace(mesh.NewFace(0, 0, 1, 2, 3))
	m.AddFace(mesh.NewFace(0, 1, 4, 5, 2))
	return m
}

// singleQuad returns the unit square in the XY plane facing +Z.
func singleQuad() *mesh.Mesh {
	m := mesh.New()
	for _, p := range []v3.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}} {
		m.AddPoint(p)
	}
	m.AddFace(mesh.NewFace(0, 0, 1, 2, 3))
	return m
}

// requireValid fails the test when the mesh has structural errors.
func requireValid(t *testing.T, m *mesh.Mesh) {
	t.Helper()
	if errs := mesh.Validate(m); len(errs) != 0 {
		t.Fatalf("mesh invalid: %v", errs)
	}
}

// checkOriented verifies no directed edge is used by two polygons and, when
// closed is set, that every directed edge has its opposite.
func checkOriented(t *testing.T, m *mesh.Mesh, closed bool) {
	t.Helper()
	count := make(map[mesh.Edge]int)
	for fi, f := range m.Faces {
		if f.Len() < 3 {
			continue
		}
		for i := range f.Vertices {
			e := mesh.Edge{V0: f.Vertices[i], V1: f.Vertices[f.Next(i)]}
			count[e]++
			if count[e] > 1 {
				t.Errorf("directed edge %s used twice (face %d)", e, fi)
			}
		}
	}
	if !closed {
		return
	}
	for e := range count {
		if count[e.Reversed()] != 1 {
			t.Errorf("directed edge %s has no opposite", e)
		}
	}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func vecNear(a, b v3.Vec) bool {
	return near(a.X, b.X) && near(a.Y, b.Y) && near(a.Z, b.Z)
}

// sameMesh compares vertex positions and face vertex lists.
func sameMesh(a, b *mesh.Mesh) bool {
	if a.VertexCount() != b.VertexCount() || a.FaceCount() != b.FaceCount() {
		return false
	}
	for i := range a.Vertices {
		if a.Position(i) != b.Position(i) {
			return false
		}
	}
	for i := range a.Faces {
		fa, fb := a.Faces[i].Vertices, b.Faces[i].Vertices
		if len(fa) != len(fb) {
			return false
		}
		for j := range fa {
			if fa[j] != fb[j] {
				return false
			}
		}
	}
	return true
}
