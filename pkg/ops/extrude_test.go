package ops

import (
	"errors"
	"math"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/facet/pkg/mesh"
)

// ---------------------------------------------------------------------------
// Edge extrude
// ---------------------------------------------------------------------------

func TestExtrudeBoundaryEdge(t *testing.T) {
	m := singleQuad()
	res, err := NewEditor(Config{Verify: true}).ExtrudeEdges(m, EdgeExtrusion{
		Edges:     []ExtrudeEdge{{Edge: mesh.Edge{V0: 0, V1: 1}, AdjacentFace: 0}},
		Direction: v3.Vec{Y: -2},
		Distance:  1,
	})
	if err != nil {
		t.Fatalf("ExtrudeEdges() error = %v", err)
	}
	if len(res.NewVertices) != 2 || len(res.NewFaces) != 1 {
		t.Fatalf("result = %v, want 2 vertices and 1 face", res)
	}
	n0, n1 := res.NewVertices[0], res.NewVertices[1]
	if !vecNear(m.Position(n0), v3.Vec{Y: -1}) || !vecNear(m.Position(n1), v3.Vec{X: 1, Y: -1}) {
		t.Errorf("new vertices at %v,%v", m.Position(n0), m.Position(n1))
	}
	quad := m.Faces[res.NewFaces[0]]
	if !quad.HasDirectedEdge(1, 0) {
		t.Errorf("quad %v does not wind against the adjacent face", quad.Vertices)
	}
	if n := mesh.FaceNormal(m, &quad); !vecNear(n, mesh.Up) {
		t.Errorf("quad normal = %v, want %v", n, mesh.Up)
	}
	if len(res.Selection.Edges) != 1 || res.Selection.Edges[0] != (mesh.Edge{V0: n0, V1: n1}) {
		t.Errorf("selection = %+v, want new edge", res.Selection.Edges)
	}
	checkOriented(t, m, false)
}

func TestExtrudeFreeEdgeKeepsWinding(t *testing.T) {
	m := singleQuad()
	res, err := ExtrudeEdges(m, EdgeExtrusion{
		Edges:     []ExtrudeEdge{{Edge: mesh.Edge{V0: 0, V1: 1}, AdjacentFace: -1}},
		Direction: v3.Vec{Z: 1},
		Distance:  1,
		Material:  3,
	})
	if err != nil {
		t.Fatalf("ExtrudeEdges() error = %v", err)
	}
	quad := m.Faces[res.NewFaces[0]]
	if !quad.HasDirectedEdge(0, 1) {
		t.Errorf("free edge quad %v should start v0→v1", quad.Vertices)
	}
	if quad.Material != 3 {
		t.Errorf("material = %d, want 3", quad.Material)
	}
}

func TestExtrudeEdgesShareClones(t *testing.T) {
	m := singleQuad()
	res, err := ExtrudeEdges(m, EdgeExtrusion{
		Edges: []ExtrudeEdge{
			{Edge: mesh.Edge{V0: 0, V1: 1}, AdjacentFace: 0},
			{Edge: mesh.Edge{V0: 1, V1: 2}, AdjacentFace: 0},
			{Edge: mesh.Edge{V0: 1, V1: 0}, AdjacentFace: 0},
		},
		Direction: v3.Vec{Z: 1},
		Distance:  0.5,
	})
	if err != nil {
		t.Fatalf("ExtrudeEdges() error = %v", err)
	}
	if len(res.NewVertices) != 3 {
		t.Errorf("new vertices = %d, want 3 (shared corner cloned once)", len(res.NewVertices))
	}
	if len(res.NewFaces) != 2 || res.Processed != 2 {
		t.Errorf("result = %v, want 2 quads", res)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Item != 2 {
		t.Errorf("skipped = %+v, want duplicate edge at item 2", res.Skipped)
	}
	checkOriented(t, m, false)
}

func TestExtrudeLineInPlace(t *testing.T) {
	m := mesh.New()
	m.AddPoint(v3.Vec{})
	m.AddPoint(v3.Vec{X: 1})
	line := m.AddFace(mesh.NewFace(0, 0, 1))

	res, err := ExtrudeEdges(m, EdgeExtrusion{Lines: []int{line}, Direction: v3.Vec{Z: 1}, Distance: 2})
	if err != nil {
		t.Fatalf("ExtrudeEdges() error = %v", err)
	}
	if m.FaceCount() != 1 {
		t.Errorf("face count = %d, want line rewritten in place", m.FaceCount())
	}
	f := m.Faces[line]
	if f.Len() != 4 || f.Flags.Has(mesh.FaceAuxiliary) {
		t.Errorf("line became %v flags %v, want a visible quad", f.Vertices, f.Flags)
	}
	if !vecNear(m.Position(f.Vertices[2]), v3.Vec{X: 1, Z: 2}) {
		t.Errorf("third corner at %v", m.Position(f.Vertices[2]))
	}
	if len(res.ModifiedFaces) != 1 || len(res.NewFaces) != 0 {
		t.Errorf("result = %+v, want one modified face", res)
	}
	requireValid(t, m)
}

func TestExtrudeEdgesZeroDistance(t *testing.T) {
	m := singleQuad()
	res, err := ExtrudeEdges(m, EdgeExtrusion{
		Edges:     []ExtrudeEdge{{Edge: mesh.Edge{V0: 2, V1: 3}, AdjacentFace: 0}},
		Direction: v3.Vec{Y: 1},
	})
	if err != nil {
		t.Fatalf("ExtrudeEdges() error = %v", err)
	}
	if len(res.NewVertices) != 2 || len(res.NewFaces) != 1 {
		t.Fatalf("result = %v, want full structure at zero distance", res)
	}
	if m.Position(res.NewVertices[0]) != m.Position(2) {
		t.Errorf("clone moved at zero distance")
	}
}

func TestEdgeExtrusionOffset(t *testing.T) {
	tests := []struct {
		name string
		x    EdgeExtrusion
		want v3.Vec
	}{
		{"normalized", EdgeExtrusion{Direction: v3.Vec{X: 3, Y: 4}, Distance: 10}, v3.Vec{X: 6, Y: 8}},
		{"snapped", EdgeExtrusion{Direction: v3.Vec{X: 3, Y: 4}, Distance: 10, SnapAxis: true}, v3.Vec{Y: 8}},
		{"negative snap", EdgeExtrusion{Direction: v3.Vec{Z: -2, X: 1}, Distance: 1, SnapAxis: true}, v3.Vec{Z: -2 / math.Sqrt(5)}},
		{"zero direction", EdgeExtrusion{Distance: 5}, v3.Vec{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.x.Offset(); !vecNear(got, tt.want) {
				t.Errorf("Offset() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtrudeEdgesInvalid(t *testing.T) {
	m := singleQuad()
	_, err := ExtrudeEdges(m, EdgeExtrusion{
		Edges:    []ExtrudeEdge{{Edge: mesh.Edge{V0: 0, V1: 1}, AdjacentFace: 0}},
		Distance: math.NaN(),
	})
	if !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("ExtrudeEdges() error = %v, want ErrInvalidParameter", err)
	}

	res, err := ExtrudeEdges(m, EdgeExtrusion{
		Edges: []ExtrudeEdge{
			{Edge: mesh.Edge{V0: 0, V1: 0}, AdjacentFace: 0},
			{Edge: mesh.Edge{V0: 0, V1: 9}, AdjacentFace: 0},
			{Edge: mesh.Edge{V0: 0, V1: 1}, AdjacentFace: 4},
		},
		Lines:     []int{0},
		Direction: v3.Vec{Z: 1},
		Distance:  1,
	})
	if err != nil {
		t.Fatalf("ExtrudeEdges() error = %v", err)
	}
	if res.Changed() || len(res.Skipped) != 4 {
		t.Errorf("result = %+v, want all four items skipped", res)
	}
	if m.VertexCount() != 4 || m.FaceCount() != 1 {
		t.Error("mesh changed by an extrude that processed nothing")
	}
}

// ---------------------------------------------------------------------------
// Face extrude
// ---------------------------------------------------------------------------

func TestExtrudeFaceNormal(t *testing.T) {
	m := singleQuad()
	res, err := NewEditor(Config{Verify: true}).ExtrudeFaces(m, FaceExtrusion{Faces: []int{0}, Distance: 1})
	if err != nil {
		t.Fatalf("ExtrudeFaces() error = %v", err)
	}
	if m.VertexCount() != 8 || m.FaceCount() != 5 {
		t.Errorf("mesh = %s, want 8 vertices and 5 faces", m)
	}
	for _, v := range m.Faces[0].Vertices {
		if !near(m.Position(v).Z, 1) {
			t.Errorf("cap vertex %d at %v, want z=1", v, m.Position(v))
		}
	}
	if len(res.Selection.Faces) != 1 || res.Selection.Faces[0] != 0 {
		t.Errorf("selection = %v, want the extruded face", res.Selection.Faces)
	}
	for _, fi := range res.NewFaces {
		n := mesh.FaceNormal(m, &m.Faces[fi])
		if !near(n.Z, 0) {
			t.Errorf("side face %d normal %v is not horizontal", fi, n)
		}
	}
	checkOriented(t, m, false)
}

func TestExtrudeCubeFaceStaysClosed(t *testing.T) {
	m := unitCube()
	if _, err := ExtrudeFaces(m, FaceExtrusion{Faces: []int{cubeTop}, Distance: 0.5}); err != nil {
		t.Fatalf("ExtrudeFaces() error = %v", err)
	}
	checkOriented(t, m, true)
	requireValid(t, m)
	c := mesh.FaceCentroid(m, &m.Faces[cubeTop])
	if !vecNear(c, v3.Vec{X: 0.5, Y: 0.5, Z: 1.5}) {
		t.Errorf("cap centroid = %v", c)
	}
}

func TestExtrudeFaceBevelScale(t *testing.T) {
	m := singleQuad()
	_, err := ExtrudeFaces(m, FaceExtrusion{Faces: []int{0}, Distance: 1, Type: ExtrudeBevel, Scale: 0.5})
	if err != nil {
		t.Fatalf("ExtrudeFaces() error = %v", err)
	}
	want := []v3.Vec{
		{X: 0.25, Y: 0.25, Z: 1}, {X: 0.75, Y: 0.25, Z: 1},
		{X: 0.75, Y: 0.75, Z: 1}, {X: 0.25, Y: 0.75, Z: 1},
	}
	for i, v := range m.Faces[0].Vertices {
		if !vecNear(m.Position(v), want[i]) {
			t.Errorf("cap corner %d at %v, want %v", i, m.Position(v), want[i])
		}
	}
}

func TestExtrudeFacesSharedNormal(t *testing.T) {
	m := unitCube()
	_, err := ExtrudeFaces(m, FaceExtrusion{Faces: []int{cubeTop, cubeFront}, Distance: math.Sqrt2})
	if err != nil {
		t.Fatalf("ExtrudeFaces() error = %v", err)
	}
	// Both caps move along (0,-1,1)/√2 by √2.
	for _, fi := range []int{cubeTop, cubeFront} {
		for i, v := range m.Faces[fi].Vertices {
			orig := unitCube().Faces[fi].Vertices[i]
			d := m.Position(v).Sub(unitCube().Position(orig))
			if !vecNear(d, v3.Vec{Y: -1, Z: 1}) {
				t.Errorf("face %d corner %d moved by %v", fi, i, d)
			}
		}
	}
}

func TestExtrudeFacesIndividualNormals(t *testing.T) {
	m := unitCube()
	_, err := ExtrudeFaces(m, FaceExtrusion{Faces: []int{cubeTop, cubeFront}, Distance: 1, IndividualNormals: true})
	if err != nil {
		t.Fatalf("ExtrudeFaces() error = %v", err)
	}
	if c := mesh.FaceCentroid(m, &m.Faces[cubeTop]); !vecNear(c, v3.Vec{X: 0.5, Y: 0.5, Z: 2}) {
		t.Errorf("top cap centroid = %v", c)
	}
	if c := mesh.FaceCentroid(m, &m.Faces[cubeFront]); !vecNear(c, v3.Vec{X: 0.5, Y: -1, Z: 0.5}) {
		t.Errorf("front cap centroid = %v", c)
	}
}

func TestExtrudeFacesZeroDistance(t *testing.T) {
	m := singleQuad()
	res, err := ExtrudeFaces(m, FaceExtrusion{Faces: []int{0}})
	if err != nil {
		t.Fatalf("ExtrudeFaces() error = %v", err)
	}
	if len(res.NewVertices) != 4 || len(res.NewFaces) != 4 {
		t.Errorf("result = %v, want full structure", res)
	}
	for i, v := range res.NewVertices {
		if m.Position(v) != m.Position(i) {
			t.Errorf("vertex %d moved at zero distance", v)
		}
	}
}

func TestExtrudeFacesInvalid(t *testing.T) {
	tests := []struct {
		name string
		x    FaceExtrusion
	}{
		{"nan distance", FaceExtrusion{Faces: []int{0}, Distance: math.NaN()}},
		{"zero bevel scale", FaceExtrusion{Faces: []int{0}, Type: ExtrudeBevel}},
		{"bevel scale above one", FaceExtrusion{Faces: []int{0}, Type: ExtrudeBevel, Scale: 1.5}},
		{"unknown type", FaceExtrusion{Faces: []int{0}, Type: ExtrudeType(9)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := singleQuad()
			if _, err := ExtrudeFaces(m, tt.x); !errors.Is(err, ErrInvalidParameter) {
				t.Fatalf("ExtrudeFaces() error = %v, want ErrInvalidParameter", err)
			}
			if m.VertexCount() != 4 {
				t.Error("mesh changed after rejected parameters")
			}
		})
	}
}

func TestExtrudeFacesSkipsBadItems(t *testing.T) {
	m := singleQuad()
	line := m.AddFace(mesh.NewFace(0, 0, 2))
	res, err := ExtrudeFaces(m, FaceExtrusion{Faces: []int{7, line, 0, 0}, Distance: 1})
	if err != nil {
		t.Fatalf("ExtrudeFaces() error = %v", err)
	}
	if res.Processed != 1 || len(res.Skipped) != 3 {
		t.Errorf("result = %+v, want 1 processed and 3 skipped", res)
	}
}

// ---------------------------------------------------------------------------
// Drag helpers
// ---------------------------------------------------------------------------

func TestDragAlongNormal(t *testing.T) {
	tests := []struct {
		name string
		drag v3.Vec
		want float64
	}{
		{"along", v3.Vec{Z: 2}, 2},
		{"against", v3.Vec{Z: -0.5}, -0.5},
		{"oblique", v3.Vec{X: 3, Z: 1}, 1},
		{"perpendicular", v3.Vec{Y: 4}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DragAlongNormal(tt.drag, mesh.Up); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("DragAlongNormal(%v) = %g, want %g", tt.drag, got, tt.want)
			}
		})
	}
}
