package sdfx

import (
	"math"
	"testing"

	"github.com/chazu/facet/pkg/kernel"
)

func boundsNear(t *testing.T, s kernel.Solid, wantMin, wantMax [3]float64, tol float64) {
	t.Helper()
	min, max := s.BoundingBox()
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-wantMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected ~%f", i, min[i], wantMin[i])
		}
		if math.Abs(max[i]-wantMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected ~%f", i, max[i], wantMax[i])
		}
	}
}

func checkSoup(t *testing.T, m *kernel.Mesh) {
	t.Helper()
	if m.IsEmpty() || m.TriangleCount() == 0 {
		t.Fatal("mesh is empty")
	}
	if len(m.Vertices) != len(m.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(m.Vertices), len(m.Normals))
	}
	if m.VertexCount() != m.TriangleCount()*3 {
		t.Fatalf("soup has %d vertices for %d triangles", m.VertexCount(), m.TriangleCount())
	}
}

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

func TestNewCells(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want int
	}{
		{"default", nil, DefaultCells},
		{"custom", []Option{WithCells(10)}, 10},
		{"too small ignored", []Option{WithCells(2)}, DefaultCells},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := New(tt.opts...).Cells(); got != tt.want {
				t.Errorf("Cells() = %d, want %d", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Primitives and transforms
// ---------------------------------------------------------------------------

func TestBoxCentred(t *testing.T) {
	k := New()
	boundsNear(t, k.Box(100, 50, 25), [3]float64{-50, -25, -12.5}, [3]float64{50, 25, 12.5}, 0.01)
}

func TestSphereBounds(t *testing.T) {
	k := New()
	boundsNear(t, k.Sphere(3), [3]float64{-3, -3, -3}, [3]float64{3, 3, 3}, 0.01)
}

func TestTranslate(t *testing.T) {
	k := New()
	moved := k.Translate(k.Box(10, 10, 10), 100, 200, 300)
	boundsNear(t, moved, [3]float64{95, 195, 295}, [3]float64{105, 205, 305}, 0.5)
}

func TestRotate(t *testing.T) {
	k := New()
	rotated := k.Rotate(k.Box(100, 10, 10), 0, 0, 90)
	min, max := rotated.BoundingBox()
	if x := max[0] - min[0]; math.Abs(x-10) > 1 {
		t.Errorf("rotated X extent = %f, expected ~10", x)
	}
	if y := max[1] - min[1]; math.Abs(y-100) > 1 {
		t.Errorf("rotated Y extent = %f, expected ~100", y)
	}
}

// ---------------------------------------------------------------------------
// Meshing
// ---------------------------------------------------------------------------

func TestToMeshBox(t *testing.T) {
	k := New(WithCells(8))
	m, err := k.ToMesh(k.Box(2, 2, 2))
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	checkSoup(t, m)
	for i := 0; i < m.VertexCount(); i++ {
		for _, c := range m.Position(i) {
			if math.Abs(float64(c)) > 1.01 {
				t.Fatalf("vertex %d at %v lies outside the box", i, m.Position(i))
			}
		}
	}
}

func TestToMeshBooleans(t *testing.T) {
	k := New(WithCells(12))
	box := k.Box(100, 100, 100)
	boxMesh, err := k.ToMesh(box)
	if err != nil {
		t.Fatalf("ToMesh(box) failed: %v", err)
	}

	tests := []struct {
		name  string
		solid kernel.Solid
	}{
		{"union", k.Union(box, k.Translate(k.Box(50, 50, 50), 60, 0, 0))},
		{"difference", k.Difference(box, k.Cylinder(120, 20, 32))},
		{"intersection", k.Intersection(box, k.Translate(k.Box(100, 100, 100), 50, 0, 0))},
		{"sphere", k.Sphere(40)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := k.ToMesh(tt.solid)
			if err != nil {
				t.Fatalf("ToMesh failed: %v", err)
			}
			checkSoup(t, m)
		})
	}

	diff, _ := k.ToMesh(k.Difference(box, k.Cylinder(120, 20, 32)))
	if diff.TriangleCount() <= boxMesh.TriangleCount() {
		t.Errorf("difference (%d triangles) should have more triangles than box (%d)",
			diff.TriangleCount(), boxMesh.TriangleCount())
	}
}
