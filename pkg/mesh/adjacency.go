package mesh

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// degenerateLength is the squared length under which a normal is treated
// as undefined.
const degenerateLength = 1e-24

// Index answers adjacency and per-face geometry questions about a mesh.
// Implementations must reflect the mesh as it is at call time; operators
// query it between their own mutations.
type Index interface {
	// FacesContainingVertex returns every face referencing v.
	FacesContainingVertex(v int) []int
	// FacesContainingEdge returns every face in which v0 and v1 occupy
	// consecutive cyclic positions, in either order.
	FacesContainingEdge(v0, v1 int) []int
	// FaceNormal returns the unit normal from the face's first two edges,
	// or Up when that is undefined.
	FaceNormal(f int) v3.Vec
	// FaceCentroid returns the mean of the face's vertex positions.
	FaceCentroid(f int) v3.Vec
}

// IndexFactory builds an Index over a mesh.
type IndexFactory func(m *Mesh) Index

// ScanIndex is the default Index. It keeps no state besides the mesh and
// answers every query with a linear scan over the faces.
type ScanIndex struct {
	m *Mesh
}

// Compile-time interface check.
var _ Index = (*ScanIndex)(nil)

// NewScanIndex returns a ScanIndex over m. It matches IndexFactory.
func NewScanIndex(m *Mesh) Index {
	return &ScanIndex{m: m}
}

// FacesContainingVertex returns every face referencing v.
func (s *ScanIndex) FacesContainingVertex(v int) []int {
	var out []int
	for i := range s.m.Faces {
		if s.m.Faces[i].Contains(v) {
			out = append(out, i)
		}
	}
	return out
}

// FacesContainingEdge returns every face with v0 and v1 adjacent.
func (s *ScanIndex) FacesContainingEdge(v0, v1 int) []int {
	var out []int
	for i := range s.m.Faces {
		if s.m.Faces[i].HasEdge(v0, v1) {
			out = append(out, i)
		}
	}
	return out
}

// FaceNormal returns the face's unit normal or Up.
func (s *ScanIndex) FaceNormal(f int) v3.Vec {
	return FaceNormal(s.m, &s.m.Faces[f])
}

// FaceCentroid returns the mean of the face's vertex positions.
func (s *ScanIndex) FaceCentroid(f int) v3.Vec {
	return FaceCentroid(s.m, &s.m.Faces[f])
}

// FaceNormal computes the normal of f from the cross product of its first
// two edge vectors. Faces with fewer than three vertices or collinear first
// corners yield Up. The result is meant for direction heuristics only.
func FaceNormal(m *Mesh, f *Face) v3.Vec {
	if len(f.Vertices) < 3 {
		return Up
	}
	p0 := m.Position(f.Vertices[0])
	p1 := m.Position(f.Vertices[1])
	p2 := m.Position(f.Vertices[2])
	n := p1.Sub(p0).Cross(p2.Sub(p1))
	if n.Dot(n) < degenerateLength {
		return Up
	}
	return n.Normalize()
}

// FaceCentroid returns the arithmetic mean of f's vertex positions.
func FaceCentroid(m *Mesh, f *Face) v3.Vec {
	var c v3.Vec
	if len(f.Vertices) == 0 {
		return c
	}
	for _, v := range f.Vertices {
		c = c.Add(m.Position(v))
	}
	return c.MulScalar(1 / float64(len(f.Vertices)))
}

// ---------------------------------------------------------------------------
// Edge resolution
// ---------------------------------------------------------------------------

// EdgeFaces is an edge resolved against its adjacent faces.
type EdgeFaces struct {
	Edge  Edge
	Faces []int
}

// Manifold reports whether exactly two faces share the edge.
func (ef EdgeFaces) Manifold() bool { return len(ef.Faces) == 2 }

// Boundary reports whether exactly one face uses the edge.
func (ef EdgeFaces) Boundary() bool { return len(ef.Faces) == 1 }

// ResolveEdge looks up the polygon faces adjacent to e. Auxiliary lines
// are not counted as adjacent faces.
func ResolveEdge(m *Mesh, idx Index, e Edge) EdgeFaces {
	ef := EdgeFaces{Edge: e}
	if !m.ValidVertex(e.V0) || !m.ValidVertex(e.V1) || e.Degenerate() {
		return ef
	}
	for _, fi := range idx.FacesContainingEdge(e.V0, e.V1) {
		if m.Faces[fi].Len() >= 3 {
			ef.Faces = append(ef.Faces, fi)
		}
	}
	return ef
}
