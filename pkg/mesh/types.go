package mesh

import (
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Up is the fallback direction returned for degenerate face normals.
var Up = v3.Vec{X: 0, Y: 0, Z: 1}

// ---------------------------------------------------------------------------
// Vertex
// ---------------------------------------------------------------------------

// VertexFlags is a bit set of per-vertex markers.
type VertexFlags uint8

const (
	VertexOnMirrorPlane VertexFlags = 1 << iota // lies on the symmetry plane
	VertexMirrored                              // generated by the mirror modifier
	VertexLocked                                // excluded from editing by the host
	VertexAuxiliary                             // helper vertex, not part of the surface
)

// Has reports whether all bits of f are set.
func (v VertexFlags) Has(f VertexFlags) bool {
	return v&f == f
}

// BoneWeight binds a vertex to up to four skeleton bones.
type BoneWeight struct {
	Bones   [4]int
	Weights [4]float64
}

// Vertex is a mesh point with its attribute lists.
type Vertex struct {
	Position   v3.Vec
	UVs        []v2.Vec // per-corner UVs are indices into this list
	Normals    []v3.Vec // per-corner normals are indices into this list
	Flags      VertexFlags
	BoneWeight *BoneWeight
	ID         int // persistent identifier, 0 until assigned by Mesh.VertexID
}

// clone returns a deep copy of v with its ID cleared.
func (v Vertex) clone() Vertex {
	c := Vertex{
		Position: v.Position,
		Flags:    v.Flags,
	}
	if v.UVs != nil {
		c.UVs = append([]v2.Vec(nil), v.UVs...)
	}
	if v.Normals != nil {
		c.Normals = append([]v3.Vec(nil), v.Normals...)
	}
	if v.BoneWeight != nil {
		bw := *v.BoneWeight
		c.BoneWeight = &bw
	}
	return c
}

// ---------------------------------------------------------------------------
// Face
// ---------------------------------------------------------------------------

// FaceFlags is a bit set of per-face markers.
type FaceFlags uint8

const (
	FaceMirrored  FaceFlags = 1 << iota // generated by the mirror modifier
	FaceAuxiliary                       // helper geometry, e.g. a construction line
	FaceHidden                          // not drawn
)

// Has reports whether all bits of f are set.
func (f FaceFlags) Has(g FaceFlags) bool {
	return f&g == g
}

// Face is an ordered polygon over vertex indices. UVs and Normals are
// parallel to Vertices; entry i indexes Vertices[i]'s own UVs/Normals list.
// A face with two vertices is an auxiliary line, not a renderable polygon.
type Face struct {
	Vertices []int
	UVs      []int
	Normals  []int
	Material int
	Flags    FaceFlags
}

// Len returns the number of corners.
func (f *Face) Len() int { return len(f.Vertices) }

// IsLine reports whether the face is a two-vertex auxiliary line.
func (f *Face) IsLine() bool { return len(f.Vertices) == 2 }

// IndexOf returns the corner position of vertex v, or -1.
func (f *Face) IndexOf(v int) int {
	for i, fv := range f.Vertices {
		if fv == v {
			return i
		}
	}
	return -1
}

// Contains reports whether the face references vertex v.
func (f *Face) Contains(v int) bool { return f.IndexOf(v) >= 0 }

// Next returns the corner position after i, cyclically.
func (f *Face) Next(i int) int { return (i + 1) % len(f.Vertices) }

// Prev returns the corner position before i, cyclically.
func (f *Face) Prev(i int) int { return (i + len(f.Vertices) - 1) % len(f.Vertices) }

// HasDirectedEdge reports whether v1 immediately follows v0 in the face.
func (f *Face) HasDirectedEdge(v0, v1 int) bool {
	n := len(f.Vertices)
	if n < 2 {
		return false
	}
	for i, fv := range f.Vertices {
		if fv == v0 && f.Vertices[(i+1)%n] == v1 {
			return true
		}
	}
	return false
}

// HasEdge reports whether v0 and v1 occupy consecutive cyclic positions,
// in either order.
func (f *Face) HasEdge(v0, v1 int) bool {
	return f.HasDirectedEdge(v0, v1) || f.HasDirectedEdge(v1, v0)
}

// Corner returns the vertex, UV and normal index at corner position i.
func (f *Face) Corner(i int) Corner {
	return Corner{Vertex: f.Vertices[i], UV: f.UVs[i], Normal: f.Normals[i]}
}

// Corners returns every corner of the face in winding order.
func (f *Face) Corners() []Corner {
	cs := make([]Corner, len(f.Vertices))
	for i := range f.Vertices {
		cs[i] = f.Corner(i)
	}
	return cs
}

// SetCorners overwrites the face's three parallel arrays.
func (f *Face) SetCorners(cs []Corner) {
	f.Vertices = make([]int, len(cs))
	f.UVs = make([]int, len(cs))
	f.Normals = make([]int, len(cs))
	for i, c := range cs {
		f.Vertices[i] = c.Vertex
		f.UVs[i] = c.UV
		f.Normals[i] = c.Normal
	}
}

// ReplaceCorner replaces corner position i with the given run of corners,
// keeping the rest of the winding intact.
func (f *Face) ReplaceCorner(i int, run []Corner) {
	cs := f.Corners()
	out := make([]Corner, 0, len(cs)+len(run)-1)
	out = append(out, cs[:i]...)
	out = append(out, run...)
	out = append(out, cs[i+1:]...)
	f.SetCorners(out)
}

func (f Face) clone() Face {
	return Face{
		Vertices: append([]int(nil), f.Vertices...),
		UVs:      append([]int(nil), f.UVs...),
		Normals:  append([]int(nil), f.Normals...),
		Material: f.Material,
		Flags:    f.Flags,
	}
}

// Corner is one position of a face: a vertex index plus the attribute
// indices into that vertex's lists.
type Corner struct {
	Vertex int
	UV     int
	Normal int
}

// NewFace builds a face from vertex indices with all attribute indices 0.
func NewFace(material int, vertices ...int) Face {
	f := Face{
		Vertices: append([]int(nil), vertices...),
		UVs:      make([]int, len(vertices)),
		Normals:  make([]int, len(vertices)),
		Material: material,
	}
	if len(vertices) == 2 {
		f.Flags |= FaceAuxiliary
	}
	return f
}

// FaceFromCorners builds a face from corners.
func FaceFromCorners(material int, cs []Corner) Face {
	f := Face{Material: material}
	f.SetCorners(cs)
	return f
}
