package mesh

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Mesh is the vertex/face container. It has no behavior beyond
// bookkeeping; editing lives in package ops.
type Mesh struct {
	Vertices []Vertex `json:"vertices"`
	Faces    []Face   `json:"faces"`

	lastID int // highest persistent vertex ID handed out
}

// New creates an empty mesh.
func New() *Mesh {
	return &Mesh{}
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.Vertices) }

// FaceCount returns the number of faces, auxiliary lines included.
func (m *Mesh) FaceCount() int { return len(m.Faces) }

// AddVertex appends a vertex and returns its index.
func (m *Mesh) AddVertex(v Vertex) int {
	if v.ID > m.lastID {
		m.lastID = v.ID
	}
	m.Vertices = append(m.Vertices, v)
	return len(m.Vertices) - 1
}

// AddPoint appends a bare vertex at p and returns its index.
func (m *Mesh) AddPoint(p v3.Vec) int {
	return m.AddVertex(Vertex{Position: p})
}

// CloneVertex appends a copy of vertex i moved to pos. The copy keeps the
// attribute lists, flags and bone weight so per-corner indices taken from
// faces around i stay valid on the copy. It gets no persistent ID.
func (m *Mesh) CloneVertex(i int, pos v3.Vec) int {
	c := m.Vertices[i].clone()
	c.Position = pos
	m.Vertices = append(m.Vertices, c)
	return len(m.Vertices) - 1
}

// AddFace appends a face and returns its index.
func (m *Mesh) AddFace(f Face) int {
	m.Faces = append(m.Faces, f)
	return len(m.Faces) - 1
}

// Position returns the position of vertex i.
func (m *Mesh) Position(i int) v3.Vec {
	return m.Vertices[i].Position
}

// ValidVertex reports whether i is in range.
func (m *Mesh) ValidVertex(i int) bool {
	return i >= 0 && i < len(m.Vertices)
}

// ValidFace reports whether i is in range.
func (m *Mesh) ValidFace(i int) bool {
	return i >= 0 && i < len(m.Faces)
}

// VertexID returns the persistent ID of vertex i, assigning the next free
// one on first use. IDs are never handed out twice by the same mesh.
func (m *Mesh) VertexID(i int) int {
	v := &m.Vertices[i]
	if v.ID == 0 {
		m.lastID++
		v.ID = m.lastID
	}
	return v.ID
}

// FindVertexID returns the index of the vertex carrying id, or -1.
func (m *Mesh) FindVertexID(id int) int {
	if id == 0 {
		return -1
	}
	for i := range m.Vertices {
		if m.Vertices[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the mesh, suitable as an undo snapshot.
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{
		Vertices: make([]Vertex, len(m.Vertices)),
		Faces:    make([]Face, len(m.Faces)),
		lastID:   m.lastID,
	}
	for i, v := range m.Vertices {
		c.Vertices[i] = v.clone()
		c.Vertices[i].ID = v.ID
	}
	for i, f := range m.Faces {
		c.Faces[i] = f.clone()
	}
	return c
}

// Append copies every vertex and face of src onto the end of m and returns
// the offset added to src's vertex indices. Copied vertices get fresh IDs
// on demand.
func (m *Mesh) Append(src *Mesh) int {
	offset := len(m.Vertices)
	for _, v := range src.Vertices {
		m.Vertices = append(m.Vertices, v.clone())
	}
	for _, f := range src.Faces {
		c := f.clone()
		for i := range c.Vertices {
			c.Vertices[i] += offset
		}
		m.Faces = append(m.Faces, c)
	}
	return offset
}

// RemoveFaces deletes the faces at the given indices, preserving the order
// of the rest. Out-of-range and duplicate indices are ignored. It returns
// the number of faces removed.
func (m *Mesh) RemoveFaces(indices []int) int {
	drop := make(map[int]bool, len(indices))
	for _, i := range indices {
		if m.ValidFace(i) {
			drop[i] = true
		}
	}
	if len(drop) == 0 {
		return 0
	}
	kept := m.Faces[:0]
	for i, f := range m.Faces {
		if !drop[i] {
			kept = append(kept, f)
		}
	}
	// Clear the tail so dropped faces do not pin their slices.
	for i := len(kept); i < len(m.Faces); i++ {
		m.Faces[i] = Face{}
	}
	m.Faces = kept
	return len(drop)
}

// String returns a short summary for logs and test failures.
func (m *Mesh) String() string {
	return fmt.Sprintf("mesh{%d vertices, %d faces}", len(m.Vertices), len(m.Faces))
}
