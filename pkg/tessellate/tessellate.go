// Package tessellate turns an editable polygon mesh into flat triangle
// buffers for preview. One buffer is produced per material. The
// tessellator is read-only and never mutates the mesh.
package tessellate

import (
	"fmt"
	"sort"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"

	"github.com/chazu/facet/pkg/kernel"
	"github.com/chazu/facet/pkg/mesh"
)

// Options controls which faces are emitted.
type Options struct {
	IncludeHidden bool // emit faces flagged hidden or auxiliary
}

// Tessellate triangulates every polygon and groups the triangles by
// material, in ascending material order. Triangles and convex quads are
// fanned; other polygons are projected onto their plane and run through
// libtess2, so concave faces come out correctly. Lines are skipped. Each
// corner becomes its own buffer vertex, carrying the corner's normal when
// the vertex has one and the face normal otherwise.
func Tessellate(m *mesh.Mesh, opts Options) ([]*kernel.Mesh, error) {
	if m == nil {
		return nil, nil
	}
	if err := mesh.Check(m); err != nil {
		return nil, fmt.Errorf("tessellate: %w", err)
	}

	tr := &triangulator{}
	byMaterial := make(map[int]*kernel.Mesh)
	for i := range m.Faces {
		f := &m.Faces[i]
		if f.IsLine() {
			continue
		}
		if !opts.IncludeHidden && (f.Flags.Has(mesh.FaceHidden) || f.Flags.Has(mesh.FaceAuxiliary)) {
			continue
		}
		out, ok := byMaterial[f.Material]
		if !ok {
			out = &kernel.Mesh{Material: f.Material, Name: fmt.Sprintf("material-%d", f.Material)}
			byMaterial[f.Material] = out
		}
		tr.emitFace(m, f, out)
	}

	materials := lo.Keys(byMaterial)
	sort.Ints(materials)

	meshes := make([]*kernel.Mesh, 0, len(materials))
	for _, mat := range materials {
		meshes = append(meshes, byMaterial[mat])
	}
	return meshes, nil
}

// emitFace appends the triangulation of f to out.
func (tr *triangulator) emitFace(m *mesh.Mesh, f *mesh.Face, out *kernel.Mesh) {
	fn := mesh.FaceNormal(m, f)
	base := make([]uint32, f.Len())
	pts := make([]v3.Vec, f.Len())
	for i := range f.Vertices {
		c := f.Corner(i)
		pts[i] = m.Position(c.Vertex)
		base[i] = out.AddVertex(toF32(pts[i]), toF32(cornerNormal(m, c, fn)))
	}
	for _, t := range tr.triangulate(pts, fn) {
		out.AddTriangle(base[t[0]], base[t[1]], base[t[2]])
	}
}

func cornerNormal(m *mesh.Mesh, c mesh.Corner, fallback v3.Vec) v3.Vec {
	ns := m.Vertices[c.Vertex].Normals
	if c.Normal >= 0 && c.Normal < len(ns) {
		return ns[c.Normal]
	}
	return fallback
}

func toF32(v v3.Vec) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}

// Stats summarises preview buffers.
type Stats struct {
	Meshes    int `json:"meshes"`
	Vertices  int `json:"vertices"`
	Triangles int `json:"triangles"`
}

// Summarize totals the buffers produced by Tessellate.
func Summarize(meshes []*kernel.Mesh) Stats {
	s := Stats{Meshes: len(meshes)}
	for _, km := range meshes {
		s.Vertices += km.VertexCount()
		s.Triangles += km.TriangleCount()
	}
	return s
}
