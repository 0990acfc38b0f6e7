package ops

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/chazu/facet/pkg/mesh"
)

// ExtrudeEdge is a boundary edge to extrude. AdjacentFace is the face the
// edge borders, or -1 for a free edge; the new quad is wound against it.
type ExtrudeEdge struct {
	Edge         mesh.Edge
	AdjacentFace int
}

// EdgeExtrusion describes an edge extrude.
type EdgeExtrusion struct {
	Edges     []ExtrudeEdge
	Lines     []int   // line faces to grow into quads in place
	Direction v3.Vec  // normalized before use
	Distance  float64 // may be zero or negative
	SnapAxis  bool    // keep only the dominant component of the offset
	Material  int     // material of quads built from free edges
}

// Offset is the translation applied to every extruded vertex.
func (x EdgeExtrusion) Offset() v3.Vec {
	off := scaledDirection(x.Direction, x.Distance, DefaultEpsilon)
	if x.SnapAxis {
		off = SnapToAxis(off)
	}
	return off
}

// ExtrudeEdges duplicates the endpoints of every edge and line once,
// translates the copies by the extrusion offset and joins each original
// edge to its copy with a quad. Lines are rewritten in place into those
// quads. The result selects the new outer edges.
func (e *Editor) ExtrudeEdges(m *mesh.Mesh, x EdgeExtrusion) (*Result, error) {
	if math.IsNaN(x.Distance) || math.IsInf(x.Distance, 0) || !finite(x.Direction) {
		return nil, invalidParam("extrude-edges", "distance %g and direction %v must be finite", x.Distance, x.Direction)
	}
	res := &Result{Requested: len(x.Edges) + len(x.Lines)}

	type item struct {
		edge mesh.Edge
		face int // adjacent face, or -1
		line int // line face rewritten in place, or -1
		at   int // position in the request
	}
	var items []item
	seen := make(map[mesh.Edge]bool)
	for i, ee := range x.Edges {
		switch {
		case !m.ValidVertex(ee.Edge.V0) || !m.ValidVertex(ee.Edge.V1) || ee.Edge.Degenerate():
			e.skipItem(res, "extrude-edges", i, "invalid edge %s", ee.Edge)
		case seen[ee.Edge.Key()]:
			e.skipItem(res, "extrude-edges", i, "duplicate edge %s", ee.Edge)
		case ee.AdjacentFace >= 0 && !m.ValidFace(ee.AdjacentFace):
			e.skipItem(res, "extrude-edges", i, "adjacent face %d out of range", ee.AdjacentFace)
		default:
			seen[ee.Edge.Key()] = true
			items = append(items, item{edge: ee.Edge, face: ee.AdjacentFace, line: -1, at: i})
		}
	}
	for j, fi := range lo.Uniq(x.Lines) {
		at := len(x.Edges) + j
		if !m.ValidFace(fi) || !m.Faces[fi].IsLine() {
			e.skipItem(res, "extrude-edges", at, "face %d is not a line", fi)
			continue
		}
		f := &m.Faces[fi]
		edge := mesh.Edge{V0: f.Vertices[0], V1: f.Vertices[1]}
		if !m.ValidVertex(edge.V0) || !m.ValidVertex(edge.V1) || edge.Degenerate() {
			e.skipItem(res, "extrude-edges", at, "line %d has invalid endpoints", fi)
			continue
		}
		items = append(items, item{edge: edge, face: -1, line: fi, at: at})
	}
	if len(items) == 0 {
		return res, nil
	}

	off := x.Offset()
	clones := make(map[int]int)
	for _, it := range items {
		for _, v := range []int{it.edge.V0, it.edge.V1} {
			if _, ok := clones[v]; !ok {
				clones[v] = m.CloneVertex(v, m.Position(v).Add(off))
				res.NewVertices = append(res.NewVertices, clones[v])
			}
		}
	}

	for _, it := range items {
		v0, v1 := it.edge.V0, it.edge.V1
		n0, n1 := clones[v0], clones[v1]
		res.Selection.Edges = append(res.Selection.Edges, mesh.Edge{V0: n0, V1: n1})
		res.Processed++

		if it.line >= 0 {
			f := &m.Faces[it.line]
			c0, c1 := f.Corner(0), f.Corner(1)
			f.SetCorners([]mesh.Corner{c0, c1, attrCorner(n1, c1), attrCorner(n0, c0)})
			f.Flags &^= mesh.FaceAuxiliary
			res.ModifiedFaces = append(res.ModifiedFaces, it.line)
			continue
		}

		c0 := mesh.Corner{Vertex: v0}
		c1 := mesh.Corner{Vertex: v1}
		material := x.Material
		reverse := false
		if it.face >= 0 {
			f := &m.Faces[it.face]
			if i := f.IndexOf(v0); i >= 0 {
				c0 = f.Corner(i)
			}
			if i := f.IndexOf(v1); i >= 0 {
				c1 = f.Corner(i)
			}
			material = f.Material
			reverse = f.HasDirectedEdge(v0, v1)
		}
		q := []mesh.Corner{c0, c1, attrCorner(n1, c1), attrCorner(n0, c0)}
		if reverse {
			reverseCorners(q)
		}
		res.NewFaces = append(res.NewFaces, m.AddFace(mesh.FaceFromCorners(material, q)))
	}

	e.log.Debug("edges extruded", zap.Stringer("result", res), zap.Float64("distance", x.Distance))
	return res, e.verify(m, "extrude-edges")
}

func (e *Editor) skipItem(res *Result, op string, item int, format string, args ...interface{}) {
	e.log.Debug(op+": item skipped", zap.Int("item", item), zap.String("reason", res.skip(item, format, args...)))
}
