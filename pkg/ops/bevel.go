package ops

import (
	"fmt"
	"math"
	"sort"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/chazu/facet/pkg/mesh"
)

// BevelTarget is one edge to bevel together with the two faces it
// separates. FaceA or FaceB is -1 when the edge has no such face; those
// targets are skipped.
type BevelTarget struct {
	Edge  mesh.Edge
	FaceA int
	FaceB int
}

// BevelParams controls the shape of a bevel.
type BevelParams struct {
	Amount   float64 // offset distance into each face, > 0
	Segments int     // strips across the bevel, >= 1
	Fillet   bool    // round the cross-section instead of a straight chamfer
	Material int     // material of the bevel strip and gap faces
}

func (p BevelParams) validate() error {
	if !(p.Amount > 0) || math.IsInf(p.Amount, 0) {
		return invalidParam("bevel", "amount %g must be positive and finite", p.Amount)
	}
	if p.Segments < 1 {
		return invalidParam("bevel", "segments %d must be at least 1", p.Segments)
	}
	return nil
}

// ResolveBevelTargets pairs each distinct edge with the first two polygon
// faces that contain it.
func ResolveBevelTargets(m *mesh.Mesh, idx mesh.Index, edges []mesh.Edge) []BevelTarget {
	edges = mesh.UniqueEdges(edges)
	targets := make([]BevelTarget, 0, len(edges))
	for _, e := range edges {
		t := BevelTarget{Edge: e, FaceA: -1, FaceB: -1}
		ef := mesh.ResolveEdge(m, idx, e)
		if len(ef.Faces) > 0 {
			t.FaceA = ef.Faces[0]
		}
		if len(ef.Faces) > 1 {
			t.FaceB = ef.Faces[1]
		}
		targets = append(targets, t)
	}
	return targets
}

// cornerEdit replaces one endpoint of the bevelled edge inside a face with
// that endpoint's section chain.
type cornerEdit struct {
	end    int  // 0 for Edge.V0, 1 for Edge.V1
	aFirst bool // chain runs A side to B side along the winding
}

// bevelPlan is everything one edge needs, computed before any mutation.
type bevelPlan struct {
	target     BevelTarget
	ends       [2]int
	offA, offB v3.Vec
	sections   [2][]v3.Vec
	aForward   bool // face A winds V0 then V1
	corners    [2]mesh.Corner
	edits      map[int][]cornerEdit
	deferred   [2]bool
}

// Bevel replaces each target edge with a strip of Segments faces whose
// long edges run Amount into the two adjacent faces. The original edge
// endpoints are removed once nothing references them.
//
// Targets are processed in order; each one only adds vertices, so later
// targets never see positions moved by earlier ones.
func (e *Editor) Bevel(m *mesh.Mesh, targets []BevelTarget, p BevelParams) (*Result, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	res := &Result{Requested: len(targets)}
	idx := e.index(m)

	var orphans []int
	for i, t := range targets {
		plan, reason := e.planBevel(m, idx, t, p)
		if plan == nil {
			e.log.Debug("bevel: edge skipped",
				zap.Stringer("edge", t.Edge),
				zap.String("reason", res.skip(i, "%s", reason)))
			continue
		}
		e.applyBevel(m, plan, p, res)
		orphans = append(orphans, plan.ends[0], plan.ends[1])
		res.Processed++
	}
	if !res.Changed() {
		return res, nil
	}

	im, removed, err := mesh.RemoveOrphans(m, orphans)
	if err != nil {
		return res, fmt.Errorf("ops: bevel: %w", err)
	}
	res.NewVertices = im.MapAll(res.NewVertices)
	res.RemovedVertices = len(removed)

	e.log.Debug("bevel applied", zap.Stringer("result", res))
	return res, e.verify(m, "bevel")
}

func (e *Editor) planBevel(m *mesh.Mesh, idx mesh.Index, t BevelTarget, p BevelParams) (*bevelPlan, string) {
	v0, v1 := t.Edge.V0, t.Edge.V1
	if !m.ValidVertex(v0) || !m.ValidVertex(v1) || v0 == v1 {
		return nil, "invalid edge"
	}
	if t.FaceA < 0 || t.FaceB < 0 {
		return nil, "edge needs two adjacent faces"
	}
	if !m.ValidFace(t.FaceA) || !m.ValidFace(t.FaceB) || t.FaceA == t.FaceB {
		return nil, "adjacent faces are invalid"
	}
	fa, fb := &m.Faces[t.FaceA], &m.Faces[t.FaceB]
	if fa.Len() < 3 || fb.Len() < 3 || !fa.HasEdge(v0, v1) || !fb.HasEdge(v0, v1) {
		return nil, "adjacent faces no longer share the edge"
	}

	p0, p1 := m.Position(v0), m.Position(v1)
	if p1.Sub(p0).Length() < e.cfg.Epsilon {
		return nil, "zero-length edge"
	}
	dir := p1.Sub(p0).Normalize()
	mid := lerp(p0, p1, 0.5)

	pl := &bevelPlan{
		target:   t,
		ends:     [2]int{v0, v1},
		offA:     inwardOffset(idx.FaceNormal(t.FaceA), dir, mid, idx.FaceCentroid(t.FaceA), e.cfg.Epsilon),
		offB:     inwardOffset(idx.FaceNormal(t.FaceB), dir, mid, idx.FaceCentroid(t.FaceB), e.cfg.Epsilon),
		aForward: fa.HasDirectedEdge(v0, v1),
		edits:    make(map[int][]cornerEdit),
	}
	if pl.offA.Length() == 0 || pl.offB.Length() == 0 {
		return nil, "face normal is parallel to the edge"
	}

	for k, v := range pl.ends {
		pl.sections[k] = sectionPoints(m.Position(v), pl.offA, pl.offB, dir, p.Amount, p.Segments, p.Fillet)
		pl.corners[k] = fa.Corner(fa.IndexOf(v))
	}

	for k, v := range pl.ends {
		for _, fi := range idx.FacesContainingVertex(v) {
			if fi == t.FaceA || fi == t.FaceB {
				continue
			}
			f := &m.Faces[fi]
			if f.Len() < 3 {
				continue
			}
			i := f.IndexOf(v)
			if f.HasEdge(v0, v1) || e.crossesEdge(m, f, i, dir) {
				pl.edits[fi] = append(pl.edits[fi], cornerEdit{end: k, aFirst: pl.aFirst(m, f, i, k)})
				continue
			}
			pl.deferred[k] = true
		}
	}
	return pl, ""
}

// crossesEdge reports whether both face edges at corner i run roughly
// perpendicular to the bevelled edge, so the chain can be cut straight
// through the face.
func (e *Editor) crossesEdge(m *mesh.Mesh, f *mesh.Face, i int, dir v3.Vec) bool {
	p := m.Position(f.Vertices[i])
	for _, j := range []int{f.Prev(i), f.Next(i)} {
		d := m.Position(f.Vertices[j]).Sub(p)
		if d.Length() < e.cfg.Epsilon {
			return false
		}
		if math.Abs(d.Normalize().Dot(dir)) >= e.cfg.EndCapDotLimit {
			return false
		}
	}
	return true
}

// aFirst decides whether the chain replacing corner i of f should start on
// the A side, by classifying the corner's neighbour that is not the other
// edge endpoint.
func (pl *bevelPlan) aFirst(m *mesh.Mesh, f *mesh.Face, i, k int) bool {
	other := pl.ends[1-k]
	if prev := f.Vertices[f.Prev(i)]; prev != other {
		return pl.onASide(m, k, prev)
	}
	return !pl.onASide(m, k, f.Vertices[f.Next(i)])
}

// onASide classifies neighbour w of endpoint k, topologically when w
// shares an edge with the endpoint in face A or B, geometrically otherwise.
func (pl *bevelPlan) onASide(m *mesh.Mesh, k, w int) bool {
	v := pl.ends[k]
	if m.Faces[pl.target.FaceA].HasEdge(v, w) {
		return true
	}
	if m.Faces[pl.target.FaceB].HasEdge(v, w) {
		return false
	}
	d := m.Position(w).Sub(m.Position(v))
	return d.Dot(pl.offA) >= d.Dot(pl.offB)
}

func (e *Editor) applyBevel(m *mesh.Mesh, pl *bevelPlan, p BevelParams, res *Result) {
	var chains [2][]int
	for k, v := range pl.ends {
		chains[k] = make([]int, len(pl.sections[k]))
		for s, pos := range pl.sections[k] {
			chains[k][s] = m.CloneVertex(v, pos)
		}
		res.NewVertices = append(res.NewVertices, chains[k]...)
	}
	last := p.Segments

	fa, fb := &m.Faces[pl.target.FaceA], &m.Faces[pl.target.FaceB]
	for k, v := range pl.ends {
		fa.Vertices[fa.IndexOf(v)] = chains[k][0]
		fb.Vertices[fb.IndexOf(v)] = chains[k][last]
	}
	res.ModifiedFaces = append(res.ModifiedFaces, pl.target.FaceA, pl.target.FaceB)

	faces := lo.Keys(pl.edits)
	sort.Ints(faces)
	for _, fi := range faces {
		f := &m.Faces[fi]
		for _, ed := range pl.edits[fi] {
			i := f.IndexOf(pl.ends[ed.end])
			f.ReplaceCorner(i, chainCorners(chains[ed.end], f.Corner(i), ed.aFirst))
		}
		res.ModifiedFaces = append(res.ModifiedFaces, fi)
	}

	// Gap faces close the hole left at an endpoint whose end caps could
	// not be cut through.
	for k := range pl.ends {
		if !pl.deferred[k] {
			continue
		}
		aFirst := (k == 0) != pl.aForward
		cs := append([]mesh.Corner{pl.corners[k]}, chainCorners(chains[k], pl.corners[k], aFirst)...)
		res.NewFaces = append(res.NewFaces, m.AddFace(mesh.FaceFromCorners(p.Material, cs)))
	}

	for s := 0; s < last; s++ {
		q := []mesh.Corner{
			attrCorner(chains[0][s], pl.corners[0]),
			attrCorner(chains[0][s+1], pl.corners[0]),
			attrCorner(chains[1][s+1], pl.corners[1]),
			attrCorner(chains[1][s], pl.corners[1]),
		}
		if !pl.aForward {
			reverseCorners(q)
		}
		res.NewFaces = append(res.NewFaces, m.AddFace(mesh.FaceFromCorners(p.Material, q)))
	}
}

// chainCorners turns a section chain into a corner run carrying the
// attribute indices of the corner it replaces.
func chainCorners(chain []int, c mesh.Corner, aFirst bool) []mesh.Corner {
	run := make([]mesh.Corner, len(chain))
	for s, v := range chain {
		j := s
		if !aFirst {
			j = len(chain) - 1 - s
		}
		run[j] = attrCorner(v, c)
	}
	return run
}

func attrCorner(v int, c mesh.Corner) mesh.Corner {
	return mesh.Corner{Vertex: v, UV: c.UV, Normal: c.Normal}
}

func reverseCorners(cs []mesh.Corner) {
	for i, j := 0, len(cs)-1; i < j; i, j = i+1, j-1 {
		cs[i], cs[j] = cs[j], cs[i]
	}
}
