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

// MergeParams selects the vertices to weld.
type MergeParams struct {
	Vertices  []int   // candidates; ignored when All is set
	All       bool    // consider every vertex in the mesh
	Threshold float64 // maximum distance between linked vertices, >= 0
}

// Merge welds candidate vertices that lie within Threshold of each other.
// Links are transitive, so a chain of close vertices collapses into one
// cluster even when its ends are far apart. Each cluster moves to its
// centroid and is represented by its lowest index. Faces left degenerate
// are dropped and the vertex arrays are compacted.
//
// Candidate pairs are compared exhaustively.
func (e *Editor) Merge(m *mesh.Mesh, p MergeParams) (*MergeResult, error) {
	if !(p.Threshold >= 0) || math.IsInf(p.Threshold, 0) {
		return nil, invalidParam("merge", "threshold %g must be a non-negative number", p.Threshold)
	}

	var cands []int
	if p.All {
		cands = lo.Range(m.VertexCount())
	} else {
		cands = lo.Uniq(lo.Filter(p.Vertices, func(v int, _ int) bool { return m.ValidVertex(v) }))
		sort.Ints(cands)
	}
	if len(cands) < 2 {
		return nothingToMerge(), nil
	}

	uf := newUnionFind(len(cands))
	t2 := p.Threshold * p.Threshold
	for i := range cands {
		pi := m.Position(cands[i])
		for j := i + 1; j < len(cands); j++ {
			d := m.Position(cands[j]).Sub(pi)
			if d.Dot(d) <= t2 {
				uf.union(i, j)
			}
		}
	}

	var clusters [][]int
	for _, members := range uf.groups() {
		if len(members) < 2 {
			continue
		}
		verts := lo.Map(members, func(i int, _ int) int { return cands[i] })
		sort.Ints(verts)
		clusters = append(clusters, verts)
	}
	if len(clusters) == 0 {
		return nothingToMerge(), nil
	}
	sort.Slice(clusters, func(i, j int) bool { return clusters[i][0] < clusters[j][0] })

	rep := make(map[int]int)
	remove := make(map[int]bool)
	for _, c := range clusters {
		ps := lo.Map(c, func(v int, _ int) v3.Vec { return m.Position(v) })
		m.Vertices[c[0]].Position = centroid(ps)
		for _, v := range c[1:] {
			rep[v] = c[0]
			remove[v] = true
		}
	}

	var dropped []int
	for fi := range m.Faces {
		f := &m.Faces[fi]
		cs := f.Corners()
		line := f.IsLine()
		for i, c := range cs {
			r, ok := rep[c.Vertex]
			if !ok {
				continue
			}
			cs[i] = mesh.Corner{
				Vertex: r,
				UV:     adoptUV(m, r, c.Vertex, c.UV),
				Normal: adoptNormal(m, r, c.Vertex, c.Normal),
			}
		}
		cs = collapseRuns(cs)
		distinct := len(lo.UniqBy(cs, func(c mesh.Corner) int { return c.Vertex }))
		if (line && distinct < 2) || (!line && (distinct < 3 || len(cs) < 3)) {
			dropped = append(dropped, fi)
			continue
		}
		f.SetCorners(cs)
	}
	m.RemoveFaces(dropped)

	im, err := mesh.Compact(m, remove)
	if err != nil {
		return nil, fmt.Errorf("ops: merge: %w", err)
	}

	res := &MergeResult{
		Success:      true,
		Removed:      len(remove),
		Clusters:     len(clusters),
		FacesRemoved: len(dropped),
		Map:          im,
	}
	res.Summary = fmt.Sprintf("merged %d vertices in %d clusters, removed %d degenerate faces",
		res.Removed, res.Clusters, res.FacesRemoved)
	e.log.Debug("vertices merged",
		zap.Int("removed", res.Removed),
		zap.Int("clusters", res.Clusters),
		zap.Int("faces_removed", res.FacesRemoved))
	return res, e.verify(m, "merge")
}

func nothingToMerge() *MergeResult {
	return &MergeResult{Summary: "nothing to merge"}
}

// collapseRuns removes cyclically adjacent corners that share a vertex.
func collapseRuns(cs []mesh.Corner) []mesh.Corner {
	out := make([]mesh.Corner, 0, len(cs))
	for _, c := range cs {
		if len(out) > 0 && out[len(out)-1].Vertex == c.Vertex {
			continue
		}
		out = append(out, c)
	}
	for len(out) > 1 && out[0].Vertex == out[len(out)-1].Vertex {
		out = out[:len(out)-1]
	}
	return out
}

// adoptUV returns the index in rep's UV list of the value that corner index
// i selected on vertex from, appending it when rep lacks it.
func adoptUV(m *mesh.Mesh, rep, from, i int) int {
	src := m.Vertices[from].UVs
	if i < 0 || i >= len(src) {
		return 0
	}
	dst := &m.Vertices[rep].UVs
	if j := lo.IndexOf(*dst, src[i]); j >= 0 {
		return j
	}
	*dst = append(*dst, src[i])
	return len(*dst) - 1
}

// adoptNormal is adoptUV for the normal lists.
func adoptNormal(m *mesh.Mesh, rep, from, i int) int {
	src := m.Vertices[from].Normals
	if i < 0 || i >= len(src) {
		return 0
	}
	dst := &m.Vertices[rep].Normals
	if j := lo.IndexOf(*dst, src[i]); j >= 0 {
		return j
	}
	*dst = append(*dst, src[i])
	return len(*dst) - 1
}
