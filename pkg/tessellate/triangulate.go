package tessellate

import (
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	libtess2 "github.com/hajimehoshi/go-libtess2"
)

// matchTolerance is the distance, relative to the polygon's extent, within
// which a libtess2 output vertex is matched back to an input corner.
const matchTolerance = 1e-4

// triangulator splits polygons into corner-index triangles. The libtess2
// tesselator is created on first use and shared by every face of one
// Tessellate call.
type triangulator struct {
	tess *libtess2.Tesselator
}

// triangulate returns triangles over the corners of the polygon pts, whose
// normal is n. Each triangle is wound like the polygon.
func (tr *triangulator) triangulate(pts []v3.Vec, n v3.Vec) [][3]int {
	if len(pts) == 3 {
		return fan(3)
	}
	flat := project(pts, n)
	if len(pts) == 4 && convex(flat) {
		return fan(4)
	}
	if tris, ok := tr.tessellate(flat); ok {
		return tris
	}
	// Self-intersecting or degenerate outline.
	return fan(len(pts))
}

func (tr *triangulator) tessellate(flat []v2.Vec) ([][3]int, bool) {
	ext := extent(flat)
	if ext == 0 {
		return nil, false
	}
	if tr.tess == nil {
		tr.tess = libtess2.NewTesselator()
	}
	contour := make([]libtess2.Vertex, len(flat))
	for i, p := range flat {
		contour[i] = libtess2.Vertex{X: float32(p.X), Y: float32(p.Y)}
	}
	tr.tess.AddContour(contour)
	elems, verts, err := tr.tess.Tesselate()
	if err != nil || len(elems) == 0 {
		return nil, false
	}

	corner := make([]int, len(verts))
	for i, v := range verts {
		j, d := nearest(flat, v2.Vec{X: float64(v.X), Y: float64(v.Y)})
		if d > matchTolerance*ext {
			// libtess2 inserted an intersection vertex.
			return nil, false
		}
		corner[i] = j
	}

	tris := make([][3]int, 0, len(elems)/3)
	for k := 0; k+2 < len(elems); k += 3 {
		if elems[k] < 0 || elems[k+1] < 0 || elems[k+2] < 0 {
			continue
		}
		t := [3]int{corner[elems[k]], corner[elems[k+1]], corner[elems[k+2]]}
		if t[0] == t[1] || t[1] == t[2] || t[0] == t[2] {
			continue
		}
		if cross2(flat[t[0]], flat[t[1]], flat[t[2]]) < 0 {
			t[1], t[2] = t[2], t[1]
		}
		tris = append(tris, t)
	}
	return tris, len(tris) > 0
}

// fan triangulates a convex polygon of n corners from corner 0.
func fan(n int) [][3]int {
	tris := make([][3]int, 0, n-2)
	for i := 1; i+1 < n; i++ {
		tris = append(tris, [3]int{0, i, i + 1})
	}
	return tris
}

// project maps pts into a plane basis (u, v) with u × v = n, relative to
// the first point. A polygon wound around n comes out counter-clockwise.
func project(pts []v3.Vec, n v3.Vec) []v2.Vec {
	axis := v3.Vec{X: 1}
	if math.Abs(n.X) > 0.9 {
		axis = v3.Vec{Y: 1}
	}
	u := n.Cross(axis).Normalize()
	v := n.Cross(u)
	out := make([]v2.Vec, len(pts))
	for i, p := range pts {
		d := p.Sub(pts[0])
		out[i] = v2.Vec{X: d.Dot(u), Y: d.Dot(v)}
	}
	return out
}

// convex reports whether the counter-clockwise polygon p turns left, or
// goes straight, at every corner.
func convex(p []v2.Vec) bool {
	n := len(p)
	for i := range p {
		if cross2(p[(i+n-1)%n], p[i], p[(i+1)%n]) < 0 {
			return false
		}
	}
	return true
}

// cross2 is twice the signed area of triangle abc.
func cross2(a, b, c v2.Vec) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

func extent(p []v2.Vec) float64 {
	var e float64
	for _, q := range p[1:] {
		e = math.Max(e, math.Max(math.Abs(q.X), math.Abs(q.Y)))
	}
	return e
}

func nearest(p []v2.Vec, q v2.Vec) (int, float64) {
	best, bestD := -1, math.Inf(1)
	for i, r := range p {
		if d := math.Hypot(r.X-q.X, r.Y-q.Y); d < bestD {
			best, bestD = i, d
		}
	}
	return best, bestD
}
