package ops

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/facet/pkg/mesh"
)

// AveragedNormal returns the normalized sum of the given faces' normals,
// falling back to mesh.Up when they cancel out or faces is empty.
func AveragedNormal(idx mesh.Index, faces []int) v3.Vec {
	var sum v3.Vec
	for _, f := range faces {
		sum = sum.Add(idx.FaceNormal(f))
	}
	if sum.Length() < DefaultEpsilon {
		return mesh.Up
	}
	return sum.Normalize()
}

// SnapToAxis keeps only the dominant component of v.
func SnapToAxis(v v3.Vec) v3.Vec {
	ax, ay, az := math.Abs(v.X), math.Abs(v.Y), math.Abs(v.Z)
	switch {
	case ax >= ay && ax >= az:
		return v3.Vec{X: v.X}
	case ay >= az:
		return v3.Vec{Y: v.Y}
	default:
		return v3.Vec{Z: v.Z}
	}
}

// DragAlongNormal projects a free drag vector onto the unit normal n,
// giving the signed extrusion distance an interactive drag implies.
func DragAlongNormal(drag, n v3.Vec) float64 {
	return drag.Dot(n)
}

// scaledDirection returns dir normalized and scaled by dist, or the zero
// vector when dir has no length.
func scaledDirection(dir v3.Vec, dist, eps float64) v3.Vec {
	if dir.Length() < eps {
		return v3.Vec{}
	}
	return dir.Normalize().MulScalar(dist)
}

// inwardOffset returns the unit vector lying in a face's plane,
// perpendicular to an edge and pointing into the face. It is zero when the
// face normal is parallel to the edge.
func inwardOffset(normal, edgeDir, edgeMid, centroid v3.Vec, eps float64) v3.Vec {
	o := normal.Cross(edgeDir)
	if o.Length() < eps {
		return v3.Vec{}
	}
	o = o.Normalize()
	if o.Dot(centroid.Sub(edgeMid)) < 0 {
		o = o.MulScalar(-1)
	}
	return o
}

func lerp(a, b v3.Vec, t float64) v3.Vec {
	return a.Add(b.Sub(a).MulScalar(t))
}

func finite(v v3.Vec) bool {
	for _, c := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func centroid(ps []v3.Vec) v3.Vec {
	var sum v3.Vec
	for _, p := range ps {
		sum = sum.Add(p)
	}
	return sum.MulScalar(1 / float64(len(ps)))
}
