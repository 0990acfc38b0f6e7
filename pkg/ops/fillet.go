package ops

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// filletEpsilon bounds sin and cos of the half-angle; outside it the arc
// radius or centre distance blows up and the section falls back to a
// straight line.
const filletEpsilon = 1e-6

// filletArc is a circular arc tangent to both bevelled faces, lying in the
// plane perpendicular to the edge through one endpoint.
type filletArc struct {
	center v3.Vec
	start  v3.Vec // a minus center
	axis   v3.Vec // unit edge direction
	sweep  float64
}

// newFilletArc builds the arc between corner+offA*amount and
// corner+offB*amount. offA and offB are unit vectors perpendicular to axis.
func newFilletArc(corner, offA, offB, axis v3.Vec, amount float64) (*filletArc, bool) {
	cos := math.Max(-1, math.Min(1, offA.Dot(offB)))
	h := math.Acos(cos) / 2
	sinH, cosH := math.Sin(h), math.Cos(h)
	if sinH < filletEpsilon || cosH < filletEpsilon {
		return nil, false
	}
	bisector := offA.Add(offB)
	if bisector.Length() < DefaultEpsilon {
		return nil, false
	}
	radius := amount * math.Tan(h)
	center := corner.Add(bisector.Normalize().MulScalar(radius / sinH))
	if !finite(center) {
		return nil, false
	}

	a := corner.Add(offA.MulScalar(amount)).Sub(center)
	b := corner.Add(offB.MulScalar(amount)).Sub(center)
	sweep := math.Pi - 2*h
	if a.Cross(b).Dot(axis) < 0 {
		sweep = -sweep
	}
	return &filletArc{center: center, start: a, axis: axis, sweep: sweep}, true
}

// at returns the arc point at parameter t in [0, 1].
func (f *filletArc) at(t float64) (v3.Vec, bool) {
	p := sdf.Rotate3d(f.axis, f.sweep*t).MulPosition(f.start).Add(f.center)
	return p, finite(p)
}

// sectionPoints returns the segments+1 cross-section points for one bevel
// endpoint, ordered from the A side to the B side. The ends are always
// corner+offA*amount and corner+offB*amount; interior points follow the
// fillet arc when requested and well-defined, the straight chord otherwise.
func sectionPoints(corner, offA, offB, axis v3.Vec, amount float64, segments int, fillet bool) []v3.Vec {
	a := corner.Add(offA.MulScalar(amount))
	b := corner.Add(offB.MulScalar(amount))
	pts := make([]v3.Vec, segments+1)
	pts[0], pts[segments] = a, b

	var arc *filletArc
	if fillet && segments > 1 {
		arc, _ = newFilletArc(corner, offA, offB, axis, amount)
	}
	for s := 1; s < segments; s++ {
		t := float64(s) / float64(segments)
		if arc != nil {
			if p, ok := arc.at(t); ok {
				pts[s] = p
				continue
			}
		}
		pts[s] = lerp(a, b, t)
	}
	return pts
}
