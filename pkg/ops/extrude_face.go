package ops

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"go.uber.org/zap"

	"github.com/chazu/facet/pkg/mesh"
)

// ExtrudeType selects how the extruded cap is shaped.
type ExtrudeType int

const (
	// ExtrudeNormal translates the cap along the normal.
	ExtrudeNormal ExtrudeType = iota
	// ExtrudeBevel also shrinks the cap toward its centroid by Scale.
	ExtrudeBevel
)

func (t ExtrudeType) String() string {
	switch t {
	case ExtrudeNormal:
		return "normal"
	case ExtrudeBevel:
		return "bevel"
	default:
		return "unknown"
	}
}

// FaceExtrusion describes a face extrude.
type FaceExtrusion struct {
	Faces             []int
	Distance          float64
	IndividualNormals bool // each face moves along its own normal
	Type              ExtrudeType
	Scale             float64 // cap scale for ExtrudeBevel, in (0, 1]
}

func (x FaceExtrusion) validate() error {
	if math.IsNaN(x.Distance) || math.IsInf(x.Distance, 0) {
		return invalidParam("extrude-faces", "distance %g must be finite", x.Distance)
	}
	switch x.Type {
	case ExtrudeNormal:
	case ExtrudeBevel:
		if !(x.Scale > 0 && x.Scale <= 1) {
			return invalidParam("extrude-faces", "scale %g must be in (0, 1]", x.Scale)
		}
	default:
		return invalidParam("extrude-faces", "unknown extrude type %d", x.Type)
	}
	return nil
}

// ExtrudeFaces pushes each selected face out along its normal (or the
// shared averaged normal), builds one side quad per face edge and moves the
// face onto the new vertices. Faces keep their identity, so the result
// selects the same face indices.
//
// A zero distance still builds the full structure with coincident
// vertices, which an interactive drag then moves.
func (e *Editor) ExtrudeFaces(m *mesh.Mesh, x FaceExtrusion) (*Result, error) {
	if err := x.validate(); err != nil {
		return nil, err
	}
	res := &Result{Requested: len(x.Faces)}
	idx := e.index(m)

	seen := make(map[int]bool)
	var faces []int
	for i, fi := range x.Faces {
		switch {
		case !m.ValidFace(fi):
			e.skipItem(res, "extrude-faces", i, "face %d out of range", fi)
		case m.Faces[fi].Len() < 3:
			e.skipItem(res, "extrude-faces", i, "face %d is a line", fi)
		case seen[fi]:
			e.skipItem(res, "extrude-faces", i, "duplicate face %d", fi)
		default:
			seen[fi] = true
			faces = append(faces, fi)
		}
	}
	if len(faces) == 0 {
		return res, nil
	}

	normals := make([]v3.Vec, len(faces))
	shared := AveragedNormal(idx, faces)
	for i, fi := range faces {
		normals[i] = shared
		if x.IndividualNormals {
			normals[i] = idx.FaceNormal(fi)
		}
	}

	for i, fi := range faces {
		orig := m.Faces[fi].Corners()
		pos := make([]v3.Vec, len(orig))
		off := normals[i].MulScalar(x.Distance)
		for j, c := range orig {
			pos[j] = m.Position(c.Vertex).Add(off)
		}
		if x.Type == ExtrudeBevel {
			c := centroid(pos)
			for j := range pos {
				pos[j] = c.Add(pos[j].Sub(c).MulScalar(x.Scale))
			}
		}

		moved := make([]mesh.Corner, len(orig))
		for j, c := range orig {
			moved[j] = attrCorner(m.CloneVertex(c.Vertex, pos[j]), c)
			res.NewVertices = append(res.NewVertices, moved[j].Vertex)
		}

		material := m.Faces[fi].Material
		for j := range orig {
			k := (j + 1) % len(orig)
			side := []mesh.Corner{orig[j], orig[k], moved[k], moved[j]}
			res.NewFaces = append(res.NewFaces, m.AddFace(mesh.FaceFromCorners(material, side)))
		}
		m.Faces[fi].SetCorners(moved)

		res.ModifiedFaces = append(res.ModifiedFaces, fi)
		res.Selection.Faces = append(res.Selection.Faces, fi)
		res.Processed++
	}

	e.log.Debug("faces extruded",
		zap.Stringer("result", res),
		zap.Stringer("type", x.Type),
		zap.Float64("distance", x.Distance))
	return res, e.verify(m, "extrude-faces")
}
