package mesh

import (
	"fmt"
	"strings"
)

// ValidationSeverity indicates whether a finding means the mesh is
// corrupt or merely suspicious.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // structural corruption
	SeverityWarning                           // degenerate but well-formed
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ElementKind says what a finding's Index refers to.
type ElementKind int

const (
	ElementMesh ElementKind = iota
	ElementVertex
	ElementFace
)

func (k ElementKind) String() string {
	switch k {
	case ElementVertex:
		return "vertex"
	case ElementFace:
		return "face"
	default:
		return "mesh"
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Kind     ElementKind
	Index    int
	Message  string
	Severity ValidationSeverity
}

func (e ValidationError) Error() string {
	if e.Kind == ElementMesh {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] %s %d: %s", e.Severity, e.Kind, e.Index, e.Message)
}

// ValidationResult separates blocking errors from warnings.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether no structural errors were found.
func (r ValidationResult) OK() bool { return len(r.Errors) == 0 }

// ---------------------------------------------------------------------------
// Entry points
// ---------------------------------------------------------------------------

// Validate runs the structural checks and returns the errors found. An
// empty slice means every index in the mesh resolves. Validate never
// mutates the mesh.
func Validate(m *Mesh) []ValidationError {
	var errs []ValidationError
	for fi := range m.Faces {
		errs = append(errs, validateFace(m, fi)...)
	}
	return errs
}

// ValidateAll runs the structural checks plus the geometric warnings.
func ValidateAll(m *Mesh) ValidationResult {
	var r ValidationResult
	r.Errors = Validate(m)
	if len(r.Errors) > 0 {
		// Geometric checks index freely; skip them on a corrupt mesh.
		return r
	}
	r.Warnings = append(r.Warnings, warnZeroLengthEdges(m)...)
	r.Warnings = append(r.Warnings, warnDegenerateNormals(m)...)
	r.Warnings = append(r.Warnings, warnUnreferenced(m)...)
	return r
}

// Check returns nil for a structurally sound mesh and an error wrapping
// ErrIndexCorruption otherwise.
func Check(m *Mesh) error {
	errs := Validate(m)
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(errs))
	for i, e := range errs {
		if i == 5 {
			msgs = append(msgs, fmt.Sprintf("... %d more", len(errs)-i))
			break
		}
		msgs = append(msgs, e.Error())
	}
	return fmt.Errorf("%w: %s", ErrIndexCorruption, strings.Join(msgs, "; "))
}

// ---------------------------------------------------------------------------
// Structural checks
// ---------------------------------------------------------------------------

func faceError(fi int, format string, args ...interface{}) ValidationError {
	return ValidationError{
		Kind:     ElementFace,
		Index:    fi,
		Message:  fmt.Sprintf(format, args...),
		Severity: SeverityError,
	}
}

func validateFace(m *Mesh, fi int) []ValidationError {
	f := &m.Faces[fi]
	n := len(f.Vertices)
	if n < 2 {
		return []ValidationError{faceError(fi, "has %d vertices, need at least 2", n)}
	}
	if len(f.UVs) != n || len(f.Normals) != n {
		return []ValidationError{faceError(fi, "attribute arrays have lengths uv=%d normal=%d, want %d",
			len(f.UVs), len(f.Normals), n)}
	}

	var errs []ValidationError
	for k, v := range f.Vertices {
		if !m.ValidVertex(v) {
			errs = append(errs, faceError(fi, "corner %d references vertex %d, mesh has %d", k, v, len(m.Vertices)))
			continue
		}
		vert := &m.Vertices[v]
		if !attributeIndexOK(f.UVs[k], len(vert.UVs)) {
			errs = append(errs, faceError(fi, "corner %d uv index %d out of range for vertex %d (%d uvs)",
				k, f.UVs[k], v, len(vert.UVs)))
		}
		if !attributeIndexOK(f.Normals[k], len(vert.Normals)) {
			errs = append(errs, faceError(fi, "corner %d normal index %d out of range for vertex %d (%d normals)",
				k, f.Normals[k], v, len(vert.Normals)))
		}
	}
	if n == 2 {
		if f.Vertices[0] == f.Vertices[1] {
			errs = append(errs, faceError(fi, "line has identical endpoints %d", f.Vertices[0]))
		}
		return errs
	}
	for k := 0; k < n; k++ {
		if f.Vertices[k] == f.Vertices[(k+1)%n] {
			errs = append(errs, faceError(fi, "degenerate edge at corner %d (vertex %d repeated)", k, f.Vertices[k]))
		}
	}
	return errs
}

// attributeIndexOK accepts any in-range index, and index 0 into an empty
// list, which means "no attribute".
func attributeIndexOK(idx, n int) bool {
	if n == 0 {
		return idx == 0
	}
	return idx >= 0 && idx < n
}

// ---------------------------------------------------------------------------
// Geometric warnings
// ---------------------------------------------------------------------------

func warnZeroLengthEdges(m *Mesh) []ValidationError {
	var warnings []ValidationError
	for fi := range m.Faces {
		f := &m.Faces[fi]
		n := len(f.Vertices)
		for k := 0; k < n; k++ {
			if n == 2 && k == 1 {
				break
			}
			a := m.Position(f.Vertices[k])
			b := m.Position(f.Vertices[(k+1)%n])
			d := b.Sub(a)
			if d.Dot(d) < degenerateLength {
				warnings = append(warnings, ValidationError{
					Kind:     ElementFace,
					Index:    fi,
					Message:  fmt.Sprintf("zero-length edge between vertices %d and %d", f.Vertices[k], f.Vertices[(k+1)%n]),
					Severity: SeverityWarning,
				})
			}
		}
	}
	return warnings
}

func warnDegenerateNormals(m *Mesh) []ValidationError {
	var warnings []ValidationError
	for fi := range m.Faces {
		f := &m.Faces[fi]
		if len(f.Vertices) < 3 {
			continue
		}
		p0 := m.Position(f.Vertices[0])
		p1 := m.Position(f.Vertices[1])
		p2 := m.Position(f.Vertices[2])
		c := p1.Sub(p0).Cross(p2.Sub(p1))
		if c.Dot(c) < degenerateLength {
			warnings = append(warnings, ValidationError{
				Kind:     ElementFace,
				Index:    fi,
				Message:  "first three corners are collinear; normal is undefined",
				Severity: SeverityWarning,
			})
		}
	}
	return warnings
}

func warnUnreferenced(m *Mesh) []ValidationError {
	var warnings []ValidationError
	used := Referenced(m)
	for i := range m.Vertices {
		if !used[i] {
			warnings = append(warnings, ValidationError{
				Kind:     ElementVertex,
				Index:    i,
				Message:  "not referenced by any face",
				Severity: SeverityWarning,
			})
		}
	}
	return warnings
}
