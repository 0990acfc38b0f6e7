package engine

import (
	"fmt"
	"math"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/chazu/facet/pkg/kernel"
	"github.com/chazu/facet/pkg/mesh"
	"github.com/chazu/facet/pkg/ops"
	"github.com/chazu/facet/pkg/primitive"
)

// DefaultMergeThreshold is the weld radius used by merge when the script
// gives none.
const DefaultMergeThreshold = 1e-3

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms facet Lisp source code before passing it to
// zygomys. It performs three transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: extrude-faces -> extrude_faces
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator).
//
//  3. Line comments: ; and ;; become //.
//
// All transformations respect string literal boundaries.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		switch {
		case b[i] == '"':
			j := skipQuoted(b, i, '"', true)
			result = append(result, b[i:j]...)
			i = j
		case b[i] == '`':
			j := skipQuoted(b, i, '`', false)
			result = append(result, b[i:j]...)
			i = j
		case b[i] == ';':
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
		case b[i] == ':' && i+1 < len(b) && b[i+1] == '=':
			result = append(result, b[i], b[i+1])
			i += 2
		case b[i] == ':' && i+1 < len(b) && isLetter(b[i+1]):
			j := i + 1
			for j < len(b) && isKWChar(b[j]) {
				j++
			}
			result = append(result, '"')
			result = append(result, kwPrefix...)
			result = append(result, b[i+1:j]...)
			result = append(result, '"')
			i = j
		case b[i] == '-' && i > 0 && i+1 < len(b) && isIdentChar(b[i-1]) && isLetter(b[i+1]):
			// Only a hyphen between identifier characters; a minus sign
			// is left alone.
			result = append(result, '_')
			i++
		default:
			result = append(result, b[i])
			i++
		}
	}
	return string(result)
}

// skipQuoted returns the index just past the literal opening at i.
func skipQuoted(b []byte, i int, quote byte, escapes bool) int {
	i++
	for i < len(b) && b[i] != quote {
		if escapes && b[i] == '\\' && i+1 < len(b) {
			i++
		}
		i++
	}
	if i < len(b) {
		i++
	}
	return i
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a point or direction.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpEdge wraps a vertex pair so it can be handed to bevel and
// extrude-edges.
type sexpEdge struct {
	edge mesh.Edge
}

func (e *sexpEdge) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(edge %d %d)", e.edge.V0, e.edge.V1)
}
func (e *sexpEdge) Type() *zygo.RegisteredType { return nil }

// sexpSolid wraps a kernel solid until import-solid meshes it.
type sexpSolid struct {
	solid kernel.Solid
	desc  string
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string {
	return "(solid " + s.desc + ")"
}
func (s *sexpSolid) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		switch {
		case ok && i+1 < len(args):
			result.kw[name] = args[i+1]
			i += 2
		case ok:
			// Trailing keyword with no value reads as a set flag.
			result.kw[name] = zygo.SexpNull
			i++
		default:
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

func (a kwArgs) float(name string, def float64) (float64, error) {
	v, ok := a.kw[name]
	if !ok {
		return def, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return f, nil
}

func (a kwArgs) int(name string, def int) (int, error) {
	v, ok := a.kw[name]
	if !ok {
		return def, nil
	}
	n, err := toInt(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return n, nil
}

func (a kwArgs) bool(name string) (bool, error) {
	v, ok := a.kw[name]
	if !ok {
		return false, nil
	}
	b, err := toBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", name, err)
	}
	return b, nil
}

func (a kwArgs) vec3(name string, def v3.Vec) (v3.Vec, error) {
	v, ok := a.kw[name]
	if !ok {
		return def, nil
	}
	p, err := toVec3(v)
	if err != nil {
		return v3.Vec{}, fmt.Errorf("%s: %w", name, err)
	}
	return p, nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an index or count. Floats are rejected rather than
// truncated.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toBool accepts true/false; a bare flag arrives as nil and reads as true.
func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return true, nil
		}
	}
	return false, fmt.Errorf("expected boolean, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_bevel) and plain strings ("bevel").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

// toVec3 extracts a v3.Vec from a sexpVec3.
func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

func toSolid(s zygo.Sexp) (*sexpSolid, error) {
	if v, ok := s.(*sexpSolid); ok {
		return v, nil
	}
	return nil, fmt.Errorf("expected solid, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// flatten expands list and array arguments one level, so (bevel e1 e2)
// and (bevel (list e1 e2)) read the same.
func flatten(args []zygo.Sexp) ([]zygo.Sexp, error) {
	var out []zygo.Sexp
	for _, a := range args {
		switch a.(type) {
		case *zygo.SexpPair, *zygo.SexpArray:
			items, err := sexpListToSlice(a)
			if err != nil {
				return nil, err
			}
			out = append(out, items...)
		default:
			out = append(out, a)
		}
	}
	return out, nil
}

func toInts(args []zygo.Sexp) ([]int, error) {
	items, err := flatten(args)
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, len(items))
	for i, it := range items {
		n, err := toInt(it)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, n)
	}
	return out, nil
}

func toEdges(args []zygo.Sexp) ([]mesh.Edge, error) {
	items, err := flatten(args)
	if err != nil {
		return nil, err
	}
	out := make([]mesh.Edge, 0, len(items))
	for i, it := range items {
		e, ok := it.(*sexpEdge)
		if !ok {
			return nil, fmt.Errorf("item %d: expected edge, got %T (%s)", i, it, it.SexpString(nil))
		}
		out = append(out, e.edge)
	}
	return out, nil
}

// toPoint reads either a single vec3 or three numbers.
func toPoint(args []zygo.Sexp) (v3.Vec, error) {
	switch len(args) {
	case 1:
		return toVec3(args[0])
	case 3:
		var c [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return v3.Vec{}, fmt.Errorf("%c: %w", "xyz"[i], err)
			}
			c[i] = f
		}
		return v3.Vec{X: c[0], Y: c[1], Z: c[2]}, nil
	}
	return v3.Vec{}, fmt.Errorf("expected a vec3 or 3 numbers, got %d arguments", len(args))
}

func positive(name string, f float64) error {
	if !(f > 0) || math.IsInf(f, 0) {
		return fmt.Errorf("%s must be positive, got %g", name, f)
	}
	return nil
}

func intSexp(n int) zygo.Sexp { return &zygo.SexpInt{Val: int64(n)} }

func intList(ns []int) zygo.Sexp {
	return zygo.MakeList(lo.Map(ns, func(n int, _ int) zygo.Sexp { return intSexp(n) }))
}

func edgeList(es []mesh.Edge) zygo.Sexp {
	return zygo.MakeList(lo.Map(es, func(e mesh.Edge, _ int) zygo.Sexp { return &sexpEdge{edge: e} }))
}

// ---------------------------------------------------------------------------
// Session state
// ---------------------------------------------------------------------------

// session is the mesh and selection one evaluation works on.
type session struct {
	m      *mesh.Mesh
	sel    mesh.Selection
	editor *ops.Editor
	kernel kernel.Kernel
	weld   float64
	log    *zap.Logger

	lines    []string
	warnings []EvalWarning
}

func (s *session) output() *Output {
	return &Output{Mesh: s.m, Selection: s.sel, Log: s.lines, Warnings: s.warnings}
}

func (s *session) index() mesh.Index {
	return s.editor.Config().IndexFactory(s.m)
}

// record logs an operator result and adopts its selection.
func (s *session) record(op string, res *ops.Result) {
	s.lines = append(s.lines, fmt.Sprintf("%s: %s", op, res))
	for _, sk := range res.Skipped {
		s.warnings = append(s.warnings, EvalWarning{Op: op, Item: sk.Item, Message: sk.Reason})
	}
	if res.Changed() {
		s.sel = res.Selection
	}
	s.log.Debug("operator applied",
		zap.String("op", op),
		zap.Int("requested", res.Requested),
		zap.Int("processed", res.Processed))
}

// appendMesh copies src into the session mesh shifted by at and selects
// the new faces.
func (s *session) appendMesh(op string, src *mesh.Mesh, at v3.Vec) []int {
	first := s.m.FaceCount()
	offset := s.m.Append(src)
	for i := offset; i < s.m.VertexCount(); i++ {
		s.m.Vertices[i].Position = s.m.Vertices[i].Position.Add(at)
	}
	faces := lo.RangeFrom(first, src.FaceCount())
	s.sel = mesh.Selection{Faces: faces}
	s.lines = append(s.lines, fmt.Sprintf("%s: +%d vertices, +%d faces", op, src.VertexCount(), src.FaceCount()))
	return faces
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs all facet builtins into a zygomys environment.
// The builtins edit the session mesh in place. Vertex and face indices
// are positional, so operators that compact the mesh (bevel, merge)
// invalidate indices held in script variables.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, s *session) {
	registerConstruction(env, s)
	registerSolids(env, s)
	registerOperators(env, s)
	registerQueries(env, s)
}

func registerConstruction(env *zygo.Zlisp, s *session) {

	// (vec3 1 2 3)
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		p, err := toPoint(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: %w", err)
		}
		return &sexpVec3{vec: p}, nil
	})

	// (vertex 1 0 0) or (vertex (vec3 1 0 0)) -> vertex index
	env.AddFunction("vertex", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		p, err := toPoint(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vertex: %w", err)
		}
		return intSexp(s.m.AddPoint(p)), nil
	})

	// (face a b c d :material 1) -> face index
	env.AddFunction("face", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		vs, err := toInts(pa.positional)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("face: %w", err)
		}
		if len(vs) < 3 {
			return zygo.SexpNull, fmt.Errorf("face requires at least 3 vertices, got %d", len(vs))
		}
		for _, v := range vs {
			if !s.m.ValidVertex(v) {
				return zygo.SexpNull, fmt.Errorf("face: no vertex %d", v)
			}
		}
		mat, err := pa.int("material", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("face: %w", err)
		}
		return intSexp(s.m.AddFace(mesh.NewFace(mat, vs...))), nil
	})

	// (line a b) -> face index of an auxiliary line
	env.AddFunction("line", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		vs, err := toInts(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("line: %w", err)
		}
		if len(vs) != 2 || vs[0] == vs[1] {
			return zygo.SexpNull, fmt.Errorf("line requires 2 distinct vertices, got %v", vs)
		}
		for _, v := range vs {
			if !s.m.ValidVertex(v) {
				return zygo.SexpNull, fmt.Errorf("line: no vertex %d", v)
			}
		}
		return intSexp(s.m.AddFace(mesh.NewFace(0, vs...))), nil
	})

	// (edge a b)
	env.AddFunction("edge", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		vs, err := toInts(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("edge: %w", err)
		}
		if len(vs) != 2 {
			return zygo.SexpNull, fmt.Errorf("edge requires exactly 2 vertices, got %d", len(vs))
		}
		return &sexpEdge{edge: mesh.Edge{V0: vs[0], V1: vs[1]}}, nil
	})

	// (cube :size 2 :at (vec3 0 0 1) :material 0) -> new face indices
	env.AddFunction("cube", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		size, err := pa.float("size", 1)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cube: %w", err)
		}
		mat, err := pa.int("material", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cube: %w", err)
		}
		at, err := pa.vec3("at", v3.Vec{})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cube: %w", err)
		}
		c, err := primitive.Cube(size, mat)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cube: %w", err)
		}
		return intList(s.appendMesh("cube", c, at)), nil
	})

	// (grid :nx 4 :ny 2 :cell 0.5 :at (vec3 0 0 0)) -> new face indices
	env.AddFunction("grid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		nx, err := pa.int("nx", 1)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("grid: %w", err)
		}
		ny, err := pa.int("ny", 1)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("grid: %w", err)
		}
		cell, err := pa.float("cell", 1)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("grid: %w", err)
		}
		mat, err := pa.int("material", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("grid: %w", err)
		}
		at, err := pa.vec3("at", v3.Vec{})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("grid: %w", err)
		}
		g, err := primitive.Grid(nx, ny, cell, mat)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("grid: %w", err)
		}
		return intList(s.appendMesh("grid", g, at)), nil
	})
}

func registerSolids(env *zygo.Zlisp, s *session) {

	// (sdf-box 1 2 3) or (sdf-box (vec3 1 2 3))
	env.AddFunction("sdf_box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		p, err := toPoint(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sdf-box: %w", err)
		}
		for _, c := range []float64{p.X, p.Y, p.Z} {
			if err := positive("size", c); err != nil {
				return zygo.SexpNull, fmt.Errorf("sdf-box: %w", err)
			}
		}
		return &sexpSolid{solid: s.kernel.Box(p.X, p.Y, p.Z), desc: "box"}, nil
	})

	// (sdf-cylinder :height 2 :radius 0.5)
	env.AddFunction("sdf_cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		h, err := pa.float("height", 1)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sdf-cylinder: %w", err)
		}
		r, err := pa.float("radius", 0.5)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sdf-cylinder: %w", err)
		}
		if err := positive("height", h); err != nil {
			return zygo.SexpNull, fmt.Errorf("sdf-cylinder: %w", err)
		}
		if err := positive("radius", r); err != nil {
			return zygo.SexpNull, fmt.Errorf("sdf-cylinder: %w", err)
		}
		return &sexpSolid{solid: s.kernel.Cylinder(h, r, 0), desc: "cylinder"}, nil
	})

	// (sdf-sphere :radius 1)
	env.AddFunction("sdf_sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		r, err := pa.float("radius", 1)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sdf-sphere: %w", err)
		}
		if err := positive("radius", r); err != nil {
			return zygo.SexpNull, fmt.Errorf("sdf-sphere: %w", err)
		}
		return &sexpSolid{solid: s.kernel.Sphere(r), desc: "sphere"}, nil
	})

	// (sdf-union a b ...), (sdf-difference a b ...), (sdf-intersection a b ...)
	booleans := map[string]func(a, b kernel.Solid) kernel.Solid{
		"union":        s.kernel.Union,
		"difference":   s.kernel.Difference,
		"intersection": s.kernel.Intersection,
	}
	for op, fn := range booleans {
		op, fn := op, fn
		env.AddFunction("sdf_"+op, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) < 2 {
				return zygo.SexpNull, fmt.Errorf("sdf-%s requires at least 2 solids, got %d", op, len(args))
			}
			acc, err := toSolid(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("sdf-%s: %w", op, err)
			}
			out := acc.solid
			for _, a := range args[1:] {
				next, err := toSolid(a)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("sdf-%s: %w", op, err)
				}
				out = fn(out, next.solid)
			}
			return &sexpSolid{solid: out, desc: op}, nil
		})
	}

	// (sdf-translate solid (vec3 1 0 0)), (sdf-rotate solid (vec3 0 0 45))
	transforms := map[string]func(s kernel.Solid, x, y, z float64) kernel.Solid{
		"translate": s.kernel.Translate,
		"rotate":    s.kernel.Rotate,
	}
	for op, fn := range transforms {
		op, fn := op, fn
		env.AddFunction("sdf_"+op, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 2 {
				return zygo.SexpNull, fmt.Errorf("sdf-%s requires a solid and a vec3", op)
			}
			sol, err := toSolid(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("sdf-%s: %w", op, err)
			}
			v, err := toVec3(args[1])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("sdf-%s: %w", op, err)
			}
			return &sexpSolid{solid: fn(sol.solid, v.X, v.Y, v.Z), desc: sol.desc}, nil
		})
	}

	// (import-solid solid :material 0 :weld 1e-6) -> new face indices
	env.AddFunction("import_solid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("import-solid requires exactly one solid")
		}
		sol, err := toSolid(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("import-solid: %w", err)
		}
		mat, err := pa.int("material", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("import-solid: %w", err)
		}
		weld, err := pa.float("weld", s.weld)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("import-solid: %w", err)
		}
		m, err := primitive.FromSolid(s.kernel, sol.solid, primitive.ImportOptions{
			Material: mat,
			Weld:     weld,
			Editor:   s.editor,
		})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("import-solid: %w", err)
		}
		return intList(s.appendMesh("import-solid", m, v3.Vec{})), nil
	})
}

func registerOperators(env *zygo.Zlisp, s *session) {

	// (bevel e1 e2 :amount 0.1 :segments 3 :fillet true :material 1)
	// Without edges, the selected edges are bevelled.
	env.AddFunction("bevel", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		edges, err := toEdges(pa.positional)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("bevel: %w", err)
		}
		if len(pa.positional) == 0 {
			edges = s.sel.Edges
		}
		var p ops.BevelParams
		if p.Amount, err = pa.float("amount", 0); err != nil {
			return zygo.SexpNull, fmt.Errorf("bevel: %w", err)
		}
		if p.Segments, err = pa.int("segments", 1); err != nil {
			return zygo.SexpNull, fmt.Errorf("bevel: %w", err)
		}
		if p.Fillet, err = pa.bool("fillet"); err != nil {
			return zygo.SexpNull, fmt.Errorf("bevel: %w", err)
		}
		if p.Material, err = pa.int("material", 0); err != nil {
			return zygo.SexpNull, fmt.Errorf("bevel: %w", err)
		}
		targets := ops.ResolveBevelTargets(s.m, s.index(), edges)
		res, err := s.editor.Bevel(s.m, targets, p)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("bevel: %w", err)
		}
		s.record("bevel", res)
		return intSexp(res.Processed), nil
	})

	// (extrude-edges e1 e2 :direction (vec3 0 0 1) :distance 2 :snap true
	//                :lines (list f1) :material 0)
	env.AddFunction("extrude_edges", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		edges, err := toEdges(pa.positional)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("extrude-edges: %w", err)
		}
		if len(pa.positional) == 0 {
			edges = s.sel.Edges
		}
		var x ops.EdgeExtrusion
		if v, ok := pa.kw["lines"]; ok {
			if x.Lines, err = toInts([]zygo.Sexp{v}); err != nil {
				return zygo.SexpNull, fmt.Errorf("extrude-edges: lines: %w", err)
			}
		}
		if x.Direction, err = pa.vec3("direction", mesh.Up); err != nil {
			return zygo.SexpNull, fmt.Errorf("extrude-edges: %w", err)
		}
		if x.Distance, err = pa.float("distance", 1); err != nil {
			return zygo.SexpNull, fmt.Errorf("extrude-edges: %w", err)
		}
		if x.SnapAxis, err = pa.bool("snap"); err != nil {
			return zygo.SexpNull, fmt.Errorf("extrude-edges: %w", err)
		}
		if x.Material, err = pa.int("material", 0); err != nil {
			return zygo.SexpNull, fmt.Errorf("extrude-edges: %w", err)
		}
		idx := s.index()
		for _, e := range edges {
			adj := -1
			if ef := mesh.ResolveEdge(s.m, idx, e); len(ef.Faces) > 0 {
				adj = ef.Faces[0]
			}
			x.Edges = append(x.Edges, ops.ExtrudeEdge{Edge: e, AdjacentFace: adj})
		}
		res, err := s.editor.ExtrudeEdges(s.m, x)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("extrude-edges: %w", err)
		}
		s.record("extrude-edges", res)
		return intSexp(res.Processed), nil
	})

	// (extrude-faces f1 f2 :distance 1 :individual true :type :bevel :scale 0.8)
	// Without faces, the selected faces are extruded.
	env.AddFunction("extrude_faces", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		faces, err := toInts(pa.positional)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("extrude-faces: %w", err)
		}
		if len(pa.positional) == 0 {
			faces = s.sel.Faces
		}
		x := ops.FaceExtrusion{Faces: faces}
		if x.Distance, err = pa.float("distance", 1); err != nil {
			return zygo.SexpNull, fmt.Errorf("extrude-faces: %w", err)
		}
		if x.IndividualNormals, err = pa.bool("individual"); err != nil {
			return zygo.SexpNull, fmt.Errorf("extrude-faces: %w", err)
		}
		if x.Scale, err = pa.float("scale", 1); err != nil {
			return zygo.SexpNull, fmt.Errorf("extrude-faces: %w", err)
		}
		if v, ok := pa.kw["type"]; ok {
			kind, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("extrude-faces: type: %w", err)
			}
			switch kind {
			case "normal":
				x.Type = ops.ExtrudeNormal
			case "bevel":
				x.Type = ops.ExtrudeBevel
			default:
				return zygo.SexpNull, fmt.Errorf("extrude-faces: invalid type %q, expected normal or bevel", kind)
			}
		}
		res, err := s.editor.ExtrudeFaces(s.m, x)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("extrude-faces: %w", err)
		}
		s.record("extrude-faces", res)
		return intSexp(res.Processed), nil
	})

	// (merge :all true :threshold 0.01) or (merge v1 v2 v3 :threshold 0.01)
	// -> number of vertices removed
	env.AddFunction("merge", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var p ops.MergeParams
		var err error
		if p.Vertices, err = toInts(pa.positional); err != nil {
			return zygo.SexpNull, fmt.Errorf("merge: %w", err)
		}
		if len(pa.positional) == 0 {
			p.Vertices = s.sel.Vertices
		}
		if p.All, err = pa.bool("all"); err != nil {
			return zygo.SexpNull, fmt.Errorf("merge: %w", err)
		}
		if p.Threshold, err = pa.float("threshold", DefaultMergeThreshold); err != nil {
			return zygo.SexpNull, fmt.Errorf("merge: %w", err)
		}
		res, err := s.editor.Merge(s.m, p)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("merge: %w", err)
		}
		s.lines = append(s.lines, "merge: "+res.Summary)
		if res.Success {
			// Indices moved; nothing selected survives unambiguously.
			s.sel = mesh.Selection{}
		}
		s.log.Debug("operator applied",
			zap.String("op", "merge"),
			zap.Int("removed", res.Removed),
			zap.Int("clusters", res.Clusters))
		return intSexp(res.Removed), nil
	})
}

func registerQueries(env *zygo.Zlisp, s *session) {

	env.AddFunction("vertex_count", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return intSexp(s.m.VertexCount()), nil
	})

	env.AddFunction("face_count", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return intSexp(s.m.FaceCount()), nil
	})

	// (position 3) -> vec3
	env.AddFunction("position", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("position requires a vertex index")
		}
		v, err := toInt(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("position: %w", err)
		}
		if !s.m.ValidVertex(v) {
			return zygo.SexpNull, fmt.Errorf("position: no vertex %d", v)
		}
		return &sexpVec3{vec: s.m.Position(v)}, nil
	})

	// (selection) -> selected faces, else edges, else vertices
	env.AddFunction("selection", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		switch {
		case len(s.sel.Faces) > 0:
			return intList(s.sel.Faces), nil
		case len(s.sel.Edges) > 0:
			return edgeList(s.sel.Edges), nil
		default:
			return intList(s.sel.Vertices), nil
		}
	})
}
