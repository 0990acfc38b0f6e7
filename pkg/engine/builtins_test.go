package engine

import (
	"strings"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/facet/pkg/kernel/sdfx"
	"github.com/chazu/facet/pkg/mesh"
)

// run evaluates src on an empty mesh and fails on any error.
func run(t *testing.T, eng *Engine, src string) *Output {
	t.Helper()
	out, evalErrs, err := eng.Evaluate(src, nil)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if out == nil {
		t.Fatal("expected non-nil output")
	}
	if err := mesh.Check(out.Mesh); err != nil {
		t.Fatalf("script left an invalid mesh: %v", err)
	}
	return out
}

// evalFails evaluates src and returns the first eval error message.
func evalFails(t *testing.T, eng *Engine, src string) string {
	t.Helper()
	out, evalErrs, err := eng.Evaluate(src, nil)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if out != nil {
		t.Fatal("expected nil output on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error")
	}
	return evalErrs[0].Message
}

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(bevel e :amount 0.1)`,
			expect: `(bevel e "__kw_amount" 0.1)`,
		},
		{
			name:   "multiple keywords",
			input:  `(grid :nx 4 :ny 2)`,
			expect: `(grid "__kw_nx" 4 "__kw_ny" 2)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "escaped quote in string",
			input:  `"a \" :b" :c`,
			expect: `"a \" :b" "__kw_c"`,
		},
		{
			name:   "backtick string preserved",
			input:  "`extrude-faces :x`",
			expect: "`extrude-faces :x`",
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(extrude-faces :type :bevel)`,
			expect: `(extrude_faces "__kw_type" "__kw_bevel")`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative literal preserved",
			input:  `(vec3 0 0 -1)`,
			expect: `(vec3 0 0 -1)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:snap-axis`,
			expect: `"__kw_snap-axis"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

func TestVertexFaceLine(t *testing.T) {
	out := run(t, NewEngine(nil), `
(def a (vertex 0 0 0))
(def b (vertex 1 0 0))
(def c (vertex (vec3 1 1 0)))
(def d (vertex 0 1 0))
(face a b c d :material 2)
(line a c)
`)
	m := out.Mesh
	if m.VertexCount() != 4 || m.FaceCount() != 2 {
		t.Fatalf("mesh = %s, want 4 vertices and 2 faces", m)
	}
	if got := m.Faces[0]; got.Len() != 4 || got.Material != 2 {
		t.Errorf("face = %+v, want quad with material 2", got)
	}
	if !m.Faces[1].IsLine() {
		t.Errorf("second face %v is not a line", m.Faces[1].Vertices)
	}
	if m.Position(2) != (v3.Vec{X: 1, Y: 1}) {
		t.Errorf("vertex 2 at %v, want (1,1,0)", m.Position(2))
	}
}

func TestConstructionErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"face too small", "(vertex 0 0 0) (vertex 1 0 0) (face 0 1)", "at least 3"},
		{"face missing vertex", "(face 0 1 2)", "no vertex"},
		{"line same vertex", "(vertex 0 0 0) (line 0 0)", "distinct"},
		{"vec3 arity", "(vec3 1 2)", "exactly 3"},
		{"vertex float index", "(vertex 0 0 0) (position 0.5)", "expected integer"},
		{"cube size", "(cube :size 0)", "cube"},
		{"sdf box size", "(sdf-box 1 -1 1)", "positive"},
	}
	eng := NewEngine(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := evalFails(t, eng, tt.src)
			if !strings.Contains(msg, tt.want) {
				t.Errorf("message = %q, want containing %q", msg, tt.want)
			}
		})
	}
}

func TestCubeAndGrid(t *testing.T) {
	out := run(t, NewEngine(nil), `
(cube :size 2 :at (vec3 0 0 5))
(grid :nx 3 :ny 2 :cell 0.5)
`)
	m := out.Mesh
	if m.VertexCount() != 8+12 || m.FaceCount() != 6+6 {
		t.Fatalf("mesh = %s, want cube plus 3x2 grid", m)
	}
	if p := m.Position(0); p != (v3.Vec{X: -1, Y: -1, Z: 4}) {
		t.Errorf("cube corner at %v, want (-1,-1,4)", p)
	}
	if got := out.Selection.Faces; len(got) != 6 || got[0] != 6 {
		t.Errorf("selection = %v, want the grid faces", got)
	}
	if len(out.Log) != 2 {
		t.Errorf("log = %v, want 2 entries", out.Log)
	}
}

// ---------------------------------------------------------------------------
// Operators
// ---------------------------------------------------------------------------

func TestBevelCubeEdge(t *testing.T) {
	out := run(t, NewEngine(nil), `
(cube)
(bevel (edge 4 5) :amount 0.1)
`)
	if out.Mesh.VertexCount() != 10 || out.Mesh.FaceCount() != 7 {
		t.Errorf("mesh = %s, want 10 vertices and 7 faces", out.Mesh)
	}
	if len(out.Log) != 2 || !strings.HasPrefix(out.Log[1], "bevel: 1/1") {
		t.Errorf("log = %v", out.Log)
	}
	if !out.Selection.IsEmpty() {
		t.Errorf("selection = %+v, want cleared after bevel", out.Selection)
	}
}

func TestBevelFilletSegments(t *testing.T) {
	out := run(t, NewEngine(nil), `
(cube)
(bevel (list (edge 4 5)) :amount 0.2 :segments 4 :fillet true)
`)
	if out.Mesh.FaceCount() != 6+4 {
		t.Errorf("faces = %d, want 10", out.Mesh.FaceCount())
	}
}

func TestBevelSkipProducesWarning(t *testing.T) {
	out := run(t, NewEngine(nil), `
(cube)
(bevel (edge 0 6) :amount 0.1)
`)
	if len(out.Warnings) != 1 {
		t.Fatalf("warnings = %+v, want one", out.Warnings)
	}
	if w := out.Warnings[0]; w.Op != "bevel" || w.Item != 0 {
		t.Errorf("warning = %+v", w)
	}
	if out.Mesh.VertexCount() != 8 {
		t.Errorf("mesh changed by a skipped bevel: %s", out.Mesh)
	}
}

func TestBevelInvalidAmount(t *testing.T) {
	msg := evalFails(t, NewEngine(nil), "(cube) (bevel (edge 4 5) :amount -1)")
	if !strings.Contains(msg, "invalid parameter") {
		t.Errorf("message = %q, want invalid parameter", msg)
	}
}

func TestExtrudeFacesUsesSelection(t *testing.T) {
	out := run(t, NewEngine(nil), `
(grid :nx 2 :ny 1)
(extrude-faces :distance 0.5)
(extrude-faces :distance 0.5 :type :bevel :scale 0.5)
`)
	m := out.Mesh
	// Each extrude gives both faces four vertices of their own.
	if m.VertexCount() != 6+8+8 {
		t.Errorf("vertices = %d, want 22", m.VertexCount())
	}
	if got := out.Selection.Faces; len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Errorf("selection = %v, want the original faces", got)
	}
	for _, v := range m.Faces[0].Vertices {
		if z := m.Position(v).Z; z < 0.999 || z > 1.001 {
			t.Errorf("cap vertex %d at z=%g, want 1", v, z)
		}
	}
}

func TestExtrudeFacesInvalidType(t *testing.T) {
	msg := evalFails(t, NewEngine(nil), "(cube) (extrude-faces 1 :type :twist)")
	if !strings.Contains(msg, "invalid type") {
		t.Errorf("message = %q", msg)
	}
}

func TestExtrudeEdgesFromLine(t *testing.T) {
	out := run(t, NewEngine(nil), `
(def l (line (vertex 0 0 0) (vertex 1 0 0)))
(extrude-edges :lines (list l) :direction (vec3 0 1 0) :distance 2)
`)
	m := out.Mesh
	if m.VertexCount() != 4 || m.FaceCount() != 1 {
		t.Fatalf("mesh = %s, want the line grown into one quad", m)
	}
	if m.Faces[0].Len() != 4 {
		t.Errorf("face has %d corners, want 4", m.Faces[0].Len())
	}
	if p := m.Position(2); p != (v3.Vec{Y: 2}) {
		t.Errorf("extruded vertex at %v, want (0,2,0)", p)
	}
}

func TestExtrudeBoundaryEdge(t *testing.T) {
	out := run(t, NewEngine(nil), `
(grid)
(extrude-edges (edge 0 1) :direction (vec3 0 -1 0) :distance 1)
`)
	if out.Mesh.FaceCount() != 2 || out.Mesh.VertexCount() != 6 {
		t.Errorf("mesh = %s, want a second quad hanging off edge 0-1", out.Mesh)
	}
	if len(out.Selection.Edges) != 1 {
		t.Errorf("selection = %+v, want the new outer edge", out.Selection)
	}
}

func TestMergeWeldsDuplicates(t *testing.T) {
	out := run(t, NewEngine(nil), `
(face (vertex 0 0 0) (vertex 1 0 0) (vertex 1 1 0) (vertex 0 1 0))
(face (vertex 1 0 0) (vertex 2 0 0) (vertex 2 1 0) (vertex 1 1 0))
(merge :all true)
`)
	if out.Mesh.VertexCount() != 6 {
		t.Errorf("vertices = %d, want 6 after welding the seam", out.Mesh.VertexCount())
	}
	if !strings.Contains(out.Log[0], "merged 2 vertices") {
		t.Errorf("log = %v", out.Log)
	}
	if !out.Selection.IsEmpty() {
		t.Errorf("selection = %+v, want cleared after merge", out.Selection)
	}
}

func TestMergeNothing(t *testing.T) {
	out := run(t, NewEngine(nil), "(cube) (merge :all true :threshold 0.1)")
	if out.Mesh.VertexCount() != 8 || out.Log[1] != "merge: nothing to merge" {
		t.Errorf("log = %v, mesh = %s", out.Log, out.Mesh)
	}
}

// ---------------------------------------------------------------------------
// Solids
// ---------------------------------------------------------------------------

func TestImportSolid(t *testing.T) {
	eng := NewEngine(nil, WithKernel(sdfx.New(sdfx.WithCells(6))))
	out := run(t, eng, `
(def body (sdf-union (sdf-box 1 1 1) (sdf-translate (sdf-sphere :radius 0.4) (vec3 0.5 0 0))))
(import-solid body :material 3)
`)
	m := out.Mesh
	if m.FaceCount() == 0 {
		t.Fatal("import produced no faces")
	}
	for i, f := range m.Faces {
		if f.Material != 3 {
			t.Fatalf("face %d material = %d, want 3", i, f.Material)
		}
	}
	if len(out.Selection.Faces) != m.FaceCount() {
		t.Errorf("selection holds %d faces, want all %d", len(out.Selection.Faces), m.FaceCount())
	}
}

func TestSolidTypeErrors(t *testing.T) {
	eng := NewEngine(nil)
	msg := evalFails(t, eng, "(import-solid 3)")
	if !strings.Contains(msg, "expected solid") {
		t.Errorf("message = %q", msg)
	}
	msg = evalFails(t, eng, "(sdf-union (sdf-sphere))")
	if !strings.Contains(msg, "at least 2") {
		t.Errorf("message = %q", msg)
	}
}

// ---------------------------------------------------------------------------
// Plain arithmetic still works (regression)
// ---------------------------------------------------------------------------

func TestArithmeticStillWorks(t *testing.T) {
	out := run(t, NewEngine(nil), "(def n (+ (vertex-count) (face-count) 1))")
	if out.Mesh.VertexCount() != 0 {
		t.Errorf("mesh = %s, want empty", out.Mesh)
	}
}
