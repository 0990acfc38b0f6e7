package main

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/chazu/facet/pkg/engine"
	"github.com/chazu/facet/pkg/kernel"
	"github.com/chazu/facet/pkg/kernel/sdfx"
	"github.com/chazu/facet/pkg/mesh"
	"github.com/chazu/facet/pkg/ops"
	"github.com/chazu/facet/pkg/tessellate"
)

// colorPalette is a default palette used to assign distinct colors to materials.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// ErrMeshChanged is reported by Apply when the working mesh changed while
// the script ran. The script result is discarded.
var ErrMeshChanged = errors.New("working mesh changed during evaluation")

// App is the editing host. It owns the working mesh, the selection and
// the undo history, and runs scripts and operators against them.
// All methods are safe for concurrent use.
type App struct {
	mu        sync.Mutex
	log       *zap.Logger
	engine    *engine.Engine
	editor    *ops.Editor
	kernel    kernel.Kernel
	mesh      *mesh.Mesh
	rev       uint64 // bumped on every change to mesh
	selection mesh.Selection
	history   *History
}

// MeshData is the JSON-serializable preview buffer for one material.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Name     string    `json:"name"`
	Material int       `json:"material"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable error or warning.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result of running a script.
type EvalResult struct {
	Meshes   []MeshData       `json:"meshes"`
	Errors   []EvalErrorData  `json:"errors"`
	Warnings []EvalErrorData  `json:"warnings"`
	Log      []string         `json:"log"`
	Stats    tessellate.Stats `json:"stats"`
}

func newEvalResult() EvalResult {
	return EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
		Log:      []string{},
	}
}

// NewApp creates an App with an empty mesh. A nil logger disables logging.
func NewApp(cfg Config, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	k := sdfx.New(sdfx.WithCells(cfg.KernelCells))
	ed := ops.NewEditor(ops.Config{Verify: cfg.Verify, Logger: logger})
	return &App{
		log:    logger.Named("app"),
		engine: engine.NewEngine(logger, engine.WithEditor(ed), engine.WithKernel(k), engine.WithTimeout(cfg.EvalTimeout)),
		editor: ed,
		kernel: k,
		mesh:   mesh.New(),

		history: NewHistory(cfg.HistoryLimit),
	}
}

// ---------------------------------------------------------------------------
// Scripts
// ---------------------------------------------------------------------------

// Evaluate runs source on an empty mesh and, when it succeeds, installs
// the result as the working mesh. The source describes the whole model.
// Each successful script is one undo step.
func (a *App) Evaluate(source string) EvalResult {
	return a.run("evaluate", source, nil, 0)
}

// Apply runs source against the working mesh. If the working mesh changes
// while the script runs, the result is dropped and ErrMeshChanged is
// reported.
func (a *App) Apply(source string) EvalResult {
	a.mu.Lock()
	base, rev := a.mesh.Clone(), a.rev
	a.mu.Unlock()
	return a.run("apply", source, base, rev)
}

// run evaluates source on base. A nil base means an empty mesh, and the
// result then replaces the working mesh whatever it has become; otherwise
// the working mesh must still be at revision rev.
func (a *App) run(label, source string, base *mesh.Mesh, rev uint64) EvalResult {
	result := newEvalResult()

	out, evalErrs, err := a.engine.Evaluate(source, base)
	if err != nil {
		a.log.Error("evaluation failed", zap.Error(err))
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}

	for _, w := range out.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{
			Message: fmt.Sprintf("%s: item %d skipped: %s", w.Op, w.Item, w.Message),
		})
	}
	result.Log = append(result.Log, out.Log...)

	if err := a.install(label, out, base != nil, rev); err != nil {
		a.log.Warn("script result dropped", zap.String("op", label), zap.Error(err))
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}

	meshes, stats, err := a.Preview()
	if err != nil {
		result.Errors = append(result.Errors, EvalErrorData{Message: "tessellation failed: " + err.Error()})
		return result
	}
	result.Meshes = meshes
	result.Stats = stats
	return result
}

// install makes out the working mesh. With checkRev set it fails with
// ErrMeshChanged unless the working mesh is still at revision rev.
func (a *App) install(label string, out *engine.Output, checkRev bool, rev uint64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if checkRev && a.rev != rev {
		return fmt.Errorf("%s: %w", label, ErrMeshChanged)
	}
	a.history.push(label, a.mesh, a.selection)
	a.mesh = out.Mesh
	a.selection = out.Selection
	a.rev++
	return nil
}

// ---------------------------------------------------------------------------
// Operators
// ---------------------------------------------------------------------------

// apply runs op on the working mesh. When op reports a change the prior
// state is pushed onto the history and the selection is replaced; on error
// the mesh is restored.
func (a *App) apply(label string, op func(m *mesh.Mesh) (bool, mesh.Selection, error)) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	before := a.mesh.Clone()
	changed, sel, err := op(a.mesh)
	if err != nil {
		a.mesh = before
		return err
	}
	if !changed {
		a.log.Debug("operator changed nothing", zap.String("op", label))
		return nil
	}
	a.history.push(label, before, a.selection)
	a.selection = sel
	a.rev++
	return nil
}

// Load replaces the working mesh with a copy of m.
func (a *App) Load(m *mesh.Mesh) {
	_ = a.apply("load", func(work *mesh.Mesh) (bool, mesh.Selection, error) {
		*work = *m.Clone()
		return true, mesh.Selection{}, nil
	})
}

// Select replaces the selection.
func (a *App) Select(sel mesh.Selection) {
	a.mu.Lock()
	a.selection = cloneSelection(sel)
	a.mu.Unlock()
}

// Bevel bevels edges, or the selected edges when edges is empty.
func (a *App) Bevel(edges []mesh.Edge, p ops.BevelParams) (*ops.Result, error) {
	var res *ops.Result
	err := a.apply("bevel", func(m *mesh.Mesh) (bool, mesh.Selection, error) {
		if len(edges) == 0 {
			edges = a.selection.Edges
		}
		targets := ops.ResolveBevelTargets(m, a.editor.Config().IndexFactory(m), edges)
		var err error
		res, err = a.editor.Bevel(m, targets, p)
		if err != nil {
			return false, mesh.Selection{}, err
		}
		return res.Changed(), res.Selection, nil
	})
	return res, err
}

// ExtrudeEdges extrudes edges, or the selected edges when edges is empty.
// Each edge is wound against its first adjacent polygon, if any; x.Edges
// is ignored.
func (a *App) ExtrudeEdges(edges []mesh.Edge, x ops.EdgeExtrusion) (*ops.Result, error) {
	var res *ops.Result
	err := a.apply("extrude-edges", func(m *mesh.Mesh) (bool, mesh.Selection, error) {
		if len(edges) == 0 {
			edges = a.selection.Edges
		}
		idx := a.editor.Config().IndexFactory(m)
		x.Edges = nil
		for _, e := range edges {
			adj := -1
			if ef := mesh.ResolveEdge(m, idx, e); len(ef.Faces) > 0 {
				adj = ef.Faces[0]
			}
			x.Edges = append(x.Edges, ops.ExtrudeEdge{Edge: e, AdjacentFace: adj})
		}
		var err error
		res, err = a.editor.ExtrudeEdges(m, x)
		if err != nil {
			return false, mesh.Selection{}, err
		}
		return res.Changed(), res.Selection, nil
	})
	return res, err
}

// ExtrudeFaces extrudes x.Faces, or the selected faces when it is empty.
func (a *App) ExtrudeFaces(x ops.FaceExtrusion) (*ops.Result, error) {
	var res *ops.Result
	err := a.apply("extrude-faces", func(m *mesh.Mesh) (bool, mesh.Selection, error) {
		if len(x.Faces) == 0 {
			x.Faces = a.selection.Faces
		}
		var err error
		res, err = a.editor.ExtrudeFaces(m, x)
		if err != nil {
			return false, mesh.Selection{}, err
		}
		return res.Changed(), res.Selection, nil
	})
	return res, err
}

// Merge welds vertices. Without candidates and All unset, the selected
// vertices are used. A successful merge clears the selection.
func (a *App) Merge(p ops.MergeParams) (*ops.MergeResult, error) {
	var res *ops.MergeResult
	err := a.apply("merge", func(m *mesh.Mesh) (bool, mesh.Selection, error) {
		if !p.All && len(p.Vertices) == 0 {
			p.Vertices = a.selection.Vertices
		}
		var err error
		res, err = a.editor.Merge(m, p)
		if err != nil {
			return false, mesh.Selection{}, err
		}
		return res.Success, mesh.Selection{}, nil
	})
	return res, err
}

// Undo restores the state before the last change. It reports false when
// there is nothing to undo.
func (a *App) Undo() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.history.Undo()
	if !ok {
		return false
	}
	a.mesh = s.Mesh
	a.selection = s.Selection
	a.rev++
	a.log.Debug("undo", zap.String("label", s.Label), zap.String("snapshot", s.ID.String()))
	return true
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// Mesh returns a copy of the working mesh.
func (a *App) Mesh() *mesh.Mesh {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mesh.Clone()
}

// Selection returns a copy of the selection.
func (a *App) Selection() mesh.Selection {
	a.mu.Lock()
	defer a.mu.Unlock()
	return cloneSelection(a.selection)
}

// HistoryLabels lists the undo steps, oldest first.
func (a *App) HistoryLabels() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.history.Labels()
}

// Preview tessellates the working mesh into one buffer per material.
func (a *App) Preview() ([]MeshData, tessellate.Stats, error) {
	m := a.Mesh()
	meshes, err := tessellate.Tessellate(m, tessellate.Options{})
	if err != nil {
		a.log.Error("tessellate failed", zap.Error(err))
		return nil, tessellate.Stats{}, err
	}
	out := make([]MeshData, 0, len(meshes))
	for _, km := range meshes {
		out = append(out, MeshData{
			Vertices: km.Vertices,
			Normals:  km.Normals,
			Indices:  km.Indices,
			Name:     km.Name,
			Material: km.Material,
			Color:    materialColor(km.Material),
		})
	}
	return out, tessellate.Summarize(meshes), nil
}

func materialColor(material int) string {
	i := material % len(colorPalette)
	if i < 0 {
		i += len(colorPalette)
	}
	return colorPalette[i]
}
