package ops

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/chazu/facet/pkg/mesh"
)

// DefaultEndCapDotLimit is the |cos| bound under which an end-cap face's
// edge counts as crossing the bevel direction (60°–120°).
//
// The value is a heuristic; faces with edges near 60° or 120° may be
// classified either way. Tune through Config rather than editing it here.
const DefaultEndCapDotLimit = 0.5

// DefaultEpsilon is the length under which vectors are treated as zero.
const DefaultEpsilon = 1e-9

// ErrInvalidParameter reports an operator parameter outside its domain.
// The mesh is never touched when it is returned.
var ErrInvalidParameter = errors.New("ops: invalid parameter")

// Config holds the tunables shared by all operators.
type Config struct {
	EndCapDotLimit float64           // see DefaultEndCapDotLimit
	Epsilon        float64           // zero-length threshold
	Verify         bool              // run mesh.Check after every operator
	Logger         *zap.Logger       // nil means no logging
	IndexFactory   mesh.IndexFactory // nil means mesh.NewScanIndex
}

// DefaultConfig returns the configuration used by the package-level
// operator functions.
func DefaultConfig() Config {
	return Config{
		EndCapDotLimit: DefaultEndCapDotLimit,
		Epsilon:        DefaultEpsilon,
		IndexFactory:   mesh.NewScanIndex,
	}
}

// Editor runs operators with a fixed Config. It holds no mesh state and
// may be shared, but a given mesh must only be edited by one caller at a
// time.
type Editor struct {
	cfg Config
	log *zap.Logger
}

// NewEditor creates an Editor, filling unset fields from DefaultConfig.
func NewEditor(cfg Config) *Editor {
	def := DefaultConfig()
	if cfg.EndCapDotLimit <= 0 {
		cfg.EndCapDotLimit = def.EndCapDotLimit
	}
	if cfg.Epsilon <= 0 {
		cfg.Epsilon = def.Epsilon
	}
	if cfg.IndexFactory == nil {
		cfg.IndexFactory = def.IndexFactory
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Editor{cfg: cfg, log: log.Named("ops")}
}

// Config returns the editor's effective configuration.
func (e *Editor) Config() Config { return e.cfg }

func (e *Editor) index(m *mesh.Mesh) mesh.Index {
	return e.cfg.IndexFactory(m)
}

// verify runs the structural validator when Verify is set.
func (e *Editor) verify(m *mesh.Mesh, op string) error {
	if !e.cfg.Verify {
		return nil
	}
	if err := mesh.Check(m); err != nil {
		e.log.Error("operator left mesh corrupt", zap.String("op", op), zap.Error(err))
		return fmt.Errorf("ops: %s: %w", op, err)
	}
	return nil
}

func invalidParam(op, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidParameter, op, fmt.Sprintf(format, args...))
}

// ---------------------------------------------------------------------------
// Package-level shortcuts
// ---------------------------------------------------------------------------

var defaultEditor = NewEditor(DefaultConfig())

// Bevel runs Editor.Bevel with the default configuration.
func Bevel(m *mesh.Mesh, targets []BevelTarget, p BevelParams) (*Result, error) {
	return defaultEditor.Bevel(m, targets, p)
}

// ExtrudeEdges runs Editor.ExtrudeEdges with the default configuration.
func ExtrudeEdges(m *mesh.Mesh, x EdgeExtrusion) (*Result, error) {
	return defaultEditor.ExtrudeEdges(m, x)
}

// ExtrudeFaces runs Editor.ExtrudeFaces with the default configuration.
func ExtrudeFaces(m *mesh.Mesh, x FaceExtrusion) (*Result, error) {
	return defaultEditor.ExtrudeFaces(m, x)
}

// Merge runs Editor.Merge with the default configuration.
func Merge(m *mesh.Mesh, p MergeParams) (*MergeResult, error) {
	return defaultEditor.Merge(m, p)
}
