// Package engine provides the Lisp scripting engine for facet.
// It wraps zygomys in a sandboxed environment and runs user scripts
// against a copy of a mesh, calling the ops operators from builtins.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"
	"go.uber.org/zap"

	"github.com/chazu/facet/pkg/kernel"
	"github.com/chazu/facet/pkg/kernel/sdfx"
	"github.com/chazu/facet/pkg/mesh"
	"github.com/chazu/facet/pkg/ops"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning records an item an operator skipped while the script ran.
type EvalWarning struct {
	Op      string
	Item    int
	Message string
}

// Output is the state a script leaves behind.
type Output struct {
	Mesh      *mesh.Mesh
	Selection mesh.Selection
	Log       []string // one summary line per operator call
	Warnings  []EvalWarning
}

// Engine wraps the zygomys interpreter for facet scripts.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment and works on its own copy of the mesh.
type Engine struct {
	mu         sync.Mutex
	generation uint64

	log     *zap.Logger
	editor  *ops.Editor
	kernel  kernel.Kernel
	timeout time.Duration
	weld    float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithEditor sets the operator editor used by builtins.
func WithEditor(ed *ops.Editor) Option {
	return func(e *Engine) { e.editor = ed }
}

// WithKernel sets the solid kernel behind the sdf-* builtins.
func WithKernel(k kernel.Kernel) Option {
	return func(e *Engine) { e.kernel = k }
}

// WithTimeout overrides EvalTimeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithWeld sets the default weld radius for import-solid.
func WithWeld(w float64) Option {
	return func(e *Engine) { e.weld = w }
}

// DefaultWeld is the import-solid weld radius when none is given.
const DefaultWeld = 1e-6

// NewEngine creates a new Engine. A nil logger disables logging.
func NewEngine(logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		log:     logger.Named("engine"),
		timeout: EvalTimeout,
		weld:    DefaultWeld,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.editor == nil {
		e.editor = ops.NewEditor(ops.Config{Logger: logger})
	}
	if e.kernel == nil {
		e.kernel = sdfx.New()
	}
	return e
}

// Evaluate runs source against a copy of base (nil means an empty mesh).
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
//
// Return semantics:
//   - On success: returns output + nil errors + nil error
//   - On parse/eval failure: returns nil output + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string, base *mesh.Mesh) (*Output, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	var work *mesh.Mesh
	if base != nil {
		work = base.Clone()
	} else {
		work = mesh.New()
	}

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		out, evalErrs, err := e.evaluate(source, work)
		ch <- evalResult{output: out, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation, e.timeout)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string, work *mesh.Mesh) (*Output, []EvalError, error) {
	s := &session{
		m:      work,
		editor: e.editor,
		kernel: e.kernel,
		weld:   e.weld,
		log:    e.log,
	}

	// Empty source is a valid program that leaves the mesh as it was.
	if strings.TrimSpace(source) == "" {
		return s.output(), nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, s)

	err := env.LoadString(preprocessSource(source))
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	_, err = env.Run()
	if err != nil {
		e.log.Debug("script failed", zap.Error(err))
		return nil, parseZygomysError(err), nil
	}

	out := s.output()
	e.log.Debug("script finished",
		zap.Int("vertices", out.Mesh.VertexCount()),
		zap.Int("faces", out.Mesh.FaceCount()),
		zap.Int("operators", len(out.Log)))
	return out, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// zygomys formats parse errors as "Error on line N: <details>\n"
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
