// Package schemey is the embeddable facade over the toolchain: read,
// compile, disassemble, serialize and run Scheme source from a single
// Engine value, the way the teacher's pkg/dwscript wraps its own pipeline
// behind an Engine/functional-options API for host programs that don't
// want to wire the lexer, compiler and VM together themselves.
package schemey

import (
	"bytes"
	"io"

	"github.com/deanmchris/Schemey/internal/builtins"
	"github.com/deanmchris/Schemey/internal/bytecode"
	"github.com/deanmchris/Schemey/internal/compiler"
	"github.com/deanmchris/Schemey/internal/interp"
	"github.com/deanmchris/Schemey/internal/reader"
	"github.com/deanmchris/Schemey/internal/value"
	"github.com/deanmchris/Schemey/internal/vm"
)

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithOutput directs `print` output to w instead of the default
// io.Discard.
func WithOutput(w io.Writer) Option {
	return func(e *Engine) { e.output = w }
}

// WithInterpreter selects the tree-walking evaluator instead of the
// default compile-to-bytecode-then-run pipeline. Both paths share the
// same standard environment semantics; the interpreter additionally
// exposes `load`.
func WithInterpreter() Option {
	return func(e *Engine) { e.useInterp = true }
}

// Engine is a configured instance of the toolchain: an output sink and a
// choice of execution strategy, reused across any number of Eval calls.
type Engine struct {
	output    io.Writer
	useInterp bool
	vm        *vm.VM
	tree      *interp.Interp
}

// New builds an Engine with the given options applied over sensible
// defaults (discard output, bytecode execution).
func New(opts ...Option) *Engine {
	e := &Engine{output: io.Discard}
	for _, opt := range opts {
		opt(e)
	}
	if e.useInterp {
		e.tree = interp.New(e.output)
	} else {
		e.vm = vm.New(e.output)
	}
	return e
}

// Result is the outcome of running a script: its final value's printed
// representation, and the raw output written by any `print` calls along
// the way.
type Result struct {
	Value  string
	Output string
}

// Eval reads, compiles (or, with WithInterpreter, evaluates directly) and
// runs every top-level form in src against the Engine's persistent
// environment, so later calls can reference definitions made by earlier
// ones — the same incremental-definition behavior the REPL relies on.
func (e *Engine) Eval(src string) (Result, error) {
	var buf bytes.Buffer
	tee := io.MultiWriter(e.output, &buf)

	forms, err := reader.ReadAll(src)
	if err != nil {
		return Result{}, err
	}

	if e.useInterp {
		e.tree = retargetInterp(e.tree, tee)
		v, err := e.tree.Run(forms)
		if err != nil {
			return Result{}, err
		}
		return Result{Value: v.String(), Output: buf.String()}, nil
	}

	code, err := compiler.Compile(forms)
	if err != nil {
		return Result{}, err
	}
	e.vm = retargetVM(e.vm, tee)
	v, err := e.vm.Run(code)
	if err != nil {
		return Result{}, err
	}
	return Result{Value: v.String(), Output: buf.String()}, nil
}

// retargetInterp and retargetVM rebuild the evaluator against a fresh
// writer while preserving its global environment and the bindings
// accumulated by prior Eval calls. Rebuilding alone would leave `print`
// bound to the stale writer it captured at construction time — a fresh
// io.MultiWriter is built for every call, so RebindPrint has to re-point
// that binding at the frame's own global environment each time too.
func retargetInterp(prev *interp.Interp, w io.Writer) *interp.Interp {
	builtins.RebindPrint(prev.Global, w)
	next := interp.New(w)
	next.Global = prev.Global
	return next
}

func retargetVM(prev *vm.VM, w io.Writer) *vm.VM {
	builtins.RebindPrint(prev.Globals(), w)
	return vm.NewWithEnv(prev.Globals())
}

// Compile reads and compiles src without running it, for callers that
// want the CodeObject directly — the CLI's `compile` and `reload`
// subcommands both go through this.
func Compile(src string) (*bytecode.CodeObject, error) {
	forms, err := reader.ReadAll(src)
	if err != nil {
		return nil, err
	}
	return compiler.Compile(forms)
}

// Disassemble renders co's disassembly to w.
func Disassemble(w io.Writer, co *bytecode.CodeObject) {
	bytecode.NewDisassembler(w, co).Disassemble()
}

// Serialize and Deserialize expose the bytecode container format for
// callers that want to persist a compiled CodeObject to a .pcode file.
func Serialize(co *bytecode.CodeObject) ([]byte, error) {
	return bytecode.NewSerializer().Serialize(co)
}

func Deserialize(data []byte) (*bytecode.CodeObject, error) {
	return bytecode.NewSerializer().Deserialize(data)
}

// LoadFile compiles and runs path's top-level forms against the Engine's
// persistent environment, the bytecode-path equivalent of the tree
// interpreter's `load` built-in. Only meaningful for the default (non
// WithInterpreter) execution strategy; the interpreter gets the same
// behavior for free through its own `load` procedure instead.
func (e *Engine) LoadFile(path string) (Result, error) {
	var buf bytes.Buffer
	tee := io.MultiWriter(e.output, &buf)
	if e.useInterp {
		e.tree = retargetInterp(e.tree, tee)
		load, _ := e.tree.Global.Get("load")
		v, err := e.tree.Apply(load, []value.Value{value.StringValue(path)})
		if err != nil {
			return Result{}, err
		}
		return Result{Value: v.String(), Output: buf.String()}, nil
	}
	e.vm = retargetVM(e.vm, tee)
	v, err := e.vm.RunFile(path)
	if err != nil {
		return Result{}, err
	}
	return Result{Value: v.String(), Output: buf.String()}, nil
}
