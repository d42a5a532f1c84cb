// Package vm implements the stack-based virtual machine that executes
// bytecode.CodeObjects: a dispatch loop over a frame stack, each frame
// owning its own value stack and instruction pointer, following the
// teacher's fetch-decode-execute loop structure (internal/bytecode.VM in
// the teacher codebase) generalized from register/global-slot addressing
// to the simpler constant-pool/varname-pool addressing this system uses.
package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/deanmchris/Schemey/internal/builtins"
	"github.com/deanmchris/Schemey/internal/bytecode"
	"github.com/deanmchris/Schemey/internal/compiler"
	"github.com/deanmchris/Schemey/internal/environment"
	"github.com/deanmchris/Schemey/internal/reader"
	"github.com/deanmchris/Schemey/internal/value"
)

// RuntimeError reports a failure during bytecode execution: stack
// underflow, an unbound variable, a non-callable operator, a closure
// arity mismatch, or an exceeded recursion budget. A built-in procedure's
// own error is returned wrapped with the procedure's name, not as a
// RuntimeError.
type RuntimeError struct{ Message string }

func (e *RuntimeError) Error() string { return "runtime error: " + e.Message }

func errf(format string, args ...any) error {
	return &RuntimeError{Message: fmt.Sprintf(format, args...)}
}

// frame is one activation record: the CodeObject being executed, the
// lexical environment bindings resolve against, a private value stack,
// and an instruction pointer.
type frame struct {
	code  *bytecode.CodeObject
	env   *environment.Environment
	stack []value.Value
	ip    int
}

func newFrame(code *bytecode.CodeObject, env *environment.Environment) *frame {
	return &frame{code: code, env: env}
}

func (f *frame) push(v value.Value) { f.stack = append(f.stack, v) }

func (f *frame) pop() (value.Value, error) {
	if len(f.stack) == 0 {
		return value.Value{}, errf("stack underflow")
	}
	v := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return v, nil
}

func (f *frame) top() (value.Value, bool) {
	if len(f.stack) == 0 {
		return value.Value{}, false
	}
	return f.stack[len(f.stack)-1], true
}

// defaultMaxDepth bounds closure-call recursion when no explicit budget is
// configured, standing in for the large host recursion allowance §5 of the
// original design expects the embedder to provide.
const defaultMaxDepth = 10000

// VM executes compiled CodeObjects against a global environment.
type VM struct {
	globals  *environment.Environment
	frames   []*frame
	maxDepth int
	depth    int
}

// New builds a VM with a fresh standard environment writing print output
// to out.
func New(out io.Writer) *VM {
	return &VM{globals: builtins.NewStandardEnv(out), maxDepth: defaultMaxDepth}
}

// NewWithEnv builds a VM against a caller-supplied global environment,
// for embedding scenarios that need to seed additional bindings first.
func NewWithEnv(globals *environment.Environment) *VM {
	return &VM{globals: globals, maxDepth: defaultMaxDepth}
}

// Globals exposes the top-level environment, e.g. for a REPL that defines
// new top-level bindings across separately compiled forms.
func (vm *VM) Globals() *environment.Environment { return vm.globals }

// SetMaxDepth overrides the closure-call recursion budget (the CLI wires
// this to the configured recursionBudget setting).
func (vm *VM) SetMaxDepth(n int) { vm.maxDepth = n }

// Run executes a top-level CodeObject and returns its result. Unlike a
// lambda body, the top level never emits an explicit RETURN; when the
// instruction pointer runs off the end of the code, whatever is left on
// the frame's stack (if anything) is the program's result.
func (vm *VM) Run(code *bytecode.CodeObject) (value.Value, error) {
	return vm.runFrame(newFrame(code, vm.globals))
}

// RunFile reads, compiles and runs path's top-level forms directly against
// vm's global environment — the bytecode path's equivalent of the tree
// interpreter's `load` built-in. Definitions the file makes remain visible
// to the caller afterward, since Run executes the top level in a frame
// whose environment is vm.globals itself rather than an enclosed scope.
func (vm *VM) RunFile(path string) (value.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return value.Value{}, errf("load %s: %v", path, err)
	}
	forms, err := reader.ReadAll(string(data))
	if err != nil {
		return value.Value{}, err
	}
	code, err := compiler.Compile(forms)
	if err != nil {
		return value.Value{}, err
	}
	return vm.Run(code)
}

func (vm *VM) runFrame(f *frame) (value.Value, error) {
	for f.ip < len(f.code.Code) {
		inst := f.code.Code[f.ip]
		f.ip++

		switch inst.OpCode {
		case bytecode.LoadConst:
			v, err := constant(f.code, inst.Arg)
			if err != nil {
				return value.Value{}, err
			}
			f.push(v)

		case bytecode.LoadVar:
			name, err := varname(f.code, inst.Arg)
			if err != nil {
				return value.Value{}, err
			}
			v, ok := f.env.Get(name)
			if !ok {
				return value.Value{}, errf("undefined variable: cannot reference %q", name)
			}
			f.push(v)

		case bytecode.SetVar:
			name, err := varname(f.code, inst.Arg)
			if err != nil {
				return value.Value{}, err
			}
			v, err := f.pop()
			if err != nil {
				return value.Value{}, err
			}
			if err := f.env.Set(name, v); err != nil {
				return value.Value{}, err
			}

		case bytecode.DefVar:
			name, err := varname(f.code, inst.Arg)
			if err != nil {
				return value.Value{}, err
			}
			v, err := f.pop()
			if err != nil {
				return value.Value{}, err
			}
			f.env.Define(name, v)

		case bytecode.DefFunc:
			c, err := constant(f.code, inst.Arg)
			if err != nil {
				return value.Value{}, err
			}
			if c.Type != value.CodeObject {
				return value.Value{}, errf("DEF_FUNC constant %d is not a code object", inst.Arg)
			}
			closure := bytecode.NewClosure(bytecode.AsCodeObject(c), f.env)
			f.push(bytecode.ClosureValue(closure))

		case bytecode.ProcCall:
			result, err := vm.call(f, int(inst.Arg))
			if err != nil {
				return value.Value{}, err
			}
			f.push(result)

		case bytecode.JumpIfFalse:
			cond, err := f.pop()
			if err != nil {
				return value.Value{}, err
			}
			if !cond.Truthy() {
				f.ip = int(inst.Arg)
			}

		case bytecode.Jump:
			f.ip = int(inst.Arg)

		case bytecode.Return:
			v, err := f.pop()
			if err != nil {
				return value.Value{}, err
			}
			return v, nil

		case bytecode.Pop:
			f.pop() // tolerated on an empty stack, per the container's Pop contract

		default:
			return value.Value{}, errf("unknown opcode %s", inst.OpCode)
		}
	}

	if v, ok := f.top(); ok {
		return v, nil
	}
	return value.NilValue(), nil
}

func constant(co *bytecode.CodeObject, idx uint32) (value.Value, error) {
	if int(idx) >= len(co.Constants) {
		return value.Value{}, errf("constant index %d out of range", idx)
	}
	return co.Constants[idx], nil
}

func varname(co *bytecode.CodeObject, idx uint32) (string, error) {
	if int(idx) >= len(co.Varnames) {
		return "", errf("varname index %d out of range", idx)
	}
	return co.Varnames[idx], nil
}

// call pops argc operands and then the operator off f's stack (operands
// were compiled in source order, then the operator, so the operator is on
// top) and dispatches on its type: a native Procedure calls straight
// through, a Closure builds a new frame parented on its captured
// environment, and anything else is a runtime error.
func (vm *VM) call(f *frame, argc int) (value.Value, error) {
	operator, err := f.pop()
	if err != nil {
		return value.Value{}, err
	}
	args := make([]value.Value, argc)
	for i := argc - 1; i >= 0; i-- {
		v, err := f.pop()
		if err != nil {
			return value.Value{}, err
		}
		args[i] = v
	}

	switch operator.Type {
	case value.Procedure:
		proc := operator.AsProc()
		result, err := proc.Fn(args)
		if err != nil {
			return value.Value{}, fmt.Errorf("%s: %w", proc.Name, err)
		}
		return result, nil

	case value.Closure:
		closure := bytecode.AsClosure(operator)
		if len(args) != len(closure.Code.Args) {
			return value.Value{}, errf("%s: expected %d argument(s), got %d",
				closure.Code.Name, len(closure.Code.Args), len(args))
		}
		callerEnv, ok := closure.Env.(*environment.Environment)
		if !ok {
			return value.Value{}, errf("%s: closure captured an incompatible environment", closure.Code.Name)
		}
		callEnv := environment.NewEnclosed(callerEnv)
		for i, name := range closure.Code.Args {
			callEnv.Define(name, args[i])
		}

		vm.depth++
		if vm.depth > vm.maxDepth {
			vm.depth--
			return value.Value{}, errf("recursion budget exceeded (%d frames)", vm.maxDepth)
		}
		result, err := vm.runFrame(newFrame(closure.Code, callEnv))
		vm.depth--
		return result, err

	default:
		return value.Value{}, errf("attempt to call non-procedure value: %s", operator.String())
	}
}
