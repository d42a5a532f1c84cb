// Package interp implements the alternative tree-walking evaluator: the
// same recognizer-driven dispatch the compiler uses to lower expressions,
// but evaluating each form directly against an environment instead of
// emitting bytecode. Mirrors the teacher's Interpreter.Eval dispatch
// structure (internal/interp/interpreter.go), generalized from an AST
// node switch to the syntax package's predicate-driven recognition of
// value.Value forms.
package interp

import (
	"fmt"
	"io"
	"os"

	"github.com/deanmchris/Schemey/internal/builtins"
	"github.com/deanmchris/Schemey/internal/environment"
	"github.com/deanmchris/Schemey/internal/reader"
	"github.com/deanmchris/Schemey/internal/syntax"
	"github.com/deanmchris/Schemey/internal/value"
)

// Error reports a failure evaluating a form: an unbound variable, a
// malformed special form, or a call to a non-procedure.
type Error struct{ Message string }

func (e *Error) Error() string { return e.Message }

func errf(format string, args ...any) error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// Closure is a user-defined procedure as the tree-walker represents it:
// parameters, an unevaluated body, the environment it closed over, and
// its name (empty for an anonymous lambda). Distinct from
// bytecode.Closure, which instead captures a compiled CodeObject and
// takes its name from that CodeObject — the two toolchain paths never
// share a representation.
type Closure struct {
	Params []string
	Body   []value.Value
	Env    *environment.Environment
	Name   string
}

// Interp evaluates forms directly against a chain of environments rooted
// at a standard global environment.
type Interp struct {
	Global *environment.Environment
	out    io.Writer
}

// New builds an Interp with a fresh standard environment, plus a `load`
// procedure that reads and evaluates a file's top-level forms in the
// global environment — a feature present in the original implementation
// but dropped from the bytecode path, since CodeObjects have no notion of
// a filesystem-relative include.
func New(out io.Writer) *Interp {
	it := &Interp{Global: builtins.NewStandardEnv(out), out: out}
	it.Global.Define("load", value.ProcedureValue(&value.Proc{
		Name: "load",
		Fn:   it.builtinLoad,
	}))
	return it
}

func (it *Interp) builtinLoad(args []value.Value) (value.Value, error) {
	if len(args) != 1 || !args[0].IsString() {
		return value.Value{}, errf("load: expected a single string path argument")
	}
	data, err := os.ReadFile(args[0].AsString())
	if err != nil {
		return value.Value{}, errf("load: %v", err)
	}
	forms, err := reader.ReadAll(string(data))
	if err != nil {
		return value.Value{}, errf("load: %v", err)
	}
	result := value.NilValue()
	for _, form := range forms {
		result, err = it.Eval(form, it.Global)
		if err != nil {
			return value.Value{}, err
		}
	}
	return result, nil
}

// Run evaluates a sequence of top-level forms against the global
// environment, returning the last form's value.
func (it *Interp) Run(forms []value.Value) (value.Value, error) {
	result := value.NilValue()
	var err error
	for _, form := range forms {
		result, err = it.Eval(form, it.Global)
		if err != nil {
			return value.Value{}, err
		}
	}
	return result, nil
}

// Eval dispatches on expr's syntactic form exactly as the compiler's
// compileExpr does, evaluating eagerly instead of emitting instructions.
func (it *Interp) Eval(expr value.Value, env *environment.Environment) (value.Value, error) {
	switch {
	case syntax.IsConst(expr):
		return expr, nil

	case syntax.IsVariable(expr):
		name := expr.AsSymbol()
		v, ok := env.Get(name)
		if !ok {
			return value.Value{}, errf("undefined variable: cannot reference %q", name)
		}
		return v, nil

	case syntax.IsQuoted(expr):
		return syntax.QuotedText(expr), nil

	case syntax.IsAssignment(expr):
		v, err := it.Eval(syntax.AssignmentValue(expr), env)
		if err != nil {
			return value.Value{}, err
		}
		if err := env.Set(syntax.AssignmentVariable(expr), v); err != nil {
			return value.Value{}, err
		}
		return v, nil

	case syntax.IsDefinition(expr):
		return it.evalDefinition(expr, env)

	case syntax.IsLambda(expr):
		return it.evalLambda(expr, env, "")

	case syntax.IsBegin(expr):
		body, err := syntax.BeginBody(expr)
		if err != nil {
			return value.Value{}, errf("begin: %v", err)
		}
		return it.evalSequence(body, env)

	case syntax.IsIf(expr):
		return it.evalIf(expr, env)

	case syntax.IsCond(expr):
		desugared, err := syntax.ExpandCond(expr)
		if err != nil {
			return value.Value{}, errf("cond: %v", err)
		}
		return it.Eval(desugared, env)

	case syntax.IsLet(expr):
		desugared, err := syntax.ExpandLet(expr)
		if err != nil {
			return value.Value{}, errf("let: %v", err)
		}
		return it.Eval(desugared, env)

	case syntax.IsProcCall(expr):
		return it.evalProcCall(expr, env)

	default:
		return value.Value{}, errf("unknown form: %s", expr.String())
	}
}

func (it *Interp) evalSequence(body []value.Value, env *environment.Environment) (value.Value, error) {
	if len(body) == 0 {
		return value.NilValue(), nil
	}
	var result value.Value
	var err error
	for _, expr := range body {
		result, err = it.Eval(expr, env)
		if err != nil {
			return value.Value{}, err
		}
	}
	return result, nil
}

func (it *Interp) evalDefinition(expr value.Value, env *environment.Environment) (value.Value, error) {
	name, err := syntax.DefinitionVariable(expr)
	if err != nil {
		return value.Value{}, errf("define: %v", err)
	}
	valExpr, err := syntax.DefinitionValue(expr)
	if err != nil {
		return value.Value{}, errf("define: %v", err)
	}

	var v value.Value
	if syntax.IsLambda(valExpr) {
		v, err = it.evalLambda(valExpr, env, name)
	} else {
		v, err = it.Eval(valExpr, env)
	}
	if err != nil {
		return value.Value{}, err
	}
	env.Define(name, v)
	return v, nil
}

func (it *Interp) evalIf(expr value.Value, env *environment.Environment) (value.Value, error) {
	cond, err := it.Eval(syntax.IfCond(expr), env)
	if err != nil {
		return value.Value{}, err
	}
	if cond.Truthy() {
		return it.Eval(syntax.IfThen(expr), env)
	}
	elseExpr, hasElse := syntax.IfElse(expr)
	if !hasElse {
		return value.Value{}, errf("if: missing else branch")
	}
	return it.Eval(elseExpr, env)
}

// evalLambda builds a Closure value; name is non-empty only when the
// lambda is the right-hand side of a define, matching the compiler's
// named-lambda convention.
func (it *Interp) evalLambda(expr value.Value, env *environment.Environment, name string) (value.Value, error) {
	params, err := syntax.LambdaParameters(expr)
	if err != nil {
		return value.Value{}, errf("lambda: %v", err)
	}
	body, err := syntax.LambdaBody(expr)
	if err != nil {
		return value.Value{}, errf("lambda: %v", err)
	}
	return value.Value{Type: value.Closure, Data: &Closure{Params: params, Body: body, Env: env, Name: name}}, nil
}

func (it *Interp) evalProcCall(expr value.Value, env *environment.Environment) (value.Value, error) {
	operator, err := it.Eval(syntax.ProcedureOperator(expr), env)
	if err != nil {
		return value.Value{}, err
	}
	operandExprs, err := syntax.ProcedureOperands(expr)
	if err != nil {
		return value.Value{}, errf("procedure call: %v", err)
	}
	args := make([]value.Value, len(operandExprs))
	for i, operand := range operandExprs {
		args[i], err = it.Eval(operand, env)
		if err != nil {
			return value.Value{}, err
		}
	}
	return it.Apply(operator, args)
}

// Apply invokes operator (a native Procedure or a tree-walker Closure)
// with already-evaluated args.
func (it *Interp) Apply(operator value.Value, args []value.Value) (value.Value, error) {
	switch operator.Type {
	case value.Procedure:
		proc := operator.AsProc()
		result, err := proc.Fn(args)
		if err != nil {
			return value.Value{}, fmt.Errorf("%s: %w", proc.Name, err)
		}
		return result, nil

	case value.Closure:
		closure, ok := operator.Data.(*Closure)
		if !ok {
			return value.Value{}, errf("closure value from the bytecode path cannot be applied by the tree-walker")
		}
		if len(args) != len(closure.Params) {
			return value.Value{}, errf("expected %d argument(s), got %d", len(closure.Params), len(args))
		}
		callEnv := environment.NewEnclosed(closure.Env)
		for i, param := range closure.Params {
			callEnv.Define(param, args[i])
		}
		return it.evalSequence(closure.Body, callEnv)

	default:
		return value.Value{}, errf("attempt to call non-procedure value: %s", operator.String())
	}
}
