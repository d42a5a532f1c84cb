// Package compiler lowers S-expressions produced by the reader into
// nested bytecode.CodeObjects, following the two-pass label-resolution
// design from §4.4 of the toolchain's design notes: lowering walks the
// expression tree once, emitting real instructions interleaved with
// label placeholders for jump targets; a first resolution pass then
// records each label's linear position, and a second pass rewrites every
// jump's argument from its placeholder to that position. This keeps the
// AST-to-IR lowering and the IR-to-CodeObject assembly cleanly separated,
// rather than conflating them as a single recursive pass that has to
// patch relative offsets in place.
package compiler

import (
	"fmt"

	"github.com/deanmchris/Schemey/internal/bytecode"
	"github.com/deanmchris/Schemey/internal/syntax"
	"github.com/deanmchris/Schemey/internal/value"
)

// Error is a compile-time error: an unknown form, a malformed lambda
// parameter list, a define without a value, or an if missing its else
// branch.
type Error struct{ Message string }

func (e *Error) Error() string { return e.Message }

func errf(format string, args ...any) error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// label is a jump target resolved in the first pass and consumed in the
// second.
type label struct{ target int }

type itemKind int

const (
	itemInstr itemKind = iota
	itemJump
	itemLabel
)

type item struct {
	kind  itemKind
	op    bytecode.OpCode
	arg   uint32
	label *label
}

// frame accumulates the items, constants pool and varnames pool for one
// CodeObject being compiled — either the top-level program or a lambda
// body.
type frame struct {
	name       string
	args       []string
	items      []item
	constants  []value.Value
	constIndex map[string]int
	varnames   []string
	varIndex   map[string]int
}

func newFrame(name string, args []string) *frame {
	return &frame{
		name:       name,
		args:       args,
		constIndex: make(map[string]int),
		varIndex:   make(map[string]int),
	}
}

func (f *frame) emit(op bytecode.OpCode, arg uint32) {
	f.items = append(f.items, item{kind: itemInstr, op: op, arg: arg})
}

func (f *frame) emitJump(op bytecode.OpCode) *label {
	l := &label{}
	f.items = append(f.items, item{kind: itemJump, op: op, label: l})
	return l
}

func (f *frame) markLabel(l *label) {
	f.items = append(f.items, item{kind: itemLabel, label: l})
}

// constKey identifies scalar constants (integer, boolean, symbol) that
// may be deduplicated in the pool. Pair, String and CodeObject constants
// carry identity/mutability and are never deduplicated: every occurrence
// of a quoted list or string literal gets its own fresh entry.
func constKey(v value.Value) (string, bool) {
	switch v.Type {
	case value.Integer, value.Boolean, value.Symbol:
		return fmt.Sprintf("%d:%v", v.Type, v.Data), true
	default:
		return "", false
	}
}

func (f *frame) addConstant(v value.Value) int {
	if key, dedupable := constKey(v); dedupable {
		if idx, ok := f.constIndex[key]; ok {
			return idx
		}
		idx := len(f.constants)
		f.constants = append(f.constants, v)
		f.constIndex[key] = idx
		return idx
	}
	idx := len(f.constants)
	f.constants = append(f.constants, v)
	return idx
}

func (f *frame) addVarname(name string) int {
	if idx, ok := f.varIndex[name]; ok {
		return idx
	}
	idx := len(f.varnames)
	f.varnames = append(f.varnames, name)
	f.varIndex[name] = idx
	return idx
}

// resolve performs the two-pass label resolution and assembles the final
// CodeObject.
func (f *frame) resolve() *bytecode.CodeObject {
	pos := 0
	for _, it := range f.items {
		if it.kind == itemLabel {
			it.label.target = pos
		} else {
			pos++
		}
	}

	code := make([]bytecode.Instruction, 0, pos)
	for _, it := range f.items {
		switch it.kind {
		case itemLabel:
			continue
		case itemJump:
			code = append(code, bytecode.Instruction{OpCode: it.op, Arg: uint32(it.label.target)})
		default:
			code = append(code, bytecode.Instruction{OpCode: it.op, Arg: it.arg})
		}
	}

	return &bytecode.CodeObject{
		Name:      f.name,
		Args:      f.args,
		Code:      code,
		Constants: f.constants,
		Varnames:  f.varnames,
	}
}

// Compile lowers a sequence of top-level forms into a single top-level
// CodeObject. Unlike a lambda body, the top level does not append an
// explicit RETURN; whatever value the last form leaves on the stack is
// the program's result.
func Compile(forms []value.Value) (*bytecode.CodeObject, error) {
	f := newFrame("", nil)
	if err := compileSequence(f, forms); err != nil {
		return nil, err
	}
	return f.resolve(), nil
}

func compileSequence(f *frame, body []value.Value) error {
	if len(body) == 0 {
		f.emit(bytecode.LoadConst, uint32(f.addConstant(value.NilValue())))
		return nil
	}
	for i, expr := range body {
		if err := compileExpr(f, expr); err != nil {
			return err
		}
		if i != len(body)-1 {
			f.emit(bytecode.Pop, 0)
		}
	}
	return nil
}

func compileExpr(f *frame, expr value.Value) error {
	switch {
	case syntax.IsConst(expr):
		f.emit(bytecode.LoadConst, uint32(f.addConstant(expr)))
		return nil
	case syntax.IsVariable(expr):
		f.emit(bytecode.LoadVar, uint32(f.addVarname(expr.AsSymbol())))
		return nil
	case syntax.IsQuoted(expr):
		f.emit(bytecode.LoadConst, uint32(f.addConstant(syntax.QuotedText(expr))))
		return nil
	case syntax.IsAssignment(expr):
		if err := compileExpr(f, syntax.AssignmentValue(expr)); err != nil {
			return err
		}
		f.emit(bytecode.SetVar, uint32(f.addVarname(syntax.AssignmentVariable(expr))))
		return nil
	case syntax.IsDefinition(expr):
		return compileDefinition(f, expr)
	case syntax.IsLambda(expr):
		return compileLambda(f, expr, "")
	case syntax.IsBegin(expr):
		body, err := syntax.BeginBody(expr)
		if err != nil {
			return errf("begin: %v", err)
		}
		return compileSequence(f, body)
	case syntax.IsIf(expr):
		return compileIf(f, expr)
	case syntax.IsCond(expr):
		desugared, err := syntax.ExpandCond(expr)
		if err != nil {
			return errf("cond: %v", err)
		}
		return compileExpr(f, desugared)
	case syntax.IsLet(expr):
		desugared, err := syntax.ExpandLet(expr)
		if err != nil {
			return errf("let: %v", err)
		}
		return compileExpr(f, desugared)
	case syntax.IsProcCall(expr):
		return compileProcCall(f, expr)
	default:
		return errf("unknown form: %s", expr.String())
	}
}

func compileDefinition(f *frame, expr value.Value) error {
	name, err := syntax.DefinitionVariable(expr)
	if err != nil {
		return errf("define: %v", err)
	}
	valExpr, err := syntax.DefinitionValue(expr)
	if err != nil {
		return errf("define: %v", err)
	}
	if syntax.IsLambda(valExpr) {
		if err := compileLambda(f, valExpr, name); err != nil {
			return err
		}
	} else if err := compileExpr(f, valExpr); err != nil {
		return err
	}
	f.emit(bytecode.DefVar, uint32(f.addVarname(name)))
	return nil
}

func compileIf(f *frame, expr value.Value) error {
	if err := compileExpr(f, syntax.IfCond(expr)); err != nil {
		return err
	}
	elseLabel := f.emitJump(bytecode.JumpIfFalse)

	if err := compileExpr(f, syntax.IfThen(expr)); err != nil {
		return err
	}
	endLabel := f.emitJump(bytecode.Jump)

	f.markLabel(elseLabel)
	elseExpr, hasElse := syntax.IfElse(expr)
	if !hasElse {
		return errf("if: missing else branch")
	}
	if err := compileExpr(f, elseExpr); err != nil {
		return err
	}
	f.markLabel(endLabel)
	return nil
}

func compileProcCall(f *frame, expr value.Value) error {
	operands, err := syntax.ProcedureOperands(expr)
	if err != nil {
		return errf("procedure call: %v", err)
	}
	for _, a := range operands {
		if err := compileExpr(f, a); err != nil {
			return err
		}
	}
	if err := compileExpr(f, syntax.ProcedureOperator(expr)); err != nil {
		return err
	}
	f.emit(bytecode.ProcCall, uint32(len(operands)))
	return nil
}

// compileLambda compiles expr (a lambda form) into a nested CodeObject
// named name (empty for an anonymous lambda, in which case the compiled
// CodeObject is named "Anonymous procedure"), appends it to the enclosing
// frame's constants pool, and emits DEF_FUNC to build a closure over it.
func compileLambda(f *frame, expr value.Value, name string) error {
	params, err := syntax.LambdaParameters(expr)
	if err != nil {
		return errf("lambda: %v", err)
	}
	body, err := syntax.LambdaBody(expr)
	if err != nil {
		return errf("lambda: %v", err)
	}

	inner := newFrame(name, params)
	if err := compileSequence(inner, body); err != nil {
		return err
	}
	inner.emit(bytecode.Return, 0)

	co := inner.resolve()
	if co.Name == "" {
		co.Name = "Anonymous procedure"
	}
	idx := f.addConstant(bytecode.CodeObjectValue(co))
	f.emit(bytecode.DefFunc, uint32(idx))
	return nil
}
