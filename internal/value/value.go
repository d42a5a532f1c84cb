// Package value defines the tagged Scheme value model shared by the
// reader, compiler, built-ins, virtual machine and tree interpreter.
//
// Value follows the tagged-union shape used throughout this codebase for
// dynamically typed data: a Type discriminant plus an opaque Data payload,
// rather than an interface hierarchy. Higher-level packages (bytecode,
// environment) attach their own payload types — a *bytecode.Closure, a
// *bytecode.CodeObject — without this package needing to import them,
// which keeps the dependency graph acyclic.
package value

import "fmt"

// Type discriminates the kind of value held by a Value.
type Type byte

const (
	Integer Type = iota
	Boolean
	Symbol
	String
	PairType
	Nil
	Procedure
	Closure
	CodeObject
)

var typeNames = [...]string{
	Integer:    "integer",
	Boolean:    "boolean",
	Symbol:     "symbol",
	String:     "string",
	PairType:   "pair",
	Nil:        "nil",
	Procedure:  "procedure",
	Closure:    "closure",
	CodeObject: "code-object",
}

func (t Type) String() string {
	if int(t) < 0 || int(t) >= len(typeNames) {
		return "unknown"
	}
	return typeNames[t]
}

// Value is a single Scheme datum.
type Value struct {
	Type Type
	Data any
}

// NilValue is the single distinguished empty list. Nil is a singleton by
// convention; every NilValue() call returns an equal (not necessarily
// identical) Value, which is fine since Nil carries no payload to diverge.
var nilValue = Value{Type: Nil}

func NilValue() Value                 { return nilValue }
func IntValue(i int32) Value          { return Value{Type: Integer, Data: i} }
func BoolValue(b bool) Value          { return Value{Type: Boolean, Data: b} }
func SymbolValue(name string) Value   { return Value{Type: Symbol, Data: name} }
func StringValue(s string) Value      { return Value{Type: String, Data: s} }
func PairValue(p *Pair) Value         { return Value{Type: PairType, Data: p} }

// ProcedureValue wraps a native procedure. Used directly by internal/builtins.
func ProcedureValue(p *Proc) Value { return Value{Type: Procedure, Data: p} }

// ClosureValue and CodeObjectValue wrap opaque payloads owned by
// internal/bytecode. This package never looks inside them.
func ClosureValue(data any) Value    { return Value{Type: Closure, Data: data} }
func CodeObjectValue(data any) Value { return Value{Type: CodeObject, Data: data} }

func (v Value) IsNil() bool       { return v.Type == Nil }
func (v Value) IsPair() bool      { return v.Type == PairType }
func (v Value) IsBoolean() bool   { return v.Type == Boolean }
func (v Value) IsSymbol() bool    { return v.Type == Symbol }
func (v Value) IsInteger() bool   { return v.Type == Integer }
func (v Value) IsString() bool    { return v.Type == String }
func (v Value) IsProcedure() bool { return v.Type == Procedure }
func (v Value) IsClosure() bool   { return v.Type == Closure }

func (v Value) AsInt() int32     { return v.Data.(int32) }
func (v Value) AsBool() bool     { return v.Data.(bool) }
func (v Value) AsSymbol() string { return v.Data.(string) }
func (v Value) AsString() string { return v.Data.(string) }
func (v Value) AsPair() *Pair    { return v.Data.(*Pair) }
func (v Value) AsProc() *Proc    { return v.Data.(*Proc) }

// Truthy reports whether v takes the "then" branch of an if. Only
// Boolean(false) is falsy; everything else, including 0, Nil and "", is
// truthy.
func (v Value) Truthy() bool {
	return !(v.Type == Boolean && v.Data == false)
}

// Pair is a mutable two-slot cell, the building block of lists. Pairs
// compare by identity (see Eqv), not by structural content, and may form
// cycles through the set-car!/set-cdr! built-ins.
type Pair struct {
	First  Value
	Second Value
}

func NewPair(first, second Value) *Pair { return &Pair{First: first, Second: second} }

// Proc is a native (built-in) procedure.
type Proc struct {
	Name string
	Fn   func(args []Value) (Value, error)
}

// Eqv implements eq?/eqv?: pairs compare by identity, everything else by
// value. Closures, procedures and code objects are reference types too and
// so compare by identity, the same as pairs — the original spec leaves
// their equality undefined, and identity is the only sense in which two
// closures can be meaningfully "the same".
func Eqv(a, b Value) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case Nil:
		return true
	case Integer:
		return a.AsInt() == b.AsInt()
	case Boolean:
		return a.AsBool() == b.AsBool()
	case Symbol:
		return a.AsSymbol() == b.AsSymbol()
	case String:
		return a.AsString() == b.AsString()
	case PairType:
		return a.AsPair() == b.AsPair()
	default:
		return a.Data == b.Data
	}
}

// String renders v the way `print` and the disassembler display it.
func (v Value) String() string {
	switch v.Type {
	case Nil:
		return "()"
	case Integer:
		return fmt.Sprintf("%d", v.AsInt())
	case Boolean:
		if v.AsBool() {
			return "#t"
		}
		return "#f"
	case Symbol:
		return v.AsSymbol()
	case String:
		return v.AsString()
	case PairType:
		return pairString(v.AsPair())
	case Procedure:
		return fmt.Sprintf("#<procedure %s>", v.AsProc().Name)
	case Closure:
		return "#<closure>"
	case CodeObject:
		return "#<code-object>"
	default:
		return "#<unknown>"
	}
}

func pairString(p *Pair) string {
	s := "(" + p.First.String()
	rest := p.Second
	for rest.Type == PairType {
		np := rest.AsPair()
		s += " " + np.First.String()
		rest = np.Second
	}
	if rest.Type != Nil {
		s += " . " + rest.String()
	}
	return s + ")"
}

// Environment is the interface the value package needs of an environment
// chain in order to let a Closure carry one around without importing
// internal/environment (which itself imports this package).
type Environment interface {
	Get(name string) (Value, bool)
	Set(name string, v Value) error
	Define(name string, v Value)
}
