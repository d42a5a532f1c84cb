// Package bytecode defines the compiled-code data model (CodeObject,
// Instruction, Closure) and the bit-exact binary container
// (serializer/deserializer) described by the original design's bytecode
// container component. It is the one package allowed to know both the
// value model (internal/value) and the compiled representation, since a
// CodeObject's constants pool holds value.Value entries that may
// themselves recursively be nested CodeObjects.
package bytecode

import "github.com/deanmchris/Schemey/internal/value"

// CodeObject is a compiled procedure body: its parameter list, its linear
// instruction stream, and the constants/varnames pools its instructions
// index into. A CodeObject may appear as a constant nested inside another
// CodeObject (an inner lambda).
type CodeObject struct {
	Name      string
	Args      []string
	Code      []Instruction
	Constants []value.Value
	Varnames  []string
}

// NewCodeObject builds an empty CodeObject; name defaults to
// "Anonymous procedure" when empty, matching the reference implementation.
func NewCodeObject(name string, args []string) *CodeObject {
	if name == "" {
		name = "Anonymous procedure"
	}
	return &CodeObject{Name: name, Args: args}
}

// Closure is a user-defined procedure: a CodeObject paired with the
// environment frame it was defined in. The captured environment is a
// shared-ownership handle — later mutations to it are visible through the
// closure, which is the lexical-scoping invariant the whole system exists
// to preserve.
type Closure struct {
	Code *CodeObject
	Env  value.Environment
}

func NewClosure(code *CodeObject, env value.Environment) *Closure {
	return &Closure{Code: code, Env: env}
}

// ClosureValue wraps a *Closure as a value.Value.
func ClosureValue(c *Closure) value.Value { return value.ClosureValue(c) }

// AsClosure type-asserts v's payload back to a *Closure. Panics if v is
// not of Closure type — callers are expected to check v.IsClosure() (or
// know the type from context) first, the same discipline value.Value's
// other As* accessors assume.
func AsClosure(v value.Value) *Closure { return v.Data.(*Closure) }

// CodeObjectValue wraps a *CodeObject as a value.Value, for the
// DEF_FUNC/LOAD_CONST constant-pool case.
func CodeObjectValue(c *CodeObject) value.Value { return value.CodeObjectValue(c) }

func AsCodeObject(v value.Value) *CodeObject { return v.Data.(*CodeObject) }
