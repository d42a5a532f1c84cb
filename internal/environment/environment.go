// Package environment implements the lexically scoped, parent-chained
// variable frames used by both the virtual machine and the tree
// interpreter. The design mirrors internal/interp/runtime.Environment in
// the teacher codebase: a binding map plus an optional reference to an
// enclosing frame, consulted in order by name.
package environment

import (
	"fmt"

	"github.com/deanmchris/Schemey/internal/value"
)

// Error reports an undefined-variable lookup or set.
type Error struct {
	Name string
	Verb string // "reference" or "set"
}

func (e *Error) Error() string {
	return fmt.Sprintf("undefined variable: cannot %s \"%s\"", e.Verb, e.Name)
}

// Environment is a single frame in the lexical scope chain. Unlike the
// teacher's ident.Map-backed frames, lookups here are case-sensitive:
// Scheme, unlike the teacher's source language, does not require
// case-insensitive identifiers.
type Environment struct {
	store map[string]value.Value
	outer *Environment
}

// New creates a top-level environment with no parent.
func New() *Environment {
	return &Environment{store: make(map[string]value.Value)}
}

// NewEnclosed creates a child frame of outer.
func NewEnclosed(outer *Environment) *Environment {
	return &Environment{store: make(map[string]value.Value), outer: outer}
}

// Get walks the chain for name, returning its value and true, or the zero
// Value and false if it is bound nowhere on the chain.
func (e *Environment) Get(name string) (value.Value, bool) {
	if v, ok := e.store[name]; ok {
		return v, true
	}
	if e.outer != nil {
		return e.outer.Get(name)
	}
	return value.Value{}, false
}

// Define binds name in this frame only, shadowing any outer binding.
func (e *Environment) Define(name string, v value.Value) {
	e.store[name] = v
}

// Set walks the chain for the first frame already binding name and
// updates it there. It returns an *Error if name is bound nowhere.
func (e *Environment) Set(name string, v value.Value) error {
	if _, ok := e.store[name]; ok {
		e.store[name] = v
		return nil
	}
	if e.outer != nil {
		return e.outer.Set(name, v)
	}
	return &Error{Name: name, Verb: "set"}
}

var _ value.Environment = (*Environment)(nil)
