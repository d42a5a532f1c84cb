package builtins

import (
	"bytes"
	"testing"

	"github.com/deanmchris/Schemey/internal/environment"
	"github.com/deanmchris/Schemey/internal/value"
)

func call(t *testing.T, env *environment.Environment, name string, args ...value.Value) value.Value {
	t.Helper()
	v, ok := env.Get(name)
	if !ok {
		t.Fatalf("builtin %q is not bound", name)
	}
	result, err := v.AsProc().Fn(args)
	if err != nil {
		t.Fatalf("%s(%v) error = %v", name, args, err)
	}
	return result
}

func TestArithmetic(t *testing.T) {
	env := newEnv(t)
	tests := []struct {
		name string
		proc string
		args []value.Value
		want int32
	}{
		{"addition", "+", []value.Value{value.IntValue(1), value.IntValue(2), value.IntValue(3)}, 6},
		{"subtraction", "-", []value.Value{value.IntValue(10), value.IntValue(3)}, 7},
		{"multiplication", "*", []value.Value{value.IntValue(4), value.IntValue(5)}, 20},
		{"floor division positive", "/", []value.Value{value.IntValue(7), value.IntValue(2)}, 3},
		{"floor division negative", "/", []value.Value{value.IntValue(-7), value.IntValue(2)}, -4},
		{"floor modulo negative", "%", []value.Value{value.IntValue(-7), value.IntValue(2)}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := call(t, env, tt.proc, tt.args...)
			if got.AsInt() != tt.want {
				t.Fatalf("%s(%v) = %d, want %d", tt.proc, tt.args, got.AsInt(), tt.want)
			}
		})
	}
}

func TestComparisonChaining(t *testing.T) {
	env := newEnv(t)
	got := call(t, env, "<", value.IntValue(1), value.IntValue(2), value.IntValue(3))
	if !got.AsBool() {
		t.Fatal("<(1 2 3) = #f, want #t")
	}
	got = call(t, env, "<", value.IntValue(1), value.IntValue(3), value.IntValue(2))
	if got.AsBool() {
		t.Fatal("<(1 3 2) = #t, want #f")
	}
}

func TestConsCarCdr(t *testing.T) {
	env := newEnv(t)
	pair := call(t, env, "cons", value.IntValue(1), value.IntValue(2))
	if !pair.IsPair() {
		t.Fatal("cons() did not return a pair")
	}
	if got := call(t, env, "car", pair); got.AsInt() != 1 {
		t.Fatalf("car() = %d, want 1", got.AsInt())
	}
	if got := call(t, env, "cdr", pair); got.AsInt() != 2 {
		t.Fatalf("cdr() = %d, want 2", got.AsInt())
	}
}

func TestCarOnNonPairIsError(t *testing.T) {
	env := newEnv(t)
	v, _ := env.Get("car")
	if _, err := v.AsProc().Fn([]value.Value{value.IntValue(1)}); err == nil {
		t.Fatal("car(1) error = nil, want error")
	}
}

func TestSetCarMutatesInPlace(t *testing.T) {
	env := newEnv(t)
	pair := call(t, env, "cons", value.IntValue(1), value.IntValue(2))
	call(t, env, "set-car!", pair, value.IntValue(99))
	if got := call(t, env, "car", pair); got.AsInt() != 99 {
		t.Fatalf("car() after set-car! = %d, want 99", got.AsInt())
	}
}

func TestEqvIdentityVsStructural(t *testing.T) {
	env := newEnv(t)
	a := call(t, env, "cons", value.IntValue(1), value.NilValue())
	if got := call(t, env, "eqv?", a, a); !got.AsBool() {
		t.Fatal("eqv?(a, a) = #f, want #t")
	}
	b := call(t, env, "cons", value.IntValue(1), value.NilValue())
	if got := call(t, env, "eqv?", a, b); got.AsBool() {
		t.Fatal("eqv?(a, b) = #t, want #f for distinct pairs")
	}
}

func TestEqvRejectsWrongArity(t *testing.T) {
	env := newEnv(t)
	v, _ := env.Get("eqv?")
	if _, err := v.AsProc().Fn([]value.Value{value.IntValue(1)}); err == nil {
		t.Fatal("eqv?(1) error = nil, want error")
	}
}

func TestAndOrOnEvaluatedArguments(t *testing.T) {
	env := newEnv(t)
	if got := call(t, env, "and", value.BoolValue(true), value.IntValue(5)); got.AsInt() != 5 {
		t.Fatalf("and(#t 5) = %v, want 5", got)
	}
	if got := call(t, env, "and", value.BoolValue(true), value.BoolValue(false), value.IntValue(5)); got.AsBool() {
		t.Fatal("and(#t #f 5) = truthy, want #f")
	}
	if got := call(t, env, "or"); got.AsBool() {
		t.Fatal("or() = #t, want #f")
	}
	if got := call(t, env, "and"); !got.AsBool() {
		t.Fatal("and() = #f, want #t")
	}
}

func TestTypePredicates(t *testing.T) {
	env := newEnv(t)
	if got := call(t, env, "pair?", value.IntValue(1)); got.AsBool() {
		t.Fatal("pair?(1) = #t, want #f")
	}
	if got := call(t, env, "null?", value.NilValue()); !got.AsBool() {
		t.Fatal("null?(()) = #f, want #t")
	}
	if got := call(t, env, "zero?", value.IntValue(0)); !got.AsBool() {
		t.Fatal("zero?(0) = #f, want #t")
	}
}

func TestPrintWritesReprAndReturnsUndefined(t *testing.T) {
	var buf bytes.Buffer
	env := NewStandardEnv(&buf)
	v, _ := env.Get("print")
	result, err := v.AsProc().Fn([]value.Value{value.IntValue(42)})
	if err != nil {
		t.Fatalf("print() error = %v", err)
	}
	if result.String() != Undefined().String() {
		t.Fatalf("print() = %v, want the undefined sentinel", result)
	}
	if buf.String() != "42\n" {
		t.Fatalf("print() wrote %q, want %q", buf.String(), "42\n")
	}
}

func TestStringLengthRejectsNonString(t *testing.T) {
	env := newEnv(t)
	v, _ := env.Get("string-length")
	if _, err := v.AsProc().Fn([]value.Value{value.IntValue(1)}); err == nil {
		t.Fatal("string-length(1) error = nil, want error")
	}
}

func newEnv(t *testing.T) *environment.Environment {
	t.Helper()
	return NewStandardEnv(&bytes.Buffer{})
}
