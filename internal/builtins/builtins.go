// Package builtins implements the native procedures — arithmetic,
// comparison, list operations, type predicates, and the logical
// operators — that the virtual machine and tree interpreter both bind
// into the top-level environment via NewStandardEnv.
package builtins

import (
	"fmt"
	"io"

	"github.com/deanmchris/Schemey/internal/environment"
	"github.com/deanmchris/Schemey/internal/value"
)

// Error reports an arity or type mismatch in a built-in procedure call.
type Error struct {
	Proc    string
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Proc, e.Message) }

func errf(proc, format string, args ...any) error {
	return &Error{Proc: proc, Message: fmt.Sprintf(format, args...)}
}

func bind(env *environment.Environment, name string, fn func([]value.Value) (value.Value, error)) {
	env.Define(name, value.ProcedureValue(&value.Proc{Name: name, Fn: fn}))
}

// NewStandardEnv builds a top-level environment binding every built-in
// procedure, plus a `print` procedure that writes repr(v)+"\n" to out and
// returns the undefined sentinel.
func NewStandardEnv(out io.Writer) *environment.Environment {
	env := environment.New()

	bind(env, "+", arith("+", func(a, b int32) int32 { return a + b }))
	bind(env, "-", arith("-", func(a, b int32) int32 { return a - b }))
	bind(env, "*", arith("*", func(a, b int32) int32 { return a * b }))
	bind(env, "/", arith("/", floorDiv))
	bind(env, "%", arith("%", floorMod))

	bind(env, "=", compare("=", func(a, b int32) bool { return a == b }))
	bind(env, ">", compare(">", func(a, b int32) bool { return a > b }))
	bind(env, "<", compare("<", func(a, b int32) bool { return a < b }))
	bind(env, ">=", compare(">=", func(a, b int32) bool { return a >= b }))
	bind(env, "<=", compare("<=", func(a, b int32) bool { return a <= b }))

	bind(env, "list", builtinList)
	bind(env, "cons", builtinCons)
	bind(env, "car", builtinCar)
	bind(env, "cdr", builtinCdr)
	bind(env, "set-car!", builtinSetCar)
	bind(env, "set-cdr!", builtinSetCdr)

	bind(env, "pair?", predicate(func(v value.Value) bool { return v.IsPair() }))
	bind(env, "zero?", builtinZero)
	bind(env, "boolean?", predicate(func(v value.Value) bool { return v.IsBoolean() }))
	bind(env, "symbol?", predicate(func(v value.Value) bool { return v.IsSymbol() }))
	bind(env, "number?", predicate(func(v value.Value) bool { return v.IsInteger() }))
	bind(env, "null?", predicate(func(v value.Value) bool { return v.IsNil() }))
	bind(env, "string?", predicate(func(v value.Value) bool { return v.IsString() }))
	bind(env, "not", builtinNot)

	bind(env, "eq?", builtinEqv)
	bind(env, "eqv?", builtinEqv)

	bind(env, "and", builtinAnd)
	bind(env, "or", builtinOr)

	bind(env, "string-length", builtinStringLength)

	RebindPrint(env, out)

	return env
}

// RebindPrint redefines `print` in env to write to out, overwriting
// whatever writer it previously captured. Used by embedders (such as
// pkg/schemey's Engine) that need to retarget print output mid-session
// without losing the accumulated top-level bindings.
func RebindPrint(env *environment.Environment, out io.Writer) {
	bind(env, "print", func(args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return value.Value{}, errf("print", "expected 1 argument, got %d", len(args))
		}
		fmt.Fprintln(out, args[0].String())
		return Undefined(), nil
	})
}

// Undefined is the sentinel value `print` and similarly side-effecting
// procedures return, printed by a REPL as nothing rather than "=> <#undef>".
func Undefined() value.Value { return value.SymbolValue("<#undef>") }

func checkInts(proc string, args []value.Value) ([]int32, error) {
	out := make([]int32, len(args))
	for i, a := range args {
		if !a.IsInteger() {
			return nil, errf(proc, "expected numbers only")
		}
		out[i] = a.AsInt()
	}
	return out, nil
}

// arith builds a left-folding arithmetic procedure. Every arithmetic
// operator takes at least one argument.
func arith(name string, op func(a, b int32) int32) func([]value.Value) (value.Value, error) {
	return func(args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.Value{}, errf(name, "expected at least 1 argument")
		}
		ints, err := checkInts(name, args)
		if err != nil {
			return value.Value{}, err
		}
		acc := ints[0]
		for _, n := range ints[1:] {
			acc = op(acc, n)
		}
		return value.IntValue(acc), nil
	}
}

// floorDiv and floorMod truncate toward negative infinity, unlike Go's
// native / and % which truncate toward zero.
func floorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int32) int32 {
	m := a % b
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m
}

// compare builds a left-fold, pairwise-chained comparison: (= a b c) is
// (a = b) and (b = c).
func compare(name string, op func(a, b int32) bool) func([]value.Value) (value.Value, error) {
	return func(args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.Value{}, errf(name, "expected at least 1 argument")
		}
		ints, err := checkInts(name, args)
		if err != nil {
			return value.Value{}, err
		}
		for i := 0; i < len(ints)-1; i++ {
			if !op(ints[i], ints[i+1]) {
				return value.BoolValue(false), nil
			}
		}
		return value.BoolValue(true), nil
	}
}

func builtinList(args []value.Value) (value.Value, error) {
	result := value.NilValue()
	for i := len(args) - 1; i >= 0; i-- {
		result = value.PairValue(value.NewPair(args[i], result))
	}
	return result, nil
}

func builtinCons(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return value.Value{}, errf("cons", "expected 2 arguments, got %d", len(args))
	}
	return value.PairValue(value.NewPair(args[0], args[1])), nil
}

func requirePair(proc string, args []value.Value) (*value.Pair, error) {
	if len(args) != 1 {
		return nil, errf(proc, "expected 1 argument, got %d", len(args))
	}
	if !args[0].IsPair() {
		return nil, errf(proc, "expected a pair")
	}
	return args[0].AsPair(), nil
}

func builtinCar(args []value.Value) (value.Value, error) {
	p, err := requirePair("car", args)
	if err != nil {
		return value.Value{}, err
	}
	return p.First, nil
}

func builtinCdr(args []value.Value) (value.Value, error) {
	p, err := requirePair("cdr", args)
	if err != nil {
		return value.Value{}, err
	}
	return p.Second, nil
}

func builtinSetCar(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return value.Value{}, errf("set-car!", "expected 2 arguments, got %d", len(args))
	}
	if !args[0].IsPair() {
		return value.Value{}, errf("set-car!", "expected a pair")
	}
	args[0].AsPair().First = args[1]
	return args[0], nil
}

func builtinSetCdr(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return value.Value{}, errf("set-cdr!", "expected 2 arguments, got %d", len(args))
	}
	if !args[0].IsPair() {
		return value.Value{}, errf("set-cdr!", "expected a pair")
	}
	args[0].AsPair().Second = args[1]
	return args[0], nil
}

func predicate(pred func(value.Value) bool) func([]value.Value) (value.Value, error) {
	return func(args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return value.Value{}, errf("predicate", "expected 1 argument, got %d", len(args))
		}
		return value.BoolValue(pred(args[0])), nil
	}
}

func builtinZero(args []value.Value) (value.Value, error) {
	if len(args) != 1 || !args[0].IsInteger() {
		return value.Value{}, errf("zero?", "expected 1 number argument")
	}
	return value.BoolValue(args[0].AsInt() == 0), nil
}

func builtinNot(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, errf("not", "expected 1 argument, got %d", len(args))
	}
	return value.BoolValue(!args[0].Truthy()), nil
}

// builtinEqv implements both eq? and eqv?, tightened (per the original's
// open question) to reject anything but exactly 2 arguments instead of
// silently consulting only args[0]/args[1].
func builtinEqv(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return value.Value{}, errf("eqv?", "expected exactly 2 arguments, got %d", len(args))
	}
	return value.BoolValue(value.Eqv(args[0], args[1])), nil
}

// builtinAnd and builtinOr operate on already-evaluated arguments — the
// VM evaluates every operand before PROC_CALL dispatches, so neither
// short-circuits. and returns the first argument literally equal to
// Boolean(false), else the last argument (#t if called with none); or
// returns the first argument literally equal to Boolean(true), else the
// last argument (#f if called with none).
func builtinAnd(args []value.Value) (value.Value, error) {
	for _, a := range args {
		if a.Type == value.Boolean && !a.AsBool() {
			return a, nil
		}
	}
	if len(args) > 0 {
		return args[len(args)-1], nil
	}
	return value.BoolValue(true), nil
}

func builtinOr(args []value.Value) (value.Value, error) {
	for _, a := range args {
		if a.Type == value.Boolean && a.AsBool() {
			return a, nil
		}
	}
	if len(args) > 0 {
		return args[len(args)-1], nil
	}
	return value.BoolValue(false), nil
}

func builtinStringLength(args []value.Value) (value.Value, error) {
	if len(args) != 1 || !args[0].IsString() {
		return value.Value{}, errf("string-length", "expected a string")
	}
	return value.IntValue(int32(len(args[0].AsString()))), nil
}
