// Package syntax implements the expression algebra over S-expressions:
// recognizers and accessors for the special forms (quote, set!, begin,
// define, if, cond, let, lambda), plus the two desugarings — cond into
// nested if, let into an immediately-applied lambda — that the compiler
// and the tree interpreter both rely on so neither has to special-case
// cond or let itself.
package syntax

import (
	"errors"
	"fmt"

	"github.com/deanmchris/Schemey/internal/value"
)

// ListToSlice walks a proper list, returning its elements in order. It
// fails if the list is not nil-terminated (a dotted or improper list).
func ListToSlice(v value.Value) ([]value.Value, error) {
	var out []value.Value
	for {
		if v.IsNil() {
			return out, nil
		}
		if !v.IsPair() {
			return nil, fmt.Errorf("expected a proper list")
		}
		p := v.AsPair()
		out = append(out, p.First)
		v = p.Second
	}
}

// SliceToList right-folds elements into a nil-terminated list.
func SliceToList(elems []value.Value) value.Value {
	result := value.NilValue()
	for i := len(elems) - 1; i >= 0; i-- {
		result = value.PairValue(value.NewPair(elems[i], result))
	}
	return result
}

func car(v value.Value) value.Value { return v.AsPair().First }
func cdr(v value.Value) value.Value { return v.AsPair().Second }
func cadr(v value.Value) value.Value { return car(cdr(v)) }
func cddr(v value.Value) value.Value { return cdr(cdr(v)) }
func caddr(v value.Value) value.Value { return car(cddr(v)) }
func cdddr(v value.Value) value.Value { return cdr(cddr(v)) }
func cadddr(v value.Value) value.Value { return car(cdddr(v)) }

// IsTagged reports whether expr is a pair whose head is the symbol tag —
// the shape every special form shares.
func IsTagged(expr value.Value, tag string) bool {
	if !expr.IsPair() {
		return false
	}
	head := expr.AsPair().First
	return head.IsSymbol() && head.AsSymbol() == tag
}

func IsConst(expr value.Value) bool     { return expr.IsInteger() || expr.IsBoolean() || expr.IsNil() }
func IsVariable(expr value.Value) bool  { return expr.IsSymbol() }
func IsQuoted(expr value.Value) bool    { return IsTagged(expr, "quote") }
func IsAssignment(expr value.Value) bool { return IsTagged(expr, "set!") }
func IsDefinition(expr value.Value) bool { return IsTagged(expr, "define") }
func IsIf(expr value.Value) bool        { return IsTagged(expr, "if") }
func IsCond(expr value.Value) bool      { return IsTagged(expr, "cond") }
func IsLet(expr value.Value) bool       { return IsTagged(expr, "let") }
func IsLambda(expr value.Value) bool    { return IsTagged(expr, "lambda") }
func IsBegin(expr value.Value) bool     { return IsTagged(expr, "begin") }

// IsProcCall reports whether expr is a procedure application: any pair
// that is none of the recognized special forms.
func IsProcCall(expr value.Value) bool {
	if !expr.IsPair() {
		return false
	}
	switch {
	case IsQuoted(expr), IsAssignment(expr), IsDefinition(expr), IsIf(expr),
		IsCond(expr), IsLet(expr), IsLambda(expr), IsBegin(expr):
		return false
	default:
		return true
	}
}

func QuotedText(expr value.Value) value.Value { return cadr(expr) }

func AssignmentVariable(expr value.Value) string { return cadr(expr).AsSymbol() }
func AssignmentValue(expr value.Value) value.Value { return caddr(expr) }

func BeginBody(expr value.Value) ([]value.Value, error) { return ListToSlice(cdr(expr)) }

// DefinitionVariable and DefinitionValue understand both definition
// shapes: `(define x v)` and the function-header sugar
// `(define (f a b) body…)`, which desugars to `(define f (lambda (a b) body…))`.
func DefinitionVariable(expr value.Value) (string, error) {
	target := cadr(expr)
	if target.IsSymbol() {
		return target.AsSymbol(), nil
	}
	if target.IsPair() {
		name := target.AsPair().First
		if name.IsSymbol() {
			return name.AsSymbol(), nil
		}
	}
	return "", errors.New("define: malformed variable name")
}

func DefinitionValue(expr value.Value) (value.Value, error) {
	target := cadr(expr)
	if target.IsPair() {
		// (define (f a b) body...) => (lambda (a b) body...)
		params := target.AsPair().Second
		body := cddr(expr)
		lambdaExpr := value.PairValue(value.NewPair(
			value.SymbolValue("lambda"),
			value.PairValue(value.NewPair(params, body)),
		))
		return lambdaExpr, nil
	}
	rest := cddr(expr)
	if rest.IsNil() {
		return value.Value{}, errors.New("define: missing value")
	}
	return car(rest), nil
}

func IfCond(expr value.Value) value.Value { return cadr(expr) }
func IfThen(expr value.Value) value.Value { return caddr(expr) }

// IfElse returns the else-branch and whether it is present.
func IfElse(expr value.Value) (value.Value, bool) {
	rest := cdddr(expr)
	if rest.IsNil() {
		return value.Value{}, false
	}
	return car(rest), true
}

func LambdaParameters(expr value.Value) ([]string, error) {
	params, err := ListToSlice(cadr(expr))
	if err != nil {
		return nil, fmt.Errorf("lambda: malformed parameter list: %w", err)
	}
	names := make([]string, len(params))
	for i, p := range params {
		if !p.IsSymbol() {
			return nil, fmt.Errorf("lambda: parameter %d is not a symbol", i)
		}
		names[i] = p.AsSymbol()
	}
	return names, nil
}

func LambdaBody(expr value.Value) ([]value.Value, error) { return ListToSlice(cddr(expr)) }

func ProcedureOperator(expr value.Value) value.Value { return car(expr) }

func ProcedureOperands(expr value.Value) ([]value.Value, error) { return ListToSlice(cdr(expr)) }

// SequenceToExpression wraps a multi-expression body in a begin; a single
// expression body is returned unwrapped; an empty body yields an empty
// `(begin)`, which evaluates to Nil (cond's expansion checks for empty
// clause bodies itself before calling this).
func SequenceToExpression(body []value.Value) value.Value {
	if len(body) == 1 {
		return body[0]
	}
	return value.PairValue(value.NewPair(value.SymbolValue("begin"), SliceToList(body)))
}

// ExpandCond desugars a cond form into nested ifs, per §4.3: each clause
// `(test body…)` becomes `(if test (begin body…) <rest>)`; a final
// `(else body…)` becomes `(begin body…)`; an empty clause list yields #f;
// a clause with an empty body yields Nil for its then-branch, matching
// the original's sequence_to_expression([]) and Nil's self-evaluating
// status, rather than the test value itself; `else` anywhere but last is
// an error.
func ExpandCond(expr value.Value) (value.Value, error) {
	clauses, err := ListToSlice(cdr(expr))
	if err != nil {
		return value.Value{}, fmt.Errorf("cond: malformed clause list: %w", err)
	}
	return expandCondClauses(clauses)
}

func expandCondClauses(clauses []value.Value) (value.Value, error) {
	if len(clauses) == 0 {
		return value.BoolValue(false), nil
	}
	clause := clauses[0]
	parts, err := ListToSlice(clause)
	if err != nil || len(parts) == 0 {
		return value.Value{}, fmt.Errorf("cond: malformed clause")
	}
	test := parts[0]
	body := parts[1:]

	if test.IsSymbol() && test.AsSymbol() == "else" {
		if len(clauses) != 1 {
			return value.Value{}, errors.New("cond: else clause must be last")
		}
		if len(body) == 0 {
			return value.Value{}, errors.New("cond: else clause has no body")
		}
		return SequenceToExpression(body), nil
	}

	rest, err := expandCondClauses(clauses[1:])
	if err != nil {
		return value.Value{}, err
	}
	var thenExpr value.Value
	if len(body) == 0 {
		thenExpr = value.NilValue()
	} else {
		thenExpr = SequenceToExpression(body)
	}
	return MakeIf(test, thenExpr, rest), nil
}

func MakeIf(cond, then, els value.Value) value.Value {
	return value.PairValue(value.NewPair(
		value.SymbolValue("if"),
		value.PairValue(value.NewPair(cond,
			value.PairValue(value.NewPair(then,
				value.PairValue(value.NewPair(els, value.NilValue())))))),
	))
}

// ExpandLet desugars `(let ((x a) (y b)) body…)` into
// `((lambda (x y) body…) a b)`.
func ExpandLet(expr value.Value) (value.Value, error) {
	bindings, err := ListToSlice(cadr(expr))
	if err != nil {
		return value.Value{}, fmt.Errorf("let: malformed bindings: %w", err)
	}
	body, err := ListToSlice(cddr(expr))
	if err != nil {
		return value.Value{}, fmt.Errorf("let: malformed body: %w", err)
	}
	if len(body) == 0 {
		return value.Value{}, errors.New("let: empty body")
	}

	vars := make([]value.Value, len(bindings))
	vals := make([]value.Value, len(bindings))
	for i, b := range bindings {
		parts, err := ListToSlice(b)
		if err != nil || len(parts) != 2 {
			return value.Value{}, fmt.Errorf("let: malformed binding")
		}
		if !parts[0].IsSymbol() {
			return value.Value{}, fmt.Errorf("let: binding name must be a symbol")
		}
		vars[i] = parts[0]
		vals[i] = parts[1]
	}

	lambdaExpr := value.PairValue(value.NewPair(
		value.SymbolValue("lambda"),
		value.PairValue(value.NewPair(SliceToList(vars), SliceToList(body))),
	))
	return SliceToList(append([]value.Value{lambdaExpr}, vals...)), nil
}
