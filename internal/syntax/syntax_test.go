package syntax

import (
	"testing"

	"github.com/deanmchris/Schemey/internal/reader"
	"github.com/deanmchris/Schemey/internal/value"
)

func read(t *testing.T, src string) value.Value {
	t.Helper()
	forms, err := reader.ReadAll(src)
	if err != nil {
		t.Fatalf("ReadAll(%q) error = %v", src, err)
	}
	if len(forms) != 1 {
		t.Fatalf("ReadAll(%q) produced %d forms, want 1", src, len(forms))
	}
	return forms[0]
}

func TestRecognizers(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		check func(value.Value) bool
	}{
		{"const integer", "42", IsConst},
		{"const boolean", "#t", IsConst},
		{"variable", "x", IsVariable},
		{"quote", "(quote x)", IsQuoted},
		{"assignment", "(set! x 1)", IsAssignment},
		{"definition", "(define x 1)", IsDefinition},
		{"if", "(if a b c)", IsIf},
		{"cond", "(cond (a b))", IsCond},
		{"let", "(let ((x 1)) x)", IsLet},
		{"lambda", "(lambda (x) x)", IsLambda},
		{"begin", "(begin 1 2)", IsBegin},
		{"proc call", "(f 1 2)", IsProcCall},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(read(t, tt.src)) {
				t.Fatalf("recognizer failed for %q", tt.src)
			}
		})
	}
}

func TestProcCallExcludesSpecialForms(t *testing.T) {
	specialForms := []string{
		"(quote x)", "(set! x 1)", "(define x 1)", "(if a b c)",
		"(cond (a b))", "(let ((x 1)) x)", "(lambda (x) x)", "(begin 1 2)",
	}
	for _, src := range specialForms {
		if IsProcCall(read(t, src)) {
			t.Fatalf("IsProcCall(%q) = true, want false", src)
		}
	}
}

func TestDefinitionVariableSimple(t *testing.T) {
	name, err := DefinitionVariable(read(t, "(define x 10)"))
	if err != nil || name != "x" {
		t.Fatalf("DefinitionVariable() = (%q, %v), want (x, nil)", name, err)
	}
}

func TestDefinitionVariableFunctionSugar(t *testing.T) {
	expr := read(t, "(define (f a b) (+ a b))")
	name, err := DefinitionVariable(expr)
	if err != nil || name != "f" {
		t.Fatalf("DefinitionVariable() = (%q, %v), want (f, nil)", name, err)
	}
	val, err := DefinitionValue(expr)
	if err != nil {
		t.Fatalf("DefinitionValue() error = %v", err)
	}
	if !IsLambda(val) {
		t.Fatalf("DefinitionValue() = %s, want a lambda", val.String())
	}
	params, err := LambdaParameters(val)
	if err != nil || len(params) != 2 || params[0] != "a" || params[1] != "b" {
		t.Fatalf("LambdaParameters() = (%v, %v), want ([a b], nil)", params, err)
	}
}

func TestDefinitionValueMissing(t *testing.T) {
	forms, err := reader.ReadAll("(define x)")
	if err != nil {
		t.Fatalf("ReadAll error = %v", err)
	}
	if _, err := DefinitionValue(forms[0]); err == nil {
		t.Fatal("DefinitionValue(define without value) error = nil, want error")
	}
}

func TestIfElsePresence(t *testing.T) {
	withElse := read(t, "(if a b c)")
	els, ok := IfElse(withElse)
	if !ok || els.AsSymbol() != "c" {
		t.Fatalf("IfElse() = (%v, %v), want (c, true)", els, ok)
	}

	withoutElse := read(t, "(if a b)")
	_, ok = IfElse(withoutElse)
	if ok {
		t.Fatal("IfElse() ok = true, want false for a two-armed if")
	}
}

func TestExpandCondBasic(t *testing.T) {
	expr := read(t, "(cond (#f 1) (#t 2) (else 3))")
	expanded, err := ExpandCond(expr)
	if err != nil {
		t.Fatalf("ExpandCond() error = %v", err)
	}
	if !IsIf(expanded) {
		t.Fatalf("ExpandCond() = %s, want an if", expanded.String())
	}
}

func TestExpandCondEmptyYieldsFalse(t *testing.T) {
	expr := read(t, "(cond)")
	expanded, err := ExpandCond(expr)
	if err != nil {
		t.Fatalf("ExpandCond() error = %v", err)
	}
	if !expanded.IsBoolean() || expanded.AsBool() {
		t.Fatalf("ExpandCond(empty) = %s, want #f", expanded.String())
	}
}

func TestExpandCondEmptyBodyClauseYieldsNil(t *testing.T) {
	expr := read(t, "(cond (#t))")
	expanded, err := ExpandCond(expr)
	if err != nil {
		t.Fatalf("ExpandCond() error = %v", err)
	}
	if !IsIf(expanded) {
		t.Fatalf("ExpandCond() = %s, want an if", expanded.String())
	}
	then := IfThen(expanded)
	if !then.IsNil() {
		t.Fatalf("ExpandCond((cond (#t))) then-branch = %s, want ()", then.String())
	}
	if !IsConst(then) {
		t.Fatalf("IsConst(Nil) = false, want true so Nil self-evaluates like the original")
	}
}

func TestExpandCondElseNotLastIsError(t *testing.T) {
	expr := read(t, "(cond (else 1) (#t 2))")
	if _, err := ExpandCond(expr); err == nil {
		t.Fatal("ExpandCond(else not last) error = nil, want error")
	}
}

func TestExpandLet(t *testing.T) {
	expr := read(t, "(let ((x 1) (y 2)) (+ x y))")
	expanded, err := ExpandLet(expr)
	if err != nil {
		t.Fatalf("ExpandLet() error = %v", err)
	}
	if !IsProcCall(expanded) {
		t.Fatalf("ExpandLet() = %s, want a procedure call", expanded.String())
	}
	operator := ProcedureOperator(expanded)
	if !IsLambda(operator) {
		t.Fatalf("ExpandLet() operator = %s, want a lambda", operator.String())
	}
}

func TestExpandLetEmptyBodyIsError(t *testing.T) {
	expr := read(t, "(let ((x 1)))")
	if _, err := ExpandLet(expr); err == nil {
		t.Fatal("ExpandLet(empty body) error = nil, want error")
	}
}

func TestListToSliceRejectsImproperList(t *testing.T) {
	improper := value.PairValue(value.NewPair(value.IntValue(1), value.IntValue(2)))
	if _, err := ListToSlice(improper); err == nil {
		t.Fatal("ListToSlice(improper list) error = nil, want error")
	}
}

func TestSequenceToExpression(t *testing.T) {
	single := SequenceToExpression([]value.Value{value.IntValue(1)})
	if single.String() != "1" {
		t.Fatalf("SequenceToExpression(single) = %s, want 1", single.String())
	}

	multi := SequenceToExpression([]value.Value{value.IntValue(1), value.IntValue(2)})
	if !IsBegin(multi) {
		t.Fatalf("SequenceToExpression(multi) = %s, want a begin", multi.String())
	}
}
