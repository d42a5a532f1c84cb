package vm

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/deanmchris/Schemey/internal/compiler"
	"github.com/deanmchris/Schemey/internal/reader"
)

func run(t *testing.T, m *VM, src string) string {
	t.Helper()
	forms, err := reader.ReadAll(src)
	if err != nil {
		t.Fatalf("ReadAll(%q) error = %v", src, err)
	}
	co, err := compiler.Compile(forms)
	if err != nil {
		t.Fatalf("Compile(%q) error = %v", src, err)
	}
	result, err := m.Run(co)
	if err != nil {
		t.Fatalf("Run(%q) error = %v", src, err)
	}
	return result.String()
}

func TestRunArithmetic(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"(+ 1 2 3)", "6"},
		{"(* 2 (+ 1 2))", "6"},
		{"(if (> 2 1) 10 20)", "10"},
		{"(if (> 1 2) 10 20)", "20"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			m := New(&bytes.Buffer{})
			if got := run(t, m, tt.src); got != tt.want {
				t.Fatalf("Run(%q) = %q, want %q", tt.src, got, tt.want)
			}
		})
	}
}

func TestDefineAndCallClosure(t *testing.T) {
	m := New(&bytes.Buffer{})
	run(t, m, "(define (square x) (* x x))")
	if got := run(t, m, "(square 5)"); got != "25" {
		t.Fatalf("(square 5) = %q, want 25", got)
	}
}

func TestClosureCapturesDefiningEnvironment(t *testing.T) {
	m := New(&bytes.Buffer{})
	run(t, m, "(define (make-adder n) (lambda (x) (+ x n)))")
	run(t, m, "(define add5 (make-adder 5))")
	if got := run(t, m, "(add5 10)"); got != "15" {
		t.Fatalf("(add5 10) = %q, want 15", got)
	}
}

func TestRecursiveClosure(t *testing.T) {
	m := New(&bytes.Buffer{})
	run(t, m, "(define (fact n) (if (= n 0) 1 (* n (fact (- n 1)))))")
	if got := run(t, m, "(fact 5)"); got != "120" {
		t.Fatalf("(fact 5) = %q, want 120", got)
	}
}

func TestCondEmptyBodyClauseYieldsNil(t *testing.T) {
	m := New(&bytes.Buffer{})
	if got := run(t, m, "(cond (#t))"); got != "()" {
		t.Fatalf("(cond (#t)) = %q, want ()", got)
	}
}

func TestCallingNonProcedureIsRuntimeError(t *testing.T) {
	forms, err := reader.ReadAll("(1 2)")
	if err != nil {
		t.Fatalf("ReadAll error = %v", err)
	}
	co, err := compiler.Compile(forms)
	if err != nil {
		t.Fatalf("Compile error = %v", err)
	}
	m := New(&bytes.Buffer{})
	if _, err := m.Run(co); err == nil {
		t.Fatal("Run((1 2)) error = nil, want error")
	}
}

func TestUnboundVariableIsRuntimeError(t *testing.T) {
	forms, err := reader.ReadAll("undefined-name")
	if err != nil {
		t.Fatalf("ReadAll error = %v", err)
	}
	co, err := compiler.Compile(forms)
	if err != nil {
		t.Fatalf("Compile error = %v", err)
	}
	m := New(&bytes.Buffer{})
	_, err = m.Run(co)
	if err == nil {
		t.Fatal("Run(undefined-name) error = nil, want error")
	}
	if _, ok := err.(*RuntimeError); !ok {
		t.Fatalf("error type = %T, want *RuntimeError", err)
	}
}

func TestArityMismatchIsRuntimeError(t *testing.T) {
	m := New(&bytes.Buffer{})
	run(t, m, "(define (add a b) (+ a b))")
	forms, err := reader.ReadAll("(add 1)")
	if err != nil {
		t.Fatalf("ReadAll error = %v", err)
	}
	co, err := compiler.Compile(forms)
	if err != nil {
		t.Fatalf("Compile error = %v", err)
	}
	if _, err := m.Run(co); err == nil {
		t.Fatal("Run((add 1)) error = nil, want an arity mismatch error")
	}
}

func TestRecursionBudgetExceeded(t *testing.T) {
	m := New(&bytes.Buffer{})
	m.SetMaxDepth(10)
	run(t, m, "(define (loop n) (+ 1 (loop n)))")

	forms, err := reader.ReadAll("(loop 0)")
	if err != nil {
		t.Fatalf("ReadAll error = %v", err)
	}
	co, err := compiler.Compile(forms)
	if err != nil {
		t.Fatalf("Compile error = %v", err)
	}
	_, err = m.Run(co)
	if err == nil {
		t.Fatal("Run(infinite recursion) error = nil, want recursion budget exceeded")
	}
}

func TestPrintGoesToConfiguredWriter(t *testing.T) {
	var buf bytes.Buffer
	m := New(&buf)
	run(t, m, `(print 42)`)
	if buf.String() != "42\n" {
		t.Fatalf("print output = %q, want %q", buf.String(), "42\n")
	}
}

func TestRunFileDefinitionsRemainVisible(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lib.scm")
	if err := os.WriteFile(path, []byte("(define loaded-constant 77)"), 0o644); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}

	m := New(&bytes.Buffer{})
	if _, err := m.RunFile(path); err != nil {
		t.Fatalf("RunFile() error = %v", err)
	}
	if got := run(t, m, "loaded-constant"); got != "77" {
		t.Fatalf("loaded-constant = %q, want 77", got)
	}
}

func TestRunFileMissingPathIsError(t *testing.T) {
	m := New(&bytes.Buffer{})
	if _, err := m.RunFile("/nonexistent/path.scm"); err == nil {
		t.Fatal("RunFile(missing) error = nil, want error")
	}
}

func TestGlobalsExposesTopLevelEnvironment(t *testing.T) {
	m := New(&bytes.Buffer{})
	run(t, m, "(define x 10)")
	got, ok := m.Globals().Get("x")
	if !ok || got.String() != "10" {
		t.Fatalf("Globals().Get(x) = (%v, %v), want (10, true)", got, ok)
	}
}
