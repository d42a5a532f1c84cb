package schemey

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestEvalReturnsFinalFormValue(t *testing.T) {
	e := New()
	result, err := e.Eval("(+ 1 2 3)")
	if err != nil {
		t.Fatalf("Eval() error = %v", err)
	}
	if result.Value != "6" {
		t.Fatalf("Eval().Value = %q, want 6", result.Value)
	}
}

func TestEvalPersistsDefinitionsAcrossCalls(t *testing.T) {
	e := New()
	if _, err := e.Eval("(define (square x) (* x x))"); err != nil {
		t.Fatalf("Eval(define) error = %v", err)
	}
	result, err := e.Eval("(square 9)")
	if err != nil {
		t.Fatalf("Eval(square 9) error = %v", err)
	}
	if result.Value != "81" {
		t.Fatalf("Eval(square 9).Value = %q, want 81", result.Value)
	}
}

func TestEvalCapturesPrintOutputPerCall(t *testing.T) {
	var sink bytes.Buffer
	e := New(WithOutput(&sink))

	first, err := e.Eval(`(print 'first)`)
	if err != nil {
		t.Fatalf("Eval() error = %v", err)
	}
	second, err := e.Eval(`(print 'second)`)
	if err != nil {
		t.Fatalf("Eval() error = %v", err)
	}

	if first.Output == "" {
		t.Fatal("first Eval().Output is empty, want captured print output")
	}
	if second.Output == "" {
		t.Fatal("second Eval().Output is empty, want captured print output after retargeting")
	}
	if sink.String() == "" {
		t.Fatal("configured output sink received nothing across two Eval calls")
	}
}

func TestEvalWithInterpreterMatchesBytecodeResult(t *testing.T) {
	bc := New()
	tree := New(WithInterpreter())

	src := "(define (fact n) (if (= n 0) 1 (* n (fact (- n 1))))) (fact 5)"
	bcResult, err := bc.Eval(src)
	if err != nil {
		t.Fatalf("bytecode Eval() error = %v", err)
	}
	treeResult, err := tree.Eval(src)
	if err != nil {
		t.Fatalf("interpreter Eval() error = %v", err)
	}
	if bcResult.Value != treeResult.Value {
		t.Fatalf("bytecode Eval() = %q, interpreter Eval() = %q, want equal", bcResult.Value, treeResult.Value)
	}
}

func TestEvalPropagatesReaderErrors(t *testing.T) {
	e := New()
	if _, err := e.Eval("(1 2"); err == nil {
		t.Fatal("Eval(unterminated) error = nil, want error")
	}
}

func TestEvalPropagatesCompileErrors(t *testing.T) {
	e := New()
	if _, err := e.Eval("(if #t 1)"); err == nil {
		t.Fatal("Eval(if without else) error = nil, want error")
	}
}

func TestLoadFileMakesDefinitionsVisible(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lib.scm")
	if err := os.WriteFile(path, []byte("(define loaded-value 55)"), 0o644); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}

	e := New()
	if _, err := e.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	result, err := e.Eval("loaded-value")
	if err != nil {
		t.Fatalf("Eval(loaded-value) error = %v", err)
	}
	if result.Value != "55" {
		t.Fatalf("Eval(loaded-value).Value = %q, want 55", result.Value)
	}
}

func TestCompileDisassembleSerializeRoundTrip(t *testing.T) {
	co, err := Compile("(+ 1 2)")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	var buf bytes.Buffer
	Disassemble(&buf, co)
	if buf.Len() == 0 {
		t.Fatal("Disassemble() wrote nothing")
	}

	data, err := Serialize(co)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	got, err := Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize() error = %v", err)
	}
	if len(got.Code) != len(co.Code) {
		t.Fatalf("Deserialize() Code len = %d, want %d", len(got.Code), len(co.Code))
	}
}
