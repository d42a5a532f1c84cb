// Package diagnostics unifies the error taxonomy produced by every
// pipeline stage — lexing, reading, compiling, (de)serialization,
// environment lookups, built-in procedures and VM execution — into a
// single source-anchored display format, following the teacher's
// internal/errors.CompilerError: a message, the offending source, and a
// caret pointing at the failing position.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/deanmchris/Schemey/internal/builtins"
	"github.com/deanmchris/Schemey/internal/bytecode"
	"github.com/deanmchris/Schemey/internal/compiler"
	"github.com/deanmchris/Schemey/internal/environment"
	"github.com/deanmchris/Schemey/internal/interp"
	"github.com/deanmchris/Schemey/internal/lexer"
	"github.com/deanmchris/Schemey/internal/reader"
	"github.com/deanmchris/Schemey/internal/token"
	"github.com/deanmchris/Schemey/internal/vm"
)

// Diagnostic is a single reportable failure. Pos is the zero Position
// when the originating error carries no source location (compile-time,
// environment, and VM errors reference forms or names, not byte offsets).
type Diagnostic struct {
	Stage   string
	Message string
	Pos     token.Position
	HasPos  bool
}

// FromError classifies err against the known error types from every
// stage and builds a Diagnostic. Unrecognized errors (including a
// built-in procedure failure wrapped with fmt.Errorf by the VM or the
// interpreter) fall back to stage "runtime" with no position.
func FromError(err error) Diagnostic {
	switch e := err.(type) {
	case *lexer.Error:
		return Diagnostic{Stage: "lex", Message: e.Message, Pos: e.Pos, HasPos: true}
	case *reader.Error:
		return Diagnostic{Stage: "read", Message: e.Message, Pos: e.Pos, HasPos: true}
	case *bytecode.SerializationError:
		return Diagnostic{Stage: "serialize", Message: e.Message}
	case *bytecode.DeserializationError:
		return Diagnostic{Stage: "deserialize", Message: e.Message}
	case *environment.Error:
		return Diagnostic{Stage: "environment", Message: e.Error()}
	case *compiler.Error:
		return Diagnostic{Stage: "compile", Message: e.Message}
	case *builtins.Error:
		return Diagnostic{Stage: "procedure", Message: e.Error()}
	case *interp.Error:
		return Diagnostic{Stage: "eval", Message: e.Message}
	case *vm.RuntimeError:
		return Diagnostic{Stage: "vm", Message: e.Message}
	default:
		return Diagnostic{Stage: "runtime", Message: err.Error()}
	}
}

const (
	ansiBoldRed = "\x1b[1;31m"
	ansiReset   = "\x1b[0m"
)

// Format renders a Diagnostic against its source text, matching the
// teacher's "Error in file:line:col" header plus source-line-and-caret
// layout, with no coloring — used by `compile`, `exec` and `reload`, and
// by the REPL when the Color setting is off. See FormatColor for the
// colored variant.
func Format(d Diagnostic, source, file string) string {
	return format(d, source, file, false)
}

// FormatColor renders like Format but wraps the stage header in ANSI
// bold-red, matching the teacher's `Format(color bool)` convention for
// terminal output (the REPL uses this when the Color setting is on).
func FormatColor(d Diagnostic, source, file string) string {
	return format(d, source, file, true)
}

func format(d Diagnostic, source, file string, color bool) string {
	var sb strings.Builder

	header := d.Stage + " error"
	if color {
		header = ansiBoldRed + header + ansiReset
	}

	if !d.HasPos {
		if file != "" {
			fmt.Fprintf(&sb, "%s in %s: %s", header, file, d.Message)
		} else {
			fmt.Fprintf(&sb, "%s: %s", header, d.Message)
		}
		return sb.String()
	}

	if file != "" {
		fmt.Fprintf(&sb, "%s in %s:%d:%d\n", header, file, d.Pos.Line, d.Pos.Column)
	} else {
		fmt.Fprintf(&sb, "%s at %d:%d\n", header, d.Pos.Line, d.Pos.Column)
	}

	if line := sourceLine(source, d.Pos.Line); line != "" {
		prefix := fmt.Sprintf("%4d | ", d.Pos.Line)
		sb.WriteString(prefix)
		sb.WriteString(line)
		sb.WriteByte('\n')
		sb.WriteString(strings.Repeat(" ", len(prefix)+max(d.Pos.Column-1, 0)))
		sb.WriteString("^\n")
	}

	sb.WriteString(d.Message)
	return sb.String()
}

// FormatAll renders every diagnostic in ds, separated by blank lines —
// used when a whole REPL input or file is read/compiled in one pass and
// more than one error accumulates (currently only the lexer does this;
// the reader and compiler both stop at the first error).
func FormatAll(ds []Diagnostic, source, file string, color bool) string {
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = format(d, source, file, color)
	}
	return strings.Join(parts, "\n\n")
}

// FromLexErrors converts a lexer's accumulated error list (it does not
// stop at the first lexical error, unlike the reader and compiler).
func FromLexErrors(errs []*lexer.Error) []Diagnostic {
	ds := make([]Diagnostic, len(errs))
	for i, e := range errs {
		ds[i] = Diagnostic{Stage: "lex", Message: e.Message, Pos: e.Pos, HasPos: true}
	}
	return ds
}

func sourceLine(source string, line int) string {
	if source == "" || line < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return ""
	}
	return lines[line-1]
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
