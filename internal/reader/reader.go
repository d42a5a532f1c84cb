// Package reader implements the recursive-descent S-expression reader: it
// turns a lexer's token stream into a sequence of data, one per top-level
// form, following the subset of R5RS §7.1.2 this system supports.
//
// The reader produces plain value.Value data (pairs, symbols, integers,
// booleans, nil) — the same representation Scheme uses for its own data,
// per the "code is data" tradition; there is no separate AST type.
package reader

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/deanmchris/Schemey/internal/lexer"
	"github.com/deanmchris/Schemey/internal/token"
	"github.com/deanmchris/Schemey/internal/value"
)

// Error is a syntax error produced while reading, with a 1-based line and
// a caret column derived from the offending token's position.
type Error struct {
	Message string
	Pos     token.Position
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at %d:%d", e.Message, e.Pos.Line, e.Pos.Column)
}

// Reader reads successive data from a token stream.
type Reader struct {
	lex *lexer.Lexer
	cur token.Token
}

// New creates a Reader over the given Lexer.
func New(l *lexer.Lexer) *Reader {
	r := &Reader{lex: l}
	r.advance()
	return r
}

func (r *Reader) advance() { r.cur = r.lex.NextToken() }

func (r *Reader) errorf(pos token.Position, format string, args ...any) error {
	return &Error{Message: fmt.Sprintf(format, args...), Pos: pos}
}

// ReadAll reads every top-level form until end of input.
func ReadAll(src string) ([]value.Value, error) {
	r := New(lexer.New(src))
	var forms []value.Value
	for r.cur.Type != token.EOF {
		d, err := r.datum()
		if err != nil {
			return nil, err
		}
		forms = append(forms, d)
	}
	return forms, nil
}

// Datum reads a single top-level datum, or io.EOF-like nil,false if the
// stream is exhausted. It is exported for callers (the REPL) that need to
// read forms one at a time as they arrive.
func (r *Reader) Datum() (value.Value, bool, error) {
	if r.cur.Type == token.EOF {
		return value.Value{}, false, nil
	}
	d, err := r.datum()
	if err != nil {
		return value.Value{}, false, err
	}
	return d, true, nil
}

func (r *Reader) datum() (value.Value, error) {
	switch r.cur.Type {
	case token.LPAREN:
		return r.list()
	case token.QUOTE:
		r.advance()
		d, err := r.datum()
		if err != nil {
			return value.Value{}, err
		}
		return value.PairValue(value.NewPair(
			value.SymbolValue("quote"),
			value.PairValue(value.NewPair(d, value.NilValue())),
		)), nil
	case token.BOOLEAN:
		b := r.cur.Literal == "#t"
		r.advance()
		return value.BoolValue(b), nil
	case token.NUMBER:
		n, err := strconv.ParseInt(r.cur.Literal, 10, 32)
		if err != nil {
			return value.Value{}, r.errorf(r.cur.Pos, "malformed number %q", r.cur.Literal)
		}
		r.advance()
		return value.IntValue(int32(n)), nil
	case token.IDENTIFIER:
		if r.cur.Literal == "." {
			return value.Value{}, r.errorf(r.cur.Pos, "unexpected '.'")
		}
		sym := r.cur.Literal
		r.advance()
		return value.SymbolValue(sym), nil
	case token.RPAREN:
		return value.Value{}, r.errorf(r.cur.Pos, "unexpected ')'")
	default:
		return value.Value{}, r.errorf(r.cur.Pos, "unexpected token %q", r.cur.Literal)
	}
}

// list parses a parenthesized list, handling the single legal dotted-pair
// position: a non-empty run of data, a single '.' token, exactly one
// trailing datum, and then the closing paren.
func (r *Reader) list() (value.Value, error) {
	openPos := r.cur.Pos
	r.advance() // consume '('

	var items []value.Value
	tail := value.NilValue()

	for {
		switch {
		case r.cur.Type == token.RPAREN:
			r.advance()
			return foldPairs(items, tail), nil
		case r.cur.Type == token.EOF:
			return value.Value{}, r.errorf(openPos, "unterminated list")
		case r.cur.Type == token.IDENTIFIER && r.cur.Literal == ".":
			if len(items) == 0 {
				return value.Value{}, r.errorf(r.cur.Pos, "'.' not allowed here")
			}
			r.advance()
			t, err := r.datum()
			if err != nil {
				return value.Value{}, err
			}
			if r.cur.Type != token.RPAREN {
				return value.Value{}, r.errorf(r.cur.Pos, "expected ')' after dotted tail")
			}
			tail = t
			r.advance()
			return foldPairs(items, tail), nil
		default:
			d, err := r.datum()
			if err != nil {
				return value.Value{}, err
			}
			items = append(items, d)
		}
	}
}

func foldPairs(items []value.Value, tail value.Value) value.Value {
	result := tail
	for i := len(items) - 1; i >= 0; i-- {
		result = value.PairValue(value.NewPair(items[i], result))
	}
	return result
}

// Pretty renders a datum back to source text, normalizing quote sugar to
// (quote …) since the reader itself never reconstructs the abbreviation.
func Pretty(v value.Value) string {
	var sb strings.Builder
	writeDatum(&sb, v)
	return sb.String()
}

func writeDatum(sb *strings.Builder, v value.Value) {
	sb.WriteString(v.String())
}
