package bytecode

// Bytecode container (.pcode) format
// ==================================
//
//   u32 magic = 0x0000001A
//   CodeObject
//
// CodeObject  := 'C' host_string sequence<Symbol> sequence<Instruction>
//                    sequence<value> sequence<host_string>
//                (name)            (args)          (code)   (constants) (varnames)
// host_string := 'p' u32 byte_len utf16_bytes
// Symbol      := 'S' u32 byte_len utf16_bytes
// String      := 's' u32 byte_len utf16_bytes
// sequence    := '[' u32 count element*
// Instruction := 'I' u32 opcode u32 arg
// Pair        := 'P' element element
// Boolean     := 'B' u32 (0 or 1)
// Number      := 'N' u32  (two's-complement bit pattern of a signed i32)
// Nil         := 'n'
//
// Strings are UTF-16 with a byte-order mark, matching the reference
// implementation's use of Python's generic 'utf-16' codec. byte_len counts
// encoded bytes, not UTF-16 code units.
//
// Magic mismatch, an unrecognized tag byte, or a truncated read are all
// fatal deserialization errors.

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/deanmchris/Schemey/internal/value"
	"golang.org/x/text/encoding/unicode"
)

// MagicNumber is the 4-byte little-endian prefix of every bytecode
// container. The original pack_integer/pack_string scheme used an
// unsigned 32-bit wire format for integers; this implementation widens
// Number to signed two's-complement per the open question in §9, since
// the lexer can already produce negative integer literals.
const MagicNumber uint32 = 0x0000001A

var utf16Codec = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)

// SerializationError reports a value that cannot be written to the
// container — currently only a Procedure or Closure constant, neither of
// which has a serializable representation.
type SerializationError struct{ Message string }

func (e *SerializationError) Error() string { return "serialization error: " + e.Message }

// DeserializationError reports a malformed container: bad magic, an
// unknown tag byte, or a truncated read.
type DeserializationError struct{ Message string }

func (e *DeserializationError) Error() string { return "deserialization error: " + e.Message }

// Serializer writes and reads the bytecode container format.
type Serializer struct{}

func NewSerializer() *Serializer { return &Serializer{} }

// Serialize encodes the top-level CodeObject (and, recursively, every
// CodeObject nested in its constants pool) to the binary container.
func (s *Serializer) Serialize(co *CodeObject) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := writeU32(buf, MagicNumber); err != nil {
		return nil, &SerializationError{Message: err.Error()}
	}
	if err := writeCodeObject(buf, co); err != nil {
		return nil, &SerializationError{Message: err.Error()}
	}
	return buf.Bytes(), nil
}

// Deserialize decodes a container produced by Serialize back into a
// CodeObject, structurally equal to the original.
func (s *Serializer) Deserialize(data []byte) (*CodeObject, error) {
	r := bytes.NewReader(data)
	magic, err := readU32(r)
	if err != nil {
		return nil, &DeserializationError{Message: "truncated header: " + err.Error()}
	}
	if magic != MagicNumber {
		return nil, &DeserializationError{Message: fmt.Sprintf("bad magic number: got 0x%08X", magic)}
	}
	co, err := readCodeObject(r)
	if err != nil {
		return nil, &DeserializationError{Message: err.Error()}
	}
	return co, nil
}

func writeU32(w io.Writer, v uint32) error {
	return binary.Write(w, binary.LittleEndian, v)
}

func readU32(r io.Reader) (uint32, error) {
	var v uint32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func encodeUTF16(s string) ([]byte, error) { return utf16Codec.NewEncoder().Bytes([]byte(s)) }

func decodeUTF16(b []byte) (string, error) {
	out, err := utf16Codec.NewDecoder().Bytes(b)
	return string(out), err
}

func writeTaggedString(buf *bytes.Buffer, tag byte, s string) error {
	encoded, err := encodeUTF16(s)
	if err != nil {
		return fmt.Errorf("encode string: %w", err)
	}
	buf.WriteByte(tag)
	if err := writeU32(buf, uint32(len(encoded))); err != nil {
		return err
	}
	buf.Write(encoded)
	return nil
}

func readTaggedString(r *bytes.Reader, expectedTag byte) (string, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return "", fmt.Errorf("read tag: %w", err)
	}
	if tag != expectedTag {
		return "", fmt.Errorf("expected tag %q, got %q", expectedTag, tag)
	}
	n, err := readU32(r)
	if err != nil {
		return "", fmt.Errorf("read string length: %w", err)
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return "", fmt.Errorf("read string bytes: %w", err)
	}
	return decodeUTF16(data)
}

func writeSequence[T any](buf *bytes.Buffer, items []T, writeElem func(*bytes.Buffer, T) error) error {
	buf.WriteByte('[')
	if err := writeU32(buf, uint32(len(items))); err != nil {
		return err
	}
	for _, item := range items {
		if err := writeElem(buf, item); err != nil {
			return err
		}
	}
	return nil
}

func readSequence[T any](r *bytes.Reader, readElem func(*bytes.Reader) (T, error)) ([]T, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("read sequence tag: %w", err)
	}
	if tag != '[' {
		return nil, fmt.Errorf("expected sequence tag '[', got %q", tag)
	}
	n, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("read sequence count: %w", err)
	}
	items := make([]T, n)
	for i := range items {
		v, err := readElem(r)
		if err != nil {
			return nil, fmt.Errorf("read sequence element %d: %w", i, err)
		}
		items[i] = v
	}
	return items, nil
}

func writeSymbol(buf *bytes.Buffer, name string) error { return writeTaggedString(buf, 'S', name) }

func readSymbol(r *bytes.Reader) (string, error) { return readTaggedString(r, 'S') }

func writeHostString(buf *bytes.Buffer, s string) error { return writeTaggedString(buf, 'p', s) }

func readHostString(r *bytes.Reader) (string, error) { return readTaggedString(r, 'p') }

func writeInstruction(buf *bytes.Buffer, inst Instruction) error {
	buf.WriteByte('I')
	if err := writeU32(buf, uint32(inst.OpCode)); err != nil {
		return err
	}
	return writeU32(buf, inst.Arg)
}

func readInstruction(r *bytes.Reader) (Instruction, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return Instruction{}, err
	}
	if tag != 'I' {
		return Instruction{}, fmt.Errorf("expected instruction tag 'I', got %q", tag)
	}
	op, err := readU32(r)
	if err != nil {
		return Instruction{}, err
	}
	arg, err := readU32(r)
	if err != nil {
		return Instruction{}, err
	}
	return Instruction{OpCode: OpCode(op), Arg: arg}, nil
}

func writeValue(buf *bytes.Buffer, v value.Value) error {
	switch v.Type {
	case value.Integer:
		buf.WriteByte('N')
		return writeU32(buf, uint32(v.AsInt()))
	case value.Boolean:
		buf.WriteByte('B')
		b := uint32(0)
		if v.AsBool() {
			b = 1
		}
		return writeU32(buf, b)
	case value.Symbol:
		return writeSymbol(buf, v.AsSymbol())
	case value.String:
		return writeTaggedString(buf, 's', v.AsString())
	case value.Nil:
		buf.WriteByte('n')
		return nil
	case value.PairType:
		p := v.AsPair()
		buf.WriteByte('P')
		if err := writeValue(buf, p.First); err != nil {
			return err
		}
		return writeValue(buf, p.Second)
	case value.CodeObject:
		return writeCodeObject(buf, AsCodeObject(v))
	default:
		return fmt.Errorf("value of type %s is not serializable", v.Type)
	}
}

func readValue(r *bytes.Reader) (value.Value, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return value.Value{}, err
	}
	switch tag {
	case 'N':
		n, err := readU32(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.IntValue(int32(n)), nil
	case 'B':
		n, err := readU32(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.BoolValue(n != 0), nil
	case 'S':
		n, err := readU32(r)
		if err != nil {
			return value.Value{}, err
		}
		data := make([]byte, n)
		if _, err := io.ReadFull(r, data); err != nil {
			return value.Value{}, err
		}
		s, err := decodeUTF16(data)
		if err != nil {
			return value.Value{}, err
		}
		return value.SymbolValue(s), nil
	case 's':
		n, err := readU32(r)
		if err != nil {
			return value.Value{}, err
		}
		data := make([]byte, n)
		if _, err := io.ReadFull(r, data); err != nil {
			return value.Value{}, err
		}
		s, err := decodeUTF16(data)
		if err != nil {
			return value.Value{}, err
		}
		return value.StringValue(s), nil
	case 'n':
		return value.NilValue(), nil
	case 'P':
		first, err := readValue(r)
		if err != nil {
			return value.Value{}, err
		}
		second, err := readValue(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.PairValue(value.NewPair(first, second)), nil
	case 'C':
		co, err := readCodeObjectBody(r)
		if err != nil {
			return value.Value{}, err
		}
		return CodeObjectValue(co), nil
	default:
		return value.Value{}, fmt.Errorf("unknown value tag %q", tag)
	}
}

func writeCodeObject(buf *bytes.Buffer, co *CodeObject) error {
	buf.WriteByte('C')
	return writeCodeObjectBody(buf, co)
}

func writeCodeObjectBody(buf *bytes.Buffer, co *CodeObject) error {
	if err := writeHostString(buf, co.Name); err != nil {
		return fmt.Errorf("write name: %w", err)
	}
	if err := writeSequence(buf, co.Args, writeSymbol); err != nil {
		return fmt.Errorf("write args: %w", err)
	}
	if err := writeSequence(buf, co.Code, writeInstruction); err != nil {
		return fmt.Errorf("write code: %w", err)
	}
	if err := writeSequence(buf, co.Constants, writeValue); err != nil {
		return fmt.Errorf("write constants: %w", err)
	}
	if err := writeSequence(buf, co.Varnames, writeHostString); err != nil {
		return fmt.Errorf("write varnames: %w", err)
	}
	return nil
}

func readCodeObject(r *bytes.Reader) (*CodeObject, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if tag != 'C' {
		return nil, fmt.Errorf("expected CodeObject tag 'C', got %q", tag)
	}
	return readCodeObjectBody(r)
}

func readCodeObjectBody(r *bytes.Reader) (*CodeObject, error) {
	name, err := readHostString(r)
	if err != nil {
		return nil, fmt.Errorf("read name: %w", err)
	}
	args, err := readSequence(r, readSymbol)
	if err != nil {
		return nil, fmt.Errorf("read args: %w", err)
	}
	code, err := readSequence(r, readInstruction)
	if err != nil {
		return nil, fmt.Errorf("read code: %w", err)
	}
	constants, err := readSequence(r, readValue)
	if err != nil {
		return nil, fmt.Errorf("read constants: %w", err)
	}
	varnames, err := readSequence(r, readHostString)
	if err != nil {
		return nil, fmt.Errorf("read varnames: %w", err)
	}
	return &CodeObject{Name: name, Args: args, Code: code, Constants: constants, Varnames: varnames}, nil
}
