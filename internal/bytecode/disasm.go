package bytecode

import (
	"fmt"
	"io"
	"strings"

	"github.com/deanmchris/Schemey/internal/value"
)

// Disassembler writes a human-readable dump of a CodeObject: its name,
// parameter list, constants pool (recursing into nested CodeObjects), and
// each instruction with its operand resolved against the relevant pool.
// This is the `-d`/disasm CLI command's implementation.
type Disassembler struct {
	w    io.Writer
	root *CodeObject
}

func NewDisassembler(w io.Writer, co *CodeObject) *Disassembler {
	return &Disassembler{w: w, root: co}
}

// Disassemble writes the full dump, indenting nested CodeObjects.
func (d *Disassembler) Disassemble() {
	d.dump(d.root, 0)
}

func (d *Disassembler) dump(co *CodeObject, depth int) {
	pad := strings.Repeat("  ", depth)
	fmt.Fprintf(d.w, "%s== %s (%d arg(s): %s) ==\n", pad, co.Name, len(co.Args), strings.Join(co.Args, ", "))

	for i, c := range co.Constants {
		if c.Type == value.CodeObject {
			fmt.Fprintf(d.w, "%s  const[%d] = \n", pad, i)
			d.dump(AsCodeObject(c), depth+2)
			continue
		}
		fmt.Fprintf(d.w, "%s  const[%d] = %s\n", pad, i, c.String())
	}

	for offset, inst := range co.Code {
		fmt.Fprintf(d.w, "%s  %04d %s\n", pad, offset, d.formatInstruction(co, inst))
	}
}

func (d *Disassembler) formatInstruction(co *CodeObject, inst Instruction) string {
	name := inst.OpCode.String()
	switch inst.OpCode {
	case LoadConst, DefFunc:
		if int(inst.Arg) < len(co.Constants) {
			return fmt.Sprintf("%-14s %4d  (%s)", name, inst.Arg, co.Constants[inst.Arg].String())
		}
	case LoadVar, SetVar, DefVar:
		if int(inst.Arg) < len(co.Varnames) {
			return fmt.Sprintf("%-14s %4d  (%s)", name, inst.Arg, co.Varnames[inst.Arg])
		}
	case Jump, JumpIfFalse:
		return fmt.Sprintf("%-14s %4d  (target)", name, inst.Arg)
	case ProcCall:
		return fmt.Sprintf("%-14s %4d  (argc)", name, inst.Arg)
	case Return, Pop:
		return name
	}
	if inst.OpCode.hasArg() {
		return fmt.Sprintf("%-14s %4d", name, inst.Arg)
	}
	return name
}
