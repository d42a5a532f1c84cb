package bytecode

// OpCode identifies one bytecode instruction.
type OpCode byte

const (
	// LoadConst pushes constants[Arg].
	//
	// Format: [opcode, arg=constant index]
	// Stack:  … -> … value
	LoadConst OpCode = iota

	// LoadVar looks varnames[Arg] up the current environment chain and
	// pushes the result. Fails if the name is bound nowhere on the chain.
	//
	// Format: [opcode, arg=varname index]
	// Stack:  … -> … value
	LoadVar

	// SetVar pops a value and re-binds varnames[Arg] at the first frame on
	// the chain that already binds it. Fails if unbound anywhere.
	//
	// Format: [opcode, arg=varname index]
	// Stack:  … value -> …
	SetVar

	// DefVar pops a value and binds varnames[Arg] in the current frame
	// only, shadowing any outer binding of the same name.
	//
	// Format: [opcode, arg=varname index]
	// Stack:  … value -> …
	DefVar

	// DefFunc pushes a closure over constants[Arg] — which must be a
	// CodeObject — capturing the current frame's environment by reference.
	//
	// Format: [opcode, arg=constant index of a CodeObject]
	// Stack:  … -> … closure
	DefFunc

	// ProcCall pops the callee, then pops Arg arguments (in reverse of
	// source order), applies the callee, and pushes its result.
	//
	// Format: [opcode, arg=argument count]
	// Stack:  … arg1 … argN callee -> … result
	ProcCall

	// JumpIfFalse pops a value; if it is exactly Boolean(false), sets ip to
	// Arg. Every other value is truthy and falls through.
	//
	// Format: [opcode, arg=target instruction index]
	// Stack:  … value -> …
	JumpIfFalse

	// Jump unconditionally sets ip to Arg.
	//
	// Format: [opcode, arg=target instruction index]
	// Stack:  … -> …
	Jump

	// Return pops a value, records it as the frame's return value, and
	// unwinds the current frame.
	//
	// Format: [opcode]
	// Stack:  … value -> …
	Return

	// Pop discards the top of the value stack, tolerating an empty stack
	// (a no-op in that case) — the compiler emits Pop after every
	// statement-position expression, some of which push nothing.
	//
	// Format: [opcode]
	// Stack:  … value -> …  (or … -> … if the stack was already empty)
	Pop
)

var opCodeNames = [...]string{
	LoadConst:   "LOAD_CONST",
	LoadVar:     "LOAD_VAR",
	SetVar:      "SET_VAR",
	DefVar:      "DEF_VAR",
	DefFunc:     "DEF_FUNC",
	ProcCall:    "PROC_CALL",
	JumpIfFalse: "JUMP_IF_FALSE",
	Jump:        "JUMP",
	Return:      "RETURN",
	Pop:         "POP",
}

func (op OpCode) String() string {
	if int(op) < 0 || int(op) >= len(opCodeNames) {
		return "UNKNOWN"
	}
	return opCodeNames[op]
}

// hasArg reports whether op carries a meaningful Arg; RETURN and POP are
// argless (their Arg is always zero).
func (op OpCode) hasArg() bool {
	return op != Return && op != Pop
}

// Instruction is one bytecode instruction: an opcode plus a 32-bit
// argument, zero for argless opcodes.
type Instruction struct {
	OpCode OpCode
	Arg    uint32
}
