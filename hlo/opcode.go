package hlo

// Opcode identifies the operation an Instruction performs. The set is
// closed: analyses switch over it exhaustively instead of dispatching
// through per-opcode behaviour objects.
type Opcode int

const (
	InvalidOpcode Opcode = iota
	Parameter
	Constant
	Add
	Subtract
	Multiply
	Divide
	Negate
	Bitcast
	Tuple
	GetTupleElement
	While
	Outfeed
)

var opcodeNames = [...]string{
	InvalidOpcode:   "invalid",
	Parameter:       "parameter",
	Constant:        "constant",
	Add:             "add",
	Subtract:        "subtract",
	Multiply:        "multiply",
	Divide:          "divide",
	Negate:          "negate",
	Bitcast:         "bitcast",
	Tuple:           "tuple",
	GetTupleElement: "get-tuple-element",
	While:           "while",
	Outfeed:         "outfeed",
}

func (op Opcode) String() string {
	if op < 0 || int(op) >= len(opcodeNames) {
		return "invalid"
	}
	return opcodeNames[op]
}

// OpcodeByName returns the Opcode written as name.
func OpcodeByName(name string) (Opcode, bool) {
	for op, n := range opcodeNames {
		if Opcode(op) != InvalidOpcode && n == name {
			return Opcode(op), true
		}
	}
	return InvalidOpcode, false
}

// HasSideEffect returns true for opcodes whose execution is observable
// outside the data flow graph. Such instructions cannot be relocated.
func (op Opcode) HasSideEffect() bool {
	return op == Outfeed
}

// IsBinary returns true for two-operand arithmetic opcodes.
func (op Opcode) IsBinary() bool {
	switch op {
	case Add, Subtract, Multiply, Divide:
		return true
	}
	return false
}

// IsUnary returns true for one-operand arithmetic opcodes.
func (op Opcode) IsUnary() bool {
	switch op {
	case Negate, Bitcast:
		return true
	}
	return false
}
