// Package code defines the bytecode instruction set, the constant pool,
// and the function-definition representation the compiler emits and the
// machine package executes.
//
// Instructions are byte-packed: a one-byte [Opcode] followed by zero or
// more big-endian operand bytes, sized to the operand widths coro's
// opcode table actually needs (a 2-byte constant/name index, or a 2-byte
// unsigned jump offset).
package code

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/yufengwng/coro/value"
)

// Instructions is a packed sequence of bytecode instructions.
type Instructions []byte

// Opcode identifies a single bytecode instruction.
type Opcode byte

// The complete coro opcode set.
const (
	OpUnit Opcode = iota
	OpTrue
	OpFalse
	OpConst
	OpLoad
	OpStore
	OpDefine
	OpCreate
	OpResume
	OpYield
	OpPrint
	OpPop
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpNeg
	OpNot
	OpLt
	OpEq
	OpJump
	OpLoop
	OpBranch
	OpRet
)

// Definition describes an opcode's mnemonic and its operand widths, in
// bytes, in emission order.
type Definition struct {
	Name          string
	OperandWidths []int
}

var definitions = map[Opcode]*Definition{
	OpUnit:   {"Unit", nil},
	OpTrue:   {"True", nil},
	OpFalse:  {"False", nil},
	OpConst:  {"Const", []int{2}},
	OpLoad:   {"Load", []int{2}},
	OpStore:  {"Store", []int{2}},
	OpDefine: {"Define", []int{2}},
	OpCreate: {"Create", []int{2}},
	OpResume: {"Resume", []int{2}},
	OpYield:  {"Yield", nil},
	OpPrint:  {"Print", nil},
	OpPop:    {"Pop", nil},
	OpAdd:    {"Add", nil},
	OpSub:    {"Sub", nil},
	OpMul:    {"Mul", nil},
	OpDiv:    {"Div", nil},
	OpNeg:    {"Neg", nil},
	OpNot:    {"Not", nil},
	OpLt:     {"Lt", nil},
	OpEq:     {"Eq", nil},
	OpJump:   {"Jump", []int{2}},
	OpLoop:   {"Loop", []int{2}},
	OpBranch: {"Branch", []int{2}},
	OpRet:    {"Ret", nil},
}

// Lookup returns the [Definition] for the given opcode byte.
func Lookup(op byte) (*Definition, error) {
	def, ok := definitions[Opcode(op)]
	if !ok {
		return nil, fmt.Errorf("opcode %d undefined", op)
	}
	return def, nil
}

// Make encodes a single instruction from an opcode and its operands.
func Make(op Opcode, operands ...int) Instructions {
	def, ok := definitions[op]
	if !ok {
		return Instructions{}
	}

	length := 1
	for _, w := range def.OperandWidths {
		length += w
	}

	ins := make(Instructions, length)
	ins[0] = byte(op)

	offset := 1
	for i, operand := range operands {
		width := def.OperandWidths[i]
		if width == 2 {
			binary.BigEndian.PutUint16(ins[offset:], uint16(operand))
		}
		offset += width
	}
	return ins
}

// ReadOperands decodes the operands of an instruction whose opcode byte
// has already been consumed, returning the operands and the number of
// bytes read.
func ReadOperands(def *Definition, ins Instructions) ([]int, int) {
	operands := make([]int, len(def.OperandWidths))
	offset := 0
	for i, width := range def.OperandWidths {
		if width == 2 {
			operands[i] = int(ReadUint16(ins[offset:]))
		}
		offset += width
	}
	return operands, offset
}

// ReadUint16 decodes the first two bytes of ins as a big-endian uint16.
func ReadUint16(ins Instructions) uint16 { return binary.BigEndian.Uint16(ins) }

// String renders ins as a human-readable disassembly listing, one
// instruction per line.
func (ins Instructions) String() string {
	var out strings.Builder
	i := 0
	for i < len(ins) {
		def, err := Lookup(ins[i])
		if err != nil {
			fmt.Fprintf(&out, "ERROR: %s\n", err)
			i++
			continue
		}
		operands, read := ReadOperands(def, ins[i+1:])
		fmt.Fprintf(&out, "%04d %s\n", i, fmtInstruction(def, operands))
		i += 1 + read
	}
	return out.String()
}

func fmtInstruction(def *Definition, operands []int) string {
	switch len(def.OperandWidths) {
	case 0:
		return def.Name
	case 1:
		return fmt.Sprintf("%s %d", def.Name, operands[0])
	default:
		return fmt.Sprintf("ERROR: unhandled operand count for %s", def.Name)
	}
}

// Code is a compiled instruction buffer: a byte-packed instruction
// stream, a deduplicated constant pool, and a parallel source-line
// table holding one entry per instruction byte.
type Code struct {
	Instructions Instructions
	Constants    []value.Value
	Lines        []int
}

// New returns an empty Code object.
func New() *Code {
	return &Code{}
}

// Add appends a single already-encoded instruction, recording line as
// its source line, and returns the index the instruction starts at.
func (c *Code) Add(ins Instructions, line int) int {
	pos := len(c.Instructions)
	c.Instructions = append(c.Instructions, ins...)
	for range ins {
		c.Lines = append(c.Lines, line)
	}
	return pos
}

// AddConstant adds v to the constant pool, deduplicating by value
// equality, and returns its index.
func (c *Code) AddConstant(v value.Value) int {
	for i, existing := range c.Constants {
		if value.Equal(existing, v) {
			return i
		}
	}
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// Len returns the number of bytes in the instruction stream.
func (c *Code) Len() int { return len(c.Instructions) }

// Instr returns the instruction byte at idx.
func (c *Code) Instr(idx int) byte { return c.Instructions[idx] }

// Line returns the source line recorded for the instruction byte at idx.
func (c *Code) Line(idx int) int { return c.Lines[idx] }

// Constant returns the constant pool entry at idx.
func (c *Code) Constant(idx int) value.Value { return c.Constants[idx] }

// PatchOperand overwrites the 2-byte operand starting at opIdx (the byte
// immediately after the opcode) with the given offset. Used to backpatch
// Jump/Loop/Branch once their target is known.
func (c *Code) PatchOperand(opIdx int, operand int) {
	binary.BigEndian.PutUint16(c.Instructions[opIdx:], uint16(operand))
}

// FunctionDefinition is a named, owned code object together with its
// ordered parameter list. An empty Name denotes the synthetic top-level
// function.
type FunctionDefinition struct {
	Name   string
	Params []string
	Body   *Code
}

// DisplayName returns Name, or "__main__" if Name is empty.
func (f *FunctionDefinition) DisplayName() string {
	if f.Name == "" {
		return "__main__"
	}
	return f.Name
}

// Arity returns the number of declared parameters.
func (f *FunctionDefinition) Arity() int { return len(f.Params) }

// FnValue wraps a *FunctionDefinition so it can be stored and compared
// as a value.Value. Fn values compare by identity: two FnValues are
// equal iff they wrap the same *FunctionDefinition.
type FnValue struct {
	Def *FunctionDefinition
}

// Type returns "fn".
func (FnValue) Type() string { return "fn" }

// Print renders "<fn name: NAME arity: N>".
func (f FnValue) Print() string {
	return fmt.Sprintf("<fn name: %s arity: %d>", f.Def.DisplayName(), f.Def.Arity())
}

// Debug is identical to Print for FnValue.
func (f FnValue) Debug() string { return f.Print() }

// Identity returns the underlying *FunctionDefinition for identity
// comparison via value.Equal.
func (f FnValue) Identity() any { return f.Def }

var _ value.Identifiable = FnValue{}
