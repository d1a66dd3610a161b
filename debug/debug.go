// Package debug implements the bytecode disassembler: a listing of
// every instruction in a code.Code, one per line, with its byte
// offset, source line, mnemonic, and (for instructions that index the
// constant pool) the constant's debug rendering alongside the index.
package debug

import (
	"fmt"
	"io"

	"github.com/yufengwng/coro/code"
)

// constantOpcodes are the opcodes whose 2-byte operand indexes the
// constant pool rather than encoding a jump offset or argument count,
// so their disassembly line can also print the constant itself.
var constantOpcodes = map[code.Opcode]bool{
	code.OpConst:  true,
	code.OpLoad:   true,
	code.OpStore:  true,
	code.OpDefine: true,
	code.OpCreate: true,
}

// Print writes a full disassembly of c to w, labelled with name.
func Print(w io.Writer, c *code.Code, name string) {
	fmt.Fprintf(w, "== %s ==\n", name)
	idx := 0
	for idx < c.Len() {
		idx = PrintInstr(w, c, idx)
	}
}

// PrintInstr writes the single instruction starting at idx and
// returns the offset of the next instruction.
func PrintInstr(w io.Writer, c *code.Code, idx int) int {
	fmt.Fprintf(w, "%04d ", idx)

	if idx > 0 && c.Line(idx) == c.Line(idx-1) {
		fmt.Fprint(w, "   | ")
	} else {
		fmt.Fprintf(w, "%4d ", c.Line(idx))
	}

	op := code.Opcode(c.Instr(idx))
	def, err := code.Lookup(byte(op))
	if err != nil {
		fmt.Fprintf(w, "ERROR: %s\n", err)
		return idx + 1
	}

	operands, read := code.ReadOperands(def, c.Instructions[idx+1:])
	next := idx + 1 + read

	switch {
	case len(operands) == 0:
		fmt.Fprintln(w, def.Name)
	case constantOpcodes[op]:
		fmt.Fprintf(w, "%s %d %s\n", def.Name, operands[0], c.Constant(operands[0]).Debug())
	default:
		fmt.Fprintf(w, "%s %d\n", def.Name, operands[0])
	}

	return next
}
