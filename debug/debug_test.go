package debug

import (
	"strings"
	"testing"

	"github.com/yufengwng/coro/code"
	"github.com/yufengwng/coro/value"
)

func TestPrintListsIndexLineAndMnemonic(t *testing.T) {
	c := code.New()
	one := c.AddConstant(value.Num(1))
	c.Add(code.Make(code.OpConst, one), 1)
	c.Add(code.Make(code.OpPrint), 1)
	c.Add(code.Make(code.OpRet), 2)

	var out strings.Builder
	Print(&out, c, "__main__")

	want := `== __main__ ==
0000    1 Const 0 1
0003    | Print
0004    2 Ret
`
	if got := out.String(); got != want {
		t.Fatalf("disassembly mismatch.\nwant=%q\ngot=%q", want, got)
	}
}

func TestPrintInstrAnnotatesConstantOpcodesWithTheirValue(t *testing.T) {
	c := code.New()
	name := c.AddConstant(value.Str("x"))
	c.Add(code.Make(code.OpStore, name), 5)

	var out strings.Builder
	next := PrintInstr(&out, c, 0)

	if next != 3 {
		t.Fatalf("PrintInstr returned next=%d, want 3", next)
	}
	want := "0000    5 Store 0 \"x\"\n"
	if got := out.String(); got != want {
		t.Fatalf("PrintInstr() = %q, want %q", got, want)
	}
}

func TestPrintInstrLeavesNonConstantOperandsBare(t *testing.T) {
	c := code.New()
	c.Add(code.Make(code.OpJump, 7), 1)

	var out strings.Builder
	PrintInstr(&out, c, 0)

	want := "0000    1 Jump 7\n"
	if got := out.String(); got != want {
		t.Fatalf("PrintInstr() = %q, want %q", got, want)
	}
}
