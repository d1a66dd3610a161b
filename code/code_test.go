package code

import (
	"testing"

	"github.com/yufengwng/coro/value"
)

func TestMake(t *testing.T) {
	tests := []struct {
		op       Opcode
		operands []int
		expected []byte
	}{
		{OpConst, []int{65534}, []byte{byte(OpConst), 255, 254}},
		{OpAdd, []int{}, []byte{byte(OpAdd)}},
		{OpJump, []int{1}, []byte{byte(OpJump), 0, 1}},
	}

	for _, tt := range tests {
		ins := Make(tt.op, tt.operands...)
		if len(ins) != len(tt.expected) {
			t.Fatalf("instruction has wrong length. want=%d, got=%d", len(tt.expected), len(ins))
		}
		for i, b := range tt.expected {
			if ins[i] != b {
				t.Fatalf("wrong byte at pos %d. want=%d, got=%d", i, b, ins[i])
			}
		}
	}
}

func TestInstructionsString(t *testing.T) {
	instructions := []Instructions{
		Make(OpAdd),
		Make(OpConst, 2),
		Make(OpConst, 65535),
	}

	expected := `0000 Add
0001 Const 2
0004 Const 65535
`
	var concatted Instructions
	for _, ins := range instructions {
		concatted = append(concatted, ins...)
	}

	if got := concatted.String(); got != expected {
		t.Fatalf("instructions wrongly formatted.\nwant=%q\ngot=%q", expected, got)
	}
}

func TestReadOperands(t *testing.T) {
	tests := []struct {
		op        Opcode
		operands  []int
		bytesRead int
	}{
		{OpConst, []int{65535}, 2},
	}

	for _, tt := range tests {
		ins := Make(tt.op, tt.operands...)

		def, err := Lookup(byte(tt.op))
		if err != nil {
			t.Fatalf("definition not found: %s", err)
		}

		operandsRead, n := ReadOperands(def, ins[1:])
		if n != tt.bytesRead {
			t.Fatalf("n wrong. want=%d, got=%d", tt.bytesRead, n)
		}
		for i, want := range tt.operands {
			if operandsRead[i] != want {
				t.Fatalf("operand wrong. want=%d, got=%d", want, operandsRead[i])
			}
		}
	}
}

func TestAddConstantDeduplicates(t *testing.T) {
	c := New()

	i1 := c.AddConstant(value.Str("x"))
	i2 := c.AddConstant(value.Num(1))
	i3 := c.AddConstant(value.Str("x"))

	if i1 != i3 {
		t.Fatalf("expected duplicate Str(\"x\") to reuse index %d, got %d", i1, i3)
	}
	if i2 == i1 {
		t.Fatalf("expected distinct constants to get distinct indices")
	}
	if len(c.Constants) != 2 {
		t.Fatalf("expected constant pool to dedupe to 2 entries, got %d", len(c.Constants))
	}
}

func TestFunctionDefinitionDisplayName(t *testing.T) {
	top := &FunctionDefinition{Name: "", Params: nil, Body: New()}
	if got := top.DisplayName(); got != "__main__" {
		t.Fatalf("DisplayName() = %q, want __main__", got)
	}

	named := &FunctionDefinition{Name: "gen", Params: []string{"a", "b"}, Body: New()}
	if got := named.DisplayName(); got != "gen" {
		t.Fatalf("DisplayName() = %q, want gen", got)
	}
	if got := named.Arity(); got != 2 {
		t.Fatalf("Arity() = %d, want 2", got)
	}
}

func TestFnValuePrintAndIdentity(t *testing.T) {
	def := &FunctionDefinition{Name: "gen", Params: []string{"a"}, Body: New()}
	fv := FnValue{Def: def}

	want := "<fn name: gen arity: 1>"
	if got := fv.Print(); got != want {
		t.Fatalf("Print() = %q, want %q", got, want)
	}

	other := FnValue{Def: &FunctionDefinition{Name: "gen", Params: []string{"a"}, Body: New()}}
	if value.Equal(fv, other) {
		t.Fatalf("distinct FunctionDefinitions with identical shape should not be Equal")
	}
	if !value.Equal(fv, FnValue{Def: def}) {
		t.Fatalf("FnValue wrapping the same *FunctionDefinition should be Equal")
	}
}
