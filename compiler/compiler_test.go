package compiler

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yufengwng/coro/code"
	"github.com/yufengwng/coro/lexer"
	"github.com/yufengwng/coro/machine"
	"github.com/yufengwng/coro/parser"
	"github.com/yufengwng/coro/value"
)

func compileSource(t *testing.T, src string) *code.FunctionDefinition {
	t.Helper()
	p := parser.New(lexer.New(src))
	prog := p.ParseProgram()
	require.Empty(t, p.Errors(), "parse errors for %q", src)
	fn, err := Compile(prog)
	require.NoError(t, err)
	return fn
}

func run(t *testing.T, src string) (string, error) {
	t.Helper()
	fn := compileSource(t, src)
	co := machine.New(fn)
	var out bytes.Buffer
	co.Stdout = &out
	_, err := co.Resume(context.Background(), nil)
	return out.String(), err
}

func TestCompileArithmeticPrecedence(t *testing.T) {
	out, err := run(t, "print 1 + 2 * 3;")
	require.NoError(t, err)
	require.Equal(t, "7\n", out)
}

func TestCompileLetAndLoad(t *testing.T) {
	out, err := run(t, "let x = 40; print x + 1;")
	require.NoError(t, err)
	require.Equal(t, "41\n", out)
}

func TestCompileIfBothArms(t *testing.T) {
	out, err := run(t, "if 1 < 2 then print \"yes\" else print \"no\" end")
	require.NoError(t, err)
	require.Equal(t, "yes\n", out)

	out, err = run(t, "if 2 < 1 then print \"yes\" else print \"no\" end")
	require.NoError(t, err)
	require.Equal(t, "no\n", out)
}

func TestCompileWhileCountsAndDiscardsBody(t *testing.T) {
	out, err := run(t, `
let i = 0;
while i < 3 do
  print i;
  let i = i + 1
end
`)
	require.NoError(t, err)
	require.Equal(t, "0\n1\n2\n", out)
}

func TestCompileWhileFalseNeverEvaluatesBodyAndYieldsUnit(t *testing.T) {
	fn := compileSource(t, "while false do print 1 end")
	co := machine.New(fn)
	var out bytes.Buffer
	co.Stdout = &out

	v, err := co.Resume(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, value.Unit{}, v)
	require.Empty(t, out.String())
}

func TestCompileGroupAndUnit(t *testing.T) {
	out, err := run(t, "print (1 + 2); print ();")
	require.NoError(t, err)
	require.Equal(t, "3\nunit\n", out)
}

func TestCompileDefCreateResumeGenerator(t *testing.T) {
	fn := compileSource(t, `
def gen = {
  let i = 0;
  while i < 3 do
    yield i;
    let i = i + 1
  end
};
let co = create gen;
print (resume co);
print (resume co);
print (resume co);
print (resume co);
`)
	top := machine.New(fn)
	var out bytes.Buffer
	top.Stdout = &out

	_, err := top.Resume(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, "0\n1\n2\nunit\n", out.String())
}

func TestCompileResumeWithArgsRoundTrips(t *testing.T) {
	fn := compileSource(t, `
def echo v = yield v;
let co = create echo;
print (resume co 1);
print (resume co 2);
`)
	top := machine.New(fn)
	var out bytes.Buffer
	top.Stdout = &out

	_, err := top.Resume(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, "1\n2\n", out.String())
}

func TestCompileDivideByZeroSurfacesRuntimeError(t *testing.T) {
	_, err := run(t, "print 1 / 0;")
	require.ErrorIs(t, err, machine.ErrDivideByZero)
}

func TestCompileUnboundNameSurfacesRuntimeError(t *testing.T) {
	_, err := run(t, "print x;")
	require.ErrorIs(t, err, machine.ErrUnboundName)
}
