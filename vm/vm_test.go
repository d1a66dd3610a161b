package vm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yufengwng/coro/machine"
	"github.com/yufengwng/coro/value"
)

func TestRunCompilesAndExecutesOneShot(t *testing.T) {
	v, err := Run(context.Background(), "1 + 2 * 3")
	require.NoError(t, err)
	require.Equal(t, value.Num(7), v)
}

func TestRunReportsParseErrors(t *testing.T) {
	_, err := Run(context.Background(), "let = 1;")
	require.Error(t, err)
}

func TestCompileReportsParseErrorsAsPlainErrors(t *testing.T) {
	// A dangling binary operator is a syntax error, caught by the
	// parser before the compiler ever sees it, so Compile's returned
	// error is not a *CompileError.
	_, err := Compile("let x = 1 +;")
	require.Error(t, err)

	var ce *CompileError
	require.False(t, errors.As(err, &ce))
}

func TestEvalCarriesBindingsAcrossChunks(t *testing.T) {
	vmInst := New()
	ctx := context.Background()

	_, err := vmInst.Eval(ctx, "let x = 40;")
	require.NoError(t, err)

	v, err := vmInst.Eval(ctx, "x + 2")
	require.NoError(t, err)
	require.Equal(t, value.Num(42), v)
}

func TestEvalCarriesDefinitionsAcrossChunks(t *testing.T) {
	vmInst := New()
	ctx := context.Background()

	_, err := vmInst.Eval(ctx, "def gen = { yield 1; yield 2 };")
	require.NoError(t, err)

	_, err = vmInst.Eval(ctx, "let co = create gen;")
	require.NoError(t, err)

	v, err := vmInst.Eval(ctx, "resume co")
	require.NoError(t, err)
	require.Equal(t, value.Num(1), v)

	v, err = vmInst.Eval(ctx, "resume co")
	require.NoError(t, err)
	require.Equal(t, value.Num(2), v)
}

func TestBuildWrapsFunctionInFreshCoroutine(t *testing.T) {
	fn, err := Compile("print 1;")
	require.NoError(t, err)

	co := Build(fn)
	require.Equal(t, machine.Suspended, co.Status())
}
