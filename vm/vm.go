// Package vm is the facade that ties the lexer, parser, compiler, and
// machine packages together into the handful of operations a host
// (the CLI or the REPL) actually needs: compile source, build a
// coroutine from it, run it once, or re-seed a persistent coroutine's
// code while keeping its environment for interactive use.
package vm

import (
	"context"
	"fmt"

	"github.com/yufengwng/coro/code"
	"github.com/yufengwng/coro/compiler"
	"github.com/yufengwng/coro/machine"
	"github.com/yufengwng/coro/parser"
	"github.com/yufengwng/coro/value"
)

// VM holds a single persistent top-level coroutine, used by the REPL
// to carry let/def bindings across chunks. One-shot callers (the CLI)
// can ignore the persistence and just call Run.
type VM struct {
	top *machine.Coroutine
}

// New creates a VM with an empty persistent top-level coroutine.
func New() *VM {
	return &VM{top: machine.New(&code.FunctionDefinition{Body: code.New()})}
}

// CompileError wraps a failure from the compiler package, letting
// callers tell a bad program (this) apart from a syntax error
// (a plain error from the parser) or a failure at runtime
// (*machine.RuntimeError) using errors.As.
type CompileError struct {
	Err error
}

func (e *CompileError) Error() string { return fmt.Sprintf("compile error: %s", e.Err) }
func (e *CompileError) Unwrap() error { return e.Err }

// Compile lexes, parses, and compiles src into its top-level function
// definition, without executing it.
func Compile(src string) (*code.FunctionDefinition, error) {
	prog, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	fn, err := compiler.Compile(prog)
	if err != nil {
		return nil, &CompileError{Err: err}
	}
	return fn, nil
}

// Build wraps an already-compiled fn in a fresh top-level coroutine,
// ready to Resume. It takes a definition rather than source, so an
// already-compiled definition can be run without recompiling it.
func Build(fn *code.FunctionDefinition) *machine.Coroutine {
	return machine.New(fn)
}

// Run compiles and executes src in one shot, against a brand-new
// coroutine with an empty environment. Used by the CLI's file-running
// mode, where each script gets its own clean run.
func Run(ctx context.Context, src string) (value.Value, error) {
	fn, err := Compile(src)
	if err != nil {
		return nil, err
	}
	co := Build(fn)
	return co.Resume(ctx, nil)
}

// Env exposes the VM's persistent coroutine, for callers that need to
// inspect it between chunks.
func (v *VM) Env() *machine.Coroutine { return v.top }

// Rewind compiles src and re-seeds the VM's persistent coroutine with
// the result, preserving every binding made by earlier chunks.
func (v *VM) Rewind(src string) (*code.FunctionDefinition, error) {
	fn, err := Compile(src)
	if err != nil {
		return nil, err
	}
	v.top.Rewind(fn)
	return fn, nil
}

// Eval compiles src against the VM's persistent environment and
// resumes it until the chunk finishes or yields, returning the value
// it finished or yielded with.
// This is the operation the REPL drives once per ";;"-terminated
// input.
func (v *VM) Eval(ctx context.Context, src string) (value.Value, error) {
	if _, err := v.Rewind(src); err != nil {
		return nil, err
	}
	return v.top.Resume(ctx, nil)
}
