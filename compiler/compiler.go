// Package compiler lowers a coro abstract syntax tree into the
// bytecode representation defined by the code package: a flat
// instruction stream, a deduplicated constant pool, and a parallel
// source-line table.
//
// The compiler is single-pass and tree-walking. Each nested `def`
// compiles into its own, independently addressed *code.Code, added to
// the enclosing code's constant pool as a code.FnValue; there is no
// shared instruction stream across function boundaries and no
// variable resolution pass, since the runtime environment is a flat,
// unscoped name map owned by the coroutine executing it.
package compiler

import (
	"fmt"

	"github.com/yufengwng/coro/ast"
	"github.com/yufengwng/coro/code"
	"github.com/yufengwng/coro/value"
)

// Compiler holds the code object currently being emitted into. Def
// bodies swap this out for the duration of their own compilation and
// restore it afterward.
type Compiler struct {
	code *code.Code
}

// Compile lowers a full program into the synthetic top-level function
// definition (an empty Name denotes __main__).
func Compile(prog *ast.Program) (*code.FunctionDefinition, error) {
	c := &Compiler{code: code.New()}
	if err := c.compileBindings(prog.Bindings); err != nil {
		return nil, err
	}
	if len(prog.Bindings) > 0 {
		c.emit(code.OpRet, prog.Bindings[len(prog.Bindings)-1].Line())
	}
	return &code.FunctionDefinition{Body: c.code}, nil
}

func (c *Compiler) emit(op code.Opcode, line int) int {
	return c.code.Add(code.Make(op), line)
}

func (c *Compiler) emitOperand(op code.Opcode, operand int, line int) int {
	return c.code.Add(code.Make(op, operand), line)
}

// compileBindings implements the "block of N items" lowering rule:
// every item but the last is followed by a Pop, so only the final
// item's value survives on the stack.
func (c *Compiler) compileBindings(items []ast.Binding) error {
	for i, item := range items {
		if err := c.compileBinding(item); err != nil {
			return err
		}
		if i < len(items)-1 {
			c.emit(code.OpPop, item.Line())
		}
	}
	return nil
}

func (c *Compiler) compileBinding(b ast.Binding) error {
	switch n := b.(type) {
	case *ast.DefBind:
		return c.compileDef(n)
	case *ast.LetBind:
		return c.compileLet(n)
	case ast.Cmd:
		return c.compileCmd(n)
	default:
		return fmt.Errorf("compiler: unknown binding %T", b)
	}
}

func (c *Compiler) compileDef(d *ast.DefBind) error {
	outer := c.code
	c.code = code.New()

	if err := c.compileCmd(d.Body); err != nil {
		c.code = outer
		return err
	}
	c.emit(code.OpRet, d.Line())

	fn := &code.FunctionDefinition{Name: d.Name, Params: d.Params, Body: c.code}
	c.code = outer

	idx := c.code.AddConstant(code.FnValue{Def: fn})
	c.emitOperand(code.OpDefine, idx, d.Line())
	return nil
}

func (c *Compiler) compileLet(l *ast.LetBind) error {
	if err := c.compileCmd(l.Init); err != nil {
		return err
	}
	idx := c.code.AddConstant(value.Str(l.Name))
	c.emitOperand(code.OpStore, idx, l.Line())
	return nil
}

func (c *Compiler) compileCmd(cmd ast.Cmd) error {
	switch n := cmd.(type) {
	case *ast.ExprStmt:
		return c.compileExpr(n.X)
	case *ast.PrintStmt:
		if err := c.compileExpr(n.X); err != nil {
			return err
		}
		c.emit(code.OpPrint, n.Line())
		return nil
	case *ast.CreateStmt:
		idx := c.code.AddConstant(value.Str(n.Name))
		c.emitOperand(code.OpCreate, idx, n.Line())
		return nil
	case *ast.ResumeStmt:
		if err := c.compileExpr(n.Target); err != nil {
			return err
		}
		for _, a := range n.Args {
			if err := c.compileExpr(a); err != nil {
				return err
			}
		}
		c.emitOperand(code.OpResume, len(n.Args), n.Line())
		return nil
	case *ast.YieldStmt:
		if err := c.compileExpr(n.X); err != nil {
			return err
		}
		c.emit(code.OpYield, n.Line())
		return nil
	case *ast.WhileStmt:
		return c.compileWhile(n)
	case *ast.IfStmt:
		return c.compileIf(n)
	default:
		return fmt.Errorf("compiler: unknown command %T", cmd)
	}
}

// compileWhile follows the lowering rule precisely: start the loop
// before the condition, reserve a Branch to exit, discard the
// condition on each side, loop back, then leave Unit as the while
// expression's own value.
func (c *Compiler) compileWhile(w *ast.WhileStmt) error {
	start := c.code.Len()

	if err := c.compileExpr(w.Cond); err != nil {
		return err
	}
	branchPos := c.emitOperand(code.OpBranch, 0, w.Line())
	c.emit(code.OpPop, w.Line())

	if err := c.compileCmd(w.Body); err != nil {
		return err
	}
	c.emit(code.OpPop, w.Line())

	loopOffset := (c.code.Len() + 3) - start
	c.emitOperand(code.OpLoop, loopOffset, w.Line())

	forwardOffset := c.code.Len() - (branchPos + 3)
	c.code.PatchOperand(branchPos+1, forwardOffset)

	c.emit(code.OpPop, w.Line())
	c.emit(code.OpUnit, w.Line())
	return nil
}

// compileIf follows the lowering rule: Branch skips the then arm when
// the condition is falsey, Jump skips the else arm once the then arm
// has run. Both arms leave exactly one value on the stack.
func (c *Compiler) compileIf(i *ast.IfStmt) error {
	if err := c.compileExpr(i.Cond); err != nil {
		return err
	}
	branchPos := c.emitOperand(code.OpBranch, 0, i.Line())
	c.emit(code.OpPop, i.Line())

	if err := c.compileCmd(i.Then); err != nil {
		return err
	}
	jumpPos := c.emitOperand(code.OpJump, 0, i.Line())

	forwardOffset := c.code.Len() - (branchPos + 3)
	c.code.PatchOperand(branchPos+1, forwardOffset)

	c.emit(code.OpPop, i.Line())
	if err := c.compileCmd(i.Else); err != nil {
		return err
	}

	jumpOffset := c.code.Len() - (jumpPos + 3)
	c.code.PatchOperand(jumpPos+1, jumpOffset)
	return nil
}

func (c *Compiler) compileExpr(e ast.Expr) error {
	switch n := e.(type) {
	case *ast.Ident:
		idx := c.code.AddConstant(value.Str(n.Name))
		c.emitOperand(code.OpLoad, idx, n.Line())
		return nil
	case *ast.NumLit:
		idx := c.code.AddConstant(value.Num(n.Value))
		c.emitOperand(code.OpConst, idx, n.Line())
		return nil
	case *ast.StrLit:
		idx := c.code.AddConstant(value.Str(n.Value))
		c.emitOperand(code.OpConst, idx, n.Line())
		return nil
	case *ast.BoolLit:
		if n.Value {
			c.emit(code.OpTrue, n.Line())
		} else {
			c.emit(code.OpFalse, n.Line())
		}
		return nil
	case *ast.UnitLit:
		c.emit(code.OpUnit, n.Line())
		return nil
	case *ast.UnaryExpr:
		if err := c.compileExpr(n.Right); err != nil {
			return err
		}
		switch n.Op {
		case "-":
			c.emit(code.OpNeg, n.Line())
		case "not":
			c.emit(code.OpNot, n.Line())
		default:
			return fmt.Errorf("compiler: unknown unary operator %q", n.Op)
		}
		return nil
	case *ast.BinaryExpr:
		if err := c.compileExpr(n.Left); err != nil {
			return err
		}
		if err := c.compileExpr(n.Right); err != nil {
			return err
		}
		op, err := binaryOpcode(n.Op)
		if err != nil {
			return err
		}
		c.emit(op, n.Line())
		return nil
	case *ast.GroupExpr:
		return c.compileCmd(n.Inner)
	case *ast.BlockExpr:
		return c.compileBindings(n.Items)
	default:
		return fmt.Errorf("compiler: unknown expression %T", e)
	}
}

func binaryOpcode(op string) (code.Opcode, error) {
	switch op {
	case "+":
		return code.OpAdd, nil
	case "-":
		return code.OpSub, nil
	case "*":
		return code.OpMul, nil
	case "/":
		return code.OpDiv, nil
	case "<":
		return code.OpLt, nil
	case "==":
		return code.OpEq, nil
	default:
		return 0, fmt.Errorf("compiler: unknown binary operator %q", op)
	}
}
