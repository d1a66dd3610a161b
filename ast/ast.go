// Package ast defines the abstract syntax tree for the coro
// programming language.
//
// A program is a sequence of bindings. A binding is either a function
// definition, a let binding, or a bare command. A command is either one
// of the coroutine/control forms (print, create, resume, yield, while,
// if) or a wrapped expression. An expression is the arithmetic and
// comparison grammar rooted at relation, down through term, factor,
// unary, and atom.
//
// The three layers (Binding, Cmd, Expr) mirror the grammar precisely so
// the compiler package can lower each one with a single type switch per
// layer, the same shape the language's grammar itself uses.
package ast

import (
	"strings"

	"github.com/yufengwng/coro/token"
)

// Node is the base interface every AST node implements.
type Node interface {
	// TokenLiteral returns the literal of the token that starts this
	// node, used in parse-error messages.
	TokenLiteral() string

	// String renders the node back to (approximately) its source form,
	// used for debugging and test failure messages.
	String() string

	// Line returns the 1-based source line this node begins on.
	Line() int
}

// Binding is a single top-level or block-level item: a def, a let, or
// a bare command.
type Binding interface {
	Node
	bindingNode()
}

// Cmd is a single command: one of the coroutine/control forms, or an
// expression statement.
type Cmd interface {
	Binding
	cmdNode()
}

// Expr is an expression that produces a value.
type Expr interface {
	Node
	exprNode()
}

type Base struct {
	Tok token.Token
}

func (b Base) TokenLiteral() string { return b.Tok.Literal }
func (b Base) Line() int            { return b.Tok.Line }

// Program is the root node: a sequence of top-level bindings.
type Program struct {
	Bindings []Binding
}

func (p *Program) TokenLiteral() string {
	if len(p.Bindings) > 0 {
		return p.Bindings[0].TokenLiteral()
	}
	return ""
}

func (p *Program) Line() int {
	if len(p.Bindings) > 0 {
		return p.Bindings[0].Line()
	}
	return 0
}

func (p *Program) String() string {
	var sb strings.Builder
	for _, b := range p.Bindings {
		sb.WriteString(b.String())
		sb.WriteString(";\n")
	}
	return sb.String()
}

// DefBind is `def NAME PARAM* = BODY`, declaring a named, reusable
// function definition. Creating a coroutine from it happens separately
// via CreateStmt.
type DefBind struct {
	Base
	Name   string
	Params []string
	Body   Cmd
}

func (d *DefBind) bindingNode() {}
func (d *DefBind) String() string {
	var sb strings.Builder
	sb.WriteString("def ")
	sb.WriteString(d.Name)
	for _, p := range d.Params {
		sb.WriteString(" ")
		sb.WriteString(p)
	}
	sb.WriteString(" = ")
	sb.WriteString(d.Body.String())
	return sb.String()
}

// LetBind is `let NAME = INIT`, binding a name to the value produced
// by a command.
type LetBind struct {
	Base
	Name string
	Init Cmd
}

func (l *LetBind) bindingNode() {}
func (l *LetBind) String() string {
	return "let " + l.Name + " = " + l.Init.String()
}

// ExprStmt wraps a bare expression used as a command.
type ExprStmt struct {
	Base
	X Expr
}

func (e *ExprStmt) bindingNode() {}
func (e *ExprStmt) cmdNode()     {}
func (e *ExprStmt) String() string { return e.X.String() }

// PrintStmt is `print EXPR`.
type PrintStmt struct {
	Base
	X Expr
}

func (p *PrintStmt) bindingNode() {}
func (p *PrintStmt) cmdNode()     {}
func (p *PrintStmt) String() string { return "print " + p.X.String() }

// CreateStmt is `create NAME`, instantiating a fresh, Suspended
// coroutine from a previously defined function.
type CreateStmt struct {
	Base
	Name string
}

func (c *CreateStmt) bindingNode() {}
func (c *CreateStmt) cmdNode()     {}
func (c *CreateStmt) String() string { return "create " + c.Name }

// ResumeStmt is `resume TARGET ARG*`, where arguments are a
// space-separated sequence of expressions (no comma separators).
type ResumeStmt struct {
	Base
	Target Expr
	Args   []Expr
}

func (r *ResumeStmt) bindingNode() {}
func (r *ResumeStmt) cmdNode()     {}
func (r *ResumeStmt) String() string {
	var sb strings.Builder
	sb.WriteString("resume ")
	sb.WriteString(r.Target.String())
	for _, a := range r.Args {
		sb.WriteString(" ")
		sb.WriteString(a.String())
	}
	return sb.String()
}

// YieldStmt is `yield EXPR`, suspending the enclosing coroutine.
type YieldStmt struct {
	Base
	X Expr
}

func (y *YieldStmt) bindingNode() {}
func (y *YieldStmt) cmdNode()     {}
func (y *YieldStmt) String() string { return "yield " + y.X.String() }

// WhileStmt is `while COND do BODY end`.
type WhileStmt struct {
	Base
	Cond Expr
	Body Cmd
}

func (w *WhileStmt) bindingNode() {}
func (w *WhileStmt) cmdNode()     {}
func (w *WhileStmt) String() string {
	return "while " + w.Cond.String() + " do " + w.Body.String() + " end"
}

// IfStmt is `if COND then THEN else ELSE end`.
type IfStmt struct {
	Base
	Cond Expr
	Then Cmd
	Else Cmd
}

func (i *IfStmt) bindingNode() {}
func (i *IfStmt) cmdNode()     {}
func (i *IfStmt) String() string {
	return "if " + i.Cond.String() + " then " + i.Then.String() + " else " + i.Else.String() + " end"
}

// Ident is a bare identifier reference.
type Ident struct {
	Base
	Name string
}

func (i *Ident) exprNode()     {}
func (i *Ident) String() string { return i.Name }

// NumLit is a numeric literal.
type NumLit struct {
	Base
	Value float64
}

func (n *NumLit) exprNode()     {}
func (n *NumLit) String() string { return n.Tok.Literal }

// StrLit is a string literal.
type StrLit struct {
	Base
	Value string
}

func (s *StrLit) exprNode()     {}
func (s *StrLit) String() string { return `"` + s.Value + `"` }

// BoolLit is `true` or `false`.
type BoolLit struct {
	Base
	Value bool
}

func (b *BoolLit) exprNode()     {}
func (b *BoolLit) String() string { return b.Tok.Literal }

// UnitLit is the unit literal `()`.
type UnitLit struct {
	Base
}

func (u *UnitLit) exprNode()     {}
func (u *UnitLit) String() string { return "()" }

// UnaryExpr is a prefix operator applied to a single operand: `not X`
// or `-X`.
type UnaryExpr struct {
	Base
	Op    string
	Right Expr
}

func (u *UnaryExpr) exprNode()     {}
func (u *UnaryExpr) String() string { return "(" + u.Op + u.Right.String() + ")" }

// BinaryExpr is an infix operator applied to two operands: `+ - * /`
// at the term/factor level, `< ==` at the non-associative relation
// level.
type BinaryExpr struct {
	Base
	Op    string
	Left  Expr
	Right Expr
}

func (b *BinaryExpr) exprNode() {}
func (b *BinaryExpr) String() string {
	return "(" + b.Left.String() + " " + b.Op + " " + b.Right.String() + ")"
}

// GroupExpr is a parenthesized command, `( CMD )`. Its value is
// whatever the wrapped command produces.
type GroupExpr struct {
	Base
	Inner Cmd
}

func (g *GroupExpr) exprNode()     {}
func (g *GroupExpr) String() string { return "(" + g.Inner.String() + ")" }

// BlockExpr is a brace-delimited sequence of bindings, `{ B1; B2; ... }`.
// Its value is whatever its last binding produces; every earlier one is
// evaluated and discarded.
type BlockExpr struct {
	Base
	Items []Binding
}

func (b *BlockExpr) exprNode() {}
func (b *BlockExpr) String() string {
	var sb strings.Builder
	sb.WriteString("{ ")
	for i, item := range b.Items {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(item.String())
	}
	sb.WriteString(" }")
	return sb.String()
}
