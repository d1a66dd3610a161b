// Package parser implements the syntactic analyzer for the coro
// programming language.
//
// The grammar is a fixed precedence chain rather than a general Pratt
// parser, since coro has a small, closed operator set:
//
//	program  := binding*
//	binding  := def_bind | let_bind | cmd
//	def_bind := "def" IDENT IDENT* "=" cmd
//	let_bind := "let" IDENT "=" cmd
//	cmd      := print | create | resume | yield | while | if | expr
//	print    := "print" relation
//	create   := "create" IDENT
//	resume   := "resume" relation relation*
//	yield    := "yield" relation
//	while    := "while" relation "do" binding_seq "end"
//	if       := "if" relation "then" binding_seq "else" binding_seq "end"
//	relation := term (("<" | "==") term)?
//	term     := factor (("+" | "-") factor)*
//	factor   := unary (("*" | "/") unary)*
//	unary    := ("not" | "-") unary | atom
//	atom     := block | group | IDENT | NUM | STRING | "true" | "false"
//	block    := "{" binding_seq "}"
//	group    := "(" cmd ")" | "(" ")"
//
// binding_seq is one or more bindings separated by ";", with an
// optional trailing ";". Comparisons are non-associative: chaining two
// of them ("1 == 2 < 3") is a parse error, not left- or
// right-associative sugar.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yufengwng/coro/ast"
	"github.com/yufengwng/coro/lexer"
	"github.com/yufengwng/coro/token"
)

// Parser turns a token stream into an *ast.Program.
type Parser struct {
	l      *lexer.Lexer
	errors []string

	cur  token.Token
	peek token.Token
}

// New creates a Parser reading tokens from l.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	p.nextToken()
	p.nextToken()
	return p
}

// Errors returns every syntax error collected while parsing.
func (p *Parser) Errors() []string { return p.errors }

func (p *Parser) nextToken() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) curIs(t token.Type) bool  { return p.cur.Type == t }
func (p *Parser) peekIs(t token.Type) bool { return p.peek.Type == t }

func (p *Parser) expectPeek(t token.Type) bool {
	if p.peekIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) peekError(t token.Type) {
	p.errors = append(p.errors, fmt.Sprintf(
		"line %d: expected next token to be %s, got %s (%q) instead",
		p.peek.Line, t, p.peek.Type, p.peek.Literal))
}

func (p *Parser) errorf(tok token.Token, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	p.errors = append(p.errors, fmt.Sprintf("line %d: %s", tok.Line, msg))
}

func baseOf(tok token.Token) ast.Base { return ast.Base{Tok: tok} }

// Parse lexes and parses input in one call, returning the combined
// syntax errors (if any) as a single error.
func Parse(input string) (*ast.Program, error) {
	p := New(lexer.New(input))
	prog := p.ParseProgram()
	if len(p.errors) > 0 {
		return nil, fmt.Errorf("%s", strings.Join(p.errors, "\n"))
	}
	return prog, nil
}

// ParseProgram parses a full program: a sequence of top-level
// bindings running to EOF.
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}
	prog.Bindings = p.parseBindingSeq(token.EOF)
	return prog
}

// parseBindingSeq parses one or more bindings, separated by ";" with
// an optional trailing ";", stopping at (without consuming) any token
// in terminators.
func (p *Parser) parseBindingSeq(terminators ...token.Type) []ast.Binding {
	var items []ast.Binding
	for !p.atAny(terminators) && !p.curIs(token.EOF) {
		b := p.parseBinding()
		if b == nil {
			return items
		}
		items = append(items, b)
		if p.peekIs(token.Semicolon) {
			p.nextToken() // cur = ";"
			p.nextToken() // cur = first token of next binding, or a terminator
			continue
		}
		p.nextToken() // cur = whatever follows the binding, hopefully a terminator
		break
	}
	return items
}

func (p *Parser) atAny(types []token.Type) bool {
	for _, t := range types {
		if p.curIs(t) {
			return true
		}
	}
	return false
}

func (p *Parser) parseBinding() ast.Binding {
	switch p.cur.Type {
	case token.Def:
		return p.parseDefBind()
	case token.Let:
		return p.parseLetBind()
	default:
		return p.parseCmd()
	}
}

func (p *Parser) parseDefBind() ast.Binding {
	tok := p.cur
	if !p.expectPeek(token.Ident) {
		return nil
	}
	name := p.cur.Literal
	if token.IsReserved(name) {
		p.errorf(p.cur, "%q is a reserved word and cannot name a function", name)
	}

	var params []string
	for p.peekIs(token.Ident) {
		p.nextToken()
		params = append(params, p.cur.Literal)
	}

	if !p.expectPeek(token.Assign) {
		return nil
	}
	p.nextToken()

	body := p.parseCmd()
	if body == nil {
		return nil
	}
	return &ast.DefBind{baseOf(tok), name, params, body}
}

func (p *Parser) parseLetBind() ast.Binding {
	tok := p.cur
	if !p.expectPeek(token.Ident) {
		return nil
	}
	name := p.cur.Literal
	if token.IsReserved(name) {
		p.errorf(p.cur, "%q is a reserved word and cannot name a variable", name)
	}
	if !p.expectPeek(token.Assign) {
		return nil
	}
	p.nextToken()

	init := p.parseCmd()
	if init == nil {
		return nil
	}
	return &ast.LetBind{baseOf(tok), name, init}
}

func (p *Parser) parseCmd() ast.Cmd {
	switch p.cur.Type {
	case token.Print:
		return p.parsePrint()
	case token.Create:
		return p.parseCreate()
	case token.Resume:
		return p.parseResume()
	case token.Yield:
		return p.parseYield()
	case token.While:
		return p.parseWhile()
	case token.If:
		return p.parseIf()
	default:
		tok := p.cur
		x := p.parseRelation()
		if x == nil {
			return nil
		}
		return &ast.ExprStmt{baseOf(tok), x}
	}
}

func (p *Parser) parsePrint() ast.Cmd {
	tok := p.cur
	p.nextToken()
	x := p.parseRelation()
	if x == nil {
		return nil
	}
	return &ast.PrintStmt{baseOf(tok), x}
}

func (p *Parser) parseCreate() ast.Cmd {
	tok := p.cur
	if !p.expectPeek(token.Ident) {
		return nil
	}
	return &ast.CreateStmt{baseOf(tok), p.cur.Literal}
}

func (p *Parser) parseResume() ast.Cmd {
	tok := p.cur
	p.nextToken()
	target := p.parseRelation()
	if target == nil {
		return nil
	}
	var args []ast.Expr
	for p.peekStartsAtom() {
		p.nextToken()
		a := p.parseRelation()
		if a == nil {
			return nil
		}
		args = append(args, a)
	}
	return &ast.ResumeStmt{baseOf(tok), target, args}
}

// peekStartsAtom reports whether the upcoming token can begin another
// resume argument. Resume arguments are a flat, space-separated
// sequence of relation expressions with no comma between them, so the
// parser must stop consuming the moment the next token can't start
// one (e.g. a trailing ";" or "end").
func (p *Parser) peekStartsAtom() bool {
	switch p.peek.Type {
	case token.Ident, token.Num, token.String, token.True, token.False,
		token.Lparen, token.Lbrace, token.Not, token.Minus:
		return true
	default:
		return false
	}
}

func (p *Parser) parseYield() ast.Cmd {
	tok := p.cur
	p.nextToken()
	x := p.parseRelation()
	if x == nil {
		return nil
	}
	return &ast.YieldStmt{baseOf(tok), x}
}

func (p *Parser) parseWhile() ast.Cmd {
	tok := p.cur
	p.nextToken()
	cond := p.parseRelation()
	if cond == nil {
		return nil
	}
	if !p.expectPeek(token.Do) {
		return nil
	}
	p.nextToken()
	body := p.parseBlockBody(token.End)
	if !p.curIs(token.End) {
		p.errorf(p.cur, "expected 'end' to close while body, got %q", p.cur.Literal)
		return nil
	}
	return &ast.WhileStmt{baseOf(tok), cond, body}
}

func (p *Parser) parseIf() ast.Cmd {
	tok := p.cur
	p.nextToken()
	cond := p.parseRelation()
	if cond == nil {
		return nil
	}
	if !p.expectPeek(token.Then) {
		return nil
	}
	p.nextToken()
	thenBody := p.parseBlockBody(token.Else)
	if !p.curIs(token.Else) {
		p.errorf(p.cur, "expected 'else' in if, got %q", p.cur.Literal)
		return nil
	}
	p.nextToken()
	elseBody := p.parseBlockBody(token.End)
	if !p.curIs(token.End) {
		p.errorf(p.cur, "expected 'end' to close if, got %q", p.cur.Literal)
		return nil
	}
	return &ast.IfStmt{baseOf(tok), cond, thenBody, elseBody}
}

// parseBlockBody parses the binding_seq making up a while/if body and
// wraps it as a single Cmd: a lone ExprStmt/other Cmd when there is
// exactly one item, otherwise a BlockExpr wrapped in an ExprStmt so
// while/if bodies stay typed as a single ast.Cmd.
func (p *Parser) parseBlockBody(terminator token.Type) ast.Cmd {
	tok := p.cur
	items := p.parseBindingSeq(terminator)
	if len(items) == 1 {
		if c, ok := items[0].(ast.Cmd); ok {
			return c
		}
	}
	return &ast.ExprStmt{baseOf(tok), &ast.BlockExpr{baseOf(tok), items}}
}

// --- expression precedence chain ---
//
// Every parse* method below follows one convention: at entry, p.cur is
// the construct's own first unconsumed token; at return, p.cur is the
// construct's own last consumed token (never past it). Continuation is
// always decided by peeking one token ahead and, if it continues the
// construct, advancing with nextToken before recursing.

func (p *Parser) parseRelation() ast.Expr {
	left := p.parseTerm()
	if left == nil {
		return nil
	}
	if p.peekIs(token.Lt) || p.peekIs(token.Eq) {
		p.nextToken()
		tok := p.cur
		op := p.cur.Literal
		p.nextToken()
		right := p.parseTerm()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{baseOf(tok), op, left, right}
	}
	if p.peekIs(token.Lt) || p.peekIs(token.Eq) {
		p.errorf(p.peek, "comparisons do not associate: chain %q with parentheses instead", p.peek.Literal)
		return nil
	}
	return left
}

func (p *Parser) parseTerm() ast.Expr {
	left := p.parseFactor()
	if left == nil {
		return nil
	}
	for p.peekIs(token.Plus) || p.peekIs(token.Minus) {
		p.nextToken()
		tok := p.cur
		op := p.cur.Literal
		p.nextToken()
		right := p.parseFactor()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{baseOf(tok), op, left, right}
	}
	return left
}

func (p *Parser) parseFactor() ast.Expr {
	left := p.parseUnary()
	if left == nil {
		return nil
	}
	for p.peekIs(token.Asterisk) || p.peekIs(token.Slash) {
		p.nextToken()
		tok := p.cur
		op := p.cur.Literal
		p.nextToken()
		right := p.parseUnary()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{baseOf(tok), op, left, right}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expr {
	if p.curIs(token.Not) || p.curIs(token.Minus) {
		tok := p.cur
		op := p.cur.Literal
		p.nextToken()
		right := p.parseUnary()
		if right == nil {
			return nil
		}
		return &ast.UnaryExpr{baseOf(tok), op, right}
	}
	return p.parseAtom()
}

func (p *Parser) parseAtom() ast.Expr {
	tok := p.cur
	switch p.cur.Type {
	case token.Ident:
		return &ast.Ident{baseOf(tok), tok.Literal}
	case token.Num:
		v, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			p.errorf(tok, "invalid number literal %q", tok.Literal)
			return nil
		}
		return &ast.NumLit{baseOf(tok), v}
	case token.String:
		return &ast.StrLit{baseOf(tok), tok.Literal}
	case token.True:
		return &ast.BoolLit{baseOf(tok), true}
	case token.False:
		return &ast.BoolLit{baseOf(tok), false}
	case token.Lbrace:
		return p.parseBlockExpr()
	case token.Lparen:
		return p.parseGroupOrUnit()
	default:
		p.errorf(tok, "unexpected token %q in expression", tok.Literal)
		return nil
	}
}

func (p *Parser) parseBlockExpr() ast.Expr {
	tok := p.cur
	p.nextToken()
	items := p.parseBindingSeq(token.Rbrace)
	if !p.curIs(token.Rbrace) {
		p.errorf(p.cur, "expected '}' to close block, got %q", p.cur.Literal)
		return nil
	}
	return &ast.BlockExpr{baseOf(tok), items}
}

func (p *Parser) parseGroupOrUnit() ast.Expr {
	tok := p.cur
	if p.peekIs(token.Rparen) {
		p.nextToken()
		return &ast.UnitLit{baseOf(tok)}
	}
	p.nextToken()
	inner := p.parseCmd()
	if inner == nil {
		return nil
	}
	if !p.expectPeek(token.Rparen) {
		return nil
	}
	return &ast.GroupExpr{baseOf(tok), inner}
}
