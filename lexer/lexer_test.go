package lexer

import (
	"testing"

	"github.com/yufengwng/coro/token"
)

// TestNextToken tests the functionality of the NextToken method in the Lexer to ensure all tokens are correctly identified.
func TestNextToken(t *testing.T) {
	input := `def gen i =
  let x = i < 3;
  while x do
    yield i; # advance
    let i = i + 1
  end
;
let co = create gen 0;
print resume co;
if true then print "hi" else print () end
{ let y = 1; y }
`
	tests := []struct {
		expectedType    token.Type
		expectedLiteral string
	}{
		{token.Def, "def"},
		{token.Ident, "gen"},
		{token.Ident, "i"},
		{token.Assign, "="},
		{token.Let, "let"},
		{token.Ident, "x"},
		{token.Assign, "="},
		{token.Ident, "i"},
		{token.Lt, "<"},
		{token.Num, "3"},
		{token.Semicolon, ";"},
		{token.While, "while"},
		{token.Ident, "x"},
		{token.Do, "do"},
		{token.Yield, "yield"},
		{token.Ident, "i"},
		{token.Semicolon, ";"},
		{token.Let, "let"},
		{token.Ident, "i"},
		{token.Assign, "="},
		{token.Ident, "i"},
		{token.Plus, "+"},
		{token.Num, "1"},
		{token.End, "end"},
		{token.Semicolon, ";"},
		{token.Let, "let"},
		{token.Ident, "co"},
		{token.Assign, "="},
		{token.Create, "create"},
		{token.Ident, "gen"},
		{token.Num, "0"},
		{token.Semicolon, ";"},
		{token.Print, "print"},
		{token.Resume, "resume"},
		{token.Ident, "co"},
		{token.Semicolon, ";"},
		{token.If, "if"},
		{token.True, "true"},
		{token.Then, "then"},
		{token.Print, "print"},
		{token.String, "hi"},
		{token.Else, "else"},
		{token.Print, "print"},
		{token.Lparen, "("},
		{token.Rparen, ")"},
		{token.End, "end"},
		{token.Lbrace, "{"},
		{token.Let, "let"},
		{token.Ident, "y"},
		{token.Assign, "="},
		{token.Num, "1"},
		{token.Semicolon, ";"},
		{token.Ident, "y"},
		{token.Rbrace, "}"},
		{token.EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q (literal %q)", i, tt.expectedType, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q", i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestNextTokenReservedWordsNeverBecomeIdent(t *testing.T) {
	input := "def let print create resume yield while do if then else end not true false"
	l := New(input)
	for {
		tok := l.NextToken()
		if tok.Type == token.EOF {
			break
		}
		if tok.Type == token.Ident {
			t.Fatalf("reserved word %q lexed as IDENT", tok.Literal)
		}
	}
}

func TestNextTokenLineNumbers(t *testing.T) {
	input := "let x = 1;\nlet y = 2;\n"
	l := New(input)

	tok := l.NextToken() // let
	if tok.Line != 1 {
		t.Fatalf("expected line 1, got %d", tok.Line)
	}
	for tok.Literal != "2" {
		tok = l.NextToken()
	}
	if tok.Line != 2 {
		t.Fatalf("expected line 2, got %d", tok.Line)
	}
}
