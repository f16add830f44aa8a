package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyxlang/nyxc/internal/lexer"
	"github.com/nyxlang/nyxc/internal/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestLexerScansKeywordsAndIdentifiers(t *testing.T) {
	toks := lexer.New("t.nyx", "function val myVar").Tokens()
	require.Len(t, toks, 4) // 3 tokens + EOF
	assert.Equal(t, []token.Kind{token.FUNCTION, token.VAL, token.IDENT, token.EOF}, kinds(toks))
	assert.Equal(t, "myVar", toks[2].Lexeme)
}

func TestLexerScansIntAndFloatLiterals(t *testing.T) {
	toks := lexer.New("t.nyx", "42 3.14 0xFF 1_000").Tokens()
	require.Len(t, toks, 5)
	assert.Equal(t, token.INT, toks[0].Kind)
	assert.Equal(t, "42", toks[0].Lexeme)
	assert.Equal(t, token.FLOAT, toks[1].Kind)
	assert.Equal(t, "3.14", toks[1].Lexeme)
	assert.Equal(t, token.INT, toks[2].Kind)
	assert.Equal(t, "0xFF", toks[2].Lexeme)
	assert.Equal(t, token.INT, toks[3].Kind)
	assert.Equal(t, "1_000", toks[3].Lexeme)
}

func TestLexerScansStringLiteral(t *testing.T) {
	toks := lexer.New("t.nyx", `"hello \"world\""`).Tokens()
	require.Len(t, toks, 2)
	assert.Equal(t, token.STRING, toks[0].Kind)
	assert.True(t, toks[0].IsValid())
}

func TestLexerReportsUnterminatedString(t *testing.T) {
	toks := lexer.New("t.nyx", `"hello`).Tokens()
	require.Len(t, toks, 2)
	assert.False(t, toks[0].IsValid())
	assert.NotEmpty(t, toks[0].Invalid)
}

func TestLexerScansMultiCharOperators(t *testing.T) {
	toks := lexer.New("t.nyx", "-> => == != <= >= .. ..= :- && ||").Tokens()
	want := []token.Kind{
		token.ARROW, token.FATARROW, token.EQ, token.NEQ, token.LTE, token.GTE,
		token.DOTDOT, token.DOTDOTEQ, token.DECLASSIGN, token.AND, token.OR, token.EOF,
	}
	require.Equal(t, want, kinds(toks))
}

func TestLexerSkipsLineAndBlockComments(t *testing.T) {
	toks := lexer.New("t.nyx", "val // trailing comment\nvar /* block */ x").Tokens()
	want := []token.Kind{token.VAL, token.NEWLINE, token.VAR, token.IDENT, token.EOF}
	assert.Equal(t, want, kinds(toks))
}

func TestLexerEmitsIllegalTokenForUnrecognisedCharacter(t *testing.T) {
	toks := lexer.New("t.nyx", "$").Tokens()
	require.Len(t, toks, 2)
	assert.Equal(t, token.ILLEGAL, toks[0].Kind)
	assert.False(t, toks[0].IsValid())
}

func TestLexerTracksLineAndColumn(t *testing.T) {
	toks := lexer.New("t.nyx", "val\nvar").Tokens()
	require.Len(t, toks, 4)
	assert.Equal(t, 1, toks[0].Pos.Line)
	assert.Equal(t, 2, toks[2].Pos.Line)
}
