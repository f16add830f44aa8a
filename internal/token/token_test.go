package token_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nyxlang/nyxc/internal/token"
)

func TestLookupIdentClassifiesKeywords(t *testing.T) {
	assert.Equal(t, token.FUNCTION, token.LookupIdent("function"))
	assert.Equal(t, token.VAL, token.LookupIdent("val"))
	assert.Equal(t, token.IDENT, token.LookupIdent("notAKeyword"))
}

func TestTokenFlagsAreIndependent(t *testing.T) {
	pos := token.Position{File: "t.nyx", Line: 1, Column: 1}
	tok := token.New(token.IDENT, "x", pos, pos)
	assert.True(t, tok.IsValid())
	assert.False(t, tok.IsArtificial())
	assert.False(t, tok.IsEndOfLine())

	tok = tok.WithEndOfLine()
	assert.True(t, tok.IsEndOfLine())
	assert.True(t, tok.IsValid(), "WithEndOfLine must not clear other flags")
}

func TestArtificialTokenCarriesNoSourceRangeFlag(t *testing.T) {
	pos := token.Position{File: "t.nyx", Line: 1, Column: 1}
	tok := token.Artificial(token.ASSIGN, "=", pos)
	assert.True(t, tok.IsArtificial())
	assert.False(t, tok.IsValid())
}

func TestInvalidTokenCarriesReason(t *testing.T) {
	pos := token.Position{File: "t.nyx", Line: 1, Column: 1}
	tok := token.Invalid(token.STRING, "bad", pos, pos, "unterminated string literal")
	assert.False(t, tok.IsValid())
	assert.Equal(t, "unterminated string literal", tok.Invalid)
}

func TestPositionStringFormat(t *testing.T) {
	pos := token.Position{File: "t.nyx", Line: 3, Column: 7}
	assert.Equal(t, "t.nyx:3:7", pos.String())
}

func TestKindStringFallsBackForUnknownKind(t *testing.T) {
	assert.Equal(t, "Kind(9999)", token.Kind(9999).String())
}
