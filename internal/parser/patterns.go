package parser

import (
	"unicode"

	"github.com/nyxlang/nyxc/internal/ast"
	"github.com/nyxlang/nyxc/internal/token"
)

// parsePattern parses the pattern grammar of spec §4.3: an Or pattern
// is the widest form, built from atoms joined by `|`.
func (p *Parser) parsePattern() ast.Pattern {
	first := p.parsePatternAtom()
	if !p.at(token.PIPE) {
		return first
	}
	alts := []ast.Pattern{first}
	for p.at(token.PIPE) {
		p.advance()
		alts = append(alts, p.parsePatternAtom())
	}
	return &ast.OrPattern{Token: first.GetToken(), Alternatives: alts}
}

func isUpperLeading(name string) bool {
	for _, r := range name {
		return unicode.IsUpper(r)
	}
	return false
}

func (p *Parser) parsePatternAtom() ast.Pattern {
	switch p.cur().Kind {
	case token.WILDCARD:
		return &ast.WildcardPattern{Token: p.advance()}
	case token.INT, token.FLOAT, token.RATIONAL, token.IMAGINARY, token.CHAR, token.STRING:
		return p.parseLiteralOrRangePattern()
	case token.MINUS:
		// a leading `-` on a numeric literal pattern, e.g. `-1..5`.
		return p.parseLiteralOrRangePattern()
	case token.LPAREN:
		return p.parseTuplePattern()
	case token.LBRACKET:
		return p.parseArrayPattern()
	case token.IDENT:
		return p.parseIdentLedPattern()
	default:
		tok := p.advance()
		p.errorf("unexpected token %s %q in pattern", tok.Kind, tok.Lexeme)
		return &ast.WildcardPattern{Token: tok}
	}
}

// litExpr wraps a (possibly negated) literal as the Expression payload
// a RangePattern's Start/End expects.
func (p *Parser) litExpr() ast.Expression {
	if _, ok := p.accept(token.MINUS); ok {
		t := p.advance()
		return &ast.UnaryExpression{Token: t, Op: token.MINUS, Operand: &ast.Literal{Token: t, Kind: literalKindFor(t.Kind), Raw: t.Lexeme}}
	}
	t := p.advance()
	return &ast.Literal{Token: t, Kind: literalKindFor(t.Kind), Raw: t.Lexeme}
}

func literalKindFor(k token.Kind) ast.LiteralKind {
	switch k {
	case token.FLOAT:
		return ast.LitFloat
	case token.RATIONAL:
		return ast.LitRational
	case token.IMAGINARY:
		return ast.LitImaginary
	case token.CHAR:
		return ast.LitChar
	case token.STRING:
		return ast.LitString
	default:
		return ast.LitInt
	}
}

func (p *Parser) parseLiteralOrRangePattern() ast.Pattern {
	tok := p.cur()
	start := p.litExpr()
	if p.at(token.DOTDOT) || p.at(token.DOTDOTEQ) {
		inclusive := p.at(token.DOTDOTEQ)
		p.advance()
		end := p.litExpr()
		return &ast.RangePattern{Token: tok, Start: start, End: end, Inclusive: inclusive}
	}
	if lit, ok := start.(*ast.Literal); ok {
		return &ast.LiteralPattern{Token: tok, Value: lit}
	}
	// a negated literal with no range: wrap it back into a LiteralPattern
	// by folding the sign into Raw, since LiteralPattern only carries a
	// bare *Literal.
	unary := start.(*ast.UnaryExpression)
	inner := unary.Operand.(*ast.Literal)
	return &ast.LiteralPattern{Token: tok, Value: &ast.Literal{Token: inner.Token, Kind: inner.Kind, Raw: "-" + inner.Raw}}
}

func (p *Parser) parseTuplePattern() ast.Pattern {
	tok := p.expect(token.LPAREN)
	pat := &ast.TuplePattern{Token: tok}
	for !p.at(token.RPAREN) && !p.at(token.EOF) {
		pat.Elements = append(pat.Elements, p.parsePattern())
		if _, ok := p.accept(token.COMMA); !ok {
			break
		}
	}
	p.expect(token.RPAREN)
	return pat
}

func (p *Parser) parseArrayPattern() ast.Pattern {
	tok := p.expect(token.LBRACKET)
	pat := &ast.ArrayPattern{Token: tok}
	for !p.at(token.RBRACKET) && !p.at(token.EOF) {
		pat.Elements = append(pat.Elements, p.parsePattern())
		if _, ok := p.accept(token.COMMA); !ok {
			break
		}
	}
	p.expect(token.RBRACKET)
	return pat
}

// parseIdentLedPattern disambiguates the four pattern forms that begin
// with a bare identifier: a plain binding, a record pattern `T{...}`, a
// variant-tagged sub-pattern `T(sub)`, and a constant path `A.B`. A
// lower-case leading letter is treated as a fresh binding (spec §4.3
// table "Identifier (non-constant)"); an upper-case one names a type or
// constant, per the pack's convention of capitalised nominal types.
func (p *Parser) parseIdentLedPattern() ast.Pattern {
	tok := p.advance()
	name := tok.Lexeme
	for p.at(token.DOT) {
		p.advance()
		seg := p.expect(token.IDENT)
		name += "." + seg.Lexeme
	}
	switch {
	case p.at(token.LBRACE):
		return p.parseRecordPattern(tok, name)
	case p.at(token.LPAREN) && isUpperLeading(name):
		p.advance()
		var sub ast.Pattern
		if !p.at(token.RPAREN) {
			sub = p.parsePattern()
		}
		p.expect(token.RPAREN)
		return &ast.VariantPattern{Token: tok, Member: &ast.NamedTypeExpr{Token: tok, Name: name}, Sub: sub}
	case isUpperLeading(name):
		return &ast.ConstantPathPattern{Token: tok, Path: &ast.Identifier{Token: tok, Value: name}}
	default:
		return &ast.IdentifierPattern{Token: tok, Name: name}
	}
}

func (p *Parser) parseRecordPattern(tok token.Token, typeName string) ast.Pattern {
	p.expect(token.LBRACE)
	pat := &ast.RecordPattern{Token: tok, Type: &ast.Identifier{Token: tok, Value: typeName}}
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		if _, ok := p.accept(token.WILDCARD); ok {
			// trailing `_` covers remaining fields (spec §4.3 Tie-breaks);
			// record it as a nameless field pattern the matcher treats as
			// "stop checking further positions".
			pat.Fields = append(pat.Fields, ast.RecordFieldPattern{Name: nil, Pattern: &ast.WildcardPattern{Token: p.toks[p.pos-1]}})
			break
		}
		fname := p.parseIdentifier()
		var fpat ast.Pattern
		if _, ok := p.accept(token.COLON); ok {
			fpat = p.parsePattern()
		} else {
			fpat = &ast.IdentifierPattern{Token: fname.Token, Name: fname.Value}
		}
		pat.Fields = append(pat.Fields, ast.RecordFieldPattern{Name: fname, Pattern: fpat})
		if _, ok := p.accept(token.COMMA); !ok {
			break
		}
	}
	p.expect(token.RBRACE)
	return pat
}
