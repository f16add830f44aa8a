package parser

import "github.com/nyxlang/nyxc/internal/ast"
import "github.com/nyxlang/nyxc/internal/token"

// parseTypeExpr parses the syntactic form of a type (spec §3 "type
// expressions"), one recursive-descent rule per internal/ast's
// TypeExpr variants.
func (p *Parser) parseTypeExpr() ast.TypeExpr {
	t := p.parseTypeAtom()
	for p.at(token.PIPE) {
		tok := p.advance()
		members := []ast.TypeExpr{t, p.parseTypeAtom()}
		for p.at(token.PIPE) {
			p.advance()
			members = append(members, p.parseTypeAtom())
		}
		t = &ast.VariantTypeExpr{Token: tok, Members: members}
	}
	return t
}

func (p *Parser) parseTypeAtom() ast.TypeExpr {
	switch p.cur().Kind {
	case token.STAR:
		tok := p.advance()
		return &ast.PointerTypeExpr{Token: tok, Elem: p.parseTypeAtom()}
	case token.LBRACKET:
		tok := p.advance()
		if _, ok := p.accept(token.RBRACKET); ok {
			return &ast.SliceTypeExpr{Token: tok, Elem: p.parseTypeAtom()}
		}
		size := p.parseExpression(0)
		p.expect(token.RBRACKET)
		return &ast.ArrayTypeExpr{Token: tok, Size: size, Elem: p.parseTypeAtom()}
	case token.RANGE:
		tok := p.advance()
		base := p.parseTypeAtom()
		// The bound pair `1..=10` parses as one RangeExpression via the
		// expression grammar's postfix `..`/`..=`; unpack it here.
		bounds := p.parseExpression(0)
		if r, ok := bounds.(*ast.RangeExpression); ok {
			return &ast.RangeTypeExpr{Token: tok, Base: base, Start: r.Start, End: r.End, Inclusive: r.Inclusive}
		}
		p.errorf("expected range bounds after the base type")
		return &ast.RangeTypeExpr{Token: tok, Base: base, Start: bounds, End: bounds}
	case token.LPAREN:
		return p.parseTupleOrFunctionTypeExpr()
	case token.IDENT:
		tok := p.advance()
		if _, ok := p.accept(token.LBRACKET); ok {
			var args []ast.TypeExpr
			for !p.at(token.RBRACKET) && !p.at(token.EOF) {
				args = append(args, p.parseTypeExpr())
				if _, ok := p.accept(token.COMMA); !ok {
					break
				}
			}
			p.expect(token.RBRACKET)
			return &ast.GenericInstanceTypeExpr{Token: tok, Name: tok.Lexeme, Args: args}
		}
		return &ast.NamedTypeExpr{Token: tok, Name: tok.Lexeme}
	default:
		tok := p.advance()
		p.errorf("unexpected token %s %q in type expression", tok.Kind, tok.Lexeme)
		return &ast.NamedTypeExpr{Token: tok, Name: tok.Lexeme}
	}
}

// parseTupleOrFunctionTypeExpr disambiguates `(T0, T1)` (a tuple type)
// from `(T0, T1) -> R` (a function type) by looking for a trailing
// ARROW once the parenthesised element list closes.
func (p *Parser) parseTupleOrFunctionTypeExpr() ast.TypeExpr {
	tok := p.expect(token.LPAREN)
	var elems []ast.TypeExpr
	variadic := false
	for !p.at(token.RPAREN) && !p.at(token.EOF) {
		if _, ok := p.accept(token.DOTDOT); ok {
			variadic = true
		}
		elems = append(elems, p.parseTypeExpr())
		if _, ok := p.accept(token.COMMA); !ok {
			break
		}
	}
	p.expect(token.RPAREN)
	if _, ok := p.accept(token.ARROW); ok {
		result := p.parseTypeExpr()
		return &ast.FunctionTypeExpr{Token: tok, Params: elems, Result: result, IsVariadic: variadic}
	}
	if len(elems) == 1 && !variadic {
		return elems[0]
	}
	return &ast.TupleTypeExpr{Token: tok, Elements: elems}
}
