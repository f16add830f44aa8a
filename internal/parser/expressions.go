package parser

import (
	"github.com/nyxlang/nyxc/internal/ast"
	"github.com/nyxlang/nyxc/internal/token"
)

var binaryPrecedence = map[token.Kind]int{
	token.OR:      1,
	token.AND:     2,
	token.EQ:      3,
	token.NEQ:     3,
	token.LT:      4,
	token.LTE:     4,
	token.GT:      4,
	token.GTE:     4,
	token.AMP:     5,
	token.PIPE:    5,
	token.CARET:   5,
	token.LSHIFT:  6,
	token.RSHIFT:  6,
	token.PLUS:    7,
	token.MINUS:   7,
	token.STAR:    8,
	token.SLASH:   8,
	token.PERCENT: 8,
}

// parseExpression implements precedence-climbing binary parsing over
// parsePostfix's unary/primary/suffix result.
func (p *Parser) parseExpression(minPrec int) ast.Expression {
	left := p.parseUnary()
	for {
		prec, ok := binaryPrecedence[p.cur().Kind]
		if !ok || prec < minPrec {
			return left
		}
		op := p.advance()
		right := p.parseExpression(prec + 1)
		left = &ast.BinaryExpression{Token: op, Op: op.Kind, Left: left, Right: right}
	}
}

func (p *Parser) parseUnary() ast.Expression {
	switch p.cur().Kind {
	case token.MINUS, token.NOT, token.AMP, token.STAR, token.TILDE:
		op := p.advance()
		operand := p.parseUnary()
		return &ast.UnaryExpression{Token: op, Op: op.Kind, Operand: operand}
	default:
		return p.parsePostfix(p.parsePrimary())
	}
}

func (p *Parser) parsePostfix(e ast.Expression) ast.Expression {
	for {
		switch p.cur().Kind {
		case token.LPAREN:
			e = p.parseCallSuffix(e)
		case token.LBRACKET:
			if id, ok := e.(*ast.Identifier); ok && p.genericArgsAhead() {
				e = p.parseGenericCall(id)
				continue
			}
			tok := p.advance()
			idx := p.parseExpression(0)
			p.expect(token.RBRACKET)
			e = &ast.IndexExpression{Token: tok, Receiver: e, Index: idx}
		case token.DOT:
			tok := p.advance()
			field := p.parseIdentifier()
			e = &ast.FieldExpression{Token: tok, Receiver: e, Field: field}
		case token.AS:
			tok := p.advance()
			target := p.parseTypeExpr()
			e = &ast.AsExpression{Token: tok, Value: e, Target: target}
		case token.COLON:
			// Postfix type ascription sugar at call-argument/literal sites,
			// e.g. `id(3:i32)` from the generic-instantiation scenario;
			// lowered the same way as an explicit `as` conversion.
			if !p.ascriptionAllowed() {
				return e
			}
			tok := p.advance()
			target := p.parseTypeExpr()
			e = &ast.AsExpression{Token: tok, Value: e, Target: target}
		case token.DOTDOT, token.DOTDOTEQ:
			inclusive := p.at(token.DOTDOTEQ)
			tok := p.advance()
			end := p.parseUnary()
			e = &ast.RangeExpression{Token: tok, Start: e, End: end, Inclusive: inclusive}
		default:
			return e
		}
	}
}

// genericArgsAhead distinguishes `id[i32](3)` (an explicit-generic call)
// from `arr[i]` (indexing) by scanning to the bracket's matching close:
// a `(` immediately after it means the bracket list was generic
// arguments, since an indexed element is never called with its own
// bracket suffix in this grammar.
func (p *Parser) genericArgsAhead() bool {
	depth := 0
	for i := p.pos; i < len(p.toks); i++ {
		switch p.toks[i].Kind {
		case token.LBRACKET:
			depth++
		case token.RBRACKET:
			depth--
			if depth == 0 {
				return i+1 < len(p.toks) && p.toks[i+1].Kind == token.LPAREN
			}
		case token.EOF, token.LBRACE, token.SEMICOLON:
			return false
		}
	}
	return false
}

// parseGenericCall parses `callee[T0, T1](args...)`, attaching the
// explicit generic arguments to the call node (spec §4.4 rule 3,
// scenario S5's `id(3:i32)` sibling form).
func (p *Parser) parseGenericCall(callee *ast.Identifier) ast.Expression {
	p.expect(token.LBRACKET)
	var gens []ast.TypeExpr
	for !p.at(token.RBRACKET) && !p.at(token.EOF) {
		gens = append(gens, p.parseTypeExpr())
		if _, ok := p.accept(token.COMMA); !ok {
			break
		}
	}
	p.expect(token.RBRACKET)
	call := p.parseCallSuffix(callee)
	if c, ok := call.(*ast.CallExpression); ok {
		c.Generics = gens
	}
	return call
}

// ascriptionAllowed restricts the `expr : Type` ascription sugar to
// argument lists, where a following RPAREN or COMMA disambiguates it
// from a statement-level `x : T` (which parseVarDecl/parseConstDecl
// already own via their own COLON handling).
func (p *Parser) ascriptionAllowed() bool { return p.inCallArgs > 0 }

func (p *Parser) parseCallSuffix(callee ast.Expression) ast.Expression {
	tok := p.expect(token.LPAREN)
	p.inCallArgs++
	var args []ast.Expression
	for !p.at(token.RPAREN) && !p.at(token.EOF) {
		args = append(args, p.parseExpression(0))
		if _, ok := p.accept(token.COMMA); !ok {
			break
		}
	}
	p.inCallArgs--
	p.expect(token.RPAREN)
	return &ast.CallExpression{Token: tok, Callee: callee, Args: args}
}

func (p *Parser) parsePrimary() ast.Expression {
	switch p.cur().Kind {
	case token.INT:
		t := p.advance()
		return &ast.Literal{Token: t, Kind: ast.LitInt, Raw: t.Lexeme}
	case token.FLOAT:
		t := p.advance()
		return &ast.Literal{Token: t, Kind: ast.LitFloat, Raw: t.Lexeme}
	case token.RATIONAL:
		t := p.advance()
		return &ast.Literal{Token: t, Kind: ast.LitRational, Raw: t.Lexeme}
	case token.IMAGINARY:
		t := p.advance()
		return &ast.Literal{Token: t, Kind: ast.LitImaginary, Raw: t.Lexeme}
	case token.CHAR:
		t := p.advance()
		return &ast.Literal{Token: t, Kind: ast.LitChar, Raw: t.Lexeme}
	case token.STRING:
		t := p.advance()
		return &ast.Literal{Token: t, Kind: ast.LitString, Raw: t.Lexeme}
	case token.IDENT:
		id := p.parseIdentifier()
		if p.at(token.LBRACE) && p.recordLiteralAllowed() {
			return p.parseRecordLiteral(id)
		}
		return id
	case token.LBRACE:
		return p.parseRecordLiteral(nil)
	case token.LPAREN:
		return p.parseParenOrTuple()
	case token.LBRACKET:
		return p.parseArrayLiteral()
	case token.PIPE:
		return p.parseLambda()
	case token.WHEN:
		return p.parseWhenExpression()
	default:
		t := p.advance()
		p.errorf("unexpected token %s %q in expression", t.Kind, t.Lexeme)
		return &ast.Literal{Token: t, Kind: ast.LitUnit, Raw: ""}
	}
}

// recordLiteralAllowed disambiguates `Name{` as a record literal from
// a following block (e.g. the condition of an `if`, which is parsed
// via parseExpression followed immediately by parseBlock). Callers
// that need the ambiguous form parenthesise the condition.
func (p *Parser) recordLiteralAllowed() bool { return !p.suppressRecordLiteral }

func (p *Parser) parseRecordLiteral(typeName *ast.Identifier) ast.Expression {
	tok := p.expect(token.LBRACE)
	var typeExpr ast.TypeExpr
	if typeName != nil {
		typeExpr = &ast.NamedTypeExpr{Token: typeName.Token, Name: typeName.Value}
	}
	e := &ast.RecordExpression{Token: tok, Type: typeExpr}
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		name := p.parseIdentifier()
		p.expect(token.COLON)
		val := p.parseExpression(0)
		e.Fields = append(e.Fields, ast.RecordField{Name: name, Value: val})
		if _, ok := p.accept(token.COMMA); !ok {
			break
		}
	}
	p.expect(token.RBRACE)
	return e
}

func (p *Parser) parseParenOrTuple() ast.Expression {
	tok := p.expect(token.LPAREN)
	if _, ok := p.accept(token.RPAREN); ok {
		return &ast.Literal{Token: tok, Kind: ast.LitUnit, Raw: "()"}
	}
	first := p.parseExpression(0)
	if !p.at(token.COMMA) {
		p.expect(token.RPAREN)
		return first
	}
	elems := []ast.Expression{first}
	for {
		if _, ok := p.accept(token.COMMA); !ok {
			break
		}
		if p.at(token.RPAREN) {
			break
		}
		elems = append(elems, p.parseExpression(0))
	}
	p.expect(token.RPAREN)
	return &ast.TupleExpression{Token: tok, Elements: elems}
}

func (p *Parser) parseArrayLiteral() ast.Expression {
	tok := p.expect(token.LBRACKET)
	e := &ast.ArrayExpression{Token: tok}
	for !p.at(token.RBRACKET) && !p.at(token.EOF) {
		e.Elements = append(e.Elements, p.parseExpression(0))
		if _, ok := p.accept(token.COMMA); !ok {
			break
		}
	}
	p.expect(token.RBRACKET)
	return e
}

// parseLambda parses `|params| body`, e.g. `|x, y| x + y`.
func (p *Parser) parseLambda() ast.Expression {
	tok := p.expect(token.PIPE)
	l := &ast.LambdaExpression{Token: tok}
	for !p.at(token.PIPE) && !p.at(token.EOF) {
		param := ast.Param{Name: p.parseIdentifier()}
		if _, ok := p.accept(token.COLON); ok {
			param.Type = p.parseTypeExpr()
		}
		l.Params = append(l.Params, param)
		if _, ok := p.accept(token.COMMA); !ok {
			break
		}
	}
	p.expect(token.PIPE)
	if _, ok := p.accept(token.ARROW); ok {
		l.ReturnType = p.parseTypeExpr()
	}
	if p.at(token.LBRACE) {
		l.Body = p.parseBlock()
	} else {
		expr := p.parseExpression(0)
		l.Body = &ast.BlockStatement{Token: expr.GetToken(), Statements: []ast.Statement{
			&ast.ExpressionStatement{Token: expr.GetToken(), Expression: expr},
		}}
	}
	return l
}

func (p *Parser) parseWhenExpression() ast.Expression {
	tok := p.advance()
	scrut := p.parseCondition()
	member := p.parseWhenMember()
	e := &ast.WhenExpression{Token: tok, Scrutinee: scrut}
	p.expect(token.LBRACE)
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		if _, ok := p.accept(token.ELSE); ok {
			p.expect(token.FATARROW)
			e.Else = p.parseExpression(0)
			p.accept(token.COMMA)
			continue
		}
		c := &ast.WhenCase{Token: p.cur()}
		p.accept(token.IS)
		c.Pattern = p.parsePattern()
		if _, ok := p.accept(token.IF); ok {
			c.Guard = p.parseExpression(0)
		}
		p.expect(token.FATARROW)
		body := p.parseExpression(0)
		c.Body = &ast.BlockStatement{Token: body.GetToken(), Statements: []ast.Statement{
			&ast.ExpressionStatement{Token: body.GetToken(), Expression: body},
		}}
		e.Cases = append(e.Cases, c)
		p.accept(token.COMMA)
	}
	p.expect(token.RBRACE)
	// The else arm may also follow the closing brace as a braced
	// expression: `when v is i32 { k => k + 1 } else { 0 }`.
	if _, ok := p.accept(token.ELSE); ok {
		p.expect(token.LBRACE)
		e.Else = p.parseExpression(0)
		p.expect(token.RBRACE)
	}
	wrapMemberCases(member, e.Cases)
	return e
}
