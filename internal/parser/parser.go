// Package parser builds an AST from a token stream. Like internal/lexer,
// it sits outside the specified semantic core (spec §1: lexing and
// parsing are "out of scope... specified only at their boundary") — it
// exists to produce the internal/ast trees the checker consumes, not to
// be an exhaustive grammar. Its recursive-descent structure with a
// look-ahead buffer and panic-mode statement recovery (spec §7
// "Syntactic") is grounded on the teacher's internal/parser package.
package parser

import (
	"fmt"

	"github.com/nyxlang/nyxc/internal/ast"
	"github.com/nyxlang/nyxc/internal/token"
)

// ParseError is a syntactic diagnostic, recovered from in panic mode to
// the next statement boundary per spec §7.
type ParseError struct {
	Pos token.Position
	Msg string
}

func (e *ParseError) Error() string { return fmt.Sprintf("%s: %s", e.Pos, e.Msg) }

// Parser consumes a pre-scanned token slice (NEWLINE tokens already
// filtered by Tokenize) and produces one Program per file.
type Parser struct {
	file   string
	toks   []token.Token
	pos    int
	Errors []*ParseError

	// inCallArgs tracks call-argument nesting so parsePostfix knows a
	// bare trailing `:` is the type-ascription sugar, not the start of
	// a statement-level declaration.
	inCallArgs int
	// suppressRecordLiteral disables treating `Name{` as a record
	// literal while parsing a condition immediately followed by a
	// block (if/when/while/for), avoiding the `{` ambiguity.
	suppressRecordLiteral bool
}

// parseCondition parses an expression in a position immediately
// followed by a block, suppressing the bare-name record-literal form.
func (p *Parser) parseCondition() ast.Expression {
	prev := p.suppressRecordLiteral
	p.suppressRecordLiteral = true
	e := p.parseExpression(0)
	p.suppressRecordLiteral = prev
	return e
}

// Tokenize scans src and strips NEWLINE tokens, transferring each
// stripped newline onto the preceding token's end-of-line flag so the
// parser can infer statement terminators (spec §3 "Token") without
// seeing the newline itself.
func Tokenize(scan interface{ NextToken() token.Token }) []token.Token {
	var out []token.Token
	for {
		t := scan.NextToken()
		if t.Kind == token.NEWLINE {
			if len(out) > 0 {
				out[len(out)-1] = out[len(out)-1].WithEndOfLine()
			}
			continue
		}
		if t.Kind == token.EOF && len(out) > 0 {
			out[len(out)-1] = out[len(out)-1].WithEndOfLine()
		}
		out = append(out, t)
		if t.Kind == token.EOF {
			return out
		}
	}
}

func New(file string, toks []token.Token) *Parser {
	return &Parser{file: file, toks: toks}
}

func (p *Parser) cur() token.Token  { return p.toks[p.pos] }
func (p *Parser) peek(n int) token.Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}
func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}
func (p *Parser) at(k token.Kind) bool { return p.cur().Kind == k }
func (p *Parser) accept(k token.Kind) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	return token.Token{}, false
}
func (p *Parser) expect(k token.Kind) token.Token {
	if t, ok := p.accept(k); ok {
		return t
	}
	p.errorf("expected %s, found %s %q", k, p.cur().Kind, p.cur().Lexeme)
	return p.cur()
}
func (p *Parser) errorf(format string, args ...interface{}) {
	p.Errors = append(p.Errors, &ParseError{Pos: p.cur().Pos, Msg: fmt.Sprintf(format, args...)})
}

// recover skips to the next top-level or statement boundary after a
// syntax error, per spec §7 "the parser attempts panic-mode recovery
// to the next statement boundary".
func (p *Parser) recover() {
	for !p.at(token.EOF) {
		if p.at(token.SEMICOLON) {
			p.advance()
			return
		}
		if p.at(token.RBRACE) {
			return
		}
		p.advance()
	}
}

// ParseProgram parses one file's full token stream.
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{File: p.file}
	if p.at(token.PACKAGE) {
		tok := p.advance()
		name := p.parseIdentifier()
		prog.Package = &ast.PackageDecl{Token: tok, Name: name}
	}
	for p.at(token.IMPORT) {
		tok := p.advance()
		path := p.expect(token.STRING)
		imp := &ast.ImportDecl{Token: tok, Path: path.Lexeme}
		if _, ok := p.accept(token.AS); ok {
			imp.Alias = p.parseIdentifier()
		}
		prog.Imports = append(prog.Imports, imp)
	}
	for !p.at(token.EOF) {
		before := p.pos
		if d := p.parseTopDecl(); d != nil {
			prog.Statements = append(prog.Statements, declAsStatement(d))
		}
		if p.pos == before {
			p.errorf("unexpected token %s %q at top level", p.cur().Kind, p.cur().Lexeme)
			p.recover()
		}
	}
	return prog
}

func declAsStatement(d ast.Declaration) ast.Statement { return ast.WrapDeclarationAsStatement(d) }

func (p *Parser) parseIdentifier() *ast.Identifier {
	t := p.expect(token.IDENT)
	return &ast.Identifier{Token: t, Value: t.Lexeme}
}

func (p *Parser) parseGenerics() []*ast.Identifier {
	if _, ok := p.accept(token.LBRACKET); !ok {
		return nil
	}
	var out []*ast.Identifier
	for !p.at(token.RBRACKET) && !p.at(token.EOF) {
		if p.at(token.CONST) {
			break // const-generic params are parsed by parseConstParams
		}
		out = append(out, p.parseIdentifier())
		if _, ok := p.accept(token.COMMA); !ok {
			break
		}
	}
	p.expect(token.RBRACKET)
	return out
}

func (p *Parser) parseTopDecl() ast.Declaration {
	switch p.cur().Kind {
	case token.TYPE:
		return p.parseTypeDecl()
	case token.VAL:
		return p.parseConstDecl()
	case token.VAR:
		return p.parseVarDecl()
	case token.FUNCTION:
		return p.parseFunctionDecl()
	case token.PROPERTY:
		return p.parsePropertyDecl()
	case token.CONCEPT:
		return p.parseConceptDecl()
	case token.BEHAVIOUR:
		return p.parseBehaviourDecl()
	case token.EXTEND:
		return p.parseExtendDecl()
	case token.TEST:
		return p.parseTestDecl()
	default:
		return nil
	}
}

func (p *Parser) parseTypeDecl() *ast.TypeDeclaration {
	tok := p.advance()
	name := p.parseIdentifier()
	d := &ast.TypeDeclaration{Token: tok, Name: name}
	d.Generics = p.parseGenerics()
	switch {
	case p.at(token.ASSIGN):
		p.advance()
		d.Alias = p.parseTypeExpr()
		if v, ok := d.Alias.(*ast.VariantTypeExpr); ok {
			d.Variants = v.Members
		}
	case p.at(token.LBRACE):
		p.advance()
		for !p.at(token.RBRACE) && !p.at(token.EOF) {
			fname := p.parseIdentifier()
			p.expect(token.COLON)
			ftype := p.parseTypeExpr()
			d.Fields = append(d.Fields, ast.FieldDecl{Name: fname, Type: ftype})
			if _, ok := p.accept(token.COMMA); !ok {
				break
			}
		}
		p.expect(token.RBRACE)
	}
	return d
}

func (p *Parser) parseConstDecl() *ast.ConstDeclaration {
	tok := p.advance()
	d := &ast.ConstDeclaration{Token: tok}
	if p.at(token.LPAREN) {
		d.Pattern = p.parsePattern()
	} else {
		d.Name = p.parseIdentifier()
	}
	if _, ok := p.accept(token.COLON); ok {
		d.TypeAnnotation = p.parseTypeExpr()
	}
	p.expect(token.ASSIGN)
	d.Value = p.parseExpression(0)
	return d
}

func (p *Parser) parseVarDecl() *ast.VarDeclaration {
	tok := p.advance()
	d := &ast.VarDeclaration{Token: tok}
	if p.at(token.LPAREN) {
		d.Pattern = p.parsePattern()
	} else {
		d.Name = p.parseIdentifier()
	}
	if _, ok := p.accept(token.COLON); ok {
		d.TypeAnnotation = p.parseTypeExpr()
	}
	if _, ok := p.accept(token.ASSIGN); ok {
		d.Value = p.parseExpression(0)
	}
	return d
}

func (p *Parser) parseParams() []ast.Param {
	p.expect(token.LPAREN)
	var out []ast.Param
	for !p.at(token.RPAREN) && !p.at(token.EOF) {
		param := ast.Param{}
		if _, ok := p.accept(token.DOTDOT); ok {
			param.Variadic = true
		}
		param.Name = p.parseIdentifier()
		p.expect(token.COLON)
		param.Type = p.parseTypeExpr()
		if _, ok := p.accept(token.ASSIGN); ok {
			param.DefaultValue = p.parseExpression(0)
		}
		out = append(out, param)
		if _, ok := p.accept(token.COMMA); !ok {
			break
		}
	}
	p.expect(token.RPAREN)
	return out
}

func (p *Parser) parseConstParams(generics []*ast.Identifier) []*ast.GenericConstParamDeclaration {
	// Re-scan a generics list this time capturing `const N: T` entries;
	// parseGenerics already consumed type-parameter identifiers and left
	// the cursor positioned at a `const` entry or `]` if none remain.
	var out []*ast.GenericConstParamDeclaration
	for p.at(token.CONST) {
		tok := p.advance()
		name := p.parseIdentifier()
		p.expect(token.COLON)
		ty := p.parseTypeExpr()
		out = append(out, &ast.GenericConstParamDeclaration{Token: tok, Name: name, Type: ty})
		if _, ok := p.accept(token.COMMA); !ok {
			break
		}
	}
	p.expect(token.RBRACKET)
	return out
}

func (p *Parser) parseContracts() (reqs []ast.Contract, ens []ast.Contract) {
	for p.at(token.REQUIRE) || p.at(token.ENSURE) {
		isReq := p.at(token.REQUIRE)
		tok := p.advance()
		// parseCondition: the clause list runs up against the function's
		// `{`, the same brace ambiguity an if-condition has.
		cond := p.parseCondition()
		c := ast.Contract{Token: tok, Condition: cond}
		if _, ok := p.accept(token.COMMA); ok {
			c.Message = p.parseCondition()
		}
		if isReq {
			reqs = append(reqs, c)
		} else {
			ens = append(ens, c)
		}
	}
	return reqs, ens
}

func (p *Parser) parseFunctionDecl() *ast.FunctionDeclaration {
	tok := p.advance()
	d := &ast.FunctionDeclaration{Token: tok}
	d.Name = p.parseIdentifier()
	d.Generics = p.parseGenerics()
	if p.at(token.CONST) {
		d.ConstParams = p.parseConstParams(d.Generics)
	}
	d.Params = p.parseParams()
	if _, ok := p.accept(token.COLON); ok {
		d.ReturnType = p.parseTypeExpr()
	}
	d.Requires, d.Ensures = p.parseContracts()
	if _, ok := p.accept(token.ASSIGN); ok {
		// expression-bodied function: `function id[T](x: T): T = x`
		expr := p.parseExpression(0)
		d.Body = &ast.BlockStatement{
			Token:      expr.GetToken(),
			Statements: []ast.Statement{&ast.ReturnStatement{Token: expr.GetToken(), Value: expr}},
		}
		return d
	}
	d.Body = p.parseBlock()
	return d
}

func (p *Parser) parsePropertyDecl() *ast.PropertyDeclaration {
	tok := p.advance()
	d := &ast.PropertyDeclaration{Token: tok}
	d.Name = p.parseIdentifier()
	p.expect(token.COLON)
	d.Receiver = p.parseTypeExpr()
	if _, ok := p.accept(token.ARROW); ok {
		d.ReturnType = p.parseTypeExpr()
	}
	d.Requires, d.Ensures = p.parseContracts()
	d.Body = p.parseBlock()
	return d
}

func (p *Parser) parseConceptDecl() *ast.ConceptDeclaration {
	tok := p.advance()
	d := &ast.ConceptDeclaration{Token: tok}
	d.Name = p.parseIdentifier()
	d.Generics = p.parseGenerics()
	p.expect(token.ASSIGN)
	d.Predicate = p.parseExpression(0)
	return d
}

func (p *Parser) parseBehaviourDecl() *ast.BehaviourDeclaration {
	tok := p.advance()
	d := &ast.BehaviourDeclaration{Token: tok}
	d.Name = p.parseIdentifier()
	p.expect(token.LBRACE)
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		mtok := p.expect(token.FUNCTION)
		_ = mtok
		name := p.parseIdentifier()
		params := p.parseParams()
		var ret ast.TypeExpr
		if _, ok := p.accept(token.COLON); ok {
			ret = p.parseTypeExpr()
		}
		d.Methods = append(d.Methods, ast.BehaviourMethodSig{Name: name, Params: params, ReturnType: ret})
		p.accept(token.SEMICOLON)
	}
	p.expect(token.RBRACE)
	return d
}

func (p *Parser) parseExtendDecl() *ast.ExtendDeclaration {
	tok := p.advance()
	d := &ast.ExtendDeclaration{Token: tok}
	d.Target = p.parseTypeExpr()
	if _, ok := p.accept(token.COLON); ok {
		d.Behaviour = p.parseIdentifier()
	}
	p.expect(token.LBRACE)
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		d.Methods = append(d.Methods, p.parseFunctionDecl())
	}
	p.expect(token.RBRACE)
	return d
}

func (p *Parser) parseTestDecl() *ast.TestDeclaration {
	tok := p.advance()
	name := p.expect(token.STRING)
	d := &ast.TestDeclaration{Token: tok, Name: name.Lexeme}
	d.Body = p.parseBlock()
	return d
}

// ---- Statements ----

func (p *Parser) parseBlock() *ast.BlockStatement {
	tok := p.expect(token.LBRACE)
	b := &ast.BlockStatement{Token: tok}
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		before := p.pos
		b.Statements = append(b.Statements, p.parseStatement())
		if p.pos == before {
			p.recover()
		}
		p.accept(token.SEMICOLON)
	}
	p.expect(token.RBRACE)
	return b
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.cur().Kind {
	case token.LBRACE:
		return p.parseBlock()
	case token.IF:
		return p.parseIf()
	case token.WHEN:
		return p.parseWhenStatement()
	case token.FOR:
		return p.parseFor()
	case token.WHILE:
		return p.parseWhile()
	case token.LOOP:
		return p.parseLoop()
	case token.BREAK:
		tok := p.advance()
		var v ast.Expression
		// A break token that closes its own line carries no value; the
		// end-of-line flag stands in for the statement terminator.
		if !tok.IsEndOfLine() && !p.at(token.SEMICOLON) && !p.at(token.RBRACE) {
			v = p.parseExpression(0)
		}
		return &ast.BreakStatement{Token: tok, Value: v}
	case token.CONTINUE:
		return &ast.ContinueStatement{Token: p.advance()}
	case token.RETURN:
		tok := p.advance()
		var v ast.Expression
		if !tok.IsEndOfLine() && !p.at(token.SEMICOLON) && !p.at(token.RBRACE) {
			v = p.parseExpression(0)
		}
		return &ast.ReturnStatement{Token: tok, Value: v}
	case token.REQUIRE:
		tok := p.advance()
		cond := p.parseExpression(0)
		var msg ast.Expression
		if _, ok := p.accept(token.COMMA); ok {
			msg = p.parseExpression(0)
		}
		return &ast.RequireStatement{Token: tok, Condition: cond, Message: msg}
	case token.ENSURE:
		tok := p.advance()
		cond := p.parseExpression(0)
		var msg ast.Expression
		if _, ok := p.accept(token.COMMA); ok {
			msg = p.parseExpression(0)
		}
		return &ast.EnsureStatement{Token: tok, Condition: cond, Message: msg}
	case token.INVARIANT:
		tok := p.advance()
		cond := p.parseExpression(0)
		var msg ast.Expression
		if _, ok := p.accept(token.COMMA); ok {
			msg = p.parseExpression(0)
		}
		return &ast.InvariantStatement{Token: tok, Condition: cond, Message: msg}
	case token.VAL:
		return p.parseConstDecl()
	case token.VAR:
		return p.parseVarDecl()
	default:
		expr := p.parseExpression(0)
		if isAssignOp(p.cur().Kind) && expr.IsAssignable() {
			op := p.advance()
			rhs := p.parseExpression(0)
			return &ast.AssignStatement{Token: op, Op: op.Kind, LHS: expr, RHS: rhs}
		}
		return &ast.ExpressionStatement{Token: expr.GetToken(), Expression: expr}
	}
}

func isAssignOp(k token.Kind) bool { return k == token.ASSIGN }

func (p *Parser) parseIf() *ast.IfStatement {
	tok := p.advance()
	s := &ast.IfStatement{Token: tok}
	s.Condition = p.parseCondition()
	s.Then = p.parseBlock()
	if _, ok := p.accept(token.ELSE); ok {
		if p.at(token.IF) {
			s.Else = p.parseIf()
		} else {
			s.Else = p.parseBlock()
		}
	}
	return s
}

func (p *Parser) parseWhenCases() ([]*ast.WhenCase, *ast.BlockStatement) {
	p.expect(token.LBRACE)
	var cases []*ast.WhenCase
	var els *ast.BlockStatement
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		if _, ok := p.accept(token.ELSE); ok {
			els = p.parseBlock()
			continue
		}
		c := &ast.WhenCase{Token: p.cur()}
		p.accept(token.IS)
		c.Pattern = p.parsePattern()
		if _, ok := p.accept(token.IF); ok {
			c.Guard = p.parseExpression(0)
		}
		p.expect(token.FATARROW)
		if p.at(token.LBRACE) {
			c.Body = p.parseBlock()
		} else {
			expr := p.parseExpression(0)
			c.Body = &ast.BlockStatement{Token: expr.GetToken(), Statements: []ast.Statement{
				&ast.ExpressionStatement{Token: expr.GetToken(), Expression: expr},
			}}
		}
		cases = append(cases, c)
		p.accept(token.COMMA)
		p.accept(token.SEMICOLON)
	}
	p.expect(token.RBRACE)
	return cases, els
}

func (p *Parser) parseWhenStatement() *ast.WhenStatement {
	tok := p.advance()
	scrut := p.parseCondition()
	member := p.parseWhenMember()
	s := &ast.WhenStatement{Token: tok, Scrutinee: scrut}
	s.Cases, s.Else = p.parseWhenCases()
	wrapMemberCases(member, s.Cases)
	return s
}

// parseWhenMember handles `when v is T { ... }`: the member type after
// `is` folds a variant-tag test into every case, so `k => k + 1` inside
// the braces means "the T payload, bound as k".
func (p *Parser) parseWhenMember() ast.TypeExpr {
	if _, ok := p.accept(token.IS); !ok {
		return nil
	}
	if p.at(token.LBRACE) {
		return nil
	}
	return p.parseTypeExpr()
}

func wrapMemberCases(member ast.TypeExpr, cases []*ast.WhenCase) {
	if member == nil {
		return
	}
	for _, c := range cases {
		c.Pattern = &ast.VariantPattern{Token: c.Token, Member: member, Sub: c.Pattern}
	}
}

// parseFor parses `for x : iterable { ... }`.
func (p *Parser) parseFor() *ast.ForStatement {
	tok := p.advance()
	s := &ast.ForStatement{Token: tok}
	s.Var = p.parseIdentifier()
	p.expect(token.COLON)
	s.Iterable = p.parseCondition()
	s.Requires, s.Ensures = p.parseContracts()
	s.Body = p.parseBlock()
	return s
}

func (p *Parser) parseWhile() *ast.WhileStatement {
	tok := p.advance()
	s := &ast.WhileStatement{Token: tok}
	s.Condition = p.parseCondition()
	s.Requires, s.Ensures = p.parseContracts()
	s.Body = p.parseBlock()
	return s
}

func (p *Parser) parseLoop() *ast.LoopStatement {
	tok := p.advance()
	s := &ast.LoopStatement{Token: tok}
	s.Requires, s.Ensures = p.parseContracts()
	s.Body = p.parseBlock()
	return s
}
