package ast

import "github.com/nyxlang/nyxc/internal/token"

// BlockStatement is a `{ ... }` sequence of statements introducing a
// Block environment (spec §4.1).
type BlockStatement struct {
	Token      token.Token
	Statements []Statement
	// YieldVar is the synthetic variable the checker binds when this
	// block is used in a value-producing position (spec §4.4 rule 6),
	// nil otherwise.
	YieldVar *Identifier
	Annotations
}

func (s *BlockStatement) GetToken() token.Token { return s.Token }
func (s *BlockStatement) Accept(v Visitor)       { v.VisitBlockStatement(s) }
func (s *BlockStatement) statementNode()         {}

// ExpressionStatement wraps an expression used for its side effects.
type ExpressionStatement struct {
	Token      token.Token
	Expression Expression
}

func (s *ExpressionStatement) GetToken() token.Token { return s.Token }
func (s *ExpressionStatement) Accept(v Visitor)       { v.VisitExpressionStatement(s) }
func (s *ExpressionStatement) statementNode()         {}

// AssignStatement is `lhs = rhs` or a compound assignment.
type AssignStatement struct {
	Token token.Token
	Op    token.Kind // ASSIGN, PLUS_ASSIGN, etc.
	LHS   Expression
	RHS   Expression
}

func (s *AssignStatement) GetToken() token.Token { return s.Token }
func (s *AssignStatement) Accept(v Visitor)       { v.VisitAssignStatement(s) }
func (s *AssignStatement) statementNode()         {}

// IfStatement is `if cond { then } else { alt }`, optionally
// value-producing (spec §4.4 rule 6).
type IfStatement struct {
	Token      token.Token
	Condition  Expression
	Then       *BlockStatement
	Else       Statement // *BlockStatement or *IfStatement, nil if absent
	YieldVar   *Identifier
	Annotations
}

func (s *IfStatement) GetToken() token.Token { return s.Token }
func (s *IfStatement) Accept(v Visitor)       { v.VisitIfStatement(s) }
func (s *IfStatement) statementNode()         {}

// WhenCase is one `when` branch: a pattern, optional guard, and body.
type WhenCase struct {
	Token     token.Token
	Pattern   Pattern
	Guard     Expression // optional `if` guard after the pattern
	Body      *BlockStatement
	// Condition and Decls are filled in by the checker
	// (internal/checker/lower.go) from internal/pattern's compiled
	// result: the compiled Boolean test and synthetic bindings.
	Condition Expression
	Decls     []*ConstDeclaration
}

// WhenStatement desugars to a chain of `if` over compiled pattern
// conditions at code-gen time (spec §4.6).
type WhenStatement struct {
	Token     token.Token
	Scrutinee Expression
	Cases     []*WhenCase
	Else      *BlockStatement
	YieldVar  *Identifier
	Annotations
}

func (s *WhenStatement) GetToken() token.Token { return s.Token }
func (s *WhenStatement) Accept(v Visitor)       { v.VisitWhenStatement(s) }
func (s *WhenStatement) statementNode()         {}

// ForStatement iterates a range or sequence, binding Var in a Loop
// environment.
type ForStatement struct {
	Token    token.Token
	Var      *Identifier
	Iterable Expression
	Body     *BlockStatement
	Requires []Contract
	Ensures  []Contract
	YieldVar *Identifier // set when this `for` is itself a yielding expression
	Annotations
}

func (s *ForStatement) GetToken() token.Token { return s.Token }
func (s *ForStatement) Accept(v Visitor)       { v.VisitForStatement(s) }
func (s *ForStatement) statementNode()         {}

// WhileStatement is a condition-tested loop.
type WhileStatement struct {
	Token     token.Token
	Condition Expression
	Body      *BlockStatement
	Requires  []Contract
	Ensures   []Contract
}

func (s *WhileStatement) GetToken() token.Token { return s.Token }
func (s *WhileStatement) Accept(v Visitor)       { v.VisitWhileStatement(s) }
func (s *WhileStatement) statementNode()         {}

// LoopStatement is an unconditional loop, exited via `break`.
type LoopStatement struct {
	Token    token.Token
	Body     *BlockStatement
	Requires []Contract
	Ensures  []Contract
}

func (s *LoopStatement) GetToken() token.Token { return s.Token }
func (s *LoopStatement) Accept(v Visitor)       { v.VisitLoopStatement(s) }
func (s *LoopStatement) statementNode()         {}

// BreakStatement exits the nearest enclosing loop, optionally carrying
// a value when that loop is itself a yielding expression.
type BreakStatement struct {
	Token token.Token
	Value Expression // nil for a value-less break
}

func (s *BreakStatement) GetToken() token.Token { return s.Token }
func (s *BreakStatement) Accept(v Visitor)       { v.VisitBreakStatement(s) }
func (s *BreakStatement) statementNode()         {}

// ContinueStatement skips to the next iteration of the nearest
// enclosing loop.
type ContinueStatement struct {
	Token token.Token
}

func (s *ContinueStatement) GetToken() token.Token { return s.Token }
func (s *ContinueStatement) Accept(v Visitor)       { v.VisitContinueStatement(s) }
func (s *ContinueStatement) statementNode()         {}

// ReturnStatement returns from the enclosing function.
type ReturnStatement struct {
	Token token.Token
	Value Expression // nil for a unit return
}

func (s *ReturnStatement) GetToken() token.Token { return s.Token }
func (s *ReturnStatement) Accept(v Visitor)       { v.VisitReturnStatement(s) }
func (s *ReturnStatement) statementNode()         {}

// RequireStatement is a precondition contract, lifted to its owning
// function's entry by the checker (spec §4.4 rule 7).
type RequireStatement struct {
	Token     token.Token
	Condition Expression
	Message   Expression
}

func (s *RequireStatement) GetToken() token.Token { return s.Token }
func (s *RequireStatement) Accept(v Visitor)       { v.VisitRequireStatement(s) }
func (s *RequireStatement) statementNode()         {}

// EnsureStatement is a postcondition contract, lifted to every return
// path of its owning function.
type EnsureStatement struct {
	Token     token.Token
	Condition Expression
	Message   Expression
}

func (s *EnsureStatement) GetToken() token.Token { return s.Token }
func (s *EnsureStatement) Accept(v Visitor)       { v.VisitEnsureStatement(s) }
func (s *EnsureStatement) statementNode()         {}

// InvariantStatement attaches to a function or loop's entry/exit or
// header/trailer, per spec §4.4 rule 7.
type InvariantStatement struct {
	Token     token.Token
	Condition Expression
	Message   Expression
}

func (s *InvariantStatement) GetToken() token.Token { return s.Token }
func (s *InvariantStatement) Accept(v Visitor)       { v.VisitInvariantStatement(s) }
func (s *InvariantStatement) statementNode()         {}
