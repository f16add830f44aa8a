package ast

import "github.com/nyxlang/nyxc/internal/token"

// Program is the root node of every parsed file.
type Program struct {
	File       string
	Package    *PackageDecl
	Imports    []*ImportDecl
	Statements []Statement
}

func (p *Program) GetToken() token.Token {
	if p.Package != nil {
		return p.Package.Token
	}
	if len(p.Statements) > 0 {
		return p.Statements[0].GetToken()
	}
	return token.Token{}
}
func (p *Program) Accept(v Visitor) { v.VisitProgram(p) }

// PackageDecl is the `package name (...)` header of a file.
type PackageDecl struct {
	Token token.Token
	Name  *Identifier
}

// ImportDecl is a single `import` clause.
type ImportDecl struct {
	Token token.Token
	Path  string
	Alias *Identifier
}

func (i *ImportDecl) GetToken() token.Token { return i.Token }

// FieldDecl is one ordered structural field in a type declaration's body.
type FieldDecl struct {
	Name *Identifier
	Type TypeExpr
}

// TypeDeclaration declares a nominal structure, variant, alias, or
// parameterized type (spec §3 "structure", "variant"; §4.4 rule 2).
type TypeDeclaration struct {
	Token      token.Token
	Name       *Identifier
	Generics   []*Identifier // formal type parameters, e.g. type Box[T]
	Fields     []FieldDecl   // for structures
	Variants   []TypeExpr    // for variant member lists (A | B | C)
	Alias      TypeExpr      // non-nil when this is a `type X = <type>` alias
	Annotations
}

func (d *TypeDeclaration) GetToken() token.Token { return d.Token }
func (d *TypeDeclaration) Accept(v Visitor)       { v.VisitTypeDeclaration(d) }
func (d *TypeDeclaration) declarationNode()       {}

// VarDeclaration is a mutable binding: `var x : T = expr`.
type VarDeclaration struct {
	Token          token.Token
	Name           *Identifier
	Pattern        Pattern // mutually exclusive with Name
	TypeAnnotation TypeExpr
	Value          Expression
	Annotations
}

func (d *VarDeclaration) GetToken() token.Token { return d.Token }
func (d *VarDeclaration) Accept(v Visitor)       { v.VisitVarDeclaration(d) }
func (d *VarDeclaration) declarationNode()       {}

// statementNode lets a VarDeclaration sit directly in a block's
// statement list (`var x = 1` inside a function body), unlike a
// top-level one, which parseTopDecl/declAsStatement wraps instead.
func (d *VarDeclaration) statementNode() {}

// ConstDeclaration is an immutable binding: `val x : T = expr` (spec §3
// "const"). Pattern bindings (`(a, b) = pair`) are mutually exclusive
// with Name.
type ConstDeclaration struct {
	Token          token.Token
	Name           *Identifier
	Pattern        Pattern
	TypeAnnotation TypeExpr
	Value          Expression
	Annotations
}

func (d *ConstDeclaration) GetToken() token.Token { return d.Token }
func (d *ConstDeclaration) Accept(v Visitor)       { v.VisitConstDeclaration(d) }
func (d *ConstDeclaration) declarationNode()       {}

// statementNode lets a ConstDeclaration sit directly in a block's
// statement list (`val x = 1` inside a function body), unlike a
// top-level one, which parseTopDecl/declAsStatement wraps instead.
func (d *ConstDeclaration) statementNode() {}

// GenericConstParamDeclaration declares a generic value parameter
// (e.g. the array length `N` in `function make[T, const N: usize]`).
type GenericConstParamDeclaration struct {
	Token token.Token
	Name  *Identifier
	Type  TypeExpr
	Annotations
}

func (d *GenericConstParamDeclaration) GetToken() token.Token { return d.Token }
func (d *GenericConstParamDeclaration) Accept(v Visitor)       { v.VisitGenericConstParamDeclaration(d) }
func (d *GenericConstParamDeclaration) declarationNode()       {}

// Param is one function/property parameter.
type Param struct {
	Name         *Identifier
	Type         TypeExpr
	DefaultValue Expression // nil when the parameter has no default
	Variadic     bool       // true only on the final parameter
}

// Contract is a single `require`/`ensure`/`invariant` clause attached to
// a function, property, or loop (spec §4.4 rule 7, Glossary "Contract").
type Contract struct {
	Token     token.Token
	Condition Expression
	Message   Expression // optional user-facing failure message
}

// FunctionDeclaration declares a free function, possibly generic.
type FunctionDeclaration struct {
	Token       token.Token
	Name        *Identifier
	Generics    []*Identifier
	ConstParams []*GenericConstParamDeclaration
	Params      []Param
	ReturnType  TypeExpr
	Requires    []Contract
	Ensures     []Contract
	Body        *BlockStatement
	Annotations
}

func (d *FunctionDeclaration) GetToken() token.Token { return d.Token }
func (d *FunctionDeclaration) Accept(v Visitor)       { v.VisitFunctionDeclaration(d) }
func (d *FunctionDeclaration) declarationNode()       {}

// PropertyDeclaration declares a computed property (a zero-argument
// method invoked without call syntax).
type PropertyDeclaration struct {
	Token      token.Token
	Name       *Identifier
	Receiver   TypeExpr
	ReturnType TypeExpr
	Requires   []Contract
	Ensures    []Contract
	Body       *BlockStatement
	Annotations
}

func (d *PropertyDeclaration) GetToken() token.Token { return d.Token }
func (d *PropertyDeclaration) Accept(v Visitor)       { v.VisitPropertyDeclaration(d) }
func (d *PropertyDeclaration) declarationNode()       {}

// ConceptDeclaration declares a compile-time predicate over types,
// evaluated during generic checking (Glossary "Concept").
type ConceptDeclaration struct {
	Token     token.Token
	Name      *Identifier
	Generics  []*Identifier
	Predicate Expression
	Annotations
}

func (d *ConceptDeclaration) GetToken() token.Token { return d.Token }
func (d *ConceptDeclaration) Accept(v Visitor)       { v.VisitConceptDeclaration(d) }
func (d *ConceptDeclaration) declarationNode()       {}

// BehaviourMethodSig is one method signature in a behaviour's interface.
type BehaviourMethodSig struct {
	Name       *Identifier
	Params     []Param
	ReturnType TypeExpr
}

// BehaviourDeclaration declares an abstract interface type (Glossary
// "Behaviour").
type BehaviourDeclaration struct {
	Token   token.Token
	Name    *Identifier
	Methods []BehaviourMethodSig
	Annotations
}

func (d *BehaviourDeclaration) GetToken() token.Token { return d.Token }
func (d *BehaviourDeclaration) Accept(v Visitor)       { v.VisitBehaviourDeclaration(d) }
func (d *BehaviourDeclaration) declarationNode()       {}

// ExtendDeclaration implements a behaviour for a type: `extend T:
// Behaviour { ... }`. Checking it populates the implementor registry
// (spec §4.2).
type ExtendDeclaration struct {
	Token     token.Token
	Target    TypeExpr
	Behaviour *Identifier // nil for an inherent `extend T { ... }` impl block
	Methods   []*FunctionDeclaration
	Annotations
}

func (d *ExtendDeclaration) GetToken() token.Token { return d.Token }
func (d *ExtendDeclaration) Accept(v Visitor)       { v.VisitExtendDeclaration(d) }
func (d *ExtendDeclaration) declarationNode()       {}

// TestDeclaration declares a named test function (spec §4.6 "test
// driver"; environment kind `test`).
type TestDeclaration struct {
	Token token.Token
	Name  string
	Body  *BlockStatement
	Annotations
}

func (d *TestDeclaration) GetToken() token.Token { return d.Token }
func (d *TestDeclaration) Accept(v Visitor)       { v.VisitTestDeclaration(d) }
func (d *TestDeclaration) declarationNode()       {}
