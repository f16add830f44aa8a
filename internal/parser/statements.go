// Package parser builds an AST from a token stream. This file is
// reserved for package-level doc; declaration, statement, and
// expression parsing live in parser.go, expressions.go, patterns.go,
// and types.go.
package parser
