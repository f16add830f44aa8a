package checker

import (
	"fmt"
	"strconv"

	"github.com/nyxlang/nyxc/internal/ast"
	"github.com/nyxlang/nyxc/internal/constval"
	"github.com/nyxlang/nyxc/internal/environment"
	"github.com/nyxlang/nyxc/internal/pattern"
	"github.com/nyxlang/nyxc/internal/token"
	"github.com/nyxlang/nyxc/internal/types"
)

// This file lowers internal/pattern's decision-tree IR into synthetic
// AST expressions, in one step per the Design Notes of spec §9: the
// matcher builds the small IR, the checker splices the comparisons here,
// and codegen only ever sees ordinary expressions. Every token minted
// below is Artificial so source-faithful operations skip them.

// attachCompiledPattern stores one case's compiled condition and
// binding declarations on the case node (spec §4.4 rule 8) and installs
// the bindings into caseEnv so the branch body can reference them.
func (c *Checker) attachCompiledPattern(cs *ast.WhenCase, result *pattern.Result, scrut ast.Expression, caseEnv *environment.Environment) {
	cs.Condition = c.lowerCondition(result.Condition, scrut, cs.Token)
	for _, b := range result.Bindings {
		sel, _ := c.lowerSelector(b.Selector, scrut, cs.Token)
		d := &ast.ConstDeclaration{
			Token: token.Artificial(token.VAL, "val", cs.Token.Pos),
			Name:  &ast.Identifier{Token: token.Artificial(token.IDENT, b.Name, cs.Token.Pos), Value: b.Name},
			Value: sel,
		}
		d.Annotations.Type = b.Type
		if diag := caseEnv.Define(environment.Def{Name: b.Name, Kind: environment.DefConst, Node: d}, cs.Token); diag != nil {
			c.Bus.Publish(diag)
			continue
		}
		cs.Decls = append(cs.Decls, d)
	}
}

// lowerSelector renders a selector path as an expression rooted at the
// scrutinee, returning the expression and its type. Structure fields
// become field accesses, tuple positions become `_N` field accesses,
// slice/array positions become index expressions, and a variant payload
// becomes a checked `as` unwrap against the tag the enclosing condition
// already tested.
func (c *Checker) lowerSelector(sel *pattern.Selector, scrut ast.Expression, at token.Token) (ast.Expression, types.Type) {
	if sel == nil || sel.Base == nil {
		return scrut, scrut.ResolvedType()
	}
	base, baseType := c.lowerSelector(sel.Base, scrut, at)

	switch {
	case sel.VariantMember != nil:
		unwrap := &ast.AsExpression{Token: token.Artificial(token.AS, "as", at.Pos), Value: base}
		unwrap.Annotations.Type = sel.VariantMember
		return unwrap, sel.VariantMember

	case sel.Field != "":
		var ft types.Type = types.Unknown{}
		if st, ok := baseType.(types.Structure); ok {
			if t, ok := st.FieldType(sel.Field); ok {
				ft = t
			}
		}
		f := &ast.FieldExpression{
			Token:    token.Artificial(token.DOT, ".", at.Pos),
			Receiver: base,
			Field:    &ast.Identifier{Token: token.Artificial(token.IDENT, sel.Field, at.Pos), Value: sel.Field},
		}
		f.Annotations.Type = ft
		return f, ft

	default:
		switch bt := baseType.(type) {
		case types.Tuple:
			var et types.Type = types.Unknown{}
			if sel.Index >= 0 && sel.Index < len(bt.Elements) {
				et = bt.Elements[sel.Index]
			}
			name := "_" + strconv.Itoa(sel.Index)
			f := &ast.FieldExpression{
				Token:    token.Artificial(token.DOT, ".", at.Pos),
				Receiver: base,
				Field:    &ast.Identifier{Token: token.Artificial(token.IDENT, name, at.Pos), Value: name},
			}
			f.Annotations.Type = et
			return f, et
		case types.Slice:
			idx := &ast.IndexExpression{
				Token:    token.Artificial(token.LBRACKET, "[", at.Pos),
				Receiver: base,
				Index:    intLiteral(sel.Index, at),
			}
			idx.Annotations.Type = bt.Elem
			return idx, bt.Elem
		case types.Array:
			idx := &ast.IndexExpression{
				Token:    token.Artificial(token.LBRACKET, "[", at.Pos),
				Receiver: base,
				Index:    intLiteral(sel.Index, at),
			}
			idx.Annotations.Type = bt.Elem
			return idx, bt.Elem
		default:
			return base, baseType
		}
	}
}

func (c *Checker) lowerCondition(cond pattern.Condition, scrut ast.Expression, at token.Token) ast.Expression {
	switch cn := cond.(type) {
	case nil, pattern.Always:
		return boolLiteral(true, at)

	case pattern.Equals:
		sel, _ := c.lowerSelector(cn.Selector, scrut, at)
		return binaryOp(token.EQ, sel, constLiteral(cn.Value, at), at)

	case pattern.InRange:
		sel, _ := c.lowerSelector(cn.Selector, scrut, at)
		upper := token.LT
		if cn.Inclusive {
			upper = token.LTE
		}
		return binaryOp(token.AND,
			binaryOp(token.GTE, sel, cn.Start, at),
			binaryOp(upper, sel, cn.End, at), at)

	case pattern.SizeEquals:
		sel, _ := c.lowerSelector(cn.Selector, scrut, at)
		length := &ast.CallExpression{
			Token:  token.Artificial(token.LPAREN, "(", at.Pos),
			Callee: &ast.Identifier{Token: token.Artificial(token.IDENT, "nyx_slice_len", at.Pos), Value: "nyx_slice_len"},
			Args:   []ast.Expression{sel},
		}
		length.Annotations.Type = types.Uint(64)
		op := token.EQ
		if cn.AtLeast {
			op = token.GTE
		}
		return binaryOp(op, length, intLiteral(cn.Size, at), at)

	case pattern.TagEquals:
		sel, _ := c.lowerSelector(cn.Selector, scrut, at)
		tag := &ast.FieldExpression{
			Token:    token.Artificial(token.DOT, ".", at.Pos),
			Receiver: sel,
			Field:    &ast.Identifier{Token: token.Artificial(token.IDENT, "__tag", at.Pos), Value: "__tag"},
		}
		tag.Annotations.Type = types.Uint(64)
		return binaryOp(token.EQ, tag, tagLiteral(cn.Member, at), at)

	case pattern.And:
		return c.foldConditions(token.AND, cn.Operands, scrut, at)

	case pattern.Or:
		return c.foldConditions(token.OR, cn.Operands, scrut, at)

	default:
		return boolLiteral(true, at)
	}
}

func (c *Checker) foldConditions(op token.Kind, operands []pattern.Condition, scrut ast.Expression, at token.Token) ast.Expression {
	if len(operands) == 0 {
		return boolLiteral(true, at)
	}
	out := c.lowerCondition(operands[0], scrut, at)
	for _, rest := range operands[1:] {
		out = binaryOp(op, out, c.lowerCondition(rest, scrut, at), at)
	}
	return out
}

func binaryOp(op token.Kind, left, right ast.Expression, at token.Token) ast.Expression {
	b := &ast.BinaryExpression{
		Token: token.Artificial(op, op.String(), at.Pos),
		Op:    op,
		Left:  left,
		Right: right,
	}
	b.Annotations.Type = types.TBool
	return b
}

func boolLiteral(v bool, at token.Token) ast.Expression {
	raw := "false"
	if v {
		raw = "true"
	}
	l := &ast.Literal{Token: token.Artificial(token.IDENT, raw, at.Pos), Kind: ast.LitBool, Raw: raw}
	l.Annotations.Type = types.TBool
	return l
}

func intLiteral(v int, at token.Token) ast.Expression {
	raw := strconv.Itoa(v)
	l := &ast.Literal{Token: token.Artificial(token.INT, raw, at.Pos), Kind: ast.LitInt, Raw: raw}
	l.Annotations.Type = types.Uint(64)
	return l
}

// tagLiteral renders hash(canonical(member)) as the integer literal the
// variant dispatch compares against (spec §4.6 "__tag").
func tagLiteral(member types.Type, at token.Token) ast.Expression {
	raw := fmt.Sprintf("0x%xULL", types.Tag(member))
	l := &ast.Literal{Token: token.Artificial(token.INT, raw, at.Pos), Kind: ast.LitInt, Raw: raw}
	l.Annotations.Type = types.Uint(64)
	return l
}

// constLiteral renders an already-folded constant back into a literal
// node carrying both the value and its type.
func constLiteral(v constval.Value, at token.Token) ast.Expression {
	l := &ast.Literal{Token: token.Artificial(token.INT, v.String(), at.Pos), Raw: v.String()}
	switch v.Kind {
	case constval.KBool:
		l.Kind = ast.LitBool
	case constval.KChar:
		l.Kind = ast.LitChar
	case constval.KString:
		l.Kind = ast.LitString
	case constval.KFloat:
		l.Kind = ast.LitFloat
	case constval.KRational:
		l.Kind = ast.LitRational
	default:
		l.Kind = ast.LitInt
	}
	l.Annotations.Type = v.Type
	l.Annotations.Value = &v
	return l
}
