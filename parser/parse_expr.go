// Copyright 2020-2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package parser

import (
	"github.com/bufbuild/weft/ast"
	"github.com/bufbuild/weft/report"
)

var binaryOps = map[TokenKind]ast.BinaryOp{
	TokenStar:         ast.OpMultiply,
	TokenSlash:        ast.OpDivide,
	TokenPercent:      ast.OpModulo,
	TokenPlus:         ast.OpAdd,
	TokenMinus:        ast.OpSubtract,
	TokenLess:         ast.OpLess,
	TokenLessEqual:    ast.OpLessEqual,
	TokenGreater:      ast.OpGreater,
	TokenGreaterEqual: ast.OpGreaterEqual,
	TokenEqualOp:      ast.OpEqual,
	TokenNotEqual:     ast.OpNotEqual,
	TokenAnd:          ast.OpAnd,
	TokenOr:           ast.OpOr,
}

// parseExpression is the entry point for expression parsing. It enforces
// the nesting bound; everything below it assumes the bound holds.
func (p *parser) parseExpression() ast.Expr {
	if p.depth >= MaxNestingDepth {
		span := p.cur().Span
		if !p.depthReported {
			p.depthReported = true
			p.report.Errorf(span, "expression nesting exceeds the maximum depth of %d", MaxNestingDepth)
			p.recoverToItemEnd()
		}
		return &ast.InvalidExpr{SrcSpan: span}
	}
	p.depth++
	defer func() { p.depth-- }()
	return p.parseConditional()
}

func (p *parser) parseConditional() ast.Expr {
	cond := p.parseBinary(1)
	if !p.at(TokenQuestion) {
		return cond
	}
	p.next()
	trueExpr := p.parseExpression()
	if _, ok := p.expect(TokenColon); !ok {
		return &ast.ConditionalExpr{
			Condition: cond,
			TrueExpr:  trueExpr,
			FalseExpr: &ast.InvalidExpr{SrcSpan: p.cur().Span},
			SrcSpan:   cond.Span().Merge(trueExpr.Span()),
		}
	}
	falseExpr := p.parseExpression()
	return &ast.ConditionalExpr{
		Condition: cond,
		TrueExpr:  trueExpr,
		FalseExpr: falseExpr,
		SrcSpan:   cond.Span().Merge(falseExpr.Span()),
	}
}

// parseBinary climbs operator precedence: it consumes operators of at least
// minPrec, recursing with a tighter bound for the right operand so that
// equal-precedence operators associate left.
func (p *parser) parseBinary(minPrec int) ast.Expr {
	left := p.parseUnary()
	for {
		op, ok := binaryOps[p.cur().Kind]
		if !ok || op.Precedence() < minPrec {
			return left
		}
		p.next()
		right := p.parseBinary(op.Precedence() + 1)
		left = &ast.BinaryExpr{
			Left:    left,
			Op:      op,
			Right:   right,
			SrcSpan: left.Span().Merge(right.Span()),
		}
	}
}

func (p *parser) parseUnary() ast.Expr {
	switch p.cur().Kind {
	case TokenMinus:
		op := p.next()
		operand := p.parseUnary()
		return &ast.UnaryExpr{Op: ast.OpNegate, Operand: operand, SrcSpan: op.Span.Merge(operand.Span())}
	case TokenBang:
		op := p.next()
		operand := p.parseUnary()
		return &ast.UnaryExpr{Op: ast.OpNot, Operand: operand, SrcSpan: op.Span.Merge(operand.Span())}
	default:
		return p.parsePostfix()
	}
}

// parsePostfix parses a primary expression and then greedily consumes
// traversal operations: `.name`, `.0`, `.*`, `[expr]`, and `[*]`.
func (p *parser) parsePostfix() ast.Expr {
	expr := p.parsePrimary()
	var ops []ast.TraversalOp

	for {
		switch p.cur().Kind {
		case TokenDot:
			dot := p.next()
			switch p.cur().Kind {
			case TokenIdent:
				name := p.next()
				ops = append(ops, ast.GetAttr{
					Name:    ast.Ident{Name: name.Value, SrcSpan: name.Span},
					SrcSpan: dot.Span.Merge(name.Span),
				})
			case TokenNumber:
				num := p.next()
				ops = append(ops, ast.LegacyIndex{Value: num.Value, SrcSpan: dot.Span.Merge(num.Span)})
			case TokenStar:
				star := p.next()
				ops = append(ops, ast.AttrSplat{SrcSpan: dot.Span.Merge(star.Span)})
			default:
				t := p.cur()
				p.report.Errorf(t.Span, "expected an attribute name, index, or %s after %s, found %s",
					TokenStar, TokenDot, t.describe())
				goto done
			}

		case TokenLBrack:
			open := p.next()
			if p.at(TokenStar) {
				p.next()
				closing, _ := p.expect(TokenRBrack)
				ops = append(ops, ast.FullSplat{SrcSpan: open.Span.Merge(closing.Span)})
				continue
			}
			key := p.parseExpression()
			closing, _ := p.expect(TokenRBrack)
			ops = append(ops, ast.Index{Key: key, SrcSpan: open.Span.Merge(closing.Span)})

		default:
			goto done
		}
	}

done:
	if len(ops) == 0 {
		return expr
	}
	return &ast.TraversalExpr{
		Target:  expr,
		Ops:     ops,
		SrcSpan: expr.Span().Merge(ops[len(ops)-1].Span()),
	}
}

func (p *parser) parsePrimary() ast.Expr {
	t := p.cur()
	switch t.Kind {
	case TokenNumber:
		p.next()
		return &ast.LiteralExpr{Kind: ast.NumberLit, Num: t.Value, SrcSpan: t.Span}

	case TokenIdent:
		switch t.Value {
		case "true", "false":
			p.next()
			return &ast.LiteralExpr{Kind: ast.BoolLit, Bool: t.Value == "true", SrcSpan: t.Span}
		case "null":
			p.next()
			return &ast.LiteralExpr{Kind: ast.NullLit, SrcSpan: t.Span}
		}
		if p.peek(1).Kind == TokenLParen {
			return p.parseCall()
		}
		p.next()
		return &ast.VariableExpr{Name: t.Value, SrcSpan: t.Span}

	case TokenOQuote:
		return p.parseTemplate(TokenCQuote)

	case TokenOHeredoc:
		return p.parseTemplate(TokenCHeredoc)

	case TokenLBrack:
		return p.parseTupleOrFor()

	case TokenLBrace:
		return p.parseObjectOrFor()

	case TokenLParen:
		p.next()
		expr := p.parseExpression()
		if _, invalid := expr.(*ast.InvalidExpr); invalid {
			// The inner parse already failed and reported; a missing closer
			// here is the same mistake, not a new one.
			if p.at(TokenRParen) {
				p.next()
			}
			return expr
		}
		p.expect(TokenRParen)
		return expr

	default:
		p.report.Errorf(t.Span, "expected an expression, found %s", t.describe())
		// Structural tokens stay put so the enclosing construct can close;
		// anything else is consumed to guarantee progress.
		switch t.Kind {
		case TokenNewline, TokenEOF, TokenRBrace, TokenRBrack, TokenRParen,
			TokenComma, TokenTemplateSeqEnd, TokenCQuote, TokenCHeredoc:
			return &ast.InvalidExpr{SrcSpan: report.Span{Start: t.Span.Start, End: t.Span.Start}}
		default:
			p.next()
			return &ast.InvalidExpr{SrcSpan: t.Span}
		}
	}
}

// parseCall parses `name(arg, arg...)`. A trailing `...` marks the final
// argument for expansion.
func (p *parser) parseCall() ast.Expr {
	name := p.next()
	p.next() // (

	var args []ast.Expr
	expand := false
	for !p.at(TokenRParen) && !p.at(TokenEOF) {
		args = append(args, p.parseExpression())
		if p.at(TokenEllipsis) {
			ellipsis := p.next()
			expand = true
			if !p.at(TokenRParen) {
				p.report.Errorf(ellipsis.Span, "%s must follow the final argument", TokenEllipsis)
			}
			break
		}
		if !p.at(TokenComma) {
			break
		}
		p.next()
	}
	closing, _ := p.expect(TokenRParen)

	return &ast.CallExpr{
		Name:        ast.Ident{Name: name.Value, SrcSpan: name.Span},
		Args:        args,
		ExpandFinal: expand,
		SrcSpan:     name.Span.Merge(closing.Span),
	}
}

// parseTupleOrFor parses `[...]`: either a tuple literal or a tuple
// for-expression.
func (p *parser) parseTupleOrFor() ast.Expr {
	open := p.next() // [
	if p.atIdent("for") {
		return p.parseForExpr(open, false)
	}

	var items []ast.Expr
	for !p.at(TokenRBrack) && !p.at(TokenEOF) {
		items = append(items, p.parseExpression())
		if !p.at(TokenComma) {
			break
		}
		p.next()
	}
	closing, _ := p.expect(TokenRBrack)
	return &ast.TupleExpr{Items: items, SrcSpan: open.Span.Merge(closing.Span)}
}

// parseObjectOrFor parses `{...}`: either an object literal or an object
// for-expression.
func (p *parser) parseObjectOrFor() ast.Expr {
	open := p.next() // {
	p.skipNewlines()
	if p.atIdent("for") {
		return p.parseForExpr(open, true)
	}

	var items []ast.ObjectItem
	for {
		p.skipNewlines()
		if p.at(TokenRBrace) || p.at(TokenEOF) {
			break
		}

		var key ast.ObjectKey
		if p.at(TokenIdent) && (p.peek(1).Kind == TokenAssign || p.peek(1).Kind == TokenColon) {
			ident := p.next()
			key = ast.ObjectKey{Ident: &ast.Ident{Name: ident.Value, SrcSpan: ident.Span}}
		} else {
			key = ast.ObjectKey{Expr: p.parseExpression()}
		}

		if !p.at(TokenAssign) && !p.at(TokenColon) {
			t := p.cur()
			p.report.Errorf(t.Span, "expected %s or %s after the object key, found %s",
				TokenAssign, TokenColon, t.describe())
			p.recoverToItemEnd()
			continue
		}
		p.next()

		value := p.parseExpression()
		items = append(items, ast.ObjectItem{
			Key:     key,
			Value:   value,
			SrcSpan: key.Span().Merge(value.Span()),
		})

		p.skipNewlines()
		if p.at(TokenComma) {
			p.next()
			continue
		}
		if !p.at(TokenRBrace) {
			// A newline already separated the items, or the object is
			// malformed; either way the loop re-checks from the top.
			if p.peek(-1).Kind != TokenNewline && !p.at(TokenNewline) {
				break
			}
		}
	}
	closing, _ := p.expect(TokenRBrace)
	return &ast.ObjectExpr{Items: items, SrcSpan: open.Span.Merge(closing.Span)}
}

// parseForExpr parses the body of a for-expression; the caller consumed the
// opening bracket or brace and the cursor sits on the `for` keyword.
func (p *parser) parseForExpr(open Token, object bool) ast.Expr {
	p.next() // for

	first, _ := p.expect(TokenIdent)
	var keyVar *ast.Ident
	valueVar := ast.Ident{Name: first.Value, SrcSpan: first.Span}
	if p.at(TokenComma) {
		p.next()
		second, _ := p.expect(TokenIdent)
		keyVar = &ast.Ident{Name: first.Value, SrcSpan: first.Span}
		valueVar = ast.Ident{Name: second.Value, SrcSpan: second.Span}
	}

	if !p.atIdent("in") {
		t := p.cur()
		p.report.Errorf(t.Span, "expected %q in the for-expression, found %s", "in", t.describe())
	} else {
		p.next()
	}

	collection := p.parseExpression()
	p.expect(TokenColon)

	var keyExpr, valueExpr ast.Expr
	group := false
	if object {
		keyExpr = p.parseExpression()
		p.expect(TokenFatArrow)
		valueExpr = p.parseExpression()
		if p.at(TokenEllipsis) {
			p.next()
			group = true
		}
	} else {
		valueExpr = p.parseExpression()
	}

	var condition ast.Expr
	if p.atIdent("if") {
		p.next()
		condition = p.parseExpression()
	}

	closer := TokenRBrack
	if object {
		closer = TokenRBrace
	}
	closing, _ := p.expect(closer)

	return &ast.ForExpr{
		KeyVar:     keyVar,
		ValueVar:   valueVar,
		Collection: collection,
		KeyExpr:    keyExpr,
		ValueExpr:  valueExpr,
		Group:      group,
		Condition:  condition,
		SrcSpan:    open.Span.Merge(closing.Span),
	}
}
