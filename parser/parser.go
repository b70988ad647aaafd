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

// Package parser turns Weft source bytes into the [ast] tree.
//
// The parser is a recursive-descent consumer of the token stream produced
// by [Lex], with precedence climbing for binary operators. It never aborts:
// syntax errors become diagnostics plus [ast.InvalidExpr] placeholders, and
// the parser resynchronizes at the next statement boundary so one mistake
// does not cascade.
package parser

import (
	"github.com/bufbuild/weft/ast"
	"github.com/bufbuild/weft/report"
)

// MaxNestingDepth bounds expression recursion. Exceeding it produces a
// diagnostic and an [ast.InvalidExpr] rather than unbounded stack growth.
const MaxNestingDepth = 64

// Parse lexes and parses src, appending all lexical and syntactic
// diagnostics to rep. The returned file is a best effort and is non-nil
// even when rep has errors.
func Parse(src []byte, rep *report.Report) *ast.ConfigFile {
	tokens := Lex(src, rep)
	p := &parser{tokens: tokens, report: rep}
	body := p.parseBody(TokenEOF)
	return &ast.ConfigFile{Body: body}
}

type parser struct {
	tokens []Token
	pos    int
	report *report.Report

	depth         int
	depthReported bool
}

func (p *parser) cur() Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // always TokenEOF
	}
	return p.tokens[p.pos]
}

func (p *parser) peek(n int) Token {
	at := p.pos + n
	if at >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[at]
}

func (p *parser) next() Token {
	t := p.cur()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *parser) at(kind TokenKind) bool {
	return p.cur().Kind == kind
}

func (p *parser) atIdent(name string) bool {
	t := p.cur()
	return t.Kind == TokenIdent && t.Value == name
}

func (p *parser) skipNewlines() {
	for p.at(TokenNewline) {
		p.pos++
	}
}

// expect consumes a token of the given kind, or reports what was found
// instead. On failure the current token is left in place for recovery.
func (p *parser) expect(kind TokenKind) (Token, bool) {
	if p.at(kind) {
		return p.next(), true
	}
	t := p.cur()
	p.report.Errorf(t.Span, "expected %s, found %s", kind, t.describe())
	return t, false
}

// recoverToItemEnd skips tokens until the next statement boundary: a
// newline or closing brace at the current nesting depth, or EOF. Brace
// pairs passed on the way are skipped whole.
func (p *parser) recoverToItemEnd() {
	depth := 0
	for {
		switch p.cur().Kind {
		case TokenEOF:
			return
		case TokenNewline:
			if depth == 0 {
				return
			}
		case TokenLBrace:
			depth++
		case TokenRBrace:
			if depth == 0 {
				return
			}
			depth--
		}
		p.pos++
	}
}

// parseBody parses body items until the given terminator (TokenRBrace for
// nested bodies, TokenEOF for the top level).
func (p *parser) parseBody(end TokenKind) *ast.Body {
	start := p.cur().Span
	var items []ast.BodyItem

	for {
		p.skipNewlines()
		if p.at(end) || p.at(TokenEOF) {
			break
		}
		if item := p.parseBodyItem(); item != nil {
			items = append(items, item)
		}
	}

	span := report.Span{Start: start.Start, End: start.Start}
	for _, item := range items {
		span = span.Merge(item.Span())
	}
	if len(items) == 0 {
		span = report.Span{Start: start.Start, End: start.Start}
	}
	return &ast.Body{Items: items, SrcSpan: span}
}

func (p *parser) parseBodyItem() ast.BodyItem {
	if !p.at(TokenIdent) {
		t := p.cur()
		p.report.Errorf(t.Span, "expected an attribute name or block type, found %s", t.describe())
		p.recoverToItemEnd()
		return nil
	}
	name := p.next()
	ident := ast.Ident{Name: name.Value, SrcSpan: name.Span}

	if p.at(TokenAssign) {
		p.next()
		value := p.parseExpression()
		attr := &ast.Attribute{
			Name:    ident,
			Value:   value,
			SrcSpan: name.Span.Merge(value.Span()),
		}
		p.expectItemTerminator()
		return attr
	}

	labels := p.parseLabels()

	if !p.at(TokenLBrace) {
		t := p.cur()
		p.report.Errorf(t.Span, "expected %s or %s after %s, found %s",
			TokenAssign, TokenLBrace, name.describe(), t.describe())
		p.recoverToItemEnd()
		return nil
	}
	p.next() // {

	// A newline right after the brace makes this a multi-line block; no
	// newline means the one-line form with at most one attribute.
	if p.at(TokenNewline) {
		body := p.parseBody(TokenRBrace)
		closing, _ := p.expect(TokenRBrace)
		block := &ast.Block{
			Type:    ident,
			Labels:  labels,
			Body:    body,
			SrcSpan: name.Span.Merge(closing.Span),
		}
		p.expectItemTerminator()
		return block
	}

	var attr *ast.Attribute
	if p.at(TokenIdent) {
		attrName := p.next()
		if _, ok := p.expect(TokenAssign); ok {
			value := p.parseExpression()
			attr = &ast.Attribute{
				Name:    ast.Ident{Name: attrName.Value, SrcSpan: attrName.Span},
				Value:   value,
				SrcSpan: attrName.Span.Merge(value.Span()),
			}
		} else {
			p.recoverToItemEnd()
		}
	}
	if !p.at(TokenRBrace) && !p.at(TokenEOF) {
		p.report.Errorf(p.cur().Span, "a one-line block may hold at most one attribute")
		p.recoverToItemEnd()
	}
	closing, _ := p.expect(TokenRBrace)
	block := &ast.OneLineBlock{
		Type:    ident,
		Labels:  labels,
		Attr:    attr,
		SrcSpan: name.Span.Merge(closing.Span),
	}
	p.expectItemTerminator()
	return block
}

// parseLabels consumes block labels: bare identifiers or static quoted
// strings.
func (p *parser) parseLabels() []ast.Label {
	var labels []ast.Label
	for {
		switch {
		case p.at(TokenIdent):
			t := p.next()
			labels = append(labels, ast.Label{Value: t.Value, SrcSpan: t.Span})

		case p.at(TokenOQuote):
			open := p.next()
			value := ""
			span := open.Span
			if p.at(TokenStringLit) {
				lit := p.next()
				value = lit.Value
				span = span.Merge(lit.Span)
			}
			if !p.at(TokenCQuote) {
				p.report.Errorf(p.cur().Span, "a block label must be a static string")
				for !p.at(TokenCQuote) && !p.at(TokenEOF) {
					p.pos++
				}
			}
			closing, _ := p.expect(TokenCQuote)
			labels = append(labels, ast.Label{
				Value:   value,
				Quoted:  true,
				SrcSpan: span.Merge(closing.Span),
			})

		default:
			return labels
		}
	}
}

// expectItemTerminator requires a statement boundary after a body item.
func (p *parser) expectItemTerminator() {
	switch p.cur().Kind {
	case TokenNewline, TokenEOF, TokenRBrace:
		return
	default:
		t := p.cur()
		p.report.Errorf(t.Span, "expected a newline after this item, found %s", t.describe())
		p.recoverToItemEnd()
	}
}
