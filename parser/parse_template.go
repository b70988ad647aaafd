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
	"strings"

	"github.com/bufbuild/weft/ast"
)

// parseTemplate parses a quoted string or heredoc into a flat segment
// sequence. The cursor sits on the opener; closer is TokenCQuote or
// TokenCHeredoc.
func (p *parser) parseTemplate(closer TokenKind) ast.Expr {
	open := p.next()

	var kind ast.TemplateKind
	if closer == TokenCHeredoc {
		raw := open.Value // "<<EOT" or "<<-EOT"
		kind = ast.TemplateKind{
			Heredoc: true,
			Flush:   strings.HasPrefix(raw, "<<-"),
			Marker:  strings.TrimPrefix(strings.TrimPrefix(raw, "<<"), "-"),
		}
	}

	var segments []ast.TemplateSegment
	for !p.at(closer) && !p.at(TokenEOF) {
		switch p.cur().Kind {
		case TokenStringLit:
			t := p.next()
			segments = append(segments, ast.LiteralSeg{Text: t.Value, SrcSpan: t.Span})

		case TokenTemplateInterp:
			opener := p.next()
			expr := p.parseExpression()
			end := p.expectSeqEnd(closer)
			segments = append(segments, ast.InterpSeg{
				Expr:       expr,
				StripLeft:  strings.Contains(opener.Value, "~"),
				StripRight: strings.Contains(end.Value, "~"),
				SrcSpan:    opener.Span.Merge(end.Span),
			})

		case TokenTemplateControl:
			segments = append(segments, p.parseDirective(closer))

		default:
			t := p.next()
			p.report.Errorf(t.Span, "unexpected %s in template", t.describe())
		}
	}

	closing, _ := p.expect(closer)
	return &ast.TemplateExpr{
		Kind:     kind,
		Segments: segments,
		SrcSpan:  open.Span.Merge(closing.Span),
	}
}

// parseDirective parses one `%{ ... }` control directive. Recognized
// keywords get structured payloads; anything else is preserved as an
// [ast.UnknownDirective].
func (p *parser) parseDirective(closer TokenKind) ast.TemplateSegment {
	opener := p.next()

	var dir ast.Directive
	if !p.at(TokenIdent) {
		t := p.cur()
		p.report.Errorf(t.Span, "expected a directive keyword after %s, found %s",
			TokenTemplateControl, t.describe())
		dir = ast.UnknownDirective{}
	} else {
		keyword := p.next()
		switch keyword.Value {
		case "if":
			dir = ast.IfDirective{Condition: p.parseExpression()}
		case "else":
			dir = ast.ElseDirective{}
		case "endif":
			dir = ast.EndIfDirective{}
		case "for":
			dir = p.parseForDirective()
		case "endfor":
			dir = ast.EndForDirective{}
		default:
			unknown := ast.UnknownDirective{Keyword: keyword.Value}
			if !p.at(TokenTemplateSeqEnd) {
				unknown.Expr = p.parseExpression()
			}
			dir = unknown
		}
	}

	end := p.expectSeqEnd(closer)
	return ast.DirectiveSeg{
		Dir:        dir,
		StripLeft:  strings.Contains(opener.Value, "~"),
		StripRight: strings.Contains(end.Value, "~"),
		SrcSpan:    opener.Span.Merge(end.Span),
	}
}

// parseForDirective parses the header of `%{ for k, v in coll }`; the
// keyword is already consumed.
func (p *parser) parseForDirective() ast.Directive {
	first, _ := p.expect(TokenIdent)
	var keyVar *ast.Ident
	valueVar := ast.Ident{Name: first.Value, SrcSpan: first.Span}
	if p.at(TokenComma) {
		p.next()
		second, _ := p.expect(TokenIdent)
		keyVar = &ast.Ident{Name: first.Value, SrcSpan: first.Span}
		valueVar = ast.Ident{Name: second.Value, SrcSpan: second.Span}
	}

	if p.atIdent("in") {
		p.next()
	} else {
		t := p.cur()
		p.report.Errorf(t.Span, "expected %q in the for directive, found %s", "in", t.describe())
	}

	return ast.ForDirective{
		KeyVar:     keyVar,
		ValueVar:   valueVar,
		Collection: p.parseExpression(),
	}
}

// expectSeqEnd consumes the `}` that closes an interpolation or directive,
// resynchronizing past stray tokens if it is not next.
func (p *parser) expectSeqEnd(closer TokenKind) Token {
	if p.at(TokenTemplateSeqEnd) {
		return p.next()
	}
	t := p.cur()
	p.report.Errorf(t.Span, "expected %s to close the template sequence, found %s",
		TokenTemplateSeqEnd, t.describe())
	for !p.at(TokenTemplateSeqEnd) && !p.at(closer) && !p.at(TokenEOF) {
		p.pos++
	}
	if p.at(TokenTemplateSeqEnd) {
		return p.next()
	}
	return t
}
