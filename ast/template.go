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

package ast

import "github.com/bufbuild/weft/report"

// TemplateKind records how a template was written in the source.
type TemplateKind struct {
	// Heredoc is true for `<<MARKER` templates, false for quoted strings.
	Heredoc bool
	// Flush is true for the `<<-MARKER` form, which strips the lines'
	// common leading whitespace.
	Flush bool
	// Marker is the heredoc's terminator identifier.
	Marker string
}

// TemplateExpr is a string template: a quoted string or heredoc whose body
// is a flat sequence of literal runs, interpolations, and control
// directives.
//
// Directives are deliberately not nested into a tree here. The segment
// list is a small control-flow program that the evaluator interprets,
// pairing if/endif and for/endfor markers at evaluation time.
type TemplateExpr struct {
	Kind     TemplateKind
	Segments []TemplateSegment
	SrcSpan  report.Span
}

// Span implements [report.Spanner].
func (e *TemplateExpr) Span() report.Span { return e.SrcSpan }

func (*TemplateExpr) isExpr() {}

// TemplateSegment is one piece of a [TemplateExpr].
type TemplateSegment interface {
	report.Spanner
	isTemplateSegment()
}

// LiteralSeg is a run of literal text between markers.
type LiteralSeg struct {
	Text    string
	SrcSpan report.Span
}

// Span implements [report.Spanner].
func (s LiteralSeg) Span() report.Span { return s.SrcSpan }

func (LiteralSeg) isTemplateSegment() {}

// InterpSeg is a `${...}` interpolation. StripLeft/StripRight record the
// `~` markers that trim whitespace from the adjacent literal segments.
type InterpSeg struct {
	Expr       Expr
	StripLeft  bool
	StripRight bool
	SrcSpan    report.Span
}

// Span implements [report.Spanner].
func (s InterpSeg) Span() report.Span { return s.SrcSpan }

func (InterpSeg) isTemplateSegment() {}

// DirectiveSeg is a `%{...}` control directive.
type DirectiveSeg struct {
	Dir        Directive
	StripLeft  bool
	StripRight bool
	SrcSpan    report.Span
}

// Span implements [report.Spanner].
func (s DirectiveSeg) Span() report.Span { return s.SrcSpan }

func (DirectiveSeg) isTemplateSegment() {}

// Directive is the payload of a [DirectiveSeg].
type Directive interface {
	isDirective()
}

// IfDirective is `%{ if cond }`.
type IfDirective struct {
	Condition Expr
}

func (IfDirective) isDirective() {}

// ElseDirective is `%{ else }`.
type ElseDirective struct{}

func (ElseDirective) isDirective() {}

// EndIfDirective is `%{ endif }`.
type EndIfDirective struct{}

func (EndIfDirective) isDirective() {}

// ForDirective is `%{ for v in coll }` or `%{ for k, v in coll }`.
type ForDirective struct {
	KeyVar     *Ident // nil when only a value variable was bound
	ValueVar   Ident
	Collection Expr
}

func (ForDirective) isDirective() {}

// EndForDirective is `%{ endfor }`.
type EndForDirective struct{}

func (EndForDirective) isDirective() {}

// UnknownDirective preserves a directive whose keyword is not recognized.
// Unknown keywords are kept rather than rejected so that documents written
// for a newer dialect still parse.
type UnknownDirective struct {
	Keyword string
	Expr    Expr // nil when the directive had no argument
}

func (UnknownDirective) isDirective() {}
