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

// Expr is a Weft expression. It is a closed sum: the implementations in
// this package are the only ones.
type Expr interface {
	report.Spanner
	isExpr()
}

// LiteralKind discriminates the scalar literal forms.
type LiteralKind int8

const (
	// NumberLit is a numeric literal. The digits are kept as written; the
	// evaluator parses them into a number value.
	NumberLit LiteralKind = 1 + iota
	// BoolLit is `true` or `false`.
	BoolLit
	// NullLit is `null`.
	NullLit
)

// LiteralExpr is a scalar literal.
type LiteralExpr struct {
	Kind LiteralKind

	// Num holds the source digits when Kind is NumberLit.
	Num string
	// Bool holds the value when Kind is BoolLit.
	Bool bool

	SrcSpan report.Span
}

// Span implements [report.Spanner].
func (e *LiteralExpr) Span() report.Span { return e.SrcSpan }

func (*LiteralExpr) isExpr() {}

// VariableExpr is a bare identifier resolved against the evaluation
// context.
type VariableExpr struct {
	Name    string
	SrcSpan report.Span
}

// Span implements [report.Spanner].
func (e *VariableExpr) Span() report.Span { return e.SrcSpan }

func (*VariableExpr) isExpr() {}

// TupleExpr is a `[a, b, c]` literal.
type TupleExpr struct {
	Items   []Expr
	SrcSpan report.Span
}

// Span implements [report.Spanner].
func (e *TupleExpr) Span() report.Span { return e.SrcSpan }

func (*TupleExpr) isExpr() {}

// ObjectKey is an object item's key: either a bare identifier or an
// arbitrary expression (a computed key).
type ObjectKey struct {
	// Exactly one of Ident and Expr is set.
	Ident *Ident
	Expr  Expr
}

// Span implements [report.Spanner].
func (k ObjectKey) Span() report.Span {
	if k.Ident != nil {
		return k.Ident.Span()
	}
	if k.Expr != nil {
		return k.Expr.Span()
	}
	return report.Span{}
}

// ObjectItem is one `key = value` (or `key: value`) entry in an object
// literal.
type ObjectItem struct {
	Key     ObjectKey
	Value   Expr
	SrcSpan report.Span
}

// Span implements [report.Spanner].
func (i ObjectItem) Span() report.Span { return i.SrcSpan }

// ObjectExpr is a `{k = v, ...}` literal.
type ObjectExpr struct {
	Items   []ObjectItem
	SrcSpan report.Span
}

// Span implements [report.Spanner].
func (e *ObjectExpr) Span() report.Span { return e.SrcSpan }

func (*ObjectExpr) isExpr() {}

// CallExpr is a function call. ExpandFinal records a trailing `...`, which
// asks the evaluator to splat the final argument's elements into the
// positional argument list.
type CallExpr struct {
	Name        Ident
	Args        []Expr
	ExpandFinal bool
	SrcSpan     report.Span
}

// Span implements [report.Spanner].
func (e *CallExpr) Span() report.Span { return e.SrcSpan }

func (*CallExpr) isExpr() {}

// TraversalExpr applies a chain of attribute/index/splat operations to a
// target expression.
type TraversalExpr struct {
	Target  Expr
	Ops     []TraversalOp
	SrcSpan report.Span
}

// Span implements [report.Spanner].
func (e *TraversalExpr) Span() report.Span { return e.SrcSpan }

func (*TraversalExpr) isExpr() {}

// TraversalOp is one step of a [TraversalExpr].
type TraversalOp interface {
	report.Spanner
	isTraversalOp()
}

// GetAttr is `.name`.
type GetAttr struct {
	Name    Ident
	SrcSpan report.Span
}

// Span implements [report.Spanner].
func (op GetAttr) Span() report.Span { return op.SrcSpan }

func (GetAttr) isTraversalOp() {}

// Index is `[key]`.
type Index struct {
	Key     Expr
	SrcSpan report.Span
}

// Span implements [report.Spanner].
func (op Index) Span() report.Span { return op.SrcSpan }

func (Index) isTraversalOp() {}

// LegacyIndex is the legacy `.0` numeric-attribute form. The digits are
// kept as written.
type LegacyIndex struct {
	Value   string
	SrcSpan report.Span
}

// Span implements [report.Spanner].
func (op LegacyIndex) Span() report.Span { return op.SrcSpan }

func (LegacyIndex) isTraversalOp() {}

// AttrSplat is `.*`: it distributes the remaining operations over every
// element of the target.
type AttrSplat struct {
	SrcSpan report.Span
}

// Span implements [report.Spanner].
func (op AttrSplat) Span() report.Span { return op.SrcSpan }

func (AttrSplat) isTraversalOp() {}

// FullSplat is `[*]`.
type FullSplat struct {
	SrcSpan report.Span
}

// Span implements [report.Spanner].
func (op FullSplat) Span() report.Span { return op.SrcSpan }

func (FullSplat) isTraversalOp() {}

// UnaryExpr is `-x` or `!x`.
type UnaryExpr struct {
	Op      UnaryOp
	Operand Expr
	SrcSpan report.Span
}

// Span implements [report.Spanner].
func (e *UnaryExpr) Span() report.Span { return e.SrcSpan }

func (*UnaryExpr) isExpr() {}

// BinaryExpr is a binary operator application.
type BinaryExpr struct {
	Left    Expr
	Op      BinaryOp
	Right   Expr
	SrcSpan report.Span
}

// Span implements [report.Spanner].
func (e *BinaryExpr) Span() report.Span { return e.SrcSpan }

func (*BinaryExpr) isExpr() {}

// ConditionalExpr is `cond ? a : b`.
type ConditionalExpr struct {
	Condition Expr
	TrueExpr  Expr
	FalseExpr Expr
	SrcSpan   report.Span
}

// Span implements [report.Spanner].
func (e *ConditionalExpr) Span() report.Span { return e.SrcSpan }

func (*ConditionalExpr) isExpr() {}

// ForExpr is a tuple or object comprehension:
//
//	[for k, v in coll : v if cond]
//	{for k, v in coll : key => value...}
//
// KeyExpr is nil for the tuple form. Group records the `...` grouping
// marker on the object form, which collects duplicate keys into tuples.
type ForExpr struct {
	KeyVar     *Ident // nil when only a value variable was bound
	ValueVar   Ident
	Collection Expr
	KeyExpr    Expr // nil for the tuple form
	ValueExpr  Expr
	Group      bool
	Condition  Expr // nil when absent
	SrcSpan    report.Span
}

// Span implements [report.Spanner].
func (e *ForExpr) Span() report.Span { return e.SrcSpan }

func (*ForExpr) isExpr() {}

// InvalidExpr is the parser's error-recovery placeholder: it stands in for
// source text that could not be parsed, so that one malformed expression
// never aborts the parse. Evaluating it yields null plus a diagnostic.
type InvalidExpr struct {
	SrcSpan report.Span
}

// Span implements [report.Spanner].
func (e *InvalidExpr) Span() report.Span { return e.SrcSpan }

func (*InvalidExpr) isExpr() {}
