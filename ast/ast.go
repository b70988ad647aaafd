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

// Package ast defines the syntax tree for Weft configuration documents.
//
// Nodes are pure data: they carry no behavior beyond span reporting, are
// produced once per parse, and are never mutated afterwards. Every node's
// span fully contains the spans of its children.
package ast

import "github.com/bufbuild/weft/report"

// ConfigFile is the root of a parsed configuration document.
type ConfigFile struct {
	Body *Body
}

// Span implements [report.Spanner].
func (f *ConfigFile) Span() report.Span {
	if f == nil || f.Body == nil {
		return report.Span{}
	}
	return f.Body.Span()
}

// Body is an ordered sequence of attributes and blocks.
type Body struct {
	Items   []BodyItem
	SrcSpan report.Span
}

// Span implements [report.Spanner].
func (b *Body) Span() report.Span { return b.SrcSpan }

// Attributes returns the body's attributes, in source order. One-line
// blocks' inner attributes are not included.
func (b *Body) Attributes() []*Attribute {
	var attrs []*Attribute
	for _, item := range b.Items {
		if attr, ok := item.(*Attribute); ok {
			attrs = append(attrs, attr)
		}
	}
	return attrs
}

// Attribute returns the body's attribute with the given name, or nil.
func (b *Body) Attribute(name string) *Attribute {
	for _, item := range b.Items {
		if attr, ok := item.(*Attribute); ok && attr.Name.Name == name {
			return attr
		}
	}
	return nil
}

// Blocks returns the body's blocks of the given type, in source order.
// One-line blocks are included.
func (b *Body) Blocks(blockType string) []BodyItem {
	var blocks []BodyItem
	for _, item := range b.Items {
		switch block := item.(type) {
		case *Block:
			if block.Type.Name == blockType {
				blocks = append(blocks, block)
			}
		case *OneLineBlock:
			if block.Type.Name == blockType {
				blocks = append(blocks, block)
			}
		}
	}
	return blocks
}

// BodyItem is one entry in a [Body]: an [Attribute], a [Block], or a
// [OneLineBlock].
type BodyItem interface {
	report.Spanner
	isBodyItem()
}

// Ident is an identifier occurrence: a name together with where it was
// written.
type Ident struct {
	Name    string
	SrcSpan report.Span
}

// Span implements [report.Spanner].
func (i Ident) Span() report.Span { return i.SrcSpan }

// Label is a block label, written either as a bare identifier or as a
// quoted string literal.
type Label struct {
	Value   string
	Quoted  bool
	SrcSpan report.Span
}

// Span implements [report.Spanner].
func (l Label) Span() report.Span { return l.SrcSpan }

// Attribute is a `name = expression` assignment.
type Attribute struct {
	Name    Ident
	Value   Expr
	SrcSpan report.Span
}

// Span implements [report.Spanner].
func (a *Attribute) Span() report.Span { return a.SrcSpan }

func (*Attribute) isBodyItem() {}

// Block is a nested, brace-delimited body with a type and zero or more
// labels, e.g. `resource "type" "name" { ... }`.
type Block struct {
	Type    Ident
	Labels  []Label
	Body    *Body
	SrcSpan report.Span
}

// Span implements [report.Spanner].
func (b *Block) Span() report.Span { return b.SrcSpan }

func (*Block) isBodyItem() {}

// OneLineBlock is a block written on a single line, holding at most one
// attribute, e.g. `lifecycle { on_run = "handler" }`.
type OneLineBlock struct {
	Type    Ident
	Labels  []Label
	Attr    *Attribute // nil for an empty block
	SrcSpan report.Span
}

// Span implements [report.Spanner].
func (b *OneLineBlock) Span() report.Span { return b.SrcSpan }

func (*OneLineBlock) isBodyItem() {}
