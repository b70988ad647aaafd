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

// Package schema implements static analysis of Weft documents against a
// schema that is itself written in Weft:
//
//	object {
//	  unknown = "warn"
//	  attr "name" {
//	    type     = string
//	    required = true
//	    severity = "error"
//	  }
//	}
//
// The schema declares the expected shape of a document's top-level body;
// [Check] walks a parsed document and reports mismatches. Severities are
// schema-author policy, not hardcoded: `unknown` governs undeclared
// attributes and `severity` governs type mismatches per attribute.
package schema

import (
	"github.com/bufbuild/weft/ast"
	"github.com/bufbuild/weft/report"
)

// Kind is an expected value kind, named by a bare keyword in the schema's
// `type` attribute.
type Kind int8

const (
	KindAny Kind = iota
	KindString
	KindNumber
	KindBool
	KindObject
	KindList
)

// String implements [fmt.Stringer].
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindObject:
		return "object"
	case KindList:
		return "list"
	default:
		return "any"
	}
}

var kindsByName = map[string]Kind{
	"any":    KindAny,
	"string": KindString,
	"number": KindNumber,
	"bool":   KindBool,
	"object": KindObject,
	"list":   KindList,
}

// Policy says what to do about attributes the schema does not declare.
type Policy int8

const (
	// PolicyWarn is the default: undeclared attributes get a warning, so
	// additive fields in newer documents do not hard-fail old schemas.
	PolicyWarn Policy = iota
	PolicyError
	PolicyIgnore
)

// AttrSpec is one declared attribute.
type AttrSpec struct {
	Name     string
	Type     Kind
	Required bool

	// MismatchSeverity is the severity of a type-mismatch diagnostic for
	// this attribute.
	MismatchSeverity report.Severity
}

// Schema is a decoded schema document.
type Schema struct {
	Attrs   map[string]*AttrSpec
	Unknown Policy
}

// Decode interprets a parsed schema document. Malformed declarations are
// reported to rep and skipped; the rest of the schema still applies.
func Decode(file *ast.ConfigFile, rep *report.Report) *Schema {
	s := &Schema{Attrs: map[string]*AttrSpec{}}
	if file == nil || file.Body == nil {
		return s
	}

	var object *ast.Body
	if blocks := file.Body.Blocks("object"); len(blocks) > 0 {
		switch block := blocks[0].(type) {
		case *ast.Block:
			object = block.Body
		case *ast.OneLineBlock:
			object = &ast.Body{SrcSpan: block.Span()}
			if block.Attr != nil {
				object.Items = []ast.BodyItem{block.Attr}
			}
		}
	}
	if object == nil {
		rep.Errorf(file.Span(), "schema document declares no %q block", "object")
		return s
	}

	for _, item := range object.Items {
		switch decl := item.(type) {
		case *ast.Attribute:
			if decl.Name.Name != "unknown" {
				rep.Warnf(decl.Span(), "unrecognized schema setting %q", decl.Name.Name)
				continue
			}
			switch text, ok := staticString(decl.Value); {
			case ok && text == "error":
				s.Unknown = PolicyError
			case ok && text == "warn":
				s.Unknown = PolicyWarn
			case ok && text == "ignore":
				s.Unknown = PolicyIgnore
			default:
				rep.Errorf(decl.Value.Span(),
					"schema setting %q must be one of \"error\", \"warn\", or \"ignore\"", "unknown")
			}

		case *ast.Block:
			s.decodeAttr(decl.Type, decl.Labels, decl.Body, rep)

		case *ast.OneLineBlock:
			body := &ast.Body{SrcSpan: decl.Span()}
			if decl.Attr != nil {
				body.Items = []ast.BodyItem{decl.Attr}
			}
			s.decodeAttr(decl.Type, decl.Labels, body, rep)
		}
	}
	return s
}

func (s *Schema) decodeAttr(blockType ast.Ident, labels []ast.Label, body *ast.Body, rep *report.Report) {
	if blockType.Name != "attr" {
		rep.Warnf(blockType.Span(), "unrecognized schema block %q", blockType.Name)
		return
	}
	if len(labels) != 1 {
		rep.Errorf(blockType.Span(), "an %q block needs exactly one label naming the attribute", "attr")
		return
	}

	spec := &AttrSpec{
		Name:             labels[0].Value,
		Type:             KindAny,
		MismatchSeverity: report.Error,
	}

	for _, item := range body.Items {
		attr, ok := item.(*ast.Attribute)
		if !ok {
			rep.Warnf(item.Span(), "unexpected block inside an %q declaration", "attr")
			continue
		}
		switch attr.Name.Name {
		case "type":
			kind, ok := decodeKind(attr.Value)
			if !ok {
				rep.Errorf(attr.Value.Span(),
					"unknown type keyword; expected one of string, number, bool, object, list, any")
				continue
			}
			spec.Type = kind

		case "required":
			lit, ok := attr.Value.(*ast.LiteralExpr)
			if !ok || lit.Kind != ast.BoolLit {
				rep.Errorf(attr.Value.Span(), "%q must be a boolean literal", "required")
				continue
			}
			spec.Required = lit.Bool

		case "severity":
			switch text, ok := staticString(attr.Value); {
			case ok && text == "error":
				spec.MismatchSeverity = report.Error
			case ok && text == "warn":
				spec.MismatchSeverity = report.Warning
			default:
				rep.Errorf(attr.Value.Span(), "%q must be \"error\" or \"warn\"", "severity")
			}

		default:
			rep.Warnf(attr.Span(), "unrecognized attribute setting %q", attr.Name.Name)
		}
	}

	s.Attrs[spec.Name] = spec
}

// decodeKind interprets a `type = string` style expression: a bare type
// keyword, written as a variable reference.
func decodeKind(expr ast.Expr) (Kind, bool) {
	variable, ok := expr.(*ast.VariableExpr)
	if !ok {
		return KindAny, false
	}
	kind, ok := kindsByName[variable.Name]
	return kind, ok
}

// staticString extracts the text of a template with a single literal
// segment, i.e. a plain quoted string.
func staticString(expr ast.Expr) (string, bool) {
	template, ok := expr.(*ast.TemplateExpr)
	if !ok || template.Kind.Heredoc {
		return "", false
	}
	if len(template.Segments) == 0 {
		return "", true
	}
	if len(template.Segments) != 1 {
		return "", false
	}
	lit, ok := template.Segments[0].(ast.LiteralSeg)
	if !ok {
		return "", false
	}
	return lit.Text, true
}
