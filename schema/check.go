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

package schema

import (
	"github.com/bufbuild/weft/ast"
	"github.com/bufbuild/weft/report"
)

// Check validates the top-level body of file against s, appending
// diagnostics to rep.
//
// Types are only checked where the expression form makes the kind
// statically known (literals, templates, tuple/object constructors, and
// for-expressions). Variables, traversals, calls, and conditionals are
// presumed compatible; their shapes are the evaluator's concern.
func Check(file *ast.ConfigFile, s *Schema, rep *report.Report) {
	if file == nil || file.Body == nil || s == nil {
		return
	}

	seen := map[string]bool{}
	for _, item := range file.Body.Items {
		switch decl := item.(type) {
		case *ast.Attribute:
			seen[decl.Name.Name] = true
			spec, declared := s.Attrs[decl.Name.Name]
			if !declared {
				s.reportUnknown(rep, decl.Name.Span(), decl.Name.Name)
				continue
			}
			checkKind(decl, spec, rep)

		case *ast.Block:
			seen[decl.Type.Name] = true
			s.checkBlock(rep, decl.Type)

		case *ast.OneLineBlock:
			seen[decl.Type.Name] = true
			s.checkBlock(rep, decl.Type)
		}
	}

	for _, spec := range s.Attrs {
		if spec.Required && !seen[spec.Name] {
			rep.Errorf(file.Span(), "missing required attribute %q", spec.Name)
		}
	}
}

// checkBlock treats a top-level block as an object-kinded attribute: it
// satisfies a declaration of kind object or any, conflicts with anything
// else, and falls under the unknown-attribute policy when undeclared.
func (s *Schema) checkBlock(rep *report.Report, blockType ast.Ident) {
	spec, declared := s.Attrs[blockType.Name]
	if !declared {
		s.reportUnknown(rep, blockType.Span(), blockType.Name)
		return
	}
	if spec.Type != KindAny && spec.Type != KindObject {
		mismatch(rep, spec, blockType.Span(), blockType.Name, KindObject)
	}
}

func (s *Schema) reportUnknown(rep *report.Report, span report.Span, name string) {
	switch s.Unknown {
	case PolicyError:
		rep.Errorf(span, "unknown attribute %q is not declared in the schema", name)
	case PolicyWarn:
		rep.Warnf(span, "unknown attribute %q is not declared in the schema", name)
	case PolicyIgnore:
	}
}

func checkKind(attr *ast.Attribute, spec *AttrSpec, rep *report.Report) {
	if spec.Type == KindAny {
		return
	}
	actual, known := staticKind(attr.Value)
	if !known || actual == spec.Type {
		return
	}
	mismatch(rep, spec, attr.Value.Span(), attr.Name.Name, actual)
}

func mismatch(rep *report.Report, spec *AttrSpec, span report.Span, name string, actual Kind) {
	if spec.MismatchSeverity == report.Warning {
		rep.Warnf(span, "attribute %q should be %s, not %s", name, spec.Type, actual)
		return
	}
	rep.Errorf(span, "attribute %q must be %s, not %s", name, spec.Type, actual)
}

// staticKind infers an expression's kind from its form alone. The second
// result is false when the kind depends on evaluation.
func staticKind(expr ast.Expr) (Kind, bool) {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		switch e.Kind {
		case ast.NumberLit:
			return KindNumber, true
		case ast.BoolLit:
			return KindBool, true
		default:
			// Null satisfies every kind.
			return KindAny, false
		}
	case *ast.TemplateExpr:
		return KindString, true
	case *ast.TupleExpr:
		return KindList, true
	case *ast.ObjectExpr:
		return KindObject, true
	case *ast.ForExpr:
		if e.KeyExpr != nil {
			return KindObject, true
		}
		return KindList, true
	default:
		return KindAny, false
	}
}
