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

// Package weft implements the Weft configuration language: a declarative,
// HCL-flavored syntax of attributes, blocks, and expressions over a small
// value model.
//
// The pipeline has four stages, each usable on its own:
//
//   - [github.com/bufbuild/weft/parser] lexes and parses source bytes into
//     a syntax tree, recovering from errors rather than stopping.
//   - [github.com/bufbuild/weft/ast] defines that tree as pure data.
//   - [github.com/bufbuild/weft/schema] statically checks a document
//     against a schema that is itself written in Weft.
//   - [github.com/bufbuild/weft/eval] evaluates the tree into a
//     [github.com/zclconf/go-cty/cty.Value].
//
// This package is the façade over those stages. [Validate] is fail-open:
// it always produces a tree and as many diagnostics as it can find.
// [Evaluate] is fail-closed at the stage boundary: if validation found
// errors it refuses to evaluate, but once evaluation starts it is
// fail-open again, substituting nulls for erroring expressions.
package weft

import (
	"github.com/zclconf/go-cty/cty"

	"github.com/bufbuild/weft/ast"
	"github.com/bufbuild/weft/eval"
	"github.com/bufbuild/weft/parser"
	"github.com/bufbuild/weft/report"
	"github.com/bufbuild/weft/schema"
)

// Validate parses src and, when schemaSrc is non-nil, checks the result
// against the schema it describes.
//
// The returned tree is always non-nil and represents a best effort:
// malformed regions appear as [ast.InvalidExpr] nodes. Callers decide what
// to do with the diagnostics; a report with only warnings is still a
// usable document.
func Validate(src, schemaSrc []byte) (*ast.ConfigFile, report.Report) {
	var rep report.Report
	file := parser.Parse(src, &rep)
	if schemaSrc == nil {
		return file, rep
	}

	// Schema problems are the schema author's bugs, not the document's, but
	// they land in the same report so nothing is silently dropped.
	s := schema.Decode(parser.Parse(schemaSrc, &rep), &rep)
	schema.Check(file, s, &rep)
	return file, rep
}

// Evaluate validates src (against schemaSrc, when non-nil) and evaluates
// it with ctx. A nil ctx means an empty variable scope with the default
// function table.
//
// If validation reports any error-severity diagnostic, evaluation is
// skipped entirely and the result is [cty.NilVal]. Otherwise the result is
// the document's object value, returned even when evaluation itself adds
// errors to the report.
func Evaluate(src, schemaSrc []byte, ctx *eval.Context) (cty.Value, report.Report) {
	file, rep := Validate(src, schemaSrc)
	if rep.HasErrors() {
		return cty.NilVal, rep
	}
	return eval.Eval(file, ctx, &rep), rep
}
