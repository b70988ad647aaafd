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

package parser_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bufbuild/weft/ast"
	"github.com/bufbuild/weft/parser"
	"github.com/bufbuild/weft/report"
)

// parseAttr parses a document that must consist of a single attribute and
// returns its value expression.
func parseAttr(t *testing.T, src string) (ast.Expr, report.Report) {
	t.Helper()
	var rep report.Report
	file := parser.Parse([]byte(src), &rep)
	require.NotNil(t, file)
	require.Len(t, file.Body.Items, 1)
	attr, ok := file.Body.Items[0].(*ast.Attribute)
	require.True(t, ok, "expected an attribute, got %T", file.Body.Items[0])
	return attr.Value, rep
}

func TestParsePrecedence(t *testing.T) {
	t.Parallel()

	expr, rep := parseAttr(t, "x = 1 + 2 * 3\n")
	require.Empty(t, rep.Diagnostics)

	// The multiplication binds tighter: (1 + (2 * 3)).
	add, ok := expr.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpAdd, add.Op)

	mul, ok := add.Right.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpMultiply, mul.Op)
}

func TestParseLeftAssociativity(t *testing.T) {
	t.Parallel()

	expr, rep := parseAttr(t, "x = 1 - 2 - 3\n")
	require.Empty(t, rep.Diagnostics)

	// ((1 - 2) - 3), not (1 - (2 - 3)).
	outer, ok := expr.(*ast.BinaryExpr)
	require.True(t, ok)
	inner, ok := outer.Left.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpSubtract, inner.Op)

	right, ok := outer.Right.(*ast.LiteralExpr)
	require.True(t, ok)
	assert.Equal(t, "3", right.Num)
}

func TestParseUnaryBindsTighter(t *testing.T) {
	t.Parallel()

	expr, rep := parseAttr(t, "x = -a + b\n")
	require.Empty(t, rep.Diagnostics)

	add, ok := expr.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpAdd, add.Op)
	_, ok = add.Left.(*ast.UnaryExpr)
	assert.True(t, ok)
}

func TestParseConditional(t *testing.T) {
	t.Parallel()

	expr, rep := parseAttr(t, "x = a < 1 ? \"lo\" : \"hi\"\n")
	require.Empty(t, rep.Diagnostics)

	cond, ok := expr.(*ast.ConditionalExpr)
	require.True(t, ok)
	_, ok = cond.Condition.(*ast.BinaryExpr)
	assert.True(t, ok)
	_, ok = cond.TrueExpr.(*ast.TemplateExpr)
	assert.True(t, ok)
}

func TestParseTraversal(t *testing.T) {
	t.Parallel()

	expr, rep := parseAttr(t, "x = a.b[0].c.0[*].d.*\n")
	require.Empty(t, rep.Diagnostics)

	trav, ok := expr.(*ast.TraversalExpr)
	require.True(t, ok)
	require.Len(t, trav.Ops, 7)

	assert.IsType(t, ast.GetAttr{}, trav.Ops[0])
	assert.IsType(t, ast.Index{}, trav.Ops[1])
	assert.IsType(t, ast.GetAttr{}, trav.Ops[2])
	assert.IsType(t, ast.LegacyIndex{}, trav.Ops[3])
	assert.IsType(t, ast.FullSplat{}, trav.Ops[4])
	assert.IsType(t, ast.GetAttr{}, trav.Ops[5])
	assert.IsType(t, ast.AttrSplat{}, trav.Ops[6])

	legacy := trav.Ops[3].(ast.LegacyIndex)
	assert.Equal(t, "0", legacy.Value)
}

func TestParseCall(t *testing.T) {
	t.Parallel()

	expr, rep := parseAttr(t, "x = max(1, rest...)\n")
	require.Empty(t, rep.Diagnostics)

	call, ok := expr.(*ast.CallExpr)
	require.True(t, ok)
	assert.Equal(t, "max", call.Name.Name)
	assert.Len(t, call.Args, 2)
	assert.True(t, call.ExpandFinal)
}

func TestParseCollections(t *testing.T) {
	t.Parallel()

	expr, rep := parseAttr(t, "x = [1, \"two\", [3]]\n")
	require.Empty(t, rep.Diagnostics)
	tuple, ok := expr.(*ast.TupleExpr)
	require.True(t, ok)
	assert.Len(t, tuple.Items, 3)

	expr, rep = parseAttr(t, "x = {a = 1, (k) = 2, b: 3}\n")
	require.Empty(t, rep.Diagnostics)
	object, ok := expr.(*ast.ObjectExpr)
	require.True(t, ok)
	require.Len(t, object.Items, 3)
	assert.NotNil(t, object.Items[0].Key.Ident)
	assert.NotNil(t, object.Items[1].Key.Expr, "parenthesized keys are computed")
	assert.NotNil(t, object.Items[2].Key.Ident)
}

func TestParseForExpr(t *testing.T) {
	t.Parallel()

	expr, rep := parseAttr(t, "x = [for v in items : v * 2 if v > 0]\n")
	require.Empty(t, rep.Diagnostics)
	forTuple, ok := expr.(*ast.ForExpr)
	require.True(t, ok)
	assert.Nil(t, forTuple.KeyVar)
	assert.Nil(t, forTuple.KeyExpr)
	assert.Equal(t, "v", forTuple.ValueVar.Name)
	assert.NotNil(t, forTuple.Condition)

	expr, rep = parseAttr(t, "x = {for k, v in items : k => v...}\n")
	require.Empty(t, rep.Diagnostics)
	forObject, ok := expr.(*ast.ForExpr)
	require.True(t, ok)
	require.NotNil(t, forObject.KeyVar)
	assert.Equal(t, "k", forObject.KeyVar.Name)
	assert.NotNil(t, forObject.KeyExpr)
	assert.True(t, forObject.Group)
}

func TestParseBlocks(t *testing.T) {
	t.Parallel()

	src := strings.Join([]string{
		`resource "disk" primary {`,
		`  size = 100`,
		`  nested {`,
		`    deep = true`,
		`  }`,
		`}`,
		`tags { env = "prod" }`,
		``,
	}, "\n")

	var rep report.Report
	file := parser.Parse([]byte(src), &rep)
	require.Empty(t, rep.Diagnostics)
	require.Len(t, file.Body.Items, 2)

	block, ok := file.Body.Items[0].(*ast.Block)
	require.True(t, ok)
	assert.Equal(t, "resource", block.Type.Name)
	require.Len(t, block.Labels, 2)
	assert.Equal(t, "disk", block.Labels[0].Value)
	assert.True(t, block.Labels[0].Quoted)
	assert.Equal(t, "primary", block.Labels[1].Value)
	assert.False(t, block.Labels[1].Quoted)
	require.Len(t, block.Body.Items, 2)

	oneLine, ok := file.Body.Items[1].(*ast.OneLineBlock)
	require.True(t, ok)
	assert.Equal(t, "tags", oneLine.Type.Name)
	require.NotNil(t, oneLine.Attr)
	assert.Equal(t, "env", oneLine.Attr.Name.Name)
}

func TestParseTemplates(t *testing.T) {
	t.Parallel()

	expr, rep := parseAttr(t, "x = \"a ${~ b ~} c %{ if d }e%{ endif }\"\n")
	require.Empty(t, rep.Diagnostics)

	template, ok := expr.(*ast.TemplateExpr)
	require.True(t, ok)
	assert.False(t, template.Kind.Heredoc)
	require.Len(t, template.Segments, 6)

	interp, ok := template.Segments[1].(ast.InterpSeg)
	require.True(t, ok)
	assert.True(t, interp.StripLeft)
	assert.True(t, interp.StripRight)

	ifSeg, ok := template.Segments[3].(ast.DirectiveSeg)
	require.True(t, ok)
	assert.IsType(t, ast.IfDirective{}, ifSeg.Dir)

	endSeg, ok := template.Segments[5].(ast.DirectiveSeg)
	require.True(t, ok)
	assert.IsType(t, ast.EndIfDirective{}, endSeg.Dir)
}

func TestParseHeredocTemplate(t *testing.T) {
	t.Parallel()

	expr, rep := parseAttr(t, "x = <<-EOT\n  line\nEOT\n")
	require.Empty(t, rep.Diagnostics)

	template, ok := expr.(*ast.TemplateExpr)
	require.True(t, ok)
	assert.True(t, template.Kind.Heredoc)
	assert.True(t, template.Kind.Flush)
	assert.Equal(t, "EOT", template.Kind.Marker)
}

func TestParseUnknownDirective(t *testing.T) {
	t.Parallel()

	expr, rep := parseAttr(t, "x = \"%{ unless cond }\"\n")
	require.Empty(t, rep.Diagnostics, "unknown directives parse cleanly")

	template := expr.(*ast.TemplateExpr)
	require.Len(t, template.Segments, 1)
	seg := template.Segments[0].(ast.DirectiveSeg)
	unknown, ok := seg.Dir.(ast.UnknownDirective)
	require.True(t, ok)
	assert.Equal(t, "unless", unknown.Keyword)
	assert.NotNil(t, unknown.Expr)
}

func TestParseRecovery(t *testing.T) {
	t.Parallel()

	// The malformed first attribute must not swallow the second one.
	src := "a = +\nb = 2\n"
	var rep report.Report
	file := parser.Parse([]byte(src), &rep)

	require.True(t, rep.HasErrors())
	require.Len(t, file.Body.Items, 2)

	broken := file.Body.Items[0].(*ast.Attribute)
	_, ok := broken.Value.(*ast.InvalidExpr)
	assert.True(t, ok)

	good := file.Body.Items[1].(*ast.Attribute)
	lit, ok := good.Value.(*ast.LiteralExpr)
	require.True(t, ok)
	assert.Equal(t, "2", lit.Num)
}

func TestParseNestingBound(t *testing.T) {
	t.Parallel()

	src := "x = " + strings.Repeat("(", 200) + "1" + strings.Repeat(")", 200) + "\n"
	var rep report.Report
	file := parser.Parse([]byte(src), &rep)

	require.NotNil(t, file)
	require.True(t, rep.HasErrors())

	// The bound is reported once, not once per level.
	count := 0
	for _, d := range rep.Diagnostics {
		if strings.Contains(d.Message, "nesting") {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestParseFullTree(t *testing.T) {
	t.Parallel()

	var rep report.Report
	file := parser.Parse([]byte("port = 8080\n"), &rep)
	require.Empty(t, rep.Diagnostics)

	want := &ast.ConfigFile{
		Body: &ast.Body{
			Items: []ast.BodyItem{
				&ast.Attribute{
					Name: ast.Ident{
						Name:    "port",
						SrcSpan: report.Span{Start: 0, End: 4},
					},
					Value: &ast.LiteralExpr{
						Kind:    ast.NumberLit,
						Num:     "8080",
						SrcSpan: report.Span{Start: 7, End: 11},
					},
					SrcSpan: report.Span{Start: 0, End: 11},
				},
			},
			SrcSpan: report.Span{Start: 0, End: 11},
		},
	}
	if diff := cmp.Diff(want, file); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestParseLiterals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src  string
		kind ast.LiteralKind
	}{
		{src: "x = 42\n", kind: ast.NumberLit},
		{src: "x = true\n", kind: ast.BoolLit},
		{src: "x = false\n", kind: ast.BoolLit},
		{src: "x = null\n", kind: ast.NullLit},
	}
	for _, test := range tests {
		expr, rep := parseAttr(t, test.src)
		require.Empty(t, rep.Diagnostics, "%q", test.src)
		lit, ok := expr.(*ast.LiteralExpr)
		require.True(t, ok, "%q", test.src)
		assert.Equal(t, test.kind, lit.Kind, "%q", test.src)
	}
}
