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

package weft_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/bufbuild/weft"
	"github.com/bufbuild/weft/ast"
	"github.com/bufbuild/weft/eval"
	"github.com/bufbuild/weft/report"
)

func TestValidateClean(t *testing.T) {
	t.Parallel()

	file, rep := weft.Validate([]byte("a = 1\n"), nil)
	require.NotNil(t, file)
	assert.Empty(t, rep.Diagnostics)
	assert.Len(t, file.Body.Items, 1)
	assert.NotNil(t, file.Body.Attribute("a"))
	assert.Nil(t, file.Body.Attribute("b"))
}

func TestValidateAlwaysReturnsTree(t *testing.T) {
	t.Parallel()

	file, rep := weft.Validate([]byte("a = +\nb = 2\n"), nil)
	require.NotNil(t, file, "validation is fail-open")
	assert.True(t, rep.HasErrors())
	assert.Len(t, file.Body.Items, 2)

	broken := file.Body.Items[0].(*ast.Attribute)
	assert.IsType(t, &ast.InvalidExpr{}, broken.Value)
}

func TestValidateWithSchema(t *testing.T) {
	t.Parallel()

	schemaSrc := []byte(`
object {
  attr "name" {
    type     = string
    required = true
  }
}
`)

	_, rep := weft.Validate([]byte("name = \"vizier\"\n"), schemaSrc)
	assert.Empty(t, rep.Diagnostics)

	_, rep = weft.Validate([]byte("other = 1\n"), schemaSrc)
	assert.True(t, rep.HasErrors(), "missing required attribute")

	// Diagnostic order follows pipeline stage order.
	_, rep = weft.Validate([]byte("name = 42\nextra = 1\n"), schemaSrc)
	require.NotEmpty(t, rep.Diagnostics)
	for _, d := range rep.Diagnostics {
		assert.NotEmpty(t, d.Message)
	}
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	schemaSrc := []byte(`
object {
  attr "name" {
    type     = string
    required = true
  }
}
`)

	val, rep := weft.Evaluate([]byte("name = \"vizier\"\n"), schemaSrc, nil)
	require.Empty(t, rep.Diagnostics)
	assert.True(t, val.RawEquals(cty.ObjectVal(map[string]cty.Value{
		"name": cty.StringVal("vizier"),
	})))

	// The same document resolved through a caller-supplied context.
	ctx := eval.NewContext()
	ctx.Variables["region"] = cty.StringVal("vizier")
	val, rep = weft.Evaluate([]byte("name = region\n"), schemaSrc, ctx)
	require.Empty(t, rep.Diagnostics)
	assert.True(t, val.RawEquals(cty.ObjectVal(map[string]cty.Value{
		"name": cty.StringVal("vizier"),
	})))

	// A variable reference has no statically-known kind, so the schema lets
	// it through; the failure surfaces at evaluation, fail-open.
	val, rep = weft.Evaluate([]byte("name = unknown\n"), schemaSrc, nil)
	require.True(t, rep.HasErrors())
	assert.Contains(t, rep.Diagnostics[0].Message, `"unknown"`)
	assert.True(t, val.RawEquals(cty.ObjectVal(map[string]cty.Value{
		"name": cty.NullVal(cty.DynamicPseudoType),
	})))
}

func TestEvaluateFailOpen(t *testing.T) {
	t.Parallel()

	// An unknown variable is an evaluation error, not a validation error:
	// the value still comes back, with a null where the lookup failed.
	val, rep := weft.Evaluate([]byte("name = missing\nport = 80\n"), nil, nil)

	require.True(t, rep.HasErrors())
	found := false
	for _, d := range rep.Diagnostics {
		if d.Severity == report.Error {
			assert.Contains(t, d.Message, `"missing"`)
			found = true
		}
	}
	require.True(t, found)

	require.True(t, val.Type().IsObjectType())
	assert.True(t, val.GetAttr("name").IsNull())
	assert.True(t, val.GetAttr("port").RawEquals(cty.NumberIntVal(80)))
}

func TestEvaluateFailClosed(t *testing.T) {
	t.Parallel()

	// A validation error withholds evaluation entirely.
	val, rep := weft.Evaluate([]byte("a = +\n"), nil, nil)
	require.True(t, rep.HasErrors())
	assert.Equal(t, cty.NilVal, val)
}

func TestEvaluateSchemaWarningsDoNotBlock(t *testing.T) {
	t.Parallel()

	schemaSrc := []byte(`
object {
  unknown = "warn"
}
`)
	val, rep := weft.Evaluate([]byte("extra = 1\n"), schemaSrc, nil)
	assert.False(t, rep.HasErrors())
	assert.NotEmpty(t, rep.Diagnostics, "the unknown-attribute warning survives")
	assert.True(t, val.RawEquals(cty.ObjectVal(map[string]cty.Value{
		"extra": cty.NumberIntVal(1),
	})))
}

// renderScalar formats an evaluated scalar back as document source text.
func renderScalar(t *testing.T, val cty.Value) string {
	t.Helper()
	switch {
	case val.IsNull():
		return "null"
	case val.Type().Equals(cty.String):
		return strconv.Quote(val.AsString())
	case val.Type().Equals(cty.Bool):
		if val.True() {
			return "true"
		}
		return "false"
	case val.Type().Equals(cty.Number):
		return val.AsBigFloat().Text('g', -1)
	}
	t.Fatalf("no scalar rendering for %s", val.Type().FriendlyName())
	return ""
}

func TestEvaluateScalarRoundTrip(t *testing.T) {
	t.Parallel()

	// Rendering an evaluated scalar back to source and evaluating that
	// source again yields an equal value.
	sources := []string{
		`a = "vizier"`,
		`a = "tabs\tand \"quotes\" and \\"`,
		"a = 42",
		"a = 1.5e3",
		"a = -0.25",
		"a = true",
		"a = false",
		"a = null",
	}
	for _, src := range sources {
		val, rep := weft.Evaluate([]byte(src+"\n"), nil, nil)
		require.Empty(t, rep.Diagnostics, src)
		first := val.GetAttr("a")

		again, rep := weft.Evaluate([]byte("a = "+renderScalar(t, first)+"\n"), nil, nil)
		require.Empty(t, rep.Diagnostics, src)
		assert.True(t, first.RawEquals(again.GetAttr("a")), src)
	}
}

func TestUnterminatedHeredoc(t *testing.T) {
	t.Parallel()

	file, rep := weft.Validate([]byte("greeting = <<EOT\nhello\n"), nil)

	// Exactly one error, and the attribute still made it into the tree with
	// its partial template.
	require.Len(t, rep.Diagnostics, 1)
	assert.Equal(t, report.Error, rep.Diagnostics[0].Severity)
	require.Len(t, file.Body.Items, 1)
	attr := file.Body.Items[0].(*ast.Attribute)
	assert.IsType(t, &ast.TemplateExpr{}, attr.Value)
}

func TestHostileInputsDoNotPanic(t *testing.T) {
	t.Parallel()

	inputs := [][]byte{
		nil,
		{},
		[]byte("\x00\xff\xfe"),
		[]byte(`"`),
		[]byte("a = \"${"),
		[]byte("{{{{{{"),
		[]byte("x = <<EOT"),
		[]byte("= = ="),
	}
	for _, src := range inputs {
		file, _ := weft.Validate(src, nil)
		assert.NotNil(t, file, "%q", src)
		weft.Evaluate(src, nil, nil)
	}
}
