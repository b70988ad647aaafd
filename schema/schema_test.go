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

package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bufbuild/weft/parser"
	"github.com/bufbuild/weft/report"
	"github.com/bufbuild/weft/schema"
)

func decode(t *testing.T, src string) (*schema.Schema, report.Report) {
	t.Helper()
	var rep report.Report
	file := parser.Parse([]byte(src), &rep)
	require.False(t, rep.HasErrors(), "schema source must parse: %v", rep.Diagnostics)
	s := schema.Decode(file, &rep)
	require.NotNil(t, s)
	return s, rep
}

func check(t *testing.T, src string, s *schema.Schema) report.Report {
	t.Helper()
	var rep report.Report
	file := parser.Parse([]byte(src), &rep)
	require.False(t, rep.HasErrors(), "document must parse: %v", rep.Diagnostics)
	schema.Check(file, s, &rep)
	return rep
}

const schemaSrc = `
object {
  unknown = "warn"
  attr "name" {
    type     = string
    required = true
  }
  attr "replicas" {
    type     = number
    severity = "warn"
  }
  attr "settings" { type = object }
}
`

func TestDecode(t *testing.T) {
	t.Parallel()

	s, rep := decode(t, schemaSrc)
	assert.Empty(t, rep.Diagnostics)
	assert.Equal(t, schema.PolicyWarn, s.Unknown)
	require.Len(t, s.Attrs, 3)

	name := s.Attrs["name"]
	require.NotNil(t, name)
	assert.Equal(t, schema.KindString, name.Type)
	assert.True(t, name.Required)
	assert.Equal(t, report.Error, name.MismatchSeverity)

	replicas := s.Attrs["replicas"]
	require.NotNil(t, replicas)
	assert.Equal(t, schema.KindNumber, replicas.Type)
	assert.False(t, replicas.Required)
	assert.Equal(t, report.Warning, replicas.MismatchSeverity)
}

func TestDecodeMalformed(t *testing.T) {
	t.Parallel()

	// A bad declaration is reported and skipped; the rest still decodes.
	s, rep := decode(t, `
object {
  attr "good" { type = string }
  attr {
    type = string
  }
  attr "odd" {
    type     = spaceship
    required = "yes"
  }
}
`)
	assert.True(t, rep.HasErrors())
	require.NotNil(t, s.Attrs["good"])
	assert.Equal(t, schema.KindString, s.Attrs["good"].Type)

	// Bad settings fall back to permissive defaults.
	odd := s.Attrs["odd"]
	require.NotNil(t, odd)
	assert.Equal(t, schema.KindAny, odd.Type)
	assert.False(t, odd.Required)
}

func TestDecodeNoObjectBlock(t *testing.T) {
	t.Parallel()

	var rep report.Report
	file := parser.Parse([]byte("a = 1\n"), &rep)
	s := schema.Decode(file, &rep)
	require.NotNil(t, s)
	assert.True(t, rep.HasErrors())
	assert.Empty(t, s.Attrs)
}

func TestCheckRequired(t *testing.T) {
	t.Parallel()

	s, _ := decode(t, schemaSrc)
	rep := check(t, "replicas = 3\n", s)

	require.True(t, rep.HasErrors())
	found := false
	for _, d := range rep.Diagnostics {
		if d.Severity == report.Error {
			assert.Contains(t, d.Message, "name")
			found = true
		}
	}
	assert.True(t, found)
}

func TestCheckTypeMismatch(t *testing.T) {
	t.Parallel()

	s, _ := decode(t, schemaSrc)

	// name declared string, given a number: error severity by default.
	rep := check(t, "name = 42\nreplicas = 3\n", s)
	require.True(t, rep.HasErrors())

	// replicas declared number with severity = "warn": warning only.
	rep = check(t, "name = \"web\"\nreplicas = \"three\"\n", s)
	assert.False(t, rep.HasErrors())
	require.Len(t, rep.Diagnostics, 1)
	assert.Equal(t, report.Warning, rep.Diagnostics[0].Severity)
}

func TestCheckDynamicValuesPass(t *testing.T) {
	t.Parallel()

	s, _ := decode(t, schemaSrc)

	// Variables, calls, and traversals have no statically-known kind.
	rep := check(t, "name = region\nreplicas = max(1, 2)\n", s)
	assert.Empty(t, rep.Diagnostics)
}

func TestCheckBlockAsObject(t *testing.T) {
	t.Parallel()

	s, _ := decode(t, schemaSrc)

	rep := check(t, "name = \"web\"\nsettings {\n  debug = true\n}\n", s)
	assert.Empty(t, rep.Diagnostics)

	// A block satisfying a non-object declaration is a mismatch.
	rep = check(t, "name {\n  x = 1\n}\n", s)
	assert.True(t, rep.HasErrors())
}

func TestCheckUnknownPolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		policy string
		errors bool
		count  int
	}{
		{policy: "warn", errors: false, count: 1},
		{policy: "error", errors: true, count: 1},
		{policy: "ignore", errors: false, count: 0},
	}

	for _, test := range tests {
		test := test
		t.Run(test.policy, func(t *testing.T) {
			t.Parallel()
			s, _ := decode(t, `
object {
  unknown = "`+test.policy+`"
}
`)
			rep := check(t, "surprise = 1\n", s)
			assert.Equal(t, test.errors, rep.HasErrors())
			assert.Len(t, rep.Diagnostics, test.count)
		})
	}
}
