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

package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// execute runs the command and returns the exit code it would produce plus
// whatever was written to stderr.
func execute(t *testing.T, args ...string) (int, string) {
	t.Helper()
	cmd := newCommand()
	var stderr strings.Builder
	cmd.SetErr(&stderr)
	if args == nil {
		args = []string{} // nil would make cobra read os.Args
	}
	cmd.SetArgs(args)

	err := cmd.Execute()
	if err == nil {
		return 0, stderr.String()
	}
	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code, stderr.String()
	}
	return 2, stderr.String()
}

func TestRunClean(t *testing.T) {
	path := writeFile(t, "ok.weft", "a = 1\n")
	code, stderr := execute(t, path)
	assert.Equal(t, 0, code)
	assert.Empty(t, stderr)
}

func TestRunWarningsKeepExitZero(t *testing.T) {
	doc := writeFile(t, "doc.weft", "extra = 1\n")
	schema := writeFile(t, "schema.weft", "object {\n  unknown = \"warn\"\n}\n")

	code, stderr := execute(t, doc, schema)
	assert.Equal(t, 0, code)
	assert.Contains(t, stderr, "warning:")
}

func TestRunSyntaxError(t *testing.T) {
	path := writeFile(t, "bad.weft", "a = +\n")
	code, stderr := execute(t, path)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "error:")
	assert.Contains(t, stderr, "at bytes")
}

func TestRunMissingFile(t *testing.T) {
	code, _ := execute(t, filepath.Join(t.TempDir(), "absent.weft"))
	assert.Equal(t, 1, code)
}

func TestRunWrongArgCount(t *testing.T) {
	code, _ := execute(t)
	assert.Equal(t, 2, code)

	code, _ = execute(t, "a", "b", "c")
	assert.Equal(t, 2, code)
}
