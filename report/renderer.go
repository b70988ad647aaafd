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

package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/rivo/uniseg"
)

// Location is an editor-style position: 1-indexed line and column. Column
// counts terminal cells, not bytes, so that wide and combining characters
// resolve to where an editor would place the cursor.
type Location struct {
	Line, Column int
}

// String implements [fmt.Stringer].
func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// Renderer writes diagnostics as text. It holds the source buffer so that
// spans can be resolved into line/column coordinates on demand.
type Renderer struct {
	text string

	// Byte offsets of every '\n' in text, built lazily on first Location
	// call.
	lines []int
}

// NewRenderer returns a renderer over the given source buffer.
func NewRenderer(src []byte) *Renderer {
	return &Renderer{text: string(src)}
}

// Render writes d to w as a single line:
//
//	<severity>: <message> at bytes <start>..<end>
func (r *Renderer) Render(w io.Writer, d Diagnostic) error {
	_, err := fmt.Fprintf(w, "%s: %s at bytes %d..%d\n",
		d.Severity, d.Message, d.Span.Start, d.Span.End)
	return err
}

// RenderAll writes every diagnostic in rep to w, in order.
func (r *Renderer) RenderAll(w io.Writer, rep *Report) error {
	for _, d := range rep.Diagnostics {
		if err := r.Render(w, d); err != nil {
			return err
		}
	}
	return nil
}

// Location resolves a byte offset into a [Location]. Offsets beyond the end
// of the buffer resolve to the end of the last line.
func (r *Renderer) Location(offset int) Location {
	if offset > len(r.text) {
		offset = len(r.text)
	}
	if r.lines == nil {
		r.indexLines()
	}

	// Binary search for the line containing offset: the first newline at or
	// after it.
	lo, hi := 0, len(r.lines)
	for lo < hi {
		mid := (lo + hi) / 2
		if r.lines[mid] < offset {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	lineStart := 0
	if lo > 0 {
		lineStart = r.lines[lo-1] + 1
	}

	// Column is the rendered width of the text from the start of the line,
	// measured in cells so that tabs, CJK, and grapheme clusters land where
	// a terminal would put them.
	prefix := r.text[lineStart:offset]
	col := 1
	state := -1
	for len(prefix) > 0 {
		var cluster string
		var width int
		cluster, prefix, width, state = uniseg.FirstGraphemeClusterInString(prefix, state)
		if cluster == "\t" {
			width = TabWidth - (col-1)%TabWidth
		}
		col += width
	}

	return Location{Line: lo + 1, Column: col}
}

// TabWidth is the tab stop width assumed when resolving columns.
const TabWidth = 4

func (r *Renderer) indexLines() {
	r.lines = []int{}
	for i := 0; i < len(r.text); {
		n := strings.IndexByte(r.text[i:], '\n')
		if n < 0 {
			break
		}
		r.lines = append(r.lines, i+n)
		i += n + 1
	}
}
