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

package eval

import (
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/bufbuild/weft/ast"
	"github.com/bufbuild/weft/report"
)

// evalTemplate renders a template to a string value. The parser stores a
// flat segment sequence; control flow (if/for pairing) is resolved here.
func (ev *evaluator) evalTemplate(e *ast.TemplateExpr) cty.Value {
	segs := applyStrip(e.Segments)

	var out strings.Builder
	ev.renderSegments(segs, &out)

	text := out.String()
	if e.Kind.Flush {
		text = flushIndent(text)
	}
	return cty.StringVal(text)
}

// applyStrip resolves `${~` and `~}` markers by trimming whitespace off the
// adjacent literal segments. Only literals are affected; a marker next to
// another interpolation is a no-op.
func applyStrip(segs []ast.TemplateSegment) []ast.TemplateSegment {
	out := make([]ast.TemplateSegment, len(segs))
	copy(out, segs)

	for i, seg := range out {
		var left, right bool
		switch seg := seg.(type) {
		case ast.InterpSeg:
			left, right = seg.StripLeft, seg.StripRight
		case ast.DirectiveSeg:
			left, right = seg.StripLeft, seg.StripRight
		default:
			continue
		}
		if left && i > 0 {
			if lit, ok := out[i-1].(ast.LiteralSeg); ok {
				lit.Text = strings.TrimRight(lit.Text, " \t\r\n")
				out[i-1] = lit
			}
		}
		if right && i+1 < len(out) {
			if lit, ok := out[i+1].(ast.LiteralSeg); ok {
				lit.Text = strings.TrimLeft(lit.Text, " \t\r\n")
				out[i+1] = lit
			}
		}
	}
	return out
}

func (ev *evaluator) renderSegments(segs []ast.TemplateSegment, out *strings.Builder) {
	for i := 0; i < len(segs); {
		switch seg := segs[i].(type) {
		case ast.LiteralSeg:
			out.WriteString(seg.Text)
			i++

		case ast.InterpSeg:
			val := ev.evalExpr(seg.Expr)
			if text, ok := ev.stringify(val, seg.Expr.Span()); ok {
				out.WriteString(text)
			}
			i++

		case ast.DirectiveSeg:
			i = ev.renderDirective(segs, i, seg, out)

		default:
			i++
		}
	}
}

func (ev *evaluator) renderDirective(segs []ast.TemplateSegment, at int, seg ast.DirectiveSeg, out *strings.Builder) int {
	switch dir := seg.Dir.(type) {
	case ast.IfDirective:
		return ev.renderIf(segs, at, dir, seg.Span(), out)

	case ast.ForDirective:
		return ev.renderForDir(segs, at, dir, seg.Span(), out)

	case ast.ElseDirective:
		ev.report.Errorf(seg.Span(), "%q directive without a matching %q", "else", "if")
		return at + 1

	case ast.EndIfDirective:
		ev.report.Errorf(seg.Span(), "%q directive without a matching %q", "endif", "if")
		return at + 1

	case ast.EndForDirective:
		ev.report.Errorf(seg.Span(), "%q directive without a matching %q", "endfor", "for")
		return at + 1

	case ast.UnknownDirective:
		if dir.Keyword != "" {
			ev.report.Warnf(seg.Span(), "unknown template directive %q", dir.Keyword)
		}
		return at + 1

	default:
		return at + 1
	}
}

// renderIf handles an if directive at segs[at]: locate the matching else
// and endif at the same nesting depth, evaluate the condition, and render
// the chosen branch. Returns the index after endif.
func (ev *evaluator) renderIf(segs []ast.TemplateSegment, at int, dir ast.IfDirective, span report.Span, out *strings.Builder) int {
	elseIdx, endIdx := -1, -1
	depth := 0
	for i := at + 1; i < len(segs); i++ {
		seg, ok := segs[i].(ast.DirectiveSeg)
		if !ok {
			continue
		}
		switch seg.Dir.(type) {
		case ast.IfDirective:
			depth++
		case ast.ElseDirective:
			if depth == 0 && elseIdx < 0 {
				elseIdx = i
			}
		case ast.EndIfDirective:
			if depth == 0 {
				endIdx = i
			} else {
				depth--
			}
		}
		if endIdx >= 0 {
			break
		}
	}
	if endIdx < 0 {
		ev.report.Errorf(span, "%q directive without a matching %q", "if", "endif")
		return len(segs)
	}

	cond := ev.evalExpr(dir.Condition)
	if !ev.requireType(cond, cty.Bool, dir.Condition) {
		return endIdx + 1
	}
	if cond.True() {
		stop := endIdx
		if elseIdx >= 0 {
			stop = elseIdx
		}
		ev.renderSegments(segs[at+1:stop], out)
	} else if elseIdx >= 0 {
		ev.renderSegments(segs[elseIdx+1:endIdx], out)
	}
	return endIdx + 1
}

// renderForDir handles a for directive at segs[at]: locate the matching
// endfor and render the body once per element with the loop variables in
// scope. Returns the index after endfor.
func (ev *evaluator) renderForDir(segs []ast.TemplateSegment, at int, dir ast.ForDirective, span report.Span, out *strings.Builder) int {
	endIdx := -1
	depth := 0
	for i := at + 1; i < len(segs); i++ {
		seg, ok := segs[i].(ast.DirectiveSeg)
		if !ok {
			continue
		}
		switch seg.Dir.(type) {
		case ast.ForDirective:
			depth++
		case ast.EndForDirective:
			if depth == 0 {
				endIdx = i
			} else {
				depth--
			}
		}
		if endIdx >= 0 {
			break
		}
	}
	if endIdx < 0 {
		ev.report.Errorf(span, "%q directive without a matching %q", "for", "endfor")
		return len(segs)
	}

	collection := ev.evalExpr(dir.Collection)
	if collection.IsNull() || !collection.CanIterateElements() {
		ev.report.Errorf(dir.Collection.Span(), "a for directive needs a tuple or object to iterate")
		return endIdx + 1
	}

	body := segs[at+1 : endIdx]
	for it := collection.ElementIterator(); it.Next(); {
		key, value := it.Element()
		vars := map[string]cty.Value{dir.ValueVar.Name: value}
		if dir.KeyVar != nil {
			vars[dir.KeyVar.Name] = key
		}
		ev.pushScope(vars)
		ev.renderSegments(body, out)
		ev.popScope()
	}
	return endIdx + 1
}

// flushIndent removes the longest common leading whitespace prefix from
// every line of a flush heredoc's rendered text. Blank lines do not count
// toward the minimum.
func flushIndent(text string) string {
	lines := strings.Split(text, "\n")

	prefix := ""
	first := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if first {
			prefix = indent
			first = false
			continue
		}
		prefix = commonPrefix(prefix, indent)
	}
	if prefix == "" {
		return text
	}

	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, prefix)
	}
	return strings.Join(lines, "\n")
}

func commonPrefix(a, b string) string {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:n]
}
