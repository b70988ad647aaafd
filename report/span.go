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

import "fmt"

// Span is a half-open byte range [Start, End) into a source buffer.
//
// Spans carry no reference to the buffer they index; resolving one into
// line/column coordinates is the job of [Renderer], which holds the text.
type Span struct {
	Start, End int
}

// Spanner is any type that can report its location in the source.
type Spanner interface {
	Span() Span
}

// Span implements [Spanner], so a Span can be used wherever a Spanner is
// expected.
func (s Span) Span() Span {
	return s
}

// IsZero returns whether this is the zero span.
func (s Span) IsZero() bool {
	return s.Start == 0 && s.End == 0
}

// Len returns the length of this span, in bytes.
func (s Span) Len() int {
	return s.End - s.Start
}

// Merge returns the smallest span that contains both s and o.
//
// Merge is commutative: s.Merge(o) == o.Merge(s).
func (s Span) Merge(o Span) Span {
	return Span{
		Start: min(s.Start, o.Start),
		End:   max(s.End, o.End),
	}
}

// Contains returns whether o lies entirely within s.
func (s Span) Contains(o Span) bool {
	return s.Start <= o.Start && o.End <= s.End
}

// String implements [fmt.Stringer].
func (s Span) String() string {
	return fmt.Sprintf("%d..%d", s.Start, s.End)
}

// Join merges the spans of all the given spanners, skipping any that are
// nil or zero. If none contribute, the zero span is returned.
func Join(spanners ...Spanner) Span {
	var joined Span
	first := true
	for _, sp := range spanners {
		if sp == nil {
			continue
		}
		span := sp.Span()
		if span.IsZero() {
			continue
		}
		if first {
			joined, first = span, false
			continue
		}
		joined = joined.Merge(span)
	}
	return joined
}
