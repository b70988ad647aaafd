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

// Severity is the severity of a [Diagnostic].
type Severity int8

const (
	// Error indicates a constraint violation that makes the document
	// unusable for evaluation.
	Error Severity = 1 + iota
	// Warning indicates something that probably should not be ignored but
	// does not invalidate the document.
	Warning
)

// String implements [fmt.Stringer].
func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int8(s))
	}
}

// Diagnostic is a single message about a source document: an error or a
// warning, located by a byte span.
//
// Diagnostics are pure values. Not all of them are "errors"; callers must
// check [Diagnostic.Severity] before treating one as fatal.
type Diagnostic struct {
	Severity Severity
	Message  string
	Span     Span
}

// Error implements error, so a Diagnostic can cross an error-shaped API
// boundary without losing its location.
func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s at bytes %s", d.Severity, d.Message, d.Span)
}

// Report is an ordered list of diagnostics, appended to by every pipeline
// stage. Stages never remove or reorder what earlier stages emitted.
type Report struct {
	Diagnostics []Diagnostic
}

// Errorf appends an Error-severity diagnostic located at the given spanner.
func (r *Report) Errorf(at Spanner, format string, args ...any) {
	r.push(Error, at, format, args...)
}

// Warnf appends a Warning-severity diagnostic located at the given spanner.
func (r *Report) Warnf(at Spanner, format string, args ...any) {
	r.push(Warning, at, format, args...)
}

func (r *Report) push(severity Severity, at Spanner, format string, args ...any) {
	var span Span
	if at != nil {
		span = at.Span()
	}
	r.Diagnostics = append(r.Diagnostics, Diagnostic{
		Severity: severity,
		Message:  fmt.Sprintf(format, args...),
		Span:     span,
	})
}

// HasErrors returns whether any diagnostic in the report has [Error]
// severity.
func (r *Report) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Append moves every diagnostic from o onto the end of r.
func (r *Report) Append(o Report) {
	r.Diagnostics = append(r.Diagnostics, o.Diagnostics...)
}

// Len returns the number of diagnostics in the report.
func (r *Report) Len() int {
	return len(r.Diagnostics)
}
