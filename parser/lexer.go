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

package parser

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bufbuild/weft/report"
)

// MaxFileSize is the largest input the lexer will accept. Anything bigger
// produces a single diagnostic and an empty token stream.
const MaxFileSize = 512 * 1024 * 1024

// Lex converts src into a token stream, appending diagnostics for malformed
// lexical constructs to rep. It never fails: on an invalid byte or an
// unterminated construct it records an error and resumes from the best
// recoverable point, so the returned stream always ends in [TokenEOF] and
// every opened template construct has a (possibly synthesized) closer.
func Lex(src []byte, rep *report.Report) []Token {
	l := &lexer{src: src, report: rep}

	if len(src) > MaxFileSize {
		rep.Errorf(report.Span{}, "input is too big (%d bytes) to lex", len(src))
		l.push(TokenEOF, 0, 0)
		return l.tokens
	}

	for l.cursor < len(l.src) {
		switch l.mode() {
		case modeQuoted:
			l.lexQuoted()
		case modeHeredoc:
			l.lexHeredoc()
		default:
			l.lexNormal()
		}
	}

	// Synthesize closers for anything the input ended inside of, innermost
	// first, so the parser sees a balanced stream.
	for len(l.stack) > 0 {
		state := l.pop()
		switch state.mode {
		case modeQuoted:
			l.report.Errorf(state.opener, "unterminated string")
			l.push(TokenCQuote, l.cursor, l.cursor)
		case modeHeredoc:
			l.report.Errorf(state.opener, "unterminated heredoc, expected terminator %q", state.marker)
			l.push(TokenCHeredoc, l.cursor, l.cursor)
		case modeInterp:
			l.report.Errorf(state.opener, "unterminated template interpolation")
			l.push(TokenTemplateSeqEnd, l.cursor, l.cursor)
		}
	}

	l.push(TokenEOF, l.cursor, l.cursor)
	return l.tokens
}

type lexMode int8

const (
	modeNormal lexMode = iota
	modeQuoted
	modeHeredoc
	modeInterp
)

type lexState struct {
	mode lexMode

	// The span of the construct that opened this state, for diagnostics.
	opener report.Span

	// Heredoc state.
	marker      string
	flush       bool
	atLineStart bool

	// Brace nesting inside an interpolation, so that object literals'
	// closing braces are not mistaken for the end of the sequence.
	braces int
}

type lexer struct {
	src    []byte
	cursor int
	tokens []Token
	report *report.Report
	stack  []lexState

	// Parenthesis/bracket nesting. Newlines inside groups are blanks, not
	// item separators.
	groups int
}

func (l *lexer) mode() lexMode {
	if len(l.stack) == 0 {
		return modeNormal
	}
	return l.stack[len(l.stack)-1].mode
}

func (l *lexer) top() *lexState {
	return &l.stack[len(l.stack)-1]
}

func (l *lexer) pop() lexState {
	state := l.stack[len(l.stack)-1]
	l.stack = l.stack[:len(l.stack)-1]
	return state
}

func (l *lexer) push(kind TokenKind, start, end int) {
	l.pushValue(kind, string(l.src[start:end]), start, end)
}

func (l *lexer) pushValue(kind TokenKind, value string, start, end int) {
	l.tokens = append(l.tokens, Token{
		Kind:  kind,
		Value: value,
		Span:  report.Span{Start: start, End: end},
	})
}

func (l *lexer) peekByte(at int) byte {
	if at >= len(l.src) {
		return 0
	}
	return l.src[at]
}

// lexNormal lexes one token of the ordinary (non-template) grammar. It also
// runs inside `${`/`%{` sequences, where the enclosing state tracks brace
// depth and newlines are blanks.
func (l *lexer) lexNormal() {
	inInterp := l.mode() == modeInterp

	for l.cursor < len(l.src) {
		switch b := l.src[l.cursor]; {
		case b == ' ' || b == '\t' || b == '\r':
			l.cursor++
		case b == '\n' && (l.groups > 0 || inInterp):
			l.cursor++
		case b == '#':
			l.skipLineComment()
		case b == '/' && l.peekByte(l.cursor+1) == '/':
			l.skipLineComment()
		case b == '/' && l.peekByte(l.cursor+1) == '*':
			l.skipBlockComment()
		default:
			goto scan
		}
	}

scan:
	if l.cursor >= len(l.src) {
		return
	}

	start := l.cursor
	b := l.src[l.cursor]

	switch {
	case b == '\n':
		l.cursor++
		l.push(TokenNewline, start, l.cursor)

	case b == '"':
		l.cursor++
		l.push(TokenOQuote, start, l.cursor)
		l.stack = append(l.stack, lexState{
			mode:   modeQuoted,
			opener: report.Span{Start: start, End: l.cursor},
		})

	case b == '<' && l.peekByte(l.cursor+1) == '<' && l.peekByte(l.cursor+2) != '=':
		l.lexHeredocOpener()

	case b >= '0' && b <= '9':
		l.lexNumber()

	case isIdentStart(l.decodeRune(l.cursor)):
		l.lexIdent()

	case b == '{':
		l.cursor++
		l.push(TokenLBrace, start, l.cursor)
		if inInterp {
			l.top().braces++
		}

	case b == '}':
		l.cursor++
		if inInterp && l.top().braces == 0 {
			l.push(TokenTemplateSeqEnd, start, l.cursor)
			l.pop()
			return
		}
		if inInterp {
			l.top().braces--
		}
		l.push(TokenRBrace, start, l.cursor)

	case b == '~' && l.peekByte(l.cursor+1) == '}' && inInterp && l.top().braces == 0:
		l.cursor += 2
		l.push(TokenTemplateSeqEnd, start, l.cursor)
		l.pop()

	default:
		l.lexOperator()
	}
}

func (l *lexer) skipLineComment() {
	for l.cursor < len(l.src) && l.src[l.cursor] != '\n' {
		l.cursor++
	}
}

func (l *lexer) skipBlockComment() {
	start := l.cursor
	l.cursor += 2 // the /*
	if n := strings.Index(string(l.src[l.cursor:]), "*/"); n >= 0 {
		l.cursor += n + 2
		return
	}
	l.report.Errorf(report.Span{Start: start, End: start + 2}, "unterminated block comment")
	l.cursor = len(l.src)
}

func (l *lexer) lexIdent() {
	start := l.cursor
	for l.cursor < len(l.src) {
		r := l.decodeRune(l.cursor)
		if !isIdentContinue(r) {
			break
		}
		l.cursor += utf8.RuneLen(r)
	}
	l.push(TokenIdent, start, l.cursor)
}

func (l *lexer) lexNumber() {
	start := l.cursor
	digits := func() {
		for l.cursor < len(l.src) && isDigit(l.src[l.cursor]) {
			l.cursor++
		}
	}
	digits()
	if l.peekByte(l.cursor) == '.' && isDigit(l.peekByte(l.cursor+1)) {
		l.cursor++
		digits()
	}
	if e := l.peekByte(l.cursor); e == 'e' || e == 'E' {
		next := l.peekByte(l.cursor + 1)
		if isDigit(next) {
			l.cursor += 2
			digits()
		} else if (next == '+' || next == '-') && isDigit(l.peekByte(l.cursor+2)) {
			l.cursor += 3
			digits()
		}
	}
	l.push(TokenNumber, start, l.cursor)
}

// lexHeredocOpener lexes `<<MARKER` or `<<-MARKER` through the end of its
// line, then enters heredoc mode; content starts on the next line.
func (l *lexer) lexHeredocOpener() {
	start := l.cursor
	l.cursor += 2
	flush := false
	if l.peekByte(l.cursor) == '-' {
		flush = true
		l.cursor++
	}

	markerStart := l.cursor
	for l.cursor < len(l.src) {
		r := l.decodeRune(l.cursor)
		if !isIdentContinue(r) {
			break
		}
		l.cursor += utf8.RuneLen(r)
	}
	marker := string(l.src[markerStart:l.cursor])
	if marker == "" {
		l.report.Errorf(report.Span{Start: start, End: l.cursor},
			"expected an identifier after %q to introduce a heredoc", "<<")
		l.pushValue(TokenInvalid, "<<", start, l.cursor)
		return
	}

	// Value keeps the raw opener (e.g. "<<-EOT") so the parser can recover
	// both the marker and the flush flag.
	openerText := string(l.src[start:l.cursor])

	for l.cursor < len(l.src) && l.src[l.cursor] != '\n' {
		l.cursor++
	}
	if l.cursor < len(l.src) {
		l.cursor++
	}

	opener := report.Span{Start: start, End: l.cursor}
	l.pushValue(TokenOHeredoc, openerText, start, l.cursor)
	l.stack = append(l.stack, lexState{
		mode:        modeHeredoc,
		opener:      opener,
		marker:      marker,
		flush:       flush,
		atLineStart: true,
	})
}

// lexQuoted lexes the inside of a double-quoted template until the closing
// quote, an interpolation opener, or an unterminated-string recovery point
// (newline or EOF).
func (l *lexer) lexQuoted() {
	state := l.top()
	start := l.cursor
	var buf strings.Builder

	emitRun := func(end int) {
		if end > start {
			l.pushValue(TokenStringLit, buf.String(), start, end)
		}
	}

	for {
		if l.cursor >= len(l.src) {
			// The post-loop drain in Lex reports and closes it.
			emitRun(l.cursor)
			return
		}

		b := l.src[l.cursor]
		switch {
		case b == '\n':
			emitRun(l.cursor)
			l.report.Errorf(state.opener, "unterminated string")
			l.push(TokenCQuote, l.cursor, l.cursor)
			l.pop()
			return

		case b == '"':
			emitRun(l.cursor)
			l.push(TokenCQuote, l.cursor, l.cursor+1)
			l.cursor++
			l.pop()
			return

		case b == '\\':
			l.lexEscape(&buf)

		case (b == '$' || b == '%') && l.peekByte(l.cursor+1) == '{':
			emitRun(l.cursor)
			l.openTemplateMarker()
			return

		case (b == '$' || b == '%') && l.peekByte(l.cursor+1) == b && l.peekByte(l.cursor+2) == '{':
			// $${ and %%{ are escapes for literal ${ and %{.
			buf.WriteByte(b)
			buf.WriteByte('{')
			l.cursor += 3

		default:
			l.copyRune(&buf)
		}
	}
}

// lexHeredoc lexes heredoc content. At the start of each line it checks for
// the terminator; otherwise it accumulates a literal run up to the next
// interpolation opener or the end of the line.
func (l *lexer) lexHeredoc() {
	state := l.top()

	if state.atLineStart {
		lineEnd := l.cursor
		for lineEnd < len(l.src) && l.src[lineEnd] != '\n' {
			lineEnd++
		}
		line := string(l.src[l.cursor:lineEnd])
		if strings.TrimSpace(line) == state.marker {
			l.pushValue(TokenCHeredoc, state.marker, l.cursor, lineEnd)
			// Leave the newline for normal mode: it terminates the
			// enclosing attribute.
			l.cursor = lineEnd
			l.pop()
			return
		}
	}

	start := l.cursor
	var buf strings.Builder

	for l.cursor < len(l.src) {
		b := l.src[l.cursor]
		switch {
		case b == '\n':
			buf.WriteByte('\n')
			l.cursor++
			state.atLineStart = true
			l.pushValue(TokenStringLit, buf.String(), start, l.cursor)
			return

		case (b == '$' || b == '%') && l.peekByte(l.cursor+1) == '{':
			if l.cursor > start {
				l.pushValue(TokenStringLit, buf.String(), start, l.cursor)
			}
			state.atLineStart = false
			l.openTemplateMarker()
			return

		case (b == '$' || b == '%') && l.peekByte(l.cursor+1) == b && l.peekByte(l.cursor+2) == '{':
			buf.WriteByte(b)
			buf.WriteByte('{')
			l.cursor += 3

		default:
			l.copyRune(&buf)
		}
	}

	// EOF inside the heredoc; the drain in Lex reports it.
	if l.cursor > start {
		l.pushValue(TokenStringLit, buf.String(), start, l.cursor)
	}
}

// openTemplateMarker lexes `${`, `${~`, `%{`, or `%{~` and enters
// interpolation mode.
func (l *lexer) openTemplateMarker() {
	start := l.cursor
	kind := TokenTemplateInterp
	if l.src[l.cursor] == '%' {
		kind = TokenTemplateControl
	}
	l.cursor += 2
	if l.peekByte(l.cursor) == '~' {
		l.cursor++
	}
	l.push(kind, start, l.cursor)
	l.stack = append(l.stack, lexState{
		mode:   modeInterp,
		opener: report.Span{Start: start, End: l.cursor},
	})
}

// lexEscape decodes one backslash escape into buf. Unrecognized escapes
// produce a diagnostic and pass through as written.
func (l *lexer) lexEscape(buf *strings.Builder) {
	start := l.cursor
	esc := l.peekByte(l.cursor + 1)
	switch esc {
	case 'n':
		buf.WriteByte('\n')
		l.cursor += 2
	case 'r':
		buf.WriteByte('\r')
		l.cursor += 2
	case 't':
		buf.WriteByte('\t')
		l.cursor += 2
	case '"':
		buf.WriteByte('"')
		l.cursor += 2
	case '\\':
		buf.WriteByte('\\')
		l.cursor += 2
	case '$', '%':
		// \${ and \%{ suppress template markers.
		buf.WriteByte(esc)
		l.cursor += 2
	case 'u', 'U':
		size := 4
		if esc == 'U' {
			size = 8
		}
		hex := ""
		if l.cursor+2+size <= len(l.src) {
			hex = string(l.src[l.cursor+2 : l.cursor+2+size])
		}
		code, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			l.report.Errorf(report.Span{Start: start, End: start + 2},
				"invalid unicode escape \\%c%s", esc, hex)
			buf.WriteByte('\\')
			l.cursor++
			return
		}
		buf.WriteRune(rune(code))
		l.cursor += 2 + size
	default:
		end := start + 2
		if end > len(l.src) {
			end = len(l.src)
		}
		l.report.Errorf(report.Span{Start: start, End: end},
			"invalid escape sequence %q", string(l.src[start:end]))
		buf.WriteByte('\\')
		l.cursor++
	}
}

// copyRune appends the rune at the cursor to buf, mapping invalid UTF-8 to
// a diagnostic plus the raw byte.
func (l *lexer) copyRune(buf *strings.Builder) {
	r, size := utf8.DecodeRune(l.src[l.cursor:])
	if r == utf8.RuneError && size <= 1 {
		l.report.Errorf(report.Span{Start: l.cursor, End: l.cursor + 1},
			"invalid byte 0x%02x in string", l.src[l.cursor])
		buf.WriteByte(l.src[l.cursor])
		l.cursor++
		return
	}
	buf.WriteRune(r)
	l.cursor += size
}

func (l *lexer) lexOperator() {
	start := l.cursor
	two := func(kind TokenKind) {
		l.cursor += 2
		l.push(kind, start, l.cursor)
	}
	one := func(kind TokenKind) {
		l.cursor++
		l.push(kind, start, l.cursor)
	}

	b := l.src[l.cursor]
	next := l.peekByte(l.cursor + 1)
	switch b {
	case '[':
		l.groups++
		one(TokenLBrack)
	case ']':
		l.groups = max(0, l.groups-1)
		one(TokenRBrack)
	case '(':
		l.groups++
		one(TokenLParen)
	case ')':
		l.groups = max(0, l.groups-1)
		one(TokenRParen)
	case ',':
		one(TokenComma)
	case '?':
		one(TokenQuestion)
	case ':':
		one(TokenColon)
	case '+':
		one(TokenPlus)
	case '-':
		one(TokenMinus)
	case '*':
		one(TokenStar)
	case '/':
		one(TokenSlash)
	case '%':
		one(TokenPercent)
	case '.':
		if next == '.' && l.peekByte(l.cursor+2) == '.' {
			l.cursor += 3
			l.push(TokenEllipsis, start, l.cursor)
			return
		}
		one(TokenDot)
	case '=':
		switch next {
		case '=':
			two(TokenEqualOp)
		case '>':
			two(TokenFatArrow)
		default:
			one(TokenAssign)
		}
	case '!':
		if next == '=' {
			two(TokenNotEqual)
			return
		}
		one(TokenBang)
	case '<':
		if next == '=' {
			two(TokenLessEqual)
			return
		}
		one(TokenLess)
	case '>':
		if next == '=' {
			two(TokenGreaterEqual)
			return
		}
		one(TokenGreater)
	case '&':
		if next == '&' {
			two(TokenAnd)
			return
		}
		l.invalidByte()
	case '|':
		if next == '|' {
			two(TokenOr)
			return
		}
		l.invalidByte()
	default:
		l.invalidByte()
	}
}

// invalidByte reports the current byte sequence as unrecognized and skips
// it. No token is produced; the diagnostic owns the span.
func (l *lexer) invalidByte() {
	start := l.cursor
	r, size := utf8.DecodeRune(l.src[l.cursor:])
	if r == utf8.RuneError && size <= 1 {
		l.cursor++
		l.report.Errorf(report.Span{Start: start, End: l.cursor},
			"invalid byte 0x%02x in input", l.src[start])
		return
	}
	l.cursor += size
	l.report.Errorf(report.Span{Start: start, End: l.cursor},
		"unexpected character %q", r)
}

// decodeRune decodes the rune at the given offset, mapping invalid UTF-8 to
// utf8.RuneError so callers classify it as an invalid byte.
func (l *lexer) decodeRune(at int) rune {
	if at >= len(l.src) {
		return 0
	}
	r, _ := utf8.DecodeRune(l.src[at:])
	return r
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentContinue(r rune) bool {
	return r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
