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
	"fmt"

	"github.com/bufbuild/weft/report"
)

// TokenKind classifies tokens produced by [Lex].
type TokenKind int8

const (
	TokenEOF TokenKind = iota
	TokenNewline
	TokenIdent
	TokenNumber

	// Template structure. The lexer resolves string and heredoc bodies into
	// literal runs and `${`/`%{` markers; the parser assembles them into
	// template segments.
	TokenOQuote          // "
	TokenCQuote          // "
	TokenOHeredoc        // <<MARKER or <<-MARKER, including the newline
	TokenCHeredoc        // the terminator line
	TokenStringLit       // a literal run inside a template, Value holds decoded text
	TokenTemplateInterp  // ${ or ${~
	TokenTemplateControl // %{ or %{~
	TokenTemplateSeqEnd  // } or ~} closing an interpolation or directive

	TokenLBrace // {
	TokenRBrace // }
	TokenLBrack // [
	TokenRBrack // ]
	TokenLParen // (
	TokenRParen // )

	TokenComma    // ,
	TokenDot      // .
	TokenEllipsis // ...
	TokenAssign   // =
	TokenFatArrow // =>
	TokenColon    // :
	TokenQuestion // ?

	TokenPlus    // +
	TokenMinus   // -
	TokenStar    // *
	TokenSlash   // /
	TokenPercent // %

	TokenEqualOp      // ==
	TokenNotEqual     // !=
	TokenLess         // <
	TokenLessEqual    // <=
	TokenGreater      // >
	TokenGreaterEqual // >=
	TokenAnd          // &&
	TokenOr           // ||
	TokenBang         // !

	// TokenInvalid marks a byte sequence the lexer could not turn into any
	// other token. A diagnostic accompanies every one; the parser treats
	// them like any other unexpected token.
	TokenInvalid
)

var tokenNames = map[TokenKind]string{
	TokenEOF:             "end of file",
	TokenNewline:         "newline",
	TokenIdent:           "identifier",
	TokenNumber:          "number",
	TokenOQuote:          `'"'`,
	TokenCQuote:          `'"'`,
	TokenOHeredoc:        "heredoc",
	TokenCHeredoc:        "heredoc terminator",
	TokenStringLit:       "string literal",
	TokenTemplateInterp:  `"${"`,
	TokenTemplateControl: `"%{"`,
	TokenTemplateSeqEnd:  `"}"`,
	TokenLBrace:          `"{"`,
	TokenRBrace:          `"}"`,
	TokenLBrack:          `"["`,
	TokenRBrack:          `"]"`,
	TokenLParen:          `"("`,
	TokenRParen:          `")"`,
	TokenComma:           `","`,
	TokenDot:             `"."`,
	TokenEllipsis:        `"..."`,
	TokenAssign:          `"="`,
	TokenFatArrow:        `"=>"`,
	TokenColon:           `":"`,
	TokenQuestion:        `"?"`,
	TokenPlus:            `"+"`,
	TokenMinus:           `"-"`,
	TokenStar:            `"*"`,
	TokenSlash:           `"/"`,
	TokenPercent:         `"%"`,
	TokenEqualOp:         `"=="`,
	TokenNotEqual:        `"!="`,
	TokenLess:            `"<"`,
	TokenLessEqual:       `"<="`,
	TokenGreater:         `">"`,
	TokenGreaterEqual:    `">="`,
	TokenAnd:             `"&&"`,
	TokenOr:              `"||"`,
	TokenBang:            `"!"`,
	TokenInvalid:         "invalid token",
}

// String implements [fmt.Stringer]. The result reads well in diagnostics
// ("expected X, found Y").
func (k TokenKind) String() string {
	if name, ok := tokenNames[k]; ok {
		return name
	}
	return fmt.Sprintf("TokenKind(%d)", int8(k))
}

// Token is a single lexeme.
type Token struct {
	Kind TokenKind

	// Value is the token's cooked text: decoded escapes for string runs,
	// the identifier or digits as written for idents and numbers, the
	// marker for heredoc tokens, and the raw text for template markers
	// (used to recover `~` strip flags).
	Value string

	Span report.Span
}

// describe renders a token for a diagnostic message.
func (t Token) describe() string {
	switch t.Kind {
	case TokenIdent:
		return fmt.Sprintf("identifier %q", t.Value)
	case TokenNumber:
		return fmt.Sprintf("number %q", t.Value)
	default:
		return t.Kind.String()
	}
}
