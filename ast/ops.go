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

package ast

import "fmt"

// BinaryOp is a binary operator.
type BinaryOp int8

const (
	OpMultiply BinaryOp = 1 + iota
	OpDivide
	OpModulo
	OpAdd
	OpSubtract
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual
	OpEqual
	OpNotEqual
	OpAnd
	OpOr
)

// Precedence returns the operator's binding strength; a higher number
// binds tighter. Unary operators bind tighter than every binary operator.
func (op BinaryOp) Precedence() int {
	switch op {
	case OpMultiply, OpDivide, OpModulo:
		return 6
	case OpAdd, OpSubtract:
		return 5
	case OpLess, OpLessEqual, OpGreater, OpGreaterEqual:
		return 4
	case OpEqual, OpNotEqual:
		return 3
	case OpAnd:
		return 2
	case OpOr:
		return 1
	default:
		return 0
	}
}

// String implements [fmt.Stringer].
func (op BinaryOp) String() string {
	switch op {
	case OpMultiply:
		return "*"
	case OpDivide:
		return "/"
	case OpModulo:
		return "%"
	case OpAdd:
		return "+"
	case OpSubtract:
		return "-"
	case OpLess:
		return "<"
	case OpLessEqual:
		return "<="
	case OpGreater:
		return ">"
	case OpGreaterEqual:
		return ">="
	case OpEqual:
		return "=="
	case OpNotEqual:
		return "!="
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	default:
		return fmt.Sprintf("BinaryOp(%d)", int8(op))
	}
}

// UnaryOp is a unary operator.
type UnaryOp int8

const (
	OpNegate UnaryOp = 1 + iota
	OpNot
)

// String implements [fmt.Stringer].
func (op UnaryOp) String() string {
	switch op {
	case OpNegate:
		return "-"
	case OpNot:
		return "!"
	default:
		return fmt.Sprintf("UnaryOp(%d)", int8(op))
	}
}
