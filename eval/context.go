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

// Package eval walks a Weft syntax tree and produces a [cty.Value] tree.
//
// Evaluation is fail-open at the expression level: an error at one node
// (an unknown variable, a type mismatch, a bad traversal) yields a
// diagnostic and a null placeholder, and evaluation of sibling expressions
// continues, so callers always get a best-effort value alongside the
// diagnostics.
package eval

import (
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Context supplies the names an expression can reference: variables and
// callable functions.
type Context struct {
	Variables map[string]cty.Value
	Functions map[string]function.Function
}

// NewContext returns a context preloaded with the default function table.
// Both maps may be freely extended before evaluation.
func NewContext() *Context {
	return &Context{
		Variables: map[string]cty.Value{},
		Functions: DefaultFunctions(),
	}
}

// DefaultFunctions returns the built-in function table. The implementations
// come from cty's stdlib, so arity and argument types are enforced by the
// function specs themselves.
func DefaultFunctions() map[string]function.Function {
	return map[string]function.Function{
		"abs":        stdlib.AbsoluteFunc,
		"coalesce":   stdlib.CoalesceFunc,
		"concat":     stdlib.ConcatFunc,
		"format":     stdlib.FormatFunc,
		"join":       stdlib.JoinFunc,
		"jsonencode": stdlib.JSONEncodeFunc,
		"length":     stdlib.LengthFunc,
		"lower":      stdlib.LowerFunc,
		"max":        stdlib.MaxFunc,
		"min":        stdlib.MinFunc,
		"split":      stdlib.SplitFunc,
		"strlen":     stdlib.StrlenFunc,
		"substr":     stdlib.SubstrFunc,
		"upper":      stdlib.UpperFunc,
	}
}
