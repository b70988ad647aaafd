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
	"strconv"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/bufbuild/weft/ast"
	"github.com/bufbuild/weft/report"
)

// Eval evaluates a parsed document's body against ctx, producing an object
// value keyed by attribute names and block types. Diagnostics go to rep;
// per the fail-open contract, an erroring expression contributes a null
// value and evaluation of the rest of the document continues.
//
// Blocks evaluate to nested objects: each label introduces one level of
// nesting under the block type, and blocks sharing a type merge.
func Eval(file *ast.ConfigFile, ctx *Context, rep *report.Report) cty.Value {
	if ctx == nil {
		ctx = NewContext()
	}
	ev := &evaluator{ctx: ctx, report: rep}
	if file == nil || file.Body == nil {
		return cty.EmptyObjectVal
	}
	return ev.evalBody(file.Body)
}

type evaluator struct {
	ctx    *Context
	report *report.Report

	// Scopes introduced by for-expressions and for-directives, innermost
	// last. They shadow ctx.Variables.
	locals []map[string]cty.Value
}

func (ev *evaluator) lookup(name string) (cty.Value, bool) {
	for i := len(ev.locals) - 1; i >= 0; i-- {
		if val, ok := ev.locals[i][name]; ok {
			return val, true
		}
	}
	val, ok := ev.ctx.Variables[name]
	return val, ok
}

func (ev *evaluator) pushScope(vars map[string]cty.Value) {
	ev.locals = append(ev.locals, vars)
}

func (ev *evaluator) popScope() {
	ev.locals = ev.locals[:len(ev.locals)-1]
}

func nullVal() cty.Value {
	return cty.NullVal(cty.DynamicPseudoType)
}

func (ev *evaluator) evalBody(body *ast.Body) cty.Value {
	attrs := map[string]cty.Value{}
	for _, item := range body.Items {
		switch decl := item.(type) {
		case *ast.Attribute:
			attrs[decl.Name.Name] = ev.evalExpr(decl.Value)

		case *ast.Block:
			val := nestLabels(decl.Labels, ev.evalBody(decl.Body))
			if prev, ok := attrs[decl.Type.Name]; ok {
				val = mergeValues(prev, val)
			}
			attrs[decl.Type.Name] = val

		case *ast.OneLineBlock:
			inner := &ast.Body{SrcSpan: decl.Span()}
			if decl.Attr != nil {
				inner.Items = []ast.BodyItem{decl.Attr}
			}
			val := nestLabels(decl.Labels, ev.evalBody(inner))
			if prev, ok := attrs[decl.Type.Name]; ok {
				val = mergeValues(prev, val)
			}
			attrs[decl.Type.Name] = val
		}
	}
	if len(attrs) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(attrs)
}

// nestLabels wraps a block's value in one object level per label, so
// `resource "a" "b" {...}` lands at resource.a.b.
func nestLabels(labels []ast.Label, val cty.Value) cty.Value {
	for i := len(labels) - 1; i >= 0; i-- {
		val = cty.ObjectVal(map[string]cty.Value{labels[i].Value: val})
	}
	return val
}

// mergeValues combines two block values. Objects merge key by key,
// recursing on conflicts; anything else is overwritten by the newcomer.
func mergeValues(old, val cty.Value) cty.Value {
	if old.IsNull() {
		return val
	}
	if !old.Type().IsObjectType() || !val.Type().IsObjectType() {
		return val
	}
	merged := map[string]cty.Value{}
	for name := range old.Type().AttributeTypes() {
		merged[name] = old.GetAttr(name)
	}
	for name := range val.Type().AttributeTypes() {
		if prev, ok := merged[name]; ok {
			merged[name] = mergeValues(prev, val.GetAttr(name))
			continue
		}
		merged[name] = val.GetAttr(name)
	}
	if len(merged) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(merged)
}

func (ev *evaluator) evalExpr(expr ast.Expr) cty.Value {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		return ev.evalLiteral(e)
	case *ast.VariableExpr:
		val, ok := ev.lookup(e.Name)
		if !ok {
			ev.report.Errorf(e.Span(), "unknown variable %q", e.Name)
			return nullVal()
		}
		return val
	case *ast.TupleExpr:
		return ev.evalTuple(e)
	case *ast.ObjectExpr:
		return ev.evalObject(e)
	case *ast.CallExpr:
		return ev.evalCall(e)
	case *ast.TraversalExpr:
		return ev.applyTraversal(ev.evalExpr(e.Target), e.Ops)
	case *ast.UnaryExpr:
		return ev.evalUnary(e)
	case *ast.BinaryExpr:
		return ev.evalBinary(e)
	case *ast.ConditionalExpr:
		return ev.evalConditional(e)
	case *ast.ForExpr:
		return ev.evalFor(e)
	case *ast.TemplateExpr:
		return ev.evalTemplate(e)
	case *ast.InvalidExpr:
		ev.report.Errorf(e.Span(), "cannot evaluate an invalid expression")
		return nullVal()
	default:
		ev.report.Errorf(expr.Span(), "cannot evaluate expression of type %T", expr)
		return nullVal()
	}
}

func (ev *evaluator) evalLiteral(e *ast.LiteralExpr) cty.Value {
	switch e.Kind {
	case ast.NumberLit:
		val, err := cty.ParseNumberVal(e.Num)
		if err != nil {
			ev.report.Errorf(e.Span(), "invalid number literal %q", e.Num)
			return nullVal()
		}
		return val
	case ast.BoolLit:
		return cty.BoolVal(e.Bool)
	default:
		return nullVal()
	}
}

func (ev *evaluator) evalTuple(e *ast.TupleExpr) cty.Value {
	if len(e.Items) == 0 {
		return cty.EmptyTupleVal
	}
	items := make([]cty.Value, len(e.Items))
	for i, item := range e.Items {
		items[i] = ev.evalExpr(item)
	}
	return cty.TupleVal(items)
}

func (ev *evaluator) evalObject(e *ast.ObjectExpr) cty.Value {
	attrs := map[string]cty.Value{}
	for _, item := range e.Items {
		var key string
		if item.Key.Ident != nil {
			key = item.Key.Ident.Name
		} else {
			keyVal := ev.evalExpr(item.Key.Expr)
			text, ok := ev.stringify(keyVal, item.Key.Expr.Span())
			if !ok {
				continue
			}
			key = text
		}
		attrs[key] = ev.evalExpr(item.Value)
	}
	if len(attrs) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(attrs)
}

func (ev *evaluator) evalCall(e *ast.CallExpr) cty.Value {
	fn, ok := ev.ctx.Functions[e.Name.Name]
	if !ok {
		ev.report.Errorf(e.Name.Span(), "unknown function %q", e.Name.Name)
		return nullVal()
	}

	args := make([]cty.Value, 0, len(e.Args))
	for _, arg := range e.Args {
		args = append(args, ev.evalExpr(arg))
	}

	if e.ExpandFinal && len(args) > 0 {
		last := args[len(args)-1]
		lastExpr := e.Args[len(e.Args)-1]
		if last.IsNull() || !last.CanIterateElements() {
			ev.report.Errorf(lastExpr.Span(), "the expanded final argument must be a tuple")
			return nullVal()
		}
		args = args[:len(args)-1]
		for it := last.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			args = append(args, elem)
		}
	}

	result, err := fn.Call(args)
	if err != nil {
		ev.report.Errorf(e.Span(), "invalid call to %q: %s", e.Name.Name, err)
		return nullVal()
	}
	return result
}

// applyTraversal applies traversal operations in order. A splat evaluates
// the remaining operations against every element of the current value and
// collects the results into a tuple.
func (ev *evaluator) applyTraversal(val cty.Value, ops []ast.TraversalOp) cty.Value {
	for i, op := range ops {
		switch op := op.(type) {
		case ast.GetAttr:
			val = ev.getAttr(val, op.Name.Name, op)

		case ast.Index:
			val = ev.index(val, ev.evalExpr(op.Key), op)

		case ast.LegacyIndex:
			idx, err := strconv.Atoi(op.Value)
			if err != nil {
				ev.report.Errorf(op.Span(), "invalid legacy index %q", op.Value)
				return nullVal()
			}
			val = ev.index(val, cty.NumberIntVal(int64(idx)), op)

		case ast.AttrSplat, ast.FullSplat:
			if val.IsNull() || !canSplat(val) {
				ev.report.Errorf(op.Span(), "a splat may only be applied to a tuple or list")
				return nullVal()
			}
			rest := ops[i+1:]
			var elems []cty.Value
			for it := val.ElementIterator(); it.Next(); {
				_, elem := it.Element()
				elems = append(elems, ev.applyTraversal(elem, rest))
			}
			if len(elems) == 0 {
				return cty.EmptyTupleVal
			}
			return cty.TupleVal(elems)
		}
	}
	return val
}

func canSplat(val cty.Value) bool {
	ty := val.Type()
	return ty.IsTupleType() || ty.IsListType() || ty.IsSetType()
}

func (ev *evaluator) getAttr(val cty.Value, name string, at report.Spanner) cty.Value {
	if val.IsNull() {
		ev.report.Errorf(at.Span(), "cannot get attribute %q from a null value", name)
		return nullVal()
	}
	ty := val.Type()
	switch {
	case ty.IsObjectType():
		if !ty.HasAttribute(name) {
			ev.report.Errorf(at.Span(), "this object has no attribute %q", name)
			return nullVal()
		}
		return val.GetAttr(name)
	case ty.IsMapType():
		key := cty.StringVal(name)
		if val.HasIndex(key) != cty.True {
			ev.report.Errorf(at.Span(), "this map has no element %q", name)
			return nullVal()
		}
		return val.Index(key)
	default:
		ev.report.Errorf(at.Span(), "cannot get attribute %q from a value of type %s",
			name, ty.FriendlyName())
		return nullVal()
	}
}

func (ev *evaluator) index(val, key cty.Value, at report.Spanner) cty.Value {
	if val.IsNull() {
		ev.report.Errorf(at.Span(), "cannot index a null value")
		return nullVal()
	}
	if key.IsNull() {
		ev.report.Errorf(at.Span(), "the index key is null")
		return nullVal()
	}

	ty := val.Type()
	switch {
	case ty.IsTupleType() || ty.IsListType():
		num, err := convert.Convert(key, cty.Number)
		if err != nil {
			ev.report.Errorf(at.Span(), "a tuple index must be a number")
			return nullVal()
		}
		if val.HasIndex(num) != cty.True {
			ev.report.Errorf(at.Span(), "index out of range for this tuple")
			return nullVal()
		}
		return val.Index(num)

	case ty.IsObjectType():
		str, err := convert.Convert(key, cty.String)
		if err != nil {
			ev.report.Errorf(at.Span(), "an object key must be a string")
			return nullVal()
		}
		return ev.getAttr(val, str.AsString(), at)

	case ty.IsMapType():
		str, err := convert.Convert(key, cty.String)
		if err != nil {
			ev.report.Errorf(at.Span(), "a map key must be a string")
			return nullVal()
		}
		if val.HasIndex(str) != cty.True {
			ev.report.Errorf(at.Span(), "this map has no element %q", str.AsString())
			return nullVal()
		}
		return val.Index(str)

	default:
		ev.report.Errorf(at.Span(), "cannot index a value of type %s", ty.FriendlyName())
		return nullVal()
	}
}

func (ev *evaluator) evalUnary(e *ast.UnaryExpr) cty.Value {
	operand := ev.evalExpr(e.Operand)
	switch e.Op {
	case ast.OpNegate:
		if !ev.requireType(operand, cty.Number, e.Operand) {
			return nullVal()
		}
		return operand.Negate()
	case ast.OpNot:
		if !ev.requireType(operand, cty.Bool, e.Operand) {
			return nullVal()
		}
		return operand.Not()
	default:
		ev.report.Errorf(e.Span(), "unsupported unary operator %s", e.Op)
		return nullVal()
	}
}

func (ev *evaluator) evalBinary(e *ast.BinaryExpr) cty.Value {
	// And/Or short-circuit: the right operand is only evaluated when the
	// left one does not decide the result.
	switch e.Op {
	case ast.OpAnd, ast.OpOr:
		left := ev.evalExpr(e.Left)
		if !ev.requireType(left, cty.Bool, e.Left) {
			return nullVal()
		}
		if e.Op == ast.OpAnd && left.False() {
			return cty.False
		}
		if e.Op == ast.OpOr && left.True() {
			return cty.True
		}
		right := ev.evalExpr(e.Right)
		if !ev.requireType(right, cty.Bool, e.Right) {
			return nullVal()
		}
		return right
	}

	left := ev.evalExpr(e.Left)
	right := ev.evalExpr(e.Right)

	switch e.Op {
	case ast.OpEqual:
		return left.Equals(right)
	case ast.OpNotEqual:
		return left.Equals(right).Not()
	}

	// The remaining operators are numeric.
	if !ev.requireType(left, cty.Number, e.Left) || !ev.requireType(right, cty.Number, e.Right) {
		return nullVal()
	}
	switch e.Op {
	case ast.OpMultiply:
		return left.Multiply(right)
	case ast.OpDivide:
		if right.AsBigFloat().Sign() == 0 {
			ev.report.Errorf(e.Right.Span(), "division by zero")
			return nullVal()
		}
		return left.Divide(right)
	case ast.OpModulo:
		if right.AsBigFloat().Sign() == 0 {
			ev.report.Errorf(e.Right.Span(), "division by zero")
			return nullVal()
		}
		return left.Modulo(right)
	case ast.OpAdd:
		return left.Add(right)
	case ast.OpSubtract:
		return left.Subtract(right)
	case ast.OpLess:
		return left.LessThan(right)
	case ast.OpLessEqual:
		return left.LessThanOrEqualTo(right)
	case ast.OpGreater:
		return left.GreaterThan(right)
	case ast.OpGreaterEqual:
		return left.GreaterThanOrEqualTo(right)
	default:
		ev.report.Errorf(e.Span(), "unsupported binary operator %s", e.Op)
		return nullVal()
	}
}

// requireType checks that val is a non-null value of the wanted primitive
// type, reporting at the given node when it is not.
func (ev *evaluator) requireType(val cty.Value, want cty.Type, at report.Spanner) bool {
	if val.IsNull() {
		ev.report.Errorf(at.Span(), "operand must be %s, but is null", want.FriendlyName())
		return false
	}
	if !val.IsKnown() {
		ev.report.Errorf(at.Span(), "operand value is not known")
		return false
	}
	if !val.Type().Equals(want) {
		ev.report.Errorf(at.Span(), "operand must be %s, but is %s",
			want.FriendlyName(), val.Type().FriendlyName())
		return false
	}
	return true
}

func (ev *evaluator) evalConditional(e *ast.ConditionalExpr) cty.Value {
	cond := ev.evalExpr(e.Condition)
	if !ev.requireType(cond, cty.Bool, e.Condition) {
		return nullVal()
	}
	if cond.True() {
		return ev.evalExpr(e.TrueExpr)
	}
	return ev.evalExpr(e.FalseExpr)
}

func (ev *evaluator) evalFor(e *ast.ForExpr) cty.Value {
	collection := ev.evalExpr(e.Collection)
	if collection.IsNull() || !collection.CanIterateElements() {
		ev.report.Errorf(e.Collection.Span(), "a for-expression needs a tuple or object to iterate")
		return nullVal()
	}

	// Object comprehension state. Grouped keys accumulate tuples.
	attrs := map[string]cty.Value{}
	groups := map[string][]cty.Value{}
	var order []string
	// Tuple comprehension state.
	var items []cty.Value

	for it := collection.ElementIterator(); it.Next(); {
		key, value := it.Element()

		vars := map[string]cty.Value{e.ValueVar.Name: value}
		if e.KeyVar != nil {
			vars[e.KeyVar.Name] = key
		}
		ev.pushScope(vars)

		if e.Condition != nil {
			cond := ev.evalExpr(e.Condition)
			if !ev.requireType(cond, cty.Bool, e.Condition) {
				ev.popScope()
				continue
			}
			if cond.False() {
				ev.popScope()
				continue
			}
		}

		if e.KeyExpr == nil {
			items = append(items, ev.evalExpr(e.ValueExpr))
			ev.popScope()
			continue
		}

		keyVal := ev.evalExpr(e.KeyExpr)
		text, ok := ev.stringify(keyVal, e.KeyExpr.Span())
		if !ok {
			ev.popScope()
			continue
		}
		result := ev.evalExpr(e.ValueExpr)
		if e.Group {
			if _, seen := groups[text]; !seen {
				order = append(order, text)
			}
			groups[text] = append(groups[text], result)
		} else {
			if _, seen := attrs[text]; !seen {
				order = append(order, text)
			}
			attrs[text] = result
		}
		ev.popScope()
	}

	if e.KeyExpr == nil {
		if len(items) == 0 {
			return cty.EmptyTupleVal
		}
		return cty.TupleVal(items)
	}

	out := map[string]cty.Value{}
	for _, key := range order {
		if e.Group {
			out[key] = cty.TupleVal(groups[key])
		} else {
			out[key] = attrs[key]
		}
	}
	if len(out) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(out)
}

// stringify renders a scalar value as a string for interpolation or use as
// an object key. Nulls and collections are reported and rejected.
func (ev *evaluator) stringify(val cty.Value, at report.Spanner) (string, bool) {
	if val.IsNull() {
		ev.report.Errorf(at.Span(), "a null value cannot be rendered as a string")
		return "", false
	}
	if !val.IsKnown() {
		ev.report.Errorf(at.Span(), "the value is not known and cannot be rendered as a string")
		return "", false
	}
	str, err := convert.Convert(val, cty.String)
	if err != nil {
		ev.report.Errorf(at.Span(), "a value of type %s cannot be rendered as a string",
			val.Type().FriendlyName())
		return "", false
	}
	return str.AsString(), true
}
