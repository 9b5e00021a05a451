// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package check

import (
	"typedlua.dev/tlc/internal/ast"
	"typedlua.dev/tlc/internal/diag"
	"typedlua.dev/tlc/internal/span"
	"typedlua.dev/tlc/internal/symtab"
	"typedlua.dev/tlc/internal/types"
)

// inferExpr computes e's static type, reporting diagnostics for
// unresolvable identifiers and invalid operations but always returning a
// usable type (types.Unknown on failure) so the walk can continue (spec
// §4.3: "type checking continues past recoverable errors").
func (c *Checker) inferExpr(env *typeEnv, nc *NarrowingContext, e *ast.Expression) types.Type {
	switch e.Kind {
	case ast.ExprLiteral:
		return inferLiteral(e.Literal)
	case ast.ExprIdentifier:
		return c.inferIdent(nc, e.Ident)
	case ast.ExprMember:
		return c.inferMember(env, nc, e.Member)
	case ast.ExprIndex:
		return c.inferIndex(env, nc, e.Index)
	case ast.ExprCall:
		return c.inferCall(env, nc, e.Call)
	case ast.ExprMethodCall:
		return c.inferMethodCall(env, nc, e.Method)
	case ast.ExprNew:
		return c.inferNew(env, nc, e.New)
	case ast.ExprSuper:
		if c.selfClass != nil && c.selfClass.Extends != nil {
			return types.Type{Kind: types.KindClass, Class: c.selfClass.Extends}
		}
		c.errorf(e.Span, diag.TypeKind, "'super' used outside a subclass method")
		return types.Unknown
	case ast.ExprTemplateLiteral:
		for i := range e.Template.Exprs {
			c.inferExpr(env, nc, &e.Template.Exprs[i])
		}
		return types.Primitive(ast.PrimString)
	case ast.ExprArray:
		return c.inferArray(env, nc, e.Array)
	case ast.ExprObject:
		return c.inferObject(env, nc, e.Object)
	case ast.ExprSpread:
		return c.inferExpr(env, nc, e.Spread)
	case ast.ExprPipe:
		return c.inferPipe(env, nc, e.Pipe)
	case ast.ExprNullCoalesce:
		left := c.inferExpr(env, nc, &e.Coalesce.Left)
		right := c.inferExpr(env, nc, &e.Coalesce.Right)
		return types.Union(types.NonNilable(left), right)
	case ast.ExprSafeNav:
		inner := c.inferMember(env, nc, e.SafeNav)
		return types.NullableOf(inner)
	case ast.ExprArrow:
		return c.inferArrow(env, nc, e.Arrow)
	case ast.ExprMatch:
		return c.inferMatch(env, nc, e.Match)
	case ast.ExprThrow:
		c.inferExpr(env, nc, e.Throw)
		return types.Never
	case ast.ExprTry:
		return c.inferTry(env, nc, e.Try)
	case ast.ExprUnary:
		return c.inferUnary(env, nc, e.Unary)
	case ast.ExprBinary:
		return c.inferBinary(env, nc, e.Binary)
	case ast.ExprBang:
		left := c.inferExpr(env, nc, &e.Bang.Try)
		right := c.inferExpr(env, nc, &e.Bang.Fallback)
		return types.Union(types.NonNilable(left), right)
	case ast.ExprParenthesized:
		return c.inferExpr(env, nc, e.Inner)
	case ast.ExprAssign:
		return c.inferExpr(env, nc, e.Inner)
	default:
		return types.Unknown
	}
}

func inferLiteral(l *ast.Literal) types.Type {
	switch l.Kind {
	case ast.LitNil:
		return types.Nil
	case ast.LitBoolean:
		return types.Type{Kind: types.KindLiteral, Literal: &types.LiteralType{Primitive: ast.PrimBoolean, Bool: l.Bool}}
	case ast.LitNumber:
		return types.Type{Kind: types.KindLiteral, Literal: &types.LiteralType{Primitive: ast.PrimNumber, Num: l.Num}}
	case ast.LitInteger:
		return types.Type{Kind: types.KindLiteral, Literal: &types.LiteralType{Primitive: ast.PrimInteger, Int: l.Int}}
	case ast.LitString:
		return types.Type{Kind: types.KindLiteral, Literal: &types.LiteralType{Primitive: ast.PrimString, Str: l.Str}}
	default:
		return types.Unknown
	}
}

func (c *Checker) inferIdent(nc *NarrowingContext, id *ast.Ident) types.Type {
	ref, ok := c.symbols.Lookup(id.Name)
	if !ok {
		c.errorf(id.Span, diag.Resolution, "unknown identifier %q", c.text(id.Name))
		return types.Unknown
	}
	sym := c.symbols.At(ref)
	switch sym.Kind {
	case symtab.KindClass:
		if class, ok := c.classes[sym.NameID]; ok {
			return types.Type{Kind: types.KindClass, Class: class}
		}
	case symtab.KindInterface:
		if iface, ok := c.interfaces[sym.NameID]; ok {
			return types.Type{Kind: types.KindInterface, Interface: iface}
		}
	case symtab.KindEnum:
		if enumType, ok := c.enums[sym.NameID]; ok {
			return enumType
		}
	}
	if nc != nil {
		if narrowed, ok := nc.Lookup(ref); ok {
			return narrowed
		}
	}
	return sym.DeclaredType
}

func (c *Checker) inferMember(env *typeEnv, nc *NarrowingContext, m *ast.MemberExpr) types.Type {
	objType := c.inferExpr(env, nc, m.Object)
	member, ok := c.lookupMember(objType, c.text(m.Name.Name))
	if !ok {
		c.errorf(m.Name.Span, diag.TypeKind, "%s has no member %q", objType.String(), c.text(m.Name.Name))
		return types.Unknown
	}
	c.checkAccess(m.Name.Span, objType, member)
	if m.Optional {
		return types.NullableOf(member.Type)
	}
	return member.Type
}

// memberAccess bundles a resolved member's type with the access-control
// metadata needed to check who may read it.
type memberAccess struct {
	Type       types.Type
	Visibility types.Visibility
	ownerClass *types.ClassType
}

// lookupMember resolves name against t's members, walking a class's
// inheritance chain and an interface's structural members, and falling
// back to an object type's own members or index signature.
func (c *Checker) lookupMember(t types.Type, name string) (memberAccess, bool) {
	switch t.Kind {
	case types.KindClass:
		for cls := t.Class; cls != nil; cls = cls.Extends {
			for _, f := range cls.Fields {
				if f.Name == name {
					return memberAccess{Type: f.Type, Visibility: f.Visibility, ownerClass: cls}, true
				}
			}
			for _, m := range cls.Methods {
				if m.Name == name {
					return memberAccess{Type: m.Type, Visibility: m.Visibility, ownerClass: cls}, true
				}
			}
		}
	case types.KindInterface:
		for _, p := range t.Interface.Properties {
			if p.Name == name {
				return memberAccess{Type: p.Type, Visibility: types.VisPublic}, true
			}
		}
		for _, m := range t.Interface.Methods {
			if m.Name == name {
				return memberAccess{Type: m.Type, Visibility: types.VisPublic}, true
			}
		}
	case types.KindObject:
		for _, m := range t.Object.Members {
			if m.Name == name {
				return memberAccess{Type: m.Type, Visibility: types.VisPublic}, true
			}
		}
		if t.Object.Index != nil {
			return memberAccess{Type: t.Object.Index.ValueType, Visibility: types.VisPublic}, true
		}
	case types.KindNullable:
		return c.lookupMember(*t.Element, name)
	}
	return memberAccess{}, false
}

// checkAccess enforces spec §4.3's visibility rules: private members are
// reachable only from methods of the declaring class itself; protected
// members are reachable from the declaring class and its subclasses.
func (c *Checker) checkAccess(sp span.Span, objType types.Type, member memberAccess) {
	if member.Visibility == types.VisPublic || member.ownerClass == nil {
		return
	}
	if c.selfClass == nil {
		c.errorf(sp, diag.Access, "cannot access %s member of %s outside its class", visName(member.Visibility), member.ownerClass.Name)
		return
	}
	switch member.Visibility {
	case types.VisPrivate:
		if c.selfClass != member.ownerClass {
			c.errorf(sp, diag.Access, "private member not accessible outside %s", member.ownerClass.Name)
		}
	case types.VisProtected:
		if !classDerivesFrom(c.selfClass, member.ownerClass) {
			c.errorf(sp, diag.Access, "protected member not accessible outside %s and its subclasses", member.ownerClass.Name)
		}
	}
}

func classDerivesFrom(sub, base *types.ClassType) bool {
	for cls := sub; cls != nil; cls = cls.Extends {
		if cls == base {
			return true
		}
	}
	return false
}

func visName(v types.Visibility) string {
	switch v {
	case types.VisPrivate:
		return "private"
	case types.VisProtected:
		return "protected"
	default:
		return "public"
	}
}

func (c *Checker) inferIndex(env *typeEnv, nc *NarrowingContext, idx *ast.IndexExpr) types.Type {
	objType := c.inferExpr(env, nc, idx.Object)
	c.inferExpr(env, nc, idx.Index)
	switch objType.Kind {
	case types.KindArray:
		return *objType.Element
	case types.KindTuple:
		return types.Union(objType.Tuple...)
	case types.KindObject:
		if objType.Object.Index != nil {
			return objType.Object.Index.ValueType
		}
	}
	return types.Unknown
}

func (c *Checker) inferArgs(env *typeEnv, nc *NarrowingContext, args []ast.Argument) []types.Type {
	out := make([]types.Type, len(args))
	for i, a := range args {
		out[i] = c.inferExpr(env, nc, &a.Value)
	}
	return out
}

func (c *Checker) inferCall(env *typeEnv, nc *NarrowingContext, call *ast.CallExpr) types.Type {
	calleeType := c.inferExpr(env, nc, &call.Callee)
	argTypes := c.inferArgs(env, nc, call.Args)
	if calleeType.Kind != types.KindFunction {
		if calleeType.Kind != types.KindUnknown {
			c.errorf(call.Span, diag.TypeKind, "%s is not callable", calleeType.String())
		}
		return types.Unknown
	}
	fn := calleeType.Function
	if len(fn.TypeParams) > 0 {
		args := types.InferFromCall(fn, argTypes)
		if bad := types.CheckConstraints(fn.TypeParams, args); bad >= 0 {
			c.errorf(call.Span, diag.TypeKind, "type argument does not satisfy constraint of %s", fn.TypeParams[bad].Name)
		}
		return types.SubstituteAll(fn.Return, fn.TypeParams, args)
	}
	c.checkArity(call.Span, fn, argTypes)
	return fn.Return
}

func (c *Checker) checkArity(sp span.Span, fn *types.FunctionType, argTypes []types.Type) {
	required := 0
	for _, p := range fn.Params {
		if !p.Optional && !p.Rest {
			required++
		}
	}
	if len(argTypes) < required {
		c.errorf(sp, diag.TypeKind, "too few arguments: got %d, want at least %d", len(argTypes), required)
		return
	}
	for i, p := range fn.Params {
		if p.Rest || i >= len(argTypes) {
			break
		}
		if !types.AssignableTo(argTypes[i], p.Type) {
			c.errorf(sp, diag.TypeKind, "argument %d: %s is not assignable to %s", i+1, argTypes[i].String(), p.Type.String())
		}
	}
}

func (c *Checker) inferMethodCall(env *typeEnv, nc *NarrowingContext, m *ast.MethodCallExpr) types.Type {
	objType := c.inferExpr(env, nc, &m.Object)
	argTypes := c.inferArgs(env, nc, m.Args)
	member, ok := c.lookupMember(objType, c.text(m.Method.Name))
	if !ok {
		c.errorf(m.Method.Span, diag.TypeKind, "%s has no method %q", objType.String(), c.text(m.Method.Name))
		return types.Unknown
	}
	c.checkAccess(m.Method.Span, objType, member)
	if member.Type.Kind != types.KindFunction {
		c.errorf(m.Method.Span, diag.TypeKind, "%q is not a method", c.text(m.Method.Name))
		return types.Unknown
	}
	c.checkArity(m.Span, member.Type.Function, argTypes)
	return member.Type.Function.Return
}

func (c *Checker) inferNew(env *typeEnv, nc *NarrowingContext, n *ast.NewExpr) types.Type {
	calleeType := c.inferExpr(env, nc, &n.Callee)
	argTypes := c.inferArgs(env, nc, n.Args)
	if calleeType.Kind != types.KindClass {
		if calleeType.Kind != types.KindUnknown {
			c.errorf(n.Span, diag.TypeKind, "%s is not a class", calleeType.String())
		}
		return types.Unknown
	}
	for cls := calleeType.Class; cls != nil; cls = cls.Extends {
		for _, m := range cls.Methods {
			if m.Name == "new" || m.Name == "_init" {
				c.checkArity(n.Span, m.Type.Function, argTypes)
				return calleeType
			}
		}
	}
	return calleeType
}

func (c *Checker) inferArray(env *typeEnv, nc *NarrowingContext, a *ast.ArrayExpr) types.Type {
	var elems []types.Type
	for _, el := range a.Elements {
		if el.Kind == ast.ArrayElemHole {
			continue
		}
		elems = append(elems, c.inferExpr(env, nc, &el.Expr))
	}
	elem := types.Union(elems...)
	return types.Type{Kind: types.KindArray, Element: &elem}
}

func (c *Checker) inferObject(env *typeEnv, nc *NarrowingContext, o *ast.ObjectExpr) types.Type {
	obj := &types.ObjectType{}
	for _, p := range o.Properties {
		switch p.Kind {
		case ast.ObjPropKeyed:
			obj.Members = append(obj.Members, types.ObjectMember{Name: c.text(p.Key.Name), Type: c.inferExpr(env, nc, &p.Value)})
		case ast.ObjPropComputed:
			c.inferExpr(env, nc, p.Computed)
			c.inferExpr(env, nc, &p.Value)
		case ast.ObjPropSpread:
			c.inferExpr(env, nc, &p.Value)
		case ast.ObjPropMethod:
			params := make([]types.Param, len(p.Params))
			for i, param := range p.Params {
				params[i] = types.Param{Name: c.text(param.Name.Name), Type: c.resolveType(env, param.Type), Optional: param.Optional, Rest: param.Rest}
			}
			obj.Members = append(obj.Members, types.ObjectMember{
				Name: c.text(p.Key.Name), IsMethod: true,
				Type: types.Type{Kind: types.KindFunction, Function: &types.FunctionType{Params: params, Return: types.Unknown}},
			})
		}
	}
	return types.Type{Kind: types.KindObject, Object: obj}
}

func (c *Checker) inferPipe(env *typeEnv, nc *NarrowingContext, p *ast.PipeExpr) types.Type {
	valueType := c.inferExpr(env, nc, &p.Value)
	funcType := c.inferExpr(env, nc, &p.Func)
	if funcType.Kind != types.KindFunction {
		c.errorf(p.Span, diag.TypeKind, "right side of |> is not callable")
		return types.Unknown
	}
	c.checkArity(p.Span, funcType.Function, []types.Type{valueType})
	return funcType.Function.Return
}

func (c *Checker) inferArrow(env *typeEnv, nc *NarrowingContext, a *ast.ArrowExpr) types.Type {
	inner := c.childEnv(env, a.TypeParams)
	c.symbols.OpenScope()
	defer c.symbols.CloseScope()
	params := make([]types.Param, len(a.Params))
	for i, p := range a.Params {
		pt := c.resolveType(inner, p.Type)
		params[i] = types.Param{Name: c.text(p.Name.Name), Type: pt, Optional: p.Optional, Rest: p.Rest}
		c.declareValue(p.Name.Name, pt, p.Span)
	}
	var ret types.Type
	switch a.BodyStyle {
	case ast.ArrowExprBody:
		ret = c.inferExpr(inner, nc, a.ExprBody)
	case ast.ArrowBlockBody:
		ret = c.checkFunctionBody(inner, a.BlockBody)
	}
	if a.ReturnType != nil {
		ret = c.resolveType(inner, *a.ReturnType)
	}
	return types.Type{Kind: types.KindFunction, Function: &types.FunctionType{TypeParams: c.resolveTypeParams(inner, a.TypeParams), Params: params, Return: ret}}
}

func (c *Checker) inferMatch(env *typeEnv, nc *NarrowingContext, m *ast.MatchExpr) types.Type {
	discType := c.inferExpr(env, nc, &m.Discriminant)
	var armTypes []types.Type
	for _, arm := range m.Arms {
		c.symbols.OpenScope()
		c.bindPattern(&arm.Pattern, discType)
		armNC := nc
		if arm.Guard != nil {
			c.inferExpr(env, armNC, arm.Guard)
		}
		armTypes = append(armTypes, c.inferExpr(env, armNC, &arm.Body))
		c.symbols.CloseScope()
	}
	return types.Union(armTypes...)
}

// bindPattern declares the bindings a match pattern introduces in the
// current (already-opened) scope, giving each the narrowed type implied
// by matching against scrutinee.
func (c *Checker) bindPattern(p *ast.Pattern, scrutinee types.Type) {
	switch p.Kind {
	case ast.PatIdentifier:
		c.declareValue(p.Ident.Name, scrutinee, p.Span)
	case ast.PatArray:
		for _, el := range p.Array.Elements {
			if el.Pattern != nil {
				c.bindPattern(el.Pattern, types.Unknown)
			}
		}
	case ast.PatObject:
		for _, prop := range p.Object.Properties {
			member, _ := c.lookupMember(scrutinee, c.text(prop.Key.Name))
			if prop.Value != nil {
				c.bindPattern(prop.Value, member.Type)
			} else {
				c.declareValue(prop.Key.Name, member.Type, prop.Span)
			}
		}
	case ast.PatOr:
		for i := range p.Or {
			c.bindPattern(&p.Or[i], scrutinee)
		}
	case ast.PatGuard:
		c.bindPattern(p.Guard.Inner, scrutinee)
	}
}

func (c *Checker) inferTry(env *typeEnv, nc *NarrowingContext, t *ast.TryExpr) types.Type {
	bodyType := c.inferExpr(env, nc, &t.Body)
	if t.Catch != nil {
		catchType := c.inferExpr(env, nc, t.Catch)
		return types.Union(bodyType, catchType)
	}
	return bodyType
}

func (c *Checker) inferUnary(env *typeEnv, nc *NarrowingContext, u *ast.UnaryExpr) types.Type {
	operandType := c.inferExpr(env, nc, &u.Operand)
	switch u.Op {
	case ast.UnaryNot:
		return types.Type{Kind: types.KindLiteral, Literal: &types.LiteralType{Primitive: ast.PrimBoolean, Bool: false}}
	case ast.UnaryLen:
		return types.Primitive(ast.PrimInteger)
	case ast.UnaryNeg, ast.UnaryBitNot:
		return operandType
	default:
		return types.Unknown
	}
}

func (c *Checker) inferBinary(env *typeEnv, nc *NarrowingContext, b *ast.BinaryExpr) types.Type {
	leftType := c.inferExpr(env, nc, &b.Left)
	rightType := c.inferExpr(env, nc, &b.Right)
	switch b.Op {
	case ast.BinEq, ast.BinNotEq, ast.BinLess, ast.BinLessEq, ast.BinGreater, ast.BinGreaterEq,
		ast.BinAnd, ast.BinOr, ast.BinInstanceOf:
		return types.Primitive(ast.PrimBoolean)
	case ast.BinConcat:
		return types.Primitive(ast.PrimString)
	case ast.BinDiv, ast.BinPow:
		return types.Primitive(ast.PrimNumber)
	default:
		if leftType.Kind == types.KindPrimitive && leftType.Primitive == ast.PrimInteger &&
			rightType.Kind == types.KindPrimitive && rightType.Primitive == ast.PrimInteger {
			return types.Primitive(ast.PrimInteger)
		}
		return types.Primitive(ast.PrimNumber)
	}
}

func (c *Checker) checkFunctionBody(env *typeEnv, body *ast.Block) types.Type {
	var ret types.Type = types.Void
	for i := range body.Statements {
		c.checkStmt(env, &body.Statements[i])
		if body.Statements[i].Kind == ast.StmtReturn && len(body.Statements[i].Return.Values) > 0 {
			values := make([]types.Type, len(body.Statements[i].Return.Values))
			for j := range body.Statements[i].Return.Values {
				values[j] = c.inferExpr(env, nil, &body.Statements[i].Return.Values[j])
			}
			if len(values) == 1 {
				ret = values[0]
			} else {
				ret = types.Type{Kind: types.KindTuple, Tuple: values}
			}
		}
	}
	return ret
}
