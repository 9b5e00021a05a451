// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"typedlua.dev/tlc/internal/ast"
)

// expr renders e as a single Lua expression. Constructs that need
// statements of their own (match, try-as-expression, null-coalesce,
// bang) are wrapped in an immediately-invoked function literal, the
// idiom spec §4.7 names explicitly for null-coalesce.
func (g *Generator) expr(e *ast.Expression) string {
	switch e.Kind {
	case ast.ExprLiteral:
		return g.literal(e.Literal)
	case ast.ExprIdentifier:
		return g.name(e.Ident.Name)
	case ast.ExprMember:
		return g.member(e.Member)
	case ast.ExprSafeNav:
		return g.safeNav(e.SafeNav)
	case ast.ExprIndex:
		return fmt.Sprintf("%s[%s]", g.expr(e.Index.Object), g.expr(e.Index.Index))
	case ast.ExprCall:
		return g.call(e)
	case ast.ExprMethodCall:
		return g.methodCall(e)
	case ast.ExprNew:
		return g.new(e.New)
	case ast.ExprSuper:
		return "self" // bare `super` only appears as a super.method(...) receiver
	case ast.ExprTemplateLiteral:
		return g.templateLiteral(e.Template)
	case ast.ExprArray:
		return g.array(e)
	case ast.ExprObject:
		return g.object(e)
	case ast.ExprSpread:
		return fmt.Sprintf("table.unpack(%s)", g.expr(e.Spread))
	case ast.ExprPipe:
		return fmt.Sprintf("%s(%s)", g.expr(&e.Pipe.Func), g.expr(&e.Pipe.Value))
	case ast.ExprNullCoalesce:
		return g.nullCoalesce(e.Coalesce)
	case ast.ExprArrow:
		return g.arrow(e.Arrow)
	case ast.ExprMatch:
		return g.match(e.Match)
	case ast.ExprThrow:
		return fmt.Sprintf("error(%s)", g.expr(e.Throw))
	case ast.ExprTry:
		return g.tryExpr(e.Try)
	case ast.ExprUnary:
		return g.unary(e.Unary)
	case ast.ExprBinary:
		return g.binary(e.Binary)
	case ast.ExprBang:
		return g.bang(e.Bang)
	case ast.ExprParenthesized:
		return "(" + g.expr(e.Inner) + ")"
	case ast.ExprAssign:
		return g.expr(e.Inner)
	}
	return "nil"
}

func (g *Generator) literal(l *ast.Literal) string {
	switch l.Kind {
	case ast.LitNil:
		return "nil"
	case ast.LitBoolean:
		if l.Bool {
			return "true"
		}
		return "false"
	case ast.LitNumber:
		return strconv.FormatFloat(l.Num, 'g', -1, 64)
	case ast.LitInteger:
		return strconv.FormatInt(l.Int, 10)
	case ast.LitString:
		return luaQuote(l.Str)
	}
	return "nil"
}

// luaQuote renders s as a double-quoted Lua string literal, escaping the
// characters Lua's short string grammar requires.
func luaQuote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case 0:
			b.WriteString(`\0`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func (g *Generator) member(m *ast.MemberExpr) string {
	return fmt.Sprintf("%s.%s", g.expr(m.Object), g.name(m.Name.Name))
}

// safeNav lowers `a?.b` to an IIFE that short-circuits on a nil base,
// per spec §4.7 ("a?.b short-circuits on nil").
func (g *Generator) safeNav(m *ast.MemberExpr) string {
	t := g.newTemp()
	return fmt.Sprintf("(function() local %s = %s; if %s == nil then return nil else return %s.%s end end)()",
		t, g.expr(m.Object), t, t, g.name(m.Name.Name))
}

func (g *Generator) args(as []ast.Argument) string {
	parts := make([]string, len(as))
	for i, a := range as {
		if a.Spread {
			parts[i] = fmt.Sprintf("table.unpack(%s)", g.expr(&a.Value))
		} else {
			parts[i] = g.expr(&a.Value)
		}
	}
	return strings.Join(parts, ", ")
}

func (g *Generator) call(e *ast.Expression) string {
	c := e.Call
	if tag, ok := g.opt.Specialized[e.Span]; ok && c.Callee.Kind == ast.ExprIdentifier {
		return fmt.Sprintf("%s__%s(%s)", g.name(c.Callee.Ident.Name), tag, g.args(c.Args))
	}
	return fmt.Sprintf("%s(%s)", g.expr(&c.Callee), g.args(c.Args))
}

// methodCall lowers `obj.method(args)`; a `super.method(...)` receiver is
// rewritten to a direct call on the enclosing class's parent, passing
// self explicitly, since Lua has no bound-method super mechanism of its
// own (spec §4.7: "a super.method(...) call translates to
// Parent.method(self, ...)"). A call the devirtualization pass marked
// (optimize.Context.Devirtualized) skips the instance's metatable chain
// entirely and calls the concrete class's method directly, passing the
// receiver as an explicit first argument the same way a super-call does.
func (g *Generator) methodCall(e *ast.Expression) string {
	m := e.Method
	if m.Object.Kind == ast.ExprSuper {
		parent := g.currentParent()
		args := g.args(m.Args)
		if args == "" {
			return fmt.Sprintf("%s.%s(self)", parent, g.name(m.Method.Name))
		}
		return fmt.Sprintf("%s.%s(self, %s)", parent, g.name(m.Method.Name), args)
	}
	if className, ok := g.opt.Devirtualized[e.Span]; ok {
		recv := g.expr(&m.Object)
		args := g.args(m.Args)
		if args == "" {
			return fmt.Sprintf("%s.%s(%s)", g.name(className), g.name(m.Method.Name), recv)
		}
		return fmt.Sprintf("%s.%s(%s, %s)", g.name(className), g.name(m.Method.Name), recv, args)
	}
	return fmt.Sprintf("%s:%s(%s)", g.expr(&m.Object), g.name(m.Method.Name), g.args(m.Args))
}

func (g *Generator) currentParent() string {
	if len(g.classStack) == 0 {
		return "nil"
	}
	f := g.classStack[len(g.classStack)-1]
	if !f.hasParent {
		return "nil"
	}
	return g.name(f.parent)
}

func (g *Generator) new(n *ast.NewExpr) string {
	if n.Callee.Kind == ast.ExprIdentifier {
		return fmt.Sprintf("%s.new(%s)", g.name(n.Callee.Ident.Name), g.args(n.Args))
	}
	return fmt.Sprintf("(%s).new(%s)", g.expr(&n.Callee), g.args(n.Args))
}

func (g *Generator) templateLiteral(t *ast.TemplateLiteralExpr) string {
	parts := make([]string, 0, len(t.Strings)+len(t.Exprs))
	for i, s := range t.Strings {
		if s != "" {
			parts = append(parts, luaQuote(s))
		}
		if i < len(t.Exprs) {
			parts = append(parts, fmt.Sprintf("tostring(%s)", g.expr(&t.Exprs[i])))
		}
	}
	if len(parts) == 0 {
		return `""`
	}
	return strings.Join(parts, " .. ")
}

// array renders a table constructor for an array literal, emitting a
// `table.unpack` splice for spread elements and `nil` placeholders for
// holes so later indices keep their source positions.
func (g *Generator) array(e *ast.Expression) string {
	a := e.Array
	parts := make([]string, 0, len(a.Elements))
	for i := range a.Elements {
		el := &a.Elements[i]
		switch el.Kind {
		case ast.ArrayElemHole:
			parts = append(parts, "nil")
		case ast.ArrayElemSpread:
			parts = append(parts, fmt.Sprintf("table.unpack(%s)", g.expr(&el.Expr)))
		default:
			parts = append(parts, g.expr(&el.Expr))
		}
	}
	if n, ok := g.opt.PreallocSizes[e.Span]; ok {
		return fmt.Sprintf("{ --[[ prealloc %d ]] %s }", n, strings.Join(parts, ", "))
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

func (g *Generator) object(e *ast.Expression) string {
	o := e.Object
	parts := make([]string, 0, len(o.Properties))
	for i := range o.Properties {
		p := &o.Properties[i]
		switch p.Kind {
		case ast.ObjPropSpread:
			parts = append(parts, fmt.Sprintf("table.unpack(%s)", g.expr(&p.Value)))
		case ast.ObjPropComputed:
			parts = append(parts, fmt.Sprintf("[%s] = %s", g.expr(p.Computed), g.expr(&p.Value)))
		case ast.ObjPropMethod:
			parts = append(parts, fmt.Sprintf("%s = %s", g.name(p.Key.Name), g.functionLiteral(p.Params, p.Body, false)))
		default:
			parts = append(parts, fmt.Sprintf("%s = %s", g.name(p.Key.Name), g.expr(&p.Value)))
		}
	}
	if n, ok := g.opt.PreallocSizes[e.Span]; ok {
		return fmt.Sprintf("{ --[[ prealloc %d ]] %s }", n, strings.Join(parts, ", "))
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

// nullCoalesce lowers `a ?? b` to the IIFE spec §4.7 gives by name.
func (g *Generator) nullCoalesce(b *ast.BinaryLikeExpr) string {
	t := g.newTemp()
	return fmt.Sprintf("(function() local %s = %s; if %s == nil then return %s else return %s end end)()",
		t, g.expr(&b.Left), t, g.expr(&b.Right), t)
}

func (g *Generator) functionLiteral(params []ast.Parameter, body ast.Block, isMethod bool) string {
	var b strings.Builder
	b.WriteString("function(")
	if isMethod {
		b.WriteString("self")
		if len(params) > 0 {
			b.WriteString(", ")
		}
	}
	b.WriteString(g.paramList(params))
	b.WriteString(")\n")
	b.WriteString(g.blockBody(params, body))
	b.WriteString(strings.Repeat("  ", g.indent))
	b.WriteString("end")
	return b.String()
}

// blockBody renders a function body's statements at one deeper indent
// level than the current one, returning the rendered text rather than
// writing to g.out directly, since function literals are composed inline
// as expression text.
func (g *Generator) blockBody(params []ast.Parameter, body ast.Block) string {
	sub := &Generator{cfg: g.cfg, in: g.in, common: g.common, opt: g.opt, diags: g.diags, file: g.file, classStack: g.classStack}
	sub.out = newBuffer()
	sub.indent = g.indent + 1
	sub.tmp = g.tmp
	sub.paramPreamble(params)
	for i := range body.Statements {
		sub.statement(&body.Statements[i])
	}
	g.tmp = sub.tmp
	return string(sub.Bytes())
}

func (g *Generator) paramList(params []ast.Parameter) string {
	names := make([]string, 0, len(params))
	for _, p := range params {
		if p.Rest {
			names = append(names, "...")
			continue
		}
		names = append(names, g.name(p.Name.Name))
	}
	return strings.Join(names, ", ")
}

func (g *Generator) arrow(a *ast.ArrowExpr) string {
	if a.BodyStyle == ast.ArrowExprBody {
		return fmt.Sprintf("(function(%s) return %s end)", g.paramList(a.Params), g.expr(a.ExprBody))
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("(function(%s)\n", g.paramList(a.Params)))
	b.WriteString(g.blockBody(a.Params, *a.BlockBody))
	b.WriteString(strings.Repeat("  ", g.indent))
	b.WriteString("end)")
	return b.String()
}

// tryExpr lowers `try expr` / `try expr catch expr` (try-as-expression
// form) to a pcall, using xpcall with a traceback handler on targets that
// support it (spec §4.7 exception lowering).
func (g *Generator) tryExpr(t *ast.TryExpr) string {
	fn := fmt.Sprintf("function() return %s end", g.expr(&t.Body))
	if t.Catch == nil {
		if g.atLeast53() {
			return fmt.Sprintf("select(2, xpcall(%s, debug.traceback))", fn)
		}
		return fmt.Sprintf("select(2, pcall(%s))", fn)
	}
	ok, tmp := "_tlok", g.newTemp()
	return fmt.Sprintf("(function() local %s, %s = pcall(%s); if %s then return %s else return %s end end)()",
		ok, tmp, fn, ok, tmp, g.expr(t.Catch))
}

// bang lowers `expr !! fallback` (supplemented feature, SPEC_FULL.md §4)
// to a local pcall guarding expr, evaluating fallback only on error.
func (g *Generator) bang(b *ast.BangExpr) string {
	ok, val := "_tlok", g.newTemp()
	return fmt.Sprintf("(function() local %s, %s = pcall(function() return %s end); if %s then return %s else return %s end end)()",
		ok, val, g.expr(&b.Try), ok, val, g.expr(&b.Fallback))
}

func (g *Generator) unary(u *ast.UnaryExpr) string {
	operand := g.expr(&u.Operand)
	switch u.Op {
	case ast.UnaryNeg:
		return "-" + operand
	case ast.UnaryNot:
		return "not " + operand
	case ast.UnaryLen:
		return "#" + operand
	case ast.UnaryBitNot:
		if g.atLeast53() {
			return "~" + operand
		}
		return fmt.Sprintf("__tl_bnot(%s)", operand)
	}
	return operand
}

func (g *Generator) binary(b *ast.BinaryExpr) string {
	l, r := g.expr(&b.Left), g.expr(&b.Right)
	switch b.Op {
	case ast.BinAdd:
		return fmt.Sprintf("(%s + %s)", l, r)
	case ast.BinSub:
		return fmt.Sprintf("(%s - %s)", l, r)
	case ast.BinMul:
		return fmt.Sprintf("(%s * %s)", l, r)
	case ast.BinDiv:
		return fmt.Sprintf("(%s / %s)", l, r)
	case ast.BinFloorDiv:
		if g.atLeast53() {
			return fmt.Sprintf("(%s // %s)", l, r)
		}
		return fmt.Sprintf("math.floor(%s / %s)", l, r)
	case ast.BinMod:
		return fmt.Sprintf("(%s %% %s)", l, r)
	case ast.BinPow:
		return fmt.Sprintf("(%s ^ %s)", l, r)
	case ast.BinConcat:
		return g.concat(b, l, r)
	case ast.BinEq:
		return fmt.Sprintf("(%s == %s)", l, r)
	case ast.BinNotEq:
		return fmt.Sprintf("(%s ~= %s)", l, r)
	case ast.BinLess:
		return fmt.Sprintf("(%s < %s)", l, r)
	case ast.BinLessEq:
		return fmt.Sprintf("(%s <= %s)", l, r)
	case ast.BinGreater:
		return fmt.Sprintf("(%s > %s)", l, r)
	case ast.BinGreaterEq:
		return fmt.Sprintf("(%s >= %s)", l, r)
	case ast.BinAnd:
		return fmt.Sprintf("(%s and %s)", l, r)
	case ast.BinOr:
		return fmt.Sprintf("(%s or %s)", l, r)
	case ast.BinBitAnd:
		return g.bitwise(l, r, "&", "__tl_band")
	case ast.BinBitOr:
		return g.bitwise(l, r, "|", "__tl_bor")
	case ast.BinBitXor:
		return g.bitwise(l, r, "~", "__tl_bxor")
	case ast.BinShiftLeft:
		return g.bitwise(l, r, "<<", "__tl_shl")
	case ast.BinShiftRight:
		return g.bitwise(l, r, ">>", "__tl_shr")
	case ast.BinInstanceOf:
		return fmt.Sprintf("__tl_instanceof(%s, %s)", l, r)
	}
	return l
}

func (g *Generator) bitwise(l, r, nativeOp, helper string) string {
	if g.atLeast53() {
		return fmt.Sprintf("(%s %s %s)", l, nativeOp, r)
	}
	return fmt.Sprintf("%s(%s, %s)", helper, l, r)
}

// concat collapses a long `..` chain into a `table.concat` call, per
// spec §4.7 and the optimizer's string-concat-optimization pass;
// shorter chains stay a plain `..` since a table allocation would cost
// more than it saves.
func (g *Generator) concat(b *ast.BinaryExpr, l, r string) string {
	if n, ok := g.opt.ConcatChains[b.Span]; ok && n >= 3 {
		var fragments []string
		flattenConcatText(&b.Left, g, &fragments)
		flattenConcatText(&b.Right, g, &fragments)
		return fmt.Sprintf("table.concat({ %s })", strings.Join(fragments, ", "))
	}
	return fmt.Sprintf("(%s .. %s)", l, r)
}

func flattenConcatText(e *ast.Expression, g *Generator, out *[]string) {
	if e.Kind == ast.ExprBinary && e.Binary.Op == ast.BinConcat {
		flattenConcatText(&e.Binary.Left, g, out)
		flattenConcatText(&e.Binary.Right, g, out)
		return
	}
	*out = append(*out, g.expr(e))
}
