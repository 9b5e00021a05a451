// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package codegen

import (
	"fmt"
	"io"
	"strings"

	"typedlua.dev/tlc/internal/ast"
)

// match compiles a `match` expression to a decision tree, per spec §4.7:
// arms are tested in source order against a single discriminant binding,
// captures bind as locals scoped to the arm, failure falls through to
// the next arm, and an arm with no match falls through to a generated
// "no match" error for exhaustiveness. The whole tree is an IIFE so
// `match` composes as an expression.
//
// The arm count is written to a placeholder reserved at the top of the
// IIFE and patched via [bytewriter.Buffer.Seek] once every arm has been
// rendered and the true count is known, the way the code generator's
// buffer is described in SPEC_FULL.md §2 ("seek-back for patching
// forward jumps in pattern match decision trees") — here the patched
// text is a `-- N arm(s)` comment line rather than a byte offset, but
// the patch mechanism is the same seek-then-overwrite. The exhaustiveness
// error message is written with the arm count directly.
func (g *Generator) match(m *ast.MatchExpr) string {
	sub := &Generator{cfg: g.cfg, in: g.in, common: g.common, opt: g.opt, diags: g.diags, file: g.file, classStack: g.classStack}
	sub.out = newBuffer()
	sub.indent = g.indent + 1
	sub.tmp = g.tmp

	disc := sub.newTemp()
	sub.line("local %s = %s", disc, g.expr(&m.Discriminant))

	countPlaceholder := sub.reserveLine(40)

	for i := range m.Arms {
		arm := &m.Arms[i]
		cond, binds := sub.patternTest(&arm.Pattern, disc)
		if arm.Guard != nil {
			if cond == "" {
				cond = sub.expr(arm.Guard)
			} else {
				cond = fmt.Sprintf("%s and %s", cond, sub.expr(arm.Guard))
			}
		}
		if cond == "" {
			cond = "true"
		}
		kw := "if"
		if i > 0 {
			kw = "elseif"
		}
		sub.line("%s %s then", kw, cond)
		sub.indented(func() {
			for _, b := range binds {
				sub.line("%s", b)
			}
			sub.line("return %s", sub.expr(&arm.Body))
		})
	}
	sub.line("else")
	sub.indented(func() {
		sub.line(`error("no match: exhausted all " .. tostring(%d) .. " arm(s)")`, len(m.Arms))
	})
	sub.line("end")

	sub.patch(countPlaceholder, fmt.Sprintf("-- %d arm(s)", len(m.Arms)))

	g.tmp = sub.tmp
	var b strings.Builder
	b.WriteString("(function()\n")
	b.WriteString(string(sub.Bytes()))
	b.WriteString(strings.Repeat("  ", g.indent))
	b.WriteString("end)()")
	return b.String()
}

// reserveLine writes a blank placeholder line padded to width bytes (plus
// the trailing newline) and returns the byte offset it starts at, so a
// later, shorter line can be seeked back and overwritten in place without
// disturbing everything written after it.
func (g *Generator) reserveLine(width int) int64 {
	pos, _ := g.out.Seek(0, io.SeekCurrent)
	fmt.Fprint(g.out, strings.Repeat(" ", width), "\n")
	return pos
}

// patch overwrites the placeholder line reserved at offset with text,
// space-padded to the placeholder's original width, then restores the
// buffer's write position to where it was before patching.
func (g *Generator) patch(offset int64, text string) {
	cur, _ := g.out.Seek(0, io.SeekCurrent)
	g.out.Seek(offset, io.SeekStart)
	padded := text
	fmt.Fprint(g.out, padded)
	g.out.Seek(cur, io.SeekStart)
}

// patternTest renders a boolean Lua expression testing whether disc (a
// rendered Lua expression naming the discriminant) matches p, plus the
// local-binding statements the matched arm's body needs. Or-patterns
// combine their branches' conditions with `or`, sharing the bindings of
// whichever branch matched by declaring every branch's bindings in the
// arm body, after the combined condition holds (spec §4.7: "Or-patterns
// share the right-hand side by jumping to a shared label via an
// if...elseif chain" — codegen achieves the same sharing by keeping
// bindings out of the condition rather than emitting a goto label per
// branch).
func (g *Generator) patternTest(p *ast.Pattern, disc string) (string, []string) {
	switch p.Kind {
	case ast.PatWildcard:
		return "", nil
	case ast.PatIdentifier:
		return "", []string{fmt.Sprintf("local %s = %s", g.name(p.Ident.Name), disc)}
	case ast.PatLiteral:
		return fmt.Sprintf("%s == %s", disc, g.literal(p.Literal)), nil
	case ast.PatArray:
		return g.arrayPatternTest(p.Array, disc)
	case ast.PatObject:
		return g.objectPatternTest(p.Object, disc)
	case ast.PatGuard:
		cond, binds := g.patternTest(p.Guard.Inner, disc)
		guard := g.expr(&p.Guard.Condition)
		if cond == "" {
			cond = guard
		} else {
			cond = fmt.Sprintf("%s and %s", cond, guard)
		}
		return cond, binds
	case ast.PatOr:
		var conds []string
		var binds []string
		for i := range p.Or {
			c, b := g.patternTest(&p.Or[i], disc)
			if c == "" {
				c = "true"
			}
			conds = append(conds, c)
			binds = append(binds, b...)
		}
		return "(" + strings.Join(conds, " or ") + ")", binds
	}
	return "true", nil
}

func (g *Generator) arrayPatternTest(a *ast.ArrayPattern, disc string) (string, []string) {
	var conds []string
	var binds []string
	minLen := 0
	hasRest := false
	for _, el := range a.Elements {
		if el.Kind == ast.ArrayPatRest {
			hasRest = true
			continue
		}
		minLen++
	}
	if hasRest {
		conds = append(conds, fmt.Sprintf("#%s >= %d", disc, minLen))
	} else {
		conds = append(conds, fmt.Sprintf("#%s == %d", disc, minLen))
	}
	idx := 1
	for _, el := range a.Elements {
		switch el.Kind {
		case ast.ArrayPatHole:
			idx++
		case ast.ArrayPatRest:
			t := g.newTemp()
			binds = append(binds, fmt.Sprintf("local %s = { table.unpack(%s, %d) }", t, disc, idx))
			_, b := g.patternTest(el.Pattern, t)
			binds = append(binds, b...)
		default:
			elemRef := fmt.Sprintf("%s[%d]", disc, idx)
			c, b := g.patternTest(el.Pattern, elemRef)
			if c != "" {
				conds = append(conds, c)
			}
			binds = append(binds, b...)
			idx++
		}
	}
	return strings.Join(conds, " and "), binds
}

func (g *Generator) objectPatternTest(o *ast.ObjectPattern, disc string) (string, []string) {
	var conds []string
	var binds []string
	conds = append(conds, fmt.Sprintf("type(%s) == \"table\"", disc))
	for _, prop := range o.Properties {
		field := fmt.Sprintf("%s.%s", disc, g.name(prop.Key.Name))
		if prop.Value == nil {
			binds = append(binds, fmt.Sprintf("local %s = %s", g.name(prop.Key.Name), field))
			continue
		}
		c, b := g.patternTest(prop.Value, field)
		if c != "" {
			conds = append(conds, c)
		}
		binds = append(binds, b...)
	}
	return strings.Join(conds, " and "), binds
}
