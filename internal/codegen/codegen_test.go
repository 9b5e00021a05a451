// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package codegen

import (
	"strings"
	"testing"

	"typedlua.dev/tlc/internal/ast"
	"typedlua.dev/tlc/internal/config"
	"typedlua.dev/tlc/internal/diag"
	"typedlua.dev/tlc/internal/interner"
	"typedlua.dev/tlc/internal/optimize"
	"typedlua.dev/tlc/internal/span"
)

func sp(n int) span.Span { return span.New(0, n, 1, 1, n) }

func newGen(t *testing.T, cfg *config.CompilerConfig, prog *ast.Program) (*Generator, *interner.Interner) {
	t.Helper()
	in, common := interner.NewWithCommon()
	ctx := optimize.NewContext(cfg, prog)
	diags := diag.NewHandler()
	g := New(cfg, in, common, ctx, diags, diag.File{Path: "test.tl"})
	return g, in
}

func ident(in *interner.Interner, n int, name string) ast.Expression {
	id := ast.Ident{Name: in.Intern(name), Span: sp(n)}
	return ast.Expression{Kind: ast.ExprIdentifier, Span: sp(n), Ident: &id}
}

func intLit(n int, v int64) ast.Expression {
	return ast.Expression{Kind: ast.ExprLiteral, Span: sp(n), Literal: &ast.Literal{Kind: ast.LitInteger, Int: v, Span: sp(n)}}
}

func TestGenerateEmitsTargetHeader(t *testing.T) {
	cfg := config.Default()
	prog := &ast.Program{}
	g, _ := newGen(t, cfg, prog)
	out := string(g.Generate(prog))
	if !strings.Contains(out, "-- target: "+string(cfg.Target)) {
		t.Fatalf("expected target header, got %q", out)
	}
}

func TestVarDeclSimple(t *testing.T) {
	cfg := config.Default()
	prog := &ast.Program{}
	g, in := newGen(t, cfg, prog)
	name := ast.Ident{Name: in.Intern("x"), Span: sp(1)}
	v := intLit(2, 42)
	g.varDecl(&ast.VarDecl{Name: &name, Value: &v, Span: sp(1)})
	got := string(g.Bytes())
	if !strings.Contains(got, "local x = 42") {
		t.Fatalf("expected `local x = 42`, got %q", got)
	}
}

func TestNameEscapesLuaKeyword(t *testing.T) {
	cfg := config.Default()
	prog := &ast.Program{}
	g, in := newGen(t, cfg, prog)
	id := in.Intern("end")
	if got := g.name(id); got != "end_tl" {
		t.Fatalf("expected keyword escaped to end_tl, got %q", got)
	}
	id2 := in.Intern("total")
	if got := g.name(id2); got != "total" {
		t.Fatalf("expected non-keyword unescaped, got %q", got)
	}
}

func TestParamPreambleHandlesRestAndDefault(t *testing.T) {
	cfg := config.Default()
	prog := &ast.Program{}
	g, in := newGen(t, cfg, prog)
	restName := ast.Ident{Name: in.Intern("rest"), Span: sp(1)}
	defName := ast.Ident{Name: in.Intern("count"), Span: sp(2)}
	def := intLit(3, 10)
	params := []ast.Parameter{
		{Name: defName, Default: def, Span: sp(2)},
		{Name: restName, Rest: true, Span: sp(1)},
	}
	g.paramPreamble(params)
	got := string(g.Bytes())
	if !strings.Contains(got, "if count == nil then count = 10 end") {
		t.Fatalf("expected default-param preamble, got %q", got)
	}
	if !strings.Contains(got, "local rest = { ... }") {
		t.Fatalf("expected rest-param preamble, got %q", got)
	}
}

func TestClassDeclEmitsConstructorAndIndexChain(t *testing.T) {
	cfg := config.Default()
	prog := &ast.Program{}
	g, in := newGen(t, cfg, prog)
	d := &ast.ClassDecl{
		Name: ast.Ident{Name: in.Intern("Animal"), Span: sp(1)},
		Fields: []ast.ClassFieldDecl{
			{Name: ast.Ident{Name: in.Intern("name"), Span: sp(2)}, Span: sp(2)},
		},
		Methods: []ast.ClassMethodDecl{
			{
				Name:   ast.Ident{Name: in.Intern("speak"), Span: sp(3)},
				Body:   ast.Block{Span: sp(3)},
				Span:   sp(3),
			},
		},
		Span: sp(1),
	}
	g.classDecl(d)
	got := string(g.Bytes())
	for _, want := range []string{
		"local Animal = {}",
		"Animal.__index = Animal",
		"Animal.__ownFields",
		"Animal.__ownMethods",
		"function Animal:speak()",
		"function Animal.new(...)",
		"setmetatable({}, Animal)",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected class emission to contain %q, got:\n%s", want, got)
		}
	}
}

func TestClassDeclWithParentChainsIndex(t *testing.T) {
	cfg := config.Default()
	prog := &ast.Program{}
	g, in := newGen(t, cfg, prog)
	d := &ast.ClassDecl{
		Name:    ast.Ident{Name: in.Intern("Dog"), Span: sp(1)},
		Extends: &ast.TypeReference{Name: ast.Ident{Name: in.Intern("Animal"), Span: sp(1)}, Span: sp(1)},
		Span:    sp(1),
	}
	g.classDecl(d)
	got := string(g.Bytes())
	if !strings.Contains(got, "setmetatable(Dog, { __index = Animal })") {
		t.Fatalf("expected Dog's metatable to chain to Animal, got:\n%s", got)
	}
	if !strings.Contains(got, "Animal._init(self, ...)") {
		t.Fatalf("expected Dog.new to forward to Animal._init when Dog declares no constructor, got:\n%s", got)
	}
}

func TestEnumDeclEmitsValueOfAndByName(t *testing.T) {
	cfg := config.Default()
	prog := &ast.Program{}
	g, in := newGen(t, cfg, prog)
	d := &ast.EnumDecl{
		Name: ast.Ident{Name: in.Intern("Color"), Span: sp(1)},
		Members: []ast.EnumMember{
			{Name: ast.Ident{Name: in.Intern("Red"), Span: sp(2)}, Span: sp(2)},
			{Name: ast.Ident{Name: in.Intern("Blue"), Span: sp(3)}, Span: sp(3)},
		},
		Span: sp(1),
	}
	g.enumDecl(d)
	got := string(g.Bytes())
	if !strings.Contains(got, `Color.Red = { name = "Red", ordinal = 0`) {
		t.Fatalf("expected Red member with ordinal 0, got:\n%s", got)
	}
	if !strings.Contains(got, `Color.Blue = { name = "Blue", ordinal = 1`) {
		t.Fatalf("expected Blue member with ordinal 1, got:\n%s", got)
	}
	if !strings.Contains(got, "function Color.valueOf(name)") {
		t.Fatalf("expected valueOf method, got:\n%s", got)
	}
}

func TestNullCoalesceLowersToIIFE(t *testing.T) {
	cfg := config.Default()
	prog := &ast.Program{}
	g, in := newGen(t, cfg, prog)
	b := &ast.BinaryLikeExpr{Left: ident(in, 1, "a"), Right: ident(in, 2, "b"), Span: sp(1)}
	got := g.nullCoalesce(b)
	if !strings.Contains(got, "if _tl1 == nil then return b else return _tl1 end") {
		t.Fatalf("unexpected null-coalesce lowering: %q", got)
	}
}

func TestSafeNavShortCircuitsOnNil(t *testing.T) {
	cfg := config.Default()
	prog := &ast.Program{}
	g, in := newGen(t, cfg, prog)
	obj := ident(in, 1, "a")
	m := &ast.MemberExpr{Object: &obj, Name: ast.Ident{Name: in.Intern("b"), Span: sp(2)}, Span: sp(1)}
	got := g.safeNav(m)
	if !strings.Contains(got, "if _tl1 == nil then return nil else return _tl1.b end") {
		t.Fatalf("unexpected safe-nav lowering: %q", got)
	}
}

func TestPipeLowersToCall(t *testing.T) {
	cfg := config.Default()
	prog := &ast.Program{}
	g, in := newGen(t, cfg, prog)
	e := ast.Expression{
		Kind: ast.ExprPipe,
		Span: sp(1),
		Pipe: &ast.PipeExpr{Func: ident(in, 1, "f"), Value: ident(in, 2, "x"), Span: sp(1)},
	}
	got := g.expr(&e)
	if got != "f(x)" {
		t.Fatalf("expected pipe to lower to f(x), got %q", got)
	}
}

func TestBinaryBitwiseDivergesByTarget(t *testing.T) {
	prog := &ast.Program{}
	l, r := intLit(1, 1), intLit(2, 2)
	b := &ast.BinaryExpr{Op: ast.BinBitAnd, Left: l, Right: r, Span: sp(1)}

	cfg51 := config.Default()
	cfg51.Target = config.Target51
	g51, _ := newGen(t, cfg51, prog)
	if got := g51.binary(b); got != "__tl_band(1, 2)" {
		t.Fatalf("expected helper call on 5.1, got %q", got)
	}

	cfg54 := config.Default()
	cfg54.Target = config.Target54
	g54, _ := newGen(t, cfg54, prog)
	if got := g54.binary(b); got != "(1 & 2)" {
		t.Fatalf("expected native bitwise on 5.4, got %q", got)
	}
}

func TestMatchEmitsDecisionTreeWithArmCount(t *testing.T) {
	cfg := config.Default()
	prog := &ast.Program{}
	g, in := newGen(t, cfg, prog)
	discName := ident(in, 1, "x")
	oneLit := ast.Literal{Kind: ast.LitInteger, Int: 1, Span: sp(2)}
	m := &ast.MatchExpr{
		Discriminant: discName,
		Span:         sp(0),
		Arms: []ast.MatchArm{
			{
				Pattern: ast.Pattern{Kind: ast.PatLiteral, Literal: &oneLit, Span: sp(2)},
				Body:    intLit(3, 100),
				Span:    sp(2),
			},
			{
				Pattern: ast.Pattern{Kind: ast.PatWildcard, Span: sp(4)},
				Body:    intLit(5, 0),
				Span:    sp(4),
			},
		},
	}
	got := g.match(m)
	if !strings.Contains(got, "-- 2 arm(s)") {
		t.Fatalf("expected patched arm count comment, got:\n%s", got)
	}
	if !strings.Contains(got, "no match: exhausted all \" .. tostring(2) ..") {
		t.Fatalf("expected exhaustiveness error naming 2 arms, got:\n%s", got)
	}
	if !strings.Contains(got, "(function()") || !strings.Contains(got, "end)()") {
		t.Fatalf("expected match to be wrapped in an IIFE, got:\n%s", got)
	}
}

func TestMatchArrayPatternBindsRest(t *testing.T) {
	cfg := config.Default()
	prog := &ast.Program{}
	g, in := newGen(t, cfg, prog)
	headName := ast.Ident{Name: in.Intern("head"), Span: sp(1)}
	restName := ast.Ident{Name: in.Intern("tail"), Span: sp(2)}
	pat := ast.Pattern{
		Kind: ast.PatArray,
		Span: sp(0),
		Array: &ast.ArrayPattern{
			Elements: []ast.ArrayPatternElement{
				{Kind: ast.ArrayPatElem, Pattern: &ast.Pattern{Kind: ast.PatIdentifier, Ident: &headName}},
				{Kind: ast.ArrayPatRest, Pattern: &ast.Pattern{Kind: ast.PatIdentifier, Ident: &restName}},
			},
			Span: sp(0),
		},
	}
	cond, binds := g.patternTest(&pat, "xs")
	if !strings.Contains(cond, "#xs >= 1") {
		t.Fatalf("expected rest pattern to require at least 1 element, got %q", cond)
	}
	joined := strings.Join(binds, "\n")
	if !strings.Contains(joined, "local head = xs[1]") {
		t.Fatalf("expected head binding, got %q", joined)
	}
	if !strings.Contains(joined, "table.unpack(xs, 2)") {
		t.Fatalf("expected rest binding to slice from index 2, got %q", joined)
	}
}

func TestTryStmtDispatchesByTarget(t *testing.T) {
	prog := &ast.Program{}
	tryStmt := &ast.TryStmt{Body: ast.Block{Span: sp(1)}, Span: sp(0)}

	cfg51 := config.Default()
	cfg51.Target = config.Target51
	g51, _ := newGen(t, cfg51, prog)
	g51.tryStmt(tryStmt)
	if got := string(g51.Bytes()); !strings.Contains(got, "pcall(") || strings.Contains(got, "xpcall(") {
		t.Fatalf("expected plain pcall on 5.1, got:\n%s", got)
	}

	cfg54 := config.Default()
	g54, _ := newGen(t, cfg54, prog)
	g54.tryStmt(tryStmt)
	if got := string(g54.Bytes()); !strings.Contains(got, "xpcall(") || !strings.Contains(got, "debug.traceback") {
		t.Fatalf("expected xpcall with traceback on 5.4, got:\n%s", got)
	}
}

func TestCatchChainReraisesWhenNoClauseMatches(t *testing.T) {
	cfg := config.Default()
	prog := &ast.Program{}
	g, in := newGen(t, cfg, prog)
	typeName := ast.Ident{Name: in.Intern("IOError"), Span: sp(1)}
	catches := []ast.CatchClause{
		{
			Type: &ast.Type{Kind: ast.TypeRef, Reference: &ast.TypeReference{Name: typeName, Span: sp(1)}},
			Body: ast.Block{Span: sp(1)},
			Span: sp(1),
		},
	}
	g.catchChain(catches, "err")
	got := string(g.Bytes())
	if !strings.Contains(got, "__tl_instanceof(err, IOError)") {
		t.Fatalf("expected typed catch clause to test via __tl_instanceof, got:\n%s", got)
	}
	if !strings.Contains(got, "error(err)") {
		t.Fatalf("expected re-raise when no clause matches, got:\n%s", got)
	}
}

func TestSuperMethodCallRewritesToParent(t *testing.T) {
	cfg := config.Default()
	prog := &ast.Program{}
	g, in := newGen(t, cfg, prog)
	g.classStack = append(g.classStack, classFrame{
		name:      in.Intern("Dog"),
		parent:    in.Intern("Animal"),
		hasParent: true,
	})
	superExpr := ast.Expression{Kind: ast.ExprSuper, Span: sp(1)}
	e := ast.Expression{
		Kind: ast.ExprMethodCall,
		Span: sp(2),
		Method: &ast.MethodCallExpr{
			Object: superExpr,
			Method: ast.Ident{Name: in.Intern("speak"), Span: sp(2)},
			Span:   sp(2),
		},
	}
	got := g.methodCall(&e)
	if got != "Animal.speak(self)" {
		t.Fatalf("expected super call rewritten to Animal.speak(self), got %q", got)
	}
}

func TestDevirtualizedMethodCallSkipsMetatable(t *testing.T) {
	cfg := config.Default()
	prog := &ast.Program{}
	g, in := newGen(t, cfg, prog)
	recv := ident(in, 1, "a")
	e := ast.Expression{
		Kind: ast.ExprMethodCall,
		Span: sp(2),
		Method: &ast.MethodCallExpr{
			Object: recv,
			Method: ast.Ident{Name: in.Intern("speak"), Span: sp(2)},
			Span:   sp(2),
		},
	}
	g.opt.Devirtualized[sp(2)] = in.Intern("Animal")
	got := g.methodCall(&e)
	if got != "Animal.speak(a)" {
		t.Fatalf("expected devirtualized call to bypass the metatable, got %q", got)
	}
}

func TestBundleWrapsModulesAndTreeShakes(t *testing.T) {
	cfg := config.Default()
	cfg.TreeShaking = true
	prog := &ast.Program{}
	g, _ := newGen(t, cfg, prog)
	modules := []Module{
		{Path: "main", Body: []byte(`local util = require("util")` + "\n")},
		{Path: "util", Body: []byte("return {}\n")},
		{Path: "unused", Body: []byte("return {}\n")},
	}
	got := string(g.Bundle(modules, "main"))
	if !strings.Contains(got, `__modules["main"]`) || !strings.Contains(got, `__modules["util"]`) {
		t.Fatalf("expected main and util in bundle, got:\n%s", got)
	}
	if strings.Contains(got, `__modules["unused"]`) {
		t.Fatalf("expected unreachable module dropped by tree shaking, got:\n%s", got)
	}
	if !strings.Contains(got, `return __require("main")`) {
		t.Fatalf("expected entry point required at the end, got:\n%s", got)
	}
}

func TestBundleKeepsAllModulesWhenTreeShakingDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.TreeShaking = false
	prog := &ast.Program{}
	g, _ := newGen(t, cfg, prog)
	modules := []Module{
		{Path: "main", Body: []byte("return {}\n")},
		{Path: "unused", Body: []byte("return {}\n")},
	}
	got := string(g.Bundle(modules, "main"))
	if !strings.Contains(got, `__modules["unused"]`) {
		t.Fatalf("expected unused module kept when tree shaking is disabled, got:\n%s", got)
	}
}

func TestBundleScopeHoistingInlinesSingleRequirer(t *testing.T) {
	cfg := config.Default()
	cfg.ScopeHoisting = true
	prog := &ast.Program{}
	g, _ := newGen(t, cfg, prog)
	modules := []Module{
		{Path: "main", Body: []byte(`local util = require("util")` + "\n")},
		{Path: "util", Body: []byte("return { answer = 42 }\n")},
	}
	got := string(g.Bundle(modules, "main"))
	if strings.Contains(got, `__modules["util"]`) {
		t.Fatalf("expected util folded into main, not registered separately, got:\n%s", got)
	}
	if !strings.Contains(got, `local util = (function()`) {
		t.Fatalf("expected util's require() replaced by an inlined IIFE, got:\n%s", got)
	}
	if !strings.Contains(got, "answer = 42") {
		t.Fatalf("expected util's body still present, inlined, got:\n%s", got)
	}
}

func TestBundleScopeHoistingLeavesSharedModuleRegistered(t *testing.T) {
	cfg := config.Default()
	cfg.ScopeHoisting = true
	prog := &ast.Program{}
	g, _ := newGen(t, cfg, prog)
	modules := []Module{
		{Path: "main", Body: []byte(`local a = require("a")
local b = require("b")
`)},
		{Path: "a", Body: []byte(`local shared = require("shared")` + "\n")},
		{Path: "b", Body: []byte(`local shared = require("shared")` + "\n")},
		{Path: "shared", Body: []byte("return {}\n")},
	}
	got := string(g.Bundle(modules, "main"))
	if !strings.Contains(got, `__modules["shared"]`) {
		t.Fatalf("a module required from two places must stay registered, not be duplicated inline, got:\n%s", got)
	}
}

func TestGenerateEmitsExportTableForTopLevelExports(t *testing.T) {
	cfg := config.Default()
	prog := &ast.Program{}
	g, in := newGen(t, cfg, prog)
	name := ast.Ident{Name: in.Intern("x"), Span: sp(1)}
	v := intLit(2, 42)
	prog.Statements = []ast.Statement{
		{
			Kind: ast.StmtExport,
			Span: sp(1),
			Export: &ast.ExportDecl{
				Span: sp(1),
				Decl: &ast.Statement{
					Kind:    ast.StmtVarDecl,
					Span:    sp(1),
					VarDecl: &ast.VarDecl{Name: &name, Value: &v, Span: sp(1)},
				},
			},
		},
	}
	got := string(g.Generate(prog))
	if !strings.Contains(got, "local x = 42") {
		t.Fatalf("expected the exported decl to still be emitted, got:\n%s", got)
	}
	if !strings.Contains(got, "return {\n  x = x,\n}") {
		t.Fatalf("expected a trailing export table naming x, got:\n%s", got)
	}
}

func TestGenerateEmitsEmptyExportTableWithNoExports(t *testing.T) {
	cfg := config.Default()
	prog := &ast.Program{}
	g, _ := newGen(t, cfg, prog)
	got := string(g.Generate(prog))
	if !strings.Contains(got, "return {}") {
		t.Fatalf("expected an empty export table for a unit with no exports, got:\n%s", got)
	}
}

func TestGenerateRecordsSourceMapWhenEnabled(t *testing.T) {
	cfg := config.Default()
	cfg.SourceMap = true
	prog := &ast.Program{}
	g, in := newGen(t, cfg, prog)
	name := ast.Ident{Name: in.Intern("x"), Span: sp(1)}
	v := intLit(2, 42)
	prog.Statements = []ast.Statement{
		{Kind: ast.StmtVarDecl, Span: sp(1), VarDecl: &ast.VarDecl{Name: &name, Value: &v, Span: sp(1)}},
	}
	g.Generate(prog)
	entries := g.SourceMap()
	if len(entries) == 0 {
		t.Fatalf("expected at least one source map entry")
	}
	if entries[0].SourceLine != 1 {
		t.Errorf("entries[0].SourceLine = %d, want 1", entries[0].SourceLine)
	}
	if entries[0].File != "test.tl" {
		t.Errorf("entries[0].File = %q, want test.tl", entries[0].File)
	}
}

func TestGenerateOmitsSourceMapWhenDisabled(t *testing.T) {
	cfg := config.Default()
	prog := &ast.Program{}
	g, _ := newGen(t, cfg, prog)
	g.Generate(prog)
	if len(g.SourceMap()) != 0 {
		t.Fatalf("expected no source map entries when cfg.SourceMap is false")
	}
}
