// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package optimize

import (
	"testing"

	"typedlua.dev/tlc/internal/ast"
	"typedlua.dev/tlc/internal/config"
	"typedlua.dev/tlc/internal/interner"
	"typedlua.dev/tlc/internal/span"
)

func sp(n int) span.Span { return span.New(0, n, 1, 1, n) }

func intLit(n int, v int64) ast.Expression {
	return ast.Expression{Kind: ast.ExprLiteral, Span: sp(n), Literal: &ast.Literal{Kind: ast.LitInteger, Int: v, Span: sp(n)}}
}

func ident(n int, in *interner.Interner, name string) ast.Expression {
	id := ast.Ident{Name: in.Intern(name), Span: sp(n)}
	return ast.Expression{Kind: ast.ExprIdentifier, Span: sp(n), Ident: &id}
}

func binary(n int, op ast.BinaryOp, l, r ast.Expression) ast.Expression {
	return ast.Expression{Kind: ast.ExprBinary, Span: sp(n), Binary: &ast.BinaryExpr{Op: op, Left: l, Right: r, Span: sp(n)}}
}

func TestConstantFolding(t *testing.T) {
	prog := &ast.Program{
		Statements: []ast.Statement{
			{
				Kind: ast.StmtReturn,
				Span: sp(1),
				Return: &ast.ReturnStmt{
					Values: []ast.Expression{binary(1, ast.BinAdd, intLit(2, 1), intLit(3, 2))},
					Span:   sp(1),
				},
			},
		},
	}
	if !ConstantFolding(nil, prog) {
		t.Fatal("expected constant folding to report a change")
	}
	ret := prog.Statements[0].Return.Values[0]
	if ret.Kind != ast.ExprLiteral || ret.Literal.Kind != ast.LitInteger || ret.Literal.Int != 3 {
		t.Fatalf("1+2 did not fold to integer literal 3, got %+v", ret)
	}
	if ConstantFolding(nil, prog) {
		t.Fatal("expected second pass over already-folded tree to report no change")
	}
}

func TestAlgebraicSimplificationDropsAddZero(t *testing.T) {
	in := interner.New()
	e := binary(1, ast.BinAdd, ident(1, in, "x"), intLit(2, 0))
	stmt := ast.Statement{Kind: ast.StmtExpr, Span: sp(1), Expr: &e}
	prog := &ast.Program{Statements: []ast.Statement{stmt}}
	if !AlgebraicSimplification(nil, prog) {
		t.Fatal("expected x+0 to simplify")
	}
	got := prog.Statements[0].Expr
	if got.Kind != ast.ExprIdentifier {
		t.Fatalf("expected x+0 to simplify to the identifier, got %+v", got)
	}
}

func TestDeadCodeEliminationPrunesAfterReturn(t *testing.T) {
	in := interner.New()
	unreachable := ast.Statement{Kind: ast.StmtExpr, Span: sp(2), Expr: ptrExpr(ident(2, in, "y"))}
	ret := ast.Statement{Kind: ast.StmtReturn, Span: sp(1), Return: &ast.ReturnStmt{Span: sp(1)}}
	prog := &ast.Program{Statements: []ast.Statement{ret, unreachable}}
	if !DeadCodeElimination(nil, prog) {
		t.Fatal("expected statement after return to be pruned")
	}
	if len(prog.Statements) != 1 {
		t.Fatalf("expected 1 statement remaining, got %d", len(prog.Statements))
	}
}

func TestStringConcatOptimizationFlagsLongChain(t *testing.T) {
	in := interner.New()
	chain := ident(1, in, "a")
	for i, name := range []string{"b", "c", "d"} {
		chain = binary(i+2, ast.BinConcat, chain, ident(i+2, in, name))
	}
	stmt := ast.Statement{Kind: ast.StmtExpr, Span: sp(10), Expr: &chain}
	prog := &ast.Program{Statements: []ast.Statement{stmt}}
	cfg := config.Default()
	ctx := NewContext(cfg, prog)
	if !StringConcatOptimization(ctx, prog) {
		t.Fatal("expected a chain of 4 fragments to be flagged")
	}
	if n := ctx.ConcatChains[chain.Span]; n != 4 {
		t.Fatalf("expected chain length 4, got %d", n)
	}
}

func TestTablePreallocationRecordsStaticSize(t *testing.T) {
	arr := ast.Expression{
		Kind: ast.ExprArray,
		Span: sp(1),
		Array: &ast.ArrayExpr{
			Elements: []ast.ArrayElement{
				{Kind: ast.ArrayElemExpr, Expr: intLit(2, 1)},
				{Kind: ast.ArrayElemExpr, Expr: intLit(3, 2)},
			},
			Span: sp(1),
		},
	}
	stmt := ast.Statement{Kind: ast.StmtExpr, Span: sp(1), Expr: &arr}
	prog := &ast.Program{Statements: []ast.Statement{stmt}}
	cfg := config.Default()
	ctx := NewContext(cfg, prog)
	if !TablePreallocation(ctx, prog) {
		t.Fatal("expected array literal to get a prealloc size")
	}
	if ctx.PreallocSizes[arr.Span] != 2 {
		t.Fatalf("expected prealloc size 2, got %d", ctx.PreallocSizes[arr.Span])
	}
}

func TestGlobalLocalizationHoistsFrequentFreeIdent(t *testing.T) {
	in := interner.New()
	body := []ast.Statement{
		{Kind: ast.StmtExpr, Span: sp(1), Expr: ptrExpr(ident(1, in, "print"))},
		{Kind: ast.StmtExpr, Span: sp(2), Expr: ptrExpr(ident(2, in, "print"))},
		{Kind: ast.StmtExpr, Span: sp(3), Expr: ptrExpr(ident(3, in, "print"))},
	}
	fnBody := ast.Block{Statements: body, Span: sp(0)}
	fn := ast.Statement{
		Kind:     ast.StmtFunctionDecl,
		Span:     sp(0),
		Function: &ast.FunctionDecl{Name: ast.Ident{Name: in.Intern("f"), Span: sp(0)}, Body: fnBody, Span: sp(0)},
	}
	prog := &ast.Program{Statements: []ast.Statement{fn}}
	cfg := config.Default()
	ctx := NewContext(cfg, prog)
	if !GlobalLocalization(ctx, prog) {
		t.Fatal("expected print to be hoisted after 3 references")
	}
	hoisted := ctx.LocalizedGlobals[fn.Function.Body.Span]
	if len(hoisted) != 1 || hoisted[0] != in.Intern("print") {
		t.Fatalf("expected [print] hoisted, got %v", hoisted)
	}
}

func TestFunctionInliningSubstitutesLiteralArgs(t *testing.T) {
	in := interner.New()
	paramX := ast.Ident{Name: in.Intern("x"), Span: sp(0)}
	double := ast.Statement{
		Kind: ast.StmtFunctionDecl,
		Span: sp(0),
		Function: &ast.FunctionDecl{
			Name:   ast.Ident{Name: in.Intern("double"), Span: sp(0)},
			Params: []ast.Parameter{{Name: paramX, Span: sp(0)}},
			Body: ast.Block{
				Statements: []ast.Statement{
					{
						Kind: ast.StmtReturn,
						Span: sp(1),
						Return: &ast.ReturnStmt{
							Values: []ast.Expression{binary(1, ast.BinMul, ast.Expression{Kind: ast.ExprIdentifier, Span: sp(1), Ident: &paramX}, intLit(2, 2))},
							Span:   sp(1),
						},
					},
				},
			},
		},
	}
	callArg := ast.Argument{Value: intLit(5, 21)}
	call := ast.Expression{
		Kind: ast.ExprCall,
		Span: sp(6),
		Call: &ast.CallExpr{Callee: ident(6, in, "double"), Args: []ast.Argument{callArg}, Span: sp(6)},
	}
	useStmt := ast.Statement{Kind: ast.StmtExpr, Span: sp(6), Expr: &call}
	prog := &ast.Program{Statements: []ast.Statement{double, useStmt}}
	cfg := config.Default()
	ctx := NewContext(cfg, prog)
	if !FunctionInlining(ctx, prog) {
		t.Fatal("expected call to double(21) to inline")
	}
	got := prog.Statements[1].Expr
	if got.Kind != ast.ExprBinary || got.Binary.Op != ast.BinMul {
		t.Fatalf("expected inlined binary expression, got %+v", got)
	}
	if got.Binary.Left.Kind != ast.ExprLiteral || got.Binary.Left.Literal.Int != 21 {
		t.Fatalf("expected parameter substituted with 21, got %+v", got.Binary.Left)
	}
}

func TestTailCallOptimizationMarksSelfCall(t *testing.T) {
	in := interner.New()
	name := in.Intern("loop")
	selfCall := ast.Expression{
		Kind: ast.ExprCall,
		Span: sp(2),
		Call: &ast.CallExpr{Callee: ast.Expression{Kind: ast.ExprIdentifier, Span: sp(2), Ident: &ast.Ident{Name: name, Span: sp(2)}}, Span: sp(2)},
	}
	retStmt := ast.Statement{Kind: ast.StmtReturn, Span: sp(1), Return: &ast.ReturnStmt{Values: []ast.Expression{selfCall}, Span: sp(1)}}
	fn := ast.Statement{
		Kind:     ast.StmtFunctionDecl,
		Span:     sp(0),
		Function: &ast.FunctionDecl{Name: ast.Ident{Name: name, Span: sp(0)}, Body: ast.Block{Statements: []ast.Statement{retStmt}}, Span: sp(0)},
	}
	prog := &ast.Program{Statements: []ast.Statement{fn}}
	cfg := config.Default()
	ctx := NewContext(cfg, prog)
	if !TailCallOptimization(ctx, prog) {
		t.Fatal("expected self-recursive return call to be marked")
	}
	if !ctx.TailSelfCalls[sp(1)] {
		t.Fatal("expected return statement span to be marked as a tail self-call")
	}
}

func TestRunReachesQuiescence(t *testing.T) {
	prog := &ast.Program{
		Statements: []ast.Statement{
			{
				Kind:   ast.StmtReturn,
				Span:   sp(1),
				Return: &ast.ReturnStmt{Values: []ast.Expression{binary(1, ast.BinAdd, intLit(2, 1), intLit(3, 2))}, Span: sp(1)},
			},
		},
	}
	cfg := config.Default()
	cfg.OptimizationLevel = config.O3
	result := Run(cfg, prog)
	if !result.Quiesced {
		t.Fatal("expected pipeline to quiesce within the fixpoint budget")
	}
	ret := prog.Statements[0].Return.Values[0]
	if ret.Kind != ast.ExprLiteral || ret.Literal.Int != 3 {
		t.Fatalf("expected program to fold to literal 3, got %+v", ret)
	}
}

func ptrExpr(e ast.Expression) *ast.Expression { return &e }
