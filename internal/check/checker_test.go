// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package check

import (
	"testing"

	"typedlua.dev/tlc/internal/ast"
	"typedlua.dev/tlc/internal/diag"
	"typedlua.dev/tlc/internal/interner"
	"typedlua.dev/tlc/internal/span"
)

type fixture struct {
	in      *interner.Interner
	common  interner.Common
	diags   *diag.Handler
	checker *Checker
}

func newFixture() *fixture {
	in, common := interner.NewWithCommon()
	diags := diag.NewHandler()
	return &fixture{
		in: in, common: common, diags: diags,
		checker: New(in, common, diags, diag.File{Path: "test.tl"}),
	}
}

func (f *fixture) id(name string) ast.Ident {
	return ast.Ident{Name: f.in.Intern(name), Span: sp()}
}

func sp() span.Span { return span.New(1, 0, 1, 1, 1) }

func primType(p ast.Primitive) ast.Type { return ast.Type{Kind: ast.TypePrimitive, Primitive: p, Span: sp()} }

func intLit(n int64) ast.Expression {
	return ast.Expression{Kind: ast.ExprLiteral, Span: sp(), Literal: &ast.Literal{Kind: ast.LitInteger, Int: n}}
}

func strLit(s string) ast.Expression {
	return ast.Expression{Kind: ast.ExprLiteral, Span: sp(), Literal: &ast.Literal{Kind: ast.LitString, Str: s}}
}

func identExpr(id ast.Ident) ast.Expression {
	return ast.IdentRef(id)
}

func TestVarDeclAssignableOK(t *testing.T) {
	f := newFixture()
	name := f.id("x")
	typ := primType(ast.PrimInteger)
	value := intLit(42)
	stmt := ast.Statement{Kind: ast.StmtVarDecl, Span: sp(), VarDecl: &ast.VarDecl{
		VarKind: ast.VarConst, Name: &name, Type: &typ, Value: &value, Span: sp(),
	}}
	f.checker.CheckProgram(&ast.Program{Statements: []ast.Statement{stmt}})
	if f.diags.HasErrors() {
		t.Errorf("unexpected errors: %v", f.diags.Sorted())
	}
}

func TestVarDeclTypeMismatch(t *testing.T) {
	f := newFixture()
	name := f.id("x")
	typ := primType(ast.PrimString)
	value := intLit(42)
	stmt := ast.Statement{Kind: ast.StmtVarDecl, Span: sp(), VarDecl: &ast.VarDecl{
		VarKind: ast.VarConst, Name: &name, Type: &typ, Value: &value, Span: sp(),
	}}
	f.checker.CheckProgram(&ast.Program{Statements: []ast.Statement{stmt}})
	if !f.diags.HasErrors() {
		t.Error("expected a type mismatch diagnostic, got none")
	}
}

func TestUnknownIdentifierReportsResolutionError(t *testing.T) {
	f := newFixture()
	missing := f.id("nope")
	stmt := ast.Statement{Kind: ast.StmtExpr, Span: sp(), Expr: ptrExpr(identExpr(missing))}
	f.checker.CheckProgram(&ast.Program{Statements: []ast.Statement{stmt}})
	errs, _ := f.diags.Counts()
	if errs == 0 {
		t.Error("expected an unknown-identifier error")
	}
}

func TestConstReassignmentIsRejected(t *testing.T) {
	f := newFixture()
	name := f.id("x")
	value := intLit(1)
	decl := ast.Statement{Kind: ast.StmtVarDecl, Span: sp(), VarDecl: &ast.VarDecl{
		VarKind: ast.VarConst, Name: &name, Value: &value, Span: sp(),
	}}
	newValue := intLit(2)
	assign := ast.Statement{Kind: ast.StmtAssign, Span: sp(), Assign: &ast.AssignStmt{
		Op: ast.AssignPlain, Targets: []ast.Expression{identExpr(name)}, Values: []ast.Expression{newValue}, Span: sp(),
	}}
	f.checker.CheckProgram(&ast.Program{Statements: []ast.Statement{decl, assign}})
	if !f.diags.HasErrors() {
		t.Error("expected an error reassigning a const binding")
	}
}

func TestClassFieldAccessAndPrivacy(t *testing.T) {
	f := newFixture()
	className := f.id("Box")
	fieldName := f.id("value")
	classDecl := ast.ClassDecl{
		Name: className,
		Fields: []ast.ClassFieldDecl{
			{Name: fieldName, Type: primType(ast.PrimInteger), Visibility: ast.VisPrivate, Span: sp()},
		},
		Span: sp(),
	}
	classStmt := ast.Statement{Kind: ast.StmtClassDecl, Span: sp(), Class: &classDecl}

	// Outside any method, constructing a Box and reading its private
	// field should be rejected.
	boxVar := f.id("b")
	newExpr := ast.Expression{Kind: ast.ExprNew, Span: sp(), New: &ast.NewExpr{Callee: identExpr(className), Span: sp()}}
	boxDecl := ast.Statement{Kind: ast.StmtVarDecl, Span: sp(), VarDecl: &ast.VarDecl{
		VarKind: ast.VarConst, Name: &boxVar, Value: &newExpr, Span: sp(),
	}}
	member := ast.Expression{Kind: ast.ExprMember, Span: sp(), Member: &ast.MemberExpr{
		Object: ptrExpr(identExpr(boxVar)), Name: fieldName, Span: sp(),
	}}
	readStmt := ast.Statement{Kind: ast.StmtExpr, Span: sp(), Expr: &member}

	f.checker.CheckProgram(&ast.Program{Statements: []ast.Statement{classStmt, boxDecl, readStmt}})
	if !f.diags.HasErrors() {
		t.Error("expected an access-control error reading a private field from outside its class")
	}
}

func TestInterfaceConformanceMissingMethod(t *testing.T) {
	f := newFixture()
	ifaceName := f.id("Greeter")
	methodName := f.id("greet")
	ifaceDecl := ast.InterfaceDecl{
		Name:    ifaceName,
		Methods: []ast.InterfaceMethodDecl{{Name: methodName, ReturnType: primType(ast.PrimString), Span: sp()}},
		Span:    sp(),
	}
	ifaceStmt := ast.Statement{Kind: ast.StmtInterfaceDecl, Span: sp(), Interface: &ifaceDecl}

	className := f.id("Mute")
	classDecl := ast.ClassDecl{
		Name:       className,
		Implements: []ast.TypeReference{{Name: ifaceName, Span: sp()}},
		Span:       sp(),
	}
	classStmt := ast.Statement{Kind: ast.StmtClassDecl, Span: sp(), Class: &classDecl}

	f.checker.CheckProgram(&ast.Program{Statements: []ast.Statement{ifaceStmt, classStmt}})
	if !f.diags.HasErrors() {
		t.Error("expected a conformance error for a class missing an interface method")
	}
}

func TestNarrowingNilCheckInIfBranch(t *testing.T) {
	f := newFixture()
	name := f.id("x")
	nullableInt := ast.Type{Kind: ast.TypeNullable, Span: sp(), Element: elemType(primType(ast.PrimInteger))}
	value := intLit(1)
	decl := ast.Statement{Kind: ast.StmtVarDecl, Span: sp(), VarDecl: &ast.VarDecl{
		VarKind: ast.VarLocal, Name: &name, Type: &nullableInt, Value: &value, Span: sp(),
	}}

	cond := ast.Expression{Kind: ast.ExprBinary, Span: sp(), Binary: &ast.BinaryExpr{
		Op: ast.BinNotEq, Left: identExpr(name), Right: ast.Expression{Kind: ast.ExprLiteral, Span: sp(), Literal: &ast.Literal{Kind: ast.LitNil}}, Span: sp(),
	}}
	thenBlock := ast.Block{Statements: []ast.Statement{{Kind: ast.StmtExpr, Span: sp(), Expr: ptrExpr(identExpr(name))}}, Span: sp()}
	ifStmt := ast.Statement{Kind: ast.StmtIf, Span: sp(), If: &ast.IfStmt{Condition: cond, Then: thenBlock, Span: sp()}}

	f.checker.CheckProgram(&ast.Program{Statements: []ast.Statement{decl, ifStmt}})
	if f.diags.HasErrors() {
		t.Errorf("unexpected errors narrowing a nullable check: %v", f.diags.Sorted())
	}
}

func TestFunctionCallArityMismatch(t *testing.T) {
	f := newFixture()
	fnName := f.id("add")
	paramA := f.id("a")
	paramB := f.id("b")
	fnDecl := ast.FunctionDecl{
		Name: fnName,
		Params: []ast.Parameter{
			{Name: paramA, Type: primType(ast.PrimInteger), Span: sp()},
			{Name: paramB, Type: primType(ast.PrimInteger), Span: sp()},
		},
		Span: sp(),
	}
	fnStmt := ast.Statement{Kind: ast.StmtFunctionDecl, Span: sp(), Function: &fnDecl}

	call := ast.Expression{Kind: ast.ExprCall, Span: sp(), Call: &ast.CallExpr{
		Callee: identExpr(fnName), Args: []ast.Argument{{Value: intLit(1)}}, Span: sp(),
	}}
	callStmt := ast.Statement{Kind: ast.StmtExpr, Span: sp(), Expr: &call}

	f.checker.CheckProgram(&ast.Program{Statements: []ast.Statement{fnStmt, callStmt}})
	if !f.diags.HasErrors() {
		t.Error("expected an arity error calling add with one argument")
	}
}

func TestStringLiteralInferredType(t *testing.T) {
	f := newFixture()
	name := f.id("s")
	value := strLit("hi")
	decl := ast.Statement{Kind: ast.StmtVarDecl, Span: sp(), VarDecl: &ast.VarDecl{
		VarKind: ast.VarConst, Name: &name, Value: &value, Span: sp(),
	}}
	f.checker.CheckProgram(&ast.Program{Statements: []ast.Statement{decl}})
	if f.diags.HasErrors() {
		t.Errorf("unexpected errors: %v", f.diags.Sorted())
	}
}

func ptrExpr(e ast.Expression) *ast.Expression { return &e }
func elemType(t ast.Type) *ast.Type            { return &t }
