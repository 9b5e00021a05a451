// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package parser

import (
	"testing"

	"typedlua.dev/tlc/internal/arena"
	"typedlua.dev/tlc/internal/ast"
	"typedlua.dev/tlc/internal/diag"
	"typedlua.dev/tlc/internal/interner"
	"typedlua.dev/tlc/internal/lexer"
)

func parseSrc(t *testing.T, src string) (*ast.Program, *diag.Handler) {
	t.Helper()
	in, common := interner.NewWithCommon()
	h := diag.NewHandler()
	l := lexer.New(src, 0, "test.tl", in, h)
	p := New(l, 0, "test.tl", arena.New(), in, common, h)
	return p.Parse(), h
}

func requireNoErrors(t *testing.T, h *diag.Handler) {
	t.Helper()
	if h.HasErrors() {
		t.Fatalf("unexpected errors: %v", h.Sorted())
	}
}

func TestParseVarDecl(t *testing.T) {
	prog, h := parseSrc(t, `const x: number = 1`)
	requireNoErrors(t, h)
	if len(prog.Statements) != 1 {
		t.Fatalf("got %d statements, want 1", len(prog.Statements))
	}
	stmt := prog.Statements[0]
	if stmt.Kind != ast.StmtVarDecl {
		t.Fatalf("got kind %v, want StmtVarDecl", stmt.Kind)
	}
	if stmt.VarDecl.VarKind != ast.VarConst {
		t.Errorf("got var kind %v, want VarConst", stmt.VarDecl.VarKind)
	}
	if stmt.VarDecl.Name == nil {
		t.Fatalf("Name is nil")
	}
	if stmt.VarDecl.Type == nil || stmt.VarDecl.Type.Kind != ast.TypePrimitive {
		t.Errorf("got type %+v, want primitive number", stmt.VarDecl.Type)
	}
}

func TestParseDestructuringVarDecl(t *testing.T) {
	prog, h := parseSrc(t, `local [a, b, ...rest] = xs`)
	requireNoErrors(t, h)
	decl := prog.Statements[0].VarDecl
	if decl.Pattern == nil || decl.Pattern.Kind != ast.PatArray {
		t.Fatalf("got pattern %+v, want array pattern", decl.Pattern)
	}
	elems := decl.Pattern.Array.Elements
	if len(elems) != 3 {
		t.Fatalf("got %d elements, want 3", len(elems))
	}
	if elems[2].Kind != ast.ArrayPatRest {
		t.Errorf("got last element kind %v, want ArrayPatRest", elems[2].Kind)
	}
}

func TestParseBinaryPrecedence(t *testing.T) {
	prog, h := parseSrc(t, `const x = 1 + 2 * 3 ^ 2`)
	requireNoErrors(t, h)
	value := *prog.Statements[0].VarDecl.Value
	if value.Kind != ast.ExprBinary || value.Binary.Op != ast.BinAdd {
		t.Fatalf("got top expr %+v, want top-level +", value)
	}
	rhs := value.Binary.Right
	if rhs.Kind != ast.ExprBinary || rhs.Binary.Op != ast.BinMul {
		t.Fatalf("got rhs %+v, want *", rhs)
	}
	pow := rhs.Binary.Right
	if pow.Kind != ast.ExprBinary || pow.Binary.Op != ast.BinPow {
		t.Fatalf("got pow operand %+v, want ^", pow)
	}
}

func TestParsePowRightAssociative(t *testing.T) {
	prog, h := parseSrc(t, `const x = 2 ^ 3 ^ 2`)
	requireNoErrors(t, h)
	value := *prog.Statements[0].VarDecl.Value
	if value.Kind != ast.ExprBinary || value.Binary.Op != ast.BinPow {
		t.Fatalf("got %+v, want top-level ^", value)
	}
	// 2 ^ (3 ^ 2): left operand must be the literal 2, right the nested pow.
	if value.Binary.Left.Kind != ast.ExprLiteral {
		t.Errorf("got left %+v, want literal 2", value.Binary.Left)
	}
	if value.Binary.Right.Kind != ast.ExprBinary || value.Binary.Right.Binary.Op != ast.BinPow {
		t.Errorf("got right %+v, want nested ^", value.Binary.Right)
	}
}

func TestParseArrowVsParenthesized(t *testing.T) {
	prog, h := parseSrc(t, `
const f = (x: number): number => x + 1
const g = (1 + 2)
`)
	requireNoErrors(t, h)
	fVal := *prog.Statements[0].VarDecl.Value
	if fVal.Kind != ast.ExprArrow {
		t.Fatalf("got %+v, want ExprArrow", fVal)
	}
	if len(fVal.Arrow.Params) != 1 || fVal.Arrow.ReturnType == nil {
		t.Errorf("got arrow %+v, want one param and a return type", fVal.Arrow)
	}
	gVal := *prog.Statements[1].VarDecl.Value
	if gVal.Kind != ast.ExprParenthesized {
		t.Fatalf("got %+v, want ExprParenthesized", gVal)
	}
}

func TestParseArrowShorthand(t *testing.T) {
	prog, h := parseSrc(t, `const double = \x => x * 2`)
	requireNoErrors(t, h)
	val := *prog.Statements[0].VarDecl.Value
	if val.Kind != ast.ExprArrow || val.Arrow.BodyStyle != ast.ArrowExprBody {
		t.Fatalf("got %+v, want expr-bodied arrow", val)
	}
	if len(val.Arrow.Params) != 1 {
		t.Fatalf("got %d params, want 1", len(val.Arrow.Params))
	}
}

func TestParseTemplateLiteral(t *testing.T) {
	prog, h := parseSrc(t, "const s = `hello ${name}, you are ${age + 1}`")
	requireNoErrors(t, h)
	val := *prog.Statements[0].VarDecl.Value
	if val.Kind != ast.ExprTemplateLiteral {
		t.Fatalf("got %+v, want ExprTemplateLiteral", val)
	}
	tmpl := val.Template
	if len(tmpl.Strings) != 3 || len(tmpl.Exprs) != 2 {
		t.Fatalf("got %d strings / %d exprs, want 3/2: %+v", len(tmpl.Strings), len(tmpl.Exprs), tmpl)
	}
}

func TestParseIfBraceStyle(t *testing.T) {
	prog, h := parseSrc(t, `
if x > 0 {
	return 1
} elseif x < 0 {
	return -1
} else {
	return 0
}
`)
	requireNoErrors(t, h)
	stmt := prog.Statements[0]
	if stmt.Kind != ast.StmtIf {
		t.Fatalf("got kind %v, want StmtIf", stmt.Kind)
	}
	ifs := stmt.If
	if ifs.Then.EndDelimited {
		t.Errorf("then-block should be brace-delimited")
	}
	if len(ifs.ElseIfs) != 1 {
		t.Fatalf("got %d elseifs, want 1", len(ifs.ElseIfs))
	}
	if ifs.Else == nil {
		t.Fatalf("expected an else block")
	}
}

func TestParseIfThenEndStyle(t *testing.T) {
	prog, h := parseSrc(t, `
if x > 0 then
	return 1
elseif x < 0 then
	return -1
else
	return 0
end
`)
	requireNoErrors(t, h)
	stmt := prog.Statements[0]
	ifs := stmt.If
	if !ifs.Then.EndDelimited {
		t.Errorf("then-block should be end-delimited")
	}
	if len(ifs.ElseIfs) != 1 || ifs.Else == nil {
		t.Fatalf("got %+v, want one elseif and an else", ifs)
	}
}

func TestParseForNumericAndGeneric(t *testing.T) {
	prog, h := parseSrc(t, `
for i = 1, 10, 2 do
	print(i)
end
for k, v in pairs(t) do
	print(k, v)
end
`)
	requireNoErrors(t, h)
	if prog.Statements[0].Kind != ast.StmtForNumeric {
		t.Fatalf("got kind %v, want StmtForNumeric", prog.Statements[0].Kind)
	}
	if prog.Statements[1].Kind != ast.StmtForGeneric {
		t.Fatalf("got kind %v, want StmtForGeneric", prog.Statements[1].Kind)
	}
	gen := prog.Statements[1].ForGeneric
	if len(gen.Vars) != 2 {
		t.Errorf("got %d loop vars, want 2", len(gen.Vars))
	}
}

func TestParseClassWithConstructorAndDuplicateMember(t *testing.T) {
	prog, h := parseSrc(t, `
class Point {
	x: number
	y: number

	new(x: number, y: number) {
		self.x = x
		self.y = y
	}

	length(): number {
		return self.x
	}
}
`)
	requireNoErrors(t, h)
	class := prog.Statements[0].Class
	if len(class.Fields) != 2 {
		t.Errorf("got %d fields, want 2", len(class.Fields))
	}
	if len(class.Methods) != 2 {
		t.Fatalf("got %d methods, want 2", len(class.Methods))
	}
	if !class.Methods[0].IsConstructor {
		t.Errorf("first method should be the constructor")
	}
}

func TestParseClassDuplicateConstructorErrors(t *testing.T) {
	_, h := parseSrc(t, `
class C {
	new() {}
	new() {}
}
`)
	if !h.HasErrors() {
		t.Fatalf("expected a duplicate-constructor error")
	}
}

func TestParseClassDuplicateMemberErrors(t *testing.T) {
	_, h := parseSrc(t, `
class C {
	x: number
	x: string
}
`)
	if !h.HasErrors() {
		t.Fatalf("expected a duplicate-member error")
	}
}

func TestParseInterfaceWithDefaultMethod(t *testing.T) {
	prog, h := parseSrc(t, `
interface Greeter {
	name: string
	greet(): string {
		return self.name
	}
}
`)
	requireNoErrors(t, h)
	iface := prog.Statements[0].Interface
	if len(iface.Properties) != 1 {
		t.Errorf("got %d properties, want 1", len(iface.Properties))
	}
	if len(iface.Methods) != 1 || iface.Methods[0].DefaultBody == nil {
		t.Fatalf("got %+v, want one method with a default body", iface.Methods)
	}
}

func TestParseEnum(t *testing.T) {
	prog, h := parseSrc(t, `
enum Color {
	Red,
	Green = 5,
	Blue,
}
`)
	requireNoErrors(t, h)
	enum := prog.Statements[0].Enum
	if len(enum.Members) != 3 {
		t.Fatalf("got %d members, want 3", len(enum.Members))
	}
	if enum.Members[1].Value == nil {
		t.Errorf("Green should have an explicit value")
	}
}

func TestParseImportForms(t *testing.T) {
	prog, h := parseSrc(t, `
import { a, b as c } from "./module"
import * as ns from "./other"
`)
	requireNoErrors(t, h)
	imp1 := prog.Statements[0].Import
	if len(imp1.Specifiers) != 2 || imp1.Specifiers[1].Alias == nil {
		t.Fatalf("got %+v, want two specifiers with an alias on the second", imp1.Specifiers)
	}
	imp2 := prog.Statements[1].Import
	if imp2.Namespace == nil {
		t.Fatalf("got %+v, want a namespace import", imp2)
	}
}

func TestParseExportDecl(t *testing.T) {
	prog, h := parseSrc(t, `export const x = 1`)
	requireNoErrors(t, h)
	exp := prog.Statements[0].Export
	if exp.Decl == nil || exp.Decl.Kind != ast.StmtVarDecl {
		t.Fatalf("got %+v, want an exported var decl", exp)
	}
}

func TestParseMatchExpr(t *testing.T) {
	prog, h := parseSrc(t, `
const label = match (n) {
	0 => "zero",
	x if x < 0 => "negative",
	_ => "positive",
}
`)
	requireNoErrors(t, h)
	val := *prog.Statements[0].VarDecl.Value
	if val.Kind != ast.ExprMatch {
		t.Fatalf("got %+v, want ExprMatch", val)
	}
	if len(val.Match.Arms) != 3 {
		t.Fatalf("got %d arms, want 3", len(val.Match.Arms))
	}
	if val.Match.Arms[1].Guard == nil {
		t.Errorf("second arm should have a guard")
	}
}

func TestParseBangFallback(t *testing.T) {
	prog, h := parseSrc(t, `const x = parse(s) !! 0`)
	requireNoErrors(t, h)
	val := *prog.Statements[0].VarDecl.Value
	if val.Kind != ast.ExprBang {
		t.Fatalf("got %+v, want ExprBang", val)
	}
}

func TestParseTryCatchFinally(t *testing.T) {
	prog, h := parseSrc(t, `
try {
	risky()
} catch (e: string) {
	log(e)
} finally {
	cleanup()
}
`)
	requireNoErrors(t, h)
	tryStmt := prog.Statements[0].Try
	if len(tryStmt.Catches) != 1 {
		t.Fatalf("got %d catch clauses, want 1", len(tryStmt.Catches))
	}
	if tryStmt.Catches[0].Binding == nil || tryStmt.Catches[0].Type == nil {
		t.Errorf("catch clause should bind a typed name")
	}
	if tryStmt.Finally == nil {
		t.Errorf("expected a finally block")
	}
}

func TestParsePipeLeftAssociative(t *testing.T) {
	prog, h := parseSrc(t, `const x = a |> f |> g`)
	requireNoErrors(t, h)
	val := *prog.Statements[0].VarDecl.Value
	if val.Kind != ast.ExprPipe {
		t.Fatalf("got %+v, want ExprPipe", val)
	}
	// Left-associative: outer pipe's Value is itself a pipe (a |> f).
	if val.Pipe.Value.Kind != ast.ExprPipe {
		t.Errorf("got %+v, want nested pipe on the left", val.Pipe.Value)
	}
}

func TestParseTypeAlias(t *testing.T) {
	prog, h := parseSrc(t, `type Pair<T> = [T, T]`)
	requireNoErrors(t, h)
	alias := prog.Statements[0].TypeAlias
	if len(alias.TypeParams) != 1 {
		t.Fatalf("got %d type params, want 1", len(alias.TypeParams))
	}
	if alias.Value.Kind != ast.TypeTuple || len(alias.Value.Tuple) != 2 {
		t.Errorf("got %+v, want a 2-element tuple type", alias.Value)
	}
}

func TestSynchronizeAfterSyntaxError(t *testing.T) {
	// A malformed first statement should not prevent parsing the rest
	// of the file; the parser resynchronizes at the next statement
	// boundary (spec §4.2).
	_, h := parseSrc(t, `
const = ;
const y = 1
`)
	if !h.HasErrors() {
		t.Fatalf("expected at least one syntax error")
	}
}
