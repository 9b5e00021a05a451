// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package parser

import (
	"typedlua.dev/tlc/internal/ast"
	"typedlua.dev/tlc/internal/diag"
	"typedlua.dev/tlc/internal/interner"
	"typedlua.dev/tlc/internal/token"
)

func (p *Parser) atAny(kinds ...token.Kind) bool {
	k := p.peek().Kind
	for _, kk := range kinds {
		if k == kk {
			return true
		}
	}
	return false
}

// parseStmtsUntil parses statements until the next token is EOF or one
// of terminators, which is left unconsumed for the caller.
func (p *Parser) parseStmtsUntil(terminators ...token.Kind) []ast.Statement {
	var stmts []ast.Statement
	for !p.at(token.EOF) && !p.atAny(terminators...) {
		before := p.pos
		stmts = append(stmts, p.parseStatement())
		if p.pos == before {
			p.synchronize()
		}
	}
	return stmts
}

// parseBlockBody parses a `{ ... }` or `do ... end` block, used for
// arrow/function bodies and anywhere a single nested block is expected
// without a preceding then/do keyword choice (spec §8, SPEC_FULL.md open
// question #1: bodies may mix brace and end-delimited styles per-body).
func (p *Parser) parseBlockBody() ast.Block {
	if p.at(token.LBrace) {
		start := p.advance()
		stmts := p.parseStmtsUntil(token.RBrace)
		end := p.expect(token.RBrace)
		return ast.Block{Statements: stmts, EndDelimited: false, Span: span2(start.Span, end.Span)}
	}
	start := p.expect(token.Do)
	stmts := p.parseStmtsUntil(token.End)
	end := p.expect(token.End)
	return ast.Block{Statements: stmts, EndDelimited: true, Span: span2(start.Span, end.Span)}
}

// parseStatement dispatches on the leading token of a statement. On a
// syntax error it resynchronizes to the next likely statement boundary
// rather than aborting (spec §4.2).
func (p *Parser) parseStatement() ast.Statement {
	switch p.peek().Kind {
	case token.Const, token.Local:
		return p.parseVarDeclStmt()
	case token.If:
		return p.parseIfStmt()
	case token.While:
		return p.parseWhileStmt()
	case token.For:
		return p.parseForStmt()
	case token.Function:
		return p.parseFunctionDeclStmt()
	case token.Class:
		return p.parseClassDeclStmt()
	case token.Interface:
		return p.parseInterfaceDeclStmt()
	case token.Enum:
		return p.parseEnumDeclStmt()
	case token.Type:
		return p.parseTypeAliasStmt()
	case token.Import:
		return p.parseImportStmt()
	case token.Export:
		return p.parseExportStmt()
	case token.Return:
		return p.parseReturnStmt()
	case token.Break:
		start := p.advance()
		return ast.Statement{Kind: ast.StmtBreak, Span: start.Span}
	case token.Continue:
		start := p.advance()
		return ast.Statement{Kind: ast.StmtContinue, Span: start.Span}
	case token.Throw:
		return p.parseThrowStmt()
	case token.Try:
		return p.parseTryStmt()
	case token.LBrace, token.Do:
		b := p.parseBlockBody()
		return ast.Statement{Kind: ast.StmtBlock, Span: b.Span, Block: &b}
	case token.Semicolon:
		t := p.advance()
		return ast.Statement{Kind: ast.StmtBlock, Span: t.Span, Block: &ast.Block{Span: t.Span}}
	default:
		return p.parseAssignOrExprStmt()
	}
}

func (p *Parser) parseVarDeclStmt() ast.Statement {
	start := p.advance()
	kind := ast.VarConst
	if start.Kind == token.Local {
		kind = ast.VarLocal
	}
	var name *ast.Ident
	var pattern *ast.Pattern
	if p.at(token.LBracket) || p.at(token.LBrace) {
		pat := p.parsePattern()
		pattern = &pat
	} else {
		n := p.expectIdent()
		name = &n
	}
	var typ *ast.Type
	if p.at(token.Colon) {
		p.advance()
		t := p.parseType()
		typ = &t
	}
	p.expect(token.Assign)
	value := p.parseExpr()
	return ast.Statement{Kind: ast.StmtVarDecl, Span: span2(start.Span, value.Span), VarDecl: &ast.VarDecl{
		VarKind: kind, Name: name, Pattern: pattern, Type: typ, Value: &value, Span: span2(start.Span, value.Span),
	}}
}

// parseAssignOrExprStmt parses a bare expression statement, or an
// assignment when the expression is followed by `,` (more targets) or
// `=`.
func (p *Parser) parseAssignOrExprStmt() ast.Statement {
	start := p.peek().Span
	first := p.parseExpr()
	targets := []ast.Expression{first}
	for p.at(token.Comma) {
		p.advance()
		targets = append(targets, p.parseExpr())
	}
	if p.at(token.Assign) {
		p.advance()
		values := []ast.Expression{p.parseExpr()}
		for p.at(token.Comma) {
			p.advance()
			values = append(values, p.parseExpr())
		}
		end := values[len(values)-1].Span
		return ast.Statement{Kind: ast.StmtAssign, Span: span2(start, end), Assign: &ast.AssignStmt{
			Op: ast.AssignPlain, Targets: targets, Values: values, Span: span2(start, end),
		}}
	}
	if len(targets) != 1 {
		p.errorf(p.peek().Span, diag.Syntactic, "expected '=' after expression list")
	}
	return ast.Statement{Kind: ast.StmtExpr, Span: first.Span, Expr: &first}
}

func (p *Parser) parseIfStmt() ast.Statement {
	start := p.expect(token.If)
	cond := p.parseExpr()
	if p.at(token.LBrace) {
		thenBlock := p.parseBlockBody()
		var elseifs []ast.ElseIfClause
		for p.at(token.Elseif) {
			eStart := p.advance()
			c := p.parseExpr()
			b := p.parseBlockBody()
			elseifs = append(elseifs, ast.ElseIfClause{Condition: c, Block: b, Span: span2(eStart.Span, b.Span)})
		}
		var elseBlock *ast.Block
		if p.at(token.Else) {
			p.advance()
			b := p.parseBlockBody()
			elseBlock = &b
		}
		end := thenBlock.Span
		if elseBlock != nil {
			end = elseBlock.Span
		} else if len(elseifs) > 0 {
			end = elseifs[len(elseifs)-1].Span
		}
		return ast.Statement{Kind: ast.StmtIf, Span: span2(start.Span, end), If: &ast.IfStmt{
			Condition: cond, Then: thenBlock, ElseIfs: elseifs, Else: elseBlock, Span: span2(start.Span, end),
		}}
	}
	p.expect(token.Then)
	thenStart := start
	thenStmts := p.parseStmtsUntil(token.Elseif, token.Else, token.End)
	thenBlock := ast.Block{Statements: thenStmts, EndDelimited: true, Span: span2(thenStart.Span, p.peek().Span)}
	var elseifs []ast.ElseIfClause
	for p.at(token.Elseif) {
		eStart := p.advance()
		c := p.parseExpr()
		p.expect(token.Then)
		stmts := p.parseStmtsUntil(token.Elseif, token.Else, token.End)
		b := ast.Block{Statements: stmts, EndDelimited: true, Span: span2(eStart.Span, p.peek().Span)}
		elseifs = append(elseifs, ast.ElseIfClause{Condition: c, Block: b, Span: b.Span})
	}
	var elseBlock *ast.Block
	if p.at(token.Else) {
		p.advance()
		stmts := p.parseStmtsUntil(token.End)
		b := ast.Block{Statements: stmts, EndDelimited: true, Span: span2(p.peek().Span, p.peek().Span)}
		elseBlock = &b
	}
	end := p.expect(token.End)
	return ast.Statement{Kind: ast.StmtIf, Span: span2(start.Span, end.Span), If: &ast.IfStmt{
		Condition: cond, Then: thenBlock, ElseIfs: elseifs, Else: elseBlock, Span: span2(start.Span, end.Span),
	}}
}

func (p *Parser) parseWhileStmt() ast.Statement {
	start := p.expect(token.While)
	cond := p.parseExpr()
	var body ast.Block
	if p.at(token.LBrace) {
		body = p.parseBlockBody()
	} else {
		p.expect(token.Do)
		stmts := p.parseStmtsUntil(token.End)
		end := p.expect(token.End)
		body = ast.Block{Statements: stmts, EndDelimited: true, Span: span2(start.Span, end.Span)}
	}
	return ast.Statement{Kind: ast.StmtWhile, Span: span2(start.Span, body.Span), While: &ast.WhileStmt{
		Condition: cond, Body: body, Span: span2(start.Span, body.Span),
	}}
}

// parseForStmt parses either the numeric form `for i = a, b[, c] do ...
// end` or the generic form `for a, b in iter do ... end`, distinguished
// by the token following the first identifier.
func (p *Parser) parseForStmt() ast.Statement {
	start := p.expect(token.For)
	first := p.expectIdent()
	if p.at(token.Assign) {
		p.advance()
		from := p.parseExpr()
		p.expect(token.Comma)
		to := p.parseExpr()
		var step *ast.Expression
		if p.at(token.Comma) {
			p.advance()
			s := p.parseExpr()
			step = &s
		}
		body := p.parseLoopBody(start)
		return ast.Statement{Kind: ast.StmtForNumeric, Span: span2(start.Span, body.Span), ForNumeric: &ast.ForNumericStmt{
			Var: first, Start: from, Stop: to, Step: step, Body: body, Span: span2(start.Span, body.Span),
		}}
	}
	vars := []ast.Ident{first}
	for p.at(token.Comma) {
		p.advance()
		vars = append(vars, p.expectIdent())
	}
	p.expect(token.In)
	iter := []ast.Expression{p.parseExpr()}
	for p.at(token.Comma) {
		p.advance()
		iter = append(iter, p.parseExpr())
	}
	body := p.parseLoopBody(start)
	return ast.Statement{Kind: ast.StmtForGeneric, Span: span2(start.Span, body.Span), ForGeneric: &ast.ForGenericStmt{
		Vars: vars, Iter: iter, Body: body, Span: span2(start.Span, body.Span),
	}}
}

func (p *Parser) parseLoopBody(start token.Token) ast.Block {
	if p.at(token.LBrace) {
		return p.parseBlockBody()
	}
	p.expect(token.Do)
	stmts := p.parseStmtsUntil(token.End)
	end := p.expect(token.End)
	return ast.Block{Statements: stmts, EndDelimited: true, Span: span2(start.Span, end.Span)}
}

func (p *Parser) parseReturnStmt() ast.Statement {
	start := p.expect(token.Return)
	end := start.Span
	var values []ast.Expression
	if !p.atAny(token.Semicolon, token.End, token.Else, token.Elseif, token.EOF, token.RBrace) {
		v := p.parseExpr()
		values = append(values, v)
		end = v.Span
		for p.at(token.Comma) {
			p.advance()
			v := p.parseExpr()
			values = append(values, v)
			end = v.Span
		}
	}
	p.accept(token.Semicolon)
	return ast.Statement{Kind: ast.StmtReturn, Span: span2(start.Span, end), Return: &ast.ReturnStmt{Values: values, Span: span2(start.Span, end)}}
}

func (p *Parser) parseThrowStmt() ast.Statement {
	start := p.expect(token.Throw)
	e := p.parseExpr()
	return ast.Statement{Kind: ast.StmtThrow, Span: span2(start.Span, e.Span), Throw: &e}
}

func (p *Parser) parseTryStmt() ast.Statement {
	start := p.expect(token.Try)
	body := p.parseBlockBody()
	var catches []ast.CatchClause
	for p.at(token.Catch) {
		cStart := p.advance()
		var binding *ast.Ident
		var typ *ast.Type
		if p.accept2(token.LParen) {
			b := p.expectIdent()
			binding = &b
			if p.at(token.Colon) {
				p.advance()
				t := p.parseType()
				typ = &t
			}
			p.expect(token.RParen)
		}
		b := p.parseBlockBody()
		catches = append(catches, ast.CatchClause{Binding: binding, Type: typ, Body: b, Span: span2(cStart.Span, b.Span)})
	}
	var finally *ast.Block
	end := body.Span
	if len(catches) > 0 {
		end = catches[len(catches)-1].Span
	}
	if p.at(token.Finally) {
		p.advance()
		f := p.parseBlockBody()
		finally = &f
		end = f.Span
	}
	return ast.Statement{Kind: ast.StmtTry, Span: span2(start.Span, end), Try: &ast.TryStmt{
		Body: body, Catches: catches, Finally: finally, Span: span2(start.Span, end),
	}}
}

func (p *Parser) parseFunctionDeclStmt() ast.Statement {
	start := p.expect(token.Function)
	name := p.expectIdent()
	var typeParams []ast.TypeParameter
	if p.at(token.Less) {
		typeParams = p.parseTypeParamList()
		p.pushTypeParamScope(typeParams)
		defer p.popTypeParamScope()
	}
	params := p.parseParamList()
	var ret *ast.Type
	if p.at(token.Colon) {
		p.advance()
		t := p.parseType()
		ret = &t
	}
	body := p.parseBlockBody()
	return ast.Statement{Kind: ast.StmtFunctionDecl, Span: span2(start.Span, body.Span), Function: &ast.FunctionDecl{
		Name: name, TypeParams: typeParams, Params: params, ReturnType: ret, Body: body, Span: span2(start.Span, body.Span),
	}}
}

// parseClassDeclStmt parses a class declaration, enforcing (spec §4.2)
// that member names are unique within the class and that at most one
// constructor ("new") is declared.
func (p *Parser) parseClassDeclStmt() ast.Statement {
	start := p.expect(token.Class)
	name := p.expectIdent()
	var typeParams []ast.TypeParameter
	if p.at(token.Less) {
		typeParams = p.parseTypeParamList()
		p.pushTypeParamScope(typeParams)
		defer p.popTypeParamScope()
	}
	var extends *ast.TypeReference
	if p.at(token.Extends) {
		p.advance()
		t := p.parseReferenceOrKeyword()
		if t.Kind == ast.TypeRef {
			extends = t.Reference
		}
	}
	var implements []ast.TypeReference
	if p.at(token.Implements) {
		p.advance()
		for {
			t := p.parseReferenceOrKeyword()
			if t.Kind == ast.TypeRef {
				implements = append(implements, *t.Reference)
			}
			if !p.accept2(token.Comma) {
				break
			}
		}
	}

	savedNames, savedCtor := p.classMemberNames, p.sawConstructor
	p.classMemberNames = map[interner.ID]bool{}
	p.sawConstructor = false
	defer func() { p.classMemberNames, p.sawConstructor = savedNames, savedCtor }()

	p.expect(token.LBrace)
	var fields []ast.ClassFieldDecl
	var methods []ast.ClassMethodDecl
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		vis := ast.VisPublic
		static := false
		readonly := false
		for p.atAny(token.Public, token.Private, token.Protected, token.Static, token.Readonly) {
			switch p.peek().Kind {
			case token.Public:
				vis = ast.VisPublic
			case token.Private:
				vis = ast.VisPrivate
			case token.Protected:
				vis = ast.VisProtected
			case token.Static:
				static = true
			case token.Readonly:
				readonly = true
			}
			p.advance()
		}
		mStart := p.peek().Span
		var memberName ast.Ident
		if t, ok := p.accept(token.New); ok {
			// `new` is a keyword token; as a member name it declares the
			// constructor.
			memberName = ast.Ident{Name: p.common.New, Span: t.Span}
		} else {
			memberName = p.expectIdent()
		}
		if p.classMemberNames[memberName.Name] {
			memberText, _ := p.interner.Lookup(memberName.Name)
			p.errorf(memberName.Span, diag.Syntactic, "duplicate class member %q", memberText)
		}
		p.classMemberNames[memberName.Name] = true

		if p.at(token.LParen) || p.at(token.Less) {
			var mTypeParams []ast.TypeParameter
			if p.at(token.Less) {
				mTypeParams = p.parseTypeParamList()
				p.pushTypeParamScope(mTypeParams)
			}
			params := p.parseParamList()
			if p.at(token.Less) {
				p.popTypeParamScope()
			}
			var ret *ast.Type
			if p.at(token.Colon) {
				p.advance()
				t := p.parseType()
				ret = &t
			}
			isCtor := memberName.Name == p.common.New
			if isCtor {
				if p.sawConstructor {
					nameText, _ := p.interner.Lookup(name.Name)
					p.errorf(memberName.Span, diag.Syntactic, "class %q declares more than one constructor", nameText)
				}
				p.sawConstructor = true
			}
			body := p.parseBlockBody()
			methods = append(methods, ast.ClassMethodDecl{
				Name: memberName, IsConstructor: isCtor, TypeParams: mTypeParams, Params: params,
				ReturnType: ret, Body: body, Visibility: vis, Static: static, Span: span2(mStart, body.Span),
			})
		} else {
			var typ ast.Type = ast.Type{Kind: ast.TypePrimitive, Primitive: ast.PrimUnknown, Span: memberName.Span}
			if p.at(token.Colon) {
				p.advance()
				typ = p.parseType()
			}
			var def *ast.Expression
			if p.at(token.Assign) {
				p.advance()
				e := p.parseExpr()
				def = &e
			}
			end := typ.Span
			if def != nil {
				end = def.Span
			}
			fields = append(fields, ast.ClassFieldDecl{
				Name: memberName, Type: typ, Default: def, Visibility: vis, Static: static, Readonly: readonly,
				Span: span2(mStart, end),
			})
		}
		p.accept(token.Comma)
		p.accept(token.Semicolon)
	}
	end := p.expect(token.RBrace)
	return ast.Statement{Kind: ast.StmtClassDecl, Span: span2(start.Span, end.Span), Class: &ast.ClassDecl{
		Name: name, TypeParams: typeParams, Extends: extends, Implements: implements,
		Fields: fields, Methods: methods, Span: span2(start.Span, end.Span),
	}}
}

func (p *Parser) parseInterfaceDeclStmt() ast.Statement {
	start := p.expect(token.Interface)
	name := p.expectIdent()
	var typeParams []ast.TypeParameter
	if p.at(token.Less) {
		typeParams = p.parseTypeParamList()
		p.pushTypeParamScope(typeParams)
		defer p.popTypeParamScope()
	}
	var extends []ast.TypeReference
	if p.at(token.Extends) {
		p.advance()
		for {
			t := p.parseReferenceOrKeyword()
			if t.Kind == ast.TypeRef {
				extends = append(extends, *t.Reference)
			}
			if !p.accept2(token.Comma) {
				break
			}
		}
	}
	p.expect(token.LBrace)
	var props []ast.PropertySignature
	var methods []ast.InterfaceMethodDecl
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		readonly := false
		if p.at(token.Readonly) {
			p.advance()
			readonly = true
		}
		mStart := p.peek().Span
		mName := p.expectIdent()
		if p.at(token.LParen) {
			params := p.parseParamList()
			var ret ast.Type = ast.Type{Kind: ast.TypePrimitive, Primitive: ast.PrimVoid, Span: mName.Span}
			if p.at(token.Colon) {
				p.advance()
				ret = p.parseType()
			}
			var defaultBody *ast.Block
			if p.at(token.LBrace) || p.at(token.Do) {
				b := p.parseBlockBody()
				defaultBody = &b
			}
			end := ret.Span
			if defaultBody != nil {
				end = defaultBody.Span
			}
			methods = append(methods, ast.InterfaceMethodDecl{Name: mName, Params: params, ReturnType: ret, DefaultBody: defaultBody, Span: span2(mStart, end)})
		} else {
			p.expect(token.Colon)
			typ := p.parseType()
			props = append(props, ast.PropertySignature{Name: mName, Type: typ, Readonly: readonly, Span: span2(mStart, typ.Span)})
		}
		p.accept(token.Comma)
		p.accept(token.Semicolon)
	}
	end := p.expect(token.RBrace)
	return ast.Statement{Kind: ast.StmtInterfaceDecl, Span: span2(start.Span, end.Span), Interface: &ast.InterfaceDecl{
		Name: name, TypeParams: typeParams, Extends: extends, Properties: props, Methods: methods, Span: span2(start.Span, end.Span),
	}}
}

func (p *Parser) parseEnumDeclStmt() ast.Statement {
	start := p.expect(token.Enum)
	name := p.expectIdent()
	p.expect(token.LBrace)
	var members []ast.EnumMember
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		mName := p.expectIdent()
		var val *ast.Expression
		if p.at(token.Assign) {
			p.advance()
			e := p.parseExpr()
			val = &e
		}
		end := mName.Span
		if val != nil {
			end = val.Span
		}
		members = append(members, ast.EnumMember{Name: mName, Value: val, Span: span2(mName.Span, end)})
		if !p.accept2(token.Comma) {
			break
		}
	}
	end := p.expect(token.RBrace)
	return ast.Statement{Kind: ast.StmtEnumDecl, Span: span2(start.Span, end.Span), Enum: &ast.EnumDecl{
		Name: name, Members: members, Span: span2(start.Span, end.Span),
	}}
}

func (p *Parser) parseTypeAliasStmt() ast.Statement {
	start := p.expect(token.Type)
	name := p.expectIdent()
	var typeParams []ast.TypeParameter
	if p.at(token.Less) {
		typeParams = p.parseTypeParamList()
		p.pushTypeParamScope(typeParams)
		defer p.popTypeParamScope()
	}
	p.expect(token.Assign)
	val := p.parseType()
	return ast.Statement{Kind: ast.StmtTypeAlias, Span: span2(start.Span, val.Span), TypeAlias: &ast.TypeAliasDecl{
		Name: name, TypeParams: typeParams, Value: val, Span: span2(start.Span, val.Span),
	}}
}

// parseImportStmt parses `import { a, b as c } from "path"` or
// `import * as ns from "path"`.
func (p *Parser) parseImportStmt() ast.Statement {
	start := p.expect(token.Import)
	var specifiers []ast.ImportSpecifier
	var namespace *ast.Ident
	switch {
	case p.at(token.Star):
		p.advance()
		p.expectKeywordText("as")
		ns := p.expectIdent()
		namespace = &ns
	case p.at(token.LBrace):
		p.advance()
		for !p.at(token.RBrace) && !p.at(token.EOF) {
			specName := p.expectIdent()
			var alias *ast.Ident
			if p.atKeywordText("as") {
				p.advance()
				a := p.expectIdent()
				alias = &a
			}
			specifiers = append(specifiers, ast.ImportSpecifier{Name: specName, Alias: alias, Span: specName.Span})
			if !p.accept2(token.Comma) {
				break
			}
		}
		p.expect(token.RBrace)
	default:
		p.errorf(p.peek().Span, diag.Syntactic, "expected '{' or '*' after import")
	}
	p.expectKeywordText("from")
	path := p.expect(token.StringLiteral)
	return ast.Statement{Kind: ast.StmtImport, Span: span2(start.Span, path.Span), Import: &ast.ImportDecl{
		Specifiers: specifiers, Namespace: namespace, Path: path.Text, Span: span2(start.Span, path.Span),
	}}
}

func (p *Parser) parseExportStmt() ast.Statement {
	start := p.expect(token.Export)
	if p.at(token.LBrace) {
		p.advance()
		var names []ast.ImportSpecifier
		for !p.at(token.RBrace) && !p.at(token.EOF) {
			n := p.expectIdent()
			var alias *ast.Ident
			if p.atKeywordText("as") {
				p.advance()
				a := p.expectIdent()
				alias = &a
			}
			names = append(names, ast.ImportSpecifier{Name: n, Alias: alias, Span: n.Span})
			if !p.accept2(token.Comma) {
				break
			}
		}
		end := p.expect(token.RBrace)
		var fromPath *string
		if p.atKeywordText("from") {
			p.advance()
			path := p.expect(token.StringLiteral)
			fromPath = &path.Text
			end = path
		}
		return ast.Statement{Kind: ast.StmtExport, Span: span2(start.Span, end.Span), Export: &ast.ExportDecl{
			Names: names, FromPath: fromPath, Span: span2(start.Span, end.Span),
		}}
	}
	decl := p.parseStatement()
	return ast.Statement{Kind: ast.StmtExport, Span: span2(start.Span, decl.Span), Export: &ast.ExportDecl{
		Decl: &decl, Span: span2(start.Span, decl.Span),
	}}
}

// atKeywordText reports whether the current token is a contextual
// keyword spelled as a plain identifier ("as", "from"), which are not
// reserved words elsewhere in the grammar.
func (p *Parser) atKeywordText(text string) bool {
	t := p.peek()
	return t.Kind == token.Identifier && t.Text == text
}

func (p *Parser) expectKeywordText(text string) token.Token {
	if p.atKeywordText(text) {
		return p.advance()
	}
	got := p.peek()
	p.errorf(got.Span, diag.Syntactic, "expected %q, found %s", text, got)
	return got
}
