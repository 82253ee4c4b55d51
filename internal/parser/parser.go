// Package parser implements the recursive-descent, Pratt-style parser
// described in spec.md §4.2.
package parser

import (
	"strings"

	"github.com/nimlang/nimc/internal/ast"
	"github.com/nimlang/nimc/internal/diagnostic"
	"github.com/nimlang/nimc/internal/lexer"
	"github.com/nimlang/nimc/internal/token"
)

// Parser turns a token stream into an *ast.Program, accumulating
// diagnostics instead of aborting on the first malformed construct
// (spec.md §4.2, §7).
type Parser struct {
	tokens []token.Token
	pos    int
	diags  *diagnostic.Diagnostics
}

// New tokenizes source and returns a Parser positioned at the first token.
func New(source string) *Parser {
	l := lexer.New(source)
	return &Parser{tokens: l.Tokenize(), diags: diagnostic.New()}
}

// Diagnostics returns the diagnostics accumulated while parsing.
func (p *Parser) Diagnostics() *diagnostic.Diagnostics {
	return p.diags
}

func (p *Parser) current() token.Token {
	return p.tokens[p.pos]
}

func (p *Parser) peekAt(n int) token.Token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+n]
}

func (p *Parser) check(k token.Kind) bool {
	return p.current().Kind == k
}

func (p *Parser) match(k token.Kind) bool {
	if p.check(k) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) advance() token.Token {
	tok := p.current()
	if tok.Kind != token.EOF {
		p.pos++
	}
	return tok
}

// expect consumes the current token if it has kind k, otherwise records a
// diagnostic and returns the unconsumed token so callers can keep going.
func (p *Parser) expect(k token.Kind) token.Token {
	if p.check(k) {
		return p.advance()
	}
	tok := p.current()
	p.diags.Errorf(tok.Line, "expected %s, found %s %q", k, tok.Kind, tok.Literal)
	return tok
}

// synchronize skips tokens until a plausible declaration or statement
// boundary, so one malformed construct doesn't cascade into unrelated
// errors (spec.md §4.2, §7).
func (p *Parser) synchronize() {
	for !p.check(token.EOF) {
		if p.current().Kind == token.SEMICOLON {
			p.advance()
			return
		}
		switch p.current().Kind {
		case token.FN, token.STRUCT, token.ENUM, token.GROUP, token.TYPEDEF,
			token.USE, token.EXTERN, token.STYLE, token.PUB, token.EXPORT,
			token.LBRACE, token.RBRACE:
			return
		}
		p.advance()
	}
}

// Parse parses the whole token stream into a Program.
func (p *Parser) Parse() *ast.Program {
	prog := &ast.Program{}

	for !p.check(token.EOF) {
		isPublic := false
		isExport := false
		if p.check(token.EXPORT) {
			p.advance()
			isExport = true
		}
		if p.check(token.PUB) {
			p.advance()
			isPublic = true
		}

		startPos := p.pos
		switch p.current().Kind {
		case token.USE:
			u := p.parseUseDecl(isExport)
			prog.Uses = append(prog.Uses, u)
		case token.FN, token.ASYNC, token.INLINE:
			fn := p.parseFunctionDecl()
			fn.IsPublic = isPublic
			prog.Functions = append(prog.Functions, fn)
		case token.EXTERN:
			ext := p.parseExternFunctionDecl()
			ext.IsPublic = isPublic
			prog.Externs = append(prog.Externs, ext)
		case token.GROUP:
			g := p.parseGroupDecl()
			prog.Groups = append(prog.Groups, g)
		case token.STRUCT:
			s := p.parseStructDecl()
			s.IsPublic = isPublic
			prog.Structs = append(prog.Structs, s)
		case token.ENUM:
			e := p.parseEnumDecl()
			e.IsPublic = isPublic
			prog.Enums = append(prog.Enums, e)
		case token.TYPEDEF:
			t := p.parseTypedefDecl()
			prog.Typedefs = append(prog.Typedefs, t)
		case token.STYLE:
			s := p.parseStyleDecl()
			prog.Styles = append(prog.Styles, s)
		default:
			prog.Stmts = append(prog.Stmts, p.parseStatement())
		}

		if p.pos == startPos {
			tok := p.current()
			p.diags.Errorf(tok.Line, "unexpected token %s %q at top level", tok.Kind, tok.Literal)
			p.synchronize()
			if p.pos == startPos {
				p.advance()
			}
		}
	}
	return prog
}

// parseUseDecl parses `use path[::{items}|::*][ as alias];`.
func (p *Parser) parseUseDecl(reExport bool) *ast.UseDecl {
	tok := p.expect(token.USE)
	var segs []string
	segs = append(segs, p.expect(token.IDENT).Literal)
	for p.check(token.COLONCOLON) {
		p.advance()
		if p.check(token.STAR) {
			p.advance()
			path := strings.Join(segs, "/")
			p.expect(token.SEMICOLON)
			return &ast.UseDecl{Base: ast.Base{Line: tok.Line}, Path: path, Spec: ast.UseSpec{Wildcard: true}, ReExport: reExport}
		}
		if p.check(token.LBRACE) {
			p.advance()
			var items []ast.UseItem
			for !p.check(token.RBRACE) && !p.check(token.EOF) {
				name := p.expect(token.IDENT).Literal
				rename := ""
				if p.match(token.AS) {
					rename = p.expect(token.IDENT).Literal
				}
				items = append(items, ast.UseItem{Original: name, Rename: rename})
				if !p.match(token.COMMA) {
					break
				}
			}
			p.expect(token.RBRACE)
			path := strings.Join(segs, "/")
			p.expect(token.SEMICOLON)
			return &ast.UseDecl{Base: ast.Base{Line: tok.Line}, Path: path, Spec: ast.UseSpec{Specific: items}, ReExport: reExport}
		}
		segs = append(segs, p.expect(token.IDENT).Literal)
	}
	path := strings.Join(segs, "/")
	alias := ""
	if p.match(token.AS) {
		alias = p.expect(token.IDENT).Literal
	}
	p.expect(token.SEMICOLON)
	return &ast.UseDecl{Base: ast.Base{Line: tok.Line}, Path: path, Spec: ast.UseSpec{All: true, Alias: alias}, ReExport: reExport}
}

func (p *Parser) parseFunctionDecl() *ast.FunctionDecl {
	isInline := false
	isAsync := false
	tok := p.current()
	if p.match(token.INLINE) {
		isInline = true
	}
	if p.match(token.ASYNC) {
		isAsync = true
	}
	p.expect(token.FN)
	name := p.expect(token.IDENT)
	p.expect(token.LPAREN)
	params := p.parseParamList()
	p.expect(token.RPAREN)
	var ret *ast.TypeRef
	if p.match(token.COLON) {
		ret = p.parseTypeRef()
	}
	body := p.parseBlock()
	return &ast.FunctionDecl{
		Base: ast.Base{Line: tok.Line}, Name: name.Literal, Params: params,
		ReturnType: ret, Body: body, IsInline: isInline, IsAsync: isAsync,
	}
}

func (p *Parser) parseExternFunctionDecl() *ast.ExternFunctionDecl {
	tok := p.expect(token.EXTERN)
	p.expect(token.FN)
	name := p.expect(token.IDENT)
	p.expect(token.LPAREN)
	params := p.parseParamList()
	p.expect(token.RPAREN)
	var ret *ast.TypeRef
	if p.match(token.COLON) {
		ret = p.parseTypeRef()
	}
	p.expect(token.SEMICOLON)
	return &ast.ExternFunctionDecl{Base: ast.Base{Line: tok.Line}, Name: name.Literal, Params: params, ReturnType: ret}
}

func (p *Parser) parseGroupDecl() *ast.GroupDecl {
	tok := p.expect(token.GROUP)
	name := p.expect(token.IDENT)
	g := &ast.GroupDecl{Base: ast.Base{Line: tok.Line}, Name: name.Literal}
	if p.match(token.LT) {
		g.TypeParam = p.expect(token.IDENT).Literal
		p.expect(token.GT)
	}
	p.expect(token.LBRACE)
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		isPublic := p.match(token.PUB)
		switch p.current().Kind {
		case token.FN:
			fn := p.parseFunctionDecl()
			fn.IsPublic = isPublic
			g.Functions = append(g.Functions, fn)
		case token.CONST, token.LET, token.VAR, token.MUT:
			g.Consts = append(g.Consts, p.parseVarDecl())
		case token.IDENT:
			// a struct-method label: `name => fn(self: T, ...): Ret -> { body }`
			g.Functions = append(g.Functions, p.parseLabeledFunctionAsMethod())
		default:
			startPos := p.pos
			p.synchronize()
			if p.pos == startPos {
				p.advance()
			}
		}
	}
	p.expect(token.RBRACE)
	return g
}

// parseLabeledFunctionAsMethod parses `name => fn(params): Ret -> { body }`
// inside a group body into an ordinary FunctionDecl in the group's
// Functions. When the enclosing group's name matches a struct, the checker
// registers these as that struct's methods (spec.md §4.4 Pass A).
func (p *Parser) parseLabeledFunctionAsMethod() *ast.FunctionDecl {
	tok := p.current()
	name := p.expect(token.IDENT).Literal
	p.expect(token.FATARROW)
	p.expect(token.FN)
	p.expect(token.LPAREN)
	params := p.parseParamList()
	p.expect(token.RPAREN)
	var ret *ast.TypeRef
	if p.match(token.COLON) {
		ret = p.parseTypeRef()
	}
	p.expect(token.ARROW)
	body := p.parseBlock()
	p.match(token.SEMICOLON)
	return &ast.FunctionDecl{Base: ast.Base{Line: tok.Line}, Name: name, Params: params, ReturnType: ret, Body: body}
}

func (p *Parser) parseFieldDecl() *ast.FieldDecl {
	tok := p.current()
	name := p.expect(token.IDENT)
	p.expect(token.COLON)
	typ := p.parseTypeRef()
	return &ast.FieldDecl{Base: ast.Base{Line: tok.Line}, Name: name.Literal, Type: typ}
}

func (p *Parser) parseStructDecl() *ast.StructDecl {
	tok := p.expect(token.STRUCT)
	name := p.expect(token.IDENT)
	s := &ast.StructDecl{Base: ast.Base{Line: tok.Line}, Name: name.Literal}
	p.expect(token.LBRACE)
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		s.Fields = append(s.Fields, p.parseFieldDecl())
		if !p.match(token.COMMA) {
			p.match(token.SEMICOLON)
		}
	}
	p.expect(token.RBRACE)
	return s
}

func (p *Parser) parseEnumDecl() *ast.EnumDecl {
	tok := p.expect(token.ENUM)
	name := p.expect(token.IDENT)
	e := &ast.EnumDecl{Base: ast.Base{Line: tok.Line}, Name: name.Literal}
	p.expect(token.LBRACE)
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		vtok := p.current()
		vname := p.expect(token.IDENT).Literal
		var init ast.Expression
		if p.match(token.ASSIGN) {
			init = p.parseExpression()
		}
		e.Variants = append(e.Variants, &ast.EnumVariant{Base: ast.Base{Line: vtok.Line}, Name: vname, Initializer: init})
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.RBRACE)
	return e
}

func (p *Parser) parseTypedefDecl() *ast.TypedefDecl {
	tok := p.expect(token.TYPEDEF)
	name := p.expect(token.IDENT)
	p.expect(token.ASSIGN)
	target := p.parseTypeRef()
	p.expect(token.SEMICOLON)
	return &ast.TypedefDecl{Base: ast.Base{Line: tok.Line}, Name: name.Literal, Target: target}
}

func (p *Parser) parseStyleDecl() *ast.StyleDecl {
	tok := p.expect(token.STYLE)
	name := p.expect(token.IDENT)
	p.expect(token.ASSIGN)
	esc := p.expect(token.STRING_LIT)
	p.expect(token.SEMICOLON)
	return &ast.StyleDecl{Base: ast.Base{Line: tok.Line}, Name: name.Literal, Escape: esc.Literal}
}

func (p *Parser) parseParamList() []*ast.Param {
	var params []*ast.Param
	for !p.check(token.RPAREN) && !p.check(token.EOF) {
		params = append(params, p.parseParam())
		if !p.match(token.COMMA) {
			break
		}
	}
	return params
}

func (p *Parser) parseParam() *ast.Param {
	tok := p.current()
	if p.check(token.SELF) {
		p.advance()
		param := &ast.Param{Base: ast.Base{Line: tok.Line}, Name: "self", IsSelf: true}
		if p.match(token.COLON) {
			param.Type = p.parseTypeRef()
		}
		return param
	}
	name := p.expect(token.IDENT)
	var typ *ast.TypeRef
	if p.match(token.COLON) {
		typ = p.parseTypeRef()
	}
	var def ast.Expression
	if p.match(token.ASSIGN) {
		def = p.parseExpression()
	}
	return &ast.Param{Base: ast.Base{Line: tok.Line}, Name: name.Literal, Type: typ, Default: def}
}

// scalarTypeKinds lets parseTypeRef recognize the keyword-spelled scalar
// types without special-casing each one.
var scalarTypeKinds = map[token.Kind]bool{
	token.I8: true, token.I16: true, token.I32: true, token.I64: true, token.I128: true,
	token.U8: true, token.U16: true, token.U32: true, token.U64: true, token.U128: true,
	token.F32: true, token.F64: true, token.F80: true, token.F128: true,
	token.D32: true, token.D64: true, token.D128: true,
	token.BOOL: true, token.CHAR: true, token.VOID: true, token.ANY: true, token.STR: true,
	token.ARR: true, token.BIT: true, token.BYTE: true, token.HEX: true, token.DEC: true,
}

func (p *Parser) parseTypeRef() *ast.TypeRef {
	tok := p.current()
	if p.match(token.STAR) {
		return &ast.TypeRef{Base: ast.Base{Line: tok.Line}, IsPtr: true, Elem: p.parseTypeRef()}
	}
	if p.match(token.AMP) {
		return &ast.TypeRef{Base: ast.Base{Line: tok.Line}, IsRef: true, Elem: p.parseTypeRef()}
	}
	if p.check(token.LPAREN) {
		p.advance()
		var elems []*ast.TypeRef
		for !p.check(token.RPAREN) && !p.check(token.EOF) {
			elems = append(elems, p.parseTypeRef())
			if !p.match(token.COMMA) {
				break
			}
		}
		p.expect(token.RPAREN)
		return &ast.TypeRef{Base: ast.Base{Line: tok.Line}, Name: "Tuple", Elements: elems}
	}
	if p.check(token.FN) {
		p.advance()
		p.expect(token.LPAREN)
		var params []*ast.TypeRef
		for !p.check(token.RPAREN) && !p.check(token.EOF) {
			params = append(params, p.parseTypeRef())
			if !p.match(token.COMMA) {
				break
			}
		}
		p.expect(token.RPAREN)
		var ret *ast.TypeRef
		if p.match(token.COLON) {
			ret = p.parseTypeRef()
		}
		return &ast.TypeRef{Base: ast.Base{Line: tok.Line}, Name: "Fn", Params: params, Return: ret}
	}

	var name string
	if scalarTypeKinds[tok.Kind] {
		name = tok.Kind.String()
		p.advance()
	} else {
		name = p.expect(token.IDENT).Literal
	}
	t := &ast.TypeRef{Base: ast.Base{Line: tok.Line}, Name: name}
	if p.match(token.LT) {
		t.TypeArgs = append(t.TypeArgs, p.parseTypeRef())
		for p.match(token.COMMA) {
			t.TypeArgs = append(t.TypeArgs, p.parseTypeRef())
		}
		p.expect(token.GT)
	}
	if p.match(token.LBRACKET) {
		if !p.check(token.RBRACKET) {
			t.Length = p.parseExpression()
		}
		p.expect(token.RBRACKET)
	}
	return t
}

func (p *Parser) parseBlock() *ast.BlockStmt {
	tok := p.expect(token.LBRACE)
	b := &ast.BlockStmt{Base: ast.Base{Line: tok.Line}}
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		startPos := p.pos
		b.Statements = append(b.Statements, p.parseStatement())
		if p.pos == startPos {
			p.advance()
		}
	}
	p.expect(token.RBRACE)
	return b
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.current().Kind {
	case token.LBRACE:
		return p.parseBlock()
	case token.CONST, token.LET, token.VAR, token.MUT:
		return p.parseVarDecl()
	case token.RETURN:
		return p.parseReturnStmt()
	case token.IF:
		return p.parseIfStmt()
	case token.WHILE:
		return p.parseWhileStmt()
	case token.LOOP:
		return p.parseLoopStmt()
	case token.FOR:
		return p.parseForStmt()
	case token.BREAK:
		tok := p.advance()
		p.match(token.SEMICOLON)
		return &ast.BreakStmt{Base: ast.Base{Line: tok.Line}}
	case token.CONTINUE:
		tok := p.advance()
		p.match(token.SEMICOLON)
		return &ast.ContinueStmt{Base: ast.Base{Line: tok.Line}}
	case token.ECHO:
		return p.parseEchoStmt()
	case token.ROUTINE:
		return p.parseRoutineStmt()
	case token.UNSAFE:
		return p.parseUnsafeStmt()
	case token.FASTEXEC:
		return p.parseFastexecStmt()
	case token.ASM:
		return p.parseAsmStmt()
	case token.ROLLING:
		return p.parseRollingTagRefStmt()
	case token.SEMICOLON:
		tok := p.advance()
		return &ast.EmptyStmt{Base: ast.Base{Line: tok.Line}}
	case token.IDENT:
		if p.peekAt(1).Kind == token.FATARROW {
			return p.parseLabeledStmt()
		}
		return p.parseExprStmtOrAssign()
	default:
		return p.parseExprStmtOrAssign()
	}
}

func (p *Parser) parseVarDecl() *ast.VarDecl {
	tok := p.current()
	isMutable := false
	if p.match(token.MUT) {
		isMutable = true
	}
	isConst, isLet := false, false
	switch {
	case p.match(token.CONST):
		isConst = true
	case p.match(token.LET):
		isLet = true
	case p.match(token.VAR):
		isMutable = true
	}
	name := p.expect(token.IDENT)
	var size ast.Expression
	if p.match(token.LPAREN) {
		size = p.parseExpression()
		p.expect(token.RPAREN)
	}
	var typ *ast.TypeRef
	if p.match(token.COLON) {
		typ = p.parseTypeRef()
	}
	var value ast.Expression
	if p.match(token.ASSIGN) {
		value = p.parseExpression()
	}
	p.expect(token.SEMICOLON)
	return &ast.VarDecl{
		Base: ast.Base{Line: tok.Line}, Name: name.Literal, IsConst: isConst, IsLet: isLet,
		IsMutable: isMutable, Size: size, Type: typ, Value: value,
	}
}

func (p *Parser) parseReturnStmt() *ast.ReturnStmt {
	tok := p.expect(token.RETURN)
	var val ast.Expression
	if !p.check(token.SEMICOLON) {
		val = p.parseExpression()
	}
	p.expect(token.SEMICOLON)
	return &ast.ReturnStmt{Base: ast.Base{Line: tok.Line}, Value: val}
}

func (p *Parser) parseIfStmt() *ast.IfStmt {
	tok := p.expect(token.IF)
	p.expect(token.LPAREN)
	cond := p.parseExpression()
	p.expect(token.RPAREN)
	then := p.parseBlock()
	stmt := &ast.IfStmt{Base: ast.Base{Line: tok.Line}, Condition: cond, Then: then}
	if p.match(token.ELSEIF) {
		stmt.Else = p.parseElseif(tok.Line)
	} else if p.match(token.ELSE) {
		stmt.Else = p.parseBlock()
	}
	return stmt
}

// parseElseif parses the remainder of an `elseif (cond) { ... }` chain,
// already past the `elseif` keyword.
func (p *Parser) parseElseif(line int) *ast.IfStmt {
	p.expect(token.LPAREN)
	cond := p.parseExpression()
	p.expect(token.RPAREN)
	then := p.parseBlock()
	stmt := &ast.IfStmt{Base: ast.Base{Line: line}, Condition: cond, Then: then}
	if p.match(token.ELSEIF) {
		stmt.Else = p.parseElseif(line)
	} else if p.match(token.ELSE) {
		stmt.Else = p.parseBlock()
	}
	return stmt
}

func (p *Parser) parseWhileStmt() *ast.WhileStmt {
	tok := p.expect(token.WHILE)
	p.expect(token.LPAREN)
	cond := p.parseExpression()
	p.expect(token.RPAREN)
	body := p.parseBlock()
	return &ast.WhileStmt{Base: ast.Base{Line: tok.Line}, Condition: cond, Body: body}
}

func (p *Parser) parseLoopStmt() *ast.LoopStmt {
	tok := p.expect(token.LOOP)
	body := p.parseBlock()
	return &ast.LoopStmt{Base: ast.Base{Line: tok.Line}, Body: body}
}

// parseForStmt detects `in` after the loop variable to pick the
// range/iterable form (`for x in it { }` or `for (x in it) { }`) over the
// C-style init/cond/incr form, which is always parenthesized (spec.md §4.2).
func (p *Parser) parseForStmt() ast.Statement {
	tok := p.expect(token.FOR)
	hasParen := p.match(token.LPAREN)

	if p.check(token.IDENT) && p.peekAt(1).Kind == token.IN {
		name := p.expect(token.IDENT).Literal
		p.expect(token.IN)
		iterable := p.parseExpression()
		if hasParen {
			p.expect(token.RPAREN)
		}
		body := p.parseBlock()
		return &ast.ForInStmt{Base: ast.Base{Line: tok.Line}, Variable: name, Iterable: iterable, Body: body}
	}
	if !hasParen {
		p.expect(token.LPAREN)
	}

	var init *ast.VarDecl
	if !p.check(token.SEMICOLON) {
		init = p.parseVarDecl() // consumes its own trailing ';'
	} else {
		p.advance()
	}
	var cond ast.Expression
	if !p.check(token.SEMICOLON) {
		cond = p.parseExpression()
	}
	p.expect(token.SEMICOLON)
	var incr ast.Statement
	if !p.check(token.RPAREN) {
		incr = p.parseExprStmtOrAssignNoSemi()
	}
	p.expect(token.RPAREN)
	body := p.parseBlock()
	return &ast.ForCStmt{Base: ast.Base{Line: tok.Line}, Init: init, Cond: cond, Incr: incr, Body: body}
}

// parseExprStmtOrAssignNoSemi is used for a for-loop's increment clause,
// which is not terminated by `;`.
func (p *Parser) parseExprStmtOrAssignNoSemi() ast.Statement {
	tok := p.current()
	expr := p.parseExpression()
	if assign, ok := expr.(*ast.AssignStmt); ok {
		return assign
	}
	return &ast.ExprStmt{Base: ast.Base{Line: tok.Line}, Expr: expr}
}

func (p *Parser) parseEchoStmt() *ast.EchoStmt {
	tok := p.expect(token.ECHO)
	p.expect(token.LPAREN)
	var args []ast.Expression
	for !p.check(token.RPAREN) && !p.check(token.EOF) {
		args = append(args, p.parseExpression())
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN)
	p.expect(token.SEMICOLON)
	return &ast.EchoStmt{Base: ast.Base{Line: tok.Line}, Args: args}
}

func (p *Parser) parseRoutineStmt() *ast.RoutineStmt {
	tok := p.expect(token.ROUTINE)
	p.expect(token.LPAREN)
	callExpr := p.parseExpression()
	p.expect(token.RPAREN)
	p.expect(token.SEMICOLON)
	call, _ := callExpr.(*ast.CallExpr)
	return &ast.RoutineStmt{Base: ast.Base{Line: tok.Line}, Call: call}
}

func (p *Parser) parseUnsafeStmt() *ast.UnsafeStmt {
	tok := p.expect(token.UNSAFE)
	body := p.parseBlock()
	return &ast.UnsafeStmt{Base: ast.Base{Line: tok.Line}, Body: body}
}

func (p *Parser) parseFastexecStmt() *ast.FastexecStmt {
	tok := p.expect(token.FASTEXEC)
	body := p.parseBlock()
	return &ast.FastexecStmt{Base: ast.Base{Line: tok.Line}, Body: body}
}

func (p *Parser) parseAsmStmt() *ast.AsmStmt {
	tok := p.expect(token.ASM)
	tag := ""
	if p.match(token.COLON) {
		tag = p.expect(token.IDENT).Literal
	}
	p.expect(token.LBRACE)
	var raw strings.Builder
	depth := 1
	for depth > 0 && !p.check(token.EOF) {
		if p.check(token.LBRACE) {
			depth++
		} else if p.check(token.RBRACE) {
			depth--
			if depth == 0 {
				break
			}
		}
		if raw.Len() > 0 {
			raw.WriteByte(' ')
		}
		raw.WriteString(p.current().Literal)
		p.advance()
	}
	p.expect(token.RBRACE)
	return &ast.AsmStmt{Base: ast.Base{Line: tok.Line}, Tag: tag, Raw: raw.String()}
}

func (p *Parser) parseRollingTagRefStmt() ast.Statement {
	tok := p.expect(token.ROLLING)
	if p.match(token.COLON) {
		name := p.expect(token.IDENT).Literal
		p.expect(token.SEMICOLON)
		return &ast.RollingTagRefStmt{Base: ast.Base{Line: tok.Line}, Tag: name}
	}
	name := p.expect(token.IDENT).Literal
	p.expect(token.SEMICOLON)
	return &ast.TagStmt{Base: ast.Base{Line: tok.Line}, Name: name}
}

func (p *Parser) parseLabeledStmt() ast.Statement {
	tok := p.current()
	name := p.expect(token.IDENT).Literal
	p.expect(token.FATARROW)
	if p.check(token.LBRACE) {
		body := p.parseBlock()
		p.match(token.SEMICOLON)
		return &ast.LabeledStmt{Base: ast.Base{Line: tok.Line}, Name: name, Body: body}
	}
	expr := p.parseExpression()
	p.expect(token.SEMICOLON)
	return &ast.LabeledExprStmt{Base: ast.Base{Line: tok.Line}, Name: name, Expr: expr}
}

func (p *Parser) parseExprStmtOrAssign() ast.Statement {
	tok := p.current()
	expr := p.parseExpression()
	p.expect(token.SEMICOLON)
	if assign, ok := expr.(*ast.AssignStmt); ok {
		return assign
	}
	return &ast.ExprStmt{Base: ast.Base{Line: tok.Line}, Expr: expr}
}

// ---------------------------------------------------------------------
// Expression parsing — Pratt / precedence climbing, spec.md §4.2.
// ---------------------------------------------------------------------

const (
	precNone = iota
	precLogicalOr
	precLogicalAnd
	precBitOr
	precBitXor
	precBitAnd
	precEquality
	precRelational
	precRange
	precShift
	precAdditive
	precMultiplicative
)

var compoundAssignOps = map[token.Kind]token.Kind{
	token.PLUS_EQ: token.PLUS, token.MINUS_EQ: token.MINUS, token.STAR_EQ: token.STAR,
	token.SLASH_EQ: token.SLASH, token.PCT_EQ: token.PERCENT, token.AMP_EQ: token.AMP,
	token.PIPE_EQ: token.PIPE, token.CARET_EQ: token.CARET,
	token.SHL_EQ: token.SHL, token.SHR_EQ: token.SHR,
}

func binPrecedence(k token.Kind) int {
	switch k {
	case token.LOR, token.OR:
		return precLogicalOr
	case token.LAND, token.AND:
		return precLogicalAnd
	case token.PIPE:
		return precBitOr
	case token.CARET, token.XOR:
		return precBitXor
	case token.AMP:
		return precBitAnd
	case token.EQ, token.NEQ, token.STRICT_EQ, token.STRICT_NEQ, token.DIAMOND:
		return precEquality
	case token.LT, token.LEQ, token.GT, token.GEQ:
		return precRelational
	case token.DOTDOT:
		return precRange
	case token.SHL, token.SHR:
		return precShift
	case token.PLUS, token.MINUS:
		return precAdditive
	case token.STAR, token.SLASH, token.PERCENT:
		return precMultiplicative
	default:
		return precNone
	}
}

// parseExpression parses the assignment/send level, the widest level in
// the grammar (spec.md §4.2 level 1), right-associative.
func (p *Parser) parseExpression() ast.Expression {
	left := p.parseBinary(precLogicalOr)

	if p.check(token.SEND) {
		tok := p.advance()
		value := p.parseExpression()
		return &ast.ChannelSendExpr{Base: ast.Base{Line: tok.Line}, Channel: left, Value: value}
	}

	if p.check(token.ASSIGN) {
		tok := p.advance()
		value := p.parseExpression()
		return wrapAssign(tok.Line, left, token.ASSIGN, value)
	}
	if opTok, ok := compoundAssignOps[p.current().Kind]; ok {
		tok := p.advance()
		value := p.parseExpression()
		return wrapAssign(tok.Line, left, opTok, value)
	}

	return left
}

// wrapAssign returns an AssignStmt as an Expression (AssignStmt implements
// both) so parseExpression can return it uniformly; parseExprStmtOrAssign
// turns it back into a statement.
func wrapAssign(line int, target ast.Expression, op token.Kind, value ast.Expression) ast.Expression {
	return &ast.AssignStmt{
		Target: target, Op: op, Value: value,
	}
}

// parseBinary implements precedence climbing over levels 2-8 (logical-or
// down through multiplicative); range (`..`) is non-associative and is
// special-cased to accept at most one occurrence per chain.
func (p *Parser) parseBinary(minPrec int) ast.Expression {
	left := p.parseUnary()

	for {
		prec := binPrecedence(p.current().Kind)
		if prec == precNone || prec < minPrec {
			break
		}
		op := p.advance()

		if prec == precRange {
			right := p.parseBinary(prec + 1)
			left = &ast.RangeExpr{Base: ast.Base{Line: op.Line}, Start: left, End: right}
			continue
		}

		right := p.parseBinary(prec + 1)
		left = &ast.BinaryExpr{Base: ast.Base{Line: op.Line}, Left: left, Op: op.Kind, Right: right}
	}
	return left
}

var unaryPrefixOps = map[token.Kind]bool{
	token.MINUS: true, token.BANG: true, token.TILDE: true, token.AMP: true, token.STAR: true,
	token.INC: true, token.DEC_OP: true,
}

func (p *Parser) parseUnary() ast.Expression {
	tok := p.current()
	switch {
	case unaryPrefixOps[tok.Kind]:
		p.advance()
		operand := p.parseUnary()
		return &ast.UnaryExpr{Base: ast.Base{Line: tok.Line}, Op: tok.Kind, Operand: operand}
	case tok.Kind == token.AWAIT:
		p.advance()
		return &ast.AwaitExpr{Base: ast.Base{Line: tok.Line}, Expr: p.parseUnary()}
	case tok.Kind == token.SEND:
		p.advance()
		return &ast.ChannelRecvExpr{Base: ast.Base{Line: tok.Line}, Channel: p.parseUnary()}
	default:
		return p.parseTernary()
	}
}

// parseTernary sits between unary and postfix so `cond ? a : b` composes
// with the rest of the precedence chain; `?` as a postfix try-operator is
// disambiguated in parsePostfix by requiring `:` to follow for ternary.
func (p *Parser) parseTernary() ast.Expression {
	expr := p.parsePostfixEntry()
	return expr
}

// parsePostfixEntry handles ternary's leading `?`. parsePostfix already
// consumes `?` as the try-operator whenever nothing expression-shaped
// follows it, so a `?` still pending here always starts a ternary.
func (p *Parser) parsePostfixEntry() ast.Expression {
	expr := p.parsePostfix()
	if p.check(token.QUESTION) {
		tok := p.advance()
		then := p.parseExpression()
		p.expect(token.COLON)
		els := p.parseExpression()
		return &ast.TernaryExpr{Base: ast.Base{Line: tok.Line}, Condition: expr, Then: then, Else: els}
	}
	return expr
}

func (p *Parser) parsePostfix() ast.Expression {
	expr := p.parsePrimary()
	line := expr.Pos()

	for {
		switch {
		case p.check(token.LPAREN):
			p.advance()
			args := p.parseArgList()
			p.expect(token.RPAREN)
			expr = &ast.CallExpr{Base: ast.Base{Line: line}, Callee: expr, Args: args}
		case p.check(token.LBRACKET):
			p.advance()
			idx := p.parseExpression()
			p.expect(token.RBRACKET)
			expr = &ast.IndexExpr{Base: ast.Base{Line: line}, Object: expr, Index: idx}
		case p.check(token.DOT):
			p.advance()
			name := p.expect(token.IDENT)
			expr = &ast.MemberExpr{Base: ast.Base{Line: line}, Object: expr, Field: name.Literal}
		case p.check(token.COLONCOLON):
			if ident, ok := expr.(*ast.Identifier); ok {
				p.advance()
				variant := p.expect(token.IDENT)
				expr = &ast.EnumAccessExpr{Base: ast.Base{Line: line}, EnumName: ident.Name, Variant: variant.Literal}
			} else {
				return expr
			}
		case p.check(token.INC):
			p.advance()
			expr = &ast.PostfixExpr{Base: ast.Base{Line: line}, Op: token.INC, Operand: expr}
		case p.check(token.DEC_OP):
			p.advance()
			expr = &ast.PostfixExpr{Base: ast.Base{Line: line}, Op: token.DEC_OP, Operand: expr}
		case p.check(token.QUESTION) && !exprStartKinds[p.peekAt(1).Kind]:
			// `expr?` with nothing expression-shaped after it is the try
			// operator; `expr ? then : else` is left for the ternary level
			// above, since exprStartKinds[peekAt(1)] held.
			p.advance()
			expr = &ast.TryExpr{Base: ast.Base{Line: line}, Expr: expr}
		default:
			return expr
		}
	}
}

func (p *Parser) parseArgList() []ast.Arg {
	var args []ast.Arg
	for !p.check(token.RPAREN) && !p.check(token.EOF) {
		if p.check(token.IDENT) && p.peekAt(1).Kind == token.COLON {
			name := p.advance().Literal
			p.advance() // ':'
			args = append(args, ast.Arg{Name: name, Value: p.parseExpression()})
		} else {
			args = append(args, ast.Arg{Value: p.parseExpression()})
		}
		if !p.match(token.COMMA) {
			break
		}
	}
	return args
}

// exprStartKinds lists tokens that can begin a new expression, used to tell
// a ternary's `?` apart from the postfix try-operator's `?` (both share the
// QUESTION token; neither the original source nor spec.md's grammar gives
// them distinct spellings).
var exprStartKinds = map[token.Kind]bool{
	token.INT_LIT: true, token.FLOAT_LIT: true, token.HEX_LIT: true, token.CHAR_LIT: true,
	token.STRING_LIT: true, token.INTERP_STRING_LIT: true, token.IDENT: true, token.NULL: true,
	token.SELF: true, token.DEF: true, token.SIZEOF: true, token.MATCH: true, token.FN: true,
	token.LPAREN: true, token.LBRACKET: true, token.MINUS: true, token.BANG: true,
	token.TILDE: true, token.AMP: true, token.STAR: true, token.INC: true, token.DEC_OP: true,
	token.AWAIT: true, token.SEND: true,
}

var builtinIdentKinds = map[token.Kind]bool{
	token.PRINT: true, token.PRINTLN: true, token.EPRINT: true, token.INPUT: true,
	token.STRLEN: true, token.ARRLEN: true, token.PANIC: true, token.EXIT: true, token.ECHO: true,
}

func (p *Parser) parsePrimary() ast.Expression {
	tok := p.current()

	switch {
	case tok.Kind == token.INT_LIT:
		p.advance()
		return &ast.IntLit{Base: ast.Base{Line: tok.Line}, Value: tok.Literal}
	case tok.Kind == token.FLOAT_LIT:
		p.advance()
		return &ast.FloatLit{Base: ast.Base{Line: tok.Line}, Value: tok.Literal}
	case tok.Kind == token.HEX_LIT:
		p.advance()
		return &ast.HexLit{Base: ast.Base{Line: tok.Line}, Value: tok.Literal}
	case tok.Kind == token.CHAR_LIT:
		p.advance()
		var b byte
		if len(tok.Literal) > 0 {
			b = tok.Literal[0]
		}
		return &ast.CharLit{Base: ast.Base{Line: tok.Line}, Value: b}
	case tok.Kind == token.STRING_LIT:
		p.advance()
		return &ast.StringLit{Base: ast.Base{Line: tok.Line}, Value: tok.Literal}
	case tok.Kind == token.INTERP_STRING_LIT:
		p.advance()
		return parseInterpStringLit(tok.Line, tok.Literal)
	case tok.Kind == token.IDENT && token.IsBoolLiteral(tok.Literal):
		p.advance()
		return &ast.BoolLit{Base: ast.Base{Line: tok.Line}, Value: tok.Literal == "true"}
	case tok.Kind == token.NULL:
		p.advance()
		return &ast.NullLit{Base: ast.Base{Line: tok.Line}}
	case tok.Kind == token.SELF:
		p.advance()
		return &ast.SelfExpr{Base: ast.Base{Line: tok.Line}}
	case tok.Kind == token.DEF:
		p.advance()
		return &ast.DefaultPatternExpr{Base: ast.Base{Line: tok.Line}}
	case tok.Kind == token.SIZEOF:
		p.advance()
		p.expect(token.LPAREN)
		typ := p.parseTypeRef()
		p.expect(token.RPAREN)
		return &ast.SizeofExpr{Base: ast.Base{Line: tok.Line}, Type: typ}
	case tok.Kind == token.MATCH:
		return p.parseMatchExpr()
	case tok.Kind == token.FN:
		return p.parseLambdaExpr()
	case builtinIdentKinds[tok.Kind]:
		p.advance()
		return &ast.Identifier{Base: ast.Base{Line: tok.Line}, Name: tok.Kind.String()}
	case tok.Kind == token.IDENT:
		p.advance()
		if p.check(token.LBRACE) && p.canStartStructLit() {
			return p.parseStructLit(tok.Line, tok.Literal)
		}
		return &ast.Identifier{Base: ast.Base{Line: tok.Line}, Name: tok.Literal}
	case tok.Kind == token.LPAREN:
		p.advance()
		first := p.parseExpression()
		if p.check(token.COMMA) {
			elems := []ast.Expression{first}
			for p.match(token.COMMA) {
				if p.check(token.RPAREN) {
					break
				}
				elems = append(elems, p.parseExpression())
			}
			p.expect(token.RPAREN)
			return &ast.TupleExpr{Base: ast.Base{Line: tok.Line}, Elements: elems}
		}
		p.expect(token.RPAREN)
		return first
	case tok.Kind == token.LBRACKET:
		return p.parseArrayLit()
	default:
		p.diags.Errorf(tok.Line, "unexpected token %s %q in expression", tok.Kind, tok.Literal)
		p.advance()
		return &ast.Identifier{Base: ast.Base{Line: tok.Line}, Name: "<error>"}
	}
}

// canStartStructLit guards the ambiguity between `Name { ... }` as a struct
// literal and `Name` followed by an unrelated block (e.g. an if-condition
// identifier immediately followed by the if's body). A struct literal's
// brace must be followed by `}` (empty) or `IDENT :`.
func (p *Parser) canStartStructLit() bool {
	if p.peekAt(1).Kind == token.RBRACE {
		return true
	}
	return p.peekAt(1).Kind == token.IDENT && p.peekAt(2).Kind == token.COLON
}

func (p *Parser) parseStructLit(line int, name string) ast.Expression {
	p.expect(token.LBRACE)
	var fields []ast.StructLitField
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		fname := p.expect(token.IDENT).Literal
		p.expect(token.COLON)
		fval := p.parseExpression()
		fields = append(fields, ast.StructLitField{Name: fname, Value: fval})
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.RBRACE)
	return &ast.StructLit{Base: ast.Base{Line: line}, Name: name, Fields: fields}
}

func (p *Parser) parseArrayLit() *ast.ArrayLit {
	tok := p.expect(token.LBRACKET)
	a := &ast.ArrayLit{Base: ast.Base{Line: tok.Line}}
	for !p.check(token.RBRACKET) && !p.check(token.EOF) {
		a.Elements = append(a.Elements, p.parseExpression())
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.RBRACKET)
	return a
}

func (p *Parser) parseLambdaExpr() ast.Expression {
	tok := p.expect(token.FN)
	p.expect(token.LPAREN)
	params := p.parseParamList()
	p.expect(token.RPAREN)
	var ret *ast.TypeRef
	if p.match(token.COLON) {
		ret = p.parseTypeRef()
	}
	p.expect(token.ARROW)
	var body ast.Expression
	if p.check(token.LBRACE) {
		body = &ast.BlockExpr{Base: ast.Base{Line: p.current().Line}, Body: p.parseBlock()}
	} else {
		body = p.parseExpression()
	}
	return &ast.LambdaExpr{Base: ast.Base{Line: tok.Line}, Params: params, ReturnType: ret, Body: body}
}

func (p *Parser) parseMatchExpr() ast.Expression {
	tok := p.expect(token.MATCH)
	// `match d { ... }`; a parenthesized `match (d) { ... }` parses as a
	// parenthesized discriminant expression.
	disc := p.parseExpression()
	p.expect(token.LBRACE)
	m := &ast.MatchExpr{Base: ast.Base{Line: tok.Line}, Discriminant: disc}
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		m.Arms = append(m.Arms, p.parseMatchArm())
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.RBRACE)
	return m
}

func (p *Parser) parseMatchArm() *ast.MatchArm {
	tok := p.current()
	pattern := p.parseMatchPattern()
	p.expect(token.FATARROW)
	var body ast.Expression
	if p.check(token.LBRACE) {
		body = &ast.BlockExpr{Base: ast.Base{Line: p.current().Line}, Body: p.parseBlock()}
	} else {
		body = p.parseExpression()
	}
	return &ast.MatchArm{Base: ast.Base{Line: tok.Line}, Pattern: pattern, Body: body}
}

func (p *Parser) parseMatchPattern() *ast.MatchPattern {
	tok := p.current()
	if p.match(token.DEF) {
		return &ast.MatchPattern{Base: ast.Base{Line: tok.Line}, IsDefault: true}
	}
	if p.check(token.IDENT) && p.peekAt(1).Kind == token.COLONCOLON {
		enumName := p.advance().Literal
		p.advance() // '::'
		variant := p.expect(token.IDENT).Literal
		pat := &ast.MatchPattern{Base: ast.Base{Line: tok.Line}, EnumName: enumName, VariantName: variant}
		if p.match(token.LPAREN) {
			for !p.check(token.RPAREN) && !p.check(token.EOF) {
				pat.Bindings = append(pat.Bindings, p.expect(token.IDENT).Literal)
				if !p.match(token.COMMA) {
					break
				}
			}
			p.expect(token.RPAREN)
		}
		return pat
	}
	lit := p.parseExpression()
	return &ast.MatchPattern{Base: ast.Base{Line: tok.Line}, Literal: lit}
}

// parseInterpStringLit splits an interpolated-string literal's raw payload
// into alternating literal/expression parts, parsing each `{...}`
// placeholder as a full expression (spec.md §3: interpolated strings arrive
// at the AST "already split into alternating literal/expression parts").
func parseInterpStringLit(line int, raw string) *ast.InterpStringExpr {
	e := &ast.InterpStringExpr{Base: ast.Base{Line: line}}
	var lit strings.Builder
	i := 0
	for i < len(raw) {
		if raw[i] == '{' {
			if lit.Len() > 0 {
				e.Parts = append(e.Parts, ast.InterpStringPart{Literal: lit.String()})
				lit.Reset()
			}
			depth := 1
			j := i + 1
			for j < len(raw) && depth > 0 {
				if raw[j] == '{' {
					depth++
				} else if raw[j] == '}' {
					depth--
					if depth == 0 {
						break
					}
				}
				j++
			}
			inner := raw[i+1 : j]
			sub := New(inner + ";")
			expr := sub.parseExprOnly()
			e.Parts = append(e.Parts, ast.InterpStringPart{Expr: expr})
			i = j + 1
			continue
		}
		lit.WriteByte(raw[i])
		i++
	}
	if lit.Len() > 0 {
		e.Parts = append(e.Parts, ast.InterpStringPart{Literal: lit.String()})
	}
	return e
}

// parseExprOnly parses a single expression from a fresh Parser instance,
// used to re-parse an interpolated-string placeholder's inner text.
func (p *Parser) parseExprOnly() ast.Expression {
	return p.parseExpression()
}
