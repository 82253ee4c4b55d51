package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nimlang/nimc/internal/ast"
)

func TestParse_FunctionWithVarAndReturn(t *testing.T) {
	src := `fn add(a: i32, b: i32): i32 {
		let total: i32 = a + b;
		return total;
	}`
	p := New(src)
	prog := p.Parse()
	require.Empty(t, p.Diagnostics().Errors())
	require.Len(t, prog.Functions, 1)

	fn := prog.Functions[0]
	require.Equal(t, "add", fn.Name)
	require.Len(t, fn.Params, 2)
	require.Equal(t, "i32", fn.ReturnType.Name)
	require.Len(t, fn.Body.Statements, 2)

	decl, ok := fn.Body.Statements[0].(*ast.VarDecl)
	require.True(t, ok)
	require.True(t, decl.IsLet)
	require.False(t, decl.IsMutable)

	ret, ok := fn.Body.Statements[1].(*ast.ReturnStmt)
	require.True(t, ok)
	require.NotNil(t, ret.Value)
}

func TestParse_BinaryPrecedence(t *testing.T) {
	p := New(`fn f() { return 1 + 2 * 3; }`)
	prog := p.Parse()
	require.Empty(t, p.Diagnostics().Errors())

	ret := prog.Functions[0].Body.Statements[0].(*ast.ReturnStmt)
	bin := ret.Value.(*ast.BinaryExpr)
	// `+` should bind loosest: 1 + (2 * 3)
	require.Equal(t, "1", bin.Left.(*ast.IntLit).Value)
	mul := bin.Right.(*ast.BinaryExpr)
	require.Equal(t, "2", mul.Left.(*ast.IntLit).Value)
	require.Equal(t, "3", mul.Right.(*ast.IntLit).Value)
}

func TestParse_AssignmentStatement(t *testing.T) {
	p := New(`fn f() { var x: i32 = 0; x += 1; }`)
	prog := p.Parse()
	require.Empty(t, p.Diagnostics().Errors())
	assign := prog.Functions[0].Body.Statements[1].(*ast.AssignStmt)
	require.IsType(t, &ast.Identifier{}, assign.Target)
}

func TestParse_IfElseifElse(t *testing.T) {
	p := New(`fn f() {
		if (a) { return 1; }
		elseif (b) { return 2; }
		else { return 3; }
	}`)
	prog := p.Parse()
	require.Empty(t, p.Diagnostics().Errors())
	ifStmt := prog.Functions[0].Body.Statements[0].(*ast.IfStmt)
	elseif, ok := ifStmt.Else.(*ast.IfStmt)
	require.True(t, ok)
	_, ok = elseif.Else.(*ast.BlockStmt)
	require.True(t, ok)
}

func TestParse_ForInAndCStyle(t *testing.T) {
	p := New(`fn f() {
		for (x in items) { echo(x); }
		for (var i: i32 = 0; i < 10; i += 1) { echo(i); }
	}`)
	prog := p.Parse()
	require.Empty(t, p.Diagnostics().Errors())
	_, ok := prog.Functions[0].Body.Statements[0].(*ast.ForInStmt)
	require.True(t, ok)
	_, ok = prog.Functions[0].Body.Statements[1].(*ast.ForCStmt)
	require.True(t, ok)
}

func TestParse_TryAndTernaryDisambiguation(t *testing.T) {
	p := New(`fn f() {
		let a: i32 = compute()?;
		let b: i32 = (x > y) ? 1 : 0;
	}`)
	prog := p.Parse()
	require.Empty(t, p.Diagnostics().Errors())

	a := prog.Functions[0].Body.Statements[0].(*ast.VarDecl)
	_, ok := a.Value.(*ast.TryExpr)
	require.True(t, ok)

	b := prog.Functions[0].Body.Statements[1].(*ast.VarDecl)
	_, ok = b.Value.(*ast.TernaryExpr)
	require.True(t, ok)
}

func TestParse_CallWithNamedAndPositionalArgs(t *testing.T) {
	p := New(`fn f() { make(1, name: "x", size: 3); }`)
	prog := p.Parse()
	require.Empty(t, p.Diagnostics().Errors())
	stmt := prog.Functions[0].Body.Statements[0].(*ast.ExprStmt)
	call := stmt.Expr.(*ast.CallExpr)
	require.Len(t, call.Args, 3)
	require.Equal(t, "", call.Args[0].Name)
	require.Equal(t, "name", call.Args[1].Name)
	require.Equal(t, "size", call.Args[2].Name)
}

func TestParse_StructAndEnum(t *testing.T) {
	p := New(`
		struct Point { x: i32, y: i32 }
		enum Color { Red = 1, Green, Blue }
	`)
	prog := p.Parse()
	require.Empty(t, p.Diagnostics().Errors())
	require.Len(t, prog.Structs, 1)
	require.Len(t, prog.Structs[0].Fields, 2)
	require.Len(t, prog.Enums, 1)
	require.Len(t, prog.Enums[0].Variants, 3)
	require.NotNil(t, prog.Enums[0].Variants[0].Initializer)
	require.Nil(t, prog.Enums[0].Variants[1].Initializer)
}

func TestParse_EnumAccessAndStructLiteral(t *testing.T) {
	p := New(`fn f() {
		let c: Color = Color::Red;
		let pt: Point = Point { x: 1, y: 2 };
	}`)
	prog := p.Parse()
	require.Empty(t, p.Diagnostics().Errors())
	c := prog.Functions[0].Body.Statements[0].(*ast.VarDecl)
	enumAccess := c.Value.(*ast.EnumAccessExpr)
	require.Equal(t, "Color", enumAccess.EnumName)
	require.Equal(t, "Red", enumAccess.Variant)

	pt := prog.Functions[0].Body.Statements[1].(*ast.VarDecl)
	lit := pt.Value.(*ast.StructLit)
	require.Equal(t, "Point", lit.Name)
	require.Len(t, lit.Fields, 2)
}

func TestParse_MatchExpression(t *testing.T) {
	p := New(`fn f() {
		let r: i32 = match (c) {
			Color::Red => 1,
			Color::Blue => 2,
			def => 0,
		};
	}`)
	prog := p.Parse()
	require.Empty(t, p.Diagnostics().Errors())
	decl := prog.Functions[0].Body.Statements[0].(*ast.VarDecl)
	m := decl.Value.(*ast.MatchExpr)
	require.Len(t, m.Arms, 3)
	require.True(t, m.Arms[2].Pattern.IsDefault)
}

func TestParse_LambdaExpr(t *testing.T) {
	p := New(`fn f() { let add: fn(i32, i32): i32 = fn(a: i32, b: i32): i32 -> a + b; }`)
	prog := p.Parse()
	require.Empty(t, p.Diagnostics().Errors())
	decl := prog.Functions[0].Body.Statements[0].(*ast.VarDecl)
	lambda := decl.Value.(*ast.LambdaExpr)
	require.Len(t, lambda.Params, 2)
}

func TestParse_InterpolatedString(t *testing.T) {
	p := New(`fn f() { echo("hello {name}, you are {age} years old"); }`)
	prog := p.Parse()
	require.Empty(t, p.Diagnostics().Errors())
	echo := prog.Functions[0].Body.Statements[0].(*ast.EchoStmt)
	interp := echo.Args[0].(*ast.InterpStringExpr)
	require.True(t, len(interp.Parts) >= 3)
}

func TestParse_ChannelSendAndReceiveAndAwait(t *testing.T) {
	p := New(`fn f() {
		ch <- 5;
		let v: i32 = <- ch;
		let w: i32 = await fut;
	}`)
	prog := p.Parse()
	require.Empty(t, p.Diagnostics().Errors())
	_, ok := prog.Functions[0].Body.Statements[0].(*ast.ExprStmt).Expr.(*ast.ChannelSendExpr)
	require.True(t, ok)
	decl := prog.Functions[0].Body.Statements[1].(*ast.VarDecl)
	_, ok = decl.Value.(*ast.ChannelRecvExpr)
	require.True(t, ok)
	decl2 := prog.Functions[0].Body.Statements[2].(*ast.VarDecl)
	_, ok = decl2.Value.(*ast.AwaitExpr)
	require.True(t, ok)
}

func TestParse_UnsafeFastexecAsm(t *testing.T) {
	p := New(`fn f() {
		unsafe { let x: i32 = 1; }
		fastexec { asm:x64 { nop } }
	}`)
	prog := p.Parse()
	require.Empty(t, p.Diagnostics().Errors())
	_, ok := prog.Functions[0].Body.Statements[0].(*ast.UnsafeStmt)
	require.True(t, ok)
	fx := prog.Functions[0].Body.Statements[1].(*ast.FastexecStmt)
	asmStmt := fx.Body.Statements[0].(*ast.AsmStmt)
	require.Equal(t, "x64", asmStmt.Tag)
}

func TestParse_UseDeclForms(t *testing.T) {
	p := New(`
		use std::io;
		use std::collections::*;
		use std::fmt::{Display as Disp, Debug};
		export use utils as u;
	`)
	prog := p.Parse()
	require.Empty(t, p.Diagnostics().Errors())
	require.Len(t, prog.Uses, 4)
	require.True(t, prog.Uses[0].Spec.All)
	require.True(t, prog.Uses[1].Spec.Wildcard)
	require.Len(t, prog.Uses[2].Spec.Specific, 2)
	require.Equal(t, "Disp", prog.Uses[2].Spec.Specific[0].Rename)
	require.True(t, prog.Uses[3].ReExport)
	require.Equal(t, "u", prog.Uses[3].Spec.Alias)
}

func TestParse_GroupAsStructMethods(t *testing.T) {
	p := New(`
		struct Counter { value: i32 }
		group Counter {
			increment => fn(self: Counter): i32 -> { return self.value + 1; }
		}
	`)
	prog := p.Parse()
	require.Empty(t, p.Diagnostics().Errors())
	require.Len(t, prog.Groups, 1)
	require.Len(t, prog.Groups[0].Functions, 1)
	require.Equal(t, "increment", prog.Groups[0].Functions[0].Name)
	require.True(t, prog.Groups[0].Functions[0].Params[0].IsSelf)
}

func TestParse_ForwardProgressOnMalformedTopLevel(t *testing.T) {
	p := New(`@@@ fn f() { return 1; }`)
	prog := p.Parse()
	require.NotEmpty(t, p.Diagnostics().Errors())
	require.Len(t, prog.Functions, 1)
}
