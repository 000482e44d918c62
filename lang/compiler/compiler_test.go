package compiler

import (
	"context"
	"testing"

	"github.com/mna/vitte/lang/ast"
	"github.com/mna/vitte/lang/bytecode"
	"github.com/mna/vitte/lang/token"
	"github.com/stretchr/testify/require"
)

func pos(line, col int) token.Pos { return token.MakePos(line, col) }

func TestCompileSimpleFunction(t *testing.T) {
	// fn main() { 1 + 2; return; }
	body := &ast.Block{
		Start: pos(2, 1),
		End:   pos(2, 20),
		Stmts: []ast.Stmt{
			&ast.ExprStmt{Expr: &ast.BinaryExpr{
				Op: ast.BinAdd,
				X:  &ast.LiteralExpr{Kind: ast.LitInt, Int: 1, Start: pos(2, 3), End: pos(2, 4)},
				Y:  &ast.LiteralExpr{Kind: ast.LitInt, Int: 2, Start: pos(2, 7), End: pos(2, 8)},
			}},
		},
	}
	fn := &ast.FuncItem{Name: "main", Body: body, Start: pos(1, 1)}
	prog := &ast.Program{Name: "m.vit", Items: []ast.Item{fn}, EOF: pos(3, 1)}

	chunk, diags, err := CompileProgram(context.Background(), prog, Options{EmbedNames: true})
	require.NoError(t, err)
	require.Empty(t, diags.Diags)
	require.True(t, chunk.Debug.HasMainFile)
	require.Equal(t, "m.vit", chunk.Debug.MainFile)
	require.Len(t, chunk.Debug.Symbols, 1)
	require.Equal(t, "main", chunk.Debug.Symbols[0].Name)

	// two LoadConst (1, 2), one AddI64, one Return.
	require.Len(t, chunk.Ops, 4)
	require.Equal(t, bytecode.OpLoadConst, chunk.Ops[0].Tag)
	require.Equal(t, bytecode.OpLoadConst, chunk.Ops[1].Tag)
	require.Equal(t, bytecode.OpAddI64, chunk.Ops[2].Tag)
	require.Equal(t, bytecode.OpReturn, chunk.Ops[3].Tag)
	require.NoError(t, chunk.Validate())
}

func TestEmitOnlyExpressionStatements(t *testing.T) {
	// fn f() { let x = 1; if true { 2; } return 9; 3; }
	body := &ast.Block{Stmts: []ast.Stmt{
		&ast.LetStmt{Name: "x", Value: &ast.LiteralExpr{Kind: ast.LitInt, Int: 1}, Start: pos(2, 1)},
		&ast.IfStmt{
			Cond:  &ast.LiteralExpr{Kind: ast.LitBool, Bool: true, Start: pos(3, 4)},
			Then:  &ast.Block{Stmts: []ast.Stmt{&ast.ExprStmt{Expr: &ast.LiteralExpr{Kind: ast.LitInt, Int: 2, Start: pos(3, 10)}}}},
			Start: pos(3, 1),
		},
		&ast.ReturnStmt{Value: &ast.LiteralExpr{Kind: ast.LitInt, Int: 9, Start: pos(4, 8)}, Start: pos(4, 1)},
		&ast.ExprStmt{Expr: &ast.LiteralExpr{Kind: ast.LitInt, Int: 3, Start: pos(5, 1)}},
	}}
	fn := &ast.FuncItem{Name: "f", Body: body, Start: pos(1, 1)}
	prog := &ast.Program{Items: []ast.Item{fn}}

	chunk, _, err := CompileProgram(context.Background(), prog, Options{})
	require.NoError(t, err)

	// only the top-level expression statement emits code: LoadConst(3),
	// then the function's terminating Return. Let, If (including its
	// nested expression statement), and Return contribute nothing.
	require.Len(t, chunk.Ops, 2)
	require.Equal(t, bytecode.OpLoadConst, chunk.Ops[0].Tag)
	require.Equal(t, bytecode.OpReturn, chunk.Ops[1].Tag)
	require.Equal(t, 1, chunk.Consts.Len())
	cv, ok := chunk.Consts.Get(chunk.Ops[0].Arg)
	require.True(t, ok)
	require.Equal(t, bytecode.NewI64Const(3), cv)
}

func TestCompileUnboundIdentifierIsError(t *testing.T) {
	fn := &ast.FuncItem{
		Name: "f",
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.ExprStmt{Expr: &ast.IdentExpr{Name: "nope", Start: pos(1, 1)}},
		}},
		Start: pos(1, 1),
	}
	prog := &ast.Program{Items: []ast.Item{fn}}

	chunk, diags, err := CompileProgram(context.Background(), prog, Options{})
	require.Error(t, err)
	require.Nil(t, chunk)
	require.NotEmpty(t, diags.Diags)
	require.True(t, diags.HasErrors(false))
}

func TestDuplicateDeclarationIsWarningUnlessDenyWarnings(t *testing.T) {
	c1 := &ast.ConstItem{Name: "X", Value: &ast.LiteralExpr{Kind: ast.LitInt, Int: 1}, Start: pos(1, 1)}
	c2 := &ast.ConstItem{Name: "X", Value: &ast.LiteralExpr{Kind: ast.LitInt, Int: 2}, Start: pos(2, 1)}
	prog := &ast.Program{Items: []ast.Item{c1, c2}}

	_, diags, err := CompileProgram(context.Background(), prog, Options{})
	require.NoError(t, err)
	require.Len(t, diags.Diags, 1)

	_, diags, err = CompileProgram(context.Background(), prog, Options{DenyWarnings: true})
	require.Error(t, err)
	require.Len(t, diags.Diags, 1)
}

func TestTypeMismatchInArithmeticIsError(t *testing.T) {
	fn := &ast.FuncItem{
		Name: "f",
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.ExprStmt{Expr: &ast.BinaryExpr{
				Op: ast.BinAdd,
				X:  &ast.LiteralExpr{Kind: ast.LitInt, Int: 1},
				Y:  &ast.LiteralExpr{Kind: ast.LitStr, Str: "x"},
			}},
		}},
		Start: pos(1, 1),
	}
	prog := &ast.Program{Items: []ast.Item{fn}}

	_, diags, err := CompileProgram(context.Background(), prog, Options{})
	require.Error(t, err)
	require.NotEmpty(t, diags.Diags)
}
