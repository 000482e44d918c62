package compiler

import (
	"fmt"

	"github.com/mna/vitte/lang/ast"
	"github.com/mna/vitte/lang/diag"
)

// typeCheck opens a scope per function, declares its parameters, and walks
// its body assigning a Type to every statement and expression per the rules
// in the component design. It never aborts early; unresolved identifiers
// and similar problems record a diagnostic and continue with a placeholder
// type so downstream statements still get typed.
func typeCheck(prog *ast.Program, cc *Context) {
	for _, item := range prog.Items {
		fn, ok := item.(*ast.FuncItem)
		if !ok {
			continue
		}
		cc.Symbols.push()
		for _, p := range fn.Params {
			pt := TypeVoid
			if p.Type != nil {
				pt = typeFromAST(p.Type)
			}
			cc.Symbols.declare(p.Name, &Entry{Kind: EntryParam, Type: pt})
		}
		if fn.Body != nil {
			typeStmts(fn.Body.Stmts, cc)
		}
		cc.Symbols.pop()
	}
}

func typeStmts(stmts []ast.Stmt, cc *Context) {
	for _, s := range stmts {
		typeStmt(s, cc)
	}
}

func typeStmt(s ast.Stmt, cc *Context) {
	switch st := s.(type) {
	case *ast.LetStmt:
		var ty Type
		switch {
		case st.Type != nil:
			ty = typeFromAST(st.Type)
		case st.Value != nil:
			ty = typeExpr(st.Value, cc)
		default:
			ty = TypeInt
		}
		cc.Symbols.declare(st.Name, &Entry{Kind: EntryLocal, Type: ty})

	case *ast.AssignStmt:
		typeExpr(st.Left, cc)
		typeExpr(st.Right, cc)

	case *ast.ExprStmt:
		typeExpr(st.Expr, cc)

	case *ast.ReturnStmt:
		if st.Value != nil {
			typeExpr(st.Value, cc)
		}

	case *ast.IfStmt:
		typeExpr(st.Cond, cc)
		cc.Symbols.push()
		typeStmts(st.Then.Stmts, cc)
		cc.Symbols.pop()
		if st.Else != nil {
			cc.Symbols.push()
			typeStmt(st.Else, cc)
			cc.Symbols.pop()
		}

	case *ast.WhileStmt:
		typeExpr(st.Cond, cc)
		cc.Symbols.push()
		typeStmts(st.Body.Stmts, cc)
		cc.Symbols.pop()

	case *ast.ForStmt:
		typeExpr(st.Low, cc)
		typeExpr(st.High, cc)
		cc.Symbols.push()
		cc.Symbols.declare(st.Var, &Entry{Kind: EntryLocal, Type: TypeInt})
		typeStmts(st.Body.Stmts, cc)
		cc.Symbols.pop()

	case *ast.BreakStmt, *ast.ContinueStmt:
		// no typing needed

	case *ast.Block:
		cc.Symbols.push()
		typeStmts(st.Stmts, cc)
		cc.Symbols.pop()
	}
}

func isArith(op ast.BinOp) bool {
	switch op {
	case ast.BinAdd, ast.BinSub, ast.BinMul, ast.BinDiv, ast.BinMod:
		return true
	default:
		return false
	}
}

func isComparison(op ast.BinOp) bool {
	switch op {
	case ast.BinEq, ast.BinNotEq, ast.BinLess, ast.BinLessEq, ast.BinGreater, ast.BinGreaterEq:
		return true
	default:
		return false
	}
}

func typeExpr(e ast.Expr, cc *Context) Type {
	switch ex := e.(type) {
	case *ast.LiteralExpr:
		switch ex.Kind {
		case ast.LitInt:
			return TypeInt
		case ast.LitFloat:
			return TypeFloat
		case ast.LitBool:
			return TypeBool
		case ast.LitStr:
			return TypeStr
		default:
			return TypeVoid
		}

	case *ast.IdentExpr:
		if entry, ok := cc.Symbols.lookup(ex.Name); ok {
			return entry.Type
		}
		cc.Diagnostics.Add(diag.Error, fmt.Sprintf("unbound identifier %q", ex.Name))
		return TypeInt

	case *ast.CallExpr:
		for _, a := range ex.Args {
			typeExpr(a, cc)
		}
		return TypeInt

	case *ast.BinaryExpr:
		lt := typeExpr(ex.X, cc)
		rt := typeExpr(ex.Y, cc)
		switch {
		case isArith(ex.Op):
			if !lt.Equal(rt) {
				cc.Diagnostics.Add(diag.Error, fmt.Sprintf("type mismatch: %s vs %s", lt, rt))
			}
			return lt
		case isComparison(ex.Op), ex.Op == ast.BinAnd, ex.Op == ast.BinOr:
			return TypeBool
		default:
			return lt
		}

	case *ast.UnaryExpr:
		xt := typeExpr(ex.X, cc)
		if ex.Op == ast.UnNot {
			return TypeBool
		}
		return xt

	case *ast.FieldExpr:
		typeExpr(ex.X, cc)
		return TypeInt

	case *ast.IndexExpr:
		typeExpr(ex.X, cc)
		typeExpr(ex.Index, cc)
		return TypeInt

	case *ast.ArrayExpr:
		for _, el := range ex.Elems {
			typeExpr(el, cc)
		}
		return TypeInt

	default:
		return TypeVoid
	}
}
