package compiler

import (
	"github.com/mna/vitte/lang/ast"
	"github.com/mna/vitte/lang/bytecode"
	"github.com/mna/vitte/lang/token"
)

// emit produces a Chunk from prog in a single pass over its items. It never
// fails on an unsupported expression shape: it emits Nop and records no
// diagnostic, so every input that passed the earlier passes yields an
// encodable chunk.
func emit(prog *ast.Program, cc *Context) *bytecode.Chunk {
	c := bytecode.NewChunk(cc.Options.VitbcVersion)

	if prog.Name != "" {
		c.Debug.HasMainFile = true
		c.Debug.MainFile = prog.Name
		c.Debug.Files = append(c.Debug.Files, prog.Name)
	}

	for _, item := range prog.Items {
		fn, ok := item.(*ast.FuncItem)
		if !ok {
			continue
		}
		startPC := len(c.Ops)
		if cc.Options.EmbedNames {
			c.Debug.Symbols = append(c.Debug.Symbols, bytecode.Symbol{Name: fn.Name, PC: uint32(startPC)})
		}
		if fn.Body != nil {
			// only expression statements produce code; every other statement
			// kind is left for a fuller backend.
			for _, s := range fn.Body.Stmts {
				if st, ok := s.(*ast.ExprStmt); ok {
					emitExpr(st.Expr, c)
				}
			}
		}
		c.Emit(bytecode.Return(), lineOf(fn.Start))
	}

	return c
}

func lineOf(p token.Pos) uint32 {
	line, _ := p.LineCol()
	return uint32(line)
}

func emitExpr(e ast.Expr, c *bytecode.Chunk) {
	start, _ := e.Span()
	line := lineOf(start)

	switch ex := e.(type) {
	case *ast.LiteralExpr:
		switch ex.Kind {
		case ast.LitInt:
			ix := c.Consts.Add(bytecode.NewI64Const(ex.Int))
			c.Emit(bytecode.LoadConst(ix), line)
		case ast.LitBool:
			var v int64
			if ex.Bool {
				v = 1
			}
			ix := c.Consts.Add(bytecode.NewI64Const(v))
			c.Emit(bytecode.LoadConst(ix), line)
		case ast.LitFloat:
			c.Consts.Add(bytecode.NewF64Const(ex.Float))
			c.Emit(bytecode.Nop(), line)
		case ast.LitStr:
			c.Consts.Add(bytecode.NewStrConst(ex.Str))
			c.Emit(bytecode.Nop(), line)
		default: // LitNull
			c.Emit(bytecode.Nop(), line)
		}

	case *ast.CallExpr:
		for _, a := range ex.Args {
			emitExpr(a, c)
		}
		c.Emit(bytecode.Call(0), line)

	case *ast.BinaryExpr:
		emitExpr(ex.X, c)
		emitExpr(ex.Y, c)
		if ex.Op == ast.BinAdd {
			c.Emit(bytecode.AddI64(), line)
		} else {
			c.Emit(bytecode.Nop(), line)
		}

	default: // Ident, Unary, Field, Index, Array
		c.Emit(bytecode.Nop(), line)
	}
}
