package ast

import "github.com/mna/vitte/lang/token"

// BinOp identifies a binary operator.
type BinOp int

const (
	BinOr BinOp = iota
	BinAnd
	BinEq
	BinNotEq
	BinLess
	BinLessEq
	BinGreater
	BinGreaterEq
	BinAdd
	BinSub
	BinMul
	BinDiv
	BinMod
)

// UnOp identifies a unary operator.
type UnOp int

const (
	UnNeg UnOp = iota
	UnNot
)

type (
	// LitKind identifies the kind of value a LiteralExpr holds.
	LitKind int

	// LiteralExpr is a constant literal: null, a bool, an int, a float, or a
	// string.
	LiteralExpr struct {
		Kind  LitKind
		Bool  bool
		Int   int64
		Float float64
		Str   string
		Start token.Pos
		End   token.Pos
	}

	// IdentExpr references a local, a constant, or a function by name.
	IdentExpr struct {
		Name  string
		Start token.Pos
	}

	// UnaryExpr applies a unary operator to an operand.
	UnaryExpr struct {
		Op      UnOp
		X       Expr
		OpStart token.Pos
	}

	// BinaryExpr applies a binary operator between two operands.
	BinaryExpr struct {
		Op BinOp
		X  Expr
		Y  Expr
	}

	// CallExpr calls a function or an expression that evaluates to one.
	CallExpr struct {
		Fn    Expr
		Args  []Expr
		Start token.Pos
		End   token.Pos
	}

	// FieldExpr accesses a struct field, e.g. "p.x".
	FieldExpr struct {
		X     Expr
		Name  string
		End   token.Pos
	}

	// IndexExpr accesses an array element, e.g. "a[i]".
	IndexExpr struct {
		X     Expr
		Index Expr
		End   token.Pos
	}

	// ArrayExpr constructs an array literal, e.g. "[1, 2, 3]".
	ArrayExpr struct {
		Elems []Expr
		Start token.Pos
		End   token.Pos
	}
)

const (
	LitNull LitKind = iota
	LitBool
	LitInt
	LitFloat
	LitStr
)

func (n *LiteralExpr) expr() {}
func (n *IdentExpr) expr()   {}
func (n *UnaryExpr) expr()   {}
func (n *BinaryExpr) expr()  {}
func (n *CallExpr) expr()    {}
func (n *FieldExpr) expr()   {}
func (n *IndexExpr) expr()   {}
func (n *ArrayExpr) expr()   {}

func (n *LiteralExpr) Span() (start, end token.Pos) { return n.Start, n.End }
func (n *LiteralExpr) Walk(_ Visitor)               {}

func (n *IdentExpr) Span() (start, end token.Pos) {
	return n.Start, n.Start + token.Pos(len(n.Name))
}
func (n *IdentExpr) Walk(_ Visitor) {}

func (n *UnaryExpr) Span() (start, end token.Pos) {
	_, e := n.X.Span()
	return n.OpStart, e
}
func (n *UnaryExpr) Walk(v Visitor) { Walk(v, n.X) }

func (n *BinaryExpr) Span() (start, end token.Pos) {
	s, _ := n.X.Span()
	_, e := n.Y.Span()
	return s, e
}
func (n *BinaryExpr) Walk(v Visitor) {
	Walk(v, n.X)
	Walk(v, n.Y)
}

func (n *CallExpr) Span() (start, end token.Pos) {
	s, _ := n.Fn.Span()
	return s, n.End
}
func (n *CallExpr) Walk(v Visitor) {
	Walk(v, n.Fn)
	for _, a := range n.Args {
		Walk(v, a)
	}
}

func (n *FieldExpr) Span() (start, end token.Pos) {
	s, _ := n.X.Span()
	return s, n.End
}
func (n *FieldExpr) Walk(v Visitor) { Walk(v, n.X) }

func (n *IndexExpr) Span() (start, end token.Pos) {
	s, _ := n.X.Span()
	return s, n.End
}
func (n *IndexExpr) Walk(v Visitor) {
	Walk(v, n.X)
	Walk(v, n.Index)
}

func (n *ArrayExpr) Span() (start, end token.Pos) { return n.Start, n.End }
func (n *ArrayExpr) Walk(v Visitor) {
	for _, e := range n.Elems {
		Walk(v, e)
	}
}
