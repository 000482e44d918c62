package ast

import "github.com/mna/vitte/lang/token"

type (
	// NamedType is a reference to a builtin or user-defined type by name, e.g.
	// "int", "str", "Point".
	NamedType struct {
		Name  string
		Start token.Pos
	}

	// ArrayType is a homogeneous array type, e.g. "[]int".
	ArrayType struct {
		Elem  Type
		Start token.Pos
	}

	// MapType is a map type, e.g. "map[str]int".
	MapType struct {
		Key   Type
		Value Type
		Start token.Pos
	}
)

func (n *NamedType) typ() {}
func (n *ArrayType) typ() {}
func (n *MapType) typ()   {}

func (n *NamedType) Span() (start, end token.Pos) {
	return n.Start, n.Start + token.Pos(len(n.Name))
}
func (n *NamedType) Walk(_ Visitor) {}

func (n *ArrayType) Span() (start, end token.Pos) {
	_, e := n.Elem.Span()
	return n.Start, e
}
func (n *ArrayType) Walk(v Visitor) { Walk(v, n.Elem) }

func (n *MapType) Span() (start, end token.Pos) {
	_, e := n.Value.Span()
	return n.Start, e
}
func (n *MapType) Walk(v Visitor) {
	Walk(v, n.Key)
	Walk(v, n.Value)
}
