package ast

import "github.com/mna/vitte/lang/token"

type (
	// FuncItem is a top-level function declaration.
	FuncItem struct {
		Name    string
		Params  []*Param
		Ret     Type // nil for no declared return type
		Body    *Block
		Public  bool
		Start   token.Pos
		NameEnd token.Pos
	}

	// ConstItem is a top-level constant declaration.
	ConstItem struct {
		Name   string
		Type   Type // nil if inferred
		Value  Expr
		Public bool
		Start  token.Pos
	}

	// StructItem is a top-level struct declaration.
	StructItem struct {
		Name   string
		Fields []*Field
		Public bool
		Start  token.Pos
	}

	// EnumItem is a top-level enum declaration; variants carry int discriminants.
	EnumItem struct {
		Name     string
		Variants []*EnumVariant
		Public   bool
		Start    token.Pos
	}
)

func (n *FuncItem) item()   {}
func (n *ConstItem) item()  {}
func (n *StructItem) item() {}
func (n *EnumItem) item()   {}

func (n *FuncItem) Span() (start, end token.Pos) {
	if n.Body != nil {
		_, e := n.Body.Span()
		return n.Start, e
	}
	return n.Start, n.NameEnd
}
func (n *FuncItem) Walk(v Visitor) {
	for _, p := range n.Params {
		Walk(v, p)
	}
	if n.Ret != nil {
		Walk(v, n.Ret)
	}
	if n.Body != nil {
		Walk(v, n.Body)
	}
}

func (n *ConstItem) Span() (start, end token.Pos) {
	if n.Value != nil {
		_, e := n.Value.Span()
		return n.Start, e
	}
	return n.Start, n.Start
}
func (n *ConstItem) Walk(v Visitor) {
	if n.Type != nil {
		Walk(v, n.Type)
	}
	if n.Value != nil {
		Walk(v, n.Value)
	}
}

func (n *StructItem) Span() (start, end token.Pos) { return n.Start, n.Start }
func (n *StructItem) Walk(v Visitor) {
	for _, f := range n.Fields {
		Walk(v, f)
	}
}

func (n *EnumItem) Span() (start, end token.Pos) { return n.Start, n.Start }
func (n *EnumItem) Walk(v Visitor) {
	for _, variant := range n.Variants {
		Walk(v, variant)
	}
}
