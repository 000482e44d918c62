// Package ast defines the types that represent the abstract syntax tree
// consumed by the compiler backend. The lexer and parser that produce this
// tree are external collaborators; this package is only the data contract
// between them and package compiler.
package ast

import "github.com/mna/vitte/lang/token"

// Node represents any node in the tree.
type Node interface {
	// Span reports the start and end position of the node.
	Span() (start, end token.Pos)

	// Walk enters each child node to implement the Visitor pattern.
	Walk(v Visitor)
}

// Item represents a top-level declaration.
type Item interface {
	Node
	item()
}

// Stmt represents a statement inside a function body.
type Stmt interface {
	Node

	// BlockEnding reports whether the statement may only appear as the last
	// statement of a block (return, break, continue).
	BlockEnding() bool
}

// Expr represents an expression.
type Expr interface {
	Node
	expr()
}

// Type represents a type reference, e.g. "int", "[]byte", "map[str]point".
type Type interface {
	Node
	typ()
}

type (
	// Program is the root of the tree for a single compilation unit.
	Program struct {
		Name  string // source file name, may be empty
		Items []Item
		EOF   token.Pos
	}

	// Param is a function parameter (name and declared type).
	Param struct {
		Name  string
		Type  Type
		Start token.Pos
	}

	// Field is a struct field (name and declared type).
	Field struct {
		Name  string
		Type  Type
		Start token.Pos
	}

	// EnumVariant is one case of an Enum item, with an optional explicit
	// discriminant expression.
	EnumVariant struct {
		Name  string
		Value Expr // nil if implicit (previous + 1, or 0 for the first)
		Start token.Pos
	}
)

func (n *Program) Span() (start, end token.Pos) {
	if len(n.Items) == 0 {
		return n.EOF, n.EOF
	}
	s, _ := n.Items[0].Span()
	return s, n.EOF
}
func (n *Program) Walk(v Visitor) {
	for _, it := range n.Items {
		Walk(v, it)
	}
}

func (n *Param) Span() (start, end token.Pos) { return n.Start, n.Start }
func (n *Param) Walk(v Visitor) {
	if n.Type != nil {
		Walk(v, n.Type)
	}
}

func (n *Field) Span() (start, end token.Pos) { return n.Start, n.Start }
func (n *Field) Walk(v Visitor) {
	if n.Type != nil {
		Walk(v, n.Type)
	}
}

func (n *EnumVariant) Span() (start, end token.Pos) { return n.Start, n.Start }
func (n *EnumVariant) Walk(v Visitor) {
	if n.Value != nil {
		Walk(v, n.Value)
	}
}
