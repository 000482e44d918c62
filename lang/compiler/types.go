package compiler

import (
	"fmt"

	"github.com/mna/vitte/lang/ast"
)

// Kind is the static type assigned to declarations and expressions by the
// TypeCheck pass.
type Kind uint8

const (
	KindVoid Kind = iota
	KindInt
	KindFloat
	KindBool
	KindStr
	KindCustom
)

// Type pairs a Kind with the declared name for KindCustom (struct/enum
// references); for every other Kind, Name is empty.
type Type struct {
	Kind Kind
	Name string
}

var (
	TypeVoid  = Type{Kind: KindVoid}
	TypeInt   = Type{Kind: KindInt}
	TypeFloat = Type{Kind: KindFloat}
	TypeBool  = Type{Kind: KindBool}
	TypeStr   = Type{Kind: KindStr}
)

func CustomType(name string) Type { return Type{Kind: KindCustom, Name: name} }

func (t Type) String() string {
	switch t.Kind {
	case KindVoid:
		return "void"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindStr:
		return "str"
	case KindCustom:
		return t.Name
	default:
		return fmt.Sprintf("<type %d>", t.Kind)
	}
}

func (t Type) Equal(o Type) bool { return t.Kind == o.Kind && t.Name == o.Name }

// typeFromAST resolves an ast.Type node to a Type. Builtin names map to
// their Kind; anything else (struct/enum names, array and map types) is
// represented as Custom, synthesizing a display name for array/map shapes
// since the data model in §3 only names Int/Float/Bool/Str/Void/Custom.
func typeFromAST(t ast.Type) Type {
	switch n := t.(type) {
	case *ast.NamedType:
		switch n.Name {
		case "int":
			return TypeInt
		case "float":
			return TypeFloat
		case "bool":
			return TypeBool
		case "str":
			return TypeStr
		case "void":
			return TypeVoid
		default:
			return CustomType(n.Name)
		}
	case *ast.ArrayType:
		return CustomType("[]" + typeFromAST(n.Elem).String())
	case *ast.MapType:
		return CustomType(fmt.Sprintf("map[%s]%s", typeFromAST(n.Key), typeFromAST(n.Value)))
	default:
		return TypeVoid
	}
}
