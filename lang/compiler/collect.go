package compiler

import (
	"fmt"

	"github.com/mna/vitte/lang/ast"
	"github.com/mna/vitte/lang/diag"
)

// collectSymbols walks top-level items and declares each in the root scope
// with a typed entry derived from its signature. No expression evaluation
// happens in this pass. Duplicate declarations at the same scope depth
// produce a Warning (or Error under DenyWarnings); the later declaration
// still shadows the earlier one, matching "declare, don't fail fast".
func collectSymbols(prog *ast.Program, cc *Context) {
	for _, item := range prog.Items {
		switch it := item.(type) {
		case *ast.FuncItem:
			ret := TypeVoid
			if it.Ret != nil {
				ret = typeFromAST(it.Ret)
			}
			declareTop(cc, it.Name, &Entry{Kind: EntryFunc, Type: ret})
		case *ast.ConstItem:
			ty := TypeInt
			if it.Type != nil {
				ty = typeFromAST(it.Type)
			}
			declareTop(cc, it.Name, &Entry{Kind: EntryConst, Type: ty})
		case *ast.StructItem:
			declareTop(cc, it.Name, &Entry{Kind: EntryStruct, Type: CustomType(it.Name)})
		case *ast.EnumItem:
			declareTop(cc, it.Name, &Entry{Kind: EntryEnum, Type: CustomType(it.Name)})
		}
	}
}

func declareTop(cc *Context, name string, e *Entry) {
	sev := diag.Warning
	if cc.Options.DenyWarnings {
		sev = diag.Error
	}
	if _, dup := cc.Symbols.declare(name, e); dup {
		cc.Diagnostics.Add(sev, fmt.Sprintf("duplicate declaration of %q", name))
	}
}
