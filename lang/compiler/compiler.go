// Package compiler implements the three-pass compiler backend that lowers a
// typed AST (package ast) to a bytecode chunk (package bytecode):
// CollectSymbols declares top-level items, TypeCheck assigns types and
// collects diagnostics, and Emit produces the chunk. All three share a
// *Context carrying the options, the diagnostics, and the symbol table.
package compiler

import (
	"context"

	"github.com/mna/vitte/lang/ast"
	"github.com/mna/vitte/lang/bytecode"
	"github.com/mna/vitte/lang/diag"
)

// Options controls compiler behavior across all three passes.
type Options struct {
	// DenyWarnings turns every Warning diagnostic into a compilation failure.
	DenyWarnings bool
	// VitbcVersion is stamped onto the produced chunk's Version field.
	VitbcVersion uint16
	// CompressCode is an opaque hint forwarded to the encoder; this backend
	// does not itself implement compression.
	CompressCode bool
	// EmbedNames, when set, appends each function's name to the chunk's debug
	// symbol table during Emit.
	EmbedNames bool
}

// Context is shared, mutable state threaded through all three passes.
type Context struct {
	Options     Options
	Diagnostics diag.List
	Symbols     *scopeStack
	scopeDepth  int
}

func newContext(opts Options) *Context {
	return &Context{Options: opts, Symbols: newScopeStack()}
}

// CompileProgram runs the three-pass pipeline over prog and returns the
// resulting chunk. If CollectSymbols or TypeCheck leave any Error
// diagnostic (or any Warning under DenyWarnings), compilation fails with
// the accumulated diagnostics and Emit does not run.
func CompileProgram(ctx context.Context, prog *ast.Program, opts Options) (*bytecode.Chunk, *diag.List, error) {
	cc := newContext(opts)

	collectSymbols(prog, cc)
	if ctx.Err() != nil {
		return nil, &cc.Diagnostics, ctx.Err()
	}
	typeCheck(prog, cc)

	if cc.Diagnostics.HasErrors(opts.DenyWarnings) {
		return nil, &cc.Diagnostics, &cc.Diagnostics
	}

	chunk := emit(prog, cc)
	return chunk, &cc.Diagnostics, nil
}
