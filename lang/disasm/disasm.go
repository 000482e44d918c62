// Package disasm renders a bytecode chunk in three modes: a compact
// one-line-per-op listing, a full listing with constants and debug payload,
// and a machine-readable JSON view. The JSON view includes the chunk hash
// computed by bytecode.Hash.
package disasm

import (
	"fmt"
	"strings"

	"github.com/mna/vitte/lang/bytecode"
	"golang.org/x/exp/slices"
)

const previewMaxLen = 64

func preview(c *bytecode.Chunk, op bytecode.Op) string {
	if op.Tag != bytecode.OpLoadConst {
		return ""
	}
	cv, ok := c.Consts.Get(op.Arg)
	if !ok {
		return "<bad const>"
	}
	s := cv.String()
	r := []rune(s)
	if len(r) > previewMaxLen {
		s = string(r[:previewMaxLen])
	}
	return s
}

// Listing renders the compact one-line-per-op view: "pc line op_name
// operand_preview".
func Listing(c *bytecode.Chunk) string {
	var b strings.Builder
	for pc, op := range c.Ops {
		line, _ := c.Lines.LineForPC(pc)
		fmt.Fprintf(&b, "%-6d %-6d %-12s", pc, line, op.Name())
		if prev := preview(c, op); prev != "" {
			fmt.Fprintf(&b, " %s", prev)
		} else if op.HasU32Arg() || op.IsRelativeJump() {
			fmt.Fprintf(&b, " %s", op.String()[len(op.Name())+1:])
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// constTypeName names a ConstValue's tag for the constants section of the
// full listing and the JSON view.
func constTypeName(tag bytecode.ConstTag) string {
	switch tag {
	case bytecode.ConstNull:
		return "null"
	case bytecode.ConstStr:
		return "str"
	case bytecode.ConstI64:
		return "i64"
	case bytecode.ConstF64:
		return "f64"
	case bytecode.ConstBool:
		return "bool"
	case bytecode.ConstBytes:
		return "bytes"
	default:
		return "unknown"
	}
}

// FullListing renders a header with title, the constants section, the
// compact op listing, and any debug payload.
func FullListing(c *bytecode.Chunk, title string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "chunk %s (version %d, stripped=%t)\n", title, c.Version, c.Stripped)

	b.WriteString("constants:\n")
	for ix, cv := range c.Consts.All() {
		fmt.Fprintf(&b, "  [%d] %s %s\n", ix, constTypeName(cv.Tag), cv.String())
	}

	b.WriteString("code:\n")
	b.WriteString(Listing(c))

	if !c.Stripped {
		b.WriteString("debug:\n")
		if c.Debug.HasMainFile {
			fmt.Fprintf(&b, "  main_file: %s\n", c.Debug.MainFile)
		}
		for _, f := range c.Debug.Files {
			fmt.Fprintf(&b, "  file: %s\n", f)
		}
		for _, s := range c.Debug.Symbols {
			fmt.Fprintf(&b, "  symbol: %s @ %d\n", s.Name, s.PC)
		}
	}
	return b.String()
}

// SortedFilesCopy returns a sorted copy of files, used by the JSON view to
// keep manifest-style output deterministic across runs; exercises
// golang.org/x/exp/slices the way the rest of the pack leans on x/exp
// utilities ahead of the stdlib slices package stabilizing.
func SortedFilesCopy(files []string) []string {
	out := slices.Clone(files)
	slices.Sort(out)
	return out
}
