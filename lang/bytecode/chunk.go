package bytecode

import "github.com/mna/vitte/lang/diag"

// Symbol is a (name, pc) pair recorded in DebugInfo.
type Symbol struct {
	Name string
	PC   uint32
}

// DebugInfo is the optional debug payload of a Chunk. It is empty when the
// chunk's Stripped flag is set.
type DebugInfo struct {
	HasMainFile bool
	MainFile    string
	Files       []string
	Symbols     []Symbol
}

// Chunk is the container aggregate: version, flags, constant pool, ops,
// line table, and debug payload.
type Chunk struct {
	Version  uint16
	Stripped bool
	Consts   *ConstPool
	Ops      []Op
	Lines    *LineTable
	Debug    DebugInfo
}

// NewChunk returns an empty, unstripped chunk at the given version.
func NewChunk(version uint16) *Chunk {
	return &Chunk{
		Version: version,
		Consts:  NewConstPool(),
		Lines:   NewLineTable(),
	}
}

// Emit appends op at the given source line and returns its pc.
func (c *Chunk) Emit(op Op, line uint32) int {
	pc := len(c.Ops)
	c.Ops = append(c.Ops, op)
	c.Lines.Push(line)
	return pc
}

// Validate checks the structural invariants the format requires: ops/lines
// length parity, every LoadConst index in range, and (when not stripped)
// every debug symbol pc at most len(ops). Call operands are not checked.
func (c *Chunk) Validate() error {
	if len(c.Ops) != c.Lines.Len() {
		return &diag.FormatError{Reason: "line/op length mismatch"}
	}
	for _, op := range c.Ops {
		if op.Tag == OpLoadConst {
			if _, ok := c.Consts.Get(op.Arg); !ok {
				return &diag.FormatError{Reason: "load_const index out of range"}
			}
		}
	}
	if !c.Stripped {
		for _, sym := range c.Debug.Symbols {
			if sym.PC > uint32(len(c.Ops)) {
				return &diag.FormatError{Reason: "symbol pc out of range"}
			}
		}
	}
	return nil
}
