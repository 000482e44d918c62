package bytecode

// LineTable maps each program counter to a source line, one entry per op.
// len(table) == len(ops) is an invariant maintained by Chunk, not by
// LineTable itself.
type LineTable struct {
	lines []uint32
}

// NewLineTable returns an empty table.
func NewLineTable() *LineTable { return &LineTable{} }

// Push appends a line for the next pc.
func (t *LineTable) Push(line uint32) { t.lines = append(t.lines, line) }

// Len returns the number of entries.
func (t *LineTable) Len() int { return len(t.lines) }

// All returns the lines in pc order. Must not be mutated by the caller.
func (t *LineTable) All() []uint32 { return t.lines }

// LineForPC returns the line at pc in constant time, and whether pc was in
// range.
func (t *LineTable) LineForPC(pc int) (uint32, bool) {
	if pc < 0 || pc >= len(t.lines) {
		return 0, false
	}
	return t.lines[pc], true
}

// LineRange is one run of consecutive pcs sharing the same line.
type LineRange struct {
	StartPC, EndPC int // EndPC is exclusive
	Line           uint32
}

// Runs returns the run-length encoding of the table: consecutive pcs with
// the same line are merged into one LineRange. It computes a fresh slice on
// every call, so callers may iterate it repeatedly.
func (t *LineTable) Runs() []LineRange {
	var runs []LineRange
	for pc, line := range t.lines {
		if len(runs) > 0 && runs[len(runs)-1].Line == line && runs[len(runs)-1].EndPC == pc {
			runs[len(runs)-1].EndPC = pc + 1
			continue
		}
		runs = append(runs, LineRange{StartPC: pc, EndPC: pc + 1, Line: line})
	}
	return runs
}
