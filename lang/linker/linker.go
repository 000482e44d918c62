// Package linker merges N bytecode chunks into one: constant deduplication,
// opcode relocation, optional debug merging, optional stripping, and entry
// validation. Only LoadConst operands are rewritten during relocation; jump
// offsets are pc-relative within a chunk and instruction order is
// preserved, so they stay valid in the merged output.
package linker

import (
	"fmt"

	"github.com/dolthub/swiss"
	"github.com/mna/vitte/lang/bytecode"
	"github.com/mna/vitte/lang/diag"
)

// Input is one named chunk to link, in link order.
type Input struct {
	Name  string
	Chunk *bytecode.Chunk
}

// Options controls the linking algorithm. When Strip is true, MergeDebug is
// forced false regardless of its value.
type Options struct {
	DedupConsts bool
	Strip       bool
	MergeDebug  bool
	Entry       string // empty means "no entry validation requested"
}

// RemapEntry records one input's old_const_index -> new_const_index pair,
// and whether it was a dedup hit.
type RemapEntry struct {
	OldIndex uint32
	NewIndex uint32
	DedupHit bool
}

// InputReport summarizes one input's contribution to the link.
type InputReport struct {
	Name        string
	OpsCount    int
	ConstsCount int
	BasePC      int
	Remap       []RemapEntry
	DedupHits   int
}

// Manifest is the observable output of a link, used for diagnostics; the
// CLI's link command prints its constant totals and hash.
type Manifest struct {
	Inputs             []InputReport
	TotalConstsBefore  int
	TotalConstsAfter   int
	MergedDebugFiles   int
	MergedDebugSymbols int
	Entry              string
	Stripped           bool
	Hash               uint64
}

// Link merges inputs into a single chunk per Options, returning the merged
// chunk and a manifest describing the merge.
func Link(inputs []Input, opts Options) (*bytecode.Chunk, *Manifest, error) {
	if len(inputs) == 0 {
		return nil, nil, &diag.FormatError{Reason: "no inputs"}
	}
	if opts.Strip {
		opts.MergeDebug = false
	}

	out := bytecode.NewChunk(inputs[0].Chunk.Version)
	out.Stripped = opts.Strip

	globalConsts := swiss.NewMap[bytecode.ConstValue, uint32](16)

	manifest := &Manifest{Entry: opts.Entry, Stripped: opts.Strip}

	for _, in := range inputs {
		basePC := len(out.Ops)
		report := InputReport{
			Name:        in.Name,
			OpsCount:    len(in.Chunk.Ops),
			ConstsCount: in.Chunk.Consts.Len(),
			BasePC:      basePC,
		}
		manifest.TotalConstsBefore += in.Chunk.Consts.Len()

		localMap := make(map[uint32]uint32, in.Chunk.Consts.Len())
		for oldIx, cv := range in.Chunk.Consts.All() {
			oldIndex := uint32(oldIx)
			var newIndex uint32
			hit := false
			if opts.DedupConsts {
				if existing, ok := globalConsts.Get(cv); ok {
					newIndex = existing
					hit = true
				} else {
					newIndex = out.Consts.Add(cv)
					globalConsts.Put(cv, newIndex)
				}
			} else {
				newIndex = out.Consts.Add(cv)
			}
			localMap[oldIndex] = newIndex
			report.Remap = append(report.Remap, RemapEntry{OldIndex: oldIndex, NewIndex: newIndex, DedupHit: hit})
			if hit {
				report.DedupHits++
			}
		}
		manifest.TotalConstsAfter = out.Consts.Len()

		for i, op := range in.Chunk.Ops {
			line, _ := in.Chunk.Lines.LineForPC(i)
			if op.Tag == bytecode.OpLoadConst {
				newIx, ok := localMap[op.Arg]
				if !ok {
					return nil, nil, &diag.FormatError{Reason: "unknown const index"}
				}
				out.Emit(bytecode.LoadConst(newIx), line)
				continue
			}
			out.Emit(op, line)
		}

		if opts.MergeDebug {
			mergeDebug(out, in.Chunk.Debug, basePC)
		}

		manifest.Inputs = append(manifest.Inputs, report)
	}

	if opts.MergeDebug {
		if opts.Entry != "" {
			if !hasSymbol(out.Debug.Symbols, opts.Entry) {
				return nil, nil, &diag.NotFoundError{Name: opts.Entry}
			}
			appendFileIdempotent(out, fmt.Sprintf("<entry:%s>", opts.Entry))
		}
		manifest.MergedDebugFiles = len(out.Debug.Files)
		manifest.MergedDebugSymbols = len(out.Debug.Symbols)
	}

	if opts.Strip {
		out = rebuildStripped(out)
	}

	manifest.Hash = bytecode.Hash(out)
	return out, manifest, nil
}

func mergeDebug(out *bytecode.Chunk, d bytecode.DebugInfo, basePC int) {
	if d.HasMainFile && !out.Debug.HasMainFile {
		out.Debug.HasMainFile = true
		out.Debug.MainFile = d.MainFile
	}
	for _, f := range d.Files {
		appendFileIdempotent(out, f)
	}
	for _, sym := range d.Symbols {
		out.Debug.Symbols = append(out.Debug.Symbols, bytecode.Symbol{
			Name: sym.Name,
			PC:   sym.PC + uint32(basePC),
		})
	}
}

func appendFileIdempotent(out *bytecode.Chunk, f string) {
	for _, existing := range out.Debug.Files {
		if existing == f {
			return
		}
	}
	out.Debug.Files = append(out.Debug.Files, f)
}

func hasSymbol(symbols []bytecode.Symbol, name string) bool {
	for _, s := range symbols {
		if s.Name == name {
			return true
		}
	}
	return false
}

// rebuildStripped constructs a fresh chunk from out's constants/ops/lines,
// discarding debug entirely, rather than mutating out in place.
func rebuildStripped(out *bytecode.Chunk) *bytecode.Chunk {
	fresh := bytecode.NewChunk(out.Version)
	fresh.Stripped = true
	for _, cv := range out.Consts.All() {
		fresh.Consts.Add(cv)
	}
	for i, op := range out.Ops {
		line, _ := out.Lines.LineForPC(i)
		fresh.Emit(op, line)
	}
	return fresh
}
