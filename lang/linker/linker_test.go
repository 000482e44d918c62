package linker

import (
	"testing"

	"github.com/mna/vitte/lang/bytecode"
	"github.com/stretchr/testify/require"
)

func chunkA() *bytecode.Chunk {
	c := bytecode.NewChunk(1)
	ix0 := c.Consts.Add(bytecode.NewI64Const(1))
	ix1 := c.Consts.Add(bytecode.NewStrConst("x"))
	c.Emit(bytecode.LoadConst(ix0), 1)
	c.Emit(bytecode.LoadConst(ix1), 1)
	c.Emit(bytecode.Return(), 1)
	return c
}

func chunkB() *bytecode.Chunk {
	c := bytecode.NewChunk(1)
	ix0 := c.Consts.Add(bytecode.NewStrConst("x"))
	ix1 := c.Consts.Add(bytecode.NewI64Const(2))
	c.Emit(bytecode.LoadConst(ix0), 1)
	c.Emit(bytecode.LoadConst(ix1), 1)
	c.Emit(bytecode.Return(), 1)
	return c
}

func TestLinkerDedup(t *testing.T) {
	out, manifest, err := Link([]Input{
		{Name: "A", Chunk: chunkA()},
		{Name: "B", Chunk: chunkB()},
	}, Options{DedupConsts: true})
	require.NoError(t, err)

	require.Equal(t, 3, out.Consts.Len())
	require.Equal(t, 4, manifest.TotalConstsBefore)
	require.Equal(t, 3, manifest.TotalConstsAfter)
	require.Equal(t, 0, manifest.Inputs[0].BasePC)
	require.Equal(t, 3, manifest.Inputs[1].BasePC)
	require.Equal(t, 1, manifest.Inputs[1].DedupHits)

	// B's LoadConst(0) ("x") must rewrite to the index "x" got in input A.
	strIx := out.Ops[1].Arg // A's second op: LoadConst("x")
	require.Equal(t, strIx, out.Ops[3].Arg)
}

func TestLinkerStripIdempotent(t *testing.T) {
	inputs := []Input{{Name: "A", Chunk: chunkA()}, {Name: "B", Chunk: chunkB()}}
	once, _, err := Link(inputs, Options{DedupConsts: true, Strip: true, MergeDebug: true})
	require.NoError(t, err)
	require.True(t, once.Stripped)
	require.Empty(t, once.Debug.Files)
	require.Empty(t, once.Debug.Symbols)

	twice, _, err := Link([]Input{{Name: "once", Chunk: once}}, Options{DedupConsts: true, Strip: true})
	require.NoError(t, err)
	require.Equal(t, once.Ops, twice.Ops)
	require.Equal(t, once.Consts.All(), twice.Consts.All())
}

func TestLinkerEntryNotFound(t *testing.T) {
	inputs := []Input{{Name: "A", Chunk: chunkA()}}
	_, _, err := Link(inputs, Options{MergeDebug: true, Entry: "missing"})
	require.Error(t, err)
}

func TestLinkerEntryMarker(t *testing.T) {
	a := chunkA()
	a.Debug.Symbols = []bytecode.Symbol{{Name: "main", PC: 0}}
	out, _, err := Link([]Input{{Name: "A", Chunk: a}}, Options{MergeDebug: true, Entry: "main"})
	require.NoError(t, err)
	require.Contains(t, out.Debug.Files, "<entry:main>")
}

func TestLinkerSingleInput(t *testing.T) {
	out, _, err := Link([]Input{{Name: "solo", Chunk: chunkA()}}, Options{DedupConsts: true})
	require.NoError(t, err)
	require.Equal(t, chunkA().Ops, out.Ops)
}
