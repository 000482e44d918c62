package disasm

import (
	"encoding/json"
	"flag"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mna/vitte/internal/filetest"
	"github.com/mna/vitte/lang/bytecode"
	"github.com/stretchr/testify/require"
)

var testUpdateDisasmTests = flag.Bool("test.update-disasm-tests", false, "If set, replace expected disasm golden output with actual output.")

func sampleChunk() *bytecode.Chunk {
	c := bytecode.NewChunk(1)
	ix := c.Consts.Add(bytecode.NewStrConst("hello"))
	c.Emit(bytecode.LoadConst(ix), 1)
	c.Emit(bytecode.Print(), 1)
	c.Emit(bytecode.Return(), 2)
	c.Debug.HasMainFile = true
	c.Debug.MainFile = "main.vit"
	c.Debug.Files = []string{"b.vit", "a.vit"}
	c.Debug.Symbols = []bytecode.Symbol{{Name: "main", PC: 0}}
	return c
}

func TestListingRendersOpsAndPreview(t *testing.T) {
	c := sampleChunk()
	out := Listing(c)
	require.Contains(t, out, "LoadConst")
	require.Contains(t, out, `"hello"`)
	require.Contains(t, out, "Print")
	require.Contains(t, out, "Return")
}

func TestFullListingIncludesConstsAndDebug(t *testing.T) {
	c := sampleChunk()
	out := FullListing(c, "sample")
	require.Contains(t, out, "chunk sample")
	require.Contains(t, out, "[0] str \"hello\"")
	require.Contains(t, out, "main_file: main.vit")
	require.Contains(t, out, "symbol: main @ 0")
}

func TestFullListingOmitsDebugWhenStripped(t *testing.T) {
	c := sampleChunk()
	c.Stripped = true
	out := FullListing(c, "sample")
	require.NotContains(t, out, "debug:")
}

func TestJSONViewShape(t *testing.T) {
	c := sampleChunk()
	raw, err := JSON(c, "sample.vit")
	require.NoError(t, err)

	var v jsonView
	require.NoError(t, json.Unmarshal(raw, &v))

	require.Equal(t, "sample.vit", v.File)
	require.Equal(t, uint16(1), v.Version)
	require.False(t, v.Stripped)
	require.Equal(t, bytecode.Hash(c), v.Hash)

	require.Len(t, v.Consts, 1)
	require.Equal(t, jsonConst{Index: 0, Type: "str", Value: `"hello"`}, v.Consts[0])

	require.Len(t, v.Ops, 3)
	require.Equal(t, "LoadConst", v.Ops[0].Op)
	require.Equal(t, `"hello"`, v.Ops[0].LoadConstPreview)
	require.Equal(t, "Print", v.Ops[1].Op)
	require.Empty(t, v.Ops[1].LoadConstPreview)
	require.Equal(t, uint32(2), v.Ops[2].Line)

	require.Equal(t, []jsonLineRun{{RangeStart: 0, RangeEnd: 2, Line: 1}, {RangeStart: 2, RangeEnd: 3, Line: 2}}, v.LineRuns)

	require.Equal(t, "main.vit", v.Debug.MainFile)
	require.Equal(t, []string{"a.vit", "b.vit"}, v.Debug.Files)
	require.Len(t, v.Debug.Symbols, 1)
}

func TestJSONViewOmitsDebugFieldsWhenStripped(t *testing.T) {
	c := sampleChunk()
	c.Stripped = true
	c.Debug = bytecode.DebugInfo{}
	raw, err := JSON(c, "sample.vit")
	require.NoError(t, err)

	var v jsonView
	require.NoError(t, json.Unmarshal(raw, &v))
	require.True(t, v.Stripped)
	require.Empty(t, v.Debug.MainFile)
	require.Empty(t, v.Debug.Symbols)
}

func TestSortedFilesCopyDoesNotMutateInput(t *testing.T) {
	in := []string{"z.vit", "a.vit"}
	out := SortedFilesCopy(in)
	require.Equal(t, []string{"a.vit", "z.vit"}, out)
	require.Equal(t, []string{"z.vit", "a.vit"}, in)
}

func TestHashStableAcrossCalls(t *testing.T) {
	c := sampleChunk()
	require.Equal(t, bytecode.Hash(c), bytecode.Hash(c))
}

// TestFullListingGolden diffs FullListing's output for the chunk named by
// each testdata/in entry against its checked-in testdata/out golden file.
func TestFullListingGolden(t *testing.T) {
	srcDir, resultDir := filepath.Join("testdata", "in"), filepath.Join("testdata", "out")
	for _, fi := range filetest.SourceFiles(t, srcDir, ".chnk") {
		t.Run(fi.Name(), func(t *testing.T) {
			title := strings.TrimSuffix(fi.Name(), filepath.Ext(fi.Name()))
			c := sampleChunk()
			out := FullListing(c, title)
			filetest.DiffOutput(t, fi, out, resultDir, testUpdateDisasmTests)
		})
	}
}
