package disasm

import (
	"encoding/json"

	"github.com/mna/vitte/lang/bytecode"
)

// jsonConst is one entry of the JSON view's "consts" array.
type jsonConst struct {
	Index int    `json:"index"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// jsonOp is one entry of the JSON view's "ops" array. LoadConstPreview is
// omitted for every op except LoadConst.
type jsonOp struct {
	PC               int    `json:"pc"`
	Line             uint32 `json:"line"`
	Op               string `json:"op"`
	LoadConstPreview string `json:"load_const_preview,omitempty"`
}

// jsonLineRun is one entry of the JSON view's "line_runs" array.
type jsonLineRun struct {
	RangeStart int    `json:"range_start"`
	RangeEnd   int    `json:"range_end"`
	Line       uint32 `json:"line"`
}

// jsonDebug is the JSON view's "debug" object. Each symbol is a (name, pc)
// pair rendered as a two-element array, matching the debug section's compact
// on-disk shape.
type jsonDebug struct {
	MainFile string           `json:"main_file,omitempty"`
	Files    []string         `json:"files"`
	Symbols  [][2]interface{} `json:"symbols"`
}

// jsonView is the full JSON view of a chunk, per the disassembler's
// machine-readable output mode.
type jsonView struct {
	File     string        `json:"file"`
	Version  uint16        `json:"version"`
	Stripped bool          `json:"stripped"`
	Consts   []jsonConst   `json:"consts"`
	Ops      []jsonOp      `json:"ops"`
	LineRuns []jsonLineRun `json:"line_runs"`
	Debug    jsonDebug     `json:"debug"`
	Hash     uint64        `json:"hash"`
}

// JSON renders c as the machine-readable view: every constant with its type
// and value, every op with its line and (for LoadConst) a preview of the
// constant it loads, the line table's run-length encoding, the debug
// payload, and the chunk hash. file is the display name recorded in the
// "file" field; it need not be a real path.
func JSON(c *bytecode.Chunk, file string) ([]byte, error) {
	return json.Marshal(buildJSONView(c, file))
}

func buildJSONView(c *bytecode.Chunk, file string) jsonView {
	v := jsonView{
		File:     file,
		Version:  c.Version,
		Stripped: c.Stripped,
		Hash:     bytecode.Hash(c),
	}

	all := c.Consts.All()
	v.Consts = make([]jsonConst, len(all))
	for i, cv := range all {
		v.Consts[i] = jsonConst{Index: i, Type: constTypeName(cv.Tag), Value: cv.String()}
	}

	v.Ops = make([]jsonOp, len(c.Ops))
	for pc, op := range c.Ops {
		line, _ := c.Lines.LineForPC(pc)
		v.Ops[pc] = jsonOp{PC: pc, Line: line, Op: op.Name(), LoadConstPreview: preview(c, op)}
	}

	for _, r := range c.Lines.Runs() {
		v.LineRuns = append(v.LineRuns, jsonLineRun{RangeStart: r.StartPC, RangeEnd: r.EndPC, Line: r.Line})
	}

	v.Debug.Files = SortedFilesCopy(c.Debug.Files)
	if c.Debug.HasMainFile {
		v.Debug.MainFile = c.Debug.MainFile
	}
	v.Debug.Symbols = make([][2]interface{}, len(c.Debug.Symbols))
	for i, s := range c.Debug.Symbols {
		v.Debug.Symbols[i] = [2]interface{}{s.Name, s.PC}
	}

	return v
}
