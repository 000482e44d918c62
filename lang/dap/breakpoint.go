// Package dap implements the debugger core consumed by a DAP (Debug
// Adapter Protocol) frontend: breakpoint management, a small read-only
// expression evaluator for conditions and logpoints, and the protocol
// handler itself. The package never talks to a concrete VM; it is driven
// through the Engine interface (engine.go), keeping breakpoint bookkeeping,
// expression evaluation, and wire framing as separate, independently
// testable concerns.
package dap

import "github.com/dolthub/swiss"

// FileKey is a canonicalized source path used to index breakpoints.
type FileKey = string

// BreakpointID is the monotonic identifier allocated to a resolved
// breakpoint, stable for the lifetime of a debug session.
type BreakpointID = uint64

// ThreadID identifies a debuggee thread.
type ThreadID = int64

// BreakpointKind distinguishes a line breakpoint from a function breakpoint.
type BreakpointKind uint8

const (
	BreakpointLine BreakpointKind = iota
	BreakpointFunction
)

// BreakpointRequest is the client-side (DAP) description of a breakpoint to
// install.
type BreakpointRequest struct {
	Kind        BreakpointKind
	SourcePath  string // required if Kind == BreakpointLine
	Line        uint32 // required if Kind == BreakpointLine
	Function    string // required if Kind == BreakpointFunction
	Condition   string // empty means "no condition"
	HasHitCount bool
	HitCount    uint64
	LogMessage  string // empty means "not a logpoint"
	Enabled     bool
	HasThread   bool
	Thread      ThreadID
}

// BreakpointResolved is the VM-side resolved state of a breakpoint.
type BreakpointResolved struct {
	ID            BreakpointID
	Kind          BreakpointKind
	SourcePath    string
	HasLine       bool
	LineEffective uint32
	Function      string
	Condition     string
	HitCount      uint64 // remaining hits to consume before stopping; 0 = armed
	LogMessage    string
	Enabled       bool
	HasThread     bool
	Thread        ThreadID
	Mapped        bool // true if LineMapper changed the requested line
	Verified      bool
	HasRequested  bool
	RequestedLine uint32
}

// LineMapper translates a source-language line into an effective
// bytecode-level line. The default, NoMapper, is the identity mapping.
type LineMapper interface {
	MapLine(file FileKey, requestedLine uint32) (effective uint32, mapped bool)
}

// NoMapper is the identity LineMapper.
type NoMapper struct{}

func (NoMapper) MapLine(_ FileKey, requestedLine uint32) (uint32, bool) {
	return requestedLine, false
}

// BreakAction is the outcome of a should-break decision at an instruction
// site.
type BreakAction struct {
	Kind BreakActionKind
	ID   BreakpointID
	Msg  string // populated only when Kind == ActionLog
}

// BreakActionKind enumerates the possible BreakAction outcomes.
type BreakActionKind uint8

const (
	ActionNone BreakActionKind = iota
	ActionStop
	ActionLog
)

// BreakpointManager owns the per-file and per-function breakpoint indices
// for one debug session, plus the id allocator. The indices are inserted
// into once per setBreakpoints call and point-looked-up on every
// instruction site, with no ordering requirement across keys.
type BreakpointManager struct {
	nextID BreakpointID
	files  *swiss.Map[FileKey, []*BreakpointResolved]
	funcs  *swiss.Map[string, []*BreakpointResolved]
	mapper LineMapper
}

// NewBreakpointManager returns a manager using mapper for line translation.
// Pass NoMapper{} for identity mapping.
func NewBreakpointManager(mapper LineMapper) *BreakpointManager {
	return &BreakpointManager{
		nextID: 1,
		files:  swiss.NewMap[FileKey, []*BreakpointResolved](8),
		funcs:  swiss.NewMap[string, []*BreakpointResolved](8),
		mapper: mapper,
	}
}

func (m *BreakpointManager) allocID() BreakpointID {
	id := m.nextID
	m.nextID++
	return id
}

// SetBreakpointsForFile replaces the full breakpoint set for path with the
// resolved form of requests, in request order. Requests whose Kind isn't
// BreakpointLine are ignored; function breakpoints go through
// AddFunctionBreakpoint.
func (m *BreakpointManager) SetBreakpointsForFile(path string, requests []BreakpointRequest) []*BreakpointResolved {
	resolved := make([]*BreakpointResolved, 0, len(requests))
	for _, req := range requests {
		if req.Kind != BreakpointLine {
			continue
		}
		lineReq := req.Line
		if lineReq == 0 {
			lineReq = 1
		}
		effective, mapped := m.mapper.MapLine(path, lineReq)
		resolved = append(resolved, &BreakpointResolved{
			ID:            m.allocID(),
			Kind:          BreakpointLine,
			SourcePath:    path,
			HasLine:       true,
			LineEffective: effective,
			Condition:     req.Condition,
			HitCount:      req.HitCount,
			LogMessage:    req.LogMessage,
			Enabled:       req.Enabled,
			HasThread:     req.HasThread,
			Thread:        req.Thread,
			Mapped:        mapped,
			Verified:      true,
			HasRequested:  true,
			RequestedLine: lineReq,
		})
	}
	m.files.Put(path, resolved)
	return resolved
}

// AddFunctionBreakpoint appends a resolved function breakpoint for name.
func (m *BreakpointManager) AddFunctionBreakpoint(name string, req BreakpointRequest) *BreakpointResolved {
	bp := &BreakpointResolved{
		ID:         m.allocID(),
		Kind:       BreakpointFunction,
		Function:   name,
		Condition:  req.Condition,
		HitCount:   req.HitCount,
		LogMessage: req.LogMessage,
		Enabled:    req.Enabled,
		HasThread:  req.HasThread,
		Thread:     req.Thread,
		Verified:   true,
	}
	list, _ := m.funcs.Get(name)
	list = append(list, bp)
	m.funcs.Put(name, list)
	return bp
}

// SetEnabled toggles the Enabled flag of the breakpoint with the given id,
// scanning all per-file and per-function lists, and reports whether it was
// found.
func (m *BreakpointManager) SetEnabled(id BreakpointID, enabled bool) bool {
	return m.visit(id, func(bp *BreakpointResolved) { bp.Enabled = enabled })
}

// Remove deletes the breakpoint with the given id from whichever list holds
// it, reporting whether it was found.
func (m *BreakpointManager) Remove(id BreakpointID) bool {
	removed := false
	m.files.Iter(func(key FileKey, list []*BreakpointResolved) bool {
		out := list[:0:0]
		for _, bp := range list {
			if bp.ID == id {
				removed = true
				continue
			}
			out = append(out, bp)
		}
		if len(out) != len(list) {
			m.files.Put(key, out)
		}
		return false
	})
	m.funcs.Iter(func(key string, list []*BreakpointResolved) bool {
		out := list[:0:0]
		for _, bp := range list {
			if bp.ID == id {
				removed = true
				continue
			}
			out = append(out, bp)
		}
		if len(out) != len(list) {
			m.funcs.Put(key, out)
		}
		return false
	})
	return removed
}

func (m *BreakpointManager) visit(id BreakpointID, f func(*BreakpointResolved)) bool {
	found := false
	m.files.Iter(func(_ FileKey, list []*BreakpointResolved) bool {
		for _, bp := range list {
			if bp.ID == id {
				f(bp)
				found = true
				return true
			}
		}
		return false
	})
	if found {
		return true
	}
	m.funcs.Iter(func(_ string, list []*BreakpointResolved) bool {
		for _, bp := range list {
			if bp.ID == id {
				f(bp)
				found = true
				return true
			}
		}
		return false
	})
	return found
}

// ListForFile returns the resolved breakpoints installed for path.
func (m *BreakpointManager) ListForFile(path string) []*BreakpointResolved {
	list, _ := m.files.Get(path)
	return list
}

// ListForFunction returns the resolved breakpoints installed for a function
// name.
func (m *BreakpointManager) ListForFunction(name string) []*BreakpointResolved {
	list, _ := m.funcs.Get(name)
	return list
}

// ListAll returns every breakpoint across every file and function, in
// unspecified order.
func (m *BreakpointManager) ListAll() []*BreakpointResolved {
	var out []*BreakpointResolved
	m.files.Iter(func(_ FileKey, list []*BreakpointResolved) bool {
		out = append(out, list...)
		return false
	})
	m.funcs.Iter(func(_ string, list []*BreakpointResolved) bool {
		out = append(out, list...)
		return false
	})
	return out
}

// ShouldBreak decides whether execution should stop at (file, line, thread).
// evalCond evaluates a condition string to a boolean; it is only called when
// a breakpoint at this site has a Condition set. The decision ladder:
// hit-count drains unconditionally first (no condition evaluation while
// draining), then the condition (if any), then logpoint-vs-stop. The first
// matching enabled breakpoint in insertion order wins.
func (m *BreakpointManager) ShouldBreak(file FileKey, line uint32, thread ThreadID, hasThread bool, evalCond func(string) bool) BreakAction {
	list, ok := m.files.Get(file)
	if !ok {
		return BreakAction{Kind: ActionNone}
	}
	for _, bp := range list {
		if !bp.Enabled {
			continue
		}
		if !bp.HasLine || bp.LineEffective != line {
			continue
		}
		if !threadMatches(bp.HasThread, bp.Thread, hasThread, thread) {
			continue
		}
		if act, ok := decideAction(bp, evalCond); ok {
			return act
		}
	}
	return BreakAction{Kind: ActionNone}
}

// HitFunction decides whether execution should stop at entry to a function
// breakpoint, using the same decision ladder as ShouldBreak.
func (m *BreakpointManager) HitFunction(name string, thread ThreadID, hasThread bool, evalCond func(string) bool) BreakAction {
	list, ok := m.funcs.Get(name)
	if !ok {
		return BreakAction{Kind: ActionNone}
	}
	for _, bp := range list {
		if !bp.Enabled {
			continue
		}
		if !threadMatches(bp.HasThread, bp.Thread, hasThread, thread) {
			continue
		}
		if act, ok := decideAction(bp, evalCond); ok {
			return act
		}
	}
	return BreakAction{Kind: ActionNone}
}

func threadMatches(bpHas bool, bpThread ThreadID, curHas bool, curThread ThreadID) bool {
	if !bpHas {
		return true
	}
	if !curHas {
		return false
	}
	return bpThread == curThread
}

// decideAction applies the hit-count/condition/logpoint ladder to bp,
// mutating its remaining hit count. ok is false when no action fires (i.e.
// the caller should keep scanning).
func decideAction(bp *BreakpointResolved, evalCond func(string) bool) (BreakAction, bool) {
	if bp.HitCount > 0 {
		bp.HitCount--
		return BreakAction{}, false
	}
	if bp.Condition != "" && evalCond != nil && !evalCond(bp.Condition) {
		return BreakAction{}, false
	}
	if bp.LogMessage != "" {
		return BreakAction{Kind: ActionLog, ID: bp.ID, Msg: bp.LogMessage}, true
	}
	return BreakAction{Kind: ActionStop, ID: bp.ID}, true
}
