package dap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type plusOneMapper struct{}

func (plusOneMapper) MapLine(_ FileKey, requestedLine uint32) (uint32, bool) {
	return requestedLine + 1, true
}

func TestSetAndHitLineBreakpoint(t *testing.T) {
	mgr := NewBreakpointManager(NoMapper{})
	resolved := mgr.SetBreakpointsForFile("a.vit", []BreakpointRequest{
		{SourcePath: "a.vit", Line: 10, Enabled: true},
	})
	require.Len(t, resolved, 1)

	action := mgr.ShouldBreak("a.vit", 10, 0, false, func(string) bool { return true })
	require.Equal(t, ActionStop, action.Kind)
}

func TestLineMapping(t *testing.T) {
	mgr := NewBreakpointManager(plusOneMapper{})
	resolved := mgr.SetBreakpointsForFile("a.vit", []BreakpointRequest{
		{SourcePath: "a.vit", Line: 4, Enabled: true},
	})
	require.Equal(t, uint32(5), resolved[0].LineEffective)
	require.True(t, resolved[0].Mapped)
}

func TestHitCountConditionAndLog(t *testing.T) {
	mgr := NewBreakpointManager(NoMapper{})
	mgr.SetBreakpointsForFile("a.vit", []BreakpointRequest{
		{
			SourcePath:  "a.vit",
			Line:        3,
			HasHitCount: true,
			HitCount:    2,
			Condition:   "x>0",
			LogMessage:  "here",
			Enabled:     true,
		},
	})

	// First hit: consumes hit_count (2 -> 1).
	require.Equal(t, ActionNone, mgr.ShouldBreak("a.vit", 3, 0, false, func(string) bool { return true }).Kind)
	// Second hit: consumes hit_count (1 -> 0).
	require.Equal(t, ActionNone, mgr.ShouldBreak("a.vit", 3, 0, false, func(string) bool { return true }).Kind)
	// Third hit: condition true -> logpoint, does not stop.
	action := mgr.ShouldBreak("a.vit", 3, 0, false, func(string) bool { return true })
	require.Equal(t, ActionLog, action.Kind)
	require.Equal(t, "here", action.Msg)
	// Condition false -> nothing.
	require.Equal(t, ActionNone, mgr.ShouldBreak("a.vit", 3, 0, false, func(string) bool { return false }).Kind)
}

func TestFunctionBreakpointHit(t *testing.T) {
	mgr := NewBreakpointManager(NoMapper{})
	mgr.AddFunctionBreakpoint("main", BreakpointRequest{Kind: BreakpointFunction, Function: "main", Enabled: true})

	require.Equal(t, ActionStop, mgr.HitFunction("main", 0, false, func(string) bool { return true }).Kind)
	require.Equal(t, ActionNone, mgr.HitFunction("other", 0, false, func(string) bool { return true }).Kind)
}

func TestEnableDisableRemove(t *testing.T) {
	mgr := NewBreakpointManager(NoMapper{})
	resolved := mgr.SetBreakpointsForFile("a.vit", []BreakpointRequest{
		{SourcePath: "a.vit", Line: 2, Enabled: true},
	})
	id := resolved[0].ID

	require.True(t, mgr.SetEnabled(id, false))
	require.Equal(t, ActionNone, mgr.ShouldBreak("a.vit", 2, 0, false, func(string) bool { return true }).Kind)

	require.True(t, mgr.SetEnabled(id, true))
	require.Equal(t, ActionStop, mgr.ShouldBreak("a.vit", 2, 0, false, func(string) bool { return true }).Kind)

	require.True(t, mgr.Remove(id))
	require.Equal(t, ActionNone, mgr.ShouldBreak("a.vit", 2, 0, false, func(string) bool { return true }).Kind)
}

func TestSetBreakpointsForFileClearsOnEmpty(t *testing.T) {
	mgr := NewBreakpointManager(NoMapper{})
	mgr.SetBreakpointsForFile("a.vit", []BreakpointRequest{{SourcePath: "a.vit", Line: 2, Enabled: true}})
	require.Len(t, mgr.ListForFile("a.vit"), 1)

	mgr.SetBreakpointsForFile("a.vit", nil)
	require.Empty(t, mgr.ListForFile("a.vit"))
}

func TestThreadScopedBreakpoint(t *testing.T) {
	mgr := NewBreakpointManager(NoMapper{})
	mgr.SetBreakpointsForFile("a.vit", []BreakpointRequest{
		{SourcePath: "a.vit", Line: 1, Enabled: true, HasThread: true, Thread: 7},
	})

	require.Equal(t, ActionNone, mgr.ShouldBreak("a.vit", 1, 8, true, func(string) bool { return true }).Kind)
	require.Equal(t, ActionStop, mgr.ShouldBreak("a.vit", 1, 7, true, func(string) bool { return true }).Kind)
}
