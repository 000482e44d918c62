package dap

import "fmt"

// MockEngine is the conforming default Engine: a single thread named
// "main", a single frame at line 1, and deterministic scope/variable
// values. It's the engine the CLI's "dap" subcommand runs when no real VM
// is wired in, and what the Server's own tests drive.
type MockEngine struct {
	thread  int64
	program string
	frame   StackFrame
	scopes  map[int64][]Scope
	vars    map[int64][]Variable
}

// NewMockEngine returns a MockEngine with its canned frame/scope/variable
// data populated.
func NewMockEngine() *MockEngine {
	return &MockEngine{
		thread: 1,
		frame: StackFrame{
			ID:     1,
			Name:   "main",
			Line:   1,
			Column: 1,
			Source: Source{Name: "main.vit", Path: "main.vit"},
		},
		scopes: map[int64][]Scope{
			1: {
				{Name: "locals", VariablesReference: 1001},
				{Name: "globals", VariablesReference: 1002},
			},
		},
		vars: map[int64][]Variable{
			1001: {
				{Name: "x", Value: "42", Type: "int"},
				{Name: "msg", Value: `"hello"`, Type: "string"},
			},
			1002: {
				{Name: "PI", Value: "3.14159", Type: "float"},
			},
		},
	}
}

func (e *MockEngine) Launch(program string, _ []string, _ string) error {
	if program != "" {
		e.program = program
		e.frame.Source = Source{Name: program, Path: program}
	}
	return nil
}

func (e *MockEngine) Threads() ([]Thread, error) {
	return []Thread{{ID: e.thread, Name: "main"}}, nil
}

func (e *MockEngine) Continue(threadID int64) (ContinueOutcome, error) {
	if threadID != e.thread {
		return ContinueOutcome{}, fmt.Errorf("bad thread: %d", threadID)
	}
	return ContinueOutcome{AllThreadsContinued: true, ThreadID: threadID, HasThreadID: true}, nil
}

func (e *MockEngine) Pause(threadID int64) error {
	if threadID != e.thread {
		return fmt.Errorf("bad thread: %d", threadID)
	}
	return nil
}

func (e *MockEngine) StepOver(threadID int64) error {
	if threadID != e.thread {
		return fmt.Errorf("bad thread: %d", threadID)
	}
	e.frame.Line++
	return nil
}

func (e *MockEngine) StackTrace(threadID, start, levels int64) ([]StackFrame, error) {
	if threadID != e.thread {
		return nil, fmt.Errorf("bad thread: %d", threadID)
	}
	frames := []StackFrame{e.frame}
	if start < 0 {
		start = 0
	}
	if levels < 1 {
		levels = 1
	}
	s := int(start)
	if s > len(frames) {
		s = len(frames)
	}
	end := s + int(levels)
	if end > len(frames) {
		end = len(frames)
	}
	return frames[s:end], nil
}

func (e *MockEngine) Scopes(frameID int64) ([]Scope, error) {
	return e.scopes[frameID], nil
}

func (e *MockEngine) Variables(variablesReference int64) ([]Variable, error) {
	return e.vars[variablesReference], nil
}

func (e *MockEngine) SetBreakpoints(file string, lines []int64) ([]Breakpoint, error) {
	_ = file
	out := make([]Breakpoint, len(lines))
	for i, l := range lines {
		out[i] = Breakpoint{Verified: true, Line: l, HasLine: true}
	}
	return out, nil
}

func (e *MockEngine) Evaluate(expression string, _ int64, _ bool) (EvalResult, error) {
	return EvalResult{Result: fmt.Sprintf("%q", expression)}, nil
}

func (e *MockEngine) Disconnect() error { return nil }

var _ Engine = (*MockEngine)(nil)
