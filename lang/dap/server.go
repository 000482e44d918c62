package dap

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mna/vitte/lang/diag"
)

// inMessage is the subset of an inbound DAP message this server cares
// about: only "request" messages are ever sent by a client.
type inMessage struct {
	Seq       int64           `json:"seq"`
	Type      string          `json:"type"`
	Command   string          `json:"command"`
	Arguments json.RawMessage `json:"arguments"`
}

type outResponse struct {
	Seq        int64       `json:"seq"`
	Type       string      `json:"type"`
	RequestSeq int64       `json:"request_seq"`
	Success    bool        `json:"success"`
	Command    string      `json:"command"`
	Message    string      `json:"message,omitempty"`
	Body       interface{} `json:"body,omitempty"`
}

type outEvent struct {
	Seq   int64       `json:"seq"`
	Type  string      `json:"type"`
	Event string      `json:"event"`
	Body  interface{} `json:"body,omitempty"`
}

// Server is the DAP protocol handler: Content-Length framing over a byte
// stream, dispatching each request to an Engine and tracking breakpoint id
// stability across repeated setBreakpoints calls for the same file.
type Server struct {
	engine   Engine
	out      io.Writer
	outSeq   int64
	nextBPID int64
	bpIDs    map[string]int64 // "path\x00line" -> id

	// MaxSteps caps the number of "next"/"stepOver" requests the server will
	// honor in a session before failing the request instead of stepping.
	// Zero means unlimited.
	MaxSteps  int
	stepsSeen int
}

// NewServer returns a Server that dispatches to engine and writes framed
// DAP messages to out.
func NewServer(engine Engine, out io.Writer) *Server {
	return &Server{
		engine:   engine,
		out:      out,
		nextBPID: 1,
		bpIDs:    make(map[string]int64),
	}
}

// Run reads framed DAP requests from in until EOF, processing each one
// fully (including any events it emits) before reading the next, per the
// single-threaded-per-session model: no request is handled concurrently
// with another.
func (s *Server) Run(in io.Reader) error {
	r := bufio.NewReader(in)
	for {
		body, err := readFramedMessage(r)
		if err != nil {
			if perr, ok := err.(*diag.ProtocolError); ok {
				if werr := s.writeResponse(0, "unknown", false, perr.Error(), nil); werr != nil {
					return werr
				}
				continue
			}
			return err
		}
		if body == nil {
			return nil // EOF
		}
		var msg inMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			if werr := s.writeResponse(0, "unknown", false, fmt.Sprintf("bad json: %s", err), nil); werr != nil {
				return werr
			}
			continue
		}
		if msg.Type != "request" {
			continue
		}
		if err := s.HandleRequest(msg.Seq, msg.Command, msg.Arguments); err != nil {
			return err
		}
	}
}

// HandleRequest processes one request and writes its response (and any
// events) to the server's output. It's exported so a caller driving the
// transport itself (e.g. a test, or a host embedding the server over a
// non-stdio channel) can feed requests one at a time.
func (s *Server) HandleRequest(seq int64, command string, args json.RawMessage) error {
	var obj map[string]json.RawMessage
	if len(args) > 0 {
		if err := json.Unmarshal(args, &obj); err != nil {
			obj = nil
		}
	}

	switch command {
	case "initialize":
		body := map[string]interface{}{
			"supportsConfigurationDoneRequest": true,
			"supportsEvaluateForHovers":        true,
			"supportsCompletionsRequest":       false,
			"supportsSetVariable":              false,
			"exceptionBreakpointFilters":       []interface{}{},
		}
		if err := s.writeResponse(seq, command, true, "", body); err != nil {
			return err
		}
		return s.writeEvent("initialized", nil)

	case "launch":
		program := stringField(obj, "program")
		cwd := stringField(obj, "cwd")
		var runArgs []string
		if raw, ok := obj["args"]; ok {
			_ = json.Unmarshal(raw, &runArgs)
		}
		if err := s.engine.Launch(program, runArgs, cwd); err != nil {
			return s.writeResponse(seq, command, false, err.Error(), nil)
		}
		return s.writeResponse(seq, command, true, "", map[string]interface{}{})

	case "setBreakpoints":
		return s.handleSetBreakpoints(seq, command, obj)

	case "configurationDone":
		return s.writeResponse(seq, command, true, "", map[string]interface{}{})

	case "threads":
		threads, err := s.engine.Threads()
		if err != nil {
			return s.writeResponse(seq, command, false, err.Error(), nil)
		}
		return s.writeResponse(seq, command, true, "", map[string]interface{}{"threads": jsonThreads(threads)})

	case "stackTrace":
		tid := int64Field(obj, "threadId", 1)
		start := int64Field(obj, "startFrame", 0)
		levels := int64Field(obj, "levels", 20)
		frames, err := s.engine.StackTrace(tid, start, levels)
		if err != nil {
			return s.writeResponse(seq, command, false, err.Error(), nil)
		}
		return s.writeResponse(seq, command, true, "", map[string]interface{}{
			"stackFrames": jsonFrames(frames),
			"totalFrames": len(frames),
		})

	case "scopes":
		raw, ok := obj["frameId"]
		if !ok {
			return s.writeResponse(seq, command, false, "scopes: missing frameId", nil)
		}
		var frameID int64
		_ = json.Unmarshal(raw, &frameID)
		scopes, err := s.engine.Scopes(frameID)
		if err != nil {
			return s.writeResponse(seq, command, false, err.Error(), nil)
		}
		return s.writeResponse(seq, command, true, "", map[string]interface{}{"scopes": jsonScopes(scopes)})

	case "variables":
		raw, ok := obj["variablesReference"]
		if !ok {
			return s.writeResponse(seq, command, false, "variables: missing variablesReference", nil)
		}
		var vr int64
		_ = json.Unmarshal(raw, &vr)
		vars, err := s.engine.Variables(vr)
		if err != nil {
			return s.writeResponse(seq, command, false, err.Error(), nil)
		}
		return s.writeResponse(seq, command, true, "", map[string]interface{}{"variables": jsonVariables(vars)})

	case "continue":
		tid := int64Field(obj, "threadId", 1)
		outcome, err := s.engine.Continue(tid)
		if err != nil {
			return s.writeResponse(seq, command, false, err.Error(), nil)
		}
		if err := s.writeResponse(seq, command, true, "", map[string]interface{}{
			"allThreadsContinued": outcome.AllThreadsContinued,
		}); err != nil {
			return err
		}
		evtThread := tid
		if outcome.HasThreadID {
			evtThread = outcome.ThreadID
		}
		return s.writeEvent("continued", map[string]interface{}{"threadId": evtThread})

	case "next", "stepOver":
		tid := int64Field(obj, "threadId", 1)
		if s.MaxSteps > 0 && s.stepsSeen >= s.MaxSteps {
			return s.writeResponse(seq, command, false, "step budget exhausted", nil)
		}
		s.stepsSeen++
		if err := s.engine.StepOver(tid); err != nil {
			return s.writeResponse(seq, command, false, err.Error(), nil)
		}
		if err := s.writeResponse(seq, command, true, "", map[string]interface{}{}); err != nil {
			return err
		}
		return s.writeEvent("stopped", map[string]interface{}{"reason": "step", "threadId": tid})

	case "pause":
		tid := int64Field(obj, "threadId", 1)
		if err := s.engine.Pause(tid); err != nil {
			return s.writeResponse(seq, command, false, err.Error(), nil)
		}
		if err := s.writeResponse(seq, command, true, "", map[string]interface{}{}); err != nil {
			return err
		}
		return s.writeEvent("stopped", map[string]interface{}{"reason": "pause", "threadId": tid})

	case "evaluate":
		expr := stringField(obj, "expression")
		var frameID int64
		hasFrame := false
		if raw, ok := obj["frameId"]; ok {
			_ = json.Unmarshal(raw, &frameID)
			hasFrame = true
		}
		res, err := s.engine.Evaluate(expr, frameID, hasFrame)
		if err != nil {
			return s.writeResponse(seq, command, false, err.Error(), nil)
		}
		return s.writeResponse(seq, command, true, "", map[string]interface{}{
			"result":             res.Result,
			"variablesReference": res.VariablesReference,
		})

	case "disconnect":
		if err := s.engine.Disconnect(); err != nil {
			return s.writeResponse(seq, command, false, err.Error(), nil)
		}
		if err := s.writeResponse(seq, command, true, "", map[string]interface{}{}); err != nil {
			return err
		}
		return s.writeEvent("terminated", nil)

	case "cancel", "runInTerminal":
		return s.writeResponse(seq, command, true, "", map[string]interface{}{})

	default:
		return s.writeResponse(seq, command, false, "not supported", nil)
	}
}

func (s *Server) handleSetBreakpoints(seq int64, command string, obj map[string]json.RawMessage) error {
	var sourceObj map[string]json.RawMessage
	if raw, ok := obj["source"]; ok {
		_ = json.Unmarshal(raw, &sourceObj)
	}
	path := stringField(sourceObj, "path")
	if path == "" {
		return s.writeResponse(seq, command, false, "setBreakpoints: missing source.path", nil)
	}

	var rawLines []map[string]json.RawMessage
	if raw, ok := obj["breakpoints"]; ok {
		_ = json.Unmarshal(raw, &rawLines)
	}
	lines := make([]int64, len(rawLines))
	for i, bpObj := range rawLines {
		lines[i] = int64Field(bpObj, "line", 0)
	}

	resolved, err := s.engine.SetBreakpoints(path, lines)
	if err != nil {
		return s.writeResponse(seq, command, false, err.Error(), nil)
	}

	out := make([]map[string]interface{}, len(resolved))
	for i, bp := range resolved {
		entry := map[string]interface{}{"verified": bp.Verified}
		if bp.HasLine {
			entry["line"] = bp.Line
			entry["id"] = s.stableBreakpointID(path, bp.Line)
		}
		out[i] = entry
	}
	return s.writeResponse(seq, command, true, "", map[string]interface{}{"breakpoints": out})
}

// stableBreakpointID assigns (and remembers) the same id for a given
// (path, line) pair across repeated setBreakpoints calls within a session.
func (s *Server) stableBreakpointID(path string, line int64) int64 {
	key := path + "\x00" + strconv.FormatInt(line, 10)
	if id, ok := s.bpIDs[key]; ok {
		return id
	}
	id := s.nextBPID
	s.nextBPID++
	s.bpIDs[key] = id
	return id
}

func (s *Server) writeResponse(requestSeq int64, command string, success bool, message string, body interface{}) error {
	s.outSeq++
	return writeFramedMessage(s.out, outResponse{
		Seq: s.outSeq, Type: "response", RequestSeq: requestSeq,
		Success: success, Command: command, Message: message, Body: body,
	})
}

func (s *Server) writeEvent(event string, body interface{}) error {
	s.outSeq++
	return writeFramedMessage(s.out, outEvent{Seq: s.outSeq, Type: "event", Event: event, Body: body})
}

func stringField(obj map[string]json.RawMessage, name string) string {
	raw, ok := obj[name]
	if !ok {
		return ""
	}
	var s string
	_ = json.Unmarshal(raw, &s)
	return s
}

func int64Field(obj map[string]json.RawMessage, name string, def int64) int64 {
	raw, ok := obj[name]
	if !ok {
		return def
	}
	var v int64
	if err := json.Unmarshal(raw, &v); err != nil {
		return def
	}
	return v
}

func jsonThreads(threads []Thread) []map[string]interface{} {
	out := make([]map[string]interface{}, len(threads))
	for i, t := range threads {
		out[i] = map[string]interface{}{"id": t.ID, "name": t.Name}
	}
	return out
}

func jsonFrames(frames []StackFrame) []map[string]interface{} {
	out := make([]map[string]interface{}, len(frames))
	for i, f := range frames {
		out[i] = map[string]interface{}{
			"id": f.ID, "name": f.Name, "line": f.Line, "column": f.Column,
			"source": map[string]interface{}{"name": f.Source.Name, "path": f.Source.Path},
		}
	}
	return out
}

func jsonScopes(scopes []Scope) []map[string]interface{} {
	out := make([]map[string]interface{}, len(scopes))
	for i, sc := range scopes {
		out[i] = map[string]interface{}{
			"name": sc.Name, "variablesReference": sc.VariablesReference, "expensive": sc.Expensive,
		}
	}
	return out
}

func jsonVariables(vars []Variable) []map[string]interface{} {
	out := make([]map[string]interface{}, len(vars))
	for i, v := range vars {
		entry := map[string]interface{}{
			"name": v.Name, "value": v.Value, "variablesReference": v.VariablesReference,
		}
		if v.Type != "" {
			entry["type"] = v.Type
		}
		out[i] = entry
	}
	return out
}

// readFramedMessage reads one "Content-Length: N\r\n\r\n<body>" message.
// It returns (nil, nil) on a clean EOF before any header bytes are read.
func readFramedMessage(r *bufio.Reader) ([]byte, error) {
	contentLength := -1
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			if err == io.EOF && line == "" {
				return nil, nil
			}
			return nil, err
		}
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "" {
			break
		}
		if rest, ok := strings.CutPrefix(trimmed, "Content-Length:"); ok {
			n, err := strconv.Atoi(strings.TrimSpace(rest))
			if err != nil {
				return nil, &diag.ProtocolError{Reason: "bad content-length"}
			}
			contentLength = n
		}
	}
	if contentLength < 0 {
		return nil, &diag.ProtocolError{Reason: "missing content-length"}
	}
	buf := make([]byte, contentLength)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// writeFramedMessage writes one Content-Length-framed JSON message.
func writeFramedMessage(w io.Writer, msg interface{}) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(body)); err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}
