package dap

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type rawRequest struct {
	Seq       int64       `json:"seq"`
	Type      string      `json:"type"`
	Command   string      `json:"command"`
	Arguments interface{} `json:"arguments,omitempty"`
}

func frameRequest(t *testing.T, seq int64, command string, args interface{}) []byte {
	t.Helper()
	body, err := json.Marshal(rawRequest{Seq: seq, Type: "request", Command: command, Arguments: args})
	require.NoError(t, err)
	return []byte(fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(body), body))
}

// readAllFrames decodes every Content-Length-framed JSON message in buf.
func readAllFrames(t *testing.T, buf []byte) []map[string]interface{} {
	t.Helper()
	r := bufio.NewReader(bytes.NewReader(buf))
	var out []map[string]interface{}
	for {
		msg, err := readFramedMessage(r)
		require.NoError(t, err)
		if msg == nil {
			break
		}
		var obj map[string]interface{}
		require.NoError(t, json.Unmarshal(msg, &obj))
		out = append(out, obj)
	}
	return out
}

func TestServerInitializeLaunchSetBreakpointsDisconnect(t *testing.T) {
	var in bytes.Buffer
	in.Write(frameRequest(t, 1, "initialize", nil))
	in.Write(frameRequest(t, 2, "launch", map[string]interface{}{"program": "p.vit"}))
	in.Write(frameRequest(t, 3, "setBreakpoints", map[string]interface{}{
		"source":      map[string]interface{}{"path": "p.vit"},
		"breakpoints": []map[string]interface{}{{"line": 3}, {"line": 7}},
	}))
	in.Write(frameRequest(t, 4, "setBreakpoints", map[string]interface{}{
		"source":      map[string]interface{}{"path": "p.vit"},
		"breakpoints": []map[string]interface{}{{"line": 3}, {"line": 7}},
	}))
	in.Write(frameRequest(t, 5, "disconnect", nil))

	var out bytes.Buffer
	s := NewServer(NewMockEngine(), &out)
	require.NoError(t, s.Run(&in))

	msgs := readAllFrames(t, out.Bytes())
	// response(initialize), event(initialized), response(launch),
	// response(setBreakpoints x2), response(disconnect), event(terminated).
	require.Len(t, msgs, 7)

	require.Equal(t, "response", msgs[0]["type"])
	require.Equal(t, "initialize", msgs[0]["command"])
	require.Equal(t, true, msgs[0]["success"])

	require.Equal(t, "event", msgs[1]["type"])
	require.Equal(t, "initialized", msgs[1]["event"])

	require.Equal(t, "response", msgs[2]["type"])
	require.Equal(t, "launch", msgs[2]["command"])

	firstBPs := msgs[3]["body"].(map[string]interface{})["breakpoints"].([]interface{})
	require.Len(t, firstBPs, 2)
	bp0 := firstBPs[0].(map[string]interface{})
	bp1 := firstBPs[1].(map[string]interface{})
	require.Equal(t, true, bp0["verified"])
	require.Equal(t, float64(3), bp0["line"])
	require.Equal(t, float64(1), bp0["id"])
	require.Equal(t, float64(7), bp1["line"])
	require.Equal(t, float64(2), bp1["id"])

	secondBPs := msgs[4]["body"].(map[string]interface{})["breakpoints"].([]interface{})
	sbp0 := secondBPs[0].(map[string]interface{})
	sbp1 := secondBPs[1].(map[string]interface{})
	require.Equal(t, float64(1), sbp0["id"])
	require.Equal(t, float64(2), sbp1["id"])

	require.Equal(t, "disconnect", msgs[5]["command"])
	require.Equal(t, "event", msgs[6]["type"])
	require.Equal(t, "terminated", msgs[6]["event"])
}

func TestServerUnknownCommandStaysOpen(t *testing.T) {
	var in bytes.Buffer
	in.Write(frameRequest(t, 1, "bogus", nil))
	in.Write(frameRequest(t, 2, "initialize", nil))

	var out bytes.Buffer
	s := NewServer(NewMockEngine(), &out)
	require.NoError(t, s.Run(&in))

	msgs := readAllFrames(t, out.Bytes())
	require.Equal(t, false, msgs[0]["success"])
	require.Equal(t, "not supported", msgs[0]["message"])
	// the stream stayed open: the next request was still processed.
	require.Equal(t, "initialize", msgs[1]["command"])
}

func TestServerEvaluateAndVariables(t *testing.T) {
	var in bytes.Buffer
	in.Write(frameRequest(t, 1, "threads", nil))
	in.Write(frameRequest(t, 2, "stackTrace", map[string]interface{}{"threadId": 1}))
	in.Write(frameRequest(t, 3, "scopes", map[string]interface{}{"frameId": 1}))
	in.Write(frameRequest(t, 4, "variables", map[string]interface{}{"variablesReference": 1001}))
	in.Write(frameRequest(t, 5, "evaluate", map[string]interface{}{"expression": "1+1"}))

	var out bytes.Buffer
	s := NewServer(NewMockEngine(), &out)
	require.NoError(t, s.Run(&in))

	msgs := readAllFrames(t, out.Bytes())
	threads := msgs[0]["body"].(map[string]interface{})["threads"].([]interface{})
	require.Len(t, threads, 1)

	frames := msgs[1]["body"].(map[string]interface{})["stackFrames"].([]interface{})
	require.Len(t, frames, 1)

	scopes := msgs[2]["body"].(map[string]interface{})["scopes"].([]interface{})
	require.Len(t, scopes, 2)

	vars := msgs[3]["body"].(map[string]interface{})["variables"].([]interface{})
	require.Len(t, vars, 2)

	evalBody := msgs[4]["body"].(map[string]interface{})
	require.Equal(t, `"1+1"`, evalBody["result"])
}

func TestServerMaxStepsBudget(t *testing.T) {
	var in bytes.Buffer
	in.Write(frameRequest(t, 1, "next", nil))
	in.Write(frameRequest(t, 2, "next", nil))

	var out bytes.Buffer
	s := NewServer(NewMockEngine(), &out)
	s.MaxSteps = 1
	require.NoError(t, s.Run(&in))

	msgs := readAllFrames(t, out.Bytes())
	// first "next": response(success) + stopped event.
	require.Equal(t, true, msgs[0]["success"])
	require.Equal(t, "event", msgs[1]["type"])
	// second "next": budget exhausted, no stopped event follows.
	require.Equal(t, false, msgs[2]["success"])
	require.Equal(t, "step budget exhausted", msgs[2]["message"])
	require.Len(t, msgs, 3)
}
