package server

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/image-pipeline/internal/codec"
)

// callTool sends a tools/call request and decodes the text content of
// the response into out.
func callTool(t *testing.T, s *Server, name string, args interface{}, out interface{}) *MCPResponse {
	t.Helper()

	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, _ := json.Marshal(params)

	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil || out == nil {
		return resp
	}

	result := resp.Result.(map[string]interface{})
	content := result["content"].([]map[string]interface{})
	if len(content) != 1 {
		t.Fatalf("content: got %d entries, want 1", len(content))
	}
	text := content[0]["text"].(string)
	if err := json.Unmarshal([]byte(text), out); err != nil {
		t.Fatalf("failed to decode result %q: %v", text, err)
	}
	return resp
}

func TestHandleToolsCall_PipelineRun(t *testing.T) {
	s := newTestServer()
	target := filepath.Join(t.TempDir(), "out.miff")

	var res RunResult
	resp := callTool(t, s, "pipeline_run", map[string]interface{}{
		"args": []string{"-size", "8x6", "xc:red", "-resize", "50%", "-print", "%wx%h", target},
	}, &res)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}

	if res.ExitStatus != 0 {
		t.Errorf("ExitStatus: got %d, want 0 (%+v)", res.ExitStatus, res.Exceptions)
	}
	if res.Output != "4x3" {
		t.Errorf("Output: got %q, want 4x3", res.Output)
	}
	if len(res.Images) != 1 || res.Images[0].Width != 4 || res.Images[0].Height != 3 {
		t.Errorf("Images: got %+v", res.Images)
	}
	if _, err := os.Stat(target); err != nil {
		t.Errorf("output not written: %v", err)
	}
}

func TestHandleToolsCall_PipelineRunExceptions(t *testing.T) {
	s := newTestServer()

	var res RunResult
	callTool(t, s, "pipeline_run", map[string]interface{}{
		"args":       []string{"xc:red", ")", "-flip"},
		"write_last": false,
	}, &res)

	if res.ExitStatus != 1 {
		t.Errorf("ExitStatus: got %d, want 1", res.ExitStatus)
	}
	if len(res.Exceptions) != 1 {
		t.Fatalf("Exceptions: got %+v, want one", res.Exceptions)
	}
	e := res.Exceptions[0]
	if e.Reason != "UnbalancedParenthesis" || e.Severity != "fatal" || e.Option != ")" {
		t.Errorf("exception: got %+v", e)
	}
	if !strings.Contains(e.Location, "CLI arg 1") {
		t.Errorf("Location: got %q", e.Location)
	}
}

func TestHandleToolsCall_PipelineRunEmpty(t *testing.T) {
	s := newTestServer()
	resp := callTool(t, s, "pipeline_run", map[string]interface{}{"args": []string{}}, nil)
	if resp.Error == nil || resp.Error.Code != -32000 {
		t.Fatalf("expected tool error, got %+v", resp)
	}
}

func TestHandleToolsCall_PipelineScript(t *testing.T) {
	s := newTestServer()

	var res RunResult
	callTool(t, s, "pipeline_script", map[string]interface{}{
		"script": "# two frames\nrose: -size 5x5 xc:blue\n-print '%n'\n",
	}, &res)

	if res.ExitStatus != 0 || len(res.Exceptions) != 0 {
		t.Fatalf("unexpected exceptions: %+v", res.Exceptions)
	}
	if res.Output != "2" {
		t.Errorf("Output: got %q, want 2", res.Output)
	}
	if len(res.Images) != 2 || res.Images[0].Width != 70 {
		t.Errorf("Images: got %+v", res.Images)
	}
}

func TestHandleToolsCall_PipelineList(t *testing.T) {
	s := newTestServer()

	var res ListResult
	callTool(t, s, "pipeline_list", map[string]interface{}{"category": "dispose"}, &res)
	want := map[string]bool{"Undefined": true, "None": true, "Background": true, "Previous": true}
	if len(res.Entries) != len(want) {
		t.Fatalf("Entries: got %v", res.Entries)
	}
	for _, e := range res.Entries {
		if !want[e] {
			t.Errorf("unexpected entry %q", e)
		}
	}

	resp := callTool(t, s, "pipeline_list", map[string]interface{}{"category": "bogus"}, nil)
	if resp.Error == nil {
		t.Error("expected an error for an unknown category")
	}
}

func TestHandleToolsCall_ImageInfo(t *testing.T) {
	s := newTestServer()

	var infos []codec.Info
	callTool(t, s, "image_info", map[string]interface{}{"path": "rose:"}, &infos)
	if len(infos) != 1 {
		t.Fatalf("got %d frames, want 1", len(infos))
	}
	if infos[0].Width != 70 || infos[0].Height != 46 || infos[0].Format != "ROSE" {
		t.Errorf("info: got %+v", infos[0])
	}

	resp := callTool(t, s, "image_info", map[string]interface{}{"path": filepath.Join(t.TempDir(), "absent.png")}, nil)
	if resp.Error == nil || resp.Error.Code != -32000 {
		t.Errorf("expected tool error, got %+v", resp)
	}
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	s := newTestServer()
	resp := callTool(t, s, "image_ocr_full", map[string]interface{}{}, nil)
	if resp.Error == nil || resp.Error.Code != -32000 {
		t.Fatalf("expected tool error, got %+v", resp)
	}
	if !strings.Contains(resp.Error.Data.(string), "unknown tool") {
		t.Errorf("Data: got %v", resp.Error.Data)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer()
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: []byte(`[1,2]`)})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Fatalf("expected invalid params, got %+v", resp)
	}
}
