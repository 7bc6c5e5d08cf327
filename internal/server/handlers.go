package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ironsheep/image-pipeline/internal/codec"
	"github.com/ironsheep/image-pipeline/internal/exception"
	"github.com/ironsheep/image-pipeline/internal/pipeline"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "pipeline_run", "image_info").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// toolsCall runs a tool and wraps its result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error with code -32000. A
// pipeline that records exceptions still succeeds; the exceptions are
// part of its result.
func (s *Server) toolsCall(ctx context.Context, raw json.RawMessage) (interface{}, *MCPError) {
	var params ToolCallParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, rpcError(codeInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		return nil, rpcError(codeToolFailed, "Tool execution failed", err.Error())
	}

	return map[string]interface{}{
		"content": []map[string]interface{}{
			{
				"type": "text",
				"text": mustMarshalJSON(result),
			},
		},
	}, nil
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "pipeline_run":
		return s.handlePipelineRun(ctx, args)
	case "pipeline_script":
		return s.handlePipelineScript(ctx, args)
	case "pipeline_list":
		return s.handlePipelineList(args)
	case "image_info":
		return s.handleImageInfo(ctx, args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// ExceptionInfo is one recorded exception of a run.
type ExceptionInfo struct {
	Kind     string `json:"kind"`
	Severity string `json:"severity"`
	Reason   string `json:"reason"`
	Message  string `json:"message,omitempty"`
	Option   string `json:"option,omitempty"`
	Argument string `json:"argument,omitempty"`
	Location string `json:"location,omitempty"`
}

// RunResult is the outcome of pipeline_run and pipeline_script.
type RunResult struct {
	ExitStatus int             `json:"exit_status"`
	Output     string          `json:"output,omitempty"`
	Exceptions []ExceptionInfo `json:"exceptions"`
	Images     []codec.Info    `json:"images"`
}

// newCLI builds a pipeline whose printed output lands in out. Standard
// input is empty; a run cannot read the protocol stream.
func (s *Server) newCLI(ctx context.Context, out *bytes.Buffer) *pipeline.CLI {
	cd := codec.New(s.registry)
	cd.Stdin = strings.NewReader("")
	cd.Stdout = out
	opts := s.cfg.Options()
	opts.Codec = cd
	opts.Logger = s.log
	opts.Stdout = out
	opts.Stderr = io.Discard
	opts.Monitor = false
	return pipeline.New(ctx, opts)
}

func result(c *pipeline.CLI, out *bytes.Buffer) *RunResult {
	res := &RunResult{
		ExitStatus: c.ExitStatus(),
		Output:     out.String(),
		Exceptions: []ExceptionInfo{},
		Images:     []codec.Info{},
	}
	for _, e := range c.Sink().Entries() {
		res.Exceptions = append(res.Exceptions, exceptionInfo(e))
	}
	for _, img := range c.Images() {
		res.Images = append(res.Images, codec.InfoOf(img))
	}
	return res
}

func exceptionInfo(e exception.Exception) ExceptionInfo {
	info := ExceptionInfo{
		Kind:     string(e.Kind),
		Severity: e.Severity.String(),
		Reason:   string(e.Reason()),
		Option:   e.Option,
		Argument: e.Argument,
		Location: e.Location,
	}
	if msg := e.Err.Message(); msg != info.Reason {
		info.Message = msg
	}
	return info
}

type pipelineRunArgs struct {
	Args      []string `json:"args"`
	WriteLast *bool    `json:"write_last"`
}

func (s *Server) handlePipelineRun(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pipelineRunArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Args) == 0 {
		return nil, fmt.Errorf("args is empty")
	}
	flags := pipeline.ProcessImplicitRead
	if a.WriteLast == nil || *a.WriteLast {
		flags |= pipeline.ProcessImplicitWrite
	}

	var out bytes.Buffer
	c := s.newCLI(ctx, &out)
	defer c.Close()
	c.ProcessCommandOptions(a.Args, flags)
	return result(c, &out), nil
}

type pipelineScriptArgs struct {
	Script string `json:"script"`
	Name   string `json:"name"`
}

func (s *Server) handlePipelineScript(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pipelineScriptArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Name == "" {
		a.Name = "script"
	}

	var out bytes.Buffer
	c := s.newCLI(ctx, &out)
	defer c.Close()
	c.ProcessScript(strings.NewReader(a.Script), a.Name)
	return result(c, &out), nil
}

type pipelineListArgs struct {
	Category string `json:"category"`
}

// ListResult holds the lines of a category listing.
type ListResult struct {
	Category string   `json:"category"`
	Entries  []string `json:"entries"`
}

func (s *Server) handlePipelineList(args json.RawMessage) (interface{}, error) {
	var a pipelineListArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	var b bytes.Buffer
	if err := pipeline.ListCategory(&b, a.Category); err != nil {
		return nil, err
	}
	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	return &ListResult{Category: a.Category, Entries: lines}, nil
}

type imageInfoArgs struct {
	Path string `json:"path"`
	Ping bool   `json:"ping"`
}

func (s *Server) handleImageInfo(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageInfoArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	cd := codec.New(s.registry)
	cd.Stdin = strings.NewReader("")
	opts := codec.Options{}
	if a.Ping {
		opts[codec.OptPing] = "true"
	}
	imgs, err := cd.Decode(ctx, a.Path, opts)
	defer func() {
		for _, img := range imgs {
			img.Release()
		}
	}()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", a.Path, err)
	}
	infos := make([]codec.Info, len(imgs))
	for i, img := range imgs {
		infos[i] = codec.InfoOf(img)
	}
	return infos, nil
}
