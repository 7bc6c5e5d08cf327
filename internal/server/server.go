package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ironsheep/image-pipeline/internal/codec"
	"github.com/ironsheep/image-pipeline/internal/config"
	"github.com/ironsheep/image-pipeline/internal/pipeline"
)

const protocolVersion = "2024-11-05"

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeToolFailed     = -32000
)

// Server runs pipelines on behalf of an MCP client.
type Server struct {
	cfg      *config.Config
	log      *pipeline.Logger
	registry *codec.Registry
	version  string
}

// MCPRequest is one JSON-RPC request or notification.
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse carries either a result or an error.
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError is a JSON-RPC error object.
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func rpcError(code int, message, data string) *MCPError {
	e := &MCPError{Code: code, Message: message}
	if data != "" {
		e.Data = data
	}
	return e
}

// method answers the params of one request.
type method func(s *Server, ctx context.Context, params json.RawMessage) (interface{}, *MCPError)

var methods = map[string]method{
	"initialize": (*Server).initialize,
	"ping": func(*Server, context.Context, json.RawMessage) (interface{}, *MCPError) {
		return map[string]interface{}{}, nil
	},
	"tools/list": (*Server).toolsList,
	"tools/call": (*Server).toolsCall,
}

// New creates a server running pipelines with the defaults of cfg. Every
// run shares one image registry, so patterns loaded by one call are
// reused by the next.
func New(cfg *config.Config, log *pipeline.Logger, version string) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = pipeline.NewLogger(nil)
	}
	return &Server{
		cfg:      cfg,
		log:      log,
		registry: codec.NewRegistry(),
		version:  version,
	}
}

// Run answers the requests read from r, one per line, until r is
// exhausted or ctx is done. Pipelines started by tools/call run under ctx.
// Lines have no length limit, so a script may be sent in one request.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	in := bufio.NewReader(r)
	enc := json.NewEncoder(w)
	for ctx.Err() == nil {
		line, err := in.ReadBytes('\n')
		if line = bytes.TrimSpace(line); len(line) > 0 {
			if resp := s.answer(ctx, line); resp != nil {
				if werr := enc.Encode(resp); werr != nil {
					return fmt.Errorf("write response: %w", werr)
				}
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read request: %w", err)
		}
	}
	return nil
}

// answer decodes one line. A line that is not a request gets a parse
// error with a null id.
func (s *Server) answer(ctx context.Context, line []byte) *MCPResponse {
	var req MCPRequest
	if err := json.Unmarshal(line, &req); err != nil {
		s.log.Printf("unparsable request: %v", err)
		return &MCPResponse{JSONRPC: "2.0", Error: rpcError(codeParseError, "Parse error", err.Error())}
	}
	return s.handleRequest(ctx, &req)
}

// handleRequest returns nil for notifications.
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	s.log.Debugf("request %s", req.Method)
	if strings.HasPrefix(req.Method, "notifications/") {
		return nil
	}
	resp := &MCPResponse{JSONRPC: "2.0", ID: req.ID}
	m, ok := methods[req.Method]
	if !ok {
		resp.Error = rpcError(codeMethodNotFound, "Method not found: "+req.Method, "")
		return resp
	}
	result, rpcErr := m(s, ctx, req.Params)
	if rpcErr != nil {
		resp.Error = rpcErr
		return resp
	}
	resp.Result = result
	return resp
}

func (s *Server) initialize(context.Context, json.RawMessage) (interface{}, *MCPError) {
	return map[string]interface{}{
		"protocolVersion": protocolVersion,
		"capabilities": map[string]interface{}{
			"tools": map[string]interface{}{},
		},
		"serverInfo": map[string]interface{}{
			"name":    "imgpipe",
			"version": s.version,
		},
	}, nil
}
