// Package server implements the MCP (Model Context Protocol) front-end of
// imgpipe.
//
// This package provides a JSON-RPC 2.0 server that runs image pipelines on
// behalf of MCP-compatible clients.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - pipeline_run: Run command-line arguments as a pipeline
//   - pipeline_script: Run a pipeline script
//   - pipeline_list: List a category (options, formats, colors, keywords)
//   - image_info: Describe the frames of an image
//
// Each pipeline call gets a fresh CLI with the configured defaults. The
// image registry (pattern and texture images, registry: values) lives as
// long as the server.
//
// # Error Handling
//
// Malformed calls are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// Exceptions raised while a pipeline runs are not protocol errors. They
// are listed in the result together with the exit status.
//
// # Usage
//
//	srv := server.New(cfg, logger, version)
//	if err := srv.Run(ctx, os.Stdin, os.Stdout); err != nil {
//	    log.Fatal(err)
//	}
package server
