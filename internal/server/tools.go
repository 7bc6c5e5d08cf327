package server

import (
	"context"
	"encoding/json"
)

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "pipeline_run",
			Description: "Run an image pipeline given as command-line arguments, e.g. [\"rose:\", \"-resize\", \"50%\", \"/tmp/out.png\"]. Arguments that are not options are read as images. Returns the exit status, printed output, exceptions and the final image list.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"args": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Options, arguments and image names in order",
					},
					"write_last": map[string]interface{}{
						"type":        "boolean",
						"description": "Write the final image list to the last argument. Default true",
						"default":     true,
					},
				},
				"required": []string{"args"},
			},
		},
		{
			Name:        "pipeline_script",
			Description: "Run an image pipeline script. Words are separated by blanks, quotes group words and '#' starts a comment.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"script": map[string]interface{}{
						"type":        "string",
						"description": "Script text",
					},
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Name used in exception locations. Default \"script\"",
					},
				},
				"required": []string{"script"},
			},
		},
		{
			Name:        "pipeline_list",
			Description: "List the entries of a category: option, format, color, compose, gravity, layers and the other keyword vocabularies. \"list\" names every category.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"category": map[string]interface{}{
						"type":        "string",
						"description": "Category name",
					},
				},
				"required": []string{"category"},
			},
		},
		{
			Name:        "image_info",
			Description: "Describe the frames of an image file: format, size, page geometry, depth, colorspace and properties. Pixels are not decoded when ping is set.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Image file or pseudo image such as rose:",
					},
					"ping": map[string]interface{}{
						"type":        "boolean",
						"description": "Read attributes only. Default false",
					},
				},
				"required": []string{"path"},
			},
		},
	}
}

func (s *Server) toolsList(context.Context, json.RawMessage) (interface{}, *MCPError) {
	return map[string]interface{}{"tools": GetToolDefinitions()}, nil
}
