package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var sourceProperty = map[string]interface{}{
	"type":        "string",
	"description": "Image path relative to the images base directory, e.g. /animals/cat.jpg",
}

var styleProperty = map[string]interface{}{
	"type":        "string",
	"description": "Name of a configured image style",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Style catalog
		{
			Name:        "style_list",
			Description: "List every configured image style with its resolved action pipeline and any configuration problems.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "style_resolve",
			Description: "Resolve one image style: expand its macros and validate every action against the operation table.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"style": styleProperty,
				},
				"required": []string{"style"},
			},
		},

		// Derivatives
		{
			Name:        "derivative_path",
			Description: "Compute where the derivative of an image for a style is stored, and whether it already exists. Nothing is generated.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"source": sourceProperty,
					"style":  styleProperty,
				},
				"required": []string{"source", "style"},
			},
		},
		{
			Name:        "derivative_generate",
			Description: "Resolve an image request exactly as the HTTP server would: serve the cached derivative or generate it now. An unknown style resolves to the source image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"source": sourceProperty,
					"style":  styleProperty,
				},
				"required": []string{"source", "style"},
			},
		},
		{
			Name:        "style_preview",
			Description: "Apply a style to an image in memory and return the result as base64 without writing anything to disk.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"source": sourceProperty,
					"style":  styleProperty,
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor applied after the style. Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"source", "style"},
			},
		},

		// Images
		{
			Name:        "image_info",
			Description: "Get the dimensions, format, file size and dominant colours of a source image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"source": sourceProperty,
					"palette": map[string]interface{}{
						"type":        "integer",
						"description": "Number of dominant colours to return (default 5, 0 for the default)",
						"default":     5,
					},
				},
				"required": []string{"source"},
			},
		},
		{
			Name:        "image_markup",
			Description: "Compute img src/srcset/sizes attributes for an image rendered with an image style or a responsive style.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"src": map[string]interface{}{
						"type":        "string",
						"description": "Image source as written in content, optionally with ?style=",
					},
					"style": styleProperty,
					"responsive_style": map[string]interface{}{
						"type":        "string",
						"description": "Name of a configured responsive style; takes precedence over style",
					},
					"route": map[string]interface{}{
						"type":        "string",
						"description": "Route path of the rendering page",
					},
				},
				"required": []string{"src"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
