package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// sourceSchema is the JSON schema shared by every tool's source argument.
func sourceSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": "Where to load the image from",
		"properties": map[string]interface{}{
			"kind": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"path", "url", "base64", "buffer"},
				"description": "Which payload field carries the image",
			},
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Filesystem path to the image (kind=path)",
			},
			"url": map[string]interface{}{
				"type":        "string",
				"description": "http(s):// or file:// URL to fetch (kind=url)",
			},
			"base64": map[string]interface{}{
				"type":        "string",
				"description": "Base64 payload, raw or wrapped in a data: URI (kind=base64)",
			},
			"buffer": map[string]interface{}{
				"type":        "string",
				"description": "Base64-encoded raw bytes (kind=buffer)",
			},
		},
		"required": []string{"kind"},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Combined and Per-Segment Extraction
		{
			Name:        "read_metadata",
			Description: "Extract metadata from an image. By default every segment is read; pass segments to narrow the extraction (EXIF, GPS, XMP, ICC, IPTC, JFIF, IHDR).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"source": sourceSchema(),
					"segments": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "string",
							"enum": []string{"EXIF", "GPS", "XMP", "ICC", "IPTC", "JFIF", "IHDR"},
						},
						"description": "Segments to extract. Omit for all segments.",
					},
				},
				"required": []string{"source"},
			},
		},
		{
			Name:        "read_exif",
			Description: "Extract the EXIF (TIFF) block, including the GPS sub-directory. Pass pick to restrict the output to named tags.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"source": sourceSchema(),
					"pick": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Tag names to keep (e.g. [\"Make\", \"Orientation\"]). Omit for all tags.",
					},
				},
				"required": []string{"source"},
			},
		},
		{
			Name:        "read_xmp",
			Description: "Extract the XMP packet as a flat property map.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"source": sourceSchema(),
					"multi_segment": map[string]interface{}{
						"type":        "boolean",
						"description": "Reassemble ExtendedXMP packets split across multiple JPEG segments",
						"default":     false,
					},
				},
				"required": []string{"source"},
			},
		},
		{
			Name:        "read_icc",
			Description: "Extract the ICC color profile header and its textual tags.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"source": sourceSchema(),
				},
				"required": []string{"source"},
			},
		},
		{
			Name:        "read_iptc",
			Description: "Extract the IPTC block (captions, keywords, credits).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"source": sourceSchema(),
				},
				"required": []string{"source"},
			},
		},
		{
			Name:        "read_jfif",
			Description: "Extract the JPEG APP0 JFIF header (version, pixel density, embedded thumbnail dimensions).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"source": sourceSchema(),
				},
				"required": []string{"source"},
			},
		},
		{
			Name:        "read_ihdr",
			Description: "Extract the PNG IHDR header (dimensions, bit depth, color type).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"source": sourceSchema(),
				},
				"required": []string{"source"},
			},
		},

		// Derived Queries
		{
			Name:        "read_orientation",
			Description: "Return the EXIF orientation value (1-8).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"source": sourceSchema(),
				},
				"required": []string{"source"},
			},
		},
		{
			Name:        "read_rotation_info",
			Description: "Return the transform that makes pixels upright for the image's EXIF orientation: rotation in degrees and radians, axis scales, and whether width and height swap.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"source": sourceSchema(),
				},
				"required": []string{"source"},
			},
		},
		{
			Name:        "read_gps",
			Description: "Return the GPS position in decimal degrees (south and west negative).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"source": sourceSchema(),
				},
				"required": []string{"source"},
			},
		},
		{
			Name:        "read_thumbnail",
			Description: "Extract the embedded EXIF thumbnail as image content.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"source": sourceSchema(),
					"normalize_orientation": map[string]interface{}{
						"type":        "boolean",
						"description": "Re-encode the thumbnail upright according to the image's orientation tag",
						"default":     false,
					},
				},
				"required": []string{"source"},
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
