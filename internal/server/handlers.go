package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yerffejytnac/exif-mcp/internal/meta"
	"github.com/yerffejytnac/exif-mcp/internal/segment"
	"github.com/yerffejytnac/exif-mcp/internal/source"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "read_metadata", "read_gps").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// errUnknownTool marks a tools/call naming a tool this server does not
// expose. It maps to a protocol error rather than a tool failure.
var errUnknownTool = errors.New("unknown tool")

// imageContent marks a tool result that is returned as MCP image content
// rather than JSON text.
type imageContent struct {
	Data     []byte
	MIMEType string
}

// handleToolsCall processes a tools/call request and executes the
// specified tool.
//
// A successful run wraps the result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Image results use an image content entry with base64 data instead. A
// failed run still returns a result, flagged isError with the failure
// text as its content, so clients surface it as tool output. Only
// malformed params and unknown tool names become JSON-RPC errors.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		if errors.Is(err, errUnknownTool) {
			return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
		}
		return s.toolErrorResponse(req.ID, err)
	}

	return s.toolResultResponse(req.ID, result)
}

// executeTool dispatches tool execution to the appropriate handler
// function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Resolves the image source to raw bytes
//  3. Calls the appropriate meta function
//  4. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Combined and per-segment extraction
	case "read_metadata":
		return s.handleReadMetadata(ctx, args)
	case "read_exif":
		return s.handleReadEXIF(ctx, args)
	case "read_xmp":
		return s.handleReadXMP(ctx, args)
	case "read_icc":
		return s.handleSingleSegment(ctx, args, "read_icc", segment.ICC)
	case "read_iptc":
		return s.handleSingleSegment(ctx, args, "read_iptc", segment.IPTC)
	case "read_jfif":
		return s.handleSingleSegment(ctx, args, "read_jfif", segment.JFIF)
	case "read_ihdr":
		return s.handleSingleSegment(ctx, args, "read_ihdr", segment.IHDR)

	// Derived queries
	case "read_orientation":
		return s.handleReadOrientation(ctx, args)
	case "read_rotation_info":
		return s.handleReadRotationInfo(ctx, args)
	case "read_gps":
		return s.handleReadGPS(ctx, args)
	case "read_thumbnail":
		return s.handleReadThumbnail(ctx, args)

	default:
		return nil, fmt.Errorf("%w: %s", errUnknownTool, name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// toolResultResponse wraps a successful tool result in MCP content.
func (s *Server) toolResultResponse(id interface{}, result interface{}) *MCPResponse {
	var content []map[string]interface{}
	switch r := result.(type) {
	case *imageContent:
		content = []map[string]interface{}{
			{
				"type":     "image",
				"data":     base64.StdEncoding.EncodeToString(r.Data),
				"mimeType": r.MIMEType,
			},
		}
	default:
		content = []map[string]interface{}{
			{
				"type": "text",
				"text": mustMarshalJSON(result),
			},
		}
	}
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result: map[string]interface{}{
			"content": content,
		},
	}
}

// toolErrorResponse reports a failed tool run inside a result envelope,
// flagged isError, with the failure text as its content.
func (s *Server) toolErrorResponse(id interface{}, err error) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": err.Error(),
				},
			},
			"isError": true,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// operr prefixes a tool failure with the operation name. ErrNoMetadata
// passes through untouched: its text is the contract clients match on.
func operr(op string, err error) error {
	if errors.Is(err, meta.ErrNoMetadata) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

// parseSegments validates the requested segment names.
func parseSegments(names []string) ([]segment.Segment, error) {
	segs := make([]segment.Segment, 0, len(names))
	for _, name := range names {
		seg, err := segment.Parse(name)
		if err != nil {
			return nil, err
		}
		segs = append(segs, seg)
	}
	return segs, nil
}

// === Combined and Per-Segment Extraction Handlers ===

type readMetadataArgs struct {
	Source   source.Descriptor `json:"source"`
	Segments []string          `json:"segments,omitempty"`
}

func (s *Server) handleReadMetadata(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a readMetadataArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	segs, err := parseSegments(a.Segments)
	if err != nil {
		return nil, operr("read_metadata", err)
	}
	data, err := s.resolver.Resolve(ctx, a.Source)
	if err != nil {
		return nil, err
	}
	out, err := meta.Parse(data, segment.OptionsForSegments(segs))
	if err != nil {
		return nil, operr("read_metadata", err)
	}
	return out, nil
}

type readEXIFArgs struct {
	Source source.Descriptor `json:"source"`
	Pick   []string          `json:"pick,omitempty"`
}

func (s *Server) handleReadEXIF(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a readEXIFArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	data, err := s.resolver.Resolve(ctx, a.Source)
	if err != nil {
		return nil, err
	}
	out, err := meta.Parse(data, segment.OptionsForEXIF(a.Pick))
	if err != nil {
		return nil, operr("read_exif", err)
	}
	return out, nil
}

type readXMPArgs struct {
	Source       source.Descriptor `json:"source"`
	MultiSegment bool              `json:"multi_segment,omitempty"`
}

func (s *Server) handleReadXMP(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a readXMPArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	data, err := s.resolver.Resolve(ctx, a.Source)
	if err != nil {
		return nil, err
	}
	out, err := meta.Parse(data, segment.OptionsForXMP(a.MultiSegment))
	if err != nil {
		return nil, operr("read_xmp", err)
	}
	return out, nil
}

type sourceOnlyArgs struct {
	Source source.Descriptor `json:"source"`
}

// handleSingleSegment serves the tools that extract exactly one metadata
// block (read_icc, read_iptc, read_jfif, read_ihdr).
func (s *Server) handleSingleSegment(ctx context.Context, args json.RawMessage, op string, seg segment.Segment) (interface{}, error) {
	var a sourceOnlyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	data, err := s.resolver.Resolve(ctx, a.Source)
	if err != nil {
		return nil, err
	}
	out, err := meta.Parse(data, segment.OptionsForSingleSegment(seg))
	if err != nil {
		return nil, operr(op, err)
	}
	return out, nil
}

// === Derived Query Handlers ===

func (s *Server) handleReadOrientation(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a sourceOnlyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	data, err := s.resolver.Resolve(ctx, a.Source)
	if err != nil {
		return nil, err
	}
	orientation, err := meta.Orientation(data)
	if err != nil {
		return nil, operr("read_orientation", err)
	}
	return map[string]interface{}{"orientation": orientation}, nil
}

func (s *Server) handleReadRotationInfo(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a sourceOnlyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	data, err := s.resolver.Resolve(ctx, a.Source)
	if err != nil {
		return nil, err
	}
	info, err := meta.Rotation(data)
	if err != nil {
		return nil, operr("read_rotation_info", err)
	}
	return info, nil
}

func (s *Server) handleReadGPS(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a sourceOnlyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	data, err := s.resolver.Resolve(ctx, a.Source)
	if err != nil {
		return nil, err
	}
	pos, err := meta.GPS(data)
	if err != nil {
		return nil, operr("read_gps", err)
	}
	return pos, nil
}

type readThumbnailArgs struct {
	Source               source.Descriptor `json:"source"`
	NormalizeOrientation bool              `json:"normalize_orientation,omitempty"`
}

func (s *Server) handleReadThumbnail(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a readThumbnailArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	data, err := s.resolver.Resolve(ctx, a.Source)
	if err != nil {
		return nil, err
	}
	thumb, err := meta.Thumbnail(data, a.NormalizeOrientation)
	if err != nil {
		return nil, operr("read_thumbnail", err)
	}
	return &imageContent{Data: thumb.Data, MIMEType: thumb.MIMEType}, nil
}
