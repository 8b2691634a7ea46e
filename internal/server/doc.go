// Package server implements the MCP (Model Context Protocol) server for
// image metadata extraction.
//
// This package provides a JSON-RPC 2.0 server that exposes metadata
// readers through the MCP protocol. It's designed to work with Claude and
// other MCP-compatible clients, enabling AI systems to inspect images
// without shipping pixel data around.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// An optional HTTP surface serves the same requests one-per-POST at /rpc
// (see Router).
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// The server provides 11 metadata tools organized into two groups:
//
// Combined and per-segment extraction:
//   - read_metadata: Every segment, or a requested subset
//   - read_exif: EXIF/TIFF tags, with an optional pick list
//   - read_xmp: XMP packet as a flat property map
//   - read_icc: ICC color profile
//   - read_iptc: IPTC block
//   - read_jfif: JPEG APP0 JFIF header
//   - read_ihdr: PNG IHDR header
//
// Derived queries:
//   - read_orientation: EXIF orientation value (1-8)
//   - read_rotation_info: Upright transform for the orientation
//   - read_gps: Decimal-degree position
//   - read_thumbnail: Embedded EXIF preview, as image content
//
// # Image Sources
//
// Every tool takes a source descriptor instead of a bare path: a
// filesystem path, an http(s) or file URL, an inline base64 payload
// (optionally a data: URI), or raw base64 bytes. Resolution is handled
// by the source package; the server holds one resolver and each call
// loads its bytes fresh.
//
// # Error Handling
//
// A failed tool run is still a successful JSON-RPC response: the result
// carries isError with the failure text as content, so MCP clients
// surface it as tool output. Only protocol faults become JSON-RPC
// errors:
//   - code -32602: Malformed params or an unknown tool name
//   - code -32601: Unknown method
//   - code -32700: Unparseable request (HTTP transport)
//
// # Usage
//
// The server is typically started by an MCP client:
//
//	srv := server.New(source.NewResolver(source.Options{}))
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
