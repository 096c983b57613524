// Package mcp contains the protocol data types and constants spoken by the
// katulong host. It mirrors the wire representation of the subset of the
// Model Context Protocol the host answers (initialize, tool and resource
// listing, tool calls and resource reads) while keeping the surface
// Go-friendly: exported structs with json tags and string constants for
// method names.
//
// The package is free of transport logic. The WebSocket server, the request
// dispatcher and the control surface import these types but do their own
// framing and session handling.
//
// # Method Names
//
// JSON-RPC method and notification names are enumerated as Method constants
// (e.g. ToolsListMethod). Using the constants avoids typographical mistakes
// and keeps a single point of truth.
//
// # Registry Documents
//
// Tool and resource definitions are opaque to the host. They are kept as
// json.RawMessage and returned verbatim in ListToolsResult and
// ListResourcesResult, so whatever shape the registering party chose is what
// clients see.
//
// Example (tool result construction):
//
//	res := &mcp.CallToolResult{
//	    Content: []mcp.ContentBlock{{Type: mcp.ContentTypeText, Text: "hello"}},
//	}
package mcp
