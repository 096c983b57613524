package mcp

import "encoding/json"

// Method is an MCP method identifier used in JSON-RPC messages.
type Method string

// MCP method names and notifications.
const (
	// Initialization
	InitializeMethod Method = "initialize"

	// Tools
	ToolsListMethod                    Method = "tools/list"
	ToolsCallMethod                    Method = "tools/call"
	ToolsListChangedNotificationMethod Method = "notifications/tools/list_changed"

	// Resources
	ResourcesListMethod                    Method = "resources/list"
	ResourcesReadMethod                    Method = "resources/read"
	ResourcesListChangedNotificationMethod Method = "notifications/resources/list_changed"
)

// InitializeRequest starts the MCP initialization handshake. The host does
// not negotiate, so the fields are informational only.
type InitializeRequest struct {
	ProtocolVersion string             `json:"protocolVersion"`
	ClientInfo      ImplementationInfo `json:"clientInfo"`
}

// InitializeResult returns the advertised capabilities and server info.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      ImplementationInfo `json:"serverInfo"`
}

// Tools

// ListToolsResult returns every registered tool definition.
type ListToolsResult struct {
	Tools []json.RawMessage `json:"tools"`
}

// CallToolRequest invokes a tool by name with arguments.
type CallToolRequest struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// CallToolResult returns the content produced by a tool.
type CallToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitzero"`
}

// Resources

// ListResourcesResult returns every registered resource definition.
type ListResourcesResult struct {
	Resources []json.RawMessage `json:"resources"`
}

// ReadResourceRequest reads a resource by URI.
type ReadResourceRequest struct {
	URI string `json:"uri"`
}

// ReadResourceResult contains the resource contents.
type ReadResourceResult struct {
	Contents []ResourceContents `json:"contents"`
}

// ListChangedNotification is the (empty) params object of both
// list_changed notifications.
type ListChangedNotification struct{}
