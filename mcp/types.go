package mcp

// LatestProtocolVersion is the protocol revision advertised by initialize.
const LatestProtocolVersion = "2024-11-05"

// Content type discriminators for ContentBlock.
const (
	ContentTypeText = "text"
)

// ServerCapabilities advertises the features the host supports.
type ServerCapabilities struct {
	Tools     *ToolsCapability     `json:"tools,omitempty"`
	Resources *ResourcesCapability `json:"resources,omitempty"`
}

// ToolsCapability describes tool support.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged"`
}

// ResourcesCapability describes resource support.
type ResourcesCapability struct {
	ListChanged bool `json:"listChanged"`
}

// ImplementationInfo names a client or server implementation.
type ImplementationInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ContentBlock is a typed content part of a tool result.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitzero"`
}

// ResourceContents is the text body of a resource read.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitzero"`
	Text     string `json:"text,omitzero"`
}
