package protocol

import "encoding/json"

// ServerCapabilities keeps the handful of capabilities the bridge looks at;
// everything else the server advertises is preserved raw.
type ServerCapabilities struct {
	ExecuteCommandProvider  *json.RawMessage `json:"executeCommandProvider,omitempty"`
	WorkspaceSymbolProvider *json.RawMessage `json:"workspaceSymbolProvider,omitempty"`
	TextDocumentSync        *json.RawMessage `json:"textDocumentSync,omitempty"`
}

// Supports reports whether the server advertised the given method. Servers,
// such as pylsp, crash when given a method they do not support.
func (c *ServerCapabilities) Supports(method string) bool {
	switch method {
	case "shutdown", "exit", "initialized":
		// lifecycle methods every server must accept
		return true
	case "workspace/executeCommand":
		return present(c.ExecuteCommandProvider)
	case "workspace/symbol":
		return present(c.WorkspaceSymbolProvider)
	case MethodWorkDoneProgressCancel:
		// a client notification, always accepted once the client advertised
		// window.workDoneProgress
		return true
	}
	return false
}

// present treats a missing value, null and false as "not supported".
func present(raw *json.RawMessage) bool {
	if raw == nil {
		return false
	}
	switch string(*raw) {
	case "", "null", "false":
		return false
	}
	return true
}
