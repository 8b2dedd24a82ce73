package fakeserver

import (
	"context"
	"encoding/json"

	"github.com/konveyor/progress-bridge/jsonrpc2"
	"github.com/konveyor/progress-bridge/lsp/protocol"
)

type handler struct {
	jsonrpc2.EmptyHandler
	server *Server
}

// Deliver replies on separate goroutines so the reader never blocks on a
// synchronous pipe.
func (h *handler) Deliver(ctx context.Context, r *jsonrpc2.Request, delivered bool) bool {
	if delivered {
		return false
	}
	s := h.server
	switch r.Method {
	case "initialize":
		var params protocol.InitializeParams
		if r.Params != nil {
			if err := json.Unmarshal(*r.Params, &params); err != nil {
				go r.Reply(ctx, nil, jsonrpc2.NewErrorf(jsonrpc2.CodeInvalidParams, "%v", err))
				return true
			}
		}
		s.mu.Lock()
		s.initParams = &params
		result := protocol.InitializeResult{
			Capabilities: s.capabilities,
			ServerInfo:   &protocol.ServerInfo{Name: "fakeserver", Version: "0.0.1"},
		}
		s.mu.Unlock()
		go r.Reply(ctx, result, nil)
	case "initialized":
		s.initializedOnce.Do(func() { close(s.initialized) })
	case "shutdown":
		s.mu.Lock()
		s.shutdown = true
		s.mu.Unlock()
		go r.Reply(ctx, nil, nil)
	case "exit":
		go s.Close()
	case protocol.MethodWorkDoneProgressCancel:
		var params protocol.WorkDoneProgressCancelParams
		if r.Params == nil || json.Unmarshal(*r.Params, &params) != nil {
			return true
		}
		s.mu.Lock()
		s.cancels = append(s.cancels, params.Token)
		fn := s.onCancel
		s.mu.Unlock()
		if fn != nil {
			go fn(params.Token)
		}
	default:
		return false
	}
	return true
}
