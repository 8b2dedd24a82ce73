package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/konveyor/progress-bridge/jsonrpc2"
	"github.com/konveyor/progress-bridge/lsp/protocol"
	"github.com/konveyor/progress-bridge/workdone"
)

// progressHandler turns server-to-client progress traffic into registry
// calls. It runs on the connection's reader goroutine, so messages reach the
// registry in the order the server sent them.
type progressHandler struct {
	jsonrpc2.EmptyHandler
	client   *Client
	registry *workdone.Registry
	log      logr.Logger
}

func (h *progressHandler) Deliver(ctx context.Context, r *jsonrpc2.Request, delivered bool) bool {
	if delivered {
		return false
	}
	switch r.Method {
	case protocol.MethodWorkDoneProgressCreate:
		h.handleCreate(ctx, r)
	case protocol.MethodProgress:
		h.handleProgress(r)
	case "window/logMessage":
		var params protocol.LogMessageParams
		if err := unmarshalParams(r, &params); err != nil {
			h.log.V(5).Info("dropping malformed log message", "error", err.Error())
			return true
		}
		h.logMessage("server log", params.Type, params.Message)
	case "window/showMessage":
		var params protocol.ShowMessageParams
		if err := unmarshalParams(r, &params); err != nil {
			h.log.V(5).Info("dropping malformed show message", "error", err.Error())
			return true
		}
		h.logMessage("server message", params.Type, params.Message)
	default:
		return false
	}
	return true
}

func (h *progressHandler) handleCreate(ctx context.Context, r *jsonrpc2.Request) {
	var params protocol.WorkDoneProgressCreateParams
	if err := unmarshalParams(r, &params); err != nil {
		h.log.V(5).Info("rejecting malformed progress create", "error", err.Error())
		h.reply(ctx, r, jsonrpc2.NewErrorf(jsonrpc2.CodeInvalidParams, "%v", err))
		return
	}
	h.client.remember(params.Token)
	h.registry.CreateSession(params.Token.Value)
	h.reply(ctx, r, nil)
}

func (h *progressHandler) handleProgress(r *jsonrpc2.Request) {
	var params protocol.ProgressParams
	if err := unmarshalParams(r, &params); err != nil {
		h.log.V(5).Info("dropping malformed progress notification", "error", err.Error())
		return
	}
	value, err := protocol.DecodeWorkDoneProgress(params.Value)
	if err != nil {
		// partial results share $/progress; they are not ours to handle
		h.log.V(5).Info("dropping progress notification", "token", params.Token.Value, "error", err.Error())
		return
	}

	var n workdone.Notification
	switch v := value.(type) {
	case protocol.WorkDoneProgressBegin:
		h.client.remember(params.Token)
		n = workdone.Begin{Title: v.Title, Cancellable: v.Cancellable, Percentage: v.Percentage, Message: v.Message}
	case protocol.WorkDoneProgressReport:
		n = workdone.Report{Percentage: v.Percentage, Message: v.Message}
	case protocol.WorkDoneProgressEnd:
		if token, ok := workdone.NormalizeToken(params.Token.Value); ok {
			h.client.forget(token)
		}
		n = workdone.End{}
	}
	h.registry.NotifyProgress(params.Token.Value, n)
}

func (h *progressHandler) reply(ctx context.Context, r *jsonrpc2.Request, err error) {
	if replyErr := r.Reply(ctx, nil, err); replyErr != nil {
		h.log.V(3).Info("failed to reply", "method", r.Method, "error", replyErr.Error())
	}
}

func (h *progressHandler) logMessage(msg string, typ protocol.MessageType, text string) {
	switch typ {
	case protocol.Error:
		h.log.Error(fmt.Errorf("%s", text), msg)
	case protocol.Warning:
		h.log.Info(msg, "type", "warning", "message", text)
	case protocol.Info:
		h.log.V(3).Info(msg, "type", "info", "message", text)
	default:
		h.log.V(5).Info(msg, "type", "log", "message", text)
	}
}

func unmarshalParams(r *jsonrpc2.Request, v interface{}) error {
	if r.Params == nil {
		return fmt.Errorf("%s: missing params", r.Method)
	}
	if err := json.Unmarshal(*r.Params, v); err != nil {
		return fmt.Errorf("%s: %w", r.Method, err)
	}
	return nil
}
