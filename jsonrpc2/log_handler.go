package jsonrpc2

import (
	"context"
	"encoding/json"

	"github.com/go-logr/logr"
)

// LogHandler logs the traffic flowing through a Conn. It never delivers a
// request, so it can sit in front of any other handler.
type LogHandler struct {
	EmptyHandler
	logger logr.Logger
}

var _ Handler = &LogHandler{}

func NewLogHandler(log logr.Logger) *LogHandler {
	return &LogHandler{logger: log}
}

func (l *LogHandler) Request(ctx context.Context, conn *Conn, direction Direction, r *WireRequest) context.Context {
	l.logger.V(7).Info("rpc request", "direction", direction.String(), "method", r.Method, "id", r.ID.String(), "params", rawString(r.Params))
	return ctx
}

func (l *LogHandler) Response(ctx context.Context, conn *Conn, direction Direction, r *WireResponse) context.Context {
	kv := []interface{}{"direction", direction.String(), "id", r.ID.String()}
	if r.Error != nil {
		kv = append(kv, "error", r.Error.Message, "code", r.Error.Code)
	}
	l.logger.V(7).Info("rpc response", kv...)
	return ctx
}

// Error is called for messages that could not be decoded or routed.
func (l *LogHandler) Error(ctx context.Context, err error) {
	l.logger.V(5).Info("rpc error", "error", err.Error())
}

func rawString(raw *json.RawMessage) string {
	if raw == nil {
		return ""
	}
	return string(*raw)
}
