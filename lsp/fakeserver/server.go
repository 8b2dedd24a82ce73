// Package fakeserver is a scripted language server. Tests and the demo drive
// it to send work-done progress to a client and to observe what the client
// sends back.
package fakeserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/go-logr/logr"
	"github.com/konveyor/progress-bridge/jsonrpc2"
	"github.com/konveyor/progress-bridge/lsp/protocol"
)

type Server struct {
	log logr.Logger

	mu           sync.Mutex
	conn         *jsonrpc2.Conn
	rwc          io.ReadWriteCloser
	initParams   *protocol.InitializeParams
	cancels      []protocol.ProgressToken
	shutdown     bool
	onCancel     func(protocol.ProgressToken)
	capabilities protocol.ServerCapabilities

	initialized     chan struct{}
	initializedOnce sync.Once
	done            chan struct{}
}

func New(log logr.Logger) *Server {
	raw := json.RawMessage(`true`)
	return &Server{
		log:          log.WithName("fakeserver"),
		capabilities: protocol.ServerCapabilities{WorkspaceSymbolProvider: &raw},
		initialized:  make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// OnCancel registers fn to run, on its own goroutine, for every cancel
// request the client sends.
func (s *Server) OnCancel(fn func(protocol.ProgressToken)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onCancel = fn
}

// Dial implements the client's Dialer with an in-memory pipe.
func (s *Server) Dial(ctx context.Context) (io.ReadWriteCloser, error) {
	clientEnd, serverEnd := net.Pipe()
	conn := s.attach(serverEnd)
	go s.run(conn, serverEnd)
	return clientEnd, nil
}

// Serve speaks the protocol on rwc until the client goes away.
func (s *Server) Serve(rwc io.ReadWriteCloser) error {
	conn := s.attach(rwc)
	return s.run(conn, rwc)
}

func (s *Server) attach(rwc io.ReadWriteCloser) *jsonrpc2.Conn {
	conn := jsonrpc2.NewConn(jsonrpc2.NewHeaderStream(rwc, rwc), s.log)
	conn.AddHandler(&handler{server: s})
	s.mu.Lock()
	s.conn = conn
	s.rwc = rwc
	s.mu.Unlock()
	return conn
}

func (s *Server) run(conn *jsonrpc2.Conn, rwc io.ReadWriteCloser) error {
	defer close(s.done)
	err := conn.Run(context.Background())
	rwc.Close()
	if jsonrpc2.IsRPCClosed(err) {
		return nil
	}
	return err
}

// Close drops the connection, as if the server process died.
func (s *Server) Close() error {
	s.mu.Lock()
	rwc := s.rwc
	s.mu.Unlock()
	if rwc == nil {
		return nil
	}
	return rwc.Close()
}

// Done is closed when the connection has ended.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// WaitInitialized blocks until the client sent `initialized`.
func (s *Server) WaitInitialized(ctx context.Context) error {
	select {
	case <-s.initialized:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InitializeParams returns what the client sent in `initialize`.
func (s *Server) InitializeParams() *protocol.InitializeParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initParams
}

// Cancels returns the tokens of every cancel request received so far.
func (s *Server) Cancels() []protocol.ProgressToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]protocol.ProgressToken{}, s.cancels...)
}

// ShutdownReceived reports whether the client sent `shutdown`.
func (s *Server) ShutdownReceived() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdown
}

// Create sends window/workDoneProgress/create and waits for the reply.
func (s *Server) Create(ctx context.Context, token any) error {
	conn, err := s.connection()
	if err != nil {
		return err
	}
	params := protocol.WorkDoneProgressCreateParams{Token: WireToken(token)}
	return conn.Call(ctx, protocol.MethodWorkDoneProgressCreate, params, nil)
}

func (s *Server) Begin(ctx context.Context, token any, title string, cancellable bool, percentage *uint32, message string) error {
	return s.Progress(ctx, token, protocol.WorkDoneProgressBegin{
		Kind:        protocol.KindBegin,
		Title:       title,
		Cancellable: cancellable,
		Percentage:  percentage,
		Message:     message,
	})
}

func (s *Server) Report(ctx context.Context, token any, percentage *uint32, message string) error {
	return s.Progress(ctx, token, protocol.WorkDoneProgressReport{
		Kind:       protocol.KindReport,
		Percentage: percentage,
		Message:    message,
	})
}

func (s *Server) End(ctx context.Context, token any) error {
	return s.Progress(ctx, token, protocol.WorkDoneProgressEnd{Kind: protocol.KindEnd})
}

// Progress sends a `$/progress` notification with an arbitrary value.
func (s *Server) Progress(ctx context.Context, token any, value any) error {
	conn, err := s.connection()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return conn.Notify(ctx, protocol.MethodProgress, protocol.ProgressParams{Token: WireToken(token), Value: raw})
}

func (s *Server) LogMessage(ctx context.Context, typ protocol.MessageType, message string) error {
	conn, err := s.connection()
	if err != nil {
		return err
	}
	return conn.Notify(ctx, "window/logMessage", protocol.LogMessageParams{Type: typ, Message: message})
}

// Notify sends an arbitrary notification, for traffic the typed helpers
// cannot express.
func (s *Server) Notify(ctx context.Context, method string, params any) error {
	conn, err := s.connection()
	if err != nil {
		return err
	}
	return conn.Notify(ctx, method, params)
}

// Call sends an arbitrary request and waits for the reply.
func (s *Server) Call(ctx context.Context, method string, params, result any) error {
	conn, err := s.connection()
	if err != nil {
		return err
	}
	return conn.Call(ctx, method, params, result)
}

func (s *Server) connection() (*jsonrpc2.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil, fmt.Errorf("fake server has no client")
	}
	return s.conn, nil
}

// WireToken converts a Go value to a progress token. Integers of any width
// become integer tokens.
func WireToken(token any) protocol.ProgressToken {
	switch t := token.(type) {
	case protocol.ProgressToken:
		return t
	case int:
		return protocol.NewIntToken(int64(t))
	case int32:
		return protocol.NewIntToken(int64(t))
	case int64:
		return protocol.NewIntToken(t)
	case string:
		return protocol.NewStringToken(t)
	default:
		return protocol.ProgressToken{Value: token}
	}
}
