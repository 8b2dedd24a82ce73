// Package client connects to one language server and feeds its work-done
// progress into a workdone.Registry.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/konveyor/progress-bridge/jsonrpc2"
	"github.com/konveyor/progress-bridge/lsp/protocol"
	"github.com/konveyor/progress-bridge/workdone"
)

const shutdownTimeout = 5 * time.Second

// Client is a language-server session. It implements workdone.Canceller so
// the registry can send cancel requests back through it.
type Client struct {
	log    logr.Logger
	config Config
	dialer Dialer

	rwc    io.ReadWriteCloser
	conn   *jsonrpc2.Conn
	cancel context.CancelFunc
	done   chan struct{}
	runErr error

	tempDir string

	// wire form of every token seen, so cancel echoes the server's type
	tokensMu sync.Mutex
	tokens   map[workdone.Token]protocol.ProgressToken

	stopOnce sync.Once

	ServerCapabilities protocol.ServerCapabilities
	ServerInfo         *protocol.ServerInfo
}

var _ workdone.Canceller = &Client{}

// New validates cfg and prepares a client. A nil dialer selects one from cfg.
func New(log logr.Logger, cfg Config, dialer Dialer) (*Client, error) {
	if dialer == nil {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		dialer = DialerFor(cfg)
	} else if cfg.LspServerName == "" {
		cfg.LspServerName = "generic"
	}
	return &Client{
		log:    log.WithValues("server", cfg.LspServerName),
		config: cfg,
		dialer: dialer,
		done:   make(chan struct{}),
		tokens: map[workdone.Token]protocol.ProgressToken{},
	}, nil
}

func (c *Client) Name() string {
	return c.config.LspServerName
}

// Start dials the server, installs the progress handler bound to registry and
// performs the initialize handshake advertising window.workDoneProgress.
func (c *Client) Start(ctx context.Context, registry *workdone.Registry) error {
	if c.conn != nil {
		return fmt.Errorf("client for %s already started", c.config.LspServerName)
	}

	rwc, err := c.dialer.Dial(ctx)
	if err != nil {
		return fmt.Errorf("dial error: %w", err)
	}
	c.rwc = rwc

	runCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.conn = jsonrpc2.NewConn(jsonrpc2.NewHeaderStream(rwc, rwc), c.log)
	c.conn.AddHandler(jsonrpc2.NewLogHandler(c.log))
	c.conn.AddHandler(&progressHandler{client: c, registry: registry, log: c.log})

	go func() {
		defer close(c.done)
		err := c.conn.Run(runCtx)
		if err != nil && !jsonrpc2.IsRPCClosed(err) && runCtx.Err() == nil {
			c.log.Error(err, "language server connection failed")
		}
		c.runErr = err
		c.log.V(3).Info("language server connection closed")
	}()

	params, err := c.initializeParams()
	if err != nil {
		c.close()
		return err
	}

	var result protocol.InitializeResult
	if err := c.conn.Call(ctx, "initialize", params, &result); err != nil {
		c.close()
		b, _ := json.Marshal(params)
		return fmt.Errorf("initialize request error: %w, initializeParams: %s", err, string(b))
	}
	c.ServerCapabilities = result.Capabilities
	c.ServerInfo = result.ServerInfo

	if err := c.conn.Notify(ctx, "initialized", protocol.InitializedParams{}); err != nil {
		c.close()
		return fmt.Errorf("initialized notification error: %w", err)
	}

	c.log.V(2).Info("language server connection initialized")
	return nil
}

func (c *Client) initializeParams() (protocol.InitializeParams, error) {
	root, folders, tempDir, err := c.config.rootURI()
	if err != nil {
		return protocol.InitializeParams{}, err
	}
	c.tempDir = tempDir

	params := protocol.InitializeParams{
		ProcessID:  int32(os.Getpid()),
		ClientInfo: &protocol.ClientInfo{Name: "progress-bridge"},
		RootURI:    string(root),
		Capabilities: protocol.ClientCapabilities{
			Window: &protocol.WindowClientCapabilities{WorkDoneProgress: true},
		},
	}
	for _, f := range folders {
		params.WorkspaceFolders = append(params.WorkspaceFolders, protocol.WorkspaceFolder{
			URI:  string(f),
			Name: f.Filename(),
		})
	}
	if c.config.InitializationOptions != "" {
		params.InitializationOptions = json.RawMessage(c.config.InitializationOptions)
	}
	return params, nil
}

// CancelRemote sends window/workDoneProgress/cancel for token.
func (c *Client) CancelRemote(ctx context.Context, token workdone.Token) error {
	if c.conn == nil {
		return fmt.Errorf("client for %s not started", c.config.LspServerName)
	}
	select {
	case <-c.done:
		return fmt.Errorf("connection to %s is closed", c.config.LspServerName)
	default:
	}
	params := protocol.WorkDoneProgressCancelParams{Token: c.wireToken(token)}
	if err := c.conn.Notify(ctx, protocol.MethodWorkDoneProgressCancel, params); err != nil {
		return fmt.Errorf("cancel %s: %w", token, err)
	}
	c.forget(token)
	return nil
}

// Done is closed once the connection to the server has ended.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err returns the error that ended the connection, after Done is closed.
func (c *Client) Err() error {
	select {
	case <-c.done:
		return c.runErr
	default:
		return nil
	}
}

// Stop asks the server to shut down and closes the connection. It is safe to
// call more than once.
func (c *Client) Stop(ctx context.Context) {
	c.stopOnce.Do(func() {
		if c.conn == nil {
			return
		}
		select {
		case <-c.done:
		default:
			if !c.ServerCapabilities.Supports("shutdown") {
				break
			}
			sctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			if err := c.conn.Call(sctx, "shutdown", nil, nil); err != nil {
				c.log.V(3).Info("shutdown request failed", "error", err.Error())
			} else if err := c.conn.Notify(sctx, "exit", nil); err != nil {
				c.log.V(3).Info("exit notification failed", "error", err.Error())
			}
			cancel()
		}
		c.close()
	})
}

func (c *Client) close() {
	if c.cancel != nil {
		c.cancel()
	}
	if c.rwc != nil {
		if err := c.rwc.Close(); err != nil && !jsonrpc2.IsRPCClosed(err) {
			c.log.V(3).Info("error closing language server stream", "error", err.Error())
		}
	}
	if c.conn != nil {
		select {
		case <-c.done:
		case <-time.After(shutdownTimeout):
			c.log.Info("timed out waiting for the connection to close")
		}
	}
	if c.tempDir != "" {
		os.RemoveAll(c.tempDir)
		c.tempDir = ""
	}
}

func (c *Client) remember(wire protocol.ProgressToken) {
	token, ok := workdone.NormalizeToken(wire.Value)
	if !ok {
		return
	}
	c.tokensMu.Lock()
	defer c.tokensMu.Unlock()
	c.tokens[token] = wire
}

func (c *Client) forget(token workdone.Token) {
	c.tokensMu.Lock()
	defer c.tokensMu.Unlock()
	delete(c.tokens, token)
}

// wireToken recovers the token as the server sent it. Unknown tokens that
// look like integers are sent as integers.
func (c *Client) wireToken(token workdone.Token) protocol.ProgressToken {
	c.tokensMu.Lock()
	wire, ok := c.tokens[token]
	c.tokensMu.Unlock()
	if ok {
		return wire
	}
	if i, err := strconv.ParseInt(token.String(), 10, 64); err == nil {
		return protocol.NewIntToken(i)
	}
	return protocol.NewStringToken(token.String())
}
