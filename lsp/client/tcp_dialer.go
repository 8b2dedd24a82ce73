package client

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"
)

// TCPDialer connects to a language server listening on a socket, e.g. one
// started with `--port`.
type TCPDialer struct {
	Address string
	Timeout time.Duration
}

func NewTCPDialer(address string) *TCPDialer {
	return &TCPDialer{Address: address, Timeout: 10 * time.Second}
}

func (d *TCPDialer) Dial(ctx context.Context) (io.ReadWriteCloser, error) {
	dialer := net.Dialer{Timeout: d.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", d.Address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", d.Address, err)
	}
	return conn, nil
}

// DialerFor picks the dialer a Config describes.
func DialerFor(c Config) Dialer {
	if c.LspServerAddress != "" {
		return NewTCPDialer(c.LspServerAddress)
	}
	return NewCmdDialer(c.LspServerPath, c.LspServerArgs...)
}
