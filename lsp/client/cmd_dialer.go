package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
)

// Dialer opens the byte stream to a language server.
type Dialer interface {
	Dial(ctx context.Context) (io.ReadWriteCloser, error)
}

// CmdDialer spawns the language server and talks to it over stdio. Closing
// the returned stream kills the process.
//
// NOTE: Dial should only be called once.
type CmdDialer struct {
	name string
	args []string

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
}

func NewCmdDialer(name string, arg ...string) *CmdDialer {
	return &CmdDialer{name: name, args: arg}
}

func (d *CmdDialer) Dial(ctx context.Context) (io.ReadWriteCloser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cmd != nil {
		return nil, fmt.Errorf("%s already started", d.name)
	}

	cmd := exec.CommandContext(ctx, d.name, d.args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", d.name, err)
	}

	d.cmd = cmd
	d.stdin = stdin
	d.stdout = stdout
	return d, nil
}

func (d *CmdDialer) Read(p []byte) (int, error) {
	return d.stdout.Read(p)
}

func (d *CmdDialer) Write(p []byte) (int, error) {
	return d.stdin.Write(p)
}

// Close closes stdin and kills the process if it has not exited yet.
func (d *CmdDialer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cmd == nil || d.cmd.Process == nil {
		return nil
	}
	d.stdin.Close()
	if err := d.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	err := d.cmd.Wait()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// killed on purpose
		return nil
	}
	return err
}
