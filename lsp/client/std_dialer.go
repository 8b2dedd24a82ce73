package client

import (
	"context"
	"errors"
	"io"
)

// StdDialer proxies an existing pair of pipes, such as the stdio of a server
// started by someone else.
type StdDialer struct {
	Stdin  io.WriteCloser
	Stdout io.ReadCloser
}

func NewStdDialer(stdin io.WriteCloser, stdout io.ReadCloser) *StdDialer {
	return &StdDialer{Stdin: stdin, Stdout: stdout}
}

func (rwc *StdDialer) Read(p []byte) (int, error) {
	return rwc.Stdout.Read(p)
}

func (rwc *StdDialer) Write(p []byte) (int, error) {
	return rwc.Stdin.Write(p)
}

func (rwc *StdDialer) Close() error {
	inErr := rwc.Stdin.Close()
	outErr := rwc.Stdout.Close()
	if inErr != nil || outErr != nil {
		return errors.Join(inErr, outErr)
	}
	return nil
}

// Dial returns the dialer itself, it is already a ReadWriteCloser.
func (rwc *StdDialer) Dial(ctx context.Context) (io.ReadWriteCloser, error) {
	return rwc, nil
}
