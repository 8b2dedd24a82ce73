package jsonrpc2

import (
	"errors"
	"io"
	"net"
	"strings"
)

var errFileClosed = "file already closed"
var errBrokenPipe = "broken pipe"

// IsRPCClosed reports whether err means the other end of the stream went
// away, as opposed to a protocol failure.
func IsRPCClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var errMsg = err.Error()
	return strings.HasSuffix(errMsg, errFileClosed) || strings.HasSuffix(errMsg, errBrokenPipe)
}
