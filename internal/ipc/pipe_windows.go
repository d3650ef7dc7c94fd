//go:build windows

package ipc

import (
	"net"
	"time"

	"github.com/Microsoft/go-winio"
)

// PipeName is the Named Pipe path for the injector control plane.
const PipeName = `\\.\pipe\happycat-dpi`

// PipeListener creates the control-plane Named Pipe listener.
// The pipe allows any authenticated user to connect (the host UI runs
// unelevated while this process runs as administrator).
func PipeListener() (net.Listener, error) {
	cfg := &winio.PipeConfig{
		SecurityDescriptor: "D:P(A;;GA;;;AU)",
		MessageMode:        false,
		InputBufferSize:    4 * 1024,
		OutputBufferSize:   4 * 1024,
	}
	return winio.ListenPipe(PipeName, cfg)
}

// PipeDial connects to the control-plane pipe.
func PipeDial(timeout time.Duration) (net.Conn, error) {
	return winio.DialPipe(PipeName, &timeout)
}
