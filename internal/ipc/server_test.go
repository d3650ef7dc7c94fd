package ipc

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// The pipe transport is windows-only; a loopback TCP listener exercises the
// same server and client code.
func TestServerRoundTrip(t *testing.T) {
	inj := &fakeInjector{startOK: true}
	srv := NewServer(NewDispatcher(inj))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	serveDone := make(chan error, 1)
	go func() { serveDone <- srv.Serve(ln) }()

	conn, err := net.DialTimeout("tcp", ln.Addr().String(), time.Second)
	require.NoError(t, err)
	client := NewClient(conn)
	defer client.Close()

	ok, err := client.StartTtlInjector("10.0.0.1", 443)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "10.0.0.1", inj.startIP)

	_, err = client.StartTtlInjector("", 443)
	require.Error(t, err)
	require.Contains(t, err.Error(), "bad_args")

	require.NoError(t, client.StopTtlInjector())
	require.Equal(t, 1, inj.stops)

	srv.Close()
	select {
	case err := <-serveDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Close")
	}
}
