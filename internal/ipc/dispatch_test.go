package ipc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeInjector records control-plane calls.
type fakeInjector struct {
	startIP   string
	startPort uint16
	starts    int
	stops     int
	startOK   bool
}

func (f *fakeInjector) Start(ip string, port uint16) bool {
	f.starts++
	f.startIP = ip
	f.startPort = port
	return f.startOK
}

func (f *fakeInjector) Stop() {
	f.stops++
}

func startRequest(t *testing.T, args any) Request {
	t.Helper()
	raw, err := json.Marshal(args)
	require.NoError(t, err)
	return Request{Method: "startTtlInjector", Args: raw}
}

func TestDispatchStart(t *testing.T) {
	inj := &fakeInjector{startOK: true}
	d := NewDispatcher(inj)

	resp := d.Dispatch(startRequest(t, map[string]any{"serverIp": "10.0.0.1", "serverPort": 443}))
	require.Empty(t, resp.Error)
	require.NotNil(t, resp.OK)
	require.True(t, *resp.OK)
	require.Equal(t, 1, inj.starts)
	require.Equal(t, "10.0.0.1", inj.startIP)
	require.Equal(t, uint16(443), inj.startPort)
}

func TestDispatchStartDriverFailure(t *testing.T) {
	inj := &fakeInjector{startOK: false}
	d := NewDispatcher(inj)

	resp := d.Dispatch(startRequest(t, map[string]any{"serverIp": "10.0.0.1", "serverPort": 443}))
	require.Empty(t, resp.Error)
	require.NotNil(t, resp.OK)
	require.False(t, *resp.OK)
}

func TestDispatchStartBadArgs(t *testing.T) {
	tests := []struct {
		name string
		args any
	}{
		{"empty ip", map[string]any{"serverIp": "", "serverPort": 443}},
		{"missing ip", map[string]any{"serverPort": 443}},
		{"port zero", map[string]any{"serverIp": "10.0.0.1", "serverPort": 0}},
		{"port too large", map[string]any{"serverIp": "10.0.0.1", "serverPort": 70000}},
		{"negative port", map[string]any{"serverIp": "10.0.0.1", "serverPort": -1}},
		{"not an object", "huh"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inj := &fakeInjector{startOK: true}
			resp := NewDispatcher(inj).Dispatch(startRequest(t, tt.args))
			require.Equal(t, "bad_args", resp.Error)
			require.Zero(t, inj.starts, "injector must not be touched")
		})
	}
}

func TestDispatchStartNoArgs(t *testing.T) {
	inj := &fakeInjector{}
	resp := NewDispatcher(inj).Dispatch(Request{Method: "startTtlInjector"})
	require.Equal(t, "bad_args", resp.Error)
	require.Zero(t, inj.starts)
}

// Clients encode the port as whatever numeric width their codec picks.
func TestDispatchStartDoublePort(t *testing.T) {
	inj := &fakeInjector{startOK: true}
	resp := NewDispatcher(inj).Dispatch(startRequest(t, map[string]any{"serverIp": "10.0.0.1", "serverPort": 443.0}))
	require.Empty(t, resp.Error)
	require.Equal(t, uint16(443), inj.startPort)
}

func TestDispatchStop(t *testing.T) {
	inj := &fakeInjector{}
	resp := NewDispatcher(inj).Dispatch(Request{Method: "stopTtlInjector"})
	require.Empty(t, resp.Error)
	require.NotNil(t, resp.OK)
	require.True(t, *resp.OK)
	require.Equal(t, 1, inj.stops)
}

func TestDispatchUnknownMethod(t *testing.T) {
	resp := NewDispatcher(&fakeInjector{}).Dispatch(Request{Method: "selfDestruct"})
	require.Equal(t, "not_implemented", resp.Error)
}
