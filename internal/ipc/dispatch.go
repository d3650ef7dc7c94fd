// Package ipc exposes the injector control surface to the host UI process
// over a Named Pipe, as a small JSON request/response protocol.
package ipc

import (
	"encoding/json"
	"fmt"

	"happycat-dpi/internal/core"
)

// Injector is the engine surface the control plane drives.
type Injector interface {
	Start(serverIP string, serverPort uint16) bool
	Stop()
}

// Request is one control-plane call.
type Request struct {
	Method string          `json:"method"`
	Args   json.RawMessage `json:"args,omitempty"`
}

// Response is the reply to a Request. Exactly one of OK or Error is set.
type Response struct {
	OK      *bool  `json:"ok,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// StartArgs are the arguments of startTtlInjector. The port is decoded as
// float64 because clients send it as whatever numeric width their codec
// picks (int32, int64, or double).
type StartArgs struct {
	ServerIP   string  `json:"serverIp"`
	ServerPort float64 `json:"serverPort"`
}

// Dispatcher validates requests and forwards them to the injector. It
// holds no state of its own.
type Dispatcher struct {
	injector Injector
}

// NewDispatcher creates a dispatcher driving the given injector.
func NewDispatcher(inj Injector) *Dispatcher {
	return &Dispatcher{injector: inj}
}

func okResponse(v bool) Response {
	return Response{OK: &v}
}

func badArgs(msg string) Response {
	return Response{Error: "bad_args", Message: msg}
}

// Dispatch handles a single request.
func (d *Dispatcher) Dispatch(req Request) Response {
	core.Log.Debugf("IPC", "Method call: %s", req.Method)

	switch req.Method {
	case "startTtlInjector":
		if len(req.Args) == 0 {
			return badArgs("expected args for startTtlInjector")
		}
		var args StartArgs
		if err := json.Unmarshal(req.Args, &args); err != nil {
			return badArgs("expected object with serverIp/serverPort")
		}
		port := int64(args.ServerPort)
		if args.ServerIP == "" || port <= 0 || port > 65535 {
			return badArgs("missing serverIp/serverPort")
		}
		ok := d.injector.Start(args.ServerIP, uint16(port))
		core.Log.Debugf("IPC", "startTtlInjector result ok=%v", ok)
		return okResponse(ok)

	case "stopTtlInjector":
		d.injector.Stop()
		return okResponse(true)

	default:
		return Response{Error: "not_implemented", Message: fmt.Sprintf("unknown method %q", req.Method)}
	}
}
