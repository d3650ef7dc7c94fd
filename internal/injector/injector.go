// Package injector runs the phantom-decoy engine: it diverts outbound TCP
// flows headed for one configured server endpoint, injects a low-TTL decoy
// SYN ahead of the first packet of every new flow, and reinjects the
// genuine traffic untouched. The decoy poisons flow state on in-path DPI
// equipment and expires before it can reach the real server.
package injector

import (
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"happycat-dpi/internal/core"
	"happycat-dpi/internal/metrics"
	"happycat-dpi/internal/packet"
	"happycat-dpi/internal/windivert"
)

const logTag = "Injector"

// recvRetryWait is the backoff after a transient driver receive failure.
const recvRetryWait = 10 * time.Millisecond

// Deps holds dependencies for creating an Engine.
type Deps struct {
	// Driver, when set, is used directly (tests do this). Otherwise Loader
	// runs on the first Start and its result is kept for the process
	// lifetime — the driver DLL is never reloaded.
	Driver  windivert.Driver
	Loader  func() (windivert.Driver, error)
	Bus     *core.EventBus
	Metrics *metrics.Collector
}

// Engine owns the capture/inject worker and its session state. One engine
// drives at most one worker; Start on a running engine restarts it.
type Engine struct {
	loader  func() (windivert.Driver, error)
	bus     *core.EventBus
	metrics *metrics.Collector

	// lifeMu serializes Start/Stop against each other.
	lifeMu sync.Mutex
	drv    windivert.Driver

	stop atomic.Bool
	wg   sync.WaitGroup

	// mu guards handle and sessions. Never held across Recv, Send or
	// Shutdown; stopLocked closes a leftover handle while holding it.
	mu       sync.Mutex
	handle   windivert.Handle
	sessions map[sessionKey]struct{}
}

// New creates an engine. No driver is loaded and no worker runs until Start.
func New(deps Deps) *Engine {
	return &Engine{
		loader:   deps.Loader,
		drv:      deps.Driver,
		bus:      deps.Bus,
		metrics:  deps.Metrics,
		handle:   windivert.InvalidHandle,
		sessions: make(map[sessionKey]struct{}),
	}
}

// Start activates decoy injection for outbound flows to serverIP:serverPort.
// A previous worker is drained first, so Start doubles as restart. It
// returns false when the arguments are empty/zero or the driver cannot be
// loaded; in both cases no worker is spawned.
func (e *Engine) Start(serverIP string, serverPort uint16) bool {
	if serverIP == "" || serverPort == 0 {
		return false
	}

	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()

	e.stopLocked()

	if e.drv == nil {
		if e.loader == nil {
			core.Log.Errorf(logTag, "No driver loader configured")
			return false
		}
		drv, err := e.loader()
		if err != nil {
			core.Log.Errorf(logTag, "Driver load failed: %v", err)
			e.publish(core.Event{Type: core.EventDriverError, Payload: core.DriverErrorPayload{Op: "load", Err: err.Error()}})
			return false
		}
		e.drv = drv
	}

	e.stop.Store(false)
	core.Log.Infof(logTag, "Starting worker for %s:%d", serverIP, serverPort)
	e.wg.Add(1)
	go e.run(serverIP, serverPort)

	e.publish(core.Event{Type: core.EventInjectorStarted, Payload: core.InjectorStartedPayload{
		ServerIP:   serverIP,
		ServerPort: serverPort,
	}})
	return true
}

// Stop halts the worker, joins it, and clears all session state. Safe to
// call repeatedly and concurrently; a no-op when nothing is running.
func (e *Engine) Stop() {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()
	e.stopLocked()
}

// stopLocked is the teardown sequence: raise the stop flag, drain the
// driver handle so the in-flight recv returns, join the worker, then close
// whatever handle is left and wipe the session table.
func (e *Engine) stopLocked() {
	e.stop.Store(true)

	e.mu.Lock()
	handle := e.handle
	e.mu.Unlock()

	wasRunning := handle != windivert.InvalidHandle
	if wasRunning {
		_ = e.drv.Shutdown(handle, windivert.ShutdownBoth)
	}

	e.wg.Wait()

	e.mu.Lock()
	if e.handle != windivert.InvalidHandle {
		_ = e.drv.Close(e.handle)
		e.handle = windivert.InvalidHandle
	}
	clear(e.sessions)
	e.mu.Unlock()
	e.metrics.SetSessionsActive(0)

	if wasRunning {
		e.publish(core.Event{Type: core.EventInjectorStopped})
	}
}

// filterFor builds the driver filter for one server endpoint: outbound
// IPv4 TCP with matching destination address and port.
func filterFor(serverIP string, serverPort uint16) string {
	return fmt.Sprintf("outbound and ip and tcp and tcp.DstPort == %d and ip.DstAddr == %s", serverPort, serverIP)
}

// run is the worker: open the diversion handle, then loop
// recv → parse → (maybe decoy) → reinject until stopped.
func (e *Engine) run(serverIP string, serverPort uint16) {
	defer e.wg.Done()

	filter := filterFor(serverIP, serverPort)
	core.Log.Debugf(logTag, "Opening driver handle, filter=%q", filter)

	handle, err := e.drv.Open(filter, windivert.LayerNetwork, 0, windivert.FlagFragments)
	if err != nil {
		handle = windivert.InvalidHandle
	}
	e.mu.Lock()
	e.handle = handle
	e.mu.Unlock()
	if err != nil {
		core.Log.Errorf(logTag, "Driver open failed: %v", err)
		e.publish(core.Event{Type: core.EventDriverError, Payload: core.DriverErrorPayload{Op: "open", Err: err.Error()}})
		e.stop.Store(true)
		return
	}

	buf := make([]byte, windivert.MaxPacketSize)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for !e.stop.Load() {
		var addr windivert.Address
		n, err := e.drv.Recv(handle, buf, &addr)
		if err != nil {
			if e.stop.Load() {
				break
			}
			core.Log.Debugf(logTag, "Recv failed: %v", err)
			e.metrics.RecvError()
			time.Sleep(recvRetryWait)
			continue
		}
		if n == 0 {
			continue
		}
		e.metrics.PacketDiverted()

		p, ok := packet.Parse(buf[:n])
		if !ok {
			// The filter only matches IPv4 TCP, so this is unreachable
			// short of a driver bug. Drop rather than reinject garbage.
			continue
		}

		key := makeSessionKey(p)
		if e.firstSeen(key) {
			// The decoy inherits the genuine packet's address record so
			// the driver reinjects it on the same interface and direction.
			decoy := packet.BuildDecoy(p, rng)
			if _, err := e.drv.Send(handle, decoy, &addr); err != nil {
				core.Log.Debugf(logTag, "Decoy send failed: %v", err)
				e.metrics.SendError()
			} else {
				e.metrics.DecoyInjected()
			}
		}

		if _, err := e.drv.Send(handle, buf[:n], &addr); err != nil {
			core.Log.Debugf(logTag, "Send failed: %v", err)
			e.metrics.SendError()
		}

		if p.Flags()&(packet.FlagFIN|packet.FlagRST) != 0 {
			e.markDone(key)
		}
	}

	_ = e.drv.Close(handle)
	e.mu.Lock()
	e.handle = windivert.InvalidHandle
	clear(e.sessions)
	e.mu.Unlock()
	e.metrics.SetSessionsActive(0)
	core.Log.Infof(logTag, "Worker stopped")
}

func (e *Engine) publish(ev core.Event) {
	if e.bus != nil {
		e.bus.PublishAsync(ev)
	}
}
